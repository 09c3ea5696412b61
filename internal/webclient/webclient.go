// Package webclient backs the language's web client value: session-aware
// HTTP GET/POST/JSON/form requests over the standard client, with cookie
// jars and TLS inspection carried along for introspection.
package webclient

import (
	"bytes"
	"compress/gzip"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"
)

// WebClientModule holds every live HTTP client and session; the builtins
// package keeps a single one shared by every VM.
type WebClientModule struct {
	Clients  map[string]*HTTPClient
	Sessions map[string]*Session
	mu       sync.RWMutex
}

// HTTPClient wraps a configured *http.Client under a language-visible ID.
type HTTPClient struct {
	ID             string
	Client         *http.Client
	BaseURL        string
	Headers        map[string]string
	Cookies        http.CookieJar
	Timeout        time.Duration
	UserAgent      string
	ProxyURL       string
	FollowRedirect bool
	TLSVerify      bool
}

// Session layers authenticated-login bookkeeping on top of a client.
type Session struct {
	ID            string
	Client        *HTTPClient
	Authenticated bool
	Username      string
	Token         string
	Cookies       []*http.Cookie
}

// HTTPRequest describes one outgoing request.
type HTTPRequest struct {
	Method         string
	URL            string
	Headers        map[string]string
	Body           string
	Cookies        map[string]string
	Timeout        time.Duration
	FollowRedirect bool
}

// HTTPResponse is the language-visible shape of a completed request.
type HTTPResponse struct {
	StatusCode   int
	Status       string
	Headers      http.Header
	Body         string
	Cookies      []*http.Cookie
	ContentType  string
	Length       int64
	ResponseTime time.Duration
	TLSInfo      *TLSInfo
}

// TLSInfo summarizes the negotiated connection for inspection by scripts.
type TLSInfo struct {
	Version          string
	CipherSuite      string
	PeerCertificates []CertInfo
}

// CertInfo is a flattened subset of x509.Certificate.
type CertInfo struct {
	Subject      string
	Issuer       string
	SerialNumber string
	NotBefore    time.Time
	NotAfter     time.Time
	DNSNames     []string
	IPAddresses  []string
	IsCA         bool
}

// NewWebClientModule creates an empty client/session registry.
func NewWebClientModule() *WebClientModule {
	return &WebClientModule{
		Clients:  make(map[string]*HTTPClient),
		Sessions: make(map[string]*Session),
	}
}

// CreateClient configures and registers a new HTTP client under id.
func (w *WebClientModule) CreateClient(id string, config map[string]interface{}) (*HTTPClient, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	tlsConfig := &tls.Config{InsecureSkipVerify: false}
	if verify, ok := config["tls_verify"].(bool); ok {
		tlsConfig.InsecureSkipVerify = !verify
	}

	transport := &http.Transport{TLSClientConfig: tlsConfig}

	var proxyURL string
	if p, ok := config["proxy"].(string); ok && p != "" {
		if parsed, err := url.Parse(p); err == nil {
			transport.Proxy = http.ProxyURL(parsed)
			proxyURL = p
		}
	}

	client := &http.Client{
		Jar:       jar,
		Transport: transport,
		Timeout:   30 * time.Second,
	}

	if timeout, ok := config["timeout"].(time.Duration); ok {
		client.Timeout = timeout
	} else if timeoutSec, ok := config["timeout"].(int); ok {
		client.Timeout = time.Duration(timeoutSec) * time.Second
	}

	followRedirect := true
	if follow, ok := config["follow_redirect"].(bool); ok {
		followRedirect = follow
	}
	if !followRedirect {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	httpClient := &HTTPClient{
		ID:             id,
		Client:         client,
		Headers:        make(map[string]string),
		Cookies:        jar,
		Timeout:        client.Timeout,
		UserAgent:      "artlang-webclient/1.0",
		ProxyURL:       proxyURL,
		FollowRedirect: followRedirect,
		TLSVerify:      !tlsConfig.InsecureSkipVerify,
	}

	if baseURL, ok := config["base_url"].(string); ok {
		httpClient.BaseURL = baseURL
	}
	if ua, ok := config["user_agent"].(string); ok {
		httpClient.UserAgent = ua
	}
	if headers, ok := config["headers"].(map[string]string); ok {
		for k, v := range headers {
			httpClient.Headers[k] = v
		}
	}

	w.mu.Lock()
	w.Clients[id] = httpClient
	w.mu.Unlock()
	return httpClient, nil
}

// Request performs an HTTP request through a registered client.
func (w *WebClientModule) Request(clientID string, req *HTTPRequest) (*HTTPResponse, error) {
	w.mu.RLock()
	client, exists := w.Clients[clientID]
	w.mu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("client not found: %s", clientID)
	}

	startTime := time.Now()

	var body io.Reader
	if req.Body != "" {
		body = strings.NewReader(req.Body)
	}

	httpReq, err := http.NewRequest(req.Method, req.URL, body)
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("User-Agent", client.UserAgent)
	for k, v := range client.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	for name, val := range req.Cookies {
		httpReq.AddCookie(&http.Cookie{Name: name, Value: val})
	}

	resp, err := client.Client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var bodyBytes []byte
	if strings.Contains(resp.Header.Get("Content-Encoding"), "gzip") {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err == nil {
			defer gzipReader.Close()
			bodyBytes, _ = io.ReadAll(gzipReader)
		}
	} else {
		bodyBytes, _ = io.ReadAll(resp.Body)
	}

	response := &HTTPResponse{
		StatusCode:   resp.StatusCode,
		Status:       resp.Status,
		Headers:      resp.Header,
		Body:         string(bodyBytes),
		Cookies:      resp.Cookies(),
		ContentType:  resp.Header.Get("Content-Type"),
		Length:       resp.ContentLength,
		ResponseTime: time.Since(startTime),
	}

	if resp.TLS != nil {
		response.TLSInfo = w.extractTLSInfo(resp.TLS)
	}
	return response, nil
}

func (w *WebClientModule) extractTLSInfo(state *tls.ConnectionState) *TLSInfo {
	tlsInfo := &TLSInfo{
		Version:     w.getTLSVersion(state.Version),
		CipherSuite: tls.CipherSuiteName(state.CipherSuite),
	}
	for _, cert := range state.PeerCertificates {
		certInfo := CertInfo{
			Subject:      cert.Subject.String(),
			Issuer:       cert.Issuer.String(),
			SerialNumber: cert.SerialNumber.String(),
			NotBefore:    cert.NotBefore,
			NotAfter:     cert.NotAfter,
			DNSNames:     cert.DNSNames,
			IsCA:         cert.IsCA,
		}
		for _, ip := range cert.IPAddresses {
			certInfo.IPAddresses = append(certInfo.IPAddresses, ip.String())
		}
		tlsInfo.PeerCertificates = append(tlsInfo.PeerCertificates, certInfo)
	}
	return tlsInfo
}

func (w *WebClientModule) getTLSVersion(version uint16) string {
	switch version {
	case tls.VersionTLS10:
		return "TLS 1.0"
	case tls.VersionTLS11:
		return "TLS 1.1"
	case tls.VersionTLS12:
		return "TLS 1.2"
	case tls.VersionTLS13:
		return "TLS 1.3"
	default:
		return fmt.Sprintf("Unknown (0x%04x)", version)
	}
}

// CreateSession attaches authenticated-login bookkeeping to a client.
func (w *WebClientModule) CreateSession(sessionID, clientID string) (*Session, error) {
	w.mu.RLock()
	client, exists := w.Clients[clientID]
	w.mu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("client not found: %s", clientID)
	}

	session := &Session{
		ID:      sessionID,
		Client:  client,
		Cookies: make([]*http.Cookie, 0),
	}

	w.mu.Lock()
	w.Sessions[sessionID] = session
	w.mu.Unlock()
	return session, nil
}

// Login submits a username/password form and records the resulting cookies.
func (w *WebClientModule) Login(sessionID, loginURL, username, password string, extraParams map[string]string) error {
	w.mu.RLock()
	session, exists := w.Sessions[sessionID]
	w.mu.RUnlock()
	if !exists {
		return fmt.Errorf("session not found: %s", sessionID)
	}

	data := url.Values{}
	data.Set("username", username)
	data.Set("password", password)
	for k, v := range extraParams {
		data.Set(k, v)
	}

	req := &HTTPRequest{
		Method:  "POST",
		URL:     loginURL,
		Headers: map[string]string{"Content-Type": "application/x-www-form-urlencoded"},
		Body:    data.Encode(),
	}

	resp, err := w.Request(session.Client.ID, req)
	if err != nil {
		return err
	}

	if resp.StatusCode == 200 || resp.StatusCode == 302 {
		session.Authenticated = true
		session.Username = username
		session.Cookies = resp.Cookies
		for _, cookie := range resp.Cookies {
			name := strings.ToLower(cookie.Name)
			if strings.Contains(name, "token") || strings.Contains(name, "session") {
				session.Token = cookie.Value
				break
			}
		}
		return nil
	}
	return fmt.Errorf("login failed with status: %d", resp.StatusCode)
}

// GetClientInfo reports a client's configuration for introspection.
func (w *WebClientModule) GetClientInfo(clientID string) (map[string]interface{}, error) {
	w.mu.RLock()
	client, exists := w.Clients[clientID]
	w.mu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("client not found: %s", clientID)
	}
	return map[string]interface{}{
		"id":              client.ID,
		"base_url":        client.BaseURL,
		"user_agent":      client.UserAgent,
		"timeout":         client.Timeout.Seconds(),
		"follow_redirect": client.FollowRedirect,
		"tls_verify":      client.TLSVerify,
		"headers":         client.Headers,
	}, nil
}

// ParseJSON decodes a JSON response body.
func (w *WebClientModule) ParseJSON(jsonStr string) (map[string]interface{}, error) {
	var result map[string]interface{}
	err := json.Unmarshal([]byte(jsonStr), &result)
	return result, err
}

// FormatJSON encodes data as an indented JSON string.
func (w *WebClientModule) FormatJSON(data map[string]interface{}) (string, error) {
	jsonBytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonBytes), nil
}

// GetCookies returns the cookies a client's jar holds for a URL.
func (w *WebClientModule) GetCookies(clientID string, urlStr string) ([]*http.Cookie, error) {
	w.mu.RLock()
	client, exists := w.Clients[clientID]
	w.mu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("client not found: %s", clientID)
	}
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %s", urlStr)
	}
	return client.Cookies.Cookies(parsedURL), nil
}

// PostJSON marshals data and sends it as a JSON POST body.
func (w *WebClientModule) PostJSON(clientID string, targetURL string, data interface{}) (*HTTPResponse, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	req := &HTTPRequest{
		Method:  "POST",
		URL:     targetURL,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    string(jsonData),
	}
	return w.Request(clientID, req)
}

// PostForm URL-encodes formData and sends it as a POST body.
func (w *WebClientModule) PostForm(clientID string, targetURL string, formData map[string]string) (*HTTPResponse, error) {
	values := make(url.Values)
	for k, v := range formData {
		values.Set(k, v)
	}
	body := bytes.NewBufferString(values.Encode())
	req := &HTTPRequest{
		Method:  "POST",
		URL:     targetURL,
		Headers: map[string]string{"Content-Type": "application/x-www-form-urlencoded"},
		Body:    body.String(),
	}
	return w.Request(clientID, req)
}
