package builtins

import (
	"artlang/internal/errors"
	"artlang/internal/value"
	"artlang/internal/vm"
	"artlang/internal/webclient"
)

var webModule = webclient.NewWebClientModule()

const defaultWebClientID = "default"

func init() {
	add(&Declaration{
		Builtin: vm.Builtin{Name: "web.get", Arity: 1, Fn: biWebGet},
		ArgTypes: []string{"string"}, Returns: []string{"dictionary"},
		Example: `web.get "https://example.com"`,
	})
	add(&Declaration{
		Builtin: vm.Builtin{Name: "web.post", Arity: 2, Fn: biWebPost},
		ArgTypes: []string{"string", "string"}, Returns: []string{"dictionary"},
		Example: `web.post "https://example.com" "body text"`,
	})
	add(&Declaration{
		Builtin: vm.Builtin{Name: "web.post.json", Arity: 2, Fn: biWebPostJSON},
		ArgTypes: []string{"string", "dictionary"}, Returns: []string{"dictionary"},
		Example: `web.post.json "https://example.com/api" #[name: "art"]`,
	})
}

func defaultWebClient() (*webclient.HTTPClient, error) {
	if c, ok := webModule.Clients[defaultWebClientID]; ok {
		return c, nil
	}
	return webModule.CreateClient(defaultWebClientID, map[string]interface{}{})
}

func responseDict(resp *webclient.HTTPResponse) value.Value {
	d := value.NewDict()
	d.Set("status", value.IntVal(int64(resp.StatusCode)))
	d.Set("body", value.StringVal(resp.Body))
	d.Set("contentType", value.StringVal(resp.ContentType))
	return value.DictVal(d)
}

func biWebGet(m *vm.VM, args []value.Value, attrs map[string]value.Value) (value.Value, error) {
	if args[0].Tag != value.String {
		return value.Value{}, errors.Newf(errors.TypeMismatch, "web.get expects a string URL, got %s", args[0].Tag)
	}
	if _, err := defaultWebClient(); err != nil {
		return value.Value{}, err
	}
	resp, err := webModule.Request(defaultWebClientID, &webclient.HTTPRequest{Method: "GET", URL: args[0].Str})
	if err != nil {
		return value.Value{}, err
	}
	return responseDict(resp), nil
}

func biWebPost(m *vm.VM, args []value.Value, attrs map[string]value.Value) (value.Value, error) {
	if args[0].Tag != value.String || args[1].Tag != value.String {
		return value.Value{}, errors.New(errors.TypeMismatch, "web.post expects a URL and a string body")
	}
	if _, err := defaultWebClient(); err != nil {
		return value.Value{}, err
	}
	resp, err := webModule.Request(defaultWebClientID, &webclient.HTTPRequest{Method: "POST", URL: args[0].Str, Body: args[1].Str})
	if err != nil {
		return value.Value{}, err
	}
	return responseDict(resp), nil
}

func biWebPostJSON(m *vm.VM, args []value.Value, attrs map[string]value.Value) (value.Value, error) {
	if args[0].Tag != value.String || args[1].Tag != value.Dictionary {
		return value.Value{}, errors.New(errors.TypeMismatch, "web.post.json expects a URL and a dictionary")
	}
	if _, err := defaultWebClient(); err != nil {
		return value.Value{}, err
	}
	payload := make(map[string]interface{}, args[1].Dct.Len())
	for _, k := range args[1].Dct.Keys() {
		v, _ := args[1].Dct.Get(k)
		payload[k] = value.Printable(v, nil)
	}
	resp, err := webModule.PostJSON(defaultWebClientID, args[0].Str, payload)
	if err != nil {
		return value.Value{}, err
	}
	return responseDict(resp), nil
}
