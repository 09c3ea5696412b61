// Package mailer backs the language's `mail.send` builtin: a single SMTP
// send, no inbox, no templates, no queue.
package mailer

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Message is one outgoing email.
type Message struct {
	From    string
	To      []string
	Subject string
	Body    string
}

// Send dials host:port, authenticates with plain auth when a username is
// given, and delivers msg.
func Send(host string, port int, username, password string, msg Message) error {
	addr := fmt.Sprintf("%s:%d", host, port)

	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	body := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		msg.From, strings.Join(msg.To, ", "), msg.Subject, msg.Body)

	if err := smtp.SendMail(addr, auth, msg.From, msg.To, []byte(body)); err != nil {
		return fmt.Errorf("send failed: %w", err)
	}
	return nil
}
