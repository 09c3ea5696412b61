package builtins

import (
	"artlang/internal/errors"
	"artlang/internal/mailer"
	"artlang/internal/value"
	"artlang/internal/vm"
)

func init() {
	add(&Declaration{
		Builtin: vm.Builtin{Name: "mail.send", Arity: 4, Attributes: []string{"host", "port", "user", "pass"}, Fn: biMailSend},
		ArgTypes: []string{"string", "string", "string", "string"}, Returns: []string{"null"},
		Example: `mail.send "me@example.com" "you@example.com" "hi" "hello there" .host:"smtp.example.com" .port:587`,
	})
}

func biMailSend(m *vm.VM, args []value.Value, attrs map[string]value.Value) (value.Value, error) {
	for _, a := range args {
		if a.Tag != value.String {
			return value.Value{}, errors.New(errors.TypeMismatch, "mail.send expects four strings: from, to, subject, body")
		}
	}
	host := "localhost"
	port := 25
	var user, pass string
	if v, ok := attrs["host"]; ok && v.Tag == value.String {
		host = v.Str
	}
	if v, ok := attrs["port"]; ok && v.Tag == value.Integer {
		port = int(v.I)
	}
	if v, ok := attrs["user"]; ok && v.Tag == value.String {
		user = v.Str
	}
	if v, ok := attrs["pass"]; ok && v.Tag == value.String {
		pass = v.Str
	}

	msg := mailer.Message{
		From:    args[0].Str,
		To:      []string{args[1].Str},
		Subject: args[2].Str,
		Body:    args[3].Str,
	}
	if err := mailer.Send(host, port, user, pass, msg); err != nil {
		return value.Value{}, err
	}
	return value.NullVal(), nil
}
