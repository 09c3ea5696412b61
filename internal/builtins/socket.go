package builtins

import (
	"time"

	"artlang/internal/errors"
	"artlang/internal/network"
	"artlang/internal/value"
	"artlang/internal/vm"
)

var netModule = network.NewNetworkModule()

func init() {
	add(&Declaration{
		Builtin: vm.Builtin{Name: "socket.open", Arity: 2, Attributes: []string{"udp"}, Fn: biSocketOpen},
		ArgTypes: []string{"string", "integer"}, Returns: []string{"socket"},
		Example: `socket.open "localhost" 9000`,
	})
	add(&Declaration{
		Builtin: vm.Builtin{Name: "socket.send", Arity: 2, Fn: biSocketSend},
		ArgTypes: []string{"socket", "string"}, Returns: []string{"integer"},
		Example: `socket.send conn "ping"`,
	})
	add(&Declaration{
		Builtin: vm.Builtin{Name: "socket.receive", Arity: 1, Attributes: []string{"timeout"}, Fn: biSocketReceive},
		ArgTypes: []string{"socket"}, Returns: []string{"string"},
		Example: `socket.receive conn`,
	})
	add(&Declaration{
		Builtin: vm.Builtin{Name: "socket.close", Arity: 1, Fn: biSocketClose},
		ArgTypes: []string{"socket"}, Returns: []string{"null"},
		Example: `socket.close conn`,
	})
	add(&Declaration{
		Builtin: vm.Builtin{Name: "ws.connect", Arity: 1, Fn: biWSConnect},
		ArgTypes: []string{"string"}, Returns: []string{"socket"},
		Example: `ws.connect "ws://localhost:9000/echo"`,
	})
	add(&Declaration{
		Builtin: vm.Builtin{Name: "ws.send", Arity: 2, Fn: biWSSend},
		ArgTypes: []string{"socket", "string"}, Returns: []string{"null"},
		Example: `ws.send conn "ping"`,
	})
	add(&Declaration{
		Builtin: vm.Builtin{Name: "ws.receive", Arity: 1, Fn: biWSReceive},
		ArgTypes: []string{"socket"}, Returns: []string{"string"},
		Example: `ws.receive conn`,
	})
	add(&Declaration{
		Builtin: vm.Builtin{Name: "ws.close", Arity: 1, Fn: biWSClose},
		ArgTypes: []string{"socket"}, Returns: []string{"null"},
		Example: `ws.close conn`,
	})
}

func socketHandle(id string) value.Value {
	return value.Value{Tag: value.Socket, SockHandle: id}
}

func socketID(v value.Value) (string, error) {
	if v.Tag != value.Socket {
		return "", errors.Newf(errors.TypeMismatch, "expected a socket, got %s", v.Tag)
	}
	id, ok := v.SockHandle.(string)
	if !ok {
		return "", errors.New(errors.TypeMismatch, "socket value has no handle")
	}
	return id, nil
}

func biSocketOpen(m *vm.VM, args []value.Value, attrs map[string]value.Value) (value.Value, error) {
	if args[0].Tag != value.String || args[1].Tag != value.Integer {
		return value.Value{}, errors.New(errors.TypeMismatch, "socket.open expects a host string and a port integer")
	}
	sockType := "tcp"
	if v, ok := attrs["udp"]; ok && v.IsTruthy() {
		sockType = "udp"
	}
	id := newHandleID("sock")
	if _, err := netModule.CreateSocket(id, sockType, args[0].Str, int(args[1].I)); err != nil {
		return value.Value{}, err
	}
	return socketHandle(id), nil
}

func biSocketSend(m *vm.VM, args []value.Value, attrs map[string]value.Value) (value.Value, error) {
	id, err := socketID(args[0])
	if err != nil {
		return value.Value{}, err
	}
	if args[1].Tag != value.String {
		return value.Value{}, errors.New(errors.TypeMismatch, "socket.send expects a string payload")
	}
	n, err := netModule.Send(id, []byte(args[1].Str))
	if err != nil {
		return value.Value{}, err
	}
	return value.IntVal(int64(n)), nil
}

func biSocketReceive(m *vm.VM, args []value.Value, attrs map[string]value.Value) (value.Value, error) {
	id, err := socketID(args[0])
	if err != nil {
		return value.Value{}, err
	}
	timeout := 30 * time.Second
	if v, ok := attrs["timeout"]; ok && v.Tag == value.Integer {
		timeout = time.Duration(v.I) * time.Second
	}
	data, err := netModule.Receive(id, timeout)
	if err != nil {
		return value.Value{}, err
	}
	return value.StringVal(string(data)), nil
}

func biSocketClose(m *vm.VM, args []value.Value, attrs map[string]value.Value) (value.Value, error) {
	id, err := socketID(args[0])
	if err != nil {
		return value.Value{}, err
	}
	if err := netModule.CloseSocket(id); err != nil {
		return value.Value{}, err
	}
	return value.NullVal(), nil
}

func biWSConnect(m *vm.VM, args []value.Value, attrs map[string]value.Value) (value.Value, error) {
	if args[0].Tag != value.String {
		return value.Value{}, errors.New(errors.TypeMismatch, "ws.connect expects a URL string")
	}
	conn, err := netModule.WebSocketConnect(args[0].Str)
	if err != nil {
		return value.Value{}, err
	}
	return socketHandle(conn.ID), nil
}

func biWSSend(m *vm.VM, args []value.Value, attrs map[string]value.Value) (value.Value, error) {
	id, err := socketID(args[0])
	if err != nil {
		return value.Value{}, err
	}
	if args[1].Tag != value.String {
		return value.Value{}, errors.New(errors.TypeMismatch, "ws.send expects a string payload")
	}
	if err := netModule.WebSocketSend(id, args[1].Str); err != nil {
		return value.Value{}, err
	}
	return value.NullVal(), nil
}

func biWSReceive(m *vm.VM, args []value.Value, attrs map[string]value.Value) (value.Value, error) {
	id, err := socketID(args[0])
	if err != nil {
		return value.Value{}, err
	}
	msg, err := netModule.WebSocketReceive(id, 30*time.Second)
	if err != nil {
		return value.Value{}, err
	}
	return value.StringVal(msg), nil
}

func biWSClose(m *vm.VM, args []value.Value, attrs map[string]value.Value) (value.Value, error) {
	id, err := socketID(args[0])
	if err != nil {
		return value.Value{}, err
	}
	if err := netModule.WebSocketClose(id); err != nil {
		return value.Value{}, err
	}
	return value.NullVal(), nil
}
