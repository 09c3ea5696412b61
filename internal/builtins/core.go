package builtins

import (
	"fmt"

	"artlang/internal/errors"
	"artlang/internal/value"
	"artlang/internal/vm"
)

func init() {
	add(&Declaration{
		Builtin: vm.Builtin{Name: "print", Arity: 1, Fn: biPrint},
		ArgTypes: []string{"any"}, Returns: []string{"null"},
		Example: `print "Hello world!"`,
	})
	add(&Declaration{
		Builtin: vm.Builtin{Name: "log", Arity: 1, Fn: biLog},
		ArgTypes: []string{"any"}, Returns: []string{"null"},
		Example: `log "debugging"`,
	})
	add(&Declaration{
		Builtin: vm.Builtin{Name: "inspect", Arity: 1, Fn: biInspect},
		ArgTypes: []string{"any"}, Returns: []string{"null"},
		Example: `inspect [1 2 3]`,
	})
	add(&Declaration{
		Builtin: vm.Builtin{Name: "not", Arity: 1, Fn: biNot},
		ArgTypes: []string{"any"}, Returns: []string{"logical"},
		Example: `not true`,
	})
	add(&Declaration{
		Builtin: vm.Builtin{Name: "type", Arity: 1, Fn: biType},
		ArgTypes: []string{"any"}, Returns: []string{"type"},
		Example: `type 5`,
	})
	add(&Declaration{
		Builtin: vm.Builtin{Name: "range", Arity: 2, Attributes: []string{"step"}, Fn: biRange},
		ArgTypes: []string{"integer", "integer"}, Returns: []string{"range"},
		Example: `range 1 10 .step:2`,
	})
}

func biPrint(m *vm.VM, args []value.Value, attrs map[string]value.Value) (value.Value, error) {
	fmt.Fprintln(m.Out, value.Printable(args[0], m.ObjectPrinter()))
	return value.NullVal(), nil
}

func biLog(m *vm.VM, args []value.Value, attrs map[string]value.Value) (value.Value, error) {
	fmt.Fprintln(m.Err, value.Printable(args[0], m.ObjectPrinter()))
	return value.NullVal(), nil
}

func biInspect(m *vm.VM, args []value.Value, attrs map[string]value.Value) (value.Value, error) {
	fmt.Fprintln(m.Out, value.Codify(args[0], true, false, true))
	return value.NullVal(), nil
}

func biNot(m *vm.VM, args []value.Value, attrs map[string]value.Value) (value.Value, error) {
	return value.LogicalVal(!args[0].IsTruthy()), nil
}

func biType(m *vm.VM, args []value.Value, attrs map[string]value.Value) (value.Value, error) {
	return value.TypeVal(args[0].Tag.String()), nil
}

func biRange(m *vm.VM, args []value.Value, attrs map[string]value.Value) (value.Value, error) {
	if args[0].Tag != value.Integer || args[1].Tag != value.Integer {
		return value.Value{}, errors.Newf(errors.TypeMismatch, "range expects integer bounds, got %s and %s", args[0].Tag, args[1].Tag)
	}
	start, stop := args[0].I, args[1].I
	step := int64(1)
	if s, ok := attrs["step"]; ok {
		if s.Tag != value.Integer {
			return value.Value{}, errors.Newf(errors.TypeMismatch, "range .step expects an integer, got %s", s.Tag)
		}
		step = s.I
	}
	if step == 0 {
		return value.Value{}, errors.New(errors.RangeWithZeroStep, "range has a zero step")
	}
	forward := stop >= start
	if forward && step < 0 {
		step = -step
	}
	if !forward && step > 0 {
		step = -step
	}
	return value.RangeVal(&value.Range{Start: start, Stop: stop, Step: step, Numeric: true, Forward: forward}), nil
}
