package builtins

import (
	"os"

	"artlang/internal/errors"
	"artlang/internal/termcolor"
	"artlang/internal/value"
	"artlang/internal/vm"
)

var colorNames = map[string]termcolor.Color{
	"red": termcolor.Red, "green": termcolor.Green, "yellow": termcolor.Yellow,
	"blue": termcolor.Blue, "cyan": termcolor.Cyan,
}

func init() {
	add(&Declaration{
		Builtin: vm.Builtin{Name: "color", Arity: 2, Fn: biColor},
		ArgTypes: []string{"string", "string"}, Returns: []string{"string"},
		Example: `color "red" "failed"`,
	})
}

func biColor(m *vm.VM, args []value.Value, attrs map[string]value.Value) (value.Value, error) {
	if args[0].Tag != value.String || args[1].Tag != value.String {
		return value.Value{}, errors.New(errors.TypeMismatch, "color expects a color name and a string")
	}
	c, ok := colorNames[args[0].Str]
	if !ok {
		return value.Value{}, errors.Newf(errors.TypeMismatch, "unknown color %q", args[0].Str)
	}
	return value.StringVal(termcolor.Wrap(os.Stdout, c, args[1].Str)), nil
}
