package builtins

import (
	"strconv"

	"github.com/dustin/go-humanize"

	"artlang/internal/convert"
	"artlang/internal/errors"
	"artlang/internal/value"
	"artlang/internal/vm"
)

func init() {
	add(&Declaration{
		Builtin: vm.Builtin{Name: "as.binary", Arity: 1, Fn: biAsBinary},
		ArgTypes: []string{"integer|string"}, Returns: []string{"string"},
		Example: `as.binary 11`,
	})
	add(&Declaration{
		Builtin: vm.Builtin{Name: "as.hex", Arity: 1, Fn: biAsHex},
		ArgTypes: []string{"integer"}, Returns: []string{"string"},
		Example: `as.hex 255`,
	})
	add(&Declaration{
		Builtin: vm.Builtin{Name: "as.octal", Arity: 1, Fn: biAsOctal},
		ArgTypes: []string{"integer"}, Returns: []string{"string"},
		Example: `as.octal 8`,
	})
	add(&Declaration{
		Builtin: vm.Builtin{Name: "as.pretty", Arity: 1, Fn: biAsPretty},
		ArgTypes: []string{"integer|floating"}, Returns: []string{"string"},
		Example: `as.pretty 1000000`,
	})
}

func biAsBinary(m *vm.VM, args []value.Value, attrs map[string]value.Value) (value.Value, error) {
	out, err := convert.To(args[0], "binary")
	if err != nil {
		return value.Value{}, err
	}
	return value.StringVal(string(out.Bin)), nil
}

func biAsHex(m *vm.VM, args []value.Value, attrs map[string]value.Value) (value.Value, error) {
	if args[0].Tag != value.Integer || args[0].IKind != value.NormalInteger {
		return value.Value{}, errors.Newf(errors.TypeMismatch, "as.hex expects a machine integer, got %s", args[0].Tag)
	}
	return value.StringVal(strconv.FormatInt(args[0].I, 16)), nil
}

func biAsOctal(m *vm.VM, args []value.Value, attrs map[string]value.Value) (value.Value, error) {
	if args[0].Tag != value.Integer || args[0].IKind != value.NormalInteger {
		return value.Value{}, errors.Newf(errors.TypeMismatch, "as.octal expects a machine integer, got %s", args[0].Tag)
	}
	return value.StringVal(strconv.FormatInt(args[0].I, 8)), nil
}

func biAsPretty(m *vm.VM, args []value.Value, attrs map[string]value.Value) (value.Value, error) {
	switch args[0].Tag {
	case value.Integer:
		if args[0].IKind == value.BigInteger {
			return value.StringVal(args[0].Big.String()), nil
		}
		return value.StringVal(humanize.Comma(args[0].I)), nil
	case value.Floating:
		return value.StringVal(humanize.CommafWithDigits(args[0].F, 2)), nil
	}
	return value.Value{}, errors.Newf(errors.TypeMismatch, "as.pretty expects a number, got %s", args[0].Tag)
}
