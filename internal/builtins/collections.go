package builtins

import (
	"strings"

	"artlang/internal/errors"
	"artlang/internal/value"
	"artlang/internal/vm"
)

func init() {
	add(&Declaration{
		Builtin: vm.Builtin{Name: "size", Arity: 1, Fn: biSize},
		ArgTypes: []string{"block|string|dictionary|range"}, Returns: []string{"integer"},
		Example: `size [1 2 3]`,
	})
	add(&Declaration{
		Builtin: vm.Builtin{Name: "reverse", Arity: 1, Fn: biReverse},
		ArgTypes: []string{"block|string"}, Returns: []string{"block|string"},
		Example: `reverse [1 2 3]`,
	})
	add(&Declaration{
		Builtin: vm.Builtin{Name: "append", Arity: 2, Fn: biAppend},
		ArgTypes: []string{"block", "any"}, Returns: []string{"block"},
		Example: `append [1 2] 3`,
	})
	add(&Declaration{
		Builtin: vm.Builtin{Name: "split", Arity: 2, Fn: biSplit},
		ArgTypes: []string{"string", "string"}, Returns: []string{"block"},
		Example: `split "a,b,c" ","`,
	})
	add(&Declaration{
		Builtin: vm.Builtin{Name: "join", Arity: 2, Fn: biJoin},
		ArgTypes: []string{"block", "string"}, Returns: []string{"string"},
		Example: `join ["a" "b"] ","`,
	})
	add(&Declaration{
		Builtin: vm.Builtin{Name: "replace", Arity: 3, Fn: biReplace},
		ArgTypes: []string{"string", "string", "string"}, Returns: []string{"string"},
		Example: `replace "hello" "l" "L"`,
	})
	add(&Declaration{
		Builtin: vm.Builtin{Name: "first", Arity: 1, Fn: biFirst},
		ArgTypes: []string{"block|string"}, Returns: []string{"any"},
		Example: `first [1 2 3]`,
	})
	add(&Declaration{
		Builtin: vm.Builtin{Name: "last", Arity: 1, Fn: biLast},
		ArgTypes: []string{"block|string"}, Returns: []string{"any"},
		Example: `last [1 2 3]`,
	})
}

func biSize(m *vm.VM, args []value.Value, attrs map[string]value.Value) (value.Value, error) {
	v := args[0]
	switch v.Tag {
	case value.BlockTag, value.Inline:
		if v.Blk.Kind == value.DictBlock && v.Blk.Data != nil {
			return value.IntVal(int64(v.Blk.Data.Len())), nil
		}
		return value.IntVal(int64(len(v.Blk.Elements))), nil
	case value.Dictionary:
		return value.IntVal(int64(v.Dct.Len())), nil
	case value.String:
		return value.IntVal(int64(len([]rune(v.Str)))), nil
	case value.Binary:
		return value.IntVal(int64(len(v.Bin))), nil
	case value.RangeTag:
		r := v.Rng
		if r.Step == 0 {
			return value.Value{}, errors.New(errors.RangeWithZeroStep, "range has a zero step")
		}
		if (r.Forward && r.Stop < r.Start) || (!r.Forward && r.Stop > r.Start) {
			return value.IntVal(0), nil
		}
		return value.IntVal((r.Stop-r.Start)/r.Step + 1), nil
	}
	return value.Value{}, errors.Newf(errors.TypeMismatch, "size does not apply to %s", v.Tag)
}

func biReverse(m *vm.VM, args []value.Value, attrs map[string]value.Value) (value.Value, error) {
	v := args[0]
	switch v.Tag {
	case value.BlockTag:
		elems := append([]value.Value(nil), v.Blk.Elements...)
		for i, j := 0, len(elems)-1; i < j; i, j = i+1, j-1 {
			elems[i], elems[j] = elems[j], elems[i]
		}
		return value.BlockVal(elems), nil
	case value.String:
		runes := []rune(v.Str)
		for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
			runes[i], runes[j] = runes[j], runes[i]
		}
		return value.StringVal(string(runes)), nil
	}
	return value.Value{}, errors.Newf(errors.TypeMismatch, "reverse does not apply to %s", v.Tag)
}

func biAppend(m *vm.VM, args []value.Value, attrs map[string]value.Value) (value.Value, error) {
	if args[0].Tag != value.BlockTag {
		return value.Value{}, errors.Newf(errors.TypeMismatch, "append expects a block, got %s", args[0].Tag)
	}
	elems := append(append([]value.Value(nil), args[0].Blk.Elements...), args[1])
	return value.BlockVal(elems), nil
}

func biSplit(m *vm.VM, args []value.Value, attrs map[string]value.Value) (value.Value, error) {
	if args[0].Tag != value.String || args[1].Tag != value.String {
		return value.Value{}, errors.New(errors.TypeMismatch, "split expects two strings")
	}
	parts := strings.Split(args[0].Str, args[1].Str)
	elems := make([]value.Value, len(parts))
	for i, p := range parts {
		elems[i] = value.StringVal(p)
	}
	return value.BlockVal(elems), nil
}

func biJoin(m *vm.VM, args []value.Value, attrs map[string]value.Value) (value.Value, error) {
	if args[0].Tag != value.BlockTag || args[1].Tag != value.String {
		return value.Value{}, errors.New(errors.TypeMismatch, "join expects a block and a string separator")
	}
	parts := make([]string, len(args[0].Blk.Elements))
	for i, e := range args[0].Blk.Elements {
		parts[i] = value.Printable(e, nil)
	}
	return value.StringVal(strings.Join(parts, args[1].Str)), nil
}

func biReplace(m *vm.VM, args []value.Value, attrs map[string]value.Value) (value.Value, error) {
	if args[0].Tag != value.String || args[1].Tag != value.String || args[2].Tag != value.String {
		return value.Value{}, errors.New(errors.TypeMismatch, "replace expects three strings")
	}
	return value.StringVal(strings.ReplaceAll(args[0].Str, args[1].Str, args[2].Str)), nil
}

func biFirst(m *vm.VM, args []value.Value, attrs map[string]value.Value) (value.Value, error) {
	switch args[0].Tag {
	case value.BlockTag:
		if len(args[0].Blk.Elements) == 0 {
			return value.Value{}, errors.New(errors.IndexOutOfBounds, "first on an empty block")
		}
		return args[0].Blk.Elements[0], nil
	case value.String:
		runes := []rune(args[0].Str)
		if len(runes) == 0 {
			return value.Value{}, errors.New(errors.IndexOutOfBounds, "first on an empty string")
		}
		return value.CharVal(runes[0]), nil
	}
	return value.Value{}, errors.Newf(errors.TypeMismatch, "first does not apply to %s", args[0].Tag)
}

func biLast(m *vm.VM, args []value.Value, attrs map[string]value.Value) (value.Value, error) {
	switch args[0].Tag {
	case value.BlockTag:
		if len(args[0].Blk.Elements) == 0 {
			return value.Value{}, errors.New(errors.IndexOutOfBounds, "last on an empty block")
		}
		return args[0].Blk.Elements[len(args[0].Blk.Elements)-1], nil
	case value.String:
		runes := []rune(args[0].Str)
		if len(runes) == 0 {
			return value.Value{}, errors.New(errors.IndexOutOfBounds, "last on an empty string")
		}
		return value.CharVal(runes[len(runes)-1]), nil
	}
	return value.Value{}, errors.Newf(errors.TypeMismatch, "last does not apply to %s", args[0].Tag)
}
