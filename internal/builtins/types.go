package builtins

import (
	"artlang/internal/errors"
	"artlang/internal/value"
	"artlang/internal/vm"
)

func init() {
	add(&Declaration{
		Builtin: vm.Builtin{Name: "define", Arity: 3, Attributes: []string{"as"}, Fn: biDefine},
		ArgTypes: []string{"type", "block", "block"}, Returns: []string{"null"},
		Example: `define :point [x y][ print: $[][ print this ]]`,
	})
	add(&Declaration{
		Builtin: vm.Builtin{Name: "is", Arity: 2, Fn: biIs},
		ArgTypes: []string{"type", "block"}, Returns: []string{"null"},
		Example: `is :greeter [ hello: $[][ print "hi" ]]`,
	})
}

func biDefine(m *vm.VM, args []value.Value, attrs map[string]value.Value) (value.Value, error) {
	if args[0].Tag != value.TypeTag {
		return value.Value{}, errors.New(errors.TypeMismatch, "define expects a type literal")
	}
	if args[1].Tag != value.BlockTag || args[2].Tag != value.BlockTag {
		return value.Value{}, errors.New(errors.TypeMismatch, "define expects a fields block and a methods block")
	}
	if _, bad := attrs["having"]; bad {
		return value.Value{}, errors.New(errors.TypeMismatch, "define: .having is not supported, pass the fields block positionally")
	}
	fields, err := fieldNames(args[1].Blk)
	if err != nil {
		return value.Value{}, err
	}
	parentName := ""
	if v, ok := attrs["as"]; ok {
		if v.Tag != value.TypeTag {
			return value.Value{}, errors.New(errors.TypeMismatch, "define: .as expects a type literal")
		}
		parentName = v.Str
	}
	if err := m.DefineType(args[0].Str, fields, args[2].Blk, parentName); err != nil {
		return value.Value{}, err
	}
	return value.NullVal(), nil
}

func biIs(m *vm.VM, args []value.Value, attrs map[string]value.Value) (value.Value, error) {
	if args[0].Tag != value.TypeTag {
		return value.Value{}, errors.New(errors.TypeMismatch, "is expects a type literal")
	}
	if args[1].Tag != value.BlockTag {
		return value.Value{}, errors.New(errors.TypeMismatch, "is expects a methods block")
	}
	if _, bad := attrs["as"]; bad {
		return value.Value{}, errors.New(errors.TypeMismatch, "is: inheritance is not supported, use define")
	}
	if _, bad := attrs["having"]; bad {
		return value.Value{}, errors.New(errors.TypeMismatch, "is: field schemas are not supported, use define")
	}
	if err := m.DefineType(args[0].Str, nil, args[1].Blk, ""); err != nil {
		return value.Value{}, err
	}
	return value.NullVal(), nil
}

func fieldNames(blk *value.Block) ([]string, error) {
	names := make([]string, 0, len(blk.Elements))
	for _, e := range blk.Elements {
		if e.Tag != value.Word && e.Tag != value.Literal {
			return nil, errors.New(errors.TypeMismatch, "define: field list must be bare names")
		}
		names = append(names, e.Str)
	}
	return names, nil
}
