package builtins

import (
	"artlang/internal/filesystem"
	"artlang/internal/value"
	"artlang/internal/vm"
)

var fsModule = filesystem.NewFileSystemModule()

func init() {
	add(&Declaration{
		Builtin: vm.Builtin{Name: "read.file", Arity: 1, Fn: biReadFile},
		ArgTypes: []string{"string"}, Returns: []string{"string"},
		Example: `read.file "notes.txt"`,
	})
	add(&Declaration{
		Builtin: vm.Builtin{Name: "write.file", Arity: 2, Fn: biWriteFile},
		ArgTypes: []string{"string", "string"}, Returns: []string{"null"},
		Example: `write.file "notes.txt" "hello"`,
	})
	add(&Declaration{
		Builtin: vm.Builtin{Name: "exists?", Arity: 1, Fn: biExists},
		ArgTypes: []string{"string"}, Returns: []string{"logical"},
		Example: `exists? "notes.txt"`,
	})
}

func biReadFile(m *vm.VM, args []value.Value, attrs map[string]value.Value) (value.Value, error) {
	contents, err := fsModule.ReadFile(args[0].Str)
	if err != nil {
		return value.Value{}, err
	}
	return value.StringVal(contents), nil
}

func biWriteFile(m *vm.VM, args []value.Value, attrs map[string]value.Value) (value.Value, error) {
	if err := fsModule.WriteFile(args[0].Str, args[1].Str); err != nil {
		return value.Value{}, err
	}
	return value.NullVal(), nil
}

func biExists(m *vm.VM, args []value.Value, attrs map[string]value.Value) (value.Value, error) {
	return value.LogicalVal(fsModule.Exists(args[0].Str)), nil
}
