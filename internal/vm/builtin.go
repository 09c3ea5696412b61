package vm

import "artlang/internal/value"

// Builtin is one entry of the VM's native function registry. Arity is the
// number of positional arguments the translator will compile call sites
// for; Attributes names the accepted `.name`/`.name:value` call attributes.
type Builtin struct {
	Name       string
	Arity      int
	Attributes []string
	Fn         func(vm *VM, args []value.Value, attrs map[string]value.Value) (value.Value, error)
}

// Registry is a flat name->Builtin table, populated by internal/builtins
// and handed to New.
type Registry map[string]*Builtin
