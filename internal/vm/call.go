package vm

import (
	"strings"

	"artlang/internal/errors"
	"artlang/internal/translator"
	"artlang/internal/value"
)

func popArgs(stackPtr *[]value.Value, n int) ([]value.Value, error) {
	stack := *stackPtr
	if len(stack) < n {
		return nil, errors.New(errors.StackUnderflow, "operand stack underflow")
	}
	args := make([]value.Value, n)
	for i := 0; i < n; i++ {
		args[i] = stack[len(stack)-1-i]
	}
	*stackPtr = stack[:len(stack)-n]
	return args, nil
}

// dispatchCall resolves the call/load ambiguity: a name bound to a Function
// is invoked, a name bound to a registered builtin is invoked, anything
// else found in scope is loaded as a plain value, and an unknown name is a
// SymbolNotFound error.
func (vm *VM) dispatchCall(name string, stackPtr *[]value.Value, attrs *map[string]value.Value, scope *Scope) (value.Value, error) {
	if v, ok := scope.Lookup(name); ok {
		if v.Tag == value.FunctionTag {
			return vm.callFunction(v.Fn, stackPtr, attrs)
		}
		return v, nil
	}
	if b, ok := vm.Builtins[name]; ok {
		args, err := popArgs(stackPtr, b.Arity)
		if err != nil {
			return value.Value{}, err
		}
		a := *attrs
		*attrs = map[string]value.Value{}
		return b.Fn(vm, args, a)
	}
	return value.Value{}, errors.Newf(errors.SymbolNotFound, "%s", name)
}

func memoKey(args []value.Value) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = value.Printable(a, nil)
	}
	return strings.Join(parts, "\x1f")
}

func (vm *VM) callFunction(fn *value.Function, stackPtr *[]value.Value, attrs *map[string]value.Value) (value.Value, error) {
	args, err := popArgs(stackPtr, len(fn.Params))
	if err != nil {
		return value.Value{}, err
	}
	*attrs = map[string]value.Value{}

	var key string
	if fn.Memoize {
		key = memoKey(args)
		if v, ok := fn.MemoLookup(key); ok {
			return v, nil
		}
	}

	if fn.Compiled == nil {
		tr := translator.New(vmResolver{vm: vm, scope: vm.Globals})
		t, err := tr.Translate(value.Value{Tag: value.BlockTag, Blk: fn.Body})
		if err != nil {
			return value.Value{}, err
		}
		fn.Compiled = t
	}

	fnScope := NewScope(vm.Globals)
	if fn.Imports != nil {
		for _, k := range fn.Imports.Keys() {
			if v, ok := fn.Imports.Get(k); ok {
				fnScope.Define(k, v)
			}
		}
	}
	for i, p := range fn.Params {
		fnScope.Define(p, args[i])
	}

	v, _, err := vm.runFrame(fn.Compiled, fnScope)
	if err != nil {
		return value.Value{}, err
	}
	if fn.Memoize {
		fn.MemoStore(key, v)
	}
	return v, nil
}
