package vm

import (
	"artlang/internal/errors"
	"artlang/internal/translator"
	"artlang/internal/types"
	"artlang/internal/value"
)

// execAsDict runs blk in a fresh child scope of parent and collects every
// binding the block introduced there into a Dict — the block-as-dictionary
// execution mode §4.E describes, shared by `define`'s prototype body and
// `switch`'s case table.
func (vm *VM) execAsDict(blk *value.Block, parent *Scope) (*value.Dict, error) {
	child := NewScope(parent)
	t, err := vm.compileBlock(blk, parent)
	if err != nil {
		return nil, err
	}
	if _, _, err := vm.runFrame(t, child); err != nil {
		return nil, err
	}
	d := value.NewDict()
	for k, v := range child.vars {
		d.Set(k, v)
	}
	return d, nil
}

// DefineType implements `define`/`is`: runs body as a dictionary of method
// bindings, optionally inherits from parentName, and installs the result
// in the VM's type registry. Functions never close over caller scope (see
// callFunction), so the body always executes against vm.Globals.
func (vm *VM) DefineType(name string, fields []string, body *value.Block, parentName string) error {
	methods, err := vm.execAsDict(body, vm.Globals)
	if err != nil {
		return err
	}
	var parent *types.Prototype
	if parentName != "" {
		p, ok := vm.Types.Lookup(parentName)
		if !ok {
			return errors.Newf(errors.SymbolNotFound, "%s", parentName)
		}
		parent = p
	}
	vm.Types.Build(name, fields, methods, parent)
	return nil
}

// evalFieldValues evaluates each top-level element of blk independently
// (its own fresh child scope), collecting results positionally. This is
// the "unscoped" argument evaluation of `to <type> <arg-block>`: the block
// is a flat list of value expressions, not a sequence of statements whose
// only the last result matters.
func (vm *VM) evalFieldValues(blk *value.Block, scope *Scope) ([]value.Value, error) {
	vals := make([]value.Value, len(blk.Elements))
	for i, e := range blk.Elements {
		v, sig, err := vm.execBlock(&value.Block{Elements: []value.Value{e}}, scope)
		if err != nil {
			return nil, err
		}
		if sig != sigNone {
			return nil, errors.New(errors.TypeMismatch, "to: unsupported control flow in constructor arguments")
		}
		vals[i] = v
	}
	return vals, nil
}

// ConstructObject implements `to <type> <arg-block>` per §4.G: pair
// positional field values with the prototype's field list, build the
// Object, and invoke doInit with the full argument tuple if present.
func (vm *VM) ConstructObject(typeName string, argBlock *value.Block) (value.Value, error) {
	proto, ok := vm.Types.Lookup(typeName)
	if !ok {
		return value.Value{}, errors.Newf(errors.CannotConvert, "no such type %q", typeName)
	}
	vals, err := vm.evalFieldValues(argBlock, vm.Globals)
	if err != nil {
		return value.Value{}, err
	}
	if len(vals) != len(proto.Fields) {
		return value.Value{}, errors.Newf(errors.ArityMismatch,
			"type %q expects %d field(s), got %d", typeName, len(proto.Fields), len(vals))
	}
	obj := proto.NewObject()
	for i, name := range proto.Fields {
		obj.Fields.Set(name, vals[i])
	}
	if proto.DoInit != nil {
		args := append([]value.Value{value.ObjectVal(obj)}, vals...)
		if _, err := vm.invokeMethod(proto.DoInit, args); err != nil {
			return value.Value{}, err
		}
	}
	return value.ObjectVal(obj), nil
}

// invokeMethod calls fn directly with already-evaluated arguments, for the
// magic hooks (doInit/doPrint/doCompare) which are driven by the VM rather
// than by ordinary call-site bytecode.
func (vm *VM) invokeMethod(fn *value.Function, args []value.Value) (value.Value, error) {
	if len(args) != len(fn.Params) {
		return value.Value{}, errors.Newf(errors.ArityMismatch,
			"expected %d argument(s), got %d", len(fn.Params), len(args))
	}
	if fn.Compiled == nil {
		tr := translator.New(vmResolver{vm: vm, scope: vm.Globals})
		t, err := tr.Translate(value.Value{Tag: value.BlockTag, Blk: fn.Body})
		if err != nil {
			return value.Value{}, err
		}
		fn.Compiled = t
	}
	scope := NewScope(vm.Globals)
	for i, p := range fn.Params {
		scope.Define(p, args[i])
	}
	v, _, err := vm.runFrame(fn.Compiled, scope)
	return v, err
}

// ObjectPrinter supplies doPrint to value.Printable; objects without one
// fall back to the default field-dump rendering.
func (vm *VM) ObjectPrinter() value.ObjectPrinter {
	return func(o *value.Object) (string, bool) {
		proto, ok := o.Prototype.(*types.Prototype)
		if !ok || proto.DoPrint == nil {
			return "", false
		}
		v, err := vm.invokeMethod(proto.DoPrint, []value.Value{value.ObjectVal(o)})
		if err != nil {
			return "", false
		}
		return value.Printable(v, vm.ObjectPrinter()), true
	}
}

// ObjectComparer supplies doCompare to value.Compare; objects without one
// are incomparable except via structural equality.
func (vm *VM) ObjectComparer() value.ObjectComparer {
	return func(o *value.Object, other value.Value) (value.Ordering, bool) {
		proto, ok := o.Prototype.(*types.Prototype)
		if !ok || proto.DoCompare == nil {
			return value.EQ, false
		}
		v, err := vm.invokeMethod(proto.DoCompare, []value.Value{value.ObjectVal(o), other})
		if err != nil || v.Tag != value.Integer {
			return value.EQ, false
		}
		switch {
		case v.I < 0:
			return value.LT, true
		case v.I > 0:
			return value.GT, true
		default:
			return value.EQ, true
		}
	}
}
