package vm

import (
	"artlang/internal/bytecode"
	"artlang/internal/errors"
	"artlang/internal/value"
)

// sequence flattens a Range, Block, String or Dictionary into the list of
// Values the iterator opcodes walk. Dictionaries (Dictionary values and
// `#[...]` blocks) iterate as [key, value] pairs rendered as two-element
// Blocks, matching the language's convention for exposing entries
// positionally; a `#[...]` block's bindings come from the same
// block-as-dictionary execution mode `define`/`switch` use, cached per
// block identity in vm.dictCache.
func (vm *VM) sequence(coll value.Value, scope *Scope) ([]value.Value, error) {
	switch coll.Tag {
	case value.RangeTag:
		r := coll.Rng
		var out []value.Value
		if r.Step == 0 {
			return nil, errors.New(errors.RangeWithZeroStep, "range has a zero step")
		}
		if r.Forward {
			for v := r.Start; v <= r.Stop; v += r.Step {
				out = append(out, value.IntVal(v))
			}
		} else {
			for v := r.Start; v >= r.Stop; v += r.Step {
				out = append(out, value.IntVal(v))
			}
		}
		return out, nil
	case value.BlockTag:
		if coll.Blk.Kind == value.DictBlock {
			dict, ok := vm.dictCache[coll.Blk]
			if !ok {
				var err error
				dict, err = vm.execAsDict(coll.Blk, scope)
				if err != nil {
					return nil, err
				}
				vm.dictCache[coll.Blk] = dict
			}
			var out []value.Value
			for _, k := range dict.Keys() {
				v, _ := dict.Get(k)
				out = append(out, value.BlockVal([]value.Value{value.StringVal(k), v}))
			}
			return out, nil
		}
		return append([]value.Value(nil), coll.Blk.Elements...), nil
	case value.Dictionary:
		var out []value.Value
		for _, k := range coll.Dct.Keys() {
			v, _ := coll.Dct.Get(k)
			out = append(out, value.BlockVal([]value.Value{value.StringVal(k), v}))
		}
		return out, nil
	case value.String:
		runes := []rune(coll.Str)
		out := make([]value.Value, len(runes))
		for i, r := range runes {
			out[i] = value.CharVal(r)
		}
		return out, nil
	}
	return nil, errors.Newf(errors.TypeMismatch, "cannot iterate over %s", coll.Tag)
}

// runIteration implements loop/map/select: loop discards each result,
// returning the last one; map collects every result into a Block; select
// collects only the inputs for which the body returned truthy.
func (vm *VM) runIteration(op bytecode.OpCode, coll, varNameVal, bodyVal value.Value, scope *Scope) (value.Value, signal, error) {
	items, err := vm.sequence(coll, scope)
	if err != nil {
		return value.Value{}, sigNone, err
	}
	varName := varNameVal.Str

	var collected []value.Value
	last := value.NullVal()
	for _, item := range items {
		iterScope := NewScope(scope)
		iterScope.Define(varName, item)
		t, err := vm.compileBlock(bodyVal.Blk, iterScope)
		if err != nil {
			return value.Value{}, sigNone, err
		}
		v, sig, err := vm.runFrame(t, iterScope)
		if err != nil {
			return value.Value{}, sigNone, err
		}
		if sig == sigBreak {
			break
		}
		if sig == sigReturn {
			return v, sig, nil
		}
		switch op {
		case bytecode.OpLoop:
			last = v
		case bytecode.OpMap:
			collected = append(collected, v)
		case bytecode.OpSelect:
			if v.IsTruthy() {
				collected = append(collected, item)
			}
		}
	}
	if op == bytecode.OpLoop {
		return last, sigNone, nil
	}
	return value.BlockVal(collected), sigNone, nil
}
