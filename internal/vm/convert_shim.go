package vm

import (
	"artlang/internal/convert"
	"artlang/internal/errors"
	"artlang/internal/value"
)

// convertTo implements the `to` opcode. Conversions that need a live VM
// (compiling a Block into executable Bytecode, constructing a user-defined
// type) are handled here; everything else delegates to the standalone
// convert package.
func (vm *VM) convertTo(target string, v value.Value) (value.Value, error) {
	if target == "bytecode" {
		var blk *value.Block
		switch v.Tag {
		case value.BlockTag, value.Inline:
			blk = v.Blk
		default:
			return convert.To(v, target)
		}
		t, err := vm.compileBlock(blk, vm.Globals)
		if err != nil {
			return value.Value{}, err
		}
		return value.BytecodeVal(t), nil
	}
	if _, ok := vm.Types.Lookup(target); ok {
		if v.Tag != value.BlockTag && v.Tag != value.Inline {
			return value.Value{}, errors.Newf(errors.TypeMismatch, "to %s expects a block of field values", target)
		}
		return vm.ConstructObject(target, v.Blk)
	}
	return convert.To(v, target)
}
