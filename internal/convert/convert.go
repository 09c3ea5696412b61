// Package convert implements the `to` conversion engine: a lookup over the
// (source tag, target type name) pairing, total in the sense that any pair
// with no defined rule reports CannotConvert rather than panicking.
package convert

import (
	"math/big"
	"strconv"
	"strings"

	"artlang/internal/errors"
	"artlang/internal/value"
)

// To converts v to the type named by target (e.g. "integer", "string").
func To(v value.Value, target string) (value.Value, error) {
	switch target {
	case "string":
		return toString(v)
	case "integer":
		return toInteger(v)
	case "floating":
		return toFloating(v)
	case "logical":
		return toLogical(v)
	case "char":
		return toChar(v)
	case "block":
		return toBlock(v)
	case "bytecode":
		return toBytecode(v)
	case "binary":
		return toBinary(v)
	case "dictionary":
		return toDictionary(v)
	}
	return value.Value{}, errors.Newf(errors.CannotConvert, "no conversion from %s to %s", v.Tag, target)
}

func toString(v value.Value) (value.Value, error) {
	if v.Tag == value.BlockTag || v.Tag == value.Inline {
		return value.StringVal(value.Codify(v, false, false, false)), nil
	}
	return value.StringVal(value.Printable(v, nil)), nil
}

func toInteger(v value.Value) (value.Value, error) {
	switch v.Tag {
	case value.Integer:
		return v, nil
	case value.Floating:
		return value.IntVal(int64(v.F)), nil
	case value.Logical:
		if v.Bool {
			return value.IntVal(1), nil
		}
		return value.IntVal(0), nil
	case value.Char:
		return value.IntVal(int64(v.Ch)), nil
	case value.String:
		s := strings.TrimSpace(v.Str)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return value.IntVal(i), nil
		}
		if b, ok := new(big.Int).SetString(s, 10); ok {
			return value.BigIntVal(b), nil
		}
		return value.Value{}, errors.Newf(errors.ConversionFailed, "cannot parse %q as an integer", v.Str)
	}
	return value.Value{}, errors.Newf(errors.CannotConvert, "no conversion from %s to integer", v.Tag)
}

func toFloating(v value.Value) (value.Value, error) {
	switch v.Tag {
	case value.Floating:
		return v, nil
	case value.Integer:
		if f, ok := v.AsFloat(); ok {
			return value.FloatVal(f), nil
		}
	case value.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return value.Value{}, errors.Newf(errors.ConversionFailed, "cannot parse %q as a float", v.Str)
		}
		return value.FloatVal(f), nil
	}
	return value.Value{}, errors.Newf(errors.CannotConvert, "no conversion from %s to floating", v.Tag)
}

func toLogical(v value.Value) (value.Value, error) {
	if v.Tag == value.String {
		switch strings.TrimSpace(v.Str) {
		case "true":
			return value.LogicalVal(true), nil
		case "false":
			return value.LogicalVal(false), nil
		}
		return value.Value{}, errors.Newf(errors.ConversionFailed, "cannot parse %q as a logical", v.Str)
	}
	return value.LogicalVal(v.IsTruthy()), nil
}

func toChar(v value.Value) (value.Value, error) {
	switch v.Tag {
	case value.Char:
		return v, nil
	case value.Integer:
		return value.CharVal(rune(v.I)), nil
	case value.String:
		r := []rune(v.Str)
		if len(r) != 1 {
			return value.Value{}, errors.Newf(errors.ConversionFailed, "expected a single character, got %q", v.Str)
		}
		return value.CharVal(r[0]), nil
	}
	return value.Value{}, errors.Newf(errors.CannotConvert, "no conversion from %s to char", v.Tag)
}

func toBlock(v value.Value) (value.Value, error) {
	switch v.Tag {
	case value.BlockTag:
		return v, nil
	case value.RangeTag:
		r := v.Rng
		var elems []value.Value
		if r.Forward {
			for i := r.Start; i <= r.Stop; i += r.Step {
				elems = append(elems, value.IntVal(i))
			}
		} else {
			for i := r.Start; i >= r.Stop; i += r.Step {
				elems = append(elems, value.IntVal(i))
			}
		}
		return value.BlockVal(elems), nil
	case value.String:
		runes := []rune(v.Str)
		elems := make([]value.Value, len(runes))
		for i, r := range runes {
			elems[i] = value.CharVal(r)
		}
		return value.BlockVal(elems), nil
	}
	return value.Value{}, errors.Newf(errors.CannotConvert, "no conversion from %s to block", v.Tag)
}

// toBytecode handles the VM-independent part of `to :bytecode`: a
// Dictionary in the exchange format is reconstructed into a Bytecode value.
// Compiling a Block needs the translator, so vm.convertTo compiles Block
// and Inline values itself and only falls back to To for other inputs;
// everything except a Dictionary is rejected here with CannotConvert.
func toBytecode(v value.Value) (value.Value, error) {
	if v.Tag == value.Dictionary {
		t, err := value.DictToBytecode(v.Dct)
		if err != nil {
			return value.Value{}, errors.Newf(errors.ConversionFailed, "%v", err)
		}
		return value.BytecodeVal(t), nil
	}
	return value.Value{}, errors.Newf(errors.CannotConvert, "bytecode conversion from %s requires an active VM", v.Tag)
}

// toDictionary handles the one standalone (VM-independent) dictionary
// conversion rule: the Bytecode exchange format round-trip.
func toDictionary(v value.Value) (value.Value, error) {
	if v.Tag == value.BytecodeTag {
		return value.DictVal(value.BytecodeToDict(v.Code)), nil
	}
	return value.Value{}, errors.Newf(errors.CannotConvert, "no conversion from %s to dictionary", v.Tag)
}

func toBinary(v value.Value) (value.Value, error) {
	switch v.Tag {
	case value.Integer:
		if v.I == 0 {
			return value.BinaryVal([]byte("0")), nil
		}
		n := v.I
		neg := n < 0
		if neg {
			n = -n
		}
		var bits []byte
		for n > 0 {
			bits = append([]byte{byte('0' + n%2)}, bits...)
			n /= 2
		}
		if neg {
			bits = append([]byte{'-'}, bits...)
		}
		return value.BinaryVal(bits), nil
	case value.String:
		return value.BinaryVal([]byte(v.Str)), nil
	}
	return value.Value{}, errors.Newf(errors.CannotConvert, "no conversion from %s to binary", v.Tag)
}
