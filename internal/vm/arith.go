package vm

import (
	"math/big"

	"artlang/internal/errors"
	"artlang/internal/value"
)

func isNumericTag(t value.Tag) bool {
	return t == value.Integer || t == value.Floating || t == value.Rational
}

func toBigInt(v value.Value) *big.Int {
	if v.IKind == value.BigInteger && v.Big != nil {
		return v.Big
	}
	return big.NewInt(v.I)
}

func toFloat(v value.Value) float64 {
	switch v.Tag {
	case value.Floating:
		return v.F
	case value.Integer:
		if v.IKind == value.BigInteger && v.Big != nil {
			f := new(big.Float).SetInt(v.Big)
			r, _ := f.Float64()
			return r
		}
		return float64(v.I)
	case value.Rational:
		if v.RBig != nil {
			r, _ := v.RBig.Float64()
			return r
		}
		return float64(v.RNum) / float64(v.RDen)
	}
	return 0
}

func normalizeBig(b *big.Int) value.Value {
	if b.IsInt64() {
		return value.IntVal(b.Int64())
	}
	return value.BigIntVal(b)
}

// arith applies a numeric binary opcode to two values, promoting to float
// when either operand is Floating, to big.Int arithmetic when either
// operand is a big Integer, and plain int64 otherwise. String concatenation
// is handled for "+" as a special case (strings are not numeric).
func arith(op string, a, b value.Value) (value.Value, error) {
	if op == "+" && (a.Tag == value.String || b.Tag == value.String) {
		return value.StringVal(value.Printable(a, nil) + value.Printable(b, nil)), nil
	}
	if op == "+" && a.Tag == value.BlockTag && b.Tag == value.BlockTag {
		elems := append(append([]value.Value(nil), a.Blk.Elements...), b.Blk.Elements...)
		return value.BlockVal(elems), nil
	}
	if !isNumericTag(a.Tag) || !isNumericTag(b.Tag) {
		return value.Value{}, errors.Newf(errors.TypeMismatch, "cannot apply %q to %s and %s", op, a.Tag, b.Tag)
	}
	if a.Tag == value.Floating || b.Tag == value.Floating {
		x, y := toFloat(a), toFloat(b)
		switch op {
		case "+":
			return value.FloatVal(x + y), nil
		case "-":
			return value.FloatVal(x - y), nil
		case "*":
			return value.FloatVal(x * y), nil
		case "/":
			if y == 0 {
				return value.Value{}, errors.New(errors.RangeWithZeroStep, "division by zero")
			}
			return value.FloatVal(x / y), nil
		}
	}
	x, y := toBigInt(a), toBigInt(b)
	switch op {
	case "+":
		return normalizeBig(new(big.Int).Add(x, y)), nil
	case "-":
		return normalizeBig(new(big.Int).Sub(x, y)), nil
	case "*":
		return normalizeBig(new(big.Int).Mul(x, y)), nil
	case "/":
		if y.Sign() == 0 {
			return value.Value{}, errors.New(errors.RangeWithZeroStep, "division by zero")
		}
		if new(big.Int).Mod(x, y).Sign() == 0 {
			return normalizeBig(new(big.Int).Div(x, y)), nil
		}
		return value.FloatVal(toFloat(a) / toFloat(b)), nil
	case "//":
		if y.Sign() == 0 {
			return value.Value{}, errors.New(errors.RangeWithZeroStep, "division by zero")
		}
		return normalizeBig(new(big.Int).Div(x, y)), nil
	case "%":
		if y.Sign() == 0 {
			return value.Value{}, errors.New(errors.RangeWithZeroStep, "modulo by zero")
		}
		return normalizeBig(new(big.Int).Mod(x, y)), nil
	case "^":
		if y.Sign() < 0 {
			return value.FloatVal(toFloat(a)), nil
		}
		return normalizeBig(new(big.Int).Exp(x, y, nil)), nil
	case "&":
		return normalizeBig(new(big.Int).And(x, y)), nil
	case "|":
		return normalizeBig(new(big.Int).Or(x, y)), nil
	case "<<":
		return normalizeBig(new(big.Int).Lsh(x, uint(y.Int64()))), nil
	case ">>":
		return normalizeBig(new(big.Int).Rsh(x, uint(y.Int64()))), nil
	}
	return value.Value{}, errors.Newf(errors.TypeMismatch, "unsupported operator %q", op)
}

func negate(v value.Value) (value.Value, error) {
	switch v.Tag {
	case value.Integer:
		if v.IKind == value.BigInteger {
			return normalizeBig(new(big.Int).Neg(v.Big)), nil
		}
		return value.IntVal(-v.I), nil
	case value.Floating:
		return value.FloatVal(-v.F), nil
	}
	return value.Value{}, errors.Newf(errors.TypeMismatch, "cannot negate %s", v.Tag)
}
