package runtime

import (
	"math"
	"math/big"
	"strings"
)

// BinaryOp applies a binary operator. Logical operators are not handled
// here since they short-circuit.
func BinaryOp(op string, l, r any) (any, error) {
	switch op {
	case "+":
		return Add(l, r)
	case "==":
		return LooseEquals(l, r)
	case "!=":
		eq, err := LooseEquals(l, r)
		return !eq, err
	case "===":
		return StrictEquals(l, r), nil
	case "!==":
		return !StrictEquals(l, r), nil
	case "<", ">", "<=", ">=":
		return compare(op, l, r)
	case "in":
		return HasProperty(r, ToPropertyKey(l))
	case "instanceof":
		return InstanceOf(l, r)
	case "-", "*", "/", "%", "**", "&", "|", "^", "<<", ">>", ">>>":
		return arithmetic(op, l, r)
	}

	return nil, NewSyntaxError("unknown binary operator %s", op)
}

// Add implements +: string concatenation when either side is a string after
// primitive conversion, numeric addition otherwise.
func Add(l, r any) (any, error) {
	if ls, ok := l.(string); ok {
		if rs, ok := r.(string); ok {
			return ls + rs, nil
		}
	}
	if lf, ok := toFloat(l); ok {
		if rf, ok := toFloat(r); ok {
			return lf + rf, nil
		}
	}

	lp, err := ToPrimitive(l, "default")
	if err != nil {
		return nil, err
	}
	rp, err := ToPrimitive(r, "default")
	if err != nil {
		return nil, err
	}

	_, lstr := lp.(string)
	_, rstr := rp.(string)
	if lstr || rstr {
		return ToString(lp) + ToString(rp), nil
	}

	return arithmetic("+", lp, rp)
}

func arithmetic(op string, l, r any) (any, error) {
	ln, err := ToNumeric(l)
	if err != nil {
		return nil, err
	}
	rn, err := ToNumeric(r)
	if err != nil {
		return nil, err
	}

	lb, lbig := ln.(*big.Int)
	rb, rbig := rn.(*big.Int)
	switch {
	case lbig && rbig:
		return bigArithmetic(op, lb, rb)
	case lbig || rbig:
		return nil, NewTypeError("Cannot mix BigInt and other types, use explicit conversions")
	}

	a, b := ln.(float64), rn.(float64)
	switch op {
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	case "/":
		return a / b, nil
	case "%":
		if b == 0 || math.IsInf(a, 0) {
			return math.NaN(), nil
		}
		return math.Mod(a, b), nil
	case "**":
		if math.IsNaN(b) || (math.Abs(a) == 1 && math.IsInf(b, 0)) {
			return math.NaN(), nil
		}
		return math.Pow(a, b), nil
	case "&":
		return float64(ToInt32(a) & ToInt32(b)), nil
	case "|":
		return float64(ToInt32(a) | ToInt32(b)), nil
	case "^":
		return float64(ToInt32(a) ^ ToInt32(b)), nil
	case "<<":
		return float64(ToInt32(a) << (ToUint32(b) & 31)), nil
	case ">>":
		return float64(ToInt32(a) >> (ToUint32(b) & 31)), nil
	case ">>>":
		return float64(ToUint32(a) >> (ToUint32(b) & 31)), nil
	}

	return nil, NewSyntaxError("unknown arithmetic operator %s", op)
}

func bigArithmetic(op string, a, b *big.Int) (any, error) {
	z := new(big.Int)
	switch op {
	case "+":
		return z.Add(a, b), nil
	case "-":
		return z.Sub(a, b), nil
	case "*":
		return z.Mul(a, b), nil
	case "/":
		if b.Sign() == 0 {
			return nil, NewRangeError("Division by zero")
		}
		return z.Quo(a, b), nil
	case "%":
		if b.Sign() == 0 {
			return nil, NewRangeError("Division by zero")
		}
		return z.Rem(a, b), nil
	case "**":
		if b.Sign() < 0 {
			return nil, NewRangeError("Exponent must be non-negative")
		}
		return z.Exp(a, b, nil), nil
	case "&":
		return z.And(a, b), nil
	case "|":
		return z.Or(a, b), nil
	case "^":
		return z.Xor(a, b), nil
	case "<<":
		return z.Lsh(a, uint(b.Uint64())), nil
	case ">>":
		return z.Rsh(a, uint(b.Uint64())), nil
	case ">>>":
		return nil, NewTypeError("BigInts have no unsigned right shift, use >> instead")
	}

	return nil, NewSyntaxError("unknown arithmetic operator %s", op)
}

func compare(op string, l, r any) (any, error) {
	lp, err := ToPrimitive(l, "number")
	if err != nil {
		return nil, err
	}
	rp, err := ToPrimitive(r, "number")
	if err != nil {
		return nil, err
	}

	if ls, ok := lp.(string); ok {
		if rs, ok := rp.(string); ok {
			c := strings.Compare(ls, rs)
			return cmpResult(op, c), nil
		}
	}

	lb, lbig := lp.(*big.Int)
	rb, rbig := rp.(*big.Int)
	if lbig || rbig {
		if !lbig {
			lb = floatToBig(ToNumber(lp))
		}
		if !rbig {
			rb = floatToBig(ToNumber(rp))
		}
		if lb == nil || rb == nil {
			return false, nil
		}
		return cmpResult(op, lb.Cmp(rb)), nil
	}

	a, b := ToNumber(lp), ToNumber(rp)
	if math.IsNaN(a) || math.IsNaN(b) {
		return false, nil
	}
	switch {
	case a < b:
		return cmpResult(op, -1), nil
	case a > b:
		return cmpResult(op, 1), nil
	}

	return cmpResult(op, 0), nil
}

func floatToBig(f float64) *big.Int {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	b, _ := big.NewFloat(math.Trunc(f)).Int(nil)

	return b
}

func cmpResult(op string, c int) bool {
	switch op {
	case "<":
		return c < 0
	case ">":
		return c > 0
	case "<=":
		return c <= 0
	case ">=":
		return c >= 0
	}

	return false
}

// UnaryOp applies a prefix operator other than delete.
func UnaryOp(op string, v any) (any, error) {
	switch op {
	case "!":
		return !ToBoolean(v), nil
	case "typeof":
		return TypeOf(v), nil
	case "void":
		return Undefined, nil
	case "+":
		if _, ok := v.(*big.Int); ok {
			return nil, NewTypeError("Cannot convert a BigInt value to a number")
		}
		n, err := ToNumeric(v)
		if err != nil {
			return nil, err
		}
		return ToNumber(n), nil
	case "-":
		n, err := ToNumeric(v)
		if err != nil {
			return nil, err
		}
		if b, ok := n.(*big.Int); ok {
			return new(big.Int).Neg(b), nil
		}
		return -n.(float64), nil
	case "~":
		n, err := ToNumeric(v)
		if err != nil {
			return nil, err
		}
		if b, ok := n.(*big.Int); ok {
			return new(big.Int).Not(b), nil
		}
		return float64(^ToInt32(n)), nil
	}

	return nil, NewSyntaxError("unknown unary operator %s", op)
}

// Increment returns v+delta for update expressions, preserving bigints.
func Increment(v any, delta int64) (old any, updated any, err error) {
	n, err := ToNumeric(v)
	if err != nil {
		return nil, nil, err
	}
	if b, ok := n.(*big.Int); ok {
		return b, new(big.Int).Add(b, big.NewInt(delta)), nil
	}

	return n, n.(float64) + float64(delta), nil
}
