package builtins

import (
	"math"
	"math/bits"
	"math/rand/v2"

	"github.com/example/expressions/runtime"
)

var unaryMath = []struct {
	name string
	fn   func(float64) float64
}{
	{"abs", math.Abs},
	{"acos", math.Acos},
	{"acosh", math.Acosh},
	{"asin", math.Asin},
	{"asinh", math.Asinh},
	{"atan", math.Atan},
	{"atanh", math.Atanh},
	{"cbrt", math.Cbrt},
	{"ceil", math.Ceil},
	{"cos", math.Cos},
	{"cosh", math.Cosh},
	{"exp", math.Exp},
	{"expm1", math.Expm1},
	{"floor", math.Floor},
	{"fround", func(x float64) float64 { return float64(float32(x)) }},
	{"log", math.Log},
	{"log10", math.Log10},
	{"log1p", math.Log1p},
	{"log2", math.Log2},
	{"round", round},
	{"sign", sign},
	{"sin", math.Sin},
	{"sinh", math.Sinh},
	{"sqrt", math.Sqrt},
	{"tan", math.Tan},
	{"tanh", math.Tanh},
	{"trunc", math.Trunc},
}

func createMathObject() *runtime.Object {
	m := runtime.NewObject(runtime.ObjectPrototype)
	m.SetClass("Math")

	constant(m, "E", math.E)
	constant(m, "LN10", math.Ln10)
	constant(m, "LN2", math.Ln2)
	constant(m, "LOG10E", math.Log10E)
	constant(m, "LOG2E", math.Log2E)
	constant(m, "PI", math.Pi)
	constant(m, "SQRT1_2", math.Sqrt2/2)
	constant(m, "SQRT2", math.Sqrt2)

	for _, u := range unaryMath {
		fn := u.fn
		method(m, u.name, 1, func(_ any, args []any) (any, error) {
			return fn(argNumber(args, 0)), nil
		})
	}
	method(m, "atan2", 2, mathAtan2)
	method(m, "clz32", 1, mathClz32)
	method(m, "hypot", 2, mathHypot)
	method(m, "imul", 2, mathImul)
	method(m, "max", 2, mathMax)
	method(m, "min", 2, mathMin)
	method(m, "pow", 2, mathPow)
	method(m, "random", 0, mathRandom)

	return m
}

// round rounds half up, keeping the sign of negative inputs that round
// to zero.
func round(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	f := math.Floor(x)
	if x-f >= 0.5 {
		f++
	}
	if f == 0 && math.Signbit(x) {
		return math.Copysign(0, -1)
	}

	return f
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}

	return x
}

func mathAtan2(_ any, args []any) (any, error) {
	return math.Atan2(argNumber(args, 0), argNumber(args, 1)), nil
}

func mathClz32(_ any, args []any) (any, error) {
	return float64(bits.LeadingZeros32(runtime.ToUint32(arg(args, 0)))), nil
}

func mathImul(_ any, args []any) (any, error) {
	return float64(runtime.ToInt32(arg(args, 0)) * runtime.ToInt32(arg(args, 1))), nil
}

func mathHypot(_ any, args []any) (any, error) {
	sum, nan := 0.0, false
	for _, a := range args {
		n := runtime.ToNumber(a)
		switch {
		case math.IsInf(n, 0):
			return math.Inf(1), nil
		case math.IsNaN(n):
			nan = true
		default:
			sum += n * n
		}
	}
	if nan {
		return math.NaN(), nil
	}

	return math.Sqrt(sum), nil
}

// mathPow differs from math.Pow where the base is ±1 and the exponent is
// NaN or infinite: the result is NaN.
func mathPow(_ any, args []any) (any, error) {
	base, exp := argNumber(args, 0), argNumber(args, 1)
	if math.IsNaN(exp) || (math.Abs(base) == 1 && math.IsInf(exp, 0)) {
		return math.NaN(), nil
	}

	return math.Pow(base, exp), nil
}

func extremum(args []any, init float64, pick func(a, b float64) float64) float64 {
	r := init
	for _, a := range args {
		n := runtime.ToNumber(a)
		if math.IsNaN(n) {
			r = n
			continue
		}
		if !math.IsNaN(r) {
			r = pick(r, n)
		}
	}

	return r
}

func mathMax(_ any, args []any) (any, error) {
	return extremum(args, math.Inf(-1), math.Max), nil
}

func mathMin(_ any, args []any) (any, error) {
	return extremum(args, math.Inf(1), math.Min), nil
}

func mathRandom(any, []any) (any, error) {
	return rand.Float64(), nil
}
