package builtins

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/example/expressions/runtime"
)

const maxSafeInteger = 1<<53 - 1

func createNumberConstructor() *runtime.Function {
	proto := runtime.NumberPrototype
	proto.SetClass("Number")
	proto.Internal = 0.0

	method(proto, "toExponential", 1, numberToExponential)
	method(proto, "toFixed", 1, numberToFixed)
	method(proto, "toLocaleString", 0, numberToLocaleString)
	method(proto, "toPrecision", 1, numberToPrecision)
	method(proto, "toString", 1, numberToString)
	method(proto, "valueOf", 0, numberValueOf)

	ctor := constructor("Number", 1, proto, numberConstructorCall,
		func(args []any, newTarget *runtime.Function) (any, error) {
			n, err := numberConstructorCall(runtime.Undefined, args)
			if err != nil {
				return nil, err
			}
			o := toObject(n).(*runtime.Object)
			if newTarget != nil {
				if p := newTarget.Prototype(); p != nil {
					o.SetProto(p)
				}
			}
			return o, nil
		})

	method(ctor.Object, "isFinite", 1, numberIsFinite)
	method(ctor.Object, "isInteger", 1, numberIsInteger)
	method(ctor.Object, "isNaN", 1, numberIsNaN)
	method(ctor.Object, "isSafeInteger", 1, numberIsSafeInteger)
	method(ctor.Object, "parseFloat", 1, globalParseFloat)
	method(ctor.Object, "parseInt", 2, globalParseInt)

	constant(ctor.Object, "EPSILON", math.Nextafter(1, 2)-1)
	constant(ctor.Object, "MAX_SAFE_INTEGER", float64(maxSafeInteger))
	constant(ctor.Object, "MIN_SAFE_INTEGER", -float64(maxSafeInteger))
	constant(ctor.Object, "MAX_VALUE", math.MaxFloat64)
	constant(ctor.Object, "MIN_VALUE", math.SmallestNonzeroFloat64)
	constant(ctor.Object, "NaN", math.NaN())
	constant(ctor.Object, "POSITIVE_INFINITY", math.Inf(1))
	constant(ctor.Object, "NEGATIVE_INFINITY", math.Inf(-1))

	return ctor
}

func numberConstructorCall(_ any, args []any) (any, error) {
	if len(args) == 0 {
		return 0.0, nil
	}
	n, err := runtime.ToNumeric(args[0])
	if err != nil {
		return nil, err
	}
	if b, ok := n.(*big.Int); ok {
		f, _ := new(big.Float).SetInt(b).Float64()
		return f, nil
	}

	return runtime.ToNumber(n), nil
}

// thisNumber unwraps the receiver of a Number.prototype method.
func thisNumber(this any, name string) (float64, error) {
	if runtime.IsNumber(this) {
		return runtime.ToNumber(this), nil
	}
	if f, ok := primitiveValue[float64](this, "Number"); ok {
		return f, nil
	}

	return 0, runtime.NewTypeError("Number.prototype.%s requires that 'this' be a Number", name)
}

func numberValueOf(this any, _ []any) (any, error) {
	n, err := thisNumber(this, "valueOf")
	if err != nil {
		return nil, err
	}

	return n, nil
}

// digitsArg reads an optional digit count argument within [lo, 100].
func digitsArg(args []any, lo int, name string) (int, bool, error) {
	v := arg(args, 0)
	if runtime.IsUndefined(v) {
		return 0, false, nil
	}
	d := runtime.ToIntegerOrInfinity(v)
	if d < float64(lo) || d > 100 {
		return 0, false, runtime.NewRangeError("%s() digits argument must be between %d and 100", name, lo)
	}

	return int(d), true, nil
}

func nonFinite(n float64) (string, bool) {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return runtime.NumberToString(n), true
	}

	return "", false
}

func numberToFixed(this any, args []any) (any, error) {
	n, err := thisNumber(this, "toFixed")
	if err != nil {
		return nil, err
	}
	digits, _, err := digitsArg(args, 0, "toFixed")
	if err != nil {
		return nil, err
	}
	if s, ok := nonFinite(n); ok {
		return s, nil
	}
	if math.Abs(n) >= 1e21 {
		return runtime.NumberToString(n), nil
	}

	return strconv.FormatFloat(n, 'f', digits, 64), nil
}

// exponential rewrites Go's "1.5e+07" exponent form as "1.5e+7".
func exponential(s string) string {
	mant, exp, ok := strings.Cut(s, "e")
	if !ok {
		return s
	}
	sign := exp[:1]
	exp = strings.TrimLeft(exp[1:], "0")
	if exp == "" {
		exp = "0"
	}

	return mant + "e" + sign + exp
}

func numberToExponential(this any, args []any) (any, error) {
	n, err := thisNumber(this, "toExponential")
	if err != nil {
		return nil, err
	}
	digits, ok, err := digitsArg(args, 0, "toExponential")
	if err != nil {
		return nil, err
	}
	if s, ok := nonFinite(n); ok {
		return s, nil
	}
	if !ok {
		digits = -1
	}

	return exponential(strconv.FormatFloat(n, 'e', digits, 64)), nil
}

func numberToPrecision(this any, args []any) (any, error) {
	n, err := thisNumber(this, "toPrecision")
	if err != nil {
		return nil, err
	}
	if runtime.IsUndefined(arg(args, 0)) {
		return runtime.NumberToString(n), nil
	}
	p, _, err := digitsArg(args, 1, "toPrecision")
	if err != nil {
		return nil, err
	}
	if s, ok := nonFinite(n); ok {
		return s, nil
	}
	if n == 0 {
		return strconv.FormatFloat(0, 'f', p-1, 64), nil
	}

	e := int(math.Floor(math.Log10(math.Abs(n))))
	if e < -6 || e >= p {
		return exponential(strconv.FormatFloat(n, 'e', p-1, 64)), nil
	}

	return strconv.FormatFloat(n, 'f', p-1-e, 64), nil
}

func radixArg(v any) (int, error) {
	if runtime.IsUndefined(v) {
		return 10, nil
	}
	r := runtime.ToIntegerOrInfinity(v)
	if r < 2 || r > 36 {
		return 0, runtime.NewRangeError("toString() radix must be between 2 and 36")
	}

	return int(r), nil
}

func numberToString(this any, args []any) (any, error) {
	n, err := thisNumber(this, "toString")
	if err != nil {
		return nil, err
	}
	radix, err := radixArg(arg(args, 0))
	if err != nil {
		return nil, err
	}
	if radix == 10 {
		return runtime.NumberToString(n), nil
	}
	if s, ok := nonFinite(n); ok {
		return s, nil
	}

	return formatRadix(n, radix), nil
}

// formatRadix formats n in the given radix, including up to 52 fractional
// digits.
func formatRadix(n float64, radix int) string {
	neg := n < 0
	n = math.Abs(n)
	ip, frac := math.Modf(n)

	var sb strings.Builder
	if neg {
		sb.WriteByte('-')
	}
	if ip < 1<<63 {
		sb.WriteString(strconv.FormatUint(uint64(ip), radix))
	} else {
		b, _ := new(big.Float).SetFloat64(ip).Int(nil)
		sb.WriteString(b.Text(radix))
	}
	if frac > 0 {
		sb.WriteByte('.')
		for i := 0; i < 52 && frac > 0; i++ {
			frac *= float64(radix)
			d, rest := math.Modf(frac)
			sb.WriteString(strconv.FormatInt(int64(d), radix))
			frac = rest
		}
	}

	return sb.String()
}

// printerFor returns a message printer for a locale argument, defaulting
// to American English so grouping separators are always present.
func printerFor(v any) *message.Printer {
	tag := localeTag(v)
	if tag == language.Und {
		tag = language.AmericanEnglish
	}

	return message.NewPrinter(tag)
}

func numberToLocaleString(this any, args []any) (any, error) {
	n, err := thisNumber(this, "toLocaleString")
	if err != nil {
		return nil, err
	}
	if s, ok := nonFinite(n); ok {
		return s, nil
	}

	p := printerFor(arg(args, 0))
	opts := objectOf(arg(args, 1))
	if opts != nil && runtime.ToString(opts.Value("style")) == "percent" {
		return p.Sprintf("%v", number.Percent(n)), nil
	}

	var fmtOpts []number.Option
	if opts != nil {
		if v := opts.Value("minimumFractionDigits"); !runtime.IsUndefined(v) {
			fmtOpts = append(fmtOpts, number.MinFractionDigits(int(runtime.ToIntegerOrInfinity(v))))
		}
		if v := opts.Value("maximumFractionDigits"); !runtime.IsUndefined(v) {
			fmtOpts = append(fmtOpts, number.MaxFractionDigits(int(runtime.ToIntegerOrInfinity(v))))
		}
	}
	if len(fmtOpts) == 0 {
		fmtOpts = append(fmtOpts, number.MaxFractionDigits(3))
	}

	return p.Sprintf("%v", number.Decimal(n, fmtOpts...)), nil
}

func numberArg(args []any) (float64, bool) {
	v := arg(args, 0)
	if !runtime.IsNumber(v) {
		return 0, false
	}

	return runtime.ToNumber(v), true
}

func isInteger(n float64) bool {
	return !math.IsInf(n, 0) && !math.IsNaN(n) && math.Trunc(n) == n
}

func numberIsFinite(_ any, args []any) (any, error) {
	n, ok := numberArg(args)
	return ok && !math.IsInf(n, 0) && !math.IsNaN(n), nil
}

func numberIsInteger(_ any, args []any) (any, error) {
	n, ok := numberArg(args)
	return ok && isInteger(n), nil
}

func numberIsNaN(_ any, args []any) (any, error) {
	n, ok := numberArg(args)
	return ok && math.IsNaN(n), nil
}

func numberIsSafeInteger(_ any, args []any) (any, error) {
	n, ok := numberArg(args)
	return ok && isInteger(n) && math.Abs(n) <= maxSafeInteger, nil
}

func createBigIntConstructor() *runtime.Function {
	proto := runtime.BigIntPrototype
	method(proto, "toLocaleString", 0, bigintToLocaleString)
	method(proto, "toString", 0, bigintToString)
	method(proto, "valueOf", 0, bigintValueOf)

	ctor := constructor("BigInt", 1, proto, bigintConstructorCall, nil)
	method(ctor.Object, "asIntN", 2, bigintAsIntN)
	method(ctor.Object, "asUintN", 2, bigintAsUintN)

	return ctor
}

// toBigInt implements the BigInt conversion: numbers must be integral and
// strings must parse as integer literals.
func toBigInt(v any) (*big.Int, error) {
	prim, err := runtime.ToPrimitive(v, "number")
	if err != nil {
		return nil, err
	}
	switch p := prim.(type) {
	case *big.Int:
		return p, nil
	case bool:
		if p {
			return big.NewInt(1), nil
		}
		return big.NewInt(0), nil
	case string:
		s := strings.TrimSpace(p)
		if s == "" {
			return big.NewInt(0), nil
		}
		base := 0
		if len(s) > 1 && s[0] == '0' && s[1] >= '0' && s[1] <= '9' {
			base = 10
		}
		b, ok := new(big.Int).SetString(s, base)
		if !ok || strings.Contains(s, "_") {
			return nil, runtime.NewSyntaxError("Cannot convert %s to a BigInt", p)
		}
		return b, nil
	}
	if runtime.IsNumber(prim) {
		n := runtime.ToNumber(prim)
		if !isInteger(n) {
			return nil, runtime.NewRangeError("The number %s cannot be converted to a BigInt because it is not an integer", runtime.NumberToString(n))
		}
		b, _ := new(big.Float).SetFloat64(n).Int(nil)
		return b, nil
	}

	return nil, runtime.NewTypeError("Cannot convert %s to a BigInt", runtime.ToString(prim))
}

func bigintConstructorCall(_ any, args []any) (any, error) {
	return toBigInt(arg(args, 0))
}

func thisBigInt(this any, name string) (*big.Int, error) {
	if b, ok := primitiveValue[*big.Int](this, "BigInt"); ok {
		return b, nil
	}

	return nil, runtime.NewTypeError("BigInt.prototype.%s requires that 'this' be a BigInt", name)
}

func bigintValueOf(this any, _ []any) (any, error) {
	b, err := thisBigInt(this, "valueOf")
	if err != nil {
		return nil, err
	}

	return b, nil
}

func bigintToString(this any, args []any) (any, error) {
	b, err := thisBigInt(this, "toString")
	if err != nil {
		return nil, err
	}
	radix, err := radixArg(arg(args, 0))
	if err != nil {
		return nil, err
	}

	return b.Text(radix), nil
}

func bigintToLocaleString(this any, args []any) (any, error) {
	b, err := thisBigInt(this, "toLocaleString")
	if err != nil {
		return nil, err
	}

	return printerFor(arg(args, 0)).Sprintf("%d", b), nil
}

func bitsArg(v any) (uint, error) {
	n := runtime.ToIntegerOrInfinity(v)
	if n < 0 || n > maxSafeInteger {
		return 0, runtime.NewRangeError("Invalid value: not (convertible to) a safe integer")
	}

	return uint(n), nil
}

func bigintAsUintN(_ any, args []any) (any, error) {
	bits, err := bitsArg(arg(args, 0))
	if err != nil {
		return nil, err
	}
	b, err := toBigInt(arg(args, 1))
	if err != nil {
		return nil, err
	}
	mod := new(big.Int).Lsh(big.NewInt(1), bits)

	return new(big.Int).Mod(b, mod), nil
}

func bigintAsIntN(_ any, args []any) (any, error) {
	bits, err := bitsArg(arg(args, 0))
	if err != nil {
		return nil, err
	}
	b, err := toBigInt(arg(args, 1))
	if err != nil {
		return nil, err
	}
	if bits == 0 {
		return big.NewInt(0), nil
	}
	mod := new(big.Int).Lsh(big.NewInt(1), bits)
	r := new(big.Int).Mod(b, mod)
	if r.Cmp(new(big.Int).Rsh(mod, 1)) >= 0 {
		r.Sub(r, mod)
	}

	return r, nil
}
