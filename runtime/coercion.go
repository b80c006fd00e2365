package runtime

import (
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"
)

// ToBoolean implements truthiness.
func ToBoolean(v any) bool {
	switch v := v.(type) {
	case nil, UndefinedType:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case *big.Int:
		return v.Sign() != 0
	}
	if f, ok := toFloat(v); ok {
		return f != 0 && !math.IsNaN(f)
	}

	return !isNilHost(v)
}

// ToNumber converts v to a number. Objects are converted through their
// primitive value; failures yield NaN.
func ToNumber(v any) float64 {
	switch v := v.(type) {
	case nil:
		return 0
	case UndefinedType:
		return math.NaN()
	case bool:
		if v {
			return 1
		}
		return 0
	case string:
		return StringToNumber(v)
	case *big.Int:
		f, _ := new(big.Float).SetInt(v).Float64()
		return f
	case *Symbol:
		return math.NaN()
	}
	if f, ok := toFloat(v); ok {
		return f
	}

	p, err := ToPrimitive(v, "number")
	if err != nil || !isPrimitive(p) {
		return math.NaN()
	}

	return ToNumber(p)
}

// StringToNumber parses numeric source text the way Number(s) does.
func StringToNumber(s string) float64 {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return 0
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}

	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			n, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil {
				return math.NaN()
			}
			return float64(n)
		}
	}

	if strings.ContainsAny(s, "_xXpP") || strings.EqualFold(s, "inf") || strings.EqualFold(s, "nan") {
		return math.NaN()
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}

	return n
}

// ParseNumberLiteral converts a numeric token to its value. Separators and
// prefixes are accepted; BigInt literals keep their trailing n.
func ParseNumberLiteral(lit string) (any, error) {
	clean := strings.ReplaceAll(lit, "_", "")
	if strings.HasSuffix(clean, "n") {
		digits := strings.TrimSuffix(clean, "n")
		n, ok := new(big.Int).SetString(digits, 0)
		if !ok {
			return nil, NewSyntaxError("invalid BigInt literal %s", lit)
		}
		return n, nil
	}
	if len(clean) > 1 && clean[0] == '0' && clean[1] >= '0' && clean[1] <= '9' {
		// legacy octal like 017
		if n, err := strconv.ParseUint(clean[1:], 8, 64); err == nil {
			return float64(n), nil
		}
	}

	return StringToNumber(clean), nil
}

// ToNumeric converts v to a number or a bigint.
func ToNumeric(v any) (any, error) {
	switch v := v.(type) {
	case *big.Int:
		return v, nil
	case *Symbol:
		return nil, NewTypeError("Cannot convert a Symbol value to a number")
	}
	if f, ok := toFloat(v); ok {
		return f, nil
	}
	if isPrimitive(v) {
		return ToNumber(v), nil
	}

	p, err := ToPrimitive(v, "number")
	if err != nil {
		return nil, err
	}
	if b, ok := p.(*big.Int); ok {
		return b, nil
	}

	return ToNumber(p), nil
}

// NumberToString formats a number the way the language prints it.
func NumberToString(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}

	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		mant, exp, _ := strings.Cut(s, "e")
		exp = strings.TrimLeft(exp, "+")
		sign := "+"
		if strings.HasPrefix(exp, "-") {
			sign = "-"
			exp = exp[1:]
		}
		exp = strings.TrimLeft(exp, "0")
		return mant + "e" + sign + exp
	}

	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ToString converts v to a string.
func ToString(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case UndefinedType:
		return "undefined"
	case bool:
		return strconv.FormatBool(v)
	case string:
		return v
	case *big.Int:
		return v.String()
	case *Symbol:
		return v.String()
	case *Array:
		return joinElements(v.Elements)
	case []any:
		return joinElements(v)
	}
	if f, ok := toFloat(v); ok {
		return NumberToString(f)
	}

	p, err := ToPrimitive(v, "string")
	if err != nil || !isPrimitive(p) {
		return "[object Object]"
	}

	return ToString(p)
}

func joinElements(elems []any) string {
	parts := make([]string, len(elems))
	for i, e := range elems {
		if !IsNullish(e) {
			parts[i] = ToString(e)
		}
	}

	return strings.Join(parts, ",")
}

func isPrimitive(v any) bool {
	switch v.(type) {
	case nil, UndefinedType, bool, string, *big.Int, *Symbol:
		return true
	}

	return IsNumber(v)
}

// ToPrimitive converts an object to a primitive by calling its
// Symbol.toPrimitive, valueOf or toString methods. hint is "number",
// "string" or "default".
func ToPrimitive(v any, hint string) (any, error) {
	if isPrimitive(v) {
		return Normalize(v), nil
	}

	if ex, err := GetMember(v, SymbolToPrimitive); err == nil && IsCallable(ex) {
		r, err := Call(ex, v, []any{hint})
		if err != nil {
			return nil, err
		}
		if isPrimitive(r) {
			return r, nil
		}
		return nil, NewTypeError("Cannot convert object to primitive value")
	}

	order := []string{"valueOf", "toString"}
	if hint == "string" {
		order = []string{"toString", "valueOf"}
	}
	for _, name := range order {
		m, err := GetMember(v, name)
		if err != nil {
			return nil, err
		}
		if !IsCallable(m) {
			continue
		}
		r, err := Call(m, v, nil)
		if err != nil {
			return nil, err
		}
		if isPrimitive(r) {
			return Normalize(r), nil
		}
	}

	switch x := v.(type) {
	case *Array:
		return joinElements(x.Elements), nil
	case *Function:
		return x.String(), nil
	case *Object:
		if x.class == "Error" {
			return ErrorString(x), nil
		}
		return "[object Object]", nil
	case ObjectLike:
		return "[object " + x.Base().class + "]", nil
	}

	return Inspect(v), nil
}

// ToPropertyKey converts v to a string or symbol key.
func ToPropertyKey(v any) any {
	switch v := v.(type) {
	case *Symbol:
		return v
	case string:
		return v
	}

	return ToString(v)
}

// ToIntegerOrInfinity truncates v toward zero; NaN becomes 0.
func ToIntegerOrInfinity(v any) float64 {
	f := ToNumber(v)
	if math.IsNaN(f) {
		return 0
	}

	return math.Trunc(f)
}

// ToInt32 implements the 32-bit signed integer conversion.
func ToInt32(v any) int32 {
	return int32(ToUint32(v))
}

// ToUint32 implements the 32-bit unsigned integer conversion.
func ToUint32(v any) uint32 {
	f := ToNumber(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}

	return uint32(int64(math.Mod(math.Trunc(f), 4294967296)))
}

// StrictEquals implements ===.
func StrictEquals(a, b any) bool {
	af, aNum := toFloat(a)
	bf, bNum := toFloat(b)
	if aNum || bNum {
		return aNum && bNum && af == bf
	}

	switch a := a.(type) {
	case nil:
		return b == nil
	case UndefinedType:
		return IsUndefined(b)
	case bool:
		bb, ok := b.(bool)
		return ok && a == bb
	case string:
		bs, ok := b.(string)
		return ok && a == bs
	case *big.Int:
		bi, ok := b.(*big.Int)
		return ok && a.Cmp(bi) == 0
	}

	return sameReference(a, b)
}

// SameValueZero is StrictEquals except that NaN equals NaN.
func SameValueZero(a, b any) bool {
	af, aNum := toFloat(a)
	bf, bNum := toFloat(b)
	if aNum && bNum && math.IsNaN(af) && math.IsNaN(bf) {
		return true
	}

	return StrictEquals(a, b)
}

// sameReference reports identity. Host maps, slices and funcs cannot be
// compared with ==; they are the same when they share their backing store.
func sameReference(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ra.Type() != rb.Type() {
		return false
	}
	if ra.Comparable() && rb.Comparable() {
		return a == b
	}

	switch ra.Kind() {
	case reflect.Map, reflect.Func:
		return ra.Pointer() == rb.Pointer()
	case reflect.Slice:
		return ra.Pointer() == rb.Pointer() && ra.Len() == rb.Len()
	}

	return false
}

// LooseEquals implements ==.
func LooseEquals(a, b any) (bool, error) {
	a, b = Normalize(a), Normalize(b)

	switch {
	case IsNullish(a) || IsNullish(b):
		return IsNullish(a) && IsNullish(b), nil
	case TypeOf(a) == TypeOf(b):
		return StrictEquals(a, b), nil
	}

	switch av := a.(type) {
	case bool:
		return LooseEquals(ToNumber(av), b)
	case *big.Int:
		if bs, ok := b.(string); ok {
			n, ok := new(big.Int).SetString(strings.TrimSpace(bs), 10)
			return ok && n.Cmp(av) == 0, nil
		}
		if bf, ok := b.(float64); ok {
			return bigEqualsFloat(av, bf), nil
		}
	case float64:
		switch bv := b.(type) {
		case string:
			return av == ToNumber(bv), nil
		case *big.Int:
			return bigEqualsFloat(bv, av), nil
		}
	case string:
		switch b.(type) {
		case float64, *big.Int:
			return LooseEquals(b, a)
		}
	}

	if _, ok := b.(bool); ok {
		return LooseEquals(a, ToNumber(b))
	}
	if isPrimitive(a) != isPrimitive(b) {
		var err error
		if isPrimitive(a) {
			b, err = ToPrimitive(b, "default")
		} else {
			a, err = ToPrimitive(a, "default")
		}
		if err != nil {
			return false, err
		}
		return LooseEquals(a, b)
	}

	return false, nil
}

func bigEqualsFloat(b *big.Int, f float64) bool {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return false
	}
	bf, _ := new(big.Float).SetInt(b).Float64()

	return bf == f
}
