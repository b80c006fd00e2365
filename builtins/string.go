package builtins

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/example/expressions/runtime"
)

func createStringConstructor() *runtime.Function {
	proto := runtime.StringPrototype
	proto.SetClass("String")
	proto.Internal = ""

	method(proto, "at", 1, stringAt)
	method(proto, "charAt", 1, stringCharAt)
	method(proto, "charCodeAt", 1, stringCharCodeAt)
	method(proto, "codePointAt", 1, stringCodePointAt)
	method(proto, "concat", 1, stringConcat)
	method(proto, "endsWith", 1, stringEndsWith)
	method(proto, "includes", 1, stringIncludes)
	method(proto, "indexOf", 1, stringIndexOf)
	method(proto, "lastIndexOf", 1, stringLastIndexOf)
	method(proto, "localeCompare", 1, stringLocaleCompare)
	method(proto, "match", 1, stringMatch)
	method(proto, "matchAll", 1, stringMatchAll)
	method(proto, "normalize", 0, stringNormalize)
	method(proto, "padEnd", 1, stringPadEnd)
	method(proto, "padStart", 1, stringPadStart)
	method(proto, "repeat", 1, stringRepeat)
	method(proto, "replace", 2, stringReplace)
	method(proto, "replaceAll", 2, stringReplaceAll)
	method(proto, "search", 1, stringSearch)
	method(proto, "slice", 2, stringSlice)
	method(proto, "split", 2, stringSplit)
	method(proto, "startsWith", 1, stringStartsWith)
	method(proto, "substring", 2, stringSubstring)
	method(proto, "substr", 2, stringSubstr)
	method(proto, "toLowerCase", 0, stringToLowerCase)
	method(proto, "toUpperCase", 0, stringToUpperCase)
	method(proto, "toLocaleLowerCase", 0, stringToLocaleLowerCase)
	method(proto, "toLocaleUpperCase", 0, stringToLocaleUpperCase)
	method(proto, "toString", 0, stringValueOf)
	method(proto, "trim", 0, stringTrim)
	method(proto, "trimEnd", 0, stringTrimEnd)
	method(proto, "trimStart", 0, stringTrimStart)
	method(proto, "valueOf", 0, stringValueOf)
	symbolMethod(proto, runtime.SymbolIterator, "[Symbol.iterator]", stringIterator)

	ctor := constructor("String", 1, proto, stringConstructorCall,
		func(args []any, newTarget *runtime.Function) (any, error) {
			s, _ := stringConstructorCall(runtime.Undefined, args)
			o := toObject(s).(*runtime.Object)
			if newTarget != nil {
				if p := newTarget.Prototype(); p != nil {
					o.SetProto(p)
				}
			}
			return o, nil
		})

	method(ctor.Object, "fromCharCode", 1, stringFromCharCode)
	method(ctor.Object, "fromCodePoint", 1, stringFromCodePoint)
	method(ctor.Object, "raw", 1, stringRaw)

	return ctor
}

func stringConstructorCall(_ any, args []any) (any, error) {
	if len(args) == 0 {
		return "", nil
	}

	return runtime.ToString(args[0]), nil
}

// thisString coerces the receiver of a String.prototype method.
func thisString(this any, name string) (string, error) {
	if s, ok := primitiveValue[string](this, "String"); ok {
		return s, nil
	}
	if runtime.IsNullish(this) {
		return "", runtime.NewTypeError("String.prototype.%s called on null or undefined", name)
	}
	if _, ok := this.(*runtime.Symbol); ok {
		return "", runtime.NewTypeError("Cannot convert a Symbol value to a string")
	}

	return runtime.ToString(this), nil
}

func stringValueOf(this any, _ []any) (any, error) {
	s, ok := primitiveValue[string](this, "String")
	if !ok {
		return nil, runtime.NewTypeError("String.prototype.valueOf requires that 'this' be a String")
	}

	return s, nil
}

// runeIndex returns the rune offset of sub in s at or after from, or -1.
func runeIndex(s []rune, sub string, from int) int {
	if from > len(s) {
		return -1
	}
	rest := string(s[from:])
	i := strings.Index(rest, sub)
	if i < 0 {
		return -1
	}

	return from + utf8.RuneCountInString(rest[:i])
}

func stringAt(this any, args []any) (any, error) {
	s, err := thisString(this, "at")
	if err != nil {
		return nil, err
	}
	r := []rune(s)
	i := int(runtime.ToIntegerOrInfinity(arg(args, 0)))
	if i < 0 {
		i += len(r)
	}
	if i < 0 || i >= len(r) {
		return runtime.Undefined, nil
	}

	return string(r[i]), nil
}

func stringCharAt(this any, args []any) (any, error) {
	s, err := thisString(this, "charAt")
	if err != nil {
		return nil, err
	}
	r := []rune(s)
	i := runtime.ToIntegerOrInfinity(arg(args, 0))
	if i < 0 || i >= float64(len(r)) {
		return "", nil
	}

	return string(r[int(i)]), nil
}

func stringCharCodeAt(this any, args []any) (any, error) {
	s, err := thisString(this, "charCodeAt")
	if err != nil {
		return nil, err
	}
	r := []rune(s)
	i := runtime.ToIntegerOrInfinity(arg(args, 0))
	if i < 0 || i >= float64(len(r)) {
		return math.NaN(), nil
	}

	return float64(r[int(i)]), nil
}

func stringCodePointAt(this any, args []any) (any, error) {
	s, err := thisString(this, "codePointAt")
	if err != nil {
		return nil, err
	}
	r := []rune(s)
	i := runtime.ToIntegerOrInfinity(arg(args, 0))
	if i < 0 || i >= float64(len(r)) {
		return runtime.Undefined, nil
	}

	return float64(r[int(i)]), nil
}

func stringConcat(this any, args []any) (any, error) {
	s, err := thisString(this, "concat")
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	sb.WriteString(s)
	for _, a := range args {
		sb.WriteString(runtime.ToString(a))
	}

	return sb.String(), nil
}

// searchString rejects regular expressions where a plain string is
// required.
func searchString(v any, name string) (string, error) {
	if _, ok := internal[*regExp](v); ok {
		return "", runtime.NewTypeError("First argument to String.prototype.%s must not be a regular expression", name)
	}

	return runtime.ToString(v), nil
}

func stringEndsWith(this any, args []any) (any, error) {
	s, err := thisString(this, "endsWith")
	if err != nil {
		return nil, err
	}
	search, err := searchString(arg(args, 0), "endsWith")
	if err != nil {
		return nil, err
	}
	r := []rune(s)
	end := relativeEnd(arg(args, 1), len(r))

	return strings.HasSuffix(string(r[:end]), search), nil
}

func stringStartsWith(this any, args []any) (any, error) {
	s, err := thisString(this, "startsWith")
	if err != nil {
		return nil, err
	}
	search, err := searchString(arg(args, 0), "startsWith")
	if err != nil {
		return nil, err
	}
	r := []rune(s)
	start := relativeEnd(arg(args, 1), len(r))
	if runtime.IsUndefined(arg(args, 1)) {
		start = 0
	}

	return strings.HasPrefix(string(r[start:]), search), nil
}

// relativeEnd clamps a position argument to [0, n]; undefined means n.
func relativeEnd(v any, n int) int {
	if runtime.IsUndefined(v) {
		return n
	}

	return int(min(max(runtime.ToIntegerOrInfinity(v), 0), float64(n)))
}

func stringIncludes(this any, args []any) (any, error) {
	s, err := thisString(this, "includes")
	if err != nil {
		return nil, err
	}
	search, err := searchString(arg(args, 0), "includes")
	if err != nil {
		return nil, err
	}
	r := []rune(s)
	from := 0
	if len(args) > 1 && !runtime.IsUndefined(args[1]) {
		from = relativeEnd(args[1], len(r))
	}

	return runeIndex(r, search, from) >= 0, nil
}

func stringIndexOf(this any, args []any) (any, error) {
	s, err := thisString(this, "indexOf")
	if err != nil {
		return nil, err
	}
	r := []rune(s)
	from := 0
	if len(args) > 1 && !runtime.IsUndefined(args[1]) {
		from = relativeEnd(args[1], len(r))
	}

	return float64(runeIndex(r, runtime.ToString(arg(args, 0)), from)), nil
}

func stringLastIndexOf(this any, args []any) (any, error) {
	s, err := thisString(this, "lastIndexOf")
	if err != nil {
		return nil, err
	}
	r := []rune(s)
	search := []rune(runtime.ToString(arg(args, 0)))
	from := len(r)
	if len(args) > 1 {
		if f := runtime.ToNumber(args[1]); !math.IsNaN(f) {
			from = relativeEnd(args[1], len(r))
		}
	}

	end := min(from+len(search), len(r))
	head := string(r[:end])
	i := strings.LastIndex(head, string(search))
	if i < 0 {
		return -1.0, nil
	}

	return float64(utf8.RuneCountInString(head[:i])), nil
}

// localeTag parses a locale argument, falling back to the root locale.
func localeTag(v any) language.Tag {
	if runtime.IsUndefined(v) {
		return language.Und
	}
	tag, err := language.Parse(runtime.ToString(v))
	if err != nil {
		return language.Und
	}

	return tag
}

func stringLocaleCompare(this any, args []any) (any, error) {
	s, err := thisString(this, "localeCompare")
	if err != nil {
		return nil, err
	}
	c := collate.New(localeTag(arg(args, 1)))

	return float64(c.CompareString(s, runtime.ToString(arg(args, 0)))), nil
}

func stringNormalize(this any, args []any) (any, error) {
	s, err := thisString(this, "normalize")
	if err != nil {
		return nil, err
	}

	form := "NFC"
	if f := arg(args, 0); !runtime.IsUndefined(f) {
		form = runtime.ToString(f)
	}
	switch form {
	case "NFC":
		return norm.NFC.String(s), nil
	case "NFD":
		return norm.NFD.String(s), nil
	case "NFKC":
		return norm.NFKC.String(s), nil
	case "NFKD":
		return norm.NFKD.String(s), nil
	}

	return nil, runtime.NewRangeError("The normalization form should be one of NFC, NFD, NFKC, NFKD.")
}

func stringPadEnd(this any, args []any) (any, error) {
	return pad(this, args, "padEnd", false)
}

func stringPadStart(this any, args []any) (any, error) {
	return pad(this, args, "padStart", true)
}

func pad(this any, args []any, name string, start bool) (any, error) {
	s, err := thisString(this, name)
	if err != nil {
		return nil, err
	}
	target := int(runtime.ToIntegerOrInfinity(arg(args, 0)))
	filler := " "
	if f := arg(args, 1); !runtime.IsUndefined(f) {
		filler = runtime.ToString(f)
	}

	n := utf8.RuneCountInString(s)
	if target <= n || filler == "" {
		return s, nil
	}

	fill := []rune(strings.Repeat(filler, (target-n)/utf8.RuneCountInString(filler)+1))[:target-n]
	if start {
		return string(fill) + s, nil
	}

	return s + string(fill), nil
}

func stringRepeat(this any, args []any) (any, error) {
	s, err := thisString(this, "repeat")
	if err != nil {
		return nil, err
	}
	n := runtime.ToIntegerOrInfinity(arg(args, 0))
	if n < 0 || math.IsInf(n, 1) {
		return nil, runtime.NewRangeError("Invalid count value: %s", runtime.NumberToString(n))
	}

	return strings.Repeat(s, int(n)), nil
}

func stringSlice(this any, args []any) (any, error) {
	s, err := thisString(this, "slice")
	if err != nil {
		return nil, err
	}
	r := []rune(s)
	start := relativeIndex(arg(args, 0), len(r), 0)
	end := relativeIndex(arg(args, 1), len(r), len(r))
	if start >= end {
		return "", nil
	}

	return string(r[start:end]), nil
}

func stringSubstring(this any, args []any) (any, error) {
	s, err := thisString(this, "substring")
	if err != nil {
		return nil, err
	}
	r := []rune(s)
	start := relativeEnd(arg(args, 0), len(r))
	if runtime.IsUndefined(arg(args, 0)) {
		start = 0
	}
	end := relativeEnd(arg(args, 1), len(r))
	if start > end {
		start, end = end, start
	}

	return string(r[start:end]), nil
}

func stringSubstr(this any, args []any) (any, error) {
	s, err := thisString(this, "substr")
	if err != nil {
		return nil, err
	}
	r := []rune(s)
	start := relativeIndex(arg(args, 0), len(r), 0)
	length := len(r) - start
	if l := arg(args, 1); !runtime.IsUndefined(l) {
		length = int(min(max(runtime.ToIntegerOrInfinity(l), 0), float64(length)))
	}

	return string(r[start : start+length]), nil
}

func stringToLowerCase(this any, _ []any) (any, error) {
	s, err := thisString(this, "toLowerCase")
	if err != nil {
		return nil, err
	}

	return cases.Lower(language.Und).String(s), nil
}

func stringToUpperCase(this any, _ []any) (any, error) {
	s, err := thisString(this, "toUpperCase")
	if err != nil {
		return nil, err
	}

	return cases.Upper(language.Und).String(s), nil
}

func stringToLocaleLowerCase(this any, args []any) (any, error) {
	s, err := thisString(this, "toLocaleLowerCase")
	if err != nil {
		return nil, err
	}

	return cases.Lower(localeTag(arg(args, 0))).String(s), nil
}

func stringToLocaleUpperCase(this any, args []any) (any, error) {
	s, err := thisString(this, "toLocaleUpperCase")
	if err != nil {
		return nil, err
	}

	return cases.Upper(localeTag(arg(args, 0))).String(s), nil
}

func isTrimSpace(r rune) bool { return unicode.IsSpace(r) || r == '\uFEFF' }

func stringTrim(this any, _ []any) (any, error) {
	s, err := thisString(this, "trim")
	if err != nil {
		return nil, err
	}

	return strings.TrimFunc(s, isTrimSpace), nil
}

func stringTrimStart(this any, _ []any) (any, error) {
	s, err := thisString(this, "trimStart")
	if err != nil {
		return nil, err
	}

	return strings.TrimLeftFunc(s, isTrimSpace), nil
}

func stringTrimEnd(this any, _ []any) (any, error) {
	s, err := thisString(this, "trimEnd")
	if err != nil {
		return nil, err
	}

	return strings.TrimRightFunc(s, isTrimSpace), nil
}

func stringSplit(this any, args []any) (any, error) {
	s, err := thisString(this, "split")
	if err != nil {
		return nil, err
	}

	limit := math.MaxInt32
	if l := arg(args, 1); !runtime.IsUndefined(l) {
		limit = int(runtime.ToUint32(l))
	}
	if limit == 0 {
		return runtime.NewArray(nil), nil
	}

	sep := arg(args, 0)
	if re, ok := internal[*regExp](sep); ok {
		parts, err := re.split(s, limit)
		if err != nil {
			return nil, err
		}
		return runtime.NewArray(parts), nil
	}

	var pieces []string
	switch {
	case runtime.IsUndefined(sep):
		pieces = []string{s}
	case runtime.ToString(sep) == "":
		for _, r := range s {
			pieces = append(pieces, string(r))
		}
	default:
		pieces = strings.Split(s, runtime.ToString(sep))
	}

	parts := make([]any, 0, min(len(pieces), limit))
	for _, p := range pieces[:min(len(pieces), limit)] {
		parts = append(parts, p)
	}

	return runtime.NewArray(parts), nil
}

func stringIterator(this any, _ []any) (any, error) {
	s, err := thisString(this, "[Symbol.iterator]")
	if err != nil {
		return nil, err
	}
	r := []rune(s)

	return listIterator(func(i int) (any, bool) {
		if i >= len(r) {
			return nil, false
		}
		return string(r[i]), true
	}), nil
}

func stringFromCharCode(_ any, args []any) (any, error) {
	var sb strings.Builder
	for _, a := range args {
		sb.WriteRune(rune(uint16(runtime.ToUint32(a))))
	}

	return sb.String(), nil
}

func stringFromCodePoint(_ any, args []any) (any, error) {
	var sb strings.Builder
	for _, a := range args {
		n := runtime.ToNumber(a)
		if n != math.Trunc(n) || n < 0 || n > unicode.MaxRune {
			return nil, runtime.NewRangeError("Invalid code point %s", runtime.ToString(a))
		}
		sb.WriteRune(rune(n))
	}

	return sb.String(), nil
}

func stringRaw(_ any, args []any) (any, error) {
	strs := arg(args, 0)
	if runtime.IsNullish(strs) {
		return nil, runtime.NewTypeError("Cannot convert undefined or null to object")
	}
	raw, err := runtime.GetMember(strs, "raw")
	if err != nil {
		return nil, err
	}
	parts, err := listFromArrayLike(raw)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	for i, p := range parts {
		sb.WriteString(runtime.ToString(p))
		if i+1 < len(parts) && i+1 < len(args) {
			sb.WriteString(runtime.ToString(args[i+1]))
		}
	}

	return sb.String(), nil
}
