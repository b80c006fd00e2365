package builtins

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/example/expressions/runtime"
)

const (
	uriReserved   = ";/?:@&=+$,"
	uriUnreserved = "-_.!~*'()"
)

func globalFunctions() []global {
	fn := func(name string, length int, f runtime.NativeFunc) global {
		return global{name, runtime.NewFunction(name, length, f)}
	}

	return []global{
		fn("parseInt", 2, globalParseInt),
		fn("parseFloat", 1, globalParseFloat),
		fn("isNaN", 1, globalIsNaN),
		fn("isFinite", 1, globalIsFinite),
		fn("encodeURI", 1, globalEncodeURI),
		fn("encodeURIComponent", 1, globalEncodeURIComponent),
		fn("decodeURI", 1, globalDecodeURI),
		fn("decodeURIComponent", 1, globalDecodeURIComponent),
		fn("escape", 1, globalEscape),
		fn("unescape", 1, globalUnescape),
		{"undefined", runtime.Undefined},
		{"NaN", math.NaN()},
		{"Infinity", math.Inf(1)},
	}
}

func isJSSpace(r rune) bool { return unicode.IsSpace(r) || r == '\uFEFF' }

func globalParseInt(_ any, args []any) (any, error) {
	s := strings.TrimLeftFunc(argString(args, 0), isJSSpace)

	sign := 1.0
	if s != "" && (s[0] == '-' || s[0] == '+') {
		if s[0] == '-' {
			sign = -1
		}
		s = s[1:]
	}

	radix := int(runtime.ToInt32(arg(args, 1)))
	stripPrefix := true
	switch {
	case radix == 0:
		radix = 10
	case radix < 2 || radix > 36:
		return math.NaN(), nil
	case radix != 16:
		stripPrefix = false
	}
	if stripPrefix && len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
		radix = 16
	}

	end := 0
	for end < len(s) && digitValue(s[end]) < radix {
		end++
	}
	if end == 0 {
		return math.NaN(), nil
	}
	digits := s[:end]

	if radix == 10 {
		// ParseFloat rounds correctly where digit accumulation would not.
		f, err := strconv.ParseFloat(digits, 64)
		if err != nil && f == 0 {
			return math.NaN(), nil
		}
		return sign * f, nil
	}

	n := 0.0
	for i := range len(digits) {
		n = n*float64(radix) + float64(digitValue(digits[i]))
	}

	return sign * n, nil
}

func digitValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 10
	}

	return 36
}

func globalParseFloat(_ any, args []any) (any, error) {
	s := strings.TrimLeftFunc(argString(args, 0), isJSSpace)

	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	if strings.HasPrefix(s[i:], "Infinity") {
		if s[0] == '-' {
			return math.Inf(-1), nil
		}
		return math.Inf(1), nil
	}

	intDigits := scanDigits(s, i)
	end := intDigits
	if end < len(s) && s[end] == '.' {
		if frac := scanDigits(s, end+1); frac > end+1 || intDigits > i {
			end = frac
		}
	}
	if end == i || (end == i+1 && s[i] == '.') {
		return math.NaN(), nil
	}
	if end < len(s) && (s[end] == 'e' || s[end] == 'E') {
		j := end + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if k := scanDigits(s, j); k > j {
			end = k
		}
	}

	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil && !math.IsInf(f, 0) && f != 0 {
		return math.NaN(), nil
	}

	return f, nil
}

func scanDigits(s string, i int) int {
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}

	return i
}

func globalIsNaN(_ any, args []any) (any, error) {
	n, err := runtime.ToNumeric(arg(args, 0))
	if err != nil {
		return nil, err
	}
	f, ok := n.(float64)
	if !ok {
		return nil, runtime.NewTypeError("Cannot convert a BigInt value to a number")
	}

	return math.IsNaN(f), nil
}

func globalIsFinite(_ any, args []any) (any, error) {
	n, err := runtime.ToNumeric(arg(args, 0))
	if err != nil {
		return nil, err
	}
	f, ok := n.(float64)
	if !ok {
		return nil, runtime.NewTypeError("Cannot convert a BigInt value to a number")
	}

	return !math.IsNaN(f) && !math.IsInf(f, 0), nil
}

func globalEncodeURI(_ any, args []any) (any, error) {
	return encodeURI(argString(args, 0), uriReserved+uriUnreserved+"#")
}

func globalEncodeURIComponent(_ any, args []any) (any, error) {
	return encodeURI(argString(args, 0), uriUnreserved)
}

func globalDecodeURI(_ any, args []any) (any, error) {
	return decodeURI(argString(args, 0), uriReserved+"#")
}

func globalDecodeURIComponent(_ any, args []any) (any, error) {
	return decodeURI(argString(args, 0), "")
}

func uriError() error {
	return runtime.Throw(runtime.MakeError("URIError", "URI malformed"))
}

func isAlnum(r rune) bool {
	return r < utf8.RuneSelf && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
}

// encodeURI percent-encodes the UTF-8 bytes of every rune outside keep.
func encodeURI(s, keep string) (any, error) {
	var sb strings.Builder
	for i, r := range s {
		if isAlnum(r) || (r < utf8.RuneSelf && strings.ContainsRune(keep, r)) {
			sb.WriteRune(r)
			continue
		}
		if r == utf8.RuneError {
			if _, size := utf8.DecodeRuneInString(s[i:]); size == 1 {
				return nil, uriError()
			}
		}
		var buf [utf8.UTFMax]byte
		for _, b := range buf[:utf8.EncodeRune(buf[:], r)] {
			fmt.Fprintf(&sb, "%%%02X", b)
		}
	}

	return sb.String(), nil
}

// decodeURI reverses percent-encoding. Escapes that decode to a byte in
// preserve are left as written.
func decodeURI(s, preserve string) (any, error) {
	var sb strings.Builder
	for i := 0; i < len(s); {
		if s[i] != '%' {
			sb.WriteByte(s[i])
			i++
			continue
		}

		b, ok := hexByte(s, i)
		if !ok {
			return nil, uriError()
		}
		if b < utf8.RuneSelf {
			if strings.IndexByte(preserve, b) >= 0 {
				sb.WriteString(s[i : i+3])
			} else {
				sb.WriteByte(b)
			}
			i += 3
			continue
		}

		n := utf8SequenceLength(b)
		if n == 0 {
			return nil, uriError()
		}
		seq := []byte{b}
		for k := 1; k < n; k++ {
			c, ok := hexByte(s, i+3*k)
			if !ok || c&0xC0 != 0x80 {
				return nil, uriError()
			}
			seq = append(seq, c)
		}
		if r, _ := utf8.DecodeRune(seq); r == utf8.RuneError {
			return nil, uriError()
		}
		sb.Write(seq)
		i += 3 * n
	}

	return sb.String(), nil
}

func hexByte(s string, i int) (byte, bool) {
	if i+3 > len(s) || s[i] != '%' {
		return 0, false
	}
	hi, lo := digitValue(s[i+1]), digitValue(s[i+2])
	if hi >= 16 || lo >= 16 {
		return 0, false
	}

	return byte(hi<<4 | lo), true
}

func utf8SequenceLength(b byte) int {
	switch {
	case b&0xE0 == 0xC0:
		return 2
	case b&0xF0 == 0xE0:
		return 3
	case b&0xF8 == 0xF0:
		return 4
	}

	return 0
}

// globalEscape applies the legacy escape encoding to UTF-16 code units.
func globalEscape(_ any, args []any) (any, error) {
	var sb strings.Builder
	for _, cu := range utf16.Encode([]rune(argString(args, 0))) {
		switch {
		case cu < utf8.RuneSelf && (isAlnum(rune(cu)) || strings.ContainsRune("@*_+-./", rune(cu))):
			sb.WriteByte(byte(cu))
		case cu <= 0xFF:
			fmt.Fprintf(&sb, "%%%02X", cu)
		default:
			fmt.Fprintf(&sb, "%%u%04X", cu)
		}
	}

	return sb.String(), nil
}

func globalUnescape(_ any, args []any) (any, error) {
	s := argString(args, 0)
	units := make([]uint16, 0, len(s))
	for _, r := range s {
		units = append(units, utf16.Encode([]rune{r})...)
	}

	out := make([]uint16, 0, len(units))
	for i := 0; i < len(units); i++ {
		if units[i] == '%' {
			if n, ok := hexUnits(units, i+2, 4); ok && i+1 < len(units) && units[i+1] == 'u' {
				out = append(out, n)
				i += 5
				continue
			}
			if n, ok := hexUnits(units, i+1, 2); ok {
				out = append(out, n)
				i += 2
				continue
			}
		}
		out = append(out, units[i])
	}

	return string(utf16.Decode(out)), nil
}

func hexUnits(units []uint16, start, n int) (uint16, bool) {
	if start+n > len(units) {
		return 0, false
	}
	var v uint16
	for _, u := range units[start : start+n] {
		if u >= utf8.RuneSelf {
			return 0, false
		}
		d := digitValue(byte(u))
		if d >= 16 {
			return 0, false
		}
		v = v<<4 | uint16(d)
	}

	return v, true
}
