package builtins

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"math/big"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/example/expressions/runtime"
)

func createJSONObject() *runtime.Object {
	j := runtime.NewObject(runtime.ObjectPrototype)
	j.SetClass("JSON")

	method(j, "parse", 2, jsonParse)
	method(j, "stringify", 3, jsonStringify)

	return j
}

func jsonParse(_ any, args []any) (any, error) {
	dec := json.NewDecoder(strings.NewReader(argString(args, 0)))
	v, err := decodeValue(dec)
	if err == nil {
		if _, extra := dec.Token(); !errors.Is(extra, io.EOF) {
			err = errors.New("unexpected data after top-level value")
		}
	}
	if err != nil {
		return nil, runtime.NewSyntaxError("JSON.parse: %v", err)
	}

	reviver := arg(args, 1)
	if !runtime.IsCallable(reviver) {
		return v, nil
	}
	root := runtime.NewObject(runtime.ObjectPrototype)
	root.Put("", v)

	return internalize(root, "", reviver)
}

// decodeValue reads one value from a token stream, preserving the key
// order of objects.
func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '[':
			var elems []any
			for dec.More() {
				v, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				elems = append(elems, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return runtime.NewArray(elems), nil
		case '{':
			obj := runtime.NewObject(runtime.ObjectPrototype)
			for dec.More() {
				key, err := dec.Token()
				if err != nil {
					return nil, err
				}
				v, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				obj.Put(key.(string), v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		}
	case nil, bool, float64, string:
		return t, nil
	}

	return nil, errors.New("unexpected token")
}

// internalize applies a reviver bottom-up, deleting properties it maps to
// undefined.
func internalize(holder any, key string, reviver any) (any, error) {
	val, err := runtime.GetMember(holder, key)
	if err != nil {
		return nil, err
	}

	if objectOf(val) != nil {
		for _, k := range runtime.OwnKeys(val) {
			nv, err := internalize(val, k, reviver)
			if err != nil {
				return nil, err
			}
			if runtime.IsUndefined(nv) {
				if _, err := runtime.DeleteMember(val, k); err != nil {
					return nil, err
				}
				continue
			}
			if err := runtime.SetMember(val, k, nv); err != nil {
				return nil, err
			}
		}
	}

	return runtime.Call(reviver, holder, []any{key, val})
}

type stringifier struct {
	replacer any
	allow    []string
	gap      string
	indent   string
	stack    []any
}

func jsonStringify(_ any, args []any) (any, error) {
	s := &stringifier{}

	if r := arg(args, 1); runtime.IsCallable(r) {
		s.replacer = r
	} else if list, ok := runtime.ArrayOf(r); ok {
		s.allow = []string{}
		for _, item := range list {
			item = unbox(item)
			if _, isStr := item.(string); !isStr && !runtime.IsNumber(item) {
				continue
			}
			if k := runtime.ToString(item); !slices.Contains(s.allow, k) {
				s.allow = append(s.allow, k)
			}
		}
	}

	switch space := unbox(arg(args, 2)).(type) {
	case string:
		if utf8.RuneCountInString(space) > 10 {
			space = string([]rune(space)[:10])
		}
		s.gap = space
	default:
		if runtime.IsNumber(space) {
			n := min(10, int(runtime.ToIntegerOrInfinity(space)))
			s.gap = strings.Repeat(" ", max(n, 0))
		}
	}

	root := runtime.NewObject(runtime.ObjectPrototype)
	root.Put("", arg(args, 0))
	out, ok, err := s.property(root, "", arg(args, 0))
	if err != nil || !ok {
		return runtime.Undefined, err
	}

	return out, nil
}

// unbox returns the primitive inside a Number, String, Boolean or BigInt
// wrapper object.
func unbox(v any) any {
	if o := objectOf(v); o != nil {
		switch o.Class() {
		case "Number", "String", "Boolean", "BigInt":
			if o.Internal != nil {
				return o.Internal
			}
		}
	}

	return v
}

// isObjectValue reports whether v serializes as an array or object.
func isObjectValue(v any) bool {
	return v != nil && runtime.TypeOf(v) == "object"
}

// property serializes value as the member key of holder. The boolean is
// false for values that are skipped: undefined, functions and symbols.
func (s *stringifier) property(holder any, key string, value any) (string, bool, error) {
	if isObjectValue(value) || runtime.TypeOf(value) == "bigint" {
		toJSON, err := runtime.GetMember(value, "toJSON")
		if err != nil {
			return "", false, err
		}
		if runtime.IsCallable(toJSON) {
			if value, err = runtime.Call(toJSON, value, []any{key}); err != nil {
				return "", false, err
			}
		}
	}
	if s.replacer != nil {
		var err error
		if value, err = runtime.Call(s.replacer, holder, []any{key, value}); err != nil {
			return "", false, err
		}
	}

	value = unbox(value)
	switch v := value.(type) {
	case nil:
		return "null", true, nil
	case bool:
		return strconv.FormatBool(v), true, nil
	case string:
		return quoteJSON(v), true, nil
	case *big.Int:
		return "", false, runtime.NewTypeError("Do not know how to serialize a BigInt")
	}
	if runtime.IsNumber(value) {
		n := runtime.ToNumber(value)
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return "null", true, nil
		}
		return runtime.NumberToString(n), true, nil
	}
	if !isObjectValue(value) || runtime.IsCallable(value) {
		return "", false, nil
	}

	id := normalizeKey(value)
	for _, seen := range s.stack {
		if seen == id {
			return "", false, runtime.NewTypeError("Converting circular structure to JSON")
		}
	}
	s.stack = append(s.stack, id)
	defer func() { s.stack = s.stack[:len(s.stack)-1] }()

	if elems, ok := runtime.ArrayOf(value); ok {
		out, err := s.array(value, elems)
		return out, true, err
	}
	out, err := s.object(value)

	return out, true, err
}

func (s *stringifier) array(holder any, elems []any) (string, error) {
	stepback := s.indent
	s.indent += s.gap
	defer func() { s.indent = stepback }()

	parts := make([]string, len(elems))
	for i, e := range elems {
		str, ok, err := s.property(holder, strconv.Itoa(i), e)
		if err != nil {
			return "", err
		}
		if !ok {
			str = "null"
		}
		parts[i] = str
	}

	return s.wrap("[", "]", parts, stepback), nil
}

func (s *stringifier) object(holder any) (string, error) {
	stepback := s.indent
	s.indent += s.gap
	defer func() { s.indent = stepback }()

	keys := s.allow
	if keys == nil {
		keys = runtime.OwnKeys(holder)
	}

	colon := ":"
	if s.gap != "" {
		colon = ": "
	}
	var parts []string
	for _, k := range keys {
		v, err := runtime.GetMember(holder, k)
		if err != nil {
			return "", err
		}
		str, ok, err := s.property(holder, k, v)
		if err != nil {
			return "", err
		}
		if ok {
			parts = append(parts, quoteJSON(k)+colon+str)
		}
	}

	return s.wrap("{", "}", parts, stepback), nil
}

func (s *stringifier) wrap(open, closing string, parts []string, stepback string) string {
	if len(parts) == 0 {
		return open + closing
	}
	if s.gap == "" {
		return open + strings.Join(parts, ",") + closing
	}
	sep := ",\n" + s.indent

	return open + "\n" + s.indent + strings.Join(parts, sep) + "\n" + stepback + closing
}

// quoteJSON quotes s as a JSON string. Unlike encoding/json it leaves
// HTML characters unescaped.
func quoteJSON(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			if r < 0x20 {
				sb.WriteString(`\u00`)
				sb.WriteString(strconv.FormatInt(int64(r)>>4, 16))
				sb.WriteString(strconv.FormatInt(int64(r)&0xf, 16))
				continue
			}
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')

	return sb.String()
}
