package builtins

import (
	"math"
	"math/big"
	"testing"

	"github.com/example/expressions/runtime"
)

func TestJSONParse(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`42`, `42`},
		{`"hi"`, `"hi"`},
		{`null`, `null`},
		{`[1, "a", true]`, `[ 1, 'a', true ]`},
		{`{"b": 1, "a": {"c": []}}`, `{ b: 1, a: { c: [] } }`},
		{`{"a": 1, "a": 2}`, `{ a: 2 }`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, err := jsonParse(runtime.Undefined, []any{tt.input})
			if err != nil {
				t.Fatal(err)
			}
			if got := runtime.Inspect(v); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestJSONParseErrors(t *testing.T) {
	for _, input := range []string{``, `{`, `{a: 1}`, `[1,]`, `1 2`, `undefined`} {
		if _, err := jsonParse(runtime.Undefined, []any{input}); err == nil {
			t.Errorf("parse(%q) should be a SyntaxError", input)
		}
	}
}

func TestJSONParseReviver(t *testing.T) {
	var order []any
	reviver := runtime.NewFunction("", 2, func(_ any, args []any) (any, error) {
		order = append(order, args[0])
		if n, ok := args[1].(float64); ok {
			if n < 0 {
				return runtime.Undefined, nil
			}
			return n * 10, nil
		}
		return args[1], nil
	})

	v, err := jsonParse(runtime.Undefined, []any{`{"a": 1, "b": -1, "c": [2]}`, reviver})
	if err != nil {
		t.Fatal(err)
	}
	if got := runtime.Inspect(v); got != `{ a: 10, c: [ 20 ] }` {
		t.Errorf("revived: got %s", got)
	}
	if len(order) != 5 || order[len(order)-1] != "" {
		t.Errorf("reviver visits children first and the root last, got %v", order)
	}
}

func TestJSONStringify(t *testing.T) {
	nested := runtime.NewPlainObject([]string{"a", "b"}, map[string]any{
		"a": runtime.NewArray([]any{1.0, "x", nil}),
		"b": runtime.NewPlainObject([]string{"c"}, map[string]any{"c": true}),
	})
	skipped := runtime.NewPlainObject([]string{"u", "f", "s", "n"}, map[string]any{
		"u": runtime.Undefined,
		"f": runtime.NewFunction("f", 0, nil),
		"s": &runtime.Symbol{Description: "s"},
		"n": math.NaN(),
	})

	tests := []struct {
		name string
		args []any
		want any
	}{
		{"number", []any{3.5}, "3.5"},
		{"string escapes", []any{"a\"b\\c\n\u0001<"}, `"a\"b\\c\n\u0001<"`},
		{"nested", []any{nested}, `{"a":[1,"x",null],"b":{"c":true}}`},
		{"skipped members", []any{skipped}, `{"n":null}`},
		{"undefined in array", []any{runtime.NewArray([]any{runtime.Undefined})}, `[null]`},
		{"top-level undefined", []any{runtime.Undefined}, runtime.Undefined},
		{"boxed", []any{toObject("s")}, `"s"`},
		{"host map", []any{map[string]any{"b": 2, "a": 1}}, `{"a":1,"b":2}`},
		{"indent number", []any{nested, nil, 2.0}, "{\n  \"a\": [\n    1,\n    \"x\",\n    null\n  ],\n  \"b\": {\n    \"c\": true\n  }\n}"},
		{"indent string", []any{runtime.NewArray([]any{1.0}), nil, "\t"}, "[\n\t1\n]"},
		{"empty containers", []any{runtime.NewArray(nil), nil, 2.0}, "[]"},
		{"allow list", []any{nested, runtime.NewArray([]any{"b", "c"})}, `{"b":{"c":true}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := jsonStringify(runtime.Undefined, tt.args)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestJSONStringifyReplacerAndToJSON(t *testing.T) {
	replacer := runtime.NewFunction("", 2, func(_ any, args []any) (any, error) {
		if args[0] == "secret" {
			return runtime.Undefined, nil
		}
		return args[1], nil
	})
	obj := runtime.NewPlainObject([]string{"user", "secret"}, map[string]any{"user": "ann", "secret": "x"})
	if got, _ := jsonStringify(runtime.Undefined, []any{obj, replacer}); got != `{"user":"ann"}` {
		t.Errorf("replacer: got %v", got)
	}

	custom := runtime.NewObject(runtime.ObjectPrototype)
	custom.Put("toJSON", runtime.NewFunction("toJSON", 1, func(_ any, args []any) (any, error) {
		return "key=" + runtime.ToString(args[0]), nil
	}))
	wrapper := runtime.NewPlainObject([]string{"k"}, map[string]any{"k": custom})
	if got, _ := jsonStringify(runtime.Undefined, []any{wrapper}); got != `{"k":"key=k"}` {
		t.Errorf("toJSON: got %v", got)
	}
}

func TestJSONStringifyErrors(t *testing.T) {
	cyclic := runtime.NewObject(runtime.ObjectPrototype)
	cyclic.Put("self", cyclic)
	if _, err := jsonStringify(runtime.Undefined, []any{cyclic}); err == nil {
		t.Error("cyclic structures should be a TypeError")
	}

	if _, err := jsonStringify(runtime.Undefined, []any{big.NewInt(1)}); err == nil {
		t.Error("bigints should be a TypeError")
	}

	shared := runtime.NewArray(nil)
	twice := runtime.NewArray([]any{shared, shared})
	if got, err := jsonStringify(runtime.Undefined, []any{twice}); err != nil || got != "[[],[]]" {
		t.Errorf("shared non-cyclic values: got %v, %v", got, err)
	}
}
