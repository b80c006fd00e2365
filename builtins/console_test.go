package builtins

import (
	"bytes"
	"testing"

	"github.com/example/expressions/runtime"
)

func callMethod(t *testing.T, obj any, name string, this any, args ...any) any {
	t.Helper()

	fn, err := runtime.GetMember(obj, name)
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	v, err := runtime.Call(fn, this, args)
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}

	return v
}

func TestConsoleLog(t *testing.T) {
	var out, errOut bytes.Buffer
	console := createConsoleObject(config{out: &out, errOut: &errOut})

	callMethod(t, console, "log", console, "hello", 42.0)
	if got := out.String(); got != "hello 42\n" {
		t.Errorf("console.log: got %q, want %q", got, "hello 42\n")
	}

	callMethod(t, console, "error", console, "error!")
	if got := errOut.String(); got != "error!\n" {
		t.Errorf("console.error: got %q, want %q", got, "error!\n")
	}
}

func TestConsoleLogValues(t *testing.T) {
	tests := []struct {
		name string
		args []any
		want string
	}{
		{"array", []any{runtime.NewArray([]any{1.0, 2.0, 3.0})}, "[ 1, 2, 3 ]\n"},
		{"nested string", []any{runtime.NewArray([]any{"a"})}, "[ 'a' ]\n"},
		{"object", []any{runtime.NewPlainObject([]string{"a"}, map[string]any{"a": 1.0})}, "{ a: 1 }\n"},
		{"undefined", []any{runtime.Undefined}, "undefined\n"},
		{"null", []any{nil}, "null\n"},
		{"empty", nil, "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			console := createConsoleObject(config{out: &out})
			callMethod(t, console, "log", console, tt.args...)
			if got := out.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
