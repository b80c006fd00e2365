package builtins

import (
	"testing"

	"github.com/example/expressions/runtime"
)

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		kind    string
		message any
		want    string
	}{
		{"Error", "boom", "Error: boom"},
		{"Error", runtime.Undefined, "Error"},
		{"TypeError", "bad type", "TypeError: bad type"},
		{"RangeError", 42.0, "RangeError: 42"},
		{"URIError", "malformed", "URIError: malformed"},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			ctor := intrinsic(t, tt.kind)

			v, err := runtime.Construct(ctor, []any{tt.message}, nil)
			if err != nil {
				t.Fatal(err)
			}
			s, err := errorToString(v, nil)
			if err != nil {
				t.Fatal(err)
			}
			if s != tt.want {
				t.Errorf("toString: got %q, want %q", s, tt.want)
			}

			ok, err := runtime.InstanceOf(v, intrinsic(t, "Error"))
			if err != nil {
				t.Fatal(err)
			}
			if !ok {
				t.Error("every error kind should be an instance of Error")
			}
			if stack := v.(*runtime.Object).Value("stack"); stack != tt.want {
				t.Errorf("stack: got %v", stack)
			}
		})
	}
}

func TestErrorCallWithoutNew(t *testing.T) {
	v, err := runtime.Call(intrinsic(t, "TypeError"), runtime.Undefined, []any{"called"})
	if err != nil {
		t.Fatal(err)
	}
	o := v.(*runtime.Object)
	if o.Value("name") != "TypeError" || o.Value("message") != "called" {
		t.Errorf("got %s", runtime.ErrorString(o))
	}
	if o.Class() != "Error" {
		t.Errorf("class: got %s", o.Class())
	}
}

func TestErrorCause(t *testing.T) {
	cause := runtime.MakeError("RangeError", "inner")
	opts := runtime.NewPlainObject([]string{"cause"}, map[string]any{"cause": cause})

	v, err := runtime.Construct(intrinsic(t, "Error"), []any{"outer", opts}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := v.(*runtime.Object).Value("cause"); got != cause {
		t.Errorf("cause: got %v", got)
	}
}

func TestAggregateError(t *testing.T) {
	errs := runtime.NewArray([]any{"a", "b"})
	v, err := runtime.Construct(intrinsic(t, "AggregateError"), []any{errs, "all failed"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	o := v.(*runtime.Object)
	if got := elementsOf(t, o.Value("errors")); len(got) != 2 {
		t.Errorf("errors: got %v", got)
	}
	if s, _ := errorToString(o, nil); s != "AggregateError: all failed" {
		t.Errorf("toString: got %q", s)
	}
}

func TestErrorToStringReceiver(t *testing.T) {
	if _, err := errorToString("x", nil); err == nil {
		t.Error("toString on a primitive should be a TypeError")
	}

	o := runtime.NewPlainObject([]string{"name", "message"}, map[string]any{"name": "", "message": "only"})
	if s, _ := errorToString(o, nil); s != "only" {
		t.Errorf("empty name: got %q", s)
	}
}
