package builtins

import (
	"testing"

	"github.com/example/expressions/runtime"
)

func TestBooleanConstructor(t *testing.T) {
	tests := []struct {
		arg  any
		want bool
	}{
		{0.0, false},
		{1.0, true},
		{"", false},
		{"x", true},
		{nil, false},
		{runtime.NewObject(nil), true},
	}

	for _, tt := range tests {
		got, _ := booleanConstructorCall(runtime.Undefined, []any{tt.arg})
		if got != tt.want {
			t.Errorf("Boolean(%v): got %v, want %v", runtime.Inspect(tt.arg), got, tt.want)
		}
	}

	if got, _ := booleanConstructorCall(runtime.Undefined, nil); got != false {
		t.Error("Boolean() should be false")
	}
}

func TestBooleanMethods(t *testing.T) {
	if s, _ := booleanToString(true, nil); s != "true" {
		t.Errorf("true.toString(): got %v", s)
	}
	if s, _ := booleanToString(toObject(false), nil); s != "false" {
		t.Errorf("boxed false.toString(): got %v", s)
	}
	if v, _ := booleanValueOf(toObject(true), nil); v != true {
		t.Errorf("valueOf: got %v", v)
	}
	if _, err := booleanValueOf("true", nil); err == nil {
		t.Error("valueOf on a string should be a TypeError")
	}
}
