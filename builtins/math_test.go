package builtins

import (
	"math"
	"testing"

	"github.com/example/expressions/runtime"
)

func TestMathConstants(t *testing.T) {
	m := createMathObject()

	if pi := m.Value("PI"); pi != math.Pi {
		t.Errorf("Math.PI: got %v", pi)
	}
	if p, _ := m.Own("PI"); p.Writable {
		t.Error("Math.PI should be read-only")
	}
}

func TestMathFunctions(t *testing.T) {
	m := createMathObject()

	tests := []struct {
		name string
		args []any
		want float64
	}{
		{"abs", []any{-5.0}, 5},
		{"ceil", []any{1.2}, 2},
		{"floor", []any{-1.2}, -2},
		{"round", []any{2.5}, 3},
		{"round", []any{-2.5}, -2},
		{"round", []any{0.49999999999999994}, 0},
		{"trunc", []any{-4.7}, -4},
		{"sign", []any{-3.0}, -1},
		{"sqrt", []any{16.0}, 4},
		{"cbrt", []any{27.0}, 3},
		{"pow", []any{2.0, 10.0}, 1024},
		{"max", []any{1.0, 3.0, 2.0}, 3},
		{"max", nil, math.Inf(-1)},
		{"min", []any{"4", 2.0}, 2},
		{"min", nil, math.Inf(1)},
		{"hypot", []any{3.0, 4.0}, 5},
		{"clz32", []any{1.0}, 31},
		{"imul", []any{3.0, 4.0}, 12},
		{"imul", []any{0xffffffff, 5.0}, -5},
		{"fround", []any{5.5}, 5.5},
		{"log2", []any{8.0}, 3},
		{"atan2", []any{0.0, 1.0}, 0},
	}

	for _, tt := range tests {
		got := callMethod(t, m, tt.name, m, tt.args...)
		if got != tt.want {
			t.Errorf("Math.%s(%v): got %v, want %v", tt.name, tt.args, got, tt.want)
		}
	}
}

func TestMathNaN(t *testing.T) {
	m := createMathObject()

	tests := []struct {
		name string
		args []any
	}{
		{"max", []any{1.0, math.NaN()}},
		{"min", []any{"x", 1.0}},
		{"pow", []any{1.0, math.Inf(1)}},
		{"abs", []any{runtime.Undefined}},
		{"hypot", []any{math.NaN(), 1.0}},
	}

	for _, tt := range tests {
		got := callMethod(t, m, tt.name, m, tt.args...)
		if f, ok := got.(float64); !ok || !math.IsNaN(f) {
			t.Errorf("Math.%s(%v): got %v, want NaN", tt.name, tt.args, got)
		}
	}

	if got := callMethod(t, m, "hypot", m, math.NaN(), math.Inf(-1)); got != math.Inf(1) {
		t.Errorf("hypot with an infinity: got %v", got)
	}
}

func TestMathRoundNegativeZero(t *testing.T) {
	if got := round(-0.4); got != 0 || !math.Signbit(got) {
		t.Errorf("round(-0.4): got %v, want -0", got)
	}
}

func TestMathRandom(t *testing.T) {
	for range 100 {
		v, _ := mathRandom(nil, nil)
		if f := v.(float64); f < 0 || f >= 1 {
			t.Fatalf("random out of range: %v", f)
		}
	}
}
