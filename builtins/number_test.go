package builtins

import (
	"math"
	"math/big"
	"testing"

	"github.com/example/expressions/runtime"
)

func TestNumberPredicates(t *testing.T) {
	tests := []struct {
		name string
		fn   runtime.NativeFunc
		arg  any
		want bool
	}{
		{"isInteger 5", numberIsInteger, 5.0, true},
		{"isInteger 5.5", numberIsInteger, 5.5, false},
		{"isInteger NaN", numberIsInteger, math.NaN(), false},
		{"isInteger Infinity", numberIsInteger, math.Inf(1), false},
		{"isInteger string", numberIsInteger, "5", false},
		{"isInteger host int", numberIsInteger, 7, true},
		{"isFinite 42", numberIsFinite, 42.0, true},
		{"isFinite Infinity", numberIsFinite, math.Inf(-1), false},
		{"isFinite string", numberIsFinite, "42", false},
		{"isNaN NaN", numberIsNaN, math.NaN(), true},
		{"isNaN string", numberIsNaN, "NaN", false},
		{"isSafeInteger max", numberIsSafeInteger, float64(maxSafeInteger), true},
		{"isSafeInteger above", numberIsSafeInteger, float64(maxSafeInteger) + 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(runtime.Undefined, []any{tt.arg})
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNumberFormatting(t *testing.T) {
	tests := []struct {
		name string
		fn   runtime.NativeFunc
		this any
		args []any
		want string
	}{
		{"toFixed", numberToFixed, 3.14159, []any{2.0}, "3.14"},
		{"toFixed default", numberToFixed, 2.7, nil, "3"},
		{"toFixed NaN", numberToFixed, math.NaN(), []any{2.0}, "NaN"},
		{"toPrecision", numberToPrecision, 123.456, []any{4.0}, "123.5"},
		{"toPrecision exponent", numberToPrecision, 123456.0, []any{2.0}, "1.2e+5"},
		{"toPrecision small", numberToPrecision, 0.00123, []any{2.0}, "0.0012"},
		{"toPrecision undefined", numberToPrecision, 1.5, nil, "1.5"},
		{"toExponential", numberToExponential, 12345.0, []any{2.0}, "1.23e+4"},
		{"toExponential default", numberToExponential, 0.00015, nil, "1.5e-4"},
		{"toString", numberToString, 255.0, nil, "255"},
		{"toString hex", numberToString, 255.0, []any{16.0}, "ff"},
		{"toString binary fraction", numberToString, 2.5, []any{2.0}, "10.1"},
		{"toString negative", numberToString, -8.0, []any{8.0}, "-10"},
		{"toString boxed", numberToString, toObject(7.0), nil, "7"},
		{"toLocaleString", numberToLocaleString, 1234567.891, nil, "1,234,567.891"},
		{"toLocaleString de", numberToLocaleString, 1234.5, []any{"de"}, "1.234,5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(tt.this, tt.args)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNumberRangeErrors(t *testing.T) {
	if _, err := numberToFixed(1.0, []any{101.0}); err == nil {
		t.Error("toFixed(101) should be a RangeError")
	}
	if _, err := numberToPrecision(1.0, []any{0.0}); err == nil {
		t.Error("toPrecision(0) should be a RangeError")
	}
	if _, err := numberToString(1.0, []any{1.0}); err == nil {
		t.Error("toString(1) should be a RangeError")
	}
	if _, err := numberValueOf("1", nil); err == nil {
		t.Error("valueOf on a string should be a TypeError")
	}
}

func TestNumberConstructorCall(t *testing.T) {
	tests := []struct {
		arg  any
		want float64
	}{
		{"42", 42},
		{"", 0},
		{true, 1},
		{nil, 0},
		{big.NewInt(12), 12},
	}

	for _, tt := range tests {
		got, err := numberConstructorCall(runtime.Undefined, []any{tt.arg})
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("Number(%v): got %v, want %v", tt.arg, got, tt.want)
		}
	}

	got, _ := numberConstructorCall(runtime.Undefined, []any{runtime.Undefined})
	if f, ok := got.(float64); !ok || !math.IsNaN(f) {
		t.Errorf("Number(undefined): got %v", got)
	}
}

func TestBigInt(t *testing.T) {
	tests := []struct {
		arg  any
		want string
	}{
		{10.0, "10"},
		{"0x1f", "31"},
		{" 123 ", "123"},
		{true, "1"},
		{"017", "17"},
	}
	for _, tt := range tests {
		got, err := bigintConstructorCall(runtime.Undefined, []any{tt.arg})
		if err != nil {
			t.Fatalf("BigInt(%v): %v", tt.arg, err)
		}
		if s := got.(*big.Int).String(); s != tt.want {
			t.Errorf("BigInt(%v): got %s, want %s", tt.arg, s, tt.want)
		}
	}

	if _, err := bigintConstructorCall(runtime.Undefined, []any{1.5}); err == nil {
		t.Error("BigInt(1.5) should be a RangeError")
	}
	if _, err := bigintConstructorCall(runtime.Undefined, []any{"1.5"}); err == nil {
		t.Error(`BigInt("1.5") should be a SyntaxError`)
	}

	if s, _ := bigintToString(big.NewInt(255), []any{16.0}); s != "ff" {
		t.Errorf("toString(16): got %v", s)
	}

	n, _ := bigintAsIntN(runtime.Undefined, []any{8.0, big.NewInt(255)})
	if n.(*big.Int).Int64() != -1 {
		t.Errorf("asIntN(8, 255n): got %v", n)
	}
	u, _ := bigintAsUintN(runtime.Undefined, []any{8.0, big.NewInt(-1)})
	if u.(*big.Int).Int64() != 255 {
		t.Errorf("asUintN(8, -1n): got %v", u)
	}
}
