package builtins

import (
	"math"
	"testing"

	"github.com/example/expressions/runtime"
)

func newDate(t *testing.T, args ...any) *runtime.Object {
	t.Helper()

	intrinsic(t, "Date")
	v, err := constructDate(args, nil)
	if err != nil {
		t.Fatal(err)
	}

	return v.(*runtime.Object)
}

func TestDateParse(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"1970-01-01T00:00:00Z", 0},
		{"1970-01-01T00:00:01.500Z", 1500},
		{"2000-01-01", 946684800000},
		{"2000-01-01T00:00:00+01:00", 946681200000},
		{"Sat, 01 Jan 2000 00:00:00 GMT", 946684800000},
	}

	for _, tt := range tests {
		got, _ := dateParse(runtime.Undefined, []any{tt.input})
		if got != tt.want {
			t.Errorf("parse(%q): got %v, want %v", tt.input, got, tt.want)
		}
	}

	got, _ := dateParse(runtime.Undefined, []any{"not a date"})
	if !math.IsNaN(got.(float64)) {
		t.Errorf("invalid input: got %v", got)
	}
}

func TestDateUTCGetters(t *testing.T) {
	ms, _ := dateUTC(runtime.Undefined, []any{2024.0, 1.0, 29.0, 13.0, 45.0, 30.0, 250.0})
	d := newDate(t, ms)

	tests := []struct {
		name string
		want float64
	}{
		{"getUTCFullYear", 2024},
		{"getUTCMonth", 1},
		{"getUTCDate", 29},
		{"getUTCDay", 4},
		{"getUTCHours", 13},
		{"getUTCMinutes", 45},
		{"getUTCSeconds", 30},
		{"getUTCMilliseconds", 250},
	}
	for _, tt := range tests {
		if got := callMethod(t, d, tt.name, d); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}

	if s := callMethod(t, d, "toISOString", d); s != "2024-02-29T13:45:30.250Z" {
		t.Errorf("toISOString: got %v", s)
	}
	if s := callMethod(t, d, "toUTCString", d); s != "Thu, 29 Feb 2024 13:45:30 GMT" {
		t.Errorf("toUTCString: got %v", s)
	}
}

func TestDateUTCSetters(t *testing.T) {
	d := newDate(t, 0.0)

	callMethod(t, d, "setUTCFullYear", d, 2020.0, 11.0, 31.0)
	if s := callMethod(t, d, "toISOString", d); s != "2020-12-31T00:00:00.000Z" {
		t.Errorf("setUTCFullYear: got %v", s)
	}

	callMethod(t, d, "setUTCDate", d, 32.0)
	if s := callMethod(t, d, "toISOString", d); s != "2021-01-01T00:00:00.000Z" {
		t.Errorf("overflowing setUTCDate: got %v", s)
	}

	callMethod(t, d, "setUTCHours", d, 25.0, 30.0)
	if s := callMethod(t, d, "toISOString", d); s != "2021-01-02T01:30:00.000Z" {
		t.Errorf("setUTCHours: got %v", s)
	}

	ms := callMethod(t, d, "setTime", d, 1000.0)
	if ms != 1000.0 || callMethod(t, d, "getTime", d) != 1000.0 {
		t.Errorf("setTime: got %v", ms)
	}
}

func TestDateInvalid(t *testing.T) {
	d := newDate(t, "garbage")

	if v := callMethod(t, d, "getTime", d); !math.IsNaN(v.(float64)) {
		t.Errorf("getTime: got %v", v)
	}
	if s := callMethod(t, d, "toString", d); s != "Invalid Date" {
		t.Errorf("toString: got %v", s)
	}
	if v := callMethod(t, d, "toJSON", d); v != nil {
		t.Errorf("toJSON: got %v", v)
	}
	if _, err := dateToISOString(d, nil); err == nil {
		t.Error("toISOString on an invalid date should be a RangeError")
	}

	big := newDate(t, 9e15)
	if v := callMethod(t, big, "valueOf", big); !math.IsNaN(v.(float64)) {
		t.Errorf("out of range time value: got %v", v)
	}
}

func TestDateCopyAndReceiver(t *testing.T) {
	a := newDate(t, 42.0)
	b := newDate(t, a)
	if callMethod(t, b, "getTime", b) != 42.0 {
		t.Error("new Date(date) should copy the time value")
	}

	if _, err := dateValueOf(runtime.NewObject(nil), nil); err == nil {
		t.Error("valueOf on a plain object should be a TypeError")
	}

	if v, _ := dateToPrimitive(a, []any{"number"}); v != 42.0 {
		t.Errorf("toPrimitive number: got %v", v)
	}
}
