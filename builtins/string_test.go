package builtins

import (
	"math"
	"slices"
	"testing"

	"github.com/example/expressions/runtime"
)

func TestStringMethods(t *testing.T) {
	tests := []struct {
		name string
		fn   runtime.NativeFunc
		this any
		args []any
		want any
	}{
		{"at negative", stringAt, "héllo", []any{-1.0}, "o"},
		{"at out of range", stringAt, "abc", []any{5.0}, runtime.Undefined},
		{"charAt rune", stringCharAt, "héllo", []any{1.0}, "é"},
		{"charAt out of range", stringCharAt, "abc", []any{3.0}, ""},
		{"charCodeAt", stringCharCodeAt, "A", []any{0.0}, 65.0},
		{"codePointAt", stringCodePointAt, "😀", []any{0.0}, 128512.0},
		{"concat", stringConcat, "a", []any{"b", 1.0}, "ab1"},
		{"endsWith", stringEndsWith, "hello", []any{"llo"}, true},
		{"endsWith position", stringEndsWith, "hello", []any{"he", 2.0}, true},
		{"startsWith", stringStartsWith, "hello", []any{"he"}, true},
		{"startsWith position", stringStartsWith, "hello", []any{"ll", 2.0}, true},
		{"includes", stringIncludes, "hello", []any{"ell"}, true},
		{"includes from", stringIncludes, "hello", []any{"h", 1.0}, false},
		{"indexOf rune offset", stringIndexOf, "héllo", []any{"l"}, 2.0},
		{"indexOf missing", stringIndexOf, "abc", []any{"z"}, -1.0},
		{"lastIndexOf", stringLastIndexOf, "abcabc", []any{"b"}, 4.0},
		{"lastIndexOf from", stringLastIndexOf, "abcabc", []any{"b", 3.0}, 1.0},
		{"padStart", stringPadStart, "5", []any{3.0, "0"}, "005"},
		{"padEnd", stringPadEnd, "ab", []any{5.0, "xy"}, "abxyx"},
		{"padStart short", stringPadStart, "abc", []any{2.0}, "abc"},
		{"repeat", stringRepeat, "ab", []any{3.0}, "ababab"},
		{"slice", stringSlice, "hello", []any{1.0, -1.0}, "ell"},
		{"substring swapped", stringSubstring, "hello", []any{4.0, 1.0}, "ell"},
		{"substr", stringSubstr, "hello", []any{-3.0, 2.0}, "ll"},
		{"toUpperCase", stringToUpperCase, "straße", nil, "STRASSE"},
		{"toLowerCase", stringToLowerCase, "ÀB", nil, "àb"},
		{"toLocaleUpperCase turkish", stringToLocaleUpperCase, "i", []any{"tr"}, "İ"},
		{"trim", stringTrim, " \t x \n", nil, "x"},
		{"trimStart", stringTrimStart, "  x ", nil, "x "},
		{"trimEnd", stringTrimEnd, "  x ", nil, "  x"},
		{"normalize NFC", stringNormalize, "e\u0301", nil, "\u00e9"},
		{"normalize NFD", stringNormalize, "\u00e9", []any{"NFD"}, "e\u0301"},
		{"replace string", stringReplace, "a-b-c", []any{"-", "+"}, "a+b-c"},
		{"replaceAll string", stringReplaceAll, "a-b-c", []any{"-", "+"}, "a+b+c"},
		{"replace dollar patterns", stringReplace, "abc", []any{"b", "[$`$&$']"}, "a[abc]c"},
		{"boxed receiver", stringToUpperCase, toObject("abc"), nil, "ABC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(tt.this, tt.args)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestStringSplit(t *testing.T) {
	tests := []struct {
		name string
		s    string
		args []any
		want []any
	}{
		{"separator", "a,b,c", []any{","}, []any{"a", "b", "c"}},
		{"limit", "a,b,c", []any{",", 2.0}, []any{"a", "b"}},
		{"empty separator", "héy", []any{""}, []any{"h", "é", "y"}},
		{"no separator", "abc", nil, []any{"abc"}},
		{"zero limit", "abc", []any{"", 0.0}, []any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := stringSplit(tt.s, tt.args)
			if err != nil {
				t.Fatal(err)
			}
			if got := elementsOf(t, v); !slices.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStringErrors(t *testing.T) {
	if _, err := stringRepeat("a", []any{-1.0}); err == nil {
		t.Error("repeat(-1) should be a RangeError")
	}
	if _, err := stringNormalize("a", []any{"NFX"}); err == nil {
		t.Error("normalize with an unknown form should fail")
	}
	if _, err := stringToUpperCase(nil, nil); err == nil {
		t.Error("calling on null should fail")
	}
	if _, err := stringFromCodePoint(nil, []any{-1.0}); err == nil {
		t.Error("fromCodePoint(-1) should fail")
	}
}

func TestStringStatics(t *testing.T) {
	if v, _ := stringFromCharCode(nil, []any{72.0, 105.0}); v != "Hi" {
		t.Errorf("fromCharCode: got %v", v)
	}
	if v, _ := stringFromCodePoint(nil, []any{128512.0}); v != "😀" {
		t.Errorf("fromCodePoint: got %v", v)
	}

	strs := runtime.NewArray([]any{"a", "b"})
	strs.Put("raw", runtime.NewArray([]any{"x\\n", "y"}))
	if v, _ := stringRaw(nil, []any{strs, 1.0}); v != "x\\n1y" {
		t.Errorf("raw: got %v", v)
	}
}

func TestStringLocaleCompare(t *testing.T) {
	v, err := stringLocaleCompare("a", []any{"b"})
	if err != nil {
		t.Fatal(err)
	}
	if v != -1.0 {
		t.Errorf("a vs b: got %v", v)
	}
	if v, _ := stringLocaleCompare("a", []any{"a"}); v != 0.0 {
		t.Errorf("a vs a: got %v", v)
	}
}

func TestStringCharCodeAtNaN(t *testing.T) {
	v, _ := stringCharCodeAt("", []any{0.0})
	if f, ok := v.(float64); !ok || !math.IsNaN(f) {
		t.Errorf("charCodeAt out of range: got %v", v)
	}
}

func TestStringIterator(t *testing.T) {
	it, err := stringIterator("a😀", nil)
	if err != nil {
		t.Fatal(err)
	}
	all, err := runtime.Collect(it)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(all, []any{"a", "😀"}) {
		t.Errorf("got %v", all)
	}
}
