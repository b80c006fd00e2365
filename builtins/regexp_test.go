package builtins

import (
	"slices"
	"testing"

	"github.com/example/expressions/runtime"
)

func mustRegExp(t *testing.T, pattern, flags string) *runtime.Object {
	t.Helper()

	re, err := regExpObject(pattern, flags, runtime.RegExpPrototype)
	if err != nil {
		t.Fatalf("/%s/%s: %v", pattern, flags, err)
	}

	return re
}

func TestRegExpTest(t *testing.T) {
	tests := []struct {
		pattern, flags, input string
		want                  bool
	}{
		{`\d+`, "", "abc123", true},
		{`^abc$`, "", "ABC", false},
		{`^abc$`, "i", "ABC", true},
		{`^b`, "m", "a\nb", true},
		{`a.b`, "", "a\nb", false},
		{`a.b`, "s", "a\nb", true},
		{`(?<year>\d{4})`, "", "in 2024", true},
	}

	for _, tt := range tests {
		t.Run("/"+tt.pattern+"/"+tt.flags, func(t *testing.T) {
			re := mustRegExp(t, tt.pattern, tt.flags)
			got, err := regexpTest(re, []any{tt.input})
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("test(%q): got %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestRegExpFlags(t *testing.T) {
	for _, flags := range []string{"gg", "x", "gix "} {
		if _, err := compileRegExp("a", flags); err == nil {
			t.Errorf("flags %q should be rejected", flags)
		}
	}
	if _, err := compileRegExp("(", ""); err == nil {
		t.Error("unbalanced group should be a SyntaxError")
	}

	re := mustRegExp(t, "", "gi")
	if got := runtime.Inspect(re); got != "/(?:)/gi" {
		t.Errorf("inspect: got %q", got)
	}
}

func TestRegExpExec(t *testing.T) {
	re := mustRegExp(t, `(\w)(\d)?`, "g")

	first, err := regexpExec(re, []any{"a1 b"})
	if err != nil {
		t.Fatal(err)
	}
	if got := elementsOf(t, first); !slices.Equal(got, []any{"a1", "a", "1"}) {
		t.Errorf("first match: got %v", got)
	}
	if idx := first.(*runtime.Array).Value("index"); idx != 0.0 {
		t.Errorf("index: got %v", idx)
	}
	if li := re.Value("lastIndex"); li != 2.0 {
		t.Errorf("lastIndex after first match: got %v", li)
	}

	second, _ := regexpExec(re, []any{"a1 b"})
	if got := elementsOf(t, second); !slices.Equal(got, []any{"b", "b", runtime.Undefined}) {
		t.Errorf("second match: got %v", got)
	}

	third, _ := regexpExec(re, []any{"a1 b"})
	if third != nil {
		t.Errorf("exhausted: got %v", third)
	}
	if li := re.Value("lastIndex"); li != 0.0 {
		t.Errorf("lastIndex reset: got %v", li)
	}
}

func TestRegExpSticky(t *testing.T) {
	re := mustRegExp(t, `a`, "y")

	if ok, _ := regexpTest(re, []any{"ba"}); ok != false {
		t.Error("sticky match must start at lastIndex")
	}
	_ = runtime.SetMember(re, "lastIndex", 1.0)
	if ok, _ := regexpTest(re, []any{"ba"}); ok != true {
		t.Error("sticky match at lastIndex 1 should succeed")
	}
}

func TestRegExpNamedGroups(t *testing.T) {
	re := mustRegExp(t, `(?<key>\w+)=(?<value>\w+)`, "")
	m, err := regexpExec(re, []any{"a=1"})
	if err != nil {
		t.Fatal(err)
	}

	groups := m.(*runtime.Array).Value("groups")
	if v, _ := runtime.GetMember(groups, "value"); v != "1" {
		t.Errorf("groups.value: got %v", v)
	}
}

func TestStringRegExpMethods(t *testing.T) {
	upper := nativeFn(func(args []any) any {
		v, _ := stringToUpperCase(args[0], nil)
		return v
	})

	tests := []struct {
		name string
		fn   runtime.NativeFunc
		this string
		args []any
		want any
	}{
		{"replace first", stringReplace, "aaa", []any{mustRegExp(t, "a", ""), "b"}, "baa"},
		{"replace global", stringReplace, "aaa", []any{mustRegExp(t, "a", "g"), "b"}, "bbb"},
		{"replace captures", stringReplace, "john smith", []any{mustRegExp(t, `(\w+) (\w+)`, ""), "$2 $1"}, "smith john"},
		{"replace named", stringReplace, "k=v", []any{mustRegExp(t, `(?<k>\w)=(?<v>\w)`, ""), "$<v>=$<k>"}, "v=k"},
		{"replace function", stringReplace, "a-b", []any{mustRegExp(t, `\w`, "g"), upper}, "A-B"},
		{"replace literal dollar", stringReplace, "a", []any{mustRegExp(t, "a", ""), "$$"}, "$"},
		{"replaceAll regexp", stringReplaceAll, "x.y.z", []any{mustRegExp(t, `\.`, "g"), "/"}, "x/y/z"},
		{"search", stringSearch, "hello", []any{mustRegExp(t, "l+", "")}, 2.0},
		{"search missing", stringSearch, "hello", []any{mustRegExp(t, "z", "")}, -1.0},
		{"search string", stringSearch, "a.b", []any{"\\."}, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(tt.this, tt.args)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}

	if _, err := stringReplaceAll("a", []any{mustRegExp(t, "a", ""), "b"}); err == nil {
		t.Error("replaceAll with a non-global RegExp should fail")
	}
}

func TestStringMatch(t *testing.T) {
	all, err := stringMatch("a1b22c333", []any{mustRegExp(t, `\d+`, "g")})
	if err != nil {
		t.Fatal(err)
	}
	if got := elementsOf(t, all); !slices.Equal(got, []any{"1", "22", "333"}) {
		t.Errorf("global match: got %v", got)
	}

	none, _ := stringMatch("abc", []any{mustRegExp(t, `\d`, "g")})
	if none != nil {
		t.Errorf("no match: got %v", none)
	}

	one, _ := stringMatch("abc", []any{"b"})
	if got := elementsOf(t, one); !slices.Equal(got, []any{"b"}) {
		t.Errorf("string pattern: got %v", got)
	}

	it, err := stringMatchAll("a1b2", []any{mustRegExp(t, `[a-z](\d)`, "g")})
	if err != nil {
		t.Fatal(err)
	}
	matches, err := runtime.Collect(it)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 2 {
		t.Fatalf("matchAll: got %d matches", len(matches))
	}
	if got := elementsOf(t, matches[1]); !slices.Equal(got, []any{"b2", "2"}) {
		t.Errorf("matchAll second: got %v", got)
	}

	if _, err := stringMatchAll("a", []any{mustRegExp(t, "a", "")}); err == nil {
		t.Error("matchAll with a non-global RegExp should fail")
	}
}

func TestStringSplitRegExp(t *testing.T) {
	tests := []struct {
		name    string
		s       string
		pattern string
		limit   any
		want    []any
	}{
		{"whitespace", "a  b c", `\s+`, runtime.Undefined, []any{"a", "b", "c"}},
		{"captures", "a1b2c", `(\d)`, runtime.Undefined, []any{"a", "1", "b", "2", "c"}},
		{"empty pattern", "abc", ``, runtime.Undefined, []any{"a", "b", "c"}},
		{"limit", "a,b,c", `,`, 2.0, []any{"a", "b"}},
		{"empty input", "", `,`, runtime.Undefined, []any{""}},
		{"empty input matching", "", `x*`, runtime.Undefined, []any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := stringSplit(tt.s, []any{mustRegExp(t, tt.pattern, ""), tt.limit})
			if err != nil {
				t.Fatal(err)
			}
			if got := elementsOf(t, v); !slices.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
