package builtins

import (
	"slices"
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/example/expressions/runtime"
)

// regExp is the host state of a RegExp object.
type regExp struct {
	source string
	flags  string
	re     *regexp2.Regexp

	global bool
	sticky bool
}

func (r *regExp) String() string { return "/" + r.source + "/" + r.flags }

// compileRegExp validates flags and compiles pattern with ECMAScript
// semantics.
func compileRegExp(pattern, flags string) (*regExp, error) {
	r := &regExp{source: pattern, flags: flags}
	if pattern == "" {
		r.source = "(?:)"
	}

	opts := regexp2.RegexOptions(regexp2.ECMAScript)
	seen := map[rune]bool{}
	for _, f := range flags {
		if seen[f] || !strings.ContainsRune("dgimsuvy", f) {
			return nil, runtime.NewSyntaxError("Invalid regular expression flags '%s'", flags)
		}
		seen[f] = true
		switch f {
		case 'g':
			r.global = true
		case 'y':
			r.sticky = true
		case 'i':
			opts |= regexp2.IgnoreCase
		case 'm':
			opts |= regexp2.Multiline
		case 's':
			opts |= regexp2.Singleline
		}
	}

	re, err := regexp2.Compile(pattern, opts)
	if err != nil {
		return nil, runtime.NewSyntaxError("Invalid regular expression: /%s/: %v", pattern, err)
	}
	r.re = re

	return r, nil
}

// newRegExp builds a RegExp object; it backs regular expression literals.
func newRegExp(pattern, flags string) (any, error) {
	return regExpObject(pattern, flags, runtime.RegExpPrototype)
}

func regExpObject(pattern, flags string, proto *runtime.Object) (*runtime.Object, error) {
	r, err := compileRegExp(pattern, flags)
	if err != nil {
		return nil, err
	}

	o := runtime.NewObject(proto)
	o.SetClass("RegExp")
	o.Internal = r
	o.Define("lastIndex", &runtime.Property{Value: 0.0, Writable: true})

	return o, nil
}

func createRegExpConstructor() *runtime.Function {
	proto := runtime.RegExpPrototype

	method(proto, "exec", 1, regexpExec)
	method(proto, "test", 1, regexpTest)
	method(proto, "toString", 0, regexpToString)

	getter(proto, "source", func(this any, _ []any) (any, error) {
		r, err := thisRegExp(this, "source")
		if err != nil {
			return nil, err
		}
		return r.source, nil
	})
	getter(proto, "flags", func(this any, _ []any) (any, error) {
		r, err := thisRegExp(this, "flags")
		if err != nil {
			return nil, err
		}
		return r.flags, nil
	})
	for _, f := range []struct {
		name string
		flag rune
	}{
		{"hasIndices", 'd'},
		{"global", 'g'},
		{"ignoreCase", 'i'},
		{"multiline", 'm'},
		{"dotAll", 's'},
		{"unicode", 'u'},
		{"sticky", 'y'},
	} {
		getter(proto, f.name, func(this any, _ []any) (any, error) {
			r, err := thisRegExp(this, f.name)
			if err != nil {
				return nil, err
			}
			return strings.ContainsRune(r.flags, f.flag), nil
		})
	}

	var ctor *runtime.Function
	ctor = constructor("RegExp", 2, proto,
		func(_ any, args []any) (any, error) {
			if _, ok := internal[*regExp](arg(args, 0)); ok && runtime.IsUndefined(arg(args, 1)) {
				return arg(args, 0), nil
			}
			return constructRegExp(args, ctor)
		},
		constructRegExp)

	return ctor
}

func constructRegExp(args []any, newTarget *runtime.Function) (any, error) {
	pattern, flags := "", ""
	if r, ok := internal[*regExp](arg(args, 0)); ok {
		pattern, flags = r.source, r.flags
		if pattern == "(?:)" {
			pattern = ""
		}
	} else if p := arg(args, 0); !runtime.IsUndefined(p) {
		pattern = runtime.ToString(p)
	}
	if f := arg(args, 1); !runtime.IsUndefined(f) {
		flags = runtime.ToString(f)
	}

	proto := runtime.RegExpPrototype
	if newTarget != nil {
		if p := newTarget.Prototype(); p != nil {
			proto = p
		}
	}

	return regExpObject(pattern, flags, proto)
}

func thisRegExp(this any, name string) (*regExp, error) {
	r, ok := internal[*regExp](this)
	if !ok {
		return nil, runtime.NewTypeError("RegExp.prototype.%s requires that 'this' be a RegExp object", name)
	}

	return r, nil
}

func lastIndex(obj any) (int, error) {
	v, err := runtime.GetMember(obj, "lastIndex")
	if err != nil {
		return 0, err
	}

	return int(max(runtime.ToIntegerOrInfinity(v), 0)), nil
}

// exec runs one match honoring lastIndex for global and sticky
// expressions, and updates lastIndex.
func (r *regExp) exec(obj any, s string) (*regexp2.Match, error) {
	runes := []rune(s)
	start := 0
	stateful := r.global || r.sticky
	if stateful {
		li, err := lastIndex(obj)
		if err != nil {
			return nil, err
		}
		if li > len(runes) {
			return nil, runtime.SetMember(obj, "lastIndex", 0.0)
		}
		start = li
	}

	m, err := r.re.FindRunesMatchStartingAt(runes, start)
	if err != nil {
		return nil, runtime.NewSyntaxError("%v", err)
	}
	if m != nil && r.sticky && m.Index != start {
		m = nil
	}

	if stateful {
		next := 0.0
		if m != nil {
			next = float64(m.Index + m.Length)
		}
		if err := runtime.SetMember(obj, "lastIndex", next); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// captures returns the capture groups of m after the whole match, and the
// named groups object or undefined.
func captures(m *regexp2.Match) ([]any, any) {
	groups := m.Groups()
	caps := make([]any, 0, len(groups)-1)
	var named *runtime.Object
	for _, g := range groups[1:] {
		var v any = runtime.Undefined
		if len(g.Captures) > 0 {
			v = g.String()
		}
		caps = append(caps, v)
		if _, err := strconv.Atoi(g.Name); err != nil {
			if named == nil {
				named = runtime.NewObject(nil)
			}
			named.Put(g.Name, v)
		}
	}
	if named == nil {
		return caps, runtime.Undefined
	}

	return caps, named
}

// matchArray builds the result array of exec.
func matchArray(m *regexp2.Match, input string) *runtime.Array {
	caps, groups := captures(m)
	arr := runtime.NewArray(append([]any{m.String()}, caps...))
	arr.Put("index", float64(m.Index))
	arr.Put("input", input)
	arr.Put("groups", groups)

	return arr
}

func regexpExec(this any, args []any) (any, error) {
	r, err := thisRegExp(this, "exec")
	if err != nil {
		return nil, err
	}
	s := runtime.ToString(arg(args, 0))
	m, err := r.exec(this, s)
	if err != nil || m == nil {
		return nil, err
	}

	return matchArray(m, s), nil
}

func regexpTest(this any, args []any) (any, error) {
	r, err := thisRegExp(this, "test")
	if err != nil {
		return nil, err
	}
	m, err := r.exec(this, runtime.ToString(arg(args, 0)))
	if err != nil {
		return nil, err
	}

	return m != nil, nil
}

func regexpToString(this any, _ []any) (any, error) {
	r, err := thisRegExp(this, "toString")
	if err != nil {
		return nil, err
	}

	return r.String(), nil
}

// toRegExp returns v as a RegExp object, compiling strings.
func toRegExp(v any, flags string) (any, *regExp, error) {
	if r, ok := internal[*regExp](v); ok {
		return v, r, nil
	}
	pattern := ""
	if !runtime.IsUndefined(v) {
		pattern = runtime.ToString(v)
	}
	obj, err := regExpObject(pattern, flags, runtime.RegExpPrototype)
	if err != nil {
		return nil, nil, err
	}

	return obj, obj.Internal.(*regExp), nil
}

// all returns every match of r in runes from the start, ignoring lastIndex.
func (r *regExp) all(runes []rune) ([]*regexp2.Match, error) {
	var out []*regexp2.Match
	m, err := r.re.FindRunesMatchStartingAt(runes, 0)
	for m != nil && err == nil {
		out = append(out, m)
		m, err = r.re.FindNextMatch(m)
	}
	if err != nil {
		return nil, runtime.NewSyntaxError("%v", err)
	}

	return out, nil
}

func stringMatch(this any, args []any) (any, error) {
	s, err := thisString(this, "match")
	if err != nil {
		return nil, err
	}
	obj, r, err := toRegExp(arg(args, 0), "")
	if err != nil {
		return nil, err
	}

	if !r.global {
		return regexpExec(obj, []any{s})
	}

	matches, err := r.all([]rune(s))
	if err != nil {
		return nil, err
	}
	if err := runtime.SetMember(obj, "lastIndex", 0.0); err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	elems := make([]any, len(matches))
	for i, m := range matches {
		elems[i] = m.String()
	}

	return runtime.NewArray(elems), nil
}

func stringMatchAll(this any, args []any) (any, error) {
	s, err := thisString(this, "matchAll")
	if err != nil {
		return nil, err
	}
	obj, r, err := toRegExp(arg(args, 0), "g")
	if err != nil {
		return nil, err
	}
	if !r.global {
		return nil, runtime.NewTypeError("String.prototype.matchAll called with a non-global RegExp argument")
	}

	start, err := lastIndex(obj)
	if err != nil {
		return nil, err
	}
	runes := []rune(s)

	return runtime.NewGenerator(func(yield runtime.Yielder) (any, error) {
		m, err := r.re.FindRunesMatchStartingAt(runes, min(start, len(runes)))
		for m != nil && err == nil {
			if _, err := yield(&runtime.YieldValue{Value: matchArray(m, s)}); err != nil {
				return nil, err
			}
			m, err = r.re.FindNextMatch(m)
		}
		if err != nil {
			return nil, runtime.NewSyntaxError("%v", err)
		}
		return runtime.Undefined, nil
	}, false), nil
}

func stringSearch(this any, args []any) (any, error) {
	s, err := thisString(this, "search")
	if err != nil {
		return nil, err
	}
	_, r, err := toRegExp(arg(args, 0), "")
	if err != nil {
		return nil, err
	}

	m, err := r.re.FindRunesMatchStartingAt([]rune(s), 0)
	if err != nil {
		return nil, runtime.NewSyntaxError("%v", err)
	}
	if m == nil {
		return -1.0, nil
	}

	return float64(m.Index), nil
}

// occurrence is one match to substitute: rune offsets, captures and the
// named groups value passed to replacer functions.
type occurrence struct {
	start, end int
	caps       []any
	groups     any
}

func regexOccurrence(m *regexp2.Match) occurrence {
	caps, groups := captures(m)
	return occurrence{start: m.Index, end: m.Index + m.Length, caps: caps, groups: groups}
}

// stringOccurrences finds literal matches of search in runes.
func stringOccurrences(runes []rune, search string, all bool) []occurrence {
	var out []occurrence
	n := len([]rune(search))
	for from := 0; from <= len(runes); {
		i := runeIndex(runes, search, from)
		if i < 0 {
			break
		}
		out = append(out, occurrence{start: i, end: i + n, groups: runtime.Undefined})
		if !all {
			break
		}
		from = i + max(n, 1)
	}

	return out
}

func stringReplace(this any, args []any) (any, error) {
	return replace(this, args, "replace", false)
}

func stringReplaceAll(this any, args []any) (any, error) {
	return replace(this, args, "replaceAll", true)
}

func replace(this any, args []any, name string, all bool) (any, error) {
	s, err := thisString(this, name)
	if err != nil {
		return nil, err
	}
	runes := []rune(s)
	pattern, replacement := arg(args, 0), arg(args, 1)

	var occ []occurrence
	if r, ok := internal[*regExp](pattern); ok {
		if all && !r.global {
			return nil, runtime.NewTypeError("replaceAll must be called with a global RegExp")
		}
		if r.global {
			matches, err := r.all(runes)
			if err != nil {
				return nil, err
			}
			if err := runtime.SetMember(pattern, "lastIndex", 0.0); err != nil {
				return nil, err
			}
			for _, m := range matches {
				occ = append(occ, regexOccurrence(m))
			}
		} else {
			m, err := r.exec(pattern, s)
			if err != nil {
				return nil, err
			}
			if m != nil {
				occ = append(occ, regexOccurrence(m))
			}
		}
	} else {
		occ = stringOccurrences(runes, runtime.ToString(pattern), all)
	}

	return substitute(runes, occ, replacement)
}

// substitute rebuilds runes with each occurrence replaced by the result of
// a replacer function or an expanded replacement template.
func substitute(runes []rune, occ []occurrence, replacement any) (string, error) {
	fn := replacement
	template := ""
	if !runtime.IsCallable(fn) {
		fn = nil
		template = runtime.ToString(replacement)
	}
	input := string(runes)

	var sb strings.Builder
	last := 0
	for _, o := range occ {
		sb.WriteString(string(runes[last:o.start]))
		matched := string(runes[o.start:o.end])
		if fn != nil {
			callArgs := append([]any{matched}, o.caps...)
			callArgs = append(callArgs, float64(o.start), input)
			if !runtime.IsUndefined(o.groups) {
				callArgs = append(callArgs, o.groups)
			}
			v, err := runtime.Call(fn, runtime.Undefined, callArgs)
			if err != nil {
				return "", err
			}
			sb.WriteString(runtime.ToString(v))
		} else {
			sb.WriteString(expandTemplate(template, runes, o))
		}
		last = o.end
	}
	sb.WriteString(string(runes[last:]))

	return sb.String(), nil
}

// expandTemplate implements the $ patterns of replacement strings: $$, $&,
// $`, $', $n, $nn and $<name>.
func expandTemplate(tmpl string, runes []rune, o occurrence) string {
	if !strings.Contains(tmpl, "$") {
		return tmpl
	}

	t := []rune(tmpl)
	var sb strings.Builder
	for i := 0; i < len(t); i++ {
		if t[i] != '$' || i+1 >= len(t) {
			sb.WriteRune(t[i])
			continue
		}
		switch c := t[i+1]; {
		case c == '$':
			sb.WriteRune('$')
			i++
		case c == '&':
			sb.WriteString(string(runes[o.start:o.end]))
			i++
		case c == '`':
			sb.WriteString(string(runes[:o.start]))
			i++
		case c == '\'':
			sb.WriteString(string(runes[o.end:]))
			i++
		case c >= '0' && c <= '9':
			n, width := int(c-'0'), 1
			if i+2 < len(t) && t[i+2] >= '0' && t[i+2] <= '9' {
				if nn := n*10 + int(t[i+2]-'0'); nn >= 1 && nn <= len(o.caps) {
					n, width = nn, 2
				}
			}
			if n < 1 || n > len(o.caps) {
				sb.WriteRune('$')
				continue
			}
			if v := o.caps[n-1]; !runtime.IsUndefined(v) {
				sb.WriteString(runtime.ToString(v))
			}
			i += width
		case c == '<' && !runtime.IsUndefined(o.groups):
			rest := t[i+2:]
			end := slices.Index(rest, '>')
			if end < 0 {
				sb.WriteRune('$')
				continue
			}
			if v, _ := runtime.GetMember(o.groups, string(rest[:end])); !runtime.IsUndefined(v) {
				sb.WriteString(runtime.ToString(v))
			}
			i += 2 + end
		default:
			sb.WriteRune('$')
		}
	}

	return sb.String()
}

// split implements String.prototype.split with a regular expression
// separator. Captures are spliced into the result.
func (r *regExp) split(s string, limit int) ([]any, error) {
	runes := []rune(s)
	size := len(runes)
	if size == 0 {
		m, err := r.re.FindRunesMatchStartingAt(runes, 0)
		if err != nil {
			return nil, runtime.NewSyntaxError("%v", err)
		}
		if m != nil {
			return []any{}, nil
		}
		return []any{s}, nil
	}

	var parts []any
	p, q := 0, 0
	for q < size {
		m, err := r.re.FindRunesMatchStartingAt(runes, q)
		if err != nil {
			return nil, runtime.NewSyntaxError("%v", err)
		}
		if m == nil || m.Index >= size {
			break
		}
		e := m.Index + m.Length
		if e == p {
			q = m.Index + 1
			continue
		}

		parts = append(parts, string(runes[p:m.Index]))
		if len(parts) == limit {
			return parts, nil
		}
		caps, _ := captures(m)
		for _, c := range caps {
			parts = append(parts, c)
			if len(parts) == limit {
				return parts, nil
			}
		}
		p, q = e, e
	}

	return append(parts, string(runes[p:])), nil
}
