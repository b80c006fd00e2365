package cli

import (
	"strings"
	"unicode"

	"github.com/sahilm/fuzzy"

	"github.com/example/expressions/runtime"
)

// completer implements [readline.AutoCompleter] over the global names and,
// after a dot, the property names of the value the path before it names.
type completer struct {
	names  func() []string
	lookup func(path string) (any, bool)
}

// Do implements readline.AutoCompleter. It returns the suffixes that
// complete the word before pos; readline appends the chosen one.
func (c completer) Do(line []rune, pos int) ([][]rune, int) {
	word := currentWord(line[:pos])
	parent, prefix, member := cutLast(word, ".")

	var candidates []string
	if member {
		v, ok := c.lookup(parent)
		if !ok {
			return nil, 0
		}
		candidates = properties(v)
	} else {
		prefix = word
		candidates = c.names()
	}

	var out [][]rune
	for _, name := range completions(prefix, candidates) {
		out = append(out, []rune(name[len(prefix):]))
	}

	return out, len([]rune(prefix))
}

// completions returns the candidates starting with prefix, the closest
// fuzzy matches first.
func completions(prefix string, candidates []string) []string {
	var out []string
	for _, name := range rankNames(prefix, candidates) {
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}

	return out
}

// currentWord returns the identifier path ending the line: letters,
// digits, $, _ and dots.
func currentWord(line []rune) string {
	start := len(line)
	for start > 0 {
		r := line[start-1]
		if r != '.' && r != '$' && r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		start--
	}

	return string(line[start:])
}

func cutLast(s, sep string) (before, after string, found bool) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return s, "", false
	}

	return s[:i], s[i+len(sep):], true
}

// properties lists the string keys of v and its prototypes, hidden ones
// included, nearest first.
func properties(v any) []string {
	var (
		out  []string
		seen = make(map[string]bool)
	)
	add := func(keys []string) {
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	own := func(o *runtime.Object) []string {
		var keys []string
		for _, k := range o.OwnKeys() {
			if s, ok := k.(string); ok {
				keys = append(keys, s)
			}
		}
		return keys
	}

	if o, ok := v.(runtime.ObjectLike); ok {
		add(own(o.Base()))
	} else {
		add(runtime.OwnKeys(v))
	}
	for p := runtime.PrototypeOf(v); p != nil; p = runtime.PrototypeOf(p) {
		add(own(p))
	}

	return out
}

// rankNames orders names by how well they match query. An empty query
// keeps every name in its original order.
func rankNames(query string, names []string) []string {
	if query == "" {
		return names
	}

	matches := fuzzy.Find(query, names)
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Str
	}

	return out
}
