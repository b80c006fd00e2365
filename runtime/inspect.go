package runtime

import (
	"fmt"
	"math/big"
	"slices"
	"strconv"
	"strings"
)

const inspectDepth = 4

// Display renders v the way console.log prints a top-level argument:
// strings unquoted, everything else as [Inspect] does.
func Display(v any) string {
	if s, ok := v.(string); ok {
		return s
	}

	return Inspect(v)
}

// Inspect renders v for humans: nested strings are quoted, objects and
// arrays are expanded a few levels deep, cycles are marked.
func Inspect(v any) string {
	var sb strings.Builder
	inspect(&sb, v, 0, nil)

	return sb.String()
}

func inspect(sb *strings.Builder, v any, depth int, seen []any) {
	switch x := v.(type) {
	case nil:
		sb.WriteString("null")
		return
	case UndefinedType:
		sb.WriteString("undefined")
		return
	case string:
		if depth == 0 {
			sb.WriteString(strconv.Quote(x))
			return
		}
		sb.WriteString("'" + strings.ReplaceAll(x, "'", "\\'") + "'")
		return
	case bool:
		sb.WriteString(strconv.FormatBool(x))
		return
	case *big.Int:
		sb.WriteString(x.String() + "n")
		return
	case *Symbol:
		sb.WriteString(x.String())
		return
	case *Function:
		switch {
		case x.Class:
			sb.WriteString("[class " + x.Name + "]")
		case x.Name == "":
			sb.WriteString("[Function (anonymous)]")
		default:
			sb.WriteString("[Function: " + x.Name + "]")
		}
		return
	}
	if f, ok := toFloat(v); ok {
		sb.WriteString(NumberToString(f))
		return
	}

	for _, s := range seen {
		if sameReference(s, v) {
			sb.WriteString("[Circular]")
			return
		}
	}
	seen = append(seen, v)

	switch x := v.(type) {
	case *Array:
		inspectList(sb, x.Elements, depth, seen)
	case []any:
		inspectList(sb, x, depth, seen)
	case *Promise:
		sb.WriteString("Promise { ")
		switch x.State() {
		case Pending:
			sb.WriteString("<pending>")
		case Rejected:
			sb.WriteString("<rejected> ")
			inspect(sb, x.Result(), depth+1, seen)
		default:
			inspect(sb, x.Result(), depth+1, seen)
		}
		sb.WriteString(" }")
	case *Generator:
		sb.WriteString("Object [Generator] {}")
	case *Object:
		inspectObject(sb, x, depth, seen)
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		inspectEntries(sb, "", keys, func(k string) any { return Normalize(x[k]) }, depth, seen)
	case Container:
		keys := x.Keys()
		inspectEntries(sb, "", keys, func(k string) any { val, _ := x.Get(k); return Normalize(val) }, depth, seen)
	default:
		if elems, ok := hostSlice(v); ok {
			inspectList(sb, elems, depth, seen)
			return
		}
		fmt.Fprintf(sb, "%v", v)
	}
}

func inspectList(sb *strings.Builder, elems []any, depth int, seen []any) {
	if len(elems) == 0 {
		sb.WriteString("[]")
		return
	}
	if depth >= inspectDepth {
		sb.WriteString("[Array]")
		return
	}
	sb.WriteString("[ ")
	for i, e := range elems {
		if i > 0 {
			sb.WriteString(", ")
		}
		inspect(sb, e, depth+1, seen)
	}
	sb.WriteString(" ]")
}

func inspectObject(sb *strings.Builder, o *Object, depth int, seen []any) {
	if o.class == "Error" {
		sb.WriteString(ErrorString(o))
		return
	}
	if re, ok := o.Internal.(fmt.Stringer); ok && o.class == "RegExp" {
		sb.WriteString(re.String())
		return
	}

	prefix := ""
	if o.proto != nil && o.proto != ObjectPrototype {
		if ctor, ok := o.proto.Value("constructor").(*Function); ok && ctor.Name != "" && ctor.Name != "Object" {
			prefix = ctor.Name + " "
		}
	} else if o.proto == nil {
		prefix = "[Object: null prototype] "
	}

	keys := o.Keys()
	inspectEntries(sb, prefix, keys, func(k string) any {
		p, _ := o.Own(k)
		if p.IsAccessor() {
			return accessorLabel(p)
		}
		return p.Value
	}, depth, seen)
}

type accessorLabel *Property

func inspectEntries(sb *strings.Builder, prefix string, keys []string, get func(string) any, depth int, seen []any) {
	sb.WriteString(prefix)
	if len(keys) == 0 {
		sb.WriteString("{}")
		return
	}
	if depth >= inspectDepth {
		sb.WriteString("[Object]")
		return
	}

	sb.WriteString("{ ")
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		if isPlainKey(k) {
			sb.WriteString(k)
		} else {
			sb.WriteString("'" + k + "'")
		}
		sb.WriteString(": ")
		v := get(k)
		if p, ok := v.(accessorLabel); ok {
			switch {
			case p.Getter != nil && p.Setter != nil:
				sb.WriteString("[Getter/Setter]")
			case p.Getter != nil:
				sb.WriteString("[Getter]")
			default:
				sb.WriteString("[Setter]")
			}
			continue
		}
		inspect(sb, v, depth+1, seen)
	}
	sb.WriteString(" }")
}

func isPlainKey(k string) bool {
	if k == "" {
		return false
	}
	for i, r := range k {
		if r == '_' || r == '$' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (i > 0 && r >= '0' && r <= '9') {
			continue
		}
		return false
	}

	return true
}

// Export converts v into plain Go data: *Array becomes []any, objects become
// map[string]any, undefined becomes nil. Functions are dropped to nil.
func Export(v any) any {
	return export(v, nil)
}

func export(v any, seen []any) any {
	switch x := v.(type) {
	case UndefinedType, *Function, *Symbol:
		return nil
	case *Array:
		if slices.ContainsFunc(seen, func(s any) bool { return sameReference(s, v) }) {
			return nil
		}
		out := make([]any, len(x.Elements))
		for i, e := range x.Elements {
			out[i] = export(e, append(seen, v))
		}
		return out
	case *Promise:
		return export(x.Result(), seen)
	case *Object:
		if slices.ContainsFunc(seen, func(s any) bool { return sameReference(s, v) }) {
			return nil
		}
		if x.class == "Error" {
			return ErrorString(x)
		}
		out := make(map[string]any, x.Len())
		for _, k := range x.Keys() {
			val, err := GetMember(x, k)
			if err != nil || IsCallable(val) {
				continue
			}
			out[k] = export(val, append(seen, v))
		}
		return out
	}

	return Normalize(v)
}
