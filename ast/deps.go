package ast

import "slices"

// Walk visits n and its descendants depth-first in source order. When fn
// returns false the children of that node are skipped.
func Walk(n Node, fn func(Node) bool) {
	if isNilNode(n) || !fn(n) {
		return
	}
	for _, c := range n.Children() {
		Walk(c, fn)
	}
}

// Dependencies returns the identifier and member nodes an evaluation of n
// reads, in source order. A member chain is reported once, as its
// outermost member node. Function and class bodies are not entered, and
// declaration targets, labels and non-computed keys are not reads.
func Dependencies(n Node) []Node {
	var deps []Node
	var visit func(Node) bool
	visit = func(n Node) bool {
		switch n := n.(type) {
		case *Identifier:
			deps = append(deps, n)
			return false
		case *MemberExpression:
			if _, ok := n.Object.(*Super); ok {
				return false
			}
			deps = append(deps, n)
			for m := n; m != nil; {
				if m.Computed {
					Walk(m.Property, visit)
				}
				switch o := m.Object.(type) {
				case *MemberExpression:
					m = o
				case *Identifier, *ThisExpression:
					m = nil
				default:
					Walk(o, visit)
					m = nil
				}
			}
			return false
		case *FunctionDeclaration, *FunctionExpression, *ArrowFunctionExpression,
			*ClassDeclaration, *ClassExpression:
			return false
		case *VariableDeclarator:
			Walk(n.Init, visit)
			return false
		case *Property:
			if n.Computed {
				Walk(n.Key, visit)
			}
			Walk(n.Value, visit)
			return false
		case *LabeledStatement:
			Walk(n.Body, visit)
			return false
		case *BreakStatement, *ContinueStatement, *MetaProperty, *PrivateIdentifier:
			return false
		}
		return true
	}
	Walk(n, visit)

	return deps
}

// Entries returns the distinct root names n reads: the identifiers and the
// leftmost identifiers of member chains.
func Entries(n Node) []string {
	var out []string
	for _, d := range Dependencies(n) {
		if name := rootName(d); name != "" && !slices.Contains(out, name) {
			out = append(out, name)
		}
	}

	return out
}

func rootName(n Node) string {
	for {
		switch v := n.(type) {
		case *Identifier:
			return v.Name
		case *MemberExpression:
			n = v.Object
		default:
			return ""
		}
	}
}

// Events returns the distinct access paths n reads, each with its
// prefixes: `user.name` yields "user" and "user.name", `list[0]` yields
// "list" and "list[0]".
func Events(n Node) []string {
	var out []string
	add := func(p string) {
		if p != "" && !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	for _, d := range Dependencies(n) {
		for _, p := range paths(d) {
			add(p)
		}
	}

	return out
}

// paths returns the access path of n preceded by its prefixes. Chains
// rooted in anything but an identifier or this have no path.
func paths(n Node) []string {
	switch v := n.(type) {
	case *Identifier:
		return []string{v.Name}
	case *ThisExpression:
		return []string{"this"}
	case *MemberExpression:
		prefix := paths(v.Object)
		if len(prefix) == 0 {
			return nil
		}
		last := prefix[len(prefix)-1]
		if v.Computed {
			return append(prefix, last+"["+v.Property.String()+"]")
		}
		return append(prefix, last+"."+v.Property.String())
	}

	return nil
}
