package ast

import (
	"strings"

	"github.com/example/expressions/runtime"
	"github.com/example/expressions/scope"
)

// moduleName reads an import or export name, which is an identifier or a
// string literal.
func moduleName(n Node) string {
	switch n := n.(type) {
	case *Identifier:
		return n.Name
	case *Literal:
		if s, ok := n.Value.(string); ok {
			return s
		}
	}

	return n.String()
}

// ImportAttribute is one key: "value" entry of an import's with clause.
type ImportAttribute struct {
	Span
	Key   Node     `json:"key"`
	Value *Literal `json:"value"`
}

func (n *ImportAttribute) Type() string { return "ImportAttribute" }

func (n *ImportAttribute) Get(s *scope.Stack) (any, error) { return n.Value.Get(s) }

func (n *ImportAttribute) Set(*scope.Stack, any) error { return noSet(n) }
func (n *ImportAttribute) String() string              { return n.Key.String() + ": " + n.Value.String() }
func (n *ImportAttribute) Children() []Node            { return []Node{n.Key, n.Value} }

func (n *ImportAttribute) MarshalJSON() ([]byte, error) {
	type plain ImportAttribute
	return marshalNode(n.Type(), (*plain)(n))
}

func attributeMap(list []*ImportAttribute) map[string]string {
	if len(list) == 0 {
		return nil
	}
	m := make(map[string]string, len(list))
	for _, a := range list {
		m[moduleName(a.Key)], _ = a.Value.Value.(string)
	}

	return m
}

func attributeClause(list []*ImportAttribute) string {
	if len(list) == 0 {
		return ""
	}

	return " with { " + join(nodes(list), ", ") + " }"
}

// load resolves a module through the stack's loader and settles the
// namespace it returns.
func load(s *scope.Stack, source *Literal, attrs []*ImportAttribute) (any, error) {
	loader := s.Loader()
	spec, _ := source.Value.(string)
	if loader == nil {
		return nil, runtime.NewTypeError("Cannot import '%s': no module loader", spec)
	}
	ns, err := loader.Load(s.Context(), spec, attributeMap(attrs))
	if err != nil {
		return nil, err
	}

	return s.Await(ns)
}

// ImportDeclaration binds names imported from a module as constants.
type ImportDeclaration struct {
	Span
	Specifiers []Node             `json:"specifiers"`
	Source     *Literal           `json:"source"`
	Attributes []*ImportAttribute `json:"attributes,omitempty"`
}

func (n *ImportDeclaration) Type() string { return "ImportDeclaration" }

func (n *ImportDeclaration) Get(s *scope.Stack) (any, error) {
	ns, err := load(s, n.Source, n.Attributes)
	if err != nil {
		return nil, err
	}

	for _, spec := range n.Specifiers {
		var (
			local *Identifier
			v     any
		)
		switch sp := spec.(type) {
		case *ImportDefaultSpecifier:
			local = sp.Local
			v, err = runtime.GetMember(ns, "default")
		case *ImportNamespaceSpecifier:
			local, v = sp.Local, ns
		case *ImportSpecifier:
			local = sp.Local
			v, err = runtime.GetMember(ns, moduleName(sp.Imported))
		default:
			return nil, runtime.NewSyntaxError("unexpected %s in import", spec.Type())
		}
		if err != nil {
			return nil, err
		}
		if err := s.DeclareVariable(scope.Const, local.Name, v); err != nil {
			return nil, err
		}
	}

	return runtime.Undefined, nil
}

func (n *ImportDeclaration) Set(*scope.Stack, any) error { return noSet(n) }

func (n *ImportDeclaration) String() string {
	if len(n.Specifiers) == 0 {
		return "import " + n.Source.String() + attributeClause(n.Attributes) + ";"
	}

	var parts, named []string
	for _, sp := range n.Specifiers {
		if _, ok := sp.(*ImportSpecifier); ok {
			named = append(named, sp.String())
			continue
		}
		parts = append(parts, sp.String())
	}
	if len(named) > 0 {
		parts = append(parts, "{ "+strings.Join(named, ", ")+" }")
	}

	return "import " + strings.Join(parts, ", ") + " from " + n.Source.String() + attributeClause(n.Attributes) + ";"
}

func (n *ImportDeclaration) Children() []Node {
	return append(append(append([]Node{}, n.Specifiers...), n.Source), nodes(n.Attributes)...)
}

func (n *ImportDeclaration) MarshalJSON() ([]byte, error) {
	type plain ImportDeclaration
	return marshalNode(n.Type(), (*plain)(n))
}

// ImportSpecifier is `imported as local` inside braces.
type ImportSpecifier struct {
	Span
	Imported Node        `json:"imported"`
	Local    *Identifier `json:"local"`
}

func (n *ImportSpecifier) Type() string { return "ImportSpecifier" }

func (n *ImportSpecifier) Get(s *scope.Stack) (any, error) { return n.Local.Get(s) }

func (n *ImportSpecifier) Set(*scope.Stack, any) error { return noSet(n) }

func (n *ImportSpecifier) String() string {
	if moduleName(n.Imported) == n.Local.Name {
		return n.Local.Name
	}

	return n.Imported.String() + " as " + n.Local.Name
}

func (n *ImportSpecifier) Children() []Node { return []Node{n.Imported, n.Local} }

func (n *ImportSpecifier) MarshalJSON() ([]byte, error) {
	type plain ImportSpecifier
	return marshalNode(n.Type(), (*plain)(n))
}

// ImportDefaultSpecifier binds the default export.
type ImportDefaultSpecifier struct {
	Span
	Local *Identifier `json:"local"`
}

func (n *ImportDefaultSpecifier) Type() string                    { return "ImportDefaultSpecifier" }
func (n *ImportDefaultSpecifier) Get(s *scope.Stack) (any, error) { return n.Local.Get(s) }
func (n *ImportDefaultSpecifier) Set(*scope.Stack, any) error     { return noSet(n) }
func (n *ImportDefaultSpecifier) String() string                  { return n.Local.Name }
func (n *ImportDefaultSpecifier) Children() []Node                { return []Node{n.Local} }

func (n *ImportDefaultSpecifier) MarshalJSON() ([]byte, error) {
	type plain ImportDefaultSpecifier
	return marshalNode(n.Type(), (*plain)(n))
}

// ImportNamespaceSpecifier binds the whole module namespace.
type ImportNamespaceSpecifier struct {
	Span
	Local *Identifier `json:"local"`
}

func (n *ImportNamespaceSpecifier) Type() string                    { return "ImportNamespaceSpecifier" }
func (n *ImportNamespaceSpecifier) Get(s *scope.Stack) (any, error) { return n.Local.Get(s) }
func (n *ImportNamespaceSpecifier) Set(*scope.Stack, any) error     { return noSet(n) }
func (n *ImportNamespaceSpecifier) String() string                  { return "* as " + n.Local.Name }
func (n *ImportNamespaceSpecifier) Children() []Node                { return []Node{n.Local} }

func (n *ImportNamespaceSpecifier) MarshalJSON() ([]byte, error) {
	type plain ImportNamespaceSpecifier
	return marshalNode(n.Type(), (*plain)(n))
}

// ExportNamedDeclaration exports a declaration, local names, or names
// re-exported from another module. Exported values are captured when the
// statement runs.
type ExportNamedDeclaration struct {
	Span
	Declaration Node               `json:"declaration"`
	Specifiers  []*ExportSpecifier `json:"specifiers"`
	Source      *Literal           `json:"source"`
	Attributes  []*ImportAttribute `json:"attributes,omitempty"`
}

func (n *ExportNamedDeclaration) Type() string { return "ExportNamedDeclaration" }

func (n *ExportNamedDeclaration) Get(s *scope.Stack) (any, error) {
	exports := s.Exports()

	if n.Declaration != nil {
		if _, err := exec(s, n.Declaration); err != nil {
			return nil, err
		}
		for _, name := range declaredNames(n.Declaration) {
			exports.Put(name, s.Get(name))
		}
		return runtime.Undefined, nil
	}

	var ns any
	if n.Source != nil {
		var err error
		if ns, err = load(s, n.Source, n.Attributes); err != nil {
			return nil, err
		}
	}
	for _, sp := range n.Specifiers {
		local := moduleName(sp.Local)
		var v any
		if n.Source != nil {
			var err error
			if v, err = runtime.GetMember(ns, local); err != nil {
				return nil, err
			}
		} else {
			v = s.Get(local)
		}
		exports.Put(moduleName(sp.Exported), v)
	}

	return runtime.Undefined, nil
}

// declaredNames returns the names a declaration statement binds.
func declaredNames(n Node) []string {
	switch d := n.(type) {
	case *VariableDeclaration:
		var out []string
		for _, decl := range d.Declarations {
			out = append(out, BoundNames(decl.ID)...)
		}
		return out
	case *FunctionDeclaration:
		if d.ID != nil {
			return []string{d.ID.Name}
		}
	case *ClassDeclaration:
		if d.ID != nil {
			return []string{d.ID.Name}
		}
	}

	return nil
}

func (n *ExportNamedDeclaration) Set(*scope.Stack, any) error { return noSet(n) }

func (n *ExportNamedDeclaration) String() string {
	if n.Declaration != nil {
		return "export " + n.Declaration.String()
	}

	out := "export { " + join(nodes(n.Specifiers), ", ") + " }"
	if len(n.Specifiers) == 0 {
		out = "export {}"
	}
	if n.Source != nil {
		out += " from " + n.Source.String() + attributeClause(n.Attributes)
	}

	return out + ";"
}

func (n *ExportNamedDeclaration) Children() []Node {
	out := optional(nil, n.Declaration)
	out = append(out, nodes(n.Specifiers)...)
	out = optional(out, n.Source)

	return append(out, nodes(n.Attributes)...)
}

func (n *ExportNamedDeclaration) MarshalJSON() ([]byte, error) {
	type plain ExportNamedDeclaration
	return marshalNode(n.Type(), (*plain)(n))
}

// ExportSpecifier is `local as exported`.
type ExportSpecifier struct {
	Span
	Local    Node `json:"local"`
	Exported Node `json:"exported"`
}

func (n *ExportSpecifier) Type() string { return "ExportSpecifier" }

func (n *ExportSpecifier) Get(s *scope.Stack) (any, error) { return s.Get(moduleName(n.Local)), nil }

func (n *ExportSpecifier) Set(*scope.Stack, any) error { return noSet(n) }

func (n *ExportSpecifier) String() string {
	if moduleName(n.Local) == moduleName(n.Exported) {
		return n.Local.String()
	}

	return n.Local.String() + " as " + n.Exported.String()
}

func (n *ExportSpecifier) Children() []Node { return []Node{n.Local, n.Exported} }

func (n *ExportSpecifier) MarshalJSON() ([]byte, error) {
	type plain ExportSpecifier
	return marshalNode(n.Type(), (*plain)(n))
}

// ExportDefaultDeclaration exports a declaration or expression as default.
type ExportDefaultDeclaration struct {
	Span
	Declaration Node `json:"declaration"`
}

func (n *ExportDefaultDeclaration) Type() string { return "ExportDefaultDeclaration" }

func (n *ExportDefaultDeclaration) Get(s *scope.Stack) (any, error) {
	var v any
	switch d := n.Declaration.(type) {
	case *FunctionDeclaration:
		if d.ID != nil {
			v = s.Get(d.ID.Name)
		} else {
			l := d.lambda()
			l.name = "default"
			v = l.instantiate(s, true)
		}
	case *ClassDeclaration:
		if d.ID == nil {
			cls, err := d.Body.define(s, "default", d.SuperClass)
			if err != nil {
				return nil, err
			}
			v = cls
			break
		}
		if _, err := d.Get(s); err != nil {
			return nil, err
		}
		v = s.Get(d.ID.Name)
	default:
		var err error
		if v, err = getNamed(s, n.Declaration, "default"); err != nil {
			return nil, err
		}
	}
	s.Exports().Put("default", v)

	return runtime.Undefined, nil
}

func (n *ExportDefaultDeclaration) Set(*scope.Stack, any) error { return noSet(n) }

func (n *ExportDefaultDeclaration) String() string {
	switch n.Declaration.(type) {
	case *FunctionDeclaration, *ClassDeclaration:
		return "export default " + n.Declaration.String()
	}

	return "export default " + wrap(n.Declaration, precAssign) + ";"
}

func (n *ExportDefaultDeclaration) Children() []Node { return []Node{n.Declaration} }

func (n *ExportDefaultDeclaration) MarshalJSON() ([]byte, error) {
	type plain ExportDefaultDeclaration
	return marshalNode(n.Type(), (*plain)(n))
}

// ExportAllDeclaration re-exports every name of another module, or its
// namespace under Exported.
type ExportAllDeclaration struct {
	Span
	Exported   Node               `json:"exported"`
	Source     *Literal           `json:"source"`
	Attributes []*ImportAttribute `json:"attributes,omitempty"`
}

func (n *ExportAllDeclaration) Type() string { return "ExportAllDeclaration" }

func (n *ExportAllDeclaration) Get(s *scope.Stack) (any, error) {
	ns, err := load(s, n.Source, n.Attributes)
	if err != nil {
		return nil, err
	}
	exports := s.Exports()
	if n.Exported != nil {
		exports.Put(moduleName(n.Exported), ns)
		return runtime.Undefined, nil
	}

	for _, k := range runtime.OwnKeys(ns) {
		if k == "default" {
			continue
		}
		v, err := runtime.GetMember(ns, k)
		if err != nil {
			return nil, err
		}
		exports.Put(k, v)
	}

	return runtime.Undefined, nil
}

func (n *ExportAllDeclaration) Set(*scope.Stack, any) error { return noSet(n) }

func (n *ExportAllDeclaration) String() string {
	out := "export *"
	if n.Exported != nil {
		out += " as " + n.Exported.String()
	}

	return out + " from " + n.Source.String() + attributeClause(n.Attributes) + ";"
}

func (n *ExportAllDeclaration) Children() []Node {
	return append(optional(nil, n.Exported, n.Source), nodes(n.Attributes)...)
}

func (n *ExportAllDeclaration) MarshalJSON() ([]byte, error) {
	type plain ExportAllDeclaration
	return marshalNode(n.Type(), (*plain)(n))
}
