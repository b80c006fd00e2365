package ast

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/example/expressions/runtime"
	"github.com/example/expressions/scope"
)

// Identifier is a name reference.
type Identifier struct {
	Span
	Name string `json:"name"`
}

func (n *Identifier) Type() string { return "Identifier" }

// Get resolves the name. Unknown names read as undefined.
func (n *Identifier) Get(s *scope.Stack) (any, error) {
	return s.Get(n.Name), nil
}

func (n *Identifier) Set(s *scope.Stack, value any) error {
	return s.Set(n.Name, value)
}

// Declare binds the name with the given declaration form.
func (n *Identifier) Declare(s *scope.Stack, b scope.Binding, value any) error {
	return s.DeclareVariable(b, n.Name, value)
}

func (n *Identifier) String() string   { return n.Name }
func (n *Identifier) Children() []Node { return nil }

func (n *Identifier) MarshalJSON() ([]byte, error) {
	type plain Identifier
	return marshalNode(n.Type(), (*plain)(n))
}

// RegexLiteral is the pattern and flags of a regular expression literal.
type RegexLiteral struct {
	Pattern string `json:"pattern"`
	Flags   string `json:"flags"`
}

// Literal is a null, boolean, number, string, regular expression or bigint
// literal. Regex and BigInt literals leave Value nil.
type Literal struct {
	Span
	Value  any           `json:"value"`
	Raw    string        `json:"raw,omitempty"`
	Regex  *RegexLiteral `json:"regex,omitempty"`
	BigInt string        `json:"bigint,omitempty"`
}

func (n *Literal) Type() string { return "Literal" }

func (n *Literal) Get(*scope.Stack) (any, error) {
	switch {
	case n.Regex != nil:
		return runtime.NewRegExp(n.Regex.Pattern, n.Regex.Flags)
	case n.BigInt != "":
		b, ok := new(big.Int).SetString(n.BigInt, 0)
		if !ok {
			return nil, runtime.NewSyntaxError("invalid BigInt literal %sn", n.BigInt)
		}
		return b, nil
	}

	return runtime.Normalize(n.Value), nil
}

func (n *Literal) Set(*scope.Stack, any) error { return noSet(n) }

func (n *Literal) String() string {
	switch {
	case n.Raw != "":
		return n.Raw
	case n.Regex != nil:
		return "/" + n.Regex.Pattern + "/" + n.Regex.Flags
	case n.BigInt != "":
		return n.BigInt + "n"
	}

	switch v := n.Value.(type) {
	case string:
		return quote(v)
	case nil:
		return "null"
	}

	return runtime.ToString(runtime.Normalize(n.Value))
}

func (n *Literal) Children() []Node { return nil }

func (n *Literal) MarshalJSON() ([]byte, error) {
	type plain Literal
	return marshalNode(n.Type(), (*plain)(n))
}

func quote(s string) string {
	q := strconv.Quote(s)
	if !strings.Contains(s, `"`) || strings.Contains(s, "'") {
		return q
	}

	// prefer single quotes over escaping double quotes
	inner := strings.ReplaceAll(q[1:len(q)-1], `\"`, `"`)
	return "'" + inner + "'"
}

// TemplateValue holds both renditions of a template chunk.
type TemplateValue struct {
	Raw    string `json:"raw"`
	Cooked string `json:"cooked"`
}

// TemplateElement is one literal chunk of a template.
type TemplateElement struct {
	Span
	Value TemplateValue `json:"value"`
	Tail  bool          `json:"tail"`
}

func (n *TemplateElement) Type() string                  { return "TemplateElement" }
func (n *TemplateElement) Get(*scope.Stack) (any, error) { return n.Value.Cooked, nil }
func (n *TemplateElement) Set(*scope.Stack, any) error   { return noSet(n) }
func (n *TemplateElement) String() string                { return n.Value.Raw }
func (n *TemplateElement) Children() []Node              { return nil }

func (n *TemplateElement) MarshalJSON() ([]byte, error) {
	type plain TemplateElement
	return marshalNode(n.Type(), (*plain)(n))
}

// TemplateLiteral is a backquoted template. Quasis has one more element
// than Expressions.
type TemplateLiteral struct {
	Span
	Quasis      []*TemplateElement `json:"quasis"`
	Expressions []Node             `json:"expressions"`
}

func (n *TemplateLiteral) Type() string { return "TemplateLiteral" }

func (n *TemplateLiteral) Get(s *scope.Stack) (any, error) {
	var sb strings.Builder
	for i, q := range n.Quasis {
		sb.WriteString(q.Value.Cooked)
		if i >= len(n.Expressions) {
			continue
		}
		v, err := n.Expressions[i].Get(s)
		if err != nil {
			return nil, err
		}
		if _, ok := v.(*runtime.Symbol); ok {
			return nil, runtime.NewTypeError("Cannot convert a Symbol value to a string")
		}
		sb.WriteString(runtime.ToString(v))
	}

	return sb.String(), nil
}

func (n *TemplateLiteral) Set(*scope.Stack, any) error { return noSet(n) }

func (n *TemplateLiteral) String() string {
	var sb strings.Builder
	sb.WriteByte('`')
	for i, q := range n.Quasis {
		sb.WriteString(q.Value.Raw)
		if i < len(n.Expressions) {
			sb.WriteString("${")
			sb.WriteString(n.Expressions[i].String())
			sb.WriteByte('}')
		}
	}
	sb.WriteByte('`')

	return sb.String()
}

func (n *TemplateLiteral) Children() []Node {
	var out []Node
	for i, q := range n.Quasis {
		out = append(out, q)
		if i < len(n.Expressions) {
			out = append(out, n.Expressions[i])
		}
	}

	return out
}

func (n *TemplateLiteral) MarshalJSON() ([]byte, error) {
	type plain TemplateLiteral
	return marshalNode(n.Type(), (*plain)(n))
}

// TaggedTemplateExpression calls Tag with the template's strings and
// substitution values.
type TaggedTemplateExpression struct {
	Span
	Tag   Node             `json:"tag"`
	Quasi *TemplateLiteral `json:"quasi"`
}

func (n *TaggedTemplateExpression) Type() string { return "TaggedTemplateExpression" }

func (n *TaggedTemplateExpression) Get(s *scope.Stack) (any, error) {
	fn, this, err := callee(s, n.Tag)
	if err != nil {
		return nil, err
	}

	cooked := make([]any, len(n.Quasi.Quasis))
	raw := make([]any, len(n.Quasi.Quasis))
	for i, q := range n.Quasi.Quasis {
		cooked[i], raw[i] = q.Value.Cooked, q.Value.Raw
	}
	strs, raws := runtime.NewArray(cooked), runtime.NewArray(raw)
	raws.Freeze()
	strs.DefineHidden("raw", raws)
	strs.Freeze()

	args := []any{strs}
	for _, e := range n.Quasi.Expressions {
		v, err := e.Get(s)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	return call(fn, this, args, n.Tag)
}

func (n *TaggedTemplateExpression) Set(*scope.Stack, any) error { return noSet(n) }

func (n *TaggedTemplateExpression) String() string {
	return wrap(n.Tag, precMember) + n.Quasi.String()
}

func (n *TaggedTemplateExpression) Children() []Node { return []Node{n.Tag, n.Quasi} }

func (n *TaggedTemplateExpression) MarshalJSON() ([]byte, error) {
	type plain TaggedTemplateExpression
	return marshalNode(n.Type(), (*plain)(n))
}

// ThisExpression reads the receiver of the enclosing function.
type ThisExpression struct {
	Span
}

func (n *ThisExpression) Type() string { return "ThisExpression" }

func (n *ThisExpression) Get(s *scope.Stack) (any, error) {
	if v, ok := s.Lookup(keyThis); ok {
		return v, nil
	}

	return runtime.Undefined, nil
}

func (n *ThisExpression) Set(*scope.Stack, any) error { return noSet(n) }
func (n *ThisExpression) String() string              { return "this" }
func (n *ThisExpression) Children() []Node            { return nil }

func (n *ThisExpression) MarshalJSON() ([]byte, error) {
	type plain ThisExpression
	return marshalNode(n.Type(), (*plain)(n))
}

// Super is the super pseudo-reference. It is only meaningful as the object
// of a member expression or the callee of a call.
type Super struct {
	Span
}

func (n *Super) Type() string { return "Super" }

func (n *Super) Get(*scope.Stack) (any, error) {
	return nil, runtime.NewSyntaxError("'super' keyword unexpected here")
}

func (n *Super) Set(*scope.Stack, any) error { return noSet(n) }
func (n *Super) String() string              { return "super" }
func (n *Super) Children() []Node            { return nil }

func (n *Super) MarshalJSON() ([]byte, error) {
	type plain Super
	return marshalNode(n.Type(), (*plain)(n))
}

// MetaProperty is new.target or import.meta.
type MetaProperty struct {
	Span
	Meta     *Identifier `json:"meta"`
	Property *Identifier `json:"property"`
}

func (n *MetaProperty) Type() string { return "MetaProperty" }

func (n *MetaProperty) Get(s *scope.Stack) (any, error) {
	if v, ok := s.Lookup(n.Meta.Name + "." + n.Property.Name); ok {
		return v, nil
	}

	return runtime.Undefined, nil
}

func (n *MetaProperty) Set(*scope.Stack, any) error { return noSet(n) }
func (n *MetaProperty) String() string              { return n.Meta.Name + "." + n.Property.Name }
func (n *MetaProperty) Children() []Node            { return []Node{n.Meta, n.Property} }

func (n *MetaProperty) MarshalJSON() ([]byte, error) {
	type plain MetaProperty
	return marshalNode(n.Type(), (*plain)(n))
}

// PrivateIdentifier is a #name class member key. Name excludes the hash.
type PrivateIdentifier struct {
	Span
	Name string `json:"name"`
}

func (n *PrivateIdentifier) Type() string { return "PrivateIdentifier" }

func (n *PrivateIdentifier) Get(*scope.Stack) (any, error) {
	return nil, runtime.NewSyntaxError("Unexpected private name #%s", n.Name)
}

func (n *PrivateIdentifier) Set(*scope.Stack, any) error { return noSet(n) }
func (n *PrivateIdentifier) String() string              { return "#" + n.Name }
func (n *PrivateIdentifier) Children() []Node            { return nil }

func (n *PrivateIdentifier) MarshalJSON() ([]byte, error) {
	type plain PrivateIdentifier
	return marshalNode(n.Type(), (*plain)(n))
}

// privateTable finds the table of the innermost class declaring #name.
func privateTable(s *scope.Stack, name string) (*runtime.PrivateTable, error) {
	if t, ok := s.Get("#" + name).(*runtime.PrivateTable); ok {
		return t, nil
	}

	return nil, runtime.NewSyntaxError("Private field '#%s' must be declared in an enclosing class", name)
}
