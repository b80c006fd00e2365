package ast

import (
	"strings"

	"github.com/example/expressions/runtime"
	"github.com/example/expressions/scope"
)

// UnaryExpression is a prefix operator: ! ~ + - typeof void delete.
type UnaryExpression struct {
	Span
	Operator string `json:"operator"`
	Prefix   bool   `json:"prefix"`
	Argument Node   `json:"argument"`
}

func (n *UnaryExpression) Type() string { return "UnaryExpression" }

func (n *UnaryExpression) Get(s *scope.Stack) (any, error) {
	if n.Operator == "delete" {
		return n.delete(s)
	}

	v, err := n.Argument.Get(s)
	if err != nil {
		return nil, err
	}

	return runtime.UnaryOp(n.Operator, v)
}

func (n *UnaryExpression) delete(s *scope.Stack) (any, error) {
	arg := n.Argument
	if c, ok := arg.(*ChainExpression); ok {
		arg = c.Expression
	}

	m, ok := arg.(*MemberExpression)
	if !ok {
		if _, err := arg.Get(s); err != nil {
			return nil, err
		}
		return true, nil
	}

	obj, key, err := m.target(s)
	if err != nil {
		if err == errChainBreak {
			return true, nil
		}
		return nil, err
	}
	if _, private := key.(privateKey); private {
		return nil, runtime.NewSyntaxError("Private fields can not be deleted")
	}

	return runtime.DeleteMember(obj, key)
}

func (n *UnaryExpression) Set(*scope.Stack, any) error { return noSet(n) }

func (n *UnaryExpression) String() string {
	sep := ""
	if len(n.Operator) > 1 {
		sep = " "
	} else if inner, ok := n.Argument.(*UnaryExpression); ok && strings.HasPrefix(inner.Operator, n.Operator) {
		sep = " "
	}

	return n.Operator + sep + wrap(n.Argument, precUnary)
}

func (n *UnaryExpression) Children() []Node { return []Node{n.Argument} }

func (n *UnaryExpression) MarshalJSON() ([]byte, error) {
	type plain UnaryExpression
	return marshalNode(n.Type(), (*plain)(n))
}

// UpdateExpression is ++ or -- in prefix or postfix position.
type UpdateExpression struct {
	Span
	Operator string `json:"operator"`
	Prefix   bool   `json:"prefix"`
	Argument Node   `json:"argument"`
}

func (n *UpdateExpression) Type() string { return "UpdateExpression" }

func (n *UpdateExpression) Get(s *scope.Stack) (any, error) {
	ref, err := resolve(s, n.Argument)
	if err != nil {
		return nil, err
	}
	cur, err := ref.get()
	if err != nil {
		return nil, err
	}

	delta := int64(1)
	if n.Operator == "--" {
		delta = -1
	}
	old, updated, err := runtime.Increment(cur, delta)
	if err != nil {
		return nil, err
	}
	if err := ref.set(updated); err != nil {
		return nil, err
	}

	if n.Prefix {
		return updated, nil
	}

	return old, nil
}

func (n *UpdateExpression) Set(*scope.Stack, any) error { return noSet(n) }

func (n *UpdateExpression) String() string {
	if n.Prefix {
		return n.Operator + wrap(n.Argument, precUnary)
	}

	return wrap(n.Argument, precCall) + n.Operator
}

func (n *UpdateExpression) Children() []Node { return []Node{n.Argument} }

func (n *UpdateExpression) MarshalJSON() ([]byte, error) {
	type plain UpdateExpression
	return marshalNode(n.Type(), (*plain)(n))
}

// BinaryExpression is an arithmetic, bitwise, comparison, equality, in or
// instanceof operation. Left may be a PrivateIdentifier for `#x in obj`.
type BinaryExpression struct {
	Span
	Operator string `json:"operator"`
	Left     Node   `json:"left"`
	Right    Node   `json:"right"`
}

func (n *BinaryExpression) Type() string { return "BinaryExpression" }

func (n *BinaryExpression) Get(s *scope.Stack) (any, error) {
	if p, ok := n.Left.(*PrivateIdentifier); ok && n.Operator == "in" {
		r, err := n.Right.Get(s)
		if err != nil {
			return nil, err
		}
		if _, ok := r.(runtime.ObjectLike); !ok {
			return nil, runtime.NewTypeError("Cannot use 'in' operator to search for '#%s' in %s", p.Name, runtime.ToString(r))
		}
		table, err := privateTable(s, p.Name)
		if err != nil {
			return nil, err
		}
		return table.Has(r, p.Name), nil
	}

	l, err := n.Left.Get(s)
	if err != nil {
		return nil, err
	}
	r, err := n.Right.Get(s)
	if err != nil {
		return nil, err
	}

	return runtime.BinaryOp(n.Operator, l, r)
}

func (n *BinaryExpression) Set(*scope.Stack, any) error { return noSet(n) }

func (n *BinaryExpression) String() string {
	p := binaryPrecedence[n.Operator]
	lmin, rmin := p, p+1
	if n.Operator == "**" {
		lmin, rmin = p+1, p
	}

	return wrap(n.Left, lmin) + " " + n.Operator + " " + wrap(n.Right, rmin)
}

func (n *BinaryExpression) Children() []Node { return []Node{n.Left, n.Right} }

func (n *BinaryExpression) MarshalJSON() ([]byte, error) {
	type plain BinaryExpression
	return marshalNode(n.Type(), (*plain)(n))
}

// LogicalExpression is &&, || or ??. The right side is evaluated only when
// the left side does not decide the result.
type LogicalExpression struct {
	Span
	Operator string `json:"operator"`
	Left     Node   `json:"left"`
	Right    Node   `json:"right"`
}

func (n *LogicalExpression) Type() string { return "LogicalExpression" }

func (n *LogicalExpression) Get(s *scope.Stack) (any, error) {
	l, err := n.Left.Get(s)
	if err != nil {
		return nil, err
	}
	if decided(n.Operator, l) {
		return l, nil
	}

	return n.Right.Get(s)
}

// decided reports whether the left operand alone determines the result.
func decided(op string, l any) bool {
	switch op {
	case "&&":
		return !runtime.ToBoolean(l)
	case "||":
		return runtime.ToBoolean(l)
	}

	return !runtime.IsNullish(l)
}

func (n *LogicalExpression) Set(*scope.Stack, any) error { return noSet(n) }

func (n *LogicalExpression) String() string {
	p := binaryPrecedence[n.Operator]
	return wrap(n.Left, p) + " " + n.Operator + " " + wrap(n.Right, p+1)
}

func (n *LogicalExpression) Children() []Node { return []Node{n.Left, n.Right} }

func (n *LogicalExpression) MarshalJSON() ([]byte, error) {
	type plain LogicalExpression
	return marshalNode(n.Type(), (*plain)(n))
}

// AssignmentExpression is = or a compound assignment.
type AssignmentExpression struct {
	Span
	Operator string `json:"operator"`
	Left     Node   `json:"left"`
	Right    Node   `json:"right"`
}

func (n *AssignmentExpression) Type() string { return "AssignmentExpression" }

func (n *AssignmentExpression) Get(s *scope.Stack) (any, error) {
	if n.Operator == "=" {
		v, err := getNamed(s, n.Right, targetName(n.Left))
		if err != nil {
			return nil, err
		}
		if err := n.Left.Set(s, v); err != nil {
			return nil, err
		}
		return v, nil
	}

	ref, err := resolve(s, n.Left)
	if err != nil {
		return nil, err
	}
	cur, err := ref.get()
	if err != nil {
		return nil, err
	}

	op := strings.TrimSuffix(n.Operator, "=")
	var v any
	switch op {
	case "&&", "||", "??":
		if decided(op, cur) {
			return cur, nil
		}
		if v, err = getNamed(s, n.Right, targetName(n.Left)); err != nil {
			return nil, err
		}
	default:
		r, err := n.Right.Get(s)
		if err != nil {
			return nil, err
		}
		if v, err = runtime.BinaryOp(op, cur, r); err != nil {
			return nil, err
		}
	}

	if err := ref.set(v); err != nil {
		return nil, err
	}

	return v, nil
}

// queueAwait registers `target = await x` with the stack's await channel
// instead of settling x in place.
func (n *AssignmentExpression) queueAwait(s *scope.Stack) (bool, error) {
	aw, ok := n.Right.(*AwaitExpression)
	if !ok || n.Operator != "=" {
		return false, nil
	}
	v, err := aw.Argument.Get(s)
	if err != nil {
		return true, err
	}
	s.AddAwait(scope.AwaitPromise{Target: n.Left, Kind: scope.AwaitAssign, Promise: v})

	return true, nil
}

func (n *AssignmentExpression) Set(*scope.Stack, any) error { return noSet(n) }

func (n *AssignmentExpression) String() string {
	return n.Left.String() + " " + n.Operator + " " + wrap(n.Right, precAssign)
}

func (n *AssignmentExpression) Children() []Node { return []Node{n.Left, n.Right} }

func (n *AssignmentExpression) MarshalJSON() ([]byte, error) {
	type plain AssignmentExpression
	return marshalNode(n.Type(), (*plain)(n))
}

// ConditionalExpression is test ? consequent : alternate.
type ConditionalExpression struct {
	Span
	Test       Node `json:"test"`
	Consequent Node `json:"consequent"`
	Alternate  Node `json:"alternate"`
}

func (n *ConditionalExpression) Type() string { return "ConditionalExpression" }

func (n *ConditionalExpression) Get(s *scope.Stack) (any, error) {
	t, err := n.Test.Get(s)
	if err != nil {
		return nil, err
	}
	if runtime.ToBoolean(t) {
		return n.Consequent.Get(s)
	}

	return n.Alternate.Get(s)
}

func (n *ConditionalExpression) Set(*scope.Stack, any) error { return noSet(n) }

func (n *ConditionalExpression) String() string {
	return wrap(n.Test, precPipeline) + " ? " + wrap(n.Consequent, precAssign) + " : " + wrap(n.Alternate, precAssign)
}

func (n *ConditionalExpression) Children() []Node {
	return []Node{n.Test, n.Consequent, n.Alternate}
}

func (n *ConditionalExpression) MarshalJSON() ([]byte, error) {
	type plain ConditionalExpression
	return marshalNode(n.Type(), (*plain)(n))
}

// SequenceExpression evaluates expressions left to right, yielding the
// last.
type SequenceExpression struct {
	Span
	Expressions []Node `json:"expressions"`
}

func (n *SequenceExpression) Type() string { return "SequenceExpression" }

func (n *SequenceExpression) Get(s *scope.Stack) (any, error) {
	var v any = runtime.Undefined
	for _, e := range n.Expressions {
		var err error
		if v, err = e.Get(s); err != nil {
			return nil, err
		}
	}

	return v, nil
}

func (n *SequenceExpression) Set(*scope.Stack, any) error { return noSet(n) }
func (n *SequenceExpression) String() string              { return join(n.Expressions, ", ") }
func (n *SequenceExpression) Children() []Node            { return n.Expressions }

func (n *SequenceExpression) MarshalJSON() ([]byte, error) {
	type plain SequenceExpression
	return marshalNode(n.Type(), (*plain)(n))
}

// PipelinePlaceholder marks where the piped value goes in a partial
// application: ? or ...?.
type PipelinePlaceholder struct {
	Span
	Spread bool `json:"spread"`
}

func (n *PipelinePlaceholder) Type() string { return "PipelinePlaceholder" }

func (n *PipelinePlaceholder) Get(*scope.Stack) (any, error) {
	return nil, runtime.NoImplementation(n.Type(), "get")
}

func (n *PipelinePlaceholder) Set(*scope.Stack, any) error { return noSet(n) }

func (n *PipelinePlaceholder) String() string {
	if n.Spread {
		return "...?"
	}

	return "?"
}

func (n *PipelinePlaceholder) Children() []Node { return nil }

func (n *PipelinePlaceholder) MarshalJSON() ([]byte, error) {
	type plain PipelinePlaceholder
	return marshalNode(n.Type(), (*plain)(n))
}

// PipelineExpression is left |> right. Without arguments right is called
// with the piped value. Arguments with placeholders are a partial
// application; arguments without placeholders come from the colon form
// `x |> f:a:b` and follow the piped value.
type PipelineExpression struct {
	Span
	Left      Node   `json:"left"`
	Right     Node   `json:"right"`
	Arguments []Node `json:"arguments,omitempty"`
	Colon     bool   `json:"colon,omitempty"`
}

func (n *PipelineExpression) Type() string { return "PipelineExpression" }

func (n *PipelineExpression) Get(s *scope.Stack) (any, error) {
	v, err := n.Left.Get(s)
	if err != nil {
		return nil, err
	}
	fn, this, err := callee(s, n.Right)
	if err != nil {
		return nil, err
	}

	args := []any{v}
	if len(n.Arguments) > 0 {
		args, err = n.arguments(s, v)
		if err != nil {
			return nil, err
		}
	}

	return call(fn, this, args, n.Right)
}

func (n *PipelineExpression) arguments(s *scope.Stack, piped any) ([]any, error) {
	var args []any
	placed := false
	for _, a := range n.Arguments {
		ph, ok := a.(*PipelinePlaceholder)
		if !ok {
			v, err := arguments(s, []Node{a})
			if err != nil {
				return nil, err
			}
			args = append(args, v...)
			continue
		}

		placed = true
		if !ph.Spread {
			args = append(args, piped)
			continue
		}
		items, err := runtime.Collect(piped)
		if err != nil {
			return nil, err
		}
		args = append(args, items...)
	}
	if !placed {
		args = append([]any{piped}, args...)
	}

	return args, nil
}

func (n *PipelineExpression) Set(*scope.Stack, any) error { return noSet(n) }

func (n *PipelineExpression) String() string {
	left := wrap(n.Left, precPipeline)
	switch {
	case len(n.Arguments) == 0:
		return left + " |> " + wrap(n.Right, precMember)
	case n.Colon:
		parts := make([]string, len(n.Arguments))
		for i, a := range n.Arguments {
			parts[i] = wrap(a, precAssign)
		}
		return left + " |> " + wrap(n.Right, precMember) + ":" + strings.Join(parts, ":")
	}

	return left + " |> " + wrap(n.Right, precMember) + "(" + join(n.Arguments, ", ") + ")"
}

func (n *PipelineExpression) Children() []Node {
	return append([]Node{n.Left, n.Right}, n.Arguments...)
}

func (n *PipelineExpression) MarshalJSON() ([]byte, error) {
	type plain PipelineExpression
	return marshalNode(n.Type(), (*plain)(n))
}
