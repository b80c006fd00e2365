package ast

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/example/expressions/runtime"
	"github.com/example/expressions/scope"
)

// Program is a parsed source file. SourceType is "script" or "module".
type Program struct {
	Span
	Body       []Node `json:"body"`
	SourceType string `json:"sourceType"`
}

func (n *Program) Type() string { return "Program" }

// Get runs the program against s and returns the completion value of the
// last statement. A top-level return yields its value.
func (n *Program) Get(s *scope.Stack) (any, error) {
	if err := hoistVars(s, n.Body); err != nil {
		return nil, err
	}
	v, err := statements(s, n.Body)
	if err != nil {
		return nil, err
	}

	switch v := v.(type) {
	case *runtime.ReturnValue:
		return v.Value, nil
	case runtime.Sentinel:
		return runtime.Undefined, nil
	}

	return v, nil
}

func (n *Program) Set(*scope.Stack, any) error { return noSet(n) }

func (n *Program) String() string {
	parts := make([]string, len(n.Body))
	for i, st := range n.Body {
		parts[i] = st.String()
	}

	return strings.Join(parts, "\n")
}

func (n *Program) Children() []Node { return n.Body }

func (n *Program) MarshalJSON() ([]byte, error) {
	type plain Program
	return marshalNode(n.Type(), (*plain)(n))
}

// ExpressionStatement evaluates an expression for its value. Directive
// holds the raw text of a directive prologue entry such as "use strict".
type ExpressionStatement struct {
	Span
	Expression Node   `json:"expression"`
	Directive  string `json:"directive,omitempty"`
}

func (n *ExpressionStatement) Type() string { return "ExpressionStatement" }

func (n *ExpressionStatement) Get(s *scope.Stack) (any, error) {
	if a, ok := n.Expression.(*AssignmentExpression); ok {
		queued, err := a.queueAwait(s)
		if err != nil {
			return nil, err
		}
		if queued {
			return runtime.Undefined, nil
		}
	}

	return n.Expression.Get(s)
}

func (n *ExpressionStatement) Set(*scope.Stack, any) error { return noSet(n) }

func (n *ExpressionStatement) String() string {
	text := n.Expression.String()
	if leadsAmbiguously(n.Expression) {
		text = "(" + text + ")"
	}

	return text + ";"
}

// leadsAmbiguously reports whether an expression statement would start
// like a block, declaration or let statement.
func leadsAmbiguously(n Node) bool {
	for {
		switch e := n.(type) {
		case *ObjectExpression, *FunctionExpression, *ClassExpression, *ObjectPattern:
			return true
		case *MemberExpression:
			n = e.Object
		case *CallExpression:
			n = e.Callee
		case *BinaryExpression:
			n = e.Left
		case *LogicalExpression:
			n = e.Left
		case *AssignmentExpression:
			n = e.Left
		case *ConditionalExpression:
			n = e.Test
		case *SequenceExpression:
			n = e.Expressions[0]
		case *TaggedTemplateExpression:
			n = e.Tag
		case *ChainExpression:
			n = e.Expression
		case *UpdateExpression:
			if e.Prefix {
				return false
			}
			n = e.Argument
		case *Identifier:
			return e.Name == "let"
		default:
			return false
		}
	}
}

func (n *ExpressionStatement) Children() []Node { return []Node{n.Expression} }

func (n *ExpressionStatement) MarshalJSON() ([]byte, error) {
	type plain ExpressionStatement
	return marshalNode(n.Type(), (*plain)(n))
}

// EmptyStatement is a lone semicolon.
type EmptyStatement struct {
	Span
}

func (n *EmptyStatement) Type() string                  { return "EmptyStatement" }
func (n *EmptyStatement) Get(*scope.Stack) (any, error) { return runtime.Undefined, nil }
func (n *EmptyStatement) Set(*scope.Stack, any) error   { return noSet(n) }
func (n *EmptyStatement) String() string                { return ";" }
func (n *EmptyStatement) Children() []Node              { return nil }

func (n *EmptyStatement) MarshalJSON() ([]byte, error) {
	type plain EmptyStatement
	return marshalNode(n.Type(), (*plain)(n))
}

// DebuggerStatement logs the visible bindings at debug level.
type DebuggerStatement struct {
	Span
}

func (n *DebuggerStatement) Type() string { return "DebuggerStatement" }

func (n *DebuggerStatement) Get(s *scope.Stack) (any, error) {
	var keys []string
	for _, sc := range s.Scopes() {
		keys = append(keys, sc.Context().Keys()...)
	}
	attrs := []slog.Attr{slog.Int("depth", s.Len()), slog.Any("bindings", keys)}
	if n.Loc != nil {
		attrs = append(attrs, slog.Int("line", n.Loc.Start.Line))
	}
	s.Logger().DebugContext(s.Context(), "debugger", attrs...)

	return runtime.Undefined, nil
}

func (n *DebuggerStatement) Set(*scope.Stack, any) error { return noSet(n) }
func (n *DebuggerStatement) String() string              { return "debugger;" }
func (n *DebuggerStatement) Children() []Node            { return nil }

func (n *DebuggerStatement) MarshalJSON() ([]byte, error) {
	type plain DebuggerStatement
	return marshalNode(n.Type(), (*plain)(n))
}

// BlockStatement runs its statements in a new block scope.
type BlockStatement struct {
	Span
	Body []Node `json:"body"`
}

func (n *BlockStatement) Type() string { return "BlockStatement" }

func (n *BlockStatement) Get(s *scope.Stack) (any, error) {
	sc := s.PushBlockScope()
	defer s.ClearTo(sc)

	return statements(s, n.Body)
}

func (n *BlockStatement) Set(*scope.Stack, any) error { return noSet(n) }
func (n *BlockStatement) String() string              { return block(n.Body) }
func (n *BlockStatement) Children() []Node            { return n.Body }

func (n *BlockStatement) MarshalJSON() ([]byte, error) {
	type plain BlockStatement
	return marshalNode(n.Type(), (*plain)(n))
}

// IfStatement is if (test) consequent else alternate.
type IfStatement struct {
	Span
	Test       Node `json:"test"`
	Consequent Node `json:"consequent"`
	Alternate  Node `json:"alternate"`
}

func (n *IfStatement) Type() string { return "IfStatement" }

func (n *IfStatement) Get(s *scope.Stack) (any, error) {
	t, err := n.Test.Get(s)
	if err != nil {
		return nil, err
	}
	if runtime.ToBoolean(t) {
		return exec(s, n.Consequent)
	}
	if n.Alternate != nil {
		return exec(s, n.Alternate)
	}

	return runtime.Undefined, nil
}

func (n *IfStatement) Set(*scope.Stack, any) error { return noSet(n) }

func (n *IfStatement) String() string {
	out := "if (" + n.Test.String() + ") " + n.Consequent.String()
	if n.Alternate != nil {
		out += " else " + n.Alternate.String()
	}

	return out
}

func (n *IfStatement) Children() []Node {
	return optional([]Node{n.Test, n.Consequent}, n.Alternate)
}

func (n *IfStatement) MarshalJSON() ([]byte, error) {
	type plain IfStatement
	return marshalNode(n.Type(), (*plain)(n))
}

// labeledLoop is implemented by loops and switches, which need to know the
// labels they carry to honour labelled continue and break.
type labeledLoop interface {
	run(s *scope.Stack, labels []string) (any, error)
}

// LabeledStatement attaches a label to a statement.
type LabeledStatement struct {
	Span
	Label *Identifier `json:"label"`
	Body  Node        `json:"body"`
}

func (n *LabeledStatement) Type() string { return "LabeledStatement" }

func (n *LabeledStatement) Get(s *scope.Stack) (any, error) {
	labels := []string{n.Label.Name}
	body := n.Body
	for {
		inner, ok := body.(*LabeledStatement)
		if !ok {
			break
		}
		labels = append(labels, inner.Label.Name)
		body = inner.Body
	}

	var v any
	var err error
	if l, ok := body.(labeledLoop); ok {
		v, err = l.run(s, labels)
	} else {
		v, err = exec(s, body)
	}
	if err != nil {
		return nil, err
	}

	if t, ok := v.(*runtime.Terminate); ok && t.Kind == runtime.Break && t.Label != "" && t.Matches(labels) {
		return runtime.Undefined, nil
	}

	return v, nil
}

func (n *LabeledStatement) Set(*scope.Stack, any) error { return noSet(n) }
func (n *LabeledStatement) String() string              { return n.Label.Name + ": " + n.Body.String() }
func (n *LabeledStatement) Children() []Node            { return []Node{n.Label, n.Body} }

func (n *LabeledStatement) MarshalJSON() ([]byte, error) {
	type plain LabeledStatement
	return marshalNode(n.Type(), (*plain)(n))
}

// ReturnStatement produces a [runtime.ReturnValue].
type ReturnStatement struct {
	Span
	Argument Node `json:"argument"`
}

func (n *ReturnStatement) Type() string { return "ReturnStatement" }

func (n *ReturnStatement) Get(s *scope.Stack) (any, error) {
	if n.Argument == nil {
		return &runtime.ReturnValue{Value: runtime.Undefined}, nil
	}
	v, err := n.Argument.Get(s)
	if err != nil {
		return nil, err
	}

	return &runtime.ReturnValue{Value: v}, nil
}

func (n *ReturnStatement) Set(*scope.Stack, any) error { return noSet(n) }

func (n *ReturnStatement) String() string {
	if n.Argument == nil {
		return "return;"
	}

	return "return " + n.Argument.String() + ";"
}

func (n *ReturnStatement) Children() []Node { return optional(nil, n.Argument) }

func (n *ReturnStatement) MarshalJSON() ([]byte, error) {
	type plain ReturnStatement
	return marshalNode(n.Type(), (*plain)(n))
}

// BreakStatement produces a break [runtime.Terminate].
type BreakStatement struct {
	Span
	Label *Identifier `json:"label"`
}

func (n *BreakStatement) Type() string { return "BreakStatement" }

func (n *BreakStatement) Get(*scope.Stack) (any, error) {
	return &runtime.Terminate{Kind: runtime.Break, Label: labelName(n.Label)}, nil
}

func (n *BreakStatement) Set(*scope.Stack, any) error { return noSet(n) }

func (n *BreakStatement) String() string {
	return (&runtime.Terminate{Kind: runtime.Break, Label: labelName(n.Label)}).String()
}

func (n *BreakStatement) Children() []Node { return optional(nil, n.Label) }

func (n *BreakStatement) MarshalJSON() ([]byte, error) {
	type plain BreakStatement
	return marshalNode(n.Type(), (*plain)(n))
}

// ContinueStatement produces a continue [runtime.Terminate].
type ContinueStatement struct {
	Span
	Label *Identifier `json:"label"`
}

func (n *ContinueStatement) Type() string { return "ContinueStatement" }

func (n *ContinueStatement) Get(*scope.Stack) (any, error) {
	return &runtime.Terminate{Kind: runtime.Continue, Label: labelName(n.Label)}, nil
}

func (n *ContinueStatement) Set(*scope.Stack, any) error { return noSet(n) }

func (n *ContinueStatement) String() string {
	return (&runtime.Terminate{Kind: runtime.Continue, Label: labelName(n.Label)}).String()
}

func (n *ContinueStatement) Children() []Node { return optional(nil, n.Label) }

func (n *ContinueStatement) MarshalJSON() ([]byte, error) {
	type plain ContinueStatement
	return marshalNode(n.Type(), (*plain)(n))
}

func labelName(id *Identifier) string {
	if id == nil {
		return ""
	}

	return id.Name
}

// ThrowStatement throws its argument as a [runtime.ThrowError].
type ThrowStatement struct {
	Span
	Argument Node `json:"argument"`
}

func (n *ThrowStatement) Type() string { return "ThrowStatement" }

func (n *ThrowStatement) Get(s *scope.Stack) (any, error) {
	v, err := n.Argument.Get(s)
	if err != nil {
		return nil, err
	}

	return nil, runtime.Throw(v)
}

func (n *ThrowStatement) Set(*scope.Stack, any) error { return noSet(n) }
func (n *ThrowStatement) String() string              { return "throw " + n.Argument.String() + ";" }
func (n *ThrowStatement) Children() []Node            { return []Node{n.Argument} }

func (n *ThrowStatement) MarshalJSON() ([]byte, error) {
	type plain ThrowStatement
	return marshalNode(n.Type(), (*plain)(n))
}

// TryStatement runs Block, hands catchable errors to Handler and always
// runs Finalizer. A finalizer that throws or transfers control overrides
// the outcome of the other blocks.
type TryStatement struct {
	Span
	Block     *BlockStatement `json:"block"`
	Handler   *CatchClause    `json:"handler"`
	Finalizer *BlockStatement `json:"finalizer"`
}

func (n *TryStatement) Type() string { return "TryStatement" }

func (n *TryStatement) Get(s *scope.Stack) (any, error) {
	v, err := exec(s, n.Block)
	if err != nil && n.Handler != nil && catchable(err) {
		v, err = n.Handler.catch(s, runtime.ErrorValue(err))
	}

	if n.Finalizer != nil {
		fv, ferr := exec(s, n.Finalizer)
		if ferr != nil {
			return nil, ferr
		}
		if _, ok := fv.(runtime.Sentinel); ok {
			return fv, nil
		}
	}

	return v, err
}

// catchable reports whether a script catch clause may observe err.
// Generator unwinding and context cancellation pass through.
func catchable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	return runtime.IsCatchable(err)
}

func (n *TryStatement) Set(*scope.Stack, any) error { return noSet(n) }

func (n *TryStatement) String() string {
	out := "try " + n.Block.String()
	if n.Handler != nil {
		out += " " + n.Handler.String()
	}
	if n.Finalizer != nil {
		out += " finally " + n.Finalizer.String()
	}

	return out
}

func (n *TryStatement) Children() []Node {
	return optional([]Node{n.Block}, n.Handler, n.Finalizer)
}

func (n *TryStatement) MarshalJSON() ([]byte, error) {
	type plain TryStatement
	return marshalNode(n.Type(), (*plain)(n))
}

// CatchClause binds the caught value to Param, when present, in a new
// block scope.
type CatchClause struct {
	Span
	Param Node            `json:"param"`
	Body  *BlockStatement `json:"body"`
}

func (n *CatchClause) Type() string { return "CatchClause" }

func (n *CatchClause) Get(s *scope.Stack) (any, error) { return n.Body.Get(s) }

func (n *CatchClause) catch(s *scope.Stack, value any) (any, error) {
	sc := s.PushBlockScope()
	defer s.ClearTo(sc)

	if n.Param != nil {
		if err := declareTarget(s, n.Param, scope.Let, value); err != nil {
			return nil, err
		}
	}

	return n.Body.Get(s)
}

func (n *CatchClause) Set(*scope.Stack, any) error { return noSet(n) }

func (n *CatchClause) String() string {
	if n.Param == nil {
		return "catch " + n.Body.String()
	}

	return "catch (" + n.Param.String() + ") " + n.Body.String()
}

func (n *CatchClause) Children() []Node { return append(optional(nil, n.Param), n.Body) }

func (n *CatchClause) MarshalJSON() ([]byte, error) {
	type plain CatchClause
	return marshalNode(n.Type(), (*plain)(n))
}

// VariableDeclaration is a var, let or const statement.
type VariableDeclaration struct {
	Span
	Kind         string                `json:"kind"`
	Declarations []*VariableDeclarator `json:"declarations"`
}

func (n *VariableDeclaration) Type() string { return "VariableDeclaration" }

func (n *VariableDeclaration) binding() scope.Binding {
	switch n.Kind {
	case "let":
		return scope.Let
	case "const":
		return scope.Const
	}

	return scope.Var
}

// Get declares every declarator. When the last initializer is an await,
// the declaration is queued on the stack's await channel.
func (n *VariableDeclaration) Get(s *scope.Stack) (any, error) {
	b := n.binding()
	for i, d := range n.Declarations {
		if aw, ok := d.Init.(*AwaitExpression); ok && i == len(n.Declarations)-1 {
			v, err := aw.Argument.Get(s)
			if err != nil {
				return nil, err
			}
			s.AddAwait(scope.AwaitPromise{Target: d.ID, Kind: scope.AwaitDeclare, Binding: b, Promise: v})
			break
		}
		if err := d.declare(s, b); err != nil {
			return nil, err
		}
	}

	return runtime.Undefined, nil
}

// declareValue binds the single declarator of a for-in or for-of head.
func (n *VariableDeclaration) declareValue(s *scope.Stack, v any) error {
	return declareTarget(s, n.Declarations[0].ID, n.binding(), v)
}

func (n *VariableDeclaration) Set(*scope.Stack, any) error { return noSet(n) }

func (n *VariableDeclaration) String() string { return n.head() + ";" }

// head renders the declaration without its semicolon, as for loop heads
// need it.
func (n *VariableDeclaration) head() string {
	return n.Kind + " " + join(nodes(n.Declarations), ", ")
}

func (n *VariableDeclaration) Children() []Node { return nodes(n.Declarations) }

func (n *VariableDeclaration) MarshalJSON() ([]byte, error) {
	type plain VariableDeclaration
	return marshalNode(n.Type(), (*plain)(n))
}

// VariableDeclarator is one target = init pair of a declaration.
type VariableDeclarator struct {
	Span
	ID   Node `json:"id"`
	Init Node `json:"init"`
}

func (n *VariableDeclarator) Type() string { return "VariableDeclarator" }

func (n *VariableDeclarator) Get(s *scope.Stack) (any, error) {
	if n.Init == nil {
		return runtime.Undefined, nil
	}

	return n.Init.Get(s)
}

func (n *VariableDeclarator) declare(s *scope.Stack, b scope.Binding) error {
	var v any = runtime.Undefined
	if n.Init != nil {
		var err error
		if v, err = getNamed(s, n.Init, targetName(n.ID)); err != nil {
			return err
		}
	}

	return declareTarget(s, n.ID, b, v)
}

func (n *VariableDeclarator) Set(*scope.Stack, any) error { return noSet(n) }

func (n *VariableDeclarator) String() string {
	if n.Init == nil {
		return n.ID.String()
	}

	return n.ID.String() + " = " + wrap(n.Init, precAssign)
}

func (n *VariableDeclarator) Children() []Node { return optional([]Node{n.ID}, n.Init) }

func (n *VariableDeclarator) MarshalJSON() ([]byte, error) {
	type plain VariableDeclarator
	return marshalNode(n.Type(), (*plain)(n))
}
