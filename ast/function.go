package ast

import (
	"slices"
	"strings"

	"github.com/example/expressions/runtime"
	"github.com/example/expressions/scope"
)

// lambda is the shape shared by every function form.
type lambda struct {
	name      string
	self      string
	params    []Node
	body      []Node
	expr      Node
	arrow     bool
	generator bool
	async     bool
	home      *runtime.Object
}

// entry runs before parameters are bound, in the new function scope. Class
// constructors use it to install the super hook and field initializers.
type entry func(st *scope.Stack, sc *scope.Scope) error

func (l *lambda) length() int {
	n := 0
	for _, p := range l.params {
		switch p.(type) {
		case *AssignmentPattern, *RestElement:
			return n
		}
		n++
	}

	return n
}

// instantiate creates the function value, capturing s. Ordinary functions
// are constructible; methods and arrows are not.
func (l *lambda) instantiate(s *scope.Stack, constructible bool) *runtime.Function {
	closure := s.Copy()
	fn := runtime.NewFunction(l.name, l.length(), nil)
	fn.Arrow = l.arrow
	fn.Home = l.home
	if l.self != "" {
		closure.PushBlockScope().Define(l.self, fn)
	}

	fn.Fn = func(this any, args []any) (any, error) {
		return l.invoke(closure, this, args, nil, nil)
	}

	switch {
	case l.generator:
		proto := runtime.NewObject(runtime.GeneratorPrototype)
		fn.Define("prototype", &runtime.Property{Value: proto, Writable: true})
	case constructible && !l.arrow && !l.async:
		proto := runtime.NewObject(runtime.ObjectPrototype)
		proto.DefineHidden("constructor", fn)
		fn.Define("prototype", &runtime.Property{Value: proto, Writable: true})
		fn.Ctor = func(args []any, newTarget *runtime.Function) (any, error) {
			obj := runtime.CreateFromConstructor(newTarget, runtime.ObjectPrototype)
			r, err := l.invoke(closure, obj, args, newTarget, nil)
			if err != nil {
				return nil, err
			}
			if _, ok := r.(runtime.ObjectLike); ok {
				return r, nil
			}
			return obj, nil
		}
	}

	return fn
}

// invoke runs one call on a fresh copy of the captured stack. Generators
// and async functions return their generator or promise immediately.
func (l *lambda) invoke(closure *scope.Stack, this any, args []any, newTarget *runtime.Function, enter entry) (any, error) {
	st := closure.Copy()
	sc := st.PushScope(scope.Function)
	if !l.arrow {
		sc.Define(keyThis, this)
		sc.Define(keyArguments, runtime.NewArray(slices.Clone(args)))
		if newTarget != nil {
			sc.Define(keyNewTarget, newTarget)
		} else {
			sc.Define(keyNewTarget, runtime.Undefined)
		}
		if l.home != nil {
			sc.Define(keyHome, l.home)
		}
	}

	run := func() (any, error) {
		if enter != nil {
			if err := enter(st, sc); err != nil {
				return nil, err
			}
		}
		if err := bindParams(st, l.params, args); err != nil {
			return nil, err
		}
		return l.run(st)
	}

	switch {
	case l.generator:
		g := runtime.NewGenerator(func(yield runtime.Yielder) (any, error) {
			st.SetYielder(yield)
			return run()
		}, l.async)
		if g.Async {
			g.SetClass("AsyncGenerator")
		}
		return g, nil
	case l.async:
		return runtime.RunAsync(func(await runtime.Awaiter) (any, error) {
			st.SetAwaiter(await)
			return run()
		}), nil
	}

	return run()
}

func (l *lambda) run(st *scope.Stack) (any, error) {
	if l.expr != nil {
		return l.expr.Get(st)
	}

	if err := hoistVars(st, l.body); err != nil {
		return nil, err
	}
	v, err := statements(st, l.body)
	if err != nil {
		return nil, err
	}
	if r, ok := v.(*runtime.ReturnValue); ok {
		return r.Value, nil
	}

	return runtime.Undefined, nil
}

func bindParams(s *scope.Stack, params []Node, args []any) error {
	for i, p := range params {
		if rest, ok := p.(*RestElement); ok {
			var tail []any
			if i < len(args) {
				tail = slices.Clone(args[i:])
			}
			return declareTarget(s, rest.Argument, scope.Param, runtime.NewArray(tail))
		}

		var v any = runtime.Undefined
		if i < len(args) {
			v = args[i]
		}
		if err := declareTarget(s, p, scope.Param, v); err != nil {
			return err
		}
	}

	return nil
}

func params(list []Node) string { return "(" + join(list, ", ") + ")" }

func functionPrefix(async, generator bool) string {
	switch {
	case async && generator:
		return "async *"
	case async:
		return "async "
	case generator:
		return "*"
	}

	return ""
}

// FunctionDeclaration is a hoisted function statement.
type FunctionDeclaration struct {
	Span
	ID        *Identifier     `json:"id"`
	Params    []Node          `json:"params"`
	Body      *BlockStatement `json:"body"`
	Generator bool            `json:"generator"`
	Async     bool            `json:"async"`
}

func (n *FunctionDeclaration) Type() string { return "FunctionDeclaration" }

func (n *FunctionDeclaration) lambda() *lambda {
	l := &lambda{params: n.Params, body: n.Body.Body, generator: n.Generator, async: n.Async}
	if n.ID != nil {
		l.name = n.ID.Name
	}

	return l
}

// function creates the function value; declarations are bound by the
// enclosing statement list when it is entered.
func (n *FunctionDeclaration) function(s *scope.Stack) *runtime.Function {
	return n.lambda().instantiate(s, true)
}

// Get binds an export default function without a name. Named declarations
// are already hoisted.
func (n *FunctionDeclaration) Get(s *scope.Stack) (any, error) {
	if n.ID == nil {
		return n.function(s), nil
	}

	return s.Get(n.ID.Name), nil
}

func (n *FunctionDeclaration) Set(*scope.Stack, any) error { return noSet(n) }

func (n *FunctionDeclaration) String() string {
	var sb strings.Builder
	if n.Async {
		sb.WriteString("async ")
	}
	sb.WriteString("function")
	if n.Generator {
		sb.WriteByte('*')
	}
	if n.ID != nil {
		sb.WriteString(" " + n.ID.Name)
	}
	sb.WriteString(params(n.Params) + " " + n.Body.String())

	return sb.String()
}

func (n *FunctionDeclaration) Children() []Node {
	return append(append(optional(nil, n.ID), n.Params...), n.Body)
}

func (n *FunctionDeclaration) MarshalJSON() ([]byte, error) {
	type plain FunctionDeclaration
	return marshalNode(n.Type(), (*plain)(n))
}

// FunctionExpression is a function literal in expression position, and the
// value of object and class methods.
type FunctionExpression struct {
	Span
	ID        *Identifier     `json:"id"`
	Params    []Node          `json:"params"`
	Body      *BlockStatement `json:"body"`
	Generator bool            `json:"generator"`
	Async     bool            `json:"async"`
}

func (n *FunctionExpression) Type() string { return "FunctionExpression" }

func (n *FunctionExpression) lambda(name string) *lambda {
	l := &lambda{name: name, params: n.Params, body: n.Body.Body, generator: n.Generator, async: n.Async}
	if n.ID != nil {
		l.name, l.self = n.ID.Name, n.ID.Name
	}

	return l
}

func (n *FunctionExpression) Get(s *scope.Stack) (any, error) {
	return n.lambda("").instantiate(s, true), nil
}

func (n *FunctionExpression) named(s *scope.Stack, name string) (any, error) {
	return n.lambda(name).instantiate(s, true), nil
}

// method creates the function of an object or class method whose super
// lookups start from home's prototype.
func (n *FunctionExpression) method(s *scope.Stack, home *runtime.Object, name string) *runtime.Function {
	l := n.lambda(name)
	l.self, l.name, l.home = "", name, home

	return l.instantiate(s, false)
}

// prefix renders the async and generator markers of a method.
func (n *FunctionExpression) prefix() string { return functionPrefix(n.Async, n.Generator) }

// tail renders the parameters and body.
func (n *FunctionExpression) tail() string { return params(n.Params) + " " + n.Body.String() }

func (n *FunctionExpression) Set(*scope.Stack, any) error { return noSet(n) }

func (n *FunctionExpression) String() string {
	var sb strings.Builder
	if n.Async {
		sb.WriteString("async ")
	}
	sb.WriteString("function")
	if n.Generator {
		sb.WriteByte('*')
	}
	if n.ID != nil {
		sb.WriteString(" " + n.ID.Name)
	}
	sb.WriteString(n.tail())

	return sb.String()
}

func (n *FunctionExpression) Children() []Node {
	return append(append(optional(nil, n.ID), n.Params...), n.Body)
}

func (n *FunctionExpression) MarshalJSON() ([]byte, error) {
	type plain FunctionExpression
	return marshalNode(n.Type(), (*plain)(n))
}

// ArrowFunctionExpression is an arrow function. Body is a *BlockStatement
// or, when Expression is set, a single expression.
type ArrowFunctionExpression struct {
	Span
	Params     []Node `json:"params"`
	Body       Node   `json:"body"`
	Expression bool   `json:"expression"`
	Async      bool   `json:"async"`
}

func (n *ArrowFunctionExpression) Type() string { return "ArrowFunctionExpression" }

func (n *ArrowFunctionExpression) lambda(name string) *lambda {
	l := &lambda{name: name, params: n.Params, arrow: true, async: n.Async}
	if b, ok := n.Body.(*BlockStatement); ok && !n.Expression {
		l.body = b.Body
	} else {
		l.expr = n.Body
	}

	return l
}

func (n *ArrowFunctionExpression) Get(s *scope.Stack) (any, error) {
	return n.lambda("").instantiate(s, false), nil
}

func (n *ArrowFunctionExpression) named(s *scope.Stack, name string) (any, error) {
	return n.lambda(name).instantiate(s, false), nil
}

func (n *ArrowFunctionExpression) Set(*scope.Stack, any) error { return noSet(n) }

func (n *ArrowFunctionExpression) String() string {
	head := params(n.Params)
	if len(n.Params) == 1 {
		if id, ok := n.Params[0].(*Identifier); ok {
			head = id.Name
		}
	}
	if n.Async {
		head = "async " + head
	}

	body := n.Body.String()
	if _, ok := n.Body.(*ObjectExpression); ok {
		body = "(" + body + ")"
	} else if n.Expression {
		body = wrap(n.Body, precAssign)
	}

	return head + " => " + body
}

func (n *ArrowFunctionExpression) Children() []Node { return append(slices.Clone(n.Params), n.Body) }

func (n *ArrowFunctionExpression) MarshalJSON() ([]byte, error) {
	type plain ArrowFunctionExpression
	return marshalNode(n.Type(), (*plain)(n))
}

// YieldExpression hands a value to the generator driving the current body
// and evaluates to the value sent back by the consumer.
type YieldExpression struct {
	Span
	Argument Node `json:"argument"`
	Delegate bool `json:"delegate"`
}

func (n *YieldExpression) Type() string { return "YieldExpression" }

func (n *YieldExpression) Get(s *scope.Stack) (any, error) {
	yield := s.Yielder()
	if yield == nil {
		return nil, runtime.NewSyntaxError("yield is only valid in generator functions")
	}

	var v any = runtime.Undefined
	if n.Argument != nil {
		var err error
		if v, err = n.Argument.Get(s); err != nil {
			return nil, err
		}
	}
	if n.Delegate {
		return yield(&runtime.YieldDelegateValue{Value: v})
	}

	return yield(&runtime.YieldValue{Value: v})
}

func (n *YieldExpression) Set(*scope.Stack, any) error { return noSet(n) }

func (n *YieldExpression) String() string {
	word := "yield"
	if n.Delegate {
		word = "yield*"
	}
	if n.Argument == nil {
		return word
	}

	return word + " " + wrap(n.Argument, precAssign)
}

func (n *YieldExpression) Children() []Node { return optional(nil, n.Argument) }

func (n *YieldExpression) MarshalJSON() ([]byte, error) {
	type plain YieldExpression
	return marshalNode(n.Type(), (*plain)(n))
}

// AwaitExpression settles its operand. Inside async functions the body is
// suspended until the operand settles; elsewhere evaluation blocks.
type AwaitExpression struct {
	Span
	Argument Node `json:"argument"`
}

func (n *AwaitExpression) Type() string { return "AwaitExpression" }

func (n *AwaitExpression) Get(s *scope.Stack) (any, error) {
	v, err := n.Argument.Get(s)
	if err != nil {
		return nil, err
	}

	return s.Await(v)
}

func (n *AwaitExpression) Set(*scope.Stack, any) error { return noSet(n) }
func (n *AwaitExpression) String() string              { return "await " + wrap(n.Argument, precUnary) }
func (n *AwaitExpression) Children() []Node            { return []Node{n.Argument} }

func (n *AwaitExpression) MarshalJSON() ([]byte, error) {
	type plain AwaitExpression
	return marshalNode(n.Type(), (*plain)(n))
}
