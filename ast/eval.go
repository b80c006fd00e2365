package ast

import (
	"github.com/example/expressions/runtime"
	"github.com/example/expressions/scope"
)

// exec evaluates one statement, then settles what the statement left in
// the stack's side channels: queued awaits first, then an active for await
// loop.
func exec(s *scope.Stack, n Node) (any, error) {
	v, err := n.Get(s)
	if err != nil {
		return nil, err
	}

	if s.PendingAwaits() {
		if err := s.DrainAwaits(); err != nil {
			return nil, err
		}
	}

	if it := s.TakeForAwait(); it != nil {
		r, err := driveForAwait(it)
		if err != nil {
			return nil, err
		}
		if r != nil {
			v = r
		}
	}

	return v, nil
}

func driveForAwait(it *scope.AsyncIteration) (any, error) {
	for {
		v, done, err := it.Iterator.Next()
		if err != nil {
			return nil, err
		}
		if done {
			return nil, nil
		}

		r, err := it.Step(v)
		if err != nil {
			_ = it.Iterator.Close()
			return nil, err
		}
		if r != nil {
			return r, it.Iterator.Close()
		}
	}
}

// statements runs a statement list in the current scope. Function
// declarations are hoisted first. The result is the completion value of
// the last value-producing statement, or the sentinel that stopped the
// list.
func statements(s *scope.Stack, list []Node) (any, error) {
	if err := hoistFunctions(s, list); err != nil {
		return nil, err
	}

	var result any = runtime.Undefined
	for _, st := range list {
		v, err := exec(s, st)
		if err != nil {
			return nil, err
		}
		if _, ok := v.(runtime.Sentinel); ok {
			return v, nil
		}
		if producesValue(st) {
			result = v
		}
	}

	return result, nil
}

func producesValue(n Node) bool {
	switch n.(type) {
	case *VariableDeclaration, *FunctionDeclaration, *ClassDeclaration, *EmptyStatement,
		*ImportDeclaration, *ExportNamedDeclaration, *ExportDefaultDeclaration, *ExportAllDeclaration:
		return false
	}

	return true
}

// unwrapDeclaration looks through export and label wrappers.
func unwrapDeclaration(n Node) Node {
	for {
		switch d := n.(type) {
		case *ExportNamedDeclaration:
			if d.Declaration == nil {
				return nil
			}
			n = d.Declaration
		case *ExportDefaultDeclaration:
			n = d.Declaration
		case *LabeledStatement:
			n = d.Body
		default:
			return n
		}
	}
}

func hoistFunctions(s *scope.Stack, list []Node) error {
	for _, st := range list {
		fd, ok := unwrapDeclaration(st).(*FunctionDeclaration)
		if !ok || fd.ID == nil {
			continue
		}
		if err := s.DeclareVariable(scope.FunctionBinding, fd.ID.Name, fd.function(s)); err != nil {
			return err
		}
	}

	return nil
}

// hoistVars declares every var bound in list, outside nested functions, as
// undefined in the nearest function scope.
func hoistVars(s *scope.Stack, list []Node) error {
	var names []string
	for _, st := range list {
		Walk(st, func(n Node) bool {
			switch n := n.(type) {
			case *FunctionDeclaration, *FunctionExpression, *ArrowFunctionExpression,
				*ClassDeclaration, *ClassExpression:
				return false
			case *VariableDeclaration:
				if n.Kind == "var" {
					for _, d := range n.Declarations {
						names = append(names, BoundNames(d.ID)...)
					}
				}
			}
			return true
		})
	}

	for _, name := range names {
		if err := s.DeclareVariable(scope.Var, name, runtime.Undefined); err != nil {
			return err
		}
	}

	return nil
}

// BoundNames returns the identifiers a binding target declares.
func BoundNames(target Node) []string {
	switch t := target.(type) {
	case *Identifier:
		return []string{t.Name}
	case *AssignmentPattern:
		return BoundNames(t.Left)
	case *RestElement:
		return BoundNames(t.Argument)
	case *ArrayPattern:
		var out []string
		for _, e := range t.Elements {
			if e != nil {
				out = append(out, BoundNames(e)...)
			}
		}
		return out
	case *ObjectPattern:
		var out []string
		for _, p := range t.Properties {
			switch p := p.(type) {
			case *Property:
				out = append(out, BoundNames(p.Value)...)
			default:
				out = append(out, BoundNames(p)...)
			}
		}
		return out
	}

	return nil
}

// callee evaluates the callee of a call and the receiver it is called on.
// Method calls keep their object as receiver without binding.
func callee(s *scope.Stack, n Node) (fn any, this any, err error) {
	if m, ok := n.(*MemberExpression); ok {
		obj, key, err := m.target(s)
		if err != nil {
			return nil, nil, err
		}
		fn, err := m.read(s, obj, key)
		if err != nil {
			return nil, nil, err
		}
		if _, isSuper := m.Object.(*Super); isSuper {
			obj = s.Get(keyThis)
		}
		return fn, obj, nil
	}

	fn, err = n.Get(s)
	if err != nil {
		return nil, nil, err
	}

	return fn, runtime.Undefined, nil
}

// call invokes fn, naming the call site in the error for non-callables.
func call(fn any, this any, args []any, site Node) (any, error) {
	if !runtime.IsCallable(fn) {
		return nil, runtime.NewTypeError("%s is not a function", site.String())
	}

	return runtime.Call(fn, this, args)
}

// arguments evaluates an argument list, expanding spread elements.
func arguments(s *scope.Stack, list []Node) ([]any, error) {
	args := make([]any, 0, len(list))
	for _, a := range list {
		if sp, ok := a.(*SpreadElement); ok {
			v, err := sp.Argument.Get(s)
			if err != nil {
				return nil, err
			}
			items, err := runtime.Collect(v)
			if err != nil {
				return nil, err
			}
			args = append(args, items...)
			continue
		}

		v, err := a.Get(s)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	return args, nil
}

// propertyKey evaluates an object or class member key.
func propertyKey(s *scope.Stack, key Node, computed bool) (any, error) {
	if computed {
		v, err := key.Get(s)
		if err != nil {
			return nil, err
		}
		return runtime.ToPropertyKey(v), nil
	}

	switch k := key.(type) {
	case *Identifier:
		return k.Name, nil
	case *PrivateIdentifier:
		return "#" + k.Name, nil
	case *Literal:
		v, err := k.Get(s)
		if err != nil {
			return nil, err
		}
		return runtime.ToPropertyKey(v), nil
	}

	return nil, runtime.NewSyntaxError("invalid property key %s", key.String())
}

func keyName(key Node, computed bool) string {
	if computed {
		return "[" + key.String() + "]"
	}

	return key.String()
}

// namer is implemented by anonymous function and class expressions, which
// take the name of the binding they are assigned to.
type namer interface {
	named(s *scope.Stack, name string) (any, error)
}

// getNamed evaluates n, naming it after name when n is an anonymous
// function or class.
func getNamed(s *scope.Stack, n Node, name string) (any, error) {
	if nm, ok := n.(namer); ok {
		return nm.named(s, name)
	}

	return n.Get(s)
}

func targetName(n Node) string {
	if id, ok := n.(*Identifier); ok {
		return id.Name
	}

	return ""
}

// declareTarget binds target, which may be a pattern, with a declaration.
func declareTarget(s *scope.Stack, target Node, b scope.Binding, v any) error {
	d, ok := target.(scope.Declarer)
	if !ok {
		return runtime.NewSyntaxError("Invalid destructuring target %s", target.String())
	}

	return d.Declare(s, b, v)
}

// reference is a resolved assignment target whose object and key are
// evaluated once, for compound assignment and update expressions.
type reference struct {
	get func() (any, error)
	set func(any) error
}

type resolver interface {
	resolve(s *scope.Stack) (reference, error)
}

func resolve(s *scope.Stack, n Node) (reference, error) {
	if r, ok := n.(resolver); ok {
		return r.resolve(s)
	}

	return reference{
		get: func() (any, error) { return n.Get(s) },
		set: func(v any) error { return n.Set(s, v) },
	}, nil
}

func (n *Identifier) resolve(s *scope.Stack) (reference, error) {
	return reference{
		get: func() (any, error) { return s.Get(n.Name), nil },
		set: func(v any) error { return s.Set(n.Name, v) },
	}, nil
}
