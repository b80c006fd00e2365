package ast

import (
	"slices"
	"strings"

	"github.com/example/expressions/runtime"
	"github.com/example/expressions/scope"
)

// ArrayExpression is an array literal. Nil elements are holes.
type ArrayExpression struct {
	Span
	Elements []Node `json:"elements"`
}

func (n *ArrayExpression) Type() string { return "ArrayExpression" }

func (n *ArrayExpression) Get(s *scope.Stack) (any, error) {
	elems := make([]any, 0, len(n.Elements))
	for _, e := range n.Elements {
		switch e := e.(type) {
		case nil:
			elems = append(elems, runtime.Undefined)
		case *SpreadElement:
			v, err := e.Argument.Get(s)
			if err != nil {
				return nil, err
			}
			items, err := runtime.Collect(v)
			if err != nil {
				return nil, err
			}
			elems = append(elems, items...)
		default:
			v, err := e.Get(s)
			if err != nil {
				return nil, err
			}
			elems = append(elems, v)
		}
	}

	return runtime.NewArray(elems), nil
}

// Set destructures value into the elements, as an array pattern would.
func (n *ArrayExpression) Set(s *scope.Stack, value any) error {
	return destructureArray(s, n.Elements, value, assign(s))
}

func (n *ArrayExpression) String() string { return "[" + elements(n.Elements) + "]" }

func (n *ArrayExpression) Children() []Node { return optional(nil, n.Elements...) }

func (n *ArrayExpression) MarshalJSON() ([]byte, error) {
	type plain ArrayExpression
	return marshalNode(n.Type(), (*plain)(n))
}

func elements(list []Node) string {
	parts := make([]string, len(list))
	for i, e := range list {
		if e != nil {
			parts[i] = wrap(e, precAssign)
		}
	}
	out := strings.Join(parts, ", ")
	if len(list) > 0 && list[len(list)-1] == nil {
		out += ","
	}

	return out
}

// ObjectExpression is an object literal. Properties holds *Property and
// *SpreadElement nodes.
type ObjectExpression struct {
	Span
	Properties []Node `json:"properties"`
}

func (n *ObjectExpression) Type() string { return "ObjectExpression" }

func (n *ObjectExpression) Get(s *scope.Stack) (any, error) {
	obj := runtime.NewObject(runtime.ObjectPrototype)

	for _, p := range n.Properties {
		if sp, ok := p.(*SpreadElement); ok {
			v, err := sp.Argument.Get(s)
			if err != nil {
				return nil, err
			}
			if err := copyProperties(obj, v, nil); err != nil {
				return nil, err
			}
			continue
		}

		prop, ok := p.(*Property)
		if !ok {
			return nil, runtime.NewSyntaxError("unexpected %s in object literal", p.Type())
		}
		if err := prop.define(s, obj); err != nil {
			return nil, err
		}
	}

	return obj, nil
}

// Set destructures value into the properties, as an object pattern would.
func (n *ObjectExpression) Set(s *scope.Stack, value any) error {
	return destructureObject(s, n.Properties, value, assign(s))
}

func (n *ObjectExpression) String() string { return properties(n.Properties) }

func (n *ObjectExpression) Children() []Node { return n.Properties }

func (n *ObjectExpression) MarshalJSON() ([]byte, error) {
	type plain ObjectExpression
	return marshalNode(n.Type(), (*plain)(n))
}

func properties(list []Node) string {
	if len(list) == 0 {
		return "{}"
	}
	parts := make([]string, len(list))
	for i, p := range list {
		parts[i] = p.String()
	}

	return "{ " + strings.Join(parts, ", ") + " }"
}

// copyProperties copies the own enumerable properties of src onto dst,
// skipping the keys in exclude.
func copyProperties(dst *runtime.Object, src any, exclude []string) error {
	if runtime.IsNullish(src) {
		return nil
	}
	for _, k := range runtime.OwnKeys(src) {
		if slices.Contains(exclude, k) {
			continue
		}
		v, err := runtime.GetMember(src, k)
		if err != nil {
			return err
		}
		dst.Put(k, v)
	}

	return nil
}

// Property is a key/value entry of an object literal or object pattern.
// Kind is "init", "get" or "set".
type Property struct {
	Span
	Key       Node   `json:"key"`
	Value     Node   `json:"value"`
	Kind      string `json:"kind"`
	Computed  bool   `json:"computed"`
	Method    bool   `json:"method"`
	Shorthand bool   `json:"shorthand"`
}

func (n *Property) Type() string { return "Property" }

// Get evaluates the property value.
func (n *Property) Get(s *scope.Stack) (any, error) { return n.Value.Get(s) }

func (n *Property) Set(*scope.Stack, any) error { return noSet(n) }

func (n *Property) define(s *scope.Stack, obj *runtime.Object) error {
	key, err := propertyKey(s, n.Key, n.Computed)
	if err != nil {
		return err
	}
	name := runtime.ToString(key)

	switch {
	case n.Kind == "get" || n.Kind == "set":
		fe, ok := n.Value.(*FunctionExpression)
		if !ok {
			return runtime.NewSyntaxError("accessor %s must be a function", name)
		}
		fn := fe.method(s, obj, n.Kind+" "+name)
		defineAccessor(obj, key, n.Kind, fn, true)
		return nil

	case n.Method:
		fe, ok := n.Value.(*FunctionExpression)
		if !ok {
			return runtime.NewSyntaxError("method %s must be a function", name)
		}
		obj.Put(key, fe.method(s, obj, name))
		return nil

	case !n.Computed && !n.Shorthand && name == "__proto__":
		v, err := n.Value.Get(s)
		if err != nil {
			return err
		}
		switch p := v.(type) {
		case nil:
			obj.SetProto(nil)
		case runtime.ObjectLike:
			obj.SetProto(p.Base())
		}
		return nil
	}

	v, err := getNamed(s, n.Value, name)
	if err != nil {
		return err
	}
	obj.Put(key, v)

	return nil
}

// defineAccessor installs a getter or setter, keeping the other half of an
// existing accessor pair.
func defineAccessor(obj *runtime.Object, key any, kind string, fn *runtime.Function, enumerable bool) {
	prop, ok := obj.Own(key)
	if !ok || !prop.IsAccessor() {
		prop = &runtime.Property{Enumerable: enumerable, Configurable: true}
	}
	if kind == "get" {
		prop.Getter = fn
	} else {
		prop.Setter = fn
	}
	obj.Define(key, prop)
}

func (n *Property) String() string {
	key := keyName(n.Key, n.Computed)
	switch {
	case n.Kind == "get" || n.Kind == "set":
		return n.Kind + " " + key + n.Value.(*FunctionExpression).tail()
	case n.Method:
		fe := n.Value.(*FunctionExpression)
		return fe.prefix() + key + fe.tail()
	case n.Shorthand:
		return n.Value.String()
	}

	return key + ": " + wrap(n.Value, precAssign)
}

func (n *Property) Children() []Node { return []Node{n.Key, n.Value} }

func (n *Property) MarshalJSON() ([]byte, error) {
	type plain Property
	return marshalNode(n.Type(), (*plain)(n))
}

// SpreadElement is ...argument in array literals, object literals and
// argument lists.
type SpreadElement struct {
	Span
	Argument Node `json:"argument"`
}

func (n *SpreadElement) Type() string                    { return "SpreadElement" }
func (n *SpreadElement) Get(s *scope.Stack) (any, error) { return n.Argument.Get(s) }
func (n *SpreadElement) Set(*scope.Stack, any) error     { return noSet(n) }
func (n *SpreadElement) String() string                  { return "..." + wrap(n.Argument, precAssign) }
func (n *SpreadElement) Children() []Node                { return []Node{n.Argument} }

func (n *SpreadElement) MarshalJSON() ([]byte, error) {
	type plain SpreadElement
	return marshalNode(n.Type(), (*plain)(n))
}

// RestElement is the ...target of a pattern or parameter list.
type RestElement struct {
	Span
	Argument Node `json:"argument"`
}

func (n *RestElement) Type() string { return "RestElement" }

func (n *RestElement) Get(*scope.Stack) (any, error) {
	return nil, runtime.NoImplementation(n.Type(), "get")
}

func (n *RestElement) Set(s *scope.Stack, value any) error { return n.Argument.Set(s, value) }

func (n *RestElement) Declare(s *scope.Stack, b scope.Binding, value any) error {
	return declareTarget(s, n.Argument, b, value)
}

func (n *RestElement) String() string   { return "..." + n.Argument.String() }
func (n *RestElement) Children() []Node { return []Node{n.Argument} }

func (n *RestElement) MarshalJSON() ([]byte, error) {
	type plain RestElement
	return marshalNode(n.Type(), (*plain)(n))
}

// ArrayPattern destructures an iterable. Nil elements skip a value.
type ArrayPattern struct {
	Span
	Elements []Node `json:"elements"`
}

func (n *ArrayPattern) Type() string { return "ArrayPattern" }

func (n *ArrayPattern) Get(*scope.Stack) (any, error) {
	return nil, runtime.NoImplementation(n.Type(), "get")
}

func (n *ArrayPattern) Set(s *scope.Stack, value any) error {
	return destructureArray(s, n.Elements, value, assign(s))
}

func (n *ArrayPattern) Declare(s *scope.Stack, b scope.Binding, value any) error {
	return destructureArray(s, n.Elements, value, declare(s, b))
}

func (n *ArrayPattern) String() string   { return "[" + elements(n.Elements) + "]" }
func (n *ArrayPattern) Children() []Node { return optional(nil, n.Elements...) }

func (n *ArrayPattern) MarshalJSON() ([]byte, error) {
	type plain ArrayPattern
	return marshalNode(n.Type(), (*plain)(n))
}

// ObjectPattern destructures an object. Properties holds *Property nodes
// whose values are targets, and at most one trailing *RestElement.
type ObjectPattern struct {
	Span
	Properties []Node `json:"properties"`
}

func (n *ObjectPattern) Type() string { return "ObjectPattern" }

func (n *ObjectPattern) Get(*scope.Stack) (any, error) {
	return nil, runtime.NoImplementation(n.Type(), "get")
}

func (n *ObjectPattern) Set(s *scope.Stack, value any) error {
	return destructureObject(s, n.Properties, value, assign(s))
}

func (n *ObjectPattern) Declare(s *scope.Stack, b scope.Binding, value any) error {
	return destructureObject(s, n.Properties, value, declare(s, b))
}

func (n *ObjectPattern) String() string   { return properties(n.Properties) }
func (n *ObjectPattern) Children() []Node { return n.Properties }

func (n *ObjectPattern) MarshalJSON() ([]byte, error) {
	type plain ObjectPattern
	return marshalNode(n.Type(), (*plain)(n))
}

// AssignmentPattern is a target with a default, used when the incoming
// value is undefined.
type AssignmentPattern struct {
	Span
	Left  Node `json:"left"`
	Right Node `json:"right"`
}

func (n *AssignmentPattern) Type() string { return "AssignmentPattern" }

func (n *AssignmentPattern) Get(*scope.Stack) (any, error) {
	return nil, runtime.NoImplementation(n.Type(), "get")
}

func (n *AssignmentPattern) withDefault(s *scope.Stack, value any) (any, error) {
	if !runtime.IsUndefined(value) {
		return value, nil
	}

	return getNamed(s, n.Right, targetName(n.Left))
}

func (n *AssignmentPattern) Set(s *scope.Stack, value any) error {
	v, err := n.withDefault(s, value)
	if err != nil {
		return err
	}

	return n.Left.Set(s, v)
}

func (n *AssignmentPattern) Declare(s *scope.Stack, b scope.Binding, value any) error {
	v, err := n.withDefault(s, value)
	if err != nil {
		return err
	}

	return declareTarget(s, n.Left, b, v)
}

func (n *AssignmentPattern) String() string {
	return n.Left.String() + " = " + wrap(n.Right, precAssign)
}

func (n *AssignmentPattern) Children() []Node { return []Node{n.Left, n.Right} }

func (n *AssignmentPattern) MarshalJSON() ([]byte, error) {
	type plain AssignmentPattern
	return marshalNode(n.Type(), (*plain)(n))
}

// put writes one destructured value to its target.
type put func(target Node, value any) error

func assign(s *scope.Stack) put {
	return func(target Node, v any) error { return target.Set(s, v) }
}

func declare(s *scope.Stack, b scope.Binding) put {
	return func(target Node, v any) error { return declareTarget(s, target, b, v) }
}

func destructureArray(s *scope.Stack, elems []Node, value any, write put) error {
	if runtime.IsNullish(value) {
		return runtime.NewTypeError("%s is not iterable", runtime.ToString(value))
	}
	it, err := runtime.GetIterator(value)
	if err != nil {
		return err
	}

	done := false
	next := func() (any, error) {
		if done {
			return runtime.Undefined, nil
		}
		v, d, err := it.Next()
		if err != nil || d {
			done = true
			return runtime.Undefined, err
		}
		return v, nil
	}

	for _, e := range elems {
		if rest, ok := e.(*RestElement); ok {
			var items []any
			for !done {
				v, err := next()
				if err != nil {
					return err
				}
				if !done {
					items = append(items, v)
				}
			}
			if err := write(rest.Argument, runtime.NewArray(items)); err != nil {
				return err
			}
			continue
		}

		v, err := next()
		if err != nil {
			return err
		}
		if e == nil {
			continue
		}
		if err := write(e, v); err != nil {
			if !done {
				_ = it.Close()
			}
			return err
		}
	}

	if !done {
		return it.Close()
	}

	return nil
}

func destructureObject(s *scope.Stack, props []Node, value any, write put) error {
	if runtime.IsNullish(value) {
		return runtime.NewTypeError("Cannot destructure '%s' as it is %s.", runtime.ToString(value), runtime.ToString(value))
	}

	var used []string
	for _, p := range props {
		switch p := p.(type) {
		case *Property:
			key, err := propertyKey(s, p.Key, p.Computed)
			if err != nil {
				return err
			}
			v, err := runtime.GetMember(value, key)
			if err != nil {
				return err
			}
			if k, ok := key.(string); ok {
				used = append(used, k)
			}
			if err := write(p.Value, v); err != nil {
				return err
			}
		case *RestElement:
			rest := runtime.NewObject(runtime.ObjectPrototype)
			if err := copyProperties(rest, value, used); err != nil {
				return err
			}
			if err := write(p.Argument, rest); err != nil {
				return err
			}
		default:
			return runtime.NewSyntaxError("unexpected %s in object pattern", p.Type())
		}
	}

	return nil
}
