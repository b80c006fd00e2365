package ast

import (
	"github.com/example/expressions/runtime"
	"github.com/example/expressions/scope"
)

// privateKey is the key of a #name member access.
type privateKey string

// MemberExpression is object.property, object[property] or object.#name.
type MemberExpression struct {
	Span
	Object   Node `json:"object"`
	Property Node `json:"property"`
	Computed bool `json:"computed"`
	Optional bool `json:"optional"`
}

func (n *MemberExpression) Type() string { return "MemberExpression" }

// target evaluates the object and key. For super access the object is the
// prototype of the method's home object.
func (n *MemberExpression) target(s *scope.Stack) (obj any, key any, err error) {
	if _, ok := n.Object.(*Super); ok {
		home, ok := s.Get(keyHome).(*runtime.Object)
		if !ok {
			return nil, nil, runtime.NewSyntaxError("'super' keyword unexpected here")
		}
		obj = runtime.Undefined
		if p := home.Proto(); p != nil {
			obj = p
		}
	} else {
		if obj, err = n.Object.Get(s); err != nil {
			return nil, nil, err
		}
		if n.Optional && runtime.IsNullish(obj) {
			return nil, nil, errChainBreak
		}
	}

	if p, ok := n.Property.(*PrivateIdentifier); ok {
		return obj, privateKey(p.Name), nil
	}
	if key, err = propertyKey(s, n.Property, n.Computed); err != nil {
		return nil, nil, err
	}

	return obj, key, nil
}

// read looks up key on obj without binding the result.
func (n *MemberExpression) read(s *scope.Stack, obj, key any) (any, error) {
	if name, ok := key.(privateKey); ok {
		table, err := privateTable(s, string(name))
		if err != nil {
			return nil, err
		}
		return table.Get(obj, string(name))
	}
	if _, ok := n.Object.(*Super); ok {
		return runtime.GetMemberWithReceiver(obj, key, s.Get(keyThis))
	}

	return runtime.GetMember(obj, key)
}

// Get reads the member. Functions read off an object come back bound to
// it, so extracted methods keep their receiver.
func (n *MemberExpression) Get(s *scope.Stack) (any, error) {
	obj, key, err := n.target(s)
	if err != nil {
		return nil, err
	}
	v, err := n.read(s, obj, key)
	if err != nil {
		return nil, err
	}

	receiver := obj
	if _, ok := n.Object.(*Super); ok {
		receiver = s.Get(keyThis)
	}
	if _, ok := receiver.(runtime.ObjectLike); ok {
		return runtime.Bind(v, receiver), nil
	}

	return v, nil
}

func (n *MemberExpression) write(s *scope.Stack, obj, key, value any) error {
	if name, ok := key.(privateKey); ok {
		table, err := privateTable(s, string(name))
		if err != nil {
			return err
		}
		return table.Set(obj, string(name), value)
	}
	if _, ok := n.Object.(*Super); ok {
		return runtime.SetMemberWithReceiver(s.Get(keyThis), key, value, s.Get(keyThis))
	}

	return runtime.SetMember(obj, key, value)
}

func (n *MemberExpression) Set(s *scope.Stack, value any) error {
	obj, key, err := n.target(s)
	if err != nil {
		return err
	}

	return n.write(s, obj, key, value)
}

func (n *MemberExpression) resolve(s *scope.Stack) (reference, error) {
	obj, key, err := n.target(s)
	if err != nil {
		return reference{}, err
	}

	return reference{
		get: func() (any, error) { return n.read(s, obj, key) },
		set: func(v any) error { return n.write(s, obj, key, v) },
	}, nil
}

func (n *MemberExpression) String() string {
	obj := wrap(n.Object, precMember)
	if _, ok := n.Object.(*Literal); ok && !n.Computed {
		if _, isNum := n.Object.(*Literal).Value.(float64); isNum {
			obj = "(" + obj + ")"
		}
	}

	switch {
	case n.Computed && n.Optional:
		return obj + "?.[" + n.Property.String() + "]"
	case n.Computed:
		return obj + "[" + n.Property.String() + "]"
	case n.Optional:
		return obj + "?." + n.Property.String()
	}

	return obj + "." + n.Property.String()
}

func (n *MemberExpression) Children() []Node { return []Node{n.Object, n.Property} }

func (n *MemberExpression) MarshalJSON() ([]byte, error) {
	type plain MemberExpression
	return marshalNode(n.Type(), (*plain)(n))
}

// ChainExpression delimits an optional chain. A short-circuit anywhere
// inside yields undefined for the whole chain.
type ChainExpression struct {
	Span
	Expression Node `json:"expression"`
}

func (n *ChainExpression) Type() string { return "ChainExpression" }

func (n *ChainExpression) Get(s *scope.Stack) (any, error) {
	v, err := n.Expression.Get(s)
	if err == errChainBreak {
		return runtime.Undefined, nil
	}

	return v, err
}

func (n *ChainExpression) Set(*scope.Stack, any) error { return noSet(n) }
func (n *ChainExpression) String() string              { return n.Expression.String() }
func (n *ChainExpression) Children() []Node            { return []Node{n.Expression} }

func (n *ChainExpression) MarshalJSON() ([]byte, error) {
	type plain ChainExpression
	return marshalNode(n.Type(), (*plain)(n))
}

// CallExpression calls Callee. A Super callee constructs the parent class
// from a derived constructor.
type CallExpression struct {
	Span
	Callee    Node   `json:"callee"`
	Arguments []Node `json:"arguments"`
	Optional  bool   `json:"optional"`
}

func (n *CallExpression) Type() string { return "CallExpression" }

func (n *CallExpression) Get(s *scope.Stack) (any, error) {
	if _, ok := n.Callee.(*Super); ok {
		return n.super(s)
	}

	fn, this, err := callee(s, n.Callee)
	if err != nil {
		return nil, err
	}
	if n.Optional && runtime.IsNullish(fn) {
		return nil, errChainBreak
	}
	args, err := arguments(s, n.Arguments)
	if err != nil {
		return nil, err
	}

	return call(fn, this, args, n.Callee)
}

func (n *CallExpression) super(s *scope.Stack) (any, error) {
	hook, ok := s.Lookup(keySuper)
	if !ok || !runtime.IsCallable(hook) {
		return nil, runtime.NewSyntaxError("'super' keyword unexpected here")
	}
	args, err := arguments(s, n.Arguments)
	if err != nil {
		return nil, err
	}

	return runtime.Call(hook, runtime.Undefined, args)
}

func (n *CallExpression) Set(*scope.Stack, any) error { return noSet(n) }

func (n *CallExpression) String() string {
	c := wrap(n.Callee, precCall)
	if _, ok := n.Callee.(*NewExpression); ok {
		c = "(" + n.Callee.String() + ")"
	}
	if n.Optional {
		c += "?."
	}

	return c + "(" + join(n.Arguments, ", ") + ")"
}

func (n *CallExpression) Children() []Node { return append([]Node{n.Callee}, n.Arguments...) }

func (n *CallExpression) MarshalJSON() ([]byte, error) {
	type plain CallExpression
	return marshalNode(n.Type(), (*plain)(n))
}

// NewExpression is new Callee(Arguments).
type NewExpression struct {
	Span
	Callee    Node   `json:"callee"`
	Arguments []Node `json:"arguments"`
}

func (n *NewExpression) Type() string { return "NewExpression" }

func (n *NewExpression) Get(s *scope.Stack) (any, error) {
	fn, err := n.Callee.Get(s)
	if err != nil {
		return nil, err
	}
	args, err := arguments(s, n.Arguments)
	if err != nil {
		return nil, err
	}
	if !runtime.IsConstructor(fn) {
		return nil, runtime.NewTypeError("%s is not a constructor", n.Callee.String())
	}

	return runtime.Construct(fn, args, nil)
}

func (n *NewExpression) Set(*scope.Stack, any) error { return noSet(n) }

func (n *NewExpression) String() string {
	c := wrap(n.Callee, precMember)
	if _, ok := n.Callee.(*CallExpression); ok {
		c = "(" + n.Callee.String() + ")"
	}

	return "new " + c + "(" + join(n.Arguments, ", ") + ")"
}

func (n *NewExpression) Children() []Node { return append([]Node{n.Callee}, n.Arguments...) }

func (n *NewExpression) MarshalJSON() ([]byte, error) {
	type plain NewExpression
	return marshalNode(n.Type(), (*plain)(n))
}

// ImportExpression is a dynamic import(source, options). It returns a
// promise of the module namespace produced by the stack's loader.
type ImportExpression struct {
	Span
	Source  Node `json:"source"`
	Options Node `json:"options,omitempty"`
}

func (n *ImportExpression) Type() string { return "ImportExpression" }

func (n *ImportExpression) Get(s *scope.Stack) (any, error) {
	src, err := n.Source.Get(s)
	if err != nil {
		return nil, err
	}
	var attrs map[string]string
	if n.Options != nil {
		opts, err := n.Options.Get(s)
		if err != nil {
			return nil, err
		}
		if attrs, err = importAttributes(opts); err != nil {
			return runtime.RejectedPromise(runtime.ErrorValue(err)), nil
		}
	}

	loader := s.Loader()
	if loader == nil {
		return runtime.RejectedPromise(runtime.MakeError("TypeError", "Cannot import '"+runtime.ToString(src)+"': no module loader")), nil
	}
	ns, err := loader.Load(s.Context(), runtime.ToString(src), attrs)
	if err != nil {
		return runtime.RejectedPromise(runtime.ErrorValue(err)), nil
	}

	return runtime.PromiseFrom(ns), nil
}

// importAttributes reads the `with` object of import options.
func importAttributes(opts any) (map[string]string, error) {
	if runtime.IsUndefined(opts) {
		return nil, nil
	}
	with, err := runtime.GetMember(opts, "with")
	if err != nil || runtime.IsUndefined(with) {
		return nil, err
	}

	attrs := make(map[string]string)
	for _, k := range runtime.OwnKeys(with) {
		v, err := runtime.GetMember(with, k)
		if err != nil {
			return nil, err
		}
		if _, ok := v.(string); !ok {
			return nil, runtime.NewTypeError("import attribute %s must be a string", k)
		}
		attrs[k] = v.(string)
	}

	return attrs, nil
}

func (n *ImportExpression) Set(*scope.Stack, any) error { return noSet(n) }

func (n *ImportExpression) String() string {
	if n.Options != nil {
		return "import(" + wrap(n.Source, precAssign) + ", " + wrap(n.Options, precAssign) + ")"
	}

	return "import(" + wrap(n.Source, precAssign) + ")"
}

func (n *ImportExpression) Children() []Node { return optional([]Node{n.Source}, n.Options) }

func (n *ImportExpression) MarshalJSON() ([]byte, error) {
	type plain ImportExpression
	return marshalNode(n.Type(), (*plain)(n))
}
