package ast

import (
	"strconv"
	"strings"

	"github.com/example/expressions/runtime"
	"github.com/example/expressions/scope"
)

// ClassDeclaration is a class statement. The binding is lexical and not
// hoisted.
type ClassDeclaration struct {
	Span
	ID         *Identifier `json:"id"`
	SuperClass Node        `json:"superClass"`
	Body       *ClassBody  `json:"body"`
}

func (n *ClassDeclaration) Type() string { return "ClassDeclaration" }

func (n *ClassDeclaration) Get(s *scope.Stack) (any, error) {
	name := ""
	if n.ID != nil {
		name = n.ID.Name
	}
	cls, err := n.Body.define(s, name, n.SuperClass)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return cls, nil
	}
	if err := s.DeclareVariable(scope.ClassBinding, name, cls); err != nil {
		return nil, err
	}

	return runtime.Undefined, nil
}

func (n *ClassDeclaration) Set(*scope.Stack, any) error { return noSet(n) }

func (n *ClassDeclaration) String() string { return classString(n.ID, n.SuperClass, n.Body) }

func (n *ClassDeclaration) Children() []Node {
	return append(optional(nil, n.ID, n.SuperClass), n.Body)
}

func (n *ClassDeclaration) MarshalJSON() ([]byte, error) {
	type plain ClassDeclaration
	return marshalNode(n.Type(), (*plain)(n))
}

// ClassExpression is a class literal in expression position.
type ClassExpression struct {
	Span
	ID         *Identifier `json:"id"`
	SuperClass Node        `json:"superClass"`
	Body       *ClassBody  `json:"body"`
}

func (n *ClassExpression) Type() string { return "ClassExpression" }

func (n *ClassExpression) Get(s *scope.Stack) (any, error) { return n.named(s, "") }

func (n *ClassExpression) named(s *scope.Stack, name string) (any, error) {
	if n.ID != nil {
		name = n.ID.Name
	}

	return n.Body.define(s, name, n.SuperClass)
}

func (n *ClassExpression) Set(*scope.Stack, any) error { return noSet(n) }

func (n *ClassExpression) String() string { return classString(n.ID, n.SuperClass, n.Body) }

func (n *ClassExpression) Children() []Node {
	return append(optional(nil, n.ID, n.SuperClass), n.Body)
}

func (n *ClassExpression) MarshalJSON() ([]byte, error) {
	type plain ClassExpression
	return marshalNode(n.Type(), (*plain)(n))
}

func classString(id *Identifier, super Node, body *ClassBody) string {
	var sb strings.Builder
	sb.WriteString("class")
	if id != nil {
		sb.WriteString(" " + id.Name)
	}
	if super != nil {
		sb.WriteString(" extends " + wrap(super, precCall))
	}
	sb.WriteString(" " + body.String())

	return sb.String()
}

// ClassBody holds the members of a class.
type ClassBody struct {
	Span
	Body []Node `json:"body"`
}

func (n *ClassBody) Type() string { return "ClassBody" }

func (n *ClassBody) Get(*scope.Stack) (any, error) {
	return nil, runtime.NoImplementation(n.Type(), "get")
}

func (n *ClassBody) Set(*scope.Stack, any) error { return noSet(n) }
func (n *ClassBody) String() string              { return block(n.Body) }
func (n *ClassBody) Children() []Node            { return n.Body }

func (n *ClassBody) MarshalJSON() ([]byte, error) {
	type plain ClassBody
	return marshalNode(n.Type(), (*plain)(n))
}

// field is an instance or static field with its key already evaluated.
type field struct {
	key     any
	private string
	value   Node
	slot    string
}

// class accumulates the state of one class definition.
type class struct {
	name    string
	cs      *scope.Stack
	table   *runtime.PrivateTable
	proto   *runtime.Object
	cls     *runtime.Function
	parent  any
	derived bool

	privateMethods map[string]*runtime.Property
	methodOrder    []string
	fields         []field
	statics        []field
}

func (n *ClassBody) define(s *scope.Stack, name string, superClass Node) (*runtime.Function, error) {
	c := &class{name: name, table: runtime.NewPrivateTable(name), privateMethods: map[string]*runtime.Property{}}

	protoParent := runtime.ObjectPrototype
	ctorParent := runtime.FunctionPrototype
	if superClass != nil {
		c.derived = true
		parent, err := superClass.Get(s)
		if err != nil {
			return nil, err
		}
		switch p := parent.(type) {
		case nil:
			protoParent = nil
		case *runtime.Function:
			if p.Ctor == nil {
				return nil, runtime.NewTypeError("Class extends value %s is not a constructor or null", superClass.String())
			}
			protoParent = p.Prototype()
			ctorParent = p.Object
		default:
			return nil, runtime.NewTypeError("Class extends value %s is not a constructor or null", runtime.Inspect(parent))
		}
		c.parent = parent
	}

	c.cs = s.Copy()
	classScope := c.cs.PushScope(scope.Class)
	for _, m := range n.Body {
		if p, ok := memberKey(m).(*PrivateIdentifier); ok {
			classScope.Define("#"+p.Name, c.table)
		}
	}

	c.proto = runtime.NewObject(protoParent)
	ctor := n.constructor(c)
	c.cls = runtime.NewFunction(name, ctor.length(), nil)
	c.cls.Class = true
	c.cls.Home = c.proto
	c.cls.SetProto(ctorParent)
	c.cls.Define("prototype", &runtime.Property{Value: c.proto})
	c.proto.DefineHidden("constructor", c.cls)
	c.cls.Ctor = func(args []any, newTarget *runtime.Function) (any, error) {
		return c.construct(ctor, args, newTarget)
	}
	if name != "" {
		classScope.Define(name, c.cls)
	}

	for i, m := range n.Body {
		if err := c.member(m, i); err != nil {
			return nil, err
		}
	}
	for _, f := range c.statics {
		if err := c.initField(c.cls, c.cls.Object, f); err != nil {
			return nil, err
		}
	}

	return c.cls, nil
}

// constructor returns the constructor lambda. A missing constructor has an
// empty body; derived classes then construct their parent with the
// arguments they received.
func (n *ClassBody) constructor(c *class) *lambda {
	for _, m := range n.Body {
		if md, ok := m.(*MethodDefinition); ok && md.Kind == "constructor" {
			l := md.Value.lambda(c.name)
			l.self, l.name, l.home = "", c.name, c.proto
			return l
		}
	}

	return &lambda{name: c.name, home: c.proto}
}

func memberKey(m Node) Node {
	switch m := m.(type) {
	case *MethodDefinition:
		return m.Key
	case *PropertyDefinition:
		return m.Key
	case *AccessorProperty:
		return m.Key
	}

	return nil
}

func (c *class) key(key Node, computed bool) (any, string, error) {
	if p, ok := key.(*PrivateIdentifier); ok {
		return "#" + p.Name, p.Name, nil
	}
	k, err := propertyKey(c.cs, key, computed)

	return k, "", err
}

func (c *class) member(m Node, index int) error {
	switch m := m.(type) {
	case *MethodDefinition:
		if m.Kind == "constructor" {
			return nil
		}
		return c.method(m)

	case *PropertyDefinition:
		key, private, err := c.key(m.Key, m.Computed)
		if err != nil {
			return err
		}
		f := field{key: key, private: private, value: m.Value}
		if m.Static {
			c.statics = append(c.statics, f)
		} else {
			c.fields = append(c.fields, f)
		}

	case *AccessorProperty:
		key, private, err := c.key(m.Key, m.Computed)
		if err != nil {
			return err
		}
		f := field{key: key, private: private, value: m.Value, slot: "accessor " + strconv.Itoa(index)}
		target := c.proto
		if m.Static {
			target = c.cls.Object
			c.statics = append(c.statics, f)
		} else {
			c.fields = append(c.fields, f)
		}
		if private == "" {
			get, set := c.accessorPair(f)
			defineAccessor(target, key, "get", get, false)
			defineAccessor(target, key, "set", set, false)
		}

	case *StaticBlock:
		st := c.cs.Copy()
		sc := st.PushScope(scope.Function)
		sc.Define(keyThis, c.cls)
		sc.Define(keyHome, c.cls.Object)
		sc.Define(keyNewTarget, runtime.Undefined)
		if err := hoistVars(st, m.Body); err != nil {
			return err
		}
		if _, err := statements(st, m.Body); err != nil {
			return err
		}

	default:
		return runtime.NewSyntaxError("unexpected %s in class body", m.Type())
	}

	return nil
}

func (c *class) method(m *MethodDefinition) error {
	key, private, err := c.key(m.Key, m.Computed)
	if err != nil {
		return err
	}
	home, target := c.proto, c.proto
	if m.Static {
		home, target = c.cls.Object, c.cls.Object
	}

	name := runtime.ToString(key)
	if m.Kind == "get" || m.Kind == "set" {
		name = m.Kind + " " + name
	}
	fn := m.Value.method(c.cs, home, name)

	if private == "" {
		if m.Kind == "get" || m.Kind == "set" {
			defineAccessor(target, key, m.Kind, fn, false)
		} else {
			target.DefineHidden(key, fn)
		}
		return nil
	}

	prop := c.privateMethods[private]
	if prop == nil || m.Static {
		prop = &runtime.Property{}
	}
	switch m.Kind {
	case "get":
		prop.Getter = fn
	case "set":
		prop.Setter = fn
	default:
		prop.Value = fn
	}

	if m.Static {
		return c.table.Add(c.cls, private, prop)
	}
	if _, seen := c.privateMethods[private]; !seen {
		c.privateMethods[private] = prop
		c.methodOrder = append(c.methodOrder, private)
	}

	return nil
}

// accessorPair returns the getter and setter of an accessor field, backed
// by the field's private slot.
func (c *class) accessorPair(f field) (get, set *runtime.Function) {
	name := runtime.ToString(f.key)
	get = runtime.NewFunction("get "+name, 0, func(this any, _ []any) (any, error) {
		return c.table.Get(this, f.slot)
	})
	set = runtime.NewFunction("set "+name, 1, func(this any, args []any) (any, error) {
		var v any = runtime.Undefined
		if len(args) > 0 {
			v = args[0]
		}
		return runtime.Undefined, c.table.Set(this, f.slot, v)
	})

	return get, set
}

// initField evaluates a field initializer with this bound to obj and
// installs the result.
func (c *class) initField(obj any, home *runtime.Object, f field) error {
	var v any = runtime.Undefined
	if f.value != nil {
		st := c.cs.Copy()
		sc := st.PushScope(scope.Function)
		sc.Define(keyThis, obj)
		sc.Define(keyHome, home)
		sc.Define(keyNewTarget, runtime.Undefined)
		var err error
		if v, err = getNamed(st, f.value, runtime.ToString(f.key)); err != nil {
			return err
		}
	}

	switch {
	case f.slot != "":
		if err := c.table.Add(obj, f.slot, &runtime.Property{Value: v, Writable: true}); err != nil {
			return err
		}
		if f.private != "" {
			get, set := c.accessorPair(f)
			return c.table.Add(obj, f.private, &runtime.Property{Getter: get, Setter: set})
		}
		return nil
	case f.private != "":
		return c.table.Add(obj, f.private, &runtime.Property{Value: v, Writable: true})
	}

	o, ok := obj.(runtime.ObjectLike)
	if !ok {
		return runtime.NewTypeError("cannot define field %s on %s", runtime.ToString(f.key), runtime.Inspect(obj))
	}
	o.Base().Put(f.key, v)

	return nil
}

// initInstance brands obj with the private methods and installs the
// instance fields in source order.
func (c *class) initInstance(obj any) error {
	for _, name := range c.methodOrder {
		p := *c.privateMethods[name]
		if err := c.table.Add(obj, name, &p); err != nil {
			return err
		}
	}
	for _, f := range c.fields {
		if err := c.initField(obj, c.proto, f); err != nil {
			return err
		}
	}

	return nil
}

// construct runs the constructor. Base classes create this up front;
// derived classes get it from the super hook, or from parent construction
// after the body when the body never calls super.
func (c *class) construct(ctor *lambda, args []any, newTarget *runtime.Function) (any, error) {
	if newTarget == nil {
		newTarget = c.cls
	}

	var (
		this   any = runtime.Undefined
		called bool
	)
	construct := func(sc *scope.Scope, superArgs []any) (any, error) {
		if c.parent == nil {
			return nil, runtime.NewTypeError("Super constructor null of %s is not a constructor", c.name)
		}
		obj, err := runtime.Construct(c.parent, superArgs, newTarget)
		if err != nil {
			return nil, err
		}
		called, this = true, obj
		sc.Define(keyThis, obj)
		if err := c.initInstance(obj); err != nil {
			return nil, err
		}
		return obj, nil
	}

	var fnScope *scope.Scope
	enter := func(_ *scope.Stack, sc *scope.Scope) error {
		fnScope = sc
		if !c.derived {
			obj := runtime.CreateFromConstructor(newTarget, runtime.ObjectPrototype)
			this = obj
			sc.Define(keyThis, obj)
			return c.initInstance(obj)
		}

		sc.Define(keyThis, runtime.Undefined)
		sc.Define(keySuper, runtime.NewFunction("super", 0, func(_ any, superArgs []any) (any, error) {
			if called {
				return nil, runtime.NewReferenceError("Super constructor may only be called once")
			}
			return construct(sc, superArgs)
		}))
		return nil
	}

	r, err := ctor.invoke(c.cs, runtime.Undefined, args, newTarget, enter)
	if err != nil {
		return nil, err
	}
	if _, ok := r.(runtime.ObjectLike); ok {
		return r, nil
	}
	if c.derived && !called {
		if _, err := construct(fnScope, args); err != nil {
			return nil, err
		}
	}

	return this, nil
}

// MethodDefinition is a class method, accessor or constructor.
type MethodDefinition struct {
	Span
	Key      Node                `json:"key"`
	Value    *FunctionExpression `json:"value"`
	Kind     string              `json:"kind"`
	Computed bool                `json:"computed"`
	Static   bool                `json:"static"`
}

func (n *MethodDefinition) Type() string { return "MethodDefinition" }

func (n *MethodDefinition) Get(*scope.Stack) (any, error) {
	return nil, runtime.NoImplementation(n.Type(), "get")
}

func (n *MethodDefinition) Set(*scope.Stack, any) error { return noSet(n) }

func (n *MethodDefinition) String() string {
	var sb strings.Builder
	if n.Static {
		sb.WriteString("static ")
	}
	switch n.Kind {
	case "get", "set":
		sb.WriteString(n.Kind + " ")
	default:
		sb.WriteString(n.Value.prefix())
	}
	sb.WriteString(keyName(n.Key, n.Computed))
	sb.WriteString(n.Value.tail())

	return sb.String()
}

func (n *MethodDefinition) Children() []Node { return []Node{n.Key, n.Value} }

func (n *MethodDefinition) MarshalJSON() ([]byte, error) {
	type plain MethodDefinition
	return marshalNode(n.Type(), (*plain)(n))
}

// PropertyDefinition is a class field.
type PropertyDefinition struct {
	Span
	Key      Node `json:"key"`
	Value    Node `json:"value"`
	Computed bool `json:"computed"`
	Static   bool `json:"static"`
}

func (n *PropertyDefinition) Type() string { return "PropertyDefinition" }

func (n *PropertyDefinition) Get(*scope.Stack) (any, error) {
	return nil, runtime.NoImplementation(n.Type(), "get")
}

func (n *PropertyDefinition) Set(*scope.Stack, any) error { return noSet(n) }

func (n *PropertyDefinition) String() string {
	return fieldString(n.Static, "", n.Key, n.Computed, n.Value)
}

func (n *PropertyDefinition) Children() []Node { return optional([]Node{n.Key}, n.Value) }

func (n *PropertyDefinition) MarshalJSON() ([]byte, error) {
	type plain PropertyDefinition
	return marshalNode(n.Type(), (*plain)(n))
}

func fieldString(static bool, word string, key Node, computed bool, value Node) string {
	var sb strings.Builder
	if static {
		sb.WriteString("static ")
	}
	sb.WriteString(word)
	sb.WriteString(keyName(key, computed))
	if value != nil {
		sb.WriteString(" = " + wrap(value, precAssign))
	}
	sb.WriteByte(';')

	return sb.String()
}

// AccessorProperty is an `accessor` field: a getter and setter pair over a
// private storage slot.
type AccessorProperty struct {
	Span
	Key      Node `json:"key"`
	Value    Node `json:"value"`
	Computed bool `json:"computed"`
	Static   bool `json:"static"`
}

func (n *AccessorProperty) Type() string { return "AccessorProperty" }

func (n *AccessorProperty) Get(*scope.Stack) (any, error) {
	return nil, runtime.NoImplementation(n.Type(), "get")
}

func (n *AccessorProperty) Set(*scope.Stack, any) error { return noSet(n) }

func (n *AccessorProperty) String() string {
	return fieldString(n.Static, "accessor ", n.Key, n.Computed, n.Value)
}

func (n *AccessorProperty) Children() []Node { return optional([]Node{n.Key}, n.Value) }

func (n *AccessorProperty) MarshalJSON() ([]byte, error) {
	type plain AccessorProperty
	return marshalNode(n.Type(), (*plain)(n))
}

// StaticBlock is a static initialization block, run once with this bound
// to the class.
type StaticBlock struct {
	Span
	Body []Node `json:"body"`
}

func (n *StaticBlock) Type() string { return "StaticBlock" }

func (n *StaticBlock) Get(*scope.Stack) (any, error) {
	return nil, runtime.NoImplementation(n.Type(), "get")
}

func (n *StaticBlock) Set(*scope.Stack, any) error { return noSet(n) }
func (n *StaticBlock) String() string              { return "static " + block(n.Body) }
func (n *StaticBlock) Children() []Node            { return n.Body }

func (n *StaticBlock) MarshalJSON() ([]byte, error) {
	type plain StaticBlock
	return marshalNode(n.Type(), (*plain)(n))
}
