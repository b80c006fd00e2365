package runtime

import (
	"fmt"
	"reflect"
)

// NativeFunc is the calling convention of every callable value.
type NativeFunc func(this any, args []any) (any, error)

// ConstructFunc builds a new instance. newTarget is the constructor `new`
// was applied to, which differs from the callee for subclasses.
type ConstructFunc func(args []any, newTarget *Function) (any, error)

// Function is a callable object. Fn is nil only for class constructors,
// which can be constructed but not called.
type Function struct {
	*Object
	Name  string
	Fn    NativeFunc
	Ctor  ConstructFunc
	Arrow bool
	Class bool

	// Home is the object a method was defined on; super lookups start at
	// its prototype.
	Home *Object

	target    *Function
	boundThis any
}

// NewFunction returns a plain callable.
func NewFunction(name string, length int, fn NativeFunc) *Function {
	f := &Function{Object: NewObject(FunctionPrototype), Name: name, Fn: fn}
	f.class = "Function"
	f.Define("name", &Property{Value: name, Configurable: true})
	f.Define("length", &Property{Value: float64(length), Configurable: true})

	return f
}

// NewConstructor returns a callable that can also be used with `new`. It
// gets a fresh prototype object whose constructor points back at it.
func NewConstructor(name string, length int, fn NativeFunc, ctor ConstructFunc) *Function {
	f := NewFunction(name, length, fn)
	f.Ctor = ctor
	proto := NewObject(ObjectPrototype)
	proto.DefineHidden("constructor", f)
	f.Define("prototype", &Property{Value: proto, Writable: true})

	return f
}

// Prototype returns the object stored in the function's prototype property.
func (f *Function) Prototype() *Object {
	if p, ok := f.Own("prototype"); ok {
		if o, ok := p.Value.(ObjectLike); ok {
			return o.Base()
		}
	}

	return nil
}

// Target returns the function a bound function forwards to, or f itself.
func (f *Function) Target() *Function {
	if f.target != nil {
		return f.target
	}

	return f
}

func (f *Function) String() string {
	if f.Class {
		return "class " + f.Name + " { [code] }"
	}

	return "function " + f.Name + "() { [native code] }"
}

// IsCallable reports whether v can be called.
func IsCallable(v any) bool {
	switch v.(type) {
	case *Function:
		return true
	case nil:
		return false
	}

	return reflect.ValueOf(v).Kind() == reflect.Func
}

// IsConstructor reports whether v can be used with `new`.
func IsConstructor(v any) bool {
	f, ok := v.(*Function)
	return ok && f.Ctor != nil
}

// Call invokes fn with the given receiver and arguments. Go funcs of any
// signature are accepted; their results are normalized.
func Call(fn any, this any, args []any) (any, error) {
	switch f := fn.(type) {
	case *Function:
		if f.Fn == nil {
			if f.Class {
				return nil, NewTypeError("Class constructor %s cannot be invoked without 'new'", f.Name)
			}
			return nil, NewTypeError("%s is not a function", f.Name)
		}
		return f.Fn(this, args)
	case NativeFunc:
		return f(this, args)
	case func(this any, args []any) (any, error):
		return f(this, args)
	case func(args ...any) (any, error):
		return f(args...)
	case func(args ...any) any:
		return Normalize(f(args...)), nil
	case func() any:
		return Normalize(f()), nil
	}

	return callReflect(fn, args)
}

// Construct applies `new` to fn. A nil newTarget means fn itself.
func Construct(fn any, args []any, newTarget *Function) (any, error) {
	f, ok := fn.(*Function)
	if !ok || f.Ctor == nil {
		return nil, NewTypeError("%s is not a constructor", Describe(fn))
	}
	if newTarget == nil {
		newTarget = f
	}

	return f.Ctor(args, newTarget)
}

// CreateFromConstructor returns a new object whose prototype is
// newTarget.prototype, or fallback when that is not an object.
func CreateFromConstructor(newTarget *Function, fallback *Object) *Object {
	proto := fallback
	if newTarget != nil {
		if p := newTarget.Prototype(); p != nil {
			proto = p
		}
	}

	return NewObject(proto)
}

// Bind returns fn with its receiver fixed to this. Arrow functions, class
// constructors and already bound functions are returned unchanged. The
// bound function inherits the target's own properties.
func Bind(fn any, this any) any {
	f, ok := fn.(*Function)
	if !ok || f.Arrow || f.Class || f.target != nil || f.Fn == nil {
		return fn
	}

	var owner *Object
	if o, ok := this.(ObjectLike); ok {
		owner = o.Base()
		if b, ok := owner.bound[f]; ok {
			return b
		}
	}

	b := &Function{
		Object: NewObject(f.Object),
		Name:   f.Name,
		Home:   f.Home,
		Fn: func(_ any, args []any) (any, error) {
			return f.Fn(this, args)
		},
		target:    f,
		boundThis: this,
	}
	b.class = "Function"
	if f.Ctor != nil {
		b.Ctor = func(args []any, newTarget *Function) (any, error) {
			if newTarget == b {
				newTarget = f
			}
			return f.Ctor(args, newTarget)
		}
	}

	if owner != nil {
		if owner.bound == nil {
			owner.bound = make(map[*Function]*Function)
		}
		owner.bound[f] = b
	}

	return b
}

// BindTo returns a copy of fn bound to this, ignoring any binding cache.
// It implements Function.prototype.bind.
func BindTo(fn *Function, this any, preset []any) *Function {
	target := fn
	b := NewFunction("bound "+fn.Name, 0, func(_ any, args []any) (any, error) {
		return Call(target, this, append(append([]any{}, preset...), args...))
	})
	b.target = target
	b.boundThis = this
	if fn.Ctor != nil {
		b.Ctor = func(args []any, newTarget *Function) (any, error) {
			if newTarget == b {
				newTarget = target
			}
			return target.Ctor(append(append([]any{}, preset...), args...), newTarget)
		}
	}

	return b
}

var errorType = reflect.TypeFor[error]()

func callReflect(fn any, args []any) (any, error) {
	rv := reflect.ValueOf(fn)
	if !rv.IsValid() || rv.Kind() != reflect.Func {
		return nil, NewTypeError("%s is not a function", Describe(fn))
	}

	rt := rv.Type()
	n := rt.NumIn()
	in := make([]reflect.Value, 0, max(n, len(args)))

	for i := range n {
		if rt.IsVariadic() && i == n-1 {
			elem := rt.In(i).Elem()
			for j := i; j < len(args); j++ {
				v, err := hostArg(args[j], elem)
				if err != nil {
					return nil, err
				}
				in = append(in, v)
			}
			break
		}
		var arg any = Undefined
		if i < len(args) {
			arg = args[i]
		}
		v, err := hostArg(arg, rt.In(i))
		if err != nil {
			return nil, err
		}
		in = append(in, v)
	}

	out := rv.Call(in)

	switch len(out) {
	case 0:
		return Undefined, nil
	case 1:
		if rt.Out(0) == errorType {
			if err, _ := out[0].Interface().(error); err != nil {
				return nil, err
			}
			return Undefined, nil
		}
		return Normalize(out[0].Interface()), nil
	default:
		if err, _ := out[len(out)-1].Interface().(error); err != nil {
			return nil, err
		}
		return Normalize(out[0].Interface()), nil
	}
}

// hostArg converts a script value to the Go type a host func expects.
func hostArg(v any, t reflect.Type) (reflect.Value, error) {
	if IsNullish(v) {
		return reflect.Zero(t), nil
	}
	if t.Kind() == reflect.Interface && t.NumMethod() == 0 {
		return reflect.ValueOf(v), nil
	}

	rv := reflect.ValueOf(v)
	switch {
	case rv.Type().AssignableTo(t):
		return rv, nil
	case IsNumber(v) && isNumericKind(t.Kind()):
		return reflect.ValueOf(ToNumber(v)).Convert(t), nil
	case t.Kind() == reflect.String:
		return reflect.ValueOf(ToString(v)).Convert(t), nil
	case t.Kind() == reflect.Bool:
		return reflect.ValueOf(ToBoolean(v)).Convert(t), nil
	case t.Kind() == reflect.Slice:
		if elems, ok := ArrayOf(v); ok {
			out := reflect.MakeSlice(t, 0, len(elems))
			for _, e := range elems {
				ev, err := hostArg(e, t.Elem())
				if err != nil {
					return reflect.Value{}, err
				}
				out = reflect.Append(out, ev)
			}
			return out, nil
		}
	}

	return reflect.Value{}, NewTypeError("cannot use %s as %s", Describe(v), t)
}

func isNumericKind(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Float64
}

// Describe renders v for error messages.
func Describe(v any) string {
	switch v := v.(type) {
	case string:
		return fmt.Sprintf("%q", v)
	case *Function:
		if v.Name != "" {
			return v.Name
		}
		return "function"
	}

	return Inspect(v)
}
