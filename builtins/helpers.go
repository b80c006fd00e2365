package builtins

import (
	"math"

	"github.com/example/expressions/runtime"
)

// method installs a non-enumerable native method on obj.
func method(obj *runtime.Object, name string, length int, fn runtime.NativeFunc) *runtime.Function {
	f := runtime.NewFunction(name, length, fn)
	obj.DefineHidden(name, f)

	return f
}

// symbolMethod installs a method keyed by a well-known symbol.
func symbolMethod(obj *runtime.Object, sym *runtime.Symbol, name string, fn runtime.NativeFunc) {
	obj.DefineHidden(sym, runtime.NewFunction(name, 0, fn))
}

// getter installs a non-enumerable accessor with only a getter.
func getter(obj *runtime.Object, name string, fn runtime.NativeFunc) {
	obj.Define(name, &runtime.Property{
		Getter:       runtime.NewFunction("get "+name, 0, fn),
		Configurable: true,
	})
}

// constant installs a read-only, non-enumerable data property.
func constant(obj *runtime.Object, name string, v any) {
	obj.Define(name, &runtime.Property{Value: v})
}

// constructor builds a constructor whose prototype is the intrinsic proto.
func constructor(name string, length int, proto *runtime.Object, call runtime.NativeFunc, construct runtime.ConstructFunc) *runtime.Function {
	f := runtime.NewFunction(name, length, call)
	f.Ctor = construct
	f.Define("prototype", &runtime.Property{Value: proto})
	proto.DefineHidden("constructor", f)

	return f
}

func arg(args []any, i int) any {
	if i < len(args) {
		return args[i]
	}

	return runtime.Undefined
}

func argNumber(args []any, i int) float64 { return runtime.ToNumber(arg(args, i)) }

func argString(args []any, i int) string { return runtime.ToString(arg(args, i)) }

// relativeIndex resolves a possibly negative index argument against length,
// clamped to [0, length]. Undefined yields def.
func relativeIndex(v any, length, def int) int {
	if runtime.IsUndefined(v) {
		return def
	}
	n := runtime.ToIntegerOrInfinity(v)
	switch {
	case n < 0:
		n = math.Max(float64(length)+n, 0)
	case n > float64(length):
		n = float64(length)
	}

	return int(n)
}

// callable returns fn or a TypeError naming what expected it.
func callable(fn any, what string) (any, error) {
	if !runtime.IsCallable(fn) {
		return nil, runtime.NewTypeError("%s is not a function", what)
	}

	return fn, nil
}

// objectOf returns the object backing v, or nil for primitives.
func objectOf(v any) *runtime.Object {
	if o, ok := v.(runtime.ObjectLike); ok {
		return o.Base()
	}

	return nil
}

// internal returns the host state of a builtin instance of type T.
func internal[T any](v any) (T, bool) {
	var zero T
	o := objectOf(v)
	if o == nil {
		return zero, false
	}
	t, ok := o.Internal.(T)

	return t, ok
}
