package builtins

import (
	"github.com/example/expressions/runtime"
)

func createFunctionConstructor() *runtime.Function {
	proto := runtime.FunctionPrototype

	method(proto, "call", 1, functionCall)
	method(proto, "apply", 2, functionApply)
	method(proto, "bind", 1, functionBind)
	method(proto, "toString", 0, functionToString)
	proto.Define(runtime.SymbolHasInstance, &runtime.Property{
		Value: runtime.NewFunction("[Symbol.hasInstance]", 1, functionHasInstance),
	})

	construct := func([]any, *runtime.Function) (any, error) {
		return nil, runtime.NewTypeError("Function constructor is not supported; compile source through the interpreter")
	}

	return constructor("Function", 1, proto, func(_ any, args []any) (any, error) {
		return construct(args, nil)
	}, construct)
}

func thisFunction(this any, name string) (any, error) {
	if !runtime.IsCallable(this) {
		return nil, runtime.NewTypeError("Function.prototype.%s called on %s", name, runtime.Describe(this))
	}

	return this, nil
}

func functionCall(this any, args []any) (any, error) {
	fn, err := thisFunction(this, "call")
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return runtime.Call(fn, runtime.Undefined, nil)
	}

	return runtime.Call(fn, args[0], args[1:])
}

func functionApply(this any, args []any) (any, error) {
	fn, err := thisFunction(this, "apply")
	if err != nil {
		return nil, err
	}

	list, err := listFromArrayLike(arg(args, 1))
	if err != nil {
		return nil, err
	}

	return runtime.Call(fn, arg(args, 0), list)
}

// listFromArrayLike converts the argument list of apply and Reflect calls.
func listFromArrayLike(v any) ([]any, error) {
	if runtime.IsNullish(v) {
		return nil, nil
	}
	if elems, ok := runtime.ArrayOf(v); ok {
		return append([]any(nil), elems...), nil
	}
	if objectOf(v) == nil {
		return nil, runtime.NewTypeError("CreateListFromArrayLike called on non-object")
	}

	n, err := runtime.GetMember(v, "length")
	if err != nil {
		return nil, err
	}
	length := int(runtime.ToIntegerOrInfinity(n))
	list := make([]any, 0, max(length, 0))
	for i := range length {
		e, err := runtime.GetMember(v, float64(i))
		if err != nil {
			return nil, err
		}
		list = append(list, e)
	}

	return list, nil
}

func functionBind(this any, args []any) (any, error) {
	f, ok := this.(*runtime.Function)
	if !ok {
		return nil, runtime.NewTypeError("Bind must be called on a function")
	}

	var preset []any
	if len(args) > 1 {
		preset = args[1:]
	}

	return runtime.BindTo(f, arg(args, 0), preset), nil
}

func functionToString(this any, _ []any) (any, error) {
	f, ok := this.(*runtime.Function)
	if !ok {
		return nil, runtime.NewTypeError("Function.prototype.toString requires that 'this' be a Function")
	}

	return f.String(), nil
}

func functionHasInstance(this any, args []any) (any, error) {
	f, ok := this.(*runtime.Function)
	if !ok {
		return false, nil
	}
	proto := f.Target().Prototype()
	o := objectOf(arg(args, 0))
	if proto == nil || o == nil {
		return false, nil
	}

	return o.InheritsFrom(proto), nil
}
