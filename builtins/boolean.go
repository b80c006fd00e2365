package builtins

import "github.com/example/expressions/runtime"

func createBooleanConstructor() *runtime.Function {
	proto := runtime.BooleanPrototype
	proto.SetClass("Boolean")
	proto.Internal = false

	method(proto, "toString", 0, booleanToString)
	method(proto, "valueOf", 0, booleanValueOf)

	return constructor("Boolean", 1, proto, booleanConstructorCall,
		func(args []any, newTarget *runtime.Function) (any, error) {
			o := toObject(runtime.ToBoolean(arg(args, 0))).(*runtime.Object)
			if newTarget != nil {
				if p := newTarget.Prototype(); p != nil {
					o.SetProto(p)
				}
			}
			return o, nil
		})
}

func booleanConstructorCall(_ any, args []any) (any, error) {
	return runtime.ToBoolean(arg(args, 0)), nil
}

func thisBoolean(this any, name string) (bool, error) {
	b, ok := primitiveValue[bool](this, "Boolean")
	if !ok {
		return false, runtime.NewTypeError("Boolean.prototype.%s requires that 'this' be a Boolean", name)
	}

	return b, nil
}

func booleanToString(this any, _ []any) (any, error) {
	b, err := thisBoolean(this, "toString")
	if err != nil {
		return nil, err
	}
	if b {
		return "true", nil
	}

	return "false", nil
}

func booleanValueOf(this any, _ []any) (any, error) {
	b, err := thisBoolean(this, "valueOf")
	if err != nil {
		return nil, err
	}

	return b, nil
}
