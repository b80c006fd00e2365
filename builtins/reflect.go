package builtins

import (
	"github.com/example/expressions/runtime"
)

func createReflectObject() *runtime.Object {
	r := runtime.NewObject(runtime.ObjectPrototype)
	r.SetClass("Reflect")

	method(r, "apply", 3, reflectApply)
	method(r, "construct", 2, reflectConstruct)
	method(r, "defineProperty", 3, reflectDefineProperty)
	method(r, "deleteProperty", 2, reflectDeleteProperty)
	method(r, "get", 2, reflectGet)
	method(r, "getOwnPropertyDescriptor", 2, reflectGetOwnPropertyDescriptor)
	method(r, "getPrototypeOf", 1, reflectGetPrototypeOf)
	method(r, "has", 2, reflectHas)
	method(r, "isExtensible", 1, reflectIsExtensible)
	method(r, "ownKeys", 1, reflectOwnKeys)
	method(r, "preventExtensions", 1, reflectPreventExtensions)
	method(r, "set", 3, reflectSet)
	method(r, "setPrototypeOf", 2, reflectSetPrototypeOf)

	return r
}

// reflectTarget rejects primitives, which every Reflect function except
// apply and construct requires.
func reflectTarget(args []any, fn string) (any, error) {
	v := arg(args, 0)
	switch runtime.TypeOf(v) {
	case "object", "function":
		if v != nil {
			return v, nil
		}
	}

	return nil, runtime.NewTypeError("Reflect.%s called on non-object", fn)
}

func reflectApply(_ any, args []any) (any, error) {
	fn, err := callable(arg(args, 0), "Reflect.apply target")
	if err != nil {
		return nil, err
	}
	if runtime.IsNullish(arg(args, 2)) {
		return nil, runtime.NewTypeError("CreateListFromArrayLike called on non-object")
	}
	list, err := listFromArrayLike(arg(args, 2))
	if err != nil {
		return nil, err
	}

	return runtime.Call(fn, arg(args, 1), list)
}

func reflectConstruct(_ any, args []any) (any, error) {
	target := arg(args, 0)
	if !runtime.IsConstructor(target) {
		return nil, runtime.NewTypeError("%s is not a constructor", runtime.Describe(target))
	}

	var newTarget *runtime.Function
	if len(args) > 2 {
		nt, ok := args[2].(*runtime.Function)
		if !ok || nt.Ctor == nil {
			return nil, runtime.NewTypeError("%s is not a constructor", runtime.Describe(args[2]))
		}
		newTarget = nt
	}

	list, err := listFromArrayLike(arg(args, 1))
	if err != nil {
		return nil, err
	}

	return runtime.Construct(target, list, newTarget)
}

func reflectDefineProperty(_ any, args []any) (any, error) {
	target, err := reflectTarget(args, "defineProperty")
	if err != nil {
		return nil, err
	}
	if objectOf(target) == nil {
		return false, nil
	}
	d, err := toPropertyDescriptor(arg(args, 2))
	if err != nil {
		return nil, err
	}

	return defineOwnProperty(target, runtime.ToPropertyKey(arg(args, 1)), d) == nil, nil
}

func reflectDeleteProperty(_ any, args []any) (any, error) {
	target, err := reflectTarget(args, "deleteProperty")
	if err != nil {
		return nil, err
	}

	return runtime.DeleteMember(target, runtime.ToPropertyKey(arg(args, 1)))
}

func reflectGet(_ any, args []any) (any, error) {
	target, err := reflectTarget(args, "get")
	if err != nil {
		return nil, err
	}
	receiver := target
	if len(args) > 2 {
		receiver = args[2]
	}

	return runtime.GetMemberWithReceiver(target, runtime.ToPropertyKey(arg(args, 1)), receiver)
}

func reflectGetOwnPropertyDescriptor(_ any, args []any) (any, error) {
	if _, err := reflectTarget(args, "getOwnPropertyDescriptor"); err != nil {
		return nil, err
	}

	return objectGetOwnPropertyDescriptor(nil, args)
}

func reflectGetPrototypeOf(_ any, args []any) (any, error) {
	if _, err := reflectTarget(args, "getPrototypeOf"); err != nil {
		return nil, err
	}

	return objectGetPrototypeOf(nil, args)
}

func reflectHas(_ any, args []any) (any, error) {
	target, err := reflectTarget(args, "has")
	if err != nil {
		return nil, err
	}

	return runtime.HasProperty(target, runtime.ToPropertyKey(arg(args, 1)))
}

func reflectIsExtensible(_ any, args []any) (any, error) {
	if _, err := reflectTarget(args, "isExtensible"); err != nil {
		return nil, err
	}

	return objectIsExtensible(nil, args)
}

func reflectOwnKeys(_ any, args []any) (any, error) {
	target, err := reflectTarget(args, "ownKeys")
	if err != nil {
		return nil, err
	}

	return runtime.NewArray(ownPropertyKeys(target)), nil
}

func reflectPreventExtensions(_ any, args []any) (any, error) {
	target, err := reflectTarget(args, "preventExtensions")
	if err != nil {
		return nil, err
	}
	if o := objectOf(target); o != nil {
		o.PreventExtensions()
	}

	return true, nil
}

func reflectSet(_ any, args []any) (any, error) {
	target, err := reflectTarget(args, "set")
	if err != nil {
		return nil, err
	}
	if o := objectOf(target); o != nil && o.IsFrozen() {
		return false, nil
	}
	receiver := target
	if len(args) > 3 {
		receiver = args[3]
	}
	if err := runtime.SetMemberWithReceiver(target, runtime.ToPropertyKey(arg(args, 1)), arg(args, 2), receiver); err != nil {
		if runtime.IsCatchable(err) {
			return false, nil
		}
		return nil, err
	}

	return true, nil
}

func reflectSetPrototypeOf(_ any, args []any) (any, error) {
	if _, err := reflectTarget(args, "setPrototypeOf"); err != nil {
		return nil, err
	}
	p := arg(args, 1)
	if p != nil && objectOf(p) == nil {
		return nil, runtime.NewTypeError("Object prototype may only be an Object or null: %s", runtime.Describe(p))
	}
	if _, err := objectSetPrototypeOf(nil, args); err != nil {
		return false, nil
	}

	return true, nil
}
