package builtins

import (
	"slices"
	"testing"

	"github.com/example/expressions/runtime"
)

func TestReflectPropertyAccess(t *testing.T) {
	o := runtime.NewObject(runtime.ObjectPrototype)
	o.Put("a", 1.0)

	if v, _ := reflectGet(nil, []any{o, "a"}); v != 1.0 {
		t.Errorf("get: got %v", v)
	}
	if ok, _ := reflectHas(nil, []any{o, "toString"}); ok != true {
		t.Error("has should see inherited properties")
	}
	if ok, _ := reflectSet(nil, []any{o, "b", 2.0}); ok != true {
		t.Error("set on an ordinary object should succeed")
	}
	if v := o.Value("b"); v != 2.0 {
		t.Errorf("after set: got %v", v)
	}
	if ok, _ := reflectDeleteProperty(nil, []any{o, "a"}); ok != true {
		t.Error("deleteProperty should succeed")
	}
	if ok, _ := reflectHas(nil, []any{o, "a"}); ok != false {
		t.Error("deleted property still present")
	}

	o.Freeze()
	if ok, _ := reflectSet(nil, []any{o, "b", 3.0}); ok != false {
		t.Error("set on a frozen object should report false")
	}
}

func TestReflectGetReceiver(t *testing.T) {
	o := runtime.NewObject(runtime.ObjectPrototype)
	o.Define("who", &runtime.Property{
		Getter: runtime.NewFunction("get who", 0, func(this any, _ []any) (any, error) {
			return runtime.GetMember(this, "name")
		}),
	})
	receiver := runtime.NewObject(runtime.ObjectPrototype)
	receiver.Put("name", "r")

	if v, _ := reflectGet(nil, []any{o, "who", receiver}); v != "r" {
		t.Errorf("get with receiver: got %v", v)
	}
}

func TestReflectRejectsPrimitives(t *testing.T) {
	fns := map[string]runtime.NativeFunc{
		"get":            reflectGet,
		"has":            reflectHas,
		"ownKeys":        reflectOwnKeys,
		"getPrototypeOf": reflectGetPrototypeOf,
		"isExtensible":   reflectIsExtensible,
	}
	for name, fn := range fns {
		if _, err := fn(nil, []any{"str", "length"}); err == nil {
			t.Errorf("Reflect.%s on a string should be a TypeError", name)
		}
	}
}

func TestReflectOwnKeys(t *testing.T) {
	sym := &runtime.Symbol{Description: "s"}
	o := runtime.NewObject(runtime.ObjectPrototype)
	o.Put(sym, 1.0)
	o.Put("b", 1.0)
	o.DefineHidden("hidden", 1.0)

	keys, err := reflectOwnKeys(nil, []any{o})
	if err != nil {
		t.Fatal(err)
	}
	if got := elementsOf(t, keys); !slices.Equal(got, []any{"b", "hidden", sym}) {
		t.Errorf("got %v", got)
	}
}

func TestReflectApplyConstruct(t *testing.T) {
	sum := nativeFn(func(args []any) any {
		total := 0.0
		for _, a := range args {
			total += runtime.ToNumber(a)
		}
		return total
	})

	v, err := reflectApply(nil, []any{sum, runtime.Undefined, makeTestArray(1.0, 2.0, 3.0)})
	if err != nil {
		t.Fatal(err)
	}
	if v != 6.0 {
		t.Errorf("apply: got %v", v)
	}
	if _, err := reflectApply(nil, []any{sum, runtime.Undefined}); err == nil {
		t.Error("apply without an argument list should be a TypeError")
	}

	arrayCtor := intrinsic(t, "Array")
	arr, err := reflectConstruct(nil, []any{arrayCtor, makeTestArray(1.0, 2.0)})
	if err != nil {
		t.Fatal(err)
	}
	if got := elementsOf(t, arr); !slices.Equal(got, []any{1.0, 2.0}) {
		t.Errorf("construct: got %v", got)
	}
	if _, err := reflectConstruct(nil, []any{sum, makeTestArray()}); err == nil {
		t.Error("construct on a plain function should be a TypeError")
	}
}

func TestReflectDefineProperty(t *testing.T) {
	o := runtime.NewObject(runtime.ObjectPrototype)
	desc := runtime.NewObject(runtime.ObjectPrototype)
	desc.Put("value", 1.0)

	if ok, _ := reflectDefineProperty(nil, []any{o, "x", desc}); ok != true {
		t.Fatal("defineProperty should succeed")
	}
	p, ok := o.Own("x")
	if !ok || p.Writable || p.Enumerable {
		t.Errorf("defaults: got %+v", p)
	}

	desc.Put("value", 2.0)
	if ok, _ := reflectDefineProperty(nil, []any{o, "x", desc}); ok != false {
		t.Error("redefining a non-configurable property should report false")
	}
}

func TestReflectPrototype(t *testing.T) {
	o := runtime.NewObject(runtime.ObjectPrototype)
	proto := runtime.NewObject(nil)

	if ok, _ := reflectSetPrototypeOf(nil, []any{o, proto}); ok != true {
		t.Fatal("setPrototypeOf should succeed")
	}
	if p, _ := reflectGetPrototypeOf(nil, []any{o}); p != proto {
		t.Errorf("getPrototypeOf: got %v", p)
	}
	if ok, _ := reflectSetPrototypeOf(nil, []any{proto, o}); ok != false {
		t.Error("a cyclic prototype chain should report false")
	}

	if ok, _ := reflectPreventExtensions(nil, []any{o}); ok != true {
		t.Error("preventExtensions should report true")
	}
	if ok, _ := reflectIsExtensible(nil, []any{o}); ok != false {
		t.Error("object should no longer be extensible")
	}
	if ok, _ := reflectSetPrototypeOf(nil, []any{o, nil}); ok != false {
		t.Error("changing the prototype of a non-extensible object should report false")
	}
}
