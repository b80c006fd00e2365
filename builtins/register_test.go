package builtins

import (
	"testing"

	"github.com/example/expressions/runtime"
	"github.com/example/expressions/scope"
)

// intrinsic returns the installed global with the given name.
func intrinsic(t *testing.T, name string) any {
	t.Helper()

	intrinsicsOnce.Do(installIntrinsics)
	for _, g := range intrinsics {
		if g.name == name {
			return g.value
		}
	}
	t.Fatalf("no intrinsic named %s", name)

	return nil
}

func TestRegister(t *testing.T) {
	ctx := scope.NewMapContext(nil)
	Register(ctx)

	names := []string{
		"Object", "Function", "Array", "String", "Number", "Boolean", "BigInt",
		"Symbol", "Error", "TypeError", "ReferenceError", "SyntaxError",
		"RangeError", "URIError", "EvalError", "AggregateError",
		"RegExp", "Map", "Set", "Promise", "Reflect", "Date",
		"Math", "JSON", "console", "globalThis",
		"parseInt", "parseFloat", "isNaN", "isFinite",
		"encodeURI", "decodeURI", "encodeURIComponent", "decodeURIComponent",
		"undefined", "NaN", "Infinity",
	}
	for _, name := range names {
		v, ok := ctx.Get(name)
		if !ok {
			t.Errorf("missing global %s", name)
			continue
		}
		if v == nil {
			t.Errorf("global %s is null", name)
		}
	}

	if g, _ := ctx.Get("globalThis"); g != ctx {
		t.Error("globalThis should be the context itself")
	}
}

func TestRegisterSharesIntrinsics(t *testing.T) {
	a, b := scope.NewMapContext(nil), scope.NewMapContext(nil)
	Register(a)
	Register(b)

	arrA, _ := a.Get("Array")
	arrB, _ := b.Get("Array")
	if arrA != arrB {
		t.Error("constructors should be shared between environments")
	}

	conA, _ := a.Get("console")
	conB, _ := b.Get("console")
	if conA == conB {
		t.Error("each environment gets its own console")
	}
}

func TestNames(t *testing.T) {
	names := Names()
	if names[0] != "Object" {
		t.Errorf("first name: got %s", names[0])
	}
	if last := names[len(names)-1]; last != "globalThis" {
		t.Errorf("last name: got %s", last)
	}
}

func TestIntrinsicPrototypes(t *testing.T) {
	arr := intrinsic(t, "Array").(*runtime.Function)
	if arr.Prototype() != runtime.ArrayPrototype {
		t.Error("Array.prototype should be the shared array prototype")
	}
	if _, ok := runtime.ArrayPrototype.Own("map"); !ok {
		t.Error("Array.prototype.map should be installed")
	}
}
