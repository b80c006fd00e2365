package builtins

import (
	"testing"

	"github.com/example/expressions/runtime"
)

func countTo(n float64, async bool) *runtime.Generator {
	intrinsicsOnce.Do(installIntrinsics)

	return runtime.NewGenerator(func(yield runtime.Yielder) (any, error) {
		for i := 1.0; i <= n; i++ {
			if _, err := yield(&runtime.YieldValue{Value: i}); err != nil {
				return nil, err
			}
		}
		return "done", nil
	}, async)
}

func iterResult(t *testing.T, v any) (any, bool) {
	t.Helper()

	o, ok := v.(*runtime.Object)
	if !ok {
		t.Fatalf("expected iterator result, got %T", v)
	}
	done, _ := o.Value("done").(bool)

	return o.Value("value"), done
}

func TestGeneratorMethods(t *testing.T) {
	g := countTo(2, false)

	for _, want := range []any{1.0, 2.0} {
		v, done := iterResult(t, callMethod(t, g, "next", g))
		if v != want || done {
			t.Fatalf("next: got %v %v, want %v", v, done, want)
		}
	}
	if v, done := iterResult(t, callMethod(t, g, "next", g)); v != "done" || !done {
		t.Errorf("final: got %v %v", v, done)
	}
	if v, done := iterResult(t, callMethod(t, g, "next", g)); v != runtime.Undefined || !done {
		t.Errorf("exhausted: got %v %v", v, done)
	}
}

func TestGeneratorReturnThrow(t *testing.T) {
	g := countTo(3, false)
	callMethod(t, g, "next", g)

	if v, done := iterResult(t, callMethod(t, g, "return", g, "early")); v != "early" || !done {
		t.Errorf("return: got %v %v", v, done)
	}

	g = countTo(3, false)
	callMethod(t, g, "next", g)
	throw, _ := runtime.GetMember(g, "throw")
	if _, err := runtime.Call(throw, g, []any{"boom"}); err == nil {
		t.Fatal("throw should propagate out of the body")
	} else if runtime.ErrorValue(err) != "boom" {
		t.Errorf("thrown value: got %v", runtime.ErrorValue(err))
	}
}

func TestGeneratorIsIterable(t *testing.T) {
	g := countTo(3, false)
	iterFn, _ := runtime.GetMember(g, runtime.SymbolIterator)
	if it, _ := runtime.Call(iterFn, g, nil); it != g {
		t.Error("[Symbol.iterator] should return the generator itself")
	}

	values, err := runtime.Collect(g)
	if err != nil {
		t.Fatal(err)
	}
	if len(values) != 3 {
		t.Errorf("got %v", values)
	}
}

func TestAsyncGeneratorReturnsPromises(t *testing.T) {
	g := countTo(1, true)

	state, result := settled(t, callMethod(t, g, "next", g))
	if state != runtime.Fulfilled {
		t.Fatalf("next: %v", state)
	}
	if v, done := iterResult(t, result); v != 1.0 || done {
		t.Errorf("next: got %v %v", v, done)
	}

	state, result = settled(t, callMethod(t, g, "throw", g, "bad"))
	if state != runtime.Rejected || result != "bad" {
		t.Errorf("throw: got %v %v", state, result)
	}
}

func TestGeneratorReceiverCheck(t *testing.T) {
	next, err := generatorResume("next", (*runtime.Generator).Next)(runtime.NewObject(nil), nil)
	if err == nil {
		t.Errorf("next on a plain object should be a TypeError, got %v", next)
	}
}
