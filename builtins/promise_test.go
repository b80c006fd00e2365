package builtins

import (
	"slices"
	"testing"

	"github.com/example/expressions/runtime"
)

func settled(t *testing.T, v any) (runtime.PromiseState, any) {
	t.Helper()

	p, ok := v.(*runtime.Promise)
	if !ok {
		t.Fatalf("expected a promise, got %T", v)
	}

	return p.State(), p.Result()
}

func TestPromiseResolveReject(t *testing.T) {
	v, _ := promiseResolve(runtime.Undefined, []any{42.0})
	if state, result := settled(t, v); state != runtime.Fulfilled || result != 42.0 {
		t.Errorf("resolve: got %v %v", state, result)
	}

	same, _ := promiseResolve(runtime.Undefined, []any{v})
	if same != v {
		t.Error("resolve should return a promise argument unchanged")
	}

	r, _ := promiseReject(runtime.Undefined, []any{"error!"})
	if state, result := settled(t, r); state != runtime.Rejected || result != "error!" {
		t.Errorf("reject: got %v %v", state, result)
	}
}

func TestPromiseConstructor(t *testing.T) {
	executor := runtime.NewFunction("", 2, func(_ any, args []any) (any, error) {
		return runtime.Call(args[0], runtime.Undefined, []any{"done"})
	})
	v, err := constructPromise([]any{executor}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if state, result := settled(t, v); state != runtime.Fulfilled || result != "done" {
		t.Errorf("got %v %v", state, result)
	}

	throwing := runtime.NewFunction("", 2, func(any, []any) (any, error) {
		return nil, runtime.NewTypeError("nope")
	})
	v, err = constructPromise([]any{throwing}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if state, _ := settled(t, v); state != runtime.Rejected {
		t.Errorf("a throwing executor should reject, got %v", state)
	}

	if _, err := constructPromise([]any{42.0}, nil); err == nil {
		t.Error("a non-callable executor should be a TypeError")
	}
}

func TestPromiseThenCatchFinally(t *testing.T) {
	double := nativeFn(func(args []any) any { return runtime.ToNumber(args[0]) * 2 })

	v, _ := promiseThen(runtime.ResolvedPromise(21.0), []any{double})
	if state, result := settled(t, v); state != runtime.Fulfilled || result != 42.0 {
		t.Errorf("then: got %v %v", state, result)
	}

	recovered := nativeFn(func(args []any) any { return "recovered from " + runtime.ToString(args[0]) })
	v, _ = promiseCatch(runtime.RejectedPromise("x"), []any{recovered})
	if _, result := settled(t, v); result != "recovered from x" {
		t.Errorf("catch: got %v", result)
	}

	calls := 0
	cleanup := nativeFn(func([]any) any { calls++; return "ignored" })
	v, _ = promiseFinally(runtime.ResolvedPromise("kept"), []any{cleanup})
	if state, result := settled(t, v); state != runtime.Fulfilled || result != "kept" {
		t.Errorf("finally fulfilled: got %v %v", state, result)
	}
	v, _ = promiseFinally(runtime.RejectedPromise("reason"), []any{cleanup})
	if state, result := settled(t, v); state != runtime.Rejected || result != "reason" {
		t.Errorf("finally rejected: got %v %v", state, result)
	}
	if calls != 2 {
		t.Errorf("finally callback ran %d times", calls)
	}

	if _, err := promiseThen(42.0, nil); err == nil {
		t.Error("then on a non-promise should be a TypeError")
	}
}

func TestPromiseAll(t *testing.T) {
	pending := runtime.NewPromise()
	input := runtime.NewArray([]any{runtime.ResolvedPromise(1.0), pending, 3.0})

	v, err := promiseAll(runtime.Undefined, []any{input})
	if err != nil {
		t.Fatal(err)
	}
	if state, _ := settled(t, v); state != runtime.Pending {
		t.Fatalf("all should wait for pending elements, got %v", state)
	}

	pending.Resolve(2.0)
	state, result := settled(t, v)
	if state != runtime.Fulfilled {
		t.Fatalf("state: got %v", state)
	}
	if got := elementsOf(t, result); !slices.Equal(got, []any{1.0, 2.0, 3.0}) {
		t.Errorf("values: got %v", got)
	}

	v, _ = promiseAll(runtime.Undefined, []any{runtime.NewArray([]any{runtime.RejectedPromise("bad"), 1.0})})
	if state, result := settled(t, v); state != runtime.Rejected || result != "bad" {
		t.Errorf("rejection: got %v %v", state, result)
	}

	v, _ = promiseAll(runtime.Undefined, []any{runtime.NewArray(nil)})
	if state, _ := settled(t, v); state != runtime.Fulfilled {
		t.Errorf("empty: got %v", state)
	}

	v, _ = promiseAll(runtime.Undefined, []any{42.0})
	if state, _ := settled(t, v); state != runtime.Rejected {
		t.Errorf("non-iterable: got %v", state)
	}
}

func TestPromiseAllSettled(t *testing.T) {
	input := runtime.NewArray([]any{runtime.ResolvedPromise(1.0), runtime.RejectedPromise("no")})
	v, _ := promiseAllSettled(runtime.Undefined, []any{input})

	_, result := settled(t, v)
	got := elementsOf(t, result)
	if len(got) != 2 {
		t.Fatalf("got %v", got)
	}
	first := got[0].(*runtime.Object)
	if first.Value("status") != "fulfilled" || first.Value("value") != 1.0 {
		t.Errorf("first: got %s", runtime.Inspect(first))
	}
	second := got[1].(*runtime.Object)
	if second.Value("status") != "rejected" || second.Value("reason") != "no" {
		t.Errorf("second: got %s", runtime.Inspect(second))
	}
}

func TestPromiseAnyRace(t *testing.T) {
	v, _ := promiseAny(runtime.Undefined, []any{runtime.NewArray([]any{runtime.RejectedPromise("a"), runtime.ResolvedPromise("b")})})
	if state, result := settled(t, v); state != runtime.Fulfilled || result != "b" {
		t.Errorf("any: got %v %v", state, result)
	}

	intrinsic(t, "AggregateError")
	v, _ = promiseAny(runtime.Undefined, []any{runtime.NewArray([]any{runtime.RejectedPromise("a")})})
	state, result := settled(t, v)
	if state != runtime.Rejected {
		t.Fatalf("any all rejected: got %v", state)
	}
	if name := result.(*runtime.Object).Value("name"); name != "AggregateError" {
		t.Errorf("reason name: got %v", name)
	}

	slow := runtime.NewPromise()
	v, _ = promiseRace(runtime.Undefined, []any{runtime.NewArray([]any{slow, runtime.ResolvedPromise("fast")})})
	if _, result := settled(t, v); result != "fast" {
		t.Errorf("race: got %v", result)
	}
}

func TestPromiseWithResolvers(t *testing.T) {
	v, _ := promiseWithResolvers(runtime.Undefined, nil)
	o := v.(*runtime.Object)

	if _, err := runtime.Call(o.Value("resolve"), runtime.Undefined, []any{"ok"}); err != nil {
		t.Fatal(err)
	}
	if state, result := settled(t, o.Value("promise")); state != runtime.Fulfilled || result != "ok" {
		t.Errorf("got %v %v", state, result)
	}
}
