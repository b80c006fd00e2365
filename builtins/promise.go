package builtins

import (
	"sync"

	"github.com/example/expressions/runtime"
)

func createPromiseConstructor() *runtime.Function {
	proto := runtime.PromisePrototype
	proto.SetClass("Promise")

	method(proto, "then", 2, promiseThen)
	method(proto, "catch", 1, promiseCatch)
	method(proto, "finally", 1, promiseFinally)

	ctor := constructor("Promise", 1, proto, func(any, []any) (any, error) {
		return nil, runtime.NewTypeError("Promise constructor cannot be invoked without 'new'")
	}, constructPromise)

	method(ctor.Object, "all", 1, promiseAll)
	method(ctor.Object, "allSettled", 1, promiseAllSettled)
	method(ctor.Object, "any", 1, promiseAny)
	method(ctor.Object, "race", 1, promiseRace)
	method(ctor.Object, "reject", 1, promiseReject)
	method(ctor.Object, "resolve", 1, promiseResolve)
	method(ctor.Object, "withResolvers", 0, promiseWithResolvers)

	return ctor
}

// resolvingFunctions returns the resolve and reject callbacks handed to an
// executor.
func resolvingFunctions(p *runtime.Promise) (resolve, reject *runtime.Function) {
	resolve = runtime.NewFunction("resolve", 1, func(_ any, args []any) (any, error) {
		p.Resolve(arg(args, 0))
		return runtime.Undefined, nil
	})
	reject = runtime.NewFunction("reject", 1, func(_ any, args []any) (any, error) {
		p.Reject(arg(args, 0))
		return runtime.Undefined, nil
	})

	return resolve, reject
}

func constructPromise(args []any, newTarget *runtime.Function) (any, error) {
	executor, err := callable(arg(args, 0), "Promise resolver "+runtime.Inspect(arg(args, 0)))
	if err != nil {
		return nil, err
	}

	p := runtime.NewPromise()
	if newTarget != nil {
		if proto := newTarget.Prototype(); proto != nil {
			p.SetProto(proto)
		}
	}
	resolve, reject := resolvingFunctions(p)
	if _, err := runtime.Call(executor, runtime.Undefined, []any{resolve, reject}); err != nil {
		if !runtime.IsCatchable(err) {
			return nil, err
		}
		p.Reject(runtime.ErrorValue(err))
	}

	return p, nil
}

func thisPromise(this any, name string) (*runtime.Promise, error) {
	p, ok := this.(*runtime.Promise)
	if !ok {
		return nil, runtime.NewTypeError("Method Promise.prototype.%s called on incompatible receiver %s", name, runtime.Inspect(this))
	}

	return p, nil
}

func promiseThen(this any, args []any) (any, error) {
	p, err := thisPromise(this, "then")
	if err != nil {
		return nil, err
	}

	return p.Then(arg(args, 0), arg(args, 1)), nil
}

func promiseCatch(this any, args []any) (any, error) {
	p, err := thisPromise(this, "catch")
	if err != nil {
		return nil, err
	}

	return p.Then(runtime.Undefined, arg(args, 0)), nil
}

// promiseFinally runs the callback on either outcome and passes the
// original settlement through, unless the callback throws or returns a
// rejected promise.
func promiseFinally(this any, args []any) (any, error) {
	p, err := thisPromise(this, "finally")
	if err != nil {
		return nil, err
	}
	fn := arg(args, 0)
	if !runtime.IsCallable(fn) {
		return p.Then(fn, fn), nil
	}

	after := func(settle runtime.NativeFunc) runtime.NativeFunc {
		return func(_ any, args []any) (any, error) {
			r, err := runtime.Call(fn, runtime.Undefined, nil)
			if err != nil {
				return nil, err
			}
			return runtime.ResolvedPromise(r).Then(runtime.NewFunction("", 0, func(any, []any) (any, error) {
				return settle(nil, args)
			}), runtime.Undefined), nil
		}
	}
	onFulfilled := runtime.NewFunction("", 1, after(func(_ any, args []any) (any, error) {
		return arg(args, 0), nil
	}))
	onRejected := runtime.NewFunction("", 1, after(func(_ any, args []any) (any, error) {
		return nil, runtime.Throw(arg(args, 0))
	}))

	return p.Then(onFulfilled, onRejected), nil
}

func promiseResolve(_ any, args []any) (any, error) {
	return runtime.PromiseFrom(arg(args, 0)), nil
}

func promiseReject(_ any, args []any) (any, error) {
	return runtime.RejectedPromise(arg(args, 0)), nil
}

func promiseWithResolvers(any, []any) (any, error) {
	p := runtime.NewPromise()
	resolve, reject := resolvingFunctions(p)

	return runtime.NewPlainObject([]string{"promise", "resolve", "reject"}, map[string]any{
		"promise": p,
		"resolve": resolve,
		"reject":  reject,
	}), nil
}

// combine subscribes to every element of an iterable. begin receives the
// element count before any element is observed. onSettle is called once
// per element, serialized by a mutex since promises may settle on other
// goroutines; the action it returns runs after the mutex is released.
func combine(iterable any, begin func(n int), onSettle func(i int, state runtime.PromiseState, v any) func()) error {
	items, err := runtime.Collect(iterable)
	if err != nil {
		return err
	}
	begin(len(items))

	var mu sync.Mutex
	for i, item := range items {
		handler := func(state runtime.PromiseState) *runtime.Function {
			return runtime.NewFunction("", 1, func(_ any, args []any) (any, error) {
				mu.Lock()
				action := onSettle(i, state, arg(args, 0))
				mu.Unlock()
				if action != nil {
					action()
				}
				return runtime.Undefined, nil
			})
		}
		runtime.ResolvedPromise(item).Then(handler(runtime.Fulfilled), handler(runtime.Rejected))
	}

	return nil
}

func rejectedWith(err error) (any, error) {
	if !runtime.IsCatchable(err) {
		return nil, err
	}

	return runtime.RejectedPromise(runtime.ErrorValue(err)), nil
}

// collectAll settles result with an array once every element has been
// recorded; reject short-circuits on the first rejection when set.
func collectAll(iterable any, record func(state runtime.PromiseState, v any) (any, bool)) (any, error) {
	result := runtime.NewPromise()
	var values []any
	remaining := 0

	err := combine(iterable, func(n int) {
		values = make([]any, n)
		remaining = n
		if n == 0 {
			result.Resolve(runtime.NewArray(values))
		}
	}, func(i int, state runtime.PromiseState, v any) func() {
		value, ok := record(state, v)
		if !ok {
			return func() { result.Reject(v) }
		}
		values[i] = value
		remaining--
		if remaining == 0 {
			done := runtime.NewArray(values)
			return func() { result.Resolve(done) }
		}
		return nil
	})
	if err != nil {
		return rejectedWith(err)
	}

	return result, nil
}

func promiseAll(_ any, args []any) (any, error) {
	return collectAll(arg(args, 0), func(state runtime.PromiseState, v any) (any, bool) {
		return v, state == runtime.Fulfilled
	})
}

func promiseAllSettled(_ any, args []any) (any, error) {
	return collectAll(arg(args, 0), func(state runtime.PromiseState, v any) (any, bool) {
		key := "value"
		if state == runtime.Rejected {
			key = "reason"
		}
		return runtime.NewPlainObject([]string{"status", key}, map[string]any{
			"status": state.String(),
			key:      v,
		}), true
	})
}

func aggregateError(reasons []any) *runtime.Object {
	e := runtime.MakeError("AggregateError", "All promises were rejected")
	e.DefineHidden("errors", runtime.NewArray(reasons))

	return e
}

func promiseAny(_ any, args []any) (any, error) {
	result := runtime.NewPromise()
	var reasons []any
	remaining := 0

	err := combine(arg(args, 0), func(n int) {
		reasons = make([]any, n)
		remaining = n
		if n == 0 {
			result.Reject(aggregateError(reasons))
		}
	}, func(i int, state runtime.PromiseState, v any) func() {
		if state == runtime.Fulfilled {
			return func() { result.Resolve(v) }
		}
		reasons[i] = v
		remaining--
		if remaining == 0 {
			e := aggregateError(reasons)
			return func() { result.Reject(e) }
		}
		return nil
	})
	if err != nil {
		return rejectedWith(err)
	}

	return result, nil
}

func promiseRace(_ any, args []any) (any, error) {
	result := runtime.NewPromise()
	err := combine(arg(args, 0), func(int) {}, func(_ int, state runtime.PromiseState, v any) func() {
		if state == runtime.Rejected {
			return func() { result.Reject(v) }
		}
		return func() { result.Resolve(v) }
	})
	if err != nil {
		return rejectedWith(err)
	}

	return result, nil
}
