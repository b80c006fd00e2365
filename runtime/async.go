package runtime

import (
	"errors"
	"iter"
)

// Awaiter settles an awaited operand inside an async body. It returns the
// fulfillment value or a [ThrowError] carrying the rejection reason.
type Awaiter func(v any) (any, error)

// AsyncBody evaluates an async function body.
type AsyncBody func(await Awaiter) (any, error)

var errAbandoned = errors.New("async body abandoned")

// RunAsync starts body as a coroutine and returns the promise of its
// result. The body runs synchronously on the caller until it awaits a
// pending promise; it is then suspended and resumed by that promise's
// settlement, on the settling goroutine. Awaiting a settled value never
// suspends.
func RunAsync(body AsyncBody) *Promise {
	result := NewPromise()

	seq := func(yield func(*Promise) bool) {
		v, err := body(func(x any) (any, error) {
			p := awaitable(x)
			if p == nil {
				return x, nil
			}
			if p.State() == Pending && !yield(p) {
				return nil, errAbandoned
			}
			if p.State() == Rejected {
				return nil, Throw(p.Result())
			}
			return p.Result(), nil
		})
		switch {
		case errors.Is(err, errAbandoned):
		case err != nil:
			result.Reject(ErrorValue(err))
		default:
			result.Resolve(v)
		}
	}

	next, stop := iter.Pull(seq)
	var drive func()
	drive = func() {
		p, ok := next()
		if !ok {
			stop()
			return
		}
		p.onSettle(func(PromiseState, any) { drive() })
	}
	drive()

	return result
}

// awaitable returns the promise v stands for, adopting thenables, or nil
// for plain values.
func awaitable(v any) *Promise {
	switch v := v.(type) {
	case *Promise:
		return v
	case ObjectLike:
		then, err := GetMember(v, "then")
		if err != nil {
			return RejectedPromise(ErrorValue(err))
		}
		if IsCallable(then) {
			p := NewPromise()
			p.Resolve(v)
			return p
		}
	}

	return nil
}
