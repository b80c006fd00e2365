package runtime

import (
	"context"
	"sync"
)

// PromiseState is the settlement state of a [Promise].
type PromiseState int

const (
	Pending PromiseState = iota
	Fulfilled
	Rejected
)

func (s PromiseState) String() string {
	switch s {
	case Fulfilled:
		return "fulfilled"
	case Rejected:
		return "rejected"
	}

	return "pending"
}

// Promise is a settle-once value. There is no microtask queue: reactions
// run on the goroutine that settles the promise, or immediately when it is
// already settled. Host goroutines may settle promises a script awaits.
type Promise struct {
	*Object

	mu        sync.Mutex
	state     PromiseState
	value     any
	done      chan struct{}
	reactions []func()
}

// NewPromise returns a pending promise.
func NewPromise() *Promise {
	obj := NewObject(PromisePrototype)
	obj.class = "Promise"

	return &Promise{Object: obj, done: make(chan struct{})}
}

// ResolvedPromise returns a promise resolved with v.
func ResolvedPromise(v any) *Promise {
	p := NewPromise()
	p.Resolve(v)

	return p
}

// RejectedPromise returns a promise rejected with reason.
func RejectedPromise(reason any) *Promise {
	p := NewPromise()
	p.Reject(reason)

	return p
}

// PromiseFrom returns v itself when it is a promise, otherwise a promise
// resolved with v.
func PromiseFrom(v any) *Promise {
	if p, ok := v.(*Promise); ok {
		return p
	}

	return ResolvedPromise(v)
}

// State returns the current state.
func (p *Promise) State() PromiseState {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.state
}

// Result returns the fulfillment value or rejection reason.
func (p *Promise) Result() any {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.value
}

// Done is closed once the promise settles.
func (p *Promise) Done() <-chan struct{} { return p.done }

// Resolve fulfills p with v, adopting v's state when it is a promise or a
// thenable.
func (p *Promise) Resolve(v any) {
	if v == any(p) {
		p.Reject(MakeError("TypeError", "Chaining cycle detected for promise"))
		return
	}

	if other, ok := v.(*Promise); ok {
		other.onSettle(func(state PromiseState, value any) {
			p.settle(state, value)
		})
		return
	}

	if _, ok := v.(ObjectLike); ok {
		then, err := GetMember(v, "then")
		if err != nil {
			p.Reject(ErrorValue(err))
			return
		}
		if IsCallable(then) {
			var once sync.Once
			resolve := NewFunction("", 1, func(_ any, args []any) (any, error) {
				once.Do(func() { p.Resolve(argAt(args, 0)) })
				return Undefined, nil
			})
			reject := NewFunction("", 1, func(_ any, args []any) (any, error) {
				once.Do(func() { p.Reject(argAt(args, 0)) })
				return Undefined, nil
			})
			if _, err := Call(then, v, []any{resolve, reject}); err != nil {
				once.Do(func() { p.Reject(ErrorValue(err)) })
			}
			return
		}
	}

	p.settle(Fulfilled, v)
}

// Reject rejects p with reason.
func (p *Promise) Reject(reason any) {
	p.settle(Rejected, reason)
}

func (p *Promise) settle(state PromiseState, value any) {
	p.mu.Lock()
	if p.state != Pending {
		p.mu.Unlock()
		return
	}
	p.state, p.value = state, value
	reactions := p.reactions
	p.reactions = nil
	close(p.done)
	p.mu.Unlock()

	for _, r := range reactions {
		r()
	}
}

func (p *Promise) onSettle(fn func(PromiseState, any)) {
	p.mu.Lock()
	if p.state == Pending {
		p.reactions = append(p.reactions, func() { fn(p.State(), p.Result()) })
		p.mu.Unlock()
		return
	}
	state, value := p.state, p.value
	p.mu.Unlock()

	fn(state, value)
}

// Then registers callbacks and returns the derived promise. Non-callable
// handlers pass the settlement through.
func (p *Promise) Then(onFulfilled, onRejected any) *Promise {
	child := NewPromise()

	p.onSettle(func(state PromiseState, value any) {
		handler := onFulfilled
		if state == Rejected {
			handler = onRejected
		}
		if !IsCallable(handler) {
			child.settle(state, value)
			return
		}
		r, err := Call(handler, Undefined, []any{value})
		if err != nil {
			child.Reject(ErrorValue(err))
			return
		}
		child.Resolve(r)
	})

	return child
}

// Await blocks until v settles. Non-promise values are returned as is;
// thenables are adopted.
func Await(v any) (any, error) {
	return AwaitContext(context.Background(), v)
}

// AwaitContext is [Await] bounded by ctx.
func AwaitContext(ctx context.Context, v any) (any, error) {
	p, ok := v.(*Promise)
	if !ok {
		if _, isObj := v.(ObjectLike); !isObj {
			return v, nil
		}
		then, err := GetMember(v, "then")
		if err != nil {
			return nil, err
		}
		if !IsCallable(then) {
			return v, nil
		}
		p = NewPromise()
		p.Resolve(v)
	}

	select {
	case <-p.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if p.State() == Rejected {
		return nil, Throw(p.Result())
	}

	return p.Result(), nil
}

func argAt(args []any, i int) any {
	if i < len(args) {
		return args[i]
	}

	return Undefined
}
