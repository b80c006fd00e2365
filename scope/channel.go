package scope

import "github.com/example/expressions/runtime"

// AwaitKind selects how a drained await result is delivered.
type AwaitKind int

const (
	// AwaitAssign writes the result through Target.Set.
	AwaitAssign AwaitKind = iota
	// AwaitDeclare declares Target with the result.
	AwaitDeclare
)

// Target is a place an awaited value can be written to.
type Target interface {
	Set(s *Stack, value any) error
}

// Declarer is a target that can introduce bindings, such as an identifier
// or a destructuring pattern.
type Declarer interface {
	Declare(s *Stack, b Binding, value any) error
}

// AwaitPromise is a pending write whose value is a promise. The statement
// evaluator settles these after the statement that registered them.
type AwaitPromise struct {
	Target  Target
	Kind    AwaitKind
	Binding Binding
	Promise any
}

// AsyncIteration describes an active for await loop: the source iterator
// and the step to run for every settled element. A step returning nil
// continues the loop; any other result ends it and becomes the loop's
// completion.
type AsyncIteration struct {
	Iterator runtime.Iterator
	Step     func(value any) (any, error)
}

// AddAwait registers a pending write.
func (s *Stack) AddAwait(p AwaitPromise) { s.awaits = append(s.awaits, p) }

// PendingAwaits reports whether writes are waiting to be drained.
func (s *Stack) PendingAwaits() bool { return len(s.awaits) > 0 }

// DrainAwaits settles every registered promise in order and writes the
// results to their targets. The channel is empty afterwards, even on error.
func (s *Stack) DrainAwaits() error {
	pending := s.awaits
	s.awaits = nil

	for _, p := range pending {
		v, err := s.Await(p.Promise)
		if err != nil {
			return err
		}
		switch p.Kind {
		case AwaitDeclare:
			d, ok := p.Target.(Declarer)
			if !ok {
				return runtime.NewSyntaxError("invalid declaration target for await")
			}
			if err := d.Declare(s, p.Binding, v); err != nil {
				return err
			}
		default:
			if err := p.Target.Set(s, v); err != nil {
				return err
			}
		}
	}

	return nil
}

// SetForAwait registers the for await loop to drive.
func (s *Stack) SetForAwait(it *AsyncIteration) { s.forAwait = it }

// TakeForAwait returns and clears the registered loop.
func (s *Stack) TakeForAwait() *AsyncIteration {
	it := s.forAwait
	s.forAwait = nil

	return it
}

// SetYielder installs the coroutine hook yield expressions suspend through.
func (s *Stack) SetYielder(y runtime.Yielder) { s.yielder = y }

// Yielder returns the installed hook, or nil outside generator bodies.
func (s *Stack) Yielder() runtime.Yielder { return s.yielder }

// SetAwaiter installs the hook await expressions suspend through. Async
// function bodies get one; elsewhere await blocks until the operand settles.
func (s *Stack) SetAwaiter(a runtime.Awaiter) { s.awaiter = a }

// Async reports whether the stack runs an async body.
func (s *Stack) Async() bool { return s.awaiter != nil }

// Await settles v through the installed hook, or by blocking under the
// stack's context.
func (s *Stack) Await(v any) (any, error) {
	if s.awaiter != nil {
		return s.awaiter(v)
	}

	return runtime.AwaitContext(s.Context(), v)
}
