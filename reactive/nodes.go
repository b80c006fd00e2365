package reactive

import (
	"log/slog"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"

	"github.com/example/expressions/runtime"
)

// Signal is a writable slot.
type Signal struct {
	scope *SignalScope
	index int
}

// CreateSignal allocates a signal holding v.
func (s *SignalScope) CreateSignal(v any) *Signal {
	return &Signal{scope: s, index: s.alloc(v)}
}

// Index returns the slot of the signal.
func (sig *Signal) Index() int { return sig.index }

// Get returns the value and records the read.
func (sig *Signal) Get() any {
	sig.scope.ObserveIndex(sig.index)
	return sig.scope.Get(sig.index)
}

// Set replaces the value.
func (sig *Signal) Set(v any) { sig.scope.Set(sig.index, v) }

// Update replaces the value with fn applied to the current one.
func (sig *Signal) Update(fn func(any) any) { sig.Set(fn(sig.Get())) }

// Func exposes the signal to scripts as a getter function with set and
// update methods.
func (sig *Signal) Func() *runtime.Function {
	fn := runtime.NewFunction("signal", 0, func(any, []any) (any, error) {
		return sig.Get(), nil
	})
	fn.Put("set", runtime.NewFunction("set", 1, func(_ any, args []any) (any, error) {
		sig.Set(arg(args, 0))
		return runtime.Undefined, nil
	}))
	fn.Put("update", runtime.NewFunction("update", 1, func(_ any, args []any) (any, error) {
		v, err := runtime.Call(arg(args, 0), runtime.Undefined, []any{sig.Get()})
		if err != nil {
			return nil, err
		}
		sig.Set(v)
		return runtime.Undefined, nil
	}))

	return fn
}

// Computed is a slot derived from other slots. It re-runs whenever a slot
// it read during its last run changes.
type Computed struct {
	scope *SignalScope
	index int
	fn    func() (any, error)
	deps  dependencies
	err   error
	runs  int
}

// CreateComputed runs fn once and keeps its result up to date.
func (s *SignalScope) CreateComputed(fn func() (any, error)) *Computed {
	c := &Computed{
		scope: s,
		fn:    fn,
		deps:  dependencies{scope: s, subs: treemap.NewWith(utils.IntComparator)},
	}

	v, state, err := s.tracked(fn)
	c.index, c.err, c.runs = s.alloc(v), err, 1
	c.deps.update(state, c.onChange)

	return c
}

func (c *Computed) onChange(any, any) {
	v, state, err := c.scope.tracked(c.fn)
	c.runs++
	c.deps.update(state, c.onChange)
	c.err = err
	c.scope.Set(c.index, v)
}

// Index returns the slot of the computed value.
func (c *Computed) Index() int { return c.index }

// Get returns the current value and records the read.
func (c *Computed) Get() any {
	c.scope.ObserveIndex(c.index)
	return c.scope.Get(c.index)
}

// Err returns the error of the last run. The value of a failed run is
// whatever fn returned alongside the error.
func (c *Computed) Err() error { return c.err }

// Runs counts how often fn ran.
func (c *Computed) Runs() int { return c.runs }

// Dependencies lists the slots the computed currently reacts to.
func (c *Computed) Dependencies() []int { return c.deps.active() }

// Func exposes the computed value to scripts as a getter function.
func (c *Computed) Func() *runtime.Function {
	return runtime.NewFunction("computed", 0, func(any, []any) (any, error) {
		return c.Get(), nil
	})
}

// Lazy is a slot recomputed on every read.
type Lazy struct {
	scope *SignalScope
	index int
	fn    func() (any, error)
}

// CreateLazy allocates a lazy slot seeded with one run of fn.
func (s *SignalScope) CreateLazy(fn func() (any, error)) *Lazy {
	v, _ := fn()
	return &Lazy{scope: s, index: s.alloc(v), fn: fn}
}

// Index returns the slot of the lazy value.
func (l *Lazy) Index() int { return l.index }

// Get reruns fn, stores the result and records the read.
func (l *Lazy) Get() (any, error) {
	v, err := l.fn()
	l.scope.Set(l.index, v)
	l.scope.ObserveIndex(l.index)

	return l.scope.Get(l.index), err
}

// Func exposes the lazy value to scripts as a getter function.
func (l *Lazy) Func() *runtime.Function {
	return runtime.NewFunction("lazy", 0, func(any, []any) (any, error) {
		return l.Get()
	})
}

// Effect is a side effect re-run whenever a slot it read changes.
type Effect struct {
	scope     *SignalScope
	fn        func(onCleanup func(func())) error
	deps      dependencies
	cleanup   func()
	err       error
	destroyed bool
}

// CreateEffect runs fn once and again after each change of the slots it
// read. fn may register a cleanup that runs before the next run and on
// [Effect.Destroy]. Errors are logged and kept for [Effect.Err].
func (s *SignalScope) CreateEffect(fn func(onCleanup func(func())) error) *Effect {
	e := &Effect{
		scope: s,
		fn:    fn,
		deps:  dependencies{scope: s, subs: treemap.NewWith(utils.IntComparator)},
	}

	_, state, _ := s.tracked(e.run)
	e.deps.update(state, e.onChange)

	return e
}

func (e *Effect) run() (any, error) {
	registered := false
	err := e.fn(func(cleanup func()) {
		e.cleanup = cleanup
		registered = true
	})
	e.err = err
	if err != nil {
		e.scope.log.Error("effect failed", slog.Any("error", err))
	}
	if !registered {
		e.cleanup = nil
	}

	return nil, err
}

func (e *Effect) onChange(any, any) {
	if e.destroyed {
		return
	}
	if e.cleanup != nil {
		e.cleanup()
	}
	_, state, _ := e.scope.tracked(e.run)
	e.deps.update(state, e.onChange)
}

// Dependencies lists the slots the effect currently reacts to.
func (e *Effect) Dependencies() []int { return e.deps.active() }

// Err returns the error of the last run.
func (e *Effect) Err() error { return e.err }

// Destroy unsubscribes the effect and runs its pending cleanup.
func (e *Effect) Destroy() {
	if e.destroyed {
		return
	}
	e.destroyed = true
	e.deps.close()
	if e.cleanup != nil {
		e.cleanup()
		e.cleanup = nil
	}
}

func arg(args []any, i int) any {
	if i < len(args) {
		return args[i]
	}

	return runtime.Undefined
}
