package runtime

import (
	"errors"
	"iter"
)

// Yielder hands a yield sentinel to the generator driving the body and
// returns the value sent back by the consumer.
type Yielder func(Sentinel) (any, error)

// GeneratorBody evaluates a generator function body. It returns the
// function's return value.
type GeneratorBody func(yield Yielder) (any, error)

type resumeMode int

const (
	resumeNext resumeMode = iota
	resumeReturn
	resumeThrow
)

type genState int

const (
	suspendedStart genState = iota
	suspendedYield
	running
	completed
)

type genStep struct {
	value any
	done  bool
	err   error
}

// Generator is the object returned by calling a generator function. Its
// body runs as a coroutine; each yield suspends it until the next resume.
type Generator struct {
	*Object

	// Async marks async generators, whose methods return promises.
	Async bool

	next  func() (genStep, bool)
	stop  func()
	mode  resumeMode
	sent  any
	state genState
}

// NewGenerator prepares a generator; body does not run until the first
// call to Next.
func NewGenerator(body GeneratorBody, async bool) *Generator {
	obj := NewObject(GeneratorPrototype)
	obj.class = "Generator"
	g := &Generator{Object: obj, Async: async}

	seq := func(yield func(genStep) bool) {
		v, err := body(func(s Sentinel) (any, error) {
			return g.yieldOut(yield, s)
		})
		yield(genStep{value: v, done: true, err: err})
	}
	g.next, g.stop = iter.Pull(seq)

	return g
}

func (g *Generator) yieldOut(yield func(genStep) bool, s Sentinel) (any, error) {
	switch s := s.(type) {
	case *YieldValue:
		return g.suspend(yield, s.Value)
	case *YieldDelegateValue:
		return g.delegate(yield, s.Value)
	}

	return nil, NewSyntaxError("invalid yield")
}

// suspend emits value and interprets the consumer's resumption.
func (g *Generator) suspend(yield func(genStep) bool, value any) (any, error) {
	if !yield(genStep{value: value}) {
		return nil, &GeneratorReturn{Value: Undefined}
	}

	switch g.mode {
	case resumeReturn:
		return nil, &GeneratorReturn{Value: g.sent}
	case resumeThrow:
		return nil, Throw(g.sent)
	}

	return g.sent, nil
}

// delegate implements yield*: values of the inner iterable are re-emitted
// and resumptions forwarded until it completes.
func (g *Generator) delegate(yield func(genStep) bool, iterable any) (any, error) {
	if inner, ok := iterable.(*Generator); ok {
		mode, sent := resumeNext, any(Undefined)
		for {
			value, done, err := inner.resume(mode, sent)
			if err != nil {
				return nil, err
			}
			if done {
				if mode == resumeReturn {
					return nil, &GeneratorReturn{Value: value}
				}
				return value, nil
			}
			if !yield(genStep{value: value}) {
				_, _, _ = inner.Return(Undefined)
				return nil, &GeneratorReturn{Value: Undefined}
			}
			mode, sent = g.mode, g.sent
		}
	}

	it, err := GetIterator(iterable)
	if err != nil {
		return nil, err
	}
	for {
		value, done, err := it.Next()
		if err != nil {
			return nil, err
		}
		if done {
			return value, nil
		}
		if !yield(genStep{value: value}) {
			return nil, errors.Join(&GeneratorReturn{Value: Undefined}, it.Close())
		}
		switch g.mode {
		case resumeReturn:
			return nil, errors.Join(&GeneratorReturn{Value: g.sent}, it.Close())
		case resumeThrow:
			return nil, errors.Join(Throw(g.sent), it.Close())
		}
	}
}

// Next resumes the body, sending v as the result of the pending yield.
func (g *Generator) Next(v any) (any, bool, error) { return g.resume(resumeNext, v) }

// Return resumes the body as if the pending yield were a return statement.
func (g *Generator) Return(v any) (any, bool, error) { return g.resume(resumeReturn, v) }

// Throw resumes the body by throwing v at the pending yield.
func (g *Generator) Throw(v any) (any, bool, error) { return g.resume(resumeThrow, v) }

// Done reports whether the generator has completed.
func (g *Generator) Done() bool { return g.state == completed }

func (g *Generator) resume(mode resumeMode, v any) (any, bool, error) {
	switch g.state {
	case running:
		return nil, false, NewTypeError("Generator is already running")
	case completed:
		return g.finished(mode, v)
	case suspendedStart:
		if mode != resumeNext {
			g.state = completed
			g.stop()
			return g.finished(mode, v)
		}
	}

	g.mode, g.sent = mode, v
	g.state = running
	step, ok := g.next()
	if !ok || step.done {
		g.state = completed
		g.stop()
	} else {
		g.state = suspendedYield
	}
	if !ok {
		return Undefined, true, nil
	}

	if step.err != nil {
		var gr *GeneratorReturn
		if errors.As(step.err, &gr) {
			return gr.Value, true, nil
		}
		return nil, true, step.err
	}

	return step.value, step.done, nil
}

func (g *Generator) finished(mode resumeMode, v any) (any, bool, error) {
	switch mode {
	case resumeReturn:
		return v, true, nil
	case resumeThrow:
		return nil, true, Throw(v)
	}

	return Undefined, true, nil
}

// IterResult builds the {value, done} object of the iterator protocol.
func IterResult(value any, done bool) *Object {
	o := NewObject(ObjectPrototype)
	o.Put("value", value)
	o.Put("done", done)

	return o
}
