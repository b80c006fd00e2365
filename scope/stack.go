package scope

import (
	"context"

	"github.com/example/expressions/log"
	"github.com/example/expressions/runtime"
)

// ModuleLoader resolves import specifiers to module namespace values. It is
// implemented by the host; the engine never touches the file system.
type ModuleLoader interface {
	Load(ctx context.Context, specifier string, attributes map[string]string) (any, error)
}

// env is the part of a stack shared by every copy made from it.
type env struct {
	ctx     context.Context
	loader  ModuleLoader
	exports *runtime.Object
	logger  log.Logger
}

// Stack is an ordered chain of scopes, innermost last. It is not safe for
// concurrent use; copies are independent except for the shared environment
// (context, module loader, exports, logger). [Stack.WithContext] starts a
// new environment.
type Stack struct {
	scopes []*Scope
	env    *env

	awaits   []AwaitPromise
	forAwait *AsyncIteration
	yielder  runtime.Yielder
	awaiter  runtime.Awaiter
}

// NewStack returns a stack holding the given scopes, outermost first.
func NewStack(scopes ...*Scope) *Stack {
	return &Stack{
		scopes: scopes,
		env:    &env{ctx: context.Background()},
	}
}

// NewGlobalStack returns a stack with a single global scope over ctx.
func NewGlobalStack(ctx Context) *Stack {
	return NewStack(New(Global, ctx))
}

// Scopes returns the scope chain, outermost first.
func (s *Stack) Scopes() []*Scope { return s.scopes }

// Len returns the number of scopes.
func (s *Stack) Len() int { return len(s.scopes) }

// Top returns the innermost scope.
func (s *Stack) Top() *Scope {
	if len(s.scopes) == 0 {
		return nil
	}

	return s.scopes[len(s.scopes)-1]
}

// Global returns the outermost scope.
func (s *Stack) Global() *Scope {
	if len(s.scopes) == 0 {
		return nil
	}

	return s.scopes[0]
}

// Push appends sc as the innermost scope and returns it.
func (s *Stack) Push(sc *Scope) *Scope {
	s.scopes = append(s.scopes, sc)
	return sc
}

// PushScope pushes a new scope of the given kind.
func (s *Stack) PushScope(kind Kind) *Scope { return s.Push(New(kind, nil)) }

// PushBlockScope pushes a new block scope.
func (s *Stack) PushBlockScope() *Scope { return s.PushScope(Block) }

// Pop removes and returns the innermost scope.
func (s *Stack) Pop() *Scope {
	top := s.Top()
	if top != nil {
		s.scopes = s.scopes[:len(s.scopes)-1]
	}

	return top
}

// ClearTo removes sc and every scope above it. It does nothing when sc is
// not on the stack.
func (s *Stack) ClearTo(sc *Scope) {
	if i := s.index(sc); i >= 0 {
		clear(s.scopes[i:])
		s.scopes = s.scopes[:i]
	}
}

// ClearTill removes every scope above sc, keeping sc.
func (s *Stack) ClearTill(sc *Scope) {
	if i := s.index(sc); i >= 0 {
		clear(s.scopes[i+1:])
		s.scopes = s.scopes[:i+1]
	}
}

func (s *Stack) index(sc *Scope) int {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if s.scopes[i] == sc {
			return i
		}
	}

	return -1
}

// Copy returns a stack sharing the same scopes (not the list) and
// environment. It is the closure capture primitive. Side channels start
// empty.
func (s *Stack) Copy() *Stack {
	scopes := make([]*Scope, len(s.scopes), len(s.scopes)+4)
	copy(scopes, s.scopes)

	return &Stack{scopes: scopes, env: s.env}
}

// FindScope returns the innermost scope holding key, or the outermost
// scope when none does.
func (s *Stack) FindScope(key string) *Scope {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if s.scopes[i].Has(key) {
			return s.scopes[i]
		}
	}

	return s.Global()
}

// Nearest returns the innermost scope of one of the given kinds.
func (s *Stack) Nearest(kinds ...Kind) *Scope {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		for _, k := range kinds {
			if s.scopes[i].kind == k {
				return s.scopes[i]
			}
		}
	}

	return s.Global()
}

// Lookup resolves key through the chain.
func (s *Stack) Lookup(key string) (any, bool) {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if v, ok := s.scopes[i].Get(key); ok {
			return v, true
		}
	}

	return nil, false
}

// Get resolves key, yielding undefined for unknown names.
func (s *Stack) Get(key string) any {
	if v, ok := s.Lookup(key); ok {
		return v
	}

	return runtime.Undefined
}

// Has reports whether any scope holds key.
func (s *Stack) Has(key string) bool {
	_, ok := s.Lookup(key)
	return ok
}

// Set assigns key in the scope that holds it. Unknown names land in the
// outermost scope.
func (s *Stack) Set(key string, value any) error {
	sc := s.FindScope(key)
	if sc == nil {
		return runtime.NewReferenceError("%s is not defined", key)
	}

	return sc.Set(key, value)
}

// DeclareVariable binds key for the given declaration form: lexical forms
// in the innermost scope, var and function declarations in the nearest
// function, module or global scope.
func (s *Stack) DeclareVariable(b Binding, key string, value any) error {
	target := s.Top()
	if b == Var || b == FunctionBinding {
		target = s.Nearest(Function, Module, Global)
	}
	if target == nil {
		return runtime.NewReferenceError("no scope to declare %s in", key)
	}
	if b == Var && target.Has(key) && runtime.IsUndefined(value) {
		// var x; does not reset an existing binding
		return nil
	}

	return target.Declare(key, value, b)
}

// Context returns the context evaluations on this stack run under.
func (s *Stack) Context() context.Context { return s.env.ctx }

// WithContext returns a copy of s whose evaluations run under ctx. Stacks
// copied from the result share ctx; s keeps its own. Module exports stay
// shared.
func (s *Stack) WithContext(ctx context.Context) *Stack {
	e := *s.env
	e.ctx = ctx
	e.exports = s.Exports()

	c := s.Copy()
	c.env = &e

	return c
}

// Loader returns the module loader, or nil.
func (s *Stack) Loader() ModuleLoader { return s.env.loader }

// SetLoader installs the module loader.
func (s *Stack) SetLoader(l ModuleLoader) { s.env.loader = l }

// Exports returns the module exports object, creating it on first use.
func (s *Stack) Exports() *runtime.Object {
	if s.env.exports == nil {
		s.env.exports = runtime.NewObject(nil)
	}

	return s.env.exports
}

// Logger returns the logger evaluation traces go to.
func (s *Stack) Logger() log.Logger { return s.env.logger }

// SetLogger sets the logger.
func (s *Stack) SetLogger(l log.Logger) { s.env.logger = l }
