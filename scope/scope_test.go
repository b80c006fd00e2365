package scope

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/expressions/runtime"
)

func TestMapContextKeepsInsertionOrder(t *testing.T) {
	c := NewMapContext(map[string]any{"b": 2.0, "a": 1.0})
	c.Set("z", 26.0)
	c.Set("a", 10.0)

	assert.Equal(t, []string{"a", "b", "z"}, c.Keys())
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 10.0, v)

	c.Delete("b")
	assert.False(t, c.Has("b"))
}

func TestNullBindingIsPresent(t *testing.T) {
	c := NewMapContext(map[string]any{"n": nil})
	c.Set("m", nil)

	for _, key := range []string{"n", "m"} {
		v, ok := c.Get(key)
		require.True(t, ok, key)
		assert.Nil(t, v)
		assert.True(t, c.Has(key))
	}
	assert.Equal(t, []string{"n", "m"}, c.Keys())
}

func TestNullBindingShadows(t *testing.T) {
	s := NewGlobalStack(NewMapContext(map[string]any{"x": 1.0}))
	inner := s.PushBlockScope()
	require.NoError(t, s.DeclareVariable(Let, "x", nil))

	assert.Same(t, inner, s.FindScope("x"))
	v, ok := s.Lookup("x")
	require.True(t, ok)
	assert.Nil(t, v)

	require.NoError(t, s.Set("x", 7.0))
	s.ClearTo(inner)

	assert.Equal(t, 1.0, s.Get("x"))
}

func TestHostContextNormalizes(t *testing.T) {
	host := HostContext{"n": 3}
	v, ok := host.Get("n")
	require.True(t, ok)
	assert.Equal(t, 3.0, v)

	host.Set("m", "x")
	assert.Equal(t, "x", host["m"])
}

func TestObjectContext(t *testing.T) {
	obj := runtime.NewObject(runtime.ObjectPrototype)
	c := NewObjectContext(obj)
	c.Set("answer", 42.0)

	assert.Equal(t, 42.0, obj.Value("answer"))
	assert.True(t, c.Has("answer"))
	assert.Equal(t, []string{"answer"}, c.Keys())
}

func TestDeclareAndConst(t *testing.T) {
	s := New(Block, nil)
	require.NoError(t, s.Declare("x", 1.0, Const))

	err := s.Set("x", 2.0)
	var te *runtime.ThrowError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "TypeError: Assignment to constant variable.", te.Error())

	err = s.Declare("x", 3.0, Let)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Identifier 'x' has already been declared")

	require.NoError(t, s.Declare("v", 1.0, Var))
	require.NoError(t, s.Declare("v", 2.0, Var))
	assert.Error(t, s.Declare("v", 3.0, Let))
}

func TestGlobalAllowsRedeclaration(t *testing.T) {
	g := New(Global, nil)
	require.NoError(t, g.Declare("x", 1.0, Const))
	require.NoError(t, g.Declare("x", 2.0, Let))
	assert.False(t, g.IsConst("x"))
	assert.NoError(t, g.Set("x", 3.0))
}

func TestStackResolution(t *testing.T) {
	s := NewGlobalStack(nil)
	require.NoError(t, s.DeclareVariable(Let, "a", 1.0))

	fn := s.PushScope(Function)
	block := s.PushBlockScope()
	require.NoError(t, s.DeclareVariable(Let, "a", 2.0))
	require.NoError(t, s.DeclareVariable(Var, "hoisted", true))

	assert.Equal(t, 2.0, s.Get("a"))
	assert.True(t, fn.Has("hoisted"))
	assert.False(t, block.Has("hoisted"))
	assert.Equal(t, runtime.Undefined, s.Get("missing"))

	require.NoError(t, s.Set("undeclared", "g"))
	assert.True(t, s.Global().Has("undeclared"))

	s.Pop()
	assert.Equal(t, 1.0, s.Get("a"))
	assert.Equal(t, fn, s.FindScope("hoisted"))
	assert.Equal(t, s.Global(), s.FindScope("nowhere"))
}

func TestVarRedeclarationKeepsValue(t *testing.T) {
	s := NewGlobalStack(nil)
	s.PushScope(Function)
	require.NoError(t, s.DeclareVariable(Var, "x", 5.0))
	require.NoError(t, s.DeclareVariable(Var, "x", runtime.Undefined))
	assert.Equal(t, 5.0, s.Get("x"))
}

func TestClearToAndTill(t *testing.T) {
	s := NewGlobalStack(nil)
	fn := s.PushScope(Function)
	s.PushBlockScope()
	s.PushBlockScope()

	s.ClearTill(fn)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, fn, s.Top())

	s.PushBlockScope()
	s.ClearTo(fn)
	assert.Equal(t, 1, s.Len())

	s.ClearTo(New(Block, nil))
	assert.Equal(t, 1, s.Len(), "unknown scope is ignored")
}

func TestCopySharesScopesNotList(t *testing.T) {
	s := NewGlobalStack(nil)
	s.PushBlockScope()
	require.NoError(t, s.DeclareVariable(Let, "x", 1.0))

	c := s.Copy()
	c.PushBlockScope()
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 3, c.Len())

	require.NoError(t, c.Set("x", 2.0))
	assert.Equal(t, 2.0, s.Get("x"), "scopes are shared")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bound := s.WithContext(ctx)
	assert.Equal(t, ctx, bound.Context())
	assert.Equal(t, ctx, bound.Copy().Context(), "copies share the environment")
	assert.Equal(t, context.Background(), s.Context(), "the original keeps its context")
	assert.Same(t, s.Exports(), bound.Exports())
	assert.Equal(t, s.Len(), bound.Len())
}

type nameTarget string

func (n nameTarget) Set(s *Stack, v any) error { return s.Set(string(n), v) }

func (n nameTarget) Declare(s *Stack, b Binding, v any) error {
	return s.DeclareVariable(b, string(n), v)
}

func TestDrainAwaits(t *testing.T) {
	s := NewGlobalStack(nil)
	s.PushScope(Function)

	p := runtime.NewPromise()
	s.AddAwait(AwaitPromise{Target: nameTarget("a"), Kind: AwaitDeclare, Binding: Const, Promise: p})
	s.AddAwait(AwaitPromise{Target: nameTarget("b"), Promise: runtime.ResolvedPromise("now")})
	require.True(t, s.PendingAwaits())

	go p.Resolve(7.0)
	require.NoError(t, s.DrainAwaits())
	assert.False(t, s.PendingAwaits())
	assert.Equal(t, 7.0, s.Get("a"))
	assert.Equal(t, "now", s.Get("b"))
	assert.True(t, s.Top().IsConst("a"))

	s.AddAwait(AwaitPromise{Target: nameTarget("c"), Promise: runtime.RejectedPromise("bad")})
	err := s.DrainAwaits()
	var te *runtime.ThrowError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "bad", te.Value)
	assert.False(t, s.PendingAwaits())
}

func TestForAwaitChannel(t *testing.T) {
	s := NewGlobalStack(nil)
	assert.Nil(t, s.TakeForAwait())

	it := &AsyncIteration{Step: func(v any) (any, error) { return v, nil }}
	s.SetForAwait(it)
	assert.Same(t, it, s.TakeForAwait())
	assert.Nil(t, s.TakeForAwait())
}
