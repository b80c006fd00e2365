package reactive

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/expressions/builtins"
	"github.com/example/expressions/parser"
	"github.com/example/expressions/runtime"
	"github.com/example/expressions/scope"
)

func TestScopeNotifiesOnChange(t *testing.T) {
	rs := NewScope(map[string]any{"a": 1.0})

	var seen [][2]any
	sub := rs.Subscribe("a", func(v, old any) { seen = append(seen, [2]any{v, old}) })

	assert.True(t, rs.Set("a", 2.0))
	rs.Set("a", 2.0) // unchanged
	rs.Set("b", 5.0) // other key
	assert.Equal(t, [][2]any{{2.0, 1.0}}, seen)

	sub.Pause()
	rs.Set("a", 3.0)
	assert.Len(t, seen, 1)

	sub.Resume()
	rs.Set("a", 4.0)
	assert.Equal(t, [2]any{4.0, 3.0}, seen[1])

	assert.True(t, rs.Delete("a"))
	assert.Equal(t, runtime.Undefined, seen[2][0])

	sub.Unsubscribe()
	sub.Unsubscribe()
	rs.Set("a", 9.0)
	assert.Len(t, seen, 3)
	assert.Empty(t, rs.Observed())
}

func TestScopeNaNIsUnchanged(t *testing.T) {
	rs := NewScope(nil)
	calls := 0
	rs.Subscribe("x", func(any, any) { calls++ })

	nan := runtime.ToNumber("x")
	rs.Set("x", nan)
	rs.Set("x", nan)
	assert.Equal(t, 1, calls, "the first write of an unset key always notifies")
}

func TestScopeObservedOrder(t *testing.T) {
	rs := NewScope(nil)
	first := rs.Subscribe("zeta", func(any, any) {})
	rs.Subscribe("alpha", func(any, any) {})
	rs.Subscribe("alpha", func(any, any) {})

	assert.Equal(t, []string{"alpha", "zeta"}, rs.Observed())

	first.Unsubscribe()
	assert.Equal(t, []string{"alpha"}, rs.Observed())

	// a new subscription after the key emptied out must survive old cancels
	again := rs.Subscribe("zeta", func(any, any) {})
	first.Unsubscribe()
	assert.Equal(t, []string{"alpha", "zeta"}, rs.Observed())
	again.Unsubscribe()
}

func TestSignal(t *testing.T) {
	s := NewSignalScope()
	count := s.CreateSignal(1.0)

	assert.Equal(t, 0, count.Index())
	assert.Equal(t, 1.0, count.Get())

	count.Update(func(v any) any { return v.(float64) + 1 })
	assert.Equal(t, 2.0, count.Get())
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, runtime.Undefined, s.Get(5))
}

func TestWatchFrames(t *testing.T) {
	s := NewSignalScope()
	a, b := s.CreateSignal(1.0), s.CreateSignal(2.0)

	s.WatchState()
	b.Get()
	a.Get()
	b.Get()

	s.Untrack()
	s.CreateSignal(0.0).Get()
	s.Track()

	s.WatchState()
	a.Get()
	assert.Equal(t, []int{0}, s.ReadState())
	s.RestoreState()

	assert.Equal(t, []int{1, 0}, s.ReadState())

	subs := s.ObserveState(func(any, any) {})
	assert.Equal(t, 2, subs.Size())
	assert.Equal(t, 1, s.Subscribers(0))
	s.RestoreState()

	assert.Nil(t, s.ReadState())
	s.ObserveIndex(0) // outside any frame
}

func TestComputedFollowsDependencies(t *testing.T) {
	s := NewSignalScope()
	flag := s.CreateSignal(true)
	a := s.CreateSignal("a1")
	b := s.CreateSignal("b1")

	c := s.CreateComputed(func() (any, error) {
		if flag.Get().(bool) {
			return a.Get(), nil
		}
		return b.Get(), nil
	})
	require.Equal(t, "a1", c.Get())
	assert.Equal(t, []int{flag.Index(), a.Index()}, c.Dependencies())

	a.Set("a2")
	assert.Equal(t, "a2", c.Get())

	flag.Set(false)
	assert.Equal(t, "b1", c.Get())
	assert.Equal(t, []int{flag.Index(), b.Index()}, c.Dependencies())

	runs := c.Runs()
	a.Set("a3")
	assert.Equal(t, runs, c.Runs(), "a is no longer read")
	assert.Equal(t, "b1", c.Get())

	b.Set("b2")
	assert.Equal(t, "b2", c.Get())

	flag.Set(true)
	assert.Equal(t, "a3", c.Get())
	assert.Equal(t, 1, s.Subscribers(a.Index()), "resumed, not resubscribed")
}

func TestComputedChain(t *testing.T) {
	s := NewSignalScope()
	n := s.CreateSignal(2.0)
	double := s.CreateComputed(func() (any, error) { return n.Get().(float64) * 2, nil })
	quad := s.CreateComputed(func() (any, error) { return double.Get().(float64) * 2, nil })

	n.Set(3.0)
	assert.Equal(t, 6.0, double.Get())
	assert.Equal(t, 12.0, quad.Get())
}

func TestComputedError(t *testing.T) {
	s := NewSignalScope()
	n := s.CreateSignal(1.0)
	boom := errors.New("boom")

	c := s.CreateComputed(func() (any, error) {
		if n.Get().(float64) < 0 {
			return runtime.Undefined, boom
		}
		return n.Get(), nil
	})
	require.NoError(t, c.Err())

	n.Set(-1.0)
	assert.ErrorIs(t, c.Err(), boom)
	assert.Equal(t, runtime.Undefined, c.Get())

	n.Set(2.0)
	assert.NoError(t, c.Err())
}

func TestEffect(t *testing.T) {
	s := NewSignalScope()
	n := s.CreateSignal(1.0)

	var log []string
	e := s.CreateEffect(func(onCleanup func(func())) error {
		v := runtime.ToString(n.Get())
		log = append(log, "run "+v)
		onCleanup(func() { log = append(log, "cleanup "+v) })
		return nil
	})
	assert.Equal(t, []int{n.Index()}, e.Dependencies())

	n.Set(2.0)
	e.Destroy()
	n.Set(3.0)
	e.Destroy()

	assert.Equal(t, []string{"run 1", "cleanup 1", "run 2", "cleanup 2"}, log)
	assert.Equal(t, 0, s.Subscribers(n.Index()))
}

func TestEffectErrorIsContained(t *testing.T) {
	s := NewSignalScope()
	n := s.CreateSignal(0.0)
	runs := 0

	e := s.CreateEffect(func(func(func())) error {
		runs++
		if n.Get().(float64) > 0 {
			return errors.New("positive")
		}
		return nil
	})
	require.NoError(t, e.Err())

	n.Set(1.0)
	assert.EqualError(t, e.Err(), "positive")

	n.Set(0.0)
	assert.NoError(t, e.Err())
	assert.Equal(t, 3, runs)
}

func TestLazy(t *testing.T) {
	s := NewSignalScope()
	calls := 0
	l := s.CreateLazy(func() (any, error) {
		calls++
		return float64(calls), nil
	})
	assert.Equal(t, 1, calls)

	v, err := l.Get()
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)

	s.WatchState()
	_, _ = l.Get()
	assert.Equal(t, []int{l.Index()}, s.ReadState())
	s.RestoreState()
}

func TestWatch(t *testing.T) {
	inner := scope.NewMapContext(map[string]any{"a": 1.0})

	var reads []string
	w := Watch(inner, func(key string) { reads = append(reads, key) })

	v, ok := w.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1.0, v)

	_, ok = w.Get("missing")
	assert.False(t, ok)

	assert.True(t, w.Set("b", 2.0))
	assert.True(t, w.Has("b"))
	assert.Equal(t, []string{"a", "b"}, w.Keys())
	assert.True(t, w.Delete("b"))
	assert.Same(t, inner, w.Unwrap())
	assert.Equal(t, []string{"a"}, reads)
}

func TestWatchRecordsScriptReads(t *testing.T) {
	var reads []string
	w := Watch(scope.NewMapContext(map[string]any{"x": 2.0, "y": 3.0, "z": 4.0}), func(key string) {
		reads = append(reads, key)
	})

	n, err := parser.Parse("x > 1 ? y : z")
	require.NoError(t, err)

	v, err := n.Get(scope.NewGlobalStack(w))
	require.NoError(t, err)
	assert.Equal(t, 3.0, v)
	assert.Equal(t, []string{"x", "y"}, reads)
}

func TestBind(t *testing.T) {
	rs := NewScope(map[string]any{"price": 2.0, "qty": 3.0, "unused": 0.0})
	n, err := parser.ParseExpression("price * qty")
	require.NoError(t, err)

	var got []any
	b := Bind(n, scope.NewGlobalStack(rs), rs, func(v any, err error) {
		require.NoError(t, err)
		got = append(got, v)
	})
	assert.Equal(t, []string{"price", "qty"}, b.Names())
	assert.Equal(t, []any{6.0}, got)

	rs.Set("qty", 4.0)
	rs.Set("unused", 1.0)
	assert.Equal(t, []any{6.0, 8.0}, got)

	b.Pause()
	rs.Set("price", 1.0)
	assert.Len(t, got, 2)
	b.Resume()
	assert.Equal(t, 4.0, got[2])

	b.Unbind()
	rs.Set("price", 10.0)
	assert.Len(t, got, 3)
}

func TestBindAssignmentThroughScript(t *testing.T) {
	rs := NewScope(map[string]any{"count": 0.0})
	stack := scope.NewGlobalStack(rs)

	label, err := parser.ParseExpression("`count: ${count}`")
	require.NoError(t, err)

	var last any
	Bind(label, stack, rs, func(v any, _ error) { last = v })

	inc, err := parser.Parse("count += 2")
	require.NoError(t, err)
	_, err = inc.Get(stack)
	require.NoError(t, err)

	assert.Equal(t, "count: 2", last)
}

func TestRegisterFromScripts(t *testing.T) {
	s := NewSignalScope()
	global := scope.NewMapContext(map[string]any{"log": runtime.NewArray(nil)})
	builtins.Register(global, builtins.WithOutput(io.Discard))
	s.Register(global)
	stack := scope.NewGlobalStack(global)

	src := `
		const flag = signal(true);
		const a = signal(1);
		const b = signal(10);
		const pick = computed(() => flag() ? a() : b());
		const handle = effect(onCleanup => {
			log.push(pick());
			onCleanup(() => log.push("cleanup"));
		});
		a.set(2);
		flag.set(false);
		a.update(v => v + 1);
		b.update(v => v + 1);
		if (handle.error() !== undefined) throw handle.error();
		handle.destroy();
		b.set(100);
		untracked(() => pick())
	`
	n, err := parser.Parse(src)
	require.NoError(t, err)

	v, err := n.Get(stack)
	require.NoError(t, err)
	assert.Equal(t, 100.0, v)

	logged, _ := global.Get("log")
	assert.Equal(t,
		"[ 1, 'cleanup', 2, 'cleanup', 10, 'cleanup', 11, 'cleanup' ]",
		runtime.Inspect(logged))

	failing, err := parser.Parse(`effect(() => missing.x).error().name`)
	require.NoError(t, err)
	v, err = failing.Get(stack)
	require.NoError(t, err)
	assert.Equal(t, "TypeError", v)

	bad, err := parser.Parse("computed(1)")
	require.NoError(t, err)
	_, err = bad.Get(stack)
	assert.Error(t, err)
}
