package reactive

import "github.com/example/expressions/scope"

// Watcher is a [scope.Context] wrapper that reports every successful read
// to an observer and forwards everything else to the wrapped context.
type Watcher struct {
	ctx     scope.Context
	observe func(key string)
}

var _ scope.Context = (*Watcher)(nil)

// Watch wraps ctx so reads of existing keys call observe.
func Watch(ctx scope.Context, observe func(key string)) *Watcher {
	return &Watcher{ctx: ctx, observe: observe}
}

// Unwrap returns the watched context.
func (w *Watcher) Unwrap() scope.Context { return w.ctx }

func (w *Watcher) Get(key string) (any, bool) {
	v, ok := w.ctx.Get(key)
	if ok {
		w.observe(key)
	}

	return v, ok
}

func (w *Watcher) Set(key string, value any) bool { return w.ctx.Set(key, value) }

func (w *Watcher) Has(key string) bool { return w.ctx.Has(key) }

func (w *Watcher) Delete(key string) bool { return w.ctx.Delete(key) }

func (w *Watcher) Keys() []string { return w.ctx.Keys() }
