package reactive

import (
	"log/slog"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/sets/linkedhashset"

	"github.com/example/expressions/log"
	"github.com/example/expressions/runtime"
	"github.com/example/expressions/scope"
)

// Scope is a keyed reactive context. It stores its bindings in a backing
// [scope.Context] and notifies the subscribers of a key whenever a write
// changes its value.
type Scope struct {
	ctx  scope.Context
	subs *treemap.Map // key -> *linkedhashset.Set of *Subscription
	log  log.Logger
}

var _ scope.Context = (*Scope)(nil)

// NewScope returns a reactive scope seeded with init.
func NewScope(init map[string]any, opts ...Option) *Scope {
	return Wrap(scope.NewMapContext(init), opts...)
}

// Wrap makes ctx reactive. Writes that bypass the returned scope are not
// observed.
func Wrap(ctx scope.Context, opts ...Option) *Scope {
	o := makeOptions(opts)

	return &Scope{
		ctx:  ctx,
		subs: treemap.NewWithStringComparator(),
		log:  o.logger,
	}
}

// Context returns the backing context.
func (s *Scope) Context() scope.Context { return s.ctx }

func (s *Scope) Get(key string) (any, bool) { return s.ctx.Get(key) }

func (s *Scope) Has(key string) bool { return s.ctx.Has(key) }

func (s *Scope) Keys() []string { return s.ctx.Keys() }

// Set stores value and notifies subscribers of key when it differs from
// the previous value.
func (s *Scope) Set(key string, value any) bool {
	old, had := s.ctx.Get(key)
	if !s.ctx.Set(key, value) {
		return false
	}
	if !had {
		old = runtime.Undefined
	}
	if had && runtime.SameValueZero(old, value) {
		return true
	}
	s.emit(key, value, old)

	return true
}

// Delete removes key; subscribers see it change to undefined.
func (s *Scope) Delete(key string) bool {
	old, had := s.ctx.Get(key)
	if !s.ctx.Delete(key) {
		return false
	}
	if had && !runtime.IsUndefined(old) {
		s.emit(key, runtime.Undefined, old)
	}

	return true
}

// Subscribe calls fn after every change of key.
func (s *Scope) Subscribe(key string, fn Listener) *Subscription {
	sub := &Subscription{fn: fn}
	sub.cancel = func(sub *Subscription) {
		v, ok := s.subs.Get(key)
		if !ok {
			return
		}
		set := v.(*linkedhashset.Set)
		set.Remove(sub)
		if set.Empty() {
			s.subs.Remove(key)
		}
	}

	if v, ok := s.subs.Get(key); ok {
		v.(*linkedhashset.Set).Add(sub)
	} else {
		s.subs.Put(key, linkedhashset.New(sub))
	}

	return sub
}

// Observed lists, in key order, the keys that have subscribers.
func (s *Scope) Observed() []string {
	out := make([]string, 0, s.subs.Size())
	for _, k := range s.subs.Keys() {
		out = append(out, k.(string))
	}

	return out
}

func (s *Scope) emit(key string, value, old any) {
	set, ok := s.subs.Get(key)
	if !ok {
		return
	}
	s.log.Trace("reactive change", slog.String("key", key), slog.Int("subscribers", set.(*linkedhashset.Set).Size()))
	notify(set.(*linkedhashset.Set), value, old)
}
