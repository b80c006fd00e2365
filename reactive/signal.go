package reactive

import (
	"log/slog"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/sets/linkedhashset"
	"github.com/emirpasic/gods/utils"

	"github.com/example/expressions/log"
	"github.com/example/expressions/runtime"
)

// SignalScope is an indexed reactive scope. Every signal, computed and
// lazy value owns one slot.
type SignalScope struct {
	slots []any
	subs  *treemap.Map // slot index -> *linkedhashset.Set of *Subscription

	// watch frames, innermost last; each records the slots read in order
	state   []*linkedhashset.Set
	untrack bool

	log log.Logger
}

// NewSignalScope returns an empty signal scope.
func NewSignalScope(opts ...Option) *SignalScope {
	o := makeOptions(opts)

	return &SignalScope{
		subs: treemap.NewWith(utils.IntComparator),
		log:  o.logger,
	}
}

// Len returns the number of allocated slots.
func (s *SignalScope) Len() int { return len(s.slots) }

// Get returns the value of slot i without recording a read.
func (s *SignalScope) Get(i int) any {
	if i < 0 || i >= len(s.slots) {
		return runtime.Undefined
	}

	return s.slots[i]
}

// Set stores value in slot i and notifies its subscribers when the value
// changed.
func (s *SignalScope) Set(i int, value any) {
	if i < 0 || i >= len(s.slots) {
		return
	}
	old := s.slots[i]
	if runtime.SameValueZero(old, value) {
		return
	}
	s.slots[i] = value

	if set, ok := s.subs.Get(i); ok {
		s.log.Trace("signal change", slog.Int("slot", i), slog.Int("subscribers", set.(*linkedhashset.Set).Size()))
		notify(set.(*linkedhashset.Set), value, old)
	}
}

func (s *SignalScope) alloc(value any) int {
	s.slots = append(s.slots, value)
	return len(s.slots) - 1
}

// Subscribe calls fn after every change of slot i.
func (s *SignalScope) Subscribe(i int, fn Listener) *Subscription {
	sub := &Subscription{fn: fn}
	sub.cancel = func(sub *Subscription) {
		v, ok := s.subs.Get(i)
		if !ok {
			return
		}
		set := v.(*linkedhashset.Set)
		set.Remove(sub)
		if set.Empty() {
			s.subs.Remove(i)
		}
	}

	if v, ok := s.subs.Get(i); ok {
		v.(*linkedhashset.Set).Add(sub)
	} else {
		s.subs.Put(i, linkedhashset.New(sub))
	}

	return sub
}

// Subscribers returns the number of subscriptions on slot i, paused ones
// included.
func (s *SignalScope) Subscribers(i int) int {
	if v, ok := s.subs.Get(i); ok {
		return v.(*linkedhashset.Set).Size()
	}

	return 0
}

// WatchState opens a watch frame.
func (s *SignalScope) WatchState() { s.state = append(s.state, linkedhashset.New()) }

// ObserveIndex records a read of slot i in the innermost watch frame,
// unless tracking is off.
func (s *SignalScope) ObserveIndex(i int) {
	if s.untrack || len(s.state) == 0 {
		return
	}
	s.state[len(s.state)-1].Add(i)
}

// ReadState returns the slots read in the innermost watch frame, in read
// order.
func (s *SignalScope) ReadState() []int {
	if len(s.state) == 0 {
		return nil
	}
	values := s.state[len(s.state)-1].Values()
	out := make([]int, len(values))
	for i, v := range values {
		out[i] = v.(int)
	}

	return out
}

// RestoreState closes the innermost watch frame.
func (s *SignalScope) RestoreState() {
	if n := len(s.state); n > 0 {
		s.state = s.state[:n-1]
	}
}

// Untrack stops recording reads until [SignalScope.Track].
func (s *SignalScope) Untrack() { s.untrack = true }

// Track resumes recording reads.
func (s *SignalScope) Track() { s.untrack = false }

// Untracked runs fn without recording its reads.
func (s *SignalScope) Untracked(fn func() (any, error)) (any, error) {
	prev := s.untrack
	s.untrack = true
	defer func() { s.untrack = prev }()

	return fn()
}

// ObserveState subscribes fn to every slot of the innermost watch frame.
func (s *SignalScope) ObserveState(fn Listener) *treemap.Map {
	subs := treemap.NewWith(utils.IntComparator)
	for _, i := range s.ReadState() {
		subs.Put(i, s.Subscribe(i, fn))
	}

	return subs
}

// tracked runs fn in a fresh watch frame and returns the slots it read.
func (s *SignalScope) tracked(fn func() (any, error)) (any, []int, error) {
	s.WatchState()
	defer s.RestoreState()

	v, err := fn()
	return v, s.ReadState(), err
}

// dependencies holds the subscriptions of one computation, keyed by slot.
type dependencies struct {
	scope *SignalScope
	subs  *treemap.Map
}

// update pauses subscriptions to slots outside state and subscribes or
// resumes the ones in it.
func (d *dependencies) update(state []int, fn Listener) {
	read := linkedhashset.New()
	for _, i := range state {
		read.Add(i)
	}

	it := d.subs.Iterator()
	for it.Next() {
		if !read.Contains(it.Key()) {
			it.Value().(*Subscription).Pause()
		}
	}
	for _, i := range state {
		if v, ok := d.subs.Get(i); ok {
			v.(*Subscription).Resume()
			continue
		}
		d.subs.Put(i, d.scope.Subscribe(i, fn))
	}
}

// active lists the slots with a live subscription.
func (d *dependencies) active() []int {
	var out []int
	it := d.subs.Iterator()
	for it.Next() {
		if !it.Value().(*Subscription).Paused() {
			out = append(out, it.Key().(int))
		}
	}

	return out
}

func (d *dependencies) close() {
	for _, v := range d.subs.Values() {
		v.(*Subscription).Unsubscribe()
	}
	d.subs.Clear()
}
