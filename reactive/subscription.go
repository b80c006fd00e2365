// Package reactive layers change notification over scope contexts.
//
// [Scope] is a keyed context that notifies subscribers when a binding
// changes. [SignalScope] is its indexed counterpart driving signals,
// computed values and effects: a computation runs inside a watch frame
// that records every slot it reads, and after each run subscriptions to
// slots no longer read are paused while newly read slots are subscribed
// or resumed.
package reactive

import (
	"github.com/emirpasic/gods/sets/linkedhashset"

	"github.com/example/expressions/log"
)

// Listener receives the new and the previous value of a binding.
type Listener func(value, old any)

// Subscription is one listener registration. A paused subscription stays
// registered but is skipped on notification.
type Subscription struct {
	fn     Listener
	paused bool
	closed bool
	cancel func(*Subscription)
}

// Pause stops delivery until [Subscription.Resume].
func (s *Subscription) Pause() { s.paused = true }

// Resume restarts delivery.
func (s *Subscription) Resume() { s.paused = false }

// Paused reports whether delivery is suspended.
func (s *Subscription) Paused() bool { return s.paused }

// Unsubscribe removes the listener for good.
func (s *Subscription) Unsubscribe() {
	if s.closed {
		return
	}
	s.closed = true
	s.cancel(s)
}

// notify calls the active subscriptions of set. It works on a snapshot
// so listeners may subscribe or unsubscribe while it runs.
func notify(set *linkedhashset.Set, value, old any) {
	if set == nil {
		return
	}
	for _, v := range set.Values() {
		sub := v.(*Subscription)
		if sub.paused || sub.closed {
			continue
		}
		sub.fn(value, old)
	}
}

type options struct {
	logger log.Logger
}

// Option configures a [Scope] or a [SignalScope].
type Option func(*options)

// WithLogger traces notifications and reports effect errors.
func WithLogger(l log.Logger) Option {
	return func(o *options) { o.logger = l }
}

func makeOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	return o
}
