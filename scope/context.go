// Package scope implements the lexical environment the evaluator runs
// against: a [Stack] of [Scope] frames, each wrapping a [Context] that holds
// the actual bindings.
package scope

import (
	"slices"

	"github.com/emirpasic/gods/maps/linkedhashmap"

	"github.com/example/expressions/runtime"
)

// Context is the capability interface a scope stores its bindings in. Host
// containers implement it to expose their variables to scripts.
type Context interface {
	Get(key string) (any, bool)
	Set(key string, value any) bool
	Has(key string) bool
	Delete(key string) bool
	Keys() []string
}

// Contexts are usable as member-access targets too.
var _ runtime.Container = Context(nil)

// MapContext is an insertion-ordered in-memory context.
type MapContext struct {
	m *linkedhashmap.Map // key -> slot
}

// slot boxes a binding. linkedhashmap reports a nil value as absent, and
// null is a nil value.
type slot struct{ v any }

// NewMapContext returns a context seeded with init, in sorted key order.
func NewMapContext(init map[string]any) *MapContext {
	c := &MapContext{m: linkedhashmap.New()}

	keys := make([]string, 0, len(init))
	for k := range init {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		c.m.Put(k, slot{init[k]})
	}

	return c
}

func (c *MapContext) Get(key string) (any, bool) {
	v, ok := c.m.Get(key)
	if !ok {
		return nil, false
	}

	return v.(slot).v, true
}

func (c *MapContext) Set(key string, value any) bool {
	c.m.Put(key, slot{value})
	return true
}

func (c *MapContext) Has(key string) bool {
	_, ok := c.m.Get(key)
	return ok
}

func (c *MapContext) Delete(key string) bool {
	c.m.Remove(key)
	return true
}

func (c *MapContext) Keys() []string {
	keys := make([]string, 0, c.m.Size())
	for _, k := range c.m.Keys() {
		keys = append(keys, k.(string))
	}

	return keys
}

// ObjectContext exposes an object's properties as bindings. Reads and
// writes go through getters and setters.
type ObjectContext struct {
	obj *runtime.Object
}

// NewObjectContext wraps obj.
func NewObjectContext(obj *runtime.Object) *ObjectContext {
	return &ObjectContext{obj: obj}
}

// Object returns the wrapped object.
func (c *ObjectContext) Object() *runtime.Object { return c.obj }

func (c *ObjectContext) Get(key string) (any, bool) {
	if _, ok := c.obj.Lookup(key); !ok {
		return nil, false
	}
	v, err := runtime.GetMember(c.obj, key)
	if err != nil {
		return nil, false
	}

	return v, true
}

func (c *ObjectContext) Set(key string, value any) bool {
	return runtime.SetMember(c.obj, key, value) == nil
}

func (c *ObjectContext) Has(key string) bool {
	_, ok := c.obj.Lookup(key)
	return ok
}

func (c *ObjectContext) Delete(key string) bool { return c.obj.Remove(key) }

func (c *ObjectContext) Keys() []string { return c.obj.Keys() }

// HostContext adapts a plain Go map. Writes are visible to the host.
type HostContext map[string]any

func (c HostContext) Get(key string) (any, bool) {
	v, ok := c[key]
	return runtime.Normalize(v), ok
}

func (c HostContext) Set(key string, value any) bool {
	c[key] = value
	return true
}

func (c HostContext) Has(key string) bool {
	_, ok := c[key]
	return ok
}

func (c HostContext) Delete(key string) bool {
	delete(c, key)
	return true
}

func (c HostContext) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	return keys
}
