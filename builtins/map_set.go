package builtins

import (
	"math"
	"math/big"
	"reflect"

	"github.com/emirpasic/gods/maps/linkedhashmap"

	"github.com/example/expressions/runtime"
)

var (
	mapPrototype = runtime.NewObject(runtime.ObjectPrototype)
	setPrototype = runtime.NewObject(runtime.ObjectPrototype)
)

// collection is the host state of Map and Set instances: an insertion
// ordered table from normalized keys to entries.
type collection struct {
	entries *linkedhashmap.Map
}

type entry struct {
	key, value any
}

type nanKey struct{}

type bigintKey string

// hostKey identifies host values whose Go type is not comparable, such as
// maps and slices, by reference.
type hostKey struct {
	t reflect.Type
	p uintptr
}

// normalizeKey maps a value to a comparable Go key such that equal keys
// are exactly the SameValueZero-equal values.
func normalizeKey(v any) any {
	if runtime.IsNumber(v) {
		f := runtime.ToNumber(v)
		if math.IsNaN(f) {
			return nanKey{}
		}
		if f == 0 {
			return 0.0
		}
		return f
	}
	if b, ok := v.(*big.Int); ok {
		return bigintKey(b.String())
	}
	if t := reflect.TypeOf(v); t != nil && !t.Comparable() {
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Map, reflect.Slice, reflect.Func:
			return hostKey{t, rv.Pointer()}
		}
		return hostKey{t: t}
	}

	return v
}

func newCollection() *collection { return &collection{entries: linkedhashmap.New()} }

func (c *collection) get(key any) (entry, bool) {
	v, ok := c.entries.Get(normalizeKey(key))
	if !ok {
		return entry{}, false
	}

	return v.(entry), true
}

func (c *collection) set(key, value any) {
	k := normalizeKey(key)
	if f, ok := k.(float64); ok && f == 0 {
		key = 0.0
	}
	c.entries.Put(k, entry{key: key, value: value})
}

func (c *collection) has(key any) bool {
	_, ok := c.entries.Get(normalizeKey(key))
	return ok
}

func (c *collection) remove(key any) bool {
	k := normalizeKey(key)
	if _, ok := c.entries.Get(k); !ok {
		return false
	}
	c.entries.Remove(k)

	return true
}

// snapshot returns the entries in insertion order.
func (c *collection) snapshot() []entry {
	out := make([]entry, 0, c.entries.Size())
	for _, v := range c.entries.Values() {
		out = append(out, v.(entry))
	}

	return out
}

// each visits entries in insertion order, including entries added while
// iterating, and skips entries deleted before they are reached.
func (c *collection) each(fn func(e entry) (bool, error)) error {
	seen := map[any]bool{}
	for {
		progressed := false
		for _, k := range c.entries.Keys() {
			if seen[k] {
				continue
			}
			seen[k] = true
			v, ok := c.entries.Get(k)
			if !ok {
				continue
			}
			progressed = true
			more, err := fn(v.(entry))
			if err != nil || !more {
				return err
			}
		}
		if !progressed {
			return nil
		}
	}
}

func createMapConstructor() *runtime.Function {
	proto := mapPrototype
	method(proto, "clear", 0, mapClear)
	method(proto, "delete", 1, mapDelete)
	entries := method(proto, "entries", 0, mapEntries)
	method(proto, "forEach", 1, mapForEach)
	method(proto, "get", 1, mapGet)
	method(proto, "has", 1, mapHas)
	method(proto, "keys", 0, mapKeys)
	method(proto, "set", 2, mapSet)
	method(proto, "values", 0, mapValues)
	getter(proto, "size", mapSize)
	proto.DefineHidden(runtime.SymbolIterator, entries)

	ctor := constructor("Map", 0, proto, func(any, []any) (any, error) {
		return nil, runtime.NewTypeError("Constructor Map requires 'new'")
	}, constructMap)
	method(ctor.Object, "groupBy", 2, mapGroupBy)

	return ctor
}

func newCollectionObject(class string, proto *runtime.Object, newTarget *runtime.Function) (*runtime.Object, *collection) {
	o := runtime.CreateFromConstructor(newTarget, proto)
	o.SetClass(class)
	c := newCollection()
	o.Internal = c

	return o, c
}

func constructMap(args []any, newTarget *runtime.Function) (any, error) {
	o, c := newCollectionObject("Map", mapPrototype, newTarget)
	if init := arg(args, 0); !runtime.IsNullish(init) {
		err := runtime.Iterate(init, func(item any) (bool, error) {
			if objectOf(item) == nil {
				return false, runtime.NewTypeError("Iterator value %s is not an entry object", runtime.Inspect(item))
			}
			k, err := runtime.GetMember(item, 0.0)
			if err != nil {
				return false, err
			}
			v, err := runtime.GetMember(item, 1.0)
			if err != nil {
				return false, err
			}
			c.set(k, v)
			return true, nil
		})
		if err != nil {
			return nil, err
		}
	}

	return o, nil
}

func thisCollection(this any, class, name string) (*collection, error) {
	if o := objectOf(this); o != nil && o.Class() == class {
		if c, ok := o.Internal.(*collection); ok {
			return c, nil
		}
	}

	return nil, runtime.NewTypeError("Method %s.prototype.%s called on incompatible receiver %s", class, name, runtime.Inspect(this))
}

func mapGet(this any, args []any) (any, error) {
	c, err := thisCollection(this, "Map", "get")
	if err != nil {
		return nil, err
	}
	if e, ok := c.get(arg(args, 0)); ok {
		return e.value, nil
	}

	return runtime.Undefined, nil
}

func mapSet(this any, args []any) (any, error) {
	c, err := thisCollection(this, "Map", "set")
	if err != nil {
		return nil, err
	}
	c.set(arg(args, 0), arg(args, 1))

	return this, nil
}

func mapHas(this any, args []any) (any, error) {
	c, err := thisCollection(this, "Map", "has")
	if err != nil {
		return nil, err
	}

	return c.has(arg(args, 0)), nil
}

func mapDelete(this any, args []any) (any, error) {
	c, err := thisCollection(this, "Map", "delete")
	if err != nil {
		return nil, err
	}

	return c.remove(arg(args, 0)), nil
}

func mapClear(this any, _ []any) (any, error) {
	c, err := thisCollection(this, "Map", "clear")
	if err != nil {
		return nil, err
	}
	c.entries.Clear()

	return runtime.Undefined, nil
}

func mapSize(this any, _ []any) (any, error) {
	c, err := thisCollection(this, "Map", "size")
	if err != nil {
		return nil, err
	}

	return float64(c.entries.Size()), nil
}

func mapForEach(this any, args []any) (any, error) {
	c, err := thisCollection(this, "Map", "forEach")
	if err != nil {
		return nil, err
	}
	fn, err := callable(arg(args, 0), "Map.prototype.forEach callback")
	if err != nil {
		return nil, err
	}

	return runtime.Undefined, c.each(func(e entry) (bool, error) {
		_, err := runtime.Call(fn, arg(args, 1), []any{e.value, e.key, this})
		return true, err
	})
}

// collectionIterator iterates a live collection, projecting each entry.
func collectionIterator(c *collection, project func(e entry) any) *runtime.Generator {
	return runtime.NewGenerator(func(yield runtime.Yielder) (any, error) {
		err := c.each(func(e entry) (bool, error) {
			_, err := yield(&runtime.YieldValue{Value: project(e)})
			return true, err
		})
		return runtime.Undefined, err
	}, false)
}

func entryPair(e entry) any { return runtime.NewArray([]any{e.key, e.value}) }

func entryKey(e entry) any { return e.key }

func entryValue(e entry) any { return e.value }

func mapEntries(this any, _ []any) (any, error) {
	c, err := thisCollection(this, "Map", "entries")
	if err != nil {
		return nil, err
	}

	return collectionIterator(c, entryPair), nil
}

func mapKeys(this any, _ []any) (any, error) {
	c, err := thisCollection(this, "Map", "keys")
	if err != nil {
		return nil, err
	}

	return collectionIterator(c, entryKey), nil
}

func mapValues(this any, _ []any) (any, error) {
	c, err := thisCollection(this, "Map", "values")
	if err != nil {
		return nil, err
	}

	return collectionIterator(c, entryValue), nil
}

func mapGroupBy(_ any, args []any) (any, error) {
	fn, err := callable(arg(args, 1), "Map.groupBy callback")
	if err != nil {
		return nil, err
	}
	o, c := newCollectionObject("Map", mapPrototype, nil)
	i := 0
	err = runtime.Iterate(arg(args, 0), func(item any) (bool, error) {
		key, err := runtime.Call(fn, runtime.Undefined, []any{item, float64(i)})
		if err != nil {
			return false, err
		}
		i++
		if e, ok := c.get(key); ok {
			arr := e.value.(*runtime.Array)
			arr.Elements = append(arr.Elements, item)
			return true, nil
		}
		c.set(key, runtime.NewArray([]any{item}))
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	return o, nil
}

func createSetConstructor() *runtime.Function {
	proto := setPrototype
	method(proto, "add", 1, setAdd)
	method(proto, "clear", 0, setClear)
	method(proto, "delete", 1, setDelete)
	method(proto, "difference", 1, setDifference)
	method(proto, "entries", 0, setEntries)
	method(proto, "forEach", 1, setForEach)
	method(proto, "has", 1, setHas)
	method(proto, "intersection", 1, setIntersection)
	method(proto, "isSubsetOf", 1, setIsSubsetOf)
	method(proto, "union", 1, setUnion)
	values := method(proto, "values", 0, setValues)
	getter(proto, "size", setSize)
	proto.DefineHidden("keys", values)
	proto.DefineHidden(runtime.SymbolIterator, values)

	return constructor("Set", 0, proto, func(any, []any) (any, error) {
		return nil, runtime.NewTypeError("Constructor Set requires 'new'")
	}, constructSet)
}

func constructSet(args []any, newTarget *runtime.Function) (any, error) {
	o, c := newCollectionObject("Set", setPrototype, newTarget)
	if init := arg(args, 0); !runtime.IsNullish(init) {
		err := runtime.Iterate(init, func(item any) (bool, error) {
			c.set(item, item)
			return true, nil
		})
		if err != nil {
			return nil, err
		}
	}

	return o, nil
}

func setAdd(this any, args []any) (any, error) {
	c, err := thisCollection(this, "Set", "add")
	if err != nil {
		return nil, err
	}
	v := arg(args, 0)
	if !c.has(v) {
		c.set(v, v)
	}

	return this, nil
}

func setHas(this any, args []any) (any, error) {
	c, err := thisCollection(this, "Set", "has")
	if err != nil {
		return nil, err
	}

	return c.has(arg(args, 0)), nil
}

func setDelete(this any, args []any) (any, error) {
	c, err := thisCollection(this, "Set", "delete")
	if err != nil {
		return nil, err
	}

	return c.remove(arg(args, 0)), nil
}

func setClear(this any, _ []any) (any, error) {
	c, err := thisCollection(this, "Set", "clear")
	if err != nil {
		return nil, err
	}
	c.entries.Clear()

	return runtime.Undefined, nil
}

func setSize(this any, _ []any) (any, error) {
	c, err := thisCollection(this, "Set", "size")
	if err != nil {
		return nil, err
	}

	return float64(c.entries.Size()), nil
}

func setForEach(this any, args []any) (any, error) {
	c, err := thisCollection(this, "Set", "forEach")
	if err != nil {
		return nil, err
	}
	fn, err := callable(arg(args, 0), "Set.prototype.forEach callback")
	if err != nil {
		return nil, err
	}

	return runtime.Undefined, c.each(func(e entry) (bool, error) {
		_, err := runtime.Call(fn, arg(args, 1), []any{e.key, e.key, this})
		return true, err
	})
}

func setValues(this any, _ []any) (any, error) {
	c, err := thisCollection(this, "Set", "values")
	if err != nil {
		return nil, err
	}

	return collectionIterator(c, entryKey), nil
}

func setEntries(this any, _ []any) (any, error) {
	c, err := thisCollection(this, "Set", "entries")
	if err != nil {
		return nil, err
	}

	return collectionIterator(c, func(e entry) any {
		return runtime.NewArray([]any{e.key, e.key})
	}), nil
}

// setOperands resolves the receiver and the other set of a set algebra
// method. The other operand may be any Set or iterable.
func setOperands(this any, args []any, name string) (*collection, *collection, error) {
	c, err := thisCollection(this, "Set", name)
	if err != nil {
		return nil, nil, err
	}
	if other, ok := internal[*collection](arg(args, 0)); ok {
		return c, other, nil
	}
	other := newCollection()
	err = runtime.Iterate(arg(args, 0), func(item any) (bool, error) {
		other.set(item, item)
		return true, nil
	})
	if err != nil {
		return nil, nil, err
	}

	return c, other, nil
}

// filteredSet builds a new Set from the entries of the given collections
// that satisfy keep, in order.
func filteredSet(keep func(e entry) bool, sources ...*collection) any {
	o, out := newCollectionObject("Set", setPrototype, nil)
	for _, src := range sources {
		for _, e := range src.snapshot() {
			if keep(e) && !out.has(e.key) {
				out.set(e.key, e.key)
			}
		}
	}

	return o
}

func setUnion(this any, args []any) (any, error) {
	c, other, err := setOperands(this, args, "union")
	if err != nil {
		return nil, err
	}

	return filteredSet(func(entry) bool { return true }, c, other), nil
}

func setIntersection(this any, args []any) (any, error) {
	c, other, err := setOperands(this, args, "intersection")
	if err != nil {
		return nil, err
	}

	return filteredSet(func(e entry) bool { return other.has(e.key) }, c), nil
}

func setDifference(this any, args []any) (any, error) {
	c, other, err := setOperands(this, args, "difference")
	if err != nil {
		return nil, err
	}

	return filteredSet(func(e entry) bool { return !other.has(e.key) }, c), nil
}

func setIsSubsetOf(this any, args []any) (any, error) {
	c, other, err := setOperands(this, args, "isSubsetOf")
	if err != nil {
		return nil, err
	}
	for _, e := range c.snapshot() {
		if !other.has(e.key) {
			return false, nil
		}
	}

	return true, nil
}
