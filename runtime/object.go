package runtime

import (
	"slices"

	"github.com/emirpasic/gods/maps/linkedhashmap"
)

// Property is a property descriptor. A property with a Getter or Setter is an
// accessor; otherwise Value holds its data.
type Property struct {
	Value        any
	Getter       any
	Setter       any
	Writable     bool
	Enumerable   bool
	Configurable bool
}

// IsAccessor reports whether p is an accessor property.
func (p *Property) IsAccessor() bool { return p.Getter != nil || p.Setter != nil }

// DataProperty returns a writable, enumerable, configurable data property.
func DataProperty(v any) *Property {
	return &Property{Value: v, Writable: true, Enumerable: true, Configurable: true}
}

// Object is an ordinary object. Own properties keep insertion order.
type Object struct {
	props      *linkedhashmap.Map
	proto      *Object
	class      string
	extensible bool
	frozen     bool
	bound      map[*Function]*Function

	// Internal holds host state for builtin objects (RegExp, boxed values).
	Internal any
}

func newProps() *linkedhashmap.Map { return linkedhashmap.New() }

// NewObject returns an empty object inheriting from proto.
func NewObject(proto *Object) *Object {
	return &Object{props: newProps(), proto: proto, class: "Object", extensible: true}
}

// NewPlainObject returns an object inheriting from [ObjectPrototype] holding
// the given properties in key order.
func NewPlainObject(keys []string, values map[string]any) *Object {
	o := NewObject(ObjectPrototype)
	for _, k := range keys {
		o.Put(k, values[k])
	}

	return o
}

// Base implements [ObjectLike].
func (o *Object) Base() *Object { return o }

// Proto returns the prototype, or nil.
func (o *Object) Proto() *Object { return o.proto }

// SetProto replaces the prototype.
func (o *Object) SetProto(p *Object) { o.proto = p }

// Class returns the object's class tag, e.g. "Object" or "Error".
func (o *Object) Class() string { return o.class }

// SetClass sets the class tag.
func (o *Object) SetClass(c string) { o.class = c }

// Own returns an own property.
func (o *Object) Own(key any) (*Property, bool) {
	v, ok := o.props.Get(key)
	if !ok {
		return nil, false
	}

	return v.(*Property), true
}

// Lookup finds a property on o or its prototype chain.
func (o *Object) Lookup(key any) (*Property, bool) {
	for p := o; p != nil; p = p.proto {
		if prop, ok := p.Own(key); ok {
			return prop, true
		}
	}

	return nil, false
}

// Define creates or replaces an own property, bypassing setters.
func (o *Object) Define(key any, p *Property) {
	o.props.Put(key, p)
}

// DefineHidden defines a writable, configurable, non-enumerable data
// property, the shape used for methods.
func (o *Object) DefineHidden(key any, v any) {
	o.props.Put(key, &Property{Value: v, Writable: true, Configurable: true})
}

// Put creates or overwrites an own enumerable data property unless the
// object is frozen.
func (o *Object) Put(key any, v any) {
	if o.frozen {
		return
	}
	if p, ok := o.Own(key); ok && !p.IsAccessor() {
		p.Value = v
		return
	}
	o.props.Put(key, DataProperty(v))
}

// Value returns the data value of a property found on the chain, ignoring
// accessors. It is meant for Go callers reading builtin state.
func (o *Object) Value(key any) any {
	if p, ok := o.Lookup(key); ok && !p.IsAccessor() {
		return p.Value
	}

	return Undefined
}

// Remove deletes an own property. It fails for frozen objects and
// non-configurable properties.
func (o *Object) Remove(key any) bool {
	p, ok := o.Own(key)
	if !ok {
		return true
	}
	if o.frozen || !p.Configurable {
		return false
	}
	o.props.Remove(key)

	return true
}

// OwnKeys returns every own key, strings and symbols, in insertion order.
func (o *Object) OwnKeys() []any { return o.props.Keys() }

// Keys returns the own enumerable string keys in insertion order.
func (o *Object) Keys() []string {
	keys := make([]string, 0, o.props.Size())
	it := o.props.Iterator()
	for it.Next() {
		k, ok := it.Key().(string)
		if ok && it.Value().(*Property).Enumerable {
			keys = append(keys, k)
		}
	}

	return keys
}

// Len returns the number of own properties.
func (o *Object) Len() int { return o.props.Size() }

// Freeze makes every own property read-only and stops extension.
func (o *Object) Freeze() {
	o.frozen = true
	o.extensible = false
	it := o.props.Iterator()
	for it.Next() {
		p := it.Value().(*Property)
		p.Configurable = false
		if !p.IsAccessor() {
			p.Writable = false
		}
	}
}

// IsFrozen reports whether [Object.Freeze] was called.
func (o *Object) IsFrozen() bool { return o.frozen }

// PreventExtensions stops new properties from being added.
func (o *Object) PreventExtensions() { o.extensible = false }

// IsExtensible reports whether new properties may be added.
func (o *Object) IsExtensible() bool { return o.extensible }

// InheritsFrom reports whether proto is on o's prototype chain.
func (o *Object) InheritsFrom(proto *Object) bool {
	for p := o.proto; p != nil; p = p.proto {
		if p == proto {
			return true
		}
	}

	return false
}

// Array is an array value. Elements is the backing slice; holes are
// represented by [Undefined].
type Array struct {
	*Object
	Elements []any
}

// NewArray wraps elements in an array inheriting from [ArrayPrototype].
func NewArray(elements []any) *Array {
	if elements == nil {
		elements = []any{}
	}
	obj := NewObject(ArrayPrototype)
	obj.class = "Array"

	return &Array{Object: obj, Elements: elements}
}

// Len returns the number of elements.
func (a *Array) Len() int { return len(a.Elements) }

// At returns the element at i or undefined.
func (a *Array) At(i int) any {
	if i < 0 || i >= len(a.Elements) {
		return Undefined
	}

	return a.Elements[i]
}

// SetLen truncates or pads the array with undefined.
func (a *Array) SetLen(n int) {
	if n <= len(a.Elements) {
		a.Elements = a.Elements[:n]
		return
	}
	for len(a.Elements) < n {
		a.Elements = append(a.Elements, Undefined)
	}
}

// Clone returns a shallow copy.
func (a *Array) Clone() *Array { return NewArray(slices.Clone(a.Elements)) }

// ArrayOf returns the elements of an array-like value: *Array, []any or a
// host slice. The second result is false for non-arrays.
func ArrayOf(v any) ([]any, bool) {
	switch a := v.(type) {
	case *Array:
		return a.Elements, true
	case []any:
		return a, true
	}
	if elems, ok := hostSlice(v); ok {
		return elems, true
	}

	return nil, false
}
