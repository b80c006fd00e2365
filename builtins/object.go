package builtins

import (
	"math"
	"strconv"
	"unicode/utf8"

	"github.com/example/expressions/runtime"
)

func createObjectConstructor() *runtime.Function {
	proto := runtime.ObjectPrototype

	method(proto, "hasOwnProperty", 1, objectProtoHasOwnProperty)
	method(proto, "isPrototypeOf", 1, objectProtoIsPrototypeOf)
	method(proto, "propertyIsEnumerable", 1, objectProtoPropertyIsEnumerable)
	method(proto, "toString", 0, objectProtoToString)
	method(proto, "toLocaleString", 0, objectProtoToLocaleString)
	method(proto, "valueOf", 0, objectProtoValueOf)

	var ctor *runtime.Function
	ctor = constructor("Object", 1, proto, objectConstructorCall,
		func(args []any, newTarget *runtime.Function) (any, error) {
			if newTarget != nil && newTarget != ctor {
				return runtime.CreateFromConstructor(newTarget, proto), nil
			}
			return objectConstructorCall(runtime.Undefined, args)
		})

	method(ctor.Object, "keys", 1, objectKeys)
	method(ctor.Object, "values", 1, objectValues)
	method(ctor.Object, "entries", 1, objectEntries)
	method(ctor.Object, "fromEntries", 1, objectFromEntries)
	method(ctor.Object, "assign", 2, objectAssign)
	method(ctor.Object, "create", 2, objectCreate)
	method(ctor.Object, "defineProperty", 3, objectDefineProperty)
	method(ctor.Object, "defineProperties", 2, objectDefineProperties)
	method(ctor.Object, "getOwnPropertyDescriptor", 2, objectGetOwnPropertyDescriptor)
	method(ctor.Object, "getOwnPropertyDescriptors", 1, objectGetOwnPropertyDescriptors)
	method(ctor.Object, "getOwnPropertyNames", 1, objectGetOwnPropertyNames)
	method(ctor.Object, "getOwnPropertySymbols", 1, objectGetOwnPropertySymbols)
	method(ctor.Object, "getPrototypeOf", 1, objectGetPrototypeOf)
	method(ctor.Object, "setPrototypeOf", 2, objectSetPrototypeOf)
	method(ctor.Object, "freeze", 1, objectFreeze)
	method(ctor.Object, "isFrozen", 1, objectIsFrozen)
	method(ctor.Object, "seal", 1, objectSeal)
	method(ctor.Object, "isSealed", 1, objectIsSealed)
	method(ctor.Object, "preventExtensions", 1, objectPreventExtensions)
	method(ctor.Object, "isExtensible", 1, objectIsExtensible)
	method(ctor.Object, "hasOwn", 2, objectHasOwn)
	method(ctor.Object, "is", 2, objectIs)
	method(ctor.Object, "groupBy", 2, objectGroupBy)

	return ctor
}

func objectConstructorCall(_ any, args []any) (any, error) {
	v := arg(args, 0)
	if runtime.IsNullish(v) {
		return runtime.NewObject(runtime.ObjectPrototype), nil
	}

	return toObject(v), nil
}

// toObject boxes primitives; objects and host values pass through.
func toObject(v any) any {
	var proto *runtime.Object
	class := ""
	switch v.(type) {
	case string:
		proto, class = runtime.StringPrototype, "String"
	case bool:
		proto, class = runtime.BooleanPrototype, "Boolean"
	case *runtime.Symbol:
		proto, class = runtime.SymbolPrototype, "Symbol"
	default:
		if !runtime.IsNumber(v) {
			if runtime.TypeOf(v) == "bigint" {
				proto, class = runtime.BigIntPrototype, "BigInt"
			} else {
				return v
			}
		} else {
			proto, class = runtime.NumberPrototype, "Number"
			v = runtime.Normalize(v)
		}
	}

	o := runtime.NewObject(proto)
	o.SetClass(class)
	o.Internal = v
	if s, ok := v.(string); ok {
		o.Define("length", &runtime.Property{Value: float64(utf8.RuneCountInString(s))})
	}

	return o
}

// primitiveValue unwraps this for valueOf style methods: a primitive of
// type T, or an object boxing one.
func primitiveValue[T any](this any, class string) (T, bool) {
	if v, ok := this.(T); ok {
		return v, true
	}
	if o := objectOf(this); o != nil && o.Class() == class {
		v, ok := o.Internal.(T)
		return v, ok
	}

	var zero T
	return zero, false
}

// requireObject rejects null and undefined the way Object.* functions do.
func requireObject(v any, fn string) error {
	if runtime.IsNullish(v) {
		return runtime.NewTypeError("%s called on null or undefined", fn)
	}

	return nil
}

// indexKey reports whether a property key names an array index.
func indexKey(key any) (int, bool) {
	s, ok := key.(string)
	if !ok || s == "" || (len(s) > 1 && s[0] == '0') {
		return 0, false
	}
	n, err := strconv.Atoi(s)

	return n, err == nil && n >= 0
}

// hasOwn reports whether v has an own property key, including array
// indices and string characters.
func hasOwn(v any, key any) bool {
	key = runtime.ToPropertyKey(key)
	switch x := v.(type) {
	case *runtime.Array:
		if i, ok := indexKey(key); ok {
			return i < x.Len()
		}
		if key == "length" {
			return true
		}
	case string:
		if i, ok := indexKey(key); ok {
			return i < len([]rune(x))
		}
		return key == "length"
	case runtime.Container:
		if s, ok := key.(string); ok {
			return x.Has(s)
		}
	}
	if o := objectOf(v); o != nil {
		_, ok := o.Own(key)
		return ok
	}

	return false
}

// ownProperty returns the descriptor of an own property, synthesizing one
// for array elements.
func ownProperty(v any, key any) (*runtime.Property, bool) {
	key = runtime.ToPropertyKey(key)
	switch x := v.(type) {
	case *runtime.Array:
		if i, ok := indexKey(key); ok {
			if i >= x.Len() {
				return nil, false
			}
			return &runtime.Property{Value: x.At(i), Writable: !x.IsFrozen(), Enumerable: true, Configurable: !x.IsFrozen()}, true
		}
		if key == "length" {
			return &runtime.Property{Value: float64(x.Len()), Writable: !x.IsFrozen()}, true
		}
	case string:
		if i, ok := indexKey(key); ok && i < len([]rune(x)) {
			return &runtime.Property{Value: string([]rune(x)[i]), Enumerable: true}, true
		}
		if key == "length" {
			return &runtime.Property{Value: float64(len([]rune(x)))}, true
		}
	}
	if o := objectOf(v); o != nil {
		return o.Own(key)
	}

	return nil, false
}

func objectProtoHasOwnProperty(this any, args []any) (any, error) {
	if err := requireObject(this, "Object.prototype.hasOwnProperty"); err != nil {
		return nil, err
	}

	return hasOwn(this, arg(args, 0)), nil
}

func objectProtoIsPrototypeOf(this any, args []any) (any, error) {
	proto := objectOf(this)
	target := objectOf(arg(args, 0))
	if proto == nil || target == nil {
		return false, nil
	}

	return target.InheritsFrom(proto), nil
}

func objectProtoPropertyIsEnumerable(this any, args []any) (any, error) {
	p, ok := ownProperty(this, arg(args, 0))

	return ok && p.Enumerable, nil
}

func objectProtoToString(this any, _ []any) (any, error) {
	switch this.(type) {
	case nil:
		return "[object Null]", nil
	case runtime.UndefinedType:
		return "[object Undefined]", nil
	case string:
		return "[object String]", nil
	case bool:
		return "[object Boolean]", nil
	case *runtime.Array, []any:
		return "[object Array]", nil
	case *runtime.Function:
		return "[object Function]", nil
	}
	if runtime.IsNumber(this) {
		return "[object Number]", nil
	}
	if o := objectOf(this); o != nil {
		return "[object " + o.Class() + "]", nil
	}

	return "[object Object]", nil
}

func objectProtoToLocaleString(this any, _ []any) (any, error) {
	fn, err := runtime.GetMember(this, "toString")
	if err != nil {
		return nil, err
	}

	return runtime.Call(fn, this, nil)
}

func objectProtoValueOf(this any, _ []any) (any, error) {
	if err := requireObject(this, "Object.prototype.valueOf"); err != nil {
		return nil, err
	}

	return toObject(this), nil
}

func objectKeys(_ any, args []any) (any, error) {
	v := arg(args, 0)
	if err := requireObject(v, "Object.keys"); err != nil {
		return nil, err
	}

	keys := runtime.OwnKeys(v)
	elems := make([]any, len(keys))
	for i, k := range keys {
		elems[i] = k
	}

	return runtime.NewArray(elems), nil
}

func objectValues(_ any, args []any) (any, error) {
	v := arg(args, 0)
	if err := requireObject(v, "Object.values"); err != nil {
		return nil, err
	}

	keys := runtime.OwnKeys(v)
	elems := make([]any, 0, len(keys))
	for _, k := range keys {
		val, err := runtime.GetMember(v, k)
		if err != nil {
			return nil, err
		}
		elems = append(elems, val)
	}

	return runtime.NewArray(elems), nil
}

func objectEntries(_ any, args []any) (any, error) {
	v := arg(args, 0)
	if err := requireObject(v, "Object.entries"); err != nil {
		return nil, err
	}

	keys := runtime.OwnKeys(v)
	elems := make([]any, 0, len(keys))
	for _, k := range keys {
		val, err := runtime.GetMember(v, k)
		if err != nil {
			return nil, err
		}
		elems = append(elems, runtime.NewArray([]any{k, val}))
	}

	return runtime.NewArray(elems), nil
}

func objectFromEntries(_ any, args []any) (any, error) {
	v := arg(args, 0)
	if err := requireObject(v, "Object.fromEntries"); err != nil {
		return nil, err
	}

	obj := runtime.NewObject(runtime.ObjectPrototype)
	err := runtime.Iterate(v, func(entry any) (bool, error) {
		if runtime.IsNullish(entry) || runtime.TypeOf(entry) != "object" {
			return false, runtime.NewTypeError("Iterator value %s is not an entry object", runtime.Describe(entry))
		}
		k, err := runtime.GetMember(entry, 0.0)
		if err != nil {
			return false, err
		}
		val, err := runtime.GetMember(entry, 1.0)
		if err != nil {
			return false, err
		}
		obj.Put(runtime.ToPropertyKey(k), val)
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	return obj, nil
}

func objectAssign(_ any, args []any) (any, error) {
	target := arg(args, 0)
	if err := requireObject(target, "Object.assign"); err != nil {
		return nil, err
	}
	target = toObject(target)

	for _, src := range args[1:] {
		if runtime.IsNullish(src) {
			continue
		}
		for _, k := range runtime.OwnKeys(src) {
			val, err := runtime.GetMember(src, k)
			if err != nil {
				return nil, err
			}
			if err := runtime.SetMember(target, k, val); err != nil {
				return nil, err
			}
		}
	}

	return target, nil
}

func objectCreate(_ any, args []any) (any, error) {
	p := arg(args, 0)
	var proto *runtime.Object
	if p != nil {
		proto = objectOf(p)
		if proto == nil {
			return nil, runtime.NewTypeError("Object prototype may only be an Object or null: %s", runtime.Describe(p))
		}
	}

	obj := runtime.NewObject(proto)
	if props := arg(args, 1); !runtime.IsUndefined(props) {
		if err := defineProperties(obj, props); err != nil {
			return nil, err
		}
	}

	return obj, nil
}

func objectDefineProperty(_ any, args []any) (any, error) {
	target := arg(args, 0)
	if objectOf(target) == nil {
		return nil, runtime.NewTypeError("Object.defineProperty called on non-object")
	}
	desc, err := toPropertyDescriptor(arg(args, 2))
	if err != nil {
		return nil, err
	}
	if err := defineOwnProperty(target, runtime.ToPropertyKey(arg(args, 1)), desc); err != nil {
		return nil, err
	}

	return target, nil
}

func objectDefineProperties(_ any, args []any) (any, error) {
	target := arg(args, 0)
	if objectOf(target) == nil {
		return nil, runtime.NewTypeError("Object.defineProperties called on non-object")
	}
	if err := defineProperties(target, arg(args, 1)); err != nil {
		return nil, err
	}

	return target, nil
}

func defineProperties(target any, props any) error {
	for _, k := range runtime.OwnKeys(props) {
		d, err := runtime.GetMember(props, k)
		if err != nil {
			return err
		}
		desc, err := toPropertyDescriptor(d)
		if err != nil {
			return err
		}
		if err := defineOwnProperty(target, k, desc); err != nil {
			return err
		}
	}

	return nil
}

// descriptor is a partially specified property descriptor.
type descriptor struct {
	prop                                  runtime.Property
	hasValue, hasGet, hasSet              bool
	hasWritable, hasEnumerable, hasConfig bool
}

func toPropertyDescriptor(v any) (*descriptor, error) {
	if objectOf(v) == nil {
		return nil, runtime.NewTypeError("Property description must be an object: %s", runtime.Describe(v))
	}

	d := &descriptor{}
	field := func(name string) (any, bool, error) {
		ok, err := runtime.HasProperty(v, name)
		if err != nil || !ok {
			return nil, false, err
		}
		val, err := runtime.GetMember(v, name)
		return val, true, err
	}

	var err error
	var val any
	if val, d.hasValue, err = field("value"); err != nil {
		return nil, err
	} else if d.hasValue {
		d.prop.Value = val
	}
	if val, d.hasWritable, err = field("writable"); err != nil {
		return nil, err
	} else if d.hasWritable {
		d.prop.Writable = runtime.ToBoolean(val)
	}
	if val, d.hasEnumerable, err = field("enumerable"); err != nil {
		return nil, err
	} else if d.hasEnumerable {
		d.prop.Enumerable = runtime.ToBoolean(val)
	}
	if val, d.hasConfig, err = field("configurable"); err != nil {
		return nil, err
	} else if d.hasConfig {
		d.prop.Configurable = runtime.ToBoolean(val)
	}
	if val, d.hasGet, err = field("get"); err != nil {
		return nil, err
	} else if d.hasGet && !runtime.IsUndefined(val) {
		if !runtime.IsCallable(val) {
			return nil, runtime.NewTypeError("Getter must be a function: %s", runtime.Describe(val))
		}
		d.prop.Getter = val
	}
	if val, d.hasSet, err = field("set"); err != nil {
		return nil, err
	} else if d.hasSet && !runtime.IsUndefined(val) {
		if !runtime.IsCallable(val) {
			return nil, runtime.NewTypeError("Setter must be a function: %s", runtime.Describe(val))
		}
		d.prop.Setter = val
	}

	if (d.hasGet || d.hasSet) && (d.hasValue || d.hasWritable) {
		return nil, runtime.NewTypeError("Invalid property descriptor. Cannot both specify accessors and a value or writable attribute")
	}

	return d, nil
}

// defineOwnProperty merges d into the existing property of target, if any.
// Attributes d leaves out keep their current value, or default to false
// for new properties.
func defineOwnProperty(target any, key any, d *descriptor) error {
	if arr, ok := target.(*runtime.Array); ok {
		if _, isIndex := indexKey(key); isIndex || key == "length" {
			if d.hasGet || d.hasSet {
				return runtime.NewTypeError("Cannot define accessor on array element %s", runtime.ToString(key))
			}
			if arr.IsFrozen() {
				return runtime.NewTypeError("Cannot redefine property: %s", runtime.ToString(key))
			}
			return runtime.SetMember(arr, key, d.prop.Value)
		}
	}

	obj := objectOf(target)
	existing, ok := obj.Own(key)
	if !ok {
		if !obj.IsExtensible() {
			return runtime.NewTypeError("Cannot define property %s, object is not extensible", runtime.ToString(key))
		}
		p := d.prop
		obj.Define(key, &p)
		return nil
	}

	if !existing.Configurable && !redefinable(existing, d) {
		return runtime.NewTypeError("Cannot redefine property: %s", runtime.ToString(key))
	}

	p := *existing
	switch {
	case d.hasGet || d.hasSet:
		if !existing.IsAccessor() {
			p.Value, p.Writable = nil, false
		}
		if d.hasGet {
			p.Getter = d.prop.Getter
		}
		if d.hasSet {
			p.Setter = d.prop.Setter
		}
	case d.hasValue || d.hasWritable:
		if existing.IsAccessor() {
			p.Getter, p.Setter = nil, nil
		}
		if d.hasValue {
			p.Value = d.prop.Value
		}
		if d.hasWritable {
			p.Writable = d.prop.Writable
		}
	}
	if d.hasEnumerable {
		p.Enumerable = d.prop.Enumerable
	}
	if d.hasConfig {
		p.Configurable = d.prop.Configurable
	}
	obj.Define(key, &p)

	return nil
}

// redefinable reports whether d may be applied to a non-configurable
// property: only writing the value of a writable data property, or
// restating what is already there.
func redefinable(p *runtime.Property, d *descriptor) bool {
	if d.hasConfig && d.prop.Configurable {
		return false
	}
	if d.hasEnumerable && d.prop.Enumerable != p.Enumerable {
		return false
	}
	if p.IsAccessor() {
		return !d.hasValue && !d.hasWritable &&
			(!d.hasGet || d.prop.Getter == p.Getter) &&
			(!d.hasSet || d.prop.Setter == p.Setter)
	}
	if d.hasGet || d.hasSet {
		return false
	}
	if p.Writable {
		return true
	}

	return (!d.hasWritable || !d.prop.Writable) &&
		(!d.hasValue || runtime.SameValueZero(d.prop.Value, p.Value))
}

func fromPropertyDescriptor(p *runtime.Property) *runtime.Object {
	desc := runtime.NewObject(runtime.ObjectPrototype)
	if p.IsAccessor() {
		desc.Put("get", orUndefined(p.Getter))
		desc.Put("set", orUndefined(p.Setter))
	} else {
		desc.Put("value", p.Value)
		desc.Put("writable", p.Writable)
	}
	desc.Put("enumerable", p.Enumerable)
	desc.Put("configurable", p.Configurable)

	return desc
}

func orUndefined(v any) any {
	if v == nil {
		return runtime.Undefined
	}

	return v
}

func objectGetOwnPropertyDescriptor(_ any, args []any) (any, error) {
	v := arg(args, 0)
	if err := requireObject(v, "Object.getOwnPropertyDescriptor"); err != nil {
		return nil, err
	}
	p, ok := ownProperty(v, arg(args, 1))
	if !ok {
		return runtime.Undefined, nil
	}

	return fromPropertyDescriptor(p), nil
}

func objectGetOwnPropertyDescriptors(_ any, args []any) (any, error) {
	v := arg(args, 0)
	if err := requireObject(v, "Object.getOwnPropertyDescriptors"); err != nil {
		return nil, err
	}

	out := runtime.NewObject(runtime.ObjectPrototype)
	for _, k := range ownPropertyKeys(v) {
		if p, ok := ownProperty(v, k); ok {
			out.Put(k, fromPropertyDescriptor(p))
		}
	}

	return out, nil
}

// ownPropertyKeys lists every own key of v, enumerable or not, strings
// before symbols.
func ownPropertyKeys(v any) []any {
	var keys []any
	switch x := v.(type) {
	case *runtime.Array:
		for i := range x.Len() {
			keys = append(keys, strconv.Itoa(i))
		}
		keys = append(keys, "length")
	case string:
		for i := range len([]rune(x)) {
			keys = append(keys, strconv.Itoa(i))
		}
		return append(keys, "length")
	}

	o := objectOf(v)
	if o == nil {
		for _, k := range runtime.OwnKeys(v) {
			keys = append(keys, k)
		}
		return keys
	}

	var symbols []any
	for _, k := range o.OwnKeys() {
		if _, ok := k.(*runtime.Symbol); ok {
			symbols = append(symbols, k)
			continue
		}
		keys = append(keys, k)
	}

	return append(keys, symbols...)
}

func objectGetOwnPropertyNames(_ any, args []any) (any, error) {
	v := arg(args, 0)
	if err := requireObject(v, "Object.getOwnPropertyNames"); err != nil {
		return nil, err
	}

	var names []any
	for _, k := range ownPropertyKeys(v) {
		if _, ok := k.(string); ok {
			names = append(names, k)
		}
	}

	return runtime.NewArray(names), nil
}

func objectGetOwnPropertySymbols(_ any, args []any) (any, error) {
	var symbols []any
	for _, k := range ownPropertyKeys(arg(args, 0)) {
		if _, ok := k.(*runtime.Symbol); ok {
			symbols = append(symbols, k)
		}
	}

	return runtime.NewArray(symbols), nil
}

func objectGetPrototypeOf(_ any, args []any) (any, error) {
	v := arg(args, 0)
	if err := requireObject(v, "Object.getPrototypeOf"); err != nil {
		return nil, err
	}
	if p := runtime.PrototypeOf(v); p != nil {
		return p, nil
	}

	return nil, nil
}

func objectSetPrototypeOf(_ any, args []any) (any, error) {
	v := arg(args, 0)
	if err := requireObject(v, "Object.setPrototypeOf"); err != nil {
		return nil, err
	}
	p := arg(args, 1)
	proto := objectOf(p)
	if proto == nil && p != nil {
		return nil, runtime.NewTypeError("Object prototype may only be an Object or null: %s", runtime.Describe(p))
	}

	o := objectOf(v)
	if o == nil {
		return v, nil
	}
	for q := proto; q != nil; q = q.Proto() {
		if q == o {
			return nil, runtime.NewTypeError("Cyclic __proto__ value")
		}
	}
	if !o.IsExtensible() && o.Proto() != proto {
		return nil, runtime.NewTypeError("%s is not extensible", runtime.Describe(v))
	}
	o.SetProto(proto)

	return v, nil
}

func objectFreeze(_ any, args []any) (any, error) {
	v := arg(args, 0)
	if o := objectOf(v); o != nil {
		o.Freeze()
	}

	return v, nil
}

func objectIsFrozen(_ any, args []any) (any, error) {
	o := objectOf(arg(args, 0))
	if o == nil {
		return true, nil
	}
	if o.IsFrozen() {
		return true, nil
	}
	if o.IsExtensible() {
		return false, nil
	}
	if arr, ok := arg(args, 0).(*runtime.Array); ok && arr.Len() > 0 {
		return false, nil
	}
	for _, k := range o.OwnKeys() {
		p, _ := o.Own(k)
		if p.Configurable || (!p.IsAccessor() && p.Writable) {
			return false, nil
		}
	}

	return true, nil
}

func objectSeal(_ any, args []any) (any, error) {
	v := arg(args, 0)
	if o := objectOf(v); o != nil {
		o.PreventExtensions()
		for _, k := range o.OwnKeys() {
			p, _ := o.Own(k)
			p.Configurable = false
		}
	}

	return v, nil
}

func objectIsSealed(_ any, args []any) (any, error) {
	o := objectOf(arg(args, 0))
	if o == nil {
		return true, nil
	}
	if o.IsExtensible() {
		return false, nil
	}
	for _, k := range o.OwnKeys() {
		if p, _ := o.Own(k); p.Configurable {
			return false, nil
		}
	}

	return true, nil
}

func objectPreventExtensions(_ any, args []any) (any, error) {
	v := arg(args, 0)
	if o := objectOf(v); o != nil {
		o.PreventExtensions()
	}

	return v, nil
}

func objectIsExtensible(_ any, args []any) (any, error) {
	o := objectOf(arg(args, 0))
	return o != nil && o.IsExtensible(), nil
}

func objectHasOwn(_ any, args []any) (any, error) {
	v := arg(args, 0)
	if err := requireObject(v, "Object.hasOwn"); err != nil {
		return nil, err
	}

	return hasOwn(v, arg(args, 1)), nil
}

func objectIs(_ any, args []any) (any, error) {
	return sameValue(arg(args, 0), arg(args, 1)), nil
}

// sameValue is SameValueZero except that +0 and -0 differ.
func sameValue(a, b any) bool {
	if runtime.IsNumber(a) && runtime.IsNumber(b) {
		x, y := runtime.ToNumber(a), runtime.ToNumber(b)
		if x == 0 && y == 0 {
			return math.Signbit(x) == math.Signbit(y)
		}
	}

	return runtime.SameValueZero(a, b)
}

func objectGroupBy(_ any, args []any) (any, error) {
	fn, err := callable(arg(args, 1), "Object.groupBy callback")
	if err != nil {
		return nil, err
	}

	out := runtime.NewObject(nil)
	i := 0
	err = runtime.Iterate(arg(args, 0), func(v any) (bool, error) {
		k, err := runtime.Call(fn, runtime.Undefined, []any{v, float64(i)})
		if err != nil {
			return false, err
		}
		i++
		key := runtime.ToPropertyKey(k)
		group, ok := out.Value(key).(*runtime.Array)
		if !ok {
			group = runtime.NewArray(nil)
			out.Put(key, group)
		}
		group.Elements = append(group.Elements, v)
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}
