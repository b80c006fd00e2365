package runtime

import (
	"math"
	"math/big"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Container is the capability interface of keyed host containers. Values
// implementing it can be read and written by member access like objects.
type Container interface {
	Get(key string) (any, bool)
	Set(key string, value any) bool
	Has(key string) bool
	Delete(key string) bool
	Keys() []string
}

// arrayIndex interprets key as an array index.
func arrayIndex(key any) (int, bool) {
	switch k := key.(type) {
	case float64:
		if k >= 0 && k == math.Trunc(k) && k < math.MaxInt32 {
			return int(k), true
		}
		return 0, false
	case string:
		if k == "" || (len(k) > 1 && k[0] == '0') {
			return 0, false
		}
		n, err := strconv.Atoi(k)
		if err != nil || n < 0 {
			return 0, false
		}
		return n, true
	}
	if f, ok := toFloat(key); ok {
		return arrayIndex(f)
	}

	return 0, false
}

func keyString(key any) string {
	if s, ok := key.(string); ok {
		return s
	}

	return ToString(key)
}

// PrototypeOf returns the object whose properties v inherits.
func PrototypeOf(v any) *Object {
	switch v := v.(type) {
	case ObjectLike:
		return v.Base().proto
	case string:
		return StringPrototype
	case bool:
		return BooleanPrototype
	case *big.Int:
		return BigIntPrototype
	case *Symbol:
		return SymbolPrototype
	case []any:
		return ArrayPrototype
	case nil, UndefinedType:
		return nil
	}
	if IsNumber(v) {
		return NumberPrototype
	}
	if IsCallable(v) {
		return FunctionPrototype
	}
	if _, ok := hostSlice(v); ok {
		return ArrayPrototype
	}

	return ObjectPrototype
}

// GetMember reads v[key]. Getters run with v as receiver.
func GetMember(v any, key any) (any, error) {
	return GetMemberWithReceiver(v, key, v)
}

// GetMemberWithReceiver reads v[key], running getters with receiver. It is
// the primitive behind super property access.
func GetMemberWithReceiver(v any, key any, receiver any) (any, error) {
	if key == nil {
		key = "null"
	}
	if f, ok := key.(float64); ok && !isIndexable(v) {
		key = NumberToString(f)
	}

	switch o := v.(type) {
	case nil, UndefinedType:
		return nil, NewTypeError("Cannot read properties of %s (reading '%s')", ToString(v), keyString(key))
	case *Array:
		if i, ok := arrayIndex(key); ok {
			return o.At(i), nil
		}
		if key == "length" {
			return float64(len(o.Elements)), nil
		}
	case string:
		if i, ok := arrayIndex(key); ok {
			if i < utf8.RuneCountInString(o) {
				return string([]rune(o)[i]), nil
			}
			return Undefined, nil
		}
		if key == "length" {
			return float64(utf8.RuneCountInString(o)), nil
		}
	case []any:
		if i, ok := arrayIndex(key); ok {
			if i < len(o) {
				return Normalize(o[i]), nil
			}
			return Undefined, nil
		}
		if key == "length" {
			return float64(len(o)), nil
		}
	case map[string]any:
		if s, ok := key.(string); ok {
			if val, ok := o[s]; ok {
				return Normalize(val), nil
			}
		}
	case *Symbol:
		if key == "description" {
			return o.Description, nil
		}
	}

	if base, ok := v.(ObjectLike); ok {
		return getFromObject(base.Base(), key, receiver)
	}
	if c, ok := v.(Container); ok {
		if s, ok := key.(string); ok {
			if val, ok := c.Get(s); ok {
				return Normalize(val), nil
			}
		}
	} else if s, ok := key.(string); ok && !isPrimitive(v) {
		if val, ok := hostGet(v, s); ok {
			return val, nil
		}
	}

	if proto := PrototypeOf(v); proto != nil {
		return getFromObject(proto, key, receiver)
	}

	return Undefined, nil
}

func isIndexable(v any) bool {
	switch v.(type) {
	case *Array, string, []any:
		return true
	}
	_, ok := hostSlice(v)

	return ok
}

func getFromObject(o *Object, key any, receiver any) (any, error) {
	if _, isSym := key.(*Symbol); !isSym {
		key = keyString(key)
	}

	prop, ok := o.Lookup(key)
	if !ok {
		return Undefined, nil
	}
	if prop.IsAccessor() {
		if prop.Getter == nil {
			return Undefined, nil
		}
		return Call(prop.Getter, receiver, nil)
	}

	return prop.Value, nil
}

// SetMember performs v[key] = value.
func SetMember(v any, key any, value any) error {
	return SetMemberWithReceiver(v, key, value, v)
}

// SetMemberWithReceiver performs v[key] = value, running setters with
// receiver.
func SetMemberWithReceiver(v any, key any, value any, receiver any) error {
	switch o := v.(type) {
	case nil, UndefinedType:
		return NewTypeError("Cannot set properties of %s (setting '%s')", ToString(v), keyString(key))
	case *Array:
		if i, ok := arrayIndex(key); ok {
			if o.frozen {
				return nil
			}
			if i >= len(o.Elements) {
				o.SetLen(i + 1)
			}
			o.Elements[i] = value
			return nil
		}
		if keyString(key) == "length" {
			n := ToNumber(value)
			if n < 0 || n != math.Trunc(n) || n > math.MaxInt32 {
				return NewRangeError("Invalid array length")
			}
			if !o.frozen {
				o.SetLen(int(n))
			}
			return nil
		}
	case []any:
		if i, ok := arrayIndex(key); ok {
			if i >= len(o) {
				return NewTypeError("cannot grow host slice to index %d", i)
			}
			o[i] = value
			return nil
		}
	case map[string]any:
		o[keyString(key)] = value
		return nil
	}

	if base, ok := v.(ObjectLike); ok {
		return setOnObject(base.Base(), key, value, receiver)
	}
	if c, ok := v.(Container); ok {
		c.Set(keyString(key), value)
		return nil
	}
	if isPrimitive(v) {
		return nil
	}

	return hostSet(v, keyString(key), value)
}

func setOnObject(o *Object, key any, value any, receiver any) error {
	if _, isSym := key.(*Symbol); !isSym {
		key = keyString(key)
	}

	prop, ok := o.Lookup(key)
	if ok && prop.IsAccessor() {
		if prop.Setter == nil {
			return nil
		}
		_, err := Call(prop.Setter, receiver, []any{value})
		return err
	}

	if ok {
		if own, isOwn := o.Own(key); isOwn && own == prop {
			if prop.Writable && !o.frozen {
				prop.Value = value
			}
			return nil
		}
		if !prop.Writable {
			return nil
		}
	}

	if o.extensible && !o.frozen {
		o.props.Put(key, DataProperty(value))
	}

	return nil
}

// DeleteMember performs delete v[key].
func DeleteMember(v any, key any) (bool, error) {
	switch o := v.(type) {
	case nil, UndefinedType:
		return false, NewTypeError("Cannot convert undefined or null to object")
	case *Array:
		if i, ok := arrayIndex(key); ok {
			if i < len(o.Elements) && !o.frozen {
				o.Elements[i] = Undefined
			}
			return !o.frozen, nil
		}
	case map[string]any:
		delete(o, keyString(key))
		return true, nil
	}

	if base, ok := v.(ObjectLike); ok {
		if _, isSym := key.(*Symbol); !isSym {
			key = keyString(key)
		}
		return base.Base().Remove(key), nil
	}
	if c, ok := v.(Container); ok {
		return c.Delete(keyString(key)), nil
	}

	return true, nil
}

// HasProperty implements the `in` operator.
func HasProperty(v any, key any) (bool, error) {
	switch o := v.(type) {
	case nil, UndefinedType, bool, string, *big.Int, *Symbol:
		return false, NewTypeError("Cannot use 'in' operator to search for '%s' in %s", keyString(key), ToString(v))
	case *Array:
		if i, ok := arrayIndex(key); ok {
			return i < len(o.Elements), nil
		}
		if key == "length" {
			return true, nil
		}
	case []any:
		if i, ok := arrayIndex(key); ok {
			return i < len(o), nil
		}
	case map[string]any:
		if _, ok := o[keyString(key)]; ok {
			return true, nil
		}
	}
	if IsNumber(v) {
		return false, NewTypeError("Cannot use 'in' operator to search for '%s' in %s", keyString(key), ToString(v))
	}

	if base, ok := v.(ObjectLike); ok {
		if _, isSym := key.(*Symbol); !isSym {
			key = keyString(key)
		}
		_, found := base.Base().Lookup(key)
		return found, nil
	}
	if c, ok := v.(Container); ok {
		return c.Has(keyString(key)), nil
	}
	if _, ok := hostGet(v, keyString(key)); ok {
		return true, nil
	}
	_, found := ObjectPrototype.Lookup(keyString(key))

	return found, nil
}

// OwnKeys returns the own enumerable string keys of v: indices first for
// arrays and strings, sorted keys for host maps.
func OwnKeys(v any) []string {
	var keys []string

	switch o := v.(type) {
	case nil, UndefinedType:
		return nil
	case string:
		for i := range utf8.RuneCountInString(o) {
			keys = append(keys, strconv.Itoa(i))
		}
		return keys
	case *Array:
		for i := range o.Elements {
			keys = append(keys, strconv.Itoa(i))
		}
		return append(keys, o.Object.Keys()...)
	case []any:
		for i := range o {
			keys = append(keys, strconv.Itoa(i))
		}
		return keys
	case map[string]any:
		for k := range o {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		return keys
	}

	if base, ok := v.(ObjectLike); ok {
		return base.Base().Keys()
	}
	if c, ok := v.(Container); ok {
		return c.Keys()
	}

	return hostKeys(v)
}

// ForInKeys returns the keys a for-in loop visits: own enumerable keys and
// enumerable keys inherited through the prototype chain.
func ForInKeys(v any) []string {
	keys := OwnKeys(v)
	base, ok := v.(ObjectLike)
	if !ok {
		return keys
	}

	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		seen[k] = true
	}
	for p := base.Base().proto; p != nil; p = p.proto {
		for _, k := range p.Keys() {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}

	return keys
}

// InstanceOf implements the instanceof operator.
func InstanceOf(v any, ctor any) (bool, error) {
	if !IsCallable(ctor) {
		return false, NewTypeError("Right-hand side of 'instanceof' is not callable")
	}

	if h, err := GetMember(ctor, SymbolHasInstance); err == nil && IsCallable(h) {
		r, err := Call(h, ctor, []any{v})
		if err != nil {
			return false, err
		}
		return ToBoolean(r), nil
	}

	f, ok := ctor.(*Function)
	if !ok {
		return false, nil
	}
	proto := f.Target().Prototype()
	if proto == nil {
		return false, NewTypeError("Function has non-object prototype in instanceof check")
	}

	o, ok := v.(ObjectLike)
	if !ok {
		return false, nil
	}

	return o.Base().InheritsFrom(proto), nil
}

// hostGet reads a field, method or map entry of a host Go value.
func hostGet(v any, key string) (any, bool) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil, false
	}

	if m := rv.MethodByName(exportedName(key)); m.IsValid() {
		return m.Interface(), true
	}
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Struct:
		if f, ok := structField(rv, key); ok {
			return Normalize(f.Interface()), true
		}
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		mv := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
		if mv.IsValid() {
			return Normalize(mv.Interface()), true
		}
	case reflect.Slice, reflect.Array:
		if key == "length" {
			return float64(rv.Len()), true
		}
		if i, ok := arrayIndex(key); ok && i < rv.Len() {
			return Normalize(rv.Index(i).Interface()), true
		}
	}

	return nil, false
}

func hostSet(v any, key string, value any) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return NewTypeError("Cannot set properties of null (setting '%s')", key)
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Struct:
		f, ok := structField(rv, key)
		if !ok || !f.CanSet() {
			return NewTypeError("Cannot assign to read only property '%s'", key)
		}
		arg, err := hostArg(value, f.Type())
		if err != nil {
			return err
		}
		f.Set(arg)
		return nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		arg, err := hostArg(value, rv.Type().Elem())
		if err != nil {
			return err
		}
		rv.SetMapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()), arg)
		return nil
	}

	return NewTypeError("Cannot set property '%s' of %s", key, rv.Type())
}

func hostKeys(v any) []string {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	var keys []string
	switch rv.Kind() {
	case reflect.Struct:
		for i := range rv.NumField() {
			if f := rv.Type().Field(i); f.IsExported() {
				keys = append(keys, fieldName(f))
			}
		}
	case reflect.Map:
		for _, k := range rv.MapKeys() {
			if k.Kind() == reflect.String {
				keys = append(keys, k.String())
			}
		}
		slices.Sort(keys)
	case reflect.Slice, reflect.Array:
		for i := range rv.Len() {
			keys = append(keys, strconv.Itoa(i))
		}
	}

	return keys
}

func hostSlice(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}

	out := make([]any, rv.Len())
	for i := range out {
		out[i] = Normalize(rv.Index(i).Interface())
	}

	return out, true
}

func structField(rv reflect.Value, key string) (reflect.Value, bool) {
	t := rv.Type()
	for i := range t.NumField() {
		f := t.Field(i)
		if f.IsExported() && (f.Name == key || fieldName(f) == key) {
			return rv.Field(i), true
		}
	}
	if f := rv.FieldByName(exportedName(key)); f.IsValid() && f.CanInterface() {
		return f, true
	}

	return reflect.Value{}, false
}

// fieldName returns the JSON name of a struct field, or its Go name.
func fieldName(f reflect.StructField) string {
	if tag, ok := f.Tag.Lookup("json"); ok {
		if name, _, _ := strings.Cut(tag, ","); name != "" && name != "-" {
			return name
		}
	}

	return f.Name
}

func exportedName(key string) string {
	r, size := utf8.DecodeRuneInString(key)
	if r == utf8.RuneError {
		return key
	}

	return string(unicode.ToUpper(r)) + key[size:]
}
