// Package runtime is the value model the evaluator works on. Values are plain
// Go values: float64 numbers, strings, bools, nil for null, [Undefined],
// *big.Int for bigints, and the object types of this package. Host values
// (maps, slices, structs, Go funcs) are accepted wherever a value is.
package runtime

import (
	"math"
	"math/big"
	"reflect"
)

// UndefinedType is the type of [Undefined].
type UndefinedType struct{}

func (UndefinedType) String() string { return "undefined" }

// Undefined is the undefined value. null is represented by nil.
var Undefined = UndefinedType{}

// IsUndefined reports whether v is undefined.
func IsUndefined(v any) bool {
	_, ok := v.(UndefinedType)
	return ok
}

// IsNullish reports whether v is null or undefined.
func IsNullish(v any) bool {
	return v == nil || IsUndefined(v)
}

// Symbol is a unique property key.
type Symbol struct {
	Description string
}

func (s *Symbol) String() string { return "Symbol(" + s.Description + ")" }

// Well-known symbols.
var (
	SymbolIterator      = &Symbol{Description: "Symbol.iterator"}
	SymbolAsyncIterator = &Symbol{Description: "Symbol.asyncIterator"}
	SymbolHasInstance   = &Symbol{Description: "Symbol.hasInstance"}
	SymbolToPrimitive   = &Symbol{Description: "Symbol.toPrimitive"}
)

// Intrinsic prototypes. They start empty; package builtins fills them in.
var (
	ObjectPrototype    = &Object{props: newProps(), class: "Object", extensible: true}
	FunctionPrototype  = NewObject(ObjectPrototype)
	ArrayPrototype     = NewObject(ObjectPrototype)
	StringPrototype    = NewObject(ObjectPrototype)
	NumberPrototype    = NewObject(ObjectPrototype)
	BooleanPrototype   = NewObject(ObjectPrototype)
	BigIntPrototype    = NewObject(ObjectPrototype)
	SymbolPrototype    = NewObject(ObjectPrototype)
	PromisePrototype   = NewObject(ObjectPrototype)
	GeneratorPrototype = NewObject(ObjectPrototype)
	RegExpPrototype    = NewObject(ObjectPrototype)
	ErrorPrototype     = NewObject(ObjectPrototype)
)

// NewRegExp builds the value of a regular expression literal. Package
// builtins installs the real constructor.
var NewRegExp = func(pattern, flags string) (any, error) {
	return nil, NewSyntaxError("regular expressions are not available: /%s/%s", pattern, flags)
}

// ObjectLike is implemented by every value backed by an [Object].
type ObjectLike interface {
	Base() *Object
}

// TypeOf implements the typeof operator.
func TypeOf(v any) string {
	switch v.(type) {
	case nil:
		return "object"
	case UndefinedType:
		return "undefined"
	case bool:
		return "boolean"
	case string:
		return "string"
	case *big.Int:
		return "bigint"
	case *Symbol:
		return "symbol"
	case *Function:
		return "function"
	}

	if _, ok := toFloat(v); ok {
		return "number"
	}
	if IsCallable(v) {
		return "function"
	}

	return "object"
}

// toFloat converts Go numeric kinds to float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case int16:
		return float64(n), true
	case int8:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint8:
		return float64(n), true
	case float32:
		return float64(n), true
	}

	return 0, false
}

// IsNumber reports whether v is a number, including Go integer kinds.
func IsNumber(v any) bool {
	_, ok := toFloat(v)
	return ok
}

// Normalize maps host numeric kinds to float64 and typed nils to null.
func Normalize(v any) any {
	if f, ok := toFloat(v); ok {
		return f
	}
	if isNilHost(v) {
		return nil
	}

	return v
}

func isNilHost(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface:
		return rv.IsNil()
	}

	return false
}

// NaN is a convenience for math.NaN().
func NaN() float64 { return math.NaN() }
