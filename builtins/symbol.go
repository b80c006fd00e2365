package builtins

import (
	"sync"

	"github.com/example/expressions/runtime"
)

// symbolRegistry backs Symbol.for. Intrinsics are shared by every
// interpreter in the process, so the registry is too.
var symbolRegistry = struct {
	sync.Mutex
	byKey map[string]*runtime.Symbol
}{byKey: map[string]*runtime.Symbol{}}

func createSymbolConstructor() *runtime.Function {
	proto := runtime.SymbolPrototype
	method(proto, "toString", 0, symbolToString)
	method(proto, "valueOf", 0, symbolValueOf)
	getter(proto, "description", symbolDescription)
	symbolMethod(proto, runtime.SymbolToPrimitive, "[Symbol.toPrimitive]", symbolValueOf)

	ctor := constructor("Symbol", 0, proto, symbolConstructorCall, nil)
	method(ctor.Object, "for", 1, symbolFor)
	method(ctor.Object, "keyFor", 1, symbolKeyFor)

	constant(ctor.Object, "asyncIterator", runtime.SymbolAsyncIterator)
	constant(ctor.Object, "hasInstance", runtime.SymbolHasInstance)
	constant(ctor.Object, "iterator", runtime.SymbolIterator)
	constant(ctor.Object, "toPrimitive", runtime.SymbolToPrimitive)

	return ctor
}

func symbolConstructorCall(_ any, args []any) (any, error) {
	desc := ""
	if v := arg(args, 0); !runtime.IsUndefined(v) {
		desc = runtime.ToString(v)
	}

	return &runtime.Symbol{Description: desc}, nil
}

func thisSymbol(this any, name string) (*runtime.Symbol, error) {
	s, ok := primitiveValue[*runtime.Symbol](this, "Symbol")
	if !ok {
		return nil, runtime.NewTypeError("Symbol.prototype.%s requires that 'this' be a Symbol", name)
	}

	return s, nil
}

func symbolToString(this any, _ []any) (any, error) {
	s, err := thisSymbol(this, "toString")
	if err != nil {
		return nil, err
	}

	return s.String(), nil
}

func symbolValueOf(this any, _ []any) (any, error) {
	s, err := thisSymbol(this, "valueOf")
	if err != nil {
		return nil, err
	}

	return s, nil
}

func symbolDescription(this any, _ []any) (any, error) {
	s, err := thisSymbol(this, "description")
	if err != nil {
		return nil, err
	}

	return s.Description, nil
}

func symbolFor(_ any, args []any) (any, error) {
	key := argString(args, 0)

	symbolRegistry.Lock()
	defer symbolRegistry.Unlock()

	if s, ok := symbolRegistry.byKey[key]; ok {
		return s, nil
	}
	s := &runtime.Symbol{Description: key}
	symbolRegistry.byKey[key] = s

	return s, nil
}

func symbolKeyFor(_ any, args []any) (any, error) {
	s, ok := arg(args, 0).(*runtime.Symbol)
	if !ok {
		return nil, runtime.NewTypeError("%s is not a symbol", runtime.Inspect(arg(args, 0)))
	}

	symbolRegistry.Lock()
	defer symbolRegistry.Unlock()

	if registered, ok := symbolRegistry.byKey[s.Description]; ok && registered == s {
		return s.Description, nil
	}

	return runtime.Undefined, nil
}
