package builtins

import (
	"github.com/example/expressions/runtime"
)

// installGeneratorPrototype gives generator objects their iterator
// methods. Async generators share the prototype; their results come back
// as promises.
func installGeneratorPrototype() {
	proto := runtime.GeneratorPrototype
	proto.SetClass("Generator")

	method(proto, "next", 1, generatorResume("next", (*runtime.Generator).Next))
	method(proto, "return", 1, generatorResume("return", (*runtime.Generator).Return))
	method(proto, "throw", 1, generatorResume("throw", (*runtime.Generator).Throw))
	symbolMethod(proto, runtime.SymbolIterator, "[Symbol.iterator]", returnThis)
	symbolMethod(proto, runtime.SymbolAsyncIterator, "[Symbol.asyncIterator]", returnThis)
}

func returnThis(this any, _ []any) (any, error) { return this, nil }

func generatorResume(name string, resume func(*runtime.Generator, any) (any, bool, error)) runtime.NativeFunc {
	return func(this any, args []any) (any, error) {
		g, ok := this.(*runtime.Generator)
		if !ok {
			return nil, runtime.NewTypeError("%s method called on incompatible receiver %s", name, runtime.Describe(this))
		}

		v, done, err := resume(g, arg(args, 0))
		if !g.Async {
			if err != nil {
				return nil, err
			}
			return runtime.IterResult(v, done), nil
		}

		if err != nil {
			if !runtime.IsCatchable(err) {
				return nil, err
			}
			return runtime.RejectedPromise(runtime.ErrorValue(err)), nil
		}
		settled, err := runtime.Await(v)
		if err != nil {
			return runtime.RejectedPromise(runtime.ErrorValue(err)), nil
		}

		return runtime.ResolvedPromise(runtime.IterResult(settled, done)), nil
	}
}
