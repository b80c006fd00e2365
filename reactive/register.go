package reactive

import (
	"github.com/example/expressions/runtime"
	"github.com/example/expressions/scope"
)

// Register installs signal, computed, lazy, effect and untracked into
// ctx so scripts can build reactive graphs on s.
func (s *SignalScope) Register(ctx scope.Context) {
	call := func(fn any) func() (any, error) {
		return func() (any, error) { return runtime.Call(fn, runtime.Undefined, nil) }
	}

	ctx.Set("signal", runtime.NewFunction("signal", 1, func(_ any, args []any) (any, error) {
		return s.CreateSignal(arg(args, 0)).Func(), nil
	}))

	ctx.Set("computed", runtime.NewFunction("computed", 1, func(_ any, args []any) (any, error) {
		if err := callable(args); err != nil {
			return nil, err
		}
		return s.CreateComputed(call(args[0])).Func(), nil
	}))

	ctx.Set("lazy", runtime.NewFunction("lazy", 1, func(_ any, args []any) (any, error) {
		if err := callable(args); err != nil {
			return nil, err
		}
		return s.CreateLazy(call(args[0])).Func(), nil
	}))

	ctx.Set("effect", runtime.NewFunction("effect", 1, func(_ any, args []any) (any, error) {
		if err := callable(args); err != nil {
			return nil, err
		}
		fn := args[0]
		e := s.CreateEffect(func(onCleanup func(func())) error {
			register := runtime.NewFunction("onCleanup", 1, func(_ any, args []any) (any, error) {
				cleanup := arg(args, 0)
				onCleanup(func() { _, _ = runtime.Call(cleanup, runtime.Undefined, nil) })
				return runtime.Undefined, nil
			})
			_, err := runtime.Call(fn, runtime.Undefined, []any{register})
			return err
		})

		handle := runtime.NewObject(runtime.ObjectPrototype)
		handle.Put("error", runtime.NewFunction("error", 0, func(any, []any) (any, error) {
			if e.Err() == nil {
				return runtime.Undefined, nil
			}
			return runtime.ErrorValue(e.Err()), nil
		}))
		handle.Put("destroy", runtime.NewFunction("destroy", 0, func(any, []any) (any, error) {
			e.Destroy()
			return runtime.Undefined, nil
		}))
		return handle, nil
	}))

	ctx.Set("untracked", runtime.NewFunction("untracked", 1, func(_ any, args []any) (any, error) {
		if err := callable(args); err != nil {
			return nil, err
		}
		return s.Untracked(call(args[0]))
	}))
}

func callable(args []any) error {
	if _, ok := arg(args, 0).(*runtime.Function); !ok {
		return runtime.NewTypeError("%s is not a function", runtime.Inspect(arg(args, 0)))
	}

	return nil
}
