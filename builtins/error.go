package builtins

import (
	"github.com/example/expressions/runtime"
)

var errorKinds = []string{"TypeError", "RangeError", "ReferenceError", "SyntaxError", "EvalError", "URIError"}

// createErrorConstructors returns Error, its native subtypes and
// AggregateError, in that order.
func createErrorConstructors() []global {
	method(runtime.ErrorPrototype, "toString", 0, errorToString)

	base := errorConstructor("Error", runtime.ErrorPrototype, false)
	out := []global{{"Error", base}}
	for _, kind := range errorKinds {
		f := errorConstructor(kind, runtime.ErrorPrototypes[kind], false)
		f.SetProto(base.Object)
		out = append(out, global{kind, f})
	}

	aggProto := runtime.NewObject(runtime.ErrorPrototype)
	aggProto.DefineHidden("name", "AggregateError")
	runtime.ErrorPrototypes["AggregateError"] = aggProto
	agg := errorConstructor("AggregateError", aggProto, true)
	agg.SetProto(base.Object)

	return append(out, global{"AggregateError", agg})
}

// errorConstructor builds the constructor of one error kind. Calling it
// without new behaves like constructing it. AggregateError takes the
// errors iterable before the message.
func errorConstructor(name string, proto *runtime.Object, aggregate bool) *runtime.Function {
	construct := func(args []any, newTarget *runtime.Function) (any, error) {
		o := runtime.CreateFromConstructor(newTarget, proto)
		o.SetClass("Error")
		if aggregate {
			errs, err := runtime.Collect(arg(args, 0))
			if err != nil {
				return nil, err
			}
			o.DefineHidden("errors", runtime.NewArray(errs))
			args = args[min(len(args), 1):]
		}
		if err := initError(o, arg(args, 0), arg(args, 1)); err != nil {
			return nil, err
		}
		return o, nil
	}

	length := 1
	if aggregate {
		length = 2
	}
	f := constructor(name, length, proto, func(_ any, args []any) (any, error) {
		return construct(args, nil)
	}, construct)
	proto.DefineHidden("message", "")

	return f
}

// initError installs message, cause and stack on a new error object.
func initError(o *runtime.Object, message, options any) error {
	if !runtime.IsUndefined(message) {
		o.DefineHidden("message", runtime.ToString(message))
	}
	if opts := objectOf(options); opts != nil {
		ok, err := runtime.HasProperty(opts, "cause")
		if err != nil {
			return err
		}
		if ok {
			cause, err := runtime.GetMember(opts, "cause")
			if err != nil {
				return err
			}
			o.DefineHidden("cause", cause)
		}
	}
	o.DefineHidden("stack", runtime.ErrorString(o))

	return nil
}

func errorToString(this any, _ []any) (any, error) {
	o := objectOf(this)
	if o == nil {
		return nil, runtime.NewTypeError("Error.prototype.toString requires that 'this' be an Object")
	}

	name, err := runtime.GetMember(o, "name")
	if err != nil {
		return nil, err
	}
	msg, err := runtime.GetMember(o, "message")
	if err != nil {
		return nil, err
	}

	n := "Error"
	if !runtime.IsUndefined(name) {
		n = runtime.ToString(name)
	}
	m := ""
	if !runtime.IsUndefined(msg) {
		m = runtime.ToString(msg)
	}
	switch {
	case n == "":
		return m, nil
	case m == "":
		return n, nil
	}

	return n + ": " + m, nil
}
