package runtime

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/example/expressions/diag"
)

// ErrNoImplementation is returned by nodes that cannot perform an operation,
// typically assignment to a non-reference.
var ErrNoImplementation = diag.ErrEvaluation.Detail("no implementation")

// NoImplementation reports that node type typ does not support method.
func NoImplementation(typ, method string) error {
	return ErrNoImplementation.
		Detail(typ + "#" + method + "()").
		With(slog.String("node", typ), slog.String("method", method))
}

// ThrowError carries a thrown script value through Go error returns. It is
// the only error try/catch converts back into a value unchanged.
type ThrowError struct {
	Value any
}

func (e *ThrowError) Error() string {
	if o, ok := e.Value.(ObjectLike); ok && o.Base().class == "Error" {
		return ErrorString(o.Base())
	}

	return "Uncaught " + Inspect(e.Value)
}

// Unwrap classifies thrown values as evaluation errors.
func (e *ThrowError) Unwrap() error { return diag.ErrEvaluation }

// LogValue implements slog.LogValuer.
func (e *ThrowError) LogValue() slog.Value {
	return slog.GroupValue(slog.String("thrown", e.Error()))
}

// Throw wraps v as an error.
func Throw(v any) error { return &ThrowError{Value: v} }

// GeneratorReturn unwinds a generator body when its consumer calls return().
// try/finally blocks run while it propagates; catch clauses ignore it.
type GeneratorReturn struct {
	Value any
}

func (e *GeneratorReturn) Error() string { return "generator return" }

// IsCatchable reports whether a catch clause may handle err.
func IsCatchable(err error) bool {
	var gr *GeneratorReturn
	return !errors.As(err, &gr)
}

// ErrorPrototypes maps error constructor names to their prototypes.
var ErrorPrototypes = map[string]*Object{"Error": ErrorPrototype}

func init() {
	ErrorPrototype.DefineHidden("name", "Error")
	ErrorPrototype.DefineHidden("message", "")

	for _, kind := range []string{"TypeError", "RangeError", "ReferenceError", "SyntaxError", "EvalError", "URIError"} {
		proto := NewObject(ErrorPrototype)
		proto.DefineHidden("name", kind)
		ErrorPrototypes[kind] = proto
	}
}

// MakeError builds an error object of the named kind, e.g. "TypeError".
func MakeError(kind, msg string) *Object {
	proto, ok := ErrorPrototypes[kind]
	if !ok {
		proto = ErrorPrototype
	}
	o := NewObject(proto)
	o.class = "Error"
	o.DefineHidden("message", msg)
	if !ok {
		o.DefineHidden("name", kind)
	}
	o.DefineHidden("stack", kind+": "+msg)

	return o
}

// ErrorString renders an error object as "Name: message".
func ErrorString(o *Object) string {
	name := "Error"
	if n, ok := o.Value("name").(string); ok && n != "" {
		name = n
	}
	msg, _ := o.Value("message").(string)
	if msg == "" {
		return name
	}

	return name + ": " + msg
}

func throwKind(kind, format string, args ...any) error {
	return &ThrowError{Value: MakeError(kind, fmt.Sprintf(format, args...))}
}

// NewTypeError returns a thrown TypeError.
func NewTypeError(format string, args ...any) error { return throwKind("TypeError", format, args...) }

// NewRangeError returns a thrown RangeError.
func NewRangeError(format string, args ...any) error {
	return throwKind("RangeError", format, args...)
}

// NewReferenceError returns a thrown ReferenceError.
func NewReferenceError(format string, args ...any) error {
	return throwKind("ReferenceError", format, args...)
}

// NewSyntaxError returns a thrown SyntaxError.
func NewSyntaxError(format string, args ...any) error {
	return throwKind("SyntaxError", format, args...)
}

// ErrorValue converts a Go error into the value a catch clause binds:
// thrown values are unwrapped, anything else becomes an Error object.
func ErrorValue(err error) any {
	var te *ThrowError
	if errors.As(err, &te) {
		return te.Value
	}

	return MakeError("Error", err.Error())
}
