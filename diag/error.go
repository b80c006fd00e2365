// Package diag holds the error types shared by every stage of the engine:
// a structured [Error] that carries slog attributes, and [SourceError] for
// failures tied to a position in source text.
package diag

import (
	"errors"
	"log/slog"
	"strings"
)

// Error kinds. Every error produced by the engine wraps exactly one of these,
// so callers can classify failures with [errors.Is].
var (
	ErrLex        = NewError("lex error")
	ErrParse      = NewError("parse error")
	ErrEvaluation = NewError("evaluation error")
	ErrRegistry   = NewError("registry error")
)

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	msg   string
	err   error
	attrs []slog.Attr
	base  *Error
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// WrapError wraps a standard error into an Error.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is e or any sentinel e was derived from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	for p := e; p != nil; p = p.base {
		if p == t {
			return true
		}
	}

	return false
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Attrs returns the attributes attached with [Error.With].
func (e *Error) Attrs() []slog.Attr { return e.attrs }

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		msg:   e.msg,
		err:   err,
		attrs: e.attrs,
		base:  e.origin(),
	}
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{
		msg:   e.msg,
		err:   e.err,
		attrs: newAttrs,
		base:  e.origin(),
	}
}

// Detail returns a copy of e whose message is extended with detail.
func (e *Error) Detail(detail string) *Error {
	msg := detail
	if e.msg != "" {
		msg = e.msg + ": " + detail
	}

	return &Error{
		msg:   msg,
		err:   e.err,
		attrs: e.attrs,
		base:  e.origin(),
	}
}

// origin is the sentinel copies of e are derived from. Copies made by With
// and Wrap share e's base so they stay equal to the same sentinels.
func (e *Error) origin() *Error {
	if e.base != nil && e.msg == e.base.msg {
		return e.base
	}

	return e
}
