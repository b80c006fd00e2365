package runtime

import (
	"iter"
	"unicode/utf8"
)

// Iterator is a Go view of the iteration protocol. Close is called when a
// consumer stops before the iterator is done.
type Iterator interface {
	Next() (value any, done bool, err error)
	Close() error
}

// GetIterator returns an iterator over v. Arrays, strings, generators, host
// slices, iter.Seq[any] and objects with a Symbol.iterator method are
// iterable.
func GetIterator(v any) (Iterator, error) {
	switch v := v.(type) {
	case *Array:
		if !overridesIterator(v.Object) {
			return &arrayIterator{elems: func() []any { return v.Elements }}, nil
		}
	case []any:
		return &arrayIterator{elems: func() []any { return v }}, nil
	case string:
		return &stringIterator{s: v}, nil
	case *Generator:
		return &generatorIterator{g: v}, nil
	case iter.Seq[any]:
		next, stop := iter.Pull(v)
		return &pullIterator{next: next, stop: stop}, nil
	case func(yield func(any) bool):
		next, stop := iter.Pull(iter.Seq[any](v))
		return &pullIterator{next: next, stop: stop}, nil
	}

	if _, ok := v.(ObjectLike); !ok {
		if elems, ok := hostSlice(v); ok {
			return &arrayIterator{elems: func() []any { return elems }}, nil
		}
	}

	method, err := methodOf(v, SymbolIterator)
	if err != nil {
		return nil, err
	}
	if method == nil {
		return nil, NewTypeError("%s is not iterable", Describe(v))
	}

	return protocolIterator(v, method)
}

func overridesIterator(o *Object) bool {
	_, own := o.Own(SymbolIterator)
	return own
}

func methodOf(v any, key any) (any, error) {
	if IsNullish(v) {
		return nil, NewTypeError("%s is not iterable", ToString(v))
	}
	m, err := GetMember(v, key)
	if err != nil {
		return nil, err
	}
	if IsNullish(m) {
		return nil, nil
	}
	if !IsCallable(m) {
		return nil, NewTypeError("%s is not a function", Describe(m))
	}

	return m, nil
}

func protocolIterator(v, method any) (Iterator, error) {
	it, err := Call(method, v, nil)
	if err != nil {
		return nil, err
	}
	if g, ok := it.(*Generator); ok {
		return &generatorIterator{g: g}, nil
	}
	next, err := GetMember(it, "next")
	if err != nil {
		return nil, err
	}

	return &objectIterator{it: it, next: next}, nil
}

// GetAsyncIterator returns an iterator for for-await loops. Objects with
// Symbol.asyncIterator are used as is; sync iterables are adapted. Values
// and results are settled through await.
func GetAsyncIterator(await Awaiter, v any) (Iterator, error) {
	if _, ok := v.(ObjectLike); ok {
		method, err := methodOf(v, SymbolAsyncIterator)
		if err != nil {
			return nil, err
		}
		if method != nil {
			it, err := Call(method, v, nil)
			if err != nil {
				return nil, err
			}
			if g, ok := it.(*Generator); ok {
				return &awaitIterator{await: await, inner: &generatorIterator{g: g}}, nil
			}
			next, err := GetMember(it, "next")
			if err != nil {
				return nil, err
			}
			return &asyncObjectIterator{await: await, objectIterator: objectIterator{it: it, next: next}}, nil
		}
	}

	it, err := GetIterator(v)
	if err != nil {
		return nil, err
	}

	return &awaitIterator{await: await, inner: it}, nil
}

// Iterate calls fn for each value of v until fn returns false or an error.
// The iterator is closed on early exit.
func Iterate(v any, fn func(any) (bool, error)) error {
	it, err := GetIterator(v)
	if err != nil {
		return err
	}

	return Drain(it, fn)
}

// Drain consumes it like [Iterate].
func Drain(it Iterator, fn func(any) (bool, error)) error {
	for {
		value, done, err := it.Next()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		more, err := fn(value)
		if err != nil {
			_ = it.Close()
			return err
		}
		if !more {
			return it.Close()
		}
	}
}

// Collect returns all values of an iterable, the way spread does.
func Collect(v any) ([]any, error) {
	if a, ok := v.(*Array); ok && !overridesIterator(a.Object) {
		return append([]any(nil), a.Elements...), nil
	}

	var out []any
	err := Iterate(v, func(x any) (bool, error) {
		out = append(out, x)
		return true, nil
	})

	return out, err
}

type arrayIterator struct {
	elems func() []any
	i     int
}

func (it *arrayIterator) Next() (any, bool, error) {
	elems := it.elems()
	if it.i >= len(elems) {
		return Undefined, true, nil
	}
	v := Normalize(elems[it.i])
	it.i++

	return v, false, nil
}

func (it *arrayIterator) Close() error { return nil }

type stringIterator struct {
	s   string
	pos int
}

func (it *stringIterator) Next() (any, bool, error) {
	if it.pos >= len(it.s) {
		return Undefined, true, nil
	}
	r, size := utf8.DecodeRuneInString(it.s[it.pos:])
	it.pos += size

	return string(r), false, nil
}

func (it *stringIterator) Close() error { return nil }

type generatorIterator struct {
	g *Generator
}

func (it *generatorIterator) Next() (any, bool, error) { return it.g.Next(Undefined) }

func (it *generatorIterator) Close() error {
	_, _, err := it.g.Return(Undefined)
	return err
}

type pullIterator struct {
	next func() (any, bool)
	stop func()
}

func (it *pullIterator) Next() (any, bool, error) {
	v, ok := it.next()
	if !ok {
		return Undefined, true, nil
	}

	return Normalize(v), false, nil
}

func (it *pullIterator) Close() error {
	it.stop()
	return nil
}

type objectIterator struct {
	it   any
	next any
}

func (it *objectIterator) Next() (any, bool, error) {
	r, err := Call(it.next, it.it, nil)
	if err != nil {
		return nil, true, err
	}

	return iterResultParts(r)
}

func iterResultParts(r any) (any, bool, error) {
	if _, ok := r.(ObjectLike); !ok {
		return nil, true, NewTypeError("Iterator result %s is not an object", Describe(r))
	}
	done, err := GetMember(r, "done")
	if err != nil {
		return nil, true, err
	}
	value, err := GetMember(r, "value")
	if err != nil {
		return nil, true, err
	}

	return value, ToBoolean(done), nil
}

func (it *objectIterator) Close() error {
	ret, err := GetMember(it.it, "return")
	if err != nil || !IsCallable(ret) {
		return err
	}
	_, err = Call(ret, it.it, nil)

	return err
}

// awaitIterator awaits each value produced by a sync iterator.
type awaitIterator struct {
	await Awaiter
	inner Iterator
}

func (it *awaitIterator) Next() (any, bool, error) {
	value, done, err := it.inner.Next()
	if err != nil {
		return nil, true, err
	}
	if done {
		return value, true, nil
	}
	value, err = it.await(value)

	return value, false, err
}

func (it *awaitIterator) Close() error { return it.inner.Close() }

// asyncObjectIterator drives an object whose next method returns promises
// of iterator results.
type asyncObjectIterator struct {
	objectIterator
	await Awaiter
}

func (it *asyncObjectIterator) Next() (any, bool, error) {
	r, err := Call(it.next, it.it, nil)
	if err != nil {
		return nil, true, err
	}
	r, err = it.await(r)
	if err != nil {
		return nil, true, err
	}

	return iterResultParts(r)
}
