package builtins

import (
	"slices"
	"strings"

	"github.com/example/expressions/runtime"
)

func createArrayConstructor() *runtime.Function {
	proto := runtime.ArrayPrototype
	proto.SetClass("Array")

	method(proto, "at", 1, arrayAt)
	method(proto, "concat", 1, arrayConcat)
	method(proto, "copyWithin", 2, arrayCopyWithin)
	method(proto, "entries", 0, arrayEntries)
	method(proto, "every", 1, arrayEvery)
	method(proto, "fill", 1, arrayFill)
	method(proto, "filter", 1, arrayFilter)
	method(proto, "find", 1, arrayFind)
	method(proto, "findIndex", 1, arrayFindIndex)
	method(proto, "findLast", 1, arrayFindLast)
	method(proto, "findLastIndex", 1, arrayFindLastIndex)
	method(proto, "flat", 0, arrayFlat)
	method(proto, "flatMap", 1, arrayFlatMap)
	method(proto, "forEach", 1, arrayForEach)
	method(proto, "includes", 1, arrayIncludes)
	method(proto, "indexOf", 1, arrayIndexOf)
	method(proto, "join", 1, arrayJoin)
	method(proto, "keys", 0, arrayKeys)
	method(proto, "lastIndexOf", 1, arrayLastIndexOf)
	method(proto, "map", 1, arrayMap)
	method(proto, "pop", 0, arrayPop)
	method(proto, "push", 1, arrayPush)
	method(proto, "reduce", 1, arrayReduce)
	method(proto, "reduceRight", 1, arrayReduceRight)
	method(proto, "reverse", 0, arrayReverse)
	method(proto, "shift", 0, arrayShift)
	method(proto, "slice", 2, arraySlice)
	method(proto, "some", 1, arraySome)
	method(proto, "sort", 1, arraySort)
	method(proto, "splice", 2, arraySplice)
	method(proto, "toReversed", 0, arrayToReversed)
	method(proto, "toSorted", 1, arrayToSorted)
	method(proto, "toSpliced", 2, arrayToSpliced)
	method(proto, "toString", 0, arrayToString)
	method(proto, "unshift", 1, arrayUnshift)
	values := method(proto, "values", 0, arrayValues)
	method(proto, "with", 2, arrayWith)
	proto.DefineHidden(runtime.SymbolIterator, values)

	var ctor *runtime.Function
	ctor = constructor("Array", 1, proto, arrayConstructorCall,
		func(args []any, newTarget *runtime.Function) (any, error) {
			v, err := arrayConstructorCall(runtime.Undefined, args)
			if err != nil {
				return nil, err
			}
			if newTarget != nil && newTarget != ctor {
				if p := newTarget.Prototype(); p != nil {
					v.(*runtime.Array).SetProto(p)
				}
			}
			return v, nil
		})

	method(ctor.Object, "isArray", 1, arrayIsArray)
	method(ctor.Object, "from", 1, arrayFrom)
	method(ctor.Object, "of", 0, arrayOf)

	return ctor
}

func arrayConstructorCall(_ any, args []any) (any, error) {
	if len(args) == 1 && runtime.IsNumber(args[0]) {
		n := runtime.ToNumber(args[0])
		if n < 0 || n != float64(uint32(n)) {
			return nil, runtime.NewRangeError("Invalid array length")
		}
		arr := runtime.NewArray(nil)
		arr.SetLen(int(n))
		return arr, nil
	}

	return runtime.NewArray(slices.Clone(args)), nil
}

func arrayIsArray(_ any, args []any) (any, error) {
	switch arg(args, 0).(type) {
	case *runtime.Array, []any:
		return true, nil
	}

	return false, nil
}

func arrayFrom(_ any, args []any) (any, error) {
	src := arg(args, 0)
	if runtime.IsNullish(src) {
		return nil, runtime.NewTypeError("%s is not iterable", runtime.ToString(src))
	}
	mapFn := arg(args, 1)
	if !runtime.IsUndefined(mapFn) && !runtime.IsCallable(mapFn) {
		return nil, runtime.NewTypeError("%s is not a function", runtime.Describe(mapFn))
	}

	var elems []any
	var err error
	if iterable, _ := isIterable(src); iterable {
		elems, err = runtime.Collect(src)
	} else {
		elems, err = listFromArrayLike(src)
	}
	if err != nil {
		return nil, err
	}

	if runtime.IsCallable(mapFn) {
		for i, e := range elems {
			v, err := runtime.Call(mapFn, arg(args, 2), []any{e, float64(i)})
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
	}

	return runtime.NewArray(elems), nil
}

func isIterable(v any) (bool, error) {
	switch v.(type) {
	case string, *runtime.Array, []any, *runtime.Generator:
		return true, nil
	}
	if objectOf(v) == nil {
		return false, nil
	}
	m, err := runtime.GetMember(v, runtime.SymbolIterator)

	return runtime.IsCallable(m), err
}

func arrayOf(_ any, args []any) (any, error) {
	return runtime.NewArray(slices.Clone(args)), nil
}

// thisArray returns the array a prototype method operates on. Array-likes
// are copied into a fresh array.
func thisArray(this any, name string) (*runtime.Array, error) {
	if a, ok := this.(*runtime.Array); ok {
		return a, nil
	}
	if runtime.IsNullish(this) {
		return nil, runtime.NewTypeError("Array.prototype.%s called on null or undefined", name)
	}
	if s, ok := this.(string); ok {
		elems := make([]any, 0, len(s))
		for _, r := range s {
			elems = append(elems, string(r))
		}
		return runtime.NewArray(elems), nil
	}
	if elems, ok := runtime.ArrayOf(this); ok {
		return runtime.NewArray(elems), nil
	}
	if objectOf(this) == nil {
		return runtime.NewArray(nil), nil
	}
	elems, err := listFromArrayLike(this)
	if err != nil {
		return nil, err
	}

	return runtime.NewArray(elems), nil
}

// callback validates the callback argument of iteration methods.
func callback(args []any, name string) (any, error) {
	fn := arg(args, 0)
	if !runtime.IsCallable(fn) {
		return nil, runtime.NewTypeError("Array.prototype.%s: %s is not a function", name, runtime.Describe(fn))
	}

	return fn, nil
}

// visit calls fn(element, index, array) for each index in order, reading
// the live element list so callbacks may mutate the array. It stops when
// fn's result, converted to boolean, equals stopOn.
func visit(a *runtime.Array, fn, thisArg any, reverse bool, stopOn *bool) (int, any, error) {
	n := a.Len()
	for step := range n {
		i := step
		if reverse {
			i = n - 1 - step
		}
		if i >= a.Len() {
			continue
		}
		v := a.At(i)
		r, err := runtime.Call(fn, thisArg, []any{v, float64(i), a})
		if err != nil {
			return -1, nil, err
		}
		if stopOn != nil && runtime.ToBoolean(r) == *stopOn {
			return i, v, nil
		}
	}

	return -1, runtime.Undefined, nil
}

var (
	stopTrue  = true
	stopFalse = false
)

func arrayAt(this any, args []any) (any, error) {
	a, err := thisArray(this, "at")
	if err != nil {
		return nil, err
	}
	i := int(runtime.ToIntegerOrInfinity(arg(args, 0)))
	if i < 0 {
		i += a.Len()
	}

	return a.At(i), nil
}

func arrayConcat(this any, args []any) (any, error) {
	a, err := thisArray(this, "concat")
	if err != nil {
		return nil, err
	}

	out := slices.Clone(a.Elements)
	for _, v := range args {
		if elems, ok := runtime.ArrayOf(v); ok {
			out = append(out, elems...)
			continue
		}
		out = append(out, v)
	}

	return runtime.NewArray(out), nil
}

func arrayCopyWithin(this any, args []any) (any, error) {
	a, err := thisArray(this, "copyWithin")
	if err != nil {
		return nil, err
	}
	n := a.Len()
	target := relativeIndex(arg(args, 0), n, 0)
	start := relativeIndex(arg(args, 1), n, 0)
	end := relativeIndex(arg(args, 2), n, n)
	if start < end && !a.IsFrozen() {
		src := slices.Clone(a.Elements[start:end])
		copy(a.Elements[target:], src)
	}

	return a, nil
}

func arrayEvery(this any, args []any) (any, error) {
	a, err := thisArray(this, "every")
	if err != nil {
		return nil, err
	}
	fn, err := callback(args, "every")
	if err != nil {
		return nil, err
	}
	i, _, err := visit(a, fn, arg(args, 1), false, &stopFalse)
	if err != nil {
		return nil, err
	}

	return i < 0, nil
}

func arraySome(this any, args []any) (any, error) {
	a, err := thisArray(this, "some")
	if err != nil {
		return nil, err
	}
	fn, err := callback(args, "some")
	if err != nil {
		return nil, err
	}
	i, _, err := visit(a, fn, arg(args, 1), false, &stopTrue)
	if err != nil {
		return nil, err
	}

	return i >= 0, nil
}

func arrayFill(this any, args []any) (any, error) {
	a, err := thisArray(this, "fill")
	if err != nil {
		return nil, err
	}
	if a.IsFrozen() {
		return nil, runtime.NewTypeError("Cannot modify frozen array")
	}
	n := a.Len()
	start := relativeIndex(arg(args, 1), n, 0)
	end := relativeIndex(arg(args, 2), n, n)
	for i := start; i < end; i++ {
		a.Elements[i] = arg(args, 0)
	}

	return a, nil
}

func arrayFilter(this any, args []any) (any, error) {
	a, err := thisArray(this, "filter")
	if err != nil {
		return nil, err
	}
	fn, err := callback(args, "filter")
	if err != nil {
		return nil, err
	}

	var out []any
	for i := 0; i < a.Len(); i++ {
		v := a.At(i)
		r, err := runtime.Call(fn, arg(args, 1), []any{v, float64(i), a})
		if err != nil {
			return nil, err
		}
		if runtime.ToBoolean(r) {
			out = append(out, v)
		}
	}

	return runtime.NewArray(out), nil
}

func arrayFind(this any, args []any) (any, error) {
	return find(this, args, "find", false, false)
}

func arrayFindIndex(this any, args []any) (any, error) {
	return find(this, args, "findIndex", false, true)
}

func arrayFindLast(this any, args []any) (any, error) {
	return find(this, args, "findLast", true, false)
}

func arrayFindLastIndex(this any, args []any) (any, error) {
	return find(this, args, "findLastIndex", true, true)
}

func find(this any, args []any, name string, reverse, index bool) (any, error) {
	a, err := thisArray(this, name)
	if err != nil {
		return nil, err
	}
	fn, err := callback(args, name)
	if err != nil {
		return nil, err
	}
	i, v, err := visit(a, fn, arg(args, 1), reverse, &stopTrue)
	if err != nil {
		return nil, err
	}
	if index {
		return float64(i), nil
	}

	return v, nil
}

func arrayFlat(this any, args []any) (any, error) {
	a, err := thisArray(this, "flat")
	if err != nil {
		return nil, err
	}
	depth := 1.0
	if d := arg(args, 0); !runtime.IsUndefined(d) {
		depth = runtime.ToIntegerOrInfinity(d)
	}

	return runtime.NewArray(flatten(nil, a.Elements, depth)), nil
}

func flatten(out, elems []any, depth float64) []any {
	for _, e := range elems {
		if inner, ok := runtime.ArrayOf(e); ok && depth >= 1 {
			out = flatten(out, inner, depth-1)
			continue
		}
		out = append(out, e)
	}

	return out
}

func arrayFlatMap(this any, args []any) (any, error) {
	mapped, err := arrayMap(this, args)
	if err != nil {
		return nil, err
	}

	return runtime.NewArray(flatten(nil, mapped.(*runtime.Array).Elements, 1)), nil
}

func arrayForEach(this any, args []any) (any, error) {
	a, err := thisArray(this, "forEach")
	if err != nil {
		return nil, err
	}
	fn, err := callback(args, "forEach")
	if err != nil {
		return nil, err
	}
	if _, _, err := visit(a, fn, arg(args, 1), false, nil); err != nil {
		return nil, err
	}

	return runtime.Undefined, nil
}

func arrayIncludes(this any, args []any) (any, error) {
	a, err := thisArray(this, "includes")
	if err != nil {
		return nil, err
	}
	for i := relativeIndex(arg(args, 1), a.Len(), 0); i < a.Len(); i++ {
		if runtime.SameValueZero(a.At(i), arg(args, 0)) {
			return true, nil
		}
	}

	return false, nil
}

func arrayIndexOf(this any, args []any) (any, error) {
	a, err := thisArray(this, "indexOf")
	if err != nil {
		return nil, err
	}
	for i := relativeIndex(arg(args, 1), a.Len(), 0); i < a.Len(); i++ {
		if runtime.StrictEquals(a.At(i), arg(args, 0)) {
			return float64(i), nil
		}
	}

	return -1.0, nil
}

func arrayLastIndexOf(this any, args []any) (any, error) {
	a, err := thisArray(this, "lastIndexOf")
	if err != nil {
		return nil, err
	}
	from := a.Len() - 1
	if len(args) > 1 {
		from = int(runtime.ToIntegerOrInfinity(args[1]))
		if from < 0 {
			from += a.Len()
		}
		from = min(from, a.Len()-1)
	}
	for i := from; i >= 0; i-- {
		if runtime.StrictEquals(a.At(i), arg(args, 0)) {
			return float64(i), nil
		}
	}

	return -1.0, nil
}

func arrayJoin(this any, args []any) (any, error) {
	a, err := thisArray(this, "join")
	if err != nil {
		return nil, err
	}
	sep := ","
	if s := arg(args, 0); !runtime.IsUndefined(s) {
		sep = runtime.ToString(s)
	}

	parts := make([]string, a.Len())
	for i, e := range a.Elements {
		if !runtime.IsNullish(e) {
			parts[i] = runtime.ToString(e)
		}
	}

	return strings.Join(parts, sep), nil
}

func arrayToString(this any, _ []any) (any, error) {
	return arrayJoin(this, nil)
}

func arrayMap(this any, args []any) (any, error) {
	a, err := thisArray(this, "map")
	if err != nil {
		return nil, err
	}
	fn, err := callback(args, "map")
	if err != nil {
		return nil, err
	}

	n := a.Len()
	out := make([]any, n)
	for i := range n {
		r, err := runtime.Call(fn, arg(args, 1), []any{a.At(i), float64(i), a})
		if err != nil {
			return nil, err
		}
		out[i] = r
	}

	return runtime.NewArray(out), nil
}

func mutable(a *runtime.Array, name string) error {
	if a.IsFrozen() {
		return runtime.NewTypeError("Cannot %s on a frozen array", name)
	}

	return nil
}

func arrayPop(this any, _ []any) (any, error) {
	a, err := thisArray(this, "pop")
	if err != nil {
		return nil, err
	}
	if err := mutable(a, "pop"); err != nil {
		return nil, err
	}
	n := a.Len()
	if n == 0 {
		return runtime.Undefined, nil
	}
	v := a.Elements[n-1]
	a.Elements = a.Elements[:n-1]

	return v, nil
}

func arrayPush(this any, args []any) (any, error) {
	a, err := thisArray(this, "push")
	if err != nil {
		return nil, err
	}
	if err := mutable(a, "push"); err != nil {
		return nil, err
	}
	a.Elements = append(a.Elements, args...)

	return float64(a.Len()), nil
}

func arrayShift(this any, _ []any) (any, error) {
	a, err := thisArray(this, "shift")
	if err != nil {
		return nil, err
	}
	if err := mutable(a, "shift"); err != nil {
		return nil, err
	}
	if a.Len() == 0 {
		return runtime.Undefined, nil
	}
	v := a.Elements[0]
	a.Elements = slices.Delete(a.Elements, 0, 1)

	return v, nil
}

func arrayUnshift(this any, args []any) (any, error) {
	a, err := thisArray(this, "unshift")
	if err != nil {
		return nil, err
	}
	if err := mutable(a, "unshift"); err != nil {
		return nil, err
	}
	a.Elements = slices.Insert(a.Elements, 0, args...)

	return float64(a.Len()), nil
}

func arrayReduce(this any, args []any) (any, error) {
	return reduce(this, args, "reduce", false)
}

func arrayReduceRight(this any, args []any) (any, error) {
	return reduce(this, args, "reduceRight", true)
}

func reduce(this any, args []any, name string, reverse bool) (any, error) {
	a, err := thisArray(this, name)
	if err != nil {
		return nil, err
	}
	fn, err := callback(args, name)
	if err != nil {
		return nil, err
	}

	n := a.Len()
	indices := make([]int, n)
	for i := range n {
		indices[i] = i
		if reverse {
			indices[i] = n - 1 - i
		}
	}

	var acc any
	if len(args) > 1 {
		acc = args[1]
	} else {
		if n == 0 {
			return nil, runtime.NewTypeError("Reduce of empty array with no initial value")
		}
		acc = a.At(indices[0])
		indices = indices[1:]
	}

	for _, i := range indices {
		acc, err = runtime.Call(fn, runtime.Undefined, []any{acc, a.At(i), float64(i), a})
		if err != nil {
			return nil, err
		}
	}

	return acc, nil
}

func arrayReverse(this any, _ []any) (any, error) {
	a, err := thisArray(this, "reverse")
	if err != nil {
		return nil, err
	}
	if err := mutable(a, "reverse"); err != nil {
		return nil, err
	}
	slices.Reverse(a.Elements)

	return a, nil
}

func arrayToReversed(this any, _ []any) (any, error) {
	a, err := thisArray(this, "toReversed")
	if err != nil {
		return nil, err
	}
	out := a.Clone()
	slices.Reverse(out.Elements)

	return out, nil
}

func arraySlice(this any, args []any) (any, error) {
	a, err := thisArray(this, "slice")
	if err != nil {
		return nil, err
	}
	n := a.Len()
	start := relativeIndex(arg(args, 0), n, 0)
	end := relativeIndex(arg(args, 1), n, n)
	if start >= end {
		return runtime.NewArray(nil), nil
	}

	return runtime.NewArray(slices.Clone(a.Elements[start:end])), nil
}

// compareElements is the default sort order: undefined last, everything
// else by string value.
func compareElements(fn any) func(x, y any) (int, error) {
	return func(x, y any) (int, error) {
		xu, yu := runtime.IsUndefined(x), runtime.IsUndefined(y)
		switch {
		case xu && yu:
			return 0, nil
		case xu:
			return 1, nil
		case yu:
			return -1, nil
		}
		if fn == nil {
			return strings.Compare(runtime.ToString(x), runtime.ToString(y)), nil
		}
		r, err := runtime.Call(fn, runtime.Undefined, []any{x, y})
		if err != nil {
			return 0, err
		}
		f := runtime.ToNumber(r)
		switch {
		case f < 0:
			return -1, nil
		case f > 0:
			return 1, nil
		}
		return 0, nil
	}
}

func sortElements(elems []any, args []any) error {
	var fn any
	if c := arg(args, 0); !runtime.IsUndefined(c) {
		if !runtime.IsCallable(c) {
			return runtime.NewTypeError("The comparison function must be either a function or undefined")
		}
		fn = c
	}

	cmp := compareElements(fn)
	var sortErr error
	slices.SortStableFunc(elems, func(x, y any) int {
		if sortErr != nil {
			return 0
		}
		c, err := cmp(x, y)
		if err != nil {
			sortErr = err
		}
		return c
	})

	return sortErr
}

func arraySort(this any, args []any) (any, error) {
	a, err := thisArray(this, "sort")
	if err != nil {
		return nil, err
	}
	if err := mutable(a, "sort"); err != nil {
		return nil, err
	}
	if err := sortElements(a.Elements, args); err != nil {
		return nil, err
	}

	return a, nil
}

func arrayToSorted(this any, args []any) (any, error) {
	a, err := thisArray(this, "toSorted")
	if err != nil {
		return nil, err
	}
	out := a.Clone()
	if err := sortElements(out.Elements, args); err != nil {
		return nil, err
	}

	return out, nil
}

// spliceBounds resolves the start and delete count of splice.
func spliceBounds(n int, args []any) (start, count int) {
	start = relativeIndex(arg(args, 0), n, 0)
	switch {
	case len(args) == 0:
		count = 0
	case len(args) == 1:
		count = n - start
	default:
		count = int(min(max(runtime.ToIntegerOrInfinity(args[1]), 0), float64(n-start)))
	}

	return start, count
}

func arraySplice(this any, args []any) (any, error) {
	a, err := thisArray(this, "splice")
	if err != nil {
		return nil, err
	}
	if err := mutable(a, "splice"); err != nil {
		return nil, err
	}

	start, count := spliceBounds(a.Len(), args)
	removed := slices.Clone(a.Elements[start : start+count])
	var items []any
	if len(args) > 2 {
		items = args[2:]
	}
	a.Elements = slices.Replace(a.Elements, start, start+count, items...)

	return runtime.NewArray(removed), nil
}

func arrayToSpliced(this any, args []any) (any, error) {
	a, err := thisArray(this, "toSpliced")
	if err != nil {
		return nil, err
	}

	start, count := spliceBounds(a.Len(), args)
	var items []any
	if len(args) > 2 {
		items = args[2:]
	}
	out := slices.Clone(a.Elements)

	return runtime.NewArray(slices.Replace(out, start, start+count, items...)), nil
}

func arrayWith(this any, args []any) (any, error) {
	a, err := thisArray(this, "with")
	if err != nil {
		return nil, err
	}
	i := int(runtime.ToIntegerOrInfinity(arg(args, 0)))
	if i < 0 {
		i += a.Len()
	}
	if i < 0 || i >= a.Len() {
		return nil, runtime.NewRangeError("Invalid index : %s", runtime.ToString(arg(args, 0)))
	}
	out := a.Clone()
	out.Elements[i] = arg(args, 1)

	return out, nil
}

// listIterator returns an iterator object producing at(i) until it
// reports false.
func listIterator(at func(i int) (any, bool)) *runtime.Generator {
	return runtime.NewGenerator(func(yield runtime.Yielder) (any, error) {
		for i := 0; ; i++ {
			v, ok := at(i)
			if !ok {
				return runtime.Undefined, nil
			}
			if _, err := yield(&runtime.YieldValue{Value: v}); err != nil {
				return nil, err
			}
		}
	}, false)
}

func arrayKeys(this any, _ []any) (any, error) {
	a, err := thisArray(this, "keys")
	if err != nil {
		return nil, err
	}

	return listIterator(func(i int) (any, bool) {
		return float64(i), i < a.Len()
	}), nil
}

func arrayValues(this any, _ []any) (any, error) {
	a, err := thisArray(this, "values")
	if err != nil {
		return nil, err
	}

	return listIterator(func(i int) (any, bool) {
		return a.At(i), i < a.Len()
	}), nil
}

func arrayEntries(this any, _ []any) (any, error) {
	a, err := thisArray(this, "entries")
	if err != nil {
		return nil, err
	}

	return listIterator(func(i int) (any, bool) {
		if i >= a.Len() {
			return nil, false
		}
		return runtime.NewArray([]any{float64(i), a.At(i)}), true
	}), nil
}
