package builtins

import (
	"slices"
	"testing"

	"github.com/example/expressions/runtime"
)

func makeTestArray(vals ...any) *runtime.Array {
	return runtime.NewArray(slices.Clone(vals))
}

func nativeFn(fn func(args []any) any) *runtime.Function {
	return runtime.NewFunction("", 0, func(_ any, args []any) (any, error) {
		return fn(args), nil
	})
}

func elementsOf(t *testing.T, v any) []any {
	t.Helper()

	arr, ok := v.(*runtime.Array)
	if !ok {
		t.Fatalf("expected array, got %T", v)
	}

	return arr.Elements
}

func TestArrayPushPop(t *testing.T) {
	arr := makeTestArray(1.0, 2.0, 3.0)

	length, _ := arrayPush(arr, []any{4.0})
	if length != 4.0 {
		t.Errorf("push: expected length 4, got %v", length)
	}

	popped, _ := arrayPop(arr, nil)
	if popped != 4.0 {
		t.Errorf("pop: expected 4, got %v", popped)
	}

	empty := makeTestArray()
	if v, _ := arrayPop(empty, nil); !runtime.IsUndefined(v) {
		t.Errorf("pop on empty: expected undefined, got %v", v)
	}
}

func TestArrayShiftUnshift(t *testing.T) {
	arr := makeTestArray(1.0, 2.0, 3.0)

	shifted, _ := arrayShift(arr, nil)
	if shifted != 1.0 {
		t.Errorf("shift: expected 1, got %v", shifted)
	}

	length, _ := arrayUnshift(arr, []any{-1.0, 0.0})
	if length != 4.0 {
		t.Errorf("unshift: expected length 4, got %v", length)
	}
	if !slices.Equal(arr.Elements, []any{-1.0, 0.0, 2.0, 3.0}) {
		t.Errorf("unshift: got %v", arr.Elements)
	}
}

func TestArraySlice(t *testing.T) {
	arr := makeTestArray(1.0, 2.0, 3.0, 4.0, 5.0)

	tests := []struct {
		name string
		args []any
		want []any
	}{
		{"range", []any{1.0, 3.0}, []any{2.0, 3.0}},
		{"negative", []any{-2.0}, []any{4.0, 5.0}},
		{"all", nil, []any{1.0, 2.0, 3.0, 4.0, 5.0}},
		{"empty", []any{3.0, 1.0}, []any{}},
		{"clamped", []any{-10.0, 10.0}, []any{1.0, 2.0, 3.0, 4.0, 5.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := arraySlice(arr, tt.args)
			if err != nil {
				t.Fatal(err)
			}
			if got := elementsOf(t, v); !slices.Equal(got, tt.want) {
				t.Errorf("slice%v: got %v, want %v", tt.args, got, tt.want)
			}
		})
	}
}

func TestArraySplice(t *testing.T) {
	arr := makeTestArray(1.0, 2.0, 3.0, 4.0)

	removed, err := arraySplice(arr, []any{1.0, 2.0, "a", "b", "c"})
	if err != nil {
		t.Fatal(err)
	}
	if got := elementsOf(t, removed); !slices.Equal(got, []any{2.0, 3.0}) {
		t.Errorf("removed: got %v", got)
	}
	if !slices.Equal(arr.Elements, []any{1.0, "a", "b", "c", 4.0}) {
		t.Errorf("splice: got %v", arr.Elements)
	}

	spliced, _ := arrayToSpliced(arr, []any{0.0, 4.0})
	if got := elementsOf(t, spliced); !slices.Equal(got, []any{4.0}) {
		t.Errorf("toSpliced: got %v", got)
	}
	if arr.Len() != 5 {
		t.Errorf("toSpliced modified the receiver: %v", arr.Elements)
	}
}

func TestArrayIndexOf(t *testing.T) {
	nan := runtime.NaN()
	arr := makeTestArray(1.0, "1", nan, 1.0)

	if v, _ := arrayIndexOf(arr, []any{1.0}); v != 0.0 {
		t.Errorf("indexOf(1): got %v", v)
	}
	if v, _ := arrayLastIndexOf(arr, []any{1.0}); v != 3.0 {
		t.Errorf("lastIndexOf(1): got %v", v)
	}
	if v, _ := arrayIndexOf(arr, []any{nan}); v != -1.0 {
		t.Errorf("indexOf(NaN): got %v", v)
	}
	if v, _ := arrayIncludes(arr, []any{nan}); v != true {
		t.Errorf("includes(NaN): got %v", v)
	}
	if v, _ := arrayIncludes(arr, []any{"1", 2.0}); v != false {
		t.Errorf("includes from 2: got %v", v)
	}
}

func TestArrayHigherOrder(t *testing.T) {
	arr := makeTestArray(1.0, 2.0, 3.0, 4.0)
	double := nativeFn(func(args []any) any { return args[0].(float64) * 2 })
	even := nativeFn(func(args []any) any { return int(args[0].(float64))%2 == 0 })
	sum := nativeFn(func(args []any) any { return args[0].(float64) + args[1].(float64) })

	mapped, _ := arrayMap(arr, []any{double})
	if got := elementsOf(t, mapped); !slices.Equal(got, []any{2.0, 4.0, 6.0, 8.0}) {
		t.Errorf("map: got %v", got)
	}

	filtered, _ := arrayFilter(arr, []any{even})
	if got := elementsOf(t, filtered); !slices.Equal(got, []any{2.0, 4.0}) {
		t.Errorf("filter: got %v", got)
	}

	if v, _ := arrayReduce(arr, []any{sum}); v != 10.0 {
		t.Errorf("reduce: got %v", v)
	}
	if v, _ := arrayReduce(arr, []any{sum, 5.0}); v != 15.0 {
		t.Errorf("reduce with initial value: got %v", v)
	}
	if _, err := arrayReduce(makeTestArray(), []any{sum}); err == nil {
		t.Error("reduce of empty array without initial value should fail")
	}

	if v, _ := arrayFind(arr, []any{even}); v != 2.0 {
		t.Errorf("find: got %v", v)
	}
	if v, _ := arrayFindLastIndex(arr, []any{even}); v != 3.0 {
		t.Errorf("findLastIndex: got %v", v)
	}
	if v, _ := arrayEvery(arr, []any{even}); v != false {
		t.Errorf("every: got %v", v)
	}
	if v, _ := arraySome(arr, []any{even}); v != true {
		t.Errorf("some: got %v", v)
	}

	if _, err := arrayMap(arr, []any{1.0}); err == nil {
		t.Error("map with a non-callable should fail")
	}
}

func TestArraySort(t *testing.T) {
	arr := makeTestArray(10.0, 9.0, 1.0, runtime.Undefined, 2.0)
	if _, err := arraySort(arr, nil); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(arr.Elements, []any{1.0, 10.0, 2.0, 9.0, runtime.Undefined}) {
		t.Errorf("default sort: got %v", arr.Elements)
	}

	numeric := nativeFn(func(args []any) any { return args[0].(float64) - args[1].(float64) })
	sorted, _ := arrayToSorted(makeTestArray(10.0, 9.0, 1.0), []any{numeric})
	if got := elementsOf(t, sorted); !slices.Equal(got, []any{1.0, 9.0, 10.0}) {
		t.Errorf("numeric sort: got %v", got)
	}
}

func TestArrayJoinFlat(t *testing.T) {
	arr := makeTestArray(1.0, nil, "a", makeTestArray(2.0, makeTestArray(3.0)))

	if v, _ := arrayJoin(arr, []any{"-"}); v != "1--a-2,3" {
		t.Errorf("join: got %v", v)
	}

	flat, _ := arrayFlat(arr, nil)
	if got := elementsOf(t, flat); len(got) != 5 {
		t.Errorf("flat: got %v", got)
	}
	deep, _ := arrayFlat(arr, []any{runtime.ToNumber("Infinity")})
	if got := elementsOf(t, deep); !slices.Equal(got[3:], []any{2.0, 3.0}) {
		t.Errorf("flat(Infinity): got %v", got)
	}
}

func TestArrayIterators(t *testing.T) {
	arr := makeTestArray("a", "b")

	entries, _ := arrayEntries(arr, nil)
	all, err := runtime.Collect(entries)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || runtime.Inspect(all[1]) != "[ 1, 'b' ]" {
		t.Errorf("entries: got %v", runtime.Inspect(all))
	}

	keys, _ := arrayKeys(arr, nil)
	ks, _ := runtime.Collect(keys)
	if !slices.Equal(ks, []any{0.0, 1.0}) {
		t.Errorf("keys: got %v", ks)
	}
}

func TestArrayFrom(t *testing.T) {
	v, err := arrayFrom(nil, []any{"héllo"})
	if err != nil {
		t.Fatal(err)
	}
	if got := elementsOf(t, v); len(got) != 5 || got[1] != "é" {
		t.Errorf("from string: got %v", got)
	}

	like := runtime.NewPlainObject([]string{"length", "0"}, map[string]any{"length": 2.0, "0": "x"})
	v, err = arrayFrom(nil, []any{like})
	if err != nil {
		t.Fatal(err)
	}
	if got := elementsOf(t, v); !slices.Equal(got, []any{"x", runtime.Undefined}) {
		t.Errorf("from array-like: got %v", got)
	}

	if _, err := arrayConstructorCall(nil, []any{-1.0}); err == nil {
		t.Error("Array(-1) should be a RangeError")
	}
	v, _ = arrayConstructorCall(nil, []any{3.0})
	if got := elementsOf(t, v); len(got) != 3 {
		t.Errorf("Array(3): got %v", got)
	}
}

func TestArrayFrozen(t *testing.T) {
	arr := makeTestArray(1.0)
	arr.Freeze()

	if _, err := arrayPush(arr, []any{2.0}); err == nil {
		t.Error("push on a frozen array should fail")
	}
}
