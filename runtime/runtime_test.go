package runtime

import (
	"errors"
	"math"
	"math/big"
	"testing"
)

func TestNumberToString(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{1, "1"},
		{-2.5, "-2.5"},
		{0.30000000000000004, "0.30000000000000004"},
		{1e21, "1e+21"},
		{1e-7, "1e-7"},
		{123456789, "123456789"},
		{math.NaN(), "NaN"},
		{math.Inf(-1), "-Infinity"},
	}
	for i, tt := range tests {
		if got := NumberToString(tt.in); got != tt.want {
			t.Errorf("test[%d]: NumberToString(%v) = %q, want %q", i, tt.in, got, tt.want)
		}
	}
}

func TestToNumber(t *testing.T) {
	tests := []struct {
		in   any
		want float64
	}{
		{"  42 ", 42},
		{"0x1F", 31},
		{"", 0},
		{true, 1},
		{nil, 0},
		{int64(7), 7},
		{NewArray([]any{5.0}), 5},
	}
	for i, tt := range tests {
		if got := ToNumber(tt.in); got != tt.want {
			t.Errorf("test[%d]: ToNumber(%v) = %v, want %v", i, tt.in, got, tt.want)
		}
	}
	if !math.IsNaN(ToNumber(Undefined)) || !math.IsNaN(ToNumber("1_0")) {
		t.Error("expected NaN")
	}
}

func TestEquality(t *testing.T) {
	obj := NewObject(ObjectPrototype)

	strict := []struct {
		a, b any
		want bool
	}{
		{1.0, 1, true},
		{"a", "a", true},
		{nil, Undefined, false},
		{obj, obj, true},
		{obj, NewObject(ObjectPrototype), false},
		{math.NaN(), math.NaN(), false},
		{big.NewInt(3), big.NewInt(3), true},
	}
	for i, tt := range strict {
		if got := StrictEquals(tt.a, tt.b); got != tt.want {
			t.Errorf("strict[%d]: got %v", i, got)
		}
	}

	loose := []struct {
		a, b any
		want bool
	}{
		{nil, Undefined, true},
		{"1", 1.0, true},
		{true, 1.0, true},
		{big.NewInt(2), 2.0, true},
		{nil, 0.0, false},
		{NewArray([]any{1.0, 2.0}), "1,2", true},
	}
	for i, tt := range loose {
		got, err := LooseEquals(tt.a, tt.b)
		if err != nil || got != tt.want {
			t.Errorf("loose[%d]: got %v, %v", i, got, err)
		}
	}
}

func TestBinaryOp(t *testing.T) {
	tests := []struct {
		op   string
		l, r any
		want any
	}{
		{"+", 1.0, 2.0, 3.0},
		{"+", "a", 1.0, "a1"},
		{"-", "5", 2.0, 3.0},
		{"**", 2.0, 10.0, 1024.0},
		{"%", -7.0, 2.0, -1.0},
		{">>>", -1.0, 28.0, 15.0},
		{"<", "a", "b", true},
		{">=", 2.0, "2", true},
		{"===", 1.0, "1", false},
	}
	for i, tt := range tests {
		got, err := BinaryOp(tt.op, tt.l, tt.r)
		if err != nil {
			t.Fatalf("test[%d]: %v", i, err)
		}
		if !StrictEquals(got, tt.want) {
			t.Errorf("test[%d]: %v %s %v = %v, want %v", i, tt.l, tt.op, tt.r, got, tt.want)
		}
	}
}

func TestBigIntArithmetic(t *testing.T) {
	got, err := BinaryOp("*", big.NewInt(1<<40), big.NewInt(1<<40))
	if err != nil {
		t.Fatal(err)
	}
	if got.(*big.Int).String() != "1208925819614629174706176" {
		t.Errorf("got %v", got)
	}

	_, err = BinaryOp("+", big.NewInt(1), 1.0)
	var te *ThrowError
	if !errors.As(err, &te) {
		t.Fatalf("expected TypeError, got %v", err)
	}
	if te.Error() != "TypeError: Cannot mix BigInt and other types, use explicit conversions" {
		t.Errorf("message: %s", te.Error())
	}
}

func TestMemberAccess(t *testing.T) {
	host := map[string]any{"n": 3, "list": []any{"x", "y"}}
	got, err := GetMember(host, "n")
	if err != nil || got != 3.0 {
		t.Errorf("map member: %v %v", got, err)
	}
	got, _ = GetMember(host["list"], "length")
	if got != 2.0 {
		t.Errorf("slice length: %v", got)
	}

	type point struct {
		X    int `json:"x"`
		Name string
	}
	p := &point{X: 4, Name: "p"}
	if got, _ := GetMember(p, "x"); got != 4.0 {
		t.Errorf("struct json field: %v", got)
	}
	if err := SetMember(p, "Name", "q"); err != nil || p.Name != "q" {
		t.Errorf("struct set: %v %q", err, p.Name)
	}

	_, err = GetMember(nil, "a")
	if err == nil || err.Error() != "TypeError: Cannot read properties of null (reading 'a')" {
		t.Errorf("null member: %v", err)
	}
}

func TestAccessorReceiver(t *testing.T) {
	proto := NewObject(ObjectPrototype)
	proto.Define("double", &Property{Getter: NewFunction("double", 0, func(this any, _ []any) (any, error) {
		v, err := GetMember(this, "n")
		return ToNumber(v) * 2, err
	})})

	o := NewObject(proto)
	o.Put("n", 21.0)
	if got, _ := GetMember(o, "double"); got != 42.0 {
		t.Errorf("getter: %v", got)
	}
}

func TestBindCachesPerReceiver(t *testing.T) {
	fn := NewFunction("who", 0, func(this any, _ []any) (any, error) { return this, nil })
	o := NewObject(ObjectPrototype)

	b1, b2 := Bind(fn, o), Bind(fn, o)
	if b1 != b2 {
		t.Error("binding should be cached per receiver")
	}
	got, _ := Call(b1, Undefined, nil)
	if got != any(o) {
		t.Error("bound receiver lost")
	}
}

func TestCallHostFunc(t *testing.T) {
	add := func(a, b int) int { return a + b }
	got, err := Call(add, Undefined, []any{2.0, 3.0})
	if err != nil || got != 5.0 {
		t.Errorf("reflect call: %v %v", got, err)
	}

	fail := func() (string, error) { return "", errors.New("boom") }
	if _, err := Call(fail, nil, nil); err == nil || err.Error() != "boom" {
		t.Errorf("error result: %v", err)
	}
}

func TestGenerator(t *testing.T) {
	finalized := false
	g := NewGenerator(func(yield Yielder) (any, error) {
		defer func() { finalized = true }()
		got, err := yield(&YieldValue{Value: 1.0})
		if err != nil {
			return nil, err
		}
		if _, err := yield(&YieldValue{Value: got}); err != nil {
			return nil, err
		}
		return "end", nil
	}, false)

	v, done, _ := g.Next("ignored")
	if v != 1.0 || done {
		t.Fatalf("first: %v %v", v, done)
	}
	v, done, _ = g.Next("sent")
	if v != "sent" || done {
		t.Fatalf("second: %v %v", v, done)
	}
	v, done, _ = g.Return("early")
	if v != "early" || !done || !finalized {
		t.Fatalf("return: %v %v finalized=%v", v, done, finalized)
	}
	if _, done, _ := g.Next(nil); !done {
		t.Error("completed generator must stay done")
	}
}

func TestGeneratorDelegation(t *testing.T) {
	inner := NewArray([]any{1.0, 2.0})
	g := NewGenerator(func(yield Yielder) (any, error) {
		return yield(&YieldDelegateValue{Value: inner})
	}, false)

	values, err := Collect(g)
	if err != nil {
		t.Fatal(err)
	}
	if len(values) != 2 || values[1] != 2.0 {
		t.Errorf("got %v", values)
	}
}

func TestPromise(t *testing.T) {
	p := NewPromise()
	derived := p.Then(NewFunction("", 1, func(_ any, args []any) (any, error) {
		return ToNumber(args[0]) + 1, nil
	}), nil)

	go p.Resolve(41.0)

	got, err := Await(derived)
	if err != nil || got != 42.0 {
		t.Errorf("await: %v %v", got, err)
	}

	_, err = Await(RejectedPromise("no"))
	var te *ThrowError
	if !errors.As(err, &te) || te.Value != "no" {
		t.Errorf("rejection: %v", err)
	}
}

func TestPrivateTable(t *testing.T) {
	table := NewPrivateTable("Counter")
	a, b := NewObject(ObjectPrototype), NewObject(ObjectPrototype)

	if err := table.Add(a, "count", DataProperty(0.0)); err != nil {
		t.Fatal(err)
	}
	if err := table.Set(a, "count", 5.0); err != nil {
		t.Fatal(err)
	}
	if got, _ := table.Get(a, "count"); got != 5.0 {
		t.Errorf("got %v", got)
	}
	if _, err := table.Get(b, "count"); err == nil {
		t.Error("foreign instance must not read private member")
	}
	if table.Has(b, "count") || !table.Has(a, "count") {
		t.Error("brand check wrong")
	}
}

func TestInspect(t *testing.T) {
	o := NewObject(ObjectPrototype)
	o.Put("a", 1.0)
	o.Put("list", NewArray([]any{"x", nil, Undefined}))
	o.Put("self", o)

	want := "{ a: 1, list: [ 'x', null, undefined ], self: [Circular] }"
	if got := Inspect(o); got != want {
		t.Errorf("Inspect = %q, want %q", got, want)
	}
	if Display("hi") != "hi" || Inspect("hi") != `"hi"` {
		t.Error("string display wrong")
	}
}

func TestStrictEqualsHostValues(t *testing.T) {
	m := map[string]any{"a": 1}
	list := []any{1, 2}
	fn := func() {}
	type wrapper struct{ v any }

	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"same map", m, m, true},
		{"equal maps", m, map[string]any{"a": 1}, false},
		{"same slice", list, list, true},
		{"subslice", list, list[:1], false},
		{"same func", fn, fn, true},
		{"struct holding a map", wrapper{m}, wrapper{m}, false},
		{"comparable structs", wrapper{1}, wrapper{1}, true},
		{"different types", m, list, false},
	}
	for _, tt := range tests {
		if got := StrictEquals(tt.a, tt.b); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}
