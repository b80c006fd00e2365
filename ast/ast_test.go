package ast_test

import (
	"encoding/json"
	"errors"
	"slices"
	"testing"

	"github.com/example/expressions/ast"
	"github.com/example/expressions/diag"
	"github.com/example/expressions/parser"
	"github.com/example/expressions/runtime"
	"github.com/example/expressions/scope"
)

func mustExpression(t *testing.T, src string) ast.Node {
	t.Helper()

	n, err := parser.ParseExpression(src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}

	return n
}

func firstStatement(t *testing.T, src string) ast.Node {
	t.Helper()

	n, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	if prog, ok := n.(*ast.Program); ok {
		return prog.Body[0]
	}

	return n
}

func TestEntriesAndEvents(t *testing.T) {
	tests := []struct {
		src     string
		entries []string
		events  []string
	}{
		{"a + b * 2", []string{"a", "b"}, []string{"a", "b"}},
		{"user.name + user.age", []string{"user"}, []string{"user", "user.name", "user.age"}},
		{"list[0].title", []string{"list"}, []string{"list", "list[0]", "list[0].title"}},
		{"obj[key]", []string{"obj", "key"}, []string{"obj", "obj[key]", "key"}},
		{"items.map(x => x * factor)", []string{"items"}, []string{"items", "items.map"}},
		{"a ? b : c", []string{"a", "b", "c"}, []string{"a", "b", "c"}},
		{"this.count + 1", nil, []string{"this", "this.count"}},
		{"`${first} ${last}`", []string{"first", "last"}, []string{"first", "last"}},
		{"42", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			n := mustExpression(t, tt.src)
			if got := ast.Entries(n); !slices.Equal(got, tt.entries) {
				t.Errorf("entries: got %v, want %v", got, tt.entries)
			}
			if got := ast.Events(n); !slices.Equal(got, tt.events) {
				t.Errorf("events: got %v, want %v", got, tt.events)
			}
		})
	}
}

func TestDependenciesReportOutermostMember(t *testing.T) {
	deps := ast.Dependencies(mustExpression(t, "a.b.c + d"))
	if len(deps) != 2 {
		t.Fatalf("got %d dependencies, want 2", len(deps))
	}
	if got := deps[0].String(); got != "a.b.c" {
		t.Errorf("first: got %q", got)
	}
	if got := deps[1].Type(); got != "Identifier" {
		t.Errorf("second: got %s", got)
	}
}

func TestWalkSkipsChildren(t *testing.T) {
	n := mustExpression(t, "f(a, b) + c")

	var seen []string
	ast.Walk(n, func(n ast.Node) bool {
		if id, ok := n.(*ast.Identifier); ok {
			seen = append(seen, id.Name)
		}
		return n.Type() != "CallExpression"
	})
	if !slices.Equal(seen, []string{"c"}) {
		t.Errorf("got %v", seen)
	}
}

func TestBoundNames(t *testing.T) {
	decl, ok := firstStatement(t, "const { a, b: [c, ...d], e = 1 } = obj;").(*ast.VariableDeclaration)
	if !ok {
		t.Fatal("expected a variable declaration")
	}

	got := ast.BoundNames(decl.Declarations[0].ID)
	if !slices.Equal(got, []string{"a", "c", "d", "e"}) {
		t.Errorf("got %v", got)
	}
}

func TestString(t *testing.T) {
	tests := []string{
		"a + b * 2",
		"(a + b) * 2",
		"a ** b ** c",
		"(a ** b) ** c",
		"a - (b - c)",
		"a ? b : c",
		"x => x + 1",
		"a?.b[c]",
		"f(a, b)",
		"[1, 2, 3]",
		`"hi"`,
	}

	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			if got := mustExpression(t, src).String(); got != src {
				t.Errorf("got %q, want %q", got, src)
			}
		})
	}
}

func TestDeserializeRoundTrip(t *testing.T) {
	sources := []string{
		"let total = items.reduce((sum, x) => sum + x.price, 0);",
		"class A extends B { #x = 1; static y() { return super.y(); } }",
		"for (const [k, v] of Object.entries(o)) { if (!v) continue; out[k] = v; }",
		"try { f(); } catch ({ message }) { log(message); } finally { done = true; }",
		"label: while (a) { switch (b) { case 1: break label; default: a--; } }",
		"const t = tag`a${b}c`; x ??= y?.z;",
	}

	for _, src := range sources {
		t.Run(src, func(t *testing.T) {
			n, err := parser.Parse(src)
			if err != nil {
				t.Fatal(err)
			}
			data, err := json.Marshal(n)
			if err != nil {
				t.Fatal(err)
			}

			back, err := ast.Deserialize(data)
			if err != nil {
				t.Fatalf("deserialize: %v", err)
			}
			if back.String() != n.String() {
				t.Errorf("source changed:\n got %s\nwant %s", back.String(), n.String())
			}

			again, err := json.Marshal(back)
			if err != nil {
				t.Fatal(err)
			}
			if string(again) != string(data) {
				t.Errorf("encoding changed:\n got %s\nwant %s", again, data)
			}
		})
	}
}

func TestDeserializeEveryType(t *testing.T) {
	types := ast.Types()
	if !slices.Contains(types, "Program") || !slices.Contains(types, "PipelineExpression") {
		t.Fatalf("missing registrations in %v", types)
	}

	for _, typ := range types {
		n, err := ast.Deserialize([]byte(`{"type":"` + typ + `"}`))
		if err != nil {
			t.Errorf("%s: %v", typ, err)
			continue
		}
		if n.Type() != typ {
			t.Errorf("%s: decoded as %s", typ, n.Type())
		}
	}
}

func TestDeserializeErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"unknown type", `{"type":"GotoStatement"}`, ast.ErrUnknownType},
		{"malformed", `{"type":`, diag.ErrRegistry},
		{"wrong child type", `{"type":"VariableDeclaration","kind":"let","declarations":[{"type":"Identifier","name":"x"}]}`, diag.ErrRegistry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ast.Deserialize([]byte(tt.data))
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}

	n, err := ast.Deserialize([]byte("null"))
	if n != nil || err != nil {
		t.Errorf("null: got %v, %v", n, err)
	}
}

func TestGetWith(t *testing.T) {
	stack := scope.NewGlobalStack(scope.NewMapContext(nil))
	this := runtime.NewObject(runtime.ObjectPrototype)
	this.Put("x", 21.0)

	v, err := ast.GetWith(mustExpression(t, "this.x * 2"), stack, this)
	if err != nil {
		t.Fatal(err)
	}
	if v != 42.0 {
		t.Errorf("got %v, want 42", v)
	}
}

func TestProgramHoisting(t *testing.T) {
	n, err := parser.Parse("const r = f(); function f() { return a; } var a; r")
	if err != nil {
		t.Fatal(err)
	}

	v, err := n.Get(scope.NewGlobalStack(scope.NewMapContext(nil)))
	if err != nil {
		t.Fatal(err)
	}
	if !runtime.IsUndefined(v) {
		t.Errorf("got %v, want undefined", v)
	}
}

func TestProgramSeesHostValues(t *testing.T) {
	global := scope.NewMapContext(map[string]any{"price": 2.5, "qty": 4.0})

	n, err := parser.Parse("price * qty")
	if err != nil {
		t.Fatal(err)
	}
	v, err := n.Get(scope.NewGlobalStack(global))
	if err != nil {
		t.Fatal(err)
	}
	if v != 10.0 {
		t.Errorf("got %v, want 10", v)
	}
}
