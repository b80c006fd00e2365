package interpreter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/example/expressions/ast"
	"github.com/example/expressions/diag"
	"github.com/example/expressions/runtime"
)

type evalCase struct {
	name string
	src  string
	want any
}

// sameValue compares completion values, treating NaN as equal to itself.
func sameValue(got, want any) bool {
	if w, ok := want.(float64); ok && math.IsNaN(w) {
		g, ok := got.(float64)
		return ok && math.IsNaN(g)
	}

	return got == want
}

// restore sends the parsed tree for src through its JSON encoding.
func restore(t *testing.T, interp *Interpreter, src string) ast.Node {
	t.Helper()
	n, err := interp.Parse(src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	data, err := json.Marshal(n)
	if err != nil {
		t.Fatalf("encode %q: %v", src, err)
	}
	back, err := ast.Deserialize(data)
	if err != nil {
		t.Fatalf("decode %q: %v", src, err)
	}

	return back
}

// runCases evaluates every case from source and again from its serialized
// tree in a fresh interpreter; both must complete with the same value.
func runCases(t *testing.T, tests []evalCase) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(WithOutput(io.Discard)).Eval(context.Background(), tt.src)
			if err != nil {
				t.Fatalf("eval: %v", err)
			}
			if !sameValue(got, tt.want) {
				t.Errorf("eval: got %#v, want %#v", got, tt.want)
			}

			interp := New(WithOutput(io.Discard))
			got, err = interp.EvalNode(context.Background(), restore(t, interp, tt.src))
			if err != nil {
				t.Fatalf("restored tree: %v", err)
			}
			if !sameValue(got, tt.want) {
				t.Errorf("restored tree: got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func expectNumber(t *testing.T, source string, want float64) {
	t.Helper()
	got, err := New(WithOutput(io.Discard)).Eval(context.Background(), source)
	if err != nil {
		t.Fatalf("eval %q: %v", source, err)
	}
	if !sameValue(got, want) {
		t.Fatalf("%q: got %#v, want %v", source, got, want)
	}
}

func TestLiterals(t *testing.T) {
	runCases(t, []evalCase{
		{"integer", "7", 7.0},
		{"fraction", "0.25", 0.25},
		{"double quoted", `"port"`, "port"},
		{"single quoted", "'host'", "host"},
		{"true", "true", true},
		{"false", "false", false},
		{"null", "null", nil},
		{"undefined", "undefined", runtime.Undefined},
		{"template", "const who = 'svc'; `${who}:${2 * 4}`", "svc:8"},
		{"empty template", "``", ""},
	})
}

func TestOperators(t *testing.T) {
	runCases(t, []evalCase{
		{"subtract", "9 - 12", -3.0},
		{"divide", "7 / 2", 3.5},
		{"remainder", "17 % 5", 2.0},
		{"exponent", "3 ** 4", 81.0},
		{"unary plus coerces", "+'12'", 12.0},
		{"unary minus", "-(4)", -4.0},
		{"concatenate number", `"v" + 2`, "v2"},
		{"number then string", `3 + 4 + "x"`, "7x"},
		{"loose equality coerces", "'5' == 5", true},
		{"strict equality does not", "'5' === 5", false},
		{"null loosely equals undefined", "undefined == null", true},
		{"null is not strictly undefined", "undefined === null", false},
		{"less or equal", "3 <= 3", true},
		{"greater", "2 > 8", false},
		{"and yields operand", "'a' && 'b'", "b"},
		{"and short circuits", "'' && 'b'", ""},
		{"or yields first truthy", "0 || 'fallback'", "fallback"},
		{"not", "!''", true},
		{"nullish keeps empty string", `"" ?? "x"`, ""},
		{"nullish replaces undefined", "undefined ?? 3", 3.0},
		{"bitwise and", "12 & 10", 8.0},
		{"bitwise or", "12 | 3", 15.0},
		{"bitwise xor", "6 ^ 3", 5.0},
		{"bitwise not", "~0", -1.0},
		{"shift left", "3 << 2", 12.0},
		{"signed shift right", "-16 >> 2", -4.0},
		{"conditional", "4 > 3 ? 'up' : 'down'", "up"},
		{"comma yields last", "(1, 'two', 3)", 3.0},
		{"void", "void 'x'", runtime.Undefined},
		{"infinity", "2 / 0", math.Inf(1)},
		{"negative infinity", "-2 / 0", math.Inf(-1)},
		{"zero over zero", "0 / 0", math.NaN()},
		{"NaN is not itself", "const n = NaN; n === n", false},
		{"typeof number", "typeof 1.5", "number"},
		{"typeof null", "typeof null", "object"},
		{"typeof array", "typeof [1]", "object"},
		{"typeof arrow", "typeof (() => 1)", "function"},
		{"typeof undeclared", "typeof notDeclaredAnywhere", "undefined"},
	})
}

func TestAssignment(t *testing.T) {
	runCases(t, []evalCase{
		{"var", "var port = 8080; port", 8080.0},
		{"reassign", "let retries = 1; retries = 4; retries", 4.0},
		{"compound add", "let n = 3; n += 4; n", 7.0},
		{"compound subtract", "let n = 3; n -= 4; n", -1.0},
		{"compound multiply", "let n = 3; n *= 4; n", 12.0},
		{"compound divide", "let n = 12; n /= 4; n", 3.0},
		{"compound remainder", "let n = 14; n %= 4; n", 2.0},
		{"prefix increment", "let i = 2; ++i", 3.0},
		{"postfix increment yields old value", "let i = 2; i++", 2.0},
		{"postfix increment stores", "let i = 2; i++; i", 3.0},
		{"prefix decrement", "let i = 2; --i", 1.0},
		{"postfix decrement stores", "let i = 2; i--; i", 1.0},
		{"nullish assign fills null", "let c = null; c ??= 'dflt'; c", "dflt"},
		{"nullish assign keeps value", "let c = 0; c ??= 9; c", 0.0},
		{"or assign", "let c = ''; c ||= 'set'; c", "set"},
		{"and assign", "let c = 1; c &&= 'next'; c", "next"},
		{"member assign", "const o = {}; o.k = 'v'; o.k", "v"},
		{"index assign", "const a = [0, 0]; a[1] = 5; a[1]", 5.0},
		{"var is hoisted", "limit = 3; var limit; limit", 3.0},
		{"declared var starts undefined", "var pending; pending", runtime.Undefined},
	})
}

func TestScoping(t *testing.T) {
	runCases(t, []evalCase{
		{"block sees its own let", "let v = 'outer'; { let v = 'inner'; v }", "inner"},
		{"block let does not leak", "let v = 'outer'; { let v = 'inner'; } v", "outer"},
		{"var escapes blocks", "{ var leaked = 1; } leaked", 1.0},
		{"closure keeps state", `
			function counter() {
				let hits = 0;
				return () => ++hits;
			}
			const next = counter();
			next(); next(); next()`, 3.0},
		{"closures are independent", `
			function counter() { let hits = 0; return () => ++hits; }
			const a = counter(), b = counter();
			a(); a(); b()`, 1.0},
		{"inner function sees outer parameter", `
			function outer(base) {
				function add(n) { return base + n; }
				return add(2);
			}
			outer(40)`, 42.0},
		{"declaration is hoisted", "const r = half(10); function half(n) { return n / 2; } r", 5.0},
		{"block function is undefined before its block", `
			(function () {
				const before = typeof g;
				{ function g() {} }
				return before + "," + typeof g;
			})()`, "undefined,function"},
		{"later block function replaces earlier", `
			(function () {
				{ function g() { return "a"; } }
				const first = g();
				{ function g() { return "b"; } }
				return first + g();
			})()`, "ab"},
		{"untaken branch does not declare", `
			(function () {
				if (false) { function g() { return "no"; } }
				else { function g() { return "yes"; } }
				return g();
			})()`, "yes"},
		{"block function over var", `
			(function () {
				var g = 0;
				{ function g() {} }
				return typeof g;
			})()`, "function"},
		{"function name is writable in its body", `
			(function () {
				function g() { g = "replaced"; return g; }
				return g();
			})()`, "replaced"},
		{"switch case function hoists", `
			(function () {
				switch (0) { default: function g() { return 1; } }
				return typeof g;
			})()`, "function"},
	})
}

func TestControlFlow(t *testing.T) {
	runCases(t, []evalCase{
		{"if", "let s = 'none'; if (2 > 1) s = 'then'; s", "then"},
		{"else if chain", `
			const pick = n => { if (n < 0) return "neg"; else if (n === 0) return "zero"; else return "pos"; };
			pick(-1) + pick(0) + pick(3)`, "negzeropos"},
		{"while", "let n = 1; while (n < 100) n *= 3; n", 243.0},
		{"do runs once", "let runs = 0; do { runs++; } while (false); runs", 1.0},
		{"for", "let acc = ''; for (let i = 3; i > 0; i--) acc += i; acc", "321"},
		{"for of array", "let t = 0; for (const v of [5, 6, 7]) t += v; t", 18.0},
		{"for of string", "let out = []; for (const ch of 'abc') out.unshift(ch); out.join('')", "cba"},
		{"for in keys", "const seen = []; for (const k in { a: 1, b: 2 }) seen.push(k); seen.join('+')", "a+b"},
		{"break stops loop", "let i = 0; while (true) { if (++i === 4) break; } i", 4.0},
		{"continue skips", "let odd = 0; for (let i = 0; i < 6; i++) { if (i % 2 === 0) continue; odd += i; } odd", 9.0},
		{"labeled break", `
			let pairs = 0;
			grid: for (let r = 0; r < 3; r++) {
				for (let c = 0; c < 3; c++) {
					if (r === 1 && c === 2) break grid;
					pairs++;
				}
			}
			pairs`, 5.0},
		{"labeled continue", `
			let pairs = 0;
			rows: for (let r = 0; r < 3; r++) {
				for (let c = 0; c < 3; c++) {
					if (c === 1) continue rows;
					pairs++;
				}
			}
			pairs`, 3.0},
		{"switch match", "let r; switch ('b') { case 'a': r = 1; break; case 'b': r = 2; break; default: r = 0; } r", 2.0},
		{"switch default", "let r; switch (42) { case 1: r = 1; break; default: r = 'd'; } r", "d"},
		{"switch falls through", "let r = ''; switch (1) { case 1: r += 'x'; case 2: r += 'y'; break; case 3: r += 'z'; } r", "xy"},
		{"empty return", "function f() { return; } f()", runtime.Undefined},
	})
}

func TestFunctions(t *testing.T) {
	runCases(t, []evalCase{
		{"declaration", "function area(w, h) { return w * h; } area(3, 5)", 15.0},
		{"expression", "const sq = function (n) { return n * n; }; sq(9)", 81.0},
		{"arrow expression body", "const inc = n => n + 1; inc(1)", 2.0},
		{"arrow block body", "const inc = (n) => { return n + 1; }; inc(1)", 2.0},
		{"immediately invoked", "(function () { return 'now'; })()", "now"},
		{"default parameter", "function port(p = 80) { return p; } port()", 80.0},
		{"default parameter overridden", "function port(p = 80) { return p; } port(443)", 443.0},
		{"rest parameters", "function count(first, ...more) { return more.length; } count(1, 2, 3)", 2.0},
		{"spread arguments", "function sum3(a, b, c) { return a + b + c; } sum3(...[1, 2, 3])", 6.0},
		{"missing argument is undefined", "function f(a, b) { return b; } f(1)", runtime.Undefined},
		{"recursion", "function fact(n) { return n <= 1 ? 1 : n * fact(n - 1); } fact(6)", 720.0},
		{"functions as values", "const twice = (f, x) => f(f(x)); twice(n => n * 3, 2)", 18.0},
		{"memoized recursion", `
			function memo(fn) {
				const seen = {};
				return n => seen[n] ?? (seen[n] = fn(n));
			}
			const fib = memo(n => n < 2 ? n : fib(n - 1) + fib(n - 2));
			fib(30)`, 832040.0},
		{"method this", "const o = { v: 6, get() { return this.v; } }; o.get()", 6.0},
		{"arrow inherits this", `
			const o = {
				v: 11,
				read: function () { const inner = () => this.v; return inner(); },
			};
			o.read()`, 11.0},
		{"constructor function", "function P(x) { this.x = x; } new P(4).x", 4.0},
		{"instanceof constructor function", "function P() {} new P() instanceof P", true},
	})
}

func TestObjectsAndArrays(t *testing.T) {
	runCases(t, []evalCase{
		{"dot access", "const o = { host: 'db' }; o.host", "db"},
		{"computed access", "const k = 'host'; const o = { host: 'db' }; o[k]", "db"},
		{"shorthand property", "const level = 'warn'; ({ level }).level", "warn"},
		{"missing property", "({}).nothing", runtime.Undefined},
		{"delete removes", "const o = { a: 1 }; delete o.a; 'a' in o", false},
		{"in finds key", "'a' in { a: undefined }", true},
		{"array length", "[4, 5, 6].length", 3.0},
		{"array spread", "const a = [1], b = [2, 3]; [...a, ...b, 4].join('')", "1234"},
		{"push returns length", "const a = []; a.push('x', 'y')", 2.0},
		{"map filter reduce", "[1, 2, 3, 4].map(n => n * n).filter(n => n % 2).reduce((s, n) => s + n, 0)", 10.0},
		{"sort with comparator", "[10, 9, 1, 5].sort((a, b) => b - a).join(' ')", "10 9 5 1"},
		{"splice removes in place", "const a = ['a', 'b', 'c', 'd']; a.splice(1, 2); a.join('')", "ad"},
		{"every and some", "[2, 4].every(n => n % 2 === 0) && [1, 3].some(n => n > 2)", true},
		{"find", "[{ id: 1 }, { id: 2 }].find(o => o.id === 2).id", 2.0},
		{"string methods chain", "'  Mixed Case  '.trim().toLowerCase().split(' ').join('_')", "mixed_case"},
		{"string indexing", "'gopher'.charAt(2) + 'gopher'[0]", "pg"},
	})
}

func TestDestructuring(t *testing.T) {
	runCases(t, []evalCase{
		{"array pattern", "const [a, , c] = [1, 2, 3]; a + c", 4.0},
		{"object pattern", "const { host, port } = { host: 'h', port: 1 }; host + port", "h1"},
		{"renamed binding", "const { host: h } = { host: 'x' }; h", "x"},
		{"defaults", "const [a = 1, b = 2] = [10]; a + b", 12.0},
		{"array rest", "const [head, ...tail] = ['a', 'b', 'c', 'd']; head + tail.join('')", "abcd"},
		{"object rest", "const { a, ...others } = { a: 1, b: 2, c: 3 }; Object.keys(others).join()", "b,c"},
		{"nested", "const { pos: [x, y] } = { pos: [3, 4] }; x * y", 12.0},
		{"parameter pattern", "const dist = ({ x, y }) => x + y; dist({ x: 2, y: 5 })", 7.0},
		{"swap", "let a = 1, b = 2; [a, b] = [b, a]; `${a}${b}`", "21"},
	})
}

func TestClasses(t *testing.T) {
	runCases(t, []evalCase{
		{"constructor and method", `
			class Range {
				constructor(lo, hi) { this.lo = lo; this.hi = hi; }
				size() { return this.hi - this.lo; }
			}
			new Range(3, 10).size()`, 7.0},
		{"override calls super", `
			class Base { label() { return "base"; } }
			class Child extends Base { label() { return "child<" + super.label() + ">"; } }
			new Child().label()`, "child<base>"},
		{"super constructor", `
			class Named { constructor(name) { this.name = name; } }
			class Service extends Named {
				constructor(name, port) { super(name); this.port = port; }
				addr() { return this.name + ":" + this.port; }
			}
			new Service("api", 9).addr()`, "api:9"},
		{"inherited method", `
			class Base { hello() { return "hi " + this.kind; } }
			class Leaf extends Base { constructor() { super(); this.kind = "leaf"; } }
			new Leaf().hello()`, "hi leaf"},
		{"static method", "class Units { static kb(n) { return n * 1024; } } Units.kb(2)", 2048.0},
		{"accessor pair", `
			class Temp {
				constructor() { this.c = 0; }
				get f() { return this.c * 9 / 5 + 32; }
				set f(v) { this.c = (v - 32) * 5 / 9; }
			}
			const t = new Temp(); t.f = 212; t.c`, 100.0},
		{"instanceof walks the chain", "class A {} class B extends A {} new B() instanceof A", true},
		{"class called without new", `
			class K {}
			let msg;
			try { K(); } catch (e) { msg = e.name; }
			msg`, "TypeError"},
	})
}

func TestExceptions(t *testing.T) {
	runCases(t, []evalCase{
		{"catch binds thrown value", "let got; try { throw 'boom'; } catch (e) { got = e; } got", "boom"},
		{"finally after success", "let log = ''; try { log += 't'; } finally { log += 'f'; } log", "tf"},
		{"finally after catch", "let log = ''; try { throw 0; } catch { log += 'c'; } finally { log += 'f'; } log", "cf"},
		{"rethrow from catch", `
			let total = 0;
			try {
				try { throw 2; } catch (e) { total += e; throw e * 10; }
			} catch (e) { total += e; }
			total`, 22.0},
		{"throw crosses calls", `
			function deep(n) { if (n === 0) throw "bottom"; return deep(n - 1); }
			let where;
			try { deep(5); } catch (e) { where = e; }
			where`, "bottom"},
		{"runtime errors are objects", "let ok; try { null.x; } catch (e) { ok = e instanceof TypeError; } ok", true},
		{"finally return wins", "function f() { try { return 1; } finally { return 2; } } f()", 2.0},
	})
}

func TestUncaughtValues(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"thrown string", `throw "no route"`, "no route"},
		{"const reassignment", "const fixed = 1; fixed = 2", "constant"},
		{"unknown name", "notDefinedHere + 1", "ReferenceError"},
		{"call of non-function", "const n = 3; n()", "TypeError"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(WithOutput(io.Discard)).Eval(context.Background(), tt.src)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !errors.Is(err, diag.ErrEvaluation) {
				t.Errorf("%v should be an evaluation error", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("got %q, want it to mention %q", err.Error(), tt.want)
			}
		})
	}
}

func TestThrownValueReachesCaller(t *testing.T) {
	_, err := New(WithOutput(io.Discard)).Eval(context.Background(), "throw { code: 503 }")

	var te *runtime.ThrowError
	if !errors.As(err, &te) {
		t.Fatalf("got %v (%T), want a thrown value", err, err)
	}
	code, _ := runtime.GetMember(te.Value, "code")
	if code != 503.0 {
		t.Errorf("code: got %v, want 503", code)
	}
}

func TestHostFunctions(t *testing.T) {
	interp := New(WithOutput(io.Discard))
	interp.Set("scale", func(v, by float64) float64 { return v * by })
	interp.Set("atoi", func(s string) (int, error) { return strconv.Atoi(s) })
	interp.Set("native", runtime.NewFunction("native", 1, func(_ any, args []any) (any, error) {
		return float64(len(args)), nil
	}))

	tests := []evalCase{
		{"typed parameters", "scale(1.5, 4)", 6.0},
		{"int result", "atoi('42') + 1", 43.0},
		{"native function", "native(1, 2, 3)", 3.0},
		{"host error is catchable", "let m; try { atoi('x'); } catch (e) { m = e instanceof Error; } m", true},
		{"host function is callable value", "[1, 2].map(n => scale(n, 10)).join()", "10,20"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := interp.Eval(context.Background(), tt.src)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}

	if _, err := interp.Eval(context.Background(), "atoi('nope')"); err == nil || !strings.Contains(err.Error(), "invalid syntax") {
		t.Errorf("uncaught host error: got %v", err)
	}
}

func TestScriptDeclaresGlobals(t *testing.T) {
	interp := New(WithOutput(io.Discard))
	if _, err := interp.Eval(context.Background(), "var limit = 64;"); err != nil {
		t.Fatal(err)
	}

	v, ok := interp.Global().Get("limit")
	if !ok || v != 64.0 {
		t.Errorf("global limit: got %v, %v", v, ok)
	}
}

func TestEvalNodeStatement(t *testing.T) {
	interp := New(WithOutput(io.Discard))
	prog, err := interp.Parse("function triple(n) { return n * 3; }")
	if err != nil {
		t.Fatal(err)
	}
	decl := prog.(*ast.Program).Body[0]

	if _, err := interp.EvalNode(context.Background(), decl); err != nil {
		t.Fatalf("bare declaration: %v", err)
	}
	expr := restore(t, interp, "triple(14)").(*ast.Program).Body[0]
	v, err := interp.EvalNode(context.Background(), expr)
	if err != nil {
		t.Fatal(err)
	}
	if v != 42.0 {
		t.Errorf("got %v, want 42", v)
	}
}
