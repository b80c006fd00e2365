package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/example/expressions/diag"
)

// run executes the command line with stdin as input and returns what was
// written to stdout.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	streams := Streams{In: strings.NewReader(stdin), Out: &out, Err: &errOut}
	exit := func(code int) { t.Logf("exit %d: %s", code, errOut.String()) }

	err := Run(context.Background(), streams, exit, args...)

	return out.String(), err
}

func mustRun(t *testing.T, stdin string, args ...string) string {
	t.Helper()

	out, err := run(t, stdin, args...)
	if err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return out
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestEval(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
		want  string
	}{
		{"expression", "", []string{"eval", "-e", "1 + 2 * 3"}, "7\n"},
		{"string is printed raw", "", []string{"eval", "-e", "'a' + 'b'"}, "ab\n"},
		{"undefined prints nothing", "", []string{"eval", "-e", "let x = 1"}, ""},
		{"stdin", "console.log('x'); 6 * 7", []string{"eval"}, "x\n42\n"},
		{"stdin dash", "2 ** 3", []string{"eval", "-"}, "8\n"},
		{"json", "", []string{"eval", "--json", "-e", "({ a: [1, 'b'], f() {} })"}, "{\n  \"a\": [\n    1,\n    \"b\"\n  ]\n}\n"},
		{"awaits promises", "", []string{"eval", "-e", "(async () => 7)()"}, "7\n"},
		{"module", "", []string{"eval", "--module", "-e", "export const a = 1; a + 1"}, "2\n"},
		{
			"signals",
			"",
			[]string{"eval", "-e", "const s = signal(2); const d = computed(() => s() * 2); s.set(5); d()"},
			"10\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mustRun(t, tt.stdin, tt.args...); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEvalFile(t *testing.T) {
	path := writeFile(t, "main.js", "function twice(x) { return x * 2 }\ntwice(21)\n")

	if got := mustRun(t, "", "eval", path); got != "42\n" {
		t.Errorf("got %q", got)
	}

	if _, err := run(t, "", "eval", filepath.Join(t.TempDir(), "missing.js")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: got %v", err)
	}
}

func TestEvalErrors(t *testing.T) {
	_, err := run(t, "", "eval", "-e", "1 +")
	if !errors.Is(err, diag.ErrParse) {
		t.Errorf("parse: got %v", err)
	}

	_, err = run(t, "", "eval", "-e", "throw new TypeError('nope')")
	if err == nil || !strings.Contains(err.Error(), "TypeError: nope") {
		t.Errorf("throw: got %v", err)
	}

	_, err = run(t, "", "eval", "--no-signals", "-e", "signal(1)")
	if !errors.Is(err, diag.ErrEvaluation) {
		t.Errorf("no signals: got %v", err)
	}
}

func TestParseFormats(t *testing.T) {
	out := mustRun(t, "", "parse", "-e", "a + b")
	var tree map[string]any
	if err := json.Unmarshal([]byte(out), &tree); err != nil {
		t.Fatalf("json: %v\n%s", err, out)
	}
	if !strings.Contains(out, `"type": "BinaryExpression"`) {
		t.Errorf("json: %s", out)
	}

	out = mustRun(t, "", "parse", "--format", "yaml", "-e", "a + b")
	if !strings.Contains(out, "type: BinaryExpression") {
		t.Errorf("yaml: %s", out)
	}

	out = mustRun(t, "", "parse", "--format", "tree", "-e", "a + b")
	for _, want := range []string{"BinaryExpression", "Identifier a", "Identifier b"} {
		if !strings.Contains(out, want) {
			t.Errorf("tree lacks %q:\n%s", want, out)
		}
	}

	out = mustRun(t, "", "parse", "--locations", "-e", "a + b")
	if !strings.Contains(out, `"loc"`) {
		t.Errorf("locations: %s", out)
	}
}

func TestParseDigest(t *testing.T) {
	a := mustRun(t, "", "parse", "--digest", "-e", "a+b")
	b := mustRun(t, "", "parse", "--digest", "-e", "a  +  b")
	c := mustRun(t, "", "parse", "--digest", "-e", "a - b")

	if a != b {
		t.Errorf("layout changed the digest: %q != %q", a, b)
	}
	if a == c {
		t.Errorf("different trees share digest %q", a)
	}
	if len(strings.TrimSpace(a)) != 40 {
		t.Errorf("digest %q is not a hex sha1", a)
	}
}

func TestFmtIsStable(t *testing.T) {
	src := "let x=1;if(x){x++}else{x--}\nfunction f(a,b=2){return a+b}"

	once := mustRun(t, "", "fmt", "-e", src)
	twice := mustRun(t, once, "fmt")
	if once != twice {
		t.Errorf("fmt is not stable:\n%s\n---\n%s", once, twice)
	}
	if !strings.Contains(once, "let x = 1;") {
		t.Errorf("unexpected output:\n%s", once)
	}
}

func TestDirective(t *testing.T) {
	out := mustRun(t, "", "directive", "for", "let item of items; let i = index")

	var res struct {
		TemplateExpressions []map[string]any `json:"templateExpressions"`
		DirectiveInputs     map[string]any   `json:"directiveInputs"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("%v\n%s", err, out)
	}
	if len(res.TemplateExpressions) != 2 {
		t.Errorf("template expressions: %v", res.TemplateExpressions)
	}
	if _, ok := res.DirectiveInputs["of"]; !ok {
		t.Errorf("inputs: %v", res.DirectiveInputs)
	}

	if _, err := run(t, "", "directive", "for", "let 1 = x"); !errors.Is(err, diag.ErrParse) {
		t.Errorf("malformed: got %v", err)
	}
}

func TestConfigFile(t *testing.T) {
	path := writeFile(t, "config.yaml", `
log:
  level: warn
  pretty: false
globals:
  answer: 40
  items: [a, b]
  server:
    port: 8080
`)

	if got := mustRun(t, "", "--config", path, "eval", "-e", "answer + items.length"); got != "42\n" {
		t.Errorf("globals: got %q", got)
	}
	if got := mustRun(t, "", "--config", path, "eval", "-e", "server.port"); got != "8080\n" {
		t.Errorf("nested globals: got %q", got)
	}

	out := mustRun(t, "", "--config", path,
		"directive", "for", "let item of items; let i = index",
		"--eval", "-C", "$implicit=items[1]", "-C", "index=1")
	var got map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("%v\n%s", err, out)
	}
	want := map[string]any{
		"inputs":   map[string]any{"of": []any{"a", "b"}},
		"bindings": map[string]any{"item": "b", "i": 1.0},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		config string
	}{
		{"unknown key", "colour: true\n"},
		{"globals not a mapping", "globals: [1, 2]\n"},
		{"malformed", "log: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "config.yaml", tt.config)
			if _, err := run(t, "", "--config", path, "eval", "-e", "1"); !errors.Is(err, ErrConfig) {
				t.Errorf("got %v, want %v", err, ErrConfig)
			}
		})
	}
}

func TestFlatten(t *testing.T) {
	got := make(config)
	flatten(got, "", map[string]any{
		"log":         map[string]any{"level": "debug", "time_layout": "kitchen"},
		"profile_dir": "/tmp",
		"timeout":     uint64(5),
		"pretty":      true,
	})

	want := config{
		"log-level":       "debug",
		"log-time-layout": "kitchen",
		"profile-dir":     "/tmp",
		"timeout":         "5",
		"pretty":          true,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestLogScan(t *testing.T) {
	var (
		f   logConfig
		buf bytes.Buffer
	)
	f.scan(&buf, []string{"eval", "--log-level", "debug", "--log-format=json", "--no-log-pretty", "--", "--log-level=error"})

	if f.Level != "debug" || f.Format != "json" || f.Pretty {
		t.Errorf("got %+v", f)
	}
}

func TestTestCommand(t *testing.T) {
	dir := t.TempDir()
	for name, src := range map[string]string{
		"ok.js":   "1 + 1",
		"bad.js":  "throw new Error('no')",
		"skip.js": "/*---\nfeatures: [Intl]\n---*/\n",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	out, err := run(t, "", "test", dir)
	if !errors.Is(err, ErrTestsFailed) {
		t.Errorf("got %v", err)
	}
	if !strings.Contains(out, "FAIL bad.js") || strings.Contains(out, "PASS ok.js") {
		t.Errorf("quiet output:\n%s", out)
	}
	if !strings.Contains(out, "1 passed, 1 failed, 1 skipped, 0 errors of 3") {
		t.Errorf("summary:\n%s", out)
	}

	out = mustRun(t, "", "test", "--verbose", "--filter", "ok", dir)
	if !strings.Contains(out, "PASS ok.js") {
		t.Errorf("verbose output:\n%s", out)
	}
}
