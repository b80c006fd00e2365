package testrunner

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func writeSuite(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

var suite = map[string]string{
	"harness/assert.js": "function assertEqual(a, b) { if (a !== b) throw new Error('expected ' + b + ', got ' + a) }",
	"basic/pass.js":     "/*---\ndescription: adds\n---*/\nif (1 + 1 !== 2) throw new Error('math')",
	"basic/fail.js":     "throw new TypeError('boom')",
	"basic/include.js":  "/*---\nincludes: [assert.js]\n---*/\nassertEqual([1, 2].length, 2)",
	"module.js":         "/*---\nflags: [module]\n---*/\nexport const x = 1;",
	"async.js":          "/*---\nflags: [async]\n---*/\n(async () => { await null; throw new Error('late') })()",
	"skip.js":           "/*---\nfeatures: [Intl]\n---*/\nnew Intl.NumberFormat()",
	"badmeta.js":        "/*---\nflags: [\n---*/\n1",
	"notes.txt":         "not a test",
	"negative/runtime.js": `/*---
negative:
  phase: runtime
  type: TypeError
---*/
null.x`,
	"negative/parse.js": `/*---
negative:
  phase: parse
  type: SyntaxError
---*/
1 +;`,
	"negative/wrong.js": `/*---
negative:
  phase: runtime
  type: RangeError
---*/
null.x`,
}

func TestRun(t *testing.T) {
	dir := writeSuite(t, suite)

	var reported []string
	results, summary, err := Run(context.Background(), Config{
		Dir:    dir,
		Report: func(tr TestResult) { reported = append(reported, tr.Path) },
	})
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]Result{
		"async.js":            Fail,
		"badmeta.js":          Error,
		"basic/fail.js":       Fail,
		"basic/include.js":    Pass,
		"basic/pass.js":       Pass,
		"module.js":           Pass,
		"negative/parse.js":   Pass,
		"negative/runtime.js": Pass,
		"negative/wrong.js":   Fail,
		"skip.js":             Skip,
	}

	got := make(map[string]Result)
	var paths []string
	for _, tr := range results {
		got[tr.Path] = tr.Result
		paths = append(paths, tr.Path)
	}
	for path, res := range want {
		if got[path] != res {
			t.Errorf("%s: got %s, want %s", path, got[path], res)
		}
	}
	if len(got) != len(want) {
		t.Errorf("ran %v", paths)
	}
	if !slices.IsSorted(paths) || !slices.Equal(paths, reported) {
		t.Errorf("order %v, reported %v", paths, reported)
	}

	if summary.Total != 10 || summary.Passed != 5 || summary.Failed != 3 || summary.Skipped != 1 || summary.Errors != 1 {
		t.Errorf("summary %+v", summary)
	}
	if summary.OK() {
		t.Error("summary with failures is OK")
	}
	if rate := summary.PassRate(); rate < 55.5 || rate > 55.6 {
		t.Errorf("pass rate %.2f", rate)
	}
}

func TestRunMessages(t *testing.T) {
	dir := writeSuite(t, suite)

	results, _, err := Run(context.Background(), Config{Dir: dir, Filter: "negative/wrong"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("filter kept %d tests", len(results))
	}
	if msg := results[0].Message; !strings.Contains(msg, "expected RangeError error in runtime phase") || !strings.Contains(msg, "TypeError") {
		t.Errorf("message %q", msg)
	}
}

func TestRunLimit(t *testing.T) {
	dir := writeSuite(t, suite)

	results, summary, err := Run(context.Background(), Config{Dir: dir, Filter: "basic/", Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 || summary.Total != 2 {
		t.Errorf("got %d results, total %d", len(results), summary.Total)
	}
}

func TestRunCancelled(t *testing.T) {
	dir := writeSuite(t, suite)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := Run(ctx, Config{Dir: dir}); err == nil {
		t.Error("cancelled run returned no error")
	}

	if _, _, err := Run(context.Background(), Config{Dir: filepath.Join(dir, "missing")}); err == nil {
		t.Error("missing directory returned no error")
	}
}

func TestParseMetadata(t *testing.T) {
	meta, err := ParseMetadata(`// leading comment
/*---
description: >
  folded
  text
features: [generators, async-functions]
flags:
  - module
  - async
includes: [a.js, b.js]
negative:
  phase: parse
  type: SyntaxError
---*/
code()`)
	if err != nil {
		t.Fatal(err)
	}

	if meta.Description != "folded text\n" {
		t.Errorf("description %q", meta.Description)
	}
	if !slices.Equal(meta.Features, []string{"generators", "async-functions"}) {
		t.Errorf("features %v", meta.Features)
	}
	if !meta.Has("module") || !meta.Has("async") || meta.Has("raw") {
		t.Errorf("flags %v", meta.Flags)
	}
	if !slices.Equal(meta.Includes, []string{"a.js", "b.js"}) {
		t.Errorf("includes %v", meta.Includes)
	}
	if meta.Negative != (NegativeExpectation{Phase: "parse", Type: "SyntaxError"}) {
		t.Errorf("negative %+v", meta.Negative)
	}

	if meta, err := ParseMetadata("1 + 1"); err != nil || meta.Description != "" {
		t.Errorf("no frontmatter: %+v, %v", meta, err)
	}
	if _, err := ParseMetadata("/*--- flags: []"); err == nil {
		t.Error("unterminated frontmatter accepted")
	}
}

func TestResultString(t *testing.T) {
	for r, want := range map[Result]string{Pass: "PASS", Fail: "FAIL", Skip: "SKIP", Error: "ERROR", Result(9): "UNKNOWN"} {
		if r.String() != want {
			t.Errorf("%d: got %s", r, r.String())
		}
	}
}
