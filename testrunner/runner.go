// Package testrunner runs a directory of script tests. Each test is a
// source file that may open with a YAML frontmatter block:
//
//	/*---
//	description: closures capture per-iteration bindings
//	flags: [module]
//	includes: [assert.js]
//	negative:
//	  phase: runtime
//	  type: TypeError
//	---*/
//
// A test passes when it evaluates without error, or, when negative is
// given, when it fails in that phase with that error type. Includes are
// read from the harness directory and evaluated before the test.
package testrunner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/example/expressions/diag"
	"github.com/example/expressions/interpreter"
	"github.com/example/expressions/log"
	"github.com/example/expressions/parser"
	"github.com/example/expressions/runtime"
)

// HarnessDir is the directory below the suite root holding include files.
// It is never searched for tests.
const HarnessDir = "harness"

// Result classifies a test run.
type Result int

const (
	Pass Result = iota
	Fail
	Skip
	Error
)

func (r Result) String() string {
	switch r {
	case Pass:
		return "PASS"
	case Fail:
		return "FAIL"
	case Skip:
		return "SKIP"
	case Error:
		return "ERROR"
	}
	return "UNKNOWN"
}

// TestResult is the outcome of one test file.
type TestResult struct {
	Path    string
	Result  Result
	Message string
	Elapsed time.Duration
}

// Summary counts the outcomes of a run.
type Summary struct {
	Total   int
	Passed  int
	Failed  int
	Skipped int
	Errors  int
	Elapsed time.Duration
}

// PassRate is the share of passed tests among those not skipped, in
// percent.
func (s Summary) PassRate() float64 {
	ran := s.Total - s.Skipped
	if ran == 0 {
		return 0
	}
	return float64(s.Passed) / float64(ran) * 100
}

// OK reports whether nothing failed.
func (s Summary) OK() bool { return s.Failed == 0 && s.Errors == 0 }

// DefaultTimeout bounds a single test when [Config.Timeout] is zero.
const DefaultTimeout = 5 * time.Second

// Config selects and bounds the tests of a run.
type Config struct {
	// Dir is the suite root.
	Dir string
	// Filter keeps the tests whose path relative to Dir contains it.
	Filter string
	// Limit caps the number of tests; zero runs all.
	Limit int
	// Timeout bounds each test.
	Timeout time.Duration
	// Logger receives one record per test.
	Logger log.Logger
	// Report, when set, is called after each test.
	Report func(TestResult)
}

// unsupported lists features tests may require that the engine lacks.
var unsupported = []string{
	"Atomics",
	"FinalizationRegistry",
	"Intl",
	"IsHTMLDDA",
	"SharedArrayBuffer",
	"Temporal",
	"WeakRef",
	"cross-realm",
	"decorators",
}

// Run discovers the tests below cfg.Dir and runs each in a fresh
// interpreter.
func Run(ctx context.Context, cfg Config) ([]TestResult, Summary, error) {
	files, err := discover(cfg)
	if err != nil {
		return nil, Summary{}, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	start := time.Now()
	summary := Summary{Total: len(files)}
	results := make([]TestResult, 0, len(files))

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return results, summary, err
		}

		rel, _ := filepath.Rel(cfg.Dir, path)
		tr := runSingleTest(ctx, cfg, path, filepath.ToSlash(rel))
		results = append(results, tr)

		switch tr.Result {
		case Pass:
			summary.Passed++
		case Fail:
			summary.Failed++
		case Skip:
			summary.Skipped++
		case Error:
			summary.Errors++
		}

		cfg.Logger.Debug("test finished",
			slog.String("path", tr.Path),
			slog.String("result", tr.Result.String()),
			slog.Duration("elapsed", tr.Elapsed),
		)
		if cfg.Report != nil {
			cfg.Report(tr)
		}
	}

	summary.Elapsed = time.Since(start)

	return results, summary, nil
}

// discover lists the .js files below cfg.Dir in lexical order, applying
// the filter and the limit.
func discover(cfg Config) ([]string, error) {
	var files []string
	err := filepath.WalkDir(cfg.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != cfg.Dir && d.Name() == HarnessDir {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".js") {
			return nil
		}
		if cfg.Filter != "" {
			rel, _ := filepath.Rel(cfg.Dir, path)
			if !strings.Contains(filepath.ToSlash(rel), cfg.Filter) {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if cfg.Limit > 0 && len(files) > cfg.Limit {
		files = files[:cfg.Limit]
	}

	return files, nil
}

type evalResult struct {
	val any
	err error
}

func runSingleTest(ctx context.Context, cfg Config, path, rel string) TestResult {
	source, err := os.ReadFile(path)
	if err != nil {
		return TestResult{Path: rel, Result: Error, Message: "read error: " + err.Error()}
	}

	meta, err := ParseMetadata(string(source))
	if err != nil {
		return TestResult{Path: rel, Result: Error, Message: err.Error()}
	}
	if feat, ok := meta.unsupported(); ok {
		return TestResult{Path: rel, Result: Skip, Message: "unsupported feature: " + feat}
	}

	mode := parser.Script
	if meta.Has("module") {
		mode = parser.Module
	}
	in := interpreter.New(
		interpreter.WithMode(mode),
		interpreter.WithOutput(io.Discard),
		interpreter.WithErrorOutput(io.Discard),
		interpreter.WithCacheSize(0),
	)

	for _, inc := range meta.Includes {
		src, err := os.ReadFile(filepath.Join(cfg.Dir, HarnessDir, inc))
		if err != nil {
			return TestResult{Path: rel, Result: Error, Message: "include: " + err.Error()}
		}
		if _, err := in.Eval(ctx, string(src)); err != nil {
			return TestResult{Path: rel, Result: Error, Message: fmt.Sprintf("include %s: %v", inc, err)}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	start := time.Now()
	resultCh := make(chan evalResult, 1)
	go func() {
		val, err := in.Eval(ctx, string(source))
		if p, ok := val.(*runtime.Promise); ok && err == nil && meta.Has("async") {
			val, err = runtime.AwaitContext(ctx, p)
		}
		resultCh <- evalResult{val: val, err: err}
	}()

	var evalRes evalResult
	select {
	case evalRes = <-resultCh:
	case <-ctx.Done():
		return TestResult{
			Path:    rel,
			Result:  Error,
			Message: fmt.Sprintf("timeout (%s)", cfg.Timeout),
			Elapsed: time.Since(start),
		}
	}
	elapsed := time.Since(start)

	if meta.Negative.Phase != "" {
		if meta.Negative.matches(evalRes.err) {
			return TestResult{Path: rel, Result: Pass, Elapsed: elapsed}
		}
		msg := fmt.Sprintf("expected %s error in %s phase", meta.Negative.Type, meta.Negative.Phase)
		if evalRes.err != nil {
			msg += ", got " + evalRes.err.Error()
		}
		return TestResult{Path: rel, Result: Fail, Message: msg, Elapsed: elapsed}
	}

	if evalRes.err != nil {
		return TestResult{Path: rel, Result: Fail, Message: evalRes.err.Error(), Elapsed: elapsed}
	}

	return TestResult{Path: rel, Result: Pass, Elapsed: elapsed}
}

// Metadata is the frontmatter of a test.
type Metadata struct {
	Description string              `yaml:"description"`
	Features    []string            `yaml:"features"`
	Flags       []string            `yaml:"flags"`
	Includes    []string            `yaml:"includes"`
	Negative    NegativeExpectation `yaml:"negative"`
}

// NegativeExpectation describes the error a negative test must raise.
type NegativeExpectation struct {
	// Phase is "parse" or "runtime".
	Phase string `yaml:"phase"`
	// Type is the error class name, such as SyntaxError or TypeError.
	Type string `yaml:"type"`
}

func (n NegativeExpectation) matches(err error) bool {
	if err == nil {
		return false
	}

	switch n.Phase {
	case "parse":
		return errors.Is(err, diag.ErrParse) || errors.Is(err, diag.ErrLex)
	case "runtime":
		if !errors.Is(err, diag.ErrEvaluation) {
			return false
		}
		return n.Type == "" || strings.HasPrefix(err.Error(), n.Type)
	}

	return false
}

// Has reports whether the test carries flag.
func (m Metadata) Has(flag string) bool { return slices.Contains(m.Flags, flag) }

func (m Metadata) unsupported() (string, bool) {
	for _, feat := range m.Features {
		if slices.Contains(unsupported, feat) {
			return feat, true
		}
	}
	return "", false
}

// ParseMetadata decodes the YAML between /*--- and ---*/. A source
// without frontmatter has zero metadata.
func ParseMetadata(source string) (Metadata, error) {
	var meta Metadata

	_, rest, ok := strings.Cut(source, "/*---")
	if !ok {
		return meta, nil
	}
	block, _, ok := strings.Cut(rest, "---*/")
	if !ok {
		return meta, fmt.Errorf("unterminated frontmatter")
	}

	if err := yaml.Unmarshal([]byte(block), &meta); err != nil {
		return meta, fmt.Errorf("frontmatter: %w", err)
	}

	return meta, nil
}
