// Package interpreter is the embedding entry point: it prepares a global
// environment with the builtins, parses source (with a small cache) and
// evaluates it.
package interpreter

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/example/expressions/ast"
	"github.com/example/expressions/builtins"
	"github.com/example/expressions/diag"
	"github.com/example/expressions/log"
	"github.com/example/expressions/parser"
	"github.com/example/expressions/scope"
)

// ErrNotStarted is returned when the context is already done before an
// evaluation begins.
var ErrNotStarted = diag.ErrEvaluation.Detail("evaluation not started")

const defaultCacheSize = 64

type config struct {
	logger    log.Logger
	globals   map[string]any
	out       io.Writer
	errOut    io.Writer
	mode      parser.Mode
	locations bool
	loader    scope.ModuleLoader
	cacheSize int
}

// Option configures an [Interpreter].
type Option func(config) config

// WithLogger sets the logger evaluation, parsing and console calls trace to.
func WithLogger(l log.Logger) Option {
	return func(c config) config {
		c.logger = l
		return c
	}
}

// WithGlobals predefines host values in the global scope. They are set
// after the builtins and may shadow them.
func WithGlobals(globals map[string]any) Option {
	return func(c config) config {
		if c.globals == nil {
			c.globals = make(map[string]any, len(globals))
		}
		for k, v := range globals {
			c.globals[k] = v
		}
		return c
	}
}

// WithOutput sets where console.log writes.
func WithOutput(w io.Writer) Option {
	return func(c config) config {
		c.out = w
		return c
	}
}

// WithErrorOutput sets where console.warn and console.error write.
func WithErrorOutput(w io.Writer) Option {
	return func(c config) config {
		c.errOut = w
		return c
	}
}

// WithMode selects the goal symbol sources are parsed with.
func WithMode(mode parser.Mode) Option {
	return func(c config) config {
		c.mode = mode
		return c
	}
}

// WithLocations records source locations on parsed nodes.
func WithLocations(enable bool) Option {
	return func(c config) config {
		c.locations = enable
		return c
	}
}

// WithModuleLoader resolves import declarations and dynamic import().
func WithModuleLoader(l scope.ModuleLoader) Option {
	return func(c config) config {
		c.loader = l
		return c
	}
}

// WithCacheSize bounds the number of parsed sources kept. Zero disables
// the cache.
func WithCacheSize(n int) Option {
	return func(c config) config {
		c.cacheSize = max(n, 0)
		return c
	}
}

// Interpreter evaluates sources against one global environment. Parse is
// safe for concurrent use; evaluation is not, since scripts share and
// mutate the global scope.
type Interpreter struct {
	cfg    config
	global *scope.MapContext
	stack  *scope.Stack
	cache  *parseCache
}

// New returns an interpreter with the builtins installed.
func New(opts ...Option) *Interpreter {
	cfg := config{
		out:       os.Stdout,
		errOut:    os.Stderr,
		cacheSize: defaultCacheSize,
	}
	for _, opt := range opts {
		cfg = opt(cfg)
	}

	global := scope.NewMapContext(nil)
	builtins.Register(global,
		builtins.WithOutput(cfg.out),
		builtins.WithErrorOutput(cfg.errOut),
		builtins.WithLogger(cfg.logger),
	)
	for k, v := range cfg.globals {
		global.Set(k, v)
	}

	stack := scope.NewGlobalStack(global)
	stack.SetLoader(cfg.loader)
	stack.SetLogger(cfg.logger)

	return &Interpreter{
		cfg:    cfg,
		global: global,
		stack:  stack,
		cache:  newParseCache(cfg.cacheSize),
	}
}

// Global returns the global scope.
func (in *Interpreter) Global() scope.Context { return in.global }

// Set defines a global. Go functions of any signature are callable from
// scripts.
func (in *Interpreter) Set(name string, value any) { in.global.Set(name, value) }

// Names lists the global names, builtins included.
func (in *Interpreter) Names() []string { return in.global.Keys() }

// Parse parses source with the interpreter's mode, reusing an earlier
// result for the same source.
func (in *Interpreter) Parse(source string) (ast.Node, error) {
	key := cacheKey{Source: source, Mode: int(in.cfg.mode), Locations: in.cfg.locations}
	if n, ok := in.cache.get(key); ok {
		in.cfg.logger.Trace("parse cache hit", slog.Int("length", len(source)))
		return n, nil
	}

	n, err := parser.Parse(source,
		parser.WithMode(in.cfg.mode),
		parser.WithLocations(in.cfg.locations),
		parser.WithLogger(in.cfg.logger),
	)
	if err != nil {
		return nil, err
	}
	in.cache.put(key, n)

	return n, nil
}

// Eval parses and evaluates source, returning its completion value.
func (in *Interpreter) Eval(ctx context.Context, source string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, ErrNotStarted.Wrap(err)
	}

	n, err := in.Parse(source)
	if err != nil {
		return nil, err
	}

	return in.EvalNode(ctx, n)
}

// EvalNode evaluates an already parsed tree. A bare statement or
// expression is run as a one statement program, so function declarations
// are hoisted. Module sources get their own module scope; scripts declare
// into the global scope. The context bounds top-level await.
func (in *Interpreter) EvalNode(ctx context.Context, n ast.Node) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, ErrNotStarted.Wrap(err)
	}

	prog, ok := n.(*ast.Program)
	if !ok {
		prog = &ast.Program{Body: []ast.Node{n}, SourceType: in.cfg.mode.String()}
	}

	st := in.stack.Copy().WithContext(ctx)
	if in.cfg.mode == parser.Module {
		st.PushScope(scope.Module)
	}

	start := time.Now()
	v, err := prog.Get(st)
	if err != nil {
		in.cfg.logger.DebugContext(ctx, "evaluation failed",
			slog.Int("statements", len(prog.Body)),
			slog.Any("error", err),
		)
		return nil, err
	}
	in.cfg.logger.DebugContext(ctx, "evaluated",
		slog.Int("statements", len(prog.Body)),
		slog.Duration("elapsed", time.Since(start)),
	)

	return v, nil
}

// Exports returns the values exported by module sources evaluated so far.
func (in *Interpreter) Exports() map[string]any {
	exports := in.stack.Exports()
	out := make(map[string]any)
	for _, k := range exports.Keys() {
		out[k] = exports.Value(k)
	}

	return out
}
