// Package builtins provides the global environment scripts run against:
// constructors and prototypes of the standard objects, Math, JSON,
// console and the global functions.
package builtins

import (
	"io"
	"os"
	"sync"

	"github.com/example/expressions/log"
	"github.com/example/expressions/runtime"
	"github.com/example/expressions/scope"
)

type config struct {
	out    io.Writer
	errOut io.Writer
	logger log.Logger
}

// Option configures [Register].
type Option func(config) config

// WithOutput sets where console.log, info and debug write.
func WithOutput(w io.Writer) Option {
	return func(c config) config {
		c.out = w
		return c
	}
}

// WithErrorOutput sets where console.warn and error write.
func WithErrorOutput(w io.Writer) Option {
	return func(c config) config {
		c.errOut = w
		return c
	}
}

// WithLogger records console calls at trace level.
func WithLogger(l log.Logger) Option {
	return func(c config) config {
		c.logger = l
		return c
	}
}

var (
	intrinsicsOnce sync.Once
	intrinsics     []global
)

type global struct {
	name  string
	value any
}

// installIntrinsics fills the shared prototypes of package runtime and
// builds the constructors. It runs once per process.
func installIntrinsics() {
	runtime.NewRegExp = newRegExp

	intrinsics = []global{
		{"Object", createObjectConstructor()},
		{"Function", createFunctionConstructor()},
		{"Array", createArrayConstructor()},
		{"String", createStringConstructor()},
		{"Number", createNumberConstructor()},
		{"Boolean", createBooleanConstructor()},
		{"BigInt", createBigIntConstructor()},
		{"Symbol", createSymbolConstructor()},
		{"RegExp", createRegExpConstructor()},
		{"Promise", createPromiseConstructor()},
		{"Map", createMapConstructor()},
		{"Set", createSetConstructor()},
		{"Date", createDateConstructor()},
		{"Math", createMathObject()},
		{"JSON", createJSONObject()},
		{"Reflect", createReflectObject()},
	}
	installGeneratorPrototype()
	intrinsics = append(intrinsics, createErrorConstructors()...)
	intrinsics = append(intrinsics, globalFunctions()...)
}

// Register installs the global environment into ctx. globalThis refers
// to ctx itself.
func Register(ctx scope.Context, opts ...Option) {
	cfg := config{out: os.Stdout, errOut: os.Stderr}
	for _, opt := range opts {
		cfg = opt(cfg)
	}

	intrinsicsOnce.Do(installIntrinsics)

	for _, g := range intrinsics {
		ctx.Set(g.name, g.value)
	}
	ctx.Set("console", createConsoleObject(cfg))
	ctx.Set("globalThis", ctx)
}

// Names returns the names [Register] defines, in installation order.
func Names() []string {
	intrinsicsOnce.Do(installIntrinsics)

	names := make([]string, 0, len(intrinsics)+2)
	for _, g := range intrinsics {
		names = append(names, g.name)
	}

	return append(names, "console", "globalThis")
}
