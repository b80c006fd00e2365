package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/expressions/interpreter"
	"github.com/example/expressions/log"
	"github.com/example/expressions/parser"
	"github.com/example/expressions/reactive"
	"github.com/example/expressions/runtime"
)

// Eval evaluates a source and prints its completion value.
type Eval struct {
	Input Input `embed:""`

	Module  bool          `help:"Evaluate as a module."`
	JSON    bool          `help:"Print the result as JSON."                                     short:"j"`
	Signals bool          `default:"true" help:"Predefine signal, computed, lazy, effect and untracked." negatable:""`
	Timeout time.Duration `help:"Give up waiting for a pending result after this long."`
}

// Run executes the eval command.
func (e *Eval) Run(ctx context.Context, streams Streams, cfg *settings) error {
	text, name, err := e.Input.read(streams.In)
	if err != nil {
		return err
	}

	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	in := cfg.interpreter(streams, interpreter.WithMode(mode(e.Module)))
	if e.Signals {
		reactive.NewSignalScope(reactive.WithLogger(log.Default())).Register(in.Global())
	}

	v, err := in.Eval(ctx, text)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if p, ok := v.(*runtime.Promise); ok {
		if v, err = runtime.AwaitContext(ctx, p); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	log.DebugContext(ctx, "eval finished", slog.String("source", name), slog.String("type", runtime.TypeOf(v)))

	return printValue(streams, v, e.JSON)
}

func printValue(streams Streams, v any, asJSON bool) error {
	if asJSON {
		data, err := json.MarshalIndent(runtime.Export(v), "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(streams.Out, string(data))
		return err
	}

	if runtime.IsUndefined(v) {
		return nil
	}
	_, err := fmt.Fprintln(streams.Out, runtime.Display(v))

	return err
}

func mode(module bool) parser.Mode {
	if module {
		return parser.Module
	}

	return parser.Script
}
