package builtins

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/example/expressions/runtime"
)

func createConsoleObject(cfg config) *runtime.Object {
	console := runtime.NewObject(runtime.ObjectPrototype)

	method(console, "log", 0, consolePrinter(cfg, cfg.out, "log"))
	method(console, "info", 0, consolePrinter(cfg, cfg.out, "info"))
	method(console, "debug", 0, consolePrinter(cfg, cfg.out, "debug"))
	method(console, "warn", 0, consolePrinter(cfg, cfg.errOut, "warn"))
	method(console, "error", 0, consolePrinter(cfg, cfg.errOut, "error"))

	return console
}

func consolePrinter(cfg config, w io.Writer, level string) runtime.NativeFunc {
	return func(_ any, args []any) (any, error) {
		line := formatArgs(args)
		cfg.logger.Trace("console", slog.String("level", level), slog.String("line", line))
		if w != nil {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return nil, err
			}
		}

		return runtime.Undefined, nil
	}
}

// formatArgs joins console arguments the way a terminal console prints
// them: strings verbatim, everything else inspected.
func formatArgs(args []any) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = runtime.Display(a)
	}

	return strings.Join(parts, " ")
}
