package cli

import (
	"context"
	"fmt"

	"github.com/example/expressions/parser"
)

// Fmt regenerates a source from its syntax tree, one statement per line.
type Fmt struct {
	Input Input `embed:""`

	Module bool `help:"Parse as a module."`
}

// Run executes the fmt command.
func (f *Fmt) Run(_ context.Context, streams Streams) error {
	n, err := parseInput(f.Input, streams, parser.WithMode(mode(f.Module)))
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(streams.Out, n.String())

	return err
}
