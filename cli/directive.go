package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/example/expressions/directive"
	"github.com/example/expressions/log"
	"github.com/example/expressions/runtime"
	"github.com/example/expressions/scope"
)

// Directive parses the value of a structural directive attribute and
// prints its template declarations and inputs.
type Directive struct {
	Name       string `arg:"" help:"Directive attribute name, such as ngFor."`
	Expression string `arg:"" help:"Attribute value."`

	Eval    bool              `help:"Evaluate the inputs and template declarations instead of printing the tree."`
	Context map[string]string `help:"Template context entry as NAME=SOURCE, evaluated before the declarations." mapsep:"none" placeholder:"NAME=SOURCE" short:"C"`
}

// Run executes the directive command.
func (d *Directive) Run(ctx context.Context, streams Streams, cfg *settings) error {
	res, err := directive.Parse(d.Name, d.Expression, directive.WithLogger(log.Default()))
	if err != nil {
		return err
	}

	if !d.Eval {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(streams.Out, string(data))
		return err
	}

	in := cfg.interpreter(streams)
	tmplCtx := make(map[string]any, len(d.Context))
	for _, name := range slices.Sorted(maps.Keys(d.Context)) {
		v, err := in.Eval(ctx, d.Context[name])
		if err != nil {
			return fmt.Errorf("context %s: %w", name, err)
		}
		tmplCtx[name] = v
	}

	st := scope.NewGlobalStack(in.Global()).WithContext(ctx)
	inputs, err := res.Inputs(st)
	if err != nil {
		return err
	}
	bindings, err := res.Bindings(st, tmplCtx)
	if err != nil {
		return err
	}

	return printValue(streams, map[string]any{
		"inputs":   exportAll(inputs),
		"bindings": exportAll(bindings),
	}, true)
}

func exportAll(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		out[k] = runtime.Export(v)
	}

	return out
}
