package cli

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/example/expressions/diag"
	"github.com/example/expressions/interpreter"
	"github.com/example/expressions/log"
)

// ErrConfig reports a malformed configuration file.
var ErrConfig = diag.NewError("configuration error")

// globalsKey is the configuration section predefining script globals.
const globalsKey = "globals"

// settings holds what a configuration file contributes beyond flag values.
type settings struct {
	globals map[string]any
}

// load is a [kong.ConfigurationLoader] for YAML files. Flag values may be
// given flat or grouped by their prefix; both of these set --log-level:
//
//	log-level: debug
//
//	log:
//	  level: debug
//
// Underscores may stand in for hyphens. The globals section is not a flag;
// its entries are predefined in every interpreter the commands create.
func (s *settings) load(r io.Reader) (kong.Resolver, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, ErrConfig.Wrap(err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, ErrConfig.Wrap(err)
	}

	if raw, ok := doc[globalsKey]; ok {
		globals, ok := raw.(map[string]any)
		if !ok {
			return nil, ErrConfig.Detail(fmt.Sprintf("%s must be a mapping, not %T", globalsKey, raw))
		}
		s.globals = make(map[string]any, len(globals))
		for k, v := range globals {
			s.globals[k] = hostValue(v)
		}
		delete(doc, globalsKey)
	}

	values := make(config)
	flatten(values, "", doc)
	log.Debug("configuration loaded",
		slog.Any("flags", slices.Sorted(maps.Keys(values))),
		slog.Int("globals", len(s.globals)),
	)

	return values, nil
}

// interpreter returns an interpreter writing to streams and seeded with
// the configured globals.
func (s *settings) interpreter(streams Streams, opts ...interpreter.Option) *interpreter.Interpreter {
	base := []interpreter.Option{
		interpreter.WithLogger(log.Default()),
		interpreter.WithOutput(streams.Out),
		interpreter.WithErrorOutput(streams.Err),
		interpreter.WithGlobals(s.globals),
	}

	return interpreter.New(append(base, opts...)...)
}

// config implements [kong.Resolver] over flattened YAML values.
type config map[string]any

// Validate implements [kong.Resolver]. Every key must name a flag.
func (c config) Validate(app *kong.Application) error {
	known := make(map[string]bool)
	_ = kong.Visit(app, func(n kong.Visitable, next kong.Next) error {
		if f, ok := n.(*kong.Flag); ok {
			known[f.Name] = true
		}
		return next(nil)
	})

	var unknown []string
	for k := range c {
		if !known[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		return ErrConfig.Detail("unknown keys: " + strings.Join(unknown, ", "))
	}

	return nil
}

// Resolve implements [kong.Resolver].
func (c config) Resolve(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
	if v, ok := c[flag.Name]; ok {
		return v, nil
	}

	return nil, nil
}

// flatten joins nested mapping keys with hyphens. Numbers become strings
// since kong parses them from text.
func flatten(out config, prefix string, doc map[string]any) {
	for k, v := range doc {
		name := strings.ReplaceAll(k, "_", "-")
		if prefix != "" {
			name = prefix + "-" + name
		}

		switch v := v.(type) {
		case map[string]any:
			flatten(out, name, v)
		case uint64:
			out[name] = strconv.FormatUint(v, 10)
		case int64:
			out[name] = strconv.FormatInt(v, 10)
		case float64:
			out[name] = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			out[name] = v
		}
	}
}

// hostValue converts decoded YAML into values scripts operate on: every
// number becomes a float64.
func hostValue(v any) any {
	switch v := v.(type) {
	case uint64:
		return float64(v)
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = hostValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = hostValue(e)
		}
		return out
	}

	return v
}
