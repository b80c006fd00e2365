package cli

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/cnf/structhash"
	"github.com/goccy/go-yaml"
	"github.com/pterm/pterm"

	"github.com/example/expressions/ast"
	"github.com/example/expressions/diag"
	"github.com/example/expressions/log"
	"github.com/example/expressions/parser"
)

// Parse prints the syntax tree of a source.
type Parse struct {
	Input Input `embed:""`

	Format    string `default:"json" enum:"json,yaml,tree" help:"Output format (${enum})." short:"f"`
	Module    bool   `help:"Parse as a module."`
	Locations bool   `help:"Record source locations on every node." short:"l"`
	Digest    bool   `help:"Print a digest of the tree instead of the tree."`
}

// Run executes the parse command.
func (p *Parse) Run(ctx context.Context, streams Streams) error {
	n, err := parseInput(p.Input, streams,
		parser.WithMode(mode(p.Module)),
		parser.WithLocations(p.Locations),
	)
	if err != nil {
		return err
	}

	if p.Digest {
		d, err := digest(n)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(streams.Out, d)
		return err
	}

	log.DebugContext(ctx, "parse finished", slog.String("root", n.Type()), slog.String("format", p.Format))

	switch p.Format {
	case "yaml":
		return writeYAML(streams.Out, n)
	case "tree":
		return writeTree(streams.Out, n)
	default:
		return writeJSON(streams.Out, n)
	}
}

// parseInput reads and parses the program text selected by in.
func parseInput(in Input, streams Streams, opts ...parser.Option) (ast.Node, error) {
	text, name, err := in.read(streams.In)
	if err != nil {
		return nil, err
	}

	n, err := parser.Parse(text, append(opts, parser.WithLogger(log.Default()))...)
	if err != nil {
		return nil, diag.WrapError(err).With(slog.String("source", name))
	}

	return n, nil
}

func writeJSON(w io.Writer, n ast.Node) error {
	data, err := json.MarshalIndent(n, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))

	return err
}

// writeYAML converts the JSON shape, keeping its key order.
func writeYAML(w io.Writer, n ast.Node) error {
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	out, err := yaml.JSONToYAML(data)
	if err != nil {
		return err
	}
	_, err = w.Write(out)

	return err
}

func writeTree(w io.Writer, n ast.Node) error {
	out, err := pterm.DefaultTree.WithRoot(treeNode(n)).Srender()
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)

	return err
}

// treeNode labels inner nodes with their type and leaves with their type
// and source.
func treeNode(n ast.Node) pterm.TreeNode {
	t := pterm.TreeNode{Text: n.Type()}
	for _, c := range n.Children() {
		// Walk skips absent children such as a missing else branch
		ast.Walk(c, func(c ast.Node) bool {
			t.Children = append(t.Children, treeNode(c))
			return false
		})
	}
	if len(t.Children) == 0 {
		t.Text += " " + n.String()
	}

	return t
}

type treeDigest struct {
	Tree string `hash:"name:tree"`
}

// digest identifies a tree by its serialized form, so two sources that
// differ only in layout share a digest unless locations were recorded.
func digest(n ast.Node) (string, error) {
	data, err := json.Marshal(n)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(structhash.Sha1(treeDigest{Tree: string(data)}, 1)), nil
}
