// Package cli implements the expressions command line. Its commands
// evaluate, parse and format sources, inspect directives, run script test
// suites and start an interactive shell.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/alecthomas/kong"
)

const (
	// Name is the program name.
	Name = "expressions"
	// Description is the one line summary shown in help output.
	Description = "Parse, evaluate and inspect expression language sources."
)

// Streams are the standard streams commands read and write.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// StdStreams returns the process streams.
func StdStreams() Streams {
	return Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

// CLI is the top-level command tree.
type CLI struct {
	Log     logConfig     `embed:"" group:"log"     prefix:"log-"`
	Profile profileConfig `embed:"" group:"profile"`

	Config kong.ConfigFlag `help:"YAML configuration file." placeholder:"FILE" short:"c"`

	Eval      Eval      `cmd:"" default:"withargs" help:"Evaluate a source."`
	Parse     Parse     `cmd:""                    help:"Print the syntax tree of a source."`
	Fmt       Fmt       `cmd:""                    help:"Regenerate a source from its syntax tree."`
	Directive Directive `cmd:""                    help:"Parse a directive microsyntax."`
	Repl      Repl      `cmd:""                    help:"Start an interactive shell."`
	Test      Test      `cmd:""                    help:"Run a directory of script tests."`
}

// Run parses args and executes the selected command. exit is called by
// kong after printing help or a usage error.
func Run(ctx context.Context, streams Streams, exit func(code int), args ...string) error {
	var (
		cli CLI
		cfg settings
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Logger flags are applied before kong parses so that parse errors are
	// already logged with the requested level and format.
	cli.Log.scan(streams.Err, args)

	parser, err := kong.New(&cli,
		kong.Name(Name),
		kong.Description(Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.Writers(streams.Out, streams.Err),
		kong.ExplicitGroups([]kong.Group{cli.Log.group(), cli.Profile.group()}),
		kong.BindSingletonProvider(func() context.Context { return ctx }),
		kong.Bind(streams, &cfg),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			Summary:             true,
			NoExpandSubcommands: true,
		}),
		kong.Configuration(cfg.load),
		cli.Profile.vars(),
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	cli.Log.start(ctx, streams.Err)
	defer cli.Profile.start(ctx)()

	return ktx.Run()
}
