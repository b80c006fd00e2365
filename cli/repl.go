package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/pterm/pterm"

	"github.com/example/expressions/diag"
	"github.com/example/expressions/interpreter"
	"github.com/example/expressions/log"
	"github.com/example/expressions/parser"
	"github.com/example/expressions/reactive"
	"github.com/example/expressions/runtime"
)

const (
	replPrompt = "> "
	morePrompt = "… "
)

const replHelp = `Enter source to evaluate it. Unfinished input continues on the next line.

  .help           Print this help
  .names [QUERY]  List globals, ranked by a fuzzy QUERY
  .tree SOURCE    Print the syntax tree of SOURCE
  .exit           Leave (also Ctrl-D)
`

// Repl starts an interactive shell.
type Repl struct {
	History string `help:"History file."                                      placeholder:"FILE" type:"path"`
	Module  bool   `help:"Evaluate input as module code."`
	Signals bool   `default:"true" help:"Predefine signal, computed, lazy, effect and untracked." negatable:""`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context, streams Streams, cfg *settings) error {
	sess := newSession(cfg.interpreter(streams, interpreter.WithMode(mode(r.Module))), streams.Out)
	if r.Signals {
		reactive.NewSignalScope(reactive.WithLogger(log.Default())).Register(sess.in.Global())
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     r.History,
		AutoComplete:    completer{names: sess.in.Names, lookup: sess.lookup},
		InterruptPrompt: "^C",
		EOFPrompt:       ".exit",
		Stdin:           readCloser(streams.In),
		Stdout:          streams.Out,
		Stderr:          streams.Err,
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	log.DebugContext(ctx, "repl start", slog.String("history", r.History), slog.Bool("module", r.Module))
	for {
		line, err := rl.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			if line == "" && sess.pending() == "" {
				return nil
			}
			sess.reset()
			rl.SetPrompt(replPrompt)
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return err
		}

		if sess.handle(ctx, line) {
			return nil
		}
		if sess.pending() != "" {
			rl.SetPrompt(morePrompt)
		} else {
			rl.SetPrompt(replPrompt)
		}
	}
}

func readCloser(r io.Reader) io.ReadCloser {
	if f, ok := r.(*os.File); ok {
		return f
	}

	return io.NopCloser(r)
}

// session evaluates the lines of one shell against a single interpreter.
type session struct {
	in  *interpreter.Interpreter
	out io.Writer
	buf strings.Builder
}

func newSession(in *interpreter.Interpreter, out io.Writer) *session {
	return &session{in: in, out: out}
}

func (s *session) pending() string { return s.buf.String() }

func (s *session) reset() { s.buf.Reset() }

// handle processes one input line and reports whether the shell should
// end.
func (s *session) handle(ctx context.Context, line string) (quit bool) {
	if s.buf.Len() == 0 {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			return false
		}
		if strings.HasPrefix(trimmed, ".") {
			return s.command(trimmed)
		}
	}

	if s.buf.Len() > 0 {
		s.buf.WriteByte('\n')
	}
	s.buf.WriteString(line)

	v, err := s.in.Eval(ctx, s.buf.String())
	if incomplete(err) {
		return false
	}
	s.reset()

	if err == nil {
		if p, ok := v.(*runtime.Promise); ok {
			v, err = runtime.AwaitContext(ctx, p)
		}
	}
	if err != nil {
		fmt.Fprint(s.out, pterm.Error.Sprintln(err))
		return false
	}
	fmt.Fprintln(s.out, runtime.Inspect(v))

	return false
}

func (s *session) command(line string) (quit bool) {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case ".exit":
		return true
	case ".help":
		fmt.Fprint(s.out, replHelp)
	case ".names":
		for _, name := range rankNames(arg, s.in.Names()) {
			fmt.Fprintln(s.out, name)
		}
	case ".tree":
		n, err := parser.Parse(arg)
		if err == nil {
			err = writeTree(s.out, n)
		}
		if err != nil {
			fmt.Fprint(s.out, pterm.Error.Sprintln(err))
		}
	default:
		fmt.Fprint(s.out, pterm.Warning.Sprintln("unknown command "+name+", try .help"))
	}

	return false
}

// lookup resolves a dotted path of globals and properties, such as
// "Math" or "config.server", for member completion.
func (s *session) lookup(path string) (any, bool) {
	parts := strings.Split(path, ".")
	v, ok := s.in.Global().Get(parts[0])
	if !ok {
		return nil, false
	}
	for _, p := range parts[1:] {
		next, err := runtime.GetMember(v, p)
		if err != nil || runtime.IsNullish(next) {
			return nil, false
		}
		v = next
	}

	return v, true
}

// incomplete reports whether err is a parse that ran out of input, which
// more lines may complete.
func incomplete(err error) bool {
	return errors.Is(err, diag.ErrParse) && strings.Contains(err.Error(), "end of input")
}
