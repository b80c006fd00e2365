package cli

import (
	"io"
	"os"
)

// stdinSource is the file name that selects standard input.
const stdinSource = "-"

// Input selects where a command reads program text from.
type Input struct {
	Expr string `help:"Use the given text as the source." placeholder:"SOURCE" short:"e"`
	File string `arg:""                                 default:"-" help:"Source file or '-' for stdin." optional:""`
}

// read returns the program text and a name for it. An expression given
// with -e takes precedence over the file argument.
func (s Input) read(in io.Reader) (text, name string, err error) {
	if s.Expr != "" {
		return s.Expr, "<expr>", nil
	}

	if s.File == "" || s.File == stdinSource {
		data, err := io.ReadAll(in)
		return string(data), "<stdin>", err
	}

	data, err := os.ReadFile(s.File)
	if err != nil {
		return "", s.File, err
	}

	return string(data), s.File, nil
}
