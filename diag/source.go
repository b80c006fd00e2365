package diag

import (
	"fmt"
	"log/slog"
	"strings"
)

// Position is a location in source text. Offset is a byte offset; Line and
// Column are 1-based.
type Position struct {
	Offset int `json:"offset" yaml:"offset"`
	Line   int `json:"line"   yaml:"line"`
	Column int `json:"column" yaml:"column"`
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// PositionOf computes the line and column of a byte offset in source.
func PositionOf(source string, offset int) Position {
	if offset > len(source) {
		offset = len(source)
	}
	if offset < 0 {
		offset = 0
	}

	line := 1 + strings.Count(source[:offset], "\n")
	col := offset + 1

	if i := strings.LastIndexByte(source[:offset], '\n'); i >= 0 {
		col = offset - i
	}

	return Position{Offset: offset, Line: line, Column: col}
}

// SourceError is a failure tied to a position in source text. Kind is one of
// [ErrLex] or [ErrParse].
type SourceError struct {
	Kind   *Error
	Msg    string
	Pos    Position
	Source string
}

// NewSourceError builds a positioned error of the given kind.
func NewSourceError(kind *Error, source string, pos Position, format string, args ...any) *SourceError {
	return &SourceError{
		Kind:   kind,
		Msg:    fmt.Sprintf(format, args...),
		Pos:    pos,
		Source: source,
	}
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s at %s: %s", e.Kind.msg, e.Pos, e.Msg)
}

// Unwrap exposes the error kind to [errors.Is].
func (e *SourceError) Unwrap() error { return e.Kind }

// LogValue implements slog.LogValuer.
func (e *SourceError) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("error", e.Kind.msg),
		slog.String("message", e.Msg),
		slog.Int("line", e.Pos.Line),
		slog.Int("column", e.Pos.Column),
	)
}

// Snippet renders the offending source line with a caret under the column.
// It returns an empty string when the source is unknown.
func (e *SourceError) Snippet() string {
	if e.Source == "" {
		return ""
	}

	lines := strings.Split(e.Source, "\n")
	if e.Pos.Line < 1 || e.Pos.Line > len(lines) {
		return ""
	}

	text := strings.TrimRight(lines[e.Pos.Line-1], "\r")
	prefix := fmt.Sprintf("%4d | ", e.Pos.Line)

	col := max(e.Pos.Column, 1)
	if col > len(text)+1 {
		col = len(text) + 1
	}

	var sb strings.Builder

	sb.WriteString(prefix)
	sb.WriteString(text)
	sb.WriteByte('\n')
	sb.WriteString(strings.Repeat(" ", len(prefix)+col-1))
	sb.WriteByte('^')

	return sb.String()
}
