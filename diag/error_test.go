package diag

import (
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorWrapKeepsSentinel(t *testing.T) {
	base := NewError("lookup failed")
	cause := fmt.Errorf("no such key")

	err := base.Wrap(cause).With(slog.String("key", "x"))

	require.ErrorIs(t, err, base)
	require.ErrorIs(t, err, cause)
	assert.Equal(t, "lookup failed: no such key", err.Error())
	assert.Len(t, err.Attrs(), 1)
}

func TestErrorDetail(t *testing.T) {
	base := NewError("has no implementation")
	err := base.Detail("Literal#set()")

	assert.Equal(t, "has no implementation: Literal#set()", err.Error())
	assert.True(t, errors.Is(err, base))
	assert.False(t, errors.Is(err, ErrParse))

	nested := ErrEvaluation.Detail("no implementation")
	leaf := nested.Detail("Literal#set()").With(slog.String("node", "Literal"))
	assert.ErrorIs(t, leaf, nested)
	assert.ErrorIs(t, leaf, ErrEvaluation)
	assert.Equal(t, "evaluation error: no implementation: Literal#set()", leaf.Error())
}

func TestWrapErrorReusesError(t *testing.T) {
	orig := ErrRegistry.Detail("unknown")
	wrapped := WrapError(fmt.Errorf("outer: %w", orig))

	assert.Same(t, orig, wrapped)
}

func TestPositionOf(t *testing.T) {
	src := "let a = 1;\nlet b = ;"

	pos := PositionOf(src, 19)
	assert.Equal(t, 2, pos.Line)
	assert.Equal(t, 9, pos.Column)

	assert.Equal(t, Position{Offset: 0, Line: 1, Column: 1}, PositionOf(src, 0))
}

func TestSourceErrorSnippet(t *testing.T) {
	src := "let a = 1;\nlet b = ;"
	err := NewSourceError(ErrParse, src, PositionOf(src, 19), "unexpected token %q", ";")

	require.ErrorIs(t, err, ErrParse)
	assert.Equal(t, `parse error at 2:9: unexpected token ";"`, err.Error())
	assert.Equal(t, "   2 | let b = ;\n               ^", err.Snippet())
}
