package cli

import (
	"bytes"
	"context"
	"slices"
	"strings"
	"testing"

	"github.com/pterm/pterm"

	"github.com/example/expressions/interpreter"
)

func newTestSession(t *testing.T) (*session, *bytes.Buffer) {
	t.Helper()
	pterm.DisableStyling()
	t.Cleanup(pterm.EnableStyling)

	var out bytes.Buffer
	in := interpreter.New(interpreter.WithOutput(&out), interpreter.WithErrorOutput(&out))

	return newSession(in, &out), &out
}

func TestSessionEvaluates(t *testing.T) {
	s, out := newTestSession(t)
	ctx := context.Background()

	s.handle(ctx, "var cfg = {")
	if s.pending() == "" || out.Len() != 0 {
		t.Fatalf("unfinished input was evaluated: %q", out.String())
	}
	s.handle(ctx, "  port: 8080 }")
	if s.pending() != "" {
		t.Fatalf("input still pending: %q", s.pending())
	}
	out.Reset()

	s.handle(ctx, "cfg.port + 1")
	s.handle(ctx, "'text'")
	s.handle(ctx, "Promise.resolve([1, 'a'])")
	if got, want := out.String(), "8081\n\"text\"\n[ 1, 'a' ]\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	out.Reset()
	s.handle(ctx, "cfg.missing.port")
	if !strings.Contains(out.String(), "TypeError") {
		t.Errorf("error output: %q", out.String())
	}
	s.handle(ctx, "   ")
}

func TestSessionCommands(t *testing.T) {
	s, out := newTestSession(t)
	ctx := context.Background()

	if s.handle(ctx, ".help") || !strings.Contains(out.String(), ".names") {
		t.Errorf("help: %q", out.String())
	}

	out.Reset()
	s.handle(ctx, ".names Mth")
	if first, _, _ := strings.Cut(out.String(), "\n"); first != "Math" {
		t.Errorf("names: %q", out.String())
	}

	out.Reset()
	s.handle(ctx, ".tree 1 + x")
	if !strings.Contains(out.String(), "BinaryExpression") || !strings.Contains(out.String(), "Identifier x") {
		t.Errorf("tree: %q", out.String())
	}

	out.Reset()
	s.handle(ctx, ".bogus")
	if !strings.Contains(out.String(), "unknown command .bogus") {
		t.Errorf("unknown: %q", out.String())
	}

	if !s.handle(ctx, ".exit") {
		t.Error(".exit did not quit")
	}
}

func TestCompleter(t *testing.T) {
	s, _ := newTestSession(t)
	s.handle(context.Background(), "var server = { port: 1, path: '/' }")

	c := completer{names: s.in.Names, lookup: s.lookup}
	suffixes := func(line string) ([]string, int) {
		out, n := c.Do([]rune(line), len([]rune(line)))
		var got []string
		for _, r := range out {
			got = append(got, string(r))
		}
		slices.Sort(got)
		return got, n
	}

	tests := []struct {
		line   string
		want   []string
		length int
	}{
		{"1 + serv", []string{"er"}, 4},
		{"server.pa", []string{"th"}, 2},
		{"(server.po", []string{"rt"}, 2},
		{"server.hasOwnPr", []string{"operty"}, 8},
		{"Math.PI", []string{""}, 2},
		{"nothing.x", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, n := suffixes(tt.line)
			if !slices.Equal(got, tt.want) || n != tt.length {
				t.Errorf("got %q (%d), want %q (%d)", got, n, tt.want, tt.length)
			}
		})
	}
}

func TestRankNames(t *testing.T) {
	names := []string{"parseInt", "Promise", "print", "Proxy"}

	if got := rankNames("", names); !slices.Equal(got, names) {
		t.Errorf("empty query reordered names: %v", got)
	}
	if got := rankNames("Prox", names); !slices.Equal(got, []string{"Proxy"}) {
		t.Errorf("got %v", got)
	}
	if got := rankNames("zzz", names); len(got) != 0 {
		t.Errorf("got %v", got)
	}
}

func TestIncomplete(t *testing.T) {
	in := interpreter.New()
	for src, want := range map[string]bool{
		"function f() {": true,
		"[1, 2":          true,
		"1 +":            true,
		"1 + )":          false,
		"1 + 1":          false,
	} {
		_, err := in.Parse(src)
		if got := incomplete(err); got != want {
			t.Errorf("%q: got %v (%v)", src, got, err)
		}
	}
}
