package lexer

import (
	"errors"
	"testing"

	"github.com/example/expressions/diag"
	"github.com/example/expressions/token"
)

type expectTok struct {
	typ token.TokenType
	lit string
}

func checkTokens(t *testing.T, input string, expected []expectTok) {
	t.Helper()
	tokens, err := Tokenize(input)
	if err != nil {
		t.Fatalf("Tokenize(%q): %v", input, err)
	}
	if len(tokens) != len(expected) {
		t.Fatalf("Tokenize(%q): expected %d tokens, got %d: %v", input, len(expected), len(tokens), tokens)
	}
	for i, exp := range expected {
		tok := tokens[i]
		if tok.Type != exp.typ {
			t.Errorf("test[%d]: type wrong. expected=%s, got=%s (lit=%q)", i, exp.typ, tok.Type, tok.Literal)
		}
		if tok.Literal != exp.lit {
			t.Errorf("test[%d]: literal wrong. expected=%q, got=%q", i, exp.lit, tok.Literal)
		}
	}
}

func TestPunctuators(t *testing.T) {
	checkTokens(t, `( ) { } [ ] ; : , ~ ... => ?. ?? ??= **= >>>= |> @`, []expectTok{
		{token.LeftParen, "("},
		{token.RightParen, ")"},
		{token.LeftBrace, "{"},
		{token.RightBrace, "}"},
		{token.LeftBracket, "["},
		{token.RightBracket, "]"},
		{token.Semicolon, ";"},
		{token.Colon, ":"},
		{token.Comma, ","},
		{token.BitwiseNot, "~"},
		{token.Spread, "..."},
		{token.Arrow, "=>"},
		{token.OptionalChain, "?."},
		{token.NullishCoalesce, "??"},
		{token.NullishAssign, "??="},
		{token.ExponentAssign, "**="},
		{token.UnsignedRightShiftAssign, ">>>="},
		{token.Pipeline, "|>"},
		{token.At, "@"},
		{token.EOF, ""},
	})
}

func TestOperators(t *testing.T) {
	checkTokens(t, `a + b ** c === d !== e && f || g >>> 1`, []expectTok{
		{token.Identifier, "a"},
		{token.Plus, "+"},
		{token.Identifier, "b"},
		{token.Exponent, "**"},
		{token.Identifier, "c"},
		{token.StrictEqual, "==="},
		{token.Identifier, "d"},
		{token.StrictNotEqual, "!=="},
		{token.Identifier, "e"},
		{token.And, "&&"},
		{token.Identifier, "f"},
		{token.Or, "||"},
		{token.Identifier, "g"},
		{token.UnsignedRightShift, ">>>"},
		{token.Number, "1"},
		{token.EOF, ""},
	})
}

func TestKeywordsAndContextualWords(t *testing.T) {
	checkTokens(t, `let of async await get from instanceof`, []expectTok{
		{token.Let, "let"},
		{token.Identifier, "of"},
		{token.Async, "async"},
		{token.Await, "await"},
		{token.Identifier, "get"},
		{token.Identifier, "from"},
		{token.Instanceof, "instanceof"},
		{token.EOF, ""},
	})
}

func TestNumberLiterals(t *testing.T) {
	tests := []struct {
		input string
		typ   token.TokenType
	}{
		{"42", token.Number},
		{"3.14", token.Number},
		{".5", token.Number},
		{"1e10", token.Number},
		{"2.5E-3", token.Number},
		{"0xFF", token.Number},
		{"0o17", token.Number},
		{"0b1010", token.Number},
		{"1_000_000", token.Number},
		{"123n", token.BigInt},
		{"0x1fn", token.BigInt},
	}

	for i, tt := range tests {
		l := New(tt.input)
		tok, err := l.Next(false)
		if err != nil {
			t.Fatalf("test[%d] %q: %v", i, tt.input, err)
		}
		if tok.Type != tt.typ || tok.Literal != tt.input {
			t.Errorf("test[%d]: expected %s %q, got %s %q", i, tt.typ, tt.input, tok.Type, tok.Literal)
		}
	}
}

func TestStringLiterals(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`"hello"`, "hello"},
		{`'world'`, "world"},
		{`"a\nb"`, "a\nb"},
		{`"\x41B\u{43}"`, "ABC"},
		{`"😀"`, "\U0001F600"},
		{`'it\'s'`, "it's"},
		{"'a\\\nb'", "ab"},
	}

	for i, tt := range tests {
		tok, err := New(tt.input).Next(false)
		if err != nil {
			t.Fatalf("test[%d] %q: %v", i, tt.input, err)
		}
		if tok.Type != token.String {
			t.Errorf("test[%d]: expected STRING, got %s", i, tok.Type)
		}
		if tok.Literal != tt.expected {
			t.Errorf("test[%d]: expected %q, got %q", i, tt.expected, tok.Literal)
		}
		if tok.Raw != tt.input {
			t.Errorf("test[%d]: raw expected %q, got %q", i, tt.input, tok.Raw)
		}
	}
}

func TestTemplateLiteral(t *testing.T) {
	checkTokens(t, "`a${x}b${ {y: 1}.y }c`", []expectTok{
		{token.TemplateHead, "a"},
		{token.Identifier, "x"},
		{token.TemplateMiddle, "b"},
		{token.LeftBrace, "{"},
		{token.Identifier, "y"},
		{token.Colon, ":"},
		{token.Number, "1"},
		{token.RightBrace, "}"},
		{token.Dot, "."},
		{token.Identifier, "y"},
		{token.TemplateTail, "c"},
		{token.EOF, ""},
	})
}

func TestTemplateRaw(t *testing.T) {
	tok, err := New("`a\\tb`").Next(false)
	if err != nil {
		t.Fatal(err)
	}
	if tok.Type != token.NoSubstitutionTemplate || tok.Literal != "a\tb" || tok.Raw != `a\tb` {
		t.Errorf("unexpected template token %+v", tok)
	}
}

func TestRegExpVsDivision(t *testing.T) {
	checkTokens(t, `x = a / b / c; y = /ab+c/gi.test(s)`, []expectTok{
		{token.Identifier, "x"},
		{token.Assign, "="},
		{token.Identifier, "a"},
		{token.Slash, "/"},
		{token.Identifier, "b"},
		{token.Slash, "/"},
		{token.Identifier, "c"},
		{token.Semicolon, ";"},
		{token.Identifier, "y"},
		{token.Assign, "="},
		{token.RegExp, "/ab+c/gi"},
		{token.Dot, "."},
		{token.Identifier, "test"},
		{token.LeftParen, "("},
		{token.Identifier, "s"},
		{token.RightParen, ")"},
		{token.EOF, ""},
	})
}

func TestPrivateNameAndOptionalDigit(t *testing.T) {
	checkTokens(t, `this.#count; a?.5:1`, []expectTok{
		{token.This, "this"},
		{token.Dot, "."},
		{token.PrivateName, "count"},
		{token.Semicolon, ";"},
		{token.Identifier, "a"},
		{token.QuestionMark, "?"},
		{token.Number, ".5"},
		{token.Colon, ":"},
		{token.Number, "1"},
		{token.EOF, ""},
	})
}

func TestCommentsAndNewlines(t *testing.T) {
	tokens, err := Tokenize("a // line\n/* block\n */ b c")
	if err != nil {
		t.Fatal(err)
	}
	if len(tokens) != 4 {
		t.Fatalf("expected 4 tokens, got %d", len(tokens))
	}
	if tokens[0].NewlineBefore {
		t.Error("first token must not have a newline before it")
	}
	if !tokens[1].NewlineBefore || tokens[1].Line != 3 {
		t.Errorf("b: newline=%v line=%d", tokens[1].NewlineBefore, tokens[1].Line)
	}
	if tokens[2].NewlineBefore {
		t.Error("c is on the same line as b")
	}
}

func TestPositions(t *testing.T) {
	tokens, err := Tokenize("let x\n  = 10")
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		line, col, start, end int
	}{
		{1, 1, 0, 3},
		{1, 5, 4, 5},
		{2, 3, 8, 9},
		{2, 5, 10, 12},
	}
	for i, tt := range tests {
		tok := tokens[i]
		if tok.Line != tt.line || tok.Column != tt.col || tok.Start != tt.start || tok.End != tt.end {
			t.Errorf("token[%d] %q: got %d:%d [%d,%d), want %d:%d [%d,%d)", i, tok.Literal,
				tok.Line, tok.Column, tok.Start, tok.End, tt.line, tt.col, tt.start, tt.end)
		}
	}
}

func TestLexErrors(t *testing.T) {
	tests := []struct {
		input string
		msg   string
		line  int
		col   int
	}{
		{`"abc`, "unterminated string", 1, 1},
		{"x = `abc", "unterminated template literal", 1, 5},
		{"a\n/* never", "unterminated comment", 2, 1},
		{"x = /abc", "unterminated regexp", 1, 5},
		{"0x", `invalid numeric literal "0x"`, 1, 1},
		{"3in x", "identifier starts immediately after numeric literal", 1, 1},
		{"a ¤ b", `unexpected character '¤'`, 1, 3},
	}

	for i, tt := range tests {
		_, err := Tokenize(tt.input)
		if err == nil {
			t.Errorf("test[%d] %q: expected error", i, tt.input)
			continue
		}
		if !errors.Is(err, diag.ErrLex) {
			t.Errorf("test[%d]: error %v is not a lex error", i, err)
		}
		var se *diag.SourceError
		if !errors.As(err, &se) {
			t.Fatalf("test[%d]: expected *diag.SourceError, got %T", i, err)
		}
		if se.Msg != tt.msg {
			t.Errorf("test[%d]: message expected %q, got %q", i, tt.msg, se.Msg)
		}
		if se.Pos.Line != tt.line || se.Pos.Column != tt.col {
			t.Errorf("test[%d]: position expected %d:%d, got %s", i, tt.line, tt.col, se.Pos)
		}
	}
}

func TestStreamLookahead(t *testing.T) {
	s := NewStream("a b\nc")

	if s.Peek().Literal != "a" || s.PeekAhead().Literal != "b" {
		t.Fatalf("lookahead wrong: %q %q", s.Peek().Literal, s.PeekAhead().Literal)
	}
	if tok := s.Next(); tok.Literal != "a" || s.Current().Literal != "a" {
		t.Fatalf("Next returned %q", tok.Literal)
	}
	if s.HasLineTerminatorBeforeNext() {
		t.Error("no newline between a and b")
	}
	if !s.HasLineTerminatorAfterNext() {
		t.Error("newline between b and c")
	}
	s.Next()
	s.Next()
	if !s.Peek().Is(token.EOF) {
		t.Errorf("expected EOF, got %s", s.Peek().Type)
	}
}

func TestStreamKeepsRegexHeuristicWithLookahead(t *testing.T) {
	s := NewStream("(a) / 2")
	var types []token.TokenType
	for tok := s.Next(); !tok.Is(token.EOF); tok = s.Next() {
		types = append(types, tok.Type)
	}
	if len(types) != 5 || types[3] != token.Slash {
		t.Errorf("unexpected token types %v", types)
	}
}

func TestReadTokensConsiderPair(t *testing.T) {
	s := NewStream("f(a, b), [c; d]; `${x; y}` rest")

	var first []token.Token
	stop := s.ReadTokensConsiderPair(&first, token.Comma, token.Semicolon)
	if stop != token.Comma || len(first) != 6 {
		t.Fatalf("first slice: stop=%s len=%d", stop, len(first))
	}
	s.Next()

	var second []token.Token
	stop = s.ReadTokensConsiderPair(&second, token.Comma, token.Semicolon)
	if stop != token.Semicolon || len(second) != 5 {
		t.Fatalf("second slice: stop=%s len=%d", stop, len(second))
	}
	s.Next()

	var third []token.Token
	stop = s.ReadTokensConsiderPair(&third, token.Semicolon)
	if stop != token.EOF {
		t.Fatalf("third slice should run to EOF, stopped at %s", stop)
	}
	if third[len(third)-1].Literal != "rest" {
		t.Errorf("template pair not respected: %v", third)
	}
}

func TestReadTill(t *testing.T) {
	s := NewStream("{ a: [1, {b}] } tail")
	s.Next()

	var list []token.Token
	if !s.ReadTill(token.RightBrace, &list) {
		t.Fatal("ReadTill hit EOF")
	}
	if last := list[len(list)-1]; !last.Is(token.RightBrace) || len(list) != 10 {
		t.Errorf("unexpected read: %d tokens ending with %s", len(list), last.Type)
	}
	if s.Peek().Literal != "tail" {
		t.Errorf("stream positioned at %q", s.Peek().Literal)
	}
}

func TestStreamError(t *testing.T) {
	s := NewStream(`a "oops`)
	s.Next()
	if tok := s.Next(); !tok.Is(token.Illegal) {
		t.Fatalf("expected ILLEGAL, got %s", tok.Type)
	}
	if !errors.Is(s.Err(), diag.ErrLex) {
		t.Fatalf("expected lex error, got %v", s.Err())
	}
	if !s.Next().Is(token.EOF) {
		t.Error("stream must only yield EOF after an error")
	}
}

func TestFromTokens(t *testing.T) {
	tokens, err := Tokenize("x + 1")
	if err != nil {
		t.Fatal(err)
	}
	s := FromTokens(tokens[:2])
	s.Next()
	s.Next()
	if !s.Next().Is(token.EOF) {
		t.Error("replayed stream must end with EOF")
	}
}
