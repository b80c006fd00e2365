package lexer

import (
	"slices"

	"github.com/example/expressions/token"
)

// Stream is a lazy token sequence with two tokens of lookahead. It either
// lexes source on demand or replays a token slice produced elsewhere.
type Stream struct {
	lx     *Lexer
	replay []token.Token
	idx    int

	ahead []token.Token
	cur   token.Token
	last  token.Token // last token produced by the lexer, for the regex heuristic
	err   error
}

// NewStream returns a stream that lexes source lazily.
func NewStream(source string) *Stream {
	return &Stream{lx: New(source), last: token.Token{Type: token.EOF}}
}

// FromTokens returns a stream replaying list. A trailing EOF is implied.
func FromTokens(list []token.Token) *Stream {
	return &Stream{replay: list, last: token.Token{Type: token.EOF}}
}

// Source returns the lexed text, or "" for a replayed stream.
func (s *Stream) Source() string {
	if s.lx == nil {
		return ""
	}
	return s.lx.Source()
}

// Err returns the first lexing error. Once set, the stream only yields EOF.
func (s *Stream) Err() error { return s.err }

func (s *Stream) produce() token.Token {
	if s.err != nil {
		return s.eof()
	}
	if s.lx == nil {
		if s.idx < len(s.replay) {
			tok := s.replay[s.idx]
			s.idx++
			return tok
		}
		return s.eof()
	}

	tok, err := s.lx.Next(RegexAllowedAfter(s.last))
	if err != nil {
		s.err = err
		tok.Type = token.Illegal
		return tok
	}
	s.last = tok
	return tok
}

func (s *Stream) eof() token.Token {
	end := s.cur.End
	if n := len(s.replay); n > 0 && s.lx == nil {
		end = s.replay[n-1].End
	}
	return token.Token{Type: token.EOF, Start: end, End: end, Line: s.cur.Line, Column: s.cur.Column}
}

func (s *Stream) fill(n int) {
	for len(s.ahead) < n {
		s.ahead = append(s.ahead, s.produce())
	}
}

// Next consumes and returns the next token.
func (s *Stream) Next() token.Token {
	s.fill(1)
	s.cur = s.ahead[0]
	s.ahead = s.ahead[1:]
	return s.cur
}

// Current returns the most recently consumed token.
func (s *Stream) Current() token.Token { return s.cur }

// Peek returns the next token without consuming it.
func (s *Stream) Peek() token.Token {
	s.fill(1)
	return s.ahead[0]
}

// PeekAhead returns the token after the next one without consuming either.
func (s *Stream) PeekAhead() token.Token {
	s.fill(2)
	return s.ahead[1]
}

// HasLineTerminatorBeforeNext reports whether a line break separates the
// current token from the next one.
func (s *Stream) HasLineTerminatorBeforeNext() bool { return s.Peek().NewlineBefore }

// HasLineTerminatorAfterNext reports whether a line break separates the next
// token from the one after it.
func (s *Stream) HasLineTerminatorAfterNext() bool { return s.PeekAhead().NewlineBefore }

// ReadTokensConsiderPair appends tokens to list until it meets one of stops
// outside any bracket or template pair. The stop token is left unconsumed
// and returned; EOF always stops.
func (s *Stream) ReadTokensConsiderPair(list *[]token.Token, stops ...token.TokenType) token.TokenType {
	var pairs []token.TokenType

	for {
		tok := s.Peek()
		if tok.Type == token.EOF || tok.Type == token.Illegal {
			return tok.Type
		}
		if len(pairs) == 0 && slices.Contains(stops, tok.Type) {
			return tok.Type
		}
		s.Next()
		*list = append(*list, tok)

		switch {
		case token.IsOpenPair(tok.Type):
			pairs = append(pairs, token.CloseOf(tok.Type))
		case token.IsClosePair(tok.Type):
			if n := len(pairs); n > 0 && pairs[n-1] == tok.Type {
				pairs = pairs[:n-1]
			}
		}
	}
}

// ReadTill appends tokens up to and including the close token that balances
// an already consumed opener. It reports false when EOF comes first.
func (s *Stream) ReadTill(close token.TokenType, list *[]token.Token) bool {
	pairs := []token.TokenType{close}

	for {
		tok := s.Next()
		if tok.Type == token.EOF || tok.Type == token.Illegal {
			return false
		}
		*list = append(*list, tok)

		switch {
		case token.IsOpenPair(tok.Type):
			pairs = append(pairs, token.CloseOf(tok.Type))
		case token.IsClosePair(tok.Type):
			if pairs[len(pairs)-1] == tok.Type {
				pairs = pairs[:len(pairs)-1]
				if len(pairs) == 0 {
					return true
				}
			}
		}
	}
}
