package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/example/expressions/diag"
	"github.com/example/expressions/token"
)

// Lexer turns source text into tokens one at a time. It does not decide on
// its own whether a '/' starts a regular expression; callers pass that hint
// to [Lexer.Next].
type Lexer struct {
	input   string
	pos     int // current position in input (points to current char)
	readPos int // current reading position (after current char)
	ch      rune
	line    int
	col     int

	// template interpolation tracking
	braceDepth    int
	templateStack []int

	newline bool
}

func New(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
		col:   0,
	}
	l.readChar()
	return l
}

// Source returns the text being lexed.
func (l *Lexer) Source() string { return l.input }

func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0
		l.pos = len(l.input)
		l.readPos = len(l.input) + 1
		l.col++
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPos:])
	l.ch = r
	l.pos = l.readPos
	l.readPos += size
	l.col++
}

func (l *Lexer) atEnd() bool { return l.pos >= len(l.input) }

func (l *Lexer) peekChar() rune { return l.peekCharAt(0) }

func (l *Lexer) peekCharAt(offset int) rune {
	pos := l.readPos + offset
	if pos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[pos:])
	return r
}

func (l *Lexer) newLine() {
	l.line++
	l.col = 0
	l.newline = true
}

func (l *Lexer) errorf(line, col, offset int, format string, args ...any) error {
	return diag.NewSourceError(diag.ErrLex, l.input,
		diag.Position{Offset: offset, Line: line, Column: col}, format, args...)
}

func (l *Lexer) skipWhitespaceAndComments() error {
	for {
		switch {
		case l.ch == '\n' || l.ch == '\u2028' || l.ch == '\u2029':
			l.newLine()
			l.readChar()
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\v' || l.ch == '\f' ||
			l.ch == '\u00a0' || l.ch == '\ufeff':
			l.readChar()
		case l.ch == '/' && l.peekChar() == '/':
			for l.ch != '\n' && !l.atEnd() {
				l.readChar()
			}
		case l.ch == '/' && l.peekChar() == '*':
			line, col, start := l.line, l.col, l.pos
			l.readChar()
			l.readChar()
			for !(l.ch == '*' && l.peekChar() == '/') {
				if l.atEnd() {
					return l.errorf(line, col, start, "unterminated comment")
				}
				if l.ch == '\n' {
					l.newLine()
				}
				l.readChar()
			}
			l.readChar()
			l.readChar()
		case l.ch == '#' && l.peekChar() == '!' && l.pos == 0:
			// hashbang line
			for l.ch != '\n' && !l.atEnd() {
				l.readChar()
			}
		default:
			return nil
		}
	}
}

// punctuators is ordered longest first so the first prefix match wins.
var punctuators = []struct {
	text string
	tt   token.TokenType
}{
	{">>>=", token.UnsignedRightShiftAssign},
	{"...", token.Spread},
	{"===", token.StrictEqual},
	{"!==", token.StrictNotEqual},
	{"**=", token.ExponentAssign},
	{"<<=", token.LeftShiftAssign},
	{">>=", token.RightShiftAssign},
	{">>>", token.UnsignedRightShift},
	{"&&=", token.AndAssign},
	{"||=", token.OrAssign},
	{"??=", token.NullishAssign},
	{"=>", token.Arrow},
	{"==", token.Equal},
	{"!=", token.NotEqual},
	{"<=", token.LessThanOrEqual},
	{">=", token.GreaterThanOrEqual},
	{"&&", token.And},
	{"||", token.Or},
	{"??", token.NullishCoalesce},
	{"?.", token.OptionalChain},
	{"++", token.Increment},
	{"--", token.Decrement},
	{"+=", token.PlusAssign},
	{"-=", token.MinusAssign},
	{"*=", token.AsteriskAssign},
	{"/=", token.SlashAssign},
	{"%=", token.PercentAssign},
	{"&=", token.AmpersandAssign},
	{"|=", token.PipeAssign},
	{"^=", token.CaretAssign},
	{"**", token.Exponent},
	{"<<", token.LeftShift},
	{">>", token.RightShift},
	{"|>", token.Pipeline},
	{"(", token.LeftParen},
	{")", token.RightParen},
	{"[", token.LeftBracket},
	{"]", token.RightBracket},
	{"{", token.LeftBrace},
	{"}", token.RightBrace},
	{";", token.Semicolon},
	{":", token.Colon},
	{",", token.Comma},
	{".", token.Dot},
	{"?", token.QuestionMark},
	{"~", token.BitwiseNot},
	{"!", token.Not},
	{"=", token.Assign},
	{"<", token.LessThan},
	{">", token.GreaterThan},
	{"+", token.Plus},
	{"-", token.Minus},
	{"*", token.Asterisk},
	{"/", token.Slash},
	{"%", token.Percent},
	{"&", token.BitwiseAnd},
	{"|", token.BitwiseOr},
	{"^", token.BitwiseXor},
	{"@", token.At},
}

// Next returns the next token. When regexAllowed is set a '/' starts a
// regular expression literal instead of a division operator.
func (l *Lexer) Next(regexAllowed bool) (token.Token, error) {
	l.newline = false
	if err := l.skipWhitespaceAndComments(); err != nil {
		return token.Token{Type: token.Illegal}, err
	}
	newline := l.newline

	tok, err := l.scan(regexAllowed)
	tok.NewlineBefore = newline
	if tok.End == 0 {
		tok.End = l.pos
	}
	return tok, err
}

func (l *Lexer) scan(regexAllowed bool) (token.Token, error) {
	line, col, start := l.line, l.col, l.pos
	newline := l.newline

	mk := func(tt token.TokenType, lit string) token.Token {
		return token.Token{Type: tt, Literal: lit, Start: start, End: l.pos, Line: line, Column: col, NewlineBefore: newline}
	}

	// A '}' matching an open interpolation resumes the template.
	if l.ch == '}' && len(l.templateStack) > 0 && l.braceDepth-1 == l.templateStack[len(l.templateStack)-1] {
		l.templateStack = l.templateStack[:len(l.templateStack)-1]
		l.readChar()
		l.braceDepth--
		return l.readTemplate(line, col, start, true)
	}

	switch {
	case l.atEnd():
		return mk(token.EOF, ""), nil
	case l.ch == '`':
		l.readChar()
		return l.readTemplate(line, col, start, false)
	case l.ch == '"' || l.ch == '\'':
		return l.readString(line, col, start)
	case isDigit(l.ch) || (l.ch == '.' && isDigit(l.peekChar())):
		return l.readNumber(line, col, start)
	case isIdentStart(l.ch) || (l.ch == '\\' && l.peekChar() == 'u'):
		name, err := l.readIdentifierName(line, col, start)
		if err != nil {
			return mk(token.Illegal, name), err
		}
		return mk(token.LookupIdentifier(name), name), nil
	case l.ch == '#':
		l.readChar()
		if !isIdentStart(l.ch) {
			return mk(token.Illegal, "#"), l.errorf(line, col, start, "invalid private name")
		}
		name, err := l.readIdentifierName(line, col, start)
		return mk(token.PrivateName, name), err
	case l.ch == '/' && regexAllowed:
		return l.readRegExp(line, col, start)
	case l.ch == '?' && l.peekChar() == '.' && isDigit(l.peekCharAt(1)):
		// a ?.5 : b is a conditional, not an optional chain
		l.readChar()
		return mk(token.QuestionMark, "?"), nil
	}

	rest := l.input[l.pos:]
	for _, p := range punctuators {
		if !strings.HasPrefix(rest, p.text) {
			continue
		}
		for range len(p.text) {
			l.readChar()
		}
		switch p.tt {
		case token.LeftBrace:
			l.braceDepth++
		case token.RightBrace:
			l.braceDepth--
		}
		return mk(p.tt, p.text), nil
	}

	ch := l.ch
	l.readChar()
	return mk(token.Illegal, string(ch)), l.errorf(line, col, start, "unexpected character %q", ch)
}

func (l *Lexer) readIdentifierName(line, col, start int) (string, error) {
	from := l.pos
	var buf strings.Builder
	hasEscape := false

	for isIdentPart(l.ch) || l.ch == '\\' {
		if l.ch != '\\' {
			buf.WriteRune(l.ch)
			l.readChar()
			continue
		}
		hasEscape = true
		l.readChar()
		if l.ch != 'u' {
			return buf.String(), l.errorf(line, col, start, "invalid escape in identifier")
		}
		l.readChar()
		r := l.readUnicodeEscape()
		if r < 0 {
			return buf.String(), l.errorf(line, col, start, "invalid unicode escape")
		}
		buf.WriteRune(rune(r))
	}

	if hasEscape {
		return buf.String(), nil
	}
	return l.input[from:l.pos], nil
}

// writeUTF16CodeUnit writes a lone surrogate using WTF-8, which WriteRune
// would replace with U+FFFD.
func writeUTF16CodeUnit(buf *strings.Builder, cu uint16) {
	switch {
	case cu < 0x80:
		buf.WriteByte(byte(cu))
	case cu < 0x800:
		buf.WriteByte(byte(0xC0 | (cu >> 6)))
		buf.WriteByte(byte(0x80 | (cu & 0x3F)))
	default:
		buf.WriteByte(byte(0xE0 | (cu >> 12)))
		buf.WriteByte(byte(0x80 | ((cu >> 6) & 0x3F)))
		buf.WriteByte(byte(0x80 | (cu & 0x3F)))
	}
}

func (l *Lexer) readUnicodeEscape() int {
	if l.ch == '{' {
		l.readChar()
		val, digits := 0, 0
		for l.ch != '}' && !l.atEnd() {
			d := hexVal(l.ch)
			if d < 0 {
				return -1
			}
			val = val*16 + d
			digits++
			l.readChar()
		}
		if l.ch != '}' || digits == 0 || val > 0x10FFFF {
			return -1
		}
		l.readChar()
		return val
	}
	val := 0
	for range 4 {
		d := hexVal(l.ch)
		if d < 0 {
			return -1
		}
		val = val*16 + d
		l.readChar()
	}
	return val
}

// readEscape consumes one escape sequence after the backslash and writes its
// cooked value. The current char is the one following '\'.
func (l *Lexer) readEscape(buf *strings.Builder, line, col, start int) error {
	switch l.ch {
	case 'n':
		buf.WriteByte('\n')
	case 'r':
		buf.WriteByte('\r')
	case 't':
		buf.WriteByte('\t')
	case 'b':
		buf.WriteByte('\b')
	case 'f':
		buf.WriteByte('\f')
	case 'v':
		buf.WriteByte('\v')
	case '0', '1', '2', '3', '4', '5', '6', '7':
		// legacy octal escape
		val := int(l.ch - '0')
		l.readChar()
		if isOctalDigit(l.ch) {
			val = val*8 + int(l.ch-'0')
			l.readChar()
			if val <= 037 && isOctalDigit(l.ch) {
				val = val*8 + int(l.ch-'0')
				l.readChar()
			}
		}
		buf.WriteRune(rune(val))
		return nil
	case 'x':
		l.readChar()
		d1 := hexVal(l.ch)
		l.readChar()
		d2 := hexVal(l.ch)
		if d1 < 0 || d2 < 0 {
			return l.errorf(line, col, start, "invalid hexadecimal escape sequence")
		}
		buf.WriteRune(rune(d1*16 + d2))
	case 'u':
		l.readChar()
		r := l.readUnicodeEscape()
		if r < 0 {
			return l.errorf(line, col, start, "invalid unicode escape sequence")
		}
		if r >= 0xD800 && r <= 0xDBFF && l.ch == '\\' && l.peekChar() == 'u' {
			savedPos, savedReadPos, savedCh, savedCol := l.pos, l.readPos, l.ch, l.col
			l.readChar()
			l.readChar()
			if r2 := l.readUnicodeEscape(); r2 >= 0xDC00 && r2 <= 0xDFFF {
				buf.WriteRune(rune(0x10000 + (r-0xD800)*0x400 + (r2 - 0xDC00)))
				return nil
			}
			l.pos, l.readPos, l.ch, l.col = savedPos, savedReadPos, savedCh, savedCol
			writeUTF16CodeUnit(buf, uint16(r))
			return nil
		}
		if r >= 0xD800 && r <= 0xDFFF {
			writeUTF16CodeUnit(buf, uint16(r))
			return nil
		}
		buf.WriteRune(rune(r))
		return nil
	case '\r':
		if l.peekChar() == '\n' {
			l.readChar()
		}
		l.line++
		l.col = 0
		l.readChar()
		return nil
	case '\n', '\u2028', '\u2029':
		// line continuation
		l.line++
		l.col = 0
		l.readChar()
		return nil
	default:
		buf.WriteRune(l.ch)
	}
	l.readChar()
	return nil
}

func (l *Lexer) readString(line, col, start int) (token.Token, error) {
	quote := l.ch
	l.readChar()
	var buf strings.Builder

	for l.ch != quote {
		if l.atEnd() || l.ch == '\n' {
			return token.Token{Type: token.Illegal, Start: start, Line: line, Column: col},
				l.errorf(line, col, start, "unterminated string")
		}
		if l.ch == '\\' {
			l.readChar()
			if err := l.readEscape(&buf, line, col, start); err != nil {
				return token.Token{Type: token.Illegal, Start: start, Line: line, Column: col}, err
			}
			continue
		}
		buf.WriteRune(l.ch)
		l.readChar()
	}
	l.readChar()

	return token.Token{
		Type: token.String, Literal: buf.String(), Raw: l.input[start:l.pos],
		Start: start, End: l.pos, Line: line, Column: col,
	}, nil
}

func (l *Lexer) readNumber(line, col, start int) (token.Token, error) {
	mk := func(tt token.TokenType) (token.Token, error) {
		tok := token.Token{Type: tt, Literal: l.input[start:l.pos], Start: start, End: l.pos, Line: line, Column: col}
		if isIdentStart(l.ch) {
			return tok, l.errorf(line, col, start, "identifier starts immediately after numeric literal")
		}
		return tok, nil
	}

	if l.ch == '0' {
		var digit func(rune) bool
		switch l.peekChar() {
		case 'x', 'X':
			digit = isHexDigit
		case 'o', 'O':
			digit = isOctalDigit
		case 'b', 'B':
			digit = func(r rune) bool { return r == '0' || r == '1' }
		}
		if digit != nil {
			l.readChar()
			l.readChar()
			if !digit(l.ch) {
				return token.Token{Type: token.Illegal, Start: start, Line: line, Column: col},
					l.errorf(line, col, start, "invalid numeric literal %q", l.input[start:l.pos])
			}
			for digit(l.ch) || l.ch == '_' {
				l.readChar()
			}
			if l.ch == 'n' {
				l.readChar()
				return mk(token.BigInt)
			}
			return mk(token.Number)
		}
	}

	l.readDecimalDigits()
	isInteger := true
	if l.ch == '.' {
		isInteger = false
		l.readChar()
		l.readDecimalDigits()
	}
	if l.ch == 'e' || l.ch == 'E' {
		isInteger = false
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			l.readChar()
		}
		if !isDigit(l.ch) {
			return token.Token{Type: token.Illegal, Start: start, Line: line, Column: col},
				l.errorf(line, col, start, "invalid exponent in numeric literal")
		}
		l.readDecimalDigits()
	}
	if l.ch == 'n' && isInteger {
		l.readChar()
		return mk(token.BigInt)
	}
	return mk(token.Number)
}

func (l *Lexer) readDecimalDigits() {
	for isDigit(l.ch) || (l.ch == '_' && isDigit(l.peekChar())) {
		l.readChar()
	}
}

// readTemplate reads a template part. The opening backtick or the '}' ending
// an interpolation has been consumed; continuation selects the token types
// used for middle and tail parts.
func (l *Lexer) readTemplate(line, col, start int, continuation bool) (token.Token, error) {
	var buf strings.Builder
	rawStart := l.pos

	for {
		if l.atEnd() {
			return token.Token{Type: token.Illegal, Start: start, Line: line, Column: col},
				l.errorf(line, col, start, "unterminated template literal")
		}
		if l.ch == '`' {
			raw := l.input[rawStart:l.pos]
			l.readChar()
			tt := token.NoSubstitutionTemplate
			if continuation {
				tt = token.TemplateTail
			}
			return token.Token{Type: tt, Literal: buf.String(), Raw: raw, Start: start, End: l.pos, Line: line, Column: col}, nil
		}
		if l.ch == '$' && l.peekChar() == '{' {
			raw := l.input[rawStart:l.pos]
			l.readChar()
			l.readChar()
			l.templateStack = append(l.templateStack, l.braceDepth)
			l.braceDepth++
			tt := token.TemplateHead
			if continuation {
				tt = token.TemplateMiddle
			}
			return token.Token{Type: tt, Literal: buf.String(), Raw: raw, Start: start, End: l.pos, Line: line, Column: col}, nil
		}
		if l.ch == '\\' {
			l.readChar()
			if err := l.readEscape(&buf, line, col, start); err != nil {
				return token.Token{Type: token.Illegal, Start: start, Line: line, Column: col}, err
			}
			continue
		}
		if l.ch == '\n' {
			buf.WriteByte('\n')
			l.line++
			l.col = 0
			l.readChar()
			continue
		}
		buf.WriteRune(l.ch)
		l.readChar()
	}
}

func (l *Lexer) readRegExp(line, col, start int) (token.Token, error) {
	l.readChar()
	inClass := false
	for {
		if l.atEnd() || l.ch == '\n' || l.ch == '\r' {
			return token.Token{Type: token.Illegal, Start: start, Line: line, Column: col},
				l.errorf(line, col, start, "unterminated regexp")
		}
		if l.ch == '\\' {
			l.readChar()
			if l.atEnd() || l.ch == '\n' {
				return token.Token{Type: token.Illegal, Start: start, Line: line, Column: col},
					l.errorf(line, col, start, "unterminated regexp")
			}
			l.readChar()
			continue
		}
		switch {
		case l.ch == '[':
			inClass = true
		case l.ch == ']':
			inClass = false
		case l.ch == '/' && !inClass:
			l.readChar()
			for isIdentPart(l.ch) {
				l.readChar()
			}
			return token.Token{Type: token.RegExp, Literal: l.input[start:l.pos], Start: start, End: l.pos, Line: line, Column: col}, nil
		}
		l.readChar()
	}
}

// Tokenize lexes the whole input using the same regex heuristic as [Stream].
func Tokenize(input string) ([]token.Token, error) {
	l := New(input)
	var tokens []token.Token
	prev := token.Token{Type: token.EOF}

	for {
		tok, err := l.Next(RegexAllowedAfter(prev))
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			return tokens, nil
		}
		prev = tok
	}
}

// RegexAllowedAfter reports whether a '/' following prev begins a regular
// expression literal.
func RegexAllowedAfter(prev token.Token) bool {
	switch prev.Type {
	case token.Identifier, token.PrivateName, token.Number, token.BigInt, token.String,
		token.RegExp, token.True, token.False, token.Null, token.This, token.Super,
		token.RightParen, token.RightBracket, token.RightBrace,
		token.Increment, token.Decrement,
		token.NoSubstitutionTemplate, token.TemplateTail:
		return false
	}
	return true
}

func isDigit(ch rune) bool { return ch >= '0' && ch <= '9' }

func isHexDigit(ch rune) bool { return hexVal(ch) >= 0 }

func isOctalDigit(ch rune) bool { return ch >= '0' && ch <= '7' }

func isIdentStart(ch rune) bool {
	return ch == '_' || ch == '$' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') ||
		(ch > 127 && unicode.IsLetter(ch))
}

func isIdentPart(ch rune) bool {
	return isIdentStart(ch) || isDigit(ch) || ch == '\u200c' || ch == '\u200d' ||
		(ch > 127 && (unicode.Is(unicode.Mn, ch) || unicode.Is(unicode.Mc, ch) || unicode.Is(unicode.Nd, ch)))
}

func hexVal(ch rune) int {
	switch {
	case ch >= '0' && ch <= '9':
		return int(ch - '0')
	case ch >= 'a' && ch <= 'f':
		return int(ch-'a') + 10
	case ch >= 'A' && ch <= 'F':
		return int(ch-'A') + 10
	default:
		return -1
	}
}
