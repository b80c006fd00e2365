// Package parser turns source text or a token slice into an [ast.Node]
// tree. It is a recursive descent parser that climbs operator precedence
// for binary expressions and builds every node through a [Factory].
//
// Parsing fails fast: the first problem aborts with a *[diag.SourceError]
// of kind [diag.ErrParse] (or [diag.ErrLex] for malformed tokens).
package parser

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/expressions/ast"
	"github.com/example/expressions/diag"
	"github.com/example/expressions/lexer"
	"github.com/example/expressions/log"
	"github.com/example/expressions/token"
)

// Mode selects the goal symbol of the source.
type Mode int

const (
	// Script is sloppy mode code without module declarations.
	Script Mode = iota
	// Module allows import and export declarations and top level await.
	Module
	// Strict is script code with strict mode restrictions.
	Strict
)

func (m Mode) String() string {
	switch m {
	case Module:
		return "module"
	case Strict:
		return "strict"
	}
	return "script"
}

// ParseMode converts a mode name, defaulting to [Script].
func ParseMode(s string) Mode {
	switch s {
	case "module":
		return Module
	case "strict":
		return Strict
	}
	return Script
}

type config struct {
	mode        Mode
	locations   bool
	factory     Factory
	acceptIN    bool
	expression  bool
	allowReturn bool
	source      string
	logger      log.Logger
}

// Option configures a parse.
type Option func(config) config

// WithMode sets the goal symbol.
func WithMode(mode Mode) Option {
	return func(c config) config {
		c.mode = mode
		return c
	}
}

// WithLocations records source locations on every node.
func WithLocations(enable bool) Option {
	return func(c config) config {
		c.locations = enable
		return c
	}
}

// WithFactory replaces the default node factory.
func WithFactory(f Factory) Option {
	return func(c config) config {
		c.factory = f
		return c
	}
}

// WithAcceptIN controls whether `in` is a binary operator at the top level.
// It is on by default.
func WithAcceptIN(accept bool) Option {
	return func(c config) config {
		c.acceptIN = accept
		return c
	}
}

// WithExpression unwraps a source holding one expression statement into
// the bare expression.
func WithExpression() Option {
	return func(c config) config {
		c.expression = true
		return c
	}
}

// WithReturn allows return statements outside of functions.
func WithReturn(allow bool) Option {
	return func(c config) config {
		c.allowReturn = allow
		return c
	}
}

// WithSource supplies the text a token slice was lexed from, used for
// locations and error snippets by [ParseTokens].
func WithSource(source string) Option {
	return func(c config) config {
		c.source = source
		return c
	}
}

// WithLogger traces parser rules at [log.LevelTrace].
func WithLogger(l log.Logger) Option {
	return func(c config) config {
		c.logger = l
		return c
	}
}

func makeConfig(opts ...Option) config {
	c := config{acceptIN: true}
	for _, opt := range opts {
		c = opt(c)
	}

	return c
}

// Parse parses source. A source with a single statement yields that
// statement; anything else yields an [ast.Program].
func Parse(source string, opts ...Option) (ast.Node, error) {
	cfg := makeConfig(opts...)
	cfg.source = source

	return run(lexer.NewStream(source), cfg)
}

// ParseTokens parses an already lexed token slice.
func ParseTokens(tokens []token.Token, opts ...Option) (ast.Node, error) {
	return run(lexer.FromTokens(tokens), makeConfig(opts...))
}

// ParseExpression parses source that must be a single expression.
func ParseExpression(source string, opts ...Option) (ast.Node, error) {
	n, err := Parse(source, append(opts, WithExpression())...)
	if err != nil {
		return nil, err
	}
	if !isExpression(n) {
		return nil, diag.NewSourceError(diag.ErrParse, source, diag.PositionOf(source, 0),
			"expected an expression, got %s", n.Type())
	}

	return n, nil
}

func run(s *lexer.Stream, cfg config) (node ast.Node, err error) {
	f := cfg.factory
	if f == nil {
		f = NewFactory(cfg.source, cfg.locations)
	}

	p := &Parser{
		s:        s,
		f:        f,
		cfg:      cfg,
		log:      cfg.logger,
		acceptIN: cfg.acceptIN,
		parens:   map[ast.Node]bool{},
	}

	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			node, err = nil, b.err
		}
	}()

	return p.parse(), nil
}

// bailout carries the first error up to [run].
type bailout struct{ err error }

// Parser holds the state of one parse. The current token is the next one to
// be consumed; peek and peekAhead look one and two tokens past it.
type Parser struct {
	s   *lexer.Stream
	f   Factory
	cfg config
	log log.Logger

	cur     token.Token
	prevEnd int

	acceptIN bool
	inStack  []bool

	fn     *frame
	frames []*frame

	// parens marks expressions written inside parentheses.
	parens map[ast.Node]bool
}

// Function kinds. A frame combines them; arrows inherit the super,
// new.target and field permissions of the enclosing frame.
type funcKind uint16

const (
	kindFunction funcKind = 1 << iota
	kindArrow
	kindAsync
	kindGenerator
	kindMethod
	kindDerived
	kindField
	kindNewTarget
	kindModule
)

const inherited = kindMethod | kindDerived | kindField | kindNewTarget

type label struct {
	name    string
	loop    bool
	pending bool
}

// frame is the per function parsing context.
type frame struct {
	kind     funcKind
	strict   bool
	labels   []label
	loops    int
	switches int
	prologue bool
}

func (p *Parser) parse() ast.Node {
	defer p.trace("program")()

	top := &frame{strict: p.cfg.mode != Script}
	sourceType := "script"
	if p.cfg.mode == Module {
		top.kind = kindModule
		sourceType = "module"
	}
	if p.cfg.allowReturn {
		top.kind |= kindFunction
	}
	p.fn = top
	p.next()

	start := p.cur.Start
	var body []ast.Node
	p.fn.prologue = true
	for !p.cur.Is(token.EOF) {
		body = append(body, p.parseModuleItem())
	}

	if len(body) == 1 {
		if es, ok := body[0].(*ast.ExpressionStatement); ok && p.cfg.expression && es.Directive == "" {
			return es.Expression
		}
		return body[0]
	}

	return p.f.Program(body, sourceType, p.rangeFrom(start))
}

func isExpression(n ast.Node) bool {
	switch n.(type) {
	case *ast.Program, *ast.ExpressionStatement, *ast.VariableDeclaration,
		*ast.FunctionDeclaration, *ast.ClassDeclaration, *ast.EmptyStatement,
		*ast.BlockStatement, *ast.IfStatement, *ast.ForStatement, *ast.ForInStatement,
		*ast.ForOfStatement, *ast.ForAwaitOfStatement, *ast.WhileStatement,
		*ast.DoWhileStatement, *ast.SwitchStatement, *ast.TryStatement,
		*ast.ThrowStatement, *ast.ReturnStatement, *ast.BreakStatement,
		*ast.ContinueStatement, *ast.LabeledStatement, *ast.DebuggerStatement,
		*ast.ImportDeclaration, *ast.ExportNamedDeclaration,
		*ast.ExportDefaultDeclaration, *ast.ExportAllDeclaration:
		return false
	}
	return true
}

// ---------- Tokens ----------

func (p *Parser) next() {
	p.prevEnd = p.cur.End
	p.cur = p.s.Next()
	if p.cur.Is(token.Illegal) {
		err := p.s.Err()
		if err == nil {
			err = p.errorAt(p.cur, "unexpected character %q", p.cur.Literal)
		}
		panic(bailout{err})
	}
}

func (p *Parser) peek() token.Token      { return p.s.Peek() }
func (p *Parser) peekAhead() token.Token { return p.s.PeekAhead() }

func (p *Parser) curIs(t token.TokenType) bool  { return p.cur.Type == t }
func (p *Parser) peekIs(t token.TokenType) bool { return p.s.Peek().Type == t }

// eat consumes the current token when it has type t.
func (p *Parser) eat(t token.TokenType) bool {
	if p.cur.Type != t {
		return false
	}
	p.next()
	return true
}

func (p *Parser) expect(t token.TokenType) token.Token {
	tok := p.cur
	if tok.Type != t {
		p.fail("expected %q, got %s", t.String(), describe(tok))
	}
	p.next()
	return tok
}

// expectWord consumes the contextual keyword word.
func (p *Parser) expectWord(word string) {
	if !p.cur.IsIdent(word) {
		p.fail("expected %q, got %s", word, describe(p.cur))
	}
	p.next()
}

// consumeSemicolon applies automatic semicolon insertion.
func (p *Parser) consumeSemicolon() {
	switch {
	case p.curIs(token.Semicolon):
		p.next()
	case p.curIs(token.RightBrace), p.curIs(token.EOF), p.cur.NewlineBefore:
	default:
		p.unexpected()
	}
}

func (p *Parser) rangeFrom(start int) Range { return Range{start, p.prevEnd} }

// span returns the recorded range of n, or an empty range.
func span(n ast.Node) Range {
	if l, ok := n.(ast.Locatable); ok && l.Location() != nil {
		return Range(l.Location().Range)
	}
	return Range{}
}

// ---------- State ----------

func (p *Parser) pushIN(accept bool) {
	p.inStack = append(p.inStack, p.acceptIN)
	p.acceptIN = accept
}

func (p *Parser) popIN() {
	n := len(p.inStack) - 1
	p.acceptIN = p.inStack[n]
	p.inStack = p.inStack[:n]
}

// pushFunction enters a function body of the given kind.
func (p *Parser) pushFunction(kind funcKind) {
	if kind&kindArrow != 0 {
		kind |= p.fn.kind & inherited
	}
	p.frames = append(p.frames, p.fn)
	p.fn = &frame{kind: kind, strict: p.fn.strict}
	p.pushIN(true)
}

func (p *Parser) popFunction() {
	p.popIN()
	n := len(p.frames) - 1
	p.fn = p.frames[n]
	p.frames = p.frames[:n]
}

func (p *Parser) awaitAllowed() bool { return p.fn.kind&(kindAsync|kindModule) != 0 }
func (p *Parser) yieldAllowed() bool { return p.fn.kind&kindGenerator != 0 }

// ---------- Errors ----------

func (p *Parser) errorAt(tok token.Token, format string, args ...any) *diag.SourceError {
	pos := diag.Position{Offset: tok.Start, Line: tok.Line, Column: tok.Column}
	if pos.Line == 0 && p.cfg.source != "" {
		pos = diag.PositionOf(p.cfg.source, tok.Start)
	}

	return diag.NewSourceError(diag.ErrParse, p.cfg.source, pos, format, args...)
}

// fail aborts the parse at the current token.
func (p *Parser) fail(format string, args ...any) {
	err := p.errorAt(p.cur, format, args...)
	p.log.Debug("parse failed", slog.Any("error", err))
	panic(bailout{err})
}

func (p *Parser) unexpected() {
	p.fail("unexpected %s", describe(p.cur))
}

func describe(tok token.Token) string {
	switch tok.Type {
	case token.EOF:
		return "end of input"
	case token.Identifier:
		return fmt.Sprintf("identifier %q", tok.Literal)
	case token.String, token.Number, token.BigInt:
		return fmt.Sprintf("literal %s", tok.Literal)
	}
	if tok.Literal != "" {
		return fmt.Sprintf("token %q", tok.Literal)
	}
	return fmt.Sprintf("token %q", tok.Type.String())
}

// trace logs entry to a grammar rule; the returned func logs the exit.
func (p *Parser) trace(rule string) func() {
	if !p.log.Enabled(context.Background(), log.LevelTrace) {
		return func() {}
	}

	p.log.Trace("enter "+rule,
		slog.String("token", p.cur.Literal),
		slog.Int("line", p.cur.Line),
		slog.Int("column", p.cur.Column))

	return func() { p.log.Trace("exit " + rule) }
}
