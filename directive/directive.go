// Package directive parses the microsyntax of structural directive
// attributes, such as `let item of items; let i = index; trackBy: byID`.
//
// A directive expression splits into template bindings, declarations run
// in the scope of each rendered template, and directive inputs, plain
// expressions the directive itself evaluates.
package directive

import (
	"encoding/json"
	"log/slog"

	"github.com/emirpasic/gods/maps/linkedhashmap"

	"github.com/example/expressions/ast"
	"github.com/example/expressions/diag"
	"github.com/example/expressions/lexer"
	"github.com/example/expressions/log"
	"github.com/example/expressions/parser"
	"github.com/example/expressions/scope"
	"github.com/example/expressions/token"
)

// Implicit is the context key a `let x` binding without initializer reads.
const Implicit = "$implicit"

// segmentStops end every expression segment at the top level.
var segmentStops = []token.TokenType{token.Semicolon, token.Comma, token.Let}

// Result is a parsed directive expression.
type Result struct {
	// TemplateExpressions are `let` declarations, in source order.
	TemplateExpressions []ast.Node

	inputs *linkedhashmap.Map
}

// Input returns the expression bound to the named input.
func (r *Result) Input(name string) (ast.Node, bool) {
	v, ok := r.inputs.Get(name)
	if !ok {
		return nil, false
	}

	return v.(ast.Node), true
}

// InputNames lists the directive inputs in source order.
func (r *Result) InputNames() []string {
	names := make([]string, 0, r.inputs.Size())
	for _, k := range r.inputs.Keys() {
		names = append(names, k.(string))
	}

	return names
}

// Inputs evaluates every directive input against s.
func (r *Result) Inputs(s *scope.Stack) (map[string]any, error) {
	out := make(map[string]any, r.inputs.Size())
	it := r.inputs.Iterator()
	for it.Next() {
		v, err := it.Value().(ast.Node).Get(s)
		if err != nil {
			return nil, diag.WrapError(err).With(slog.String("input", it.Key().(string)))
		}
		out[it.Key().(string)] = v
	}

	return out, nil
}

// Bindings runs the template declarations against the directive context
// ctx, layered over s, and returns the declared names and their values.
func (r *Result) Bindings(s *scope.Stack, ctx map[string]any) (map[string]any, error) {
	st := s.Copy()
	st.Push(scope.New(scope.Block, scope.NewMapContext(ctx)))
	tmpl := st.PushBlockScope()

	for _, n := range r.TemplateExpressions {
		if _, err := n.Get(st); err != nil {
			return nil, err
		}
	}

	out := make(map[string]any)
	for _, k := range tmpl.Context().Keys() {
		out[k], _ = tmpl.Get(k)
	}

	return out, nil
}

// MarshalJSON encodes the template expressions and the inputs, keeping
// the input order.
func (r *Result) MarshalJSON() ([]byte, error) {
	inputs, err := r.inputs.ToJSON()
	if err != nil {
		return nil, err
	}

	return json.Marshal(struct {
		TemplateExpressions []ast.Node      `json:"templateExpressions"`
		DirectiveInputs     json.RawMessage `json:"directiveInputs"`
	}{r.TemplateExpressions, inputs})
}

// Option configures [Parse].
type Option func(*directiveParser)

// WithLogger traces each parsed segment.
func WithLogger(l log.Logger) Option {
	return func(p *directiveParser) { p.log = l }
}

// Parse splits expression, the value of the directive attribute name.
// A leading expression becomes the input called name.
func Parse(name, expression string, opts ...Option) (*Result, error) {
	p := &directiveParser{
		name:   name,
		source: expression,
		s:      lexer.NewStream(expression),
		result: &Result{inputs: linkedhashmap.New()},
	}
	for _, opt := range opts {
		opt(p)
	}

	if err := p.scan(); err != nil {
		return nil, err
	}
	if err := p.s.Err(); err != nil {
		return nil, err
	}

	return p.result, nil
}

type directiveParser struct {
	name   string
	source string
	s      *lexer.Stream
	result *Result
	log    log.Logger
}

func (p *directiveParser) scan() error {
	if p.s.Peek().Is(token.Let) {
		if err := p.parseLet(); err != nil {
			return err
		}
	} else if !p.atEnd() {
		if err := p.parseInput(p.name, nil); err != nil {
			return err
		}
	}
	p.skipSeparator()

	for !p.atEnd() {
		var err error
		if p.s.Peek().Is(token.Let) {
			err = p.parseLet()
		} else {
			err = p.parseKeyed()
		}
		if err != nil {
			return err
		}
		p.skipSeparator()
	}

	return nil
}

func (p *directiveParser) atEnd() bool {
	t := p.s.Peek().Type
	return t == token.EOF || t == token.Illegal
}

func (p *directiveParser) skipSeparator() {
	if t := p.s.Peek().Type; t == token.Semicolon || t == token.Comma {
		p.s.Next()
	}
}

// parseLet handles `let local`, `let local = expr` and destructuring
// forms. A missing initializer reads the implicit context value.
func (p *directiveParser) parseLet() error {
	list := []token.Token{p.s.Next()}

	switch next := p.s.Peek(); {
	case next.Is(token.LeftBrace) || next.Is(token.LeftBracket):
		list = append(list, p.s.Next())
		if !p.s.ReadTill(token.CloseOf(next.Type), &list) {
			return p.errorf(next, "unterminated binding pattern")
		}
	case next.Is(token.Identifier):
		list = append(list, p.s.Next())
	default:
		return p.errorf(next, "expected an identifier or a binding pattern after let, got %s", next.Type)
	}

	if p.s.Peek().Is(token.Assign) {
		list = append(list, p.s.Next())
		start := len(list)
		p.s.ReadTokensConsiderPair(&list, segmentStops...)
		if len(list) == start {
			return p.errorf(p.s.Peek(), "expected an expression after =")
		}
	} else {
		list = append(list, synthetic(token.Assign, "="), identifier(Implicit))
	}

	n, err := p.parseTokens(list)
	if err != nil {
		return err
	}
	p.bindTemplate(n)

	return nil
}

// parseKeyed handles `key expr`, `key: expr`, `key expr as alias` and
// `key as alias`.
func (p *directiveParser) parseKeyed() error {
	key := p.s.Next()
	if key.Type != token.Identifier && !token.IsKeyword(key.Type) {
		return p.errorf(key, "expected an input name, got %s", key.Type)
	}
	name := key.Literal

	if p.s.Peek().IsIdent("as") {
		p.s.Next()
		alias := p.s.Next()
		if !alias.Is(token.Identifier) {
			return p.errorf(alias, "expected an alias after as, got %s", alias.Type)
		}
		return p.alias(alias.Literal, name)
	}

	if p.s.Peek().Is(token.Colon) {
		p.s.Next()
	}

	return p.parseInput(name, &key)
}

// parseInput reads one expression segment into the input name. A
// trailing `as alias` also binds the input in the template.
func (p *directiveParser) parseInput(name string, at *token.Token) error {
	var list []token.Token
	p.s.ReadTokensConsiderPair(&list, segmentStops...)

	var alias string
	if n := len(list); n >= 3 && list[n-2].IsIdent("as") && list[n-1].Is(token.Identifier) {
		alias = list[n-1].Literal
		list = list[:n-2]
	}
	if len(list) == 0 {
		pos := p.s.Peek()
		if at != nil {
			pos = *at
		}
		return p.errorf(pos, "expected an expression for input %q", name)
	}

	// parenthesized so a leading brace reads as an object literal
	wrapped := make([]token.Token, 0, len(list)+2)
	wrapped = append(wrapped, synthetic(token.LeftParen, "("))
	wrapped = append(wrapped, list...)
	wrapped = append(wrapped, synthetic(token.RightParen, ")"))
	n, err := p.parseTokens(wrapped, parser.WithExpression())
	if err != nil {
		return err
	}
	p.result.inputs.Put(name, n)
	p.log.Trace("directive input", slog.String("name", name), slog.String("expression", n.String()))

	if alias != "" {
		return p.alias(alias, name)
	}

	return nil
}

// alias binds local in the template to the directive value name.
func (p *directiveParser) alias(local, name string) error {
	n, err := p.parseTokens([]token.Token{
		synthetic(token.Let, "let"),
		identifier(local),
		synthetic(token.Assign, "="),
		identifier(name),
	})
	if err != nil {
		return err
	}
	p.bindTemplate(n)

	return nil
}

func (p *directiveParser) bindTemplate(n ast.Node) {
	p.result.TemplateExpressions = append(p.result.TemplateExpressions, n)
	p.log.Trace("directive binding", slog.String("declaration", n.String()))
}

func (p *directiveParser) parseTokens(list []token.Token, opts ...parser.Option) (ast.Node, error) {
	opts = append(opts, parser.WithSource(p.source), parser.WithLogger(p.log))
	return parser.ParseTokens(list, opts...)
}

func (p *directiveParser) errorf(at token.Token, format string, args ...any) error {
	return diag.NewSourceError(diag.ErrParse, p.source, diag.PositionOf(p.source, at.Start), format, args...)
}

func synthetic(tt token.TokenType, literal string) token.Token {
	return token.Token{Type: tt, Literal: literal}
}

func identifier(name string) token.Token {
	return synthetic(token.Identifier, name)
}
