package parser

import (
	"errors"
	"math/big"
	"strconv"
	"strings"

	"github.com/example/expressions/ast"
	"github.com/example/expressions/token"
)

// parseExpression parses a comma separated sequence.
func (p *Parser) parseExpression() ast.Node {
	start := p.cur.Start
	expr := p.parseAssignment()
	if !p.curIs(token.Comma) {
		return expr
	}

	list := []ast.Node{expr}
	for p.eat(token.Comma) {
		list = append(list, p.parseAssignment())
	}

	return p.f.Sequence(list, p.rangeFrom(start))
}

func (p *Parser) parseAssignment() ast.Node {
	if p.curIs(token.Yield) && p.yieldAllowed() {
		return p.parseYield()
	}

	start := p.cur.Start
	left := p.parseConditional()
	if !token.IsAssignment(p.cur.Type) {
		return left
	}

	op := p.cur
	switch {
	case op.Type == token.Assign:
		left = p.toAssignTarget(left)
	default:
		p.checkSimpleTarget(left, "invalid left-hand side in assignment")
	}
	p.next() // consume operator
	right := p.parseAssignment()

	return p.f.Assignment(op.Literal, left, right, p.rangeFrom(start))
}

func (p *Parser) parseYield() ast.Node {
	start := p.cur.Start
	p.next() // consume yield

	if p.cur.NewlineBefore || endsExpression(p.cur.Type) {
		return p.f.Yield(nil, false, p.rangeFrom(start))
	}
	delegate := p.eat(token.Asterisk)
	arg := p.parseAssignment()

	return p.f.Yield(arg, delegate, p.rangeFrom(start))
}

func endsExpression(t token.TokenType) bool {
	switch t {
	case token.RightParen, token.RightBracket, token.RightBrace, token.Comma,
		token.Semicolon, token.Colon, token.EOF, token.TemplateMiddle, token.TemplateTail:
		return true
	}
	return false
}

func (p *Parser) parseConditional() ast.Node {
	start := p.cur.Start
	expr := p.parseBinary(token.PrecNullish)
	expr = p.parsePipeline(expr, start)
	if !p.curIs(token.QuestionMark) {
		return expr
	}
	p.next() // consume ?

	p.pushIN(true)
	consequent := p.parseAssignment()
	p.popIN()
	p.expect(token.Colon)
	alternate := p.parseAssignment()

	return p.f.Conditional(expr, consequent, alternate, p.rangeFrom(start))
}

// parseBinary climbs operator precedence from minPrec. Only ** is right
// associative.
func (p *Parser) parseBinary(minPrec int) ast.Node {
	start := p.cur.Start
	left := p.parseUnary()

	for {
		op := p.cur
		prec := token.Precedence(op.Type, p.acceptIN)
		if prec < token.PrecNullish || prec < minPrec {
			return left
		}
		if op.Type == token.Exponent {
			switch left.(type) {
			case *ast.UnaryExpression, *ast.AwaitExpression:
				if !p.parens[left] {
					p.fail("unary operator used immediately before exponentiation expression; parentheses required")
				}
			}
		}
		p.next() // consume operator

		var right ast.Node
		if op.Type == token.Exponent {
			right = p.parseBinary(prec)
		} else {
			right = p.parseBinary(prec + 1)
		}

		if token.IsLogical(op.Type) {
			left = p.f.Logical(op.Literal, left, right, p.rangeFrom(start))
		} else {
			left = p.f.Binary(op.Literal, left, right, p.rangeFrom(start))
		}
	}
}

func (p *Parser) parseUnary() ast.Node {
	start := p.cur.Start
	switch {
	case token.IsUnary(p.cur.Type):
		op := p.cur.Literal
		p.next()
		arg := p.parseUnary()
		if _, ok := arg.(*ast.Identifier); ok && op == "delete" && p.fn.strict {
			p.fail("delete of an unqualified identifier in strict mode")
		}
		return p.f.Unary(op, arg, p.rangeFrom(start))

	case token.IsCount(p.cur.Type):
		op := p.cur.Literal
		p.next()
		arg := p.parseUnary()
		p.checkSimpleTarget(arg, "invalid left-hand side expression in prefix operation")
		return p.f.Update(op, true, arg, p.rangeFrom(start))

	case p.curIs(token.Await):
		if !p.awaitAllowed() {
			p.fail("await is only valid in async functions and the top level of modules")
		}
		p.next()
		arg := p.parseUnary()
		return p.f.Await(arg, p.rangeFrom(start))
	}

	return p.parsePostfix()
}

func (p *Parser) parsePostfix() ast.Node {
	start := p.cur.Start
	expr := p.parseLeftHandSide()
	if !token.IsCount(p.cur.Type) || p.cur.NewlineBefore {
		return expr
	}

	op := p.cur.Literal
	p.checkSimpleTarget(expr, "invalid left-hand side expression in postfix operation")
	p.next()

	return p.f.Update(op, false, expr, p.rangeFrom(start))
}

func (p *Parser) parseLeftHandSide() ast.Node {
	start := p.cur.Start
	if p.curIs(token.New) {
		return p.parseNew(true)
	}

	return p.parseCallTail(p.parsePrimary(), start, true, false)
}

// parseNew parses new expressions. When tail is false the caller is
// another new expression which owns any following call arguments.
func (p *Parser) parseNew(tail bool) ast.Node {
	start := p.cur.Start
	newTok := p.cur
	p.next() // consume new

	if p.curIs(token.Dot) {
		p.next()
		if !p.cur.IsIdent("target") {
			p.fail("expected new.target, got %s", describe(p.cur))
		}
		if p.fn.kind&kindNewTarget == 0 {
			p.fail("new.target expression is not allowed here")
		}
		meta := p.f.Identifier("new", Range{newTok.Start, newTok.End})
		prop := p.f.Identifier("target", Range{p.cur.Start, p.cur.End})
		p.next()
		expr := p.f.MetaProperty(meta, prop, p.rangeFrom(start))
		return p.parseCallTail(expr, start, true, false)
	}

	var callee ast.Node
	switch p.cur.Type {
	case token.New:
		callee = p.parseNew(false)
	case token.Import:
		p.fail("cannot use new with import")
	default:
		cstart := p.cur.Start
		callee = p.parseCallTail(p.parsePrimary(), cstart, false, true)
	}

	var args []ast.Node
	if p.curIs(token.LeftParen) {
		args = p.parseArguments()
	}
	expr := ast.Node(p.f.New(callee, args, p.rangeFrom(start)))
	if !tail {
		return expr
	}

	return p.parseCallTail(expr, start, true, false)
}

// parseCallTail parses member accesses, calls, optional chains and tagged
// templates following expr. Without calls it stops at an argument list;
// inNew rejects optional chains.
func (p *Parser) parseCallTail(expr ast.Node, start int, calls, inNew bool) ast.Node {
	chained := false

loop:
	for {
		switch p.cur.Type {
		case token.Dot:
			p.next()
			prop := p.parseMemberName()
			expr = p.f.Member(expr, prop, false, false, p.rangeFrom(start))

		case token.OptionalChain:
			if inNew {
				p.fail("invalid optional chain from new expression")
			}
			p.next()
			chained = true
			switch p.cur.Type {
			case token.LeftParen:
				args := p.parseArguments()
				expr = p.f.Call(expr, args, true, p.rangeFrom(start))
			case token.LeftBracket:
				prop := p.parseComputedMember()
				expr = p.f.Member(expr, prop, true, true, p.rangeFrom(start))
			case token.NoSubstitutionTemplate, token.TemplateHead:
				p.fail("invalid tagged template on optional chain")
			default:
				prop := p.parseMemberName()
				expr = p.f.Member(expr, prop, false, true, p.rangeFrom(start))
			}

		case token.LeftBracket:
			prop := p.parseComputedMember()
			expr = p.f.Member(expr, prop, true, false, p.rangeFrom(start))

		case token.LeftParen:
			if !calls {
				break loop
			}
			args := p.parseArguments()
			expr = p.f.Call(expr, args, false, p.rangeFrom(start))

		case token.NoSubstitutionTemplate, token.TemplateHead:
			if chained {
				p.fail("invalid tagged template on optional chain")
			}
			quasi := p.parseTemplate()
			expr = p.f.TaggedTemplate(expr, quasi, p.rangeFrom(start))

		default:
			break loop
		}
	}

	if chained {
		expr = p.f.Chain(expr, p.rangeFrom(start))
	}

	return expr
}

// parseMemberName parses the name after a dot: any identifier name,
// keyword or private name.
func (p *Parser) parseMemberName() ast.Node {
	tok := p.cur
	switch {
	case tok.Is(token.PrivateName):
		p.next()
		return p.f.PrivateIdentifier(tok.Literal, Range{tok.Start, tok.End})
	case token.IsPropertyName(tok.Type):
		p.next()
		return p.f.Identifier(tok.Literal, Range{tok.Start, tok.End})
	}
	p.fail("unexpected %s after property access", describe(tok))
	return nil
}

func (p *Parser) parseComputedMember() ast.Node {
	p.expect(token.LeftBracket)
	p.pushIN(true)
	prop := p.parseExpression()
	p.popIN()
	p.expect(token.RightBracket)

	return prop
}

func (p *Parser) parseArguments() []ast.Node {
	p.expect(token.LeftParen)
	p.pushIN(true)
	defer p.popIN()

	args := []ast.Node{}
	for !p.curIs(token.RightParen) {
		args = append(args, p.parseArgument())
		if !p.curIs(token.RightParen) {
			p.expect(token.Comma)
		}
	}
	p.expect(token.RightParen)

	return args
}

func (p *Parser) parseArgument() ast.Node {
	start := p.cur.Start
	if p.eat(token.Spread) {
		arg := p.parseAssignment()
		return p.f.Spread(arg, p.rangeFrom(start))
	}

	return p.parseAssignment()
}

func (p *Parser) parsePrimary() ast.Node {
	tok := p.cur
	start := tok.Start

	switch tok.Type {
	case token.Identifier:
		if next := p.peek(); next.Type == token.Arrow && !next.NewlineBefore {
			param := p.parseIdentifier()
			return p.parseArrowBody([]ast.Node{param}, start, false)
		}
		return p.parseIdentifier()

	case token.Async:
		return p.parseAsyncPrimary()

	case token.Let:
		if p.fn.strict {
			p.fail("let is a reserved word in strict mode")
		}
		return p.parseIdentifier()

	case token.Yield:
		p.fail("yield is only valid in generator functions")

	case token.Await:
		p.fail("await is only valid in async functions and the top level of modules")

	case token.This:
		p.next()
		return p.f.This(p.rangeFrom(start))

	case token.Super:
		return p.parseSuper()

	case token.Null:
		p.next()
		return p.f.Literal(nil, tok.Literal, p.rangeFrom(start))

	case token.True, token.False:
		p.next()
		return p.f.Literal(tok.Type == token.True, tok.Literal, p.rangeFrom(start))

	case token.Number:
		return p.parseNumber()

	case token.BigInt:
		p.next()
		digits := strings.ReplaceAll(strings.TrimSuffix(tok.Literal, "n"), "_", "")
		return p.f.BigInt(digits, tok.Literal, p.rangeFrom(start))

	case token.String:
		p.next()
		return p.f.Literal(tok.Literal, tok.Raw, p.rangeFrom(start))

	case token.RegExp:
		return p.parseRegExp()

	case token.NoSubstitutionTemplate, token.TemplateHead:
		return p.parseTemplate()

	case token.LeftBracket:
		return p.parseArrayLiteral()

	case token.LeftBrace:
		return p.parseObjectLiteral()

	case token.LeftParen:
		return p.parseParenthesized()

	case token.Function:
		return p.parseFunctionExpression(start, false)

	case token.Class:
		return p.parseClassExpression()

	case token.New:
		return p.parseNew(false)

	case token.Import:
		return p.parseImportMeta()

	case token.PrivateName:
		if p.peekIs(token.In) {
			p.next()
			return p.f.PrivateIdentifier(tok.Literal, p.rangeFrom(start))
		}

	case token.At:
		p.fail("decorators are not supported")
	}

	p.unexpected()
	return nil
}

func (p *Parser) parseIdentifier() *ast.Identifier {
	tok := p.cur
	if !token.IsIdentifierLike(tok.Type) {
		p.fail("expected identifier, got %s", describe(tok))
	}
	p.next()

	return p.f.Identifier(tok.Literal, Range{tok.Start, tok.End})
}

// parseAsyncPrimary parses what follows `async` in expression position:
// an async function or arrow, a call of a function named async, or the
// plain identifier.
func (p *Parser) parseAsyncPrimary() ast.Node {
	tok := p.cur
	start := tok.Start
	next := p.peek()
	if next.NewlineBefore {
		return p.parseIdentifier()
	}

	switch {
	case next.Type == token.Function:
		p.next() // consume async
		return p.parseFunctionExpression(start, true)

	case token.IsIdentifierLike(next.Type) && p.peekAhead().Type == token.Arrow:
		p.next() // consume async
		param := p.parseIdentifier()
		return p.parseArrowBody([]ast.Node{param}, start, true)

	case next.Type == token.LeftParen:
		id := p.parseIdentifier()
		args := p.parseArguments()
		if p.curIs(token.Arrow) && !p.cur.NewlineBefore {
			return p.parseArrowBody(p.toParams(args), start, true)
		}
		return p.f.Call(id, args, false, p.rangeFrom(start))
	}

	return p.parseIdentifier()
}

func (p *Parser) parseSuper() ast.Node {
	start := p.cur.Start
	p.next() // consume super

	switch p.cur.Type {
	case token.LeftParen:
		if p.fn.kind&kindDerived == 0 {
			p.fail("'super' keyword unexpected here")
		}
	case token.Dot, token.LeftBracket:
		if p.fn.kind&(kindMethod|kindField) == 0 {
			p.fail("'super' keyword unexpected here")
		}
	default:
		p.fail("'super' keyword unexpected here")
	}

	return p.f.Super(p.rangeFrom(start))
}

// parseImportMeta parses import(...) and import.meta.
func (p *Parser) parseImportMeta() ast.Node {
	tok := p.cur
	start := tok.Start
	p.next() // consume import

	switch p.cur.Type {
	case token.LeftParen:
		p.next()
		p.pushIN(true)
		source := p.parseAssignment()
		var options ast.Node
		if p.eat(token.Comma) && !p.curIs(token.RightParen) {
			options = p.parseAssignment()
			p.eat(token.Comma)
		}
		p.popIN()
		p.expect(token.RightParen)
		return p.f.ImportCall(source, options, p.rangeFrom(start))

	case token.Dot:
		p.next()
		if !p.cur.IsIdent("meta") {
			p.fail("expected import.meta, got %s", describe(p.cur))
		}
		if p.cfg.mode != Module {
			p.fail("import.meta may only appear in a module")
		}
		meta := p.f.Identifier("import", Range{tok.Start, tok.End})
		prop := p.f.Identifier("meta", Range{p.cur.Start, p.cur.End})
		p.next()
		return p.f.MetaProperty(meta, prop, p.rangeFrom(start))
	}

	p.fail("import declarations may only appear at the top level of a module")
	return nil
}

func (p *Parser) parseNumber() ast.Node {
	tok := p.cur
	v, err := numberValue(tok.Literal, p.fn.strict)
	if err != nil {
		p.fail("%s", err)
	}
	p.next()

	return p.f.Literal(v, tok.Literal, p.rangeFrom(tok.Start))
}

var errOctal = errors.New("octal literals are not allowed in strict mode")

// numberValue converts a numeric literal, including hex, octal, binary,
// legacy octal and separated forms.
func numberValue(lit string, strict bool) (float64, error) {
	s := strings.ReplaceAll(lit, "_", "")

	if len(s) > 1 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			return integerValue(s[2:], base)
		}
		if strings.Trim(s, "0123456789") == "" {
			if strict {
				return 0, errOctal
			}
			if !strings.ContainsAny(s, "89") {
				return integerValue(s[1:], 8)
			}
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if errors.Is(err, strconv.ErrRange) {
		return v, nil
	}
	if err != nil {
		return 0, errors.New("invalid numeric literal " + lit)
	}

	return v, nil
}

func integerValue(digits string, base int) (float64, error) {
	if v, err := strconv.ParseUint(digits, base, 64); err == nil {
		return float64(v), nil
	}

	b, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return 0, errors.New("invalid numeric literal " + digits)
	}
	f, _ := new(big.Float).SetInt(b).Float64()

	return f, nil
}

func (p *Parser) parseRegExp() ast.Node {
	tok := p.cur
	i := strings.LastIndexByte(tok.Literal, '/')
	pattern, flags := tok.Literal[1:i], tok.Literal[i+1:]

	for j, c := range flags {
		if !strings.ContainsRune("dgimsuvy", c) || strings.ContainsRune(flags[j+1:], c) {
			p.fail("invalid regular expression flags %q", flags)
		}
	}
	p.next()

	return p.f.RegExp(pattern, flags, p.rangeFrom(tok.Start))
}

func (p *Parser) parseTemplate() *ast.TemplateLiteral {
	start := p.cur.Start
	element := func(tail bool) *ast.TemplateElement {
		tok := p.cur
		p.next()
		return p.f.TemplateElement(tok.Literal, tok.Raw, tail, Range{tok.Start, tok.End})
	}

	if p.curIs(token.NoSubstitutionTemplate) {
		quasi := element(true)
		return p.f.Template([]*ast.TemplateElement{quasi}, nil, p.rangeFrom(start))
	}

	quasis := []*ast.TemplateElement{element(false)}
	var exprs []ast.Node
	p.pushIN(true)
	defer p.popIN()
	for {
		exprs = append(exprs, p.parseExpression())
		switch p.cur.Type {
		case token.TemplateMiddle:
			quasis = append(quasis, element(false))
		case token.TemplateTail:
			quasis = append(quasis, element(true))
			return p.f.Template(quasis, exprs, p.rangeFrom(start))
		default:
			p.fail("unterminated template literal")
		}
	}
}

func (p *Parser) parseArrayLiteral() ast.Node {
	start := p.cur.Start
	p.next() // consume [
	p.pushIN(true)
	defer p.popIN()

	elements := []ast.Node{}
	for !p.curIs(token.RightBracket) {
		if p.eat(token.Comma) {
			elements = append(elements, nil)
			continue
		}
		elements = append(elements, p.parseArgument())
		if !p.curIs(token.RightBracket) {
			p.expect(token.Comma)
		}
	}
	p.expect(token.RightBracket)

	return p.f.Array(elements, p.rangeFrom(start))
}

// memberEnd reports whether tok ends a property key, meaning a preceding
// get, set, async or static word is the key itself.
func memberEnd(tok token.Token) bool {
	switch tok.Type {
	case token.LeftParen, token.Colon, token.Comma, token.RightBrace,
		token.Assign, token.Semicolon, token.EOF:
		return true
	}
	return false
}

func (p *Parser) parseObjectLiteral() ast.Node {
	start := p.cur.Start
	p.next() // consume {
	p.pushIN(true)
	defer p.popIN()

	props := []ast.Node{}
	for !p.curIs(token.RightBrace) {
		props = append(props, p.parseObjectMember())
		if !p.curIs(token.RightBrace) {
			p.expect(token.Comma)
		}
	}
	p.expect(token.RightBrace)

	return p.f.Object(props, p.rangeFrom(start))
}

func (p *Parser) parseObjectMember() ast.Node {
	start := p.cur.Start
	if p.eat(token.Spread) {
		arg := p.parseAssignment()
		return p.f.Spread(arg, p.rangeFrom(start))
	}

	async, generator := false, false
	kind := "init"
	if p.curIs(token.Async) && !memberEnd(p.peek()) && !p.peek().NewlineBefore {
		async = true
		p.next()
	}
	if p.eat(token.Asterisk) {
		generator = true
	}
	if (p.cur.IsIdent("get") || p.cur.IsIdent("set")) && !async && !generator && !memberEnd(p.peek()) {
		kind = p.cur.Literal
		p.next()
	}

	keyTok := p.cur
	key, computed := p.parsePropertyKey(false)

	if p.curIs(token.LeftParen) || kind != "init" || async || generator {
		fn := p.parseMethod(start, kindFunction|kindNewTarget|kindMethod, async, generator)
		checkAccessor(p, kind, fn)
		return p.f.Property(key, fn, kind, computed, kind == "init", false, p.rangeFrom(start))
	}

	if p.eat(token.Colon) {
		value := p.parseAssignment()
		return p.f.Property(key, value, "init", computed, false, false, p.rangeFrom(start))
	}

	id, ok := key.(*ast.Identifier)
	if !ok || computed || !token.IsIdentifierLike(keyTok.Type) {
		p.unexpected()
	}
	value := ast.Node(p.f.Identifier(id.Name, Range{keyTok.Start, keyTok.End}))
	if p.curIs(token.Assign) {
		// only valid once the literal is reinterpreted as a pattern
		p.next()
		def := p.parseAssignment()
		value = p.f.Assignment("=", value, def, p.rangeFrom(start))
	}

	return p.f.Property(key, value, "init", false, false, true, p.rangeFrom(start))
}

func checkAccessor(p *Parser, kind string, fn *ast.FunctionExpression) {
	switch {
	case kind == "get" && len(fn.Params) != 0:
		p.fail("getter must not have any formal parameters")
	case kind == "set" && len(fn.Params) != 1:
		p.fail("setter must have exactly one formal parameter")
	case kind == "set":
		if _, ok := fn.Params[0].(*ast.RestElement); ok {
			p.fail("setter function argument must not be a rest parameter")
		}
	}
}

// parsePropertyKey parses a literal, identifier name, computed or (inside
// classes) private key.
func (p *Parser) parsePropertyKey(private bool) (ast.Node, bool) {
	tok := p.cur
	r := Range{tok.Start, tok.End}

	switch {
	case tok.Is(token.String):
		p.next()
		return p.f.Literal(tok.Literal, tok.Raw, r), false
	case tok.Is(token.Number):
		return p.parseNumber(), false
	case tok.Is(token.BigInt):
		p.next()
		return p.f.BigInt(strings.ReplaceAll(strings.TrimSuffix(tok.Literal, "n"), "_", ""), tok.Literal, r), false
	case tok.Is(token.LeftBracket):
		p.next()
		p.pushIN(true)
		key := p.parseAssignment()
		p.popIN()
		p.expect(token.RightBracket)
		return key, true
	case tok.Is(token.PrivateName):
		if !private {
			p.fail("private names are only valid in class bodies")
		}
		p.next()
		return p.f.PrivateIdentifier(tok.Literal, r), false
	case token.IsPropertyName(tok.Type):
		p.next()
		return p.f.Identifier(tok.Literal, r), false
	}

	p.unexpected()
	return nil, false
}

// parseParenthesized parses a parenthesized expression or, when `=>`
// follows, reinterprets the contents as arrow parameters.
func (p *Parser) parseParenthesized() ast.Node {
	start := p.cur.Start
	p.next() // consume (

	if p.curIs(token.RightParen) {
		p.next()
		if !p.curIs(token.Arrow) || p.cur.NewlineBefore {
			p.unexpected()
		}
		return p.parseArrowBody(nil, start, false)
	}

	p.pushIN(true)
	var items []ast.Node
	var rest ast.Node
	trailing := false
	for {
		if p.curIs(token.Spread) {
			rstart := p.cur.Start
			p.next()
			target := p.parseBindingTarget()
			if p.curIs(token.Assign) {
				p.fail("rest parameter may not have a default initializer")
			}
			rest = p.f.Rest(target, p.rangeFrom(rstart))
			break
		}
		items = append(items, p.parseAssignment())
		if !p.eat(token.Comma) {
			break
		}
		if p.curIs(token.RightParen) {
			trailing = true
			break
		}
	}
	p.popIN()
	p.expect(token.RightParen)

	if p.curIs(token.Arrow) && !p.cur.NewlineBefore {
		params := p.toParams(items)
		if rest != nil {
			params = append(params, rest)
		}
		return p.parseArrowBody(params, start, false)
	}
	if rest != nil || trailing || len(items) == 0 {
		p.unexpected()
	}

	expr := items[0]
	if len(items) > 1 {
		expr = p.f.Sequence(items, Range{span(items[0])[0], p.prevEnd - 1})
	}
	p.parens[expr] = true

	return expr
}

// parsePipeline parses `|>` chains after a logical expression.
func (p *Parser) parsePipeline(expr ast.Node, start int) ast.Node {
	for p.eat(token.Pipeline) {
		expr = p.parsePipelineBody(expr, start)
	}

	return expr
}

func (p *Parser) parsePipelineBody(lhs ast.Node, start int) ast.Node {
	fstart := p.cur.Start

	switch {
	case p.curIs(token.Function):
		body := p.parseFunctionExpression(fstart, false)
		return p.f.Pipeline(lhs, body, nil, false, p.rangeFrom(start))
	case p.curIs(token.Async) && p.peekIs(token.Function) && !p.peek().NewlineBefore:
		p.next()
		body := p.parseFunctionExpression(fstart, true)
		return p.f.Pipeline(lhs, body, nil, false, p.rangeFrom(start))
	case p.curIs(token.LeftParen):
		// x |> (y => y + 1)
		body := p.parsePrimary()
		return p.f.Pipeline(lhs, body, nil, false, p.rangeFrom(start))
	}

	fn := p.parseCallTail(p.parsePrimary(), fstart, false, false)

	switch p.cur.Type {
	case token.Colon:
		var args []ast.Node
		for p.eat(token.Colon) {
			args = append(args, p.parsePipelineArgument())
		}
		return p.f.Pipeline(lhs, fn, args, true, p.rangeFrom(start))

	case token.LeftParen:
		p.next()
		p.pushIN(true)
		var args []ast.Node
		placed := false
		for !p.curIs(token.RightParen) {
			arg := p.parsePipelineArgument()
			if _, ok := arg.(*ast.PipelinePlaceholder); ok {
				placed = true
			}
			args = append(args, arg)
			if !p.curIs(token.RightParen) {
				p.expect(token.Comma)
			}
		}
		p.popIN()
		p.expect(token.RightParen)
		if !placed {
			// x |> f(a) calls f(a) with x
			body := p.f.Call(fn, args, false, p.rangeFrom(fstart))
			return p.f.Pipeline(lhs, body, nil, false, p.rangeFrom(start))
		}
		return p.f.Pipeline(lhs, fn, args, false, p.rangeFrom(start))
	}

	return p.f.Pipeline(lhs, fn, nil, false, p.rangeFrom(start))
}

// parsePipelineArgument parses an argument of a partial application:
// an expression, a spread, or the ? and ...? placeholders.
func (p *Parser) parsePipelineArgument() ast.Node {
	start := p.cur.Start
	spread := p.eat(token.Spread)
	if p.eat(token.QuestionMark) {
		return p.f.Placeholder(spread, p.rangeFrom(start))
	}

	arg := p.parseAssignment()
	if spread {
		return p.f.Spread(arg, p.rangeFrom(start))
	}

	return arg
}
