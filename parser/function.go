package parser

import (
	"github.com/example/expressions/ast"
	"github.com/example/expressions/token"
)

func functionKind(async, generator bool) funcKind {
	kind := kindFunction | kindNewTarget
	if async {
		kind |= kindAsync
	}
	if generator {
		kind |= kindGenerator
	}

	return kind
}

// parseFunctionDeclaration parses `function [*] name (params) { body }`
// with any leading async already consumed. The name may be omitted only
// for default exports.
func (p *Parser) parseFunctionDeclaration(start int, async, anonymous bool) ast.Node {
	defer p.trace("function")()

	p.expect(token.Function)
	generator := p.eat(token.Asterisk)

	var id *ast.Identifier
	switch {
	case token.IsIdentifierLike(p.cur.Type):
		id = p.parseIdentifier()
		p.checkBindingName(id)
	case !anonymous:
		p.fail("function statement requires a name")
	}

	params, body := p.parseFunctionRest(functionKind(async, generator))

	return p.f.FunctionDeclaration(id, params, body, generator, async, p.rangeFrom(start))
}

func (p *Parser) parseFunctionExpression(start int, async bool) *ast.FunctionExpression {
	defer p.trace("function")()

	p.expect(token.Function)
	generator := p.eat(token.Asterisk)

	var id *ast.Identifier
	if token.IsIdentifierLike(p.cur.Type) {
		id = p.parseIdentifier()
		p.checkBindingName(id)
	}

	params, body := p.parseFunctionRest(functionKind(async, generator))

	return p.f.FunctionExpression(id, params, body, generator, async, p.rangeFrom(start))
}

// parseMethod parses the parameters and body of an object or class method.
func (p *Parser) parseMethod(start int, kind funcKind, async, generator bool) *ast.FunctionExpression {
	kind |= functionKind(async, generator)
	params, body := p.parseFunctionRest(kind)

	return p.f.FunctionExpression(nil, params, body, generator, async, p.rangeFrom(start))
}

// parseFunctionRest parses the parameter list and body inside a new
// function frame.
func (p *Parser) parseFunctionRest(kind funcKind) ([]ast.Node, *ast.BlockStatement) {
	p.pushFunction(kind)
	defer p.popFunction()

	params := p.parseParams()
	body := p.parseFunctionBody()

	return params, body
}

func (p *Parser) parseParams() []ast.Node {
	p.expect(token.LeftParen)

	params := []ast.Node{}
	for !p.curIs(token.RightParen) {
		if p.curIs(token.Spread) {
			params = append(params, p.parseRestBinding(token.RightParen))
			continue
		}
		params = append(params, p.parseBindingElement())
		if !p.curIs(token.RightParen) {
			p.expect(token.Comma)
		}
	}
	p.expect(token.RightParen)

	return params
}

func (p *Parser) parseFunctionBody() *ast.BlockStatement {
	start := p.cur.Start
	p.expect(token.LeftBrace)
	list := p.parseStatementList(token.RightBrace)
	p.expect(token.RightBrace)

	return p.f.Block(list, p.rangeFrom(start))
}

// parseArrowBody parses `=> body` for already reinterpreted parameters.
func (p *Parser) parseArrowBody(params []ast.Node, start int, async bool) ast.Node {
	defer p.trace("arrow")()

	p.expect(token.Arrow)
	if params == nil {
		params = []ast.Node{}
	}

	kind := kindFunction | kindArrow
	if async {
		kind |= kindAsync
	}

	in := p.acceptIN
	p.pushFunction(kind)
	defer p.popFunction()

	if p.curIs(token.LeftBrace) {
		body := p.parseFunctionBody()
		return p.f.Arrow(params, body, false, async, p.rangeFrom(start))
	}

	p.pushIN(in)
	body := p.parseAssignment()
	p.popIN()

	return p.f.Arrow(params, body, true, async, p.rangeFrom(start))
}

// ---------- Classes ----------

func (p *Parser) parseClassDeclaration(anonymous bool) ast.Node {
	start := p.cur.Start
	id, superClass, body := p.parseClass(!anonymous)

	return p.f.ClassDeclaration(id, superClass, body, p.rangeFrom(start))
}

func (p *Parser) parseClassExpression() ast.Node {
	start := p.cur.Start
	id, superClass, body := p.parseClass(false)

	return p.f.ClassExpression(id, superClass, body, p.rangeFrom(start))
}

func (p *Parser) parseClass(named bool) (*ast.Identifier, ast.Node, *ast.ClassBody) {
	defer p.trace("class")()

	p.expect(token.Class)

	var id *ast.Identifier
	switch {
	case token.IsIdentifierLike(p.cur.Type):
		id = p.parseIdentifier()
		p.checkBindingName(id)
	case named:
		p.fail("class statement requires a name")
	}

	var superClass ast.Node
	if p.eat(token.Extends) {
		superClass = p.parseLeftHandSide()
	}

	strict := p.fn.strict
	p.fn.strict = true
	body := p.parseClassBody(superClass != nil)
	p.fn.strict = strict

	return id, superClass, body
}

func (p *Parser) parseClassBody(derived bool) *ast.ClassBody {
	start := p.cur.Start
	p.expect(token.LeftBrace)

	var members []ast.Node
	constructor := false
	for !p.curIs(token.RightBrace) {
		if p.eat(token.Semicolon) {
			continue
		}
		m := p.parseClassMember(derived)
		if md, ok := m.(*ast.MethodDefinition); ok && md.Kind == "constructor" {
			if constructor {
				p.fail("a class may only have one constructor")
			}
			constructor = true
		}
		members = append(members, m)
	}
	p.expect(token.RightBrace)

	return p.f.ClassBody(members, p.rangeFrom(start))
}

// keyName returns the static name of a non-computed key.
func keyName(key ast.Node) string {
	switch k := key.(type) {
	case *ast.Identifier:
		return k.Name
	case *ast.Literal:
		if s, ok := k.Value.(string); ok {
			return s
		}
	case *ast.PrivateIdentifier:
		return "#" + k.Name
	}
	return ""
}

func (p *Parser) parseClassMember(derived bool) ast.Node {
	start := p.cur.Start

	static := false
	if p.cur.IsIdent("static") && !memberEnd(p.peek()) {
		p.next()
		if p.curIs(token.LeftBrace) {
			return p.parseStaticBlock(start)
		}
		static = true
	}

	accessor := false
	if p.cur.IsIdent("accessor") && !memberEnd(p.peek()) && !p.peek().NewlineBefore {
		accessor = true
		p.next()
	}

	async, generator := false, false
	if p.curIs(token.Async) && !memberEnd(p.peek()) && !p.peek().NewlineBefore {
		async = true
		p.next()
	}
	if p.eat(token.Asterisk) {
		generator = true
	}

	kind := "method"
	if (p.cur.IsIdent("get") || p.cur.IsIdent("set")) && !async && !generator && !accessor && !memberEnd(p.peek()) {
		kind = p.cur.Literal
		p.next()
	}

	key, computed := p.parsePropertyKey(true)
	name := ""
	if !computed {
		name = keyName(key)
	}
	if name == "#constructor" {
		p.fail("classes may not have a private field named '#constructor'")
	}

	if p.curIs(token.LeftParen) || kind != "method" || async || generator {
		if accessor {
			p.unexpected()
		}
		fk := kindFunction | kindNewTarget | kindMethod
		if name == "constructor" && !static {
			if kind != "method" || async || generator {
				p.fail("class constructor may not be an accessor, generator or async")
			}
			kind = "constructor"
			if derived {
				fk |= kindDerived
			}
		}
		fn := p.parseMethod(start, fk, async, generator)
		checkAccessor(p, kind, fn)
		return p.f.Method(key, fn, kind, computed, static, p.rangeFrom(start))
	}

	if name == "constructor" || (static && name == "prototype") {
		p.fail("classes may not have a field named '%s'", name)
	}

	var value ast.Node
	if p.eat(token.Assign) {
		p.pushFunction(kindField | kindMethod | kindNewTarget)
		value = p.parseAssignment()
		p.popFunction()
	}
	p.consumeSemicolon()

	if accessor {
		return p.f.Accessor(key, value, computed, static, p.rangeFrom(start))
	}

	return p.f.Field(key, value, computed, static, p.rangeFrom(start))
}

func (p *Parser) parseStaticBlock(start int) ast.Node {
	p.pushFunction(kindField | kindMethod | kindNewTarget)
	defer p.popFunction()

	p.expect(token.LeftBrace)
	var list []ast.Node
	for !p.curIs(token.RightBrace) && !p.curIs(token.EOF) {
		list = append(list, p.parseStatementListItem())
	}
	p.expect(token.RightBrace)

	return p.f.StaticBlock(list, p.rangeFrom(start))
}
