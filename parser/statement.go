package parser

import (
	"github.com/example/expressions/ast"
	"github.com/example/expressions/token"
)

// parseModuleItem parses a top level item: import and export declarations
// or any statement list item.
func (p *Parser) parseModuleItem() ast.Node {
	switch p.cur.Type {
	case token.Import:
		if next := p.peek(); next.Type != token.LeftParen && next.Type != token.Dot {
			p.fn.prologue = false
			if p.cfg.mode != Module {
				p.fail("import declarations may only appear in a module")
			}
			return p.parseImportDeclaration()
		}
	case token.Export:
		p.fn.prologue = false
		if p.cfg.mode != Module {
			p.fail("export declarations may only appear in a module")
		}
		return p.parseExportDeclaration()
	}

	return p.parseStatementListItem()
}

// parseStatementListItem dispatches declarations before generic statements.
func (p *Parser) parseStatementListItem() ast.Node {
	if !p.curIs(token.String) {
		p.fn.prologue = false
	}

	switch p.cur.Type {
	case token.Function:
		return p.parseFunctionDeclaration(p.cur.Start, false, false)
	case token.Async:
		if next := p.peek(); next.Type == token.Function && !next.NewlineBefore {
			start := p.cur.Start
			p.next() // consume async
			return p.parseFunctionDeclaration(start, true, false)
		}
	case token.Class:
		return p.parseClassDeclaration(false)
	case token.Const:
		return p.parseVariableStatement()
	case token.Let:
		if p.isLetDeclaration() {
			return p.parseVariableStatement()
		}
	}

	return p.parseStatement()
}

// parseStatementList parses items up to (not including) the end token,
// honoring a leading directive prologue.
func (p *Parser) parseStatementList(end token.TokenType) []ast.Node {
	var list []ast.Node
	p.fn.prologue = true
	for !p.curIs(end) && !p.curIs(token.EOF) {
		list = append(list, p.parseStatementListItem())
	}
	p.fn.prologue = false

	return list
}

func (p *Parser) isLetDeclaration() bool {
	if !p.curIs(token.Let) {
		return false
	}
	switch p.peek().Type {
	case token.Identifier, token.LeftBracket, token.LeftBrace,
		token.Let, token.Yield, token.Await, token.Async:
		return true
	}
	return false
}

func isLoop(t token.TokenType) bool {
	return t == token.For || t == token.While || t == token.Do
}

// parseStatement dispatches to the appropriate statement parser.
func (p *Parser) parseStatement() ast.Node {
	defer p.trace("statement")()

	labelled := token.IsIdentifierLike(p.cur.Type) && p.peekIs(token.Colon)
	if !labelled {
		loop := isLoop(p.cur.Type)
		for i := len(p.fn.labels) - 1; i >= 0 && p.fn.labels[i].pending; i-- {
			p.fn.labels[i].loop = loop
			p.fn.labels[i].pending = false
		}
	}
	if p.fn.prologue && !p.curIs(token.String) {
		p.fn.prologue = false
	}

	switch p.cur.Type {
	case token.LeftBrace:
		return p.parseBlockStatement()
	case token.Var:
		return p.parseVariableStatement()
	case token.Semicolon:
		start := p.cur.Start
		p.next()
		return p.f.Empty(p.rangeFrom(start))
	case token.If:
		return p.parseIfStatement()
	case token.While:
		return p.parseWhileStatement()
	case token.Do:
		return p.parseDoWhileStatement()
	case token.For:
		return p.parseForStatement()
	case token.Break:
		return p.parseBreakStatement()
	case token.Continue:
		return p.parseContinueStatement()
	case token.Return:
		return p.parseReturnStatement()
	case token.Throw:
		return p.parseThrowStatement()
	case token.Try:
		return p.parseTryStatement()
	case token.Switch:
		return p.parseSwitchStatement()
	case token.Debugger:
		start := p.cur.Start
		p.next()
		p.consumeSemicolon()
		return p.f.Debugger(p.rangeFrom(start))
	case token.With:
		p.fail("with statements are not supported")
	case token.Function:
		return p.parseFunctionDeclaration(p.cur.Start, false, false)
	case token.Class, token.Const:
		p.fail("lexical declaration cannot appear in a single-statement context")
	case token.At:
		p.fail("decorators are not supported")
	}

	if labelled {
		return p.parseLabeledStatement()
	}

	return p.parseExpressionStatement()
}

func (p *Parser) parseExpressionStatement() ast.Node {
	start := p.cur.Start
	prologue := p.fn.prologue && p.curIs(token.String) && !p.cfg.expression

	p.pushIN(p.acceptIN)
	expr := p.parseExpression()
	p.popIN()
	p.consumeSemicolon()

	directive := ""
	if lit, ok := expr.(*ast.Literal); ok && prologue && !p.parens[expr] {
		if s, ok := lit.Value.(string); ok {
			directive = lit.Raw[1 : len(lit.Raw)-1]
			if s == "use strict" {
				p.fn.strict = true
			}
		}
	}
	if directive == "" {
		p.fn.prologue = false
	}

	return p.f.ExpressionStatement(expr, directive, p.rangeFrom(start))
}

func (p *Parser) parseBlockStatement() *ast.BlockStatement {
	start := p.cur.Start
	p.expect(token.LeftBrace)

	var list []ast.Node
	for !p.curIs(token.RightBrace) && !p.curIs(token.EOF) {
		list = append(list, p.parseStatementListItem())
	}
	p.expect(token.RightBrace)

	return p.f.Block(list, p.rangeFrom(start))
}

func (p *Parser) parseVariableStatement() ast.Node {
	decl := p.parseVariableDeclaration(false)
	p.consumeSemicolon()

	return decl
}

// parseVariableDeclaration parses `kind a = 1, b`. Inside a for head the
// initializer requirements are checked by the caller once the loop form is
// known.
func (p *Parser) parseVariableDeclaration(inFor bool) *ast.VariableDeclaration {
	start := p.cur.Start
	kind := p.cur.Literal
	p.next() // consume var/let/const

	var list []*ast.VariableDeclarator
	for {
		dstart := p.cur.Start
		id := p.parseBindingTarget()

		var init ast.Node
		if p.eat(token.Assign) {
			init = p.parseAssignment()
		} else if !inFor {
			checkInitializer(p, kind, id)
		}
		list = append(list, p.f.VariableDeclarator(id, init, p.rangeFrom(dstart)))

		if !p.eat(token.Comma) {
			break
		}
	}

	return p.f.VariableDeclaration(kind, list, p.rangeFrom(start))
}

func checkInitializer(p *Parser, kind string, id ast.Node) {
	if kind == "const" {
		p.fail("missing initializer in const declaration")
	}
	if _, ok := id.(*ast.Identifier); !ok {
		p.fail("missing initializer in destructuring declaration")
	}
}

func (p *Parser) parseIfStatement() ast.Node {
	start := p.cur.Start
	p.next() // consume if
	test := p.parseCondition()

	consequent := p.parseStatement()
	var alternate ast.Node
	if p.eat(token.Else) {
		alternate = p.parseStatement()
	}

	return p.f.If(test, consequent, alternate, p.rangeFrom(start))
}

// parseCondition parses a parenthesized expression.
func (p *Parser) parseCondition() ast.Node {
	p.expect(token.LeftParen)
	p.pushIN(true)
	test := p.parseExpression()
	p.popIN()
	p.expect(token.RightParen)

	return test
}

func (p *Parser) parseLoopBody() ast.Node {
	p.fn.loops++
	body := p.parseStatement()
	p.fn.loops--

	return body
}

func (p *Parser) parseWhileStatement() ast.Node {
	start := p.cur.Start
	p.next() // consume while
	test := p.parseCondition()
	body := p.parseLoopBody()

	return p.f.While(test, body, p.rangeFrom(start))
}

func (p *Parser) parseDoWhileStatement() ast.Node {
	start := p.cur.Start
	p.next() // consume do
	body := p.parseLoopBody()
	p.expect(token.While)
	test := p.parseCondition()
	p.eat(token.Semicolon)

	return p.f.DoWhile(body, test, p.rangeFrom(start))
}

func (p *Parser) isEachLoop() bool {
	return p.curIs(token.In) || p.cur.IsIdent("of")
}

func (p *Parser) parseForStatement() ast.Node {
	start := p.cur.Start
	p.next() // consume for

	await := false
	if p.curIs(token.Await) {
		if !p.awaitAllowed() {
			p.fail("for await is only valid in async functions and modules")
		}
		await = true
		p.next()
	}
	p.expect(token.LeftParen)

	var init ast.Node
	p.pushIN(false)
	switch {
	case p.curIs(token.Semicolon):
	case p.curIs(token.Var), p.curIs(token.Const), p.isLetDeclaration():
		decl := p.parseVariableDeclaration(true)
		if p.isEachLoop() {
			p.popIN()
			if len(decl.Declarations) != 1 {
				p.fail("only a single variable declaration is allowed in a for-%s statement", p.cur.Literal)
			}
			if decl.Declarations[0].Init != nil {
				p.fail("for-%s loop variable declaration may not have an initializer", p.cur.Literal)
			}
			return p.parseForEach(start, decl, await)
		}
		for _, d := range decl.Declarations {
			if d.Init == nil {
				checkInitializer(p, decl.Kind, d.ID)
			}
		}
		init = decl
	default:
		expr := p.parseExpression()
		if p.isEachLoop() {
			p.popIN()
			return p.parseForEach(start, p.toAssignTarget(expr), await)
		}
		init = expr
	}
	p.popIN()

	if await {
		p.fail("for await requires an of clause")
	}
	p.expect(token.Semicolon)

	var test, update ast.Node
	p.pushIN(true)
	if !p.curIs(token.Semicolon) {
		test = p.parseExpression()
	}
	p.expect(token.Semicolon)
	if !p.curIs(token.RightParen) {
		update = p.parseExpression()
	}
	p.popIN()
	p.expect(token.RightParen)

	body := p.parseLoopBody()

	return p.f.For(init, test, update, body, p.rangeFrom(start))
}

// parseForEach parses the rest of a for-in, for-of or for-await-of loop
// once the left side is known.
func (p *Parser) parseForEach(start int, left ast.Node, await bool) ast.Node {
	of := p.cur.IsIdent("of")
	if await && !of {
		p.fail("for await requires an of clause")
	}
	p.next() // consume in/of

	p.pushIN(true)
	var right ast.Node
	if of {
		right = p.parseAssignment()
	} else {
		right = p.parseExpression()
	}
	p.popIN()
	p.expect(token.RightParen)

	body := p.parseLoopBody()

	switch {
	case await:
		return p.f.ForAwaitOf(left, right, body, p.rangeFrom(start))
	case of:
		return p.f.ForOf(left, right, body, p.rangeFrom(start))
	}

	return p.f.ForIn(left, right, body, p.rangeFrom(start))
}

// parseLabel parses an optional label after break or continue.
func (p *Parser) parseLabel() *ast.Identifier {
	if p.cur.NewlineBefore || !token.IsIdentifierLike(p.cur.Type) {
		return nil
	}
	return p.parseIdentifier()
}

func (p *Parser) findLabel(name string) (label, bool) {
	for _, l := range p.fn.labels {
		if l.name == name {
			return l, true
		}
	}
	return label{}, false
}

func (p *Parser) parseBreakStatement() ast.Node {
	start := p.cur.Start
	p.next() // consume break

	id := p.parseLabel()
	switch {
	case id != nil:
		if _, ok := p.findLabel(id.Name); !ok {
			p.fail("undefined label %q", id.Name)
		}
	case p.fn.loops == 0 && p.fn.switches == 0:
		p.fail("illegal break statement")
	}
	p.consumeSemicolon()

	return p.f.Break(id, p.rangeFrom(start))
}

func (p *Parser) parseContinueStatement() ast.Node {
	start := p.cur.Start
	p.next() // consume continue

	id := p.parseLabel()
	if p.fn.loops == 0 {
		p.fail("illegal continue statement: no surrounding iteration statement")
	}
	if id != nil {
		l, ok := p.findLabel(id.Name)
		if !ok {
			p.fail("undefined label %q", id.Name)
		}
		if !l.loop {
			p.fail("illegal continue statement: %q does not denote an iteration statement", id.Name)
		}
	}
	p.consumeSemicolon()

	return p.f.Continue(id, p.rangeFrom(start))
}

func (p *Parser) parseReturnStatement() ast.Node {
	start := p.cur.Start
	if p.fn.kind&kindFunction == 0 {
		p.fail("illegal return statement")
	}
	p.next() // consume return

	var arg ast.Node
	if !p.cur.NewlineBefore && !p.curIs(token.Semicolon) && !p.curIs(token.RightBrace) && !p.curIs(token.EOF) {
		p.pushIN(true)
		arg = p.parseExpression()
		p.popIN()
	}
	p.consumeSemicolon()

	return p.f.Return(arg, p.rangeFrom(start))
}

func (p *Parser) parseThrowStatement() ast.Node {
	start := p.cur.Start
	p.next() // consume throw

	if p.cur.NewlineBefore {
		p.fail("illegal newline after throw")
	}
	p.pushIN(true)
	arg := p.parseExpression()
	p.popIN()
	p.consumeSemicolon()

	return p.f.Throw(arg, p.rangeFrom(start))
}

func (p *Parser) parseTryStatement() ast.Node {
	start := p.cur.Start
	p.next() // consume try
	block := p.parseBlockStatement()

	var handler *ast.CatchClause
	if p.curIs(token.Catch) {
		cstart := p.cur.Start
		p.next()
		var param ast.Node
		if p.eat(token.LeftParen) {
			param = p.parseBindingTarget()
			p.expect(token.RightParen)
		}
		body := p.parseBlockStatement()
		handler = p.f.Catch(param, body, p.rangeFrom(cstart))
	}

	var finalizer *ast.BlockStatement
	if p.eat(token.Finally) {
		finalizer = p.parseBlockStatement()
	}
	if handler == nil && finalizer == nil {
		p.fail("missing catch or finally after try")
	}

	return p.f.Try(block, handler, finalizer, p.rangeFrom(start))
}

func (p *Parser) parseSwitchStatement() ast.Node {
	start := p.cur.Start
	p.next() // consume switch
	disc := p.parseCondition()
	p.expect(token.LeftBrace)

	p.fn.switches++
	var cases []*ast.SwitchCase
	seenDefault := false
	for !p.curIs(token.RightBrace) {
		cstart := p.cur.Start
		var test ast.Node
		switch p.cur.Type {
		case token.Case:
			p.next()
			p.pushIN(true)
			test = p.parseExpression()
			p.popIN()
		case token.Default:
			if seenDefault {
				p.fail("more than one default clause in switch statement")
			}
			seenDefault = true
			p.next()
		default:
			p.unexpected()
		}
		p.expect(token.Colon)

		var body []ast.Node
		for !p.curIs(token.Case) && !p.curIs(token.Default) && !p.curIs(token.RightBrace) && !p.curIs(token.EOF) {
			body = append(body, p.parseStatementListItem())
		}
		cases = append(cases, p.f.SwitchCase(test, body, p.rangeFrom(cstart)))
	}
	p.fn.switches--
	p.expect(token.RightBrace)

	return p.f.Switch(disc, cases, p.rangeFrom(start))
}

func (p *Parser) parseLabeledStatement() ast.Node {
	start := p.cur.Start
	id := p.parseIdentifier()
	p.expect(token.Colon)

	if _, ok := p.findLabel(id.Name); ok {
		p.fail("label %q has already been declared", id.Name)
	}
	p.fn.labels = append(p.fn.labels, label{name: id.Name, pending: true})
	body := p.parseStatement()
	p.fn.labels = p.fn.labels[:len(p.fn.labels)-1]

	return p.f.Labeled(id, body, p.rangeFrom(start))
}
