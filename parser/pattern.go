package parser

import (
	"github.com/example/expressions/ast"
	"github.com/example/expressions/token"
)

// parseBindingTarget parses an identifier, array pattern or object pattern
// in a declaration, parameter list or catch clause.
func (p *Parser) parseBindingTarget() ast.Node {
	switch p.cur.Type {
	case token.LeftBracket:
		return p.parseArrayBinding()
	case token.LeftBrace:
		return p.parseObjectBinding()
	}

	id := p.parseIdentifier()
	p.checkBindingName(id)

	return id
}

func (p *Parser) checkBindingName(id *ast.Identifier) {
	if p.fn.strict && (id.Name == "eval" || id.Name == "arguments") {
		p.fail("unexpected eval or arguments in strict mode")
	}
}

// parseBindingElement parses a binding target with an optional default.
func (p *Parser) parseBindingElement() ast.Node {
	start := p.cur.Start
	target := p.parseBindingTarget()
	if !p.eat(token.Assign) {
		return target
	}

	p.pushIN(true)
	def := p.parseAssignment()
	p.popIN()

	return p.f.AssignmentPattern(target, def, p.rangeFrom(start))
}

// parseRestBinding parses ...target, which must close the enclosing list.
func (p *Parser) parseRestBinding(close token.TokenType) ast.Node {
	start := p.cur.Start
	p.next() // consume ...
	target := p.parseBindingTarget()
	if p.curIs(token.Assign) {
		p.fail("rest element may not have a default initializer")
	}
	if !p.curIs(close) {
		p.fail("rest element must be last element")
	}

	return p.f.Rest(target, p.rangeFrom(start))
}

func (p *Parser) parseArrayBinding() ast.Node {
	start := p.cur.Start
	p.next() // consume [

	elements := []ast.Node{}
	for !p.curIs(token.RightBracket) {
		switch {
		case p.eat(token.Comma):
			elements = append(elements, nil)
			continue
		case p.curIs(token.Spread):
			elements = append(elements, p.parseRestBinding(token.RightBracket))
			continue
		}
		elements = append(elements, p.parseBindingElement())
		if !p.curIs(token.RightBracket) {
			p.expect(token.Comma)
		}
	}
	p.expect(token.RightBracket)

	return p.f.ArrayPattern(elements, p.rangeFrom(start))
}

func (p *Parser) parseObjectBinding() ast.Node {
	start := p.cur.Start
	p.next() // consume {

	props := []ast.Node{}
	for !p.curIs(token.RightBrace) {
		if p.curIs(token.Spread) {
			props = append(props, p.parseRestBinding(token.RightBrace))
			continue
		}
		props = append(props, p.parseBindingProperty())
		if !p.curIs(token.RightBrace) {
			p.expect(token.Comma)
		}
	}
	p.expect(token.RightBrace)

	return p.f.ObjectPattern(props, p.rangeFrom(start))
}

func (p *Parser) parseBindingProperty() ast.Node {
	start := p.cur.Start
	keyTok := p.cur
	key, computed := p.parsePropertyKey(false)

	if p.eat(token.Colon) {
		value := p.parseBindingElement()
		return p.f.Property(key, value, "init", computed, false, false, p.rangeFrom(start))
	}

	id, ok := key.(*ast.Identifier)
	if !ok || computed || !token.IsIdentifierLike(keyTok.Type) {
		p.fail("invalid destructuring target")
	}
	p.checkBindingName(id)

	value := ast.Node(p.f.Identifier(id.Name, Range{keyTok.Start, keyTok.End}))
	if p.eat(token.Assign) {
		p.pushIN(true)
		def := p.parseAssignment()
		p.popIN()
		value = p.f.AssignmentPattern(value, def, p.rangeFrom(start))
	}

	return p.f.Property(key, value, "init", false, false, true, p.rangeFrom(start))
}

// checkSimpleTarget accepts identifiers and member expressions.
func (p *Parser) checkSimpleTarget(n ast.Node, msg string) {
	switch n := n.(type) {
	case *ast.Identifier:
		p.checkBindingName(n)
		return
	case *ast.MemberExpression:
		return
	}
	p.fail("%s", msg)
}

// toAssignTarget reinterprets the left side of `=` or of a for-in/of head.
func (p *Parser) toAssignTarget(n ast.Node) ast.Node {
	switch n.(type) {
	case *ast.ObjectExpression, *ast.ArrayExpression:
		if p.parens[n] {
			p.fail("invalid destructuring assignment target")
		}
		return p.toPattern(n, false)
	}
	p.checkSimpleTarget(n, "invalid left-hand side in assignment")

	return n
}

// toParams reinterprets a parenthesized list or call arguments as arrow
// parameters.
func (p *Parser) toParams(items []ast.Node) []ast.Node {
	params := make([]ast.Node, 0, len(items))
	for i, it := range items {
		if s, ok := it.(*ast.SpreadElement); ok {
			if i != len(items)-1 {
				p.fail("rest parameter must be last formal parameter")
			}
			arg := p.toPattern(s.Argument, true)
			if _, ok := arg.(*ast.AssignmentPattern); ok {
				p.fail("rest parameter may not have a default initializer")
			}
			params = append(params, p.f.Rest(arg, span(s)))
			continue
		}
		params = append(params, p.toPattern(it, true))
	}

	return params
}

// toPattern converts an expression parsed as a literal into the matching
// pattern. Binding patterns only admit identifiers as leaves; assignment
// patterns also admit member expressions.
func (p *Parser) toPattern(n ast.Node, binding bool) ast.Node {
	switch n := n.(type) {
	case *ast.Identifier:
		p.checkBindingName(n)
		return n

	case *ast.MemberExpression:
		if binding {
			p.fail("invalid destructuring target")
		}
		return n

	case *ast.AssignmentExpression:
		if n.Operator != "=" {
			p.fail("invalid destructuring target")
		}
		return p.f.AssignmentPattern(p.toPattern(n.Left, binding), n.Right, span(n))

	case *ast.ArrayExpression:
		if p.parens[n] {
			p.fail("invalid destructuring target")
		}
		elements := make([]ast.Node, len(n.Elements))
		for i, e := range n.Elements {
			switch e := e.(type) {
			case nil:
			case *ast.SpreadElement:
				if i != len(n.Elements)-1 {
					p.fail("rest element must be last element")
				}
				elements[i] = p.toRest(e, binding)
			default:
				elements[i] = p.toPattern(e, binding)
			}
		}
		return p.f.ArrayPattern(elements, span(n))

	case *ast.ObjectExpression:
		if p.parens[n] {
			p.fail("invalid destructuring target")
		}
		props := make([]ast.Node, len(n.Properties))
		for i, prop := range n.Properties {
			switch prop := prop.(type) {
			case *ast.SpreadElement:
				if i != len(n.Properties)-1 {
					p.fail("rest element must be last element")
				}
				props[i] = p.toRest(prop, binding)
			case *ast.Property:
				if prop.Kind != "init" || prop.Method {
					p.fail("invalid destructuring target")
				}
				value := p.toPattern(prop.Value, binding)
				props[i] = p.f.Property(prop.Key, value, "init", prop.Computed, false, prop.Shorthand, span(prop))
			}
		}
		return p.f.ObjectPattern(props, span(n))

	case *ast.AssignmentPattern, *ast.ArrayPattern, *ast.ObjectPattern, *ast.RestElement:
		return n
	}

	p.fail("invalid destructuring target")
	return nil
}

func (p *Parser) toRest(s *ast.SpreadElement, binding bool) ast.Node {
	arg := p.toPattern(s.Argument, binding)
	if _, ok := arg.(*ast.AssignmentPattern); ok {
		p.fail("rest element may not have a default initializer")
	}

	return p.f.Rest(arg, span(s))
}
