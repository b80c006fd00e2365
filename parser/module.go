package parser

import (
	"github.com/example/expressions/ast"
	"github.com/example/expressions/token"
)

func (p *Parser) parseImportDeclaration() ast.Node {
	defer p.trace("import")()

	start := p.cur.Start
	p.expect(token.Import)

	specs := []ast.Node{}
	if p.curIs(token.String) {
		source := p.parseModuleSource()
		attrs := p.parseImportAttributes()
		p.consumeSemicolon()
		return p.f.Import(specs, source, attrs, p.rangeFrom(start))
	}

	if token.IsIdentifierLike(p.cur.Type) {
		dstart := p.cur.Start
		local := p.parseIdentifier()
		p.checkBindingName(local)
		specs = append(specs, p.f.ImportDefaultSpecifier(local, p.rangeFrom(dstart)))
		if !p.eat(token.Comma) {
			return p.finishImport(start, specs)
		}
	}

	switch p.cur.Type {
	case token.Asterisk:
		nstart := p.cur.Start
		p.next()
		p.expectWord("as")
		local := p.parseIdentifier()
		p.checkBindingName(local)
		specs = append(specs, p.f.ImportNamespaceSpecifier(local, p.rangeFrom(nstart)))

	case token.LeftBrace:
		p.next()
		for !p.curIs(token.RightBrace) {
			specs = append(specs, p.parseImportSpecifier())
			if !p.curIs(token.RightBrace) {
				p.expect(token.Comma)
			}
		}
		p.expect(token.RightBrace)

	default:
		p.unexpected()
	}

	return p.finishImport(start, specs)
}

func (p *Parser) finishImport(start int, specs []ast.Node) ast.Node {
	p.expectWord("from")
	source := p.parseModuleSource()
	attrs := p.parseImportAttributes()
	p.consumeSemicolon()

	return p.f.Import(specs, source, attrs, p.rangeFrom(start))
}

// parseImportSpecifier parses `name`, `name as local` or `"str" as local`.
func (p *Parser) parseImportSpecifier() ast.Node {
	start := p.cur.Start
	imported := p.parseModuleExportName()

	var local *ast.Identifier
	if p.cur.IsIdent("as") {
		p.next()
		local = p.parseIdentifier()
	} else {
		id, ok := imported.(*ast.Identifier)
		if !ok {
			p.fail("string import name requires a local binding")
		}
		if isReservedName(id.Name) {
			p.fail("unexpected reserved word %q", id.Name)
		}
		local = p.f.Identifier(id.Name, span(id))
	}
	p.checkBindingName(local)

	return p.f.ImportSpecifier(imported, local, p.rangeFrom(start))
}

// parseModuleExportName parses an identifier name or a string literal.
func (p *Parser) parseModuleExportName() ast.Node {
	tok := p.cur
	r := Range{tok.Start, tok.End}
	switch {
	case tok.Is(token.String):
		p.next()
		return p.f.Literal(tok.Literal, tok.Raw, r)
	case token.IsPropertyName(tok.Type) && !tok.Is(token.PrivateName):
		p.next()
		return p.f.Identifier(tok.Literal, r)
	}

	p.unexpected()
	return nil
}

func (p *Parser) parseModuleSource() *ast.Literal {
	tok := p.cur
	if !tok.Is(token.String) {
		p.fail("expected module specifier, got %s", describe(tok))
	}
	p.next()

	return p.f.Literal(tok.Literal, tok.Raw, Range{tok.Start, tok.End})
}

// parseImportAttributes parses an optional `with { type: "json" }` clause.
// The older `assert` spelling is accepted as well.
func (p *Parser) parseImportAttributes() []*ast.ImportAttribute {
	switch {
	case p.curIs(token.With):
	case p.cur.IsIdent("assert") && !p.cur.NewlineBefore:
	default:
		return nil
	}
	p.next()
	p.expect(token.LeftBrace)

	attrs := []*ast.ImportAttribute{}
	seen := map[string]bool{}
	for !p.curIs(token.RightBrace) {
		start := p.cur.Start
		key := p.parseModuleExportName()
		name := keyName(key)
		if seen[name] {
			p.fail("import attribute has duplicate key %q", name)
		}
		seen[name] = true

		p.expect(token.Colon)
		value := p.parseModuleSource()
		attrs = append(attrs, p.f.ImportAttribute(key, value, p.rangeFrom(start)))
		if !p.curIs(token.RightBrace) {
			p.expect(token.Comma)
		}
	}
	p.expect(token.RightBrace)

	return attrs
}

func (p *Parser) parseExportDeclaration() ast.Node {
	defer p.trace("export")()

	start := p.cur.Start
	p.expect(token.Export)

	switch p.cur.Type {
	case token.Default:
		p.next()
		return p.parseExportDefault(start)

	case token.Asterisk:
		p.next()
		var exported ast.Node
		if p.cur.IsIdent("as") {
			p.next()
			exported = p.parseModuleExportName()
		}
		p.expectWord("from")
		source := p.parseModuleSource()
		attrs := p.parseImportAttributes()
		p.consumeSemicolon()
		return p.f.ExportAll(exported, source, attrs, p.rangeFrom(start))

	case token.LeftBrace:
		return p.parseExportClause(start)

	case token.Var, token.Const:
		decl := p.parseVariableDeclaration(false)
		p.consumeSemicolon()
		return p.f.ExportNamed(decl, nil, nil, nil, p.rangeFrom(start))

	case token.Let:
		if p.isLetDeclaration() {
			decl := p.parseVariableDeclaration(false)
			p.consumeSemicolon()
			return p.f.ExportNamed(decl, nil, nil, nil, p.rangeFrom(start))
		}

	case token.Function:
		decl := p.parseFunctionDeclaration(p.cur.Start, false, false)
		return p.f.ExportNamed(decl, nil, nil, nil, p.rangeFrom(start))

	case token.Async:
		if next := p.peek(); next.Type == token.Function && !next.NewlineBefore {
			fstart := p.cur.Start
			p.next()
			decl := p.parseFunctionDeclaration(fstart, true, false)
			return p.f.ExportNamed(decl, nil, nil, nil, p.rangeFrom(start))
		}

	case token.Class:
		decl := p.parseClassDeclaration(false)
		return p.f.ExportNamed(decl, nil, nil, nil, p.rangeFrom(start))
	}

	p.unexpected()
	return nil
}

// parseExportDefault parses what follows `export default`. Function and
// class declarations may be anonymous; anything else is an expression.
func (p *Parser) parseExportDefault(start int) ast.Node {
	var decl ast.Node
	switch {
	case p.curIs(token.Function):
		decl = p.parseFunctionDeclaration(p.cur.Start, false, true)
	case p.curIs(token.Async) && p.peekIs(token.Function) && !p.peek().NewlineBefore:
		fstart := p.cur.Start
		p.next()
		decl = p.parseFunctionDeclaration(fstart, true, true)
	case p.curIs(token.Class):
		decl = p.parseClassDeclaration(true)
	default:
		p.pushIN(true)
		decl = p.parseAssignment()
		p.popIN()
		p.consumeSemicolon()
	}

	return p.f.ExportDefault(decl, p.rangeFrom(start))
}

// parseExportClause parses `{ a, b as c } [from "mod"]`. Without a source,
// every local name must be a plain identifier.
func (p *Parser) parseExportClause(start int) ast.Node {
	p.expect(token.LeftBrace)

	specs := []*ast.ExportSpecifier{}
	for !p.curIs(token.RightBrace) {
		sstart := p.cur.Start
		local := p.parseModuleExportName()
		exported := local
		if p.cur.IsIdent("as") {
			p.next()
			exported = p.parseModuleExportName()
		}
		specs = append(specs, p.f.ExportSpecifier(local, exported, p.rangeFrom(sstart)))
		if !p.curIs(token.RightBrace) {
			p.expect(token.Comma)
		}
	}
	p.expect(token.RightBrace)

	var source *ast.Literal
	var attrs []*ast.ImportAttribute
	if p.cur.IsIdent("from") {
		p.next()
		source = p.parseModuleSource()
		attrs = p.parseImportAttributes()
	} else {
		for _, s := range specs {
			id, ok := s.Local.(*ast.Identifier)
			if !ok || isReservedName(id.Name) {
				p.fail("export of %s requires a from clause", keyName(s.Local))
			}
		}
	}
	p.consumeSemicolon()

	return p.f.ExportNamed(nil, specs, source, attrs, p.rangeFrom(start))
}

// reservedNames are keywords that cannot be bound.
var reservedNames = map[string]bool{
	"break": true, "case": true, "catch": true, "class": true, "const": true,
	"continue": true, "debugger": true, "default": true, "delete": true,
	"do": true, "else": true, "export": true, "extends": true, "false": true,
	"finally": true, "for": true, "function": true, "if": true, "import": true,
	"in": true, "instanceof": true, "new": true, "null": true, "return": true,
	"super": true, "switch": true, "this": true, "throw": true, "true": true,
	"try": true, "typeof": true, "var": true, "void": true, "while": true,
	"with": true,
}

func isReservedName(name string) bool { return reservedNames[name] }
