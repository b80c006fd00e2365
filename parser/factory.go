package parser

import (
	"sort"
	"strings"

	"github.com/example/expressions/ast"
)

// Range is a half-open byte range [start, end) in the parsed source.
type Range [2]int

// Factory builds the nodes the parser produces. The parser never constructs
// nodes itself, so a custom Factory can decorate or count what it builds;
// embedding the one returned by [NewFactory] keeps the remaining kinds.
type Factory interface {
	Identifier(name string, r Range) *ast.Identifier
	Literal(value any, raw string, r Range) *ast.Literal
	RegExp(pattern, flags string, r Range) *ast.Literal
	BigInt(digits, raw string, r Range) *ast.Literal
	TemplateElement(cooked, raw string, tail bool, r Range) *ast.TemplateElement
	Template(quasis []*ast.TemplateElement, exprs []ast.Node, r Range) *ast.TemplateLiteral
	TaggedTemplate(tag ast.Node, quasi *ast.TemplateLiteral, r Range) *ast.TaggedTemplateExpression
	This(r Range) *ast.ThisExpression
	Super(r Range) *ast.Super
	MetaProperty(meta, property *ast.Identifier, r Range) *ast.MetaProperty
	PrivateIdentifier(name string, r Range) *ast.PrivateIdentifier

	Array(elements []ast.Node, r Range) *ast.ArrayExpression
	Object(properties []ast.Node, r Range) *ast.ObjectExpression
	Property(key, value ast.Node, kind string, computed, method, shorthand bool, r Range) *ast.Property
	Spread(arg ast.Node, r Range) *ast.SpreadElement
	Rest(arg ast.Node, r Range) *ast.RestElement
	ArrayPattern(elements []ast.Node, r Range) *ast.ArrayPattern
	ObjectPattern(properties []ast.Node, r Range) *ast.ObjectPattern
	AssignmentPattern(left, right ast.Node, r Range) *ast.AssignmentPattern

	Unary(op string, arg ast.Node, r Range) *ast.UnaryExpression
	Update(op string, prefix bool, arg ast.Node, r Range) *ast.UpdateExpression
	Binary(op string, left, right ast.Node, r Range) *ast.BinaryExpression
	Logical(op string, left, right ast.Node, r Range) *ast.LogicalExpression
	Assignment(op string, left, right ast.Node, r Range) *ast.AssignmentExpression
	Conditional(test, consequent, alternate ast.Node, r Range) *ast.ConditionalExpression
	Sequence(list []ast.Node, r Range) *ast.SequenceExpression
	Pipeline(left, right ast.Node, args []ast.Node, colon bool, r Range) *ast.PipelineExpression
	Placeholder(spread bool, r Range) *ast.PipelinePlaceholder
	Chain(expr ast.Node, r Range) *ast.ChainExpression
	Member(object, property ast.Node, computed, optional bool, r Range) *ast.MemberExpression
	Call(callee ast.Node, args []ast.Node, optional bool, r Range) *ast.CallExpression
	New(callee ast.Node, args []ast.Node, r Range) *ast.NewExpression
	Yield(arg ast.Node, delegate bool, r Range) *ast.YieldExpression
	Await(arg ast.Node, r Range) *ast.AwaitExpression
	ImportCall(source, options ast.Node, r Range) *ast.ImportExpression

	FunctionDeclaration(id *ast.Identifier, params []ast.Node, body *ast.BlockStatement, generator, async bool, r Range) *ast.FunctionDeclaration
	FunctionExpression(id *ast.Identifier, params []ast.Node, body *ast.BlockStatement, generator, async bool, r Range) *ast.FunctionExpression
	Arrow(params []ast.Node, body ast.Node, expression, async bool, r Range) *ast.ArrowFunctionExpression

	ClassDeclaration(id *ast.Identifier, superClass ast.Node, body *ast.ClassBody, r Range) *ast.ClassDeclaration
	ClassExpression(id *ast.Identifier, superClass ast.Node, body *ast.ClassBody, r Range) *ast.ClassExpression
	ClassBody(members []ast.Node, r Range) *ast.ClassBody
	Method(key ast.Node, value *ast.FunctionExpression, kind string, computed, static bool, r Range) *ast.MethodDefinition
	Field(key, value ast.Node, computed, static bool, r Range) *ast.PropertyDefinition
	Accessor(key, value ast.Node, computed, static bool, r Range) *ast.AccessorProperty
	StaticBlock(body []ast.Node, r Range) *ast.StaticBlock

	Program(body []ast.Node, sourceType string, r Range) *ast.Program
	ExpressionStatement(expr ast.Node, directive string, r Range) *ast.ExpressionStatement
	Empty(r Range) *ast.EmptyStatement
	Debugger(r Range) *ast.DebuggerStatement
	Block(list []ast.Node, r Range) *ast.BlockStatement
	If(test, consequent, alternate ast.Node, r Range) *ast.IfStatement
	While(test, body ast.Node, r Range) *ast.WhileStatement
	DoWhile(body, test ast.Node, r Range) *ast.DoWhileStatement
	For(init, test, update, body ast.Node, r Range) *ast.ForStatement
	ForIn(left, right, body ast.Node, r Range) *ast.ForInStatement
	ForOf(left, right, body ast.Node, r Range) *ast.ForOfStatement
	ForAwaitOf(left, right, body ast.Node, r Range) *ast.ForAwaitOfStatement
	Switch(discriminant ast.Node, cases []*ast.SwitchCase, r Range) *ast.SwitchStatement
	SwitchCase(test ast.Node, consequent []ast.Node, r Range) *ast.SwitchCase
	Try(block *ast.BlockStatement, handler *ast.CatchClause, finalizer *ast.BlockStatement, r Range) *ast.TryStatement
	Catch(param ast.Node, body *ast.BlockStatement, r Range) *ast.CatchClause
	Throw(arg ast.Node, r Range) *ast.ThrowStatement
	Return(arg ast.Node, r Range) *ast.ReturnStatement
	Break(label *ast.Identifier, r Range) *ast.BreakStatement
	Continue(label *ast.Identifier, r Range) *ast.ContinueStatement
	Labeled(label *ast.Identifier, body ast.Node, r Range) *ast.LabeledStatement
	VariableDeclaration(kind string, list []*ast.VariableDeclarator, r Range) *ast.VariableDeclaration
	VariableDeclarator(id, init ast.Node, r Range) *ast.VariableDeclarator

	Import(specifiers []ast.Node, source *ast.Literal, attrs []*ast.ImportAttribute, r Range) *ast.ImportDeclaration
	ImportSpecifier(imported ast.Node, local *ast.Identifier, r Range) *ast.ImportSpecifier
	ImportDefaultSpecifier(local *ast.Identifier, r Range) *ast.ImportDefaultSpecifier
	ImportNamespaceSpecifier(local *ast.Identifier, r Range) *ast.ImportNamespaceSpecifier
	ImportAttribute(key ast.Node, value *ast.Literal, r Range) *ast.ImportAttribute
	ExportNamed(decl ast.Node, specifiers []*ast.ExportSpecifier, source *ast.Literal, attrs []*ast.ImportAttribute, r Range) *ast.ExportNamedDeclaration
	ExportSpecifier(local, exported ast.Node, r Range) *ast.ExportSpecifier
	ExportDefault(decl ast.Node, r Range) *ast.ExportDefaultDeclaration
	ExportAll(exported ast.Node, source *ast.Literal, attrs []*ast.ImportAttribute, r Range) *ast.ExportAllDeclaration
}

// NewFactory returns the default factory. With locations enabled every node
// records its line, column and byte range in source.
func NewFactory(source string, locations bool) Factory {
	f := &factory{}
	if locations {
		f.lines = newLineIndex(source)
	}

	return f
}

type factory struct {
	lines *lineIndex
}

// at records the location of n and returns it.
func at[T ast.Locatable](f *factory, n T, r Range) T {
	if f.lines != nil {
		n.SetLocation(f.lines.location(r))
	}

	return n
}

// lineIndex maps byte offsets to 1-based lines and columns.
type lineIndex struct {
	starts []int
}

func newLineIndex(source string) *lineIndex {
	starts := []int{0}
	for i := 0; i < len(source); {
		j := strings.IndexByte(source[i:], '\n')
		if j < 0 {
			break
		}
		i += j + 1
		starts = append(starts, i)
	}

	return &lineIndex{starts: starts}
}

func (x *lineIndex) position(offset int) ast.Position {
	line := sort.SearchInts(x.starts, offset+1) - 1
	line = max(line, 0)

	return ast.Position{Line: line + 1, Column: offset - x.starts[line] + 1}
}

func (x *lineIndex) location(r Range) *ast.SourceLocation {
	return &ast.SourceLocation{
		Start: x.position(r[0]),
		End:   x.position(r[1]),
		Range: [2]int(r),
	}
}

func (f *factory) Identifier(name string, r Range) *ast.Identifier {
	return at(f, &ast.Identifier{Name: name}, r)
}

func (f *factory) Literal(value any, raw string, r Range) *ast.Literal {
	return at(f, &ast.Literal{Value: value, Raw: raw}, r)
}

func (f *factory) RegExp(pattern, flags string, r Range) *ast.Literal {
	return at(f, &ast.Literal{Regex: &ast.RegexLiteral{Pattern: pattern, Flags: flags}}, r)
}

func (f *factory) BigInt(digits, raw string, r Range) *ast.Literal {
	return at(f, &ast.Literal{BigInt: digits, Raw: raw}, r)
}

func (f *factory) TemplateElement(cooked, raw string, tail bool, r Range) *ast.TemplateElement {
	return at(f, &ast.TemplateElement{Value: ast.TemplateValue{Raw: raw, Cooked: cooked}, Tail: tail}, r)
}

func (f *factory) Template(quasis []*ast.TemplateElement, exprs []ast.Node, r Range) *ast.TemplateLiteral {
	return at(f, &ast.TemplateLiteral{Quasis: quasis, Expressions: exprs}, r)
}

func (f *factory) TaggedTemplate(tag ast.Node, quasi *ast.TemplateLiteral, r Range) *ast.TaggedTemplateExpression {
	return at(f, &ast.TaggedTemplateExpression{Tag: tag, Quasi: quasi}, r)
}

func (f *factory) This(r Range) *ast.ThisExpression { return at(f, &ast.ThisExpression{}, r) }
func (f *factory) Super(r Range) *ast.Super         { return at(f, &ast.Super{}, r) }

func (f *factory) MetaProperty(meta, property *ast.Identifier, r Range) *ast.MetaProperty {
	return at(f, &ast.MetaProperty{Meta: meta, Property: property}, r)
}

func (f *factory) PrivateIdentifier(name string, r Range) *ast.PrivateIdentifier {
	return at(f, &ast.PrivateIdentifier{Name: name}, r)
}

func (f *factory) Array(elements []ast.Node, r Range) *ast.ArrayExpression {
	return at(f, &ast.ArrayExpression{Elements: elements}, r)
}

func (f *factory) Object(properties []ast.Node, r Range) *ast.ObjectExpression {
	return at(f, &ast.ObjectExpression{Properties: properties}, r)
}

func (f *factory) Property(key, value ast.Node, kind string, computed, method, shorthand bool, r Range) *ast.Property {
	return at(f, &ast.Property{
		Key: key, Value: value, Kind: kind,
		Computed: computed, Method: method, Shorthand: shorthand,
	}, r)
}

func (f *factory) Spread(arg ast.Node, r Range) *ast.SpreadElement {
	return at(f, &ast.SpreadElement{Argument: arg}, r)
}

func (f *factory) Rest(arg ast.Node, r Range) *ast.RestElement {
	return at(f, &ast.RestElement{Argument: arg}, r)
}

func (f *factory) ArrayPattern(elements []ast.Node, r Range) *ast.ArrayPattern {
	return at(f, &ast.ArrayPattern{Elements: elements}, r)
}

func (f *factory) ObjectPattern(properties []ast.Node, r Range) *ast.ObjectPattern {
	return at(f, &ast.ObjectPattern{Properties: properties}, r)
}

func (f *factory) AssignmentPattern(left, right ast.Node, r Range) *ast.AssignmentPattern {
	return at(f, &ast.AssignmentPattern{Left: left, Right: right}, r)
}

func (f *factory) Unary(op string, arg ast.Node, r Range) *ast.UnaryExpression {
	return at(f, &ast.UnaryExpression{Operator: op, Prefix: true, Argument: arg}, r)
}

func (f *factory) Update(op string, prefix bool, arg ast.Node, r Range) *ast.UpdateExpression {
	return at(f, &ast.UpdateExpression{Operator: op, Prefix: prefix, Argument: arg}, r)
}

func (f *factory) Binary(op string, left, right ast.Node, r Range) *ast.BinaryExpression {
	return at(f, &ast.BinaryExpression{Operator: op, Left: left, Right: right}, r)
}

func (f *factory) Logical(op string, left, right ast.Node, r Range) *ast.LogicalExpression {
	return at(f, &ast.LogicalExpression{Operator: op, Left: left, Right: right}, r)
}

func (f *factory) Assignment(op string, left, right ast.Node, r Range) *ast.AssignmentExpression {
	return at(f, &ast.AssignmentExpression{Operator: op, Left: left, Right: right}, r)
}

func (f *factory) Conditional(test, consequent, alternate ast.Node, r Range) *ast.ConditionalExpression {
	return at(f, &ast.ConditionalExpression{Test: test, Consequent: consequent, Alternate: alternate}, r)
}

func (f *factory) Sequence(list []ast.Node, r Range) *ast.SequenceExpression {
	return at(f, &ast.SequenceExpression{Expressions: list}, r)
}

func (f *factory) Pipeline(left, right ast.Node, args []ast.Node, colon bool, r Range) *ast.PipelineExpression {
	return at(f, &ast.PipelineExpression{Left: left, Right: right, Arguments: args, Colon: colon}, r)
}

func (f *factory) Placeholder(spread bool, r Range) *ast.PipelinePlaceholder {
	return at(f, &ast.PipelinePlaceholder{Spread: spread}, r)
}

func (f *factory) Chain(expr ast.Node, r Range) *ast.ChainExpression {
	return at(f, &ast.ChainExpression{Expression: expr}, r)
}

func (f *factory) Member(object, property ast.Node, computed, optional bool, r Range) *ast.MemberExpression {
	return at(f, &ast.MemberExpression{Object: object, Property: property, Computed: computed, Optional: optional}, r)
}

func (f *factory) Call(callee ast.Node, args []ast.Node, optional bool, r Range) *ast.CallExpression {
	return at(f, &ast.CallExpression{Callee: callee, Arguments: args, Optional: optional}, r)
}

func (f *factory) New(callee ast.Node, args []ast.Node, r Range) *ast.NewExpression {
	return at(f, &ast.NewExpression{Callee: callee, Arguments: args}, r)
}

func (f *factory) Yield(arg ast.Node, delegate bool, r Range) *ast.YieldExpression {
	return at(f, &ast.YieldExpression{Argument: arg, Delegate: delegate}, r)
}

func (f *factory) Await(arg ast.Node, r Range) *ast.AwaitExpression {
	return at(f, &ast.AwaitExpression{Argument: arg}, r)
}

func (f *factory) ImportCall(source, options ast.Node, r Range) *ast.ImportExpression {
	return at(f, &ast.ImportExpression{Source: source, Options: options}, r)
}

func (f *factory) FunctionDeclaration(id *ast.Identifier, params []ast.Node, body *ast.BlockStatement, generator, async bool, r Range) *ast.FunctionDeclaration {
	return at(f, &ast.FunctionDeclaration{ID: id, Params: params, Body: body, Generator: generator, Async: async}, r)
}

func (f *factory) FunctionExpression(id *ast.Identifier, params []ast.Node, body *ast.BlockStatement, generator, async bool, r Range) *ast.FunctionExpression {
	return at(f, &ast.FunctionExpression{ID: id, Params: params, Body: body, Generator: generator, Async: async}, r)
}

func (f *factory) Arrow(params []ast.Node, body ast.Node, expression, async bool, r Range) *ast.ArrowFunctionExpression {
	return at(f, &ast.ArrowFunctionExpression{Params: params, Body: body, Expression: expression, Async: async}, r)
}

func (f *factory) ClassDeclaration(id *ast.Identifier, superClass ast.Node, body *ast.ClassBody, r Range) *ast.ClassDeclaration {
	return at(f, &ast.ClassDeclaration{ID: id, SuperClass: superClass, Body: body}, r)
}

func (f *factory) ClassExpression(id *ast.Identifier, superClass ast.Node, body *ast.ClassBody, r Range) *ast.ClassExpression {
	return at(f, &ast.ClassExpression{ID: id, SuperClass: superClass, Body: body}, r)
}

func (f *factory) ClassBody(members []ast.Node, r Range) *ast.ClassBody {
	return at(f, &ast.ClassBody{Body: members}, r)
}

func (f *factory) Method(key ast.Node, value *ast.FunctionExpression, kind string, computed, static bool, r Range) *ast.MethodDefinition {
	return at(f, &ast.MethodDefinition{Key: key, Value: value, Kind: kind, Computed: computed, Static: static}, r)
}

func (f *factory) Field(key, value ast.Node, computed, static bool, r Range) *ast.PropertyDefinition {
	return at(f, &ast.PropertyDefinition{Key: key, Value: value, Computed: computed, Static: static}, r)
}

func (f *factory) Accessor(key, value ast.Node, computed, static bool, r Range) *ast.AccessorProperty {
	return at(f, &ast.AccessorProperty{Key: key, Value: value, Computed: computed, Static: static}, r)
}

func (f *factory) StaticBlock(body []ast.Node, r Range) *ast.StaticBlock {
	return at(f, &ast.StaticBlock{Body: body}, r)
}

func (f *factory) Program(body []ast.Node, sourceType string, r Range) *ast.Program {
	return at(f, &ast.Program{Body: body, SourceType: sourceType}, r)
}

func (f *factory) ExpressionStatement(expr ast.Node, directive string, r Range) *ast.ExpressionStatement {
	return at(f, &ast.ExpressionStatement{Expression: expr, Directive: directive}, r)
}

func (f *factory) Empty(r Range) *ast.EmptyStatement       { return at(f, &ast.EmptyStatement{}, r) }
func (f *factory) Debugger(r Range) *ast.DebuggerStatement { return at(f, &ast.DebuggerStatement{}, r) }

func (f *factory) Block(list []ast.Node, r Range) *ast.BlockStatement {
	return at(f, &ast.BlockStatement{Body: list}, r)
}

func (f *factory) If(test, consequent, alternate ast.Node, r Range) *ast.IfStatement {
	return at(f, &ast.IfStatement{Test: test, Consequent: consequent, Alternate: alternate}, r)
}

func (f *factory) While(test, body ast.Node, r Range) *ast.WhileStatement {
	return at(f, &ast.WhileStatement{Test: test, Body: body}, r)
}

func (f *factory) DoWhile(body, test ast.Node, r Range) *ast.DoWhileStatement {
	return at(f, &ast.DoWhileStatement{Body: body, Test: test}, r)
}

func (f *factory) For(init, test, update, body ast.Node, r Range) *ast.ForStatement {
	return at(f, &ast.ForStatement{Init: init, Test: test, Update: update, Body: body}, r)
}

func (f *factory) ForIn(left, right, body ast.Node, r Range) *ast.ForInStatement {
	return at(f, &ast.ForInStatement{Left: left, Right: right, Body: body}, r)
}

func (f *factory) ForOf(left, right, body ast.Node, r Range) *ast.ForOfStatement {
	return at(f, &ast.ForOfStatement{Left: left, Right: right, Body: body}, r)
}

func (f *factory) ForAwaitOf(left, right, body ast.Node, r Range) *ast.ForAwaitOfStatement {
	return at(f, &ast.ForAwaitOfStatement{Left: left, Right: right, Body: body}, r)
}

func (f *factory) Switch(discriminant ast.Node, cases []*ast.SwitchCase, r Range) *ast.SwitchStatement {
	return at(f, &ast.SwitchStatement{Discriminant: discriminant, Cases: cases}, r)
}

func (f *factory) SwitchCase(test ast.Node, consequent []ast.Node, r Range) *ast.SwitchCase {
	return at(f, &ast.SwitchCase{Test: test, Consequent: consequent}, r)
}

func (f *factory) Try(block *ast.BlockStatement, handler *ast.CatchClause, finalizer *ast.BlockStatement, r Range) *ast.TryStatement {
	return at(f, &ast.TryStatement{Block: block, Handler: handler, Finalizer: finalizer}, r)
}

func (f *factory) Catch(param ast.Node, body *ast.BlockStatement, r Range) *ast.CatchClause {
	return at(f, &ast.CatchClause{Param: param, Body: body}, r)
}

func (f *factory) Throw(arg ast.Node, r Range) *ast.ThrowStatement {
	return at(f, &ast.ThrowStatement{Argument: arg}, r)
}

func (f *factory) Return(arg ast.Node, r Range) *ast.ReturnStatement {
	return at(f, &ast.ReturnStatement{Argument: arg}, r)
}

func (f *factory) Break(label *ast.Identifier, r Range) *ast.BreakStatement {
	return at(f, &ast.BreakStatement{Label: label}, r)
}

func (f *factory) Continue(label *ast.Identifier, r Range) *ast.ContinueStatement {
	return at(f, &ast.ContinueStatement{Label: label}, r)
}

func (f *factory) Labeled(label *ast.Identifier, body ast.Node, r Range) *ast.LabeledStatement {
	return at(f, &ast.LabeledStatement{Label: label, Body: body}, r)
}

func (f *factory) VariableDeclaration(kind string, list []*ast.VariableDeclarator, r Range) *ast.VariableDeclaration {
	return at(f, &ast.VariableDeclaration{Kind: kind, Declarations: list}, r)
}

func (f *factory) VariableDeclarator(id, init ast.Node, r Range) *ast.VariableDeclarator {
	return at(f, &ast.VariableDeclarator{ID: id, Init: init}, r)
}

func (f *factory) Import(specifiers []ast.Node, source *ast.Literal, attrs []*ast.ImportAttribute, r Range) *ast.ImportDeclaration {
	return at(f, &ast.ImportDeclaration{Specifiers: specifiers, Source: source, Attributes: attrs}, r)
}

func (f *factory) ImportSpecifier(imported ast.Node, local *ast.Identifier, r Range) *ast.ImportSpecifier {
	return at(f, &ast.ImportSpecifier{Imported: imported, Local: local}, r)
}

func (f *factory) ImportDefaultSpecifier(local *ast.Identifier, r Range) *ast.ImportDefaultSpecifier {
	return at(f, &ast.ImportDefaultSpecifier{Local: local}, r)
}

func (f *factory) ImportNamespaceSpecifier(local *ast.Identifier, r Range) *ast.ImportNamespaceSpecifier {
	return at(f, &ast.ImportNamespaceSpecifier{Local: local}, r)
}

func (f *factory) ImportAttribute(key ast.Node, value *ast.Literal, r Range) *ast.ImportAttribute {
	return at(f, &ast.ImportAttribute{Key: key, Value: value}, r)
}

func (f *factory) ExportNamed(decl ast.Node, specifiers []*ast.ExportSpecifier, source *ast.Literal, attrs []*ast.ImportAttribute, r Range) *ast.ExportNamedDeclaration {
	return at(f, &ast.ExportNamedDeclaration{Declaration: decl, Specifiers: specifiers, Source: source, Attributes: attrs}, r)
}

func (f *factory) ExportSpecifier(local, exported ast.Node, r Range) *ast.ExportSpecifier {
	return at(f, &ast.ExportSpecifier{Local: local, Exported: exported}, r)
}

func (f *factory) ExportDefault(decl ast.Node, r Range) *ast.ExportDefaultDeclaration {
	return at(f, &ast.ExportDefaultDeclaration{Declaration: decl}, r)
}

func (f *factory) ExportAll(exported ast.Node, source *ast.Literal, attrs []*ast.ImportAttribute, r Range) *ast.ExportAllDeclaration {
	return at(f, &ast.ExportAllDeclaration{Exported: exported, Source: source, Attributes: attrs}, r)
}
