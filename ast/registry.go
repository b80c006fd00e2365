package ast

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/example/expressions/diag"
)

// ErrUnknownType is returned when serialized input names a node type the
// registry does not know.
var ErrUnknownType = diag.ErrRegistry.Detail("unknown node type")

// fromJSON builds one node from its serialized fields.
type fromJSON func(raw json.RawMessage) (Node, error)

// registry maps every type tag to its decoder. It is filled in init
// because decoders recurse through FromJSON.
var registry map[string]fromJSON

func init() {
	registry = map[string]fromJSON{
		"Identifier":               decode[Identifier],
		"Literal":                  decode[Literal],
		"TemplateElement":          decode[TemplateElement],
		"TemplateLiteral":          decode[TemplateLiteral],
		"TaggedTemplateExpression": decode[TaggedTemplateExpression],
		"ThisExpression":           decode[ThisExpression],
		"Super":                    decode[Super],
		"MetaProperty":             decode[MetaProperty],
		"PrivateIdentifier":        decode[PrivateIdentifier],

		"ArrayExpression":   decode[ArrayExpression],
		"ObjectExpression":  decode[ObjectExpression],
		"Property":          decode[Property],
		"SpreadElement":     decode[SpreadElement],
		"RestElement":       decode[RestElement],
		"ArrayPattern":      decode[ArrayPattern],
		"ObjectPattern":     decode[ObjectPattern],
		"AssignmentPattern": decode[AssignmentPattern],

		"UnaryExpression":       decode[UnaryExpression],
		"UpdateExpression":      decode[UpdateExpression],
		"BinaryExpression":      decode[BinaryExpression],
		"LogicalExpression":     decode[LogicalExpression],
		"AssignmentExpression":  decode[AssignmentExpression],
		"ConditionalExpression": decode[ConditionalExpression],
		"SequenceExpression":    decode[SequenceExpression],
		"PipelineExpression":    decode[PipelineExpression],
		"PipelinePlaceholder":   decode[PipelinePlaceholder],
		"ChainExpression":       decode[ChainExpression],
		"MemberExpression":      decode[MemberExpression],
		"CallExpression":        decode[CallExpression],
		"NewExpression":         decode[NewExpression],
		"YieldExpression":       decode[YieldExpression],
		"AwaitExpression":       decode[AwaitExpression],
		"ImportExpression":      decode[ImportExpression],

		"FunctionDeclaration":     decode[FunctionDeclaration],
		"FunctionExpression":      decode[FunctionExpression],
		"ArrowFunctionExpression": decode[ArrowFunctionExpression],

		"ClassDeclaration":   decode[ClassDeclaration],
		"ClassExpression":    decode[ClassExpression],
		"ClassBody":          decode[ClassBody],
		"MethodDefinition":   decode[MethodDefinition],
		"PropertyDefinition": decode[PropertyDefinition],
		"AccessorProperty":   decode[AccessorProperty],
		"StaticBlock":        decode[StaticBlock],

		"Program":             decode[Program],
		"ExpressionStatement": decode[ExpressionStatement],
		"EmptyStatement":      decode[EmptyStatement],
		"DebuggerStatement":   decode[DebuggerStatement],
		"BlockStatement":      decode[BlockStatement],
		"IfStatement":         decode[IfStatement],
		"WhileStatement":      decode[WhileStatement],
		"DoWhileStatement":    decode[DoWhileStatement],
		"ForStatement":        decode[ForStatement],
		"ForInStatement":      decode[ForInStatement],
		"ForOfStatement":      decode[ForOfStatement],
		"ForAwaitOfStatement": decode[ForAwaitOfStatement],
		"SwitchStatement":     decode[SwitchStatement],
		"SwitchCase":          decode[SwitchCase],
		"TryStatement":        decode[TryStatement],
		"CatchClause":         decode[CatchClause],
		"ThrowStatement":      decode[ThrowStatement],
		"ReturnStatement":     decode[ReturnStatement],
		"BreakStatement":      decode[BreakStatement],
		"ContinueStatement":   decode[ContinueStatement],
		"LabeledStatement":    decode[LabeledStatement],
		"VariableDeclaration": decode[VariableDeclaration],
		"VariableDeclarator":  decode[VariableDeclarator],

		"ImportDeclaration":        decode[ImportDeclaration],
		"ImportSpecifier":          decode[ImportSpecifier],
		"ImportDefaultSpecifier":   decode[ImportDefaultSpecifier],
		"ImportNamespaceSpecifier": decode[ImportNamespaceSpecifier],
		"ImportAttribute":          decode[ImportAttribute],
		"ExportNamedDeclaration":   decode[ExportNamedDeclaration],
		"ExportSpecifier":          decode[ExportSpecifier],
		"ExportDefaultDeclaration": decode[ExportDefaultDeclaration],
		"ExportAllDeclaration":     decode[ExportAllDeclaration],
	}
}

// Types returns the registered type tags.
func Types() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}

	return out
}

// Deserialize rebuilds a tree from its JSON encoding.
func Deserialize(data []byte) (Node, error) {
	return FromJSON(json.RawMessage(data))
}

// FromJSON rebuilds the node encoded in raw. A JSON null yields a nil node.
func FromJSON(raw json.RawMessage) (Node, error) {
	if isNull(raw) {
		return nil, nil
	}

	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, diag.ErrRegistry.Wrap(err)
	}
	build, ok := registry[head.Type]
	if !ok {
		return nil, ErrUnknownType.Detail(fmt.Sprintf("%q", head.Type)).With(slog.String("type", head.Type))
	}

	return build(raw)
}

func isNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

var (
	nodeType = reflect.TypeFor[Node]()
	spanType = reflect.TypeFor[Span]()
)

// decode builds a *T from its tagged fields. Node valued fields, lists of
// nodes and concrete node pointers are rebuilt through the registry; other
// fields are plain JSON.
func decode[T any, P interface {
	*T
	Node
}](raw json.RawMessage) (Node, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, diag.ErrRegistry.Wrap(err)
	}

	n := P(new(T))
	if err := fill(reflect.ValueOf(n).Elem(), fields); err != nil {
		return nil, err
	}

	return n, nil
}

func fill(v reflect.Value, fields map[string]json.RawMessage) error {
	t := v.Type()
	for i := range t.NumField() {
		f := t.Field(i)
		if f.Anonymous && f.Type == spanType {
			if err := fill(v.Field(i), fields); err != nil {
				return err
			}
			continue
		}

		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}
		raw, ok := fields[name]
		if !ok || isNull(raw) {
			continue
		}

		if err := decodeField(v.Field(i), raw); err != nil {
			return diag.ErrRegistry.Wrap(err).With(slog.String("field", t.Name()+"."+f.Name))
		}
	}

	return nil
}

func decodeField(v reflect.Value, raw json.RawMessage) error {
	ft := v.Type()
	switch {
	case ft.Implements(nodeType):
		n, err := node(raw, ft)
		if err != nil {
			return err
		}
		v.Set(n)
		return nil

	case ft.Kind() == reflect.Slice && ft.Elem().Implements(nodeType):
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return err
		}
		list := reflect.MakeSlice(ft, len(items), len(items))
		for i, item := range items {
			if isNull(item) {
				continue
			}
			n, err := node(item, ft.Elem())
			if err != nil {
				return err
			}
			list.Index(i).Set(n)
		}
		v.Set(list)
		return nil
	}

	return json.Unmarshal(raw, v.Addr().Interface())
}

// node decodes raw and checks that the result fits a field of type want.
func node(raw json.RawMessage, want reflect.Type) (reflect.Value, error) {
	n, err := FromJSON(raw)
	if err != nil {
		return reflect.Value{}, err
	}
	if n == nil {
		return reflect.Zero(want), nil
	}

	rv := reflect.ValueOf(n)
	if !rv.Type().AssignableTo(want) {
		return reflect.Value{}, fmt.Errorf("%s is not a valid %s", n.Type(), want)
	}

	return rv, nil
}
