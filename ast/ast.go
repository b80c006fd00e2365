// Package ast defines the syntax tree of the expression language. Every node
// evaluates itself against a [scope.Stack] (Get), assigns through itself
// where that makes sense (Set), regenerates its source (String) and
// serializes to a tagged JSON shape that [Deserialize] reconstructs.
//
// Trees are immutable once built and may be shared by any number of
// concurrent evaluations, each with its own stack.
package ast

import (
	"encoding/json"
	"errors"
	"reflect"

	"github.com/example/expressions/runtime"
	"github.com/example/expressions/scope"
)

// Node is the interface all AST nodes implement.
type Node interface {
	// Type returns the JSON type tag.
	Type() string
	// Get evaluates the node. Statements may return a [runtime.Sentinel].
	Get(s *scope.Stack) (any, error)
	// Set assigns value through the node.
	Set(s *scope.Stack, value any) error
	// String regenerates source text.
	String() string
	// Children returns the direct child nodes in source order.
	Children() []Node

	json.Marshaler
}

// Position is a 1-based line and column.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// SourceLocation is the optional location metadata of a node.
type SourceLocation struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
	Range [2]int   `json:"range"`
}

// Span is embedded by every node to carry its location.
type Span struct {
	Loc *SourceLocation `json:"loc,omitempty"`
}

// Location returns the node location, or nil when it was not recorded.
func (s *Span) Location() *SourceLocation { return s.Loc }

// SetLocation records the node location.
func (s *Span) SetLocation(loc *SourceLocation) { s.Loc = loc }

// Locatable is implemented by nodes embedding [Span].
type Locatable interface {
	Location() *SourceLocation
	SetLocation(loc *SourceLocation)
}

// GetWith evaluates n with an explicit this value.
func GetWith(n Node, s *scope.Stack, this any) (any, error) {
	st := s.Copy()
	st.PushBlockScope().Define(keyThis, this)

	return n.Get(st)
}

// Reserved scope keys. None of them is a valid identifier.
const (
	keyThis      = "this"
	keyNewTarget = "new.target"
	keyHome      = "%home"
	keySuper     = "%super"
	keyArguments = "arguments"
	keyMeta      = "import.meta"
)

// errChainBreak short-circuits an optional chain. ChainExpression turns it
// into undefined; it never escapes a well-formed tree.
var errChainBreak = errors.New("optional chain short-circuit")

func noSet(n Node) error { return runtime.NoImplementation(n.Type(), "set") }

func nodes[T Node](list []T) []Node {
	out := make([]Node, 0, len(list))
	for _, n := range list {
		out = append(out, n)
	}

	return out
}

// optional appends the non-nil nodes to list.
func optional(list []Node, ns ...Node) []Node {
	for _, n := range ns {
		if !isNilNode(n) {
			list = append(list, n)
		}
	}

	return list
}

func isNilNode(n Node) bool {
	if n == nil {
		return true
	}
	v := reflect.ValueOf(n)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
