package reactive

import (
	"log/slog"

	"github.com/example/expressions/ast"
	"github.com/example/expressions/scope"
)

// Binding keeps an expression evaluated against a reactive scope.
type Binding struct {
	node  ast.Node
	stack *scope.Stack
	fn    func(v any, err error)
	subs  []*Subscription
	names []string
}

// Bind evaluates n against s, hands the result to fn, and does so again
// whenever one of the root names n reads changes in rs.
func Bind(n ast.Node, s *scope.Stack, rs *Scope, fn func(v any, err error)) *Binding {
	b := &Binding{node: n, stack: s, fn: fn, names: ast.Entries(n)}
	for _, name := range b.names {
		b.subs = append(b.subs, rs.Subscribe(name, func(any, any) { b.update() }))
	}
	rs.log.Debug("bound expression", slog.String("expression", n.String()), slog.Any("names", b.names))
	b.update()

	return b
}

func (b *Binding) update() {
	b.fn(b.node.Get(b.stack))
}

// Names lists the root names the binding reacts to.
func (b *Binding) Names() []string { return b.names }

// Pause stops re-evaluation until [Binding.Resume].
func (b *Binding) Pause() {
	for _, sub := range b.subs {
		sub.Pause()
	}
}

// Resume restarts re-evaluation and re-evaluates once.
func (b *Binding) Resume() {
	for _, sub := range b.subs {
		sub.Resume()
	}
	b.update()
}

// Unbind removes the binding.
func (b *Binding) Unbind() {
	for _, sub := range b.subs {
		sub.Unsubscribe()
	}
	b.subs = nil
}
