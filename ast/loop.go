package ast

import (
	"strings"

	"github.com/example/expressions/runtime"
	"github.com/example/expressions/scope"
)

// control interprets the completion of a loop body. It reports whether the
// loop stops, and the sentinel to propagate when it does (nil for a break
// aimed at this loop).
func control(v any, labels []string) (stop bool, out any) {
	switch t := v.(type) {
	case *runtime.Terminate:
		if !t.Matches(labels) {
			return true, t
		}
		return t.Kind == runtime.Break, nil
	case runtime.Sentinel:
		return true, t
	}

	return false, nil
}

// WhileStatement is while (test) body. The test is evaluated before every
// iteration.
type WhileStatement struct {
	Span
	Test Node `json:"test"`
	Body Node `json:"body"`
}

func (n *WhileStatement) Type() string                    { return "WhileStatement" }
func (n *WhileStatement) Get(s *scope.Stack) (any, error) { return n.run(s, nil) }

func (n *WhileStatement) run(s *scope.Stack, labels []string) (any, error) {
	var result any = runtime.Undefined
	for {
		t, err := n.Test.Get(s)
		if err != nil {
			return nil, err
		}
		if !runtime.ToBoolean(t) {
			return result, nil
		}

		v, err := exec(s, n.Body)
		if err != nil {
			return nil, err
		}
		if stop, out := control(v, labels); stop {
			if out != nil {
				return out, nil
			}
			return result, nil
		}
		if !runtime.IsSentinel(v) {
			result = v
		}
	}
}

func (n *WhileStatement) Set(*scope.Stack, any) error { return noSet(n) }
func (n *WhileStatement) String() string              { return "while (" + n.Test.String() + ") " + n.Body.String() }
func (n *WhileStatement) Children() []Node            { return []Node{n.Test, n.Body} }

func (n *WhileStatement) MarshalJSON() ([]byte, error) {
	type plain WhileStatement
	return marshalNode(n.Type(), (*plain)(n))
}

// DoWhileStatement is do body while (test).
type DoWhileStatement struct {
	Span
	Body Node `json:"body"`
	Test Node `json:"test"`
}

func (n *DoWhileStatement) Type() string                    { return "DoWhileStatement" }
func (n *DoWhileStatement) Get(s *scope.Stack) (any, error) { return n.run(s, nil) }

func (n *DoWhileStatement) run(s *scope.Stack, labels []string) (any, error) {
	var result any = runtime.Undefined
	for {
		v, err := exec(s, n.Body)
		if err != nil {
			return nil, err
		}
		if stop, out := control(v, labels); stop {
			if out != nil {
				return out, nil
			}
			return result, nil
		}
		if !runtime.IsSentinel(v) {
			result = v
		}

		t, err := n.Test.Get(s)
		if err != nil {
			return nil, err
		}
		if !runtime.ToBoolean(t) {
			return result, nil
		}
	}
}

func (n *DoWhileStatement) Set(*scope.Stack, any) error { return noSet(n) }

func (n *DoWhileStatement) String() string {
	return "do " + n.Body.String() + " while (" + n.Test.String() + ");"
}

func (n *DoWhileStatement) Children() []Node { return []Node{n.Body, n.Test} }

func (n *DoWhileStatement) MarshalJSON() ([]byte, error) {
	type plain DoWhileStatement
	return marshalNode(n.Type(), (*plain)(n))
}

// ForStatement is for (init; test; update) body. Bindings declared with let
// in init are copied into a fresh scope for every iteration, so closures
// created by the body see the value of their own iteration.
type ForStatement struct {
	Span
	Init   Node `json:"init"`
	Test   Node `json:"test"`
	Update Node `json:"update"`
	Body   Node `json:"body"`
}

func (n *ForStatement) Type() string                    { return "ForStatement" }
func (n *ForStatement) Get(s *scope.Stack) (any, error) { return n.run(s, nil) }

func (n *ForStatement) run(s *scope.Stack, labels []string) (any, error) {
	head := s.PushBlockScope()
	defer s.ClearTo(head)

	var copied []string
	if n.Init != nil {
		if _, err := exec(s, n.Init); err != nil {
			return nil, err
		}
		if d, ok := n.Init.(*VariableDeclaration); ok && d.Kind == "let" {
			for _, decl := range d.Declarations {
				copied = append(copied, BoundNames(decl.ID)...)
			}
		}
	}

	iteration := head
	fresh := func() {
		if len(copied) == 0 {
			return
		}
		next := scope.New(scope.Block, nil)
		for _, name := range copied {
			v, _ := iteration.Get(name)
			next.Define(name, v)
		}
		if iteration != head {
			s.ClearTo(iteration)
		}
		iteration = s.Push(next)
	}
	fresh()

	var result any = runtime.Undefined
	for {
		if n.Test != nil {
			t, err := n.Test.Get(s)
			if err != nil {
				return nil, err
			}
			if !runtime.ToBoolean(t) {
				return result, nil
			}
		}

		v, err := exec(s, n.Body)
		if err != nil {
			return nil, err
		}
		if stop, out := control(v, labels); stop {
			if out != nil {
				return out, nil
			}
			return result, nil
		}
		if !runtime.IsSentinel(v) {
			result = v
		}

		fresh()
		if n.Update != nil {
			if _, err := n.Update.Get(s); err != nil {
				return nil, err
			}
		}
	}
}

func (n *ForStatement) Set(*scope.Stack, any) error { return noSet(n) }

func (n *ForStatement) String() string {
	var sb strings.Builder
	sb.WriteString("for (")
	switch init := n.Init.(type) {
	case nil:
	case *VariableDeclaration:
		sb.WriteString(init.head())
	default:
		sb.WriteString(init.String())
	}
	sb.WriteString(";")
	if n.Test != nil {
		sb.WriteString(" " + n.Test.String())
	}
	sb.WriteString(";")
	if n.Update != nil {
		sb.WriteString(" " + n.Update.String())
	}
	sb.WriteString(") " + n.Body.String())

	return sb.String()
}

func (n *ForStatement) Children() []Node {
	return append(optional(nil, n.Init, n.Test, n.Update), n.Body)
}

func (n *ForStatement) MarshalJSON() ([]byte, error) {
	type plain ForStatement
	return marshalNode(n.Type(), (*plain)(n))
}

// bindEach assigns the current value of a for-in or for-of loop to its
// head, which is either a declaration or an assignment target.
func bindEach(s *scope.Stack, left Node, v any) error {
	if d, ok := left.(*VariableDeclaration); ok {
		return d.declareValue(s, v)
	}

	return left.Set(s, v)
}

func eachHead(left Node) string {
	if d, ok := left.(*VariableDeclaration); ok {
		return d.head()
	}

	return left.String()
}

// eachStep runs one iteration of a for-in, for-of or for await loop body
// in a fresh block scope. It returns a non-nil value when the loop stops:
// the sentinel to propagate or undefined for a break aimed at the loop.
func eachStep(s *scope.Stack, left, body Node, labels []string, v any) (any, error) {
	sc := s.PushBlockScope()
	defer s.ClearTo(sc)

	if err := bindEach(s, left, v); err != nil {
		return nil, err
	}
	r, err := exec(s, body)
	if err != nil {
		return nil, err
	}
	if stop, out := control(r, labels); stop {
		if out != nil {
			return out, nil
		}
		return runtime.Undefined, nil
	}

	return nil, nil
}

// ForInStatement iterates the enumerable string keys of an object.
type ForInStatement struct {
	Span
	Left  Node `json:"left"`
	Right Node `json:"right"`
	Body  Node `json:"body"`
}

func (n *ForInStatement) Type() string                    { return "ForInStatement" }
func (n *ForInStatement) Get(s *scope.Stack) (any, error) { return n.run(s, nil) }

func (n *ForInStatement) run(s *scope.Stack, labels []string) (any, error) {
	obj, err := n.Right.Get(s)
	if err != nil {
		return nil, err
	}
	if runtime.IsNullish(obj) {
		return runtime.Undefined, nil
	}

	for _, k := range runtime.ForInKeys(obj) {
		r, err := eachStep(s, n.Left, n.Body, labels, k)
		if err != nil {
			return nil, err
		}
		if r != nil {
			return r, nil
		}
	}

	return runtime.Undefined, nil
}

func (n *ForInStatement) Set(*scope.Stack, any) error { return noSet(n) }

func (n *ForInStatement) String() string {
	return "for (" + eachHead(n.Left) + " in " + n.Right.String() + ") " + n.Body.String()
}

func (n *ForInStatement) Children() []Node { return []Node{n.Left, n.Right, n.Body} }

func (n *ForInStatement) MarshalJSON() ([]byte, error) {
	type plain ForInStatement
	return marshalNode(n.Type(), (*plain)(n))
}

// ForOfStatement iterates the values of an iterable. The iterator is
// closed when the loop exits early.
type ForOfStatement struct {
	Span
	Left  Node `json:"left"`
	Right Node `json:"right"`
	Body  Node `json:"body"`
}

func (n *ForOfStatement) Type() string                    { return "ForOfStatement" }
func (n *ForOfStatement) Get(s *scope.Stack) (any, error) { return n.run(s, nil) }

func (n *ForOfStatement) run(s *scope.Stack, labels []string) (any, error) {
	v, err := n.Right.Get(s)
	if err != nil {
		return nil, err
	}
	it, err := runtime.GetIterator(v)
	if err != nil {
		return nil, err
	}

	for {
		item, done, err := it.Next()
		if err != nil {
			return nil, err
		}
		if done {
			return runtime.Undefined, nil
		}

		r, err := eachStep(s, n.Left, n.Body, labels, item)
		if err != nil {
			_ = it.Close()
			return nil, err
		}
		if r != nil {
			return r, it.Close()
		}
	}
}

func (n *ForOfStatement) Set(*scope.Stack, any) error { return noSet(n) }

func (n *ForOfStatement) String() string {
	return "for (" + eachHead(n.Left) + " of " + n.Right.String() + ") " + n.Body.String()
}

func (n *ForOfStatement) Children() []Node { return []Node{n.Left, n.Right, n.Body} }

func (n *ForOfStatement) MarshalJSON() ([]byte, error) {
	type plain ForOfStatement
	return marshalNode(n.Type(), (*plain)(n))
}

// ForAwaitOfStatement is for await (left of right) body. Evaluating it
// registers the loop on the stack's for await channel; the enclosing
// statement runner drives it, settling every value before the body sees
// it.
type ForAwaitOfStatement struct {
	Span
	Left  Node `json:"left"`
	Right Node `json:"right"`
	Body  Node `json:"body"`
}

func (n *ForAwaitOfStatement) Type() string                    { return "ForAwaitOfStatement" }
func (n *ForAwaitOfStatement) Get(s *scope.Stack) (any, error) { return n.run(s, nil) }

func (n *ForAwaitOfStatement) run(s *scope.Stack, labels []string) (any, error) {
	v, err := n.Right.Get(s)
	if err != nil {
		return nil, err
	}
	it, err := runtime.GetAsyncIterator(s.Await, v)
	if err != nil {
		return nil, err
	}

	s.SetForAwait(&scope.AsyncIteration{
		Iterator: it,
		Step: func(item any) (any, error) {
			return eachStep(s, n.Left, n.Body, labels, item)
		},
	})

	return runtime.Undefined, nil
}

func (n *ForAwaitOfStatement) Set(*scope.Stack, any) error { return noSet(n) }

func (n *ForAwaitOfStatement) String() string {
	return "for await (" + eachHead(n.Left) + " of " + n.Right.String() + ") " + n.Body.String()
}

func (n *ForAwaitOfStatement) Children() []Node { return []Node{n.Left, n.Right, n.Body} }

func (n *ForAwaitOfStatement) MarshalJSON() ([]byte, error) {
	type plain ForAwaitOfStatement
	return marshalNode(n.Type(), (*plain)(n))
}

// SwitchStatement runs the cases from the first one whose test strictly
// equals the discriminant, or from default. break exits the switch;
// continue and return propagate to the enclosing construct.
type SwitchStatement struct {
	Span
	Discriminant Node          `json:"discriminant"`
	Cases        []*SwitchCase `json:"cases"`
}

func (n *SwitchStatement) Type() string                    { return "SwitchStatement" }
func (n *SwitchStatement) Get(s *scope.Stack) (any, error) { return n.run(s, nil) }

func (n *SwitchStatement) run(s *scope.Stack, labels []string) (any, error) {
	d, err := n.Discriminant.Get(s)
	if err != nil {
		return nil, err
	}

	start := -1
	for i, c := range n.Cases {
		if c.Test == nil {
			continue
		}
		t, err := c.Test.Get(s)
		if err != nil {
			return nil, err
		}
		if runtime.StrictEquals(d, t) {
			start = i
			break
		}
	}
	if start < 0 {
		for i, c := range n.Cases {
			if c.Test == nil {
				start = i
				break
			}
		}
	}
	if start < 0 {
		return runtime.Undefined, nil
	}

	sc := s.PushBlockScope()
	defer s.ClearTo(sc)

	var all []Node
	for _, c := range n.Cases {
		all = append(all, c.Consequent...)
	}
	if err := hoistFunctions(s, all); err != nil {
		return nil, err
	}

	var result any = runtime.Undefined
	for _, c := range n.Cases[start:] {
		for _, st := range c.Consequent {
			v, err := exec(s, st)
			if err != nil {
				return nil, err
			}
			if t, ok := v.(*runtime.Terminate); ok && t.Kind == runtime.Break && (t.Label == "" || t.Matches(labels)) {
				return result, nil
			}
			if runtime.IsSentinel(v) {
				return v, nil
			}
			if producesValue(st) {
				result = v
			}
		}
	}

	return result, nil
}

func (n *SwitchStatement) Set(*scope.Stack, any) error { return noSet(n) }

func (n *SwitchStatement) String() string {
	var sb strings.Builder
	sb.WriteString("switch (" + n.Discriminant.String() + ") {\n")
	for _, c := range n.Cases {
		sb.WriteString(c.String())
		sb.WriteByte('\n')
	}
	sb.WriteByte('}')

	return sb.String()
}

func (n *SwitchStatement) Children() []Node {
	return append([]Node{n.Discriminant}, nodes(n.Cases)...)
}

func (n *SwitchStatement) MarshalJSON() ([]byte, error) {
	type plain SwitchStatement
	return marshalNode(n.Type(), (*plain)(n))
}

// SwitchCase is one case clause; a nil Test marks default.
type SwitchCase struct {
	Span
	Test       Node   `json:"test"`
	Consequent []Node `json:"consequent"`
}

func (n *SwitchCase) Type() string { return "SwitchCase" }

func (n *SwitchCase) Get(*scope.Stack) (any, error) {
	return nil, runtime.NoImplementation(n.Type(), "get")
}

func (n *SwitchCase) Set(*scope.Stack, any) error { return noSet(n) }

func (n *SwitchCase) String() string {
	head := "default:"
	if n.Test != nil {
		head = "case " + n.Test.String() + ":"
	}
	var sb strings.Builder
	sb.WriteString(head)
	for _, st := range n.Consequent {
		sb.WriteString("\n" + indent(st.String()))
	}

	return sb.String()
}

func (n *SwitchCase) Children() []Node { return optional(nil, append([]Node{n.Test}, n.Consequent...)...) }

func (n *SwitchCase) MarshalJSON() ([]byte, error) {
	type plain SwitchCase
	return marshalNode(n.Type(), (*plain)(n))
}
