package scope

import "github.com/example/expressions/runtime"

// Kind is the kind of construct a scope belongs to.
type Kind int

const (
	Block Kind = iota
	Function
	Class
	Module
	Global
)

func (k Kind) String() string {
	switch k {
	case Function:
		return "function"
	case Class:
		return "class"
	case Module:
		return "module"
	case Global:
		return "global"
	}

	return "block"
}

// Binding is the declaration form that introduced a name.
type Binding int

const (
	Var Binding = iota
	Let
	Const
	FunctionBinding
	ClassBinding
	Param
)

func (b Binding) String() string {
	switch b {
	case Let:
		return "let"
	case Const:
		return "const"
	case FunctionBinding:
		return "function"
	case ClassBinding:
		return "class"
	case Param:
		return "param"
	}

	return "var"
}

// Lexical reports whether b is block scoped.
func (b Binding) Lexical() bool {
	return b == Let || b == Const || b == ClassBinding
}

// Scope is one binding frame.
type Scope struct {
	kind      Kind
	ctx       Context
	lexical   map[string]bool
	constants map[string]bool
}

// New returns a scope of the given kind backed by ctx. A nil ctx gets a
// fresh [MapContext].
func New(kind Kind, ctx Context) *Scope {
	if ctx == nil {
		ctx = NewMapContext(nil)
	}

	return &Scope{kind: kind, ctx: ctx}
}

// Kind returns the scope kind.
func (s *Scope) Kind() Kind { return s.kind }

// Context returns the backing context.
func (s *Scope) Context() Context { return s.ctx }

// Get reads a binding.
func (s *Scope) Get(key string) (any, bool) { return s.ctx.Get(key) }

// Has reports whether the scope holds key.
func (s *Scope) Has(key string) bool { return s.ctx.Has(key) }

// IsConst reports whether key was declared const in this scope.
func (s *Scope) IsConst(key string) bool { return s.constants[key] }

// Set assigns an existing or implicit binding. Constants cannot be
// reassigned.
func (s *Scope) Set(key string, value any) error {
	if s.constants[key] {
		return runtime.NewTypeError("Assignment to constant variable.")
	}
	s.ctx.Set(key, value)

	return nil
}

// Declare introduces key in this scope. Lexical bindings cannot be
// redeclared in the same scope, nor can a lexical binding shadow a var of
// the same scope. Global scopes belong to the host and accept
// redeclaration, so repeated evaluations against one global work.
func (s *Scope) Declare(key string, value any, b Binding) error {
	if s.kind != Global && (s.lexical[key] || (b.Lexical() && s.ctx.Has(key))) {
		return runtime.NewSyntaxError("Identifier '%s' has already been declared", key)
	}
	if s.kind == Global {
		delete(s.constants, key)
	}

	if b.Lexical() {
		if s.lexical == nil {
			s.lexical = make(map[string]bool)
		}
		s.lexical[key] = true
	}
	if b == Const {
		if s.constants == nil {
			s.constants = make(map[string]bool)
		}
		s.constants[key] = true
	}
	s.ctx.Set(key, value)

	return nil
}

// Define writes key without redeclaration checks. It is used for implicit
// bindings such as this, arguments and class private tables.
func (s *Scope) Define(key string, value any) {
	s.ctx.Set(key, value)
}
