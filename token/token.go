package token

type TokenType int

const (
	// Literals
	Illegal TokenType = iota
	EOF
	Identifier
	PrivateName // #name
	Number
	BigInt
	String
	RegExp

	// Template literal parts
	TemplateHead
	TemplateMiddle
	TemplateTail
	NoSubstitutionTemplate

	// Operators
	Plus
	Minus
	Asterisk
	Slash
	Percent
	Exponent // **
	Assign
	PlusAssign
	MinusAssign
	AsteriskAssign
	SlashAssign
	PercentAssign
	ExponentAssign
	AmpersandAssign
	PipeAssign
	CaretAssign
	LeftShiftAssign
	RightShiftAssign
	UnsignedRightShiftAssign
	NullishAssign // ??=
	AndAssign     // &&=
	OrAssign      // ||=
	Equal
	NotEqual
	StrictEqual
	StrictNotEqual
	LessThan
	GreaterThan
	LessThanOrEqual
	GreaterThanOrEqual
	And
	Or
	Not
	BitwiseAnd
	BitwiseOr
	BitwiseXor
	BitwiseNot
	LeftShift
	RightShift
	UnsignedRightShift
	Increment
	Decrement
	Pipeline // |>

	// Delimiters
	LeftParen
	RightParen
	LeftBrace
	RightBrace
	LeftBracket
	RightBracket
	Semicolon
	Colon
	Comma
	Dot
	Spread // ...
	Arrow  // =>
	QuestionMark
	OptionalChain   // ?.
	NullishCoalesce // ??
	At              // @

	// Keywords
	Var
	Let
	Const
	Function
	Return
	If
	Else
	While
	For
	Do
	Break
	Continue
	Switch
	Case
	Default
	Throw
	Try
	Catch
	Finally
	New
	Delete
	Typeof
	Void
	In
	Instanceof
	This
	Class
	Extends
	Super
	Import
	Export
	Yield
	Async
	Await
	True
	False
	Null
	Debugger
	With
)

// Token is a single lexeme. Start and End are byte offsets into the source;
// Line and Column locate Start. Raw keeps the uncooked text of template
// parts. NewlineBefore records a line terminator between this token and the
// previous one.
type Token struct {
	Type          TokenType
	Literal       string
	Raw           string
	Start         int
	End           int
	Line          int
	Column        int
	NewlineBefore bool
}

// Is reports whether the token has type tt.
func (t Token) Is(tt TokenType) bool { return t.Type == tt }

// IsIdent reports whether the token is the identifier name.
func (t Token) IsIdent(name string) bool {
	return t.Type == Identifier && t.Literal == name
}

var Keywords = map[string]TokenType{
	"var":        Var,
	"let":        Let,
	"const":      Const,
	"function":   Function,
	"return":     Return,
	"if":         If,
	"else":       Else,
	"while":      While,
	"for":        For,
	"do":         Do,
	"break":      Break,
	"continue":   Continue,
	"switch":     Switch,
	"case":       Case,
	"default":    Default,
	"throw":      Throw,
	"try":        Try,
	"catch":      Catch,
	"finally":    Finally,
	"new":        New,
	"delete":     Delete,
	"typeof":     Typeof,
	"void":       Void,
	"in":         In,
	"instanceof": Instanceof,
	"this":       This,
	"class":      Class,
	"extends":    Extends,
	"super":      Super,
	"import":     Import,
	"export":     Export,
	"yield":      Yield,
	"async":      Async,
	"await":      Await,
	"true":       True,
	"false":      False,
	"null":       Null,
	"debugger":   Debugger,
	"with":       With,
}

func LookupIdentifier(ident string) TokenType {
	if tok, ok := Keywords[ident]; ok {
		return tok
	}
	return Identifier
}

// IsKeyword reports whether tt is a reserved or contextual keyword.
func IsKeyword(tt TokenType) bool { return tt >= Var && tt <= With }

// IsPropertyName reports whether a token may appear as a non-computed
// property name (identifiers, keywords and private names).
func IsPropertyName(tt TokenType) bool {
	return tt == Identifier || tt == PrivateName || IsKeyword(tt)
}

// IsIdentifierLike reports whether a token can be used as a binding
// identifier outside strict contexts.
func IsIdentifierLike(tt TokenType) bool {
	switch tt {
	case Identifier, Async, Let, Yield, Await:
		return true
	}
	return false
}
