package token

// Binary operator precedence, lowest to highest. Values mirror the table a
// precedence-climbing parser walks down from: 4 is the first logical level.
const (
	PrecNone       = 0
	PrecComma      = 1
	PrecAssignment = 2
	PrecNullish    = 3
	PrecLogicalOr  = 4
	PrecLogicalAnd = 5
	PrecBitwiseOr  = 6
	PrecBitwiseXor = 7
	PrecBitwiseAnd = 8
	PrecEquality   = 9
	PrecRelational = 10
	PrecShift      = 11
	PrecAdditive   = 12
	PrecMultiply   = 13
	PrecExponent   = 14
)

// Precedence returns the binary precedence of tt. `in` only counts as a
// binary operator when acceptIN is set.
func Precedence(tt TokenType, acceptIN bool) int {
	switch tt {
	case Comma:
		return PrecComma
	case NullishCoalesce:
		return PrecNullish
	case Or:
		return PrecLogicalOr
	case And:
		return PrecLogicalAnd
	case BitwiseOr:
		return PrecBitwiseOr
	case BitwiseXor:
		return PrecBitwiseXor
	case BitwiseAnd:
		return PrecBitwiseAnd
	case Equal, NotEqual, StrictEqual, StrictNotEqual:
		return PrecEquality
	case LessThan, GreaterThan, LessThanOrEqual, GreaterThanOrEqual, Instanceof:
		return PrecRelational
	case In:
		if acceptIN {
			return PrecRelational
		}
		return PrecNone
	case LeftShift, RightShift, UnsignedRightShift:
		return PrecShift
	case Plus, Minus:
		return PrecAdditive
	case Asterisk, Slash, Percent:
		return PrecMultiply
	case Exponent:
		return PrecExponent
	}
	if IsAssignment(tt) {
		return PrecAssignment
	}
	return PrecNone
}

// IsAssignment reports whether tt is `=` or a compound assignment operator.
func IsAssignment(tt TokenType) bool {
	return tt >= Assign && tt <= OrAssign
}

// IsLogical reports whether tt is one of `&&`, `||`, `??`.
func IsLogical(tt TokenType) bool {
	return tt == And || tt == Or || tt == NullishCoalesce
}

// IsUnary reports whether tt may start a unary expression.
func IsUnary(tt TokenType) bool {
	switch tt {
	case Not, BitwiseNot, Plus, Minus, Typeof, Void, Delete:
		return true
	}
	return false
}

// IsCount reports whether tt is `++` or `--`.
func IsCount(tt TokenType) bool { return tt == Increment || tt == Decrement }

// IsOpenPair reports whether tt opens a bracketed pair.
func IsOpenPair(tt TokenType) bool {
	switch tt {
	case LeftParen, LeftBracket, LeftBrace, TemplateHead:
		return true
	}
	return false
}

// IsClosePair reports whether tt closes a bracketed pair.
func IsClosePair(tt TokenType) bool {
	switch tt {
	case RightParen, RightBracket, RightBrace, TemplateTail:
		return true
	}
	return false
}

// CloseOf returns the closing token of an open pair, or Illegal.
func CloseOf(tt TokenType) TokenType {
	switch tt {
	case LeftParen:
		return RightParen
	case LeftBracket:
		return RightBracket
	case LeftBrace:
		return RightBrace
	case TemplateHead:
		return TemplateTail
	}
	return Illegal
}

// CompoundOperator returns the binary operator applied by a compound
// assignment token, e.g. "+" for `+=`. Plain `=` yields "".
func CompoundOperator(tt TokenType) string {
	switch tt {
	case PlusAssign:
		return "+"
	case MinusAssign:
		return "-"
	case AsteriskAssign:
		return "*"
	case SlashAssign:
		return "/"
	case PercentAssign:
		return "%"
	case ExponentAssign:
		return "**"
	case AmpersandAssign:
		return "&"
	case PipeAssign:
		return "|"
	case CaretAssign:
		return "^"
	case LeftShiftAssign:
		return "<<"
	case RightShiftAssign:
		return ">>"
	case UnsignedRightShiftAssign:
		return ">>>"
	case NullishAssign:
		return "??"
	case AndAssign:
		return "&&"
	case OrAssign:
		return "||"
	}
	return ""
}
