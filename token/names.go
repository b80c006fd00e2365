package token

var names = map[TokenType]string{
	Illegal:                  "ILLEGAL",
	EOF:                      "EOF",
	Identifier:               "IDENTIFIER",
	PrivateName:              "PRIVATE_NAME",
	Number:                   "NUMBER",
	BigInt:                   "BIGINT",
	String:                   "STRING",
	RegExp:                   "REGEXP",
	TemplateHead:             "TEMPLATE_HEAD",
	TemplateMiddle:           "TEMPLATE_MIDDLE",
	TemplateTail:             "TEMPLATE_TAIL",
	NoSubstitutionTemplate:   "TEMPLATE",
	Plus:                     "+",
	Minus:                    "-",
	Asterisk:                 "*",
	Slash:                    "/",
	Percent:                  "%",
	Exponent:                 "**",
	Assign:                   "=",
	PlusAssign:               "+=",
	MinusAssign:              "-=",
	AsteriskAssign:           "*=",
	SlashAssign:              "/=",
	PercentAssign:            "%=",
	ExponentAssign:           "**=",
	AmpersandAssign:          "&=",
	PipeAssign:               "|=",
	CaretAssign:              "^=",
	LeftShiftAssign:          "<<=",
	RightShiftAssign:         ">>=",
	UnsignedRightShiftAssign: ">>>=",
	NullishAssign:            "??=",
	AndAssign:                "&&=",
	OrAssign:                 "||=",
	Equal:                    "==",
	NotEqual:                 "!=",
	StrictEqual:              "===",
	StrictNotEqual:           "!==",
	LessThan:                 "<",
	GreaterThan:              ">",
	LessThanOrEqual:          "<=",
	GreaterThanOrEqual:       ">=",
	And:                      "&&",
	Or:                       "||",
	Not:                      "!",
	BitwiseAnd:               "&",
	BitwiseOr:                "|",
	BitwiseXor:               "^",
	BitwiseNot:               "~",
	LeftShift:                "<<",
	RightShift:               ">>",
	UnsignedRightShift:       ">>>",
	Increment:                "++",
	Decrement:                "--",
	Pipeline:                 "|>",
	LeftParen:                "(",
	RightParen:               ")",
	LeftBrace:                "{",
	RightBrace:               "}",
	LeftBracket:              "[",
	RightBracket:             "]",
	Semicolon:                ";",
	Colon:                    ":",
	Comma:                    ",",
	Dot:                      ".",
	Spread:                   "...",
	Arrow:                    "=>",
	QuestionMark:             "?",
	OptionalChain:            "?.",
	NullishCoalesce:          "??",
	At:                       "@",
}

func init() {
	for word, tt := range Keywords {
		names[tt] = word
	}
}

// String returns the operator text, keyword, or an upper-case class name.
func (tt TokenType) String() string {
	if s, ok := names[tt]; ok {
		return s
	}
	return "UNKNOWN"
}
