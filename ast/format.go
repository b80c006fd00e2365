package ast

import "strings"

// Expression precedence levels used when regenerating source.
const (
	precSequence = iota + 1
	precAssign
	precConditional
	precPipeline
	precNullish
	precOr
	precAnd
	precBitOr
	precBitXor
	precBitAnd
	precEquality
	precRelational
	precShift
	precAdditive
	precMultiply
	precExponent
	precUnary
	precUpdate
	precCall
	precMember
	precPrimary
)

var binaryPrecedence = map[string]int{
	"??": precNullish,
	"||": precOr,
	"&&": precAnd,
	"|":  precBitOr,
	"^":  precBitXor,
	"&":  precBitAnd,
	"==": precEquality, "!=": precEquality, "===": precEquality, "!==": precEquality,
	"<": precRelational, ">": precRelational, "<=": precRelational, ">=": precRelational,
	"in": precRelational, "instanceof": precRelational,
	"<<": precShift, ">>": precShift, ">>>": precShift,
	"+": precAdditive, "-": precAdditive,
	"*": precMultiply, "/": precMultiply, "%": precMultiply,
	"**": precExponent,
}

func precedence(n Node) int {
	switch n := n.(type) {
	case *SequenceExpression:
		return precSequence
	case *AssignmentExpression, *ArrowFunctionExpression, *YieldExpression:
		return precAssign
	case *ConditionalExpression:
		return precConditional
	case *PipelineExpression:
		return precPipeline
	case *BinaryExpression:
		return binaryPrecedence[n.Operator]
	case *LogicalExpression:
		return binaryPrecedence[n.Operator]
	case *UnaryExpression, *AwaitExpression:
		return precUnary
	case *UpdateExpression:
		return precUpdate
	case *CallExpression, *NewExpression, *ImportExpression:
		return precCall
	case *MemberExpression, *ChainExpression, *TaggedTemplateExpression:
		return precMember
	}

	return precPrimary
}

// wrap renders n, parenthesized when it binds looser than min.
func wrap(n Node, min int) string {
	if precedence(n) < min {
		return "(" + n.String() + ")"
	}

	return n.String()
}

func join(list []Node, sep string) string {
	parts := make([]string, len(list))
	for i, n := range list {
		if n != nil {
			parts[i] = wrap(n, precAssign)
		}
	}

	return strings.Join(parts, sep)
}

// indent shifts s one level right. Text holding a template literal is left
// alone so multi-line templates keep their contents.
func indent(s string) string {
	if strings.Contains(s, "`") {
		return s
	}

	return "\t" + strings.ReplaceAll(s, "\n", "\n\t")
}

// block renders statements inside braces, one per line.
func block(list []Node) string {
	if len(list) == 0 {
		return "{}"
	}
	var sb strings.Builder
	sb.WriteString("{\n")
	for _, st := range list {
		sb.WriteString(indent(st.String()))
		sb.WriteByte('\n')
	}
	sb.WriteByte('}')

	return sb.String()
}
