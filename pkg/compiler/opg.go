package compiler

// binOp is an operator the expression engine can shift onto its
// operator stack.
type binOp int

const (
	opGT binOp = iota
	opLT
	opGE
	opLE
	opEQ
	opNEQ
	opAdd
	opSub
	opMul
	opDiv
	opCast
)

var binOpText = [...]string{
	opGT:   ">",
	opLT:   "<",
	opGE:   ">=",
	opLE:   "<=",
	opEQ:   "==",
	opNEQ:  "!=",
	opAdd:  "+",
	opSub:  "-",
	opMul:  "*",
	opDiv:  "/",
	opCast: "as",
}

func (op binOp) String() string {
	return binOpText[op]
}

// binOpFor maps a lookahead token to an operator. Anything else ends
// the expression.
func binOpFor(tt TokenType) (binOp, bool) {
	switch tt {
	case GREATER:
		return opGT, true
	case LESS:
		return opLT, true
	case GREATER_EQ:
		return opGE, true
	case LESS_EQ:
		return opLE, true
	case EQUALS:
		return opEQ, true
	case NOT_EQ:
		return opNEQ, true
	case PLUS:
		return opAdd, true
	case MINUS:
		return opSub, true
	case STAR:
		return opMul, true
	case SLASH:
		return opDiv, true
	case AS:
		return opCast, true
	}
	return 0, false
}

// precedence classes, loosest first.
const (
	precCompare = iota
	precAdditive
	precMultiplicative
	precCast
)

func precedence(op binOp) int {
	switch op {
	case opAdd, opSub:
		return precAdditive
	case opMul, opDiv:
		return precMultiplicative
	case opCast:
		return precCast
	}
	return precCompare
}

// shouldReduce reports whether the operator on top of the stack must be
// reduced before next is shifted. Equal classes reduce, which makes every
// binary operator left-associative.
func shouldReduce(top, next binOp) bool {
	return precedence(top) >= precedence(next)
}

func (op binOp) isComparison() bool {
	return precedence(op) == precCompare
}
