package compiler

import (
	"math"

	"c0c/pkg/bytecode"
)

// opgState holds the two stacks of one expression: pending operators
// (with their tokens, for diagnostics) and operand types.
type opgState struct {
	ops   []binOp
	toks  []Token
	types []Type
}

// reduce pops the top operator with its operands, emits its code and
// pushes the result type.
func (st *opgState) reduce(out *bytecode.Stream) error {
	n := len(st.ops) - 1
	op, tok := st.ops[n], st.toks[n]
	st.ops, st.toks = st.ops[:n], st.toks[:n]

	if len(st.types) < 2 {
		return errorf(ErrMalformedExpression, tok.Pos, "operator %s is missing an operand", op)
	}
	lhs, rhs := st.types[len(st.types)-2], st.types[len(st.types)-1]
	st.types = st.types[:len(st.types)-2]

	var res Type
	var err error
	if op == opCast {
		res, err = emitCast(out, lhs, rhs, tok.Pos)
	} else {
		res, err = emitBinary(out, op, lhs, rhs, tok.Pos)
	}
	if err != nil {
		return err
	}
	st.types = append(st.types, res)
	return nil
}

// parseExpression parses one expression into out and returns its type.
func (a *Analyzer) parseExpression(out *bytecode.Stream) (Type, error) {
	st := &opgState{}

	t, err := a.parsePrimary(out)
	if err != nil {
		return TypeVoid, err
	}
	st.types = append(st.types, t)

	for {
		tok, err := a.peek()
		if err != nil {
			return TypeVoid, err
		}
		op, ok := binOpFor(tok.Type)
		if !ok {
			break
		}
		for len(st.ops) > 0 && shouldReduce(st.ops[len(st.ops)-1], op) {
			if err := st.reduce(out); err != nil {
				return TypeVoid, err
			}
		}
		if _, err := a.next(); err != nil {
			return TypeVoid, err
		}
		st.ops = append(st.ops, op)
		st.toks = append(st.toks, tok)

		if op == opCast {
			_, target, err := a.parseType()
			if err != nil {
				return TypeVoid, err
			}
			st.types = append(st.types, target)
			continue
		}
		t, err := a.parsePrimary(out)
		if err != nil {
			return TypeVoid, err
		}
		st.types = append(st.types, t)
	}

	for len(st.ops) > 0 {
		if err := st.reduce(out); err != nil {
			return TypeVoid, err
		}
	}
	return st.types[0], nil
}

func emitBinary(out *bytecode.Stream, op binOp, lhs, rhs Type, pos Pos) (Type, error) {
	if !lhs.Numeric() || lhs != rhs {
		return TypeVoid, errorf(ErrTypeMismatch, pos, "operator %s cannot combine %s and %s", op, lhs, rhs)
	}
	pick := func(i, f bytecode.Opcode) bytecode.Opcode {
		if lhs == TypeInt {
			return i
		}
		return f
	}

	if !op.isComparison() {
		switch op {
		case opAdd:
			out.Emit(pick(bytecode.OpAddI, bytecode.OpAddF))
		case opSub:
			out.Emit(pick(bytecode.OpSubI, bytecode.OpSubF))
		case opMul:
			out.Emit(pick(bytecode.OpMulI, bytecode.OpMulF))
		case opDiv:
			out.Emit(pick(bytecode.OpDivI, bytecode.OpDivF))
		}
		return lhs, nil
	}

	// cmp leaves -1, 0 or 1.
	out.Emit(pick(bytecode.OpCmpI, bytecode.OpCmpF))
	switch op {
	case opGT:
		out.Emit(bytecode.OpSetGt)
	case opLT:
		out.Emit(bytecode.OpSetLt)
	case opGE:
		out.Emit(bytecode.OpSetLt)
		out.Emit(bytecode.OpNot)
	case opLE:
		out.Emit(bytecode.OpSetGt)
		out.Emit(bytecode.OpNot)
	case opEQ:
		out.Emit(bytecode.OpNot)
	case opNEQ:
	}
	return TypeBool, nil
}

func emitCast(out *bytecode.Stream, from, to Type, pos Pos) (Type, error) {
	if !from.Numeric() || !to.Numeric() {
		return TypeVoid, errorf(ErrTypeMismatch, pos, "cannot cast %s to %s", from, to)
	}
	switch {
	case from == TypeInt && to == TypeDouble:
		out.Emit(bytecode.OpIToF)
	case from == TypeDouble && to == TypeInt:
		out.Emit(bytecode.OpFToI)
	}
	return to, nil
}

func (a *Analyzer) parsePrimary(out *bytecode.Stream) (Type, error) {
	tok, err := a.next()
	if err != nil {
		return TypeVoid, err
	}

	switch tok.Type {
	case UINT_LIT:
		out.EmitArg(bytecode.OpPush, tok.Int)
		return TypeInt, nil

	case DOUBLE_LIT:
		out.EmitArg(bytecode.OpPush, int64(math.Float64bits(tok.Float)))
		return TypeDouble, nil

	case STRING_LIT, CHAR_LIT:
		out.EmitArg(bytecode.OpPush, int64(a.internString(tok.Lexeme)))
		return TypeInt, nil

	case LPAREN:
		t, err := a.parseExpression(out)
		if err != nil {
			return TypeVoid, err
		}
		if _, err := a.expect(RPAREN); err != nil {
			return TypeVoid, err
		}
		return t, nil

	case MINUS:
		t, err := a.parsePrimary(out)
		if err != nil {
			return TypeVoid, err
		}
		switch t {
		case TypeInt:
			out.Emit(bytecode.OpNegI)
		case TypeDouble:
			out.Emit(bytecode.OpNegF)
		default:
			return TypeVoid, errorf(ErrTypeMismatch, tok.Pos, "cannot negate a value of type %s", t)
		}
		return t, nil

	case IDENTIFIER:
		nxt, err := a.peek()
		if err != nil {
			return TypeVoid, err
		}
		switch nxt.Type {
		case ASSIGN:
			if _, err := a.next(); err != nil {
				return TypeVoid, err
			}
			return a.parseAssign(out, tok)
		case LPAREN:
			return a.parseCall(out, tok)
		}
		return a.parseLoad(out, tok)
	}

	return TypeVoid, errorf(ErrMalformedExpression, tok.Pos, "expected an expression, got %s (%q)", tok.Type, tok.Lexeme)
}

func (a *Analyzer) resolveVariable(name Token) (*Symbol, error) {
	sym, err := a.syms.Resolve(name.Lexeme)
	if err != nil {
		return nil, errorf(ErrNotDeclared, name.Pos, "%s is not declared", name.Lexeme)
	}
	if sym.Kind == SymFunction {
		return nil, errorf(ErrTypeMismatch, name.Pos, "function %s used as a value", name.Lexeme)
	}
	return sym, nil
}

func (a *Analyzer) parseLoad(out *bytecode.Stream, name Token) (Type, error) {
	sym, err := a.resolveVariable(name)
	if err != nil {
		return TypeVoid, err
	}
	if !sym.Initialized {
		return TypeVoid, errorf(ErrNotInitialized, name.Pos, "%s is read before it is assigned", name.Lexeme)
	}
	emitAddr(out, sym)
	out.Emit(bytecode.OpLoad64)
	return sym.Type, nil
}

// parseAssign compiles NAME = expr. The '=' has been consumed. An
// assignment yields no value.
func (a *Analyzer) parseAssign(out *bytecode.Stream, name Token) (Type, error) {
	sym, err := a.resolveVariable(name)
	if err != nil {
		return TypeVoid, err
	}
	if sym.Const {
		return TypeVoid, errorf(ErrAssignToConstant, name.Pos, "cannot assign to constant %s", name.Lexeme)
	}
	emitAddr(out, sym)

	exprTok, err := a.peek()
	if err != nil {
		return TypeVoid, err
	}
	t, err := a.parseExpression(out)
	if err != nil {
		return TypeVoid, err
	}
	if t != sym.Type {
		return TypeVoid, errorf(ErrTypeMismatch, exprTok.Pos, "cannot assign a value of type %s to %s %s", t, sym.Type, name.Lexeme)
	}
	out.Emit(bytecode.OpStore64)
	sym.Initialized = true
	return TypeVoid, nil
}

// parseCall compiles NAME ( args ). A visible binding of NAME wins over
// a primitive of the same name.
func (a *Analyzer) parseCall(out *bytecode.Stream, name Token) (Type, error) {
	var (
		params  []Type
		ret     Type
		callOp  bytecode.Opcode
		operand int
	)
	sym, err := a.syms.Resolve(name.Lexeme)
	switch {
	case err == nil && sym.Kind == SymFunction:
		params, ret = sym.Params, sym.Type
		callOp, operand = bytecode.OpCall, sym.FuncIndex
	case err == nil:
		return TypeVoid, errorf(ErrUnknownFunction, name.Pos, "%s is not a function", name.Lexeme)
	default:
		b, ok := Builtins[name.Lexeme]
		if !ok {
			return TypeVoid, errorf(ErrUnknownFunction, name.Pos, "no function named %s", name.Lexeme)
		}
		params, ret = b.Params, b.Return
		callOp, operand = bytecode.OpCallName, a.nativeName(name.Lexeme)
	}

	out.EmitArg(bytecode.OpStackAlloc, int64(ret.Slots()))
	if _, err := a.expect(LPAREN); err != nil {
		return TypeVoid, err
	}

	nargs := 0
	closed, err := a.accept(RPAREN)
	if err != nil {
		return TypeVoid, err
	}
	for !closed {
		argTok, err := a.peek()
		if err != nil {
			return TypeVoid, err
		}
		t, err := a.parseExpression(out)
		if err != nil {
			return TypeVoid, err
		}
		if nargs < len(params) && t != params[nargs] {
			return TypeVoid, errorf(ErrTypeMismatch, argTok.Pos, "argument %d of %s must be %s, got %s", nargs+1, name.Lexeme, params[nargs], t)
		}
		nargs++
		more, err := a.accept(COMMA)
		if err != nil {
			return TypeVoid, err
		}
		if !more {
			if _, err := a.expect(RPAREN); err != nil {
				return TypeVoid, err
			}
			closed = true
		}
	}
	if nargs != len(params) {
		return TypeVoid, errorf(ErrTypeMismatch, name.Pos, "%s takes %d arguments, got %d", name.Lexeme, len(params), nargs)
	}

	out.EmitArg(callOp, int64(operand))
	return ret, nil
}
