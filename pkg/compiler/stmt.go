package compiler

import "c0c/pkg/bytecode"

// flow records what a statement guarantees on every path through it.
// Returns and break/continue are tracked apart: an if whose arms end in
// different ways guarantees neither.
type flow struct {
	returns bool
	breaks  bool // break or continue
}

func (f flow) terminates() bool {
	return f.returns || f.breaks
}

type loopCtx struct {
	start  int   // handle of the first condition instruction
	breaks []int // pending break branches, patched to the loop exit
}

type stmtCtx struct {
	ret  Type
	loop *loopCtx // nil outside a loop
}

func (a *Analyzer) analyzeStmt(ctx stmtCtx) (flow, error) {
	tok, err := a.peek()
	if err != nil {
		return flow{}, err
	}

	switch tok.Type {
	case LET, CONST:
		return flow{}, a.analyzeDecl()
	case IF:
		return a.analyzeIf(ctx)
	case WHILE:
		return a.analyzeWhile(ctx)
	case BREAK:
		return a.analyzeBreak(ctx)
	case CONTINUE:
		return a.analyzeContinue(ctx)
	case RETURN:
		return a.analyzeReturn(ctx)
	case LBRACE:
		return a.analyzeBlock(ctx, true)
	case SEMICOLON:
		_, err := a.next()
		return flow{}, err
	}
	return flow{}, a.analyzeExprStmt()
}

// analyzeBlock compiles { stmt* }. Code emitted after the first
// statement that always leaves the block is dropped once the block is
// closed; the statements are still checked.
func (a *Analyzer) analyzeBlock(ctx stmtCtx, scoped bool) (flow, error) {
	if _, err := a.expect(LBRACE); err != nil {
		return flow{}, err
	}
	if scoped {
		a.syms.EnterScope()
	}

	var result flow
	dead := -1
	for {
		tok, err := a.peek()
		if err != nil {
			return flow{}, err
		}
		if tok.Type == RBRACE {
			break
		}
		if tok.Type == EOF {
			return flow{}, errorf(ErrUnexpectedToken, tok.Pos, "expected RBRACE, got EOF")
		}
		f, err := a.analyzeStmt(ctx)
		if err != nil {
			return flow{}, err
		}
		if dead < 0 && f.terminates() {
			result = f
			dead = a.body.Len()
		}
	}
	if _, err := a.next(); err != nil {
		return flow{}, err
	}

	if dead >= 0 {
		a.body.Truncate(dead)
		if ctx.loop != nil {
			live := ctx.loop.breaks[:0]
			for _, h := range ctx.loop.breaks {
				if h < dead {
					live = append(live, h)
				}
			}
			ctx.loop.breaks = live
		}
	}
	if scoped {
		a.syms.ExitScope()
	}
	return result, nil
}

// condition compiles an if/while condition and the branch pair that
// follows it. The returned handle is the forward branch taken when the
// condition is false.
func (a *Analyzer) condition() (int, error) {
	tok, err := a.peek()
	if err != nil {
		return 0, err
	}
	t, err := a.parseExpression(a.body)
	if err != nil {
		return 0, err
	}
	if t == TypeVoid {
		return 0, errorf(ErrTypeMismatch, tok.Pos, "condition has no value")
	}
	a.body.EmitArg(bytecode.OpBrTrue, 1)
	return a.body.EmitArg(bytecode.OpBr, 0), nil
}

func (a *Analyzer) analyzeIf(ctx stmtCtx) (flow, error) {
	if _, err := a.expect(IF); err != nil {
		return flow{}, err
	}

	all := flow{returns: true, breaks: true}
	hasElse := false
	var toEnd []int
	for {
		skip, err := a.condition()
		if err != nil {
			return flow{}, err
		}
		f, err := a.analyzeBlock(ctx, true)
		if err != nil {
			return flow{}, err
		}
		all.returns = all.returns && f.returns
		all.breaks = all.breaks && f.breaks
		toEnd = append(toEnd, a.body.EmitArg(bytecode.OpBr, 0))
		a.body.PatchJump(skip)

		more, err := a.accept(ELSE)
		if err != nil {
			return flow{}, err
		}
		if !more {
			break
		}
		elif, err := a.accept(IF)
		if err != nil {
			return flow{}, err
		}
		if elif {
			continue
		}
		f, err = a.analyzeBlock(ctx, true)
		if err != nil {
			return flow{}, err
		}
		all.returns = all.returns && f.returns
		all.breaks = all.breaks && f.breaks
		hasElse = true
		break
	}

	for _, h := range toEnd {
		a.body.PatchJump(h)
	}
	if !hasElse {
		return flow{}, nil
	}
	return all, nil
}

func (a *Analyzer) analyzeWhile(ctx stmtCtx) (flow, error) {
	if _, err := a.expect(WHILE); err != nil {
		return flow{}, err
	}
	loop := &loopCtx{start: a.body.Len()}
	exit, err := a.condition()
	if err != nil {
		return flow{}, err
	}

	f, err := a.analyzeBlock(stmtCtx{ret: ctx.ret, loop: loop}, true)
	if err != nil {
		return flow{}, err
	}
	if !f.breaks {
		a.body.EmitArg(bytecode.OpBr, int64(loop.start-(a.body.Len()+1)))
	}

	a.body.PatchJump(exit)
	for _, h := range loop.breaks {
		a.body.PatchJump(h)
	}
	return flow{}, nil
}

func (a *Analyzer) analyzeBreak(ctx stmtCtx) (flow, error) {
	tok, err := a.expect(BREAK)
	if err != nil {
		return flow{}, err
	}
	if ctx.loop == nil {
		return flow{}, errorf(ErrBreakOutsideLoop, tok.Pos, "break statement outside of loop")
	}
	ctx.loop.breaks = append(ctx.loop.breaks, a.body.EmitArg(bytecode.OpBr, 0))
	if _, err := a.expect(SEMICOLON); err != nil {
		return flow{}, err
	}
	return flow{breaks: true}, nil
}

func (a *Analyzer) analyzeContinue(ctx stmtCtx) (flow, error) {
	tok, err := a.expect(CONTINUE)
	if err != nil {
		return flow{}, err
	}
	if ctx.loop == nil {
		return flow{}, errorf(ErrContinueOutsideLoop, tok.Pos, "continue statement outside of loop")
	}
	a.body.EmitArg(bytecode.OpBr, int64(ctx.loop.start-(a.body.Len()+1)))
	if _, err := a.expect(SEMICOLON); err != nil {
		return flow{}, err
	}
	return flow{breaks: true}, nil
}

// analyzeReturn stores the value through argument 0, the slot the
// caller reserved, before returning.
func (a *Analyzer) analyzeReturn(ctx stmtCtx) (flow, error) {
	tok, err := a.expect(RETURN)
	if err != nil {
		return flow{}, err
	}
	hasValue, err := a.peek()
	if err != nil {
		return flow{}, err
	}

	switch {
	case ctx.ret == TypeVoid && hasValue.Type != SEMICOLON:
		return flow{}, errorf(ErrTypeMismatch, hasValue.Pos, "void function cannot return a value")
	case ctx.ret != TypeVoid && hasValue.Type == SEMICOLON:
		return flow{}, errorf(ErrTypeMismatch, tok.Pos, "missing return value of type %s", ctx.ret)
	case ctx.ret != TypeVoid:
		a.body.EmitArg(bytecode.OpArgA, 0)
		t, err := a.parseExpression(a.body)
		if err != nil {
			return flow{}, err
		}
		if t != ctx.ret {
			return flow{}, errorf(ErrTypeMismatch, hasValue.Pos, "cannot return %s from a function returning %s", t, ctx.ret)
		}
		a.body.Emit(bytecode.OpStore64)
	}
	a.body.Emit(bytecode.OpRet)

	if _, err := a.expect(SEMICOLON); err != nil {
		return flow{}, err
	}
	return flow{returns: true}, nil
}

// analyzeExprStmt compiles an expression evaluated for its effect. Any
// value it leaves is popped.
func (a *Analyzer) analyzeExprStmt() error {
	t, err := a.parseExpression(a.body)
	if err != nil {
		return err
	}
	if t != TypeVoid {
		a.body.Emit(bytecode.OpPop)
	}
	_, err = a.expect(SEMICOLON)
	return err
}
