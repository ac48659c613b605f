package compiler

import (
	"fmt"

	"c0c/pkg/bytecode"
)

// Analyzer checks and compiles one program in a single pass over its
// tokens. It owns every piece of mutable compilation state and must not
// be reused.
type Analyzer struct {
	toks TokenSource
	syms *SymbolTable

	globals []bytecode.Global
	start   *bytecode.Stream // entry routine: global initializers, then the call to main
	body    *bytecode.Stream // every user function, in declaration order

	strings map[string]int // literal text -> global slot
	natives map[string]int // primitive name -> global slot
	nfuncs  int
}

func NewAnalyzer(toks TokenSource) *Analyzer {
	return &Analyzer{
		toks:    toks,
		syms:    NewSymbolTable(),
		start:   bytecode.NewStream(),
		body:    bytecode.NewStream(),
		strings: make(map[string]int),
		natives: make(map[string]int),
	}
}

func (a *Analyzer) peek() (Token, error) {
	return a.toks.Peek()
}

func (a *Analyzer) next() (Token, error) {
	return a.toks.Next()
}

// expect consumes the next token and fails unless it has type tt.
func (a *Analyzer) expect(tt TokenType) (Token, error) {
	tok, err := a.toks.Next()
	if err != nil {
		return tok, err
	}
	if tok.Type != tt {
		return tok, errorf(ErrUnexpectedToken, tok.Pos, "expected %s, got %s (%q)", tt, tok.Type, tok.Lexeme)
	}
	return tok, nil
}

// accept consumes the next token only if it has type tt.
func (a *Analyzer) accept(tt TokenType) (bool, error) {
	tok, err := a.toks.Peek()
	if err != nil {
		return false, err
	}
	if tok.Type != tt {
		return false, nil
	}
	_, err = a.toks.Next()
	return true, err
}

func (a *Analyzer) parseType() (Token, Type, error) {
	tok, err := a.next()
	if err != nil {
		return tok, TypeVoid, err
	}
	typ, ok := typeKeyword(tok.Type)
	if !ok {
		return tok, TypeVoid, errorf(ErrUnexpectedToken, tok.Pos, "expected a type, got %s (%q)", tok.Type, tok.Lexeme)
	}
	return tok, typ, nil
}

// setGlobal records the pool entry for a slot the symbol table has just
// handed out. Pool order and slot order must stay in step.
func (a *Analyzer) setGlobal(slot int, g bytecode.Global) {
	if slot != len(a.globals) {
		panic(fmt.Sprintf("global slot %d out of step with pool size %d", slot, len(a.globals)))
	}
	a.globals = append(a.globals, g)
}

// internString returns the pool slot holding text, allocating it on
// first use.
func (a *Analyzer) internString(text string) int {
	if slot, ok := a.strings[text]; ok {
		return slot
	}
	slot := a.syms.AllocGlobal()
	a.setGlobal(slot, bytecode.Global{Const: true, Value: []byte(text)})
	a.strings[text] = slot
	return slot
}

// nativeName returns the pool slot naming a primitive.
func (a *Analyzer) nativeName(name string) int {
	if slot, ok := a.natives[name]; ok {
		return slot
	}
	slot := a.syms.AllocGlobal()
	a.setGlobal(slot, bytecode.Global{Const: true, Value: []byte(name)})
	a.natives[name] = slot
	return slot
}

func (a *Analyzer) declare(name Token, kind SymbolKind, typ Type, isConst bool, class StorageClass) (*Symbol, error) {
	sym, err := a.syms.Declare(name.Lexeme, kind, typ, isConst, class)
	if err != nil {
		return nil, errorf(ErrDuplicateDeclaration, name.Pos, "%s is already declared in this scope", name.Lexeme)
	}
	return sym, nil
}

// emitAddr pushes the address of sym's storage.
func emitAddr(out *bytecode.Stream, sym *Symbol) {
	switch sym.Storage {
	case StorageGlobal:
		out.EmitArg(bytecode.OpGlobA, int64(sym.Slot))
	case StorageLocal:
		out.EmitArg(bytecode.OpLocA, int64(sym.Slot))
	case StorageParam:
		out.EmitArg(bytecode.OpArgA, int64(sym.Slot))
	}
}

// Analyze compiles the whole token stream into a program.
func (a *Analyzer) Analyze() (*bytecode.Program, error) {
	startSlot := a.syms.AllocGlobal()
	a.setGlobal(startSlot, bytecode.Global{Const: true, Value: []byte("_start")})
	a.start.EmitFunc(&bytecode.FuncHeader{Slot: uint32(startSlot)})
	a.nfuncs = 1

	var eof Token
loop:
	for {
		tok, err := a.peek()
		if err != nil {
			return nil, err
		}
		switch tok.Type {
		case FN:
			if err := a.analyzeFunction(); err != nil {
				return nil, err
			}
		case LET, CONST:
			if err := a.analyzeDecl(); err != nil {
				return nil, err
			}
		case EOF:
			eof = tok
			break loop
		default:
			return nil, errorf(ErrUnexpectedToken, tok.Pos, "expected fn, let or const at top level, got %s (%q)", tok.Type, tok.Lexeme)
		}
	}

	main, err := a.syms.Resolve("main")
	if err != nil || main.Kind != SymFunction {
		return nil, errorf(ErrNoMain, eof.Pos, "program has no function named main")
	}
	if len(main.Params) != 0 {
		return nil, errorf(ErrNoMain, eof.Pos, "main must not take parameters")
	}
	a.start.EmitArg(bytecode.OpStackAlloc, int64(main.Type.Slots()))
	a.start.EmitArg(bytecode.OpCall, int64(main.FuncIndex))
	if main.Type != TypeVoid {
		a.start.EmitArg(bytecode.OpPopN, int64(main.Type.Slots()))
	}

	ins := make([]bytecode.Instruction, 0, a.start.Len()+a.body.Len())
	ins = append(ins, a.start.Instructions()...)
	ins = append(ins, a.body.Instructions()...)
	funcs, err := bytecode.SplitFunctions(ins)
	if err != nil {
		return nil, err
	}
	log.Debugf("program: %d globals, %d functions", len(a.globals), len(funcs))
	log.Debugf("%s", a.syms)
	return &bytecode.Program{Globals: a.globals, Functions: funcs}, nil
}

// analyzeFunction compiles
//
//	fn NAME ( [const] p: type, ... ) -> type { ... }
//
// Parameters and body share one scope, so a body declaration may not
// reuse a parameter's name.
func (a *Analyzer) analyzeFunction() error {
	if _, err := a.expect(FN); err != nil {
		return err
	}
	name, err := a.expect(IDENTIFIER)
	if err != nil {
		return err
	}
	fn, err := a.declare(name, SymFunction, TypeVoid, true, StorageGlobal)
	if err != nil {
		return err
	}
	fn.Initialized = true
	fn.FuncIndex = a.nfuncs
	a.nfuncs++
	a.setGlobal(fn.Slot, bytecode.Global{Const: true, Value: []byte(name.Lexeme)})

	hdr := &bytecode.FuncHeader{Slot: uint32(fn.Slot)}
	a.body.EmitFunc(hdr)

	a.syms.BeginFunction()
	a.syms.EnterScope()

	if _, err := a.expect(LPAREN); err != nil {
		return err
	}
	if ok, err := a.accept(RPAREN); err != nil {
		return err
	} else if !ok {
		for {
			if err := a.analyzeParam(fn); err != nil {
				return err
			}
			more, err := a.accept(COMMA)
			if err != nil {
				return err
			}
			if !more {
				break
			}
		}
		if _, err := a.expect(RPAREN); err != nil {
			return err
		}
	}
	if _, err := a.expect(ARROW); err != nil {
		return err
	}
	_, ret, err := a.parseType()
	if err != nil {
		return err
	}
	fn.Type = ret
	if ret != TypeVoid {
		a.syms.ShiftParams(ret.Slots())
	}

	flow, err := a.analyzeBlock(stmtCtx{ret: ret}, false)
	if err != nil {
		return err
	}
	if !flow.returns {
		if ret != TypeVoid {
			return errorf(ErrMissingReturn, name.Pos, "function %s does not return a value on every path", name.Lexeme)
		}
		a.body.Emit(bytecode.OpRet)
	}

	hdr.Returns = uint32(ret.Slots())
	hdr.Params = uint32(len(fn.Params))
	hdr.Locals = uint32(a.syms.LocalCount())

	a.syms.ExitScope()
	a.syms.EndFunction()
	log.Debugf("function %s: index %d, params %d, locals %d, returns %d", name.Lexeme, fn.FuncIndex, hdr.Params, hdr.Locals, hdr.Returns)
	return nil
}

func (a *Analyzer) analyzeParam(fn *Symbol) error {
	isConst, err := a.accept(CONST)
	if err != nil {
		return err
	}
	name, err := a.expect(IDENTIFIER)
	if err != nil {
		return err
	}
	if _, err := a.expect(COLON); err != nil {
		return err
	}
	typTok, typ, err := a.parseType()
	if err != nil {
		return err
	}
	if typ == TypeVoid {
		return errorf(ErrTypeMismatch, typTok.Pos, "parameter %s cannot have type void", name.Lexeme)
	}
	sym, err := a.declare(name, SymParam, typ, isConst, StorageParam)
	if err != nil {
		return err
	}
	sym.Initialized = true
	fn.Params = append(fn.Params, typ)
	return nil
}

// analyzeDecl compiles a let or const declaration. At global scope the
// initializer goes into the entry routine.
func (a *Analyzer) analyzeDecl() error {
	kw, err := a.next()
	if err != nil {
		return err
	}
	isConst := kw.Type == CONST
	name, err := a.expect(IDENTIFIER)
	if err != nil {
		return err
	}
	if _, err := a.expect(COLON); err != nil {
		return err
	}
	typTok, typ, err := a.parseType()
	if err != nil {
		return err
	}
	if typ == TypeVoid {
		return errorf(ErrTypeMismatch, typTok.Pos, "variable %s cannot have type void", name.Lexeme)
	}

	out, class := a.body, StorageLocal
	if a.syms.Depth() == 0 {
		out, class = a.start, StorageGlobal
	}
	sym, err := a.declare(name, SymVariable, typ, isConst, class)
	if err != nil {
		return err
	}
	if class == StorageGlobal {
		a.setGlobal(sym.Slot, bytecode.Global{Const: isConst, Name: name.Lexeme})
	}

	var hasInit bool
	if isConst {
		if _, err := a.expect(ASSIGN); err != nil {
			return err
		}
		hasInit = true
	} else if hasInit, err = a.accept(ASSIGN); err != nil {
		return err
	}

	if hasInit {
		emitAddr(out, sym)
		exprTok, err := a.peek()
		if err != nil {
			return err
		}
		t, err := a.parseExpression(out)
		if err != nil {
			return err
		}
		if t != typ {
			return errorf(ErrTypeMismatch, exprTok.Pos, "cannot initialize %s %s with a value of type %s", typ, name.Lexeme, t)
		}
		out.Emit(bytecode.OpStore64)
		sym.Initialized = true
	}
	_, err = a.expect(SEMICOLON)
	return err
}
