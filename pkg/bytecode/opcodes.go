package bytecode

import "fmt"

// Opcode is a single navm instruction byte.
type Opcode byte

const (
	OpNop        Opcode = 0x00
	OpPush       Opcode = 0x01 // 8-byte immediate
	OpPop        Opcode = 0x02
	OpPopN       Opcode = 0x03
	OpDup        Opcode = 0x04
	OpLocA       Opcode = 0x0a // address of local slot
	OpArgA       Opcode = 0x0b // address of argument slot (return slot first)
	OpGlobA      Opcode = 0x0c // address of global pool entry
	OpLoad64     Opcode = 0x13
	OpStore64    Opcode = 0x17
	OpStackAlloc Opcode = 0x1a
	OpAddI       Opcode = 0x20
	OpSubI       Opcode = 0x21
	OpMulI       Opcode = 0x22
	OpDivI       Opcode = 0x23
	OpAddF       Opcode = 0x24
	OpSubF       Opcode = 0x25
	OpMulF       Opcode = 0x26
	OpDivF       Opcode = 0x27
	OpNot        Opcode = 0x2e
	OpCmpI       Opcode = 0x30
	OpCmpF       Opcode = 0x32
	OpNegI       Opcode = 0x34
	OpNegF       Opcode = 0x35
	OpIToF       Opcode = 0x36
	OpFToI       Opcode = 0x37
	OpSetLt      Opcode = 0x39
	OpSetGt      Opcode = 0x3a
	OpBr         Opcode = 0x41 // relative to the next instruction
	OpBrFalse    Opcode = 0x42
	OpBrTrue     Opcode = 0x43
	OpCall       Opcode = 0x48 // function table index
	OpRet        Opcode = 0x49
	OpCallName   Opcode = 0x4a // global index of a primitive's name
	OpPanic      Opcode = 0xfe

	// OpFunc marks the start of a function in an instruction stream.
	// It is never written to the binary; the encoder turns it into a
	// function header.
	OpFunc Opcode = 0xff
)

var opcodeNames = map[Opcode]string{
	OpNop:        "nop",
	OpPush:       "push",
	OpPop:        "pop",
	OpPopN:       "popn",
	OpDup:        "dup",
	OpLocA:       "loca",
	OpArgA:       "arga",
	OpGlobA:      "globa",
	OpLoad64:     "load.64",
	OpStore64:    "store.64",
	OpStackAlloc: "stackalloc",
	OpAddI:       "add.i",
	OpSubI:       "sub.i",
	OpMulI:       "mul.i",
	OpDivI:       "div.i",
	OpAddF:       "add.f",
	OpSubF:       "sub.f",
	OpMulF:       "mul.f",
	OpDivF:       "div.f",
	OpNot:        "not",
	OpCmpI:       "cmp.i",
	OpCmpF:       "cmp.f",
	OpNegI:       "neg.i",
	OpNegF:       "neg.f",
	OpIToF:       "itof",
	OpFToI:       "ftoi",
	OpSetLt:      "set.lt",
	OpSetGt:      "set.gt",
	OpBr:         "br",
	OpBrFalse:    "br.false",
	OpBrTrue:     "br.true",
	OpCall:       "call",
	OpRet:        "ret",
	OpCallName:   "callname",
	OpPanic:      "panic",
	OpFunc:       ".func",
}

func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("Opcode(0x%02x)", byte(op))
}

// Valid reports whether op may appear in an encoded function body.
func (op Opcode) Valid() bool {
	_, ok := opcodeNames[op]
	return ok && op != OpFunc
}

// OperandWidth returns the encoded size of op's operand in bytes: 8 for
// push, 4 for every other operand-bearing opcode, 0 otherwise.
func (op Opcode) OperandWidth() int {
	switch op {
	case OpPush:
		return 8
	case OpPopN, OpLocA, OpArgA, OpGlobA, OpStackAlloc,
		OpBr, OpBrFalse, OpBrTrue, OpCall, OpCallName:
		return 4
	}
	return 0
}

// HasOperand reports whether op carries an operand.
func (op Opcode) HasOperand() bool {
	return op.OperandWidth() > 0
}
