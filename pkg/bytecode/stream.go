package bytecode

import "fmt"

// FuncHeader is the metadata carried by an OpFunc marker. The compiler
// fills it in after the function body has been analyzed.
type FuncHeader struct {
	Slot    uint32 // global pool index of the function's name
	Returns uint32
	Params  uint32
	Locals  uint32
}

// Instruction is one stream entry. Func is set only on OpFunc markers.
type Instruction struct {
	Op      Opcode
	Operand int64
	Func    *FuncHeader
}

func (in Instruction) String() string {
	switch {
	case in.Op == OpFunc && in.Func != nil:
		return fmt.Sprintf(".func [%d] %d %d -> %d", in.Func.Slot, in.Func.Locals, in.Func.Params, in.Func.Returns)
	case in.Op.HasOperand():
		return fmt.Sprintf("%s %d", in.Op, in.Operand)
	}
	return in.Op.String()
}

// Stream is an append-only instruction buffer addressed by integer
// handle. Handles stay valid until the stream is truncated below them.
type Stream struct {
	ins []Instruction
}

func NewStream() *Stream {
	return &Stream{}
}

// Emit appends an operand-less instruction and returns its handle.
func (s *Stream) Emit(op Opcode) int {
	s.ins = append(s.ins, Instruction{Op: op})
	return len(s.ins) - 1
}

// EmitArg appends an instruction with an operand and returns its handle.
func (s *Stream) EmitArg(op Opcode, operand int64) int {
	s.ins = append(s.ins, Instruction{Op: op, Operand: operand})
	return len(s.ins) - 1
}

// EmitFunc appends a function marker.
func (s *Stream) EmitFunc(h *FuncHeader) int {
	s.ins = append(s.ins, Instruction{Op: OpFunc, Func: h})
	return len(s.ins) - 1
}

// PatchJump points the branch at handle h to the next instruction to be
// emitted.
func (s *Stream) PatchJump(h int) {
	s.ins[h].Operand = int64(len(s.ins) - h - 1)
}

func (s *Stream) Len() int {
	return len(s.ins)
}

// Truncate drops every instruction from handle n onward.
func (s *Stream) Truncate(n int) {
	if n < len(s.ins) {
		s.ins = s.ins[:n]
	}
}

// Instructions returns the buffered instructions. The slice aliases the
// stream's storage.
func (s *Stream) Instructions() []Instruction {
	return s.ins
}
