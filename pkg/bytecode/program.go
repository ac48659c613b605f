package bytecode

import (
	"errors"
	"fmt"
)

// Magic and Version open every navm binary.
const (
	Magic   uint32 = 0x72303b3e
	Version uint32 = 1
)

// SlotSize is the payload length of a plain (non-string) global.
const SlotSize = 8

// Global is one global pool entry. A nil Value is a zeroed slot;
// string literals and names carry their raw bytes.
type Global struct {
	Const bool
	Value []byte

	// Name is the declared identifier of a variable slot. It is not
	// encoded and is empty after decoding.
	Name string
}

// Payload returns the bytes written for g.
func (g Global) Payload() []byte {
	if g.Value == nil {
		return make([]byte, SlotSize)
	}
	return g.Value
}

// Function is one encoded function block.
type Function struct {
	FuncHeader
	Code []Instruction
}

// Program is the in-memory form of a navm binary.
type Program struct {
	Globals   []Global
	Functions []Function
}

// FunctionName returns the pool text naming f, or "" if the slot is not
// a named entry.
func (p *Program) FunctionName(f Function) string {
	if int(f.Slot) < len(p.Globals) && p.Globals[f.Slot].Value != nil {
		return string(p.Globals[f.Slot].Value)
	}
	return ""
}

var ErrNoFunction = errors.New("instruction outside of any function")

// SplitFunctions slices a concatenated instruction stream into function
// blocks at each OpFunc marker.
func SplitFunctions(ins []Instruction) ([]Function, error) {
	var funcs []Function
	for i, in := range ins {
		if in.Op == OpFunc {
			if in.Func == nil {
				return nil, fmt.Errorf("function marker at %d has no header", i)
			}
			funcs = append(funcs, Function{FuncHeader: *in.Func})
			continue
		}
		if len(funcs) == 0 {
			return nil, fmt.Errorf("%w: %s at %d", ErrNoFunction, in.Op, i)
		}
		f := &funcs[len(funcs)-1]
		f.Code = append(f.Code, in)
	}
	return funcs, nil
}
