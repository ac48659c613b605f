// Package vm is a reference interpreter for navm programs. It runs a
// decoded bytecode.Program on a stack of 64-bit slots.
package vm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/tliron/commonlog"

	"c0c/pkg/bytecode"
)

var log = commonlog.GetLogger("c0c.vm")

const DefaultStackSize = 1 << 16

// Addresses pushed by loca/arga/globa carry their region in the top two
// bits and a slot index below.
const (
	regionGlobal uint64 = 1 << 62
	regionStack  uint64 = 2 << 62
	addrMask     uint64 = 1<<62 - 1
)

var (
	ErrStackOverflow    = errors.New("stack overflow")
	ErrStackUnderflow   = errors.New("stack underflow")
	ErrBadAddress       = errors.New("bad address")
	ErrBadOperand       = errors.New("operand out of range")
	ErrDivideByZero     = errors.New("integer divide by zero")
	ErrUnknownPrimitive = errors.New("unknown primitive")
	ErrFellOffEnd       = errors.New("function ran past its last instruction")
	ErrPanic            = errors.New("panic instruction")
	ErrStepLimit        = errors.New("step limit reached")
)

type frame struct {
	fn        int
	pc        int
	argBase   int // first argument slot; the return slot when the function returns a value
	localBase int
}

type VM struct {
	prog    *bytecode.Program
	globals []uint64
	stack   []uint64
	sp      int
	frames  []frame

	Halted   bool
	Steps    int
	MaxSteps int // 0 means unlimited

	// Input feeds getint/getchar/getdouble and Output receives the put*
	// primitives. If nil, os.Stdin and os.Stdout are used.
	Input  io.Reader
	Output io.Writer

	in *bufio.Reader
}

// New prepares p for execution starting at function 0, the entry routine.
func New(p *bytecode.Program) *VM {
	v := &VM{
		prog:    p,
		globals: make([]uint64, len(p.Globals)),
		stack:   make([]uint64, DefaultStackSize),
	}
	if len(p.Functions) == 0 {
		v.Halted = true
		return v
	}
	v.frames = []frame{{fn: 0}}
	v.sp = int(p.Functions[0].Locals)
	return v
}

// Globals returns the current value of every global slot.
func (v *VM) Globals() []uint64 {
	return v.globals
}

// StackDepth is the number of occupied stack slots.
func (v *VM) StackDepth() int {
	return v.sp
}

func (v *VM) outputSink() io.Writer {
	if v.Output != nil {
		return v.Output
	}
	return os.Stdout
}

func (v *VM) input() *bufio.Reader {
	if v.in == nil {
		r := v.Input
		if r == nil {
			r = os.Stdin
		}
		v.in = bufio.NewReader(r)
	}
	return v.in
}

func (v *VM) push(x uint64) error {
	if v.sp >= len(v.stack) {
		return ErrStackOverflow
	}
	v.stack[v.sp] = x
	v.sp++
	return nil
}

func (v *VM) pop() (uint64, error) {
	if v.sp <= 0 {
		return 0, ErrStackUnderflow
	}
	v.sp--
	return v.stack[v.sp], nil
}

func (v *VM) pop2() (a, b uint64, err error) {
	if b, err = v.pop(); err != nil {
		return
	}
	a, err = v.pop()
	return
}

func (v *VM) slot(addr uint64) (*uint64, error) {
	idx := addr & addrMask
	switch addr &^ addrMask {
	case regionGlobal:
		if idx < uint64(len(v.globals)) {
			return &v.globals[idx], nil
		}
	case regionStack:
		if idx < uint64(v.sp) {
			return &v.stack[idx], nil
		}
	}
	return nil, fmt.Errorf("%w: 0x%x", ErrBadAddress, addr)
}

// enter pushes a frame for function idx. The caller has already pushed
// the return slots and arguments.
func (v *VM) enter(idx int) error {
	if idx < 0 || idx >= len(v.prog.Functions) {
		return fmt.Errorf("%w: call %d", ErrBadOperand, idx)
	}
	f := v.prog.Functions[idx]
	argBase := v.sp - int(f.Params) - int(f.Returns)
	if argBase < 0 {
		return ErrStackUnderflow
	}
	localBase := v.sp
	for i := uint32(0); i < f.Locals; i++ {
		if err := v.push(0); err != nil {
			return err
		}
	}
	v.frames = append(v.frames, frame{fn: idx, argBase: argBase, localBase: localBase})
	return nil
}

// leave pops the current frame, keeping only its return slots.
func (v *VM) leave() {
	f := v.frames[len(v.frames)-1]
	v.sp = f.argBase + int(v.prog.Functions[f.fn].Returns)
	v.frames = v.frames[:len(v.frames)-1]
	if len(v.frames) == 0 {
		v.Halted = true
	}
}

func boolSlot(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func compare[T int64 | float64](a, b T) uint64 {
	switch {
	case a < b:
		return math.MaxUint64 // -1
	case a > b:
		return 1
	}
	return 0
}

func f64(x uint64) float64 { return math.Float64frombits(x) }
func u64(f float64) uint64 { return math.Float64bits(f) }

// Step executes one instruction.
func (v *VM) Step() error {
	if v.Halted {
		return nil
	}

	fr := &v.frames[len(v.frames)-1]
	fn := v.prog.Functions[fr.fn]
	if fr.pc >= len(fn.Code) {
		if len(v.frames) == 1 {
			v.Halted = true
			return nil
		}
		return fmt.Errorf("%w: function %d", ErrFellOffEnd, fr.fn)
	}
	in := fn.Code[fr.pc]
	fr.pc++

	switch in.Op {
	case bytecode.OpNop:
		// No operation.

	case bytecode.OpPush:
		return v.push(uint64(in.Operand))

	case bytecode.OpPop:
		_, err := v.pop()
		return err

	case bytecode.OpPopN:
		if in.Operand < 0 || int(in.Operand) > v.sp {
			return ErrStackUnderflow
		}
		v.sp -= int(in.Operand)

	case bytecode.OpDup:
		if v.sp == 0 {
			return ErrStackUnderflow
		}
		return v.push(v.stack[v.sp-1])

	case bytecode.OpLocA:
		if in.Operand < 0 || in.Operand >= int64(fn.Locals) {
			return fmt.Errorf("%w: loca %d", ErrBadOperand, in.Operand)
		}
		return v.push(regionStack | uint64(fr.localBase+int(in.Operand)))

	case bytecode.OpArgA:
		if in.Operand < 0 || in.Operand >= int64(fn.Params+fn.Returns) {
			return fmt.Errorf("%w: arga %d", ErrBadOperand, in.Operand)
		}
		return v.push(regionStack | uint64(fr.argBase+int(in.Operand)))

	case bytecode.OpGlobA:
		if in.Operand < 0 || in.Operand >= int64(len(v.globals)) {
			return fmt.Errorf("%w: globa %d", ErrBadOperand, in.Operand)
		}
		return v.push(regionGlobal | uint64(in.Operand))

	case bytecode.OpLoad64:
		addr, err := v.pop()
		if err != nil {
			return err
		}
		p, err := v.slot(addr)
		if err != nil {
			return err
		}
		return v.push(*p)

	case bytecode.OpStore64:
		addr, val, err := v.pop2()
		if err != nil {
			return err
		}
		p, err := v.slot(addr)
		if err != nil {
			return err
		}
		*p = val

	case bytecode.OpStackAlloc:
		for i := int64(0); i < in.Operand; i++ {
			if err := v.push(0); err != nil {
				return err
			}
		}

	case bytecode.OpAddI, bytecode.OpSubI, bytecode.OpMulI, bytecode.OpDivI, bytecode.OpCmpI:
		x, y, err := v.pop2()
		if err != nil {
			return err
		}
		a, b := int64(x), int64(y)
		var r int64
		switch in.Op {
		case bytecode.OpAddI:
			r = a + b
		case bytecode.OpSubI:
			r = a - b
		case bytecode.OpMulI:
			r = a * b
		case bytecode.OpDivI:
			if b == 0 {
				return ErrDivideByZero
			}
			r = a / b
		case bytecode.OpCmpI:
			return v.push(compare(a, b))
		}
		return v.push(uint64(r))

	case bytecode.OpAddF, bytecode.OpSubF, bytecode.OpMulF, bytecode.OpDivF, bytecode.OpCmpF:
		x, y, err := v.pop2()
		if err != nil {
			return err
		}
		a, b := f64(x), f64(y)
		var r float64
		switch in.Op {
		case bytecode.OpAddF:
			r = a + b
		case bytecode.OpSubF:
			r = a - b
		case bytecode.OpMulF:
			r = a * b
		case bytecode.OpDivF:
			r = a / b
		case bytecode.OpCmpF:
			return v.push(compare(a, b))
		}
		return v.push(u64(r))

	case bytecode.OpNot, bytecode.OpNegI, bytecode.OpNegF, bytecode.OpIToF,
		bytecode.OpFToI, bytecode.OpSetLt, bytecode.OpSetGt:
		x, err := v.pop()
		if err != nil {
			return err
		}
		var r uint64
		switch in.Op {
		case bytecode.OpNot:
			r = boolSlot(x == 0)
		case bytecode.OpNegI:
			r = uint64(-int64(x))
		case bytecode.OpNegF:
			r = u64(-f64(x))
		case bytecode.OpIToF:
			r = u64(float64(int64(x)))
		case bytecode.OpFToI:
			r = uint64(int64(f64(x)))
		case bytecode.OpSetLt:
			r = boolSlot(int64(x) < 0)
		case bytecode.OpSetGt:
			r = boolSlot(int64(x) > 0)
		}
		return v.push(r)

	case bytecode.OpBr:
		return v.branch(fr, fn, in.Operand)

	case bytecode.OpBrFalse, bytecode.OpBrTrue:
		x, err := v.pop()
		if err != nil {
			return err
		}
		if (x != 0) == (in.Op == bytecode.OpBrTrue) {
			return v.branch(fr, fn, in.Operand)
		}

	case bytecode.OpCall:
		return v.enter(int(in.Operand))

	case bytecode.OpRet:
		v.leave()

	case bytecode.OpCallName:
		return v.callPrimitive(in.Operand)

	case bytecode.OpPanic:
		return ErrPanic

	default:
		return fmt.Errorf("%w: cannot execute %s", ErrBadOperand, in.Op)
	}
	return nil
}

func (v *VM) branch(fr *frame, fn bytecode.Function, off int64) error {
	target := int64(fr.pc) + off
	if target < 0 || target > int64(len(fn.Code)) {
		return fmt.Errorf("%w: branch to %d", ErrBadOperand, target)
	}
	fr.pc = int(target)
	return nil
}

// Run executes until the entry routine finishes or an error occurs.
func (v *VM) Run() error {
	for !v.Halted {
		if v.MaxSteps > 0 && v.Steps >= v.MaxSteps {
			return ErrStepLimit
		}
		if err := v.Step(); err != nil {
			v.Halted = true
			if len(v.frames) == 0 {
				return err
			}
			fr := v.frames[len(v.frames)-1]
			return fmt.Errorf("function %d, pc %d: %w", fr.fn, fr.pc-1, err)
		}
		v.Steps++
	}
	log.Debugf("halted after %d steps", v.Steps)
	return nil
}

// RunProgram executes p with the given console streams.
func RunProgram(p *bytecode.Program, in io.Reader, out io.Writer) error {
	v := New(p)
	v.Input = in
	v.Output = out
	return v.Run()
}
