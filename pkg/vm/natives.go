package vm

import (
	"errors"
	"fmt"
	"io"
	"strconv"
)

type primitive struct {
	params  int
	returns int
	fn      func(v *VM, args []uint64) (uint64, error)
}

// primitives implements the console I/O routines reached through
// callname. Arguments arrive in push order; the caller has already
// reserved the return slot below them.
var primitives = map[string]primitive{
	"getint": {returns: 1, fn: func(v *VM, _ []uint64) (uint64, error) {
		var n int64
		if _, err := fmt.Fscan(v.input(), &n); err != nil {
			return 0, fmt.Errorf("getint: %w", err)
		}
		return uint64(n), nil
	}},
	"getdouble": {returns: 1, fn: func(v *VM, _ []uint64) (uint64, error) {
		var f float64
		if _, err := fmt.Fscan(v.input(), &f); err != nil {
			return 0, fmt.Errorf("getdouble: %w", err)
		}
		return u64(f), nil
	}},
	"getchar": {returns: 1, fn: func(v *VM, _ []uint64) (uint64, error) {
		b, err := v.input().ReadByte()
		if errors.Is(err, io.EOF) {
			return ^uint64(0), nil // -1
		}
		if err != nil {
			return 0, fmt.Errorf("getchar: %w", err)
		}
		return uint64(b), nil
	}},
	"putint": {params: 1, fn: func(v *VM, args []uint64) (uint64, error) {
		_, err := io.WriteString(v.outputSink(), strconv.FormatInt(int64(args[0]), 10))
		return 0, err
	}},
	"putdouble": {params: 1, fn: func(v *VM, args []uint64) (uint64, error) {
		_, err := io.WriteString(v.outputSink(), strconv.FormatFloat(f64(args[0]), 'g', -1, 64))
		return 0, err
	}},
	"putchar": {params: 1, fn: func(v *VM, args []uint64) (uint64, error) {
		_, err := v.outputSink().Write([]byte{byte(args[0])})
		return 0, err
	}},
	"putstr": {params: 1, fn: func(v *VM, args []uint64) (uint64, error) {
		idx := args[0]
		if idx >= uint64(len(v.prog.Globals)) {
			return 0, fmt.Errorf("%w: putstr of global %d", ErrBadOperand, idx)
		}
		_, err := v.outputSink().Write(v.prog.Globals[idx].Payload())
		return 0, err
	}},
	"putln": {fn: func(v *VM, _ []uint64) (uint64, error) {
		_, err := io.WriteString(v.outputSink(), "\n")
		return 0, err
	}},
}

func (v *VM) callPrimitive(slot int64) error {
	if slot < 0 || slot >= int64(len(v.prog.Globals)) {
		return fmt.Errorf("%w: callname %d", ErrBadOperand, slot)
	}
	name := string(v.prog.Globals[slot].Value)
	prim, ok := primitives[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPrimitive, name)
	}
	if v.sp < prim.params+prim.returns {
		return ErrStackUnderflow
	}
	args := make([]uint64, prim.params)
	copy(args, v.stack[v.sp-prim.params:v.sp])
	v.sp -= prim.params

	res, err := prim.fn(v, args)
	if err != nil {
		return err
	}
	if prim.returns > 0 {
		v.stack[v.sp-1] = res
	}
	return nil
}
