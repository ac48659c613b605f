package bytecode

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("c0c.bytecode")

var (
	ErrBadMagic      = errors.New("bad magic number")
	ErrBadVersion    = errors.New("unsupported version")
	ErrTruncated     = errors.New("truncated binary")
	ErrUnknownOpcode = errors.New("unknown opcode")
)

// maxPayload bounds a single global's payload so a corrupt length field
// cannot trigger a huge allocation.
const maxPayload = 1 << 24

type decoder struct {
	r *bufio.Reader
}

func (d *decoder) read(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrTruncated
		}
		return nil, err
	}
	return buf, nil
}

func (d *decoder) u32() (uint32, error) {
	b, err := d.read(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (d *decoder) u8() (byte, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, ErrTruncated
		}
		return 0, err
	}
	return b, nil
}

// Decode reads a navm binary produced by Encode.
func Decode(r io.Reader) (*Program, error) {
	d := &decoder{r: bufio.NewReader(r)}

	magic, err := d.u32()
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	if magic != Magic {
		return nil, fmt.Errorf("%w: 0x%08x", ErrBadMagic, magic)
	}
	version, err := d.u32()
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	if version != Version {
		return nil, fmt.Errorf("%w: %d", ErrBadVersion, version)
	}

	nglobals, err := d.u32()
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	p := &Program{}
	for i := uint32(0); i < nglobals; i++ {
		flag, err := d.u8()
		if err != nil {
			return nil, fmt.Errorf("global %d: %w", i, err)
		}
		n, err := d.u32()
		if err != nil {
			return nil, fmt.Errorf("global %d: %w", i, err)
		}
		if n > maxPayload {
			return nil, fmt.Errorf("global %d: payload of %d bytes exceeds limit", i, n)
		}
		payload, err := d.read(int(n))
		if err != nil {
			return nil, fmt.Errorf("global %d: %w", i, err)
		}
		p.Globals = append(p.Globals, Global{Const: flag != 0, Value: payload})
	}

	nfuncs, err := d.u32()
	if err != nil {
		return nil, fmt.Errorf("function count: %w", err)
	}
	for i := uint32(0); i < nfuncs; i++ {
		f, err := d.function()
		if err != nil {
			return nil, fmt.Errorf("function %d: %w", i, err)
		}
		p.Functions = append(p.Functions, f)
	}
	log.Debugf("decoded %d globals, %d functions", len(p.Globals), len(p.Functions))
	return p, nil
}

func (d *decoder) function() (Function, error) {
	var hdr [5]uint32
	for i := range hdr {
		v, err := d.u32()
		if err != nil {
			return Function{}, err
		}
		hdr[i] = v
	}
	f := Function{FuncHeader: FuncHeader{Slot: hdr[0], Returns: hdr[1], Params: hdr[2], Locals: hdr[3]}}
	for n := uint32(0); n < hdr[4]; n++ {
		b, err := d.u8()
		if err != nil {
			return Function{}, err
		}
		op := Opcode(b)
		if !op.Valid() {
			return Function{}, fmt.Errorf("%w 0x%02x at instruction %d", ErrUnknownOpcode, b, n)
		}
		in := Instruction{Op: op}
		switch op.OperandWidth() {
		case 8:
			raw, err := d.read(8)
			if err != nil {
				return Function{}, err
			}
			in.Operand = int64(binary.BigEndian.Uint64(raw))
		case 4:
			v, err := d.u32()
			if err != nil {
				return Function{}, err
			}
			in.Operand = int64(int32(v))
		}
		f.Code = append(f.Code, in)
	}
	return f, nil
}
