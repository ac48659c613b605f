package bytecode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Encode writes p in the navm binary layout. Every multi-byte field is
// big-endian.
func Encode(w io.Writer, p *Program) error {
	buf, err := Bytes(p)
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}

// Bytes returns the encoded form of p.
func Bytes(p *Program) ([]byte, error) {
	var buf bytes.Buffer
	be := binary.BigEndian

	put32 := func(v uint32) {
		buf.Write(be.AppendUint32(nil, v))
	}

	put32(Magic)
	put32(Version)
	put32(uint32(len(p.Globals)))
	for _, g := range p.Globals {
		if g.Const {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
		payload := g.Payload()
		put32(uint32(len(payload)))
		buf.Write(payload)
	}

	put32(uint32(len(p.Functions)))
	for fi, f := range p.Functions {
		put32(f.Slot)
		put32(f.Returns)
		put32(f.Params)
		put32(f.Locals)
		put32(uint32(len(f.Code)))
		for ii, in := range f.Code {
			if !in.Op.Valid() {
				return nil, fmt.Errorf("function %d instruction %d: cannot encode %s", fi, ii, in.Op)
			}
			buf.WriteByte(byte(in.Op))
			switch in.Op.OperandWidth() {
			case 8:
				buf.Write(be.AppendUint64(nil, uint64(in.Operand)))
			case 4:
				buf.Write(be.AppendUint32(nil, uint32(int32(in.Operand))))
			}
		}
	}
	return buf.Bytes(), nil
}
