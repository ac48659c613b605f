package bytecode

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleProgram(t *testing.T) *Program {
	t.Helper()
	start := NewStream()
	start.EmitFunc(&FuncHeader{Slot: 0})
	start.EmitArg(OpStackAlloc, 0)
	start.EmitArg(OpCall, 1)

	body := NewStream()
	body.EmitFunc(&FuncHeader{Slot: 1, Locals: 1})
	body.EmitArg(OpLocA, 0)
	body.EmitArg(OpPush, -7)
	body.Emit(OpStore64)
	br := body.EmitArg(OpBr, 0)
	body.Emit(OpNop)
	body.PatchJump(br)
	body.Emit(OpRet)

	funcs, err := SplitFunctions(append(start.Instructions(), body.Instructions()...))
	require.NoError(t, err)
	return &Program{
		Globals: []Global{
			{Const: true, Value: []byte("_start")},
			{Const: true, Value: []byte("main")},
			{Name: "x"},
		},
		Functions: funcs,
	}
}

func TestSplitFunctions(t *testing.T) {
	p := sampleProgram(t)
	require.Len(t, p.Functions, 2)
	require.Len(t, p.Functions[0].Code, 2)
	require.Len(t, p.Functions[1].Code, 6)
	require.Equal(t, uint32(1), p.Functions[1].Locals)
	require.Equal(t, int64(1), p.Functions[1].Code[3].Operand)
}

func TestSplitFunctionsRejectsLeadingCode(t *testing.T) {
	s := NewStream()
	s.Emit(OpRet)
	_, err := SplitFunctions(s.Instructions())
	require.ErrorIs(t, err, ErrNoFunction)
}

func TestEncodeLayout(t *testing.T) {
	p := sampleProgram(t)
	bin, err := Bytes(p)
	require.NoError(t, err)

	be := binary.BigEndian
	require.Equal(t, Magic, be.Uint32(bin[0:4]))
	require.Equal(t, Version, be.Uint32(bin[4:8]))
	require.Equal(t, uint32(3), be.Uint32(bin[8:12]))

	// First global: flag, length, "_start".
	require.Equal(t, byte(1), bin[12])
	require.Equal(t, uint32(6), be.Uint32(bin[13:17]))
	require.Equal(t, "_start", string(bin[17:23]))

	// Third global is a zeroed mutable slot.
	off := 23 + 1 + 4 + 4
	require.Equal(t, byte(0), bin[off])
	require.Equal(t, uint32(8), be.Uint32(bin[off+1:off+5]))
	require.Equal(t, make([]byte, 8), bin[off+5:off+13])
	off += 13

	require.Equal(t, uint32(2), be.Uint32(bin[off:off+4]))
	off += 4

	// _start: 20-byte header, then stackalloc (1+4) and call (1+4).
	require.Equal(t, []uint32{0, 0, 0, 0, 2}, []uint32{
		be.Uint32(bin[off:]), be.Uint32(bin[off+4:]), be.Uint32(bin[off+8:]),
		be.Uint32(bin[off+12:]), be.Uint32(bin[off+16:]),
	})
	off += 20
	require.Equal(t, byte(OpStackAlloc), bin[off])
	require.Equal(t, byte(OpCall), bin[off+5])
	require.Equal(t, uint32(1), be.Uint32(bin[off+6:]))
	off += 10

	// main: loca is 5 bytes, push is 9 bytes.
	off += 20
	require.Equal(t, byte(OpLocA), bin[off])
	require.Equal(t, byte(OpPush), bin[off+5])
	require.Equal(t, uint64(0xfffffffffffffff9), be.Uint64(bin[off+6:]))
	require.Equal(t, byte(OpStore64), bin[off+14])
	require.Equal(t, byte(OpBr), bin[off+15])
	require.Equal(t, byte(OpNop), bin[off+20])
	require.Equal(t, byte(OpRet), bin[off+21])
	require.Len(t, bin, off+22)
}

func TestDecodeRoundTrip(t *testing.T) {
	p := sampleProgram(t)
	bin, err := Bytes(p)
	require.NoError(t, err)

	got, err := Decode(bytes.NewReader(bin))
	require.NoError(t, err)
	require.Len(t, got.Globals, 3)
	require.Len(t, got.Functions, 2)
	require.Equal(t, "main", got.FunctionName(got.Functions[1]))
	require.Equal(t, int64(-7), got.Functions[1].Code[1].Operand)

	var again bytes.Buffer
	require.NoError(t, Encode(&again, got))
	require.Equal(t, bin, again.Bytes())
}

func TestDecodeErrors(t *testing.T) {
	p := sampleProgram(t)
	bin, err := Bytes(p)
	require.NoError(t, err)

	t.Run("bad magic", func(t *testing.T) {
		bad := append([]byte{}, bin...)
		bad[0] = 0
		_, err := Decode(bytes.NewReader(bad))
		require.ErrorIs(t, err, ErrBadMagic)
	})
	t.Run("bad version", func(t *testing.T) {
		bad := append([]byte{}, bin...)
		bad[7] = 9
		_, err := Decode(bytes.NewReader(bad))
		require.ErrorIs(t, err, ErrBadVersion)
	})
	t.Run("truncated", func(t *testing.T) {
		_, err := Decode(bytes.NewReader(bin[:len(bin)-3]))
		require.ErrorIs(t, err, ErrTruncated)
	})
	t.Run("unknown opcode", func(t *testing.T) {
		bad := append([]byte{}, bin...)
		bad[len(bad)-1] = 0x99
		_, err := Decode(bytes.NewReader(bad))
		require.ErrorIs(t, err, ErrUnknownOpcode)
	})
}

func TestEncodeRejectsMarker(t *testing.T) {
	p := &Program{Functions: []Function{{Code: []Instruction{{Op: OpFunc}}}}}
	_, err := Bytes(p)
	require.Error(t, err)
}

func TestDisassemble(t *testing.T) {
	out := Disassemble(sampleProgram(t))
	for _, want := range []string{
		"globals (3):",
		`const "_start"`,
		"var   x",
		"fn main [1] locals=1 params=0 -> 0",
		"push -7",
		"br 1",
		"ret",
	} {
		require.Contains(t, out, want)
	}
}

func TestOperandWidth(t *testing.T) {
	tests := []struct {
		op   Opcode
		want int
	}{
		{OpPush, 8},
		{OpBr, 4},
		{OpCallName, 4},
		{OpStackAlloc, 4},
		{OpLoad64, 0},
		{OpRet, 0},
	}
	for _, tc := range tests {
		if got := tc.op.OperandWidth(); got != tc.want {
			t.Errorf("%s.OperandWidth() = %d; want %d", tc.op, got, tc.want)
		}
	}
}
