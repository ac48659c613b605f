// Package debuginfo builds the CBOR sidecar written next to a compiled
// program. It maps global slots and functions back to source names.
package debuginfo

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"c0c/pkg/bytecode"
)

// Version is bumped when the sidecar layout changes.
const Version = 1

var encMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("debuginfo: failed to create CBOR enc mode: %v", err))
	}
	encMode = em
}

type GlobalKind uint8

const (
	GlobalVariable GlobalKind = iota + 1
	GlobalConstant
	GlobalFunction
	GlobalNative
	GlobalString
)

var globalKindNames = map[GlobalKind]string{
	GlobalVariable: "variable",
	GlobalConstant: "constant",
	GlobalFunction: "function",
	GlobalNative:   "native",
	GlobalString:   "string",
}

func (k GlobalKind) String() string {
	if s, ok := globalKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("GlobalKind(%d)", uint8(k))
}

type Global struct {
	Slot int        `cbor:"1,keyasint"`
	Kind GlobalKind `cbor:"2,keyasint"`
	Name string     `cbor:"3,keyasint,omitempty"` // variables, constants, functions, natives
	Text []byte     `cbor:"4,keyasint,omitempty"` // string literals
}

type Function struct {
	Name         string `cbor:"1,keyasint"`
	Slot         uint32 `cbor:"2,keyasint"`
	Params       uint32 `cbor:"3,keyasint"`
	Locals       uint32 `cbor:"4,keyasint"`
	Returns      uint32 `cbor:"5,keyasint"`
	Instructions int    `cbor:"6,keyasint"`
}

// Info is the sidecar document.
type Info struct {
	Version   int        `cbor:"1,keyasint"`
	Source    string     `cbor:"2,keyasint"`
	Globals   []Global   `cbor:"3,keyasint"`
	Functions []Function `cbor:"4,keyasint"`
}

// FromProgram describes p, compiled from the file at source.
func FromProgram(p *bytecode.Program, source string) *Info {
	funcSlots := make(map[uint32]bool, len(p.Functions))
	natives := make(map[int64]bool)
	for _, f := range p.Functions {
		funcSlots[f.Slot] = true
		for _, in := range f.Code {
			if in.Op == bytecode.OpCallName {
				natives[in.Operand] = true
			}
		}
	}

	info := &Info{Version: Version, Source: source}
	for i, g := range p.Globals {
		dg := Global{Slot: i}
		switch {
		case g.Name != "" && g.Const:
			dg.Kind, dg.Name = GlobalConstant, g.Name
		case g.Name != "":
			dg.Kind, dg.Name = GlobalVariable, g.Name
		case funcSlots[uint32(i)]:
			dg.Kind, dg.Name = GlobalFunction, string(g.Value)
		case natives[int64(i)]:
			dg.Kind, dg.Name = GlobalNative, string(g.Value)
		default:
			dg.Kind, dg.Text = GlobalString, g.Value
		}
		info.Globals = append(info.Globals, dg)
	}
	for _, f := range p.Functions {
		info.Functions = append(info.Functions, Function{
			Name:         p.FunctionName(f),
			Slot:         f.Slot,
			Params:       f.Params,
			Locals:       f.Locals,
			Returns:      f.Returns,
			Instructions: len(f.Code),
		})
	}
	return info
}

// Marshal encodes info canonically, so equal programs give equal bytes.
func Marshal(info *Info) ([]byte, error) {
	return encMode.Marshal(info)
}

func Unmarshal(data []byte) (*Info, error) {
	var info Info
	if err := cbor.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("debuginfo: unmarshal: %w", err)
	}
	if info.Version != Version {
		return nil, fmt.Errorf("debuginfo: unsupported version %d", info.Version)
	}
	return &info, nil
}
