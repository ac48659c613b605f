package bytecode

import (
	"fmt"
	"strconv"
	"strings"
)

// Disassemble renders p as a listing: the global pool first, then every
// function with numbered instructions.
func Disassemble(p *Program) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "globals (%d):\n", len(p.Globals))
	for i, g := range p.Globals {
		kind := "var"
		if g.Const {
			kind = "const"
		}
		switch {
		case g.Value != nil && isText(g.Value):
			fmt.Fprintf(&sb, "  %4d  %-5s %s\n", i, kind, strconv.Quote(string(g.Value)))
		case g.Name != "":
			fmt.Fprintf(&sb, "  %4d  %-5s %s\n", i, kind, g.Name)
		default:
			fmt.Fprintf(&sb, "  %4d  %-5s [%d bytes]\n", i, kind, len(g.Payload()))
		}
	}

	fmt.Fprintf(&sb, "functions (%d):\n", len(p.Functions))
	for i, f := range p.Functions {
		name := p.FunctionName(f)
		if name == "" {
			name = fmt.Sprintf("#%d", i)
		}
		fmt.Fprintf(&sb, "fn %s [%d] locals=%d params=%d -> %d\n", name, f.Slot, f.Locals, f.Params, f.Returns)
		for pc, in := range f.Code {
			fmt.Fprintf(&sb, "  %4d  %s\n", pc, in)
		}
	}
	return sb.String()
}

// isText reports whether b is a non-empty run of printable bytes or
// common whitespace escapes.
func isText(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	for _, c := range b {
		if c < 0x20 && c != '\n' && c != '\t' && c != '\r' {
			return false
		}
		if c >= 0x7f {
			return false
		}
	}
	return true
}
