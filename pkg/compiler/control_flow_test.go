package compiler

import (
	"strings"
	"testing"

	"c0c/pkg/bytecode"
)

func TestControlFlow(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains []string
	}{
		{
			name: "if statement",
			input: `
			fn main() -> void {
				let x: int = 1;
				if x == 1 {
					x = 2;
				}
			}
			`,
			contains: []string{"cmp.i", "not", "br.true 1", "br 4", "br 0"},
		},
		{
			name: "if-else statement",
			input: `
			fn main() -> void {
				let x: int = 1;
				if x == 1 {
					x = 2;
				} else {
					x = 3;
				}
			}
			`,
			contains: []string{"br.true 1", "br 4", "br 3"},
		},
		{
			name: "while loop",
			input: `
			fn main() -> void {
				let i: int = 0;
				while i < 3 {
					i = i + 1;
				}
			}
			`,
			contains: []string{"set.lt", "br.true 1", "br 7", "br -14"},
		},
		{
			name: "break and continue",
			input: `
			fn main() -> void {
				let i: int = 0;
				while i < 10 {
					i = i + 1;
					if i == 3 { continue; }
					if i == 7 { break; }
				}
			}
			`,
			contains: []string{"br -21", "br -32", "br 25"},
		},
		{
			name: "nested blocks",
			input: `
			fn main() -> void {
				let x: int = 1;
				{
					let y: int = 2;
					{
						let z: int = 3;
						x = y + z;
					}
				}
			}
			`,
			contains: []string{"loca 2", "loca 1", "add.i", "fn main [1] locals=3"},
		},
		{
			name: "double comparison",
			input: `
			fn main() -> void {
				let d: double = 1.5;
				while d >= 0.5 { d = d - 1.0; }
			}
			`,
			contains: []string{"cmp.f", "set.lt", "sub.f"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Compile(tt.input)
			if err != nil {
				t.Fatalf("compile error: %v", err)
			}
			out := bytecode.Disassemble(p)
			for _, s := range tt.contains {
				if !strings.Contains(out, s) {
					t.Errorf("expected listing to contain %q\n%s", s, out)
				}
			}
		})
	}
}
