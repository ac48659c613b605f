package compiler

import (
	"errors"
	"fmt"
	"strings"

	"c0c/pkg/bytecode"
)

// Compile checks src and returns the compiled program. A compile error
// is returned as *Error carrying the offending source line.
func Compile(src string) (*bytecode.Program, error) {
	p, err := NewAnalyzer(NewLexer(src)).Analyze()
	if err != nil {
		var ce *Error
		if errors.As(err, &ce) {
			ce.Snippet = sourceLine(src, ce.Pos.Line)
		}
		return nil, err
	}
	return p, nil
}

// CompileBytes compiles src straight to the navm binary layout.
func CompileBytes(src string) ([]byte, error) {
	p, err := Compile(src)
	if err != nil {
		return nil, err
	}
	bin, err := bytecode.Bytes(p)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return bin, nil
}

func sourceLine(src string, line int) string {
	lines := strings.Split(src, "\n")
	if line < 1 || line > len(lines) {
		return ""
	}
	return strings.TrimSpace(lines[line-1])
}
