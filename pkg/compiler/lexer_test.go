package compiler

import (
	"errors"
	"reflect"
	"testing"
)

func at(line, col int) Pos {
	return Pos{Line: line, Col: col}
}

func TestLex(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Token
		wantErr  bool
	}{
		{
			name:  "Empty",
			input: "",
			expected: []Token{
				{Type: EOF, Lexeme: "", Pos: at(1, 1)},
			},
		},
		{
			name:  "Operators",
			input: "+ - * / = == != < > <= >= ->",
			expected: []Token{
				{Type: PLUS, Lexeme: "+", Pos: at(1, 1)},
				{Type: MINUS, Lexeme: "-", Pos: at(1, 3)},
				{Type: STAR, Lexeme: "*", Pos: at(1, 5)},
				{Type: SLASH, Lexeme: "/", Pos: at(1, 7)},
				{Type: ASSIGN, Lexeme: "=", Pos: at(1, 9)},
				{Type: EQUALS, Lexeme: "==", Pos: at(1, 11)},
				{Type: NOT_EQ, Lexeme: "!=", Pos: at(1, 14)},
				{Type: LESS, Lexeme: "<", Pos: at(1, 17)},
				{Type: GREATER, Lexeme: ">", Pos: at(1, 19)},
				{Type: LESS_EQ, Lexeme: "<=", Pos: at(1, 21)},
				{Type: GREATER_EQ, Lexeme: ">=", Pos: at(1, 24)},
				{Type: ARROW, Lexeme: "->", Pos: at(1, 27)},
				{Type: EOF, Lexeme: "", Pos: at(1, 29)},
			},
		},
		{
			name:  "Keywords and Identifiers",
			input: "fn let const as while if else return break continue int double void x_1 _y",
			expected: []Token{
				{Type: FN, Lexeme: "fn", Pos: at(1, 1)},
				{Type: LET, Lexeme: "let", Pos: at(1, 4)},
				{Type: CONST, Lexeme: "const", Pos: at(1, 8)},
				{Type: AS, Lexeme: "as", Pos: at(1, 14)},
				{Type: WHILE, Lexeme: "while", Pos: at(1, 17)},
				{Type: IF, Lexeme: "if", Pos: at(1, 23)},
				{Type: ELSE, Lexeme: "else", Pos: at(1, 26)},
				{Type: RETURN, Lexeme: "return", Pos: at(1, 31)},
				{Type: BREAK, Lexeme: "break", Pos: at(1, 38)},
				{Type: CONTINUE, Lexeme: "continue", Pos: at(1, 44)},
				{Type: INT, Lexeme: "int", Pos: at(1, 53)},
				{Type: DOUBLE, Lexeme: "double", Pos: at(1, 57)},
				{Type: VOID, Lexeme: "void", Pos: at(1, 64)},
				{Type: IDENTIFIER, Lexeme: "x_1", Pos: at(1, 69)},
				{Type: IDENTIFIER, Lexeme: "_y", Pos: at(1, 73)},
				{Type: EOF, Lexeme: "", Pos: at(1, 75)},
			},
		},
		{
			name:  "Numbers",
			input: "0 42 1.5 2.0e3 7.25E-1",
			expected: []Token{
				{Type: UINT_LIT, Lexeme: "0", Pos: at(1, 1), Int: 0},
				{Type: UINT_LIT, Lexeme: "42", Pos: at(1, 3), Int: 42},
				{Type: DOUBLE_LIT, Lexeme: "1.5", Pos: at(1, 6), Float: 1.5},
				{Type: DOUBLE_LIT, Lexeme: "2.0e3", Pos: at(1, 10), Float: 2000},
				{Type: DOUBLE_LIT, Lexeme: "7.25E-1", Pos: at(1, 16), Float: 0.725},
				{Type: EOF, Lexeme: "", Pos: at(1, 23)},
			},
		},
		{
			name:  "Strings and chars",
			input: `"hi\n" 'a' '\''`,
			expected: []Token{
				{Type: STRING_LIT, Lexeme: "hi\n", Pos: at(1, 1)},
				{Type: CHAR_LIT, Lexeme: "a", Pos: at(1, 8)},
				{Type: CHAR_LIT, Lexeme: "'", Pos: at(1, 12)},
				{Type: EOF, Lexeme: "", Pos: at(1, 16)},
			},
		},
		{
			name:  "Comments and lines",
			input: "let // trailing comment\n  x;",
			expected: []Token{
				{Type: LET, Lexeme: "let", Pos: at(1, 1)},
				{Type: IDENTIFIER, Lexeme: "x", Pos: at(2, 3)},
				{Type: SEMICOLON, Lexeme: ";", Pos: at(2, 4)},
				{Type: EOF, Lexeme: "", Pos: at(2, 5)},
			},
		},
		{name: "Integer overflow", input: "9223372036854775808", wantErr: true},
		{name: "Bare bang", input: "!", wantErr: true},
		{name: "Unterminated string", input: `"abc`, wantErr: true},
		{name: "Empty char", input: "''", wantErr: true},
		{name: "Bad escape", input: `"\q"`, wantErr: true},
		{name: "Bad exponent", input: "1.0e+", wantErr: true},
		{name: "Unknown character", input: "let x = 1 % 2;", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Lex(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got tokens %v", got)
				}
				var ce *Error
				if !errors.As(err, &ce) || ce.Kind != ErrLexical {
					t.Fatalf("expected lexical *Error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Lex(%q):\n got  %v\n want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLexerPeekIsStable(t *testing.T) {
	l := NewLexer("a b")
	p1, _ := l.Peek()
	p2, _ := l.Peek()
	if p1 != p2 || p1.Lexeme != "a" {
		t.Fatalf("Peek not stable: %v vs %v", p1, p2)
	}
	n, _ := l.Next()
	if n.Lexeme != "a" {
		t.Fatalf("Next = %v; want a", n)
	}
	n, _ = l.Next()
	if n.Lexeme != "b" {
		t.Fatalf("Next = %v; want b", n)
	}
	for i := 0; i < 2; i++ {
		n, _ = l.Next()
		if n.Type != EOF {
			t.Fatalf("Next after end = %v; want EOF", n)
		}
	}
}

func TestSliceSource(t *testing.T) {
	tokens, err := Lex("fn main")
	if err != nil {
		t.Fatal(err)
	}
	src := NewSliceSource(tokens[:2]) // drop EOF
	for _, want := range []TokenType{FN, IDENTIFIER, EOF, EOF} {
		tok, _ := src.Next()
		if tok.Type != want {
			t.Fatalf("got %s, want %s", tok.Type, want)
		}
	}
}
