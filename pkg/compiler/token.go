package compiler

import "fmt"

// TokenType identifies the category of a lexed token.
type TokenType int

const (
	EOF TokenType = iota // sentinel: end of input

	// Literals
	IDENTIFIER // variable / function name
	UINT_LIT   // unsigned decimal integer literal
	DOUBLE_LIT // floating point literal 1.5, 2.0e-3
	STRING_LIT // string literal "..."
	CHAR_LIT   // character literal 'c'

	// Keywords
	FN       // "fn"
	LET      // "let"
	CONST    // "const"
	AS       // "as"
	WHILE    // "while"
	IF       // "if"
	ELSE     // "else"
	RETURN   // "return"
	BREAK    // "break"
	CONTINUE // "continue"
	INT      // "int"
	DOUBLE   // "double"
	VOID     // "void"

	// Paired delimiters
	LBRACE // {
	RBRACE // }
	LPAREN // (
	RPAREN // )

	// Punctuation
	ARROW     // ->
	COMMA     // ,
	COLON     // :
	SEMICOLON // ;

	// Arithmetic operators
	PLUS  // +
	MINUS // -
	STAR  // *
	SLASH // /

	// Assignment / comparison  (order matters: ASSIGN before EQUALS)
	ASSIGN     // =
	EQUALS     // ==
	NOT_EQ     // !=
	LESS       // <
	GREATER    // >
	LESS_EQ    // <=
	GREATER_EQ // >=
)

var tokenNames = [...]string{
	EOF:        "EOF",
	IDENTIFIER: "IDENTIFIER",
	UINT_LIT:   "UINT_LIT",
	DOUBLE_LIT: "DOUBLE_LIT",
	STRING_LIT: "STRING_LIT",
	CHAR_LIT:   "CHAR_LIT",
	FN:         "FN",
	LET:        "LET",
	CONST:      "CONST",
	AS:         "AS",
	WHILE:      "WHILE",
	IF:         "IF",
	ELSE:       "ELSE",
	RETURN:     "RETURN",
	BREAK:      "BREAK",
	CONTINUE:   "CONTINUE",
	INT:        "INT",
	DOUBLE:     "DOUBLE",
	VOID:       "VOID",
	LBRACE:     "LBRACE",
	RBRACE:     "RBRACE",
	LPAREN:     "LPAREN",
	RPAREN:     "RPAREN",
	ARROW:      "ARROW",
	COMMA:      "COMMA",
	COLON:      "COLON",
	SEMICOLON:  "SEMICOLON",
	PLUS:       "PLUS",
	MINUS:      "MINUS",
	STAR:       "STAR",
	SLASH:      "SLASH",
	ASSIGN:     "ASSIGN",
	EQUALS:     "EQUALS",
	NOT_EQ:     "NOT_EQ",
	LESS:       "LESS",
	GREATER:    "GREATER",
	LESS_EQ:    "LESS_EQ",
	GREATER_EQ: "GREATER_EQ",
}

func (tt TokenType) String() string {
	if int(tt) >= 0 && int(tt) < len(tokenNames) {
		return tokenNames[tt]
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// Pos is a 1-based source position.
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Token is a single lexical unit produced by the Lexer.
type Token struct {
	Type   TokenType
	Lexeme string // source text; decoded contents for string and char literals
	Pos    Pos

	Int   int64   // value of a UINT_LIT
	Float float64 // value of a DOUBLE_LIT
}

func (t Token) String() string {
	return fmt.Sprintf("%-10s %-14q  %s", t.Type, t.Lexeme, t.Pos)
}
