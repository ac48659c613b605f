package compiler

import (
	"strconv"
	"unicode"
)

// keywords maps source text to its keyword TokenType.
var keywords = map[string]TokenType{
	"fn":       FN,
	"let":      LET,
	"const":    CONST,
	"as":       AS,
	"while":    WHILE,
	"if":       IF,
	"else":     ELSE,
	"return":   RETURN,
	"break":    BREAK,
	"continue": CONTINUE,
	"int":      INT,
	"double":   DOUBLE,
	"void":     VOID,
}

// Lexer holds all mutable state for a single scanning pass over src. It
// produces tokens on demand and implements TokenSource.
type Lexer struct {
	src  []rune
	pos  int // index of the next rune to consume
	line int // current 1-based source line
	col  int // 1-based column of the next rune

	peeked  bool
	lookTok Token
	lookErr error
}

func NewLexer(src string) *Lexer {
	return &Lexer{src: []rune(src), pos: 0, line: 1, col: 1}
}

// Peek returns the next token without consuming it.
func (l *Lexer) Peek() (Token, error) {
	if !l.peeked {
		l.lookTok, l.lookErr = l.nextToken()
		l.peeked = true
	}
	return l.lookTok, l.lookErr
}

// Next consumes and returns the next token. Once EOF is reached every
// further call returns EOF again; a lexical error is likewise sticky.
func (l *Lexer) Next() (Token, error) {
	tok, err := l.Peek()
	if err == nil && tok.Type != EOF {
		l.peeked = false
	}
	return tok, err
}

// peek returns the rune at the current position without advancing.
func (l *Lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

// peek2 returns the rune one position ahead of the current position.
func (l *Lexer) peek2() rune {
	if l.pos+1 >= len(l.src) {
		return 0
	}
	return l.src[l.pos+1]
}

// advance consumes one rune and returns it.
func (l *Lexer) advance() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *Lexer) here() Pos {
	return Pos{Line: l.line, Col: l.col}
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.src) && unicode.IsSpace(l.peek()) {
		l.advance()
	}
}

// skipLineComment discards everything from the current position to end-of-line.
// The opening "//" must already have been consumed.
func (l *Lexer) skipLineComment() {
	for l.pos < len(l.src) && l.peek() != '\n' {
		l.advance()
	}
}

// scanIdent collects a full identifier or keyword token.
// The first character (letter or '_') must still be at l.peek().
func (l *Lexer) scanIdent() Token {
	pos := l.here()
	start := l.pos
	for l.pos < len(l.src) {
		r := l.peek()
		if !isIdentRune(r) && !isDigit(r) {
			break
		}
		l.advance()
	}
	lexeme := string(l.src[start:l.pos])
	tt := IDENTIFIER
	if kw, ok := keywords[lexeme]; ok {
		tt = kw
	}
	return Token{Type: tt, Lexeme: lexeme, Pos: pos}
}

// scanNumber collects an unsigned integer or a double literal. A double
// needs digits on both sides of the '.', with an optional exponent.
func (l *Lexer) scanNumber() (Token, error) {
	pos := l.here()
	start := l.pos
	for isDigit(l.peek()) {
		l.advance()
	}

	isDouble := false
	if l.peek() == '.' && isDigit(l.peek2()) {
		isDouble = true
		l.advance()
		for isDigit(l.peek()) {
			l.advance()
		}
		if l.peek() == 'e' || l.peek() == 'E' {
			l.advance()
			if l.peek() == '+' || l.peek() == '-' {
				l.advance()
			}
			if !isDigit(l.peek()) {
				return Token{}, errorf(ErrLexical, pos, "malformed exponent in %q", string(l.src[start:l.pos]))
			}
			for isDigit(l.peek()) {
				l.advance()
			}
		}
	}

	lexeme := string(l.src[start:l.pos])
	if isDouble {
		f, err := strconv.ParseFloat(lexeme, 64)
		if err != nil {
			return Token{}, errorf(ErrLexical, pos, "invalid double literal %q", lexeme)
		}
		return Token{Type: DOUBLE_LIT, Lexeme: lexeme, Pos: pos, Float: f}, nil
	}
	n, err := strconv.ParseInt(lexeme, 10, 64)
	if err != nil {
		return Token{}, errorf(ErrLexical, pos, "integer literal %s out of range", lexeme)
	}
	return Token{Type: UINT_LIT, Lexeme: lexeme, Pos: pos, Int: n}, nil
}

// scanEscape consumes the character after a backslash.
func (l *Lexer) scanEscape(pos Pos) (rune, error) {
	next := l.peek()
	var val rune
	switch next {
	case 'n':
		val = '\n'
	case 'r':
		val = '\r'
	case 't':
		val = '\t'
	case '\\':
		val = '\\'
	case '\'':
		val = '\''
	case '"':
		val = '"'
	default:
		return 0, errorf(ErrLexical, pos, "unknown escape sequence \\%c", next)
	}
	l.advance()
	return val, nil
}

// scanChar collects a character literal 'c'.
func (l *Lexer) scanChar() (Token, error) {
	pos := l.here()
	l.advance() // consume opening '

	r := l.peek()
	if r == '\'' {
		return Token{}, errorf(ErrLexical, pos, "empty character literal")
	}
	if r == 0 || r == '\n' {
		return Token{}, errorf(ErrLexical, pos, "unterminated character literal")
	}

	var val rune
	l.advance()
	if r == '\\' {
		v, err := l.scanEscape(pos)
		if err != nil {
			return Token{}, err
		}
		val = v
	} else {
		val = r
	}

	if l.peek() != '\'' {
		return Token{}, errorf(ErrLexical, pos, "unterminated character literal")
	}
	l.advance() // consume closing '

	return Token{Type: CHAR_LIT, Lexeme: string(val), Pos: pos}, nil
}

// scanString collects a string literal "...".
func (l *Lexer) scanString() (Token, error) {
	pos := l.here()
	l.advance() // consume opening "
	var val []rune

	for l.pos < len(l.src) {
		r := l.peek()
		if r == '"' {
			break
		}
		if r == '\n' {
			return Token{}, errorf(ErrLexical, pos, "unterminated string literal")
		}
		l.advance()
		if r == '\\' {
			v, err := l.scanEscape(pos)
			if err != nil {
				return Token{}, err
			}
			val = append(val, v)
			continue
		}
		val = append(val, r)
	}

	if l.pos >= len(l.src) {
		return Token{}, errorf(ErrLexical, pos, "unterminated string literal")
	}
	l.advance() // consume closing "

	return Token{Type: STRING_LIT, Lexeme: string(val), Pos: pos}, nil
}

// nextToken skips whitespace/comments and returns the next Token.
func (l *Lexer) nextToken() (Token, error) {
	for {
		l.skipWhitespace()
		if l.pos >= len(l.src) {
			return Token{Type: EOF, Lexeme: "", Pos: l.here()}, nil
		}
		if l.peek() == '/' && l.peek2() == '/' {
			l.advance()
			l.advance()
			l.skipLineComment()
			continue
		}
		break
	}

	ch := l.peek()
	pos := l.here()

	if isIdentRune(ch) {
		return l.scanIdent(), nil
	}
	if isDigit(ch) {
		return l.scanNumber()
	}
	if ch == '"' {
		return l.scanString()
	}
	if ch == '\'' {
		return l.scanChar()
	}

	l.advance() // consume the character before the switch
	tok := func(tt TokenType, lexeme string) (Token, error) {
		return Token{Type: tt, Lexeme: lexeme, Pos: pos}, nil
	}
	switch ch {
	case '{':
		return tok(LBRACE, "{")
	case '}':
		return tok(RBRACE, "}")
	case '(':
		return tok(LPAREN, "(")
	case ')':
		return tok(RPAREN, ")")
	case ';':
		return tok(SEMICOLON, ";")
	case ',':
		return tok(COMMA, ",")
	case ':':
		return tok(COLON, ":")
	case '+':
		return tok(PLUS, "+")
	case '-':
		if l.peek() == '>' {
			l.advance()
			return tok(ARROW, "->")
		}
		return tok(MINUS, "-")
	case '*':
		return tok(STAR, "*")
	case '/':
		return tok(SLASH, "/")
	case '!':
		if l.peek() == '=' {
			l.advance()
			return tok(NOT_EQ, "!=")
		}
	case '<':
		if l.peek() == '=' {
			l.advance()
			return tok(LESS_EQ, "<=")
		}
		return tok(LESS, "<")
	case '>':
		if l.peek() == '=' {
			l.advance()
			return tok(GREATER_EQ, ">=")
		}
		return tok(GREATER, ">")
	case '=':
		if l.peek() == '=' { // lookahead: distinguish = vs ==
			l.advance()
			return tok(EQUALS, "==")
		}
		return tok(ASSIGN, "=")
	}
	return Token{}, errorf(ErrLexical, pos, "unexpected character %q", ch)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isIdentRune(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// Lex tokenises src and returns all tokens including the final EOF token.
// It returns a non-nil error on the first illegal character or malformed literal.
func Lex(src string) ([]Token, error) {
	l := NewLexer(src)
	var tokens []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens, nil
		}
	}
}
