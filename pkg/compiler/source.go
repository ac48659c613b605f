package compiler

// TokenSource supplies tokens one at a time. After the final EOF token
// both methods keep returning EOF.
type TokenSource interface {
	Peek() (Token, error)
	Next() (Token, error)
}

// SliceSource replays a pre-lexed token slice.
type SliceSource struct {
	tokens []Token
	pos    int
}

func NewSliceSource(tokens []Token) *SliceSource {
	return &SliceSource{tokens: tokens}
}

func (s *SliceSource) Peek() (Token, error) {
	if s.pos >= len(s.tokens) {
		var pos Pos
		if n := len(s.tokens); n > 0 {
			pos = s.tokens[n-1].Pos
		}
		return Token{Type: EOF, Pos: pos}, nil
	}
	return s.tokens[s.pos], nil
}

func (s *SliceSource) Next() (Token, error) {
	tok, err := s.Peek()
	if s.pos < len(s.tokens) {
		s.pos++
	}
	return tok, err
}
