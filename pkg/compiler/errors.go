package compiler

import "fmt"

// ErrorKind classifies a compile error.
type ErrorKind int

const (
	ErrLexical ErrorKind = iota
	ErrUnexpectedToken
	ErrMalformedExpression
	ErrDuplicateDeclaration
	ErrNotDeclared
	ErrAssignToConstant
	ErrNotInitialized
	ErrTypeMismatch
	ErrBreakOutsideLoop
	ErrContinueOutsideLoop
	ErrUnknownFunction
	ErrMissingReturn
	ErrNoMain
)

var errorKindNames = [...]string{
	ErrLexical:              "lexical error",
	ErrUnexpectedToken:      "unexpected token",
	ErrMalformedExpression:  "malformed expression",
	ErrDuplicateDeclaration: "duplicate declaration",
	ErrNotDeclared:          "not declared",
	ErrAssignToConstant:     "assignment to constant",
	ErrNotInitialized:       "not initialized",
	ErrTypeMismatch:         "type mismatch",
	ErrBreakOutsideLoop:     "break outside loop",
	ErrContinueOutsideLoop:  "continue outside loop",
	ErrUnknownFunction:      "unknown function",
	ErrMissingReturn:        "missing return",
	ErrNoMain:               "no main function",
}

func (k ErrorKind) String() string {
	if int(k) >= 0 && int(k) < len(errorKindNames) {
		return errorKindNames[k]
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is the single error type produced by compilation. Every error
// is fatal; Pos is for diagnostics only.
type Error struct {
	Kind    ErrorKind
	Pos     Pos
	Msg     string
	Snippet string // offending source line, when known
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("line %s: %s: %s", e.Pos, e.Kind, e.Msg)
	if e.Snippet != "" {
		msg += "\n  |> " + e.Snippet
	}
	return msg
}

func errorf(kind ErrorKind, pos Pos, format string, args ...any) *Error {
	return &Error{Kind: kind, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}
