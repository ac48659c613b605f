// Package compiler provides a lexer and a single-pass analyzer that
// checks a small C-like language and emits navm stack bytecode.
//
// Pipeline: source → Lexer (TokenSource) → Analyzer → bytecode.Program
//
// There is no syntax tree. Expressions go through an operator-precedence
// engine, statements through a recursive analyzer that back-patches
// forward branches as their targets become known.
package compiler

import "github.com/tliron/commonlog"

var log = commonlog.GetLogger("c0c.compiler")
