package parser

import (
	"fmt"

	"github.com/chargen/poshtools/internal/syntax/token"
)

// Stable parse error codes. The lexer's scan error codes pass through
// this package unchanged, so the full code space a pass can produce is
// the union of both sets.
const (
	// CodeExpectedValueExpression reports an assignment with no
	// right-hand side, as in `$x = `.
	CodeExpectedValueExpression = "ExpectedValueExpression"

	// CodeMissingEndCurlyBrace reports a statement block that is never
	// closed.
	CodeMissingEndCurlyBrace = "MissingEndCurlyBrace"

	// CodeMissingCloseParenInExpression reports an unclosed '('.
	CodeMissingCloseParenInExpression = "MissingCloseParenInExpression"

	// CodeMissingEndSquareBracket reports an unclosed '['.
	CodeMissingEndSquareBracket = "MissingEndSquareBracket"

	// CodeMissingNameAfterKeyword reports a function or filter
	// declaration without a name.
	CodeMissingNameAfterKeyword = "MissingNameAfterKeyword"

	// CodeMissingFunctionBody reports a function declaration without a
	// body block.
	CodeMissingFunctionBody = "MissingFunctionBody"

	// CodeEmptyPipeElement reports a pipeline with a missing element,
	// as in `Get-Item |`.
	CodeEmptyPipeElement = "EmptyPipeElement"

	// CodeUnexpectedToken is the catch-all for tokens that cannot start
	// or continue a statement.
	CodeUnexpectedToken = "UnexpectedToken"
)

// Error is a structured parse error. Parse errors are data, not Go
// errors: an analysis pass always completes and reports them as
// diagnostics.
type Error struct {
	// Span locates the offending source text.
	Span token.Span

	// Code is the stable error identifier.
	Code string

	// Message is the human-readable description.
	Message string

	// Notes carries supplementary hints. Only the deep parse fills it.
	Notes []string
}

// String formats the error for logs.
func (e Error) String() string {
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Span)
}
