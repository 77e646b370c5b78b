// Package lexer implements the fast in-process tokenizer for PowerShell
// source text. It is the first stage of every analysis pass: a single
// forward scan that never backtracks more than one rune and produces the
// token stream the classifier, parser and structure resolver share.
//
// The lexer is deliberately tolerant. Malformed input produces error
// tokens plus structured scan errors; it never fails outright, because a
// buffer mid-edit is malformed most of the time.
package lexer

import (
	"strings"
	"unicode/utf8"

	"fortio.org/safecast"

	"github.com/chargen/poshtools/internal/syntax/token"
)

// Error codes produced by the lexer. The parser forwards them unchanged.
const (
	// CodeTerminatorExpectedAtEndOfString reports an unterminated
	// string or here-string literal.
	CodeTerminatorExpectedAtEndOfString = "TerminatorExpectedAtEndOfString"

	// CodeMissingTerminatorMultiLineComment reports an unterminated
	// <# .. #> comment.
	CodeMissingTerminatorMultiLineComment = "MissingTerminatorMultiLineComment"

	// CodeMissingEndCurlyBraceInVariable reports a ${..} variable
	// reference without its closing brace.
	CodeMissingEndCurlyBraceInVariable = "MissingEndCurlyBraceInVariable"

	// CodeSourceTooLarge reports input beyond the addressable span range.
	CodeSourceTooLarge = "SourceTooLarge"
)

// Error is a structured scan error anchored to a source span.
type Error struct {
	// Span locates the offending source text.
	Span token.Span

	// Code is the stable error identifier.
	Code string

	// Message is the human-readable description.
	Message string
}

// keywords are the reserved words recognized in statement position.
var keywords = map[string]struct{}{
	"begin": {}, "break": {}, "catch": {}, "class": {}, "continue": {},
	"data": {}, "do": {}, "dynamicparam": {}, "else": {}, "elseif": {},
	"end": {}, "enum": {}, "exit": {}, "filter": {}, "finally": {},
	"for": {}, "foreach": {}, "from": {}, "function": {}, "hidden": {},
	"if": {}, "param": {}, "process": {}, "return": {}, "static": {},
	"switch": {}, "throw": {}, "trap": {}, "try": {}, "until": {},
	"using": {}, "while": {}, "workflow": {},
}

// dashOperators are the -word comparison and logical operators.
var dashOperators = map[string]struct{}{
	"eq": {}, "ne": {}, "gt": {}, "ge": {}, "lt": {}, "le": {},
	"like": {}, "notlike": {}, "match": {}, "notmatch": {},
	"replace": {}, "creplace": {}, "contains": {}, "notcontains": {},
	"in": {}, "notin": {}, "and": {}, "or": {}, "xor": {}, "not": {},
	"band": {}, "bor": {}, "bxor": {}, "bnot": {}, "shl": {}, "shr": {},
	"is": {}, "isnot": {}, "as": {}, "f": {}, "join": {}, "split": {},
	"ceq": {}, "cne": {}, "ieq": {}, "ine": {},
}

// lexer holds the scan state for one input.
type lexer struct {
	src    string
	off    int
	tokens []token.Token
	errs   []Error

	// cmdPos is true when the next bare word is in command position.
	cmdPos bool
}

// Scan tokenizes src and returns the token stream together with any scan
// errors. The stream excludes whitespace but includes newline separator
// tokens, comments and error tokens, so consumers see the full text
// structure.
func Scan(src string) ([]token.Token, []Error) {
	if _, err := safecast.Conv[uint32](len(src)); err != nil {
		return nil, []Error{{
			Span:    token.NewSpan(0, 0),
			Code:    CodeSourceTooLarge,
			Message: "source text exceeds the maximum analyzable size",
		}}
	}

	lx := &lexer{src: src, cmdPos: true}
	lx.run()
	return lx.tokens, lx.errs
}

func (lx *lexer) run() {
	for lx.off < len(lx.src) {
		c := lx.src[lx.off]
		switch {
		case c == '\n':
			lx.emit(token.KindNewline, lx.off, lx.off+1)
			lx.off++
			lx.cmdPos = true
		case c == ' ' || c == '\t' || c == '\r':
			lx.off++
		case c == '`':
			lx.scanBacktick()
		case c == '#':
			lx.scanLineComment()
		case c == '<' && lx.peekAt(1) == '#':
			lx.scanBlockComment()
		case c == '$':
			lx.scanVariable()
		case c == '\'':
			lx.scanString(lx.off, '\'', token.KindString)
		case c == '"':
			lx.scanString(lx.off, '"', token.KindStringExpandable)
		case c == '@' && (lx.peekAt(1) == '\'' || lx.peekAt(1) == '"'):
			lx.scanHereString()
		case c >= '0' && c <= '9':
			lx.scanNumber(lx.off)
		case c == ';':
			lx.emit(token.KindSemicolon, lx.off, lx.off+1)
			lx.off++
			lx.cmdPos = true
		case c == '{':
			lx.emitBracket(token.KindLBrace)
		case c == '}':
			lx.emitBracket(token.KindRBrace)
		case c == '(':
			lx.emitBracket(token.KindLParen)
		case c == ')':
			lx.emitBracket(token.KindRParen)
		case c == '[':
			lx.emitBracket(token.KindLBracket)
		case c == ']':
			lx.emitBracket(token.KindRBracket)
		case c == '-':
			lx.scanDash()
		case isOperatorStart(c):
			lx.scanOperator()
		default:
			lx.scanWord()
		}
	}
}

// scanBacktick handles the escape character outside of strings. A
// backtick before a line break is a line continuation: both characters
// vanish and the statement continues. Anywhere else the backtick glues
// into a bare word.
func (lx *lexer) scanBacktick() {
	if lx.peekAt(1) == '\n' {
		lx.off += 2
		return
	}
	if lx.peekAt(1) == '\r' && lx.peekAt(2) == '\n' {
		lx.off += 3
		return
	}
	lx.scanWord()
}

func (lx *lexer) scanLineComment() {
	start := lx.off
	for lx.off < len(lx.src) && lx.src[lx.off] != '\n' {
		lx.off++
	}
	lx.emit(token.KindComment, start, lx.off)
}

func (lx *lexer) scanBlockComment() {
	start := lx.off
	lx.off += 2
	end := strings.Index(lx.src[lx.off:], "#>")
	if end < 0 {
		lx.off = len(lx.src)
		lx.emit(token.KindError, start, lx.off)
		lx.addError(start, lx.off, CodeMissingTerminatorMultiLineComment,
			"Missing closing '#>' in multi-line comment.")
		return
	}
	lx.off += end + 2
	lx.emit(token.KindComment, start, lx.off)
}

// scanVariable handles $name, ${braced}, $scope:name and the one-symbol
// automatic variables such as $$, $? and $^.
func (lx *lexer) scanVariable() {
	start := lx.off
	lx.off++
	if lx.off >= len(lx.src) {
		lx.emit(token.KindVariable, start, lx.off)
		lx.cmdPos = false
		return
	}

	switch c := lx.src[lx.off]; {
	case c == '{':
		end := strings.IndexByte(lx.src[lx.off:], '}')
		if end < 0 {
			lx.off = len(lx.src)
			lx.emit(token.KindError, start, lx.off)
			lx.addError(start, lx.off, CodeMissingEndCurlyBraceInVariable,
				"Missing closing '}' in variable expression.")
			return
		}
		lx.off += end + 1
	case c == '$' || c == '?' || c == '^':
		lx.off++
	default:
		for lx.off < len(lx.src) && isVariableChar(lx.src[lx.off]) {
			lx.off++
		}
		// Scope qualifier such as $global:name or $env:PATH.
		if lx.off < len(lx.src) && lx.src[lx.off] == ':' &&
			lx.off+1 < len(lx.src) && isVariableChar(lx.src[lx.off+1]) {
			lx.off++
			for lx.off < len(lx.src) && isVariableChar(lx.src[lx.off]) {
				lx.off++
			}
		}
	}
	lx.emit(token.KindVariable, start, lx.off)
	lx.cmdPos = false
}

// scanString handles quoted strings. PowerShell strings may span lines.
// Single-quoted strings escape the quote by doubling it; double-quoted
// strings additionally honor backtick escapes.
func (lx *lexer) scanString(start int, quote byte, kind token.Kind) {
	lx.off = start + 1
	for lx.off < len(lx.src) {
		c := lx.src[lx.off]
		if c == '`' && quote == '"' && lx.off+1 < len(lx.src) {
			lx.off += 2
			continue
		}
		if c == quote {
			if lx.peekAt(1) == quote {
				lx.off += 2
				continue
			}
			lx.off++
			lx.emit(kind, start, lx.off)
			lx.cmdPos = false
			return
		}
		lx.off++
	}
	lx.emit(token.KindError, start, lx.off)
	lx.addError(start, lx.off, CodeTerminatorExpectedAtEndOfString,
		"The string is missing the terminator: "+string(quote)+".")
}

// scanHereString handles @'..'@ and @".."@ literals. The terminator must
// appear at the start of a line.
func (lx *lexer) scanHereString() {
	start := lx.off
	quote := lx.src[lx.off+1]
	lx.off += 2

	terminator := "\n" + string(quote) + "@"
	end := strings.Index(lx.src[lx.off:], terminator)
	if end < 0 {
		lx.off = len(lx.src)
		lx.emit(token.KindError, start, lx.off)
		lx.addError(start, lx.off, CodeTerminatorExpectedAtEndOfString,
			"The here-string is missing the terminator: "+string(quote)+"@.")
		return
	}
	lx.off += end + len(terminator)
	lx.emit(token.KindHereString, start, lx.off)
	lx.cmdPos = false
}

// scanNumber handles integer, float, hex and unit-suffixed literals.
func (lx *lexer) scanNumber(start int) {
	lx.off = start
	if lx.src[lx.off] == '-' {
		lx.off++
	}
	if lx.off+1 < len(lx.src) && lx.src[lx.off] == '0' &&
		(lx.src[lx.off+1] == 'x' || lx.src[lx.off+1] == 'X') {
		lx.off += 2
		for lx.off < len(lx.src) && isHexDigit(lx.src[lx.off]) {
			lx.off++
		}
	} else {
		for lx.off < len(lx.src) && isDigit(lx.src[lx.off]) {
			lx.off++
		}
		if lx.off < len(lx.src) && lx.src[lx.off] == '.' && isDigit(lx.peekAt(1)) {
			lx.off++
			for lx.off < len(lx.src) && isDigit(lx.src[lx.off]) {
				lx.off++
			}
		}
		if lx.off < len(lx.src) && (lx.src[lx.off] == 'e' || lx.src[lx.off] == 'E') &&
			(isDigit(lx.peekAt(1)) || (lx.peekAt(1) == '-' && isDigit(lx.peekAt(2)))) {
			lx.off += 2
			for lx.off < len(lx.src) && isDigit(lx.src[lx.off]) {
				lx.off++
			}
		}
	}
	// Unit suffix: 4kb, 2mb, 1gb, 8tb, 1pb, and the long/decimal marks.
	if lx.off+1 < len(lx.src) {
		suffix := strings.ToLower(lx.src[lx.off : lx.off+2])
		switch suffix {
		case "kb", "mb", "gb", "tb", "pb":
			lx.off += 2
		}
	}
	if lx.off < len(lx.src) && (lx.src[lx.off] == 'l' || lx.src[lx.off] == 'L' ||
		lx.src[lx.off] == 'd' || lx.src[lx.off] == 'D') {
		lx.off++
	}
	lx.emit(token.KindNumber, start, lx.off)
	lx.cmdPos = false
}

// scanDash distinguishes -word operators, -Parameter names and negative
// numbers from the bare minus operator.
func (lx *lexer) scanDash() {
	start := lx.off
	next := lx.peekAt(1)
	switch {
	case isDigit(next) && !lx.cmdPos && lx.lastKind() == token.KindOperator:
		lx.scanNumber(start)
		return
	case next == '-':
		lx.emitOperator(start, start+2)
	case next == '=':
		lx.emitOperator(start, start+2)
	case isWordStart(next):
		end := start + 1
		for end < len(lx.src) && isWordChar(lx.src[end]) {
			end++
		}
		word := strings.ToLower(lx.src[start+1 : end])
		lx.off = end
		if _, ok := dashOperators[word]; ok {
			lx.emit(token.KindOperator, start, end)
			lx.cmdPos = false
			return
		}
		lx.emit(token.KindParameter, start, end)
		lx.cmdPos = false
		return
	default:
		lx.emitOperator(start, start+1)
	}
}

// operatorRunes are single characters that begin a symbolic operator.
func isOperatorStart(c byte) bool {
	switch c {
	case '=', '+', '*', '/', '%', '!', '|', '&', '<', '>', ',', '.', ':', '?', '@':
		return true
	}
	return false
}

// multiOperators lists the multi-character operators, longest first.
// == and != are not valid PowerShell comparison operators but are
// lexed whole so the deep parser can point at them precisely.
var multiOperators = []string{
	"==", "!=", "+=", "*=", "/=", "%=", "++", ">>", "&&", "||", "..", "::", "|",
}

func (lx *lexer) scanOperator() {
	start := lx.off
	rest := lx.src[start:]
	for _, op := range multiOperators {
		if strings.HasPrefix(rest, op) {
			lx.emitOperator(start, start+len(op))
			if op == "|" || op == "&&" || op == "||" {
				lx.cmdPos = true
			}
			return
		}
	}
	if rest[0] == '&' {
		// Call operator: the following word is a command.
		lx.emitOperator(start, start+1)
		lx.cmdPos = true
		return
	}
	lx.emitOperator(start, start+1)
}

// scanWord handles bare words: commands, arguments and keywords.
func (lx *lexer) scanWord() {
	start := lx.off
	for lx.off < len(lx.src) && isWordChar(lx.src[lx.off]) {
		lx.off++
	}
	if lx.off == start {
		// Unrecognized byte; consume one rune so the scan advances.
		_, size := utf8.DecodeRuneInString(lx.src[lx.off:])
		lx.off += size
		lx.emit(token.KindError, start, lx.off)
		return
	}

	word := strings.ToLower(lx.src[start:lx.off])
	switch {
	case lx.cmdPos && isKeyword(word):
		lx.emit(token.KindKeyword, start, lx.off)
		// Keywords such as return and throw are followed by a fresh
		// command position.
		lx.cmdPos = true
	case word == "in":
		lx.emit(token.KindKeyword, start, lx.off)
		lx.cmdPos = false
	case lx.cmdPos:
		lx.emit(token.KindCommand, start, lx.off)
		lx.cmdPos = false
	default:
		lx.emit(token.KindArgument, start, lx.off)
		lx.cmdPos = false
	}
}

func isKeyword(word string) bool {
	_, ok := keywords[word]
	return ok
}

func (lx *lexer) emitBracket(kind token.Kind) {
	lx.emit(kind, lx.off, lx.off+1)
	lx.off++
	switch kind {
	case token.KindLBrace, token.KindLParen, token.KindRBrace:
		// After a closing brace a statement keyword may follow, as in
		// `} else {`.
		lx.cmdPos = true
	default:
		lx.cmdPos = false
	}
}

func (lx *lexer) emitOperator(start, end int) {
	lx.off = end
	lx.emit(token.KindOperator, start, end)
	lx.cmdPos = false
}

func (lx *lexer) emit(kind token.Kind, start, end int) {
	lx.tokens = append(lx.tokens, token.Token{
		Kind: kind,
		Span: token.NewSpan(uint32(start), uint32(end)),
		Text: lx.src[start:end],
	})
}

func (lx *lexer) addError(start, end int, code, message string) {
	lx.errs = append(lx.errs, Error{
		Span:    token.NewSpan(uint32(start), uint32(end)),
		Code:    code,
		Message: message,
	})
}

// lastKind returns the kind of the most recent non-trivia token, or
// KindInvalid when there is none. Used to disambiguate negative numbers.
func (lx *lexer) lastKind() token.Kind {
	for i := len(lx.tokens) - 1; i >= 0; i-- {
		k := lx.tokens[i].Kind
		if k == token.KindComment || k == token.KindNewline {
			continue
		}
		return k
	}
	return token.KindInvalid
}

func (lx *lexer) peekAt(n int) byte {
	if lx.off+n >= len(lx.src) {
		return 0
	}
	return lx.src[lx.off+n]
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isVariableChar(c byte) bool {
	return c == '_' || isDigit(c) ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isWordStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// isWordChar covers command and argument characters, including path
// separators and drive colons so bare paths stay one token.
func isWordChar(c byte) bool {
	switch {
	case isVariableChar(c):
		return true
	case c == '-' || c == '.' || c == '\\' || c == '/' || c == '~' || c == '+' || c == '`':
		return true
	case c >= utf8.RuneSelf:
		// Multibyte runes: letters from any script are word characters.
		return true
	}
	return false
}

