// Package parser turns a token stream into the lightweight syntax tree
// and the structured parse errors of one analysis pass. Two entry points
// share one grammar: Parse is the fast in-process variant run on every
// keystroke, ParseDeep adds the slower validation passes and richer
// messages and is what the out-of-process parser peer serves.
package parser

import (
	"fmt"

	"fortio.org/safecast"

	"github.com/chargen/poshtools/internal/syntax/ast"
	"github.com/chargen/poshtools/internal/syntax/lexer"
	"github.com/chargen/poshtools/internal/syntax/token"
)

// Result is the complete output of one parse: the token stream, the
// tree and the structured errors, all derived from the same text.
type Result struct {
	// Tokens is the full token stream, including comments, newlines
	// and error tokens.
	Tokens []token.Token

	// Tree is the statement-level syntax tree. Never nil, even for
	// empty or unparseable input.
	Tree *ast.Script

	// Errors holds scan and parse errors in source order.
	Errors []Error
}

// HasErrors reports whether the parse produced any error.
func (r Result) HasErrors() bool { return len(r.Errors) > 0 }

// Parse runs the fast parse over src.
func Parse(src string) Result {
	return parse(src)
}

// assignOps are the operators that make a leading variable an
// assignment statement.
var assignOps = map[string]struct{}{
	"=": {}, "+=": {}, "-=": {}, "*=": {}, "/=": {}, "%=": {},
}

// chainKeywords continue the preceding keyword statement when they
// directly follow its block, as in `} else {` and `} catch {`.
var chainKeywords = map[string]struct{}{
	"else": {}, "elseif": {}, "catch": {}, "finally": {}, "while": {}, "until": {},
}

// bareKeywords take an expression rather than a block, as in
// `return $x` and `throw "boom"`.
var bareKeywords = map[string]struct{}{
	"return": {}, "throw": {}, "break": {}, "continue": {}, "exit": {}, "using": {}, "from": {},
}

type parser struct {
	src    string
	tokens []token.Token
	pos    int
	errs   []Error
}

func parse(src string) Result {
	tokens, scanErrs := lexer.Scan(src)

	p := &parser{src: src, tokens: tokens}
	for _, se := range scanErrs {
		p.errs = append(p.errs, Error{Span: se.Span, Code: se.Code, Message: se.Message})
	}

	var body []ast.Stmt
	for {
		body = append(body, p.parseStatements()...)
		if p.atEnd() {
			break
		}
		// A stray closing brace at the top level; report it and keep
		// parsing the statements after it.
		tok := p.next()
		p.errorf(tok.Span, CodeUnexpectedToken,
			"Unexpected token '%s' in expression or statement.", tok.Text)
	}

	extent, err := safecast.Conv[uint32](len(src))
	if err != nil {
		extent = 0
	}
	tree := &ast.Script{
		Extent: token.NewSpan(0, extent),
		Body:   body,
	}
	return Result{Tokens: tokens, Tree: tree, Errors: p.errs}
}

// parseStatements consumes statements until the end of input or until a
// closing brace at this nesting level. The brace is not consumed; the
// enclosing block parse owns it.
func (p *parser) parseStatements() []ast.Stmt {
	var body []ast.Stmt
	for {
		p.skipTrivia()
		if p.atEnd() || p.peek().Kind == token.KindRBrace {
			return body
		}
		stmt := p.parseStatement()
		if stmt != nil {
			body = append(body, stmt)
		}
	}
}

func (p *parser) parseStatement() ast.Stmt {
	tok := p.peek()
	switch tok.Kind {
	case token.KindKeyword:
		return p.parseKeywordStatement()
	case token.KindVariable:
		return p.parseVariableStatement()
	case token.KindLBrace:
		return p.parseBlock()
	case token.KindCommand:
		return p.parseCommand()
	default:
		return p.parseExpression()
	}
}

// parseVariableStatement disambiguates assignments from expression
// statements that merely start with a variable.
func (p *parser) parseVariableStatement() ast.Stmt {
	name := p.next()
	if op, ok := p.peekAssignOp(); ok {
		p.next()
		value := p.gather()
		extent := token.NewSpan(name.Span.Start, op.Span.End)
		if len(value) > 0 {
			extent.End = value[len(value)-1].Span.End
		} else {
			p.errorf(token.NewSpan(name.Span.Start, op.Span.End),
				CodeExpectedValueExpression,
				"You must provide a value expression following the '%s' operator.", op.Text)
		}
		return &ast.AssignStmt{Extent: extent, Name: name, Op: op, Value: value}
	}

	rest := p.gather()
	extent := name.Span
	if len(rest) > 0 {
		extent.End = rest[len(rest)-1].Span.End
	}
	return &ast.ExprStmt{Extent: extent, Tokens: append([]token.Token{name}, rest...)}
}

func (p *parser) peekAssignOp() (token.Token, bool) {
	tok := p.peek()
	if tok.Kind != token.KindOperator {
		return token.Token{}, false
	}
	if _, ok := assignOps[tok.Text]; !ok {
		return token.Token{}, false
	}
	return tok, true
}

func (p *parser) parseCommand() ast.Stmt {
	name := p.next()
	args := p.gather()
	extent := name.Span
	if len(args) > 0 {
		extent.End = args[len(args)-1].Span.End
	}
	return &ast.CommandStmt{Extent: extent, Name: name, Args: args}
}

func (p *parser) parseExpression() ast.Stmt {
	start := p.peek()
	tokens := p.gather()
	if len(tokens) == 0 {
		// gather refused the leading token; consume it as unexpected.
		tok := p.next()
		p.errorf(tok.Span, CodeUnexpectedToken,
			"Unexpected token '%s' in expression or statement.", tok.Text)
		return nil
	}
	extent := token.NewSpan(start.Span.Start, tokens[len(tokens)-1].Span.End)
	return &ast.ExprStmt{Extent: extent, Tokens: tokens}
}

// parseKeywordStatement handles function declarations, bare keyword
// statements and block-attached keyword constructs.
func (p *parser) parseKeywordStatement() ast.Stmt {
	keyword := p.next()
	lowered := lowerASCII(keyword.Text)

	switch lowered {
	case "function", "filter", "workflow":
		return p.parseFunction(keyword)
	}

	if _, ok := bareKeywords[lowered]; ok {
		header := p.gather()
		extent := keyword.Span
		if len(header) > 0 {
			extent.End = header[len(header)-1].Span.End
		}
		return &ast.KeywordStmt{Extent: extent, Keyword: keyword, Header: header}
	}

	stmt := &ast.KeywordStmt{Extent: keyword.Span, Keyword: keyword}
	p.parseClause(stmt)
	for p.chainContinues() {
		chained := p.next()
		stmt.Header = append(stmt.Header, chained)
		p.parseClause(stmt)
	}
	return stmt
}

// parseClause gathers one header segment and, when present, its block.
func (p *parser) parseClause(stmt *ast.KeywordStmt) {
	header := p.gatherUntilBlock()
	stmt.Header = append(stmt.Header, header...)
	if len(header) > 0 {
		stmt.Extent.End = header[len(header)-1].Span.End
	}
	if !p.atEnd() && p.peek().Kind == token.KindLBrace {
		block := p.parseBlock()
		stmt.Blocks = append(stmt.Blocks, block)
		stmt.Extent.End = block.Extent.End
	}
}

// chainContinues reports whether the next token chains the current
// keyword statement. Chaining requires direct adjacency: a separator
// between the block and the keyword starts a new statement instead.
func (p *parser) chainContinues() bool {
	tok, ok := p.peekRaw()
	if !ok || tok.Kind != token.KindKeyword {
		return false
	}
	_, chains := chainKeywords[lowerASCII(tok.Text)]
	return chains
}

func (p *parser) parseFunction(keyword token.Token) ast.Stmt {
	decl := &ast.FunctionDecl{Extent: keyword.Span, Keyword: keyword}

	name := p.peek()
	if p.atEnd() || (name.Kind != token.KindCommand && name.Kind != token.KindArgument) {
		p.errorf(keyword.Span, CodeMissingNameAfterKeyword,
			"Missing name after '%s' keyword.", keyword.Text)
		return decl
	}
	p.next()
	decl.Name = name
	decl.Extent.End = name.Span.End

	// Optional parameter list: function Name($a, $b) { .. }
	if !p.atEnd() && p.peek().Kind == token.KindLParen {
		params := p.gatherUntilBlock()
		if len(params) > 0 {
			decl.Extent.End = params[len(params)-1].Span.End
		}
	}

	p.skipTrivia()
	if p.atEnd() || p.peek().Kind != token.KindLBrace {
		p.errorf(token.NewSpan(keyword.Span.Start, decl.Extent.End),
			CodeMissingFunctionBody,
			"Missing function body in function declaration.")
		return decl
	}

	decl.Body = p.parseBlock()
	decl.Extent.End = decl.Body.Extent.End
	return decl
}

// parseBlock consumes a `{ ... }` statement block. The caller has
// verified the leading brace.
func (p *parser) parseBlock() *ast.BlockStmt {
	open := p.next()
	block := &ast.BlockStmt{
		Extent: open.Span,
		Open:   open.Span,
	}

	block.Body = p.parseStatements()

	if !p.atEnd() && p.peek().Kind == token.KindRBrace {
		closing := p.next()
		block.Close = closing.Span
		block.Extent.End = closing.Span.End
		return block
	}

	p.errorf(open.Span, CodeMissingEndCurlyBrace,
		"Missing closing '}' in statement block.")
	if n := len(block.Body); n > 0 {
		block.Extent.End = block.Body[n-1].Span().End
	}
	return block
}

// gather collects tokens until a statement separator at nesting depth
// zero. Nested brackets keep the statement open across newlines, so
// multi-line array and hashtable literals stay one statement. Unclosed
// brackets are reported against their opening token.
func (p *parser) gather() []token.Token {
	return p.gatherStopped(false)
}

// gatherUntilBlock is gather with an additional stop at a top-level
// opening brace, which the caller then parses as a statement block.
func (p *parser) gatherUntilBlock() []token.Token {
	return p.gatherStopped(true)
}

func (p *parser) gatherStopped(stopAtBrace bool) []token.Token {
	var out []token.Token
	var opens []token.Token

	for !p.atEnd() {
		tok := p.peek()
		if len(opens) == 0 {
			if tok.Kind.IsSeparator() {
				break
			}
			if tok.Kind == token.KindRBrace {
				break
			}
			if stopAtBrace && tok.Kind == token.KindLBrace {
				break
			}
			if tok.Kind == token.KindRParen || tok.Kind == token.KindRBracket {
				// Belongs to an enclosing construct.
				break
			}
		}

		p.pos++
		if tok.Kind == token.KindComment {
			continue
		}
		out = append(out, tok)

		switch {
		case tok.Kind.IsOpenBracket():
			opens = append(opens, tok)
		case tok.Kind.IsCloseBracket():
			if len(opens) > 0 && token.Closing(opens[len(opens)-1].Kind) == tok.Kind {
				opens = opens[:len(opens)-1]
			}
		}
	}

	for _, open := range opens {
		switch open.Kind {
		case token.KindLParen:
			p.errorf(open.Span, CodeMissingCloseParenInExpression,
				"Missing closing ')' in expression.")
		case token.KindLBracket:
			p.errorf(open.Span, CodeMissingEndSquareBracket,
				"Missing closing ']' after array index expression.")
		case token.KindLBrace:
			p.errorf(open.Span, CodeMissingEndCurlyBrace,
				"Missing closing '}' in statement block.")
		}
	}
	return out
}

// skipTrivia advances past separators and comments between statements.
func (p *parser) skipTrivia() {
	for !p.atEnd() {
		k := p.tokens[p.pos].Kind
		if k.IsSeparator() || k == token.KindComment {
			p.pos++
			continue
		}
		return
	}
}

// peek returns the next token, skipping comments but not separators.
func (p *parser) peek() token.Token {
	for i := p.pos; i < len(p.tokens); i++ {
		if p.tokens[i].Kind == token.KindComment {
			continue
		}
		return p.tokens[i]
	}
	return token.Token{}
}

// peekRaw returns the next token without skipping anything, reporting
// whether one exists. Used for adjacency-sensitive decisions.
func (p *parser) peekRaw() (token.Token, bool) {
	if p.pos >= len(p.tokens) {
		return token.Token{}, false
	}
	return p.tokens[p.pos], true
}

// next consumes and returns the next non-comment token.
func (p *parser) next() token.Token {
	for p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]
		p.pos++
		if tok.Kind == token.KindComment {
			continue
		}
		return tok
	}
	return token.Token{}
}

func (p *parser) atEnd() bool {
	for i := p.pos; i < len(p.tokens); i++ {
		if p.tokens[i].Kind != token.KindComment {
			return false
		}
	}
	return true
}

func (p *parser) errorf(span token.Span, code, format string, args ...any) {
	p.errs = append(p.errs, Error{
		Span:    span,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	})
}

func lowerASCII(s string) string {
	hasUpper := false
	for i := 0; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' {
			hasUpper = true
			break
		}
	}
	if !hasUpper {
		return s
	}
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
