// Package ast defines the lightweight syntax tree produced by the parser.
// The tree is statement-level: it records statement structure, spans and
// nesting, not full expression grammar. That is all downstream consumers
// of a published pass need.
package ast

import "github.com/chargen/poshtools/internal/syntax/token"

// Node is implemented by every element of the tree.
type Node interface {
	// Span returns the source extent of the node.
	Span() token.Span
}

// Script is the root of a parsed source text.
type Script struct {
	// Extent covers the whole source text.
	Extent token.Span

	// Body holds the top-level statements in source order.
	Body []Stmt
}

// Span returns the script extent.
func (s *Script) Span() token.Span { return s.Extent }

// Stmt is implemented by all statement nodes.
type Stmt interface {
	Node
	stmt()
}

// AssignStmt is an assignment such as `$x = 1` or `$x += $y`.
type AssignStmt struct {
	Extent token.Span

	// Name is the target variable token.
	Name token.Token

	// Op is the assignment operator token.
	Op token.Token

	// Value holds the right-hand-side tokens. Empty when the assignment
	// is incomplete; the parser then reports ExpectedValueExpression.
	Value []token.Token
}

// Span returns the statement extent.
func (s *AssignStmt) Span() token.Span { return s.Extent }

func (s *AssignStmt) stmt() {}

// CommandStmt is a command invocation such as `Get-ChildItem -Path $p`.
type CommandStmt struct {
	Extent token.Span

	// Name is the command token.
	Name token.Token

	// Args holds parameter and argument tokens in source order.
	Args []token.Token
}

// Span returns the statement extent.
func (s *CommandStmt) Span() token.Span { return s.Extent }

func (s *CommandStmt) stmt() {}

// ExprStmt is a bare expression statement such as `1 + 2` or `"hi"`.
type ExprStmt struct {
	Extent token.Span

	// Tokens holds the expression tokens in source order.
	Tokens []token.Token
}

// Span returns the statement extent.
func (s *ExprStmt) Span() token.Span { return s.Extent }

func (s *ExprStmt) stmt() {}

// FunctionDecl is a function or filter definition.
type FunctionDecl struct {
	Extent token.Span

	// Keyword is the introducing `function` or `filter` token.
	Keyword token.Token

	// Name is the function name token. Zero-valued when the name is
	// missing; the parser then reports MissingNameAfterKeyword.
	Name token.Token

	// Body is the function body block, nil when missing.
	Body *BlockStmt
}

// Span returns the declaration extent.
func (s *FunctionDecl) Span() token.Span { return s.Extent }

func (s *FunctionDecl) stmt() {}

// BlockStmt is a `{ ... }` statement block.
type BlockStmt struct {
	Extent token.Span

	// Open is the opening brace span.
	Open token.Span

	// Close is the closing brace span. Zero-valued when the brace is
	// missing; the parser then reports MissingEndCurlyBrace.
	Close token.Span

	// Body holds the nested statements.
	Body []Stmt
}

// Span returns the block extent.
func (s *BlockStmt) Span() token.Span { return s.Extent }

func (s *BlockStmt) stmt() {}

// Closed reports whether the block has a closing brace.
func (s *BlockStmt) Closed() bool { return !s.Close.Empty() }

// KeywordStmt is a keyword-introduced construct such as if, while,
// foreach, switch, try or param, with its attached blocks.
type KeywordStmt struct {
	Extent token.Span

	// Keyword is the introducing keyword token.
	Keyword token.Token

	// Header holds the tokens between the keyword and the first block,
	// typically a parenthesized condition.
	Header []token.Token

	// Blocks holds the attached statement blocks in source order,
	// including blocks of chained clauses such as else and catch.
	Blocks []*BlockStmt
}

// Span returns the statement extent.
func (s *KeywordStmt) Span() token.Span { return s.Extent }

func (s *KeywordStmt) stmt() {}

// Inspect walks the tree rooted at n in depth-first order, calling f for
// each node. If f returns false for a node, its children are skipped.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	switch node := n.(type) {
	case *Script:
		for _, stmt := range node.Body {
			Inspect(stmt, f)
		}
	case *BlockStmt:
		for _, stmt := range node.Body {
			Inspect(stmt, f)
		}
	case *FunctionDecl:
		if node.Body != nil {
			Inspect(node.Body, f)
		}
	case *KeywordStmt:
		for _, block := range node.Blocks {
			Inspect(block, f)
		}
	}
}

// CountStatements returns the total number of statements in the tree,
// including nested ones. Used for logging and metrics.
func CountStatements(s *Script) int {
	if s == nil {
		return 0
	}
	count := 0
	Inspect(s, func(n Node) bool {
		if _, ok := n.(Stmt); ok {
			count++
		}
		return true
	})
	return count
}
