package analysis

import (
	"context"

	"github.com/chargen/poshtools/internal/diag"
	"github.com/chargen/poshtools/internal/syntax/classify"
	"github.com/chargen/poshtools/internal/syntax/parser"
	"github.com/chargen/poshtools/internal/syntax/structure"
	"github.com/chargen/poshtools/internal/syntax/token"
)

// Analyzer produces the token stream, tree, and fast error set for
// one text snapshot. The orchestrator treats it as opaque: a slow or
// stuck analyzer only delays its own pass's publication.
type Analyzer interface {
	Analyze(ctx context.Context, text string) parser.Result
}

// Classifier maps tokens to highlight spans. Implementations must be
// stateless per call so concurrent passes stay independent.
type Classifier interface {
	Classify(tokens []token.Token, base uint32) []classify.Span
}

// DiagnosticsResolver decides the diagnostics set for one snapshot
// given the fast parser's error set.
type DiagnosticsResolver interface {
	Resolve(ctx context.Context, text string, base uint32, fast []parser.Error) []diag.Diagnostic
}

// StructureResolver computes brace-match tables and foldable regions.
type StructureResolver interface {
	Resolve(text string, base uint32, tokens []token.Token) structure.Result
}

// fastAnalyzer is the default in-process analyzer.
type fastAnalyzer struct{}

func (fastAnalyzer) Analyze(_ context.Context, text string) parser.Result {
	return parser.Parse(text)
}
