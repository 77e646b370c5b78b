package analysis

import (
	"github.com/chargen/poshtools/internal/diag"
	"github.com/chargen/poshtools/internal/syntax/classify"
	"github.com/chargen/poshtools/internal/syntax/structure"
)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithAnalyzer replaces the in-process parser.
func WithAnalyzer(a Analyzer) Option {
	return func(o *Orchestrator) {
		if a != nil {
			o.analyzer = a
		}
	}
}

// WithClassifier replaces the classification rule-set.
func WithClassifier(c Classifier) Option {
	return func(o *Orchestrator) {
		if c != nil {
			o.classifier = c
		}
	}
}

// WithDiagnosticsResolver replaces the diagnostics policy.
func WithDiagnosticsResolver(r DiagnosticsResolver) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.diagnostics = r
		}
	}
}

// WithStructureResolver replaces the structure resolver.
func WithStructureResolver(r StructureResolver) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.structure = r
		}
	}
}

// WithPool uses a shared worker pool instead of a private one. The
// caller starts and stops the shared pool.
func WithPool(p *Pool) Option {
	return func(o *Orchestrator) {
		if p != nil {
			o.pool = p
			o.ownPool = false
		}
	}
}

// WithCompletionHandler appends a completion observer. Handlers run
// in registration order.
func WithCompletionHandler(h CompletionHandler) Option {
	return func(o *Orchestrator) {
		if h != nil {
			o.handlers = append(o.handlers, h)
		}
	}
}

func classifierDefault() Classifier {
	return classify.NewRules()
}

func diagnosticsDefault() DiagnosticsResolver {
	return diag.NewResolver(nil)
}

func structureDefault() StructureResolver {
	return structure.NewResolver()
}
