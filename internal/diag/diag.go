// Package diag defines the diagnostic model shared by the analysis
// pipeline, the error tagger, and the CLI reporters.
package diag

import (
	"fmt"

	"github.com/chargen/poshtools/internal/syntax/parser"
	"github.com/chargen/poshtools/internal/syntax/token"
)

// Severity ranks a diagnostic.
type Severity uint8

const (
	// SeverityError marks source the engine could not accept.
	SeverityError Severity = iota

	// SeverityWarning marks suspicious but accepted source.
	SeverityWarning

	// SeverityHint marks stylistic advice.
	SeverityHint
)

// String returns the severity name.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityHint:
		return "hint"
	default:
		return "unknown"
	}
}

// Diagnostic is one reportable finding anchored to a source span.
type Diagnostic struct {
	// Severity ranks the finding.
	Severity Severity

	// Code is the stable identifier, e.g. "MissingEndCurlyBrace".
	Code string

	// Message is the human-readable description.
	Message string

	// Span locates the finding in buffer-absolute coordinates.
	Span token.Span

	// Notes carries optional follow-up lines shown under the message.
	Notes []string
}

// String renders the diagnostic on one line.
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s %s: %s [%s]", d.Span, d.Severity, d.Message, d.Code)
}

// FromParseError converts one parse error into a diagnostic. base
// translates the parser's snapshot-relative span into buffer-absolute
// coordinates.
func FromParseError(err parser.Error, base uint32) Diagnostic {
	return Diagnostic{
		Severity: SeverityError,
		Code:     err.Code,
		Message:  err.Message,
		Span:     err.Span.Shift(base),
		Notes:    err.Notes,
	}
}

// FromParseErrors converts a parse error slice, preserving order.
func FromParseErrors(errs []parser.Error, base uint32) []Diagnostic {
	if len(errs) == 0 {
		return nil
	}
	out := make([]Diagnostic, len(errs))
	for i, err := range errs {
		out[i] = FromParseError(err, base)
	}
	return out
}

// CountBySeverity tallies diagnostics per severity.
func CountBySeverity(diags []Diagnostic) (errors, warnings, hints int) {
	for _, d := range diags {
		switch d.Severity {
		case SeverityError:
			errors++
		case SeverityWarning:
			warnings++
		default:
			hints++
		}
	}
	return errors, warnings, hints
}
