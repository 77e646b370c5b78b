package diag

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/chargen/poshtools/internal/syntax/parser"
)

// DeepParser runs the richer out-of-process analysis and returns its
// error set. Implementations are expected to be slow relative to the
// in-process parser and are only consulted when the fast pass already
// found problems.
type DeepParser interface {
	Errors(ctx context.Context, text string) ([]parser.Error, error)
}

// Resolver decides the diagnostics set for one analysis pass.
//
// A clean fast parse yields no diagnostics and never consults the deep
// parser. A dirty fast parse prefers the deep parser's richer set and
// falls back to the fast errors when the deep parser is unavailable or
// fails.
type Resolver struct {
	deep DeepParser
}

// NewResolver returns a resolver backed by deep, which may be nil to
// run on fast errors alone.
func NewResolver(deep DeepParser) *Resolver {
	return &Resolver{deep: deep}
}

// Resolve produces the diagnostics for one snapshot. fast is the
// in-process parser's error set for the same snapshot; base translates
// snapshot-relative spans into buffer-absolute coordinates.
func (r *Resolver) Resolve(ctx context.Context, text string, base uint32, fast []parser.Error) []Diagnostic {
	if len(fast) == 0 {
		return nil
	}
	if r.deep == nil {
		return FromParseErrors(fast, base)
	}

	deepErrs, err := r.deep.Errors(ctx, text)
	if err != nil {
		zerolog.Ctx(ctx).Warn().
			Err(err).
			Int("fast_errors", len(fast)).
			Msg("deep parse unavailable, using fast errors")
		return FromParseErrors(fast, base)
	}
	return FromParseErrors(deepErrs, base)
}

// Fits reports whether the diagnostic still lies inside a buffer of
// the given length. Tag consumers drop diagnostics that no longer fit
// after the buffer shrank.
func (d Diagnostic) Fits(bufLen uint32) bool {
	return d.Span.End <= bufLen
}
