// Package token defines the lexical token model shared by the lexer,
// parser, classifier and structure resolver. Offsets are byte positions
// within a single text snapshot and are therefore only meaningful together
// with the snapshot they were produced from.
package token

import "fmt"

// Span is a half-open byte range [Start, End) within one snapshot.
type Span struct {
	// Start is the inclusive start offset in bytes.
	Start uint32

	// End is the exclusive end offset in bytes.
	End uint32
}

// NewSpan creates a span from start and end offsets.
func NewSpan(start, end uint32) Span {
	return Span{Start: start, End: end}
}

// Len returns the span length in bytes.
func (s Span) Len() uint32 {
	if s.End < s.Start {
		return 0
	}
	return s.End - s.Start
}

// Empty reports whether the span covers no bytes.
func (s Span) Empty() bool {
	return s.End <= s.Start
}

// Contains reports whether the offset lies within the span.
func (s Span) Contains(offset uint32) bool {
	return offset >= s.Start && offset < s.End
}

// Overlaps reports whether the two spans share at least one byte.
func (s Span) Overlaps(other Span) bool {
	return s.Start < other.End && other.Start < s.End
}

// Shift returns the span translated by base. Used when token-relative
// offsets are converted into buffer-absolute coordinates.
func (s Span) Shift(base uint32) Span {
	return Span{Start: s.Start + base, End: s.End + base}
}

// String returns the span as "start..end".
func (s Span) String() string {
	return fmt.Sprintf("%d..%d", s.Start, s.End)
}

// Token is a single lexical element of a script.
type Token struct {
	// Kind classifies the token.
	Kind Kind

	// Span locates the token in the source snapshot.
	Span Span

	// Text is the raw source text of the token.
	Text string
}

// String returns a compact debug representation.
func (t Token) String() string {
	return fmt.Sprintf("%s(%s)@%s", t.Kind, t.Text, t.Span)
}
