// Package tracking provides the span handles that tie analysis passes
// to the buffer state they were started against.
//
// Every buffer edit mints a fresh [Span] over the new content. The
// span is the pass's claim ticket: background work carries it along,
// and results are only accepted while the span is still the current
// one. Spans are compared by pointer identity, never by value, so two
// spans over identical text are still distinct claims.
//
// # Usage
//
// Mint a span from a buffer snapshot and hand it to the pipeline:
//
//	span := tracking.NewSpan(buf.Snapshot())
//
//	// Later, in the background pass:
//	text := span.Text()
//
// A span also resolves against a newer snapshot, clamping to the
// current buffer bounds:
//
//	r := span.Resolve(buf.Snapshot())
package tracking
