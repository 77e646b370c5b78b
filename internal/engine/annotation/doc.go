// Package annotation holds the artifact bundle produced by analysis
// passes and gates its replacement on pass identity.
//
// The store always exposes a complete [Bundle]. Resetting for a new
// pass swaps in sentinel artifacts (no tokens, no tree, no
// diagnostics) so readers between an edit and the pass completion see
// a coherent empty state instead of stale results. Publication is
// gated: only the span recorded by the most recent Reset may publish,
// and only once. A pass that lost the race observes the refusal and
// walks away.
//
// Reads are lock-free. The bundle pointer is swapped atomically and
// bundles are immutable once published.
package annotation
