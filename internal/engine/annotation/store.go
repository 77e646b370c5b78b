package annotation

import (
	"sync"
	"sync/atomic"

	"github.com/chargen/poshtools/internal/diag"
	"github.com/chargen/poshtools/internal/engine/tracking"
	"github.com/chargen/poshtools/internal/syntax/ast"
	"github.com/chargen/poshtools/internal/syntax/classify"
	"github.com/chargen/poshtools/internal/syntax/structure"
	"github.com/chargen/poshtools/internal/syntax/token"
)

// Bundle is the complete artifact set of one analysis pass. A bundle
// is immutable once stored; readers share it freely.
type Bundle struct {
	// Tokens is the token stream in buffer-absolute coordinates.
	Tokens []token.Token

	// Tree is the parse tree. It is nil until the first pass over
	// non-empty content completes, and nil again for empty content.
	Tree *ast.Script

	// Classifications are the highlight spans derived from Tokens.
	Classifications []classify.Span

	// Diagnostics is the resolved diagnostics set.
	Diagnostics []diag.Diagnostic

	// Structure holds brace-match tables and foldable regions.
	Structure structure.Result

	// Revision is the buffer revision the artifacts describe. Zero
	// for the sentinel bundle.
	Revision tracking.RevisionID
}

// EmptyBundle returns a bundle describing empty content at the given
// revision: no tokens, no tree, no findings.
func EmptyBundle(rev tracking.RevisionID) *Bundle {
	b := newSentinel()
	b.Revision = rev
	return b
}

func newSentinel() *Bundle {
	return &Bundle{
		Structure: structure.Result{
			StartBraces: map[uint32]uint32{},
			EndBraces:   map[uint32]uint32{},
		},
	}
}

// Store holds the published bundle, the in-flight span slot, and a
// transient region-tag cache.
//
// Reset records the span allowed to publish and swaps in sentinel
// artifacts. PublishIf accepts a bundle only from that span, at most
// once, and clears the in-flight slot on acceptance. Reads never
// block on writers.
type Store struct {
	mu       sync.Mutex
	inflight *tracking.Span

	current atomic.Pointer[Bundle]

	// regionCache is a consumer-owned scratch slot, cleared on every
	// pass start and publish.
	regionCache atomic.Value
}

// NewStore returns a store holding sentinel artifacts.
func NewStore() *Store {
	s := &Store{}
	s.current.Store(newSentinel())
	return s
}

// Reset swaps in sentinel artifacts and records span as the only
// handle allowed to publish until the next Reset. Passing nil clears
// the slot, refusing all publishes until the next Reset.
func (s *Store) Reset(span *tracking.Span) {
	s.mu.Lock()
	s.inflight = span
	s.mu.Unlock()

	s.current.Store(newSentinel())
	s.clearRegionCache()
}

// PublishIf installs the bundle if span is still the recorded
// in-flight handle. On acceptance the in-flight slot is cleared, so a
// second publish from the same span is refused. It reports whether
// the bundle was accepted; a refused publish leaves the store
// untouched.
func (s *Store) PublishIf(span *tracking.Span, b *Bundle) bool {
	if span == nil || b == nil {
		return false
	}

	s.mu.Lock()
	if s.inflight != span {
		s.mu.Unlock()
		return false
	}
	s.inflight = nil
	s.mu.Unlock()

	s.current.Store(b)
	s.clearRegionCache()
	return true
}

// InFlight returns the span currently being analyzed, or nil when the
// latest pass has published (or nothing was ever reset). Consumers
// use a non-nil value to render provisional state.
func (s *Store) InFlight() *tracking.Span {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight
}

// Current returns the bundle. Never nil.
func (s *Store) Current() *Bundle {
	return s.current.Load()
}

// Tokens returns the current token stream.
func (s *Store) Tokens() []token.Token {
	return s.Current().Tokens
}

// Tree returns the current parse tree, which may be nil.
func (s *Store) Tree() *ast.Script {
	return s.Current().Tree
}

// Classifications returns the current highlight spans.
func (s *Store) Classifications() []classify.Span {
	return s.Current().Classifications
}

// Diagnostics returns the current diagnostics set.
func (s *Store) Diagnostics() []diag.Diagnostic {
	return s.Current().Diagnostics
}

// Structure returns the current brace tables and fold regions.
func (s *Store) Structure() structure.Result {
	return s.Current().Structure
}

// SetRegionCache stores consumer scratch state that lives only until
// the next pass boundary. The outliner parks its computed tags here.
func (s *Store) SetRegionCache(v any) {
	s.regionCache.Store(cacheSlot{v: v})
}

// RegionCache returns the cached value, or nil after a pass boundary.
func (s *Store) RegionCache() any {
	slot, ok := s.regionCache.Load().(cacheSlot)
	if !ok {
		return nil
	}
	return slot.v
}

func (s *Store) clearRegionCache() {
	s.regionCache.Store(cacheSlot{})
}

// cacheSlot wraps cached values so the atomic.Value always stores one
// concrete type.
type cacheSlot struct {
	v any
}
