package tagger

import (
	"sync"
	"sync/atomic"

	"github.com/chargen/poshtools/internal/engine/annotation"
	"github.com/chargen/poshtools/internal/engine/buffer"
	"github.com/chargen/poshtools/internal/syntax/structure"
	"github.com/chargen/poshtools/internal/syntax/token"
)

// OutlineEntry is one foldable block with its collapse state.
type OutlineEntry struct {
	Region    structure.Region
	Collapsed bool
}

// OutlineTagger maintains the outline view over published fold
// regions. Collapse state keyed by span survives a republish when the
// same region still exists; regions that vanished drop their state.
// Computed entries are parked in the store's region-tag cache, which
// the store clears at every pass boundary.
type OutlineTagger struct {
	store *annotation.Store

	mu        sync.Mutex
	collapsed map[token.Span]struct{}

	notifications atomic.Uint64
}

// NewOutlineTagger creates the outlining consumer.
func NewOutlineTagger(store *annotation.Store) *OutlineTagger {
	return &OutlineTagger{
		store:     store,
		collapsed: make(map[token.Span]struct{}),
	}
}

// TagsChanged implements analysis.Consumer. It rebuilds the entries,
// prunes collapse state for regions that no longer exist, and parks
// the result in the region cache.
func (t *OutlineTagger) TagsChanged(buffer.Range) {
	t.rebuild()
	t.notifications.Add(1)
}

// Notifications returns how many change notifications arrived.
func (t *OutlineTagger) Notifications() uint64 {
	return t.notifications.Load()
}

// Entries returns the outline in region order. The cached value is
// reused until a pass boundary invalidates it.
func (t *OutlineTagger) Entries() []OutlineEntry {
	if t.store.InFlight() != nil {
		return nil
	}
	if cached, ok := t.store.RegionCache().([]OutlineEntry); ok {
		return cached
	}
	return t.rebuild()
}

// SetCollapsed records the collapse state for a region span.
func (t *OutlineTagger) SetCollapsed(span token.Span, collapsed bool) {
	t.mu.Lock()
	if collapsed {
		t.collapsed[span] = struct{}{}
	} else {
		delete(t.collapsed, span)
	}
	t.mu.Unlock()

	t.rebuild()
}

// IsCollapsed reports the collapse state for a region span.
func (t *OutlineTagger) IsCollapsed(span token.Span) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.collapsed[span]
	return ok
}

// rebuild recomputes entries from the published regions and refreshes
// both the pruned collapse set and the region cache.
func (t *OutlineTagger) rebuild() []OutlineEntry {
	regions := t.store.Structure().Regions

	t.mu.Lock()
	entries := make([]OutlineEntry, 0, len(regions))
	surviving := make(map[token.Span]struct{}, len(t.collapsed))
	for _, r := range regions {
		_, collapsed := t.collapsed[r.Span]
		if collapsed {
			surviving[r.Span] = struct{}{}
		}
		entries = append(entries, OutlineEntry{Region: r, Collapsed: collapsed})
	}
	t.collapsed = surviving
	t.mu.Unlock()

	t.store.SetRegionCache(entries)
	return entries
}
