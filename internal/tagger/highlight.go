package tagger

import (
	"sync"
	"sync/atomic"

	"github.com/chargen/poshtools/internal/engine/annotation"
	"github.com/chargen/poshtools/internal/engine/buffer"
	"github.com/chargen/poshtools/internal/syntax/token"
)

// SnapshotSource provides the buffer's current snapshot. *buffer.Buffer
// satisfies it.
type SnapshotSource interface {
	Snapshot() *buffer.Snapshot
}

// StyleSpan is one styled region, ready for a renderer.
type StyleSpan struct {
	Range token.Span
	Style Style
}

// ClassificationTagger turns published classification spans into
// per-line style runs, cached until the next change notification.
// While a pass is in flight it reports no styles at all, so stale
// highlighting never shows through an edit.
type ClassificationTagger struct {
	store  *annotation.Store
	source SnapshotSource
	theme  *Theme

	mu    sync.Mutex
	lines map[uint32][]StyleSpan

	notifications atomic.Uint64
}

// NewClassificationTagger creates the highlighting consumer.
func NewClassificationTagger(store *annotation.Store, source SnapshotSource, theme *Theme) *ClassificationTagger {
	if theme == nil {
		theme = DefaultTheme()
	}
	return &ClassificationTagger{
		store:  store,
		source: source,
		theme:  theme,
		lines:  make(map[uint32][]StyleSpan),
	}
}

// Theme returns the active theme.
func (t *ClassificationTagger) Theme() *Theme {
	return t.theme
}

// SetTheme replaces the theme and drops the line cache.
func (t *ClassificationTagger) SetTheme(theme *Theme) {
	if theme == nil {
		return
	}
	t.mu.Lock()
	t.theme = theme
	t.lines = make(map[uint32][]StyleSpan)
	t.mu.Unlock()
}

// TagsChanged implements analysis.Consumer. The whole cache is dropped:
// every pass re-analyzes the full text, so any line may have changed.
func (t *ClassificationTagger) TagsChanged(buffer.Range) {
	t.mu.Lock()
	t.lines = make(map[uint32][]StyleSpan)
	t.mu.Unlock()
	t.notifications.Add(1)
}

// Notifications returns how many change notifications arrived. Tests
// use it to count fan-outs.
func (t *ClassificationTagger) Notifications() uint64 {
	return t.notifications.Load()
}

// StylesForLine returns the style runs intersecting one line, in
// buffer-absolute coordinates. It returns nil while a pass is in
// flight.
func (t *ClassificationTagger) StylesForLine(line uint32) []StyleSpan {
	if t.store.InFlight() != nil {
		return nil
	}

	t.mu.Lock()
	if spans, ok := t.lines[line]; ok {
		t.mu.Unlock()
		return spans
	}
	t.mu.Unlock()

	snap := t.source.Snapshot()
	if line >= snap.LineCount() {
		return nil
	}
	start := uint32(snap.LineStartOffset(line))
	end := uint32(snap.LineEndOffset(line))
	lineRange := token.NewSpan(start, end)

	var spans []StyleSpan
	for _, cs := range t.store.Classifications() {
		if !cs.Range.Overlaps(lineRange) {
			continue
		}
		spans = append(spans, StyleSpan{
			Range: cs.Range,
			Style: t.theme.StyleFor(cs.Category),
		})
	}

	t.mu.Lock()
	t.lines[line] = spans
	t.mu.Unlock()
	return spans
}
