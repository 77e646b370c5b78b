package tagger

import (
	"sync"
	"sync/atomic"

	"github.com/chargen/poshtools/internal/diag"
	"github.com/chargen/poshtools/internal/engine/annotation"
	"github.com/chargen/poshtools/internal/engine/buffer"
	"github.com/chargen/poshtools/internal/syntax/token"
)

// Squiggle is one live error marker.
type Squiggle struct {
	Range    token.Span
	Severity diag.Severity
	Message  string
	Code     string
}

// ErrorTagger materializes published diagnostics into squiggles. A
// diagnostic whose span no longer fits the buffer (the text shrank
// since publication) degrades to nothing instead of a broken marker.
type ErrorTagger struct {
	store  *annotation.Store
	source SnapshotSource

	mu         sync.Mutex
	lastExtent buffer.Range

	notifications atomic.Uint64
}

// NewErrorTagger creates the diagnostics consumer.
func NewErrorTagger(store *annotation.Store, source SnapshotSource) *ErrorTagger {
	return &ErrorTagger{store: store, source: source}
}

// TagsChanged implements analysis.Consumer.
func (t *ErrorTagger) TagsChanged(extent buffer.Range) {
	t.mu.Lock()
	t.lastExtent = extent
	t.mu.Unlock()
	t.notifications.Add(1)
}

// LastExtent returns the extent of the most recent notification.
func (t *ErrorTagger) LastExtent() buffer.Range {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastExtent
}

// Notifications returns how many change notifications arrived.
func (t *ErrorTagger) Notifications() uint64 {
	return t.notifications.Load()
}

// Squiggles returns the live markers for the current buffer state.
// Nothing is reported while a pass is in flight.
func (t *ErrorTagger) Squiggles() []Squiggle {
	if t.store.InFlight() != nil {
		return nil
	}

	bufLen := uint32(t.source.Snapshot().Len())

	var out []Squiggle
	for _, d := range t.store.Diagnostics() {
		if !d.Fits(bufLen) {
			continue
		}
		out = append(out, Squiggle{
			Range:    d.Span,
			Severity: d.Severity,
			Message:  d.Message,
			Code:     d.Code,
		})
	}
	return out
}

// Counts tallies the live squiggles by severity.
func (t *ErrorTagger) Counts() (errors, warnings, hints int) {
	for _, s := range t.Squiggles() {
		switch s.Severity {
		case diag.SeverityError:
			errors++
		case diag.SeverityWarning:
			warnings++
		default:
			hints++
		}
	}
	return errors, warnings, hints
}
