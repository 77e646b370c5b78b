package analysis

import (
	"sync"

	"github.com/chargen/poshtools/internal/engine/buffer"
)

// ConsumerKind names a notification slot. Notification order is fixed
// by kind, not by registration order.
type ConsumerKind uint8

const (
	// KindHighlight is the classification/highlighting consumer.
	KindHighlight ConsumerKind = iota

	// KindDiagnostics is the error-tagging consumer.
	KindDiagnostics

	// KindOutline is the folding/outlining consumer.
	KindOutline
)

// notifyOrder fixes the fan-out sequence.
var notifyOrder = [...]ConsumerKind{KindHighlight, KindDiagnostics, KindOutline}

// String returns the kind name.
func (k ConsumerKind) String() string {
	switch k {
	case KindHighlight:
		return "highlight"
	case KindDiagnostics:
		return "diagnostics"
	case KindOutline:
		return "outline"
	default:
		return "unknown"
	}
}

// Consumer is told when the tags inside a resolved extent changed.
// Implementations read the published artifacts from the annotation
// store on their own schedule.
type Consumer interface {
	TagsChanged(extent buffer.Range)
}

// Registry holds one consumer per kind. Consumers register
// themselves; the orchestrator fans out to whatever is present, in
// fixed kind order, skipping empty slots.
type Registry struct {
	mu        sync.RWMutex
	consumers map[ConsumerKind]Consumer
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{consumers: make(map[ConsumerKind]Consumer)}
}

// Register installs the consumer for a kind, replacing any previous
// registration. A nil consumer clears the slot.
func (r *Registry) Register(kind ConsumerKind, c Consumer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c == nil {
		delete(r.consumers, kind)
		return
	}
	r.consumers[kind] = c
}

// Get returns the consumer for a kind, or nil.
func (r *Registry) Get(kind ConsumerKind) Consumer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.consumers[kind]
}

// Len returns the number of registered consumers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.consumers)
}

// Notify invokes each registered consumer in fixed kind order.
func (r *Registry) Notify(extent buffer.Range) {
	r.mu.RLock()
	targets := make([]Consumer, 0, len(notifyOrder))
	for _, kind := range notifyOrder {
		if c, ok := r.consumers[kind]; ok {
			targets = append(targets, c)
		}
	}
	r.mu.RUnlock()

	for _, c := range targets {
		c.TagsChanged(extent)
	}
}
