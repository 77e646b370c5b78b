package tracking

import (
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/chargen/poshtools/internal/engine/buffer"
)

// RevisionID is an alias to buffer.RevisionID for convenience.
type RevisionID = buffer.RevisionID

// Span pins the full buffer content as of one revision. It is the
// identity handle for an analysis pass: callers compare spans by
// pointer, so every NewSpan call yields a distinct handle even over
// identical text.
type Span struct {
	snapshot *buffer.Snapshot
	created  time.Time
	id       xid.ID
}

// NewSpan mints a span over the given snapshot.
func NewSpan(snapshot *buffer.Snapshot) *Span {
	return &Span{
		snapshot: snapshot,
		created:  time.Now(),
		id:       xid.New(),
	}
}

// ID returns the span's unique identifier for logging.
func (s *Span) ID() string {
	return s.id.String()
}

// Snapshot returns the pinned buffer snapshot.
func (s *Span) Snapshot() *buffer.Snapshot {
	return s.snapshot
}

// Revision returns the buffer revision the span was minted at.
func (s *Span) Revision() RevisionID {
	return s.snapshot.RevisionID()
}

// Text returns the full text the span covers.
func (s *Span) Text() string {
	return s.snapshot.Text()
}

// Len returns the byte length of the covered text.
func (s *Span) Len() buffer.ByteOffset {
	return s.snapshot.Len()
}

// Extent returns the covered range in the pinned snapshot.
func (s *Span) Extent() buffer.Range {
	return buffer.NewRange(0, s.snapshot.Len())
}

// Resolve maps the span's extent onto a newer snapshot, clamping to
// the current bounds. The result shrinks when the buffer shrank and
// never grows past the span's own length.
func (s *Span) Resolve(current *buffer.Snapshot) buffer.Range {
	end := s.snapshot.Len()
	if cur := current.Len(); cur < end {
		end = cur
	}
	return buffer.NewRange(0, end)
}

// Created returns the time the span was minted.
func (s *Span) Created() time.Time {
	return s.created
}

// String returns a short description for logs.
func (s *Span) String() string {
	return fmt.Sprintf("span(%s rev=%d len=%d)", s.id, s.Revision(), s.Len())
}
