package buffer

import (
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"
)

// Errors returned by buffer operations.
var (
	ErrOffsetOutOfRange = errors.New("offset out of range")
	ErrRangeInvalid     = errors.New("invalid range")
	ErrEditsOverlap     = errors.New("edits overlap or are not in reverse order")
)

// LineEnding specifies the line ending style.
type LineEnding uint8

const (
	LineEndingLF   LineEnding = iota // Unix: \n
	LineEndingCRLF                   // Windows: \r\n
	LineEndingCR                     // Old Mac: \r
)

// String returns the string representation of the line ending.
func (le LineEnding) String() string {
	switch le {
	case LineEndingLF:
		return "\\n"
	case LineEndingCRLF:
		return "\\r\\n"
	case LineEndingCR:
		return "\\r"
	default:
		return "\\n"
	}
}

// Sequence returns the actual line ending characters.
func (le LineEnding) Sequence() string {
	switch le {
	case LineEndingLF:
		return "\n"
	case LineEndingCRLF:
		return "\r\n"
	case LineEndingCR:
		return "\r"
	default:
		return "\n"
	}
}

// Buffer holds the document text with a line-start index.
// It provides the primary interface for text manipulation.
// All methods are thread-safe.
type Buffer struct {
	mu         sync.RWMutex
	text       string
	lineStarts []ByteOffset
	revisionID RevisionID
	lineEnding LineEnding
}

// NewBuffer creates a new empty buffer.
func NewBuffer(opts ...Option) *Buffer {
	b := &Buffer{
		revisionID: NewRevisionID(),
		lineEnding: LineEndingLF,
	}

	for _, opt := range opts {
		opt(b)
	}

	b.lineStarts = indexLines(b.text, b.lineEnding)
	return b
}

// NewBufferFromString creates a buffer with initial content.
func NewBufferFromString(s string, opts ...Option) *Buffer {
	b := NewBuffer(opts...)
	b.setText(b.normalizeLineEndings(s))
	return b
}

// NewBufferFromReader creates a buffer from an io.Reader.
func NewBufferFromReader(r io.Reader, opts ...Option) (*Buffer, error) {
	b := NewBuffer(opts...)

	// Read all content first to handle line ending normalization correctly
	// (CRLF sequences may be split across read boundaries)
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	b.setText(b.normalizeLineEndings(string(data)))
	return b, nil
}

// setText replaces the content and rebuilds the line index.
// Caller holds the write lock or exclusive ownership.
func (b *Buffer) setText(s string) {
	b.text = s
	b.lineStarts = indexLines(s, b.lineEnding)
}

// normalizeLineEndings converts all line endings to the buffer's preferred style.
func (b *Buffer) normalizeLineEndings(s string) string {
	if b.lineEnding == LineEndingLF {
		// Normalize CRLF and CR to LF
		s = strings.ReplaceAll(s, "\r\n", "\n")
		s = strings.ReplaceAll(s, "\r", "\n")
	} else if b.lineEnding == LineEndingCRLF {
		// First normalize to LF, then convert to CRLF
		s = strings.ReplaceAll(s, "\r\n", "\n")
		s = strings.ReplaceAll(s, "\r", "\n")
		s = strings.ReplaceAll(s, "\n", "\r\n")
	} else if b.lineEnding == LineEndingCR {
		// Normalize CRLF and LF to CR
		s = strings.ReplaceAll(s, "\r\n", "\r")
		s = strings.ReplaceAll(s, "\n", "\r")
	}
	return s
}

// indexLines records the byte offset of each line start. The index
// always contains at least the offset 0, and text ending with a line
// break gains a trailing empty line.
func indexLines(text string, le LineEnding) []ByteOffset {
	seq := le.Sequence()
	starts := []ByteOffset{0}
	for i := 0; i+len(seq) <= len(text); i++ {
		if text[i:i+len(seq)] == seq {
			starts = append(starts, ByteOffset(i+len(seq)))
			i += len(seq) - 1
		}
	}
	return starts
}

// lineOf returns the index of the line containing the offset.
// Caller holds at least a read lock.
func (b *Buffer) lineOf(offset ByteOffset) uint32 {
	return lineOf(b.lineStarts, offset)
}

func lineOf(starts []ByteOffset, offset ByteOffset) uint32 {
	idx := sort.Search(len(starts), func(i int) bool {
		return starts[i] > offset
	}) - 1
	if idx < 0 {
		idx = 0
	}
	return uint32(idx)
}

// lineBounds returns the [start, end) byte range of a line, where end
// excludes the line ending. Out-of-range lines clamp to the end of the
// text.
func lineBounds(text string, starts []ByteOffset, le LineEnding, line uint32) (ByteOffset, ByteOffset) {
	if int(line) >= len(starts) {
		n := ByteOffset(len(text))
		return n, n
	}
	start := starts[line]
	if int(line)+1 < len(starts) {
		return start, starts[line+1] - ByteOffset(len(le.Sequence()))
	}
	return start, ByteOffset(len(text))
}

// Read Operations

// Text returns the full buffer content as a string.
func (b *Buffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text
}

// TextRange returns text in the given byte range, clamped to the
// buffer bounds.
func (b *Buffer) TextRange(start, end ByteOffset) string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := ByteOffset(len(b.text))
	start = clampOffset(start, n)
	end = clampOffset(end, n)
	if start >= end {
		return ""
	}
	return b.text[start:end]
}

// Len returns the total byte length of the buffer.
func (b *Buffer) Len() ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return ByteOffset(len(b.text))
}

// LineCount returns the number of lines.
func (b *Buffer) LineCount() uint32 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return uint32(len(b.lineStarts))
}

// LineText returns the text of a specific line (without newline).
func (b *Buffer) LineText(line uint32) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	start, end := lineBounds(b.text, b.lineStarts, b.lineEnding, line)
	return b.text[start:end]
}

// LineLen returns the length of a specific line in bytes (without newline).
func (b *Buffer) LineLen(line uint32) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	start, end := lineBounds(b.text, b.lineStarts, b.lineEnding, line)
	return int(end - start)
}

// ByteAt returns the byte at the given offset.
func (b *Buffer) ByteAt(offset ByteOffset) (byte, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if offset < 0 || offset >= ByteOffset(len(b.text)) {
		return 0, false
	}
	return b.text[offset], true
}

// RuneAt returns the rune at the given byte offset.
// Returns utf8.RuneError and size 0 if offset is out of range.
func (b *Buffer) RuneAt(offset ByteOffset) (rune, int) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if offset < 0 || offset >= ByteOffset(len(b.text)) {
		return utf8.RuneError, 0
	}
	return utf8.DecodeRuneInString(b.text[offset:])
}

// Coordinate Conversion

// OffsetToPoint converts a byte offset to line/column.
// Offsets outside the buffer clamp to the nearest position.
func (b *Buffer) OffsetToPoint(offset ByteOffset) Point {
	b.mu.RLock()
	defer b.mu.RUnlock()

	offset = clampOffset(offset, ByteOffset(len(b.text)))
	line := b.lineOf(offset)
	return Point{Line: line, Column: uint32(offset - b.lineStarts[line])}
}

// PointToOffset converts line/column to byte offset.
// Out-of-range points clamp to the nearest valid position.
func (b *Buffer) PointToOffset(point Point) ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if int(point.Line) >= len(b.lineStarts) {
		return ByteOffset(len(b.text))
	}
	start, end := lineBounds(b.text, b.lineStarts, b.lineEnding, point.Line)
	offset := start + ByteOffset(point.Column)
	if offset > end {
		return end
	}
	return offset
}

// LineStartOffset returns the byte offset of the start of a line.
func (b *Buffer) LineStartOffset(line uint32) ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if int(line) >= len(b.lineStarts) {
		return ByteOffset(len(b.text))
	}
	return b.lineStarts[line]
}

// LineEndOffset returns the byte offset of the end of a line (before newline).
func (b *Buffer) LineEndOffset(line uint32) ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, end := lineBounds(b.text, b.lineStarts, b.lineEnding, line)
	return end
}

// Write Operations

// Insert inserts text at the given offset.
// Returns the end position of the inserted text.
func (b *Buffer) Insert(offset ByteOffset, text string) (ByteOffset, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if offset < 0 || offset > ByteOffset(len(b.text)) {
		return 0, ErrOffsetOutOfRange
	}

	text = b.normalizeLineEndings(text)
	b.setText(b.text[:offset] + text + b.text[offset:])
	b.revisionID = NewRevisionID()

	return offset + ByteOffset(len(text)), nil
}

// Delete removes text in the given range.
func (b *Buffer) Delete(start, end ByteOffset) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if start < 0 || start > end || end > ByteOffset(len(b.text)) {
		return ErrRangeInvalid
	}

	b.setText(b.text[:start] + b.text[end:])
	b.revisionID = NewRevisionID()

	return nil
}

// Replace replaces text in the given range with new text.
// Returns the end position of the replacement text.
func (b *Buffer) Replace(start, end ByteOffset, text string) (ByteOffset, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if start < 0 || start > end || end > ByteOffset(len(b.text)) {
		return 0, ErrRangeInvalid
	}

	text = b.normalizeLineEndings(text)
	b.setText(b.text[:start] + text + b.text[end:])
	b.revisionID = NewRevisionID()

	return start + ByteOffset(len(text)), nil
}

// ApplyEdit applies a single edit to the buffer.
func (b *Buffer) ApplyEdit(edit Edit) (EditResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if edit.Range.Start < 0 || edit.Range.Start > edit.Range.End ||
		edit.Range.End > ByteOffset(len(b.text)) {
		return EditResult{}, ErrRangeInvalid
	}

	oldText := b.text[edit.Range.Start:edit.Range.End]
	text := b.normalizeLineEndings(edit.NewText)
	b.setText(b.text[:edit.Range.Start] + text + b.text[edit.Range.End:])
	b.revisionID = NewRevisionID()

	newEnd := edit.Range.Start + ByteOffset(len(text))

	return EditResult{
		OldRange: edit.Range,
		NewRange: Range{Start: edit.Range.Start, End: newEnd},
		OldText:  oldText,
		Delta:    int64(len(text)) - int64(edit.Range.Len()),
	}, nil
}

// ApplyEdits applies multiple edits atomically.
// Edits must be in reverse order (highest offset first) to maintain validity.
func (b *Buffer) ApplyEdits(edits []Edit) error {
	if len(edits) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	// Validate edits are in reverse order and non-overlapping
	for i := 1; i < len(edits); i++ {
		if edits[i].Range.End > edits[i-1].Range.Start {
			return ErrEditsOverlap
		}
	}

	// Validate all ranges
	textLen := ByteOffset(len(b.text))
	for _, edit := range edits {
		if edit.Range.Start < 0 || edit.Range.Start > edit.Range.End ||
			edit.Range.End > textLen {
			return ErrRangeInvalid
		}
	}

	// Apply edits in reverse order
	text := b.text
	for _, edit := range edits {
		replacement := b.normalizeLineEndings(edit.NewText)
		text = text[:edit.Range.Start] + replacement + text[edit.Range.End:]
	}

	b.setText(text)
	b.revisionID = NewRevisionID()
	return nil
}

// Buffer State

// RevisionID returns the current revision ID.
func (b *Buffer) RevisionID() RevisionID {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.revisionID
}

// IsEmpty returns true if the buffer is empty.
func (b *Buffer) IsEmpty() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.text) == 0
}

// LineEnding returns the buffer's line ending style.
func (b *Buffer) LineEnding() LineEnding {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lineEnding
}

// Snapshot returns a read-only snapshot of the current buffer state.
// Safe for concurrent access from other goroutines.
func (b *Buffer) Snapshot() *Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return &Snapshot{
		text:       b.text, // Strings are immutable, safe to share
		lineStarts: b.lineStarts,
		revisionID: b.revisionID,
		lineEnding: b.lineEnding,
	}
}

func clampOffset(offset, max ByteOffset) ByteOffset {
	if offset < 0 {
		return 0
	}
	if offset > max {
		return max
	}
	return offset
}
