package buffer

import "unicode/utf8"

// Snapshot provides a read-only view of a buffer at a specific point in time.
// It is safe for concurrent access and will not change even if the original
// buffer is modified.
type Snapshot struct {
	text       string
	lineStarts []ByteOffset
	revisionID RevisionID
	lineEnding LineEnding
}

// Text returns the full snapshot content as a string.
func (s *Snapshot) Text() string {
	return s.text
}

// TextRange returns text in the given byte range, clamped to the
// snapshot bounds.
func (s *Snapshot) TextRange(start, end ByteOffset) string {
	n := ByteOffset(len(s.text))
	start = clampOffset(start, n)
	end = clampOffset(end, n)
	if start >= end {
		return ""
	}
	return s.text[start:end]
}

// Len returns the total byte length of the snapshot.
func (s *Snapshot) Len() ByteOffset {
	return ByteOffset(len(s.text))
}

// LineCount returns the number of lines.
func (s *Snapshot) LineCount() uint32 {
	return uint32(len(s.lineStarts))
}

// LineText returns the text of a specific line (without newline).
func (s *Snapshot) LineText(line uint32) string {
	start, end := lineBounds(s.text, s.lineStarts, s.lineEnding, line)
	return s.text[start:end]
}

// LineLen returns the length of a specific line in bytes (without newline).
func (s *Snapshot) LineLen(line uint32) int {
	start, end := lineBounds(s.text, s.lineStarts, s.lineEnding, line)
	return int(end - start)
}

// ByteAt returns the byte at the given offset.
func (s *Snapshot) ByteAt(offset ByteOffset) (byte, bool) {
	if offset < 0 || offset >= ByteOffset(len(s.text)) {
		return 0, false
	}
	return s.text[offset], true
}

// RuneAt returns the rune at the given byte offset.
// Returns utf8.RuneError and size 0 if offset is out of range.
func (s *Snapshot) RuneAt(offset ByteOffset) (rune, int) {
	if offset < 0 || offset >= ByteOffset(len(s.text)) {
		return utf8.RuneError, 0
	}
	return utf8.DecodeRuneInString(s.text[offset:])
}

// OffsetToPoint converts a byte offset to line/column.
func (s *Snapshot) OffsetToPoint(offset ByteOffset) Point {
	offset = clampOffset(offset, ByteOffset(len(s.text)))
	line := lineOf(s.lineStarts, offset)
	return Point{Line: line, Column: uint32(offset - s.lineStarts[line])}
}

// PointToOffset converts line/column to byte offset.
func (s *Snapshot) PointToOffset(point Point) ByteOffset {
	if int(point.Line) >= len(s.lineStarts) {
		return ByteOffset(len(s.text))
	}
	start, end := lineBounds(s.text, s.lineStarts, s.lineEnding, point.Line)
	offset := start + ByteOffset(point.Column)
	if offset > end {
		return end
	}
	return offset
}

// LineStartOffset returns the byte offset of the start of a line.
func (s *Snapshot) LineStartOffset(line uint32) ByteOffset {
	if int(line) >= len(s.lineStarts) {
		return ByteOffset(len(s.text))
	}
	return s.lineStarts[line]
}

// LineEndOffset returns the byte offset of the end of a line (before newline).
func (s *Snapshot) LineEndOffset(line uint32) ByteOffset {
	_, end := lineBounds(s.text, s.lineStarts, s.lineEnding, line)
	return end
}

// RevisionID returns the revision ID of this snapshot.
func (s *Snapshot) RevisionID() RevisionID {
	return s.revisionID
}

// IsEmpty returns true if the snapshot is empty.
func (s *Snapshot) IsEmpty() bool {
	return len(s.text) == 0
}

// LineEnding returns the snapshot's line ending style.
func (s *Snapshot) LineEnding() LineEnding {
	return s.lineEnding
}
