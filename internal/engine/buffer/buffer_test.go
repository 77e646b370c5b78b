package buffer

import (
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestNewBuffer(t *testing.T) {
	b := NewBuffer()

	if !b.IsEmpty() {
		t.Error("new buffer should be empty")
	}

	if b.Len() != 0 {
		t.Errorf("expected length 0, got %d", b.Len())
	}

	if b.LineCount() != 1 {
		t.Errorf("expected 1 line, got %d", b.LineCount())
	}
}

func TestNewBufferFromString(t *testing.T) {
	text := "$x = 1"
	b := NewBufferFromString(text)

	if b.Text() != text {
		t.Errorf("expected %q, got %q", text, b.Text())
	}

	if b.Len() != int64(len(text)) {
		t.Errorf("expected length %d, got %d", len(text), b.Len())
	}
}

func TestNewBufferFromStringMultiline(t *testing.T) {
	text := "line1\nline2\nline3"
	b := NewBufferFromString(text)

	if b.LineCount() != 3 {
		t.Errorf("expected 3 lines, got %d", b.LineCount())
	}

	if b.LineText(0) != "line1" {
		t.Errorf("expected line1, got %q", b.LineText(0))
	}

	if b.LineText(1) != "line2" {
		t.Errorf("expected line2, got %q", b.LineText(1))
	}

	if b.LineText(2) != "line3" {
		t.Errorf("expected line3, got %q", b.LineText(2))
	}
}

func TestNewBufferFromReader(t *testing.T) {
	b, err := NewBufferFromReader(strings.NewReader("from reader"))
	if err != nil {
		t.Fatalf("NewBufferFromReader failed: %v", err)
	}

	if b.Text() != "from reader" {
		t.Errorf("expected 'from reader', got %q", b.Text())
	}
}

func TestTrailingNewlineAddsLine(t *testing.T) {
	b := NewBufferFromString("one\n")

	if b.LineCount() != 2 {
		t.Errorf("expected 2 lines, got %d", b.LineCount())
	}

	if b.LineText(1) != "" {
		t.Errorf("expected empty final line, got %q", b.LineText(1))
	}
}

func TestBufferInsert(t *testing.T) {
	b := NewBufferFromString("Get-Item")

	end, err := b.Insert(8, " -Force")
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	if end != 15 {
		t.Errorf("expected end position 15, got %d", end)
	}

	if b.Text() != "Get-Item -Force" {
		t.Errorf("expected 'Get-Item -Force', got %q", b.Text())
	}
}

func TestBufferInsertOutOfRange(t *testing.T) {
	b := NewBufferFromString("abc")

	if _, err := b.Insert(4, "x"); !errors.Is(err, ErrOffsetOutOfRange) {
		t.Errorf("expected ErrOffsetOutOfRange, got %v", err)
	}

	if _, err := b.Insert(-1, "x"); !errors.Is(err, ErrOffsetOutOfRange) {
		t.Errorf("expected ErrOffsetOutOfRange, got %v", err)
	}
}

func TestBufferDelete(t *testing.T) {
	b := NewBufferFromString("$x = 123")

	if err := b.Delete(5, 8); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if b.Text() != "$x = " {
		t.Errorf("expected '$x = ', got %q", b.Text())
	}
}

func TestBufferDeleteInvalidRange(t *testing.T) {
	b := NewBufferFromString("abc")

	if err := b.Delete(2, 1); !errors.Is(err, ErrRangeInvalid) {
		t.Errorf("expected ErrRangeInvalid, got %v", err)
	}

	if err := b.Delete(0, 4); !errors.Is(err, ErrRangeInvalid) {
		t.Errorf("expected ErrRangeInvalid, got %v", err)
	}
}

func TestBufferReplace(t *testing.T) {
	b := NewBufferFromString("$x = 1")

	end, err := b.Replace(5, 6, "42")
	if err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	if end != 7 {
		t.Errorf("expected end position 7, got %d", end)
	}

	if b.Text() != "$x = 42" {
		t.Errorf("expected '$x = 42', got %q", b.Text())
	}
}

func TestBufferApplyEdit(t *testing.T) {
	b := NewBufferFromString("$x = 1")

	result, err := b.ApplyEdit(NewEdit(NewRange(5, 6), "'one'"))
	if err != nil {
		t.Fatalf("apply edit failed: %v", err)
	}

	if result.OldText != "1" {
		t.Errorf("expected old text '1', got %q", result.OldText)
	}

	if result.Delta != 4 {
		t.Errorf("expected delta 4, got %d", result.Delta)
	}

	if result.NewRange.End != 10 {
		t.Errorf("expected new range end 10, got %d", result.NewRange.End)
	}

	if b.Text() != "$x = 'one'" {
		t.Errorf("expected \"$x = 'one'\", got %q", b.Text())
	}
}

func TestBufferApplyEditsReverseOrder(t *testing.T) {
	b := NewBufferFromString("aaa bbb ccc")

	edits := []Edit{
		NewEdit(NewRange(8, 11), "C"),
		NewEdit(NewRange(4, 7), "B"),
		NewEdit(NewRange(0, 3), "A"),
	}

	if err := b.ApplyEdits(edits); err != nil {
		t.Fatalf("apply edits failed: %v", err)
	}

	if b.Text() != "A B C" {
		t.Errorf("expected 'A B C', got %q", b.Text())
	}
}

func TestBufferApplyEditsOverlap(t *testing.T) {
	b := NewBufferFromString("aaa bbb")

	edits := []Edit{
		NewEdit(NewRange(0, 3), "A"),
		NewEdit(NewRange(2, 5), "B"),
	}

	if err := b.ApplyEdits(edits); !errors.Is(err, ErrEditsOverlap) {
		t.Errorf("expected ErrEditsOverlap, got %v", err)
	}
}

func TestBufferRevisionChangesOnEdit(t *testing.T) {
	b := NewBufferFromString("abc")
	rev := b.RevisionID()

	if _, err := b.Insert(0, "x"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	if b.RevisionID() == rev {
		t.Error("revision should change after an edit")
	}
}

func TestOffsetToPoint(t *testing.T) {
	b := NewBufferFromString("ab\ncde\nf")

	tests := []struct {
		offset ByteOffset
		want   Point
	}{
		{0, Point{Line: 0, Column: 0}},
		{2, Point{Line: 0, Column: 2}},
		{3, Point{Line: 1, Column: 0}},
		{5, Point{Line: 1, Column: 2}},
		{7, Point{Line: 2, Column: 0}},
		{8, Point{Line: 2, Column: 1}},
		{100, Point{Line: 2, Column: 1}}, // clamped
	}

	for _, tt := range tests {
		if got := b.OffsetToPoint(tt.offset); got != tt.want {
			t.Errorf("OffsetToPoint(%d) = %v, want %v", tt.offset, got, tt.want)
		}
	}
}

func TestPointToOffset(t *testing.T) {
	b := NewBufferFromString("ab\ncde\nf")

	tests := []struct {
		point Point
		want  ByteOffset
	}{
		{Point{Line: 0, Column: 0}, 0},
		{Point{Line: 1, Column: 0}, 3},
		{Point{Line: 1, Column: 2}, 5},
		{Point{Line: 0, Column: 99}, 2}, // clamped to line end
		{Point{Line: 99, Column: 0}, 8}, // clamped to buffer end
	}

	for _, tt := range tests {
		if got := b.PointToOffset(tt.point); got != tt.want {
			t.Errorf("PointToOffset(%v) = %d, want %d", tt.point, got, tt.want)
		}
	}
}

func TestLineOffsets(t *testing.T) {
	b := NewBufferFromString("ab\ncde\nf")

	if got := b.LineStartOffset(1); got != 3 {
		t.Errorf("LineStartOffset(1) = %d, want 3", got)
	}

	if got := b.LineEndOffset(0); got != 2 {
		t.Errorf("LineEndOffset(0) = %d, want 2", got)
	}

	if got := b.LineEndOffset(2); got != 8 {
		t.Errorf("LineEndOffset(2) = %d, want 8", got)
	}

	if got := b.LineLen(1); got != 3 {
		t.Errorf("LineLen(1) = %d, want 3", got)
	}
}

func TestTextRangeClamped(t *testing.T) {
	b := NewBufferFromString("hello")

	if got := b.TextRange(1, 4); got != "ell" {
		t.Errorf("TextRange(1,4) = %q, want 'ell'", got)
	}

	if got := b.TextRange(3, 100); got != "lo" {
		t.Errorf("TextRange(3,100) = %q, want 'lo'", got)
	}

	if got := b.TextRange(4, 2); got != "" {
		t.Errorf("TextRange(4,2) = %q, want empty", got)
	}
}

func TestNormalizeLineEndingsLF(t *testing.T) {
	b := NewBufferFromString("a\r\nb\rc\n")

	if b.Text() != "a\nb\nc\n" {
		t.Errorf("expected normalized LF text, got %q", b.Text())
	}

	if b.LineCount() != 4 {
		t.Errorf("expected 4 lines, got %d", b.LineCount())
	}
}

func TestNormalizeLineEndingsCRLF(t *testing.T) {
	b := NewBufferFromString("a\nb\n", WithCRLF())

	if b.Text() != "a\r\nb\r\n" {
		t.Errorf("expected CRLF text, got %q", b.Text())
	}

	if b.LineText(0) != "a" {
		t.Errorf("expected line 'a', got %q", b.LineText(0))
	}

	if b.LineCount() != 3 {
		t.Errorf("expected 3 lines, got %d", b.LineCount())
	}
}

func TestDetectLineEnding(t *testing.T) {
	tests := []struct {
		text string
		want LineEnding
	}{
		{"a\nb\nc", LineEndingLF},
		{"a\r\nb\r\nc", LineEndingCRLF},
		{"a\rb\rc", LineEndingCR},
		{"no endings", LineEndingLF},
		{"a\nb\r\nc\r\n", LineEndingCRLF},
	}

	for _, tt := range tests {
		if got := DetectLineEnding(tt.text); got != tt.want {
			t.Errorf("DetectLineEnding(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestSnapshotIsolation(t *testing.T) {
	b := NewBufferFromString("$x = 1")
	snap := b.Snapshot()

	if _, err := b.Replace(0, 6, "$y = 2"); err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	if snap.Text() != "$x = 1" {
		t.Errorf("snapshot should keep old text, got %q", snap.Text())
	}

	if snap.RevisionID() == b.RevisionID() {
		t.Error("snapshot revision should differ from buffer after edit")
	}

	if b.Text() != "$y = 2" {
		t.Errorf("buffer should hold new text, got %q", b.Text())
	}
}

func TestSnapshotCoordinates(t *testing.T) {
	b := NewBufferFromString("ab\ncd")
	snap := b.Snapshot()

	if got := snap.OffsetToPoint(4); (got != Point{Line: 1, Column: 1}) {
		t.Errorf("OffsetToPoint(4) = %v, want (1:1)", got)
	}

	if got := snap.LineText(1); got != "cd" {
		t.Errorf("LineText(1) = %q, want 'cd'", got)
	}

	if got := snap.PointToOffset(Point{Line: 1, Column: 1}); got != 4 {
		t.Errorf("PointToOffset = %d, want 4", got)
	}
}

func TestConcurrentReadsAndWrites(t *testing.T) {
	b := NewBufferFromString(strings.Repeat("x", 100))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = b.Text()
				_ = b.Len()
				_ = b.Snapshot().LineCount()
			}
		}()
	}

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				_, _ = b.Insert(0, "y")
			}
		}()
	}

	wg.Wait()

	if b.Len() != 200 {
		t.Errorf("expected length 200, got %d", b.Len())
	}
}

func TestRuneAt(t *testing.T) {
	b := NewBufferFromString("a€b")

	r, size := b.RuneAt(1)
	if r != '€' || size != 3 {
		t.Errorf("RuneAt(1) = %q size %d, want '€' size 3", r, size)
	}

	if _, size := b.RuneAt(99); size != 0 {
		t.Errorf("RuneAt(99) size = %d, want 0", size)
	}
}
