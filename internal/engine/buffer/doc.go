// Package buffer provides a thread-safe text buffer backed by a
// contiguous string and a line-start index. It is the primary
// interface for text manipulation in the analysis engine.
//
// The buffer package provides:
//
//   - Thread-safe read/write access via sync.RWMutex
//   - Coordinate conversion between byte offsets and line/column positions
//   - Read-only snapshots for concurrent access
//   - Line ending normalization
//   - Revision tracking for change management
//
// Basic usage:
//
//	// Create a buffer with some text
//	buf := buffer.NewBufferFromString("$greeting = 'Hello'")
//
//	// Replace the value
//	buf.Replace(12, 19, "'Goodbye'")
//
//	// Get a snapshot for concurrent reading
//	snap := buf.Snapshot()
//	go func() {
//	    text := snap.Text()
//	    // Process text...
//	}()
//
// Thread Safety:
//
// All Buffer methods are thread-safe. Read operations acquire a read
// lock, while write operations acquire an exclusive write lock. For
// scenarios requiring multiple reads without the possibility of
// intervening writes, use Snapshot() to obtain a consistent read-only
// view.
package buffer
