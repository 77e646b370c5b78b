package app

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/chargen/poshtools/internal/diag"
	"github.com/chargen/poshtools/internal/engine/analysis"
	"github.com/chargen/poshtools/internal/engine/annotation"
	"github.com/chargen/poshtools/internal/engine/buffer"
	"github.com/chargen/poshtools/internal/engine/tracking"
	"github.com/chargen/poshtools/internal/tagger"
)

// Errors returned by document operations.
var (
	ErrDocumentClosed = errors.New("document closed")
	ErrSuperseded     = errors.New("pass superseded by a newer edit")
)

// recentPublished bounds how many published handles a document
// remembers for Await.
const recentPublished = 8

// DocumentOptions tune a document's wiring.
type DocumentOptions struct {
	// Pool shares a worker pool across documents. Nil gives the
	// document a private pool.
	Pool *analysis.Pool

	// DeepParser backs the richer diagnostics path. Nil keeps
	// diagnostics on the fast parser's errors alone.
	DeepParser diag.DeepParser

	// Theme styles the classification tagger. Nil means the default.
	Theme *tagger.Theme
}

// Document is one open script: its buffer, the orchestrator that
// re-analyzes it on every edit, and the three registered consumers.
// Every edit method triggers a new analysis pass and returns that
// pass's handle.
type Document struct {
	id   xid.ID
	path string

	buf   *buffer.Buffer
	orch  *analysis.Orchestrator
	store *annotation.Store

	highlight *tagger.ClassificationTagger
	errTags   *tagger.ErrorTagger
	outline   *tagger.OutlineTagger

	mu     sync.Mutex
	recent []*tracking.Span
	signal chan struct{}

	closed atomic.Bool
}

// NewDocument opens a document over content and starts its first
// analysis pass.
func NewDocument(ctx context.Context, path, content string, opts DocumentOptions) (*Document, error) {
	d := &Document{
		id:     xid.New(),
		path:   path,
		buf:    buffer.NewBufferFromString(content),
		signal: make(chan struct{}),
	}

	orchOpts := []analysis.Option{
		analysis.WithCompletionHandler(d.onComplete),
	}
	if opts.Pool != nil {
		orchOpts = append(orchOpts, analysis.WithPool(opts.Pool))
	}
	if opts.DeepParser != nil {
		orchOpts = append(orchOpts, analysis.WithDiagnosticsResolver(diag.NewResolver(opts.DeepParser)))
	}

	orch, err := analysis.New(orchOpts...)
	if err != nil {
		return nil, errors.Errorf("starting orchestrator: %w", err)
	}
	d.orch = orch
	d.store = orch.Store()

	d.highlight = tagger.NewClassificationTagger(d.store, d.buf, opts.Theme)
	d.errTags = tagger.NewErrorTagger(d.store, d.buf)
	d.outline = tagger.NewOutlineTagger(d.store)

	reg := orch.Registry()
	reg.Register(analysis.KindHighlight, d.highlight)
	reg.Register(analysis.KindDiagnostics, d.errTags)
	reg.Register(analysis.KindOutline, d.outline)

	zerolog.Ctx(ctx).Debug().
		Str("document", d.id.String()).
		Str("path", path).
		Int64("len", d.buf.Len()).
		Msg("document opened")

	d.Retokenize(ctx)
	return d, nil
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id.String() }

// Path returns the path the document was opened from.
func (d *Document) Path() string { return d.path }

// Buffer returns the document's text buffer.
func (d *Document) Buffer() *buffer.Buffer { return d.buf }

// Store returns the annotation store consumers read.
func (d *Document) Store() *annotation.Store { return d.store }

// Highlight returns the classification tagger.
func (d *Document) Highlight() *tagger.ClassificationTagger { return d.highlight }

// ErrorTags returns the error tagger.
func (d *Document) ErrorTags() *tagger.ErrorTagger { return d.errTags }

// Outline returns the outlining tagger.
func (d *Document) Outline() *tagger.OutlineTagger { return d.outline }

// Retokenize triggers a new analysis pass over the current text and
// returns its handle without blocking. Nil after Close.
func (d *Document) Retokenize(ctx context.Context) *tracking.Span {
	if d.closed.Load() {
		return nil
	}
	return d.orch.Retokenize(ctx, d.buf.Snapshot())
}

// Insert inserts text and triggers a pass.
func (d *Document) Insert(ctx context.Context, offset buffer.ByteOffset, text string) (*tracking.Span, error) {
	if d.closed.Load() {
		return nil, ErrDocumentClosed
	}
	if _, err := d.buf.Insert(offset, text); err != nil {
		return nil, errors.Errorf("inserting at %d: %w", offset, err)
	}
	return d.Retokenize(ctx), nil
}

// Delete removes [start, end) and triggers a pass.
func (d *Document) Delete(ctx context.Context, start, end buffer.ByteOffset) (*tracking.Span, error) {
	if d.closed.Load() {
		return nil, ErrDocumentClosed
	}
	if err := d.buf.Delete(start, end); err != nil {
		return nil, errors.Errorf("deleting [%d,%d): %w", start, end, err)
	}
	return d.Retokenize(ctx), nil
}

// Replace swaps [start, end) for text and triggers a pass.
func (d *Document) Replace(ctx context.Context, start, end buffer.ByteOffset, text string) (*tracking.Span, error) {
	if d.closed.Load() {
		return nil, ErrDocumentClosed
	}
	if _, err := d.buf.Replace(start, end, text); err != nil {
		return nil, errors.Errorf("replacing [%d,%d): %w", start, end, err)
	}
	return d.Retokenize(ctx), nil
}

// ApplyEdit applies one structured edit and triggers a pass.
func (d *Document) ApplyEdit(ctx context.Context, edit buffer.Edit) (buffer.EditResult, *tracking.Span, error) {
	if d.closed.Load() {
		return buffer.EditResult{}, nil, ErrDocumentClosed
	}
	result, err := d.buf.ApplyEdit(edit)
	if err != nil {
		return buffer.EditResult{}, nil, errors.Errorf("applying edit: %w", err)
	}
	return result, d.Retokenize(ctx), nil
}

// Await blocks until span's pass publishes. It returns ErrSuperseded
// when a newer edit discarded the pass, which callers treat as "wait
// for the newer handle instead".
func (d *Document) Await(ctx context.Context, span *tracking.Span) error {
	if span == nil {
		return ErrSuperseded
	}
	for {
		d.mu.Lock()
		published := slices.Contains(d.recent, span)
		sig := d.signal
		d.mu.Unlock()

		if published {
			return nil
		}
		if d.closed.Load() {
			return ErrDocumentClosed
		}
		if d.orch.Current() != span {
			return ErrSuperseded
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-sig:
		}
	}
}

// Analyze triggers a pass and waits for its publication. It returns
// ErrSuperseded when a concurrent edit discarded the pass; the newer
// edit's handle is the one to await then.
func (d *Document) Analyze(ctx context.Context) error {
	span := d.Retokenize(ctx)
	if span == nil {
		return ErrDocumentClosed
	}
	return d.Await(ctx, span)
}

// onComplete records a published pass and wakes Await callers.
func (d *Document) onComplete(c analysis.Completion) {
	d.mu.Lock()
	d.recent = append(d.recent, c.Span)
	if len(d.recent) > recentPublished {
		d.recent = d.recent[len(d.recent)-recentPublished:]
	}
	close(d.signal)
	d.signal = make(chan struct{})
	d.mu.Unlock()
}

// Close tears the document down. In-flight passes are discarded via
// handle supersession; waiting Await callers fail.
func (d *Document) Close(ctx context.Context) error {
	if d.closed.Swap(true) {
		return nil
	}

	err := d.orch.Close(ctx)

	d.mu.Lock()
	close(d.signal)
	d.signal = make(chan struct{})
	d.mu.Unlock()

	zerolog.Ctx(ctx).Debug().Str("document", d.id.String()).Msg("document closed")
	return err
}
