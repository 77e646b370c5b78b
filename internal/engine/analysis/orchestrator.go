package analysis

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/chargen/poshtools/internal/engine/annotation"
	"github.com/chargen/poshtools/internal/engine/buffer"
	"github.com/chargen/poshtools/internal/engine/tracking"
	"github.com/chargen/poshtools/internal/syntax/ast"
)

// Completion describes one published pass. Exactly one completion is
// delivered per pass that survives to publication.
type Completion struct {
	// Span is the pass's identity handle.
	Span *tracking.Span

	// Tree is the published parse tree, nil for empty content.
	Tree *ast.Script

	// Bundle is the published artifact set.
	Bundle *annotation.Bundle

	// Duration is the wall time from dispatch to publication. Zero
	// for the synchronous empty-content path.
	Duration time.Duration
}

// CompletionHandler observes published passes. Handlers run on the
// publishing goroutine and should return quickly.
type CompletionHandler func(Completion)

// Orchestrator owns the re-analysis pipeline of one buffer: every
// content change mints a fresh tracking span, resets the annotation
// store to sentinels, and dispatches a background pass. Results are
// only accepted from the span that is still current at publish time;
// superseded passes are discarded without observable effect.
type Orchestrator struct {
	store    *annotation.Store
	registry *Registry

	pool    *Pool
	ownPool bool

	analyzer    Analyzer
	classifier  Classifier
	diagnostics DiagnosticsResolver
	structure   StructureResolver

	handlers []CompletionHandler

	// mu serializes triggers and teardown so the current handle and
	// the store's in-flight slot always move together. Workers never
	// take it; they gate on identity alone.
	mu      sync.Mutex
	current atomic.Pointer[tracking.Span]
	closed  atomic.Bool
}

// New creates an orchestrator and starts its worker pool. When a
// shared pool is supplied via WithPool, the caller owns that pool's
// lifecycle.
func New(opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{
		store:       annotation.NewStore(),
		registry:    NewRegistry(),
		analyzer:    fastAnalyzer{},
		classifier:  classifierDefault(),
		diagnostics: diagnosticsDefault(),
		structure:   structureDefault(),
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.pool == nil {
		o.pool = NewPool()
		o.ownPool = true
	}
	if o.ownPool {
		if err := o.pool.Start(); err != nil {
			return nil, err
		}
	}

	return o, nil
}

// Store returns the annotation store readers consume from.
func (o *Orchestrator) Store() *annotation.Store {
	return o.store
}

// Registry returns the consumer registry.
func (o *Orchestrator) Registry() *Registry {
	return o.registry
}

// Current returns the handle of the most recently started pass, nil
// before the first pass or after Close.
func (o *Orchestrator) Current() *tracking.Span {
	return o.current.Load()
}

// Stats returns the worker pool statistics.
func (o *Orchestrator) Stats() PoolStats {
	return o.pool.Stats()
}

// Retokenize starts a new analysis pass over the snapshot and returns
// its handle without waiting for completion. Any in-flight pass is
// superseded immediately: its results will be discarded when it tries
// to publish.
//
// Empty content is handled synchronously: sentinel artifacts are
// published, the completion event fires with a nil tree, and no
// background work or consumer notification happens.
//
// Concurrent triggers are serialized: the new handle and the store's
// in-flight slot always change as one step, so whichever trigger runs
// last owns both and its pass can publish.
//
// After Close, Retokenize is a no-op returning nil.
func (o *Orchestrator) Retokenize(ctx context.Context, snap *buffer.Snapshot) *tracking.Span {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed.Load() {
		return nil
	}

	span := tracking.NewSpan(snap)
	o.current.Store(span)
	o.store.Reset(span)

	log := zerolog.Ctx(ctx)

	if snap.IsEmpty() {
		bundle := annotation.EmptyBundle(span.Revision())
		if o.store.PublishIf(span, bundle) {
			log.Debug().Str("span", span.ID()).Msg("empty content, published sentinels")
			o.complete(Completion{Span: span, Bundle: bundle})
		}
		return span
	}

	// The pass must outlive the producer's call context; staleness is
	// handled by the identity gate, not by cancellation.
	passCtx := context.WithoutCancel(ctx)
	err := o.pool.Enqueue(passCtx, func(ctx context.Context) {
		o.runPass(ctx, span)
	})
	if err != nil {
		log.Warn().Err(err).Str("span", span.ID()).Msg("pool refused pass, running unpooled")
		go o.runPass(passCtx, span)
	}

	return span
}

// runPass executes one analysis pass. Every side effect is gated on
// the span still being current at the moment of that effect.
func (o *Orchestrator) runPass(ctx context.Context, span *tracking.Span) {
	log := zerolog.Ctx(ctx).With().Str("span", span.ID()).Logger()
	start := time.Now()

	if o.current.Load() != span {
		log.Debug().Msg("pass superseded before start")
		return
	}

	text := span.Text()
	result := o.analyzer.Analyze(ctx, text)

	// Re-check before the diagnostics resolver, which may consult the
	// out-of-process parser.
	if o.current.Load() != span {
		log.Debug().Dur("elapsed", time.Since(start)).Msg("pass superseded after parse")
		return
	}

	const base = 0
	bundle := &annotation.Bundle{
		Tokens:          result.Tokens,
		Tree:            result.Tree,
		Classifications: o.classifier.Classify(result.Tokens, base),
		Diagnostics:     o.diagnostics.Resolve(ctx, text, base, result.Errors),
		Structure:       o.structure.Resolve(text, base, result.Tokens),
		Revision:        span.Revision(),
	}

	if !o.store.PublishIf(span, bundle) {
		log.Debug().Dur("elapsed", time.Since(start)).Msg("pass superseded at publish")
		return
	}

	elapsed := time.Since(start)
	log.Debug().
		Dur("elapsed", elapsed).
		Int("tokens", len(bundle.Tokens)).
		Int("diagnostics", len(bundle.Diagnostics)).
		Msg("pass published")

	o.complete(Completion{
		Span:     span,
		Tree:     result.Tree,
		Bundle:   bundle,
		Duration: elapsed,
	})

	// Notify with the extent re-resolved against the newest handle's
	// snapshot, clamping when an edit raced in after publication.
	extent := span.Extent()
	if cur := o.current.Load(); cur != nil {
		extent = span.Resolve(cur.Snapshot())
	}
	o.registry.Notify(extent)
}

// complete delivers the completion event, unless the orchestrator was
// torn down mid-pass.
func (o *Orchestrator) complete(c Completion) {
	if o.closed.Load() {
		return
	}
	for _, h := range o.handlers {
		h(c)
	}
}

// Close tears the orchestrator down. In-flight passes keep running
// but can no longer publish or notify. Close is idempotent.
func (o *Orchestrator) Close(ctx context.Context) error {
	o.mu.Lock()
	if !o.closed.CompareAndSwap(false, true) {
		o.mu.Unlock()
		return nil
	}

	o.current.Store(nil)
	o.store.Reset(nil)
	o.mu.Unlock()

	if o.ownPool {
		return o.pool.Stop(ctx)
	}
	return nil
}
