package app

import (
	"context"
	"sort"
	"sync"

	"gitlab.com/tozd/go/errors"

	"github.com/chargen/poshtools/internal/config"
	"github.com/chargen/poshtools/internal/diag"
	"github.com/chargen/poshtools/internal/engine/analysis"
	"github.com/chargen/poshtools/internal/remote"
	"github.com/chargen/poshtools/internal/tagger"
)

// Errors returned by the manager.
var (
	ErrAlreadyOpen = errors.New("document already open")
	ErrNotOpen     = errors.New("document not open")
)

// Manager tracks open documents. All documents share one worker pool
// sized from configuration and, when enabled, one out-of-process
// parser peer. Documents stay independent otherwise: no coordination
// happens between their analysis passes.
type Manager struct {
	pool  *analysis.Pool
	deep  diag.DeepParser
	peer  *remote.Client
	theme *tagger.Theme

	mu   sync.RWMutex
	docs map[string]*Document
}

// NewManager builds a manager from configuration and starts the shared
// pool.
func NewManager(cfg config.Config) (*Manager, error) {
	pool := analysis.NewPool(
		analysis.WithWorkerCount(cfg.Engine.Workers),
		analysis.WithQueueSize(cfg.Engine.Queue),
	)
	if err := pool.Start(); err != nil {
		return nil, errors.Errorf("starting worker pool: %w", err)
	}

	m := &Manager{
		pool:  pool,
		theme: tagger.DefaultTheme(),
		docs:  make(map[string]*Document),
	}

	if cfg.Remote.Enabled {
		clientCfg := remote.DefaultClientConfig()
		clientCfg.Command = cfg.Remote.Command
		clientCfg.CallTimeout = cfg.Remote.Timeout.Std()
		clientCfg.MaxRestarts = cfg.Remote.MaxRestarts
		m.peer = remote.NewClient(clientCfg)
		m.deep = m.peer
	}

	return m, nil
}

// Open opens a document for path over content.
func (m *Manager) Open(ctx context.Context, path, content string) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[path]; ok {
		return nil, errors.Errorf("%w: %s", ErrAlreadyOpen, path)
	}

	doc, err := NewDocument(ctx, path, content, DocumentOptions{
		Pool:       m.pool,
		DeepParser: m.deep,
		Theme:      m.theme,
	})
	if err != nil {
		return nil, errors.Errorf("opening %s: %w", path, err)
	}

	m.docs[path] = doc
	return doc, nil
}

// Get returns the open document for path, or nil.
func (m *Manager) Get(path string) *Document {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.docs[path]
}

// Paths returns the open document paths, sorted.
func (m *Manager) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	paths := make([]string, 0, len(m.docs))
	for p := range m.docs {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Close closes one document.
func (m *Manager) Close(ctx context.Context, path string) error {
	m.mu.Lock()
	doc, ok := m.docs[path]
	delete(m.docs, path)
	m.mu.Unlock()

	if !ok {
		return errors.Errorf("%w: %s", ErrNotOpen, path)
	}
	return doc.Close(ctx)
}

// Shutdown closes every document, the shared pool, and the parser
// peer.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	docs := make([]*Document, 0, len(m.docs))
	for _, d := range m.docs {
		docs = append(docs, d)
	}
	m.docs = make(map[string]*Document)
	m.mu.Unlock()

	var firstErr error
	for _, d := range docs {
		if err := d.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if err := m.pool.Stop(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	if m.peer != nil {
		if err := m.peer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
