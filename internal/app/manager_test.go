package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chargen/poshtools/internal/app"
	"github.com/chargen/poshtools/internal/config"
)

func newManager(t *testing.T) *app.Manager {
	t.Helper()

	cfg := config.Default()
	cfg.Remote.Enabled = false

	m, err := app.NewManager(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })
	return m
}

func TestManagerOpenAndGet(t *testing.T) {
	m := newManager(t)
	ctx := context.Background()

	doc, err := m.Open(ctx, "a.ps1", "$x = 1")
	require.NoError(t, err)
	require.Same(t, doc, m.Get("a.ps1"))
	require.Nil(t, m.Get("b.ps1"))

	_, err = m.Open(ctx, "a.ps1", "$x = 2")
	require.ErrorIs(t, err, app.ErrAlreadyOpen)
}

func TestManagerDocumentsAreIndependent(t *testing.T) {
	m := newManager(t)
	ctx := context.Background()

	a, err := m.Open(ctx, "a.ps1", "$x = 1")
	require.NoError(t, err)
	b, err := m.Open(ctx, "b.ps1", "$y = ")
	require.NoError(t, err)

	require.NoError(t, a.Analyze(ctx))
	require.NoError(t, b.Analyze(ctx))

	require.Empty(t, a.Store().Diagnostics())
	require.NotEmpty(t, b.Store().Diagnostics())
}

func TestManagerPaths(t *testing.T) {
	m := newManager(t)
	ctx := context.Background()

	_, err := m.Open(ctx, "b.ps1", "")
	require.NoError(t, err)
	_, err = m.Open(ctx, "a.ps1", "")
	require.NoError(t, err)

	require.Equal(t, []string{"a.ps1", "b.ps1"}, m.Paths())
}

func TestManagerClose(t *testing.T) {
	m := newManager(t)
	ctx := context.Background()

	_, err := m.Open(ctx, "a.ps1", "$x = 1")
	require.NoError(t, err)

	require.NoError(t, m.Close(ctx, "a.ps1"))
	require.Nil(t, m.Get("a.ps1"))
	require.ErrorIs(t, m.Close(ctx, "a.ps1"), app.ErrNotOpen)
}

func TestManagerShutdownClosesDocuments(t *testing.T) {
	m := newManager(t)
	ctx := context.Background()

	doc, err := m.Open(ctx, "a.ps1", "$x = 1")
	require.NoError(t, err)
	require.NoError(t, doc.Analyze(ctx))

	require.NoError(t, m.Shutdown(ctx))

	_, err = doc.Insert(ctx, 0, "a")
	require.ErrorIs(t, err, app.ErrDocumentClosed)
	require.Empty(t, m.Paths())
}
