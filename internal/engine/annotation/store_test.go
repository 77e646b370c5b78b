package annotation_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chargen/poshtools/internal/diag"
	"github.com/chargen/poshtools/internal/engine/annotation"
	"github.com/chargen/poshtools/internal/engine/buffer"
	"github.com/chargen/poshtools/internal/engine/tracking"
	"github.com/chargen/poshtools/internal/syntax/ast"
	"github.com/chargen/poshtools/internal/syntax/token"
)

func newSpan(t *testing.T, text string) *tracking.Span {
	t.Helper()
	return tracking.NewSpan(buffer.NewBufferFromString(text).Snapshot())
}

func TestNewStoreHoldsSentinel(t *testing.T) {
	s := annotation.NewStore()

	require.NotNil(t, s.Current())
	require.Empty(t, s.Tokens())
	require.Nil(t, s.Tree())
	require.Empty(t, s.Diagnostics())
	require.Empty(t, s.Classifications())
	require.NotNil(t, s.Structure().StartBraces)
	require.Zero(t, s.Current().Revision)
	require.Nil(t, s.InFlight())
}

func TestResetSwapsInSentinel(t *testing.T) {
	s := annotation.NewStore()
	span := newSpan(t, "$x = 1")
	s.Reset(span)

	ok := s.PublishIf(span, &annotation.Bundle{
		Tokens: []token.Token{{Kind: token.KindVariable}},
		Tree:   &ast.Script{},
	})
	require.True(t, ok)
	require.Len(t, s.Tokens(), 1)
	require.NotNil(t, s.Tree())

	next := newSpan(t, "$x = 12")
	s.Reset(next)

	require.Empty(t, s.Tokens())
	require.Nil(t, s.Tree())
	require.Same(t, next, s.InFlight())
}

func TestPublishIfRefusesStaleSpan(t *testing.T) {
	s := annotation.NewStore()
	stale := newSpan(t, "$x = 1")
	s.Reset(stale)

	current := newSpan(t, "$x = 12")
	s.Reset(current)

	ok := s.PublishIf(stale, &annotation.Bundle{Tree: &ast.Script{}})
	require.False(t, ok)
	require.Nil(t, s.Tree(), "refused publish must not touch the store")

	ok = s.PublishIf(current, &annotation.Bundle{Tree: &ast.Script{}})
	require.True(t, ok)
	require.NotNil(t, s.Tree())
}

func TestPublishIfAcceptsAtMostOnce(t *testing.T) {
	s := annotation.NewStore()
	span := newSpan(t, "$x = 1")
	s.Reset(span)

	first := &annotation.Bundle{Diagnostics: []diag.Diagnostic{{Code: "A"}}}
	second := &annotation.Bundle{Diagnostics: []diag.Diagnostic{{Code: "B"}}}

	require.True(t, s.PublishIf(span, first))
	require.False(t, s.PublishIf(span, second))
	require.Equal(t, "A", s.Diagnostics()[0].Code)
}

func TestPublishClearsInFlightSlot(t *testing.T) {
	s := annotation.NewStore()
	span := newSpan(t, "$x = 1")

	s.Reset(span)
	require.Same(t, span, s.InFlight())

	require.True(t, s.PublishIf(span, &annotation.Bundle{}))
	require.Nil(t, s.InFlight())
}

func TestPublishIfIdenticalTextDistinctSpans(t *testing.T) {
	s := annotation.NewStore()

	buf := buffer.NewBufferFromString("$x = 1")
	snap := buf.Snapshot()
	a := tracking.NewSpan(snap)
	b := tracking.NewSpan(snap)

	s.Reset(a)
	s.Reset(b)

	require.False(t, s.PublishIf(a, &annotation.Bundle{}))
	require.True(t, s.PublishIf(b, &annotation.Bundle{}))
}

func TestPublishIfNilArguments(t *testing.T) {
	s := annotation.NewStore()
	span := newSpan(t, "x")
	s.Reset(span)

	require.False(t, s.PublishIf(nil, &annotation.Bundle{}))
	require.False(t, s.PublishIf(span, nil))
	require.Same(t, span, s.InFlight())
}

func TestResetNilRefusesAll(t *testing.T) {
	s := annotation.NewStore()
	span := newSpan(t, "$x = 1")
	s.Reset(span)

	s.Reset(nil)

	require.False(t, s.PublishIf(span, &annotation.Bundle{}))
	require.Nil(t, s.InFlight())
}

func TestEmptyBundle(t *testing.T) {
	span := newSpan(t, "")
	b := annotation.EmptyBundle(span.Revision())

	require.Empty(t, b.Tokens)
	require.Nil(t, b.Tree)
	require.Empty(t, b.Diagnostics)
	require.NotNil(t, b.Structure.StartBraces)
	require.Equal(t, span.Revision(), b.Revision)
}

func TestRegionCacheClearedOnPassBoundaries(t *testing.T) {
	s := annotation.NewStore()
	span := newSpan(t, "$x = 1")
	s.Reset(span)

	s.SetRegionCache([]string{"tag"})
	require.Equal(t, []string{"tag"}, s.RegionCache())

	require.True(t, s.PublishIf(span, &annotation.Bundle{}))
	require.Nil(t, s.RegionCache(), "publish clears the cache")

	s.SetRegionCache("again")
	next := newSpan(t, "$x = 2")
	s.Reset(next)
	require.Nil(t, s.RegionCache(), "reset clears the cache")
}
