package app_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/chargen/poshtools/internal/app"
	"github.com/chargen/poshtools/internal/syntax/parser"
	"github.com/chargen/poshtools/internal/syntax/token"
)

// countingDeep is a deep-parser fake that counts invocations.
type countingDeep struct {
	calls atomic.Int64
	errs  []parser.Error
	fail  error
}

func (c *countingDeep) Errors(context.Context, string) ([]parser.Error, error) {
	c.calls.Add(1)
	if c.fail != nil {
		return nil, c.fail
	}
	return c.errs, nil
}

func openDoc(t *testing.T, content string, opts app.DocumentOptions) *app.Document {
	t.Helper()
	ctx := context.Background()
	doc, err := app.NewDocument(ctx, "test.ps1", content, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = doc.Close(context.Background()) })
	return doc
}

func TestDocumentCleanScriptNeverConsultsDeepParser(t *testing.T) {
	deep := &countingDeep{}
	doc := openDoc(t, "$x = 1", app.DocumentOptions{DeepParser: deep})
	ctx := context.Background()

	require.NoError(t, doc.Analyze(ctx))

	store := doc.Store()
	require.NotNil(t, store.Tree())
	require.Empty(t, store.Diagnostics())
	require.Zero(t, deep.calls.Load(), "clean parse must not query the peer")

	// $x, =, 1 in order, ignoring trivia tokens.
	kinds := make([]token.Kind, 0, 3)
	for _, tok := range store.Tokens() {
		if tok.Kind == token.KindVariable || tok.Kind == token.KindOperator || tok.Kind == token.KindNumber {
			kinds = append(kinds, tok.Kind)
		}
	}
	require.Equal(t, []token.Kind{token.KindVariable, token.KindOperator, token.KindNumber}, kinds)
}

func TestDocumentParseErrorUsesDeepParser(t *testing.T) {
	deep := &countingDeep{
		errs: []parser.Error{{
			Span:    token.NewSpan(3, 5),
			Code:    parser.CodeExpectedValueExpression,
			Message: "expected a value expression",
			Notes:   []string{"from the deep parse"},
		}},
	}
	doc := openDoc(t, "$x = ", app.DocumentOptions{DeepParser: deep})
	ctx := context.Background()

	require.NoError(t, doc.Analyze(ctx))

	diags := doc.Store().Diagnostics()
	require.NotEmpty(t, diags)
	require.Equal(t, parser.CodeExpectedValueExpression, diags[0].Code)
	require.Equal(t, []string{"from the deep parse"}, diags[0].Notes)
	require.Positive(t, deep.calls.Load())
}

func TestDocumentDeepFailureDegradesToFastErrors(t *testing.T) {
	deep := &countingDeep{fail: errors.New("peer unreachable")}
	doc := openDoc(t, "$x = ", app.DocumentOptions{DeepParser: deep})
	ctx := context.Background()

	require.NoError(t, doc.Analyze(ctx))

	diags := doc.Store().Diagnostics()
	require.NotEmpty(t, diags, "fast errors survive a peer failure")
	require.Equal(t, parser.CodeExpectedValueExpression, diags[0].Code)
	require.Empty(t, diags[0].Notes, "fast errors carry no deep-parse notes")
}

func TestDocumentEmptyContent(t *testing.T) {
	doc := openDoc(t, "", app.DocumentOptions{})
	ctx := context.Background()

	require.NoError(t, doc.Analyze(ctx))

	store := doc.Store()
	require.Nil(t, store.Tree())
	require.Empty(t, store.Tokens())
	require.Empty(t, store.Diagnostics())
}

func TestDocumentEditSupersedes(t *testing.T) {
	doc := openDoc(t, "$x = 1", app.DocumentOptions{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	first, err := doc.Insert(ctx, doc.Buffer().Len(), "2")
	require.NoError(t, err)
	second, err := doc.Insert(ctx, doc.Buffer().Len(), "3")
	require.NoError(t, err)

	require.NoError(t, doc.Await(ctx, second))
	require.Equal(t, second.Revision(), doc.Store().Current().Revision,
		"the store reflects the newest edit")

	// The first edit's pass either published before the second began
	// or was discarded; it can never own the store now.
	err = doc.Await(ctx, first)
	if err != nil {
		require.ErrorIs(t, err, app.ErrSuperseded)
	}
	require.Equal(t, second.Revision(), doc.Store().Current().Revision)
}

func TestDocumentNotifiesAllThreeTaggers(t *testing.T) {
	doc := openDoc(t, "function F {\n  $x = 1\n}\n", app.DocumentOptions{})
	ctx := context.Background()

	require.NoError(t, doc.Analyze(ctx))

	require.Positive(t, doc.Highlight().Notifications())
	require.Positive(t, doc.ErrorTags().Notifications())
	require.Positive(t, doc.Outline().Notifications())

	require.NotEmpty(t, doc.Highlight().StylesForLine(0))
	require.NotEmpty(t, doc.Outline().Entries())
}

func TestDocumentClassificationSpansWithinBounds(t *testing.T) {
	doc := openDoc(t, "function Get-Area {\n  param($w, $h)\n  $w * $h\n}\n", app.DocumentOptions{})
	ctx := context.Background()

	require.NoError(t, doc.Analyze(ctx))

	bufLen := uint32(doc.Buffer().Len())
	for _, cs := range doc.Store().Classifications() {
		require.LessOrEqual(t, cs.Range.Start, cs.Range.End)
		require.LessOrEqual(t, cs.Range.End, bufLen)
	}
}

func TestDocumentClosedRefusesOperations(t *testing.T) {
	doc := openDoc(t, "$x = 1", app.DocumentOptions{})
	ctx := context.Background()

	require.NoError(t, doc.Close(ctx))

	_, err := doc.Insert(ctx, 0, "a")
	require.ErrorIs(t, err, app.ErrDocumentClosed)
	require.Nil(t, doc.Retokenize(ctx))
	require.ErrorIs(t, doc.Analyze(ctx), app.ErrDocumentClosed)
}
