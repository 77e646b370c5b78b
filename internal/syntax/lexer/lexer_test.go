package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chargen/poshtools/internal/syntax/lexer"
	"github.com/chargen/poshtools/internal/syntax/token"
)

func kinds(tokens []token.Token) []token.Kind {
	out := make([]token.Kind, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Kind
	}
	return out
}

func TestScanSimpleAssignment(t *testing.T) {
	tokens, errs := lexer.Scan("$x = 1")

	require.Empty(t, errs)
	require.Equal(t, []token.Kind{
		token.KindVariable,
		token.KindOperator,
		token.KindNumber,
	}, kinds(tokens))
	require.Equal(t, "$x", tokens[0].Text)
	require.Equal(t, "=", tokens[1].Text)
	require.Equal(t, "1", tokens[2].Text)
	require.Equal(t, token.NewSpan(0, 2), tokens[0].Span)
	require.Equal(t, token.NewSpan(5, 6), tokens[2].Span)
}

func TestScanIncompleteAssignment(t *testing.T) {
	tokens, errs := lexer.Scan("$x = ")

	require.Empty(t, errs)
	require.Equal(t, []token.Kind{
		token.KindVariable,
		token.KindOperator,
	}, kinds(tokens))
}

func TestScanCommandPosition(t *testing.T) {
	tokens, errs := lexer.Scan("Get-ChildItem -Path $dir | Select-Object Name")

	require.Empty(t, errs)
	require.Equal(t, []token.Kind{
		token.KindCommand,   // Get-ChildItem
		token.KindParameter, // -Path
		token.KindVariable,  // $dir
		token.KindOperator,  // |
		token.KindCommand,   // Select-Object
		token.KindArgument,  // Name
	}, kinds(tokens))
}

func TestScanKeywords(t *testing.T) {
	tokens, errs := lexer.Scan("if ($x -eq 1) { return $x } else { throw foo }")

	require.Empty(t, errs)
	require.Equal(t, []token.Kind{
		token.KindKeyword,  // if
		token.KindLParen,   // (
		token.KindVariable, // $x
		token.KindOperator, // -eq
		token.KindNumber,   // 1
		token.KindRParen,   // )
		token.KindLBrace,   // {
		token.KindKeyword,  // return
		token.KindVariable, // $x
		token.KindRBrace,   // }
		token.KindKeyword,  // else
		token.KindLBrace,   // {
		token.KindKeyword,  // throw
		token.KindCommand,  // foo
		token.KindRBrace,   // }
	}, kinds(tokens))
}

func TestScanForeachIn(t *testing.T) {
	tokens, errs := lexer.Scan("foreach ($f in $files) { }")

	require.Empty(t, errs)
	require.Equal(t, token.KindKeyword, tokens[0].Kind)
	require.Equal(t, token.KindKeyword, tokens[3].Kind)
	require.Equal(t, "in", tokens[3].Text)
}

func TestScanStrings(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind token.Kind
	}{
		{name: "single quoted", src: "'hello'", kind: token.KindString},
		{name: "double quoted", src: `"hello $name"`, kind: token.KindStringExpandable},
		{name: "doubled quote escape", src: "'it''s'", kind: token.KindString},
		{name: "backtick escape", src: "\"a`\"b\"", kind: token.KindStringExpandable},
		{name: "multiline", src: "'line1\nline2'", kind: token.KindString},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, errs := lexer.Scan(tt.src)
			require.Empty(t, errs)
			require.Len(t, tokens, 1)
			require.Equal(t, tt.kind, tokens[0].Kind)
			require.Equal(t, tt.src, tokens[0].Text)
		})
	}
}

func TestScanHereString(t *testing.T) {
	src := "@'\nsome text\n'@"
	tokens, errs := lexer.Scan(src)

	require.Empty(t, errs)
	require.Len(t, tokens, 1)
	require.Equal(t, token.KindHereString, tokens[0].Kind)
	require.Equal(t, src, tokens[0].Text)
}

func TestScanUnterminatedString(t *testing.T) {
	tokens, errs := lexer.Scan("$x = 'oops")

	require.Len(t, errs, 1)
	require.Equal(t, lexer.CodeTerminatorExpectedAtEndOfString, errs[0].Code)
	require.Equal(t, token.KindError, tokens[len(tokens)-1].Kind)
}

func TestScanUnterminatedBlockComment(t *testing.T) {
	_, errs := lexer.Scan("<# never closed")

	require.Len(t, errs, 1)
	require.Equal(t, lexer.CodeMissingTerminatorMultiLineComment, errs[0].Code)
}

func TestScanComments(t *testing.T) {
	tokens, errs := lexer.Scan("# a comment\n<# block\ncomment #>\n#region setup")

	require.Empty(t, errs)
	var comments []string
	for _, tok := range tokens {
		if tok.Kind == token.KindComment {
			comments = append(comments, tok.Text)
		}
	}
	require.Equal(t, []string{
		"# a comment",
		"<# block\ncomment #>",
		"#region setup",
	}, comments)
}

func TestScanNumbers(t *testing.T) {
	tests := []struct {
		src  string
		text string
	}{
		{src: "42", text: "42"},
		{src: "3.14", text: "3.14"},
		{src: "0x1F", text: "0x1F"},
		{src: "4kb", text: "4kb"},
		{src: "2MB", text: "2MB"},
		{src: "1e5", text: "1e5"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			tokens, errs := lexer.Scan(tt.src)
			require.Empty(t, errs)
			require.Len(t, tokens, 1)
			require.Equal(t, token.KindNumber, tokens[0].Kind)
			require.Equal(t, tt.text, tokens[0].Text)
		})
	}
}

func TestScanNegativeNumber(t *testing.T) {
	tokens, errs := lexer.Scan("$x = -5")

	require.Empty(t, errs)
	require.Equal(t, []token.Kind{
		token.KindVariable,
		token.KindOperator,
		token.KindNumber,
	}, kinds(tokens))
	require.Equal(t, "-5", tokens[2].Text)
}

func TestScanVariables(t *testing.T) {
	tests := []struct {
		src  string
		text string
	}{
		{src: "$name", text: "$name"},
		{src: "${a b}", text: "${a b}"},
		{src: "$global:x", text: "$global:x"},
		{src: "$env:PATH", text: "$env:PATH"},
		{src: "$?", text: "$?"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			tokens, errs := lexer.Scan(tt.src)
			require.Empty(t, errs)
			require.Len(t, tokens, 1)
			require.Equal(t, token.KindVariable, tokens[0].Kind)
			require.Equal(t, tt.text, tokens[0].Text)
		})
	}
}

func TestScanUnterminatedBracedVariable(t *testing.T) {
	_, errs := lexer.Scan("${never")

	require.Len(t, errs, 1)
	require.Equal(t, lexer.CodeMissingEndCurlyBraceInVariable, errs[0].Code)
}

func TestScanNewlinesSeparateStatements(t *testing.T) {
	tokens, errs := lexer.Scan("$a = 1\n$b = 2")

	require.Empty(t, errs)
	require.Equal(t, []token.Kind{
		token.KindVariable, token.KindOperator, token.KindNumber,
		token.KindNewline,
		token.KindVariable, token.KindOperator, token.KindNumber,
	}, kinds(tokens))
}

func TestScanLineContinuation(t *testing.T) {
	tokens, errs := lexer.Scan("Get-Item `\n  -Path $p")

	require.Empty(t, errs)
	for _, tok := range tokens {
		require.NotEqual(t, token.KindNewline, tok.Kind,
			"continuation must swallow the line break")
	}
}

func TestScanDoubleEquals(t *testing.T) {
	tokens, errs := lexer.Scan("$x == 1")

	require.Empty(t, errs)
	require.Equal(t, []token.Kind{
		token.KindVariable,
		token.KindOperator,
		token.KindNumber,
	}, kinds(tokens))
	require.Equal(t, "==", tokens[1].Text)
}

func TestScanEmpty(t *testing.T) {
	tokens, errs := lexer.Scan("")

	require.Empty(t, tokens)
	require.Empty(t, errs)
}
