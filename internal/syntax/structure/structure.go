// Package structure derives brace-match tables and foldable regions
// from a token stream. Both artifacts are position-keyed in
// buffer-absolute coordinates and published with every analysis pass.
package structure

import (
	"sort"
	"strings"

	"github.com/chargen/poshtools/internal/syntax/token"
)

// RegionKind classifies a foldable region.
type RegionKind uint8

const (
	// RegionBlock is a multi-line { } statement block.
	RegionBlock RegionKind = iota

	// RegionComment is a multi-line <# #> comment.
	RegionComment

	// RegionNamed is a #region/#endregion pair.
	RegionNamed
)

// String returns the kind name.
func (k RegionKind) String() string {
	switch k {
	case RegionBlock:
		return "block"
	case RegionComment:
		return "comment"
	case RegionNamed:
		return "region"
	default:
		return "unknown"
	}
}

// Region is one foldable source range.
type Region struct {
	// Span covers the full collapsible range.
	Span token.Span

	// Kind classifies the region.
	Kind RegionKind

	// Label is the collapsed-form caption. Named regions carry the
	// text after #region; other kinds leave it empty.
	Label string
}

// Result holds the structure artifacts of one pass.
type Result struct {
	// StartBraces maps an opening bracket position to its matching
	// closing position.
	StartBraces map[uint32]uint32

	// EndBraces is the inverse of StartBraces.
	EndBraces map[uint32]uint32

	// Regions holds the foldable regions ordered by start position,
	// outermost first on ties.
	Regions []Region
}

// Resolver computes structure artifacts. It is stateless.
type Resolver struct{}

// NewResolver returns the default structure resolver.
func NewResolver() Resolver { return Resolver{} }

// Resolve matches brackets and collects foldable regions over one
// snapshot. base translates token-relative offsets into buffer-absolute
// coordinates.
func (Resolver) Resolve(text string, base uint32, tokens []token.Token) Result {
	result := Result{
		StartBraces: make(map[uint32]uint32),
		EndBraces:   make(map[uint32]uint32),
	}

	lines := lineIndex(text)

	type openBracket struct {
		tok token.Token
	}
	var brackets []openBracket

	type openRegion struct {
		start token.Span
		label string
	}
	var regions []openRegion

	for _, tok := range tokens {
		switch {
		case tok.Kind.IsOpenBracket():
			brackets = append(brackets, openBracket{tok: tok})

		case tok.Kind.IsCloseBracket():
			if len(brackets) == 0 {
				continue
			}
			top := brackets[len(brackets)-1]
			if token.Closing(top.tok.Kind) != tok.Kind {
				// Mismatched close; leave both unmatched.
				continue
			}
			brackets = brackets[:len(brackets)-1]

			openPos := top.tok.Span.Start + base
			closePos := tok.Span.Start + base
			result.StartBraces[openPos] = closePos
			result.EndBraces[closePos] = openPos

			if top.tok.Kind == token.KindLBrace &&
				lines.lineOf(top.tok.Span.Start) < lines.lineOf(tok.Span.Start) {
				result.Regions = append(result.Regions, Region{
					Span: token.NewSpan(top.tok.Span.Start, tok.Span.End).Shift(base),
					Kind: RegionBlock,
				})
			}

		case tok.Kind == token.KindComment:
			trimmed := strings.TrimSpace(tok.Text)
			switch {
			case strings.HasPrefix(trimmed, "<#"):
				if lines.lineOf(tok.Span.Start) < lines.lineOf(tok.Span.End-1) {
					result.Regions = append(result.Regions, Region{
						Span: tok.Span.Shift(base),
						Kind: RegionComment,
					})
				}
			case isRegionStart(trimmed):
				label := strings.TrimSpace(trimmed[len("#region"):])
				regions = append(regions, openRegion{start: tok.Span, label: label})
			case isRegionEnd(trimmed):
				if len(regions) == 0 {
					continue
				}
				open := regions[len(regions)-1]
				regions = regions[:len(regions)-1]
				result.Regions = append(result.Regions, Region{
					Span:  token.NewSpan(open.start.Start, tok.Span.End).Shift(base),
					Kind:  RegionNamed,
					Label: open.label,
				})
			}
		}
	}

	sort.SliceStable(result.Regions, func(i, j int) bool {
		a, b := result.Regions[i], result.Regions[j]
		if a.Span.Start != b.Span.Start {
			return a.Span.Start < b.Span.Start
		}
		return a.Span.End > b.Span.End
	})
	return result
}

func isRegionStart(comment string) bool {
	if !strings.HasPrefix(comment, "#region") {
		return false
	}
	rest := comment[len("#region"):]
	return rest == "" || rest[0] == ' ' || rest[0] == '\t'
}

func isRegionEnd(comment string) bool {
	return comment == "#endregion" ||
		strings.HasPrefix(comment, "#endregion ") ||
		strings.HasPrefix(comment, "#endregion\t")
}

// lineStarts indexes the start offset of each line for line lookups.
type lineStarts []uint32

func lineIndex(text string) lineStarts {
	starts := lineStarts{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, uint32(i+1))
		}
	}
	return starts
}

// lineOf returns the zero-based line containing the offset.
func (ls lineStarts) lineOf(offset uint32) int {
	return sort.Search(len(ls), func(i int) bool {
		return ls[i] > offset
	}) - 1
}
