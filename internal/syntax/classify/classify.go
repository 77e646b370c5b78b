// Package classify derives classification spans from a token stream.
// Classification is what the highlighting consumer renders: a category
// per colored region, in buffer-absolute coordinates.
package classify

import "github.com/chargen/poshtools/internal/syntax/token"

// Category is the visual class of a classified region.
type Category uint8

const (
	// CategoryDefault renders as plain text.
	CategoryDefault Category = iota
	CategoryComment
	CategoryKeyword
	CategoryCommand
	CategoryArgument
	CategoryParameter
	CategoryVariable
	CategoryNumber
	CategoryString
	CategoryOperator
	CategoryPunctuation
)

var categoryNames = map[Category]string{
	CategoryDefault:     "default",
	CategoryComment:     "comment",
	CategoryKeyword:     "keyword",
	CategoryCommand:     "command",
	CategoryArgument:    "argument",
	CategoryParameter:   "parameter",
	CategoryVariable:    "variable",
	CategoryNumber:      "number",
	CategoryString:      "string",
	CategoryOperator:    "operator",
	CategoryPunctuation: "punctuation",
}

// String returns the category name used in themes and logs.
func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "default"
}

// Span is one classified region in buffer-absolute coordinates.
type Span struct {
	// Range locates the region.
	Range token.Span

	// Category is the visual class.
	Category Category
}

// kindCategories maps token kinds to their categories. Kinds absent
// from the map produce no span.
var kindCategories = map[token.Kind]Category{
	token.KindComment:          CategoryComment,
	token.KindKeyword:          CategoryKeyword,
	token.KindCommand:          CategoryCommand,
	token.KindArgument:         CategoryArgument,
	token.KindParameter:        CategoryParameter,
	token.KindVariable:         CategoryVariable,
	token.KindNumber:           CategoryNumber,
	token.KindString:           CategoryString,
	token.KindStringExpandable: CategoryString,
	token.KindHereString:       CategoryString,
	token.KindOperator:         CategoryOperator,
	token.KindSemicolon:        CategoryPunctuation,
	token.KindLBrace:           CategoryPunctuation,
	token.KindRBrace:           CategoryPunctuation,
	token.KindLParen:           CategoryPunctuation,
	token.KindRParen:           CategoryPunctuation,
	token.KindLBracket:         CategoryPunctuation,
	token.KindRBracket:         CategoryPunctuation,
	token.KindError:            CategoryDefault,
}

// Rules is the default classifier. It is stateless: concurrent passes
// may share one value.
type Rules struct{}

// NewRules returns the default classification rule set.
func NewRules() Rules { return Rules{} }

// Classify maps tokens to classification spans, translating the
// token-relative offsets into buffer-absolute coordinates by adding
// base. The result preserves token order.
func (Rules) Classify(tokens []token.Token, base uint32) []Span {
	spans := make([]Span, 0, len(tokens))
	for _, tok := range tokens {
		category, ok := kindCategories[tok.Kind]
		if !ok || tok.Span.Empty() {
			continue
		}
		spans = append(spans, Span{
			Range:    tok.Span.Shift(base),
			Category: category,
		})
	}
	return spans
}
