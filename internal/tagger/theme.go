package tagger

import "github.com/chargen/poshtools/internal/syntax/classify"

// Color is a terminal palette slot. Zero means the default foreground.
type Color uint8

// Palette colors.
const (
	ColorDefault Color = iota
	ColorBlack
	ColorRed
	ColorGreen
	ColorYellow
	ColorBlue
	ColorMagenta
	ColorCyan
	ColorWhite
	ColorGray
)

// Style is the visual treatment of one classified region.
type Style struct {
	Foreground Color
	Bold       bool
	Italic     bool
	Underline  bool
}

// Theme maps classification categories to styles.
type Theme struct {
	name   string
	styles map[classify.Category]Style
}

// NewTheme builds a theme from a category-style table. Categories
// absent from the table render with the zero style.
func NewTheme(name string, styles map[classify.Category]Style) *Theme {
	return &Theme{name: name, styles: styles}
}

// Name returns the theme name.
func (t *Theme) Name() string {
	return t.name
}

// StyleFor returns the style for a category, falling back to the
// default category's style.
func (t *Theme) StyleFor(c classify.Category) Style {
	if s, ok := t.styles[c]; ok {
		return s
	}
	return t.styles[classify.CategoryDefault]
}

// DefaultTheme is the dark-background default.
func DefaultTheme() *Theme {
	return NewTheme("default", map[classify.Category]Style{
		classify.CategoryDefault:     {},
		classify.CategoryComment:     {Foreground: ColorGreen, Italic: true},
		classify.CategoryKeyword:     {Foreground: ColorBlue, Bold: true},
		classify.CategoryCommand:     {Foreground: ColorYellow},
		classify.CategoryArgument:    {Foreground: ColorWhite},
		classify.CategoryParameter:   {Foreground: ColorGray},
		classify.CategoryVariable:    {Foreground: ColorCyan},
		classify.CategoryNumber:      {Foreground: ColorMagenta},
		classify.CategoryString:      {Foreground: ColorRed},
		classify.CategoryOperator:    {Foreground: ColorGray},
		classify.CategoryPunctuation: {Foreground: ColorGray},
	})
}

// LightTheme suits light backgrounds.
func LightTheme() *Theme {
	return NewTheme("light", map[classify.Category]Style{
		classify.CategoryDefault:     {Foreground: ColorBlack},
		classify.CategoryComment:     {Foreground: ColorGreen, Italic: true},
		classify.CategoryKeyword:     {Foreground: ColorBlue, Bold: true},
		classify.CategoryCommand:     {Foreground: ColorMagenta},
		classify.CategoryArgument:    {Foreground: ColorBlack},
		classify.CategoryParameter:   {Foreground: ColorGray},
		classify.CategoryVariable:    {Foreground: ColorCyan, Bold: true},
		classify.CategoryNumber:      {Foreground: ColorRed},
		classify.CategoryString:      {Foreground: ColorRed},
		classify.CategoryOperator:    {Foreground: ColorGray},
		classify.CategoryPunctuation: {Foreground: ColorGray},
	})
}
