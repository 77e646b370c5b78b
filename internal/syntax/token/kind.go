package token

// Kind identifies the lexical class of a token.
type Kind uint8

const (
	// KindInvalid is the zero value and never produced by the lexer.
	KindInvalid Kind = iota

	// KindNewline is a line break acting as a statement separator.
	KindNewline

	// KindSemicolon is an explicit statement separator.
	KindSemicolon

	// KindVariable is a variable reference such as $name, ${name} or
	// $scope:name.
	KindVariable

	// KindNumber is a numeric literal, including hex and unit-suffixed
	// forms such as 0x1F and 4kb.
	KindNumber

	// KindString is a single-quoted (literal) string.
	KindString

	// KindStringExpandable is a double-quoted (expandable) string.
	KindStringExpandable

	// KindHereString is a here-string literal, @'..'@ or @".."@.
	KindHereString

	// KindComment is a line comment or a <# .. #> block comment,
	// including #region and #endregion markers.
	KindComment

	// KindKeyword is a reserved language keyword in statement position.
	KindKeyword

	// KindCommand is the leading bare word of a command invocation.
	KindCommand

	// KindArgument is a bare word in argument position.
	KindArgument

	// KindParameter is a command parameter such as -Name.
	KindParameter

	// KindOperator is any operator, including assignment, arithmetic,
	// pipeline, redirection and the -eq comparison family.
	KindOperator

	// KindLBrace and the other bracket kinds are the grouping tokens.
	KindLBrace
	KindRBrace
	KindLParen
	KindRParen
	KindLBracket
	KindRBracket

	// KindError marks source text the lexer could not form a valid
	// token from, such as an unterminated string.
	KindError
)

var kindNames = map[Kind]string{
	KindInvalid:          "Invalid",
	KindNewline:          "Newline",
	KindSemicolon:        "Semicolon",
	KindVariable:         "Variable",
	KindNumber:           "Number",
	KindString:           "String",
	KindStringExpandable: "StringExpandable",
	KindHereString:       "HereString",
	KindComment:          "Comment",
	KindKeyword:          "Keyword",
	KindCommand:          "Command",
	KindArgument:         "Argument",
	KindParameter:        "Parameter",
	KindOperator:         "Operator",
	KindLBrace:           "LBrace",
	KindRBrace:           "RBrace",
	KindLParen:           "LParen",
	KindRParen:           "RParen",
	KindLBracket:         "LBracket",
	KindRBracket:         "RBracket",
	KindError:            "Error",
}

// String returns the kind name.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// IsOpenBracket reports whether the kind opens a bracket pair.
func (k Kind) IsOpenBracket() bool {
	return k == KindLBrace || k == KindLParen || k == KindLBracket
}

// IsCloseBracket reports whether the kind closes a bracket pair.
func (k Kind) IsCloseBracket() bool {
	return k == KindRBrace || k == KindRParen || k == KindRBracket
}

// IsBracket reports whether the kind is any grouping token.
func (k Kind) IsBracket() bool {
	return k.IsOpenBracket() || k.IsCloseBracket()
}

// IsSeparator reports whether the kind terminates a statement.
func (k Kind) IsSeparator() bool {
	return k == KindNewline || k == KindSemicolon
}

// IsStringLiteral reports whether the kind is any string form.
func (k Kind) IsStringLiteral() bool {
	return k == KindString || k == KindStringExpandable || k == KindHereString
}

// Closing returns the closing kind matching an opening bracket kind,
// or KindInvalid when k does not open a pair.
func Closing(k Kind) Kind {
	switch k {
	case KindLBrace:
		return KindRBrace
	case KindLParen:
		return KindRParen
	case KindLBracket:
		return KindRBracket
	default:
		return KindInvalid
	}
}
