package parser

import (
	"sort"

	"github.com/chargen/poshtools/internal/syntax/token"
)

// ParseDeep runs the full parse over src. It shares the fast parse's
// grammar, then spends the time the per-keystroke path cannot afford:
// extra validation passes over the token stream and supplementary notes
// on the errors. The out-of-process parser peer serves this variant.
func ParseDeep(src string) Result {
	result := parse(src)

	checkInvalidComparisonOperators(&result)
	checkEmptyPipeElements(&result)
	annotate(&result)

	sort.SliceStable(result.Errors, func(i, j int) bool {
		return result.Errors[i].Span.Start < result.Errors[j].Span.Start
	})
	return result
}

// checkInvalidComparisonOperators flags C-style comparison operators,
// which PowerShell does not have.
func checkInvalidComparisonOperators(result *Result) {
	for _, tok := range result.Tokens {
		if tok.Kind != token.KindOperator {
			continue
		}
		var hint string
		switch tok.Text {
		case "==":
			hint = "The equality operator in PowerShell is -eq."
		case "!=":
			hint = "The inequality operator in PowerShell is -ne."
		default:
			continue
		}
		result.Errors = append(result.Errors, Error{
			Span:    tok.Span,
			Code:    CodeUnexpectedToken,
			Message: "Unexpected token '" + tok.Text + "' in expression or statement.",
			Notes:   []string{hint},
		})
	}
}

// checkEmptyPipeElements flags pipelines with a missing element on
// either side of a pipe operator.
func checkEmptyPipeElements(result *Result) {
	prev := token.Token{}
	for _, tok := range result.Tokens {
		if tok.Kind == token.KindComment {
			continue
		}
		if tok.Kind == token.KindOperator && tok.Text == "|" {
			if prev.Kind == token.KindInvalid || prev.Kind.IsSeparator() ||
				(prev.Kind == token.KindOperator && prev.Text == "|") {
				result.Errors = append(result.Errors, Error{
					Span:    tok.Span,
					Code:    CodeEmptyPipeElement,
					Message: "An empty pipe element is not allowed.",
				})
			}
		}
		prev = tok
	}

	if prev.Kind == token.KindOperator && prev.Text == "|" {
		result.Errors = append(result.Errors, Error{
			Span:    prev.Span,
			Code:    CodeEmptyPipeElement,
			Message: "An empty pipe element is not allowed.",
		})
	}
}

// annotate attaches explanatory notes to the fast parse's errors.
func annotate(result *Result) {
	for i := range result.Errors {
		if len(result.Errors[i].Notes) > 0 {
			continue
		}
		switch result.Errors[i].Code {
		case CodeExpectedValueExpression:
			result.Errors[i].Notes = []string{
				"Complete the assignment or remove the operator.",
			}
		case CodeMissingEndCurlyBrace:
			result.Errors[i].Notes = []string{
				"The opening '{' has no matching '}'.",
			}
		case CodeEmptyPipeElement:
			result.Errors[i].Notes = []string{
				"Remove the trailing '|' or add the next pipeline command.",
			}
		}
	}
}
