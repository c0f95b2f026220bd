package formula

import (
	"fmt"
	"strings"
)

// ParseErrorKind classifies parser failures.
type ParseErrorKind int

const (
	ErrUnexpectedToken ParseErrorKind = iota
	ErrUnmatchedParenthesis
	ErrMissingToken
	ErrEmptyArgument
	ErrMalformedNamedArgument
	ErrBareIdentifier
	ErrTrailingOperator
)

// ParseError is a single parse failure with enough context for an
// interactive editor to underline the offending span and suggest a
// fix.
type ParseError struct {
	Kind        ParseErrorKind
	Message     string
	Pos         Position
	Token       string
	Expected    []string
	Suggestions []string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("[%s] %s", e.kindName(), e.Message))
	builder.WriteString(fmt.Sprintf(" at line %d, column %d", e.Pos.Line, e.Pos.Column))

	if e.Token != "" {
		builder.WriteString(fmt.Sprintf(" (found '%s')", e.Token))
	}
	if len(e.Expected) > 0 {
		builder.WriteString(fmt.Sprintf(", expected: %s", strings.Join(e.Expected, ", ")))
	}
	if len(e.Suggestions) > 0 {
		builder.WriteString(fmt.Sprintf("\nSuggestions: %s", strings.Join(e.Suggestions, "; ")))
	}

	return builder.String()
}

// Code returns the stable diagnostic code for the error kind, as
// serialized in compile responses.
func (e *ParseError) Code() string {
	switch e.Kind {
	case ErrUnexpectedToken:
		return "UnexpectedToken"
	case ErrUnmatchedParenthesis:
		return "UnmatchedParenthesis"
	case ErrMissingToken:
		return "MissingToken"
	case ErrEmptyArgument:
		return "EmptyArgument"
	case ErrMalformedNamedArgument:
		return "MalformedNamedArgument"
	case ErrBareIdentifier:
		return "BareIdentifier"
	case ErrTrailingOperator:
		return "TrailingOperator"
	default:
		return "SyntaxError"
	}
}

func (e *ParseError) kindName() string {
	switch e.Kind {
	case ErrUnexpectedToken:
		return "UNEXPECTED_TOKEN"
	case ErrUnmatchedParenthesis:
		return "UNMATCHED_PARENTHESIS"
	case ErrMissingToken:
		return "MISSING_TOKEN"
	case ErrEmptyArgument:
		return "EMPTY_ARGUMENT"
	case ErrMalformedNamedArgument:
		return "MALFORMED_NAMED_ARGUMENT"
	case ErrBareIdentifier:
		return "BARE_IDENTIFIER"
	case ErrTrailingOperator:
		return "TRAILING_OPERATOR"
	default:
		return "SYNTAX_ERROR"
	}
}

// newParseError constructs a ParseError with generated suggestions.
func newParseError(kind ParseErrorKind, message string, pos Position, token string, expected []string) *ParseError {
	return &ParseError{
		Kind:        kind,
		Message:     message,
		Pos:         pos,
		Token:       token,
		Expected:    expected,
		Suggestions: generateSuggestions(token, expected),
	}
}

// generateSuggestions builds hints from the expected-token list and
// common mistake patterns.
func generateSuggestions(found string, expected []string) []string {
	suggestions := make([]string, 0)

	if len(expected) > 0 && found != "" {
		suggestions = append(suggestions, fmt.Sprintf("Try using '%s' instead of '%s'", expected[0], found))
	}

	switch found {
	case "=":
		suggestions = append(suggestions, "Use '==' for comparison; '=' only separates named arguments")
	case "&":
		suggestions = append(suggestions, "Use '&&' for logical AND")
	case "|":
		suggestions = append(suggestions, "Use '||' for logical OR")
	}

	return suggestions
}

// FormatErrorContext renders a window of the source around position
// with a caret pointing at the offending column.
func FormatErrorContext(input string, pos Position, contextLength int) string {
	position := pos.Offset
	if position < 0 || position > len(input) {
		return ""
	}

	start := position - contextLength
	if start < 0 {
		start = 0
	}

	end := position + contextLength
	if end > len(input) {
		end = len(input)
	}

	context := input[start:end]
	pointer := strings.Repeat(" ", position-start) + "^"

	return fmt.Sprintf("%s\n%s", context, pointer)
}
