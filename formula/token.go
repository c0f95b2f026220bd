package formula

// TokenKind classifies a lexical token.
type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenIdentifier
	TokenNumber
	TokenString
	TokenOperator
	TokenPunct
	TokenKeyword
)

// String returns string representation of the token kind
func (k TokenKind) String() string {
	switch k {
	case TokenEOF:
		return "EOF"
	case TokenIdentifier:
		return "IDENTIFIER"
	case TokenNumber:
		return "NUMBER"
	case TokenString:
		return "STRING"
	case TokenOperator:
		return "OPERATOR"
	case TokenPunct:
		return "PUNCTUATION"
	case TokenKeyword:
		return "KEYWORD"
	default:
		return "UNKNOWN"
	}
}

// Position is a location in the formula source. Offset is 0-based,
// Line and Column are 1-based.
type Position struct {
	Offset int
	Line   int
	Column int
}

// Token is a single lexical unit. Tokens are immutable; the lexer
// produces the whole stream once per compilation.
type Token struct {
	Kind TokenKind
	Text string
	Pos  Position
}

// keywords maps reserved words to themselves. The formula language has
// no statement keywords; only boolean literals are reserved.
var keywords = map[string]bool{
	"true":  true,
	"false": true,
}

// IsKeyword reports whether ident is a reserved word.
func IsKeyword(ident string) bool {
	return keywords[ident]
}
