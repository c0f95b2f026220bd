package formula

import (
	"fmt"
)

// MaxFormulaLength is the default ceiling on formula text length.
// Inputs longer than this are rejected before any scanning happens, so
// the worst-case cost of tokenizing adversarial input stays bounded.
const MaxFormulaLength = 10000

// LexErrorKind classifies lexer failures.
type LexErrorKind int

const (
	LexTooLong LexErrorKind = iota
	LexUnterminatedString
	LexIllegalChar
	LexMalformedNumber
)

// LexError is a failure produced while scanning formula text.
type LexError struct {
	Kind    LexErrorKind
	Message string
	Pos     Position
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%s at line %d, column %d", e.Message, e.Pos.Line, e.Pos.Column)
}

// Code returns the stable diagnostic code for the error kind, as
// serialized in compile responses.
func (e *LexError) Code() string {
	switch e.Kind {
	case LexTooLong:
		return "TooLong"
	case LexUnterminatedString:
		return "UnterminatedString"
	case LexMalformedNumber:
		return "MalformedNumber"
	default:
		return "IllegalCharacter"
	}
}

// Lexer scans formula text into a flat token stream.
type Lexer struct {
	input     string
	pos       int
	readPos   int
	ch        byte
	line      int
	column    int
	maxLength int
}

// NewLexer creates a lexer over input with the default length ceiling.
func NewLexer(input string) *Lexer {
	return NewLexerWithLimit(input, MaxFormulaLength)
}

// NewLexerWithLimit creates a lexer with a custom length ceiling.
func NewLexerWithLimit(input string, maxLength int) *Lexer {
	l := &Lexer{input: input, line: 1, column: 0, maxLength: maxLength}
	l.readChar()
	return l
}

// Tokenize scans the whole input and returns the token stream,
// terminated by an EOF token. The length ceiling is enforced before
// any character is examined.
func Tokenize(input string) ([]Token, *LexError) {
	return NewLexer(input).Tokenize()
}

// Tokenize scans the remaining input into a token slice.
func (l *Lexer) Tokenize() ([]Token, *LexError) {
	if len(l.input) > l.maxLength {
		return nil, &LexError{
			Kind:    LexTooLong,
			Message: fmt.Sprintf("formula length %d exceeds maximum of %d characters", len(l.input), l.maxLength),
			Pos:     Position{Offset: 0, Line: 1, Column: 1},
		}
	}

	var tokens []Token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == TokenEOF {
			return tokens, nil
		}
	}
}

// next scans and returns the next token.
func (l *Lexer) next() (Token, *LexError) {
	l.skipWhitespace()

	pos := l.currentPos()

	switch l.ch {
	case 0:
		return Token{Kind: TokenEOF, Pos: pos}, nil
	case '(', ')', ',':
		ch := l.ch
		l.readChar()
		return Token{Kind: TokenPunct, Text: string(ch), Pos: pos}, nil
	case '+', '-', '*', '/':
		ch := l.ch
		l.readChar()
		return Token{Kind: TokenOperator, Text: string(ch), Pos: pos}, nil
	case '=':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return Token{Kind: TokenOperator, Text: "==", Pos: pos}, nil
		}
		l.readChar()
		// A single '=' separates a named argument from its value.
		return Token{Kind: TokenPunct, Text: "=", Pos: pos}, nil
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return Token{Kind: TokenOperator, Text: "!=", Pos: pos}, nil
		}
		l.readChar()
		return Token{Kind: TokenOperator, Text: "!", Pos: pos}, nil
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return Token{Kind: TokenOperator, Text: ">=", Pos: pos}, nil
		}
		l.readChar()
		return Token{Kind: TokenOperator, Text: ">", Pos: pos}, nil
	case '<':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return Token{Kind: TokenOperator, Text: "<=", Pos: pos}, nil
		}
		l.readChar()
		return Token{Kind: TokenOperator, Text: "<", Pos: pos}, nil
	case '&':
		if l.peekChar() == '&' {
			l.readChar()
			l.readChar()
			return Token{Kind: TokenOperator, Text: "&&", Pos: pos}, nil
		}
		return Token{}, l.illegalChar(pos)
	case '|':
		if l.peekChar() == '|' {
			l.readChar()
			l.readChar()
			return Token{Kind: TokenOperator, Text: "||", Pos: pos}, nil
		}
		return Token{}, l.illegalChar(pos)
	case '\'', '"':
		return l.readString(pos)
	}

	if isLetter(l.ch) {
		ident := l.readIdentifier()
		if IsKeyword(ident) {
			return Token{Kind: TokenKeyword, Text: ident, Pos: pos}, nil
		}
		return Token{Kind: TokenIdentifier, Text: ident, Pos: pos}, nil
	}

	if isDigit(l.ch) {
		return l.readNumber(pos)
	}

	return Token{}, l.illegalChar(pos)
}

func (l *Lexer) illegalChar(pos Position) *LexError {
	return &LexError{
		Kind:    LexIllegalChar,
		Message: fmt.Sprintf("unrecognized character %q", string(l.ch)),
		Pos:     pos,
	}
}

func (l *Lexer) currentPos() Position {
	return Position{Offset: l.pos, Line: l.line, Column: l.column}
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}
	if l.readPos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
	l.column++
}

func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

// readIdentifier consumes an identifier, including dot-separated path
// segments (user.geo.city scans as a single token; the parser splits
// the path).
func (l *Lexer) readIdentifier() string {
	pos := l.pos
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '.' {
		l.readChar()
	}
	return l.input[pos:l.pos]
}

// readNumber consumes an integer or decimal literal.
func (l *Lexer) readNumber(pos Position) (Token, *LexError) {
	start := l.pos
	sawDot := false
	for isDigit(l.ch) || l.ch == '.' {
		if l.ch == '.' {
			if sawDot {
				return Token{}, &LexError{
					Kind:    LexMalformedNumber,
					Message: fmt.Sprintf("malformed number %q", l.input[start:l.pos+1]),
					Pos:     pos,
				}
			}
			sawDot = true
		}
		l.readChar()
	}
	text := l.input[start:l.pos]
	if text[len(text)-1] == '.' {
		return Token{}, &LexError{
			Kind:    LexMalformedNumber,
			Message: fmt.Sprintf("malformed number %q", text),
			Pos:     pos,
		}
	}
	return Token{Kind: TokenNumber, Text: text, Pos: pos}, nil
}

// readString consumes a single- or double-quoted string literal with
// backslash escape handling. The returned token text is the unescaped
// string contents without the surrounding quotes.
func (l *Lexer) readString(pos Position) (Token, *LexError) {
	quote := l.ch
	l.readChar() // consume the opening quote

	var out []byte
	for l.ch != quote {
		if l.ch == 0 {
			return Token{}, &LexError{
				Kind:    LexUnterminatedString,
				Message: "unterminated string literal",
				Pos:     pos,
			}
		}
		if l.ch == '\\' {
			l.readChar()
			switch l.ch {
			case 'n':
				out = append(out, '\n')
			case 't':
				out = append(out, '\t')
			case '\\', '\'', '"':
				out = append(out, l.ch)
			case 0:
				return Token{}, &LexError{
					Kind:    LexUnterminatedString,
					Message: "unterminated string literal",
					Pos:     pos,
				}
			default:
				out = append(out, '\\', l.ch)
			}
			l.readChar()
			continue
		}
		out = append(out, l.ch)
		l.readChar()
	}
	l.readChar() // consume the closing quote
	return Token{Kind: TokenString, Text: string(out), Pos: pos}, nil
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
