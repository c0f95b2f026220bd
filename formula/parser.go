package formula

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gitbasheer/radmonitor-sub001/functions"
)

// Binding powers for binary operators, lowest first. Together with the
// two unary levels and primary expressions this gives the grammar its
// nine precedence levels.
var binaryBindingPower = map[string]int{
	"||": 1,
	"&&": 2,
	"==": 3, "!=": 3,
	"<": 4, "<=": 4, ">": 4, ">=": 4,
	"+": 5, "-": 5,
	"*": 6, "/": 6,
}

// maxCollectedErrors bounds how many parse errors a single pass
// reports. Interactive editors only render the first few anyway.
const maxCollectedErrors = 10

// Parser consumes a token stream and produces an AST. It consults the
// function registry to decide whether identifier arguments are field
// references, and collects as many diagnosable errors as it safely
// can instead of stopping at the first one.
type Parser struct {
	tokens []Token
	pos    int
	errors []*ParseError
	lookup func(name string) (*functions.Signature, bool)
}

// Parse tokenizes nothing; it consumes an existing token stream and
// returns the AST, or a non-empty error list and no AST.
func Parse(tokens []Token) (Node, []*ParseError) {
	return NewParser(tokens).Parse()
}

// ParseText is a convenience that runs the lexer and parser in one
// step. Lexer failures are reported as a single-element error list.
func ParseText(text string) (Node, []*ParseError) {
	tokens, lexErr := Tokenize(text)
	if lexErr != nil {
		return nil, []*ParseError{{
			Kind:    ErrUnexpectedToken,
			Message: lexErr.Message,
			Pos:     lexErr.Pos,
		}}
	}
	return Parse(tokens)
}

// NewParser creates a parser over tokens using the global function
// registry.
func NewParser(tokens []Token) *Parser {
	return &Parser{
		tokens: tokens,
		lookup: functions.Lookup,
	}
}

// Parse parses the full token stream. Either the returned node is
// non-nil and the error list empty, or the node is nil and the error
// list non-empty.
func (p *Parser) Parse() (Node, []*ParseError) {
	root := p.parseExpr(0)

	// Anything left over after a complete expression is an error.
	for !p.atEOF() && len(p.errors) < maxCollectedErrors {
		tok := p.current()
		if tok.Kind == TokenPunct && tok.Text == ")" {
			p.addError(newParseError(ErrUnmatchedParenthesis,
				"unexpected closing parenthesis", tok.Pos, tok.Text, nil))
		} else {
			p.addError(newParseError(ErrUnexpectedToken,
				fmt.Sprintf("unexpected token '%s' after expression", tok.Text), tok.Pos, tok.Text, nil))
		}
		p.advance()
	}

	if root != nil {
		p.checkFreeIdentifiers(root)
	}

	if len(p.errors) > 0 {
		return nil, p.errors
	}
	if root == nil {
		return nil, []*ParseError{newParseError(ErrUnexpectedToken,
			"empty formula", Position{Line: 1, Column: 1}, "", nil)}
	}
	return root, nil
}

// checkFreeIdentifiers flags bare identifiers that survived parsing.
// Formulas have no free variables; an identifier is only meaningful as
// a function name or a field argument.
func (p *Parser) checkFreeIdentifiers(root Node) {
	Walk(root, func(n Node) bool {
		if id, ok := n.(*Identifier); ok {
			p.addError(newParseError(ErrBareIdentifier,
				fmt.Sprintf("bare identifier '%s' is not a function call or field argument", id.Name),
				id.Position, id.Name, nil))
		}
		return true
	})
}

func (p *Parser) current() Token {
	if p.pos >= len(p.tokens) {
		if len(p.tokens) == 0 {
			return Token{Kind: TokenEOF}
		}
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos]
}

func (p *Parser) peek() Token {
	if p.pos+1 >= len(p.tokens) {
		return p.current()
	}
	return p.tokens[p.pos+1]
}

func (p *Parser) advance() Token {
	tok := p.current()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) atEOF() bool {
	return p.current().Kind == TokenEOF
}

func (p *Parser) addError(err *ParseError) {
	if len(p.errors) < maxCollectedErrors {
		p.errors = append(p.errors, err)
	}
}

// parseExpr implements precedence climbing. minBP is the minimum
// binding power an operator must have to be consumed at this level.
func (p *Parser) parseExpr(minBP int) Node {
	left := p.parseUnary()

	for {
		tok := p.current()
		if tok.Kind != TokenOperator {
			break
		}
		bp, ok := binaryBindingPower[tok.Text]
		if !ok || bp < minBP {
			break
		}
		p.advance()

		// Left associative: the right operand must bind tighter.
		right := p.parseExpr(bp + 1)
		if right == nil {
			p.addError(newParseError(ErrTrailingOperator,
				fmt.Sprintf("expression expected after operator '%s'", tok.Text), tok.Pos, tok.Text, nil))
			return nil
		}
		if left == nil {
			return nil
		}
		left = &BinaryOp{Op: tok.Text, Left: left, Right: right, Position: left.Pos()}
	}

	return left
}

// parseUnary handles the two prefix operators ! and -.
func (p *Parser) parseUnary() Node {
	tok := p.current()
	if tok.Kind == TokenOperator && (tok.Text == "!" || tok.Text == "-") {
		p.advance()
		operand := p.parseUnary()
		if operand == nil {
			p.addError(newParseError(ErrTrailingOperator,
				fmt.Sprintf("expression expected after operator '%s'", tok.Text), tok.Pos, tok.Text, nil))
			return nil
		}
		// Fold unary minus into numeric literals so -5 is one node.
		if tok.Text == "-" {
			if lit, ok := operand.(*Literal); ok && lit.Kind == LiteralNumber {
				return &Literal{Kind: LiteralNumber, Num: -lit.Num, Position: tok.Pos}
			}
		}
		return &UnaryOp{Op: tok.Text, Operand: operand, Position: tok.Pos}
	}
	return p.parsePrimary()
}

// parsePrimary parses literals, parenthesized expressions, field
// references and function calls.
func (p *Parser) parsePrimary() Node {
	tok := p.current()

	switch tok.Kind {
	case TokenEOF:
		p.addError(newParseError(ErrUnexpectedToken,
			"unexpected end of formula", tok.Pos, "", nil))
		return nil

	case TokenNumber:
		p.advance()
		num, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			p.addError(newParseError(ErrUnexpectedToken,
				fmt.Sprintf("malformed number '%s'", tok.Text), tok.Pos, tok.Text, nil))
			return nil
		}
		return &Literal{Kind: LiteralNumber, Num: num, Position: tok.Pos}

	case TokenString:
		p.advance()
		return &Literal{Kind: LiteralString, Str: tok.Text, Position: tok.Pos}

	case TokenKeyword:
		p.advance()
		return &Literal{Kind: LiteralBool, Bool: tok.Text == "true", Position: tok.Pos}

	case TokenPunct:
		if tok.Text == "(" {
			p.advance()
			inner := p.parseExpr(0)
			closing := p.current()
			if closing.Kind == TokenPunct && closing.Text == ")" {
				p.advance()
			} else {
				p.addError(newParseError(ErrUnmatchedParenthesis,
					"missing closing parenthesis", closing.Pos, closing.Text, []string{")"}))
				// Keep the inner expression so later errors still surface.
			}
			return inner
		}
		p.addError(newParseError(ErrUnexpectedToken,
			fmt.Sprintf("unexpected token '%s'", tok.Text), tok.Pos, tok.Text, nil))
		return nil

	case TokenIdentifier:
		if p.peek().Kind == TokenPunct && p.peek().Text == "(" {
			return p.parseCall()
		}
		p.advance()
		if strings.Contains(tok.Text, ".") {
			path := splitFieldPath(tok.Text)
			for _, segment := range path {
				if segment == "" {
					p.addError(newParseError(ErrUnexpectedToken,
						fmt.Sprintf("malformed field reference '%s'", tok.Text), tok.Pos, tok.Text, nil))
					return nil
				}
			}
			return &FieldRef{Path: path, Position: tok.Pos}
		}
		return &Identifier{Name: tok.Text, Position: tok.Pos}

	default:
		p.addError(newParseError(ErrUnexpectedToken,
			fmt.Sprintf("unexpected token '%s'", tok.Text), tok.Pos, tok.Text, nil))
		p.advance()
		return nil
	}
}

// parseCall parses a function call with positional arguments followed
// by named key=value arguments.
func (p *Parser) parseCall() Node {
	nameTok := p.advance() // function name
	p.advance()            // opening parenthesis

	call := &FunctionCall{Name: nameTok.Text, Position: nameTok.Pos}
	sawNamed := false

	for {
		tok := p.current()

		if tok.Kind == TokenPunct && tok.Text == ")" {
			p.advance()
			return call
		}
		if tok.Kind == TokenEOF {
			p.addError(newParseError(ErrUnmatchedParenthesis,
				fmt.Sprintf("missing closing parenthesis in call to '%s'", call.Name),
				tok.Pos, "", []string{")"}))
			return call
		}
		if tok.Kind == TokenPunct && tok.Text == "," {
			p.addError(newParseError(ErrEmptyArgument,
				fmt.Sprintf("empty argument in call to '%s'", call.Name), tok.Pos, ",", nil))
			p.advance()
			continue
		}

		// A named argument is an identifier directly followed by '='.
		if tok.Kind == TokenIdentifier && p.peek().Kind == TokenPunct && p.peek().Text == "=" {
			p.advance() // name
			p.advance() // '='
			value := p.parseExpr(0)
			if value == nil {
				p.addError(newParseError(ErrMalformedNamedArgument,
					fmt.Sprintf("missing value for named argument '%s'", tok.Text), tok.Pos, tok.Text, nil))
				p.syncArgument()
			} else {
				call.NamedArgs = append(call.NamedArgs, NamedArg{
					Name:  tok.Text,
					Value: p.shapeArgument(call.Name, tok.Text, -1, value),
				})
				sawNamed = true
			}
		} else {
			arg := p.parseExpr(0)
			if arg == nil {
				p.syncArgument()
			} else if sawNamed {
				p.addError(newParseError(ErrMalformedNamedArgument,
					fmt.Sprintf("positional argument after named argument in call to '%s'", call.Name),
					arg.Pos(), "", nil))
			} else {
				call.Args = append(call.Args, p.shapeArgument(call.Name, "", len(call.Args), arg))
			}
		}

		sep := p.current()
		if sep.Kind == TokenPunct && sep.Text == "," {
			p.advance()
			// A trailing comma before ')' is an empty argument.
			if next := p.current(); next.Kind == TokenPunct && next.Text == ")" {
				p.addError(newParseError(ErrEmptyArgument,
					fmt.Sprintf("empty argument in call to '%s'", call.Name), next.Pos, ")", nil))
			}
			continue
		}
		if sep.Kind == TokenPunct && sep.Text == ")" {
			continue // closed on the next iteration
		}
		if sep.Kind == TokenEOF {
			continue // reported on the next iteration
		}
		p.addError(newParseError(ErrUnexpectedToken,
			fmt.Sprintf("unexpected token '%s' in argument list", sep.Text),
			sep.Pos, sep.Text, []string{",", ")"}))
		p.syncArgument()
	}
}

// shapeArgument resolves the shape of an identifier argument using the
// function registry: arguments declared as field parameters become
// field references. Arguments of unknown functions are treated as
// fields too, so an unknown-function formula still parses and reaches
// the validator.
func (p *Parser) shapeArgument(callName, paramName string, argIndex int, arg Node) Node {
	id, ok := arg.(*Identifier)
	if !ok {
		return arg
	}

	sig, known := p.lookup(callName)
	if !known {
		return &FieldRef{Path: []string{id.Name}, Position: id.Position}
	}

	var paramType functions.ValueType
	if argIndex >= 0 {
		paramType = sig.ArgType(argIndex)
	} else if spec, ok := sig.NamedParam(paramName); ok {
		paramType = spec.Type
	}
	if paramType == functions.TypeField {
		return &FieldRef{Path: []string{id.Name}, Position: id.Position}
	}
	return arg
}

// syncArgument skips tokens until the next argument separator or the
// end of the call, so one malformed argument does not swallow the rest
// of the formula.
func (p *Parser) syncArgument() {
	depth := 0
	for {
		tok := p.current()
		if tok.Kind == TokenEOF {
			return
		}
		if tok.Kind == TokenPunct {
			switch tok.Text {
			case "(":
				depth++
			case ")":
				if depth == 0 {
					return
				}
				depth--
			case ",":
				if depth == 0 {
					return
				}
			}
		}
		p.advance()
	}
}

func splitFieldPath(name string) []string {
	return strings.Split(name, ".")
}
