/*
Package formula provides lexing and parsing for monitoring formulas.

The formula language is a small expression grammar: numeric, string and
boolean literals, function calls with positional and named arguments,
dotted field references, and the usual arithmetic, comparison and
logical operators with conventional precedence.

# Core Features

• Single-pass lexer - byte scanner with line and column tracking, dotted identifiers as one token
• Precedence-climbing parser - nine binding levels from || up to unary minus
• Error recovery - the parser collects up to ten positioned errors per run instead of stopping at the first
• Rich errors - each ParseError carries a code, the offending token, expected tokens and fix suggestions
• Safe by construction - input length is capped before scanning begins

# Usage

	tokens, lexErr := formula.NewLexer("count() / count(shift='1d')").Tokenize()
	if lexErr != nil {
		log.Fatal(lexErr)
	}
	root, parseErrs := formula.Parse(tokens)
	for _, e := range parseErrs {
		fmt.Println(e.Error())
	}

ParseText combines both steps when the token stream is not needed:

	root, parseErrs := formula.ParseText("sum(bytes) * 8")

The resulting AST is immutable after parse. Walk visits nodes in
depth-first order; Depth and CountCalls compute the structural measures
the validator enforces ceilings on.
*/
package formula
