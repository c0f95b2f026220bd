package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, text string) Node {
	t.Helper()
	root, errs := ParseText(text)
	require.Empty(t, errs, "parse errors for %q", text)
	require.NotNil(t, root)
	return root
}

func parseErrors(t *testing.T, text string) []*ParseError {
	t.Helper()
	root, errs := ParseText(text)
	require.NotEmpty(t, errs, "expected parse errors for %q", text)
	require.Nil(t, root)
	return errs
}

func TestParseSimpleCall(t *testing.T) {
	root := mustParse(t, "count()")
	call, ok := root.(*FunctionCall)
	require.True(t, ok)
	assert.Equal(t, "count", call.Name)
	assert.Empty(t, call.Args)
	assert.Empty(t, call.NamedArgs)
}

func TestParseRatioFormula(t *testing.T) {
	root := mustParse(t, "count() / count(shift='1d')")
	op, ok := root.(*BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "/", op.Op)

	left, ok := op.Left.(*FunctionCall)
	require.True(t, ok)
	assert.Equal(t, "count", left.Name)

	right, ok := op.Right.(*FunctionCall)
	require.True(t, ok)
	require.Len(t, right.NamedArgs, 1)
	assert.Equal(t, "shift", right.NamedArgs[0].Name)
	shift, ok := right.NamedArgs[0].Value.(*Literal)
	require.True(t, ok)
	assert.Equal(t, LiteralString, shift.Kind)
	assert.Equal(t, "1d", shift.Str)
}

func TestParsePrecedence(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"(1 + 2) * 3", "((1 + 2) * 3)"},
		{"1 + 2 - 3", "((1 + 2) - 3)"},
		{"8 / 4 / 2", "((8 / 4) / 2)"},
		{"1 < 2 == true", "((1 < 2) == true)"},
		{"1 < 2 && 3 > 4 || true", "(((1 < 2) && (3 > 4)) || true)"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			root := mustParse(t, tt.input)
			assert.Equal(t, tt.want, root.String())
		})
	}
}

func TestParseUnaryMinusFoldsIntoNumber(t *testing.T) {
	root := mustParse(t, "-5 + 3")
	op := root.(*BinaryOp)
	lit, ok := op.Left.(*Literal)
	require.True(t, ok)
	assert.Equal(t, -5.0, lit.Num)
}

func TestParseUnaryNot(t *testing.T) {
	root := mustParse(t, "!true")
	not, ok := root.(*UnaryOp)
	require.True(t, ok)
	assert.Equal(t, "!", not.Op)
	operand, ok := not.Operand.(*Literal)
	require.True(t, ok)
	assert.Equal(t, LiteralBool, operand.Kind)
}

func TestParseFieldArgumentShaping(t *testing.T) {
	// The registry declares the first argument of sum as a field, so
	// the identifier bytes becomes a FieldRef.
	root := mustParse(t, "sum(bytes)")
	call := root.(*FunctionCall)
	require.Len(t, call.Args, 1)
	field, ok := call.Args[0].(*FieldRef)
	require.True(t, ok)
	assert.Equal(t, "bytes", field.Name())
}

func TestParseNestedFieldArgument(t *testing.T) {
	root := mustParse(t, "average(user.geo.latency)")
	call := root.(*FunctionCall)
	field, ok := call.Args[0].(*FieldRef)
	require.True(t, ok)
	assert.Equal(t, []string{"user", "geo", "latency"}, field.Path)
}

func TestParseUnknownFunctionStillParses(t *testing.T) {
	// Unknown functions are a validation concern, not a parse error.
	// Identifier arguments are shaped as fields so validation can run.
	root := mustParse(t, "bogusFunction(some_field)")
	call := root.(*FunctionCall)
	assert.Equal(t, "bogusFunction", call.Name)
	require.Len(t, call.Args, 1)
	_, ok := call.Args[0].(*FieldRef)
	assert.True(t, ok)
}

func TestParseBareIdentifier(t *testing.T) {
	errs := parseErrors(t, "count() + bytes")
	assert.Equal(t, ErrBareIdentifier, errs[0].Kind)
	assert.Equal(t, "BareIdentifier", errs[0].Code())
}

func TestParseEmptyArgument(t *testing.T) {
	tests := []string{
		"clamp(1, , 3)",
		"sum(bytes,)",
	}
	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			errs := parseErrors(t, input)
			assert.Equal(t, ErrEmptyArgument, errs[0].Kind)
		})
	}
}

func TestParseMissingClosingParen(t *testing.T) {
	errs := parseErrors(t, "count(")
	assert.Equal(t, ErrUnmatchedParenthesis, errs[0].Kind)
	assert.Contains(t, errs[0].Expected, ")")
}

func TestParseUnterminatedCallWithNamedArg(t *testing.T) {
	errs := parseErrors(t, "count(kql='status:error'")
	assert.Equal(t, ErrUnmatchedParenthesis, errs[0].Kind)
}

func TestParseUnexpectedClosingParen(t *testing.T) {
	errs := parseErrors(t, "count())")
	assert.Equal(t, ErrUnmatchedParenthesis, errs[0].Kind)
}

func TestParseTrailingOperator(t *testing.T) {
	errs := parseErrors(t, "count() +")
	var found *ParseError
	for _, e := range errs {
		if e.Kind == ErrTrailingOperator {
			found = e
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, "+", found.Token)
}

func TestParsePositionalAfterNamed(t *testing.T) {
	errs := parseErrors(t, "percentile(bytes, percentile=95, 7)")
	assert.Equal(t, ErrMalformedNamedArgument, errs[0].Kind)
}

func TestParseEmptyFormula(t *testing.T) {
	for _, input := range []string{"", "   "} {
		root, errs := ParseText(input)
		assert.Nil(t, root)
		require.NotEmpty(t, errs, "input %q", input)
	}
}

func TestParseCollectsMultipleErrors(t *testing.T) {
	// One pass surfaces both the empty argument and the bare
	// identifier instead of stopping at the first failure.
	_, errs := ParseText("clamp(1, , 3) + bytes")
	require.GreaterOrEqual(t, len(errs), 2)
	kinds := make(map[ParseErrorKind]bool)
	for _, e := range errs {
		kinds[e.Kind] = true
	}
	assert.True(t, kinds[ErrEmptyArgument])
	assert.True(t, kinds[ErrBareIdentifier])
}

func TestParseErrorPositions(t *testing.T) {
	errs := parseErrors(t, "count() + bytes")
	require.Equal(t, ErrBareIdentifier, errs[0].Kind)
	assert.Equal(t, 1, errs[0].Pos.Line)
	assert.Equal(t, 11, errs[0].Pos.Column)
}

func TestParseStringRoundTrip(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"count()", "count()"},
		{"sum(bytes)", "sum(bytes)"},
		{"count(shift='1d', kql='status >= 500')", `count(shift="1d", kql="status >= 500")`},
		{"ifelse(gt(count(), 100), 1, 0)", "ifelse(gt(count(), 100), 1, 0)"},
	}
	for _, tt := range tests {
		root := mustParse(t, tt.input)
		assert.Equal(t, tt.want, root.String())
	}
}

func TestDepthAndCountCalls(t *testing.T) {
	root := mustParse(t, "ifelse(gt(count(), 100), sum(bytes), 0)")
	assert.Equal(t, 3, Depth(root))
	assert.Equal(t, 4, CountCalls(root))
}
