package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitbasheer/radmonitor-sub001/formula"
	"github.com/gitbasheer/radmonitor-sub001/types"
)

func testCatalog() *FieldCatalog {
	return NewFieldCatalog("v1", []Field{
		{Name: "bytes", Type: "number", Aggregatable: true},
		{Name: "response_time", Type: "number", Aggregatable: true},
		{Name: "status", Type: "number", Aggregatable: true},
		{Name: "message", Type: "text", Aggregatable: false},
		{Name: "user.geo.city", Type: "keyword", Aggregatable: true},
		{Name: "a.b.c.d.e.f", Type: "number", Aggregatable: true},
	})
}

func validateText(t *testing.T, text string) Result {
	t.Helper()
	root, errs := formula.ParseText(text)
	require.Empty(t, errs, "parse errors for %q", text)
	return New(DefaultOptions()).Validate(root, testCatalog())
}

func errorCodes(r Result) []string {
	codes := make([]string, 0, len(r.Errors))
	for _, d := range r.Errors {
		codes = append(codes, d.Code)
	}
	return codes
}

func TestValidateAcceptedFormulas(t *testing.T) {
	tests := []string{
		"count()",
		"count() / count(shift='1d')",
		"sum(bytes) * 8",
		"average(response_time, kql='status >= 500')",
		"moving_average(sum(bytes), window=10)",
		"overall_max(count())",
		"clamp(count(), 0, 1000)",
		"ifelse(gt(count(), 100), 1, 0)",
		"count() > 100 && sum(bytes) < 5000",
	}
	for _, text := range tests {
		t.Run(text, func(t *testing.T) {
			result := validateText(t, text)
			assert.True(t, result.Valid, "errors: %v", result.Errors)
		})
	}
}

func TestValidateUnknownFunction(t *testing.T) {
	result := validateText(t, "bogusFunction(bytes)")
	require.False(t, result.Valid)
	assert.Contains(t, errorCodes(result), CodeUnknownFunction)
}

func TestValidateUnknownFunctionStillChecksChildren(t *testing.T) {
	result := validateText(t, "bogusFunction(no_such_field)")
	codes := errorCodes(result)
	assert.Contains(t, codes, CodeUnknownFunction)
	assert.Contains(t, codes, CodeUnknownField)
}

func TestValidateArity(t *testing.T) {
	tests := []struct {
		text string
		code string
	}{
		{"sum()", CodeBadArity},
		{"clamp(1, 2)", CodeBadArity},
		{"abs(1, 2)", CodeBadArity},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			result := validateText(t, tt.text)
			require.False(t, result.Valid)
			assert.Contains(t, errorCodes(result), tt.code)
		})
	}
}

func TestValidateUnknownParameter(t *testing.T) {
	result := validateText(t, "count(bogus='1d')")
	require.False(t, result.Valid)
	assert.Contains(t, errorCodes(result), CodeUnknownParameter)
}

func TestValidateParameterType(t *testing.T) {
	result := validateText(t, "count(shift=5)")
	require.False(t, result.Valid)
	assert.Contains(t, errorCodes(result), CodeTypeMismatch)
}

func TestValidateUnknownField(t *testing.T) {
	result := validateText(t, "sum(no_such_field)")
	require.False(t, result.Valid)
	require.Contains(t, errorCodes(result), CodeUnknownField)
	require.NotNil(t, result.Errors[0].Position)
}

func TestValidateNotAggregatableField(t *testing.T) {
	result := validateText(t, "sum(message)")
	require.False(t, result.Valid)
	assert.Contains(t, errorCodes(result), CodeFieldNotAggregatable)
}

func TestValidateNilCatalogSkipsFieldChecks(t *testing.T) {
	root, errs := formula.ParseText("sum(anything_at_all)")
	require.Empty(t, errs)
	result := New(DefaultOptions()).Validate(root, nil)
	assert.True(t, result.Valid)
}

func TestValidateDeepFieldPathWarns(t *testing.T) {
	result := validateText(t, "sum(a.b.c.d.e.f)")
	assert.True(t, result.Valid)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, CodeDeepFieldPath, result.Warnings[0].Code)
}

func TestValidateDepthCeiling(t *testing.T) {
	nested := func(wraps int) string {
		text := "count()"
		for i := 0; i < wraps; i++ {
			text = "abs(" + text + ")"
		}
		return text
	}

	// count() is depth 1; each abs adds one level. Exactly at the
	// ceiling is accepted, one past it is rejected.
	atCeiling := validateText(t, nested(19))
	assert.True(t, atCeiling.Valid, "errors: %v", atCeiling.Errors)

	overCeiling := validateText(t, nested(20))
	require.False(t, overCeiling.Valid)
	assert.Equal(t, CodeMaxDepthExceeded, overCeiling.Errors[0].Code)
}

func TestValidateCallCeiling(t *testing.T) {
	root, errs := formula.ParseText("count() + count() + count() + count()")
	require.Empty(t, errs)
	v := New(Options{MaxCalls: 3, MaxDepth: 20, MaxFieldDepth: 5})
	result := v.Validate(root, testCatalog())
	require.False(t, result.Valid)
	assert.Equal(t, CodeTooManyCalls, result.Errors[0].Code)
}

func TestValidateBinaryOpTypes(t *testing.T) {
	tests := []struct {
		text  string
		valid bool
	}{
		{"count() + 1", true},
		{"count() + 'abc'", false},
		{"'a' == 'b'", true},
		{"'a' < count()", false},
		{"true && count() > 0", true},
		{"1 && true", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			result := validateText(t, tt.text)
			assert.Equal(t, tt.valid, result.Valid, "errors: %v", result.Errors)
		})
	}
}

func TestValidateUnaryOpTypes(t *testing.T) {
	result := validateText(t, "!count()")
	require.False(t, result.Valid)
	assert.Contains(t, errorCodes(result), CodeTypeMismatch)
}

func TestValidateNilRoot(t *testing.T) {
	result := New(DefaultOptions()).Validate(nil, testCatalog())
	assert.False(t, result.Valid)
}

func TestValidateCollectsAllErrors(t *testing.T) {
	result := validateText(t, "sum(no_such_field) + bogusFunction(message)")
	codes := errorCodes(result)
	assert.Contains(t, codes, CodeUnknownField)
	assert.Contains(t, codes, CodeUnknownFunction)
}

func TestResultMerge(t *testing.T) {
	a := Result{Valid: true}
	b := Result{Valid: true}
	b.addError(types.Diagnostic{Code: CodeUnknownField})
	a.Merge(b)
	assert.False(t, a.Valid)
	assert.Len(t, a.Errors, 1)
}
