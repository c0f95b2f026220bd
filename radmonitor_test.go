package radmonitor

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitbasheer/radmonitor-sub001/types"
	"github.com/gitbasheer/radmonitor-sub001/validate"
)

func testCatalog() *validate.FieldCatalog {
	return validate.NewFieldCatalog("v1", []validate.Field{
		{Name: "bytes", Type: "number", Aggregatable: true},
		{Name: "response_time", Type: "number", Aggregatable: true},
		{Name: "status", Type: "number", Aggregatable: true},
	})
}

func testRequest(formula string) types.CompileRequest {
	return types.CompileRequest{
		Formula: formula,
		Context: types.CompilationContext{
			IndexPattern:        "traffic-*",
			TimeRange:           types.TimeRange{From: "now-24h", To: "now"},
			FieldCatalogVersion: "v1",
		},
	}
}

func newTestCompiler(options ...Option) *Compiler {
	options = append([]Option{WithFieldCatalog(testCatalog()), WithDiscardLog()}, options...)
	return New(options...)
}

func TestCompileEndToEnd(t *testing.T) {
	c := newTestCompiler()
	resp := c.Compile(testRequest("count() / count(shift='1d')"))

	require.True(t, resp.Valid, "errors: %v", resp.Errors)
	require.NotEmpty(t, resp.CompiledQuery)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.CompiledQuery, &doc))
	aggs := doc["aggs"].(map[string]interface{})
	series := aggs["series"].(map[string]interface{})
	assert.Contains(t, series, "date_histogram")
	inner := series["aggs"].(map[string]interface{})
	assert.Contains(t, inner, "0")
	assert.Contains(t, inner, "0-1")
	assert.Contains(t, inner, "0-2")
}

func TestCompileSyntaxError(t *testing.T) {
	c := newTestCompiler()
	resp := c.Compile(testRequest("count("))

	require.False(t, resp.Valid)
	require.NotEmpty(t, resp.Errors)
	assert.Equal(t, "UnmatchedParenthesis", resp.Errors[0].Code)
	assert.NotNil(t, resp.Errors[0].Position)
	assert.Empty(t, resp.CompiledQuery)
}

func TestCompileLexError(t *testing.T) {
	c := newTestCompiler()
	resp := c.Compile(testRequest("count() @ 2"))

	require.False(t, resp.Valid)
	assert.Equal(t, "IllegalCharacter", resp.Errors[0].Code)
}

func TestCompileValidationError(t *testing.T) {
	c := newTestCompiler()
	resp := c.Compile(testRequest("sum(no_such_field)"))

	require.False(t, resp.Valid)
	assert.Equal(t, "UnknownField", resp.Errors[0].Code)
}

func TestCompileForbiddenPattern(t *testing.T) {
	c := newTestCompiler()
	resp := c.Compile(testRequest("count() + ${injection}"))

	require.False(t, resp.Valid)
	assert.Equal(t, "ForbiddenPattern", resp.Errors[0].Code)
	assert.NotContains(t, resp.Errors[0].Message, "${")
}

func TestCompileCompilerError(t *testing.T) {
	c := newTestCompiler()
	resp := c.Compile(testRequest("count(shift='100d')"))

	require.False(t, resp.Valid)
	assert.Equal(t, "ExcessiveLookback", resp.Errors[0].Code)
}

func TestCompileIsCached(t *testing.T) {
	c := newTestCompiler()
	req := testRequest("count()")

	c.Compile(req)
	c.Compile(req)
	c.Compile(req)

	assert.EqualValues(t, 1, c.Compilations())
	stats := c.CacheStats()
	assert.EqualValues(t, 2, stats.Hits)
}

func TestCompileFailureIsCached(t *testing.T) {
	c := newTestCompiler()
	req := testRequest("count() / 0")

	first := c.Compile(req)
	second := c.Compile(req)

	require.False(t, second.Valid)
	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, c.Compilations())
}

func TestCompileWhitespaceVariantsShareCacheEntry(t *testing.T) {
	c := newTestCompiler()

	c.Compile(testRequest("count()  /   count(shift='1d')"))
	c.Compile(testRequest("count() / count(shift='1d')"))

	assert.EqualValues(t, 1, c.Compilations())
}

func TestCheckDoesNotCompile(t *testing.T) {
	c := newTestCompiler()

	resp := c.Check("sum(bytes) * 8")
	assert.True(t, resp.Valid)
	assert.Empty(t, resp.CompiledQuery)
	assert.EqualValues(t, 0, c.Compilations())

	resp = c.Check("sum(")
	assert.False(t, resp.Valid)
}

func TestCompileCarriesWarnings(t *testing.T) {
	catalog := validate.NewFieldCatalog("v1", []validate.Field{
		{Name: "a.b.c.d.e.f", Type: "number", Aggregatable: true},
	})
	c := New(WithFieldCatalog(catalog), WithDiscardLog())
	resp := c.Compile(testRequest("sum(a.b.c.d.e.f)"))

	require.True(t, resp.Valid, "errors: %v", resp.Errors)
	require.Len(t, resp.Warnings, 1)
	assert.Equal(t, "DeepFieldPath", resp.Warnings[0].Code)
	assert.Equal(t, types.SeverityWarning, resp.Warnings[0].Severity)
}

func TestFunctionsCatalog(t *testing.T) {
	c := newTestCompiler()
	entries := c.Functions()
	require.NotEmpty(t, entries)

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	assert.Contains(t, names, "count")
	assert.Contains(t, names, "moving_average")
	assert.Contains(t, names, "ifelse")
}

func TestOptionLimits(t *testing.T) {
	c := newTestCompiler(WithMaxFormulaLength(10))
	resp := c.Compile(testRequest("count() / count()"))
	require.False(t, resp.Valid)
	assert.Equal(t, "TooLong", resp.Errors[0].Code)

	c = newTestCompiler(WithMaxDepth(2))
	resp = c.Compile(testRequest("abs(abs(abs(count())))"))
	require.False(t, resp.Valid)
	assert.Equal(t, "MaxDepthExceeded", resp.Errors[0].Code)

	c = newTestCompiler(WithMaxLookback(time.Hour))
	resp = c.Compile(testRequest("count(shift='1d')"))
	require.False(t, resp.Valid)
	assert.Equal(t, "ExcessiveLookback", resp.Errors[0].Code)
}

func TestOptionIntervalAndTimeField(t *testing.T) {
	c := newTestCompiler(WithInterval("30m"), WithTimeField("event.ingested"))
	resp := c.Compile(testRequest("count()"))
	require.True(t, resp.Valid, "errors: %v", resp.Errors)

	body := string(resp.CompiledQuery)
	assert.True(t, strings.Contains(body, `"fixed_interval":"30m"`))
	assert.True(t, strings.Contains(body, `"event.ingested"`))
}

func TestDeterministicCompiledQuery(t *testing.T) {
	req := testRequest("count(kql='status:500') / count(shift='1w')")

	a := newTestCompiler().Compile(req)
	b := newTestCompiler().Compile(req)

	require.True(t, a.Valid)
	require.True(t, b.Valid)
	assert.Equal(t, a.CompiledQuery, b.CompiledQuery)
}
