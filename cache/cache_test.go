package cache

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitbasheer/radmonitor-sub001/types"
)

func testContext() types.CompilationContext {
	return types.CompilationContext{
		IndexPattern:        "traffic-*",
		TimeRange:           types.TimeRange{From: "now-24h", To: "now"},
		FieldCatalogVersion: "v1",
	}
}

func okResponse(marker string) types.CompileResponse {
	return types.CompileResponse{
		Valid:         true,
		CompiledQuery: json.RawMessage(fmt.Sprintf(`{"marker":%q}`, marker)),
	}
}

func TestGetOrCompileCachesResult(t *testing.T) {
	c := New(10)
	var calls atomic.Int64
	compile := func() types.CompileResponse {
		calls.Add(1)
		return okResponse("a")
	}

	first := c.GetOrCompile("count()", testContext(), compile)
	second := c.GetOrCompile("count()", testContext(), compile)

	assert.EqualValues(t, 1, calls.Load())
	assert.Equal(t, first, second)
	assert.Equal(t, 1, c.Len())
}

func TestWhitespaceNormalizedKeys(t *testing.T) {
	c := New(10)
	var calls atomic.Int64
	compile := func() types.CompileResponse {
		calls.Add(1)
		return okResponse("a")
	}

	c.GetOrCompile("count() /  count(shift='1d')", testContext(), compile)
	c.GetOrCompile("  count()\n/ count(shift='1d')  ", testContext(), compile)

	assert.EqualValues(t, 1, calls.Load())
}

func TestContextChangeMissesCache(t *testing.T) {
	c := New(10)
	var calls atomic.Int64
	compile := func() types.CompileResponse {
		calls.Add(1)
		return okResponse("a")
	}

	c.GetOrCompile("count()", testContext(), compile)

	other := testContext()
	other.TimeRange.From = "now-7d"
	c.GetOrCompile("count()", other, compile)

	versioned := testContext()
	versioned.FieldCatalogVersion = "v2"
	c.GetOrCompile("count()", versioned, compile)

	assert.EqualValues(t, 3, calls.Load())
	assert.Equal(t, 3, c.Len())
}

func TestFailuresAreCached(t *testing.T) {
	c := New(10)
	var calls atomic.Int64
	compile := func() types.CompileResponse {
		calls.Add(1)
		return types.CompileResponse{
			Valid:  false,
			Errors: []types.Diagnostic{{Code: "DivisionByZero", Severity: types.SeverityError}},
		}
	}

	first := c.GetOrCompile("count() / 0", testContext(), compile)
	second := c.GetOrCompile("count() / 0", testContext(), compile)

	assert.EqualValues(t, 1, calls.Load())
	assert.False(t, second.Valid)
	assert.Equal(t, first, second)
}

func TestEviction(t *testing.T) {
	c := New(2)
	compileFor := func(marker string) func() types.CompileResponse {
		return func() types.CompileResponse { return okResponse(marker) }
	}

	c.GetOrCompile("a()", testContext(), compileFor("a"))
	c.GetOrCompile("b()", testContext(), compileFor("b"))
	// Touch a so b becomes least recently used.
	c.GetOrCompile("a()", testContext(), compileFor("a"))
	c.GetOrCompile("c()", testContext(), compileFor("c"))

	assert.Equal(t, 2, c.Len())
	assert.EqualValues(t, 1, c.Stats().Evictions)

	// b was evicted; recompiling it calls compile again.
	var recompiled bool
	c.GetOrCompile("b()", testContext(), func() types.CompileResponse {
		recompiled = true
		return okResponse("b")
	})
	assert.True(t, recompiled)
}

func TestStatsCounters(t *testing.T) {
	c := New(10)
	compile := func() types.CompileResponse { return okResponse("a") }

	c.GetOrCompile("count()", testContext(), compile)
	c.GetOrCompile("count()", testContext(), compile)
	c.GetOrCompile("count()", testContext(), compile)

	stats := c.Stats()
	assert.EqualValues(t, 2, stats.Hits)
	assert.EqualValues(t, 1, stats.Misses)
}

func TestClear(t *testing.T) {
	c := New(10)
	c.GetOrCompile("count()", testContext(), func() types.CompileResponse { return okResponse("a") })
	require.Equal(t, 1, c.Len())
	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestCapacityFallback(t *testing.T) {
	assert.Equal(t, DefaultCapacity, New(0).Capacity())
	assert.Equal(t, DefaultCapacity, New(-5).Capacity())
	assert.Equal(t, 7, New(7).Capacity())
}

func TestConcurrentSameKeyCompilesOnce(t *testing.T) {
	c := New(10)
	var calls atomic.Int64
	start := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			c.GetOrCompile("count()", testContext(), func() types.CompileResponse {
				calls.Add(1)
				return okResponse("a")
			})
		}()
	}
	close(start)
	wg.Wait()

	assert.EqualValues(t, 1, calls.Load())
	assert.Equal(t, 1, c.Len())
}

func TestKeyIsStable(t *testing.T) {
	assert.Equal(t,
		Key("count()", testContext()),
		Key("count()", testContext()))
	assert.NotEqual(t,
		Key("count()", testContext()),
		Key("sum(bytes)", testContext()))
}
