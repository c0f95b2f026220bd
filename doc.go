/*
 * Copyright 2025 The RadMonitor Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
Package radmonitor compiles monitoring formulas into aggregation query
documents for a time-series store.

A formula is a small arithmetic expression over aggregation functions,
for example:

	count() / count(shift='1d')
	average(response_time, kql='status >= 500') * 1000
	moving_average(sum(bytes), window=10)

The package turns such text into a structured aggregation request: a
date histogram over the query time range whose buckets hold one
filter-scoped metric per aggregation call, combined by bucket script
pipelines for the arithmetic. The output is deterministic, so the same
formula and context always produce byte-identical query documents.

# Core Features

• Full pipeline - lexing, parsing, validation and query lowering behind one call
• Editor diagnostics - positioned errors with codes, expected-token hints and fix suggestions
• Function catalog - aggregation, time-series, window, math and conditional functions, exportable for autocomplete
• Safety ceilings - formula length, nesting depth, call count and query size limits, plus an injection denylist
• Time shifts - per-aggregation offsets for period-over-period comparison, bounded by a lookback ceiling
• KQL filters - per-aggregation filter sub-expressions compiled into bool queries
• Compilation cache - bounded LRU keyed by normalized formula and context, failures cached like successes

# Getting Started

Build a compiler once and reuse it; it is safe for concurrent use:

	catalog := validate.NewFieldCatalog("v1", []validate.Field{
		{Name: "response_time", Type: "number", Aggregatable: true},
		{Name: "status", Type: "number", Aggregatable: true},
	})

	c := radmonitor.New(
		radmonitor.WithFieldCatalog(catalog),
		radmonitor.WithInterval("30m"),
	)

	resp := c.Compile(types.CompileRequest{
		Formula: "count(kql='status >= 500') / count()",
		Context: types.CompilationContext{
			IndexPattern:        "traffic-*",
			TimeRange:           types.TimeRange{From: "now-24h", To: "now"},
			FieldCatalogVersion: "v1",
		},
	})

	if resp.Valid {
		fmt.Println(string(resp.CompiledQuery))
	} else {
		for _, d := range resp.Errors {
			fmt.Println(d.String())
		}
	}

Validation without compilation, for editor round-trips:

	resp := c.Check("count(shift='1')")

# Configuration

All knobs are functional options on New:

	c := radmonitor.New(
		radmonitor.WithMaxDepth(10),
		radmonitor.WithMaxCalls(25),
		radmonitor.WithMaxLookback(30*24*time.Hour),
		radmonitor.WithCacheCapacity(500),
		radmonitor.WithDiscardLog(),
	)

# Packages

The pipeline stages live in their own packages and can be used
directly:

	formula   - lexer, AST and recovering parser
	functions - the function signature registry
	validate  - field catalog, denylist and structural validation
	compile   - query lowering, time shift and filter sub-languages
	cache     - the bounded LRU compilation cache
	types     - request, response and diagnostic types shared by all stages
*/
package radmonitor
