/*
Package compile lowers validated formula ASTs into aggregation query
documents.

The compiler builds a date histogram over the request time range and
places one filter-scoped aggregation under it per aggregation call in
the formula. Arithmetic between aggregations becomes a bucket script
pipeline referencing the metrics through buckets_path variables;
time-series and window functions become pipeline aggregations over
their inner metric.

# Core Features

• Deterministic output - aggregation IDs derive from AST positions and JSON keys are sorted, so identical input yields byte-identical documents
• Time shifts - the shift parameter ('15m', '1d', '1w') moves an aggregation's range bound back in time, capped by a configurable lookback ceiling
• KQL filters - the kql parameter compiles a small filter grammar (field:value, ranges, wildcards, and/or/not, quoted phrases) into a bool query
• Constant folding - literal-only subtrees evaluate at compile time, and division by a literal zero is reported as an error rather than folded
• Size ceiling - trees over MaxNodes aggregations are rejected as too complex

# Lowering Shape

count() / count(shift='1d') over now-24h..now becomes, in outline:

	aggs:
	  series: date_histogram(@timestamp, 1h)
	    aggs:
	      0-1: filter(range @timestamp now-24h..now)
	      0-2: filter(range @timestamp now-24h-1d..now-1d)
	      0:   bucket_script(params.v0_1 / params.v0_2,
	             buckets_path: {v0_1: "0-1>_count", v0_2: "0-2>_count"})

# Usage

	c := compile.New(compile.DefaultOptions())
	query, errs := c.Compile(root, ctx)
	if len(errs) == 0 {
		body, _ := query.MarshalDSL()
	}
*/
package compile
