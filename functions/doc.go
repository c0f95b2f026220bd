/*
Package functions holds the formula function registry.

Every function the pipeline understands is described by a Signature:
its category, positional arity and argument types, named parameters
with defaults, and result type. The parser consults the registry to
disambiguate field references from bare identifiers, the validator to
check arity and types, and the compiler to pick lowering strategies.

# Function Categories

• aggregation - count, sum, average, min, max, median, unique_count, last_value, percentile
• timeseries  - moving_average, cumulative_sum, differences, counter_rate, normalize_by_unit
• window      - overall_sum, overall_average, overall_max, overall_min
• math        - add, subtract, multiply, divide, abs, sqrt, pow, log, round, floor, ceil, clamp
• conditional - eq, gt, gte, lt, lte, ifelse

All aggregation functions accept the shared named parameters shift
(time offset, e.g. '1d') and kql (a filter sub-expression).

# Usage

	sig, ok := functions.Lookup("percentile")
	if ok {
		fmt.Println(sig.Description)
	}

	for _, entry := range functions.Export() {
		fmt.Println(entry.Name, entry.Category)
	}

Registration happens at init time through the package-level registry;
Register returns an error on duplicate names so extensions cannot
silently shadow built-ins.
*/
package functions
