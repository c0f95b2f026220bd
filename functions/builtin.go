package functions

// Named parameters shared by every aggregation function. Both are
// interpreted by the query compiler: shift offsets the time window the
// aggregation is evaluated over, kql restricts the documents it sees.
func aggregationParams() []ParamSpec {
	return []ParamSpec{
		{Name: "shift", Type: TypeString, Required: false},
		{Name: "kql", Type: TypeString, Required: false},
	}
}

func aggregation(name, description string, minArgs int, examples ...string) *Signature {
	return &Signature{
		Name:        name,
		Category:    CategoryAggregation,
		MinArgs:     minArgs,
		MaxArgs:     1,
		ArgTypes:    []ValueType{TypeField},
		NamedParams: aggregationParams(),
		ResultType:  TypeSeries,
		Description: description,
		Examples:    examples,
	}
}

func timeSeries(name, description string, params []ParamSpec, examples ...string) *Signature {
	return &Signature{
		Name:        name,
		Category:    CategoryTimeSeries,
		MinArgs:     1,
		MaxArgs:     1,
		ArgTypes:    []ValueType{TypeSeries},
		NamedParams: params,
		ResultType:  TypeSeries,
		Description: description,
		Examples:    examples,
	}
}

func window(name, description string, examples ...string) *Signature {
	return &Signature{
		Name:        name,
		Category:    CategoryWindow,
		MinArgs:     1,
		MaxArgs:     1,
		ArgTypes:    []ValueType{TypeSeries},
		ResultType:  TypeSeries,
		Description: description,
		Examples:    examples,
	}
}

func math(name, description string, minArgs, maxArgs int, examples ...string) *Signature {
	return &Signature{
		Name:        name,
		Category:    CategoryMath,
		MinArgs:     minArgs,
		MaxArgs:     maxArgs,
		ArgTypes:    []ValueType{TypeNumber},
		ResultType:  TypeNumber,
		Description: description,
		Examples:    examples,
	}
}

func comparison(name, description string, examples ...string) *Signature {
	return &Signature{
		Name:        name,
		Category:    CategoryConditional,
		MinArgs:     2,
		MaxArgs:     2,
		ArgTypes:    []ValueType{TypeNumber},
		ResultType:  TypeBool,
		Description: description,
		Examples:    examples,
	}
}

func init() {
	// Aggregation functions: read directly from the store.
	mustRegister(aggregation("count", "Number of documents; with a field, number of documents where the field exists", 0,
		"count()", "count(kql='status:error')"))
	mustRegister(aggregation("sum", "Sum of a numeric field", 1, "sum(bytes)"))
	mustRegister(aggregation("average", "Arithmetic mean of a numeric field", 1, "average(response.time)"))
	mustRegister(aggregation("min", "Minimum value of a numeric field", 1, "min(bytes)"))
	mustRegister(aggregation("max", "Maximum value of a numeric field", 1, "max(bytes)"))
	mustRegister(aggregation("median", "Median value of a numeric field", 1, "median(bytes)"))
	mustRegister(aggregation("unique_count", "Number of distinct values of a field", 1, "unique_count(user.id)"))
	mustRegister(aggregation("last_value", "Latest value of a field ordered by time", 1, "last_value(status)"))

	percentile := aggregation("percentile", "Percentile of a numeric field", 1,
		"percentile(bytes, percentile=95)")
	percentile.NamedParams = append(percentile.NamedParams,
		ParamSpec{Name: "percentile", Type: TypeNumber, Required: false, Default: 95})
	mustRegister(percentile)

	// Time-series functions: operate over a derived series.
	mustRegister(timeSeries("moving_average", "Moving average over a trailing window of buckets",
		[]ParamSpec{{Name: "window", Type: TypeNumber, Required: false, Default: 5}},
		"moving_average(count(), window=7)"))
	mustRegister(timeSeries("cumulative_sum", "Running total across buckets", nil,
		"cumulative_sum(sum(bytes))"))
	mustRegister(timeSeries("differences", "Difference between consecutive buckets", nil,
		"differences(count())"))
	mustRegister(timeSeries("counter_rate", "Rate of a monotonically increasing counter", nil,
		"counter_rate(max(network.bytes_total))"))
	mustRegister(timeSeries("normalize_by_unit", "Scale a series to a per-unit-of-time value",
		[]ParamSpec{{Name: "unit", Type: TypeString, Required: false, Default: "1s"}},
		"normalize_by_unit(count(), unit='1m')"))

	// Window functions: computed over the full result set.
	mustRegister(window("overall_sum", "Sum of a series across all buckets", "overall_sum(count())"))
	mustRegister(window("overall_average", "Average of a series across all buckets", "overall_average(count())"))
	mustRegister(window("overall_max", "Maximum of a series across all buckets", "overall_max(sum(bytes))"))
	mustRegister(window("overall_min", "Minimum of a series across all buckets", "overall_min(sum(bytes))"))

	// Arithmetic and math functions.
	mustRegister(math("add", "Sum of two numbers", 2, 2, "add(count(), 100)"))
	mustRegister(math("subtract", "Difference of two numbers", 2, 2, "subtract(max(bytes), min(bytes))"))
	mustRegister(math("multiply", "Product of two numbers", 2, 2, "multiply(count(), 2)"))
	mustRegister(math("divide", "Quotient of two numbers", 2, 2, "divide(sum(bytes), count())"))
	mustRegister(math("abs", "Absolute value", 1, 1, "abs(differences(count()))"))
	mustRegister(math("sqrt", "Square root", 1, 1, "sqrt(count())"))
	mustRegister(math("pow", "Base raised to an exponent", 2, 2, "pow(count(), 2)"))
	mustRegister(math("log", "Natural logarithm", 1, 1, "log(count())"))
	mustRegister(math("round", "Round to the nearest integer", 1, 1, "round(average(bytes))"))
	mustRegister(math("floor", "Round down to the nearest integer", 1, 1, "floor(average(bytes))"))
	mustRegister(math("ceil", "Round up to the nearest integer", 1, 1, "ceil(average(bytes))"))
	mustRegister(math("clamp", "Constrain a value between a lower and upper bound", 3, 3,
		"clamp(count(), 0, 1000)"))

	// Comparison and conditional functions.
	mustRegister(comparison("eq", "1 when the operands are equal, else 0", "eq(count(), 0)"))
	mustRegister(comparison("gt", "1 when the first operand is greater", "gt(count(), 100)"))
	mustRegister(comparison("gte", "1 when the first operand is greater or equal", "gte(count(), 100)"))
	mustRegister(comparison("lt", "1 when the first operand is smaller", "lt(count(), 100)"))
	mustRegister(comparison("lte", "1 when the first operand is smaller or equal", "lte(count(), 100)"))

	mustRegister(&Signature{
		Name:        "ifelse",
		Category:    CategoryConditional,
		MinArgs:     3,
		MaxArgs:     3,
		ArgTypes:    []ValueType{TypeBool, TypeAny, TypeAny},
		ResultType:  TypeAny,
		Description: "First value when the condition holds, second value otherwise",
		Examples:    []string{`ifelse(count() > 100, "HIGH", "LOW")`},
	})
}
