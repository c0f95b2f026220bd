package functions

import (
	"fmt"
)

// Category groups functions by the role they play in a compiled query.
type Category string

const (
	// CategoryAggregation functions read directly from the store
	CategoryAggregation Category = "aggregation"
	// CategoryTimeSeries functions operate over a derived series
	CategoryTimeSeries Category = "timeseries"
	// CategoryWindow functions are computed over the full result set
	CategoryWindow Category = "window"
	// CategoryMath arithmetic and math functions
	CategoryMath Category = "math"
	// CategoryConditional comparison and conditional functions
	CategoryConditional Category = "conditional"
)

// ValueType describes the type of an argument or result.
type ValueType string

const (
	TypeNumber ValueType = "number"
	TypeString ValueType = "string"
	TypeBool   ValueType = "boolean"
	TypeField  ValueType = "field"
	// TypeSeries is the result of an aggregation evaluated per bucket.
	TypeSeries ValueType = "series"
	TypeAny    ValueType = "any"
)

// ParamSpec declares a named parameter accepted by a function, such as
// a time-shift offset or a filter-expression string. The parameter's
// meaning is interpreted by the query compiler, not by the function
// itself.
type ParamSpec struct {
	Name     string      `json:"name"`
	Type     ValueType   `json:"type"`
	Required bool        `json:"required"`
	Default  interface{} `json:"default,omitempty"`
}

// Signature is the static description of one registered function.
// Signatures are immutable, defined once at process start.
type Signature struct {
	Name     string
	Category Category
	// MinArgs and MaxArgs bound the positional argument count.
	// MaxArgs of -1 means unbounded.
	MinArgs int
	MaxArgs int
	// ArgTypes declares positional argument types. When a call has
	// more arguments than declared types, the last type repeats.
	ArgTypes []ValueType
	// NamedParams lists accepted named parameters in declaration order.
	NamedParams []ParamSpec
	ResultType  ValueType
	Description string
	Examples    []string
}

// ValidateArgCount checks the positional argument count against the
// signature bounds.
func (s *Signature) ValidateArgCount(count int) error {
	if count < s.MinArgs {
		return fmt.Errorf("function %s requires at least %d arguments, got %d", s.Name, s.MinArgs, count)
	}
	if s.MaxArgs != -1 && count > s.MaxArgs {
		return fmt.Errorf("function %s accepts at most %d arguments, got %d", s.Name, s.MaxArgs, count)
	}
	return nil
}

// ArgType returns the declared type of the positional argument at
// index. Past the declared list the last type repeats; with no
// declared types the result is TypeAny.
func (s *Signature) ArgType(index int) ValueType {
	if len(s.ArgTypes) == 0 {
		return TypeAny
	}
	if index >= len(s.ArgTypes) {
		return s.ArgTypes[len(s.ArgTypes)-1]
	}
	return s.ArgTypes[index]
}

// NamedParam returns the spec for the named parameter, if declared.
func (s *Signature) NamedParam(name string) (ParamSpec, bool) {
	for _, spec := range s.NamedParams {
		if spec.Name == name {
			return spec, true
		}
	}
	return ParamSpec{}, false
}

// IsAggregation reports whether the function reads directly from the
// store rather than from other aggregations.
func (s *Signature) IsAggregation() bool {
	return s.Category == CategoryAggregation
}
