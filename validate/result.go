package validate

import (
	"github.com/gitbasheer/radmonitor-sub001/types"
)

// Diagnostic codes produced by the validator.
const (
	CodeForbiddenPattern     = "ForbiddenPattern"
	CodeMaxDepthExceeded     = "MaxDepthExceeded"
	CodeTooManyCalls         = "TooManyCalls"
	CodeUnknownFunction      = "UnknownFunction"
	CodeBadArity             = "BadArity"
	CodeUnknownParameter     = "UnknownParameter"
	CodeMissingParameter     = "MissingParameter"
	CodeUnknownField         = "UnknownField"
	CodeFieldNotAggregatable = "FieldNotAggregatable"
	CodeDeepFieldPath        = "DeepFieldPath"
	CodeTypeMismatch         = "TypeMismatch"
)

// Result is the outcome of one validation pass. It is created fresh
// per pass and never mutated after return.
type Result struct {
	Valid    bool
	Errors   []types.Diagnostic
	Warnings []types.Diagnostic
}

func (r *Result) addError(d types.Diagnostic) {
	d.Severity = types.SeverityError
	r.Errors = append(r.Errors, d)
	r.Valid = false
}

func (r *Result) addWarning(d types.Diagnostic) {
	d.Severity = types.SeverityWarning
	r.Warnings = append(r.Warnings, d)
}

// Merge folds another result into this one.
func (r *Result) Merge(other Result) {
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
	r.Valid = r.Valid && other.Valid
}
