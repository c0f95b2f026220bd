package compile

import (
	"fmt"

	"github.com/gitbasheer/radmonitor-sub001/formula"
	"github.com/gitbasheer/radmonitor-sub001/types"
)

// ErrorCode classifies compile failures. The AST reaching the
// compiler has already passed validation, so these cover only
// compile-time-only conditions.
type ErrorCode string

const (
	// CodeDivisionByZero a literal zero divisor
	CodeDivisionByZero ErrorCode = "DivisionByZero"
	// CodeExcessiveLookback a time shift beyond the maximum window
	CodeExcessiveLookback ErrorCode = "ExcessiveLookback"
	// CodeTooComplex the compiled query exceeds the node ceiling
	CodeTooComplex ErrorCode = "TooComplex"
	// CodeBadTimeShift a time-shift value that does not parse
	CodeBadTimeShift ErrorCode = "BadTimeShift"
	// CodeBadFilter a filter expression that does not parse
	CodeBadFilter ErrorCode = "BadFilter"
	// CodeUnsupported an expression with no lowering rule
	CodeUnsupported ErrorCode = "UnsupportedExpression"
)

// Error is a single compile failure. All compile errors are
// recoverable; they are reported to the caller and never abort the
// process.
type Error struct {
	Code    ErrorCode
	Message string
	Pos     formula.Position
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s at line %d, column %d", e.Code, e.Message, e.Pos.Line, e.Pos.Column)
}

// Diagnostic converts the error to the wire diagnostic shape.
func (e *Error) Diagnostic() types.Diagnostic {
	var pos *types.Position
	if e.Pos.Line > 0 {
		pos = &types.Position{Line: e.Pos.Line, Column: e.Pos.Column}
	}
	return types.Diagnostic{
		Code:     string(e.Code),
		Message:  e.Message,
		Position: pos,
		Severity: types.SeverityError,
	}
}

func newError(code ErrorCode, pos formula.Position, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Pos: pos}
}
