package validate

import (
	"fmt"

	"github.com/gitbasheer/radmonitor-sub001/formula"
	"github.com/gitbasheer/radmonitor-sub001/functions"
	"github.com/gitbasheer/radmonitor-sub001/types"
)

// Options bound the work a single validation pass may represent
// downstream. The ceilings are structural: they bound compiled-query
// size without any wall-clock timeout.
type Options struct {
	// MaxDepth is the maximum AST nesting depth.
	MaxDepth int
	// MaxCalls is the maximum number of function calls per formula.
	MaxCalls int
	// MaxFieldDepth is the dotted-path depth beyond which a field
	// reference draws a warning. Deep paths are often legitimate but
	// expensive.
	MaxFieldDepth int
}

// DefaultOptions returns the standard validation ceilings.
func DefaultOptions() Options {
	return Options{
		MaxDepth:      20,
		MaxCalls:      100,
		MaxFieldDepth: 5,
	}
}

// Validator walks a parsed formula enforcing structural limits and
// semantic rules against the function registry and the field catalog.
// Validation never mutates the AST; computed types live in a side
// table created fresh per pass, so Validate may be invoked repeatedly
// (on every keystroke) with no cost beyond the traversal.
type Validator struct {
	opts Options
}

// New creates a validator with the given options.
func New(opts Options) *Validator {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultOptions().MaxDepth
	}
	if opts.MaxCalls <= 0 {
		opts.MaxCalls = DefaultOptions().MaxCalls
	}
	if opts.MaxFieldDepth <= 0 {
		opts.MaxFieldDepth = DefaultOptions().MaxFieldDepth
	}
	return &Validator{opts: opts}
}

// ValidateSource runs the raw-text denylist pass. It is separate from
// the tree walk so it can be exercised with inputs that do not parse.
func (v *Validator) ValidateSource(text string) Result {
	result := Result{Valid: true}
	if diag := CheckSource(text); diag != nil {
		result.addError(*diag)
	}
	return result
}

// Validate walks the AST depth-first enforcing, in order: structural
// ceilings, per-call arity and named-parameter rules, field-reference
// existence, and type compatibility between sibling arguments.
func (v *Validator) Validate(root formula.Node, catalog *FieldCatalog) Result {
	result := Result{Valid: true}
	if root == nil {
		result.addError(types.Diagnostic{
			Code:    CodeTypeMismatch,
			Message: "no expression to validate",
		})
		return result
	}

	if depth := formula.Depth(root); depth > v.opts.MaxDepth {
		result.addError(types.Diagnostic{
			Code:     CodeMaxDepthExceeded,
			Message:  fmt.Sprintf("formula nesting depth %d exceeds maximum of %d", depth, v.opts.MaxDepth),
			Position: position(root),
		})
		return result
	}

	if calls := formula.CountCalls(root); calls > v.opts.MaxCalls {
		result.addError(types.Diagnostic{
			Code:     CodeTooManyCalls,
			Message:  fmt.Sprintf("formula contains %d function calls, maximum is %d", calls, v.opts.MaxCalls),
			Position: position(root),
		})
		return result
	}

	// nodeTypes is the per-pass side table of computed types; the tree
	// itself is never annotated.
	nodeTypes := make(map[formula.Node]functions.ValueType)
	v.checkNode(root, catalog, nodeTypes, &result)
	return result
}

// checkNode validates one node after its children and records the
// node's computed type in the side table.
func (v *Validator) checkNode(node formula.Node, catalog *FieldCatalog, nodeTypes map[formula.Node]functions.ValueType, result *Result) functions.ValueType {
	var t functions.ValueType = functions.TypeAny

	switch n := node.(type) {
	case *formula.Literal:
		switch n.Kind {
		case formula.LiteralNumber:
			t = functions.TypeNumber
		case formula.LiteralString:
			t = functions.TypeString
		case formula.LiteralBool:
			t = functions.TypeBool
		}

	case *formula.FieldRef:
		v.checkFieldRef(n, catalog, result)
		t = functions.TypeField

	case *formula.FunctionCall:
		t = v.checkCall(n, catalog, nodeTypes, result)

	case *formula.BinaryOp:
		left := v.checkNode(n.Left, catalog, nodeTypes, result)
		right := v.checkNode(n.Right, catalog, nodeTypes, result)
		t = v.checkBinaryOp(n, left, right, result)

	case *formula.UnaryOp:
		operand := v.checkNode(n.Operand, catalog, nodeTypes, result)
		if n.Op == "!" {
			if !compatible(operand, functions.TypeBool) {
				result.addError(types.Diagnostic{
					Code:     CodeTypeMismatch,
					Message:  fmt.Sprintf("operator '!' requires a boolean operand, got %s", operand),
					Position: position(n),
				})
			}
			t = functions.TypeBool
		} else {
			if !numeric(operand) {
				result.addError(types.Diagnostic{
					Code:     CodeTypeMismatch,
					Message:  fmt.Sprintf("operator '%s' requires a numeric operand, got %s", n.Op, operand),
					Position: position(n),
				})
			}
			t = functions.TypeNumber
		}

	case *formula.Identifier:
		// The parser rejects free identifiers; reaching one here means
		// the AST was constructed by hand.
		result.addError(types.Diagnostic{
			Code:     CodeUnknownField,
			Message:  fmt.Sprintf("unresolved identifier '%s'", n.Name),
			Position: position(n),
		})
	}

	nodeTypes[node] = t
	return t
}

// checkCall enforces arity, named-parameter and argument-type rules
// against the function registry.
func (v *Validator) checkCall(call *formula.FunctionCall, catalog *FieldCatalog, nodeTypes map[formula.Node]functions.ValueType, result *Result) functions.ValueType {
	sig, known := functions.Lookup(call.Name)
	if !known {
		result.addError(types.Diagnostic{
			Code:     CodeUnknownFunction,
			Message:  fmt.Sprintf("unknown function '%s'", call.Name),
			Position: position(call),
		})
		// Still validate the children so one unknown name does not
		// hide unrelated problems.
		for _, arg := range call.Args {
			v.checkNode(arg, catalog, nodeTypes, result)
		}
		for _, na := range call.NamedArgs {
			v.checkNode(na.Value, catalog, nodeTypes, result)
		}
		return functions.TypeAny
	}

	if err := sig.ValidateArgCount(len(call.Args)); err != nil {
		result.addError(types.Diagnostic{
			Code:     CodeBadArity,
			Message:  err.Error(),
			Position: position(call),
		})
	}

	for _, na := range call.NamedArgs {
		spec, declared := sig.NamedParam(na.Name)
		if !declared {
			result.addError(types.Diagnostic{
				Code:     CodeUnknownParameter,
				Message:  fmt.Sprintf("function %s does not accept parameter '%s'", sig.Name, na.Name),
				Position: position(na.Value),
			})
			v.checkNode(na.Value, catalog, nodeTypes, result)
			continue
		}
		got := v.checkNode(na.Value, catalog, nodeTypes, result)
		if !compatible(got, spec.Type) {
			result.addError(types.Diagnostic{
				Code:     CodeTypeMismatch,
				Message:  fmt.Sprintf("parameter '%s' of %s expects %s, got %s", na.Name, sig.Name, spec.Type, got),
				Position: position(na.Value),
			})
		}
	}

	for _, spec := range sig.NamedParams {
		if spec.Required && call.NamedArg(spec.Name) == nil {
			result.addError(types.Diagnostic{
				Code:     CodeMissingParameter,
				Message:  fmt.Sprintf("function %s requires parameter '%s'", sig.Name, spec.Name),
				Position: position(call),
			})
		}
	}

	for i, arg := range call.Args {
		got := v.checkNode(arg, catalog, nodeTypes, result)
		want := sig.ArgType(i)
		if !compatible(got, want) {
			result.addError(types.Diagnostic{
				Code:     CodeTypeMismatch,
				Message:  fmt.Sprintf("argument %d of %s expects %s, got %s", i+1, sig.Name, want, got),
				Position: position(arg),
			})
		}
		// Aggregations can only read aggregatable fields.
		if sig.IsAggregation() {
			if ref, ok := arg.(*formula.FieldRef); ok && catalog != nil {
				if field, exists := catalog.Lookup(ref.Name()); exists && !field.Aggregatable {
					result.addError(types.Diagnostic{
						Code:     CodeFieldNotAggregatable,
						Message:  fmt.Sprintf("field '%s' is not aggregatable", ref.Name()),
						Position: position(arg),
					})
				}
			}
		}
	}

	return sig.ResultType
}

// checkFieldRef verifies the reference against the field catalog.
// Unknown fields are hard errors; unusually deep paths are warnings.
func (v *Validator) checkFieldRef(ref *formula.FieldRef, catalog *FieldCatalog, result *Result) {
	if catalog != nil && !catalog.Has(ref.Name()) {
		result.addError(types.Diagnostic{
			Code:     CodeUnknownField,
			Message:  fmt.Sprintf("unknown field '%s'", ref.Name()),
			Position: position(ref),
		})
	}
	if len(ref.Path) > v.opts.MaxFieldDepth {
		result.addWarning(types.Diagnostic{
			Code:     CodeDeepFieldPath,
			Message:  fmt.Sprintf("field path '%s' is %d levels deep; paths beyond %d levels are expensive", ref.Name(), len(ref.Path), v.opts.MaxFieldDepth),
			Position: position(ref),
		})
	}
}

// checkBinaryOp enforces type compatibility between the two sides of
// an infix operator.
func (v *Validator) checkBinaryOp(op *formula.BinaryOp, left, right functions.ValueType, result *Result) functions.ValueType {
	switch op.Op {
	case "+", "-", "*", "/":
		if !numeric(left) || !numeric(right) {
			result.addError(types.Diagnostic{
				Code:     CodeTypeMismatch,
				Message:  fmt.Sprintf("operator '%s' requires numeric operands, got %s and %s", op.Op, left, right),
				Position: position(op),
			})
		}
		return functions.TypeNumber
	case "&&", "||":
		if !compatible(left, functions.TypeBool) || !compatible(right, functions.TypeBool) {
			result.addError(types.Diagnostic{
				Code:     CodeTypeMismatch,
				Message:  fmt.Sprintf("operator '%s' requires boolean operands, got %s and %s", op.Op, left, right),
				Position: position(op),
			})
		}
		return functions.TypeBool
	default: // == != < <= > >=
		if !comparable(left, right) {
			result.addError(types.Diagnostic{
				Code:     CodeTypeMismatch,
				Message:  fmt.Sprintf("cannot compare %s against %s", left, right),
				Position: position(op),
			})
		}
		return functions.TypeBool
	}
}

// numeric reports whether a computed type can stand where a number is
// required. Series values are numeric per bucket.
func numeric(t functions.ValueType) bool {
	switch t {
	case functions.TypeNumber, functions.TypeSeries, functions.TypeAny:
		return true
	default:
		return false
	}
}

// compatible reports whether got satisfies want.
func compatible(got, want functions.ValueType) bool {
	if want == functions.TypeAny || got == functions.TypeAny {
		return true
	}
	if got == want {
		return true
	}
	// Series results stand in for numbers and vice versa.
	if want == functions.TypeNumber && got == functions.TypeSeries {
		return true
	}
	if want == functions.TypeSeries && got == functions.TypeNumber {
		return true
	}
	return false
}

// comparable reports whether two operand types may appear on the two
// sides of a comparison.
func comparable(left, right functions.ValueType) bool {
	if left == functions.TypeAny || right == functions.TypeAny {
		return true
	}
	if numeric(left) && numeric(right) {
		return true
	}
	return left == right
}

func position(node formula.Node) *types.Position {
	pos := node.Pos()
	if pos.Line == 0 {
		return nil
	}
	return &types.Position{Line: pos.Line, Column: pos.Column}
}
