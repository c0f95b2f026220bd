package compile

import (
	"github.com/expr-lang/expr"
	"github.com/spf13/cast"

	"github.com/gitbasheer/radmonitor-sub001/formula"
)

// foldConstants replaces literal-only operator subtrees with their
// computed value, so "count() * (60 * 24)" lowers with a single
// constant and "10 / 2" becomes a static value. The original tree is
// never mutated; folded branches are fresh nodes.
//
// Division by a literal zero is refused before evaluation: it is a
// compile error, not an infinity.
func foldConstants(node formula.Node) (formula.Node, *Error) {
	switch n := node.(type) {
	case *formula.BinaryOp:
		left, err := foldConstants(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := foldConstants(n.Right)
		if err != nil {
			return nil, err
		}
		if n.Op == "/" && isLiteralZero(right) {
			return nil, newError(CodeDivisionByZero, n.Position, "division by zero")
		}
		if isConstant(left) && isConstant(right) {
			folded := &formula.BinaryOp{Op: n.Op, Left: left, Right: right, Position: n.Position}
			return evaluateConstant(folded)
		}
		if left == n.Left && right == n.Right {
			return n, nil
		}
		return &formula.BinaryOp{Op: n.Op, Left: left, Right: right, Position: n.Position}, nil

	case *formula.UnaryOp:
		operand, err := foldConstants(n.Operand)
		if err != nil {
			return nil, err
		}
		if isConstant(operand) {
			folded := &formula.UnaryOp{Op: n.Op, Operand: operand, Position: n.Position}
			return evaluateConstant(folded)
		}
		if operand == n.Operand {
			return n, nil
		}
		return &formula.UnaryOp{Op: n.Op, Operand: operand, Position: n.Position}, nil

	case *formula.FunctionCall:
		args := make([]formula.Node, len(n.Args))
		changed := false
		for i, arg := range n.Args {
			folded, err := foldConstants(arg)
			if err != nil {
				return nil, err
			}
			args[i] = folded
			if folded != arg {
				changed = true
			}
		}
		named := make([]formula.NamedArg, len(n.NamedArgs))
		for i, na := range n.NamedArgs {
			folded, err := foldConstants(na.Value)
			if err != nil {
				return nil, err
			}
			named[i] = formula.NamedArg{Name: na.Name, Value: folded}
			if folded != na.Value {
				changed = true
			}
		}
		if !changed {
			return n, nil
		}
		return &formula.FunctionCall{Name: n.Name, Args: args, NamedArgs: named, Position: n.Position}, nil

	default:
		return node, nil
	}
}

// isConstant reports whether the node is a numeric or boolean literal.
// String literals stay out of folding; they only appear as opaque
// branch values.
func isConstant(node formula.Node) bool {
	lit, ok := node.(*formula.Literal)
	return ok && lit.Kind != formula.LiteralString
}

func isLiteralZero(node formula.Node) bool {
	lit, ok := node.(*formula.Literal)
	return ok && lit.Kind == formula.LiteralNumber && lit.Num == 0
}

// evaluateConstant renders the literal-only subtree back to source
// text, compiles it with expr-lang and runs it once with an empty
// environment. The formula operator set is a subset of expr-lang's,
// so the rendered text evaluates unchanged.
func evaluateConstant(node formula.Node) (formula.Node, *Error) {
	program, err := expr.Compile(node.String())
	if err != nil {
		return nil, newError(CodeUnsupported, node.Pos(), "cannot evaluate constant expression: %v", err)
	}
	out, err := expr.Run(program, nil)
	if err != nil {
		return nil, newError(CodeUnsupported, node.Pos(), "cannot evaluate constant expression: %v", err)
	}

	if b, ok := out.(bool); ok {
		return &formula.Literal{Kind: formula.LiteralBool, Bool: b, Position: node.Pos()}, nil
	}
	num, err := cast.ToFloat64E(out)
	if err != nil {
		return nil, newError(CodeUnsupported, node.Pos(), "constant expression produced a non-numeric value")
	}
	return &formula.Literal{Kind: formula.LiteralNumber, Num: num, Position: node.Pos()}, nil
}
