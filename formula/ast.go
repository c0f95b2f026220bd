package formula

import (
	"fmt"
	"strconv"
	"strings"
)

// Node is a formula AST node. Nodes are created during parsing and
// never mutated afterwards; validation and compilation annotate them
// via side tables instead of rewriting the tree.
type Node interface {
	// Pos returns the source position of the node's first token.
	Pos() Position
	// String renders the node back to canonical formula text.
	String() string
}

// NamedArg is a key=value argument of a function call. Named arguments
// keep their written order so that String() round-trips faithfully.
type NamedArg struct {
	Name  string
	Value Node
}

// FunctionCall is a call such as count() or percentile(bytes, p=95).
// Positional arguments precede named arguments.
type FunctionCall struct {
	Name      string
	Args      []Node
	NamedArgs []NamedArg
	Position  Position
}

func (n *FunctionCall) Pos() Position { return n.Position }

func (n *FunctionCall) String() string {
	var parts []string
	for _, arg := range n.Args {
		parts = append(parts, arg.String())
	}
	for _, na := range n.NamedArgs {
		parts = append(parts, fmt.Sprintf("%s=%s", na.Name, na.Value.String()))
	}
	return fmt.Sprintf("%s(%s)", n.Name, strings.Join(parts, ", "))
}

// NamedArg returns the value of the named argument with the given
// name, or nil if absent.
func (n *FunctionCall) NamedArg(name string) Node {
	for _, na := range n.NamedArgs {
		if na.Name == name {
			return na.Value
		}
	}
	return nil
}

// BinaryOp is an infix operation such as a + b or a && b.
type BinaryOp struct {
	Op       string
	Left     Node
	Right    Node
	Position Position
}

func (n *BinaryOp) Pos() Position { return n.Position }

func (n *BinaryOp) String() string {
	return fmt.Sprintf("(%s %s %s)", n.Left.String(), n.Op, n.Right.String())
}

// UnaryOp is a prefix operation: !x or -x.
type UnaryOp struct {
	Op       string
	Operand  Node
	Position Position
}

func (n *UnaryOp) Pos() Position { return n.Position }

func (n *UnaryOp) String() string {
	return fmt.Sprintf("%s%s", n.Op, n.Operand.String())
}

// FieldRef is a dot-separated reference into the event document, such
// as user.geo.city.
type FieldRef struct {
	Path     []string
	Position Position
}

func (n *FieldRef) Pos() Position { return n.Position }

func (n *FieldRef) String() string { return strings.Join(n.Path, ".") }

// Name returns the full dotted field name.
func (n *FieldRef) Name() string { return strings.Join(n.Path, ".") }

// LiteralKind classifies a literal value.
type LiteralKind int

const (
	LiteralNumber LiteralKind = iota
	LiteralString
	LiteralBool
)

// Literal is a number, string or boolean constant.
type Literal struct {
	Kind     LiteralKind
	Num      float64
	Str      string
	Bool     bool
	Position Position
}

func (n *Literal) Pos() Position { return n.Position }

func (n *Literal) String() string {
	switch n.Kind {
	case LiteralNumber:
		return strconv.FormatFloat(n.Num, 'f', -1, 64)
	case LiteralString:
		return fmt.Sprintf("%q", n.Str)
	case LiteralBool:
		return strconv.FormatBool(n.Bool)
	default:
		return ""
	}
}

// Identifier is a bare name that the parser could not resolve to a
// function call or a field reference. Formulas have no free variables,
// so a surviving Identifier outside an argument position is an error.
type Identifier struct {
	Name     string
	Position Position
}

func (n *Identifier) Pos() Position { return n.Position }

func (n *Identifier) String() string { return n.Name }

// Walk traverses the tree depth-first, parents before children. The
// visit function returning false prunes the subtree.
func Walk(node Node, visit func(Node) bool) {
	if node == nil || !visit(node) {
		return
	}
	switch n := node.(type) {
	case *FunctionCall:
		for _, arg := range n.Args {
			Walk(arg, visit)
		}
		for _, na := range n.NamedArgs {
			Walk(na.Value, visit)
		}
	case *BinaryOp:
		Walk(n.Left, visit)
		Walk(n.Right, visit)
	case *UnaryOp:
		Walk(n.Operand, visit)
	}
}

// Depth returns the height of the tree rooted at node. A leaf has
// depth 1.
func Depth(node Node) int {
	if node == nil {
		return 0
	}
	max := 0
	child := func(c Node) {
		if d := Depth(c); d > max {
			max = d
		}
	}
	switch n := node.(type) {
	case *FunctionCall:
		for _, arg := range n.Args {
			child(arg)
		}
		for _, na := range n.NamedArgs {
			child(na.Value)
		}
	case *BinaryOp:
		child(n.Left)
		child(n.Right)
	case *UnaryOp:
		child(n.Operand)
	}
	return max + 1
}

// CountCalls returns the number of FunctionCall nodes in the tree.
func CountCalls(node Node) int {
	count := 0
	Walk(node, func(n Node) bool {
		if _, ok := n.(*FunctionCall); ok {
			count++
		}
		return true
	})
	return count
}
