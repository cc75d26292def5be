package expression

import (
	"fmt"
	"strconv"
)

// Node is a node of a parsed expression tree. The set of implementations
// is closed: Number, NoData, DatasetRef, Unary, Binary, Function and
// Conditional.
type Node interface {
	fmt.Stringer
	node()
}

type Operator int

const (
	OpAdd Operator = iota
	OpSub
	OpMul
	OpDiv
	OpPow
	OpEq
	OpNe
	OpGt
	OpLt
	OpGe
	OpLe
	OpAnd
	OpOr

	OpNeg
	OpNot
	OpAbs

	OpSumAggr
	OpMinAggr
	OpMaxAggr
	OpAvgAggr

	OpMin
	OpMax
)

var operatorNames = map[Operator]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpPow: "^",
	OpEq: "=", OpNe: "!=", OpGt: ">", OpLt: "<", OpGe: ">=", OpLe: "<=",
	OpAnd: "AND", OpOr: "OR",
	OpNeg: "-", OpNot: "NOT", OpAbs: "ABS",
	OpSumAggr: "SUM_AGGR", OpMinAggr: "MIN_AGGR", OpMaxAggr: "MAX_AGGR", OpAvgAggr: "AVG_AGGR",
	OpMin: "MIN", OpMax: "MAX",
}

func (o Operator) String() string {
	if n, ok := operatorNames[o]; ok {
		return n
	}
	return fmt.Sprintf("op(%d)", int(o))
}

// IsAggregate reports whether the operator reduces a dataset over time.
func (o Operator) IsAggregate() bool {
	switch o {
	case OpSumAggr, OpMinAggr, OpMaxAggr, OpAvgAggr:
		return true
	}
	return false
}

// IsBoolean reports whether the operator yields the boolean encoding.
func (o Operator) IsBoolean() bool {
	switch o {
	case OpEq, OpNe, OpGt, OpLt, OpGe, OpLe, OpAnd, OpOr, OpNot:
		return true
	}
	return false
}

////////////////////////////////////////////////////////////////////////////////

type Number struct {
	Value float64
}

type NoData struct{}

type DatasetRef struct {
	Name string
}

type Unary struct {
	Op      Operator
	Operand Node
}

type Binary struct {
	Op    Operator
	Left  Node
	Right Node
}

// Function is a two argument function call (MIN, MAX).
type Function struct {
	Op    Operator
	Left  Node
	Right Node
}

type Conditional struct {
	Condition Node
	True      Node
	False     Node
}

func (*Number) node()      {}
func (*NoData) node()      {}
func (*DatasetRef) node()  {}
func (*Unary) node()       {}
func (*Binary) node()      {}
func (*Function) node()    {}
func (*Conditional) node() {}

func NewNumber(v float64) *Number {
	return &Number{Value: v}
}

func NewDatasetRef(name string) *DatasetRef {
	return &DatasetRef{Name: name}
}

func NewUnary(op Operator, n Node) *Unary {
	return &Unary{Op: op, Operand: n}
}

func NewBinary(op Operator, l, r Node) *Binary {
	return &Binary{Op: op, Left: l, Right: r}
}

func NewFunction(op Operator, l, r Node) *Function {
	return &Function{Op: op, Left: l, Right: r}
}

func NewConditional(c, t, f Node) *Conditional {
	return &Conditional{Condition: c, True: t, False: f}
}

func (n *Number) String() string {
	return strconv.FormatFloat(n.Value, 'g', -1, 64)
}

func (n *NoData) String() string {
	return "NODATA"
}

func (n *DatasetRef) String() string {
	return `"` + n.Name + `"`
}

func (n *Unary) String() string {
	switch {
	case n.Op == OpNeg:
		return fmt.Sprintf("(-%s)", n.Operand)
	case n.Op == OpNot:
		return fmt.Sprintf("(NOT %s)", n.Operand)
	default:
		return fmt.Sprintf("%s(%s)", n.Op, n.Operand)
	}
}

func (n *Binary) String() string {
	if n.Op == OpAnd || n.Op == OpOr {
		return fmt.Sprintf("(%s %s %s)", n.Left, n.Op, n.Right)
	}
	return fmt.Sprintf("(%s%s%s)", n.Left, n.Op, n.Right)
}

func (n *Function) String() string {
	return fmt.Sprintf("%s(%s, %s)", n.Op, n.Left, n.Right)
}

func (n *Conditional) String() string {
	return fmt.Sprintf("IF(%s, %s, %s)", n.Condition, n.True, n.False)
}

////////////////////////////////////////////////////////////////////////////////

// DatasetNames returns the names of all datasets referenced by the tree in
// post-order, without duplicates.
func DatasetNames(n Node) []string {
	var result []string
	walk(n, func(n Node) {
		if r, ok := n.(*DatasetRef); ok {
			for _, e := range result {
				if e == r.Name {
					return
				}
			}
			result = append(result, r.Name)
		}
	})
	return result
}

// walk visits all nodes in post-order.
func walk(n Node, f func(Node)) {
	switch e := n.(type) {
	case *Unary:
		walk(e.Operand, f)
	case *Binary:
		walk(e.Left, f)
		walk(e.Right, f)
	case *Function:
		walk(e.Left, f)
		walk(e.Right, f)
	case *Conditional:
		walk(e.Condition, f)
		walk(e.True, f)
		walk(e.False, f)
	}
	f(n)
}

// Depth returns the height of the tree.
func Depth(n Node) int {
	switch e := n.(type) {
	case *Unary:
		return 1 + Depth(e.Operand)
	case *Binary:
		return 1 + max(Depth(e.Left), Depth(e.Right))
	case *Function:
		return 1 + max(Depth(e.Left), Depth(e.Right))
	case *Conditional:
		return 1 + max(Depth(e.Condition), Depth(e.True), Depth(e.False))
	}
	return 1
}
