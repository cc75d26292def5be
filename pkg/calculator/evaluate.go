package calculator

import (
	"context"
	"fmt"

	"github.com/mandelsoft/meshcalc/pkg/algebra"
	"github.com/mandelsoft/meshcalc/pkg/expression"
	"github.com/mandelsoft/meshcalc/pkg/mesh"
	"github.com/mandelsoft/meshcalc/pkg/value"
)

var unaryOps = map[expression.Operator]value.UnaryFunc{
	expression.OpNeg: value.Neg,
	expression.OpNot: value.Not,
	expression.OpAbs: value.Abs,
}

var reductions = map[expression.Operator]value.Reduction{
	expression.OpSumAggr: value.Sum,
	expression.OpMinAggr: value.Minimum,
	expression.OpMaxAggr: value.Maximum,
	expression.OpAvgAggr: value.Average,
}

var binaryOps = map[expression.Operator]value.BinaryFunc{
	expression.OpAdd: value.Add,
	expression.OpSub: value.Sub,
	expression.OpMul: value.Mul,
	expression.OpDiv: value.Div,
	expression.OpPow: value.Pow,
	expression.OpEq:  value.Eq,
	expression.OpNe:  value.Ne,
	expression.OpGt:  value.Gt,
	expression.OpLt:  value.Lt,
	expression.OpGe:  value.Ge,
	expression.OpLe:  value.Le,
	expression.OpAnd: value.And,
	expression.OpOr:  value.Or,
	expression.OpMin: value.Min,
	expression.OpMax: value.Max,
}

// Evaluate evaluates an expression tree against an algebra context. The
// context is checked for cancellation before every node. All other
// failures wrap ErrEvaluate and no partial result is returned.
func Evaluate(ctx context.Context, n expression.Node, ac *algebra.Context) (*mesh.Dataset, error) {
	e := &evaluator{ctx: ctx, ac: ac}
	return e.eval(n)
}

type evaluator struct {
	ctx context.Context
	ac  *algebra.Context
}

func (e *evaluator) errorf(msg string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrEvaluate, fmt.Sprintf(msg, args...))
}

func (e *evaluator) eval(n expression.Node) (*mesh.Dataset, error) {
	if err := e.ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCanceled, err)
	}

	switch n := n.(type) {
	case *expression.Number:
		return e.ac.Number(n.Value), nil
	case *expression.NoData:
		return e.ac.Nodata(), nil
	case *expression.DatasetRef:
		if !e.ac.Has(n.Name) {
			return nil, e.errorf("dataset %q not bound", n.Name)
		}
		return e.ac.Copy(n.Name), nil
	case *expression.Unary:
		x, err := e.eval(n.Operand)
		if err != nil {
			return nil, err
		}
		if f, ok := reductions[n.Op]; ok {
			return e.ac.Aggregate(x, f), nil
		}
		f, ok := unaryOps[n.Op]
		if !ok {
			return nil, e.errorf("invalid unary operator %s", n.Op)
		}
		return e.ac.Unary(x, f), nil
	case *expression.Binary:
		return e.binary(n.Op, n.Left, n.Right)
	case *expression.Function:
		return e.binary(n.Op, n.Left, n.Right)
	case *expression.Conditional:
		return e.conditional(n)
	case nil:
		return nil, e.errorf("missing operand")
	default:
		return nil, e.errorf("unknown node type %T", n)
	}
}

func (e *evaluator) binary(op expression.Operator, left, right expression.Node) (*mesh.Dataset, error) {
	f, ok := binaryOps[op]
	if !ok {
		return nil, e.errorf("invalid binary operator %s", op)
	}
	l, err := e.eval(left)
	if err != nil {
		return nil, err
	}
	r, err := e.eval(right)
	if err != nil {
		return nil, err
	}
	if err := e.compatible(op.String(), l, r); err != nil {
		return nil, err
	}
	return e.ac.Binary(l, r, f), nil
}

func (e *evaluator) conditional(n *expression.Conditional) (*mesh.Dataset, error) {
	c, err := e.eval(n.Condition)
	if err != nil {
		return nil, err
	}
	for _, o := range c.Outputs {
		for i, v := range o.Values {
			if !value.IsBool(v) {
				return nil, e.errorf("condition %s is not boolean: value %g at index %d", n.Condition, v, i)
			}
		}
	}
	a, err := e.eval(n.True)
	if err != nil {
		return nil, err
	}
	b, err := e.eval(n.False)
	if err != nil {
		return nil, err
	}
	if err := e.compatible("IF", c, a, b); err != nil {
		return nil, err
	}
	return e.ac.Select(c, a, b), nil
}

func (e *evaluator) compatible(op string, operands ...*mesh.Dataset) error {
	ref := operands[0]
	for _, o := range operands[1:] {
		if o.Location != ref.Location {
			return e.errorf("%s: operands centered on %s and %s", op, ref.Location, o.Location)
		}
		if ref.IsTimeVarying() && o.IsTimeVarying() && ref.OutputCount() != o.OutputCount() {
			return e.errorf("%s: operands with %d and %d outputs", op, ref.OutputCount(), o.OutputCount())
		}
	}
	return nil
}
