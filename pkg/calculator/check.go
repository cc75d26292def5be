package calculator

import (
	"fmt"

	"github.com/mandelsoft/meshcalc/pkg/algebra"
	"github.com/mandelsoft/meshcalc/pkg/expression"
	"github.com/mandelsoft/meshcalc/pkg/mesh"
)

// Info describes the dataset a formula would produce.
type Info struct {
	Expression  *expression.Expression
	Datasets    []string
	Location    mesh.Location
	TimeVarying bool
	Times       []float64
	// Boolean is set if the result is a 0/1 condition.
	Boolean bool
	Depth   int
}

// Check validates a formula against a mesh without evaluating it.
func (c *Calculator) Check(formula string, m *mesh.Mesh) (*Info, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: no mesh given", ErrInputLayer)
	}
	expr, err := expression.Parse(formula)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParser, err)
	}
	w := AllTimes()
	ac, err := algebra.New(m, expr.DatasetNames(), w.Start, w.End)
	if err != nil {
		return nil, err
	}
	info := &Info{
		Expression:  expr,
		Datasets:    expr.DatasetNames(),
		Location:    ac.Location(),
		TimeVarying: timeVarying(expr.Root(), ac),
		Boolean:     boolean(expr.Root()),
		Depth:       expression.Depth(expr.Root()),
	}
	if info.TimeVarying {
		info.Times = ac.Times()
	} else {
		info.Times = ac.Times()[:1]
	}
	return info, nil
}

// timeVarying determines whether evaluating n yields more than one output.
// Constants follow the time axis, aggregates collapse it.
func timeVarying(n expression.Node, ac *algebra.Context) bool {
	switch n := n.(type) {
	case *expression.Number, *expression.NoData:
		return len(ac.Times()) > 1
	case *expression.DatasetRef:
		ds := ac.Dataset(n.Name)
		return ds.IsTimeVarying() && len(ac.Times()) > 1
	case *expression.Unary:
		if n.Op.IsAggregate() {
			return false
		}
		return timeVarying(n.Operand, ac)
	case *expression.Binary:
		return timeVarying(n.Left, ac) || timeVarying(n.Right, ac)
	case *expression.Function:
		return timeVarying(n.Left, ac) || timeVarying(n.Right, ac)
	case *expression.Conditional:
		return timeVarying(n.Condition, ac) || timeVarying(n.True, ac) || timeVarying(n.False, ac)
	}
	return false
}

// boolean determines whether evaluating n yields the boolean encoding.
func boolean(n expression.Node) bool {
	switch n := n.(type) {
	case *expression.Unary:
		return n.Op.IsBoolean()
	case *expression.Binary:
		return n.Op.IsBoolean()
	case *expression.Conditional:
		return boolean(n.True) && boolean(n.False)
	}
	return false
}
