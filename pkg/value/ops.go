package value

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

func Add(a, b float64) float64 { return a + b }
func Sub(a, b float64) float64 { return a - b }
func Mul(a, b float64) float64 { return a * b }

// Div returns nodata for a (near) zero divisor.
func Div(a, b float64) float64 {
	if Equal(b, 0) {
		return Nodata
	}
	return a / b
}

func Pow(a, b float64) float64 { return math.Pow(a, b) }

func Eq(a, b float64) float64 { return Bool(Equal(a, b)) }
func Ne(a, b float64) float64 { return Bool(!Equal(a, b)) }
func Gt(a, b float64) float64 { return Bool(a > b && !Equal(a, b)) }
func Lt(a, b float64) float64 { return Bool(a < b && !Equal(a, b)) }
func Ge(a, b float64) float64 { return Bool(a > b || Equal(a, b)) }
func Le(a, b float64) float64 { return Bool(a < b || Equal(a, b)) }

func And(a, b float64) float64 { return Bool(IsTrue(a) && IsTrue(b)) }
func Or(a, b float64) float64  { return Bool(IsTrue(a) || IsTrue(b)) }
func Not(a float64) float64    { return Bool(!IsTrue(a)) }

func Min(a, b float64) float64 { return math.Min(a, b) }
func Max(a, b float64) float64 { return math.Max(a, b) }
func Abs(a float64) float64    { return math.Abs(a) }
func Neg(a float64) float64    { return -a }

////////////////////////////////////////////////////////////////////////////////
// reductions, called with valid values only (see Reduce)

func Sum(values []float64) float64     { return floats.Sum(values) }
func Minimum(values []float64) float64 { return floats.Min(values) }
func Maximum(values []float64) float64 { return floats.Max(values) }
func Average(values []float64) float64 { return floats.Sum(values) / float64(len(values)) }
