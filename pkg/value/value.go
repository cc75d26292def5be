// Package value provides the scalar conventions shared by all dataset
// operations: the nodata sentinel, the boolean encoding and the elementwise
// operator library.
//
// Operator functions assume valid (non-nodata) operands. The absorbing
// nodata rule is applied by ApplyUnary, ApplyBinary and Reduce, which every
// dataset level operation uses to invoke them.
package value

import (
	"math"

	"gonum.org/v1/gonum/floats/scalar"
)

const (
	// Nodata marks an entry without a valid value.
	Nodata = -9999.0
	True   = 1.0
	False  = 0.0

	// Epsilon is the absolute tolerance used for equality of values and
	// output times.
	Epsilon = 1e-8
)

type UnaryFunc func(a float64) float64

type BinaryFunc func(a, b float64) float64

// Reduction collapses a non-empty list of valid values into one value.
type Reduction func(values []float64) float64

func IsNodata(v float64) bool {
	return v == Nodata || math.IsNaN(v)
}

func Equal(a, b float64) bool {
	return scalar.EqualWithinAbs(a, b, Epsilon)
}

// IsTrue reports whether v encodes the boolean true. Any other valid value
// is false, there is no C-style truthiness.
func IsTrue(v float64) bool {
	return Equal(v, True)
}

// IsBool reports whether v is one of the boolean encodings or nodata.
func IsBool(v float64) bool {
	return IsNodata(v) || Equal(v, True) || Equal(v, False)
}

func Bool(b bool) float64 {
	if b {
		return True
	}
	return False
}

// ApplyUnary evaluates f for a unless a is nodata.
func ApplyUnary(f UnaryFunc, a float64) float64 {
	if IsNodata(a) {
		return Nodata
	}
	return sanitize(f(a))
}

// ApplyBinary evaluates f for a and b unless one of them is nodata.
func ApplyBinary(f BinaryFunc, a, b float64) float64 {
	if IsNodata(a) || IsNodata(b) {
		return Nodata
	}
	return sanitize(f(a, b))
}

// Reduce drops all nodata entries of values and applies f to the rest.
// If nothing is left the result is nodata.
func Reduce(f Reduction, values []float64) float64 {
	valid := make([]float64, 0, len(values))
	for _, v := range values {
		if !IsNodata(v) {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		return Nodata
	}
	return sanitize(f(valid))
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Nodata
	}
	return v
}
