package utils

import (
	"math"

	"golang.org/x/exp/constraints"
	"gonum.org/v1/gonum/floats/scalar"
)

// DefaultEpsilon is the tolerance used by the AlmostEqual helpers when none is given.
const DefaultEpsilon = 1e-9

// Float64AlmostEqual compares two float64s and returns if the difference between them is less than epsilon.
func Float64AlmostEqual(a, b, epsilon float64) bool {
	return scalar.EqualWithinAbs(a, b, epsilon)
}

// Clamp returns v limited to the closed interval [lo, hi].
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Abs returns the absolute value of n.
func Abs[T constraints.Signed | constraints.Float](n T) T {
	if n < 0 {
		return -1 * n
	}
	return n
}

// RoundToInt rounds half away from zero.
func RoundToInt(v float64) int {
	return int(math.Round(v))
}
