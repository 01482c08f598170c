// Package collision computes how long pairs of positioners can keep moving before their arms
// could come within their safety margins.
//
// All times are upper bounds derived from the current distance between arm contours and the
// worst-case linear speed of each arm, so they stay valid whatever the shape of the motion.
// A time <= 0 is the collision signal everywhere in the planner.
package collision

import "math"

// FreeTime returns the time two contours at the given distance can approach each other at
// velocity vmax before the joint safety margin spm is consumed. It is 0 when the margin is
// already violated and +Inf when nothing moves.
func FreeTime(distance, spm, vmax float64) float64 {
	df := distance - spm
	if df < 0 {
		return 0
	}
	if vmax == 0 {
		return math.Inf(1)
	}
	return df / vmax
}

// MinStepTime is FreeTime with the free distance floored at spmMin, the margin a single
// simulation jump may consume. It bounds the simulation step from below so that the clock keeps
// advancing while two arms slide along each other at the edge of their margins.
func MinStepTime(distance, spm, spmMin, vmax float64) float64 {
	df := distance - spm
	if df < 0 {
		return 0
	}
	if vmax == 0 {
		return math.Inf(1)
	}
	return math.Max(df, spmMin) / vmax
}
