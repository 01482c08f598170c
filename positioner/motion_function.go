package positioner

import (
	"fmt"
	"math"
)

// MotionFunction describes how the angle of one rotor varies with the elapsed time of a gesture.
// The rotor waits at Start for Delay ms, travels to Final at constant Velocity (rad/ms) and then
// stays at Final.
type MotionFunction struct {
	Start    float64
	Final    float64
	Velocity float64
	Delay    float64
}

// NewMotionFunction returns a motion function from start to final at the given speed.
func NewMotionFunction(start, final, velocity float64) *MotionFunction {
	return &MotionFunction{Start: start, Final: final, Velocity: math.Abs(velocity)}
}

// Moves reports whether the function displaces the rotor at all.
func (mf *MotionFunction) Moves() bool {
	return mf.Start != mf.Final
}

// Duration returns the time needed to reach Final, delay included.
func (mf *MotionFunction) Duration() float64 {
	if !mf.Moves() || mf.Velocity == 0 {
		return 0
	}
	return mf.Delay + math.Abs(mf.Final-mf.Start)/mf.Velocity
}

// At returns the rotor angle at time t of the gesture.
func (mf *MotionFunction) At(t float64) float64 {
	if t <= mf.Delay {
		return mf.Start
	}
	if t >= mf.Duration() {
		return mf.Final
	}
	return mf.Start + math.Copysign(mf.Velocity*(t-mf.Delay), mf.Final-mf.Start)
}

// Shift displaces the whole interval by delta, keeping both ends within [lo, hi].
func (mf *MotionFunction) Shift(delta, lo, hi float64) {
	mf.Start = math.Max(lo, math.Min(hi, mf.Start+delta))
	mf.Final = math.Max(lo, math.Min(hi, mf.Final+delta))
}

func (mf *MotionFunction) String() string {
	if mf.Delay > 0 {
		return fmt.Sprintf("[%.6f -> %.6f @ %.6f rad/ms after %.3f ms]", mf.Start, mf.Final, mf.Velocity, mf.Delay)
	}
	return fmt.Sprintf("[%.6f -> %.6f @ %.6f rad/ms]", mf.Start, mf.Final, mf.Velocity)
}
