package collision

import (
	"math"

	"go.viam.com/fibermos/positioner"
)

// CalculateTf returns the time both positioners can keep executing their programmed motion
// before their arms could approach closer than the sum of their safety margins.
func CalculateTf(a, b *positioner.RoboticPositioner) float64 {
	ca, cb := a.Actuator.Config(), b.Actuator.Config()
	return FreeTime(
		a.Actuator.Distance(b.Actuator),
		ca.SPM+cb.SPM,
		a.Actuator.MaxApexVelocity()+b.Actuator.MaxApexVelocity(),
	)
}

// CalculateTmin returns the minimum simulation step for the pair, see MinStepTime.
func CalculateTmin(a, b *positioner.RoboticPositioner) float64 {
	ca, cb := a.Actuator.Config(), b.Actuator.Config()
	return MinStepTime(
		a.Actuator.Distance(b.Actuator),
		ca.SPM+cb.SPM,
		ca.SPMMin+cb.SPMMin,
		a.Actuator.MaxApexVelocity()+b.Actuator.MaxApexVelocity(),
	)
}

// CalculateTfmin returns the minimum Tf between rp and each of its adjacents, stopping at the
// first pair in collision. It is +Inf for a positioner without adjacents.
func CalculateTfmin(rp *positioner.RoboticPositioner) float64 {
	tfmin := math.Inf(1)
	for _, adj := range rp.Adjacents {
		tf := CalculateTf(rp, adj)
		if tf <= 0 {
			return 0
		}
		tfmin = math.Min(tfmin, tf)
	}
	return tfmin
}

// CalculateTfminList returns the minimum Tfmin of the positioners, stopping at the first one in
// collision.
func CalculateTfminList(rps []*positioner.RoboticPositioner) float64 {
	tfmin := math.Inf(1)
	for _, rp := range rps {
		tf := CalculateTfmin(rp)
		if tf <= 0 {
			return 0
		}
		tfmin = math.Min(tfmin, tf)
	}
	return tfmin
}

// CalculateTminmin returns the minimum Tmin over every pair formed by a positioner of the list and
// one of its adjacents.
func CalculateTminmin(rps []*positioner.RoboticPositioner) float64 {
	tmin := math.Inf(1)
	for _, rp := range rps {
		for _, adj := range rp.Adjacents {
			tmin = math.Min(tmin, CalculateTmin(rp, adj))
		}
	}
	return tmin
}

// InCollision reports whether rp is in collision with any of its adjacents.
func InCollision(rp *positioner.RoboticPositioner) bool {
	return CalculateTfmin(rp) <= 0
}

// FirstCollision returns the first adjacent rp is in collision with.
func FirstCollision(rp *positioner.RoboticPositioner) (*positioner.RoboticPositioner, bool) {
	for _, adj := range rp.Adjacents {
		if CalculateTf(rp, adj) <= 0 {
			return adj, true
		}
	}
	return nil, false
}

// FirstInCollision returns the first positioner of the list in collision with an adjacent.
func FirstInCollision(rps []*positioner.RoboticPositioner) (*positioner.RoboticPositioner, bool) {
	for _, rp := range rps {
		if InCollision(rp) {
			return rp, true
		}
	}
	return nil, false
}

// SimulationStep returns how far the clock of a simulation over rps may advance: the minimum
// free time, floored by the minimum step time.
func SimulationStep(rps []*positioner.RoboticPositioner) float64 {
	return math.Max(CalculateTfminList(rps), CalculateTminmin(rps))
}
