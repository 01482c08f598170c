package motionplan

import (
	"math"

	"github.com/samber/lo"

	"go.viam.com/fibermos/collision"
	"go.viam.com/fibermos/positioner"
)

// displacementTime returns the time the slowest positioner needs to complete its motion.
func displacementTime(rps []*positioner.RoboticPositioner) float64 {
	t := 0.
	for _, rp := range rps {
		t = math.Max(t, rp.Actuator.DisplacementTime())
	}
	return t
}

func moveToTime(rps []*positioner.RoboticPositioner, t float64) {
	for _, rp := range rps {
		rp.Actuator.MoveToTime(t)
	}
}

// checkOutsiders verifies the positioners can start a retraction: each one must be operative,
// out of the safe area, stable and not colliding.
func checkOutsiders(rps []*positioner.RoboticPositioner) error {
	seen := map[int]bool{}
	for _, rp := range rps {
		if rp == nil {
			return NewImproperArgumentError("nil positioner")
		}
		if seen[rp.ID] {
			return NewImproperArgumentError("%v listed twice", rp)
		}
		seen[rp.ID] = true
		if !rp.Operative() {
			return NewImproperArgumentError("%v is not operative", rp)
		}
		if rp.Actuator.ArmInSafeArea() {
			return NewImproperArgumentError("%v is already in the safe area", rp)
		}
		if !rp.Actuator.Quantify1() || !rp.Actuator.Quantify3() {
			return NewImproperArgumentError("%v has its quantizers disabled", rp)
		}
	}
	return nil
}

// RetractRetractiles simulates the simultaneous retraction of the outsiders and splits them into
// the retractiles, left parked, and the invaders, which would collide while retracting and are
// left at their original position. Every outsider keeps its original position stacked and has
// its quantizers disabled; the caller pops the stack once it commits to the result.
func (g *Generator) RetractRetractiles(outsiders []*positioner.RoboticPositioner) (retractiles, invaders []*positioner.RoboticPositioner, err error) {
	if err := checkOutsiders(outsiders); err != nil {
		return nil, nil, err
	}
	for _, rp := range outsiders {
		if collision.InCollision(rp) {
			return nil, nil, NewImproperArgumentError("%v is in collision", rp)
		}
	}
	return g.retractRetractiles(outsiders)
}

// retractRetractiles is a discrete event simulation: the clock advances by the minimum time any
// pair of arms can safely move, and every time a retracting arm invades the margins of an
// adjacent, that positioner becomes an invader and the simulation restarts from t = 0.
func (g *Generator) retractRetractiles(outsiders []*positioner.RoboticPositioner) (retractiles, invaders []*positioner.RoboticPositioner, err error) {
	for _, rp := range outsiders {
		rp.Actuator.PushPosition()
		rp.Actuator.ProgramRetraction()
		rp.Actuator.SetQuantifiers(false)
	}

	retractiles = append([]*positioner.RoboticPositioner(nil), outsiders...)
	end := displacementTime(retractiles)
	t := 0.
	for {
		moveToTime(retractiles, math.Min(t, end))
		if rp, ok := collision.FirstInCollision(retractiles); ok {
			if err := rp.Actuator.RestorePosition(); err != nil {
				return nil, nil, NewImpossibleError("%v: %v", rp, err)
			}
			retractiles = lo.Without(retractiles, rp)
			invaders = append(invaders, rp)
			g.logger.Debugf("%v invades an adjacent at t = %.3f ms, restarting", rp, t)
			end = displacementTime(retractiles)
			t = 0
			continue
		}
		if t >= end {
			break
		}
		t += collision.SimulationStep(retractiles)
		g.stats.SimulationSteps++
	}
	return retractiles, invaders, nil
}

// retractionList builds the gesture parking the positioners at the end of their programmed
// motion.
func retractionList(rps []*positioner.RoboticPositioner) (*MessageList, error) {
	ml := NewMessageList()
	for _, rp := range rps {
		mf := rp.Actuator.MF3()
		if mf == nil {
			return nil, NewImpossibleError("%v has no retraction programmed", rp)
		}
		mi, err := NewMessageInstruction(rp.ID, M2, math.Round(rp.Actuator.Theta3ToSteps(mf.Final)))
		if err != nil {
			return nil, err
		}
		if err := ml.Add(mi); err != nil {
			return nil, err
		}
	}
	return ml, nil
}

// settle pops the stacked original positions of the retracted positioners and makes them stable
// again.
func settle(rps []*positioner.RoboticPositioner) error {
	for _, rp := range rps {
		if err := rp.Actuator.PopPosition(); err != nil {
			return NewImpossibleError("%v: %v", rp, err)
		}
		rp.Actuator.ClearCMF()
		rp.Actuator.SetQuantifiers(true)
	}
	return nil
}
