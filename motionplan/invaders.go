package motionplan

import (
	"cmp"
	"math"
	"slices"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/fibermos/collision"
	"go.viam.com/fibermos/positioner"
	"go.viam.com/fibermos/utils"
)

// Displacement is a rotor 1 shift, in steps, that takes a positioner out of collision.
type Displacement struct {
	RP    *positioner.RoboticPositioner
	Steps int
}

// jumpSteps returns the jump search increment of rp in signed steps.
func (g *Generator) jumpSteps(rp *positioner.RoboticPositioner) int {
	steps := max(1, utils.RoundToInt(math.Abs(rp.Actuator.Theta1ToSteps(g.opts.Jump))))
	if g.opts.Jump < 0 {
		return -steps
	}
	return steps
}

// DisplacementToAvoidInvasion searches the rotor 1 shift that takes rp out of collision with all
// its adjacents. Candidates are tried at growing multiples of the jump, first in the direction
// of the jump and then in the opposite one, until one is free or both leave the rotor 1 domain.
// The second return is false when no candidate is free. rp is always left where it was.
func (g *Generator) DisplacementToAvoidInvasion(rp *positioner.RoboticPositioner) (Displacement, bool) {
	if collision.CalculateTfmin(rp) > 0 {
		return Displacement{RP: rp}, true
	}
	act := rp.Actuator
	jump := g.jumpSteps(rp)
	p1 := utils.RoundToInt(act.P1())

	hold := act.Hold()
	defer func() {
		if err := hold.Release(); err != nil {
			g.logger.Errorf("cannot restore %v after the jump search: %v", rp, err)
		}
	}()
	for k := 1; ; k++ {
		inDomain := false
		for _, candidate := range []int{p1 + k*jump, p1 - k*jump} {
			theta := act.Steps1ToTheta(float64(candidate))
			if !act.IsInDomain1(theta) {
				continue
			}
			inDomain = true
			g.stats.Candidates++
			if err := act.SetTheta1(theta); err != nil {
				continue
			}
			if collision.CalculateTfmin(rp) > 0 {
				return Displacement{RP: rp, Steps: candidate - p1}, true
			}
		}
		if !inDomain {
			return Displacement{RP: rp}, false
		}
	}
}

// turnSequence applies the pending displacements of work, smallest first. After each turn the
// displacements pending for the adjacents of the turned positioner are searched again: a new
// nonzero shift replaces the pending one, and the adjacent is dropped when it is free or has no
// free candidate any more. It returns the number of turns applied.
func turnSequence(
	work []Displacement,
	search func(*positioner.RoboticPositioner) (Displacement, bool),
	turn func(Displacement) error,
) (int, error) {
	work = slices.Clone(work)
	sortByDecreasingDisplacement(work)
	turns := 0
	for len(work) > 0 {
		d := work[len(work)-1]
		work = work[:len(work)-1]
		if err := turn(d); err != nil {
			return turns, err
		}
		turns++

		for _, adj := range d.RP.OperativeAdjacents() {
			i := slices.IndexFunc(work, func(w Displacement) bool { return w.RP == adj })
			if i < 0 {
				continue
			}
			nd, ok := search(adj)
			if !ok || nd.Steps == 0 {
				work = slices.Delete(work, i, i+1)
				continue
			}
			work[i] = nd
		}
		sortByDecreasingDisplacement(work)
	}
	return turns, nil
}

// checkInvaders verifies the positioners are in the state RetractRetractiles leaves invaders in.
func checkInvaders(invaders []*positioner.RoboticPositioner) error {
	for _, rp := range invaders {
		if rp == nil {
			return NewImproperArgumentError("nil positioner")
		}
		if !rp.Operative() {
			return NewImproperArgumentError("%v is not operative", rp)
		}
		if rp.Actuator.Quantify1() {
			return NewImproperArgumentError("%v has its rotor 1 quantizer enabled", rp)
		}
		if !rp.Actuator.IsRetractionProgrammed() {
			return NewImproperArgumentError("%v has no retraction programmed", rp)
		}
		if rp.Actuator.StackDepth() == 0 {
			return NewImproperArgumentError("%v has no stacked position", rp)
		}
	}
	return nil
}

func sortByDecreasingDisplacement(work []Displacement) {
	slices.SortStableFunc(work, func(a, b Displacement) int {
		return cmp.Compare(utils.Abs(b.Steps), utils.Abs(a.Steps))
	})
}

// TurnToSolveCollisions turns rotor 1 of the invaders in collision until no invader is. The
// smallest pending displacement is applied first and the pending displacements of its adjacents
// are recomputed after each one. Invaders without a free candidate are left where they are,
// since a turning neighbour may free them. It returns the minimum Tf of the invaders and whether
// any of them was turned, or ErrCantFindSolution when some collision remains.
func (g *Generator) TurnToSolveCollisions(invaders []*positioner.RoboticPositioner) (float64, bool, error) {
	if err := checkInvaders(invaders); err != nil {
		return 0, false, err
	}

	var work []Displacement
	for _, rp := range invaders {
		d, ok := g.DisplacementToAvoidInvasion(rp)
		if !ok {
			g.logger.Debugf("%v has no free rotor 1 position yet", rp)
			continue
		}
		if d.Steps != 0 {
			work = append(work, d)
		}
	}
	turns, err := turnSequence(work, g.DisplacementToAvoidInvasion, func(d Displacement) error {
		act := d.RP.Actuator
		before := act.Theta1()
		if err := act.SetP1(float64(utils.RoundToInt(act.P1()) + d.Steps)); err != nil {
			return NewImpossibleError("cannot turn %v: %v", d.RP, err)
		}
		act.ShiftMF1(act.Theta1() - before)
		g.stats.Turns++
		g.logger.Debugf("%v turned %d steps", d.RP, d.Steps)
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	turned := turns > 0

	tfmin := collision.CalculateTfminList(invaders)
	if tfmin <= 0 {
		rp, _ := collision.FirstInCollision(invaders)
		return 0, turned, NewCantFindSolutionError("%v remains in collision", rp)
	}
	return tfmin, turned, nil
}

// RetractInvaders simulates the retraction of the invaders, turning them whenever they collide.
// After any turn the arms are taken back to their stacked position and the simulation restarts,
// keeping the rotor 1 shifts. On success every invader is parked, with rotor 1 at a stable
// position and its original position still stacked.
func (g *Generator) RetractInvaders(invaders []*positioner.RoboticPositioner) error {
	if err := checkInvaders(invaders); err != nil {
		return err
	}
	restarts := 0
	for {
		end := displacementTime(invaders)
		t := 0.
		restarted := false
		for {
			moveToTime(invaders, math.Min(t, end))
			_, turned, err := g.TurnToSolveCollisions(invaders)
			if err != nil {
				return err
			}
			if turned {
				for _, rp := range invaders {
					if err := rp.Actuator.RestoreTheta3(); err != nil {
						return NewImpossibleError("%v: %v", rp, err)
					}
				}
				restarts++
				g.stats.Restarts++
				if restarts > g.opts.MaxRestarts {
					return NewCantFindSolutionError("invaders still turning after %d restarts", g.opts.MaxRestarts)
				}
				restarted = true
				break
			}
			if t >= end {
				break
			}
			t += collision.SimulationStep(invaders)
			g.stats.SimulationSteps++
		}
		if !restarted {
			break
		}
	}
	g.logger.Debugf("invaders retracted after %d restarts", restarts)
	for _, rp := range invaders {
		rp.Actuator.SetQuantify1(true)
	}
	return nil
}

// programTurns builds the gesture turning rotor 1 of the invaders from their stacked position to
// their current one, and pops their stacked positions.
func programTurns(invaders []*positioner.RoboticPositioner) (*MessageList, error) {
	ml := NewMessageList()
	for _, rp := range invaders {
		act := rp.Actuator
		top, err := act.TopPosition()
		if err != nil {
			return nil, NewImpossibleError("%v: %v", rp, err)
		}
		from := utils.RoundToInt(act.Theta1ToSteps(top.Theta1))
		to := utils.RoundToInt(act.P1())
		if from != to {
			mi, err := NewMessageInstruction(rp.ID, M1, float64(to))
			if err != nil {
				return nil, err
			}
			if err := ml.Add(mi); err != nil {
				return nil, err
			}
		}
		if err := act.PopPosition(); err != nil {
			return nil, NewImpossibleError("%v: %v", rp, err)
		}
	}
	return ml, nil
}

// resolveInvaders retracts the invaders with RetractInvaders and then checks the rotor 1 turns
// they need can be swept with their arms still extended. An invader whose turn collides is
// excluded and the others are retracted again from their original position. The invaders
// returned are excluded, back at their original position with nothing stacked; the others are
// parked as RetractInvaders leaves them.
func (g *Generator) resolveInvaders(invaders []*positioner.RoboticPositioner) ([]*positioner.RoboticPositioner, error) {
	var obstructed []*positioner.RoboticPositioner
	pending := slices.Clone(invaders)
	for len(pending) > 0 {
		err := g.RetractInvaders(pending)
		if errors.Is(err, ErrCantFindSolution) {
			g.logger.Debugf("%v, excluding invaders %v", err, pending)
			if err := exclude(pending); err != nil {
				return nil, err
			}
			return append(obstructed, pending...), nil
		}
		if err != nil {
			return nil, err
		}

		rp, err := g.sweepTurns(pending)
		if err != nil {
			return nil, err
		}
		if rp == nil {
			return obstructed, nil
		}
		g.logger.Debugf("turning %v sweeps across an adjacent, excluding it", rp)
		if err := exclude([]*positioner.RoboticPositioner{rp}); err != nil {
			return nil, err
		}
		obstructed = append(obstructed, rp)
		pending = lo.Without(pending, rp)
		for _, rp := range pending {
			act := rp.Actuator
			act.SetQuantify1(false)
			if err := act.RestorePosition(); err != nil {
				return nil, NewImpossibleError("%v: %v", rp, err)
			}
			act.ProgramRetraction()
		}
	}
	return obstructed, nil
}

// sweepTurns simulates the gesture turning rotor 1 of the invaders from their stacked position to
// their current one, arms still at their stacked extension. It returns the first invader whose
// turn collides, or nil when every turn is free. The invaders are left parked as RetractInvaders
// leaves them.
func (g *Generator) sweepTurns(invaders []*positioner.RoboticPositioner) (*positioner.RoboticPositioner, error) {
	turned := make([]float64, len(invaders))
	var movers []*positioner.RoboticPositioner
	for i, rp := range invaders {
		act := rp.Actuator
		turned[i] = act.Theta1()
		to := utils.RoundToInt(act.P1())
		act.SetQuantify1(false)
		if err := act.RestorePosition(); err != nil {
			return nil, NewImpossibleError("%v: %v", rp, err)
		}
		act.ClearCMF()
		if utils.RoundToInt(act.P1()) == to {
			continue
		}
		if err := act.ProgramP1(float64(to)); err != nil {
			return nil, NewImpossibleError("cannot turn %v: %v", rp, err)
		}
		movers = append(movers, rp)
	}

	var invader *positioner.RoboticPositioner
	end := displacementTime(movers)
	for t := 0.; ; {
		moveToTime(movers, math.Min(t, end))
		if rp, ok := collision.FirstInCollision(movers); ok {
			invader = rp
			break
		}
		if t >= end {
			break
		}
		t += collision.SimulationStep(movers)
		g.stats.SimulationSteps++
	}

	for i, rp := range invaders {
		act := rp.Actuator
		act.ClearCMF()
		if err := act.SetTheta1(turned[i]); err != nil {
			return nil, NewImpossibleError("%v: %v", rp, err)
		}
		act.ProgramRetraction()
		act.MoveToFinal()
		act.SetQuantify1(true)
	}
	return invader, nil
}

// exclude takes the positioners back to their stacked position, pops it and makes them stable.
func exclude(rps []*positioner.RoboticPositioner) error {
	for _, rp := range rps {
		if err := rp.Actuator.RestoreAndPopPosition(); err != nil {
			return NewImpossibleError("%v: %v", rp, err)
		}
		rp.Actuator.ClearCMF()
		rp.Actuator.SetQuantifiers(true)
	}
	return nil
}
