package motionplan

import (
	"math"
	"slices"

	"github.com/golang/geo/r2"
	"github.com/samber/lo"

	"go.viam.com/fibermos/logging"
	"go.viam.com/fibermos/positioner"
)

// delays shorter than this, in ms, are rounding noise.
const delayEpsilon = 1e-9

// Session owns the target points assigned to the positioners of a model, at most one per
// positioner.
type Session struct {
	model   *positioner.Model
	logger  logging.Logger
	targets map[int]r2.Point
}

// NewSession returns a session without targets.
func NewSession(model *positioner.Model, logger logging.Logger) *Session {
	return &Session{model: model, logger: logger, targets: map[int]r2.Point{}}
}

// AssignTarget sets the point the fiber of rp must be placed on, replacing any previous one.
func (s *Session) AssignTarget(rp *positioner.RoboticPositioner, x, y float64) error {
	if rp == nil {
		return NewImproperArgumentError("nil positioner")
	}
	if found, ok := s.model.ByID(rp.ID); !ok || found != rp {
		return NewImproperArgumentError("%v does not belong to the model", rp)
	}
	if !rp.Operative() {
		return NewImproperArgumentError("%v is not operative", rp)
	}
	if _, _, ok := rp.Actuator.AngleForTarget(x, y); !ok {
		return NewImproperArgumentError("(%v, %v) is out of the domain of %v", x, y, rp)
	}
	if _, ok := s.targets[rp.ID]; ok {
		s.logger.Debugf("replacing target of %v", rp)
	}
	s.targets[rp.ID] = r2.Point{X: x, Y: y}
	return nil
}

// Target returns the point assigned to the positioner id.
func (s *Session) Target(id int) (r2.Point, error) {
	pt, ok := s.targets[id]
	if !ok {
		return r2.Point{}, NewImproperCallError("no target point built for RP%d", id)
	}
	return pt, nil
}

// Clear removes the target of the positioner id.
func (s *Session) Clear(id int) {
	delete(s.targets, id)
}

// IDs returns the sorted ids of the positioners with a target.
func (s *Session) IDs() []int {
	ids := lo.Keys(s.targets)
	slices.Sort(ids)
	return ids
}

// MoveToTargets places every positioner with a target at the stable position nearest to the
// angles reaching it.
func (s *Session) MoveToTargets() error {
	for _, id := range s.IDs() {
		rp, ok := s.model.ByID(id)
		if !ok {
			return NewImproperCallError("RP%d left the model", id)
		}
		pt := s.targets[id]
		theta1, theta3, ok := rp.Actuator.AngleForTarget(pt.X, pt.Y)
		if !ok {
			return NewImproperArgumentError("(%v, %v) is out of the domain of %v", pt.X, pt.Y, rp)
		}
		if err := rp.Actuator.SetAngles(theta1, theta3); err != nil {
			return err
		}
	}
	return nil
}

// PairResult holds a positioning program, which takes the positioners from the configuration
// the depositioning program ends at to the observing configuration, and that depositioning
// program.
type PairResult struct {
	PP *MotionProgram
	DP *MotionProgram
	*DepositioningResult
}

// GeneratePairPPDP moves the positioners to the targets of the session, generates the
// depositioning program from there and derives the positioning program as its reverse. Collided
// and Obstructed positioners are excluded from both. A positioner found colliding while the
// positioning program is validated is excluded as Obstructed and both programs are generated
// again. The model is left at the observing configuration.
func (g *Generator) GeneratePairPPDP(s *Session) (*PairResult, error) {
	if len(s.targets) == 0 {
		return nil, NewImproperCallError("no target points built")
	}
	if err := s.MoveToTargets(); err != nil {
		return nil, err
	}
	observing := g.model.Positions()

	excluded := map[int]bool{}
	var excludedRPs []*positioner.RoboticPositioner
	for {
		outsiders := lo.Filter(g.model.Outsiders(), func(rp *positioner.RoboticPositioner, _ int) bool {
			_, ok := s.targets[rp.ID]
			return ok && !excluded[rp.ID]
		})
		dpRes, err := g.GenerateDepositioningProgram(outsiders)
		if err != nil {
			return nil, err
		}

		if err := g.model.SetPositions(observing); err != nil {
			return nil, err
		}
		pp, err := g.reverseProgram(dpRes.Program)
		if err != nil {
			return nil, err
		}

		if g.opts.ValidatePrograms {
			report, err := NewValidator(g.model, g.logger).Validate(pp)
			if err != nil {
				return nil, NewImpossibleError("positioning program cannot be simulated: %v", err)
			}
			if !report.Valid {
				rp, ok := lo.Find(outsiders, func(rp *positioner.RoboticPositioner) bool { return rp.ID == report.Collision.ID1 })
				if !ok {
					return nil, NewImpossibleError("positioning program is not valid: %v", report.Collision)
				}
				g.logger.Debugf("positioning program is not valid: %v, excluding %v", report.Collision, rp)
				excluded[rp.ID] = true
				excludedRPs = append(excludedRPs, rp)
				if err := g.model.SetPositions(observing); err != nil {
					return nil, err
				}
				continue
			}
		}
		if err := g.model.SetPositions(observing); err != nil {
			return nil, err
		}
		if len(excludedRPs) > 0 {
			dpRes.Obstructed = append(slices.Clone(excludedRPs), dpRes.Obstructed...)
			dpRes.Success = false
		}
		g.logger.Infof("positioning program %s pairs depositioning program %s", pp.ID, dpRes.Program.ID)
		return &PairResult{PP: pp, DP: dpRes.Program, DepositioningResult: dpRes}, nil
	}
}

// reverseProgram returns the program undoing mp, gesture by gesture in reverse order. Each
// reversed gesture takes its positioners back to where they were before the original one and is
// its time reverse: every positioner waits before moving, so all of them arrive together. The model must be at the starting configuration of mp
// and is left at its final configuration.
func (g *Generator) reverseProgram(mp *MotionProgram) (*MotionProgram, error) {
	lists := mp.Lists()
	reversed := make([]*MessageList, len(lists))
	for i, ml := range lists {
		back := NewMessageList()
		movers := make([]*positioner.RoboticPositioner, 0, ml.Len())
		for _, mi := range ml.Instructions() {
			rp, ok := g.model.ByID(mi.ID)
			if !ok {
				return nil, NewImproperArgumentError("program references unknown RP%d", mi.ID)
			}
			act := rp.Actuator
			p1, p3 := math.Round(act.P1()), math.Round(act.P3())
			var args []float64
			switch mi.Name {
			case M1:
				args = []float64{p1}
			case M2:
				args = []float64{p3}
			case MM:
				args = []float64{p1, p3}
			}
			undo, err := NewMessageInstruction(mi.ID, mi.Name, args...)
			if err != nil {
				return nil, err
			}
			if err := back.Add(undo); err != nil {
				return nil, err
			}
			if err := mi.Program(act); err != nil {
				return nil, err
			}
			movers = append(movers, rp)
		}
		for _, rp := range movers {
			rp.Actuator.MoveToFinal()
			rp.Actuator.ClearCMF()
		}
		if err := delayToArriveTogether(back, movers); err != nil {
			return nil, err
		}
		reversed[len(lists)-1-i] = back
	}
	pp := NewMotionProgram()
	for _, ml := range reversed {
		pp.Append(ml)
	}
	return pp, nil
}

// delayToArriveTogether sets the start delays of the instructions of ml so that all of them
// complete at the same time. movers are the positioners of ml, in order, at the starting
// configuration of the gesture.
func delayToArriveTogether(ml *MessageList, movers []*positioner.RoboticPositioner) error {
	instructions := ml.Instructions()
	durations := make([]float64, len(instructions))
	for j, mi := range instructions {
		act := movers[j].Actuator
		if err := mi.Program(act); err != nil {
			return err
		}
		durations[j] = act.DisplacementTime()
		act.ClearCMF()
	}
	end := lo.Max(durations)
	for j, mi := range instructions {
		if delay := end - durations[j]; delay > delayEpsilon {
			mi.Delay = delay
		}
	}
	return nil
}
