package motionplan

import (
	"fmt"
	"slices"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/samber/lo"

	"go.viam.com/fibermos/collision"
	"go.viam.com/fibermos/logging"
	"go.viam.com/fibermos/positioner"
)

// Stats counts the work done by a generator.
type Stats struct {
	SimulationSteps int `json:"simulation_steps"`
	Candidates      int `json:"candidates"`
	Turns           int `json:"turns"`
	Restarts        int `json:"restarts"`
}

// Generator builds motion programs that park the arms of the positioners of a model without
// collisions. It assumes exclusive ownership of the model while generating.
type Generator struct {
	model  *positioner.Model
	opts   *Options
	logger logging.Logger
	clock  clock.Clock
	stats  Stats
}

// NewGenerator returns a generator over model. Nil options mean the defaults.
func NewGenerator(model *positioner.Model, opts *Options, logger logging.Logger) *Generator {
	if opts == nil {
		opts = NewBasicOptions()
	}
	return &Generator{model: model, opts: opts, logger: logger, clock: clock.New()}
}

// SetClock replaces the clock used to time generation.
func (g *Generator) SetClock(c clock.Clock) {
	g.clock = c
}

// Stats returns the work counters accumulated since the generator was built.
func (g *Generator) Stats() Stats {
	return g.stats
}

// Model returns the model the generator works on.
func (g *Generator) Model() *positioner.Model {
	return g.model
}

// DepositioningResult is the outcome of a depositioning program generation. Every outsider ends
// up either parked by Program or listed in Collided or Obstructed.
type DepositioningResult struct {
	Program *MotionProgram
	// Success is true when every outsider is parked by the program.
	Success bool
	// Outsiders in collision before any motion. They are not moved.
	Collided []*positioner.RoboticPositioner
	// Invaders whose collisions could not be solved. They are left at their original position.
	Obstructed []*positioner.RoboticPositioner
	Elapsed    time.Duration
}

func (res *DepositioningResult) String() string {
	return fmt.Sprintf("success: %v, gestures: %d, collided: %v, obstructed: %v",
		res.Success, res.Program.Len(), res.Collided, res.Obstructed)
}

// generateDepositioningProgram runs the retraction stages on outsiders that are not in collision.
// The invaders it returns could not be solved; they are back at their original position and
// excluded from the program.
func (g *Generator) generateDepositioningProgram(outsiders []*positioner.RoboticPositioner) (*MotionProgram, []*positioner.RoboticPositioner, error) {
	mp := NewMotionProgram()

	retractiles, invaders, err := g.retractRetractiles(outsiders)
	if err != nil {
		return nil, nil, err
	}
	g.logger.Debugf("first retraction: retractiles %v, invaders %v", retractiles, invaders)
	if err := g.appendRetraction(mp, retractiles); err != nil {
		return nil, nil, err
	}

	// invaders of retracted positioners may now retract freely
	for _, rp := range invaders {
		if err := rp.Actuator.PopPosition(); err != nil {
			return nil, nil, NewImpossibleError("%v: %v", rp, err)
		}
	}
	retractiles, invaders, err = g.retractRetractiles(invaders)
	if err != nil {
		return nil, nil, err
	}
	g.logger.Debugf("second retraction: retractiles %v, invaders %v", retractiles, invaders)
	if err := g.appendRetraction(mp, retractiles); err != nil {
		return nil, nil, err
	}
	if len(invaders) == 0 {
		return mp, nil, nil
	}

	obstructed, err := g.resolveInvaders(invaders)
	if err != nil {
		return nil, nil, err
	}
	resolved := lo.Without(invaders, obstructed...)
	if len(resolved) == 0 {
		return mp, obstructed, nil
	}
	final, err := retractionList(resolved)
	if err != nil {
		return nil, nil, err
	}
	turns, err := programTurns(resolved)
	if err != nil {
		return nil, nil, err
	}
	for _, rp := range resolved {
		rp.Actuator.ClearCMF()
		rp.Actuator.SetQuantifiers(true)
	}
	if turns.Len() > 0 {
		mp.Append(turns)
	}
	mp.Append(final)
	return mp, obstructed, nil
}

func (g *Generator) appendRetraction(mp *MotionProgram, retractiles []*positioner.RoboticPositioner) error {
	if len(retractiles) == 0 {
		return nil
	}
	ml, err := retractionList(retractiles)
	if err != nil {
		return err
	}
	mp.Append(ml)
	return settle(retractiles)
}

// GenerateDepositioningProgram builds the program parking the arms of the outsiders. Outsiders
// already in collision are reported as Collided and invaders that cannot be solved as
// Obstructed; both are excluded from the program and left where they are. Unless disabled by the
// options the program is validated from the starting configuration, and a positioner found
// colliding is excluded as Obstructed before generating again. The model is left at the final
// configuration of the program.
func (g *Generator) GenerateDepositioningProgram(outsiders []*positioner.RoboticPositioner) (*DepositioningResult, error) {
	if err := g.checkInModel(outsiders); err != nil {
		return nil, err
	}
	if err := checkOutsiders(outsiders); err != nil {
		return nil, err
	}
	start := g.clock.Now()
	g.model.ClearCMFs()
	initial := g.model.Positions()

	res := &DepositioningResult{}
	res.Collided = lo.Filter(outsiders, func(rp *positioner.RoboticPositioner, _ int) bool {
		return collision.InCollision(rp)
	})
	free := lo.Without(outsiders, res.Collided...)

	var excluded []*positioner.RoboticPositioner
	for {
		mp, obstructed, err := g.generateDepositioningProgram(free)
		if err != nil {
			return nil, err
		}
		g.model.ClearCMFs()
		res.Program = mp
		res.Obstructed = append(slices.Clone(excluded), obstructed...)
		if !g.opts.ValidatePrograms {
			break
		}

		final := g.model.Positions()
		if err := g.model.SetPositions(initial); err != nil {
			return nil, err
		}
		report, err := NewValidator(g.model, g.logger).Validate(mp)
		if err != nil {
			return nil, NewImpossibleError("generated program cannot be simulated: %v", err)
		}
		if report.Valid {
			if err := g.model.SetPositions(final); err != nil {
				return nil, err
			}
			break
		}
		rp, ok := lo.Find(free, func(rp *positioner.RoboticPositioner) bool { return rp.ID == report.Collision.ID1 })
		if !ok {
			return nil, NewImpossibleError("generated program is not valid: %v", report.Collision)
		}
		g.logger.Debugf("generated program is not valid: %v, excluding %v", report.Collision, rp)
		excluded = append(excluded, rp)
		free = lo.Without(free, rp)
		if err := g.model.SetPositions(initial); err != nil {
			return nil, err
		}
	}
	res.Success = len(res.Collided) == 0 && len(res.Obstructed) == 0

	mp := res.Program
	res.Elapsed = g.clock.Since(start)
	g.logger.Infow("depositioning program generated",
		"program", mp.ID.String(),
		"gestures", mp.Len(),
		"outsiders", len(outsiders),
		"success", res.Success,
		"elapsed", res.Elapsed)
	if !res.Success {
		g.logger.Warnf("positioners excluded from program %s: collided %v, obstructed %v", mp.ID, res.Collided, res.Obstructed)
	}
	return res, nil
}

func (g *Generator) checkInModel(rps []*positioner.RoboticPositioner) error {
	for _, rp := range rps {
		if rp == nil {
			return NewImproperArgumentError("nil positioner")
		}
		if found, ok := g.model.ByID(rp.ID); !ok || found != rp {
			return NewImproperArgumentError("%v does not belong to the model", rp)
		}
	}
	return nil
}
