package motionplan

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"go.viam.com/fibermos/collision"
	"go.viam.com/fibermos/logging"
	"go.viam.com/fibermos/positioner"
)

// ValidationReport is the outcome of simulating a motion program.
type ValidationReport struct {
	Valid bool `json:"valid"`
	// First collision found, nil when valid.
	Collision *CollisionError `json:"collision,omitempty"`
	// Duration of each gesture simulated, in ms.
	Durations []float64 `json:"durations_ms"`
	Steps     int       `json:"simulation_steps"`
}

// TotalDuration returns the time the simulated gestures take.
func (r *ValidationReport) TotalDuration() float64 {
	return floats.Sum(r.Durations)
}

// Validator simulates motion programs on a model to certify that they never bring two adjacent
// arms within their safety margins.
type Validator struct {
	model  *positioner.Model
	logger logging.Logger
}

// NewValidator returns a validator over model.
func NewValidator(model *positioner.Model, logger logging.Logger) *Validator {
	return &Validator{model: model, logger: logger}
}

// Validate executes mp from the current configuration of the model. A collision makes the
// report invalid and leaves the model in the colliding configuration, snapped to stable
// positions; otherwise the model is left at the final configuration of the program. An error
// is returned when the program cannot be executed at all.
func (v *Validator) Validate(mp *MotionProgram) (*ValidationReport, error) {
	ids := mp.ReferencedIDs()
	rps := make([]*positioner.RoboticPositioner, 0, len(ids))
	for _, id := range ids {
		rp, ok := v.model.ByID(id)
		if !ok {
			return nil, NewImproperArgumentError("program references unknown RP%d", id)
		}
		rps = append(rps, rp)
	}

	report := &ValidationReport{}
	if rp, ok := collision.FirstInCollision(rps); ok {
		adj, _ := collision.FirstCollision(rp)
		report.Collision = &CollisionError{Gesture: -1, ID1: rp.ID, ID2: adj.ID}
		return report, nil
	}

	v.model.ClearCMFs()
	defer func() {
		v.model.ClearCMFs()
		for _, rp := range rps {
			rp.Actuator.SetQuantifiers(true)
		}
	}()
	for _, rp := range rps {
		rp.Actuator.SetQuantifiers(false)
	}

	for i, ml := range mp.Lists() {
		v.model.ClearCMFs()
		movers := make([]*positioner.RoboticPositioner, 0, ml.Len())
		for _, mi := range ml.Instructions() {
			rp, _ := v.model.ByID(mi.ID)
			if err := mi.Program(rp.Actuator); err != nil {
				return nil, NewImproperArgumentError("gesture %d: %v", i, err)
			}
			movers = append(movers, rp)
		}
		end := displacementTime(movers)
		report.Durations = append(report.Durations, end)
		t := 0.
		for {
			now := math.Min(t, end)
			moveToTime(movers, now)
			if rp, ok := collision.FirstInCollision(movers); ok {
				adj, _ := collision.FirstCollision(rp)
				report.Collision = &CollisionError{Gesture: i, ID1: rp.ID, ID2: adj.ID, Time: now}
				v.logger.Debugf("program %s is not valid: %v", mp.ID, report.Collision)
				return report, nil
			}
			if t >= end {
				break
			}
			t += collision.SimulationStep(movers)
			report.Steps++
		}
	}
	report.Valid = true
	return report, nil
}

// MotionProgramIsntValid reports whether mp collides or cannot be executed from the current
// configuration of the model.
func (v *Validator) MotionProgramIsntValid(mp *MotionProgram) bool {
	report, err := v.Validate(mp)
	if err != nil {
		v.logger.Debugf("program %s cannot be executed: %v", mp.ID, err)
		return true
	}
	return !report.Valid
}
