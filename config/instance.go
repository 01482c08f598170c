// Package config reads the instance files describing a positioner array, the starting position
// and target point of each positioner, and the planner settings used on it.
package config

import (
	"bytes"
	"fmt"
	"io"

	"github.com/a8m/envsubst"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"github.com/yosuke-furukawa/json5/encoding/json5"
	"go.uber.org/multierr"

	"go.viam.com/fibermos/logging"
	"go.viam.com/fibermos/motionplan"
	"go.viam.com/fibermos/positioner"
	"go.viam.com/fibermos/utils"
)

// Instance is the content of an instance file.
type Instance struct {
	// Shared by every positioner. Fields left out of the file keep their default value.
	Actuator    positioner.Config      `json:"actuator"`
	Positioners []Positioner           `json:"positioners"`
	Planner     map[string]interface{} `json:"planner,omitempty"`

	ConfigFilePath string `json:"-"`
}

// Positioner describes one positioner of the array. Starting positions are in steps.
type Positioner struct {
	ID       int     `json:"id"`
	X        float64 `json:"x_mm"`
	Y        float64 `json:"y_mm"`
	P1       float64 `json:"p1"`
	P3       float64 `json:"p3"`
	Disabled bool    `json:"disabled,omitempty"`
	Target   *Point  `json:"target,omitempty"`
}

// Point is a location on the focal plane.
type Point struct {
	X float64 `json:"x_mm"`
	Y float64 `json:"y_mm"`
}

// Read reads an instance from the given file. Environment variables in the file are expanded.
func Read(filePath string, logger logging.Logger) (*Instance, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return FromReader(filePath, bytes.NewReader(buf), logger)
}

// FromReader reads an instance from the given reader and specifies
// where, if applicable, the file the reader originated from. Instances are JSON5, so comments and
// trailing commas are allowed.
func FromReader(originalPath string, r io.Reader, logger logging.Logger) (*Instance, error) {
	inst := &Instance{
		Actuator:       positioner.DefaultConfig(),
		ConfigFilePath: originalPath,
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read instance")
	}
	if err := json5.Unmarshal(data, inst); err != nil {
		return nil, errors.Wrapf(err, "failed to decode instance from json")
	}
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	logger.Debugf("read instance %q with %d positioners", originalPath, len(inst.Positioners))
	return inst, nil
}

// Validate ensures all parts of the instance are valid.
func (inst *Instance) Validate() error {
	errs := inst.Actuator.Validate("actuator")
	if len(inst.Positioners) == 0 {
		errs = multierr.Append(errs, utils.NewConfigValidationFieldRequiredError("instance", "positioners"))
	}
	seen := map[int]bool{}
	for i, p := range inst.Positioners {
		path := fmt.Sprintf("positioners.%d", i)
		if err := p.Validate(path); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if seen[p.ID] {
			errs = multierr.Append(errs, utils.NewConfigValidationError(path, errors.Errorf("duplicate id %d", p.ID)))
		}
		seen[p.ID] = true
	}
	if _, err := motionplan.OptionsFromMap(inst.Planner); err != nil {
		errs = multierr.Append(errs, utils.NewConfigValidationError("planner", err))
	}
	return errs
}

// Validate ensures the positioner entry is well formed.
func (p Positioner) Validate(path string) error {
	if p.ID < 0 {
		return utils.NewConfigValidationError(path, errors.Errorf("id must be nonnegative, got %d", p.ID))
	}
	return nil
}

// PlannerOptions decodes the planner settings of the instance.
func (inst *Instance) PlannerOptions() (*motionplan.Options, error) {
	return motionplan.OptionsFromMap(inst.Planner)
}

// BuildModel returns the model of the instance with every positioner at its starting position
// and the adjacents linked.
func (inst *Instance) BuildModel() (*positioner.Model, error) {
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	m := positioner.NewModel()
	for i, p := range inst.Positioners {
		path := fmt.Sprintf("positioners.%d", i)
		rp, err := positioner.NewRoboticPositioner(p.ID, r2.Point{X: p.X, Y: p.Y}, inst.Actuator)
		if err != nil {
			return nil, utils.NewConfigValidationError(path, err)
		}
		if err := rp.Actuator.SetSteps(p.P1, p.P3); err != nil {
			return nil, utils.NewConfigValidationError(path, err)
		}
		rp.Disabled = p.Disabled
		if err := m.Add(rp); err != nil {
			return nil, utils.NewConfigValidationError(path, err)
		}
	}
	m.BuildAdjacents()
	return m, nil
}

// BuildSession returns a session over m holding the target points of the instance.
func (inst *Instance) BuildSession(m *positioner.Model, logger logging.Logger) (*motionplan.Session, error) {
	s := motionplan.NewSession(m, logger)
	for i, p := range inst.Positioners {
		if p.Target == nil {
			continue
		}
		rp, ok := m.ByID(p.ID)
		if !ok {
			return nil, errors.Errorf("RP%d is not in the model", p.ID)
		}
		if err := s.AssignTarget(rp, p.Target.X, p.Target.Y); err != nil {
			return nil, utils.NewConfigValidationError(fmt.Sprintf("positioners.%d.target", i), err)
		}
	}
	return s, nil
}
