package positioner

import (
	"fmt"
	"slices"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
)

// RoboticPositioner is one fiber positioner of the focal plane.
type RoboticPositioner struct {
	ID       int
	Actuator *Actuator
	// Positioners whose arms can physically reach this one. Fixed once the model is built.
	Adjacents []*RoboticPositioner
	Disabled  bool
}

// NewRoboticPositioner returns a parked, operative positioner centered on center.
func NewRoboticPositioner(id int, center r2.Point, cfg Config) (*RoboticPositioner, error) {
	if id < 0 {
		return nil, errors.Errorf("positioner id must be nonnegative, got %d", id)
	}
	act, err := NewActuator(cfg, center)
	if err != nil {
		return nil, err
	}
	return &RoboticPositioner{ID: id, Actuator: act}, nil
}

// Operative reports whether the positioner can be moved.
func (rp *RoboticPositioner) Operative() bool {
	return !rp.Disabled
}

// Center returns the position of the rotor 1 axis on the focal plane.
func (rp *RoboticPositioner) Center() r2.Point {
	return rp.Actuator.Center()
}

// IsAdjacent reports whether other is one of the adjacents.
func (rp *RoboticPositioner) IsAdjacent(other *RoboticPositioner) bool {
	return slices.Contains(rp.Adjacents, other)
}

// AddAdjacent links both positioners as adjacents of each other.
func (rp *RoboticPositioner) AddAdjacent(other *RoboticPositioner) {
	if other == rp || rp.IsAdjacent(other) {
		return
	}
	rp.Adjacents = append(rp.Adjacents, other)
	other.Adjacents = append(other.Adjacents, rp)
}

// OperativeAdjacents returns the adjacents that can be moved.
func (rp *RoboticPositioner) OperativeAdjacents() []*RoboticPositioner {
	var out []*RoboticPositioner
	for _, adj := range rp.Adjacents {
		if adj.Operative() {
			out = append(out, adj)
		}
	}
	return out
}

func (rp *RoboticPositioner) String() string {
	return fmt.Sprintf("RP%d", rp.ID)
}
