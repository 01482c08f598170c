// Package testutils holds fixtures shared by the tests of the planner packages.
package testutils

import (
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"

	"go.viam.com/fibermos/positioner"
)

// PositionerDef describes a positioner of a test model. P1 and P3 are in steps.
type PositionerDef struct {
	ID       int
	X, Y     float64
	P1, P3   float64
	Disabled bool
}

// NewModel builds a model of positioners sharing cfg and links their adjacents. It fails the test
// if it cannot.
func NewModel(tb testing.TB, cfg positioner.Config, defs ...PositionerDef) *positioner.Model {
	tb.Helper()
	m := positioner.NewModel()
	for _, def := range defs {
		rp, err := positioner.NewRoboticPositioner(def.ID, r2.Point{X: def.X, Y: def.Y}, cfg)
		test.That(tb, err, test.ShouldBeNil)
		test.That(tb, rp.Actuator.SetSteps(def.P1, def.P3), test.ShouldBeNil)
		rp.Disabled = def.Disabled
		test.That(tb, m.Add(rp), test.ShouldBeNil)
	}
	m.BuildAdjacents()
	return m
}

// MustRP returns the positioner id of m, failing the test if there is none.
func MustRP(tb testing.TB, m *positioner.Model, id int) *positioner.RoboticPositioner {
	tb.Helper()
	rp, ok := m.ByID(id)
	test.That(tb, ok, test.ShouldBeTrue)
	return rp
}

// PairModel returns two adjacent positioners 30 mm apart with the default configuration.
// RP0 points its extended arm at 45 degrees, so folding it sweeps across the extended arm of
// RP1, which points back towards RP0.
func PairModel(tb testing.TB) *positioner.Model {
	tb.Helper()
	return NewModel(tb, positioner.DefaultConfig(),
		PositionerDef{ID: 0, P1: 125, P3: 500},
		PositionerDef{ID: 1, X: 30, P1: 500, P3: 500},
	)
}

// PairModelWithConfig is PairModel with RP0 built from cfg.
func PairModelWithConfig(tb testing.TB, cfg positioner.Config) *positioner.Model {
	tb.Helper()
	m := NewModel(tb, cfg, PositionerDef{ID: 0, P1: 125, P3: 500})
	rp, err := positioner.NewRoboticPositioner(1, r2.Point{X: 30}, positioner.DefaultConfig())
	test.That(tb, err, test.ShouldBeNil)
	test.That(tb, rp.Actuator.SetSteps(500, 500), test.ShouldBeNil)
	test.That(tb, m.Add(rp), test.ShouldBeNil)
	m.BuildAdjacents()
	return m
}

// FacingPairModel returns two adjacent positioners 30 mm apart whose extended arms point at each
// other, slightly rotated.
func FacingPairModel(tb testing.TB) *positioner.Model {
	tb.Helper()
	return NewModel(tb, positioner.DefaultConfig(),
		PositionerDef{ID: 0, P1: 48, P3: 500},
		PositionerDef{ID: 1, X: 30, P1: 548, P3: 500},
	)
}

// RowModel returns n positioners 30 mm apart along X with their arms extended upwards.
func RowModel(tb testing.TB, n int) *positioner.Model {
	tb.Helper()
	defs := make([]PositionerDef, 0, n)
	for i := 0; i < n; i++ {
		defs = append(defs, PositionerDef{ID: i, X: 30 * float64(i), P1: 250, P3: 500})
	}
	return NewModel(tb, positioner.DefaultConfig(), defs...)
}

// IsolatedModel returns a single extended positioner.
func IsolatedModel(tb testing.TB) *positioner.Model {
	tb.Helper()
	return NewModel(tb, positioner.DefaultConfig(), PositionerDef{ID: 7, P1: 125, P3: 500})
}
