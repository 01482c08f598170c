package positioner

import (
	"fmt"

	"github.com/pkg/errors"
)

// Model is the set of positioners of a focal plane, ordered by insertion and keyed by id.
type Model struct {
	positioners *List[int, *RoboticPositioner]
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{
		positioners: NewList(func(rp *RoboticPositioner) int { return rp.ID }).
			WithFormatter(func(rp *RoboticPositioner) string { return rp.String() }),
	}
}

// Add inserts rp in the model.
func (m *Model) Add(rp *RoboticPositioner) error {
	if rp == nil {
		return errors.New("cannot add a nil positioner")
	}
	if !m.positioners.Add(rp) {
		return NewDuplicateIDError(rp.ID)
	}
	return nil
}

// ByID returns the positioner identified by id.
func (m *Model) ByID(id int) (*RoboticPositioner, bool) {
	return m.positioners.Get(id)
}

// Positioners returns the positioners in insertion order.
func (m *Model) Positioners() []*RoboticPositioner {
	return m.positioners.Items()
}

// Len returns the number of positioners.
func (m *Model) Len() int {
	return m.positioners.Len()
}

// BuildAdjacents links every pair of positioners whose arms can reach each other, that is, whose
// centers are closer than the sum of their reaches and safety margins.
func (m *Model) BuildAdjacents() {
	rps := m.positioners.Items()
	for _, rp := range rps {
		rp.Adjacents = nil
	}
	for i, a := range rps {
		for _, b := range rps[i+1:] {
			ca, cb := a.Actuator.Config(), b.Actuator.Config()
			limit := ca.Reach() + cb.Reach() + ca.SPM + cb.SPM
			if a.Center().Sub(b.Center()).Norm() < limit {
				a.AddAdjacent(b)
			}
		}
	}
}

// Outsiders returns the operative positioners whose arm is out of the safe area.
func (m *Model) Outsiders() []*RoboticPositioner {
	var out []*RoboticPositioner
	for _, rp := range m.positioners.Items() {
		if rp.Operative() && !rp.Actuator.ArmInSafeArea() {
			out = append(out, rp)
		}
	}
	return out
}

// Positions returns a snapshot of the rotor angles of every positioner.
func (m *Model) Positions() map[int]Position {
	out := make(map[int]Position, m.positioners.Len())
	for _, rp := range m.positioners.Items() {
		out[rp.ID] = rp.Actuator.Position()
	}
	return out
}

// SetPositions moves the positioners to a snapshot taken with Positions. Positioners absent from
// the snapshot are left where they are.
func (m *Model) SetPositions(positions map[int]Position) error {
	for id, p := range positions {
		rp, ok := m.ByID(id)
		if !ok {
			return errors.Errorf("no positioner with id %d", id)
		}
		if err := rp.Actuator.SetAngles(p.Theta1, p.Theta3); err != nil {
			return errors.Wrapf(err, "cannot set position of %v", rp)
		}
	}
	return nil
}

// ClearCMFs removes the programmed motion of every positioner.
func (m *Model) ClearCMFs() {
	for _, rp := range m.positioners.Items() {
		rp.Actuator.ClearCMF()
	}
}

// SetQuantifiers enables or disables both quantizers of every positioner.
func (m *Model) SetQuantifiers(enabled bool) {
	for _, rp := range m.positioners.Items() {
		rp.Actuator.SetQuantifiers(enabled)
	}
}

// Collisions returns the pairs of adjacent positioners whose arms are within their safety
// margins, each pair once with the lower id first.
func (m *Model) Collisions() [][2]int {
	var out [][2]int
	for _, rp := range m.positioners.Items() {
		for _, adj := range rp.Adjacents {
			if rp.ID < adj.ID && rp.Actuator.DistanceFree(adj.Actuator) < 0 {
				out = append(out, [2]int{rp.ID, adj.ID})
			}
		}
	}
	return out
}

// InCollision reports whether any pair of adjacent positioners is within its safety margins.
func (m *Model) InCollision() bool {
	return len(m.Collisions()) > 0
}

func (m *Model) String() string {
	return fmt.Sprintf("model %v", m.positioners)
}
