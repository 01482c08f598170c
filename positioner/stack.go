package positioner

import "github.com/pkg/errors"

// PushPosition saves the current position on top of the stack.
func (a *Actuator) PushPosition() {
	a.stack = append(a.stack, a.Position())
}

// RestorePosition moves the rotors to the stacked position without popping it. Quantizers are
// bypassed so the stacked angles are restored exactly.
func (a *Actuator) RestorePosition() error {
	top, err := a.TopPosition()
	if err != nil {
		return errors.Wrap(err, "cannot restore position")
	}
	a.theta1 = top.Theta1
	a.theta3 = top.Theta3
	return nil
}

// RestoreTheta3 moves the arm back to its stacked angle, leaving rotor 1 where it is.
func (a *Actuator) RestoreTheta3() error {
	top, err := a.TopPosition()
	if err != nil {
		return errors.Wrap(err, "cannot restore arm")
	}
	a.theta3 = top.Theta3
	return nil
}

// PopPosition discards the stacked position, keeping the current one.
func (a *Actuator) PopPosition() error {
	if len(a.stack) == 0 {
		return errors.Wrap(ErrStackUnderflow, "cannot pop position")
	}
	a.stack = a.stack[:len(a.stack)-1]
	return nil
}

// RestoreAndPopPosition restores the stacked position and discards it.
func (a *Actuator) RestoreAndPopPosition() error {
	if err := a.RestorePosition(); err != nil {
		return err
	}
	return a.PopPosition()
}

// StackDepth returns the number of stacked positions.
func (a *Actuator) StackDepth() int {
	return len(a.stack)
}

// TopPosition returns the last stacked position.
func (a *Actuator) TopPosition() (Position, error) {
	if len(a.stack) == 0 {
		return Position{}, ErrStackUnderflow
	}
	return a.stack[len(a.stack)-1], nil
}

// Hold is a scoped save of an actuator position. It is created by pushing the current position;
// Release restores and pops it unless Commit already popped it, so a deferred Release keeps the
// stack balanced on every return path.
type Hold struct {
	actuator *Actuator
	depth    int
	done     bool
}

// Hold pushes the current position and returns the scope guarding it.
func (a *Actuator) Hold() *Hold {
	a.PushPosition()
	return &Hold{actuator: a, depth: len(a.stack)}
}

// Saved returns the position held.
func (h *Hold) Saved() Position {
	return h.actuator.stack[h.depth-1]
}

// Commit keeps the current position and pops the saved one.
func (h *Hold) Commit() error {
	if h.done {
		return nil
	}
	if err := h.check(); err != nil {
		return err
	}
	h.done = true
	return h.actuator.PopPosition()
}

// Release restores the saved position and pops it. It is a no-op after Commit or Release.
func (h *Hold) Release() error {
	if h.done {
		return nil
	}
	if err := h.check(); err != nil {
		return err
	}
	h.done = true
	return h.actuator.RestoreAndPopPosition()
}

func (h *Hold) check() error {
	if h.actuator.StackDepth() != h.depth {
		return errors.Errorf("position held at depth %d but stack depth is %d", h.depth, h.actuator.StackDepth())
	}
	return nil
}
