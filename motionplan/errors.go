package motionplan

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrImproperArgument reports a precondition violation on an argument of a public entry
	// point. It is always returned before any positioner is touched.
	ErrImproperArgument = errors.New("improper argument")
	// ErrImproperCall reports a call made in a state that does not allow it.
	ErrImproperCall = errors.New("improper call")
	// ErrCantFindSolution reports that the collisions of a set of invaders could not be solved.
	ErrCantFindSolution = errors.New("can't find solution")
	// ErrImpossible reports a broken internal invariant.
	ErrImpossible = errors.New("impossible: lateral effect")
)

// NewImproperArgumentError returns an error wrapping ErrImproperArgument.
func NewImproperArgumentError(format string, args ...interface{}) error {
	return errors.Wrapf(ErrImproperArgument, format, args...)
}

// NewImproperCallError returns an error wrapping ErrImproperCall.
func NewImproperCallError(format string, args ...interface{}) error {
	return errors.Wrapf(ErrImproperCall, format, args...)
}

// NewCantFindSolutionError returns an error wrapping ErrCantFindSolution.
func NewCantFindSolutionError(format string, args ...interface{}) error {
	return errors.Wrapf(ErrCantFindSolution, format, args...)
}

// NewImpossibleError returns an error wrapping ErrImpossible.
func NewImpossibleError(format string, args ...interface{}) error {
	return errors.Wrapf(ErrImpossible, format, args...)
}

// CollisionError describes the first collision found while simulating a motion program.
// Gesture is -1 when the positioners collide before the program starts.
type CollisionError struct {
	Gesture int     `json:"gesture"`
	ID1     int     `json:"id1"`
	ID2     int     `json:"id2"`
	Time    float64 `json:"time_ms"`
}

func (e *CollisionError) Error() string {
	if e.Gesture < 0 {
		return fmt.Sprintf("RP%d and RP%d collide in the initial configuration", e.ID1, e.ID2)
	}
	return fmt.Sprintf("RP%d and RP%d collide during gesture %d at t = %.3f ms", e.ID1, e.ID2, e.Gesture, e.Time)
}
