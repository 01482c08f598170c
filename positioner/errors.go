package positioner

import "github.com/pkg/errors"

var (
	// ErrOutOfDomain is returned when a rotor is asked to reach an angle it cannot physically reach.
	ErrOutOfDomain = errors.New("angle out of rotor domain")
	// ErrStackUnderflow is returned when popping or restoring with no stacked position.
	ErrStackUnderflow = errors.New("position stack is empty")
)

// NewOutOfDomainError returns an error wrapping ErrOutOfDomain for the given rotor.
func NewOutOfDomainError(rotor int, angle, lo, hi float64) error {
	return errors.Wrapf(ErrOutOfDomain, "rotor %d angle %v not in [%v, %v]", rotor, angle, lo, hi)
}

// NewDuplicateIDError returns an error for a positioner identifier already present in a model.
func NewDuplicateIDError(id int) error {
	return errors.Errorf("positioner with id %d already exists", id)
}
