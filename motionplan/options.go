package motionplan

import (
	"math"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/fibermos/utils"
)

// default values for planning options.
const (
	// rotor 1 increment between two candidates of the jump search, in radians. The sign gives
	// the direction tried first.
	defaultJump = -math.Pi / 36

	// number of simulation restarts allowed while turning invaders.
	defaultMaxRestarts = 1000

	// generated programs are validated before being returned.
	defaultValidatePrograms = true
)

// Options holds the tunables of the generator.
type Options struct {
	Jump             float64 `json:"jump_rad" mapstructure:"jump_rad"`
	MaxRestarts      int     `json:"max_restarts" mapstructure:"max_restarts"`
	ValidatePrograms bool    `json:"validate" mapstructure:"validate"`
}

// NewBasicOptions returns the default options.
func NewBasicOptions() *Options {
	return &Options{
		Jump:             defaultJump,
		MaxRestarts:      defaultMaxRestarts,
		ValidatePrograms: defaultValidatePrograms,
	}
}

// OptionsFromMap overlays the settings of a planner configuration map on the defaults. Unknown
// keys are rejected.
func OptionsFromMap(settings map[string]interface{}) (*Options, error) {
	opts := NewBasicOptions()
	if len(settings) == 0 {
		return opts, nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           opts,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(settings); err != nil {
		return nil, errors.Wrap(err, "cannot decode planner options")
	}
	if err := opts.Validate("planner"); err != nil {
		return nil, err
	}
	return opts, nil
}

// Validate ensures the options are usable.
func (opts *Options) Validate(path string) error {
	var errs error
	if opts.Jump == 0 || math.Abs(opts.Jump) >= math.Pi {
		errs = multierr.Append(errs, utils.NewConfigValidationOutOfRangeError(path, "jump_rad", opts.Jump, -math.Pi, math.Pi))
	}
	if opts.MaxRestarts <= 0 {
		errs = multierr.Append(errs, utils.NewConfigValidationOutOfRangeError(
			path, "max_restarts", float64(opts.MaxRestarts), 1, math.Inf(1)))
	}
	return errs
}
