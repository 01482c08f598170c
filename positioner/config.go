package positioner

import (
	"math"

	"go.uber.org/multierr"

	"go.viam.com/fibermos/utils"
)

// default values for the actuator model. Lengths are in mm, angles in radians and times in ms.
const (
	defaultL01        = 10.0
	defaultL13        = 10.0
	defaultArmRadius  = 2.0
	defaultSB1        = 1000.0
	defaultSB2        = 1000.0
	defaultW1         = 0.01
	defaultW2         = 0.01
	defaultSPM        = 1.0
	defaultSPMMin     = 0.1
	defaultTheta3Safe = math.Pi / 3
)

// Config describes the geometry, domains, resolution, speed and safety margins of an actuator.
type Config struct {
	// Distance from the rotor 1 axis (the positioner center) to the rotor 2 axis.
	L01 float64 `json:"l01_mm" mapstructure:"l01_mm"`
	// Distance from the rotor 2 axis to the fiber.
	L13 float64 `json:"l13_mm" mapstructure:"l13_mm"`
	// Half width of the arm contour.
	ArmRadius float64 `json:"arm_radius_mm" mapstructure:"arm_radius_mm"`

	Theta1Min float64 `json:"theta1_min_rad" mapstructure:"theta1_min_rad"`
	Theta1Max float64 `json:"theta1_max_rad" mapstructure:"theta1_max_rad"`
	Theta3Min float64 `json:"theta3_min_rad" mapstructure:"theta3_min_rad"`
	Theta3Max float64 `json:"theta3_max_rad" mapstructure:"theta3_max_rad"`

	// Steps per revolution of each rotor.
	SB1 float64 `json:"sb1" mapstructure:"sb1"`
	SB2 float64 `json:"sb2" mapstructure:"sb2"`

	// Maximum angular velocity of each rotor, rad/ms.
	W1 float64 `json:"w1_rad_per_ms" mapstructure:"w1_rad_per_ms"`
	W2 float64 `json:"w2_rad_per_ms" mapstructure:"w2_rad_per_ms"`

	// SPM is the clearance the arm contour must keep from any other contour. SPMMin is the part
	// of it an arm may consume during a single simulation jump.
	SPM    float64 `json:"spm_mm" mapstructure:"spm_mm"`
	SPMMin float64 `json:"spm_min_mm" mapstructure:"spm_min_mm"`

	// The arm is in the safe area while theta3 does not exceed this angle.
	Theta3Safe float64 `json:"theta3_safe_rad" mapstructure:"theta3_safe_rad"`
}

// DefaultConfig returns the configuration of the reference actuator.
func DefaultConfig() Config {
	return Config{
		L01:        defaultL01,
		L13:        defaultL13,
		ArmRadius:  defaultArmRadius,
		Theta1Min:  0,
		Theta1Max:  2 * math.Pi,
		Theta3Min:  0,
		Theta3Max:  math.Pi,
		SB1:        defaultSB1,
		SB2:        defaultSB2,
		W1:         defaultW1,
		W2:         defaultW2,
		SPM:        defaultSPM,
		SPMMin:     defaultSPMMin,
		Theta3Safe: defaultTheta3Safe,
	}
}

// Reach returns the distance from the positioner center to the farthest point the arm contour
// can reach.
func (cfg Config) Reach() float64 {
	return cfg.L01 + cfg.L13 + cfg.ArmRadius
}

// Validate ensures all parts of the config are valid.
func (cfg Config) Validate(path string) error {
	var errs error
	positive := []struct {
		field string
		value float64
	}{
		{"l01_mm", cfg.L01},
		{"l13_mm", cfg.L13},
		{"arm_radius_mm", cfg.ArmRadius},
		{"sb1", cfg.SB1},
		{"sb2", cfg.SB2},
		{"w1_rad_per_ms", cfg.W1},
		{"w2_rad_per_ms", cfg.W2},
	}
	for _, p := range positive {
		if p.value <= 0 {
			errs = multierr.Append(errs, utils.NewConfigValidationOutOfRangeError(path, p.field, p.value, 0, math.Inf(1)))
		}
	}
	if cfg.Theta1Min >= cfg.Theta1Max {
		errs = multierr.Append(errs, utils.NewConfigValidationOutOfRangeError(
			path, "theta1_min_rad", cfg.Theta1Min, math.Inf(-1), cfg.Theta1Max))
	}
	if cfg.Theta3Min >= cfg.Theta3Max {
		errs = multierr.Append(errs, utils.NewConfigValidationOutOfRangeError(
			path, "theta3_min_rad", cfg.Theta3Min, math.Inf(-1), cfg.Theta3Max))
	}
	if cfg.SPM < 0 {
		errs = multierr.Append(errs, utils.NewConfigValidationOutOfRangeError(path, "spm_mm", cfg.SPM, 0, math.Inf(1)))
	}
	if cfg.SPMMin < 0 || cfg.SPMMin > cfg.SPM {
		errs = multierr.Append(errs, utils.NewConfigValidationOutOfRangeError(path, "spm_min_mm", cfg.SPMMin, 0, cfg.SPM))
	}
	if cfg.Theta3Safe < cfg.Theta3Min || cfg.Theta3Safe > cfg.Theta3Max {
		errs = multierr.Append(errs, utils.NewConfigValidationOutOfRangeError(
			path, "theta3_safe_rad", cfg.Theta3Safe, cfg.Theta3Min, cfg.Theta3Max))
	}
	return errs
}
