package utils

import (
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestFloat64AlmostEqual(t *testing.T) {
	test.That(t, Float64AlmostEqual(1.0, 1.0+1e-12, DefaultEpsilon), test.ShouldBeTrue)
	test.That(t, Float64AlmostEqual(1.0, 1.1, 0.01), test.ShouldBeFalse)
	test.That(t, Float64AlmostEqual(-2, -2.05, 0.1), test.ShouldBeTrue)
}

func TestClamp(t *testing.T) {
	test.That(t, Clamp(5., 0, 1), test.ShouldEqual, 1.)
	test.That(t, Clamp(-5., 0, 1), test.ShouldEqual, 0.)
	test.That(t, Clamp(0.5, 0, 1), test.ShouldEqual, 0.5)
	test.That(t, Clamp(12, 0, 10), test.ShouldEqual, 10)
}

func TestIntHelpers(t *testing.T) {
	test.That(t, Abs(-3), test.ShouldEqual, 3)
	test.That(t, Abs(3), test.ShouldEqual, 3)
	test.That(t, Abs(-2.5), test.ShouldEqual, 2.5)
	test.That(t, RoundToInt(2.5), test.ShouldEqual, 3)
	test.That(t, RoundToInt(-2.5), test.ShouldEqual, -3)
	test.That(t, RoundToInt(13.89), test.ShouldEqual, 14)
}

func TestConfigValidationErrors(t *testing.T) {
	err := NewConfigValidationFieldRequiredError("positioners.0", "id")
	test.That(t, err.Error(), test.ShouldEqual, `error validating "positioners.0": "id" is required`)

	inner := errors.New("boom")
	err = NewConfigValidationError("actuator", inner)
	test.That(t, errors.Cause(err), test.ShouldEqual, inner)

	err = NewConfigValidationOutOfRangeError("actuator", "spm_mm", -1, 0, 10)
	test.That(t, err.Error(), test.ShouldContainSubstring, `"spm_mm" must be within [0, 10], got -1`)
}
