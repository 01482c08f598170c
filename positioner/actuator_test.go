package positioner

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.viam.com/test"
)

func newTestActuator(t *testing.T, x, y float64) *Actuator {
	t.Helper()
	a, err := NewActuator(DefaultConfig(), r2.Point{X: x, Y: y})
	test.That(t, err, test.ShouldBeNil)
	return a
}

func TestConfigValidate(t *testing.T) {
	test.That(t, DefaultConfig().Validate("cfg"), test.ShouldBeNil)

	cfg := DefaultConfig()
	cfg.L01 = 0
	cfg.SPMMin = 2
	cfg.Theta3Safe = 4
	err := cfg.Validate("cfg")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "l01_mm")
	test.That(t, err.Error(), test.ShouldContainSubstring, "spm_min_mm")
	test.That(t, err.Error(), test.ShouldContainSubstring, "theta3_safe_rad")

	_, err = NewActuator(cfg, r2.Point{})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestMotionFunction(t *testing.T) {
	mf := NewMotionFunction(math.Pi, 0, -0.01)
	test.That(t, mf.Moves(), test.ShouldBeTrue)
	test.That(t, mf.Duration(), test.ShouldAlmostEqual, 100*math.Pi)
	test.That(t, mf.At(-1), test.ShouldEqual, math.Pi)
	test.That(t, mf.At(100), test.ShouldAlmostEqual, math.Pi-1)
	test.That(t, mf.At(1000), test.ShouldEqual, 0.)

	mf.Shift(-1, 0, 2*math.Pi)
	test.That(t, mf.Start, test.ShouldAlmostEqual, math.Pi-1)
	test.That(t, mf.Final, test.ShouldEqual, 0.)

	still := NewMotionFunction(1, 1, 0.01)
	test.That(t, still.Moves(), test.ShouldBeFalse)
	test.That(t, still.Duration(), test.ShouldEqual, 0.)

	delayed := NewMotionFunction(0, 1, 0.01)
	delayed.Delay = 40
	test.That(t, delayed.Duration(), test.ShouldAlmostEqual, 140)
	test.That(t, delayed.At(40), test.ShouldEqual, 0.)
	test.That(t, delayed.At(90), test.ShouldAlmostEqual, 0.5)
	test.That(t, delayed.At(140), test.ShouldEqual, 1.)
	test.That(t, delayed.String(), test.ShouldContainSubstring, "after 40.000 ms")
}

func TestDelayedMotion(t *testing.T) {
	a := newTestActuator(t, 0, 0)
	test.That(t, a.SetSteps(125, 0), test.ShouldBeNil)
	a.SetQuantifiers(false)
	test.That(t, a.ProgramTheta3(1), test.ShouldBeNil)
	a.DelayCMF(25)
	test.That(t, a.DisplacementTime(), test.ShouldAlmostEqual, 125)

	a.MoveToTime(25)
	test.That(t, a.Theta3(), test.ShouldEqual, 0.)
	a.MoveToTime(75)
	test.That(t, a.Theta3(), test.ShouldAlmostEqual, 0.5)
	a.MoveToFinal()
	test.That(t, a.Theta3(), test.ShouldEqual, 1.)
}

func TestStepsAndQuantizers(t *testing.T) {
	a := newTestActuator(t, 0, 0)
	test.That(t, a.Theta1(), test.ShouldEqual, 0.)
	test.That(t, a.Theta3(), test.ShouldEqual, 0.)

	test.That(t, a.SetSteps(125, 500), test.ShouldBeNil)
	test.That(t, a.Theta1(), test.ShouldAlmostEqual, math.Pi/4)
	test.That(t, a.Theta3(), test.ShouldAlmostEqual, math.Pi)
	test.That(t, a.P1(), test.ShouldAlmostEqual, 125)

	// snapped while the quantizer is enabled
	test.That(t, a.SetTheta1(0.3), test.ShouldBeNil)
	test.That(t, a.P1(), test.ShouldAlmostEqual, 48)

	a.SetQuantify1(false)
	test.That(t, a.SetTheta1(0.3), test.ShouldBeNil)
	test.That(t, a.Theta1(), test.ShouldEqual, 0.3)
	a.SetQuantify1(true)
	test.That(t, a.P1(), test.ShouldAlmostEqual, 48)

	err := a.SetTheta3(4)
	test.That(t, errors.Is(err, ErrOutOfDomain), test.ShouldBeTrue)
	test.That(t, a.SetAngles(1, -1), test.ShouldNotBeNil)
	test.That(t, a.P1(), test.ShouldAlmostEqual, 48)
}

func TestQuantizeInsideDomain(t *testing.T) {
	step := 2 * math.Pi / 1000
	test.That(t, quantize(0.75, 1000, 0.75, 0.82), test.ShouldAlmostEqual, 120*step)
	test.That(t, quantize(0.82, 1000, 0.75, 0.82), test.ShouldAlmostEqual, 130*step)
	test.That(t, quantize(0.7525, 1000, 0.75, 0.82), test.ShouldAlmostEqual, 120*step)
}

func TestKinematics(t *testing.T) {
	a := newTestActuator(t, 30, 0)

	// folded: the fiber lies on the center
	test.That(t, a.FiberPosition().Sub(r2.Point{X: 30}).Norm(), test.ShouldAlmostEqual, 0, 1e-9)
	test.That(t, a.ArmInSafeArea(), test.ShouldBeTrue)

	test.That(t, a.SetSteps(500, 500), test.ShouldBeNil)
	test.That(t, a.ArmBase().X, test.ShouldAlmostEqual, 20)
	test.That(t, a.FiberPosition().X, test.ShouldAlmostEqual, 10)
	test.That(t, a.FiberPosition().Y, test.ShouldAlmostEqual, 0, 1e-9)
	test.That(t, a.ArmInSafeArea(), test.ShouldBeFalse)
	test.That(t, a.Contour().Length(), test.ShouldAlmostEqual, 10)

	b := newTestActuator(t, 0, 0)
	test.That(t, b.SetSteps(0, 500), test.ShouldBeNil)
	// arms from (10,0) to (20,0) and from (20,0) to (10,0) overlap completely
	test.That(t, a.Distance(b), test.ShouldAlmostEqual, -4)
	test.That(t, a.DistanceFree(b), test.ShouldAlmostEqual, -6)
}

func TestAngleForTarget(t *testing.T) {
	a := newTestActuator(t, 0, 0)
	for _, target := range []r2.Point{{X: 12, Y: 5}, {X: -3, Y: 7}, {X: 0, Y: -19.5}, {X: 4, Y: 0.5}} {
		theta1, theta3, ok := a.AngleForTarget(target.X, target.Y)
		test.That(t, ok, test.ShouldBeTrue)
		a.SetQuantifiers(false)
		test.That(t, a.SetAngles(theta1, theta3), test.ShouldBeNil)
		test.That(t, a.FiberPosition().Sub(target).Norm(), test.ShouldAlmostEqual, 0, 1e-9)
	}

	_, _, ok := a.AngleForTarget(25, 0)
	test.That(t, ok, test.ShouldBeFalse)
}

func TestProgrammedMotion(t *testing.T) {
	a := newTestActuator(t, 0, 0)
	test.That(t, a.SetSteps(125, 500), test.ShouldBeNil)
	test.That(t, a.MaxApexVelocity(), test.ShouldEqual, 0.)

	a.ProgramRetraction()
	test.That(t, a.IsRetractionProgrammed(), test.ShouldBeTrue)
	test.That(t, a.MaxApexVelocity(), test.ShouldAlmostEqual, 0.12)
	test.That(t, a.DisplacementTime(), test.ShouldAlmostEqual, 100*math.Pi)

	test.That(t, a.ProgramP1(307), test.ShouldBeNil)
	test.That(t, a.MaxApexVelocity(), test.ShouldAlmostEqual, 0.34)
	a.SetQuantifiers(false)
	a.MoveToTime(50)
	test.That(t, a.Theta1(), test.ShouldAlmostEqual, math.Pi/4+0.5)
	test.That(t, a.Theta3(), test.ShouldAlmostEqual, math.Pi-0.5)
	a.MoveToFinal()
	test.That(t, a.P1(), test.ShouldAlmostEqual, 307)
	test.That(t, a.Theta3(), test.ShouldEqual, 0.)

	a.ShiftMF1(-10)
	test.That(t, a.MF1().Start, test.ShouldEqual, 0.)

	a.ClearCMF()
	test.That(t, a.Programmed(), test.ShouldBeFalse)
	test.That(t, a.ProgramP3(1000), test.ShouldNotBeNil)
}

func TestPositionStack(t *testing.T) {
	a := newTestActuator(t, 0, 0)
	test.That(t, a.SetSteps(125, 500), test.ShouldBeNil)
	start := a.Position()

	a.PushPosition()
	test.That(t, a.SetSteps(200, 100), test.ShouldBeNil)
	test.That(t, a.RestoreTheta3(), test.ShouldBeNil)
	test.That(t, a.P1(), test.ShouldAlmostEqual, 200)
	test.That(t, a.Theta3(), test.ShouldEqual, start.Theta3)
	test.That(t, a.RestoreAndPopPosition(), test.ShouldBeNil)
	test.That(t, a.Position(), test.ShouldResemble, start)
	test.That(t, a.StackDepth(), test.ShouldEqual, 0)

	test.That(t, errors.Is(a.PopPosition(), ErrStackUnderflow), test.ShouldBeTrue)
	_, err := a.TopPosition()
	test.That(t, err, test.ShouldEqual, ErrStackUnderflow)
}

func TestHold(t *testing.T) {
	a := newTestActuator(t, 0, 0)
	test.That(t, a.SetSteps(125, 500), test.ShouldBeNil)
	start := a.Position()

	func() {
		h := a.Hold()
		defer h.Release()
		test.That(t, h.Saved(), test.ShouldResemble, start)
		test.That(t, a.SetSteps(0, 0), test.ShouldBeNil)
	}()
	test.That(t, a.Position(), test.ShouldResemble, start)
	test.That(t, a.StackDepth(), test.ShouldEqual, 0)

	h := a.Hold()
	test.That(t, a.SetSteps(0, 0), test.ShouldBeNil)
	test.That(t, h.Commit(), test.ShouldBeNil)
	test.That(t, h.Release(), test.ShouldBeNil)
	test.That(t, a.P1(), test.ShouldEqual, 0.)
	test.That(t, a.StackDepth(), test.ShouldEqual, 0)

	h = a.Hold()
	a.PushPosition()
	test.That(t, h.Release(), test.ShouldNotBeNil)
}
