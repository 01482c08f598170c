package motionplan

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/fibermos/logging"
	"go.viam.com/fibermos/positioner"
	"go.viam.com/fibermos/testutils"
)

// pairProgram turns RP0 of the pair model out of the way of RP1 and then folds it.
func pairProgram(t *testing.T) *MotionProgram {
	t.Helper()
	mp := NewMotionProgram()
	mp.Append(gesture(t, mustInstruction(t, 0, M1, 307)))
	mp.Append(gesture(t, mustInstruction(t, 0, M2, 0)))
	return mp
}

func TestValidateIsIdempotent(t *testing.T) {
	m := testutils.PairModel(t)
	v := NewValidator(m, logging.NewTestLogger(t))
	initial := m.Positions()
	mp := pairProgram(t)

	first, err := v.Validate(mp)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, first.Valid, test.ShouldBeTrue)
	test.That(t, first.Collision, test.ShouldBeNil)
	test.That(t, len(first.Durations), test.ShouldEqual, 2)
	test.That(t, first.Steps, test.ShouldBeGreaterThan, 0)
	test.That(t, first.TotalDuration(), test.ShouldAlmostEqual, first.Durations[0]+first.Durations[1])
	final := m.Positions()

	test.That(t, m.SetPositions(initial), test.ShouldBeNil)
	second, err := v.Validate(mp)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cmp.Diff(first, second), test.ShouldBeEmpty)
	test.That(t, cmp.Diff(final, m.Positions()), test.ShouldBeEmpty)

	rp0 := testutils.MustRP(t, m, 0)
	test.That(t, rp0.Actuator.P1(), test.ShouldAlmostEqual, 307)
	test.That(t, rp0.Actuator.Theta3(), test.ShouldEqual, 0.)
	for _, rp := range m.Positioners() {
		test.That(t, rp.Actuator.Programmed(), test.ShouldBeFalse)
		test.That(t, rp.Actuator.Quantify1(), test.ShouldBeTrue)
	}
}

func TestValidateCollision(t *testing.T) {
	m := testutils.PairModel(t)
	logger, logs := logging.NewObservedTestLogger(t)
	v := NewValidator(m, logger)

	mp := NewMotionProgram()
	mp.Append(gesture(t, mustInstruction(t, 0, M2, 0)))
	test.That(t, v.MotionProgramIsntValid(mp), test.ShouldBeTrue)
	test.That(t, logs.FilterMessageSnippet("is not valid").Len(), test.ShouldEqual, 1)
}

func TestValidateInitialCollision(t *testing.T) {
	m := testutils.NewModel(t, positioner.DefaultConfig(),
		testutils.PositionerDef{ID: 0, P1: 0, P3: 500},
		testutils.PositionerDef{ID: 1, X: 30, P1: 500, P3: 500},
	)
	v := NewValidator(m, logging.NewTestLogger(t))
	initial := m.Positions()

	mp := NewMotionProgram()
	mp.Append(gesture(t, mustInstruction(t, 0, M2, 0)))
	report, err := v.Validate(mp)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, report.Valid, test.ShouldBeFalse)
	test.That(t, report.Collision.Gesture, test.ShouldEqual, -1)
	test.That(t, report.Collision.ID1, test.ShouldEqual, 0)
	test.That(t, report.Collision.ID2, test.ShouldEqual, 1)
	test.That(t, report.Durations, test.ShouldBeEmpty)
	test.That(t, m.Positions(), test.ShouldResemble, initial)
}

func TestValidateUnexecutable(t *testing.T) {
	m := testutils.PairModel(t)
	v := NewValidator(m, logging.NewTestLogger(t))

	mp := NewMotionProgram()
	mp.Append(gesture(t, mustInstruction(t, 9, M2, 0)))
	_, err := v.Validate(mp)
	test.That(t, errors.Is(err, ErrImproperArgument), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "RP9")

	mp = NewMotionProgram()
	mp.Append(gesture(t, mustInstruction(t, 0, M2, 2000)))
	_, err = v.Validate(mp)
	test.That(t, errors.Is(err, ErrImproperArgument), test.ShouldBeTrue)
	test.That(t, v.MotionProgramIsntValid(mp), test.ShouldBeTrue)
}

func TestValidateEmpty(t *testing.T) {
	m := testutils.RowModel(t, 2)
	report, err := NewValidator(m, logging.NewTestLogger(t)).Validate(NewMotionProgram())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, report.Valid, test.ShouldBeTrue)
	test.That(t, report.TotalDuration(), test.ShouldEqual, 0.)
}
