package spatialmath

import (
	"fmt"
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"
)

func makeTestCapsule(ax, ay, bx, by, radius float64) *Capsule {
	c, _ := NewCapsule(r2.Point{X: ax, Y: ay}, r2.Point{X: bx, Y: by}, radius, "")
	return c
}

func TestNewCapsule(t *testing.T) {
	_, err := NewCapsule(r2.Point{}, r2.Point{X: 1}, 0, "arm")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "arm")

	c, err := NewCapsule(r2.Point{}, r2.Point{X: 3, Y: 4}, 1, "arm")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c.Length(), test.ShouldAlmostEqual, 5)
	test.That(t, c.String(), test.ShouldContainSubstring, "Label: arm")
}

func TestCapsuleVsCapsuleDistance(t *testing.T) {
	cases := []struct {
		testname string
		c1, c2   *Capsule
		expected float64
	}{
		{"parallel separated", makeTestCapsule(0, 0, 10, 0, 1), makeTestCapsule(0, 5, 10, 5, 1), 3},
		{"collinear gap", makeTestCapsule(0, 0, 10, 0, 2), makeTestCapsule(20, 0, 30, 0, 2), 6},
		{"crossing", makeTestCapsule(0, 0, 10, 0, 1), makeTestCapsule(5, -5, 5, 5, 1), -2},
		{"touching", makeTestCapsule(0, 0, 10, 0, 1), makeTestCapsule(12, 0, 20, 0, 1), 0},
		{"tip to shaft", makeTestCapsule(0, 0, 0, 10, 1), makeTestCapsule(-5, 14, 5, 14, 1), 2},
		{"degenerate point", makeTestCapsule(3, 4, 3, 4, 1), makeTestCapsule(0, 0, 0, 0, 1), 3},
	}
	for _, c := range cases {
		for i, pair := range [][2]*Capsule{{c.c1, c.c2}, {c.c2, c.c1}} {
			t.Run(fmt.Sprintf("%s %d", c.testname, i), func(t *testing.T) {
				test.That(t, pair[0].DistanceFrom(pair[1]), test.ShouldAlmostEqual, c.expected, 1e-9)
				test.That(t, pair[0].CollidesWith(pair[1], 0), test.ShouldEqual, c.expected <= 0)
			})
		}
	}
}

func TestSegmentHelpers(t *testing.T) {
	a := r2.Point{X: 0, Y: 0}
	b := r2.Point{X: 10, Y: 0}
	test.That(t, DistToLineSegment(a, b, r2.Point{X: 5, Y: 3}), test.ShouldAlmostEqual, 3)
	test.That(t, DistToLineSegment(a, b, r2.Point{X: -3, Y: 4}), test.ShouldAlmostEqual, 5)
	test.That(t, ClosestPointSegmentPoint(a, b, r2.Point{X: 12, Y: 1}), test.ShouldResemble, b)

	test.That(t, SegmentsIntersect(a, b, r2.Point{X: 5, Y: -1}, r2.Point{X: 5, Y: 1}), test.ShouldBeTrue)
	test.That(t, SegmentsIntersect(a, b, r2.Point{X: 5, Y: 1}, r2.Point{X: 5, Y: 2}), test.ShouldBeFalse)
	test.That(t, SegmentDistanceToSegment(a, b, r2.Point{X: 5, Y: 1}, r2.Point{X: 5, Y: 2}), test.ShouldAlmostEqual, 1)
}

func TestPolarPoint(t *testing.T) {
	pt := PolarPoint(r2.Point{X: 30, Y: 0}, 10, math.Pi)
	test.That(t, pt.X, test.ShouldAlmostEqual, 20)
	test.That(t, pt.Y, test.ShouldAlmostEqual, 0, 1e-9)
}

func TestCapsuleMaxDistance(t *testing.T) {
	c := makeTestCapsule(10, 0, 0, 0, 2)
	test.That(t, c.MaxDistanceFrom(r2.Point{}), test.ShouldAlmostEqual, 12)
	test.That(t, c.DistanceFromPoint(r2.Point{X: 5, Y: 5}), test.ShouldAlmostEqual, 3)
}

func TestCapsuleOutline(t *testing.T) {
	for _, c := range []*Capsule{
		makeTestCapsule(0, 0, 10, 0, 2),
		makeTestCapsule(1, 1, -3, 4, 0.5),
		makeTestCapsule(2, 2, 2, 2, 1),
	} {
		pts := c.Outline(8)
		test.That(t, len(pts), test.ShouldEqual, 17)
		test.That(t, pts[16], test.ShouldResemble, pts[0])
		for _, pt := range pts {
			test.That(t, DistToLineSegment(c.SegA, c.SegB, pt), test.ShouldAlmostEqual, c.Radius, 1e-9)
		}
	}
	test.That(t, len(makeTestCapsule(0, 0, 1, 0, 1).Outline(0)), test.ShouldEqual, 5)
}
