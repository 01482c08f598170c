package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
)

// Capsule is the set of points within Radius of the segment SegA-SegB. Positioner arms are
// modelled as capsules lying on the focal plane.
//
// ....___________________
// .../                   \
// ..|  A---------------B  |
// ...\___________________/
//
// Radius is measured from the inner segment, so the capsule is 2*Radius wide.
type Capsule struct {
	SegA   r2.Point
	SegB   r2.Point
	Radius float64
	Label  string
}

// NewCapsule instantiates a new capsule around the segment from a to b.
func NewCapsule(a, b r2.Point, radius float64, label string) (*Capsule, error) {
	if radius <= 0 {
		return nil, errors.Errorf("capsule %q radius must be positive, got %v", label, radius)
	}
	return &Capsule{SegA: a, SegB: b, Radius: radius, Label: label}, nil
}

func (c *Capsule) String() string {
	return fmt.Sprintf("Type: Capsule | Label: %s | A: (%.3f, %.3f) | B: (%.3f, %.3f) | R: %.3f",
		c.Label, c.SegA.X, c.SegA.Y, c.SegB.X, c.SegB.Y, c.Radius)
}

// Length returns the length of the inner segment.
func (c *Capsule) Length() float64 {
	return c.SegB.Sub(c.SegA).Norm()
}

// DistanceFrom returns the surface-to-surface distance between two capsules. A negative value
// is the penetration depth of overlapping capsules.
func (c *Capsule) DistanceFrom(other *Capsule) float64 {
	return SegmentDistanceToSegment(c.SegA, c.SegB, other.SegA, other.SegB) - (c.Radius + other.Radius)
}

// DistanceFromPoint returns the distance from the capsule surface to pt.
func (c *Capsule) DistanceFromPoint(pt r2.Point) float64 {
	return DistToLineSegment(c.SegA, c.SegB, pt) - c.Radius
}

// CollidesWith reports whether the capsules are closer than buffer.
func (c *Capsule) CollidesWith(other *Capsule, buffer float64) bool {
	return c.DistanceFrom(other) <= buffer
}

// MaxDistanceFrom returns the distance from pt to the farthest point of the capsule.
func (c *Capsule) MaxDistanceFrom(pt r2.Point) float64 {
	da := c.SegA.Sub(pt).Norm()
	db := c.SegB.Sub(pt).Norm()
	if da > db {
		return da + c.Radius
	}
	return db + c.Radius
}

// Outline returns points tracing the boundary of the capsule counterclockwise, closed on its
// first point. Each end cap is approximated by n points.
func (c *Capsule) Outline(n int) []r2.Point {
	if n < 2 {
		n = 2
	}
	dir := 0.
	if d := c.SegB.Sub(c.SegA); d.Norm() > 0 {
		dir = math.Atan2(d.Y, d.X)
	}
	pts := make([]r2.Point, 0, 2*n+1)
	for _, end := range []struct {
		center r2.Point
		from   float64
	}{{c.SegB, dir - math.Pi/2}, {c.SegA, dir + math.Pi/2}} {
		for i := 0; i < n; i++ {
			pts = append(pts, PolarPoint(end.center, c.Radius, end.from+math.Pi*float64(i)/float64(n-1)))
		}
	}
	return append(pts, pts[0])
}
