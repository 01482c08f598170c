// Package spatialmath holds the planar geometry used to model positioner arm contours on the
// focal plane.
package spatialmath

import (
	"math"

	"github.com/golang/geo/r2"
)

// PolarPoint returns the point at the given distance from center in the direction of angle
// (radians, counterclockwise from +X).
func PolarPoint(center r2.Point, radius, angle float64) r2.Point {
	return center.Add(r2.Point{X: radius * math.Cos(angle), Y: radius * math.Sin(angle)})
}

// ClosestPointSegmentPoint returns the point on the segment ab closest to pt.
func ClosestPointSegmentPoint(a, b, pt r2.Point) r2.Point {
	ab := b.Sub(a)
	lenSq := ab.Dot(ab)
	if lenSq == 0 {
		return a
	}
	t := math.Max(0, math.Min(1, pt.Sub(a).Dot(ab)/lenSq))
	return a.Add(ab.Mul(t))
}

// DistToLineSegment takes a segment defined by two points and a third point, and returns the
// distance from the third point to the segment.
func DistToLineSegment(a, b, pt r2.Point) float64 {
	return pt.Sub(ClosestPointSegmentPoint(a, b, pt)).Norm()
}

// SegmentsIntersect reports whether the segments ab and cd properly cross each other.
// Collinear overlaps are not reported; their distance is zero through the endpoint checks of
// SegmentDistanceToSegment.
func SegmentsIntersect(a, b, c, d r2.Point) bool {
	d1 := d.Sub(c).Cross(a.Sub(c))
	d2 := d.Sub(c).Cross(b.Sub(c))
	d3 := b.Sub(a).Cross(c.Sub(a))
	d4 := b.Sub(a).Cross(d.Sub(a))
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

// SegmentDistanceToSegment returns the minimum distance between the segments ab and cd. Crossing
// segments are at distance zero.
func SegmentDistanceToSegment(a, b, c, d r2.Point) float64 {
	if SegmentsIntersect(a, b, c, d) {
		return 0
	}
	return math.Min(
		math.Min(DistToLineSegment(c, d, a), DistToLineSegment(c, d, b)),
		math.Min(DistToLineSegment(a, b, c), DistToLineSegment(a, b, d)),
	)
}
