// Package geometry provides planar point math used by the route synthesizer:
// distance, bearing, linear interpolation and quadratic Bézier evaluation.
//
// All functions are total over finite inputs. Non-finite inputs propagate NaN.
package geometry

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Point is a position in the planar map space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return planar.Distance(a.Orb(), b.Orb())
}

// AngleFrom returns the angle in radians of the vector pointing from b to a,
// i.e. atan2(a.y-b.y, a.x-b.x).
func AngleFrom(a, b Point) float64 {
	return math.Atan2(a.Y-b.Y, a.X-b.X)
}

// Lerp interpolates linearly between a (t=0) and b (t=1).
func Lerp(a, b Point, t float64) Point {
	return Point{
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
	}
}

// QuadraticBezier evaluates the quadratic Bézier curve defined by p0, control
// and p1 at parameter t using the Bernstein form.
func QuadraticBezier(p0, control, p1 Point, t float64) Point {
	u := 1 - t
	a := u * u
	b := 2 * u * t
	c := t * t
	return Point{
		X: a*p0.X + b*control.X + c*p1.X,
		Y: a*p0.Y + b*control.Y + c*p1.Y,
	}
}

// Polar returns the point at the given angle and radius from center.
func Polar(center Point, angle, radius float64) Point {
	return Point{
		X: center.X + math.Cos(angle)*radius,
		Y: center.Y + math.Sin(angle)*radius,
	}
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b Point) Point {
	return Lerp(a, b, 0.5)
}

// Round snaps both coordinates to the nearest integer. Halves round towards
// positive infinity, matching the rounding the map clients apply.
func Round(p Point) Point {
	return Point{X: roundHalfUp(p.X), Y: roundHalfUp(p.Y)}
}

func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

// Orb converts the point to an orb.Point.
func (p Point) Orb() orb.Point {
	return orb.Point{p.X, p.Y}
}

// FromOrb converts an orb.Point to a Point.
func FromOrb(p orb.Point) Point {
	return Point{X: p.X(), Y: p.Y()}
}

// LineString converts an ordered sequence of points to an orb.LineString.
func LineString(points []Point) orb.LineString {
	ls := make(orb.LineString, 0, len(points))
	for _, p := range points {
		ls = append(ls, p.Orb())
	}
	return ls
}

// PathLength returns the summed Euclidean length of consecutive segments.
func PathLength(points []Point) float64 {
	if len(points) < 2 {
		return 0
	}
	return planar.Length(LineString(points))
}
