package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Point3 is a point or vector in a single caller-defined frame. The package
// never converts between frames.
type Point3 = r3.Vec

// Pt returns the point (x, y, z).
func Pt(x, y, z float64) Point3 {
	return Point3{X: x, Y: y, Z: z}
}

// Distance returns the euclidean distance between two points.
func Distance(p, q Point3) float64 {
	return r3.Norm(r3.Sub(p, q))
}

// Lerp linearly interpolates between p (t=0) and q (t=1).
func Lerp(p, q Point3, t float64) Point3 {
	return r3.Add(p, r3.Scale(t, r3.Sub(q, p)))
}

// Midpoint returns the midpoint of two points.
func Midpoint(p, q Point3) Point3 {
	return r3.Scale(0.5, r3.Add(p, q))
}

// IsFinite reports whether no coordinate of p is NaN or infinite.
func IsFinite(p Point3) bool {
	for _, v := range [3]float64{p.X, p.Y, p.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Clamp01 returns v clamped to [0,1], the nearest valid patch parameter.
func Clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// TieTolerance is the relative tolerance under which two distances are
// treated as equal when choosing the closest of several candidates.
const TieTolerance = 1e-12

// Closer reports whether distance a beats the current best b by more than
// TieTolerance, so that equal candidates keep the earlier one.
func Closer(a, b float64) bool {
	return CloserWithin(a, b, TieTolerance*(1+math.Abs(b)))
}

// CloserWithin reports whether distance a beats the current best b by more
// than the absolute tolerance tol. Any finite a beats b = +Inf.
func CloserWithin(a, b, tol float64) bool {
	if math.IsInf(b, 1) {
		return a < b
	}
	return a < b-tol
}
