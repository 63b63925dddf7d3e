package geometry

import "gonum.org/v1/gonum/spatial/r3"

// LineSegment is the straight line from A (t=0) to B (t=1).
type LineSegment struct {
	A, B Point3
}

// At evaluates the segment at t, which is not restricted to [0,1].
func (l LineSegment) At(t float64) Point3 {
	return Lerp(l.A, l.B, t)
}

// Length returns the length of the segment.
func (l LineSegment) Length() float64 {
	return Distance(l.A, l.B)
}

// Closest returns the parameter t in [0,1] of the point on the segment
// closest to p, and that point. A degenerate segment returns t=0.
func (l LineSegment) Closest(p Point3) (float64, Point3) {
	dir := r3.Sub(l.B, l.A)
	len2 := r3.Norm2(dir)
	if len2 == 0 {
		return 0, l.A
	}
	t := Clamp01(r3.Dot(r3.Sub(p, l.A), dir) / len2)
	return t, l.At(t)
}
