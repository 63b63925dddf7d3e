package geometry

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Quad is a bilinear patch spanned by four corners:
//
//	P1 inner leading   (eta=0, xsi=0)
//	P2 outer leading   (eta=1, xsi=0)
//	P3 inner trailing  (eta=0, xsi=1)
//	P4 outer trailing  (eta=1, xsi=1)
//
// It is stored as point(eta,xsi) = d + eta*a + xsi*b + eta*xsi*c with
// a = P2-P1, b = P3-P1, c = P1-P2-P3+P4 and d = P1. A Quad is immutable;
// use NewQuad to derive a different one.
type Quad struct {
	a, b, c, d Point3
}

// NewQuad returns the patch through the four corners p1..p4.
func NewQuad(p1, p2, p3, p4 Point3) Quad {
	return Quad{
		a: r3.Sub(p2, p1),
		b: r3.Sub(p3, p1),
		c: r3.Add(r3.Sub(r3.Sub(p1, p2), p3), p4),
		d: p1,
	}
}

// Coefficients returns the derived vectors a, b, c and d.
func (q Quad) Coefficients() (a, b, c, d Point3) {
	return q.a, q.b, q.c, q.d
}

// Corners returns p1..p4 in construction order.
func (q Quad) Corners() [4]Point3 {
	p2 := r3.Add(q.d, q.a)
	p3 := r3.Add(q.d, q.b)
	return [4]Point3{
		q.d,
		p2,
		p3,
		r3.Sub(r3.Add(r3.Add(q.c, p2), p3), q.d),
	}
}

// Evaluate returns d + eta*a + xsi*b + eta*xsi*c.
func (q Quad) Evaluate(eta, xsi float64) Point3 {
	return Point3{
		X: eta*q.a.X + xsi*q.b.X + eta*xsi*q.c.X + q.d.X,
		Y: eta*q.a.Y + xsi*q.b.Y + eta*xsi*q.c.Y + q.d.Y,
		Z: eta*q.a.Z + xsi*q.b.Z + eta*xsi*q.c.Z + q.d.Z,
	}
}

// Tangents returns the partial derivatives of the patch: dEta = a + xsi*c
// and dXsi = b + eta*c.
func (q Quad) Tangents(eta, xsi float64) (dEta, dXsi Point3) {
	return r3.Add(q.a, r3.Scale(xsi, q.c)), r3.Add(q.b, r3.Scale(eta, q.c))
}

// Normal returns the unnormalized normal dXsi x dEta. For a wing whose
// chord runs downstream and whose span runs outboard this points up.
func (q Quad) Normal(eta, xsi float64) Point3 {
	dEta, dXsi := q.Tangents(eta, xsi)
	return r3.Cross(dXsi, dEta)
}

// Scale is the characteristic size |a|*|b| used to make optimizer
// tolerances independent of units. It is never below one.
func (q Quad) Scale() float64 {
	s := r3.Norm(q.a) * r3.Norm(q.b)
	if s < 1 {
		return 1
	}
	return s
}

// Edge indices for Quad.Edge.
const (
	EdgeInner    = iota // eta = 0
	EdgeOuter           // eta = 1
	EdgeLeading         // xsi = 0
	EdgeTrailing        // xsi = 1
)

// Edge returns one of the four straight boundary lines of the patch.
// Inner and outer edges run from leading to trailing edge, leading and
// trailing edges from inner to outer.
func (q Quad) Edge(e int) LineSegment {
	p := q.Corners()
	switch e {
	case EdgeInner:
		return LineSegment{A: p[0], B: p[2]}
	case EdgeOuter:
		return LineSegment{A: p[1], B: p[3]}
	case EdgeLeading:
		return LineSegment{A: p[0], B: p[1]}
	case EdgeTrailing:
		return LineSegment{A: p[2], B: p[3]}
	}
	panic(fmt.Sprintf("geometry: invalid quad edge %d", e))
}

// String implements fmt.Stringer.
func (q Quad) String() string {
	p := q.Corners()
	return fmt.Sprintf("Quad{%v, %v, %v, %v}", p[0], p[1], p[2], p[3])
}
