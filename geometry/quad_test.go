package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r3"
)

func assertPoint(t *testing.T, want, got Point3, tol float64) {
	t.Helper()
	assert.InDeltaSlicef(t, []float64{want.X, want.Y, want.Z},
		[]float64{got.X, got.Y, got.Z}, tol, "want %v got %v", want, got)
}

func TestQuadCoefficients(t *testing.T) {
	q := NewQuad(Pt(0, 0, 0), Pt(1, 0, 0), Pt(0, 1, 0), Pt(1, 1, 0))
	a, b, c, d := q.Coefficients()
	assert.Equal(t, Pt(1, 0, 0), a)
	assert.Equal(t, Pt(0, 1, 0), b)
	assert.Equal(t, Pt(0, 0, 0), c)
	assert.Equal(t, Pt(0, 0, 0), d)
}

func TestQuadEvaluateCorners(t *testing.T) {
	p := [4]Point3{Pt(0, 4, 0), Pt(8, 4, 0), Pt(0, 0, -1), Pt(4, 0, 0.5)}
	q := NewQuad(p[0], p[1], p[2], p[3])

	assertPoint(t, p[0], q.Evaluate(0, 0), 1e-14)
	assertPoint(t, p[1], q.Evaluate(1, 0), 1e-14)
	assertPoint(t, p[2], q.Evaluate(0, 1), 1e-14)
	assertPoint(t, p[3], q.Evaluate(1, 1), 1e-14)

	c := q.Corners()
	for i := range p {
		assertPoint(t, p[i], c[i], 1e-14)
	}
}

func TestQuadEvaluateUnitSquare(t *testing.T) {
	q := NewQuad(Pt(0, 0, 0), Pt(1, 0, 0), Pt(0, 1, 0), Pt(1, 1, 0))
	assertPoint(t, Pt(0.5, 0.5, 0), q.Evaluate(0.5, 0.5), 1e-15)
	assertPoint(t, Pt(2, 2, 0), q.Evaluate(2, 2), 1e-15)
}

func TestQuadTangentsMatchDifferences(t *testing.T) {
	q := NewQuad(Pt(0, 4, 0), Pt(8, 4, 0), Pt(0, 0, -1), Pt(4, 0, 0.5))
	eta, xsi, h := 0.3, 0.7, 1e-6
	dEta, dXsi := q.Tangents(eta, xsi)

	fdEta := r3.Scale(1/(2*h), r3.Sub(q.Evaluate(eta+h, xsi), q.Evaluate(eta-h, xsi)))
	fdXsi := r3.Scale(1/(2*h), r3.Sub(q.Evaluate(eta, xsi+h), q.Evaluate(eta, xsi-h)))
	assertPoint(t, fdEta, dEta, 1e-8)
	assertPoint(t, fdXsi, dXsi, 1e-8)
}

func TestQuadNormal(t *testing.T) {
	// chord along +x, span along +y
	q := NewQuad(Pt(0, 0, 0), Pt(0, 1, 0), Pt(1, 0, 0), Pt(1, 1, 0))
	n := q.Normal(0.5, 0.5)
	assert.InDelta(t, 0, n.X, 1e-15)
	assert.InDelta(t, 0, n.Y, 1e-15)
	assert.Greater(t, n.Z, 0.0)
}

func TestQuadScale(t *testing.T) {
	small := NewQuad(Pt(0, 0, 0), Pt(0.1, 0, 0), Pt(0, 0.1, 0), Pt(0.1, 0.1, 0))
	assert.Equal(t, 1.0, small.Scale())
	big := NewQuad(Pt(0, 0, 0), Pt(4, 0, 0), Pt(0, 3, 0), Pt(4, 3, 0))
	assert.InDelta(t, 12.0, big.Scale(), 1e-12)
}

func TestQuadEdges(t *testing.T) {
	q := NewQuad(Pt(0, 0, 0), Pt(2, 0, 0), Pt(0, 1, 0), Pt(2, 1, 1))
	assertPoint(t, q.Evaluate(0, 0.25), q.Edge(EdgeInner).At(0.25), 1e-15)
	assertPoint(t, q.Evaluate(1, 0.25), q.Edge(EdgeOuter).At(0.25), 1e-15)
	assertPoint(t, q.Evaluate(0.25, 0), q.Edge(EdgeLeading).At(0.25), 1e-15)
	assertPoint(t, q.Evaluate(0.25, 1), q.Edge(EdgeTrailing).At(0.25), 1e-15)
	assert.Panics(t, func() { q.Edge(7) })
}

func TestLineSegmentClosest(t *testing.T) {
	l := LineSegment{A: Pt(0, 0, 0), B: Pt(2, 0, 0)}
	tt, p := l.Closest(Pt(0.5, 3, 0))
	assert.InDelta(t, 0.25, tt, 1e-15)
	assertPoint(t, Pt(0.5, 0, 0), p, 1e-15)

	tt, p = l.Closest(Pt(-4, 1, 0))
	assert.Equal(t, 0.0, tt)
	assertPoint(t, l.A, p, 0)

	tt, _ = l.Closest(Pt(9, 1, 0))
	assert.Equal(t, 1.0, tt)

	deg := LineSegment{A: Pt(1, 1, 1), B: Pt(1, 1, 1)}
	tt, p = deg.Closest(Pt(0, 0, 0))
	assert.Equal(t, 0.0, tt)
	assertPoint(t, deg.A, p, 0)
	assert.Equal(t, 2.0, l.Length())
}

func TestPointHelpers(t *testing.T) {
	assert.Equal(t, 0.0, Clamp01(-0.3))
	assert.Equal(t, 1.0, Clamp01(1.3))
	assert.Equal(t, 0.4, Clamp01(0.4))
	assert.InDelta(t, 5.0, Distance(Pt(0, 0, 0), Pt(3, 4, 0)), 1e-15)
	assertPoint(t, Pt(1, 1, 1), Midpoint(Pt(0, 0, 0), Pt(2, 2, 2)), 0)
	assertPoint(t, Pt(0.5, 0, 0), Lerp(Pt(0, 0, 0), Pt(2, 0, 0), 0.25), 0)
	assert.True(t, IsFinite(Pt(1, 2, 3)))
}

func TestCloser(t *testing.T) {
	assert.True(t, Closer(1, 2))
	assert.False(t, Closer(2, 1))
	assert.False(t, Closer(1, 1))
	assert.False(t, Closer(1-1e-15, 1))
	assert.True(t, Closer(5, math.Inf(1)))

	assert.False(t, CloserWithin(1-1e-7, 1, 1e-6))
	assert.True(t, CloserWithin(1-1e-5, 1, 1e-6))
	assert.True(t, CloserWithin(5, math.Inf(1), 1e-6))
}
