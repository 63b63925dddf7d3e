package patch

import (
	"github.com/notargets/wingcoords/geometry"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Projection is the squared distance between a fixed target and the point
// of a bilinear patch at x = (eta, xsi). It carries the target as an
// immutable field, so every query builds its own Projection and no state is
// shared between solves.
type Projection struct {
	quad   geometry.Quad
	target geometry.Point3
}

// NewProjection returns the projection objective of target onto q.
func NewProjection(q geometry.Quad, target geometry.Point3) Projection {
	return Projection{quad: q, target: target}
}

// Target returns the point being projected.
func (p Projection) Target() geometry.Point3 { return p.target }

func (p Projection) residual(x []float64) geometry.Point3 {
	return r3.Sub(p.quad.Evaluate(x[0], x[1]), p.target)
}

// Value returns |q(eta,xsi) - target|².
func (p Projection) Value(x []float64) float64 {
	return r3.Norm2(p.residual(x))
}

// Gradient implements newton.Gradienter:
// df/deta = 2 r.(a + xsi c), df/dxsi = 2 r.(b + eta c).
func (p Projection) Gradient(dst, x []float64) {
	r := p.residual(x)
	acb, bca := p.quad.Tangents(x[0], x[1])
	dst[0] = 2 * r3.Dot(r, acb)
	dst[1] = 2 * r3.Dot(r, bca)
}

// Hessian implements newton.Hessianer:
// H00 = 2|acb|², H11 = 2|bca|², H01 = 2 acb.bca + 2 r.c.
func (p Projection) Hessian(dst *mat.SymDense, x []float64) {
	r := p.residual(x)
	acb, bca := p.quad.Tangents(x[0], x[1])
	p.hessian(dst, r, acb, bca)
}

// GradientHessian implements newton.GradHessianer, sharing the residual and
// tangents between both results.
func (p Projection) GradientHessian(grad []float64, hess *mat.SymDense, x []float64) {
	r := p.residual(x)
	acb, bca := p.quad.Tangents(x[0], x[1])
	grad[0] = 2 * r3.Dot(r, acb)
	grad[1] = 2 * r3.Dot(r, bca)
	p.hessian(hess, r, acb, bca)
}

func (p Projection) hessian(dst *mat.SymDense, r, acb, bca geometry.Point3) {
	_, _, c, _ := p.quad.Coefficients()
	dst.SetSym(0, 0, 2*r3.Norm2(acb))
	dst.SetSym(1, 1, 2*r3.Norm2(bca))
	dst.SetSym(0, 1, 2*r3.Dot(acb, bca)+2*r3.Dot(r, c))
}
