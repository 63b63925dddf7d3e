package patch

import (
	"errors"
	"fmt"
	"math"

	"github.com/notargets/wingcoords/geometry"
	"github.com/notargets/wingcoords/newton"
	"github.com/notargets/wingcoords/utils"
)

// DefaultSeedSteps is the number of grid intervals per direction searched
// for a starting point before the Newton solve (steps of 0.2).
const DefaultSeedSteps = 5

// Options configures a Translator.
type Options struct {
	// Newton configures the optimizer. GradTol is multiplied by the patch
	// scale |a|*|b| so that convergence does not depend on units.
	Newton newton.Options
	// SeedSteps is the number of intervals of the seed grid over [0,1]².
	// Zero selects DefaultSeedSteps; a negative value starts every solve
	// at (0,0).
	SeedSteps int
}

// Params is the result of an inverse query. Eta and Xsi are not clamped
// and may lie outside [0,1] when the target lies outside the patch.
type Params struct {
	Eta, Xsi  float64
	Distance  float64 // distance between target and patch point at (Eta, Xsi)
	Converged bool
}

// Translator converts between patch coordinates and points for one
// quadrilateral. It holds no per-query state and is safe for concurrent use.
type Translator struct {
	quad geometry.Quad
	opts Options
}

// NewTranslator returns a translator for q.
func NewTranslator(q geometry.Quad, opts Options) *Translator {
	opts.Newton = opts.Newton.WithDefaults()
	if opts.SeedSteps == 0 {
		opts.SeedSteps = DefaultSeedSteps
	}
	return &Translator{quad: q, opts: opts}
}

// Quad returns the translator's patch.
func (t *Translator) Quad() geometry.Quad { return t.quad }

// ToPoint returns the patch point at (eta, xsi).
func (t *Translator) ToPoint(eta, xsi float64) geometry.Point3 {
	return t.quad.Evaluate(eta, xsi)
}

// Normal returns the unnormalized patch normal at (eta, xsi).
func (t *Translator) Normal(eta, xsi float64) geometry.Point3 {
	return t.quad.Normal(eta, xsi)
}

// ToParams returns the patch coordinates of the point of the (unbounded)
// patch closest to target. On error the best iterate is still returned.
func (t *Translator) ToParams(target geometry.Point3) (Params, error) {
	if !geometry.IsFinite(target) {
		return Params{}, fmt.Errorf("patch: target %v: %w", target, utils.ErrNonFinite)
	}
	proj := NewProjection(t.quad, target)

	opts := t.opts.Newton
	scale := t.quad.Scale()
	opts.GradTol *= scale

	res, err := newton.Minimize2D(proj, t.seed(target), opts)
	p := Params{
		Eta:       res.X[0],
		Xsi:       res.X[1],
		Distance:  math.Sqrt(res.Value),
		Converged: res.Converged,
	}
	if err != nil {
		c := t.quad.Corners()
		utils.Logger().Debug("patch: inverse mapping failed",
			"target", target, "x1", c[0], "x2", c[1], "x3", c[2], "x4", c[3],
			"eta", p.Eta, "xsi", p.Xsi, "err", err)
		return p, fmt.Errorf("patch: inverse mapping of %v: %w", target, err)
	}
	return p, nil
}

// Project returns the point of the (unbounded) patch closest to target.
func (t *Translator) Project(target geometry.Point3) (geometry.Point3, error) {
	p, err := t.ToParams(target)
	if err != nil {
		return geometry.Point3{}, err
	}
	return t.quad.Evaluate(p.Eta, p.Xsi), nil
}

// ProjectBounded returns the closest point to target on the patch
// restricted to [0,1]². Candidates are the inverse mapping, when it lands
// inside the unit square, and the closest points of the four boundary
// edges, which are straight lines. The interior candidate wins ties.
func (t *Translator) ProjectBounded(target geometry.Point3) (Params, geometry.Point3, error) {
	p, err := t.ToParams(target)
	if err != nil && !errors.Is(err, utils.ErrSingularSystem) && !errors.Is(err, utils.ErrNotConverged) {
		return p, geometry.Point3{}, err
	}

	best := Params{Distance: math.Inf(1), Converged: true}
	var bestPt geometry.Point3
	if err == nil && p.Eta >= 0 && p.Eta <= 1 && p.Xsi >= 0 && p.Xsi <= 1 {
		best, bestPt = p, t.quad.Evaluate(p.Eta, p.Xsi)
	}
	for e := geometry.EdgeInner; e <= geometry.EdgeTrailing; e++ {
		s, pt := t.quad.Edge(e).Closest(target)
		d := geometry.Distance(pt, target)
		if d >= best.Distance {
			continue
		}
		best.Distance, bestPt = d, pt
		switch e {
		case geometry.EdgeInner:
			best.Eta, best.Xsi = 0, s
		case geometry.EdgeOuter:
			best.Eta, best.Xsi = 1, s
		case geometry.EdgeLeading:
			best.Eta, best.Xsi = s, 0
		case geometry.EdgeTrailing:
			best.Eta, best.Xsi = s, 1
		}
		best.Converged = true
	}
	return best, bestPt, nil
}

// seed returns the node of the seed grid closest to target.
func (t *Translator) seed(target geometry.Point3) [2]float64 {
	n := t.opts.SeedSteps
	if n < 0 {
		return [2]float64{0, 0}
	}
	best, bestDist := [2]float64{0, 0}, math.Inf(1)
	for i := 0; i <= n; i++ {
		eta := float64(i) / float64(n)
		for j := 0; j <= n; j++ {
			xsi := float64(j) / float64(n)
			d := geometry.Distance(t.quad.Evaluate(eta, xsi), target)
			if d < bestDist {
				best, bestDist = [2]float64{eta, xsi}, d
			}
		}
	}
	return best
}
