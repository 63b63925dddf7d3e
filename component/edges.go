package component

import (
	"fmt"
	"math"
	"sort"

	"github.com/notargets/wingcoords/geometry"
	"github.com/notargets/wingcoords/utils"
	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/spatial/r3"
)

// WireStrategy selects how an edge line passes through its poles.
type WireStrategy int

const (
	// WireLinear joins the poles with straight lines (C0). It reproduces
	// the ruled edges of the chordface exactly.
	WireLinear WireStrategy = iota
	// WireSpline passes a C1 Akima spline through the poles. Chains with
	// fewer than three poles fall back to a straight line.
	WireSpline
)

func (w WireStrategy) String() string {
	switch w {
	case WireLinear:
		return "linear"
	case WireSpline:
		return "spline"
	}
	return fmt.Sprintf("WireStrategy(%d)", int(w))
}

// ParseWireStrategy converts "linear" or "spline" to a WireStrategy.
func ParseWireStrategy(s string) (WireStrategy, error) {
	switch s {
	case "", "linear":
		return WireLinear, nil
	case "spline":
		return WireSpline, nil
	}
	return WireLinear, fmt.Errorf("unknown wire strategy %q", s)
}

// quadraturePoints is the Gauss-Legendre order used per knot interval.
const quadraturePoints = 16

// EdgeLine is a curve through the leading or trailing boundary poles of a
// chordface, parameterized by the chordface spanwise knots.
type EdgeLine struct {
	poles  []geometry.Point3
	knots  []float64
	arc    []float64 // arc length from the first pole to each pole
	spline []*interp.AkimaSpline
}

func newEdgeLine(poles []geometry.Point3, knots []float64, strategy WireStrategy) (*EdgeLine, error) {
	if len(poles) < 2 || len(poles) != len(knots) {
		return nil, fmt.Errorf("edge line: %d poles with %d knots: %w",
			len(poles), len(knots), utils.ErrInvalidParameterRange)
	}
	e := &EdgeLine{poles: poles, knots: knots, arc: make([]float64, len(poles))}

	if strategy == WireSpline && len(poles) > 2 {
		for i := 1; i < len(knots); i++ {
			if knots[i] <= knots[i-1] {
				return nil, fmt.Errorf("edge line: spline knots not increasing at %d: %w",
					i, utils.ErrInvalidParameterRange)
			}
		}
		xs, ys, zs := make([]float64, len(poles)), make([]float64, len(poles)), make([]float64, len(poles))
		for i, p := range poles {
			xs[i], ys[i], zs[i] = p.X, p.Y, p.Z
		}
		e.spline = make([]*interp.AkimaSpline, 3)
		for k, vals := range [][]float64{xs, ys, zs} {
			e.spline[k] = &interp.AkimaSpline{}
			if err := e.spline[k].Fit(knots, vals); err != nil {
				return nil, fmt.Errorf("edge line: fitting spline: %w", err)
			}
		}
	}

	for i := 1; i < len(poles); i++ {
		e.arc[i] = e.arc[i-1] + e.intervalLength(i-1, knots[i])
	}
	return e, nil
}

// speed returns |dC/dt| of the spline.
func (e *EdgeLine) speed(t float64) float64 {
	dx := e.spline[0].PredictDerivative(t)
	dy := e.spline[1].PredictDerivative(t)
	dz := e.spline[2].PredictDerivative(t)
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// intervalLength returns the arc length from knot i to parameter t within
// interval i.
func (e *EdgeLine) intervalLength(i int, t float64) float64 {
	lo := e.knots[i]
	if e.spline == nil {
		hi := e.knots[i+1]
		full := geometry.Distance(e.poles[i], e.poles[i+1])
		if hi == lo {
			return full
		}
		return full * (t - lo) / (hi - lo)
	}
	if t <= lo {
		return 0
	}
	return quad.Fixed(e.speed, lo, t, quadraturePoints, nil, 0)
}

// Length returns the arc length of the edge.
func (e *EdgeLine) Length() float64 { return e.arc[len(e.arc)-1] }

// Poles returns the points the edge passes through.
func (e *EdgeLine) Poles() []geometry.Point3 { return e.poles }

// Smooth reports whether the edge is a spline.
func (e *EdgeLine) Smooth() bool { return e.spline != nil }

// At returns the edge point at chordface eta.
func (e *EdgeLine) At(eta float64) (geometry.Point3, error) {
	if err := utils.CheckUnit("eta", eta); err != nil {
		return geometry.Point3{}, fmt.Errorf("edge line: %w", err)
	}
	i := interval(e.knots, eta)
	return e.eval(i, eta), nil
}

// Point returns the edge point at relative arc length ref: 0 is the inner
// end, 1 the outer end.
func (e *EdgeLine) Point(ref float64) (geometry.Point3, error) {
	if err := utils.CheckUnit("ref", ref); err != nil {
		return geometry.Point3{}, fmt.Errorf("edge line: %w", err)
	}
	n := len(e.poles) - 1
	switch ref {
	case 0:
		return e.poles[0], nil
	case 1:
		return e.poles[n], nil
	}
	i, t := e.param(ref)
	if e.spline == nil {
		return geometry.Lerp(e.poles[i], e.poles[i+1], t), nil
	}
	return e.eval(i, t), nil
}

// Tangent returns the unit tangent at relative arc length ref, pointing
// from the inner to the outer end.
func (e *EdgeLine) Tangent(ref float64) (geometry.Point3, error) {
	if err := utils.CheckUnit("ref", ref); err != nil {
		return geometry.Point3{}, fmt.Errorf("edge line: %w", err)
	}
	if e.Length() == 0 {
		return geometry.Point3{}, fmt.Errorf("edge line: zero length: %w", utils.ErrDegenerateGeometry)
	}
	i, t := e.param(ref)
	var d geometry.Point3
	if e.spline == nil {
		d = r3.Sub(e.poles[i+1], e.poles[i])
	} else {
		d = geometry.Pt(e.spline[0].PredictDerivative(t),
			e.spline[1].PredictDerivative(t), e.spline[2].PredictDerivative(t))
	}
	if r3.Norm(d) == 0 {
		return geometry.Point3{}, fmt.Errorf("edge line: no tangent at %g: %w", ref, utils.ErrDegenerateGeometry)
	}
	return r3.Unit(d), nil
}

// param returns the knot interval holding relative arc length ref and the
// position of that point in it: the spline parameter, or the fraction of
// the straight interval.
func (e *EdgeLine) param(ref float64) (int, float64) {
	s := ref * e.Length()
	i := interval(e.arc, s)
	// skip zero length intervals, which carry no direction
	for i < len(e.arc)-2 && e.arc[i+1] == e.arc[i] {
		i++
	}
	remaining := s - e.arc[i]
	if e.spline == nil {
		span := e.arc[i+1] - e.arc[i]
		if span == 0 {
			return i, 0
		}
		return i, remaining / span
	}

	// arc length is monotonic in t, bisect for the parameter
	lo, hi := e.knots[i], e.knots[i+1]
	for it := 0; it < 100 && hi-lo > 1e-15; it++ {
		mid := 0.5 * (lo + hi)
		if e.intervalLength(i, mid) < remaining {
			lo = mid
		} else {
			hi = mid
		}
	}
	return i, 0.5 * (lo + hi)
}

// interval returns the index i of the interval [vals[i], vals[i+1]]
// containing v, the last interval for the upper end.
func interval(vals []float64, v float64) int {
	i := sort.SearchFloat64s(vals, v) - 1
	if i < 0 {
		i = 0
	}
	if i > len(vals)-2 {
		i = len(vals) - 2
	}
	return i
}

func (e *EdgeLine) eval(i int, t float64) geometry.Point3 {
	if e.spline != nil {
		return geometry.Pt(e.spline[0].Predict(t), e.spline[1].Predict(t), e.spline[2].Predict(t))
	}
	lo, hi := e.knots[i], e.knots[i+1]
	if hi == lo {
		return e.poles[i]
	}
	return geometry.Lerp(e.poles[i], e.poles[i+1], (t-lo)/(hi-lo))
}
