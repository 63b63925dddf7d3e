// Package chordface builds the reference chord surface of a lifting surface
// component: the chord quadrilaterals of an ordered chain of segments joined
// into one piecewise bilinear surface with a global, arc-length-like
// spanwise coordinate.
package chordface

import (
	"fmt"
	"math"
	"sort"

	"github.com/notargets/wingcoords/geometry"
	"github.com/notargets/wingcoords/patch"
	"github.com/notargets/wingcoords/utils"
	"gonum.org/v1/gonum/floats"
)

// Surface is a degree 1×1 B-spline surface with a single chordwise span and
// one spanwise span per segment. Boundary k holds the leading and trailing
// chord points where segment k-1 ends and segment k begins.
type Surface struct {
	leading  []geometry.Point3 // n+1 leading edge poles
	trailing []geometry.Point3 // n+1 trailing edge poles
	knots    []float64         // n+1 distinct spanwise knots, 0 ... 1
	spans    []*patch.Translator
}

// Build joins the chord quads of an ordered segment chain. Segment i
// contributes its inner boundary; the last segment also contributes its
// outer boundary. Consecutive quads are assumed to share a boundary.
func Build(quads []geometry.Quad, opts patch.Options) (*Surface, error) {
	n := len(quads)
	if n == 0 {
		return nil, fmt.Errorf("chordface: %w", utils.ErrEmptyComponent)
	}

	s := &Surface{
		leading:  make([]geometry.Point3, n+1),
		trailing: make([]geometry.Point3, n+1),
		spans:    make([]*patch.Translator, n),
	}
	for i, q := range quads {
		c := q.Corners()
		s.leading[i], s.trailing[i] = c[0], c[2]
		if i == n-1 {
			s.leading[n], s.trailing[n] = c[1], c[3]
		}
	}
	s.knots = midlineKnots(s.leading, s.trailing)

	for i := range s.spans {
		q := geometry.NewQuad(s.leading[i], s.leading[i+1], s.trailing[i], s.trailing[i+1])
		s.spans[i] = patch.NewTranslator(q, opts)
	}
	return s, nil
}

// midlineKnots spaces the boundaries by the distance between consecutive
// chord midpoints and normalizes the result to [0,1]. A chain whose
// midpoints all coincide gets uniform knots.
func midlineKnots(leading, trailing []geometry.Point3) []float64 {
	n := len(leading) - 1
	knots := make([]float64, n+1)
	for k := 1; k <= n; k++ {
		inner := geometry.Midpoint(leading[k-1], trailing[k-1])
		outer := geometry.Midpoint(leading[k], trailing[k])
		knots[k] = geometry.Distance(inner, outer)
	}
	floats.CumSum(knots, knots)

	total := knots[n]
	if total == 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		floats.Span(knots, 0, 1)
		return knots
	}
	floats.Scale(1/total, knots)
	knots[n] = 1
	return knots
}

// SpanCount returns the number of spanwise spans, one per segment.
func (s *Surface) SpanCount() int { return len(s.spans) }

// Knots returns the n+1 distinct spanwise knots, the global eta of every
// segment boundary. The slice must not be modified.
func (s *Surface) Knots() []float64 { return s.knots }

// KnotVector returns the clamped spanwise knot vector of the degree 1
// surface: both end knots with multiplicity 2, interior knots once.
func (s *Surface) KnotVector() []float64 {
	v := make([]float64, 0, len(s.knots)+2)
	v = append(v, 0)
	v = append(v, s.knots...)
	return append(v, 1)
}

// Span returns the bilinear patch of span i.
func (s *Surface) Span(i int) (geometry.Quad, error) {
	if err := utils.CheckIndex(i, len(s.spans)); err != nil {
		return geometry.Quad{}, fmt.Errorf("chordface: span: %w", err)
	}
	return s.spans[i].Quad(), nil
}

// Poles returns the leading and trailing boundary points.
func (s *Surface) Poles() (leading, trailing []geometry.Point3) {
	return s.leading, s.trailing
}

// SpanOf returns the span containing the global eta and the local eta in
// that span. Interior knots belong to the span above them; eta = 1 belongs
// to the last span.
func (s *Surface) SpanOf(eta float64) (int, float64) {
	n := len(s.spans)
	i := sort.SearchFloat64s(s.knots, eta)
	// SearchFloat64s returns the first knot >= eta
	if i < len(s.knots) && s.knots[i] == eta {
		i++
	}
	i--
	if i < 0 {
		i = 0
	}
	if i > n-1 {
		i = n - 1
	}
	lo, hi := s.knots[i], s.knots[i+1]
	if hi == lo {
		return i, 0
	}
	return i, (eta - lo) / (hi - lo)
}

// GlobalEta maps the local eta of span i to the global eta.
func (s *Surface) GlobalEta(i int, local float64) float64 {
	lo, hi := s.knots[i], s.knots[i+1]
	return lo + local*(hi-lo)
}

// GetPoint evaluates the surface at global (eta, xsi). Both must lie in
// [0,1].
func (s *Surface) GetPoint(eta, xsi float64) (geometry.Point3, error) {
	if err := utils.CheckUnit("eta", eta); err != nil {
		return geometry.Point3{}, fmt.Errorf("chordface: %w", err)
	}
	if err := utils.CheckUnit("xsi", xsi); err != nil {
		return geometry.Point3{}, fmt.Errorf("chordface: %w", err)
	}
	i, local := s.SpanOf(eta)
	return s.spans[i].ToPoint(local, xsi), nil
}

// Projection is the result of projecting a point onto the surface.
type Projection struct {
	Eta, Xsi float64         // global surface coordinates, in [0,1]
	Span     int             // span owning the closest point
	Point    geometry.Point3 // closest surface point
	Distance float64
}

// Project returns the closest point of the surface to p in the least
// squares sense. Every span is projected with its bounds; the closest wins
// and exact ties go to the lowest span index.
func (s *Surface) Project(p geometry.Point3) (Projection, error) {
	best := Projection{Distance: math.Inf(1), Span: -1}
	var lastErr error
	for i, span := range s.spans {
		local, pt, err := span.ProjectBounded(p)
		if err != nil {
			lastErr = err
			continue
		}
		if geometry.Closer(local.Distance, best.Distance) {
			best = Projection{
				Eta:      s.GlobalEta(i, local.Eta),
				Xsi:      local.Xsi,
				Span:     i,
				Point:    pt,
				Distance: local.Distance,
			}
		}
	}
	if best.Span < 0 {
		return best, fmt.Errorf("chordface: projecting %v: %w", p, lastErr)
	}
	return best, nil
}

// GetEtaXsi returns the global coordinates of the surface point closest to
// p.
func (s *Surface) GetEtaXsi(p geometry.Point3) (eta, xsi float64, err error) {
	proj, err := s.Project(p)
	if err != nil {
		return 0, 0, err
	}
	return proj.Eta, proj.Xsi, nil
}

// Sample evaluates the surface on the tensor grid etas × xsis. Row i of the
// result holds the points at etas[i].
func (s *Surface) Sample(etas, xsis []float64) ([][]geometry.Point3, error) {
	out := make([][]geometry.Point3, len(etas))
	for i, eta := range etas {
		out[i] = make([]geometry.Point3, len(xsis))
		for j, xsi := range xsis {
			p, err := s.GetPoint(eta, xsi)
			if err != nil {
				return nil, err
			}
			out[i][j] = p
		}
	}
	return out, nil
}
