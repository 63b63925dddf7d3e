package component

import (
	"errors"
	"fmt"
	"math"

	"github.com/notargets/wingcoords/geometry"
	"github.com/notargets/wingcoords/utils"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// interpolateTolerance is the largest distance between a line/eta plane
	// intersection and the segment that owns it.
	interpolateTolerance = 1e-3
	// intersectionSlack is how far beyond its end points the component line
	// may be met by a segment chord.
	intersectionSlack = 1e-5
	// planeParallel is the smallest |d·n| accepted when intersecting a line
	// of direction d with a plane of unit normal n.
	planeParallel = 1e-8
)

// minLineAngle is the smallest angle between two lines that are intersected.
var minLineAngle = math.Sin(math.Pi / 180)

// SegmentIntersection returns the xsi at which the chord line of segment
// uid at segment eta crosses the straight component line from
// (csEta1, csXsi1) to (csEta2, csXsi2). Lines closer than one degree to
// parallel, or crossing beyond the ends of the component line, wrap
// utils.ErrNoIntersection. The returned xsi is not clamped.
func (c *Component) SegmentIntersection(uid string, csEta1, csXsi1, csEta2, csXsi2, eta float64) (float64, error) {
	if err := utils.CheckUnit("eta", eta); err != nil {
		return 0, fmt.Errorf("component %q: %w", c.uid, err)
	}
	p1, p2, err := c.componentLine(csEta1, csXsi1, csEta2, csXsi2)
	if err != nil {
		return 0, err
	}
	seg, err := c.segmentByUID(uid)
	if err != nil {
		return 0, err
	}
	q := seg.Quad()
	le, te := q.Evaluate(eta, 0), q.Evaluate(eta, 1)

	csDir, csLen := r3.Sub(p2, p1), geometry.Distance(p1, p2)
	chordDir, depth := r3.Sub(te, le), geometry.Distance(le, te)
	if csLen == 0 || depth == 0 {
		return 0, fmt.Errorf("component %q: intersecting segment %q: %w", c.uid, uid, utils.ErrDegenerateGeometry)
	}
	u, v := r3.Scale(1/csLen, csDir), r3.Scale(1/depth, chordDir)
	if r3.Norm(r3.Cross(u, v)) < minLineAngle {
		return 0, fmt.Errorf("component %q: component line parallel to chord of %q: %w",
			c.uid, uid, utils.ErrNoIntersection)
	}

	// closest points p1 + s*u and le + t*v of the two lines
	w := r3.Sub(p1, le)
	b, d, e := r3.Dot(u, v), r3.Dot(u, w), r3.Dot(v, w)
	denom := 1 - b*b
	s := (b*e - d) / denom
	t := (e - b*d) / denom
	if s < -intersectionSlack || s > csLen+intersectionSlack {
		return 0, fmt.Errorf("component %q: segment %q at eta %g does not cross the component line: %w",
			c.uid, uid, eta, utils.ErrNoIntersection)
	}
	return t / depth, nil
}

// InterpolateOnLine intersects the straight component line from
// (csEta1, csXsi1) to (csEta2, csXsi2) with the eta plane: the plane
// through the eta line at eta, normal to it. It returns the xsi of the
// segment owning the intersection and the distance between the component
// line and that segment point.
func (c *Component) InterpolateOnLine(csEta1, csXsi1, csEta2, csXsi2, eta float64) (xsi, errorDistance float64, err error) {
	if err := utils.CheckUnit("eta", eta); err != nil {
		return 0, 0, fmt.Errorf("component %q: %w", c.uid, err)
	}
	p1, p2, err := c.componentLine(csEta1, csXsi1, csEta2, csXsi2)
	if err != nil {
		return 0, 0, err
	}
	line, err := c.etaLine()
	if err != nil {
		return 0, 0, err
	}
	origin, err := line.Point(eta)
	if err != nil {
		return 0, 0, err
	}
	normal, err := line.Tangent(eta)
	if err != nil {
		return 0, 0, fmt.Errorf("component %q: eta plane: %w", c.uid, err)
	}

	dir := r3.Sub(p2, p1)
	denom := r3.Dot(dir, normal)
	if math.Abs(denom) < planeParallel {
		return 0, 0, fmt.Errorf("component %q: component line parallel to eta plane at %g: %w",
			c.uid, eta, utils.ErrNoIntersection)
	}
	alpha := r3.Dot(r3.Sub(origin, p1), normal) / denom
	hit := r3.Add(p1, r3.Scale(alpha, dir))

	loc, err := c.Locate(hit, interpolateTolerance)
	if err != nil {
		return 0, 0, fmt.Errorf("component %q: interpolating at eta %g: %w", c.uid, eta, err)
	}
	return geometry.Clamp01(loc.Xsi), lineDistance(p1, p2, loc.Nearest), nil
}

// LeadingEdgeDirection returns the unit direction of the leading edge of
// segment uid, from its inner to its outer end.
func (c *Component) LeadingEdgeDirection(uid string) (geometry.Point3, error) {
	return c.edgeDirection(uid, geometry.EdgeLeading)
}

// TrailingEdgeDirection returns the unit direction of the trailing edge of
// segment uid, from its inner to its outer end.
func (c *Component) TrailingEdgeDirection(uid string) (geometry.Point3, error) {
	return c.edgeDirection(uid, geometry.EdgeTrailing)
}

// LeadingEdgeDirectionAt returns the leading edge direction of the segment
// owning p, or of segment defaultUID when p is not on the component.
func (c *Component) LeadingEdgeDirectionAt(p geometry.Point3, defaultUID string) (geometry.Point3, error) {
	uid, err := c.owner(p, defaultUID)
	if err != nil {
		return geometry.Point3{}, err
	}
	return c.LeadingEdgeDirection(uid)
}

// TrailingEdgeDirectionAt returns the trailing edge direction of the
// segment owning p, or of segment defaultUID when p is not on the
// component.
func (c *Component) TrailingEdgeDirectionAt(p geometry.Point3, defaultUID string) (geometry.Point3, error) {
	uid, err := c.owner(p, defaultUID)
	if err != nil {
		return geometry.Point3{}, err
	}
	return c.TrailingEdgeDirection(uid)
}

// MidplaneEtaDir returns the unit direction of the eta line at eta. The
// eta line joins the leading edge poles projected onto the x = 0 plane of
// the wing frame, so it follows span and dihedral but not sweep.
func (c *Component) MidplaneEtaDir(eta float64) (geometry.Point3, error) {
	line, err := c.etaLine()
	if err != nil {
		return geometry.Point3{}, err
	}
	dir, err := line.Tangent(eta)
	if err != nil {
		return geometry.Point3{}, fmt.Errorf("component %q: eta direction: %w", c.uid, err)
	}
	return dir, nil
}

// MidplaneNormal returns the unit normal of the chordface at eta: the
// chord direction crossed with the eta direction. For a wing with x
// downstream and y spanwise it points up.
func (c *Component) MidplaneNormal(eta float64) (geometry.Point3, error) {
	if err := utils.CheckUnit("eta", eta); err != nil {
		return geometry.Point3{}, fmt.Errorf("component %q: %w", c.uid, err)
	}
	le, err := c.GetPoint(eta, 0)
	if err != nil {
		return geometry.Point3{}, err
	}
	te, err := c.GetPoint(eta, 1)
	if err != nil {
		return geometry.Point3{}, err
	}
	etaDir, err := c.MidplaneEtaDir(eta)
	if err != nil {
		return geometry.Point3{}, err
	}
	chord := r3.Sub(te, le)
	if r3.Norm(chord) == 0 {
		return geometry.Point3{}, fmt.Errorf("component %q: zero chord at eta %g: %w",
			c.uid, eta, utils.ErrDegenerateGeometry)
	}
	n := r3.Cross(r3.Unit(chord), etaDir)
	if r3.Norm(n) == 0 {
		return geometry.Point3{}, fmt.Errorf("component %q: chord along eta line at %g: %w",
			c.uid, eta, utils.ErrDegenerateGeometry)
	}
	return r3.Unit(n), nil
}

// componentLine returns the chordface points at both ends of a component
// line.
func (c *Component) componentLine(eta1, xsi1, eta2, xsi2 float64) (p1, p2 geometry.Point3, err error) {
	if p1, err = c.GetPoint(eta1, xsi1); err != nil {
		return p1, p2, fmt.Errorf("component %q: line start: %w", c.uid, err)
	}
	if p2, err = c.GetPoint(eta2, xsi2); err != nil {
		return p1, p2, fmt.Errorf("component %q: line end: %w", c.uid, err)
	}
	return p1, p2, nil
}

// etaLine returns the straight-segment line through the leading edge poles
// projected onto x = 0.
func (c *Component) etaLine() (*EdgeLine, error) {
	s, err := c.Chordface()
	if err != nil {
		return nil, err
	}
	leading, _ := s.Poles()
	projected := make([]geometry.Point3, len(leading))
	for i, p := range leading {
		projected[i] = geometry.Pt(0, p.Y, p.Z)
	}
	return newEdgeLine(projected, s.Knots(), WireLinear)
}

func (c *Component) segmentByUID(uid string) (Segment, error) {
	i, err := c.SegmentIndex(uid)
	if err != nil {
		return nil, err
	}
	return c.Segment(i)
}

func (c *Component) edgeDirection(uid string, edge int) (geometry.Point3, error) {
	seg, err := c.segmentByUID(uid)
	if err != nil {
		return geometry.Point3{}, err
	}
	e := seg.Quad().Edge(edge)
	d := r3.Sub(e.B, e.A)
	if r3.Norm(d) == 0 {
		return geometry.Point3{}, fmt.Errorf("component %q: segment %q: zero length edge: %w",
			c.uid, uid, utils.ErrDegenerateGeometry)
	}
	return r3.Unit(d), nil
}

// owner returns the uid of the segment owning p, falling back to
// defaultUID when p is too far from every segment.
func (c *Component) owner(p geometry.Point3, defaultUID string) (string, error) {
	loc, err := c.Locate(p, 0)
	switch {
	case err == nil:
		return loc.SegmentUID, nil
	case errors.Is(err, utils.ErrPointNotOnComponent):
		utils.Logger().Debug("component: point not on component, using default segment",
			"uid", c.uid, "point", p, "default", defaultUID)
		return defaultUID, nil
	}
	return "", err
}

// lineDistance returns the distance between p and the infinite line
// through a and b.
func lineDistance(a, b, p geometry.Point3) float64 {
	d := r3.Sub(b, a)
	n := r3.Norm(d)
	if n == 0 {
		return geometry.Distance(a, p)
	}
	return r3.Norm(r3.Cross(d, r3.Sub(p, a))) / n
}
