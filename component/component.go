package component

import (
	"fmt"
	"sync"

	"github.com/notargets/wingcoords/cache"
	"github.com/notargets/wingcoords/chordface"
	"github.com/notargets/wingcoords/geometry"
	"github.com/notargets/wingcoords/patch"
	"github.com/notargets/wingcoords/utils"
)

// midplaneTolerance is how far outside [0,1] segment coordinates may fall
// before MidplaneEtaXsi rejects a point.
const midplaneTolerance = 1e-5

// Options configures the solvers of a Component.
type Options struct {
	Patch patch.Options
	// MaxDeviation is the Locate tolerance used when the caller passes
	// none. Zero selects DefaultMaxDeviation.
	MaxDeviation float64
}

// Component is an ordered chain of adjacent segments. The chordface and the
// segment translators are built on first use and rebuilt after Invalidate.
// A Component is safe for concurrent readers; SetSegments and Configure
// must not race with each other.
type Component struct {
	uid string

	mu       sync.RWMutex
	segments []Segment
	opts     Options

	surface *cache.Lazy[*chordface.Surface]
	locator *cache.Lazy[*Locator]
}

// New returns a component made of segments, inner to outer.
func New(uid string, segments ...Segment) (*Component, error) {
	c := &Component{uid: uid}
	if err := c.setSegments(segments); err != nil {
		return nil, err
	}
	c.surface = cache.NewLazy(c.buildSurface)
	c.locator = cache.NewLazy(c.buildLocator)
	return c, nil
}

func (c *Component) buildSurface() (*chordface.Surface, error) {
	segments, opts := c.snapshot()
	quads := make([]geometry.Quad, len(segments))
	for i, s := range segments {
		quads[i] = s.Quad()
	}
	utils.Logger().Debug("component: building chordface", "uid", c.uid, "segments", len(quads))
	return chordface.Build(quads, opts.Patch)
}

func (c *Component) buildLocator() (*Locator, error) {
	segments, opts := c.snapshot()
	return NewLocator(segments, opts.Patch)
}

func (c *Component) snapshot() ([]Segment, Options) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.segments, c.opts
}

func (c *Component) setSegments(segments []Segment) error {
	if len(segments) == 0 {
		return fmt.Errorf("component %q: %w", c.uid, utils.ErrEmptyComponent)
	}
	for i, s := range segments {
		if s == nil {
			return fmt.Errorf("component %q: segment %d: %w", c.uid, i, utils.ErrNullArgument)
		}
	}
	c.mu.Lock()
	c.segments = append([]Segment(nil), segments...)
	c.mu.Unlock()
	return nil
}

// UID returns the component identifier.
func (c *Component) UID() string { return c.uid }

// SetSegments replaces the chain and invalidates the derived geometry.
func (c *Component) SetSegments(segments ...Segment) error {
	if err := c.setSegments(segments); err != nil {
		return err
	}
	c.Invalidate()
	return nil
}

// Configure replaces the solver options and invalidates the derived
// geometry.
func (c *Component) Configure(opts Options) {
	c.mu.Lock()
	c.opts = opts
	c.mu.Unlock()
	c.Invalidate()
}

// Invalidate marks the chordface and the translators dirty. Owners call it
// when the geometry of a segment changed.
func (c *Component) Invalidate() {
	c.surface.Invalidate()
	c.locator.Invalidate()
}

// SegmentCount returns the number of segments.
func (c *Component) SegmentCount() int {
	segments, _ := c.snapshot()
	return len(segments)
}

// Segment returns segment i.
func (c *Component) Segment(i int) (Segment, error) {
	segments, _ := c.snapshot()
	if err := utils.CheckIndex(i, len(segments)); err != nil {
		return nil, fmt.Errorf("component %q: segment: %w", c.uid, err)
	}
	return segments[i], nil
}

// SegmentIndex returns the chain position of the segment with the uid.
func (c *Component) SegmentIndex(uid string) (int, error) {
	segments, _ := c.snapshot()
	for i, s := range segments {
		if s.UID() == uid {
			return i, nil
		}
	}
	return -1, fmt.Errorf("component %q: segment %q: %w", c.uid, uid, utils.ErrUnknownSegment)
}

// Chordface returns the chordface surface, building it if needed.
func (c *Component) Chordface() (*chordface.Surface, error) {
	return c.surface.Get()
}

// Locator returns the segment locator, building it if needed.
func (c *Component) Locator() (*Locator, error) {
	return c.locator.Get()
}

// GetPoint returns the chordface point at component coordinates (eta, xsi).
func (c *Component) GetPoint(eta, xsi float64) (geometry.Point3, error) {
	s, err := c.Chordface()
	if err != nil {
		return geometry.Point3{}, err
	}
	return s.GetPoint(eta, xsi)
}

// GetEtaXsi returns the component coordinates of the chordface point
// closest to p.
func (c *Component) GetEtaXsi(p geometry.Point3) (eta, xsi float64, err error) {
	s, err := c.Chordface()
	if err != nil {
		return 0, 0, err
	}
	return s.GetEtaXsi(p)
}

// Locate returns the segment owning p. A maxDeviation <= 0 selects the
// configured tolerance.
func (c *Component) Locate(p geometry.Point3, maxDeviation float64) (Location, error) {
	l, err := c.Locator()
	if err != nil {
		return Location{Index: -1}, err
	}
	if maxDeviation <= 0 {
		_, opts := c.snapshot()
		maxDeviation = opts.MaxDeviation
	}
	return l.Locate(p, maxDeviation)
}

// SegmentEtaXsiToComponent converts the coordinates of a point on segment
// uid into component coordinates. The segment point is projected onto the
// chordface; xsi is passed through.
func (c *Component) SegmentEtaXsiToComponent(uid string, seta, sxsi float64) (eta, xsi float64, err error) {
	if err := utils.CheckUnit("seta", seta); err != nil {
		return 0, 0, fmt.Errorf("component %q: %w", c.uid, err)
	}
	if err := utils.CheckUnit("sxsi", sxsi); err != nil {
		return 0, 0, fmt.Errorf("component %q: %w", c.uid, err)
	}
	i, err := c.SegmentIndex(uid)
	if err != nil {
		return 0, 0, err
	}
	seg, err := c.Segment(i)
	if err != nil {
		return 0, 0, err
	}
	s, err := c.Chordface()
	if err != nil {
		return 0, 0, err
	}
	proj, err := s.Project(seg.Quad().Evaluate(seta, sxsi))
	if err != nil {
		return 0, 0, err
	}
	return proj.Eta, sxsi, nil
}

// MidplaneEtaXsi returns the component coordinates of a point lying on the
// chord surface of one of the segments. Points whose segment coordinates
// fall outside [0,1] by more than a small tolerance are rejected with
// utils.ErrPointNotOnComponent.
func (c *Component) MidplaneEtaXsi(p geometry.Point3) (eta, xsi float64, err error) {
	loc, err := c.Locate(p, 0)
	if err != nil {
		return 0, 0, err
	}
	const lo, hi = -midplaneTolerance, 1 + midplaneTolerance
	if loc.Eta < lo || loc.Eta > hi || loc.Xsi < lo || loc.Xsi > hi {
		return 0, 0, fmt.Errorf("component %q: %v maps to segment %q at (%g, %g): %w",
			c.uid, p, loc.SegmentUID, loc.Eta, loc.Xsi, utils.ErrPointNotOnComponent)
	}
	return c.SegmentEtaXsiToComponent(loc.SegmentUID, geometry.Clamp01(loc.Eta), geometry.Clamp01(loc.Xsi))
}

// Line samples the chordface along the straight parameter line from
// (eta1, xsi1) to (eta2, xsi2). It returns steps points including both
// ends; steps must be at least 2.
func (c *Component) Line(eta1, xsi1, eta2, xsi2 float64, steps int) ([]geometry.Point3, error) {
	if steps < 2 {
		return nil, fmt.Errorf("component %q: line with %d steps: %w", c.uid, steps, utils.ErrInvalidParameterRange)
	}
	s, err := c.Chordface()
	if err != nil {
		return nil, err
	}
	line := make([]geometry.Point3, steps)
	for i := range line {
		t := float64(i) / float64(steps-1)
		eta, xsi := eta1+t*(eta2-eta1), xsi1+t*(xsi2-xsi1)
		if i == steps-1 {
			eta, xsi = eta2, xsi2
		}
		line[i], err = s.GetPoint(eta, xsi)
		if err != nil {
			return nil, fmt.Errorf("component %q: line: %w", c.uid, err)
		}
	}
	return line, nil
}

// LeadingEdge returns the line through the leading edge poles.
func (c *Component) LeadingEdge(strategy WireStrategy) (*EdgeLine, error) {
	s, err := c.Chordface()
	if err != nil {
		return nil, err
	}
	leading, _ := s.Poles()
	return newEdgeLine(leading, s.Knots(), strategy)
}

// TrailingEdge returns the line through the trailing edge poles.
func (c *Component) TrailingEdge(strategy WireStrategy) (*EdgeLine, error) {
	s, err := c.Chordface()
	if err != nil {
		return nil, err
	}
	_, trailing := s.Poles()
	return newEdgeLine(trailing, s.Knots(), strategy)
}
