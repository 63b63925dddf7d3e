package component

import (
	"fmt"
	"math"

	"github.com/notargets/wingcoords/geometry"
	"github.com/notargets/wingcoords/patch"
	"github.com/notargets/wingcoords/utils"
)

// DefaultMaxDeviation is the largest distance between a point and its
// owning segment accepted by Locate when the caller passes no tolerance.
// It is 1 cm for geometry in metres.
const DefaultMaxDeviation = 1e-2

// tieFraction scales the accepted deviation into the margin under which two
// candidates count as equally close. The inverse mapping stops at a gradient
// tolerance, so deviations on a shared boundary differ by solver noise of
// order 1e-7 rather than round-off.
const tieFraction = 1e-3

// Location describes the segment owning a point.
type Location struct {
	Index      int // position of the segment in the chain
	SegmentUID string
	// Eta and Xsi are the segment coordinates of the unbounded projection.
	// They may lie slightly outside [0,1] for points beyond an edge.
	Eta, Xsi  float64
	Nearest   geometry.Point3 // closest point of the segment with clamped coordinates
	Deviation float64         // distance between the point and Nearest
}

// Locator finds the segment of a chain owning a free point.
type Locator struct {
	uids        []string
	translators []*patch.Translator
}

// NewLocator builds a translator for every segment of the chain.
func NewLocator(segments []Segment, opts patch.Options) (*Locator, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("locator: %w", utils.ErrEmptyComponent)
	}
	l := &Locator{
		uids:        make([]string, len(segments)),
		translators: make([]*patch.Translator, len(segments)),
	}
	for i, s := range segments {
		if s == nil {
			return nil, fmt.Errorf("locator: segment %d: %w", i, utils.ErrNullArgument)
		}
		l.uids[i] = s.UID()
		l.translators[i] = patch.NewTranslator(s.Quad(), opts)
	}
	return l, nil
}

// Len returns the number of segments.
func (l *Locator) Len() int { return len(l.translators) }

// Translator returns the translator of segment i.
func (l *Locator) Translator(i int) (*patch.Translator, error) {
	if err := utils.CheckIndex(i, len(l.translators)); err != nil {
		return nil, fmt.Errorf("locator: %w", err)
	}
	return l.translators[i], nil
}

// Locate returns the segment closest to point. Every segment is evaluated:
// the point is mapped to segment coordinates, these are clamped to [0,1]
// and the deviation is the distance to the clamped patch point. The
// smallest deviation wins; deviations within maxDeviation*1e-3 of each
// other tie and the tie goes to the earliest segment.
//
// A maxDeviation <= 0 selects DefaultMaxDeviation. When the smallest
// deviation exceeds it the error wraps utils.ErrPointNotOnComponent and the
// closest candidate is still returned. Segments whose inverse mapping fails
// are skipped.
func (l *Locator) Locate(point geometry.Point3, maxDeviation float64) (Location, error) {
	if !geometry.IsFinite(point) {
		return Location{Index: -1}, fmt.Errorf("locator: point %v: %w", point, utils.ErrNonFinite)
	}
	if maxDeviation <= 0 {
		maxDeviation = DefaultMaxDeviation
	}

	tie := math.Max(maxDeviation*tieFraction, geometry.TieTolerance)
	best := Location{Index: -1, Deviation: math.Inf(1)}
	var lastErr error
	for i, tr := range l.translators {
		p, err := tr.ToParams(point)
		if err != nil {
			utils.Logger().Debug("locator: skipping segment", "uid", l.uids[i], "err", err)
			lastErr = err
			continue
		}
		nearest := tr.ToPoint(geometry.Clamp01(p.Eta), geometry.Clamp01(p.Xsi))
		dev := geometry.Distance(point, nearest)
		if geometry.CloserWithin(dev, best.Deviation, tie) {
			best = Location{
				Index:      i,
				SegmentUID: l.uids[i],
				Eta:        p.Eta,
				Xsi:        p.Xsi,
				Nearest:    nearest,
				Deviation:  dev,
			}
		}
	}

	if best.Index < 0 {
		return best, fmt.Errorf("locator: no segment accepted %v: %w", point, lastErr)
	}
	if best.Deviation > maxDeviation {
		return best, fmt.Errorf("locator: %v is %g from segment %q, limit %g: %w",
			point, best.Deviation, best.SegmentUID, maxDeviation, utils.ErrPointNotOnComponent)
	}
	return best, nil
}
