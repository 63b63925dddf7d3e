// Package component models a lifting surface component: an ordered chain of
// segments with a shared chordface coordinate system, segment location for
// free points and the leading and trailing edge lines.
package component

import (
	"github.com/notargets/wingcoords/geometry"
)

// Segment is one element of a component chain. Quad returns the chord
// quadrilateral in the order inner-leading, outer-leading, inner-trailing,
// outer-trailing.
type Segment interface {
	UID() string
	Quad() geometry.Quad
}

// StaticSegment is a Segment with fixed corners.
type StaticSegment struct {
	ID    string
	Chord geometry.Quad
}

// NewStaticSegment returns a segment with chord corners p1..p4.
func NewStaticSegment(uid string, p1, p2, p3, p4 geometry.Point3) StaticSegment {
	return StaticSegment{ID: uid, Chord: geometry.NewQuad(p1, p2, p3, p4)}
}

func (s StaticSegment) UID() string         { return s.ID }
func (s StaticSegment) Quad() geometry.Quad { return s.Chord }
