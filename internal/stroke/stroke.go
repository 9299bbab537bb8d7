// Package stroke holds the ink data model: a stroke is one continuous
// pen-down-to-pen-up gesture recorded as ordered world-space points with a
// parallel per-point width (stylus pressure).
package stroke

import (
	"errors"
	"fmt"

	"github.com/inkfinity/inkfinity/backend-go/internal/geom"
)

// MinBoundsPadding is the floor for bounding-box expansion. Very thin
// strokes still get a small halo so containment tests don't miss them.
const MinBoundsPadding = 0.005

var ErrNoPoints = errors.New("stroke has no points")

// Stroke is an ordered point sequence plus widths. Points and Widths are
// parallel and never empty. The bounding box and centroid are cached and
// recomputed whenever the points are mutated.
type Stroke struct {
	ID       string       `json:"id"`
	AuthorID string       `json:"authorId"`
	Points   []geom.Point `json:"points"`
	Widths   []float64    `json:"widths"`

	boundsMin geom.Point
	boundsMax geom.Point
	centroid  geom.Point
}

// New validates and builds a stroke. Points and widths must be the same
// nonzero length.
func New(id, authorID string, points []geom.Point, widths []float64) (*Stroke, error) {
	if len(points) == 0 {
		return nil, ErrNoPoints
	}
	if len(points) != len(widths) {
		return nil, fmt.Errorf("point/width count mismatch: %d != %d", len(points), len(widths))
	}
	s := &Stroke{
		ID:       id,
		AuthorID: authorID,
		Points:   points,
		Widths:   widths,
	}
	s.Recompute()
	return s, nil
}

// Recompute refreshes the cached bounding box and centroid. Callers that
// mutate Points or Widths directly (deserialization) must call this before
// using the stroke in queries.
func (s *Stroke) Recompute() {
	if len(s.Points) == 0 {
		return
	}
	min, max := s.Points[0], s.Points[0]
	var sum geom.Point
	for _, p := range s.Points {
		if p.X < min.X {
			min.X = p.X
		}
		if p.Y < min.Y {
			min.Y = p.Y
		}
		if p.Z < min.Z {
			min.Z = p.Z
		}
		if p.X > max.X {
			max.X = p.X
		}
		if p.Y > max.Y {
			max.Y = p.Y
		}
		if p.Z > max.Z {
			max.Z = p.Z
		}
		sum = sum.Add(p)
	}

	pad := MinBoundsPadding
	for _, w := range s.Widths {
		if w > pad {
			pad = w
		}
	}
	padVec := geom.Point{X: pad, Y: pad, Z: pad}

	s.boundsMin = min.Sub(padVec)
	s.boundsMax = max.Add(padVec)
	s.centroid = sum.Scale(1 / float64(len(s.Points)))
}

// Centroid returns the cached mean of the stroke's points.
func (s *Stroke) Centroid() geom.Point { return s.centroid }

// Bounds returns the cached width-expanded axis-aligned bounding box.
func (s *Stroke) Bounds() (min, max geom.Point) { return s.boundsMin, s.boundsMax }

// BoundsCornersXZ returns the four XZ corners of the bounding box at the
// centroid's height, in the order used by containment tests.
func (s *Stroke) BoundsCornersXZ() [4]geom.Point {
	y := s.centroid.Y
	return [4]geom.Point{
		{X: s.boundsMin.X, Y: y, Z: s.boundsMin.Z},
		{X: s.boundsMax.X, Y: y, Z: s.boundsMin.Z},
		{X: s.boundsMax.X, Y: y, Z: s.boundsMax.Z},
		{X: s.boundsMin.X, Y: y, Z: s.boundsMax.Z},
	}
}

// PathLength returns the total polyline length of the stroke.
func (s *Stroke) PathLength() float64 {
	var d float64
	for i := 1; i < len(s.Points); i++ {
		d += s.Points[i].DistanceTo(s.Points[i-1])
	}
	return d
}

// EndpointDistance returns the straight-line distance between the stroke's
// first and last point.
func (s *Stroke) EndpointDistance() float64 {
	return s.Points[0].DistanceTo(s.Points[len(s.Points)-1])
}

// FlattenToHeight projects every point onto the horizontal plane at y and
// recomputes the cached attributes.
func (s *Stroke) FlattenToHeight(y float64) {
	for i := range s.Points {
		s.Points[i].Y = y
	}
	s.Recompute()
}
