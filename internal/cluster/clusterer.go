// Package cluster groups strokes that belong together on a surface. It
// answers two questions: which strokes sit inside a detected rectangle, and
// which strokes form a connected patch of ink around a seed stroke.
package cluster

import (
	"math"

	"github.com/inkfinity/inkfinity/backend-go/internal/geom"
	"github.com/inkfinity/inkfinity/backend-go/internal/stroke"
)

// Options are the clustering tunables.
type Options struct {
	// HeightTolerance is how far a stroke's centroid may sit above or below
	// the rectangle plane and still count as on it.
	HeightTolerance float64

	// Proximity is the base distance threshold for two strokes to be
	// considered neighbours. Doubled for likely-text seeds: handwriting has
	// more internal wiggle than shape strokes, and a tight threshold would
	// fragment one sentence into several clusters.
	Proximity float64

	// TextRatio is the path-length to endpoint-distance ratio above which a
	// seed stroke is treated as handwriting.
	TextRatio float64

	// MaxRelated caps region growing when the caller passes no limit.
	MaxRelated int
}

func DefaultOptions() Options {
	return Options{
		HeightTolerance: 0.1,
		Proximity:       0.15,
		TextRatio:       1.5,
		MaxRelated:      32,
	}
}

// FindStrokesInArea returns every stroke from the pool that lies on the
// rectangle's plane and overlaps it. A stroke is on the plane when its
// centroid height is within HeightTolerance of the mean corner height.
// Overlap is judged on the stroke's bounding-box corners: loose mode wants
// at least one corner inside the polygon, strict mode wants all four.
// An empty result is a normal answer, not an error.
func FindStrokesInArea(corners [4]geom.Point, pool []*stroke.Stroke, strict bool, opts Options) []*stroke.Stroke {
	var avgY float64
	for _, c := range corners {
		avgY += c.Y
	}
	avgY /= 4

	var out []*stroke.Stroke
	for _, s := range pool {
		if math.Abs(s.Centroid().Y-avgY) > opts.HeightTolerance {
			continue
		}
		inside := 0
		for _, bc := range s.BoundsCornersXZ() {
			if geom.PointInPolygonXZ(bc, corners[:]) {
				inside++
			}
		}
		if strict {
			if inside == 4 {
				out = append(out, s)
			}
		} else if inside > 0 {
			out = append(out, s)
		}
	}
	return out
}

// FindRelatedStrokes grows a cluster outward from seed by breadth-first
// traversal of the proximity graph: a stroke joins when it is co-planar
// with an already-accepted stroke and close to it, and accepted strokes are
// expanded in turn. This is a connected-components walk, not a radius
// query, so ink can join through a chain of neighbours even when far from
// the seed itself. The result always contains the seed and never exceeds
// maxCount entries (DefaultOptions().MaxRelated when maxCount <= 0).
func FindRelatedStrokes(seed *stroke.Stroke, all []*stroke.Stroke, maxCount int, opts Options) []*stroke.Stroke {
	if maxCount <= 0 {
		maxCount = opts.MaxRelated
	}

	normal := planeNormal(seed)
	threshold := opts.Proximity
	if likelyText(seed, opts.TextRatio) {
		threshold *= 2
	}

	visited := map[string]bool{seed.ID: true}
	result := []*stroke.Stroke{seed}
	queue := []*stroke.Stroke{seed}

	for len(queue) > 0 && len(result) < maxCount {
		current := queue[0]
		queue = queue[1:]

		for _, candidate := range all {
			if visited[candidate.ID] {
				continue
			}
			if !related(current, candidate, normal, threshold) {
				continue
			}
			visited[candidate.ID] = true
			result = append(result, candidate)
			queue = append(queue, candidate)
			if len(result) >= maxCount {
				break
			}
		}
	}
	return result
}

// planeNormal estimates the surface normal from the seed's first three
// points. Text written flat on a surface gives degenerate or noisy cross
// products, so a normal that barely projects onto world up is replaced by
// world up itself.
func planeNormal(seed *stroke.Stroke) geom.Point {
	pts := seed.Points
	if len(pts) < 3 {
		return geom.Up
	}
	n := pts[1].Sub(pts[0]).Cross(pts[2].Sub(pts[0])).Normalize()
	if math.Abs(n.Dot(geom.Up)) < 0.3 {
		return geom.Up
	}
	return n
}

// likelyText classifies a stroke as handwriting when its path is much
// longer than the straight line between its endpoints. A closed loop has a
// near-zero endpoint distance and counts as text too, which is harmless:
// the looser threshold only merges clusters, never splits them.
func likelyText(s *stroke.Stroke, ratio float64) bool {
	gap := s.EndpointDistance()
	if gap < geom.Epsilon {
		return true
	}
	return s.PathLength()/gap > ratio
}

// related reports whether b belongs next to a: co-planar (centroid offset
// along the plane normal under twice the threshold) and close, either by
// centroid distance or by any pair of points between the two strokes.
func related(a, b *stroke.Stroke, normal geom.Point, threshold float64) bool {
	offset := math.Abs(b.Centroid().Sub(a.Centroid()).Dot(normal))
	if offset >= 2*threshold {
		return false
	}
	if a.Centroid().DistanceTo(b.Centroid()) < threshold {
		return true
	}
	return anyPointsWithin(a, b, threshold)
}

// anyPointsWithin scans point pairs with an early exit on the first hit.
func anyPointsWithin(a, b *stroke.Stroke, threshold float64) bool {
	t2 := threshold * threshold
	for _, pa := range a.Points {
		for _, pb := range b.Points {
			d := pa.Sub(pb)
			if d.Dot(d) < t2 {
				return true
			}
		}
	}
	return false
}
