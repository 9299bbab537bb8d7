// Package detect decides whether a freehand stroke encloses a rectangular
// region. The pipeline projects the stroke onto the plane at its average
// height, takes the convex hull, fits the minimum-area rectangle with
// rotating calipers, and scores the fit from three signals: how much of the
// rectangle the hull fills, how many near-right-angle corners the path has,
// and how nearly the path returns to its start.
package detect

import (
	"math"
	"sort"

	"github.com/inkfinity/inkfinity/backend-go/internal/geom"
)

// minSegment is the shortest segment usable as a direction reference.
// Duplicate consecutive samples from a resting stylus fall below it.
const minSegment = 1e-6

// Options are the detector tunables. The closure constants were calibrated
// against real stylus input; see DefaultOptions for the values.
type Options struct {
	// MinPoints is the minimum stroke length considered at all.
	MinPoints int

	// AngleWindow is how many samples before/after a point the corner test
	// looks when building direction vectors. Shrunk adaptively to roughly a
	// quarter of the point count for short strokes.
	AngleWindow int

	// AngleTolerance is the allowed deviation from 90 degrees, in degrees.
	AngleTolerance float64

	// RequiredAngles is how many accepted corners earn a full angle score.
	// Three suffices for a quadrilateral: the fourth corner is implied by
	// the loop closing.
	RequiredAngles int

	// ClosureInfluence blends the closure term into the final score:
	// 0 ignores closure entirely, 1 applies it fully.
	ClosureInfluence float64

	// ClosureWeight is the exponent applied to the raw closure factor.
	// Values below 1 soften the penalty for partial gaps.
	ClosureWeight float64

	// Camera, when set, orients the corner ordering to the viewer.
	Camera *Camera
}

// DefaultOptions returns the tuned defaults.
func DefaultOptions() Options {
	return Options{
		MinPoints:        3,
		AngleWindow:      10,
		AngleTolerance:   15,
		RequiredAngles:   3,
		ClosureInfluence: 0.6,
		ClosureWeight:    0.5,
	}
}

// Result is one detection pass. Corners form a closed quadrilateral ordered
// clockwise from the viewer's top-left; FinalConfidence is always in [0,1].
type Result struct {
	Corners [4]geom.Point `json:"corners"`

	BaseConfidence        float64 `json:"baseConfidence"`
	AngleFactor           float64 `json:"angleFactor"`
	ClosureFactor         float64 `json:"closureFactor"`
	AdjustedClosureFactor float64 `json:"adjustedClosureFactor"`
	FinalConfidence       float64 `json:"finalConfidence"`
}

// Detect runs the rectangle pipeline over one stroke's points. It returns
// nil when the input cannot form a rectangle: fewer than MinPoints points,
// or a hull that collapses to a line or point. It never panics and never
// produces NaN or Inf in the result.
//
// Detect is a pure function of its inputs; it holds no state between calls
// and is safe to call concurrently as long as the point slice is not
// mutated underneath it.
func Detect(points []geom.Point, opts Options) *Result {
	minPoints := opts.MinPoints
	if minPoints < 3 {
		minPoints = 3
	}
	if len(points) < minPoints {
		return nil
	}

	// The detection plane is the points' average height; everything below
	// reasons on that flattened copy.
	var sumY float64
	for _, p := range points {
		sumY += p.Y
	}
	avgY := sumY / float64(len(points))

	flat := make([]geom.Point, len(points))
	for i, p := range points {
		flat[i] = p.WithY(avgY)
	}

	hull := geom.ConvexHull(flat)
	if len(hull) < 3 {
		return nil
	}

	corners, rectArea, ok := minimumAreaRectangle(hull, flat, avgY)
	if !ok || rectArea < geom.Epsilon {
		return nil
	}

	hullArea := geom.PolygonArea(hull)
	base := hullArea / rectArea
	// Exact arithmetic keeps this at or below 1; floating point does not.
	if base > 1 {
		base = 1
	}

	perimeter := 2 * (corners[0].DistanceTo(corners[1]) + corners[1].DistanceTo(corners[2]))
	closure := closureFactor(points, perimeter)
	angle := angleFactor(flat, opts)

	w := clamp01(opts.ClosureInfluence)
	adjusted := math.Pow(closure, opts.ClosureWeight)
	mixed := (1 - w) + w*adjusted

	res := &Result{
		BaseConfidence:        base,
		AngleFactor:           angle,
		ClosureFactor:         closure,
		AdjustedClosureFactor: adjusted,
		FinalConfidence:       clamp01(base * angle * mixed),
	}
	res.Corners = orderCorners(corners, opts.Camera)
	return res
}

// minimumAreaRectangle fits the smallest enclosing rectangle by treating
// each hull edge as a candidate orientation: rotate the points so the edge
// is axis-aligned, take the bounding box, keep the smallest, rotate the
// winner back. O(hull × points), which is fine for stroke-sized input.
func minimumAreaRectangle(hull, flat []geom.Point, avgY float64) ([4]geom.Point, float64, bool) {
	bestArea := math.Inf(1)
	var bestAngle float64
	var bestMin, bestMax geom.Point
	found := false

	for i := range hull {
		a := hull[i]
		b := hull[(i+1)%len(hull)]
		edge := b.Sub(a)
		if edge.Length() < minSegment {
			continue
		}
		angle := math.Atan2(edge.Z, edge.X)

		min := geom.Point{X: math.Inf(1), Z: math.Inf(1)}
		max := geom.Point{X: math.Inf(-1), Z: math.Inf(-1)}
		for _, p := range flat {
			r := geom.RotateXZ(p, -angle)
			if r.X < min.X {
				min.X = r.X
			}
			if r.Z < min.Z {
				min.Z = r.Z
			}
			if r.X > max.X {
				max.X = r.X
			}
			if r.Z > max.Z {
				max.Z = r.Z
			}
		}

		area := (max.X - min.X) * (max.Z - min.Z)
		if area < bestArea {
			bestArea = area
			bestAngle = angle
			bestMin, bestMax = min, max
			found = true
		}
	}
	if !found {
		return [4]geom.Point{}, 0, false
	}

	// Winning box corners back in world orientation, on the detection plane.
	rotated := [4]geom.Point{
		{X: bestMin.X, Z: bestMin.Z},
		{X: bestMax.X, Z: bestMin.Z},
		{X: bestMax.X, Z: bestMax.Z},
		{X: bestMin.X, Z: bestMax.Z},
	}
	var corners [4]geom.Point
	for i, c := range rotated {
		corners[i] = geom.RotateXZ(c, bestAngle).WithY(avgY)
	}
	return corners, bestArea, true
}

// closureFactor rewards strokes whose path nearly returns to its start.
// The gap between the endpoints is compared against a quarter of the
// rectangle perimeter: factor 1 at zero gap, 0 at or beyond the threshold.
func closureFactor(points []geom.Point, perimeter float64) float64 {
	threshold := perimeter / 4
	if threshold < geom.Epsilon {
		return 0
	}
	gap := points[0].DistanceTo(points[len(points)-1])
	return clamp01(1 - gap/threshold)
}

type cornerCandidate struct {
	index     int
	deviation float64 // degrees away from 90
}

// angleFactor slides a window along the flattened path, comparing the
// incoming and outgoing direction at each sample, and counts how many
// near-90-degree turns survive non-maximum suppression.
func angleFactor(flat []geom.Point, opts Options) float64 {
	required := opts.RequiredAngles
	if required < 1 {
		required = 1
	}

	window := opts.AngleWindow
	if adaptive := len(flat) / 4; adaptive < window {
		window = adaptive
	}
	if window < 1 {
		return 0
	}

	var candidates []cornerCandidate
	for i := window; i+window < len(flat); i++ {
		before := flat[i].Sub(flat[i-window])
		after := flat[i+window].Sub(flat[i])
		lb, la := before.Length(), after.Length()
		if lb < minSegment || la < minSegment {
			continue
		}
		cos := before.Dot(after) / (lb * la)
		if cos > 1 {
			cos = 1
		} else if cos < -1 {
			cos = -1
		}
		angle := math.Acos(cos) * 180 / math.Pi
		dev := math.Abs(angle - 90)
		if dev <= opts.AngleTolerance {
			candidates = append(candidates, cornerCandidate{index: i, deviation: dev})
		}
	}

	// Greedy non-maximum suppression: best corners first, and no two
	// accepted corners closer than one window apart. Sparse strokes put
	// adjacent corners exactly one window from each other, so the exclusion
	// is strict; ties on deviation break by path order to keep the result
	// deterministic.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].deviation != candidates[j].deviation {
			return candidates[i].deviation < candidates[j].deviation
		}
		return candidates[i].index < candidates[j].index
	})
	var accepted []int
	for _, c := range candidates {
		ok := true
		for _, a := range accepted {
			if abs(c.index-a) < window {
				ok = false
				break
			}
		}
		if ok {
			accepted = append(accepted, c.index)
		}
	}

	count := len(accepted)
	if count > required {
		count = required
	}
	return float64(count) / float64(required)
}

func clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
