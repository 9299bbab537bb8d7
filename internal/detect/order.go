package detect

import (
	"math"
	"sort"

	"github.com/inkfinity/inkfinity/backend-go/internal/geom"
)

// Camera is a snapshot of the viewer's pose, read once per detection and
// used only for corner ordering. Forward, Up and Right are unit vectors in
// the world frame.
type Camera struct {
	Position geom.Point `json:"position"`
	Forward  geom.Point `json:"forward"`
	Up       geom.Point `json:"up"`
	Right    geom.Point `json:"right"`
}

// viewport projects a world point into camera-relative 2D coordinates with
// a perspective divide. Points at or behind the camera plane degrade to an
// orthographic projection instead of blowing up.
func (c *Camera) viewport(p geom.Point) (x, y float64) {
	d := p.Sub(c.Position)
	depth := d.Dot(c.Forward)
	if depth < geom.Epsilon {
		depth = 1
	}
	return d.Dot(c.Right) / depth, d.Dot(c.Up) / depth
}

// orderCorners arranges four rectangle corners clockwise from the viewer's
// top-left. Ordering is view-dependent so overlay widgets end up upright
// for the user; with no camera it falls back to a stable default ordering.
func orderCorners(corners [4]geom.Point, cam *Camera) [4]geom.Point {
	if cam == nil {
		return defaultOrder(corners)
	}

	center := geom.Centroid(corners[:])
	cx, _ := cam.viewport(center)

	type projected struct {
		world geom.Point
		vx    float64
		vy    float64
	}
	proj := make([]projected, 4)
	for i, c := range corners {
		vx, vy := cam.viewport(c)
		proj[i] = projected{world: c, vx: vx, vy: vy}
	}

	var left, right []projected
	for _, p := range proj {
		if p.vx < cx {
			left = append(left, p)
		} else {
			right = append(right, p)
		}
	}
	if len(left) != 2 {
		// Near-edge-on views don't split cleanly; partition by horizontal
		// offset from the projected centroid instead.
		sort.Slice(proj, func(i, j int) bool { return proj[i].vx-cx < proj[j].vx-cx })
		left = []projected{proj[0], proj[1]}
		right = []projected{proj[2], proj[3]}
	}

	// Top of each half first (viewport y grows upward).
	if left[0].vy < left[1].vy {
		left[0], left[1] = left[1], left[0]
	}
	if right[0].vy < right[1].vy {
		right[0], right[1] = right[1], right[0]
	}

	ordered := [4]geom.Point{left[0].world, right[0].world, right[1].world, left[1].world}

	// If the rectangle's vertical edge tracks the camera's right vector more
	// closely than the horizontal edge does, the labels are off by one.
	horizontal := ordered[1].Sub(ordered[0]).Normalize()
	vertical := ordered[3].Sub(ordered[0]).Normalize()
	if math.Abs(vertical.Dot(cam.Right)) > math.Abs(horizontal.Dot(cam.Right)) {
		ordered = [4]geom.Point{ordered[1], ordered[2], ordered[3], ordered[0]}
	}
	return ordered
}

// defaultOrder sorts corners clockwise about their centroid on the XZ plane
// and starts from the corner with the smallest (X, Z). Deterministic, so
// repeated detections of the same stroke agree.
func defaultOrder(corners [4]geom.Point) [4]geom.Point {
	center := geom.Centroid(corners[:])
	out := corners
	sort.Slice(out[:], func(i, j int) bool {
		ai := math.Atan2(out[i].Z-center.Z, out[i].X-center.X)
		aj := math.Atan2(out[j].Z-center.Z, out[j].X-center.X)
		return ai > aj
	})

	start := 0
	for i := 1; i < 4; i++ {
		if out[i].X < out[start].X || (out[i].X == out[start].X && out[i].Z < out[start].Z) {
			start = i
		}
	}
	var rotated [4]geom.Point
	for i := 0; i < 4; i++ {
		rotated[i] = out[(start+i)%4]
	}
	return rotated
}
