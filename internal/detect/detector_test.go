package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkfinity/inkfinity/backend-go/internal/geom"
)

// polylinePath samples perEdge points along each segment of the polyline and
// appends the final vertex, mimicking a stylus traced along the vertices.
func polylinePath(vertices []geom.Point, perEdge int) []geom.Point {
	var pts []geom.Point
	for i := 0; i < len(vertices)-1; i++ {
		a, b := vertices[i], vertices[i+1]
		for s := 0; s < perEdge; s++ {
			t := float64(s) / float64(perEdge)
			pts = append(pts, geom.Point{
				X: a.X + (b.X-a.X)*t,
				Y: a.Y + (b.Y-a.Y)*t,
				Z: a.Z + (b.Z-a.Z)*t,
			})
		}
	}
	return append(pts, vertices[len(vertices)-1])
}

func closedSquare(perEdge int) []geom.Point {
	return polylinePath([]geom.Point{
		{X: 0, Z: 0}, {X: 1, Z: 0}, {X: 1, Z: 1}, {X: 0, Z: 1}, {X: 0, Z: 0},
	}, perEdge)
}

func TestDetectClosedSquare(t *testing.T) {
	res := Detect(closedSquare(12), DefaultOptions())
	require.NotNil(t, res)

	assert.InDelta(t, 1.0, res.BaseConfidence, 1e-9, "hull fills the fitted rectangle")
	assert.Equal(t, 1.0, res.AngleFactor, "three right-angle corners is a full score")
	assert.Equal(t, 1.0, res.ClosureFactor, "first and last sample coincide")
	assert.InDelta(t, 1.0, res.FinalConfidence, 1e-9)

	assert.InDelta(t, 1.0, geom.PolygonArea(res.Corners[:]), 1e-9)
	for _, c := range res.Corners {
		assert.InDelta(t, 0, c.Y, 1e-12, "corners sit on the detection plane")
	}
}

func TestDetectMidpointSampledSquare(t *testing.T) {
	// The sparsest square a careful user produces: the four corners plus one
	// midpoint per edge, closed. The corner window shrinks to 2 here and
	// adjacent corners sit exactly one window apart, so all three required
	// corners must still survive suppression.
	pts := closedSquare(2)
	require.Len(t, pts, 9)

	res := Detect(pts, DefaultOptions())
	require.NotNil(t, res)
	assert.Equal(t, 1.0, res.AngleFactor)
	assert.Greater(t, res.FinalConfidence, 0.9)
	assert.InDelta(t, 1.0, geom.PolygonArea(res.Corners[:]), 1e-9)
}

func TestDetectRejectsDegenerateInput(t *testing.T) {
	opts := DefaultOptions()

	t.Run("too few points", func(t *testing.T) {
		pts := []geom.Point{{X: 0, Z: 0}, {X: 1, Z: 1}}
		assert.Nil(t, Detect(pts, opts))
	})

	t.Run("collinear stroke", func(t *testing.T) {
		pts := polylinePath([]geom.Point{{X: 0, Z: 0}, {X: 2, Z: 0}}, 4)
		assert.Nil(t, Detect(pts, opts))
	})

	t.Run("repeated point", func(t *testing.T) {
		p := geom.Point{X: 0.5, Y: 1, Z: 0.5}
		assert.Nil(t, Detect([]geom.Point{p, p, p, p}, opts))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Nil(t, Detect(nil, opts))
	})
}

func TestDetectIsDeterministic(t *testing.T) {
	pts := closedSquare(12)
	first := Detect(pts, DefaultOptions())
	second := Detect(pts, DefaultOptions())
	require.NotNil(t, first)
	assert.Equal(t, first, second)
}

func TestDetectOpenStrokeClosurePenalty(t *testing.T) {
	// Three sides of the unit square: the gap between the endpoints equals a
	// quarter of the rectangle perimeter, the closure cutoff.
	open := polylinePath([]geom.Point{
		{X: 0, Z: 0}, {X: 1, Z: 0}, {X: 1, Z: 1}, {X: 0, Z: 1},
	}, 8)

	res := Detect(open, DefaultOptions())
	require.NotNil(t, res)
	assert.InDelta(t, 0, res.ClosureFactor, 1e-9)
	assert.InDelta(t, 2.0/3.0, res.AngleFactor, 1e-9, "two of the three required corners")

	// With closure blended out the same stroke scores strictly higher.
	noClosure := DefaultOptions()
	noClosure.ClosureInfluence = 0
	relaxed := Detect(open, noClosure)
	require.NotNil(t, relaxed)
	assert.Greater(t, relaxed.FinalConfidence, res.FinalConfidence)
	assert.InDelta(t, relaxed.BaseConfidence*relaxed.AngleFactor, relaxed.FinalConfidence, 1e-12)
}

func TestDetectAverageHeightPlane(t *testing.T) {
	// Samples alternate slightly above and below y=0.3; corners land on the
	// average height.
	pts := closedSquare(8)
	for i := range pts {
		if i%2 == 0 {
			pts[i].Y = 0.3 + 0.01
		} else {
			pts[i].Y = 0.3 - 0.01
		}
	}
	// Odd point count: force the average back to an exact value.
	pts[len(pts)-1].Y = 0.3

	res := Detect(pts, DefaultOptions())
	require.NotNil(t, res)
	avg := geom.Centroid(pts).Y
	for _, c := range res.Corners {
		assert.InDelta(t, avg, c.Y, 1e-12)
	}
}

func TestOrderCornersWithCamera(t *testing.T) {
	// Looking straight down at the floor square, world +Z up the viewport.
	cam := &Camera{
		Position: geom.Point{X: 0.5, Y: 2, Z: 0.5},
		Forward:  geom.Point{Y: -1},
		Up:       geom.Point{Z: 1},
		Right:    geom.Point{X: 1},
	}

	opts := DefaultOptions()
	opts.Camera = cam
	res := Detect(closedSquare(12), opts)
	require.NotNil(t, res)

	want := [4]geom.Point{
		{X: 0, Z: 1}, // top-left
		{X: 1, Z: 1}, // top-right
		{X: 1, Z: 0}, // bottom-right
		{X: 0, Z: 0}, // bottom-left
	}
	for i := range want {
		assert.InDelta(t, want[i].X, res.Corners[i].X, 1e-9, "corner %d", i)
		assert.InDelta(t, want[i].Z, res.Corners[i].Z, 1e-9, "corner %d", i)
	}
}

func TestDefaultOrder(t *testing.T) {
	corners := [4]geom.Point{
		{X: 1, Z: 1}, {X: 0, Z: 0}, {X: 1, Z: 0}, {X: 0, Z: 1},
	}
	got := defaultOrder(corners)
	want := [4]geom.Point{
		{X: 0, Z: 0}, {X: 0, Z: 1}, {X: 1, Z: 1}, {X: 1, Z: 0},
	}
	assert.Equal(t, want, got)

	// Shuffled input orders identically.
	again := defaultOrder([4]geom.Point{corners[2], corners[0], corners[3], corners[1]})
	assert.Equal(t, want, again)
}

func TestAngleFactorTolerance(t *testing.T) {
	opts := DefaultOptions()

	t.Run("rounded corners fail the tolerance", func(t *testing.T) {
		// A wide zigzag has only shallow turns, nowhere near 90 degrees.
		flat := polylinePath([]geom.Point{
			{X: 0, Z: 0}, {X: 1, Z: 0.1}, {X: 2, Z: 0}, {X: 3, Z: 0.1},
		}, 8)
		assert.Zero(t, angleFactor(flat, opts))
	})

	t.Run("short strokes shrink the window", func(t *testing.T) {
		// 9 points: the nominal window of 10 would leave no samples at all.
		flat := polylinePath([]geom.Point{
			{X: 0, Z: 0}, {X: 1, Z: 0}, {X: 1, Z: 1}, {X: 0, Z: 1},
		}, 3)[:9]
		assert.Greater(t, angleFactor(flat, opts), 0.0)
	})
}
