package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvexHull(t *testing.T) {
	t.Run("square with interior points", func(t *testing.T) {
		points := []Point{
			{X: 0, Z: 0}, {X: 1, Z: 0}, {X: 1, Z: 1}, {X: 0, Z: 1},
			{X: 0.5, Z: 0.5}, {X: 0.2, Z: 0.7}, {X: 0.9, Z: 0.1},
		}
		hull := ConvexHull(points)

		require.Len(t, hull, 4, "only the extreme points survive")
		assert.InDelta(t, 1.0, PolygonArea(hull), 1e-12)

		// Counter-clockwise winding: every consecutive triple turns left.
		for i := range hull {
			a := hull[i]
			b := hull[(i+1)%len(hull)]
			c := hull[(i+2)%len(hull)]
			assert.Greater(t, Cross(a, b, c), 0.0)
		}
	})

	t.Run("hull area matches the convex input", func(t *testing.T) {
		polygon := []Point{
			{X: 0, Z: 0}, {X: 2, Z: 0}, {X: 3, Z: 1}, {X: 2, Z: 2}, {X: 0, Z: 2},
		}
		hull := ConvexHull(polygon)
		require.Len(t, hull, len(polygon))
		assert.InDelta(t, PolygonArea(polygon), PolygonArea(hull), 1e-12)
	})

	t.Run("collinear input collapses", func(t *testing.T) {
		points := []Point{
			{X: 0, Z: 0}, {X: 1, Z: 0}, {X: 2, Z: 0}, {X: 3, Z: 0}, {X: 4, Z: 0},
		}
		hull := ConvexHull(points)
		assert.Less(t, len(hull), 3)
	})

	t.Run("fewer than three points pass through", func(t *testing.T) {
		points := []Point{{X: 1, Z: 2}, {X: 3, Z: 4}}
		assert.Equal(t, points, ConvexHull(points))
		assert.Empty(t, ConvexHull(nil))
	})
}

func TestPolygonArea(t *testing.T) {
	square := []Point{{X: 0, Z: 0}, {X: 1, Z: 0}, {X: 1, Z: 1}, {X: 0, Z: 1}}
	assert.InDelta(t, 1.0, PolygonArea(square), 1e-12)

	triangle := []Point{{X: 0, Z: 0}, {X: 1, Z: 0}, {X: 0, Z: 1}}
	assert.InDelta(t, 0.5, PolygonArea(triangle), 1e-12)

	// Winding direction does not change the unsigned area.
	reversed := []Point{{X: 0, Z: 1}, {X: 1, Z: 1}, {X: 1, Z: 0}, {X: 0, Z: 0}}
	assert.InDelta(t, 1.0, PolygonArea(reversed), 1e-12)

	assert.Zero(t, PolygonArea(square[:2]))
}

func TestRotateXZ(t *testing.T) {
	p := Point{X: 1, Y: 5, Z: 0}
	r := RotateXZ(p, math.Pi/2)
	assert.InDelta(t, 0, r.X, 1e-12)
	assert.InDelta(t, 1, r.Z, 1e-12)
	assert.Equal(t, 5.0, r.Y, "Y is carried through untouched")

	// Rotating back restores the original point.
	back := RotateXZ(r, -math.Pi/2)
	assert.InDelta(t, p.X, back.X, 1e-12)
	assert.InDelta(t, p.Z, back.Z, 1e-12)
}

func TestPointInPolygonXZ(t *testing.T) {
	square := []Point{{X: 0, Z: 0}, {X: 1, Z: 0}, {X: 1, Z: 1}, {X: 0, Z: 1}}

	assert.True(t, PointInPolygonXZ(Point{X: 0.5, Z: 0.5}, square))
	assert.True(t, PointInPolygonXZ(Point{X: 0.01, Z: 0.99}, square))
	assert.False(t, PointInPolygonXZ(Point{X: 1.5, Z: 0.5}, square))
	assert.False(t, PointInPolygonXZ(Point{X: -0.1, Z: -0.1}, square))

	// A line is not a polygon.
	assert.False(t, PointInPolygonXZ(Point{X: 0.5, Z: 0}, square[:2]))
}

func TestNormalize(t *testing.T) {
	v := Point{X: 3, Y: 0, Z: 4}.Normalize()
	assert.InDelta(t, 1.0, v.Length(), 1e-12)

	zero := Point{}.Normalize()
	assert.Equal(t, Point{}, zero, "degenerate vectors stay zero instead of producing NaN")
}

func TestCentroid(t *testing.T) {
	points := []Point{{X: 0, Y: 0, Z: 0}, {X: 2, Y: 4, Z: 6}}
	assert.Equal(t, Point{X: 1, Y: 2, Z: 3}, Centroid(points))
	assert.Equal(t, Point{}, Centroid(nil))
}
