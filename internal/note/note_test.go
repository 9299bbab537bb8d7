package note

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkfinity/inkfinity/backend-go/internal/detect"
	"github.com/inkfinity/inkfinity/backend-go/internal/geom"
	"github.com/inkfinity/inkfinity/backend-go/internal/stroke"
	"github.com/inkfinity/inkfinity/backend-go/internal/typeid"
)

func TestCreateFromDetection(t *testing.T) {
	res := &detect.Result{
		Corners: [4]geom.Point{
			{X: 0, Z: 1}, {X: 1, Z: 1}, {X: 1, Z: 0}, {X: 0, Z: 0},
		},
		FinalConfidence: 0.87,
	}
	inner, err := stroke.New("stroke_inner", "user_1",
		[]geom.Point{{X: 0.5, Z: 0.5}}, []float64{0.01})
	require.NoError(t, err)

	svc := NewService()
	n := svc.CreateFromDetection("board_1", "user_1", res, []*stroke.Stroke{inner}, 0)

	assert.NoError(t, typeid.Validate(n.ID, typeid.PrefixNote))
	assert.Equal(t, "board_1", n.BoardID)
	assert.Equal(t, "user_1", n.AuthorID)
	assert.Equal(t, res.Corners, n.Corners)
	assert.Equal(t, 0.87, n.Confidence)
	assert.Equal(t, []string{"stroke_inner"}, n.AbsorbedStrokeIDs)

	created, err := time.Parse(time.RFC3339, n.CreatedAt)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC(), created, 5*time.Second)
}

func TestCreateFromDetectionNoContained(t *testing.T) {
	svc := NewService()
	n := svc.CreateFromDetection("board_1", "user_1", &detect.Result{}, nil, 0)
	assert.Empty(t, n.AbsorbedStrokeIDs)
}

func TestPaletteColor(t *testing.T) {
	first := paletteColor(0)
	second := paletteColor(1)

	assert.Regexp(t, "^#[0-9a-f]{6}$", first)
	assert.NotEqual(t, first, second, "consecutive notes get contrasting colors")
	assert.Equal(t, first, paletteColor(0), "palette is deterministic per sequence number")

	// Hue wraps: a full cycle of the golden angle stays a valid color.
	assert.Regexp(t, "^#[0-9a-f]{6}$", paletteColor(100))
}
