package ink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkfinity/inkfinity/backend-go/internal/board"
	"github.com/inkfinity/inkfinity/backend-go/internal/capture"
	"github.com/inkfinity/inkfinity/backend-go/internal/cluster"
	"github.com/inkfinity/inkfinity/backend-go/internal/detect"
	"github.com/inkfinity/inkfinity/backend-go/internal/geom"
	"github.com/inkfinity/inkfinity/backend-go/internal/note"
	"github.com/inkfinity/inkfinity/backend-go/internal/stroke"
	"github.com/inkfinity/inkfinity/backend-go/internal/typeid"
)

func testPipeline(t *testing.T) *Pipeline {
	t.Helper()
	return &Pipeline{
		Detect:     detect.DefaultOptions(),
		Cluster:    cluster.DefaultOptions(),
		Threshold:  0.75,
		Notes:      note.NewService(),
		Rasterizer: capture.NewRasterizer(t.TempDir(), 32),
	}
}

func mkStroke(t *testing.T, id, author string, pts []geom.Point) *stroke.Stroke {
	t.Helper()
	widths := make([]float64, len(pts))
	for i := range widths {
		widths[i] = 0.01
	}
	s, err := stroke.New(id, author, pts, widths)
	require.NoError(t, err)
	return s
}

// squareGesture traces the unit square on the floor, closed, with enough
// samples for the corner detector.
func squareGesture(t *testing.T, id, author string) *stroke.Stroke {
	t.Helper()
	vertices := []geom.Point{
		{X: 0, Z: 0}, {X: 1, Z: 0}, {X: 1, Z: 1}, {X: 0, Z: 1}, {X: 0, Z: 0},
	}
	const perEdge = 12
	var pts []geom.Point
	for i := 0; i < len(vertices)-1; i++ {
		a, b := vertices[i], vertices[i+1]
		for s := 0; s < perEdge; s++ {
			f := float64(s) / perEdge
			pts = append(pts, geom.Point{X: a.X + (b.X-a.X)*f, Z: a.Z + (b.Z-a.Z)*f})
		}
	}
	pts = append(pts, vertices[len(vertices)-1])
	return mkStroke(t, id, author, pts)
}

func TestAddStrokePlainInk(t *testing.T) {
	room := NewRoom("board_test", board.NewEmptyDocument())
	p := testPipeline(t)

	line := mkStroke(t, "stroke_line", "user_a",
		[]geom.Point{{X: 0.2, Z: 0.5}, {X: 0.8, Z: 0.5}})
	created, removed := room.addStroke(line, nil, p)

	assert.Nil(t, created)
	assert.Nil(t, removed)
	assert.Equal(t, 1, room.strokes.Len())
	assert.True(t, room.dirty)
}

func TestAddStrokeRectangleCreatesNote(t *testing.T) {
	room := NewRoom("board_test", board.NewEmptyDocument())
	p := testPipeline(t)

	inner := mkStroke(t, "stroke_inner", "user_a",
		[]geom.Point{{X: 0.3, Z: 0.5}, {X: 0.7, Z: 0.5}})
	outside := mkStroke(t, "stroke_outside", "user_a",
		[]geom.Point{{X: 5, Z: 5}, {X: 5.5, Z: 5}})
	room.addStroke(inner, nil, p)
	room.addStroke(outside, nil, p)

	gesture := squareGesture(t, "stroke_gesture", "user_b")
	created, removed := room.addStroke(gesture, nil, p)

	require.NotNil(t, created)
	assert.Equal(t, "board_test", created.BoardID)
	assert.Equal(t, "user_b", created.AuthorID, "the gesture author owns the note")
	assert.GreaterOrEqual(t, created.Confidence, 0.75)
	assert.Equal(t, []string{"stroke_inner"}, created.AbsorbedStrokeIDs)
	assert.NotEmpty(t, created.TextureID, "contained ink is rasterized")
	assert.NoError(t, typeid.Validate(created.TextureID, typeid.PrefixTexture))

	// Gesture and contained ink leave the pool; unrelated ink stays.
	require.Len(t, removed, 2)
	assert.Equal(t, "stroke_gesture", removed[0].ID)
	assert.Equal(t, "stroke_inner", removed[1].ID)
	assert.Equal(t, 1, room.strokes.Len())
	_, stillThere := room.strokes.Get("stroke_outside")
	assert.True(t, stillThere)

	require.Len(t, room.notes, 1)
	assert.Same(t, created, room.notes[0])
}

func TestAddStrokeEmptyRectangle(t *testing.T) {
	room := NewRoom("board_test", board.NewEmptyDocument())
	p := testPipeline(t)

	gesture := squareGesture(t, "stroke_gesture", "user_a")
	created, removed := room.addStroke(gesture, nil, p)

	require.NotNil(t, created, "an empty rectangle still becomes a note")
	assert.Empty(t, created.AbsorbedStrokeIDs)
	assert.Empty(t, created.TextureID, "nothing to rasterize")
	require.Len(t, removed, 1)
	assert.Equal(t, 0, room.strokes.Len())
}

func TestAddStrokeBelowThreshold(t *testing.T) {
	room := NewRoom("board_test", board.NewEmptyDocument())
	p := testPipeline(t)
	p.Threshold = 1.01 // nothing can pass

	gesture := squareGesture(t, "stroke_gesture", "user_a")
	created, removed := room.addStroke(gesture, nil, p)

	assert.Nil(t, created)
	assert.Nil(t, removed)
	assert.Equal(t, 1, room.strokes.Len(), "the gesture stays as plain ink")
}

func TestUndoStroke(t *testing.T) {
	room := NewRoom("board_test", board.NewEmptyDocument())
	p := testPipeline(t)

	first := mkStroke(t, "stroke_1", "user_a", []geom.Point{{X: 0}, {X: 1}})
	second := mkStroke(t, "stroke_2", "user_a", []geom.Point{{X: 2}, {X: 3}})
	other := mkStroke(t, "stroke_3", "user_b", []geom.Point{{X: 4}, {X: 5}})
	room.addStroke(first, nil, p)
	room.addStroke(second, nil, p)
	room.addStroke(other, nil, p)

	undone := room.undoStroke("user_a")
	require.NotNil(t, undone)
	assert.Equal(t, "stroke_2", undone.ID)
	assert.Equal(t, 2, room.strokes.Len())

	assert.Nil(t, room.undoStroke("user_missing"))
}

func TestCaptureCluster(t *testing.T) {
	room := NewRoom("board_test", board.NewEmptyDocument())
	p := testPipeline(t)

	a := mkStroke(t, "stroke_a", "user_a", []geom.Point{{X: 0, Z: 0}, {X: 0.1, Z: 0}})
	b := mkStroke(t, "stroke_b", "user_a", []geom.Point{{X: 0.2, Z: 0}, {X: 0.3, Z: 0}})
	far := mkStroke(t, "stroke_far", "user_a", []geom.Point{{X: 9, Z: 0}, {X: 9.1, Z: 0}})
	room.addStroke(a, nil, p)
	room.addStroke(b, nil, p)
	room.addStroke(far, nil, p)

	texID, related, err := room.captureCluster("stroke_a", p)
	require.NoError(t, err)
	assert.NoError(t, typeid.Validate(texID, typeid.PrefixTexture))

	ids := make([]string, len(related))
	for i, s := range related {
		ids[i] = s.ID
	}
	assert.Equal(t, []string{"stroke_a", "stroke_b"}, ids)

	// Capture does not consume the ink.
	assert.Equal(t, 3, room.strokes.Len())

	_, _, err = room.captureCluster("stroke_missing", p)
	assert.ErrorIs(t, err, ErrUnknownStroke)
}

func TestRoomSnapshotRoundTrip(t *testing.T) {
	inner := mkStroke(t, "stroke_1", "user_a", []geom.Point{{X: 0}, {X: 1}})
	doc := &board.Document{
		Strokes: []*stroke.Stroke{inner},
		Notes:   []*note.Note{{ID: "note_existing", BoardID: "board_test"}},
	}

	room := NewRoom("board_test", doc)
	snap := room.snapshot()
	require.Len(t, snap.Strokes, 1)
	require.Len(t, snap.Notes, 1)
	assert.Equal(t, "stroke_1", snap.Strokes[0].ID)
	assert.Equal(t, "note_existing", snap.Notes[0].ID)

	// The snapshot is detached from the room's state.
	snap.Notes[0] = nil
	again := room.snapshot()
	assert.NotNil(t, again.Notes[0])
}
