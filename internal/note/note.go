// Package note turns accepted rectangle detections into sticky notes: the
// rectangle's corners become the note face, and the ink inside is absorbed.
package note

import (
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/inkfinity/inkfinity/backend-go/internal/detect"
	"github.com/inkfinity/inkfinity/backend-go/internal/geom"
	"github.com/inkfinity/inkfinity/backend-go/internal/stroke"
	"github.com/inkfinity/inkfinity/backend-go/internal/typeid"
)

// Note is an AR sticky note anchored to a detected rectangle.
type Note struct {
	ID       string `json:"id"`
	BoardID  string `json:"boardId"`
	AuthorID string `json:"authorId"`

	// Corners are ordered clockwise from the viewer's top-left, exactly as
	// the detector produced them.
	Corners [4]geom.Point `json:"corners"`

	// Confidence is the detector's final score for the rectangle.
	Confidence float64 `json:"confidence"`

	Color     string `json:"color"`
	TextureID string `json:"textureId,omitempty"`

	// AbsorbedStrokeIDs are the strokes that were inside the rectangle when
	// the note was created; they leave the live pool.
	AbsorbedStrokeIDs []string `json:"absorbedStrokeIds"`

	CreatedAt string `json:"createdAt"`
}

// Service builds notes from detection output. It is stateless; the note
// sequence number drives the palette so colors stay deterministic per board.
type Service struct{}

func NewService() *Service { return &Service{} }

// CreateFromDetection builds a note from an accepted detection result and
// the strokes found inside it. seq is the board's running note count.
func (s *Service) CreateFromDetection(boardID, authorID string, res *detect.Result, contained []*stroke.Stroke, seq int) *Note {
	ids := make([]string, len(contained))
	for i, st := range contained {
		ids[i] = st.ID
	}
	return &Note{
		ID:                typeid.NewNoteID(),
		BoardID:           boardID,
		AuthorID:          authorID,
		Corners:           res.Corners,
		Confidence:        res.FinalConfidence,
		Color:             paletteColor(seq),
		AbsorbedStrokeIDs: ids,
		CreatedAt:         time.Now().UTC().Format(time.RFC3339),
	}
}

// paletteColor hands out pastel note colors by stepping the hue with the
// golden angle, so consecutive notes contrast without a fixed palette.
func paletteColor(seq int) string {
	hue := float64(seq) * 137.508
	hue -= 360 * float64(int(hue/360))
	return colorful.Hsv(hue, 0.35, 1.0).Hex()
}
