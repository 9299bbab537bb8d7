package board

import (
	"github.com/inkfinity/inkfinity/backend-go/internal/note"
	"github.com/inkfinity/inkfinity/backend-go/internal/stroke"
)

// Document is the full persisted state of one board: the live ink plus the
// sticky notes already carved out of it. Snapshots store it as JSON.
type Document struct {
	Strokes []*stroke.Stroke `json:"strokes"`
	Notes   []*note.Note     `json:"notes"`
}

func NewEmptyDocument() *Document {
	return &Document{
		Strokes: []*stroke.Stroke{},
		Notes:   []*note.Note{},
	}
}

// Normalize repairs a freshly unmarshalled document: strokes with mismatched
// or empty point/width data are dropped, and cached geometry is rebuilt.
func (d *Document) Normalize() {
	kept := d.Strokes[:0]
	for _, s := range d.Strokes {
		if len(s.Points) == 0 || len(s.Points) != len(s.Widths) {
			continue
		}
		s.Recompute()
		kept = append(kept, s)
	}
	d.Strokes = kept
	if d.Notes == nil {
		d.Notes = []*note.Note{}
	}
}
