package ink

import (
	"log/slog"
	"sync"

	"github.com/inkfinity/inkfinity/backend-go/internal/board"
	"github.com/inkfinity/inkfinity/backend-go/internal/capture"
	"github.com/inkfinity/inkfinity/backend-go/internal/cluster"
	"github.com/inkfinity/inkfinity/backend-go/internal/detect"
	"github.com/inkfinity/inkfinity/backend-go/internal/note"
	"github.com/inkfinity/inkfinity/backend-go/internal/stroke"
)

// Pipeline bundles the geometry core and its policy knobs. The acceptance
// threshold lives here, not in the detector: the detector reports a score,
// the room decides what to do with it.
type Pipeline struct {
	Detect     detect.Options
	Cluster    cluster.Options
	Threshold  float64
	Notes      *note.Service
	Rasterizer *capture.Rasterizer
}

// Room is one board's live session: connected clients, the stroke pool,
// and the notes carved out of it so far.
type Room struct {
	boardID  string
	clients  map[string]*Client // clientID -> client
	presence *PresenceManager

	mu      sync.Mutex
	strokes *stroke.Store
	notes   []*note.Note
	dirty   bool
}

func NewRoom(boardID string, doc *board.Document) *Room {
	r := &Room{
		boardID:  boardID,
		clients:  make(map[string]*Client),
		presence: NewPresenceManager(),
		strokes:  stroke.NewStore(),
	}
	if doc != nil {
		for _, s := range doc.Strokes {
			r.strokes.Add(s)
		}
		r.notes = append(r.notes, doc.Notes...)
	}
	return r
}

// snapshot builds the persistable document for this room.
func (r *Room) snapshot() *board.Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &board.Document{
		Strokes: r.strokes.List(),
		Notes:   append([]*note.Note(nil), r.notes...),
	}
}

// addStroke stores a completed stroke and runs rectangle detection on it.
// When the stroke encloses a confident rectangle, the contained ink is
// clustered, a note is created, and the gesture plus its contained strokes
// leave the pool. Returns the new note and every removed stroke, or
// (nil, nil) when the stroke is just ink.
func (r *Room) addStroke(st *stroke.Stroke, cam *detect.Camera, p *Pipeline) (*note.Note, []*stroke.Stroke) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.strokes.Add(st)
	r.dirty = true

	opts := p.Detect
	opts.Camera = cam
	res := detect.Detect(st.Points, opts)
	if res == nil || res.FinalConfidence < p.Threshold {
		return nil, nil
	}

	// The gesture itself becomes the note face; only the rest of the pool
	// is a containment candidate.
	pool := make([]*stroke.Stroke, 0, r.strokes.Len()-1)
	for _, s := range r.strokes.List() {
		if s.ID != st.ID {
			pool = append(pool, s)
		}
	}
	contained := cluster.FindStrokesInArea(res.Corners, pool, false, p.Cluster)

	n := p.Notes.CreateFromDetection(r.boardID, st.AuthorID, res, contained, len(r.notes))
	if len(contained) > 0 && p.Rasterizer != nil {
		texID, err := p.Rasterizer.Capture(contained)
		if err != nil {
			// The note still works without a texture.
			slog.Warn("capture note texture", "error", err, "board", r.boardID)
		} else {
			n.TextureID = texID
		}
	}

	removed := make([]*stroke.Stroke, 0, len(contained)+1)
	removed = append(removed, st)
	r.strokes.Remove(st.ID)
	for _, s := range contained {
		r.strokes.Remove(s.ID)
		removed = append(removed, s)
	}

	r.notes = append(r.notes, n)
	return n, removed
}

// undoStroke removes the author's most recent stroke, if any.
func (r *Room) undoStroke(authorID string) *stroke.Stroke {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.strokes.RemoveLastBy(authorID)
	if s != nil {
		r.dirty = true
	}
	return s
}

// captureCluster grows the connected patch of ink around the seed stroke
// and rasterizes it to a texture.
func (r *Room) captureCluster(seedID string, p *Pipeline) (string, []*stroke.Stroke, error) {
	r.mu.Lock()
	seed, ok := r.strokes.Get(seedID)
	if !ok {
		r.mu.Unlock()
		return "", nil, ErrUnknownStroke
	}
	related := cluster.FindRelatedStrokes(seed, r.strokes.List(), 0, p.Cluster)
	r.mu.Unlock()

	texID, err := p.Rasterizer.Capture(related)
	if err != nil {
		return "", nil, err
	}
	return texID, related, nil
}
