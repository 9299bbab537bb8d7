package ink

import (
	"encoding/json"

	"github.com/inkfinity/inkfinity/backend-go/internal/detect"
	"github.com/inkfinity/inkfinity/backend-go/internal/geom"
	"github.com/inkfinity/inkfinity/backend-go/internal/note"
	"github.com/inkfinity/inkfinity/backend-go/internal/stroke"
)

type Message struct {
	Type     string          `json:"type"`
	BoardID  string          `json:"boardId,omitempty"`
	ClientID string          `json:"clientId,omitempty"`
	UserID   string          `json:"userId,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

const (
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
	TypeError          = "error"

	// Connection
	TypeWelcome   = "welcome"
	TypeBoardSync = "board.sync"

	// Ink message types
	TypeStrokeAdd      = "ink.stroke.add"
	TypeStrokeUndo     = "ink.stroke.undo"
	TypeStrokeRemoved  = "ink.stroke.removed"
	TypeStrokeAbsorbed = "ink.stroke.absorbed"
	TypeNoteCreated    = "note.created"
	TypeCapture        = "ink.capture"
	TypeCaptureResult  = "ink.capture.result"
)

// WelcomePayload tells a freshly connected client which identity the server
// assigned to its session. Stroke authorship uses this user ID no matter
// what the client sends afterwards.
type WelcomePayload struct {
	ClientID string `json:"clientId"`
	UserID   string `json:"userId"`
	BoardID  string `json:"boardId"`
}

// StrokeAddPayload carries a completed drawing gesture plus a snapshot of
// the sender's head pose, which the detector uses for corner ordering.
type StrokeAddPayload struct {
	Stroke stroke.Stroke  `json:"stroke"`
	Camera *detect.Camera `json:"camera,omitempty"`
}

// StrokeRemovedPayload announces strokes leaving the board (undo).
type StrokeRemovedPayload struct {
	StrokeIDs []string `json:"strokeIds"`
}

// StrokeAbsorbedPayload announces strokes consumed by a new note: the
// rectangle gesture itself plus the ink found inside it.
type StrokeAbsorbedPayload struct {
	NoteID    string   `json:"noteId"`
	StrokeIDs []string `json:"strokeIds"`
}

type NoteCreatedPayload struct {
	Note *note.Note `json:"note"`
}

// CapturePayload asks the server to rasterize the patch of ink connected to
// the named seed stroke.
type CapturePayload struct {
	SeedStrokeID string `json:"seedStrokeId"`
}

type CaptureResultPayload struct {
	TextureID string   `json:"textureId"`
	StrokeIDs []string `json:"strokeIds"`
}

// BoardSyncPayload is the full board state sent to a client on join.
type BoardSyncPayload struct {
	Strokes []*stroke.Stroke `json:"strokes"`
	Notes   []*note.Note     `json:"notes"`
}

type ErrorPayload struct {
	Reason string `json:"reason"`
}

// StylusPose is where a user's pen tip is right now.
type StylusPose struct {
	Position geom.Point `json:"position"`
	Pressed  bool       `json:"pressed"`
}

type PresencePayload struct {
	Stylus      *StylusPose `json:"stylus,omitempty"`
	DisplayName string      `json:"displayName,omitempty"`
}

type PresenceStatePayload struct {
	Presences map[string]PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	UserID string `json:"userId"`
}
