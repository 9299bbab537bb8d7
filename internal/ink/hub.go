package ink

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/inkfinity/inkfinity/backend-go/internal/board"
	"github.com/inkfinity/inkfinity/backend-go/internal/stroke"
	"github.com/inkfinity/inkfinity/backend-go/internal/typeid"
)

var ErrUnknownStroke = errors.New("unknown stroke")

// DocumentLoader fetches a board's persisted state when its first client
// connects.
type DocumentLoader func(boardID string) (*board.Document, error)

// DocumentSaver persists a board's state; called when a room empties and
// when the hub shuts down.
type DocumentSaver func(boardID string, doc *board.Document) error

type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room // boardID -> room
	register   chan *Client
	unregister chan *Client
	stop       chan struct{}
	done       chan struct{}
	stopOnce   sync.Once

	loadDoc  DocumentLoader
	saveDoc  DocumentSaver
	pipeline Pipeline
}

func NewHub(loader DocumentLoader, saver DocumentSaver, pipeline Pipeline) *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		loadDoc:    loader,
		saveDoc:    saver,
		pipeline:   pipeline,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.stop:
			h.saveAll()
			close(h.done)
			return
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Stop saves every dirty room and shuts the hub down. Blocks until the
// save pass has finished.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
	<-h.done
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.BoardID]
	if !ok {
		doc, err := h.loadDoc(client.BoardID)
		if err != nil {
			slog.Warn("load board document, starting empty", "error", err, "board", client.BoardID)
			doc = board.NewEmptyDocument()
		} else {
			doc.Normalize()
		}
		room = NewRoom(client.BoardID, doc)
		h.rooms[client.BoardID] = room
	}
	room.clients[client.ClientID] = client
	h.mu.Unlock()

	// Assigned identity first, then full board state, then who else is here.
	welcomePayload, _ := json.Marshal(WelcomePayload{
		ClientID: client.ClientID,
		UserID:   client.UserID,
		BoardID:  client.BoardID,
	})
	client.Send(&Message{Type: TypeWelcome, Payload: welcomePayload})

	if sync := room.syncMessage(); sync != nil {
		client.Send(sync)
	}
	if stateMsg := room.presence.StateMessage(); stateMsg != nil {
		client.Send(stateMsg)
	}

	joinPayload, _ := json.Marshal(PresenceJoinPayload{
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
	})
	h.broadcastToRoom(client.BoardID, &Message{
		Type:    TypePresenceJoin,
		UserID:  client.UserID,
		Payload: joinPayload,
	}, client.ClientID)

	slog.Info("client joined", "user", client.UserID, "board", client.BoardID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.BoardID]
	if !ok {
		h.mu.Unlock()
		return
	}

	delete(room.clients, client.ClientID)
	close(client.send)
	room.presence.Remove(client.UserID)

	var emptied *Room
	if len(room.clients) == 0 {
		emptied = room
		delete(h.rooms, client.BoardID)
	}
	h.mu.Unlock()

	if emptied != nil {
		h.saveRoom(emptied)
	}

	leavePayload, _ := json.Marshal(PresenceLeavePayload{UserID: client.UserID})
	h.broadcastToRoom(client.BoardID, &Message{
		Type:    TypePresenceLeave,
		UserID:  client.UserID,
		Payload: leavePayload,
	}, "")

	slog.Info("client left", "user", client.UserID, "board", client.BoardID)
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypePresenceUpdate:
		h.handlePresenceUpdate(sender, msg)
	case TypeStrokeAdd:
		h.handleStrokeAdd(sender, msg)
	case TypeStrokeUndo:
		h.handleStrokeUndo(sender)
	case TypeCapture:
		h.handleCapture(sender, msg)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "user", sender.UserID)
	}
}

func (h *Hub) handlePresenceUpdate(sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}
	presence.DisplayName = sender.DisplayName

	room := h.room(sender.BoardID)
	if room == nil {
		return
	}
	room.presence.Update(sender.UserID, presence)

	outPayload, _ := json.Marshal(presence)
	h.broadcastToRoom(sender.BoardID, &Message{
		Type:    TypePresenceUpdate,
		UserID:  sender.UserID,
		Payload: outPayload,
	}, sender.ClientID)
}

func (h *Hub) handleStrokeAdd(sender *Client, msg *Message) {
	var payload StrokeAddPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		slog.Warn("invalid stroke payload", "error", err, "user", sender.UserID)
		sender.SendError("invalid stroke payload")
		return
	}

	// The server owns stroke identity and authorship.
	st, err := stroke.New(typeid.NewStrokeID(), sender.UserID, payload.Stroke.Points, payload.Stroke.Widths)
	if err != nil {
		slog.Warn("rejected stroke", "error", err, "user", sender.UserID)
		sender.SendError("invalid stroke")
		return
	}

	room := h.room(sender.BoardID)
	if room == nil {
		return
	}

	created, removed := room.addStroke(st, payload.Camera, &h.pipeline)

	addPayload, _ := json.Marshal(StrokeAddPayload{Stroke: *st})
	h.broadcastToRoom(sender.BoardID, &Message{
		Type:    TypeStrokeAdd,
		UserID:  sender.UserID,
		Payload: addPayload,
	}, sender.ClientID)

	if created == nil {
		return
	}

	removedIDs := make([]string, len(removed))
	for i, s := range removed {
		removedIDs[i] = s.ID
	}
	absorbedPayload, _ := json.Marshal(StrokeAbsorbedPayload{
		NoteID:    created.ID,
		StrokeIDs: removedIDs,
	})
	h.broadcastToRoom(sender.BoardID, &Message{
		Type:    TypeStrokeAbsorbed,
		UserID:  sender.UserID,
		Payload: absorbedPayload,
	}, "")

	notePayload, _ := json.Marshal(NoteCreatedPayload{Note: created})
	h.broadcastToRoom(sender.BoardID, &Message{
		Type:    TypeNoteCreated,
		UserID:  sender.UserID,
		Payload: notePayload,
	}, "")

	slog.Info("note created",
		"note", created.ID,
		"board", sender.BoardID,
		"confidence", created.Confidence,
		"absorbed", len(removedIDs))
}

func (h *Hub) handleStrokeUndo(sender *Client) {
	room := h.room(sender.BoardID)
	if room == nil {
		return
	}

	removed := room.undoStroke(sender.UserID)
	if removed == nil {
		return
	}

	payload, _ := json.Marshal(StrokeRemovedPayload{StrokeIDs: []string{removed.ID}})
	h.broadcastToRoom(sender.BoardID, &Message{
		Type:    TypeStrokeRemoved,
		UserID:  sender.UserID,
		Payload: payload,
	}, "")
}

func (h *Hub) handleCapture(sender *Client, msg *Message) {
	var payload CapturePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		sender.SendError("invalid capture payload")
		return
	}

	room := h.room(sender.BoardID)
	if room == nil {
		return
	}

	texID, related, err := room.captureCluster(payload.SeedStrokeID, &h.pipeline)
	if err != nil {
		slog.Warn("capture failed", "error", err, "user", sender.UserID)
		sender.SendError("capture failed")
		return
	}

	ids := make([]string, len(related))
	for i, s := range related {
		ids[i] = s.ID
	}
	resultPayload, _ := json.Marshal(CaptureResultPayload{
		TextureID: texID,
		StrokeIDs: ids,
	})
	sender.Send(&Message{
		Type:    TypeCaptureResult,
		Payload: resultPayload,
	})
}

func (h *Hub) room(boardID string) *Room {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[boardID]
}

func (h *Hub) broadcastToRoom(boardID string, msg *Message, excludeClientID string) {
	h.mu.RLock()
	room, ok := h.rooms[boardID]
	if !ok {
		h.mu.RUnlock()
		return
	}
	clients := make([]*Client, 0, len(room.clients))
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(msg)
	}
}

func (h *Hub) saveRoom(room *Room) {
	room.mu.Lock()
	dirty := room.dirty
	room.dirty = false
	room.mu.Unlock()
	if !dirty {
		return
	}
	if err := h.saveDoc(room.boardID, room.snapshot()); err != nil {
		slog.Error("save board document", "error", err, "board", room.boardID)
	}
}

func (h *Hub) saveAll() {
	h.mu.RLock()
	rooms := make([]*Room, 0, len(h.rooms))
	for _, r := range h.rooms {
		rooms = append(rooms, r)
	}
	h.mu.RUnlock()

	for _, r := range rooms {
		h.saveRoom(r)
	}
}

// syncMessage is the board.sync sent to a freshly connected client.
func (r *Room) syncMessage() *Message {
	doc := r.snapshot()
	payload, err := json.Marshal(BoardSyncPayload{
		Strokes: doc.Strokes,
		Notes:   doc.Notes,
	})
	if err != nil {
		slog.Error("marshal board sync", "error", err)
		return nil
	}
	return &Message{
		Type:    TypeBoardSync,
		BoardID: r.boardID,
		Payload: payload,
	}
}
