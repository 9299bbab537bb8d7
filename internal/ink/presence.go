package ink

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// PresenceManager tracks the latest stylus pose per user in a room. Poses
// stream in at tracking rate, so only the most recent one per user is kept;
// the whole map is replayed to clients when they join.
type PresenceManager struct {
	mu    sync.RWMutex
	poses map[string]PresencePayload // userID -> latest presence
}

func NewPresenceManager() *PresenceManager {
	return &PresenceManager{poses: make(map[string]PresencePayload)}
}

// Update overwrites the user's presence. Stale poses are worthless, so there
// is no merging.
func (pm *PresenceManager) Update(userID string, p PresencePayload) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.poses[userID] = p
}

func (pm *PresenceManager) Remove(userID string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	delete(pm.poses, userID)
}

// Snapshot returns a detached copy of every user's latest presence.
func (pm *PresenceManager) Snapshot() map[string]PresencePayload {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	out := make(map[string]PresencePayload, len(pm.poses))
	for id, p := range pm.poses {
		out[id] = p
	}
	return out
}

// StateMessage builds the presence replay for a joining client, or nil when
// nobody has reported a pose yet.
func (pm *PresenceManager) StateMessage() *Message {
	all := pm.Snapshot()
	if len(all) == 0 {
		return nil
	}
	payload, err := json.Marshal(PresenceStatePayload{Presences: all})
	if err != nil {
		slog.Error("marshal presence state", "error", err)
		return nil
	}
	return &Message{
		Type:    TypePresenceState,
		Payload: payload,
	}
}
