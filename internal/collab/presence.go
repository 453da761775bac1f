package collab

import (
	"encoding/json"
	"log/slog"
	"maps"
	"sync"
)

// PresenceManager tracks cursor and selection state per user in a room.
type PresenceManager struct {
	mu        sync.RWMutex
	presences map[string]*PresencePayload // userID -> presence
}

func NewPresenceManager() *PresenceManager {
	return &PresenceManager{
		presences: make(map[string]*PresencePayload),
	}
}

func (pm *PresenceManager) Update(userID string, p *PresencePayload) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.presences[userID] = p
}

func (pm *PresenceManager) Remove(userID string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	delete(pm.presences, userID)
}

func (pm *PresenceManager) GetAll() map[string]*PresencePayload {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return maps.Clone(pm.presences)
}

// StateMessage returns a presence.state message, or nil when nobody in the
// room has reported presence yet.
func (pm *PresenceManager) StateMessage() *Message {
	all := pm.GetAll()
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
