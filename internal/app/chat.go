package app

import (
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Andy260/project-deception/internal/storage"
)

// Broadcast is the fan-out decision for one chat message: every other
// connection in the sender's room, plus the validated sender name the
// gateway tags each delivery with.
type Broadcast struct {
	Targets    []string
	Message    string
	SenderName string
}

// ChatRouter resolves a sender to its room and computes the broadcast
// target set. It never mutates stored state.
type ChatRouter struct {
	store storage.Store
}

func NewChatRouter(store storage.Store) *ChatRouter {
	return &ChatRouter{store: store}
}

// SendToRoom validates the sender's membership and returns the set of
// other connection ids in its room. A seated player with a blank name,
// or a membership the sender's room link dangles from, is reported as
// an IntegrityError rather than a user error.
func (r *ChatRouter) SendToRoom(senderConnectionID, message string) (*Broadcast, error) {
	tx := r.store.Begin()

	sender, ok := tx.FindPlayer(senderConnectionID)
	if !ok || !sender.Joined() {
		return nil, ErrNoRoomJoined
	}
	if strings.TrimSpace(sender.Name) == "" {
		return nil, integrityf("player %s reached chat with a blank name", senderConnectionID)
	}

	room, ok := tx.FindRoom(sender.RoomCode)
	if !ok {
		return nil, integrityf("player %s seated in missing room %s", senderConnectionID, sender.RoomCode)
	}
	if !room.HasPlayer(senderConnectionID) {
		return nil, integrityf("room %s membership missing seated player %s", room.Code, senderConnectionID)
	}
	ids, err := room.ConnectionIDs()
	if err != nil {
		return nil, integrityf("room %s: %v", room.Code, err)
	}

	targets := make([]string, 0, len(ids)-1)
	for _, id := range ids {
		if id == senderConnectionID {
			continue
		}
		targets = append(targets, id)
	}

	log.Debug().Str("module", "app.chat").Str("from", senderConnectionID).Str("room", room.Code).Int("targets", len(targets)).Msg("broadcast resolved")
	return &Broadcast{Targets: targets, Message: message, SenderName: sender.Name}, nil
}
