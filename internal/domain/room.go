package domain

import (
	"errors"
	"strings"
)

// ErrNoPlayers is returned by ConnectionIDs for a room whose membership
// is empty. Rooms are deleted the moment their last player leaves, so
// an empty room reaching a fan-out path indicates a bug elsewhere.
var ErrNoPlayers = errors.New("room has no players")

// Room groups the players that share one chat scope. Code is the
// primary key and the handle clients type to join. Players keeps join
// order; membership is a set keyed by connection id.
type Room struct {
	Code    string
	Players []*Player
}

func NewRoom(code string) *Room {
	return &Room{Code: code}
}

// AddPlayer seats p, replacing any existing seat with the same
// connection id.
func (r *Room) AddPlayer(p *Player) {
	for i, cur := range r.Players {
		if cur != nil && cur.ConnectionID == p.ConnectionID {
			r.Players[i] = p
			return
		}
	}
	r.Players = append(r.Players, p)
}

// RemovePlayer drops the seat for connectionID, reporting whether it
// was present.
func (r *Room) RemovePlayer(connectionID string) bool {
	for i, cur := range r.Players {
		if cur != nil && cur.ConnectionID == connectionID {
			r.Players = append(r.Players[:i], r.Players[i+1:]...)
			return true
		}
	}
	return false
}

func (r *Room) HasPlayer(connectionID string) bool {
	for _, cur := range r.Players {
		if cur != nil && cur.ConnectionID == connectionID {
			return true
		}
	}
	return false
}

func (r *Room) Empty() bool { return len(r.Players) == 0 }

// ConnectionIDs returns the connection id of every player in the room.
// Membership must never contain nil players or blank ids, but a corrupt
// record is skipped rather than taking the whole room down.
func (r *Room) ConnectionIDs() ([]string, error) {
	if len(r.Players) == 0 {
		return nil, ErrNoPlayers
	}
	ids := make([]string, 0, len(r.Players))
	for _, p := range r.Players {
		if p == nil || strings.TrimSpace(p.ConnectionID) == "" {
			continue
		}
		ids = append(ids, p.ConnectionID)
	}
	return ids, nil
}

// Clone returns a deep copy safe to mutate without affecting r.
func (r *Room) Clone() *Room {
	players := make([]*Player, len(r.Players))
	for i, p := range r.Players {
		if p == nil {
			continue
		}
		cp := *p
		players[i] = &cp
	}
	return &Room{Code: r.Code, Players: players}
}
