// Package domain contains entities without logic beyond their own invariants.
package domain

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const (
	MinPlayerNameLen = 2
	MaxPlayerNameLen = 32
)

var (
	ErrConnectionIDEmpty = errors.New("connection id empty")
	ErrNameTooShort      = errors.New("player name too short")
	ErrNameTooLong       = errors.New("player name too long")
)

// Player is one live connection's seat. ConnectionID doubles as the
// primary key. RoomCode is a plain identifier back-reference to the
// room the player occupies, "" while unjoined; the coordinator keeps it
// consistent with the room's membership on every mutation.
type Player struct {
	ConnectionID string `json:"connection_id"`
	Name         string `json:"name"`
	RoomCode     string `json:"room,omitempty"`
}

// NewPlayer is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewPlayer(connectionID, name string) (*Player, error) {
	if connectionID == "" {
		return nil, ErrConnectionIDEmpty
	}
	p := &Player{ConnectionID: connectionID}
	if err := p.SetName(name); err != nil {
		return nil, err
	}
	return p, nil
}

// SetName bounds the name in runes, matching the gateway's payload
// validation so multibyte names pass or fail at both layers alike.
func (p *Player) SetName(name string) error {
	if utf8.RuneCountInString(strings.TrimSpace(name)) < MinPlayerNameLen {
		return ErrNameTooShort
	}
	if utf8.RuneCountInString(name) > MaxPlayerNameLen {
		return ErrNameTooLong
	}
	p.Name = name
	return nil
}

// Joined reports whether the player currently occupies a room.
func (p *Player) Joined() bool { return p.RoomCode != "" }
