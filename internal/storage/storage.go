// Package storage defines the membership store boundary the room
// coordinator mutates through, plus an in-memory implementation.
package storage

import "github.com/Andy260/project-deception/internal/domain"

// Tx stages one operation's reads and writes. Reads see committed
// state only; writes stay invisible until Commit, which applies them
// all or none. A Tx is not safe for concurrent use — the coordinator
// serializes access per room.
type Tx interface {
	FindRoom(code string) (*domain.Room, bool)
	FindPlayer(connectionID string) (*domain.Player, bool)

	// AddRoom and AddPlayer stage an add-or-replace keyed by room code
	// and connection id respectively.
	AddRoom(room *domain.Room)
	AddPlayer(player *domain.Player)
	RemoveRoom(code string)
	RemovePlayer(connectionID string)

	Commit() error
}

// Store hands out transactions over the room and player tables.
type Store interface {
	Begin() Tx

	// Rooms returns a snapshot of all committed rooms.
	Rooms() []*domain.Room
}
