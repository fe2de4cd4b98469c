package storage

import (
	"sync"

	"github.com/Andy260/project-deception/internal/domain"
)

// Memory is a threadsafe in-memory Store. Reads hand out defensive
// copies of committed state, so callers can mutate what they read and
// nothing becomes observable before Commit.
type Memory struct {
	mu      sync.RWMutex
	rooms   map[string]*domain.Room
	players map[string]*domain.Player
}

func NewMemory() *Memory {
	return &Memory{
		rooms:   make(map[string]*domain.Room),
		players: make(map[string]*domain.Player),
	}
}

func (m *Memory) Begin() Tx {
	return &memoryTx{store: m}
}

func (m *Memory) Rooms() []*domain.Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Room, 0, len(m.rooms))
	for _, room := range m.rooms {
		out = append(out, room.Clone())
	}
	return out
}

type opKind int

const (
	putRoom opKind = iota
	delRoom
	putPlayer
	delPlayer
)

type op struct {
	kind   opKind
	key    string
	room   *domain.Room
	player *domain.Player
}

type memoryTx struct {
	store   *Memory
	pending []op
}

func (t *memoryTx) FindRoom(code string) (*domain.Room, bool) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	room, ok := t.store.rooms[code]
	if !ok {
		return nil, false
	}
	return room.Clone(), true
}

func (t *memoryTx) FindPlayer(connectionID string) (*domain.Player, bool) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	player, ok := t.store.players[connectionID]
	if !ok {
		return nil, false
	}
	cp := *player
	return &cp, true
}

func (t *memoryTx) AddRoom(room *domain.Room) {
	t.pending = append(t.pending, op{kind: putRoom, room: room.Clone()})
}

func (t *memoryTx) AddPlayer(player *domain.Player) {
	cp := *player
	t.pending = append(t.pending, op{kind: putPlayer, player: &cp})
}

func (t *memoryTx) RemoveRoom(code string) {
	t.pending = append(t.pending, op{kind: delRoom, key: code})
}

func (t *memoryTx) RemovePlayer(connectionID string) {
	t.pending = append(t.pending, op{kind: delPlayer, key: connectionID})
}

// Commit applies all staged writes under one lock acquisition. It
// cannot fail for the in-memory store; the error return is the
// boundary real persistence fails through.
func (t *memoryTx) Commit() error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for _, o := range t.pending {
		switch o.kind {
		case putRoom:
			t.store.rooms[o.room.Code] = o.room
		case delRoom:
			delete(t.store.rooms, o.key)
		case putPlayer:
			t.store.players[o.player.ConnectionID] = o.player
		case delPlayer:
			delete(t.store.players, o.key)
		}
	}
	t.pending = nil
	return nil
}
