package app

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/Andy260/project-deception/internal/domain"
	"github.com/Andy260/project-deception/internal/roomcode"
	"github.com/Andy260/project-deception/internal/storage"
)

// DefaultCreateRetryLimit caps the code-collision retry loop in
// CreateRoom.
const DefaultCreateRetryLimit = 128

// Coordinator owns room lifecycle and membership: it allocates unique
// room codes, seats and unseats players, and keeps the player's room
// link consistent with the room's membership on every mutation.
// Created once per process and shared by all connections.
type Coordinator struct {
	store      storage.Store
	retryLimit int

	// alloc serializes the generate-check-commit sequence of CreateRoom
	// so two concurrent creates can never both claim one code.
	alloc sync.Mutex
	// membership serializes join/leave on the same room.
	membership *roomLocks
}

// NewCoordinator wires a coordinator over store. retryLimit <= 0 falls
// back to DefaultCreateRetryLimit.
func NewCoordinator(store storage.Store, retryLimit int) *Coordinator {
	if retryLimit <= 0 {
		retryLimit = DefaultCreateRetryLimit
	}
	return &Coordinator{
		store:      store,
		retryLimit: retryLimit,
		membership: newRoomLocks(),
	}
}

// CreateRoom allocates a fresh room with an unused code and seats the
// caller as its first player. Returns the room code.
func (c *Coordinator) CreateRoom(connectionID, playerName string) (string, error) {
	player, err := domain.NewPlayer(connectionID, playerName)
	if err != nil {
		return "", err
	}

	c.alloc.Lock()
	defer c.alloc.Unlock()

	tx := c.store.Begin()
	if existing, ok := tx.FindPlayer(connectionID); ok && existing.Joined() {
		return "", ErrAlreadyInRoom
	}

	var code string
	for attempt := 0; ; attempt++ {
		if attempt >= c.retryLimit {
			log.Error().Str("module", "app.coordinator").Int("attempts", attempt).Msg("code allocation gave up")
			return "", ErrCodeSpaceExhausted
		}
		candidate := roomcode.Random()
		if _, taken := tx.FindRoom(candidate); !taken {
			code = candidate
			break
		}
		log.Warn().Str("module", "app.coordinator").Str("code", candidate).Msg("room code collision, retrying")
	}

	player.RoomCode = code
	room := domain.NewRoom(code)
	room.AddPlayer(player)

	tx.AddRoom(room)
	tx.AddPlayer(player)
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit create room: %w", err)
	}

	log.Info().Str("module", "app.coordinator").Str("conn", connectionID).Str("room", code).Msg("room created")
	return code, nil
}

// JoinRoom seats the caller in the room identified by code, re-setting
// the player's display name. Fails with ErrAlreadyInRoom for a seated
// caller and ErrInvalidRoomCode when the room does not exist.
func (c *Coordinator) JoinRoom(connectionID, code, playerName string) error {
	if connectionID == "" {
		return domain.ErrConnectionIDEmpty
	}
	if !roomcode.IsValid(code) {
		return ErrInvalidRoomCode
	}

	c.membership.lock(code)
	defer c.membership.unlock(code)

	tx := c.store.Begin()
	player, found := tx.FindPlayer(connectionID)
	if found && player.Joined() {
		return ErrAlreadyInRoom
	}
	room, ok := tx.FindRoom(code)
	if !ok {
		return ErrInvalidRoomCode
	}

	if found {
		if err := player.SetName(playerName); err != nil {
			return err
		}
	} else {
		var err error
		player, err = domain.NewPlayer(connectionID, playerName)
		if err != nil {
			return err
		}
	}
	player.RoomCode = code
	room.AddPlayer(player)

	tx.AddPlayer(player)
	tx.AddRoom(room)
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit join room: %w", err)
	}

	log.Info().Str("module", "app.coordinator").Str("conn", connectionID).Str("room", code).Msg("player joined")
	return nil
}

// LeaveRoom unseats the caller and deletes its player record. A room
// emptied by the departure is deleted in the same commit.
func (c *Coordinator) LeaveRoom(connectionID string) error {
	// Resolve the room first; the membership lock is keyed by its code.
	// The link cannot move underneath us because a connection issues one
	// request at a time.
	player, ok := c.ResolveConnection(connectionID)
	if !ok || !player.Joined() {
		return ErrNoRoomJoined
	}
	code := player.RoomCode

	c.membership.lock(code)
	defer c.membership.unlock(code)

	tx := c.store.Begin()
	player, ok = tx.FindPlayer(connectionID)
	if !ok || !player.Joined() {
		return ErrNoRoomJoined
	}
	room, ok := tx.FindRoom(player.RoomCode)
	if !ok {
		return integrityf("player %s seated in missing room %s", connectionID, player.RoomCode)
	}
	if !room.RemovePlayer(connectionID) {
		return integrityf("room %s membership missing seated player %s", room.Code, connectionID)
	}

	if room.Empty() {
		tx.RemoveRoom(room.Code)
	} else {
		tx.AddRoom(room)
	}
	tx.RemovePlayer(connectionID)
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit leave room: %w", err)
	}

	log.Info().Str("module", "app.coordinator").Str("conn", connectionID).Str("room", code).Bool("room_deleted", room.Empty()).Msg("player left")
	return nil
}

// ResolveConnection looks up the player record for a connection. No
// side effects.
func (c *Coordinator) ResolveConnection(connectionID string) (*domain.Player, bool) {
	return c.store.Begin().FindPlayer(connectionID)
}

// RoomPlayers snapshots the membership of the room identified by code,
// in join order.
func (c *Coordinator) RoomPlayers(code string) ([]*domain.Player, error) {
	tx := c.store.Begin()
	room, ok := tx.FindRoom(code)
	if !ok {
		return nil, ErrInvalidRoomCode
	}
	return room.Players, nil
}

// RoomInfo is a read-only view of one room for listing APIs.
type RoomInfo struct {
	Code        string `json:"code"`
	PlayerCount int    `json:"player_count"`
}

// Rooms snapshots all live rooms.
func (c *Coordinator) Rooms() []RoomInfo {
	rooms := c.store.Rooms()
	out := make([]RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, RoomInfo{Code: room.Code, PlayerCount: len(room.Players)})
	}
	return out
}
