package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Andy260/project-deception/internal/app"
	"github.com/Andy260/project-deception/internal/config"
	"github.com/Andy260/project-deception/internal/domain"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Gateway upgrades connections and speaks the JSON envelope protocol,
// delegating every request to the coordinator or chat router. It is
// the only layer that touches transport resources.
type Gateway struct {
	Coordinator *app.Coordinator
	Chat        *app.ChatRouter
	Registry    *Registry
	Cfg         *config.Config
}

func NewGateway(coord *app.Coordinator, chat *app.ChatRouter, reg *Registry, cfg *config.Config) *Gateway {
	return &Gateway{
		Coordinator: coord,
		Chat:        chat,
		Registry:    reg,
		Cfg:         cfg,
	}
}

// HandleWS upgrades the request and starts the connection's pumps. The
// connection id comes from the client-token middleware.
func (g *Gateway) HandleWS(ctx context.Context, c *gin.Context) {
	connID := c.GetString("client_token")
	if connID == "" {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.ws").Msg("ws upgrade failed")
		return
	}
	conn.SetReadLimit(g.Cfg.ReadLimit)

	cl := newClient(connID, conn, g.Cfg.SendBuffer)
	if old := g.Registry.bind(cl); old != nil {
		// Second tab on the same token: the newest connection wins.
		log.Warn().Str("module", "adapters.ws").Str("conn", connID).Msg("replacing existing connection for token")
		old.Close()
	}
	log.Info().Str("module", "adapters.ws").Str("conn", connID).Msg("connection opened")

	ctx, cancel := context.WithCancel(ctx)
	go g.writePump(ctx, cancel, cl)
	go g.readPump(ctx, cancel, cl)
}

func (g *Gateway) writePump(ctx context.Context, cancel context.CancelFunc, c *client) {
	ticker := time.NewTicker(g.Cfg.PingPeriod)
	defer ticker.Stop()
	defer cancel()
	// Closing the socket here unblocks readPump's blocking read, so a
	// dead write side always tears the whole connection down.
	defer c.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(g.Cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case data, ok := <-c.send:
			if !ok {
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(g.Cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}
}

func (g *Gateway) readPump(ctx context.Context, cancel context.CancelFunc, c *client) {
	defer func() {
		cancel()
		g.onDisconnect(c)
		c.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				return
			}
			g.dispatch(c, data)
		}
	}
}

// onDisconnect forces the player out of its room. ErrNoRoomJoined is
// the normal case for connections that never joined one.
func (g *Gateway) onDisconnect(c *client) {
	if !g.Registry.unbind(c) {
		// A newer connection owns this token; leave its seat alone.
		log.Info().Str("module", "adapters.ws").Str("conn", c.connectionID).Msg("replaced connection closed")
		return
	}

	player, ok := g.Coordinator.ResolveConnection(c.connectionID)
	var targets []string
	if ok && player.Joined() {
		targets = g.roomTargets(player.RoomCode, c.connectionID)
	}

	err := g.Coordinator.LeaveRoom(c.connectionID)
	switch {
	case err == nil:
		g.broadcast(targets, playerEvent{Type: "player_left", Name: player.Name})
	case errors.Is(err, app.ErrNoRoomJoined):
	default:
		log.Error().Err(err).Str("module", "adapters.ws").Str("conn", c.connectionID).Msg("forced leave failed")
	}
	log.Info().Str("module", "adapters.ws").Str("conn", c.connectionID).Msg("connection closed")
}

func (g *Gateway) dispatch(c *client, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		g.sendError(c, "bad_payload")
		return
	}
	switch env.Type {
	case "create_room":
		g.handleCreate(c, data)
	case "join_room":
		g.handleJoin(c, data)
	case "leave_room":
		g.handleLeave(c)
	case "chat":
		g.handleChat(c, data)
	case "ping":
		g.sendJSON(c, envelope{Type: "pong"})
	default:
		log.Warn().Str("module", "adapters.ws").Str("type", env.Type).Msg("unknown message type")
		g.sendError(c, "unknown_type")
	}
}

func (g *Gateway) handleCreate(c *client, data []byte) {
	var p createRoomPayload
	if err := json.Unmarshal(data, &p); err != nil {
		g.sendError(c, "bad_payload")
		return
	}
	if err := validate.Struct(p); err != nil {
		g.sendError(c, "bad_payload")
		return
	}

	code, err := g.Coordinator.CreateRoom(c.connectionID, p.Name)
	if err != nil {
		g.sendError(c, errorKind(err))
		return
	}
	g.sendJSON(c, roomCreatedResponse{Type: "room_created", Room: code})
}

func (g *Gateway) handleJoin(c *client, data []byte) {
	var p joinRoomPayload
	if err := json.Unmarshal(data, &p); err != nil {
		g.sendError(c, "bad_payload")
		return
	}
	if err := validate.Struct(p); err != nil {
		g.sendError(c, "bad_payload")
		return
	}

	if err := g.Coordinator.JoinRoom(c.connectionID, p.Room, p.Name); err != nil {
		g.sendError(c, errorKind(err))
		return
	}

	players, err := g.Coordinator.RoomPlayers(p.Room)
	if err != nil {
		g.sendError(c, errorKind(err))
		return
	}
	dtos := make([]playerDTO, 0, len(players))
	targets := make([]string, 0, len(players))
	for _, pl := range players {
		dtos = append(dtos, playerDTO{Name: pl.Name})
		if pl.ConnectionID != c.connectionID {
			targets = append(targets, pl.ConnectionID)
		}
	}

	g.sendJSON(c, roomStateResponse{Type: "room_state", Room: p.Room, Players: dtos, Count: len(dtos)})
	g.broadcast(targets, playerEvent{Type: "player_joined", Name: p.Name})
}

func (g *Gateway) handleLeave(c *client) {
	player, ok := g.Coordinator.ResolveConnection(c.connectionID)
	if !ok || !player.Joined() {
		g.sendError(c, "no_room_joined")
		return
	}
	// Snapshot the rest of the room before the membership mutates.
	targets := g.roomTargets(player.RoomCode, c.connectionID)

	if err := g.Coordinator.LeaveRoom(c.connectionID); err != nil {
		g.sendError(c, errorKind(err))
		return
	}
	g.sendJSON(c, envelope{Type: "room_left"})
	g.broadcast(targets, playerEvent{Type: "player_left", Name: player.Name})
}

func (g *Gateway) handleChat(c *client, data []byte) {
	var p chatPayload
	if err := json.Unmarshal(data, &p); err != nil {
		g.sendError(c, "bad_payload")
		return
	}
	if err := validate.Struct(p); err != nil {
		g.sendError(c, "bad_payload")
		return
	}

	bc, err := g.Chat.SendToRoom(c.connectionID, p.Message)
	if err != nil {
		g.sendError(c, errorKind(err))
		return
	}
	g.broadcast(bc.Targets, chatEvent{Type: "chat", Message: bc.Message, From: bc.SenderName})
}

func (g *Gateway) roomTargets(code, exclude string) []string {
	players, err := g.Coordinator.RoomPlayers(code)
	if err != nil {
		return nil
	}
	targets := make([]string, 0, len(players))
	for _, pl := range players {
		if pl.ConnectionID != exclude && pl.ConnectionID != "" {
			targets = append(targets, pl.ConnectionID)
		}
	}
	return targets
}

func (g *Gateway) sendJSON(c *client, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.ws").Msg("marshal response")
		return
	}
	if err := c.TrySend(b); err != nil {
		log.Warn().Str("module", "adapters.ws").Str("conn", c.connectionID).Msg("send buffer full, frame dropped")
	}
}

func (g *Gateway) sendError(c *client, kind string) {
	g.sendJSON(c, errorResponse{Type: "error", Error: kind})
}

func (g *Gateway) broadcast(targets []string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.ws").Msg("marshal broadcast")
		return
	}
	for _, id := range targets {
		cl, ok := g.Registry.get(id)
		if !ok {
			continue
		}
		if err := cl.TrySend(b); err != nil {
			log.Warn().Str("module", "adapters.ws").Str("conn", id).Msg("send buffer full, frame dropped")
		}
	}
}

// errorKind maps core errors to the wire strings clients branch on.
// Integrity and storage failures stay opaque.
func errorKind(err error) string {
	var integrity *app.IntegrityError
	switch {
	case errors.Is(err, app.ErrInvalidRoomCode):
		return "invalid_room_code"
	case errors.Is(err, app.ErrAlreadyInRoom):
		return "already_in_room"
	case errors.Is(err, app.ErrNoRoomJoined):
		return "no_room_joined"
	case errors.Is(err, domain.ErrNameTooShort), errors.Is(err, domain.ErrNameTooLong):
		return "invalid_name"
	case errors.As(err, &integrity):
		return "internal_error"
	default:
		return "internal_error"
	}
}
