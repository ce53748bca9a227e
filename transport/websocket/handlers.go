package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/caro-backend/internal/apperror"
	"github.com/rocketscienceinc/caro-backend/internal/entity"
	"github.com/rocketscienceinc/caro-backend/internal/pkg"
)

var errPayloadRequired = errors.New("payload is required")

func decodePayload(message *Message) (Payload, error) {
	var payload Payload

	if len(message.Payload) == 0 {
		return payload, nil
	}

	if err := json.Unmarshal(message.Payload, &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	return payload, nil
}

// errorReason - the client-facing text for a failed request.
func errorReason(err error) string {
	for _, known := range []error{
		apperror.ErrRoomNotFound,
		apperror.ErrRoomFull,
		apperror.ErrRoomClosed,
		apperror.ErrInvalidProfile,
		apperror.ErrPlayerRequired,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}

	return "internal error"
}

func (that *Server) handleConnect(_ context.Context, c *client, message *Message) error {
	log := that.logger.With("method", "handleConnect", "session_id", c.sessionID)

	payload, err := decodePayload(message)
	if err != nil {
		that.sendError(c, message.Action, "malformed payload")
		return err
	}

	player := entity.Player{ID: pkg.GenerateNewSessionID()}
	if payload.Player != nil && payload.Player.ID != "" {
		player = *payload.Player
	}
	player.Mark = entity.MarkEmpty

	c.SetPlayer(player)

	log.Info("player connected", "player_id", player.ID)

	return that.sendMessage(c, message.Action, ResponsePayload{SessionID: c.sessionID, Player: &player})
}

// playerFor - the player the client acts as. Connect is optional: an
// anonymous player is created on first use.
func (that *Server) playerFor(c *client, payload Payload) entity.Player {
	player := c.Player()

	if payload.Player != nil && payload.Player.ID != "" && player.ID == "" {
		player = *payload.Player
		player.Mark = entity.MarkEmpty
		c.SetPlayer(player)
	}

	if player.ID == "" {
		player = entity.Player{ID: pkg.GenerateNewSessionID()}
		c.SetPlayer(player)
	}

	return player
}

func (that *Server) handleCreateRoom(ctx context.Context, c *client, message *Message) error {
	payload, err := decodePayload(message)
	if err != nil {
		that.sendError(c, message.Action, "malformed payload")
		return err
	}

	state, _, err := that.manager.CreateRoom(ctx, payload.RoomID, payload.ProfileSelector)
	if err != nil {
		that.sendError(c, message.Action, errorReason(err))
		return fmt.Errorf("failed to create room: %w", err)
	}

	return that.sendMessage(c, message.Action, ResponsePayload{Room: &state})
}

// handleJoinRoom - seats the client's player and subscribes it to the room.
// The resulting state reaches the client through the room broadcast.
func (that *Server) handleJoinRoom(ctx context.Context, c *client, message *Message) error {
	log := that.logger.With("method", "handleJoinRoom", "session_id", c.sessionID)

	payload, err := decodePayload(message)
	if err != nil {
		that.sendError(c, message.Action, "malformed payload")
		return err
	}

	if payload.RoomID == "" {
		that.sendError(c, message.Action, "game_id is required")
		return errPayloadRequired
	}

	player := that.playerFor(c, payload)

	if previous := c.RoomID(); previous != "" && previous != payload.RoomID {
		if _, err = that.manager.LeaveRoom(ctx, previous, player.ID); err != nil && !errors.Is(err, apperror.ErrRoomNotFound) {
			that.sendError(c, message.Action, errorReason(err))
			return fmt.Errorf("failed to leave previous room: %w", err)
		}

		log.Info("player switched rooms", "from", previous, "to", payload.RoomID, "player_id", player.ID)
	}

	that.subscribe(c, payload.RoomID)

	state, err := that.manager.JoinRoom(ctx, payload.RoomID, player, payload.ProfileSelector)
	if err != nil {
		that.unsubscribe(c)
		that.sendError(c, message.Action, errorReason(err))
		return fmt.Errorf("failed to join room: %w", err)
	}

	that.manager.BindSession(c.sessionID, state.ID, player.ID)

	log.Info("player joined room", "room_id", state.ID, "player_id", player.ID)

	return nil
}

func (that *Server) handleMove(ctx context.Context, c *client, message *Message) error {
	payload, err := decodePayload(message)
	if err != nil {
		that.sendError(c, message.Action, "malformed payload")
		return err
	}

	roomID := payload.RoomID
	if roomID == "" {
		roomID = c.RoomID()
	}

	move := entity.Move{Row: payload.Row, Col: payload.Col, PlayerID: c.Player().ID}

	if _, err = that.manager.MakeMove(ctx, roomID, move); err != nil {
		that.sendError(c, message.Action, errorReason(err))
		return fmt.Errorf("failed to make move: %w", err)
	}

	return nil
}

func (that *Server) handleReset(ctx context.Context, c *client, message *Message) error {
	payload, err := decodePayload(message)
	if err != nil {
		that.sendError(c, message.Action, "malformed payload")
		return err
	}

	roomID := payload.RoomID
	if roomID == "" {
		roomID = c.RoomID()
	}

	if _, err = that.manager.ResetRoom(ctx, roomID); err != nil {
		that.sendError(c, message.Action, errorReason(err))
		return fmt.Errorf("failed to reset room: %w", err)
	}

	return nil
}

func (that *Server) handleLeave(ctx context.Context, c *client, message *Message) error {
	payload, err := decodePayload(message)
	if err != nil {
		that.sendError(c, message.Action, "malformed payload")
		return err
	}

	roomID := payload.RoomID
	if roomID == "" {
		roomID = c.RoomID()
	}

	result, err := that.manager.LeaveRoom(ctx, roomID, c.Player().ID)
	if err != nil {
		that.sendError(c, message.Action, errorReason(err))
		return fmt.Errorf("failed to leave room: %w", err)
	}

	that.unsubscribe(c)

	left := result.Removed

	return that.sendMessage(c, message.Action, ResponsePayload{Left: &left})
}

func (that *Server) handleListRooms(ctx context.Context, c *client, message *Message) error {
	rooms := that.manager.ListRooms(ctx)

	return that.sendMessage(c, message.Action, ResponsePayload{Rooms: rooms})
}
