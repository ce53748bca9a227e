package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/caro-backend/internal/entity"
)

const (
	actionConnect    = "connect"
	actionCreateRoom = "room:create"
	actionJoinRoom   = "room:join"
	actionMove       = "room:move"
	actionReset      = "room:reset"
	actionLeave      = "room:leave"
	actionListRooms  = "room:list"
	actionError      = "error"
)

// Message is the envelope of every frame in both directions.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Payload is the request body shared by all actions; each action reads the
// fields it needs.
type Payload struct {
	Player *entity.Player `json:"player,omitempty"`
	RoomID string         `json:"game_id,omitempty"`

	entity.ProfileSelector

	Row int `json:"row"`
	Col int `json:"col"`
}

type ResponsePayload struct {
	SessionID string               `json:"session_id,omitempty"`
	Player    *entity.Player       `json:"player,omitempty"`
	Room      *entity.RoomState    `json:"game,omitempty"`
	Rooms     []entity.RoomSummary `json:"games,omitempty"`
	Left      *bool                `json:"left,omitempty"`
	Error     string               `json:"error,omitempty"`
}

func encode(action string, payload any) ([]byte, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	messageJSON, err := json.Marshal(Message{Action: action, Payload: payloadJSON})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	return messageJSON, nil
}
