package entity

const (
	EventRoomState   = "room:state"
	EventPlayerLeft  = "room:player_left"
	EventRoomDeleted = "room:deleted"
)

// RoomEvent is what subscribers of a room topic receive.
type RoomEvent struct {
	Type     string     `json:"type"`
	RoomID   string     `json:"room_id"`
	PlayerID string     `json:"player_id,omitempty"`
	State    *RoomState `json:"state,omitempty"`
}

func NewStateEvent(state RoomState) RoomEvent {
	return RoomEvent{Type: EventRoomState, RoomID: state.ID, State: &state}
}

func NewPlayerLeftEvent(state RoomState, playerID string) RoomEvent {
	return RoomEvent{Type: EventPlayerLeft, RoomID: state.ID, PlayerID: playerID, State: &state}
}

func NewRoomDeletedEvent(roomID string) RoomEvent {
	return RoomEvent{Type: EventRoomDeleted, RoomID: roomID}
}
