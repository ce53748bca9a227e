package entity

import (
	"sync"
	"time"

	"github.com/rocketscienceinc/caro-backend/internal/apperror"
)

// Room guards one Game. Every mutation runs inside the room's critical
// section; rooms never share a lock with each other.
type Room struct {
	mu sync.Mutex

	game   *Game
	closed bool

	createdAt time.Time
	updatedAt time.Time
}

// RoomState is a detached copy of a room, safe to publish after the lock is released.
type RoomState struct {
	ID        string       `json:"id"`
	Profile   BoardProfile `json:"board_type"`
	Board     [][]Mark     `json:"board"`
	Players   []Player     `json:"players"`
	Turn      string       `json:"current_player,omitempty"`
	Status    string       `json:"status"`
	Winner    string       `json:"winner,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (that RoomState) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that RoomState) HasPlayer(id string) bool {
	for _, player := range that.Players {
		if player.ID == id {
			return true
		}
	}
	return false
}

// RoomSummary is the listing view of a room.
type RoomSummary struct {
	ID          string `json:"game_id"`
	BoardType   string `json:"board_type"`
	BoardSize   int    `json:"board_size"`
	WinLength   int    `json:"win_length"`
	Description string `json:"board_description,omitempty"`
	PlayerCount int    `json:"player_count"`
	MaxPlayers  int    `json:"max_players"`
	Status      string `json:"game_status"`
	CanJoin     bool   `json:"can_join"`
}

// LeaveResult reports what a removal did to the room.
type LeaveResult struct {
	State    RoomState
	Removed  bool
	Emptied  bool
	Outcome  *Outcome
	PlayerID string
}

func NewRoom(id string, profile BoardProfile) (*Room, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()

	return &Room{
		game:      NewGame(id, profile),
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ID is immutable and safe to read without the lock.
func (that *Room) ID() string {
	return that.game.ID
}

// Profile is immutable and safe to read without the lock.
func (that *Room) Profile() BoardProfile {
	return that.game.Profile
}

// Play runs fn inside the room's critical section and returns the resulting state.
// A closed room rejects the call with ErrRoomClosed.
func (that *Room) Play(fn func(game *Game) (*Outcome, error)) (RoomState, *Outcome, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return that.snapshot(), nil, apperror.ErrRoomClosed
	}

	outcome, err := fn(that.game)
	if err != nil {
		return that.snapshot(), nil, err
	}

	that.updatedAt = time.Now()

	return that.snapshot(), outcome, nil
}

func (that *Room) AddPlayer(player Player) (RoomState, error) {
	state, _, err := that.Play(func(game *Game) (*Outcome, error) {
		return nil, game.AddPlayer(player)
	})

	return state, err
}

// RemovePlayer unseats a player. When the last player leaves the room is
// closed and the caller must discard it from the registry.
func (that *Room) RemovePlayer(playerID string) (LeaveResult, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return LeaveResult{State: that.snapshot(), PlayerID: playerID, Emptied: true}, apperror.ErrRoomClosed
	}

	outcome, removed := that.game.RemovePlayer(playerID)
	if removed {
		that.updatedAt = time.Now()
	}

	emptied := len(that.game.Players) == 0
	if emptied {
		that.closed = true
	}

	return LeaveResult{
		State:    that.snapshot(),
		Removed:  removed,
		Emptied:  emptied,
		Outcome:  outcome,
		PlayerID: playerID,
	}, nil
}

func (that *Room) Reset() (RoomState, error) {
	state, _, err := that.Play(func(game *Game) (*Outcome, error) {
		game.Reset()
		return nil, nil
	})

	return state, err
}

func (that *Room) Snapshot() RoomState {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.snapshot()
}

func (that *Room) Summary() RoomSummary {
	that.mu.Lock()
	defer that.mu.Unlock()

	return RoomSummary{
		ID:          that.game.ID,
		BoardType:   that.game.Profile.Name,
		BoardSize:   that.game.Profile.SideLength,
		WinLength:   that.game.Profile.WinLength,
		Description: that.game.Profile.Description,
		PlayerCount: len(that.game.Players),
		MaxPlayers:  MaxPlayers,
		Status:      that.game.Status,
		CanJoin:     !that.closed && !that.game.IsFull(),
	}
}

// Close marks the room as removed. Later mutations fail with ErrRoomClosed.
func (that *Room) Close() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.closed = true
}

// CloseIfEmpty closes the room only when nobody is seated.
func (that *Room) CloseIfEmpty() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if len(that.game.Players) == 0 {
		that.closed = true
	}

	return that.closed
}

// ReclaimIfIdle empties and closes a waiting room untouched since cutoff.
// It returns the players that were seated.
func (that *Room) ReclaimIfIdle(cutoff time.Time) ([]Player, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed || !that.game.IsWaiting() || that.updatedAt.After(cutoff) {
		return nil, false
	}

	evicted := make([]Player, 0, len(that.game.Players))
	for _, player := range that.game.Players {
		evicted = append(evicted, *player)
	}

	that.game.Players = nil
	that.game.Turn = ""
	that.closed = true

	return evicted, true
}

func (that *Room) IsClosed() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.closed
}

// LastActivity returns the time of the last accepted mutation.
func (that *Room) LastActivity() time.Time {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.updatedAt
}

func (that *Room) snapshot() RoomState {
	game := that.game

	side := game.Profile.SideLength
	cells := make([]Mark, side*side)
	board := make([][]Mark, side)
	for row := range board {
		board[row] = cells[row*side : (row+1)*side : (row+1)*side]
		copy(board[row], game.Board[row])
	}

	players := make([]Player, 0, len(game.Players))
	for _, player := range game.Players {
		players = append(players, *player)
	}

	return RoomState{
		ID:        game.ID,
		Profile:   game.Profile,
		Board:     board,
		Players:   players,
		Turn:      game.Turn,
		Status:    game.Status,
		Winner:    game.Winner,
		CreatedAt: that.createdAt,
		UpdatedAt: that.updatedAt,
	}
}
