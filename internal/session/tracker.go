package session

import (
	"sort"
	"sync"
	"time"

	"github.com/rocketscienceinc/caro-backend/internal/apperror"
)

// Binding ties a transport session to the seat it holds.
type Binding struct {
	SessionID string
	RoomID    string
	PlayerID  string
	BoundAt   time.Time
}

// Tracker maps transport session ids to room seats.
// All methods are safe for concurrent use.
type Tracker struct {
	mu       sync.RWMutex
	bindings map[string]Binding         // sessionID → binding
	roomSets map[string]map[string]bool // roomID → set of sessionIDs
}

func NewTracker() *Tracker {
	return &Tracker{
		bindings: make(map[string]Binding),
		roomSets: make(map[string]map[string]bool),
	}
}

// Bind records the seat for a session, replacing any earlier binding.
func (that *Tracker) Bind(sessionID, roomID, playerID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.unbindLocked(sessionID)

	that.bindings[sessionID] = Binding{
		SessionID: sessionID,
		RoomID:    roomID,
		PlayerID:  playerID,
		BoundAt:   time.Now(),
	}

	if that.roomSets[roomID] == nil {
		that.roomSets[roomID] = make(map[string]bool)
	}
	that.roomSets[roomID][sessionID] = true
}

func (that *Tracker) Resolve(sessionID string) (Binding, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	binding, ok := that.bindings[sessionID]
	if !ok {
		return Binding{}, apperror.ErrSessionNotFound
	}

	return binding, nil
}

// Unbind is a no-op for an unknown session.
func (that *Tracker) Unbind(sessionID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.unbindLocked(sessionID)
}

// Take resolves and unbinds in one step, so concurrent callers for the same
// session see the binding at most once. seatHeld reports whether another
// session is still bound to the same seat, as after a reconnect.
func (that *Tracker) Take(sessionID string) (binding Binding, seatHeld bool, ok bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	binding, ok = that.unbindLocked(sessionID)
	if !ok {
		return Binding{}, false, false
	}

	for other := range that.roomSets[binding.RoomID] {
		if that.bindings[other].PlayerID == binding.PlayerID {
			return binding, true, true
		}
	}

	return binding, false, true
}

// UnbindPlayer drops every session bound to the seat.
func (that *Tracker) UnbindPlayer(roomID, playerID string) int {
	that.mu.Lock()
	defer that.mu.Unlock()

	count := 0
	for sessionID := range that.roomSets[roomID] {
		if that.bindings[sessionID].PlayerID == playerID {
			that.unbindLocked(sessionID)
			count++
		}
	}

	return count
}

// SessionsInRoom returns the sorted session ids bound to a room.
func (that *Tracker) SessionsInRoom(roomID string) []string {
	that.mu.RLock()
	defer that.mu.RUnlock()

	sessions := make([]string, 0, len(that.roomSets[roomID]))
	for sessionID := range that.roomSets[roomID] {
		sessions = append(sessions, sessionID)
	}
	sort.Strings(sessions)

	return sessions
}

func (that *Tracker) Len() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.bindings)
}

func (that *Tracker) unbindLocked(sessionID string) (Binding, bool) {
	binding, ok := that.bindings[sessionID]
	if !ok {
		return Binding{}, false
	}

	delete(that.bindings, sessionID)

	if set, exists := that.roomSets[binding.RoomID]; exists {
		delete(set, sessionID)
		if len(set) == 0 {
			delete(that.roomSets, binding.RoomID)
		}
	}

	return binding, true
}
