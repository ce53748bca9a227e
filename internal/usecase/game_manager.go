package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/caro-backend/internal/apperror"
	"github.com/rocketscienceinc/caro-backend/internal/caro"
	"github.com/rocketscienceinc/caro-backend/internal/entity"
	"github.com/rocketscienceinc/caro-backend/internal/pkg"
	"github.com/rocketscienceinc/caro-backend/internal/session"
)

const maxJoinAttempts = 3

type roomRegistry interface {
	CreateOrGet(id string, profile entity.BoardProfile) (*entity.Room, bool, error)
	Get(id string) (*entity.Room, error)
	Discard(id string, room *entity.Room) bool
	RemoveIfEmpty(id string) bool
	Rooms() []*entity.Room
	List() []entity.RoomSummary
}

type sessionTracker interface {
	Bind(sessionID, roomID, playerID string)
	Unbind(sessionID string)
	Take(sessionID string) (binding session.Binding, seatHeld bool, ok bool)
	UnbindPlayer(roomID, playerID string) int
}

type rewardDispatcher interface {
	Dispatch(ctx context.Context, outcome entity.Outcome) error
}

type eventPublisher interface {
	Publish(ctx context.Context, event entity.RoomEvent) error
}

type GameManagerConfig struct {
	DefaultProfile entity.BoardProfile
	WaitingRoomTTL time.Duration
}

// GameManager drives rooms through join, move, reset and leave. Room locks are
// never held while publishing events or dispatching rewards.
type GameManager struct {
	logger *slog.Logger

	registry   roomRegistry
	tracker    sessionTracker
	dispatcher rewardDispatcher
	publishers []eventPublisher

	defaultProfile entity.BoardProfile
	waitingRoomTTL time.Duration
	now            func() time.Time
}

func NewGameManager(
	logger *slog.Logger,
	cfg GameManagerConfig,
	registry roomRegistry,
	tracker sessionTracker,
	dispatcher rewardDispatcher,
	publishers ...eventPublisher,
) *GameManager {
	if cfg.DefaultProfile.SideLength == 0 {
		cfg.DefaultProfile = entity.DefaultProfile()
	}

	return &GameManager{
		logger: logger.With("component", "game_manager"),

		registry:   registry,
		tracker:    tracker,
		dispatcher: dispatcher,
		publishers: publishers,

		defaultProfile: cfg.DefaultProfile,
		waitingRoomTTL: cfg.WaitingRoomTTL,
		now:            time.Now,
	}
}

// Subscribe adds a publisher after construction. It must be called before the
// manager starts serving.
func (that *GameManager) Subscribe(publisher eventPublisher) {
	that.publishers = append(that.publishers, publisher)
}

func (that *GameManager) resolveProfile(selector entity.ProfileSelector) (entity.BoardProfile, error) {
	if selector.IsZero() {
		return that.defaultProfile, nil
	}

	profile, err := selector.Resolve()
	if err != nil {
		return entity.BoardProfile{}, fmt.Errorf("failed to resolve board profile: %w", err)
	}

	return profile, nil
}

// CreateRoom returns the state of the room with roomID, creating it when it
// does not exist; created is false for an existing room. An empty roomID gets
// a generated one.
func (that *GameManager) CreateRoom(ctx context.Context, roomID string, selector entity.ProfileSelector) (entity.RoomState, bool, error) {
	log := that.logger.With("method", "CreateRoom")

	profile, err := that.resolveProfile(selector)
	if err != nil {
		return entity.RoomState{}, false, err
	}

	if roomID == "" {
		roomID = pkg.GenerateRoomID()
	}

	room, created, err := that.registry.CreateOrGet(roomID, profile)
	if err != nil {
		return entity.RoomState{}, false, fmt.Errorf("failed to create room: %w", err)
	}

	state := room.Snapshot()

	if created {
		log.Info("room created", "room_id", roomID, "board_type", profile.Name)
		that.publish(ctx, entity.NewStateEvent(state))
	}

	return state, created, nil
}

// JoinRoom seats the player, creating the room on first join.
func (that *GameManager) JoinRoom(ctx context.Context, roomID string, player entity.Player, selector entity.ProfileSelector) (entity.RoomState, error) {
	log := that.logger.With("method", "JoinRoom")

	if player.ID == "" {
		return entity.RoomState{}, apperror.ErrPlayerRequired
	}

	profile, err := that.resolveProfile(selector)
	if err != nil {
		return entity.RoomState{}, err
	}

	if roomID == "" {
		roomID = pkg.GenerateRoomID()
	}

	for range maxJoinAttempts {
		room, _, err := that.registry.CreateOrGet(roomID, profile)
		if err != nil {
			return entity.RoomState{}, fmt.Errorf("failed to create room: %w", err)
		}

		state, err := room.AddPlayer(player)
		if errors.Is(err, apperror.ErrRoomClosed) {
			// the room emptied under us and is being discarded
			log.Debug("room closed during join, retrying", "room_id", roomID)
			continue
		}

		if err != nil {
			return state, fmt.Errorf("failed to join room: %w", err)
		}

		log.Info("player joined", "room_id", roomID, "player_id", player.ID, "status", state.Status)
		that.publish(ctx, entity.NewStateEvent(state))

		return state, nil
	}

	return entity.RoomState{}, fmt.Errorf("failed to join room %s: %w", roomID, apperror.ErrRoomClosed)
}

// MakeMove applies a move. A rejected move is not an error: the unchanged
// state is returned so the caller can tell that nothing happened.
func (that *GameManager) MakeMove(ctx context.Context, roomID string, move entity.Move) (entity.RoomState, error) {
	log := that.logger.With("method", "MakeMove")

	room, err := that.registry.Get(roomID)
	if err != nil {
		return entity.RoomState{}, fmt.Errorf("failed to get room: %w", err)
	}

	state, outcome, err := caro.Play(room, move)
	switch {
	case errors.Is(err, apperror.ErrRoomClosed):
		return entity.RoomState{}, fmt.Errorf("failed to get room: %w", apperror.ErrRoomNotFound)
	case errors.Is(err, apperror.ErrInvalidMove):
		log.Debug("move rejected", "room_id", roomID, "player_id", move.PlayerID, "row", move.Row, "col", move.Col, "reason", err)
		that.publish(ctx, entity.NewStateEvent(state))
		return state, nil
	case err != nil:
		return state, fmt.Errorf("failed to make move: %w", err)
	}

	that.publish(ctx, entity.NewStateEvent(state))

	if outcome != nil {
		log.Info("game finished", "room_id", roomID, "reason", outcome.Reason, "winner", state.Winner)
		that.dispatch(ctx, *outcome)
	}

	return state, nil
}

func (that *GameManager) ResetRoom(ctx context.Context, roomID string) (entity.RoomState, error) {
	room, err := that.registry.Get(roomID)
	if err != nil {
		return entity.RoomState{}, fmt.Errorf("failed to get room: %w", err)
	}

	state, err := room.Reset()
	if errors.Is(err, apperror.ErrRoomClosed) {
		return entity.RoomState{}, fmt.Errorf("failed to get room: %w", apperror.ErrRoomNotFound)
	}

	if err != nil {
		return state, fmt.Errorf("failed to reset room: %w", err)
	}

	that.publish(ctx, entity.NewStateEvent(state))

	return state, nil
}

// LeaveRoom unseats the player. When the room empties it is deleted and
// LeaveResult.Emptied is set.
func (that *GameManager) LeaveRoom(ctx context.Context, roomID, playerID string) (entity.LeaveResult, error) {
	room, err := that.registry.Get(roomID)
	if err != nil {
		return entity.LeaveResult{}, fmt.Errorf("failed to get room: %w", err)
	}

	return that.leave(ctx, room, playerID)
}

func (that *GameManager) leave(ctx context.Context, room *entity.Room, playerID string) (entity.LeaveResult, error) {
	log := that.logger.With("method", "leave")

	roomID := room.ID()

	result, err := room.RemovePlayer(playerID)
	if errors.Is(err, apperror.ErrRoomClosed) {
		that.registry.Discard(roomID, room)
		return result, fmt.Errorf("failed to get room: %w", apperror.ErrRoomNotFound)
	}

	if err != nil {
		return result, fmt.Errorf("failed to leave room: %w", err)
	}

	if result.Removed {
		that.tracker.UnbindPlayer(roomID, playerID)
		log.Info("player left", "room_id", roomID, "player_id", playerID, "status", result.State.Status)
	}

	if result.Emptied {
		that.registry.Discard(roomID, room)
		log.Info("room deleted", "room_id", roomID)
		that.publish(ctx, entity.NewRoomDeletedEvent(roomID))
	} else if result.Removed {
		that.publish(ctx, entity.NewPlayerLeftEvent(result.State, playerID))
	}

	if result.Outcome != nil {
		that.dispatch(ctx, *result.Outcome)
	}

	return result, nil
}

func (that *GameManager) GetRoom(_ context.Context, roomID string) (entity.RoomState, error) {
	room, err := that.registry.Get(roomID)
	if err != nil {
		return entity.RoomState{}, fmt.Errorf("failed to get room: %w", err)
	}

	return room.Snapshot(), nil
}

func (that *GameManager) ListRooms(_ context.Context) []entity.RoomSummary {
	return that.registry.List()
}

func (that *GameManager) BoardProfiles() []entity.BoardProfile {
	return entity.SortedProfiles()
}

func (that *GameManager) DefaultProfile() entity.BoardProfile {
	return that.defaultProfile
}

func (that *GameManager) BindSession(sessionID, roomID, playerID string) {
	that.tracker.Bind(sessionID, roomID, playerID)
}

func (that *GameManager) UnbindSession(sessionID string) {
	that.tracker.Unbind(sessionID)
}

// HandleDisconnect runs the leave path for the seat bound to the session.
// Unknown sessions are ignored, and so is a seat another session still holds
// after a reconnect.
func (that *GameManager) HandleDisconnect(ctx context.Context, sessionID string) error {
	log := that.logger.With("method", "HandleDisconnect")

	binding, seatHeld, ok := that.tracker.Take(sessionID)
	if !ok {
		log.Debug("no binding for session", "session_id", sessionID)
		return nil
	}

	if seatHeld {
		log.Debug("seat held by another session", "session_id", sessionID,
			"room_id", binding.RoomID, "player_id", binding.PlayerID)
		return nil
	}

	room, err := that.registry.Get(binding.RoomID)
	if errors.Is(err, apperror.ErrRoomNotFound) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to get room: %w", err)
	}

	_, err = that.leave(ctx, room, binding.PlayerID)
	if errors.Is(err, apperror.ErrRoomNotFound) {
		return nil
	}

	return err
}

// Cleanup deletes rooms nobody is seated in and, when a waiting-room TTL is
// set, reclaims idle waiting rooms. It returns the number of deleted rooms.
func (that *GameManager) Cleanup(ctx context.Context) int {
	log := that.logger.With("method", "Cleanup")

	deleted := 0

	for _, room := range that.registry.Rooms() {
		roomID := room.ID()

		if that.registry.RemoveIfEmpty(roomID) {
			deleted++
			that.publish(ctx, entity.NewRoomDeletedEvent(roomID))
			continue
		}

		if that.waitingRoomTTL <= 0 {
			continue
		}

		evicted, ok := room.ReclaimIfIdle(that.now().Add(-that.waitingRoomTTL))
		if !ok {
			continue
		}

		that.registry.Discard(roomID, room)
		deleted++

		for _, player := range evicted {
			that.tracker.UnbindPlayer(roomID, player.ID)
		}

		log.Info("idle waiting room reclaimed", "room_id", roomID, "players", len(evicted))
		that.publish(ctx, entity.NewRoomDeletedEvent(roomID))
	}

	if deleted > 0 {
		log.Info("rooms cleaned up", "count", deleted)
	}

	return deleted
}

func (that *GameManager) publish(ctx context.Context, event entity.RoomEvent) {
	log := that.logger.With("method", "publish")

	for _, publisher := range that.publishers {
		if err := publisher.Publish(ctx, event); err != nil {
			log.Error("failed to publish room event", "room_id", event.RoomID, "type", event.Type, "error", err)
		}
	}
}

// dispatch hands the outcome to the reward hook. Failures are logged and
// never reach the caller.
func (that *GameManager) dispatch(ctx context.Context, outcome entity.Outcome) {
	if that.dispatcher == nil {
		return
	}

	log := that.logger.With("method", "dispatch", "room_id", outcome.RoomID)

	defer func() {
		if r := recover(); r != nil {
			log.Error("reward dispatcher panicked", "panic", r)
		}
	}()

	if err := that.dispatcher.Dispatch(context.WithoutCancel(ctx), outcome); err != nil {
		log.Error("failed to dispatch outcome", "reason", outcome.Reason, "error", err)
	}
}
