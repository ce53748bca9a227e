package repository

import (
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/rocketscienceinc/caro-backend/internal/apperror"
	"github.com/rocketscienceinc/caro-backend/internal/entity"
)

const DefaultShardCount = 32

// RoomRegistry is the in-memory directory of live rooms. Ids are spread over
// shards so that rooms in different shards never contend on the same lock.
// Locks are always taken shard first, then room.
type RoomRegistry struct {
	shards []*roomShard
}

type roomShard struct {
	mu    sync.RWMutex
	rooms map[string]*entity.Room
}

func NewRoomRegistry(shardCount int) *RoomRegistry {
	if shardCount <= 0 {
		shardCount = DefaultShardCount
	}

	shards := make([]*roomShard, shardCount)
	for i := range shards {
		shards[i] = &roomShard{rooms: make(map[string]*entity.Room)}
	}

	return &RoomRegistry{shards: shards}
}

func (that *RoomRegistry) shard(id string) *roomShard {
	return that.shards[xxhash.Sum64String(id)%uint64(len(that.shards))]
}

// CreateOrGet returns the live room for id, creating it from profile when
// there is none. A closed room still in the map is replaced.
func (that *RoomRegistry) CreateOrGet(id string, profile entity.BoardProfile) (*entity.Room, bool, error) {
	shard := that.shard(id)

	shard.mu.Lock()
	defer shard.mu.Unlock()

	if room, ok := shard.rooms[id]; ok && !room.IsClosed() {
		return room, false, nil
	}

	room, err := entity.NewRoom(id, profile)
	if err != nil {
		return nil, false, err
	}

	shard.rooms[id] = room

	return room, true, nil
}

func (that *RoomRegistry) Get(id string) (*entity.Room, error) {
	shard := that.shard(id)

	shard.mu.RLock()
	defer shard.mu.RUnlock()

	room, ok := shard.rooms[id]
	if !ok || room.IsClosed() {
		return nil, apperror.ErrRoomNotFound
	}

	return room, nil
}

// Remove deletes the room unconditionally and closes it, so a join holding a
// stale pointer fails with ErrRoomClosed instead of landing in a dead room.
func (that *RoomRegistry) Remove(id string) (*entity.Room, bool) {
	shard := that.shard(id)

	shard.mu.Lock()
	defer shard.mu.Unlock()

	room, ok := shard.rooms[id]
	if !ok {
		return nil, false
	}

	room.Close()
	delete(shard.rooms, id)

	return room, true
}

// Discard deletes the entry only while it still points at room.
func (that *RoomRegistry) Discard(id string, room *entity.Room) bool {
	shard := that.shard(id)

	shard.mu.Lock()
	defer shard.mu.Unlock()

	if current, ok := shard.rooms[id]; !ok || current != room {
		return false
	}

	delete(shard.rooms, id)

	return true
}

// RemoveIfEmpty deletes the room when nobody is seated in it.
func (that *RoomRegistry) RemoveIfEmpty(id string) bool {
	shard := that.shard(id)

	shard.mu.Lock()
	defer shard.mu.Unlock()

	room, ok := shard.rooms[id]
	if !ok || !room.CloseIfEmpty() {
		return false
	}

	delete(shard.rooms, id)

	return true
}

// Rooms returns the registered rooms, closed ones included.
func (that *RoomRegistry) Rooms() []*entity.Room {
	var rooms []*entity.Room

	for _, shard := range that.shards {
		shard.mu.RLock()
		for _, room := range shard.rooms {
			rooms = append(rooms, room)
		}
		shard.mu.RUnlock()
	}

	return rooms
}

// List returns the summaries of live rooms sorted by id.
func (that *RoomRegistry) List() []entity.RoomSummary {
	rooms := that.Rooms()
	summaries := make([]entity.RoomSummary, 0, len(rooms))

	for _, room := range rooms {
		if room.IsClosed() {
			continue
		}
		summaries = append(summaries, room.Summary())
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].ID < summaries[j].ID
	})

	return summaries
}

func (that *RoomRegistry) Len() int {
	count := 0

	for _, shard := range that.shards {
		shard.mu.RLock()
		count += len(shard.rooms)
		shard.mu.RUnlock()
	}

	return count
}
