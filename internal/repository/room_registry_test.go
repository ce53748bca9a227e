package repository

import (
	"fmt"
	"sync"
	"testing"

	"github.com/rocketscienceinc/caro-backend/internal/apperror"
	"github.com/rocketscienceinc/caro-backend/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestRoomRegistry_CreateOrGet(t *testing.T) {
	t.Run("Creates an unknown room once", func(t *testing.T) {
		registry := NewRoomRegistry(4)

		// When: the same id is requested twice
		first, created, err := registry.CreateOrGet("room1", entity.DefaultProfile())
		require.NoError(t, err)
		require.True(t, created)

		second, created, err := registry.CreateOrGet("room1", entity.DefaultProfile())
		require.NoError(t, err)

		// Then: the second call returns the existing room
		assert.False(t, created)
		assert.Same(t, first, second)
		assert.Equal(t, 1, registry.Len())
	})

	t.Run("Existing room keeps its profile", func(t *testing.T) {
		registry := NewRoomRegistry(4)
		mini, err := entity.ProfileByName("mini_8x8")
		require.NoError(t, err)

		_, _, err = registry.CreateOrGet("room1", mini)
		require.NoError(t, err)
		room, _, err := registry.CreateOrGet("room1", entity.DefaultProfile())
		require.NoError(t, err)

		assert.Equal(t, mini, room.Profile())
	})

	t.Run("Invalid profile is rejected", func(t *testing.T) {
		registry := NewRoomRegistry(4)

		_, _, err := registry.CreateOrGet("room1", entity.BoardProfile{SideLength: 4, WinLength: 5})

		require.ErrorIs(t, err, apperror.ErrInvalidProfile)
		assert.Equal(t, 0, registry.Len())
	})

	t.Run("Closed room is replaced by a fresh one", func(t *testing.T) {
		registry := NewRoomRegistry(4)
		stale, _, err := registry.CreateOrGet("room1", entity.DefaultProfile())
		require.NoError(t, err)
		stale.Close()

		fresh, created, err := registry.CreateOrGet("room1", entity.DefaultProfile())

		require.NoError(t, err)
		assert.True(t, created)
		assert.NotSame(t, stale, fresh)
	})

	t.Run("Concurrent callers share one room", func(t *testing.T) {
		registry := NewRoomRegistry(4)

		const callers = 32
		rooms := make([]*entity.Room, callers)

		var wg sync.WaitGroup
		for i := range callers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				room, _, err := registry.CreateOrGet("room1", entity.DefaultProfile())
				assert.NoError(t, err)
				rooms[i] = room
			}()
		}
		wg.Wait()

		for _, room := range rooms {
			assert.Same(t, rooms[0], room)
		}
		assert.Equal(t, 1, registry.Len())
	})
}

func TestRoomRegistry_Get(t *testing.T) {
	registry := NewRoomRegistry(4)

	_, err := registry.Get("missing")
	require.ErrorIs(t, err, apperror.ErrRoomNotFound)

	room, _, err := registry.CreateOrGet("room1", entity.DefaultProfile())
	require.NoError(t, err)

	found, err := registry.Get("room1")
	require.NoError(t, err)
	assert.Same(t, room, found)

	// a closed room waiting to be discarded is already gone for readers
	room.Close()
	_, err = registry.Get("room1")
	assert.ErrorIs(t, err, apperror.ErrRoomNotFound)
}

func TestRoomRegistry_Remove(t *testing.T) {
	t.Run("Remove closes the room", func(t *testing.T) {
		registry := NewRoomRegistry(4)
		room, _, err := registry.CreateOrGet("room1", entity.DefaultProfile())
		require.NoError(t, err)

		removed, ok := registry.Remove("room1")

		require.True(t, ok)
		assert.Same(t, room, removed)
		assert.True(t, room.IsClosed())
		assert.Equal(t, 0, registry.Len())

		// Then: a join through a stale pointer is refused
		_, err = room.AddPlayer(entity.Player{ID: "P1"})
		assert.ErrorIs(t, err, apperror.ErrRoomClosed)
	})

	t.Run("Remove is idempotent", func(t *testing.T) {
		registry := NewRoomRegistry(4)

		_, ok := registry.Remove("room1")

		assert.False(t, ok)
	})
}

func TestRoomRegistry_Discard(t *testing.T) {
	registry := NewRoomRegistry(4)
	stale, _, err := registry.CreateOrGet("room1", entity.DefaultProfile())
	require.NoError(t, err)
	stale.Close()
	fresh, _, err := registry.CreateOrGet("room1", entity.DefaultProfile())
	require.NoError(t, err)

	// When: the leave path discards the stale room after a replacement
	discarded := registry.Discard("room1", stale)

	// Then: the fresh room survives
	assert.False(t, discarded)
	found, err := registry.Get("room1")
	require.NoError(t, err)
	assert.Same(t, fresh, found)

	assert.True(t, registry.Discard("room1", fresh))
	assert.Equal(t, 0, registry.Len())
}

func TestRoomRegistry_RemoveIfEmpty(t *testing.T) {
	registry := NewRoomRegistry(4)
	occupied, _, err := registry.CreateOrGet("occupied", entity.DefaultProfile())
	require.NoError(t, err)
	_, err = occupied.AddPlayer(entity.Player{ID: "P1"})
	require.NoError(t, err)
	_, _, err = registry.CreateOrGet("empty", entity.DefaultProfile())
	require.NoError(t, err)

	assert.False(t, registry.RemoveIfEmpty("occupied"))
	assert.True(t, registry.RemoveIfEmpty("empty"))
	assert.False(t, registry.RemoveIfEmpty("missing"))

	assert.Equal(t, 1, registry.Len())
	assert.False(t, occupied.IsClosed())
}

func TestRoomRegistry_List(t *testing.T) {
	registry := NewRoomRegistry(4)
	for _, id := range []string{"c", "a", "b"} {
		_, _, err := registry.CreateOrGet(id, entity.DefaultProfile())
		require.NoError(t, err)
	}
	room, err := registry.Get("b")
	require.NoError(t, err)
	_, err = room.AddPlayer(entity.Player{ID: "P1"})
	require.NoError(t, err)

	summaries := registry.List()

	require.Len(t, summaries, 3)
	assert.Equal(t, "a", summaries[0].ID)
	assert.Equal(t, "b", summaries[1].ID)
	assert.Equal(t, "c", summaries[2].ID)
	assert.Equal(t, 1, summaries[1].PlayerCount)
	assert.True(t, summaries[1].CanJoin)
}

func TestRoomRegistry_ParallelRooms(t *testing.T) {
	// Given: many players filling different rooms at once
	registry := NewRoomRegistry(8)

	const rooms = 40
	var wg sync.WaitGroup
	for i := range rooms * 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := fmt.Sprintf("room-%d", i%rooms)
			room, _, err := registry.CreateOrGet(id, entity.DefaultProfile())
			if !assert.NoError(t, err) {
				return
			}
			_, err = room.AddPlayer(entity.Player{ID: fmt.Sprintf("P%d", i)})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Then: every room is full and ongoing
	summaries := registry.List()
	require.Len(t, summaries, rooms)
	for _, summary := range summaries {
		assert.Equal(t, 2, summary.PlayerCount)
		assert.Equal(t, entity.StatusOngoing, summary.Status)
	}
}

func TestRoomRegistry_MatchesModel(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		registry := NewRoomRegistry(rapid.IntRange(1, 8).Draw(t, "shards"))
		model := make(map[string]bool)
		ids := []string{"a", "b", "c", "d", "e"}

		steps := rapid.IntRange(1, 60).Draw(t, "steps")
		for range steps {
			id := rapid.SampledFrom(ids).Draw(t, "id")

			switch rapid.IntRange(0, 2).Draw(t, "op") {
			case 0:
				_, created, err := registry.CreateOrGet(id, entity.DefaultProfile())
				if err != nil {
					t.Fatalf("create %s: %v", id, err)
				}
				if created == model[id] {
					t.Fatalf("create %s: created=%v with model %v", id, created, model[id])
				}
				model[id] = true
			case 1:
				_, ok := registry.Remove(id)
				if ok != model[id] {
					t.Fatalf("remove %s: ok=%v with model %v", id, ok, model[id])
				}
				delete(model, id)
			case 2:
				_, err := registry.Get(id)
				if (err == nil) != model[id] {
					t.Fatalf("get %s: err=%v with model %v", id, err, model[id])
				}
			}

			if registry.Len() != len(model) {
				t.Fatalf("len %d, model %d", registry.Len(), len(model))
			}
		}
	})
}
