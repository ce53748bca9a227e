package entity

import (
	"testing"

	"github.com/rocketscienceinc/caro-backend/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGame(t *testing.T, playerIDs ...string) *Game {
	t.Helper()

	game := NewGame("room1", DefaultProfile())
	for _, id := range playerIDs {
		require.NoError(t, game.AddPlayer(Player{ID: id, DisplayName: id, AccountID: "acc-" + id}))
	}

	return game
}

func TestGameStatusMethods(t *testing.T) {
	t.Run("IsFinished returns true when game status is finished", func(t *testing.T) {
		// Given: a game with StatusFinished
		game := &Game{Status: StatusFinished}

		// Then: it should report finished
		assert.True(t, game.IsFinished())
	})

	t.Run("IsOngoing returns true when game status is ongoing", func(t *testing.T) {
		// Given: a game with StatusOngoing
		game := &Game{Status: StatusOngoing}

		// Then: it should report ongoing
		assert.True(t, game.IsOngoing())
	})

	t.Run("IsWaiting returns true when game status is waiting", func(t *testing.T) {
		// Given: a game with StatusWaiting
		game := &Game{Status: StatusWaiting}

		// Then: it should report waiting
		assert.True(t, game.IsWaiting())
	})
}

func TestGame_ConfirmOngoingState(t *testing.T) {
	t.Run("Returns nil when game is ongoing", func(t *testing.T) {
		game := &Game{Status: StatusOngoing}

		assert.NoError(t, game.ConfirmOngoingState())
	})

	t.Run("Returns ErrGameIsNotStarted when game is waiting", func(t *testing.T) {
		game := &Game{Status: StatusWaiting}

		err := game.ConfirmOngoingState()

		assert.ErrorIs(t, err, apperror.ErrGameIsNotStarted)
		assert.ErrorIs(t, err, apperror.ErrInvalidMove)
	})

	t.Run("Returns ErrGameFinished when game is finished", func(t *testing.T) {
		game := &Game{Status: StatusFinished}

		assert.ErrorIs(t, game.ConfirmOngoingState(), apperror.ErrGameFinished)
	})

	t.Run("Returns error for unknown game status", func(t *testing.T) {
		game := &Game{Status: "unknown"}

		err := game.ConfirmOngoingState()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown game status")
	})
}

func TestNewGame(t *testing.T) {
	// When: a game is created from a 10x10 profile
	profile, err := ProfileByName("small_10x10")
	require.NoError(t, err)

	game := NewGame("room1", profile)

	// Then: the board has the profile's dimensions and is empty
	require.Len(t, game.Board, 10)
	for _, row := range game.Board {
		require.Len(t, row, 10)
		for _, cell := range row {
			assert.Equal(t, MarkEmpty, cell)
		}
	}
	assert.Equal(t, StatusWaiting, game.Status)
	assert.Empty(t, game.Players)
	assert.Empty(t, game.Turn)
}

func TestGame_AddPlayer(t *testing.T) {
	t.Run("First joiner gets X and the turn", func(t *testing.T) {
		// Given: an empty room
		game := newTestGame(t)

		// When: P1 joins
		require.NoError(t, game.AddPlayer(Player{ID: "P1"}))

		// Then: P1 plays X, holds the turn and the room keeps waiting
		assert.Equal(t, MarkX, game.Players[0].Mark)
		assert.Equal(t, "P1", game.Turn)
		assert.Equal(t, StatusWaiting, game.Status)
	})

	t.Run("Second joiner gets O and starts the game", func(t *testing.T) {
		// Given: a room with P1
		game := newTestGame(t, "P1")

		// When: P2 joins
		require.NoError(t, game.AddPlayer(Player{ID: "P2"}))

		// Then: P2 plays O and the game is ongoing with P1 to move
		assert.Equal(t, MarkO, game.Players[1].Mark)
		assert.Equal(t, StatusOngoing, game.Status)
		assert.Equal(t, "P1", game.Turn)
	})

	t.Run("Third joiner is rejected with ErrRoomFull", func(t *testing.T) {
		// Given: a full room
		game := newTestGame(t, "P1", "P2")

		// When: P3 tries to join
		err := game.AddPlayer(Player{ID: "P3"})

		// Then: the join is rejected and the room is unchanged
		require.ErrorIs(t, err, apperror.ErrRoomFull)
		assert.Len(t, game.Players, 2)
		assert.Nil(t, game.PlayerByID("P3"))
	})

	t.Run("Rejoining player keeps the seat", func(t *testing.T) {
		game := newTestGame(t, "P1", "P2")

		require.NoError(t, game.AddPlayer(Player{ID: "P1"}))

		assert.Len(t, game.Players, 2)
		assert.Equal(t, MarkX, game.PlayerByID("P1").Mark)
	})

	t.Run("Empty player id is rejected", func(t *testing.T) {
		game := newTestGame(t)

		assert.ErrorIs(t, game.AddPlayer(Player{}), apperror.ErrPlayerRequired)
	})

	t.Run("Joiner after a forfeit gets the free mark", func(t *testing.T) {
		// Given: X left an ongoing game and the room was reset
		game := newTestGame(t, "P1", "P2")
		game.RemovePlayer("P1")
		game.Reset()

		// When: P3 joins
		require.NoError(t, game.AddPlayer(Player{ID: "P3"}))

		// Then: P3 takes X, the marks stay distinct and P2 keeps the first turn
		assert.Equal(t, MarkO, game.PlayerByID("P2").Mark)
		assert.Equal(t, MarkX, game.PlayerByID("P3").Mark)
		assert.Equal(t, StatusOngoing, game.Status)
		assert.Equal(t, "P2", game.Turn)
	})
}

func TestGame_RemovePlayer(t *testing.T) {
	t.Run("Unknown player is a no-op", func(t *testing.T) {
		game := newTestGame(t, "P1", "P2")

		outcome, removed := game.RemovePlayer("nobody")

		assert.False(t, removed)
		assert.Nil(t, outcome)
		assert.Len(t, game.Players, 2)
		assert.Equal(t, StatusOngoing, game.Status)
	})

	t.Run("Leaving a waiting room keeps it waiting", func(t *testing.T) {
		game := newTestGame(t, "P1")

		outcome, removed := game.RemovePlayer("P1")

		assert.True(t, removed)
		assert.Nil(t, outcome)
		assert.Empty(t, game.Players)
		assert.Equal(t, StatusWaiting, game.Status)
	})

	t.Run("Leaving an ongoing game forfeits it", func(t *testing.T) {
		// Given: an ongoing game between P1 and P2
		game := newTestGame(t, "P1", "P2")

		// When: P1 leaves
		outcome, removed := game.RemovePlayer("P1")

		// Then: P2 wins by forfeit
		require.True(t, removed)
		require.NotNil(t, outcome)
		assert.Equal(t, StatusFinished, game.Status)
		assert.Equal(t, "P2", game.Winner)
		assert.Equal(t, OutcomeForfeit, outcome.Reason)
		assert.Equal(t, "acc-P2", outcome.WinnerAccountID())
		assert.Equal(t, "acc-P1", outcome.LoserAccountID())
		assert.False(t, outcome.IsDraw)
	})

	t.Run("Leaving a finished game only updates bookkeeping", func(t *testing.T) {
		game := newTestGame(t, "P1", "P2")
		game.Finish("P1")

		outcome, removed := game.RemovePlayer("P2")

		assert.True(t, removed)
		assert.Nil(t, outcome)
		assert.Equal(t, StatusFinished, game.Status)
		assert.Equal(t, "P1", game.Winner)
	})
}

func TestGame_Reset(t *testing.T) {
	t.Run("Reset with two players restarts the game", func(t *testing.T) {
		// Given: a finished game with marks on the board
		game := newTestGame(t, "P1", "P2")
		game.Board[3][3] = MarkX
		game.Filled = 1
		game.Finish("P1")

		// When: the room is reset
		game.Reset()

		// Then: the board is empty, the winner cleared and P1 moves first
		assert.Equal(t, StatusOngoing, game.Status)
		assert.Empty(t, game.Winner)
		assert.Equal(t, "P1", game.Turn)
		assert.Equal(t, 0, game.Filled)
		assert.Equal(t, MarkEmpty, game.Board[3][3])
		assert.Len(t, game.Board, game.Profile.SideLength)
	})

	t.Run("Reset with one player returns to waiting", func(t *testing.T) {
		game := newTestGame(t, "P1", "P2")
		game.RemovePlayer("P1")

		game.Reset()

		assert.Equal(t, StatusWaiting, game.Status)
		assert.Equal(t, "P2", game.Turn)
		assert.Empty(t, game.Winner)
	})
}

func TestGame_Finish(t *testing.T) {
	t.Run("Win records winner and loser", func(t *testing.T) {
		game := newTestGame(t, "P1", "P2")

		outcome := game.Finish("P2")

		assert.Equal(t, StatusFinished, game.Status)
		assert.Equal(t, "P2", game.Winner)
		assert.Empty(t, game.Turn)
		assert.Equal(t, OutcomeWin, outcome.Reason)
		assert.Equal(t, "P2", outcome.Winner.ID)
		assert.Equal(t, "P1", outcome.Loser.ID)
	})

	t.Run("Draw has no winner", func(t *testing.T) {
		game := newTestGame(t, "P1", "P2")

		outcome := game.Finish("")

		assert.Equal(t, StatusFinished, game.Status)
		assert.Empty(t, game.Winner)
		assert.True(t, outcome.IsDraw)
		assert.Equal(t, OutcomeDraw, outcome.Reason)
		assert.Equal(t, "acc-P1", outcome.WinnerAccountID())
		assert.Equal(t, "acc-P2", outcome.LoserAccountID())
	})
}

func TestMark_Opponent(t *testing.T) {
	assert.Equal(t, MarkO, MarkX.Opponent())
	assert.Equal(t, MarkX, MarkO.Opponent())
	assert.Equal(t, MarkEmpty, MarkEmpty.Opponent())
}

func TestPlayer_IsAnonymous(t *testing.T) {
	assert.True(t, (&Player{ID: "P1"}).IsAnonymous())
	assert.False(t, (&Player{ID: "P1", AccountID: "acc-P1"}).IsAnonymous())
}
