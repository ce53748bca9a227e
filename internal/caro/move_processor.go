package caro

import (
	"fmt"

	"github.com/rocketscienceinc/caro-backend/internal/apperror"
	"github.com/rocketscienceinc/caro-backend/internal/entity"
)

type direction struct {
	dRow, dCol int
}

// lines through a cell: horizontal, vertical, "\" and "/".
var directions = [4]direction{
	{0, 1},
	{1, 0},
	{1, 1},
	{1, -1},
}

// ApplyMove - validates the move, writes the mover's mark and decides whether the
// game continues. A non-nil Outcome is returned when the move ended the game.
// A rejected move leaves the game untouched.
func ApplyMove(game *entity.Game, move entity.Move) (*entity.Outcome, error) {
	if err := game.ConfirmOngoingState(); err != nil {
		return nil, err
	}

	player, err := validateMove(game, move)
	if err != nil {
		return nil, fmt.Errorf("invalid turn: %w", err)
	}

	game.Board[move.Row][move.Col] = player.Mark
	game.Filled++

	return updateGameStatus(game, player, move), nil
}

// Play - applies the move inside the room's critical section.
func Play(room *entity.Room, move entity.Move) (entity.RoomState, *entity.Outcome, error) {
	return room.Play(func(game *entity.Game) (*entity.Outcome, error) {
		return ApplyMove(game, move)
	})
}

// validateMove - checks if the move is valid.
func validateMove(game *entity.Game, move entity.Move) (*entity.Player, error) {
	if game.Turn != move.PlayerID {
		return nil, apperror.ErrNotYourTurn
	}

	player := game.PlayerByID(move.PlayerID)
	if player == nil {
		return nil, apperror.ErrNotYourTurn
	}

	if !inBounds(game.Profile.SideLength, move.Row, move.Col) {
		return nil, apperror.ErrOutOfBounds
	}

	if game.Board[move.Row][move.Col] != entity.MarkEmpty {
		return nil, apperror.ErrCellOccupied
	}

	return player, nil
}

// updateGameStatus - checks the game status after a move.
func updateGameStatus(game *entity.Game, player *entity.Player, move entity.Move) *entity.Outcome {
	switch {
	case checkWinner(game.Board, move.Row, move.Col, game.Profile.WinLength):
		return game.Finish(player.ID)
	case game.BoardIsFull():
		return game.Finish("")
	default:
		if opponent := game.Opponent(player.ID); opponent != nil {
			game.Turn = opponent.ID
		}
		return nil
	}
}

// checkWinner - reports whether the mark at (row, col) completes a run of at
// least winLength along any of the four lines through it.
func checkWinner(board [][]entity.Mark, row, col, winLength int) bool {
	mark := board[row][col]
	if mark == entity.MarkEmpty {
		return false
	}

	for _, dir := range directions {
		run := 1 +
			runLength(board, mark, row, col, dir.dRow, dir.dCol, winLength-1) +
			runLength(board, mark, row, col, -dir.dRow, -dir.dCol, winLength-1)
		if run >= winLength {
			return true
		}
	}

	return false
}

// runLength - counts same-mark cells stepping away from (row, col), at most limit.
func runLength(board [][]entity.Mark, mark entity.Mark, row, col, dRow, dCol, limit int) int {
	side := len(board)
	count := 0

	for step := 1; step <= limit; step++ {
		r, c := row+dRow*step, col+dCol*step
		if !inBounds(side, r, c) || board[r][c] != mark {
			break
		}
		count++
	}

	return count
}

func inBounds(side, row, col int) bool {
	return row >= 0 && row < side && col >= 0 && col < side
}
