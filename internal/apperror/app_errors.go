package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrRoomFull        = errors.New("room is full")
	ErrRoomClosed      = errors.New("room is closed")
	ErrInvalidProfile  = errors.New("invalid board profile")
	ErrSessionNotFound = errors.New("session not found")
	ErrPlayerRequired  = errors.New("player is required")

	// ErrInvalidMove is the common kind of every rejected move.
	ErrInvalidMove = errors.New("invalid move")

	ErrGameFinished     = fmt.Errorf("%w: game is already finished", ErrInvalidMove)
	ErrGameIsNotStarted = fmt.Errorf("%w: game is not started", ErrInvalidMove)
	ErrNotYourTurn      = fmt.Errorf("%w: it's not your turn", ErrInvalidMove)
	ErrCellOccupied     = fmt.Errorf("%w: cell is already occupied", ErrInvalidMove)
	ErrOutOfBounds      = fmt.Errorf("%w: cell is out of bounds", ErrInvalidMove)
)
