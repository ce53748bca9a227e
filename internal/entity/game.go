package entity

import (
	"fmt"

	"github.com/rocketscienceinc/caro-backend/internal/apperror"
)

const (
	StatusFinished = "finished"
	StatusOngoing  = "ongoing"
	StatusWaiting  = "waiting"

	MaxPlayers = 2
)

const (
	OutcomeWin     = "win"
	OutcomeDraw    = "draw"
	OutcomeForfeit = "forfeit"
)

// Game is the mutable core of a room: board, players, turn and status.
// It has no locking of its own; Room serializes every access to it.
type Game struct {
	ID      string
	Profile BoardProfile
	Board   [][]Mark
	Filled  int
	Players []*Player
	Turn    string
	Status  string
	Winner  string
}

func NewGame(id string, profile BoardProfile) *Game {
	return &Game{
		ID:      id,
		Profile: profile,
		Board:   newBoard(profile.SideLength),
		Status:  StatusWaiting,
	}
}

func newBoard(side int) [][]Mark {
	cells := make([]Mark, side*side)
	board := make([][]Mark, side)
	for row := range board {
		board[row] = cells[row*side : (row+1)*side : (row+1)*side]
	}

	return board
}

// Outcome describes how a game ended. On a draw Winner and Loser hold the two
// players in join order.
type Outcome struct {
	RoomID string  `json:"room_id"`
	Reason string  `json:"reason"`
	Winner *Player `json:"winner,omitempty"`
	Loser  *Player `json:"loser,omitempty"`
	IsDraw bool    `json:"is_draw"`
}

func (that *Outcome) WinnerAccountID() string {
	if that.Winner == nil {
		return ""
	}
	return that.Winner.AccountID
}

func (that *Outcome) LoserAccountID() string {
	if that.Loser == nil {
		return ""
	}
	return that.Loser.AccountID
}

func (that *Game) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Game) IsOngoing() bool {
	return that.Status == StatusOngoing
}

func (that *Game) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *Game) IsFull() bool {
	return len(that.Players) >= MaxPlayers
}

func (that *Game) BoardIsFull() bool {
	return that.Filled >= that.Profile.SideLength*that.Profile.SideLength
}

func (that *Game) ConfirmOngoingState() error {
	switch {
	case that.IsWaiting():
		return apperror.ErrGameIsNotStarted
	case that.IsFinished():
		return apperror.ErrGameFinished
	case that.IsOngoing():
		return nil
	default:
		return fmt.Errorf("unknown game status: %s", that.Status)
	}
}

func (that *Game) PlayerByID(id string) *Player {
	for _, player := range that.Players {
		if player.ID == id {
			return player
		}
	}

	return nil
}

// Opponent returns the other seated player, or nil.
func (that *Game) Opponent(id string) *Player {
	for _, player := range that.Players {
		if player.ID != id {
			return player
		}
	}

	return nil
}

func (that *Game) freeMark() Mark {
	if len(that.Players) == 0 {
		return MarkX
	}
	return that.Players[0].Mark.Opponent()
}

// AddPlayer seats a player. The first joiner gets X and the turn, the second
// one gets the remaining mark and starts the game.
func (that *Game) AddPlayer(player Player) error {
	if player.ID == "" {
		return apperror.ErrPlayerRequired
	}

	if that.PlayerByID(player.ID) != nil {
		return nil
	}

	if that.IsFull() {
		return fmt.Errorf("%w: room %s has %d players", apperror.ErrRoomFull, that.ID, len(that.Players))
	}

	player.Mark = that.freeMark()
	that.Players = append(that.Players, &player)

	if len(that.Players) == 1 {
		that.Turn = player.ID
		return nil
	}

	// a finished room keeps its result until it is reset
	if that.IsWaiting() {
		that.Status = StatusOngoing
	}

	return nil
}

// RemovePlayer unseats a player. Leaving an ongoing game forfeits it to the
// remaining player. The returned bool reports whether the player was seated.
func (that *Game) RemovePlayer(playerID string) (*Outcome, bool) {
	index := -1
	for i, player := range that.Players {
		if player.ID == playerID {
			index = i
			break
		}
	}

	if index < 0 {
		return nil, false
	}

	departed := that.Players[index]
	that.Players = append(that.Players[:index:index], that.Players[index+1:]...)

	if len(that.Players) != 1 || !that.IsOngoing() {
		return nil, true
	}

	remaining := that.Players[0]
	that.Status = StatusFinished
	that.Winner = remaining.ID
	that.Turn = ""

	winner, loser := *remaining, *departed

	return &Outcome{
		RoomID: that.ID,
		Reason: OutcomeForfeit,
		Winner: &winner,
		Loser:  &loser,
	}, true
}

// Reset clears the board for a rematch with the seated players.
func (that *Game) Reset() {
	that.Board = newBoard(that.Profile.SideLength)
	that.Filled = 0
	that.Winner = ""
	that.Turn = ""

	if len(that.Players) > 0 {
		that.Turn = that.Players[0].ID
	}

	if len(that.Players) == MaxPlayers {
		that.Status = StatusOngoing
	} else {
		that.Status = StatusWaiting
	}
}

// Finish ends the game. An empty winnerID records a draw.
func (that *Game) Finish(winnerID string) *Outcome {
	that.Status = StatusFinished
	that.Winner = winnerID
	that.Turn = ""

	outcome := &Outcome{RoomID: that.ID}

	if winnerID == "" {
		outcome.Reason = OutcomeDraw
		outcome.IsDraw = true
		if len(that.Players) > 0 {
			first := *that.Players[0]
			outcome.Winner = &first
		}
		if len(that.Players) > 1 {
			second := *that.Players[1]
			outcome.Loser = &second
		}
		return outcome
	}

	outcome.Reason = OutcomeWin
	if winner := that.PlayerByID(winnerID); winner != nil {
		w := *winner
		outcome.Winner = &w
	}
	if loser := that.Opponent(winnerID); loser != nil {
		l := *loser
		outcome.Loser = &l
	}

	return outcome
}
