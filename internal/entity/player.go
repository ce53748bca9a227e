package entity

type Mark string

const (
	MarkEmpty Mark = ""
	MarkX     Mark = "X"
	MarkO     Mark = "O"
)

// Opponent returns the other placeable mark.
func (that Mark) Opponent() Mark {
	switch that {
	case MarkX:
		return MarkO
	case MarkO:
		return MarkX
	default:
		return MarkEmpty
	}
}

type Player struct {
	ID          string `json:"id"`
	DisplayName string `json:"name,omitempty"`
	Mark        Mark   `json:"symbol,omitempty"`
	AccountID   string `json:"account_id,omitempty"`
}

func (that *Player) IsAnonymous() bool {
	return that.AccountID == ""
}

// Move is a request to place the mover's mark at (Row, Col).
type Move struct {
	Row      int    `json:"row"`
	Col      int    `json:"col"`
	PlayerID string `json:"player_id"`
}

// AccountStats are the per-account counters kept by the rewards store.
type AccountStats struct {
	AccountID string `json:"account_id"`
	Wins      int64  `json:"wins"`
	Losses    int64  `json:"losses"`
	Draws     int64  `json:"draws"`
	Coins     int64  `json:"coins"`
}
