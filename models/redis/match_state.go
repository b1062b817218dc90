package redis

import "time"

// Chess colors as stored in match state and invitation configs.
const (
	ColorWhite = "w"
	ColorBlack = "b"
)

// Match results. Empty string means the match is still running.
const (
	ResultWhiteWins = "white"
	ResultBlackWins = "black"
	ResultDraw      = "draw"
)

// MatchState is the canonical state of one two-player turn-based match.
// The FEN is the single source of truth for the board; everything else is
// derived bookkeeping that clients need to render without replaying moves.
type MatchState struct {
	SessionID    string    `json:"session_id"`
	WhiteUsername string   `json:"white_username"`
	BlackUsername string   `json:"black_username"`
	FEN          string    `json:"fen"`
	Turn         string    `json:"turn"` // "w" or "b": who moves next
	Moves        []string  `json:"moves"`
	LastMove     string    `json:"last_move"`
	WhiteClock   int       `json:"white_clock"` // remaining seconds
	BlackClock   int       `json:"black_clock"`
	Result       string    `json:"result"` // empty while running
	Reason       string    `json:"reason"` // checkmate | draw | resignation | timeout
	Version      uint64    `json:"version"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Finished returns true once a terminal result has been recorded.
func (m *MatchState) Finished() bool {
	return m.Result != ""
}
