package match

import (
	game_constants "Arcadia/constants/game"
	redis_models "Arcadia/models/redis"
	"fmt"
	"time"

	"github.com/notnil/chess"
)

// Terminal reasons recorded on MatchState.Reason.
const (
	ReasonCheckmate   = "checkmate"
	ReasonDraw        = "draw"
	ReasonResignation = "resignation"
	ReasonTimeout     = "timeout"
)

// NewMatchState builds the canonical state for a fresh match: standard
// starting position, white to move, both clocks at the configured control.
func NewMatchState(sessionID, whiteUsername, blackUsername string, clockSeconds int) *redis_models.MatchState {
	if clockSeconds <= 0 {
		clockSeconds = game_constants.DefaultClockSeconds
	}
	game := chess.NewGame()
	return &redis_models.MatchState{
		SessionID:     sessionID,
		WhiteUsername: whiteUsername,
		BlackUsername: blackUsername,
		FEN:           game.Position().String(),
		Turn:          redis_models.ColorWhite,
		Moves:         []string{},
		WhiteClock:    clockSeconds,
		BlackClock:    clockSeconds,
		UpdatedAt:     time.Now(),
	}
}

// gameFromFEN rebuilds a rules-engine game from a stored position.
func gameFromFEN(fen string) (*chess.Game, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("invalid stored position: %v", err)
	}
	return chess.NewGame(opt, chess.UseNotation(chess.UCINotation{})), nil
}

// applyUCI decodes and plays a UCI move on the game. A bare promotion move
// ("e7e8") is auto-resolved to a queen: the UI never prompts for an
// underpromotion piece.
func applyUCI(game *chess.Game, uci string) (*chess.Move, error) {
	notation := chess.UCINotation{}

	tryMove := func(raw string) (*chess.Move, error) {
		move, err := notation.Decode(game.Position(), raw)
		if err != nil {
			return nil, err
		}
		if err := game.Move(move); err != nil {
			return nil, err
		}
		return move, nil
	}

	move, err := tryMove(uci)
	if err == nil {
		return move, nil
	}
	if len(uci) == 4 {
		if move, qErr := tryMove(uci + "q"); qErr == nil {
			return move, nil
		}
	}
	return nil, fmt.Errorf("illegal move %q: %v", uci, err)
}

// ApplyMove validates a move by the given color against the canonical state
// and, when legal, advances the state in place: position, turn owner, move
// history, mover's clock and terminal result. The move is rejected before
// any mutation when the match is over, it is not the mover's turn, or the
// move is illegal against the current position.
func ApplyMove(state *redis_models.MatchState, color string, uci string) error {
	if state.Finished() {
		return fmt.Errorf("match is already over")
	}
	if state.Turn != color {
		return fmt.Errorf("not %s's turn", color)
	}

	game, err := gameFromFEN(state.FEN)
	if err != nil {
		return err
	}

	move, err := applyUCI(game, uci)
	if err != nil {
		return err
	}

	// Charge the mover for the time spent since the previous boundary, and
	// stamp the new boundary so the next charge starts from this move.
	elapsed := int(time.Since(state.UpdatedAt).Seconds())
	if color == redis_models.ColorWhite {
		state.WhiteClock = maxInt(0, state.WhiteClock-elapsed)
	} else {
		state.BlackClock = maxInt(0, state.BlackClock-elapsed)
	}
	state.UpdatedAt = time.Now()

	state.FEN = game.Position().String()
	state.Turn = game.Position().Turn().String()
	state.Moves = append(state.Moves, move.String())
	state.LastMove = move.String()

	switch game.Outcome() {
	case chess.WhiteWon:
		state.Result = redis_models.ResultWhiteWins
		state.Reason = ReasonCheckmate
	case chess.BlackWon:
		state.Result = redis_models.ResultBlackWins
		state.Reason = ReasonCheckmate
	case chess.Draw:
		state.Result = redis_models.ResultDraw
		state.Reason = ReasonDraw
	}

	return nil
}

// Resign marks the match terminal with the opposing color as winner. Control
// message, no validation beyond "not already finished".
func Resign(state *redis_models.MatchState, color string) error {
	if state.Finished() {
		return fmt.Errorf("match is already over")
	}
	if color == redis_models.ColorWhite {
		state.Result = redis_models.ResultBlackWins
	} else {
		state.Result = redis_models.ResultWhiteWins
	}
	state.Reason = ReasonResignation
	return nil
}

// FlagFall marks the match terminal because the given color ran out of time.
func FlagFall(state *redis_models.MatchState, color string) error {
	if state.Finished() {
		return fmt.Errorf("match is already over")
	}
	if color == redis_models.ColorWhite {
		state.WhiteClock = 0
		state.Result = redis_models.ResultBlackWins
	} else {
		state.BlackClock = 0
		state.Result = redis_models.ResultWhiteWins
	}
	state.Reason = ReasonTimeout
	return nil
}

// ClockExpired reports whether the given color's remaining time is exhausted
// once the wall time since the last persisted boundary is charged. Used to
// arbitrate flag-fall reports: a participant claiming the opponent flagged
// while the canonical clock still has time left is lying or badly skewed.
func ClockExpired(state *redis_models.MatchState, color string) bool {
	remaining := state.BlackClock
	if color == redis_models.ColorWhite {
		remaining = state.WhiteClock
	}
	return int(time.Since(state.UpdatedAt).Seconds()) >= remaining
}

// WinnerUsername maps a terminal result onto the winning player's username.
// Empty for draws and unfinished matches.
func WinnerUsername(state *redis_models.MatchState) string {
	switch state.Result {
	case redis_models.ResultWhiteWins:
		return state.WhiteUsername
	case redis_models.ResultBlackWins:
		return state.BlackUsername
	}
	return ""
}

// OppositeColor returns the complement of a color assignment. The responder
// of an invitation takes the complement of whatever the challenger chose.
func OppositeColor(color string) string {
	if color == redis_models.ColorWhite {
		return redis_models.ColorBlack
	}
	return redis_models.ColorWhite
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
