package match

import (
	redis_models "Arcadia/models/redis"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApplyMoveAlternatesTurn(t *testing.T) {
	state := NewMatchState("s1", "whitey", "blacky", 600)
	assert.Equal(t, redis_models.ColorWhite, state.Turn)

	assert.NoError(t, ApplyMove(state, redis_models.ColorWhite, "e2e4"))
	assert.Equal(t, redis_models.ColorBlack, state.Turn)
	assert.Equal(t, "e2e4", state.LastMove)
	assert.Len(t, state.Moves, 1)

	assert.NoError(t, ApplyMove(state, redis_models.ColorBlack, "e7e5"))
	assert.Equal(t, redis_models.ColorWhite, state.Turn)
	assert.Len(t, state.Moves, 2)
}

func TestApplyMoveOutOfTurnRejected(t *testing.T) {
	state := NewMatchState("s1", "whitey", "blacky", 600)
	before := state.FEN

	// Black tries to move first
	assert.Error(t, ApplyMove(state, redis_models.ColorBlack, "e7e5"))
	assert.Equal(t, before, state.FEN)
	assert.Equal(t, redis_models.ColorWhite, state.Turn)

	// White moving twice in a row is also rejected
	assert.NoError(t, ApplyMove(state, redis_models.ColorWhite, "e2e4"))
	assert.Error(t, ApplyMove(state, redis_models.ColorWhite, "d2d4"))
}

func TestApplyMoveIllegalRejected(t *testing.T) {
	state := NewMatchState("s1", "whitey", "blacky", 600)
	before := state.FEN

	assert.Error(t, ApplyMove(state, redis_models.ColorWhite, "e2e5"))
	assert.Error(t, ApplyMove(state, redis_models.ColorWhite, "nonsense"))
	assert.Equal(t, before, state.FEN)
	assert.Empty(t, state.Moves)
}

func TestCheckmateEndsMatch(t *testing.T) {
	state := NewMatchState("s1", "whitey", "blacky", 600)

	// Fool's mate
	assert.NoError(t, ApplyMove(state, "w", "f2f3"))
	assert.NoError(t, ApplyMove(state, "b", "e7e5"))
	assert.NoError(t, ApplyMove(state, "w", "g2g4"))
	assert.NoError(t, ApplyMove(state, "b", "d8h4"))

	assert.True(t, state.Finished())
	assert.Equal(t, redis_models.ResultBlackWins, state.Result)
	assert.Equal(t, ReasonCheckmate, state.Reason)
	assert.Equal(t, "blacky", WinnerUsername(state))

	// No moves after a terminal state
	assert.Error(t, ApplyMove(state, "w", "e2e4"))
}

func TestAutoQueenPromotion(t *testing.T) {
	// White pawn on a7, bare promotion square
	state := NewMatchState("s1", "whitey", "blacky", 600)
	state.FEN = "8/P6k/8/8/8/8/8/K7 w - - 0 1"

	// Bare "a7a8" must resolve to a queen promotion without prompting
	assert.NoError(t, ApplyMove(state, "w", "a7a8"))
	assert.Equal(t, "a7a8q", state.LastMove)
}

func TestResign(t *testing.T) {
	state := NewMatchState("s1", "whitey", "blacky", 600)
	assert.NoError(t, Resign(state, redis_models.ColorWhite))
	assert.Equal(t, redis_models.ResultBlackWins, state.Result)
	assert.Equal(t, ReasonResignation, state.Reason)
	assert.Error(t, Resign(state, redis_models.ColorBlack))
}

func TestFlagFall(t *testing.T) {
	state := NewMatchState("s1", "whitey", "blacky", 600)
	assert.NoError(t, FlagFall(state, redis_models.ColorBlack))
	assert.Equal(t, 0, state.BlackClock)
	assert.Equal(t, redis_models.ResultWhiteWins, state.Result)
	assert.Equal(t, ReasonTimeout, state.Reason)
	assert.Equal(t, "whitey", WinnerUsername(state))
}

func TestOppositeColor(t *testing.T) {
	assert.Equal(t, "b", OppositeColor("w"))
	assert.Equal(t, "w", OppositeColor("b"))
}

func TestApplyMoveStampsClockBoundary(t *testing.T) {
	state := NewMatchState("s1", "whitey", "blacky", 600)
	state.UpdatedAt = time.Now().Add(-10 * time.Second)

	assert.NoError(t, ApplyMove(state, redis_models.ColorWhite, "e2e4"))
	// The ten stale seconds are charged once, and the boundary moves up to
	// the move itself so they can never be charged again
	assert.InDelta(t, 590, state.WhiteClock, 1)
	assert.WithinDuration(t, time.Now(), state.UpdatedAt, time.Second)

	assert.NoError(t, ApplyMove(state, redis_models.ColorBlack, "e7e5"))
	assert.InDelta(t, 600, state.BlackClock, 1)
}

func TestClockExpired(t *testing.T) {
	state := NewMatchState("s1", "whitey", "blacky", 300)
	state.BlackClock = 600

	assert.False(t, ClockExpired(state, redis_models.ColorWhite))

	state.UpdatedAt = time.Now().Add(-301 * time.Second)
	assert.True(t, ClockExpired(state, redis_models.ColorWhite))
	assert.False(t, ClockExpired(state, redis_models.ColorBlack))
}
