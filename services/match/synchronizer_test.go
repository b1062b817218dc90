package match

import (
	redis_models "Arcadia/models/redis"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// pair wires two synchronizers through an in-memory "shared store": every
// publish lands in store.canonical and is delivered to the other side, the
// way the realtime channel echoes a move back to both participants.
type pair struct {
	white, black *Synchronizer
	canonical    *redis_models.MatchState
	terminal     map[string]int
}

func newPair(t *testing.T) *pair {
	t.Helper()
	p := &pair{terminal: make(map[string]int)}
	initial := NewMatchState("s1", "whitey", "blacky", 600)

	publish := func(state *redis_models.MatchState) error {
		copied := *state
		p.canonical = &copied
		return nil
	}

	whiteInit := *initial
	blackInit := *initial
	p.white = NewSynchronizer("w", &whiteInit, publish,
		func(*redis_models.MatchState) { p.terminal["w"]++ })
	p.black = NewSynchronizer("b", &blackInit, publish,
		func(*redis_models.MatchState) { p.terminal["b"]++ })
	return p
}

// deliver broadcasts the last published state to both sides, echo included.
func (p *pair) deliver() (whiteApplied, blackApplied bool) {
	copyW := *p.canonical
	copyB := *p.canonical
	return p.white.ReceiveRemote(&copyW), p.black.ReceiveRemote(&copyB)
}

func TestMoveFlowsToOpponentOnce(t *testing.T) {
	p := newPair(t)

	assert.True(t, p.white.MyTurn())
	assert.False(t, p.black.MyTurn())

	assert.NoError(t, p.white.SubmitMove("e2e4"))
	assert.Equal(t, "b", p.white.State().Turn)

	whiteApplied, blackApplied := p.deliver()
	// The echo back to white must be a no-op; black adopts the move
	assert.False(t, whiteApplied)
	assert.True(t, blackApplied)
	assert.True(t, p.black.MyTurn())
	assert.Equal(t, p.white.State().FEN, p.black.State().FEN)

	// A duplicate delivery of the same update is idempotent
	_, blackAgain := p.deliver()
	assert.False(t, blackAgain)
}

func TestFullExchange(t *testing.T) {
	p := newPair(t)

	moves := []struct {
		side *Synchronizer
		uci  string
	}{
		{p.white, "e2e4"}, {p.black, "e7e5"},
		{p.white, "g1f3"}, {p.black, "b8c6"},
	}
	for _, m := range moves {
		assert.NoError(t, m.side.SubmitMove(m.uci))
		p.deliver()
	}

	assert.Equal(t, p.white.State().FEN, p.black.State().FEN)
	assert.Len(t, p.white.State().Moves, 4)
	assert.Len(t, p.black.State().Moves, 4)
	assert.True(t, p.white.MyTurn())
}

func TestSubmitMoveOutOfTurn(t *testing.T) {
	p := newPair(t)
	assert.Error(t, p.black.SubmitMove("e7e5"))
}

func TestStaleUpdateIgnored(t *testing.T) {
	p := newPair(t)

	assert.NoError(t, p.white.SubmitMove("e2e4"))
	p.deliver()

	// An update claiming it's black's turn but carrying black's own held
	// position must not be applied
	stale := p.black.State()
	assert.False(t, p.black.ReceiveRemote(&stale))
}

func TestResignationPropagates(t *testing.T) {
	p := newPair(t)

	assert.NoError(t, p.white.Resign())
	assert.Equal(t, redis_models.ResultBlackWins, p.white.State().Result)
	assert.Equal(t, 1, p.terminal["w"])

	// Terminal updates are adopted without the turn/position guards
	_, blackApplied := p.deliver()
	assert.True(t, blackApplied)
	assert.Equal(t, redis_models.ResultBlackWins, p.black.State().Result)
	assert.Equal(t, ReasonResignation, p.black.State().Reason)
	assert.Equal(t, 1, p.terminal["b"])
}

func TestClockFlagFall(t *testing.T) {
	p := newPair(t)

	// White holds the turn; burn the whole clock
	assert.False(t, p.white.TickClock(599))
	assert.True(t, p.white.TickClock(1))

	state := p.white.State()
	assert.Equal(t, 0, state.WhiteClock)
	assert.Equal(t, redis_models.ResultBlackWins, state.Result)
	assert.Equal(t, ReasonTimeout, state.Reason)
	assert.Equal(t, 1, p.terminal["w"])

	// Further ticks after the terminal state do nothing
	assert.False(t, p.white.TickClock(1))
}

func TestReconcileAdoptsNewerCanonical(t *testing.T) {
	p := newPair(t)

	assert.NoError(t, p.white.SubmitMove("e2e4"))
	// Simulate a lost push: black never receives the broadcast but later
	// reconciles against the canonical state
	canonical := *p.canonical
	canonical.Version = 5

	held := p.black.State()
	assert.Equal(t, uint64(0), held.Version)

	assert.True(t, p.black.Reconcile(&canonical))
	assert.True(t, p.black.MyTurn())

	// Older or equal canonical versions are ignored
	assert.False(t, p.black.Reconcile(&canonical))
	assert.False(t, p.black.Reconcile(nil))
}

func TestRunClockStopsOnTerminalReconcile(t *testing.T) {
	p := newPair(t)

	// The canonical store already holds a finished match; the reconcile tick
	// must adopt it and stop the clock loop
	finished := p.white.State()
	finished.Version = 3
	finished.Result = redis_models.ResultBlackWins
	finished.Reason = ReasonResignation

	fetch := func() (*redis_models.MatchState, error) {
		copied := finished
		return &copied, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		p.white.RunClock(ctx, fetch, 10*time.Millisecond)
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		t.Fatal("RunClock did not stop after adopting a terminal state")
	}
	assert.Equal(t, redis_models.ResultBlackWins, p.white.State().Result)
	assert.Equal(t, 1, p.terminal["w"])
}

func TestTickedSecondsNotChargedAgainOnMove(t *testing.T) {
	p := newPair(t)

	// The held state carries an old boundary; the ticker has been charging
	// the same interval second by second
	p.white.state.UpdatedAt = time.Now().Add(-30 * time.Second)
	for i := 0; i < 30; i++ {
		assert.False(t, p.white.TickClock(1))
	}
	assert.Equal(t, 570, p.white.State().WhiteClock)

	// The move must not charge those thirty seconds a second time
	assert.NoError(t, p.white.SubmitMove("e2e4"))
	assert.InDelta(t, 570, p.white.State().WhiteClock, 1)
}

func TestRunClockStopsWhenCanonicalGone(t *testing.T) {
	p := newPair(t)

	// The canonical state was archived and deleted; the loop has nothing
	// left to tick for and must exit instead of spinning
	fetch := func() (*redis_models.MatchState, error) {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		p.white.RunClock(ctx, fetch, 10*time.Millisecond)
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		t.Fatal("RunClock did not stop after the canonical state vanished")
	}
}
