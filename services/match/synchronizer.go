package match

import (
	redis_models "Arcadia/models/redis"
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// PublishFunc pushes a state snapshot to the shared store and broadcasts it
// to the opponent. Called outside the synchronizer lock.
type PublishFunc func(state *redis_models.MatchState) error

// FetchFunc reads the canonical state back from the shared store.
type FetchFunc func() (*redis_models.MatchState, error)

// Synchronizer keeps one participant's view of a match consistent with the
// canonical state. Each side of a match owns one. Local moves are validated
// and applied before publishing; remote updates are adopted only when they
// actually carry the opponent's move, so a participant never re-applies a
// move that echoes back from the broadcast channel.
type Synchronizer struct {
	mu      sync.Mutex
	color   string // this participant's color assignment
	state   *redis_models.MatchState
	publish PublishFunc

	// Invoked once when the match reaches a terminal state.
	onTerminal func(state *redis_models.MatchState)
	terminated bool
}

// NewSynchronizer wraps an initial state snapshot for the given color.
func NewSynchronizer(color string, state *redis_models.MatchState, publish PublishFunc,
	onTerminal func(*redis_models.MatchState)) *Synchronizer {
	return &Synchronizer{
		color:      color,
		state:      state,
		publish:    publish,
		onTerminal: onTerminal,
	}
}

// State returns a snapshot copy of the currently held state.
func (s *Synchronizer) State() redis_models.MatchState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Synchronizer) snapshot() redis_models.MatchState {
	copied := *s.state
	copied.Moves = append([]string(nil), s.state.Moves...)
	return copied
}

// MyTurn reports whether this participant currently owns the turn.
func (s *Synchronizer) MyTurn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Turn == s.color && !s.state.Finished()
}

// SubmitMove validates a local move, applies it, then publishes the new
// canonical state. The turn flips to the opponent before publishing, so the
// echoed broadcast fails the "it is my turn" guard on this side.
func (s *Synchronizer) SubmitMove(uci string) error {
	s.mu.Lock()
	// The ticker already charged the mover second by second; reset the
	// boundary so the move itself charges nothing on top.
	s.state.UpdatedAt = time.Now()
	if err := ApplyMove(s.state, s.color, uci); err != nil {
		s.mu.Unlock()
		return err
	}
	snapshot := s.snapshot()
	s.mu.Unlock()

	if err := s.publish(&snapshot); err != nil {
		return fmt.Errorf("error publishing move: %v", err)
	}
	s.fireTerminal(&snapshot)
	return nil
}

// ReceiveRemote folds a broadcast update into the local view.
//
// A terminal update (resignation, flag fall, checkmate reported by the
// opponent) is adopted unconditionally. Anything else is applied only when
// both guards hold: the update says it is now this side's turn, and its
// position differs from the held one. The double condition drops both the
// echo of this side's own move and stale duplicates.
func (s *Synchronizer) ReceiveRemote(update *redis_models.MatchState) bool {
	s.mu.Lock()

	if update.Finished() {
		s.state = update
		snapshot := s.snapshot()
		s.mu.Unlock()
		s.fireTerminal(&snapshot)
		return true
	}

	if update.Turn != s.color || update.FEN == s.state.FEN {
		s.mu.Unlock()
		return false
	}

	s.state = update
	s.mu.Unlock()
	return true
}

// TickClock charges elapsed seconds to whichever color owns the turn. When
// the local player's opponent flags, this side declares the win, publishes
// the terminal state and reports true. Best-effort wall clock: both sides
// tick independently and drift is accepted.
func (s *Synchronizer) TickClock(seconds int) bool {
	s.mu.Lock()
	if s.state.Finished() {
		s.mu.Unlock()
		return false
	}

	var remaining int
	if s.state.Turn == redis_models.ColorWhite {
		s.state.WhiteClock = maxInt(0, s.state.WhiteClock-seconds)
		remaining = s.state.WhiteClock
	} else {
		s.state.BlackClock = maxInt(0, s.state.BlackClock-seconds)
		remaining = s.state.BlackClock
	}

	if remaining > 0 {
		s.mu.Unlock()
		return false
	}

	flagged := s.state.Turn
	if err := FlagFall(s.state, flagged); err != nil {
		s.mu.Unlock()
		return false
	}
	snapshot := s.snapshot()
	s.mu.Unlock()

	if err := s.publish(&snapshot); err != nil {
		log.Printf("[CLOCK-ERROR] Error publishing flag fall: %v", err)
	}
	s.fireTerminal(&snapshot)
	return true
}

// Resign broadcasts this side's resignation.
func (s *Synchronizer) Resign() error {
	s.mu.Lock()
	if err := Resign(s.state, s.color); err != nil {
		s.mu.Unlock()
		return err
	}
	snapshot := s.snapshot()
	s.mu.Unlock()

	if err := s.publish(&snapshot); err != nil {
		return fmt.Errorf("error publishing resignation: %v", err)
	}
	s.fireTerminal(&snapshot)
	return nil
}

// Reconcile adopts the canonical state when it has moved past the held one.
// Push delivery can drop an update; without this, the two sides would
// silently disagree about whose turn it is until the next successful push.
func (s *Synchronizer) Reconcile(canonical *redis_models.MatchState) bool {
	if canonical == nil {
		return false
	}
	s.mu.Lock()
	if canonical.Version <= s.state.Version {
		s.mu.Unlock()
		return false
	}

	s.state = canonical
	snapshot := s.snapshot()
	s.mu.Unlock()

	if snapshot.Finished() {
		s.fireTerminal(&snapshot)
	}
	return true
}

// RunClock ticks the countdown every second and reconciles against the
// canonical state at the given interval, until the context is cancelled or
// the match ends.
func (s *Synchronizer) RunClock(ctx context.Context, fetch FetchFunc, reconcileEvery time.Duration) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	reconcile := time.NewTicker(reconcileEvery)
	defer reconcile.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.TickClock(1) {
				return
			}
		case <-reconcile.C:
			canonical, err := fetch()
			if err != nil {
				log.Printf("[RECONCILE-ERROR] Error fetching canonical state: %v", err)
				continue
			}
			if canonical == nil {
				// State gone from the store: the match was archived and
				// cleaned up, nothing left to tick for
				return
			}
			if s.Reconcile(canonical) {
				log.Printf("[RECONCILE] Adopted canonical state v%d for session %s",
					canonical.Version, canonical.SessionID)
				if canonical.Finished() {
					return
				}
			}
		}
	}
}

func (s *Synchronizer) fireTerminal(state *redis_models.MatchState) {
	if !state.Finished() || s.onTerminal == nil {
		return
	}
	s.mu.Lock()
	if s.terminated {
		s.mu.Unlock()
		return
	}
	s.terminated = true
	s.mu.Unlock()
	s.onTerminal(state)
}
