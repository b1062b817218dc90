package portals

import (
	game_constants "Arcadia/constants/game"
	"fmt"
	"sort"
	"sync"
)

// Portal is a fixed, named entry point for one game type, with its own
// waiting queue.
type Portal struct {
	GameType  string `json:"game_type"`
	Active    bool   `json:"active"`
	SessionID string `json:"session_id,omitempty"` // current session, if any
	Capacity  int    `json:"capacity"`

	queue map[string]bool
}

// Queue returns the waiting usernames in a deterministic order.
func (p *Portal) Queue() []string {
	members := make([]string, 0, len(p.queue))
	for username := range p.queue {
		members = append(members, username)
	}
	sort.Strings(members)
	return members
}

// Registry tracks the fixed set of portals, one per game type.
type Registry struct {
	mu      sync.RWMutex
	portals map[string]*Portal
}

// NewRegistry creates a registry with one inactive portal per known game
// type.
func NewRegistry() *Registry {
	portals := make(map[string]*Portal, len(game_constants.GameTypes))
	for _, gameType := range game_constants.GameTypes {
		portals[gameType] = &Portal{
			GameType: gameType,
			Capacity: game_constants.DefaultMaxPlayers,
			queue:    make(map[string]bool),
		}
	}
	return &Registry{portals: portals}
}

// Get returns a snapshot of one portal.
func (r *Registry) Get(gameType string) (Portal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	portal, ok := r.portals[gameType]
	if !ok {
		return Portal{}, fmt.Errorf("unknown portal %q", gameType)
	}
	return r.snapshot(portal), nil
}

// All returns snapshots of every portal in game-type order.
func (r *Registry) All() []Portal {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Portal, 0, len(r.portals))
	for _, gameType := range game_constants.GameTypes {
		out = append(out, r.snapshot(r.portals[gameType]))
	}
	return out
}

// Activate opens a portal, optionally binding it to a running session.
func (r *Registry) Activate(gameType string, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	portal, ok := r.portals[gameType]
	if !ok {
		return fmt.Errorf("unknown portal %q", gameType)
	}
	portal.Active = true
	portal.SessionID = sessionID
	return nil
}

// Deactivate closes a portal. The queue and session reference are cleared
// unconditionally: there is no graceful drain.
func (r *Registry) Deactivate(gameType string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	portal, ok := r.portals[gameType]
	if !ok {
		return fmt.Errorf("unknown portal %q", gameType)
	}
	portal.Active = false
	portal.SessionID = ""
	portal.queue = make(map[string]bool)
	return nil
}

// JoinQueue adds a player to a portal's waiting queue. Idempotent.
func (r *Registry) JoinQueue(gameType string, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	portal, ok := r.portals[gameType]
	if !ok {
		return fmt.Errorf("unknown portal %q", gameType)
	}
	portal.queue[username] = true
	return nil
}

// LeaveQueue removes a player from a portal's waiting queue. Idempotent.
func (r *Registry) LeaveQueue(gameType string, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	portal, ok := r.portals[gameType]
	if !ok {
		return fmt.Errorf("unknown portal %q", gameType)
	}
	delete(portal.queue, username)
	return nil
}

func (r *Registry) snapshot(portal *Portal) Portal {
	copied := *portal
	copied.queue = make(map[string]bool, len(portal.queue))
	for username := range portal.queue {
		copied.queue[username] = true
	}
	return copied
}
