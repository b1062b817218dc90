package sessions

import (
	game_constants "Arcadia/constants/game"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Player roles inside a session.
const (
	RoleHost      = "host"
	RolePlayer    = "player"
	RoleSpectator = "spectator"
)

// Settings configures a session at creation time.
type Settings struct {
	TimeLimit      int    `json:"time_limit"` // seconds, 0 = unlimited
	Difficulty     string `json:"difficulty"`
	TeamsEnabled   bool   `json:"teams_enabled"`
	MaxTeams       int    `json:"max_teams"`
	PlayersPerTeam int    `json:"players_per_team"`
}

// Player is one roster entry of a session.
type Player struct {
	Username string    `json:"username"`
	Icon     int       `json:"icon"`
	Role     string    `json:"role"`
	Team     string    `json:"team"`
	Ready    bool      `json:"ready"`
	Score    int       `json:"score"`
	JoinedAt time.Time `json:"joined_at"`
}

// Results is attached to a session when it finishes. A finished session is
// immutable and lives in the history slice only.
type Results struct {
	Winners     []string       `json:"winners"`
	FinalScores map[string]int `json:"final_scores"`
	Reason      string         `json:"reason"`
}

// Session is one instance of a game being played by a bounded roster.
type Session struct {
	ID         string     `json:"id"`
	GameType   string     `json:"game_type"`
	Host       string     `json:"host"`
	Status     string     `json:"status"`
	MaxPlayers int        `json:"max_players"`
	MinPlayers int        `json:"min_players"`
	Settings   Settings   `json:"settings"`
	Players    []*Player  `json:"players"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
	Results    *Results   `json:"results,omitempty"`
}

// Session status values, re-exported here so callers of the store don't have
// to pull in the postgres models for a plain string comparison.
const (
	StatusWaiting  = "waiting"
	StatusStarting = "starting"
	StatusPlaying  = "playing"
	StatusPaused   = "paused"
	StatusFinished = "finished"
)

// statusRank encodes the forward-only lifecycle. paused and playing share a
// rank so the pair can oscillate; everything else only moves up.
var statusRank = map[string]int{
	StatusWaiting:  0,
	StatusStarting: 1,
	StatusPlaying:  2,
	StatusPaused:   2,
	StatusFinished: 3,
}

// Store is the authoritative in-memory record of active sessions plus the
// archive of finished ones. All methods are safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	active  map[string]*Session
	history []*Session

	stats    map[string]*PlayerStats
	unlocked map[string]map[string]bool // username -> achievement id set
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{
		active:   make(map[string]*Session),
		stats:    make(map[string]*PlayerStats),
		unlocked: make(map[string]map[string]bool),
	}
}

// CreateSession allocates a new waiting session. Capacity is derived from
// the settings: teams enabled means maxTeams x playersPerTeam, two-player
// games are pinned at two seats, everything else gets the default.
func (s *Store) CreateSession(gameType string, host string, settings Settings) *Session {
	maxPlayers := game_constants.DefaultMaxPlayers
	if settings.TeamsEnabled {
		maxTeams := settings.MaxTeams
		if maxTeams <= 0 {
			maxTeams = game_constants.DefaultMaxTeams
		}
		perTeam := settings.PlayersPerTeam
		if perTeam <= 0 {
			perTeam = game_constants.DefaultPlayersPerTeam
		}
		maxPlayers = maxTeams * perTeam
	} else if gameType == game_constants.GameChess {
		maxPlayers = game_constants.TwoPlayerSessionPlayers
	}

	session := &Session{
		ID:         uuid.NewString(),
		GameType:   gameType,
		Host:       host,
		Status:     StatusWaiting,
		MaxPlayers: maxPlayers,
		MinPlayers: game_constants.MinPlayersToStart,
		Settings:   settings,
		Players:    []*Player{},
		CreatedAt:  time.Now(),
	}

	s.mu.Lock()
	s.active[session.ID] = session
	s.mu.Unlock()

	return session
}

// CreateSessionWithID mirrors an externally allocated session (one whose id
// was minted by the database) into the store. Capacity follows the same
// derivation as CreateSession.
func (s *Store) CreateSessionWithID(id string, gameType string, host string, settings Settings) *Session {
	session := s.CreateSession(gameType, host, settings)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, session.ID)
	session.ID = id
	s.active[id] = session
	return session
}

// JoinSession appends a player to the roster. Returns false without mutating
// anything when the session is unknown or already at capacity. Joining twice
// with the same username is a no-op that still reports success.
func (s *Store) JoinSession(sessionID string, player Player) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.active[sessionID]
	if !ok {
		return false
	}

	for _, p := range session.Players {
		if p.Username == player.Username {
			return true
		}
	}

	if len(session.Players) >= session.MaxPlayers {
		return false
	}

	if player.Role == "" {
		player.Role = RolePlayer
	}
	if player.JoinedAt.IsZero() {
		player.JoinedAt = time.Now()
	}
	session.Players = append(session.Players, &player)
	return true
}

// LeaveSession removes a player from the roster. No-op if either the session
// or the player is absent.
func (s *Store) LeaveSession(sessionID string, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.active[sessionID]
	if !ok {
		return
	}

	for i, p := range session.Players {
		if p.Username == username {
			session.Players = append(session.Players[:i], session.Players[i+1:]...)
			return
		}
	}
}

// StartSession transitions the session into playing and stamps the start
// time. Rejects the start when the roster hasn't reached MinPlayers.
func (s *Store) StartSession(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.active[sessionID]
	if !ok {
		return fmt.Errorf("session %s not found", sessionID)
	}
	if len(session.Players) < session.MinPlayers {
		return fmt.Errorf("session %s needs %d players to start, has %d",
			sessionID, session.MinPlayers, len(session.Players))
	}
	if statusRank[session.Status] > statusRank[StatusStarting] {
		return fmt.Errorf("session %s already started", sessionID)
	}

	now := time.Now()
	session.Status = StatusPlaying
	session.StartedAt = &now
	return nil
}

// PauseSession flips a playing session to paused.
func (s *Store) PauseSession(sessionID string) error {
	return s.transition(sessionID, StatusPlaying, StatusPaused)
}

// ResumeSession flips a paused session back to playing.
func (s *Store) ResumeSession(sessionID string) error {
	return s.transition(sessionID, StatusPaused, StatusPlaying)
}

func (s *Store) transition(sessionID, from, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.active[sessionID]
	if !ok {
		return fmt.Errorf("session %s not found", sessionID)
	}
	if session.Status != from {
		return fmt.Errorf("session %s is %s, not %s", sessionID, session.Status, from)
	}
	session.Status = to
	return nil
}

// EndSession archives the session with its results. The session leaves the
// active set, becomes immutable and starts counting towards the
// leaderboard. Returns the achievements each player newly unlocked.
func (s *Store) EndSession(sessionID string, results Results) (map[string][]Achievement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.active[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s not found", sessionID)
	}

	now := time.Now()
	session.Status = StatusFinished
	session.EndedAt = &now
	session.Results = &results

	delete(s.active, sessionID)
	s.history = append(s.history, session)

	// Fold the finished session into cumulative stats and evaluate
	// achievement rules exactly once, on this transition.
	newlyUnlocked := make(map[string][]Achievement)
	winners := make(map[string]bool)
	for _, w := range results.Winners {
		winners[w] = true
	}
	for _, p := range session.Players {
		stats := s.statsFor(p.Username)
		stats.TotalGames++
		stats.TotalScore += p.Score
		if winners[p.Username] {
			stats.Wins++
			stats.Streak++
		} else {
			stats.Streak = 0
		}

		granted := s.grant(p.Username, EvaluateAchievements(stats))
		if len(granted) > 0 {
			newlyUnlocked[p.Username] = granted
		}
	}

	return newlyUnlocked, nil
}

// UpdatePlayerScore adds delta to a player's score. Deltas may be negative
// and there is no floor.
func (s *Store) UpdatePlayerScore(sessionID string, username string, delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.active[sessionID]
	if !ok {
		return
	}
	for _, p := range session.Players {
		if p.Username == username {
			p.Score += delta
			return
		}
	}
}

// SetPlayerReady flips a player's readiness flag.
func (s *Store) SetPlayerReady(sessionID string, username string, ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.active[sessionID]
	if !ok {
		return
	}
	for _, p := range session.Players {
		if p.Username == username {
			p.Ready = ready
			return
		}
	}
}

// GetSession returns the active session with the given id.
func (s *Store) GetSession(sessionID string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.active[sessionID]
	return session, ok
}

// ActiveSessions returns a snapshot of every active session.
func (s *Store) ActiveSessions() []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Session, 0, len(s.active))
	for _, session := range s.active {
		out = append(out, session)
	}
	return out
}

// History returns the archive of finished sessions, oldest first.
func (s *Store) History() []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Session, len(s.history))
	copy(out, s.history)
	return out
}

// StatsFor returns a copy of a player's cumulative stats.
func (s *Store) StatsFor(username string) PlayerStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if stats, ok := s.stats[username]; ok {
		return *stats
	}
	return PlayerStats{Username: username}
}

// UnlockedAchievements returns the ids of every achievement a player holds.
func (s *Store) UnlockedAchievements(username string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.unlocked[username]))
	for id := range s.unlocked[username] {
		ids = append(ids, id)
	}
	return ids
}

// statsFor returns the mutable stats record, allocating on first use.
// Caller must hold the write lock.
func (s *Store) statsFor(username string) *PlayerStats {
	stats, ok := s.stats[username]
	if !ok {
		stats = &PlayerStats{Username: username}
		s.stats[username] = stats
	}
	return stats
}

// grant records achievements the player doesn't already hold and returns the
// ones that were actually new. Caller must hold the write lock.
func (s *Store) grant(username string, candidates []Achievement) []Achievement {
	set, ok := s.unlocked[username]
	if !ok {
		set = make(map[string]bool)
		s.unlocked[username] = set
	}

	var granted []Achievement
	for _, a := range candidates {
		if set[a.ID] {
			continue
		}
		set[a.ID] = true
		granted = append(granted, a)
	}
	return granted
}
