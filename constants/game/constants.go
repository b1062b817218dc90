package game_constants

import "time"

// Supported game types. Each one has its own portal on the hub screen.
const (
	GameChess         = "chess"
	GameTrivia        = "trivia"
	GameEscapeRoom    = "escape-room"
	GameScavengerHunt = "scavenger-hunt"
	GamePictionary    = "pictionary"
)

// GameTypes lists every game the hub exposes, in portal order.
var GameTypes = []string{GameChess, GameTrivia, GameEscapeRoom, GameScavengerHunt, GamePictionary}

// IsValidGameType reports whether the given name is a known game.
func IsValidGameType(gameType string) bool {
	for _, known := range GameTypes {
		if known == gameType {
			return true
		}
	}
	return false
}

// Invitation lifetime. A pending invitation older than this is dead even if
// no status update ever reached the database.
const InvitationTTL = 5 * time.Minute

// Default chess time control (per side), in seconds.
const DefaultClockSeconds = 600

// Session capacity defaults when the host doesn't configure teams.
const (
	DefaultMaxPlayers       = 8
	MinPlayersToStart       = 2
	DefaultMaxTeams         = 4
	DefaultPlayersPerTeam   = 4
	TwoPlayerSessionPlayers = 2
)

// Points credited to a session score when a match ends.
const (
	WinPoints  = 100
	DrawPoints = 50
)

// How often a match client-side view is reconciled against the canonical
// state stored in Redis.
const ReconcileInterval = 15 * time.Second

// Notifications retained per user in the in-memory feed. Postgres keeps the
// full history.
const MaxFeedNotifications = 200
