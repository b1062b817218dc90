package redis

import "time"

// GameSession represents the hot state of a session while it is running.
// The durable row lives in game_sessions; this copy is what the socket
// handlers read and write on every event.
type GameSession struct {
	Id           string    `json:"id"`
	GameType     string    `json:"game_type"`
	HostUsername string    `json:"host_username"`
	Status       string    `json:"status"`
	MaxPlayers   int       `json:"max_players"`
	PlayerCount  int       `json:"player_count"`
	StartedAt    time.Time `json:"started_at"`
}

// SessionPlayer is a player's hot state inside one session.
type SessionPlayer struct {
	Username  string `json:"username"`
	SessionId string `json:"session_id"`
	Team      string `json:"team"`
	Ready     bool   `json:"ready"`
	Score     int    `json:"score"`
	Winner    bool   `json:"winner"`
}
