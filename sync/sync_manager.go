package sync

import (
	redis_models "Arcadia/models/redis"
	"Arcadia/services/redis"
	"Arcadia/services/sessions"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type SyncManager struct {
	redisClient *redis.RedisClient
	db          *gorm.DB
}

// NewSyncManager creates a new instance of the synchronization manager
func NewSyncManager(redisClient *redis.RedisClient, db *gorm.DB) *SyncManager {
	return &SyncManager{
		redisClient: redisClient,
		db:          db,
	}
}

// SyncMatchClocks persists the authoritative remaining time at a move
// boundary, so a reconnecting client resumes with approximately correct
// clocks. Best effort: some drift is accepted.
func (sm *SyncManager) SyncMatchClocks(sessionID string) error {
	state, err := sm.redisClient.GetMatchState(sessionID)
	if err != nil {
		return fmt.Errorf("error getting match state from Redis: %v", err)
	}
	if state == nil {
		return fmt.Errorf("no match state for session %s", sessionID)
	}

	clocks, err := json.Marshal(map[string]int{
		"white_clock": state.WhiteClock,
		"black_clock": state.BlackClock,
	})
	if err != nil {
		return fmt.Errorf("error marshaling clocks: %v", err)
	}

	err = sm.db.Exec(`
		UPDATE game_sessions
		SET results = results || ?::jsonb
		WHERE id = ?
	`, string(clocks), sessionID).Error
	if err != nil {
		return fmt.Errorf("error persisting clocks in PostgreSQL: %v", err)
	}
	return nil
}

// ArchiveMatch synchronizes a finished match into PostgreSQL and cleans the
// Redis hot state. Scores and the winner flag land on the session_players
// rows, aggregates on the game_profiles rows, and the terminal result on
// the game_sessions row.
func (sm *SyncManager) ArchiveMatch(state *redis_models.MatchState, scores map[string]int, winner string) error {
	results, err := json.Marshal(map[string]interface{}{
		"result":      state.Result,
		"reason":      state.Reason,
		"winner":      winner,
		"moves":       len(state.Moves),
		"white_clock": state.WhiteClock,
		"black_clock": state.BlackClock,
	})
	if err != nil {
		return fmt.Errorf("error marshaling match results: %v", err)
	}

	err = sm.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Exec(`
			UPDATE game_sessions
			SET status = 'finished', ended_at = ?, results = ?::jsonb
			WHERE id = ?
		`, time.Now(), string(results), state.SessionID).Error
		if err != nil {
			return fmt.Errorf("error updating session row: %v", err)
		}

		for username, score := range scores {
			err := tx.Exec(`
				UPDATE session_players
				SET score = score + ?, winner = ?
				WHERE session_id = ? AND username = ?
			`, score, username == winner, state.SessionID, username).Error
			if err != nil {
				return fmt.Errorf("error updating player row: %v", err)
			}

			err = tx.Exec(`
				UPDATE game_profiles
				SET total_score = total_score + ?,
				    games_won = games_won + ?,
				    is_in_a_game = false
				WHERE username = ?
			`, score, boolToInt(username == winner), username).Error
			if err != nil {
				return fmt.Errorf("error updating profile aggregates: %v", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Clean Redis data once the durable state is committed
	if err := sm.redisClient.DeleteGameSession(state.SessionID); err != nil {
		return fmt.Errorf("error cleaning session hot state: %v", err)
	}
	for _, username := range []string{state.WhiteUsername, state.BlackUsername} {
		if err := sm.redisClient.DeleteSessionPlayer(username); err != nil {
			return fmt.Errorf("error cleaning player hot state: %v", err)
		}
	}
	return nil
}

// ArchiveSession is the group-game counterpart of ArchiveMatch: it flushes
// a finished in-memory session into PostgreSQL and drops the Redis hot
// state for the whole roster.
func (sm *SyncManager) ArchiveSession(session *sessions.Session) error {
	if session.Results == nil {
		return fmt.Errorf("session %s has no results to archive", session.ID)
	}

	results, err := json.Marshal(session.Results)
	if err != nil {
		return fmt.Errorf("error marshaling session results: %v", err)
	}

	winners := make(map[string]bool, len(session.Results.Winners))
	for _, username := range session.Results.Winners {
		winners[username] = true
	}

	err = sm.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Exec(`
			UPDATE game_sessions
			SET status = 'finished', ended_at = ?, results = ?::jsonb
			WHERE id = ?
		`, time.Now(), string(results), session.ID).Error
		if err != nil {
			return fmt.Errorf("error updating session row: %v", err)
		}

		for _, player := range session.Players {
			err := tx.Exec(`
				UPDATE session_players
				SET score = ?, winner = ?
				WHERE session_id = ? AND username = ?
			`, player.Score, winners[player.Username], session.ID, player.Username).Error
			if err != nil {
				return fmt.Errorf("error updating player row: %v", err)
			}

			err = tx.Exec(`
				UPDATE game_profiles
				SET total_score = total_score + ?,
				    games_won = games_won + ?,
				    is_in_a_game = false
				WHERE username = ?
			`, player.Score, boolToInt(winners[player.Username]), player.Username).Error
			if err != nil {
				return fmt.Errorf("error updating profile aggregates: %v", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := sm.redisClient.DeleteGameSession(session.ID); err != nil {
		return fmt.Errorf("error cleaning session hot state: %v", err)
	}
	for _, player := range session.Players {
		if err := sm.redisClient.DeleteSessionPlayer(player.Username); err != nil {
			return fmt.Errorf("error cleaning player hot state: %v", err)
		}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
