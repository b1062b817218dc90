package redis

import (
	redis_models "Arcadia/models/redis"
	redis_utils "Arcadia/services/redis/utils"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrVersionConflict is returned when a match state write carries a stale
// base version. The caller must re-read the canonical state and reconcile.
var ErrVersionConflict = fmt.Errorf("match state version conflict")

// RedisClient handles Redis operations
type RedisClient struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedisClient creates a new Redis client instance
func NewRedisClient(Addr string, DB int) *RedisClient {
	var client *redis.Client
	if Addr != "localhost:6379" {
		log.Println("Connecting to remote Redis...")
		opt, err := redis.ParseURL(Addr)
		if err != nil {
			panic("Error parsing Redis URL")
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{
			Addr: Addr,
			DB:   DB,
		})
	}
	return &RedisClient{
		client: client,
		ctx:    context.Background(),
	}
}

// setWithRetry writes a key with a bounded retry on transient failures.
// Version-checked writes go through SaveMatchState instead; a conflict there
// must surface to the caller, never be retried blindly.
func (rc *RedisClient) setWithRetry(key string, data []byte, ttl time.Duration) error {
	const attempts = 3
	backoff := 50 * time.Millisecond

	var err error
	for i := 0; i < attempts; i++ {
		if err = rc.client.Set(rc.ctx, key, data, ttl).Err(); err == nil {
			return nil
		}
		if i < attempts-1 {
			log.Printf("[REDIS-RETRY] Set %s failed (attempt %d): %v", key, i+1, err)
			time.Sleep(backoff)
			backoff *= 2
		}
	}
	return err
}

// SaveGameSession stores a session's hot state in Redis
// Key format: "session:{id}"
// TTL: 24 hours
func (rc *RedisClient) SaveGameSession(session *redis_models.GameSession) error {
	key := redis_utils.FormatSessionKey(session.Id)
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("error marshaling session data: %v", err)
	}
	return rc.setWithRetry(key, data, 24*time.Hour)
}

// GetGameSession retrieves a session's hot state from Redis
// Key format: "session:{id}"
func (rc *RedisClient) GetGameSession(sessionId string) (*redis_models.GameSession, error) {
	key := redis_utils.FormatSessionKey(sessionId)
	data, err := rc.client.Get(rc.ctx, key).Bytes()
	if err != nil {
		return nil, fmt.Errorf("error getting session data: %v", err)
	}

	var session redis_models.GameSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("error unmarshaling session data: %v", err)
	}
	return &session, nil
}

// DeleteGameSession removes a session's hot state from Redis
func (rc *RedisClient) DeleteGameSession(sessionId string) error {
	pipe := rc.client.Pipeline()
	pipe.Del(rc.ctx, redis_utils.FormatSessionKey(sessionId))
	pipe.Del(rc.ctx, redis_utils.FormatMatchStateKey(sessionId))
	if _, err := pipe.Exec(rc.ctx); err != nil {
		return fmt.Errorf("error deleting session data: %v", err)
	}
	return nil
}

// SaveSessionPlayer stores a player's in-session state
// Key format: "player:{username}:session"
// TTL: 24 hours
func (rc *RedisClient) SaveSessionPlayer(player *redis_models.SessionPlayer) error {
	key := redis_utils.FormatSessionPlayerKey(player.Username)
	data, err := json.Marshal(player)
	if err != nil {
		return fmt.Errorf("error marshaling player data: %v", err)
	}
	return rc.setWithRetry(key, data, 24*time.Hour)
}

// GetSessionPlayer retrieves a player's in-session state
func (rc *RedisClient) GetSessionPlayer(username string) (*redis_models.SessionPlayer, error) {
	key := redis_utils.FormatSessionPlayerKey(username)
	data, err := rc.client.Get(rc.ctx, key).Bytes()
	if err != nil {
		return nil, fmt.Errorf("error getting player data: %v", err)
	}

	var player redis_models.SessionPlayer
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, fmt.Errorf("error unmarshaling player data: %v", err)
	}
	return &player, nil
}

// DeleteSessionPlayer removes a player's in-session state
func (rc *RedisClient) DeleteSessionPlayer(username string) error {
	key := redis_utils.FormatSessionPlayerKey(username)
	if err := rc.client.Del(rc.ctx, key).Err(); err != nil {
		return fmt.Errorf("error deleting player data: %v", err)
	}
	return nil
}

// GetPlayerCurrentSession retrieves the session a player is currently in
// by extracting it from the player's in-session state
func (rc *RedisClient) GetPlayerCurrentSession(username string) (string, error) {
	player, err := rc.GetSessionPlayer(username)
	if err != nil {
		return "", fmt.Errorf("error getting player's current session: %v", err)
	}
	return player.SessionId, nil
}

// SaveMatchState persists the canonical match state.
// The write is rejected with ErrVersionConflict when the stored version is
// already ahead of the incoming state's base version, so an out-of-turn or
// stale writer cannot silently overwrite a newer position. The version is
// bumped inside a WATCH transaction.
func (rc *RedisClient) SaveMatchState(state *redis_models.MatchState) error {
	key := redis_utils.FormatMatchStateKey(state.SessionID)

	// Bump on a copy: the caller's state must stay untouched until the
	// transaction actually commits, or a failed write would leave it
	// holding a version it never earned.
	next := *state
	next.Version++
	next.UpdatedAt = time.Now()

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(rc.ctx, key).Bytes()
		if err != nil && err != redis.Nil {
			return fmt.Errorf("error reading current match state: %v", err)
		}
		if err == nil {
			var current redis_models.MatchState
			if err := json.Unmarshal(data, &current); err != nil {
				return fmt.Errorf("error unmarshaling current match state: %v", err)
			}
			if current.Version > state.Version {
				return ErrVersionConflict
			}
		}

		payload, err := json.Marshal(&next)
		if err != nil {
			return fmt.Errorf("error marshaling match state: %v", err)
		}

		_, err = tx.TxPipelined(rc.ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(rc.ctx, key, payload, 24*time.Hour)
			return nil
		})
		return err
	}

	if err := rc.client.Watch(rc.ctx, txf, key); err != nil {
		if err == redis.TxFailedErr {
			// The watched key moved while we held a read of it: same
			// situation as a stale base version, same answer
			return ErrVersionConflict
		}
		return err
	}

	state.Version = next.Version
	state.UpdatedAt = next.UpdatedAt
	return nil
}

// GetMatchState retrieves the canonical match state
// Key format: "match:{session_id}:state"
// Returns nil (no error) when no state has been stored yet
func (rc *RedisClient) GetMatchState(sessionId string) (*redis_models.MatchState, error) {
	key := redis_utils.FormatMatchStateKey(sessionId)
	data, err := rc.client.Get(rc.ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("error getting match state: %v", err)
	}

	var state redis_models.MatchState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("error unmarshaling match state: %v", err)
	}
	return &state, nil
}

// AddToPortalQueue adds a player to a portal's waiting queue.
// Backed by a Redis set, so duplicate joins are naturally idempotent.
func (rc *RedisClient) AddToPortalQueue(gameType string, username string) error {
	key := redis_utils.FormatPortalQueueKey(gameType)
	if err := rc.client.SAdd(rc.ctx, key, username).Err(); err != nil {
		return fmt.Errorf("error adding player to portal queue: %v", err)
	}
	return nil
}

// RemoveFromPortalQueue removes a player from a portal's waiting queue
func (rc *RedisClient) RemoveFromPortalQueue(gameType string, username string) error {
	key := redis_utils.FormatPortalQueueKey(gameType)
	if err := rc.client.SRem(rc.ctx, key, username).Err(); err != nil {
		return fmt.Errorf("error removing player from portal queue: %v", err)
	}
	return nil
}

// GetPortalQueue returns every player waiting on a portal
func (rc *RedisClient) GetPortalQueue(gameType string) ([]string, error) {
	key := redis_utils.FormatPortalQueueKey(gameType)
	members, err := rc.client.SMembers(rc.ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("error getting portal queue: %v", err)
	}
	return members, nil
}

// ClearPortalQueue drops the whole waiting queue of a portal
func (rc *RedisClient) ClearPortalQueue(gameType string) error {
	key := redis_utils.FormatPortalQueueKey(gameType)
	if err := rc.client.Del(rc.ctx, key).Err(); err != nil {
		return fmt.Errorf("error clearing portal queue: %v", err)
	}
	return nil
}

// SavePlayerPresence stores a player's presence record
// Key format: "presence:{username}"
// TTL: 5 minutes, refreshed on every ping
func (rc *RedisClient) SavePlayerPresence(presence *redis_models.PlayerPresence) error {
	key := redis_utils.FormatPresenceKey(presence.Username)
	data, err := json.Marshal(presence)
	if err != nil {
		return fmt.Errorf("error marshaling presence data: %v", err)
	}
	return rc.setWithRetry(key, data, 5*time.Minute)
}

// GetPlayerPresence retrieves a player's presence record
func (rc *RedisClient) GetPlayerPresence(username string) (*redis_models.PlayerPresence, error) {
	key := redis_utils.FormatPresenceKey(username)
	data, err := rc.client.Get(rc.ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return &redis_models.PlayerPresence{
				Username: username,
				Status:   redis_models.StatusOffline,
			}, nil
		}
		return nil, fmt.Errorf("error getting presence data: %v", err)
	}

	var presence redis_models.PlayerPresence
	if err := json.Unmarshal(data, &presence); err != nil {
		return nil, fmt.Errorf("error unmarshaling presence data: %v", err)
	}
	return &presence, nil
}
