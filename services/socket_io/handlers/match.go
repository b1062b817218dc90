package handlers

import (
	game_constants "Arcadia/constants/game"
	models "Arcadia/models/postgres"
	redis_models "Arcadia/models/redis"
	"Arcadia/services/match"
	"Arcadia/services/notifications"
	"Arcadia/services/redis"
	"Arcadia/services/sessions"
	socketio_types "Arcadia/services/socket_io/types"
	socketio_utils "Arcadia/services/socket_io/utils"
	syncmanager "Arcadia/sync"
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/socket.io/v2/socket"
	"gorm.io/gorm"
)

// matchStatePayload is what clients receive on every match event.
func matchStatePayload(state *redis_models.MatchState) gin.H {
	return gin.H{
		"session_id":  state.SessionID,
		"fen":         state.FEN,
		"turn":        state.Turn,
		"last_move":   state.LastMove,
		"moves":       state.Moves,
		"white_clock": state.WhiteClock,
		"black_clock": state.BlackClock,
		"result":      state.Result,
		"reason":      state.Reason,
		"version":     state.Version,
	}
}

// HandleMakeMove validates and applies a move against the canonical match
// state, persists it (rejecting stale writers) and broadcasts the new state
// to the session room. Event args: session id, move in UCI.
func HandleMakeMove(redisClient *redis.RedisClient, client *socket.Socket,
	db *gorm.DB, username string, sio *socketio_types.SocketServer,
	store *sessions.Store, feed *notifications.Feed,
	syncMgr *syncmanager.SyncManager) func(args ...interface{}) {
	return func(args ...interface{}) {
		if len(args) < 2 {
			client.Emit("error", gin.H{"error": "Missing move arguments"})
			return
		}
		sessionID, ok := args[0].(string)
		if !ok {
			client.Emit("error", gin.H{"error": "Missing session id"})
			return
		}
		uci, ok := args[1].(string)
		if !ok {
			client.Emit("error", gin.H{"error": "Missing move"})
			return
		}

		state, color, err := socketio_utils.ValidateMatchParticipant(redisClient, client, username, sessionID)
		if err != nil {
			return
		}

		if err := match.ApplyMove(state, color, uci); err != nil {
			log.Printf("[MATCH] Rejected move %s by %s in %s: %v", uci, username, sessionID, err)
			client.Emit("error", gin.H{"error": err.Error()})
			return
		}

		if err := redisClient.SaveMatchState(state); err != nil {
			if err == redis.ErrVersionConflict {
				// Someone else moved the canonical state forward; hand the
				// client the fresh truth instead of the failed write
				canonical, cErr := redisClient.GetMatchState(sessionID)
				if cErr == nil && canonical != nil {
					client.Emit("match_state", matchStatePayload(canonical))
				}
				client.Emit("error", gin.H{"error": "Move based on a stale position"})
				return
			}
			log.Printf("[MATCH-ERROR] Error saving match state: %v", err)
			client.Emit("error", gin.H{"error": "Error saving move"})
			return
		}

		log.Printf("[MATCH] %s played %s in %s, turn now %s", username, uci, sessionID, state.Turn)
		sio.Sio_server.To(socket.Room(sessionID)).Emit("match_update", matchStatePayload(state))

		// Best effort: clocks land in the durable row at every move boundary
		if err := syncMgr.SyncMatchClocks(sessionID); err != nil {
			log.Printf("[MATCH-ERROR] Error syncing clocks for %s: %v", sessionID, err)
		}

		if state.Finished() {
			finalizeMatch(redisClient, db, sio, store, feed, syncMgr, state)
		}
	}
}

// HandleResign marks the resigning player's match lost and broadcasts the
// terminal state. Control message: the opponent adopts it without further
// validation. Event args: session id.
func HandleResign(redisClient *redis.RedisClient, client *socket.Socket,
	db *gorm.DB, username string, sio *socketio_types.SocketServer,
	store *sessions.Store, feed *notifications.Feed,
	syncMgr *syncmanager.SyncManager) func(args ...interface{}) {
	return func(args ...interface{}) {
		if len(args) < 1 {
			client.Emit("error", gin.H{"error": "Missing session id"})
			return
		}
		sessionID, ok := args[0].(string)
		if !ok {
			client.Emit("error", gin.H{"error": "Missing session id"})
			return
		}

		state, color, err := socketio_utils.ValidateMatchParticipant(redisClient, client, username, sessionID)
		if err != nil {
			return
		}

		if err := match.Resign(state, color); err != nil {
			client.Emit("error", gin.H{"error": err.Error()})
			return
		}
		if err := redisClient.SaveMatchState(state); err != nil && err != redis.ErrVersionConflict {
			log.Printf("[MATCH-ERROR] Error saving resignation: %v", err)
			client.Emit("error", gin.H{"error": "Error saving resignation"})
			return
		}

		log.Printf("[MATCH] %s resigned in %s", username, sessionID)
		sio.Sio_server.To(socket.Room(sessionID)).Emit("match_update", matchStatePayload(state))
		finalizeMatch(redisClient, db, sio, store, feed, syncMgr, state)
	}
}

// HandleFlagFall reports that the turn owner's clock reached zero. Clocks
// are client-local countdowns, so either participant may report the fall;
// the report is accepted only once the wall time since the last move
// boundary exhausts the turn owner's canonical clock. Event args: session id.
func HandleFlagFall(redisClient *redis.RedisClient, client *socket.Socket,
	db *gorm.DB, username string, sio *socketio_types.SocketServer,
	store *sessions.Store, feed *notifications.Feed,
	syncMgr *syncmanager.SyncManager) func(args ...interface{}) {
	return func(args ...interface{}) {
		if len(args) < 1 {
			client.Emit("error", gin.H{"error": "Missing session id"})
			return
		}
		sessionID, ok := args[0].(string)
		if !ok {
			client.Emit("error", gin.H{"error": "Missing session id"})
			return
		}

		state, _, err := socketio_utils.ValidateMatchParticipant(redisClient, client, username, sessionID)
		if err != nil {
			return
		}

		if !match.ClockExpired(state, state.Turn) {
			log.Printf("[MATCH] Rejected flag fall from %s in %s: %s still has time",
				username, sessionID, state.Turn)
			client.Emit("error", gin.H{"error": "Clock has not run out"})
			return
		}

		if err := match.FlagFall(state, state.Turn); err != nil {
			client.Emit("error", gin.H{"error": err.Error()})
			return
		}
		if err := redisClient.SaveMatchState(state); err != nil && err != redis.ErrVersionConflict {
			log.Printf("[MATCH-ERROR] Error saving flag fall: %v", err)
			return
		}

		log.Printf("[MATCH] Flag fell for %s in %s", state.Turn, sessionID)
		sio.Sio_server.To(socket.Room(sessionID)).Emit("match_update", matchStatePayload(state))
		finalizeMatch(redisClient, db, sio, store, feed, syncMgr, state)
	}
}

// HandleRequestMatchState replays the canonical state to a reconnecting
// client and puts it back into the session room, so a dropped push doesn't
// leave the two sides disagreeing about whose turn it is.
// Event args: session id.
func HandleRequestMatchState(redisClient *redis.RedisClient, client *socket.Socket,
	db *gorm.DB, username string) func(args ...interface{}) {
	return func(args ...interface{}) {
		if len(args) < 1 {
			client.Emit("error", gin.H{"error": "Missing session id"})
			return
		}
		sessionID, ok := args[0].(string)
		if !ok {
			client.Emit("error", gin.H{"error": "Missing session id"})
			return
		}

		state, color, err := socketio_utils.ValidateMatchParticipant(redisClient, client, username, sessionID)
		if err != nil {
			return
		}

		client.Join(socket.Room(sessionID))
		log.Printf("[RECONNECT] %s rejoined match %s as %s", username, sessionID, color)

		payload := matchStatePayload(state)
		payload["color"] = color
		client.Emit("match_state", payload)
	}
}

// startClockWatchdog runs the authoritative countdown for a match on the
// server. Clients tick their own clocks for display, but this goroutine is
// what declares a flag fall when neither side reports one; it reconciles
// against the canonical state on an interval so moves landed by either
// player reset its accounting, and it stops once the canonical state turns
// terminal or is cleaned up.
func startClockWatchdog(redisClient *redis.RedisClient, db *gorm.DB,
	sio *socketio_types.SocketServer, store *sessions.Store,
	feed *notifications.Feed, syncMgr *syncmanager.SyncManager,
	state *redis_models.MatchState) {

	sessionID := state.SessionID
	held := *state
	held.Moves = append([]string(nil), state.Moves...)

	watchdog := match.NewSynchronizer("", &held,
		func(terminal *redis_models.MatchState) error {
			// Only the watchdog's own flag fall arrives here. A version
			// conflict means a player's move or report beat us to the
			// canonical state, and that path owns the finalization.
			if err := redisClient.SaveMatchState(terminal); err != nil {
				if err == redis.ErrVersionConflict {
					return nil
				}
				return err
			}
			sio.Sio_server.To(socket.Room(sessionID)).Emit("match_update", matchStatePayload(terminal))
			finalizeMatch(redisClient, db, sio, store, feed, syncMgr, terminal)
			return nil
		},
		nil)

	go watchdog.RunClock(context.Background(), func() (*redis_models.MatchState, error) {
		return redisClient.GetMatchState(sessionID)
	}, game_constants.ReconcileInterval)
}

// finalizeMatch archives a terminal match: scores and winner flags land in
// Postgres through the sync manager, the in-memory store session moves to
// history (evaluating achievements), the room is told, and the hot state is
// cleaned up.
func finalizeMatch(redisClient *redis.RedisClient, db *gorm.DB,
	sio *socketio_types.SocketServer, store *sessions.Store,
	feed *notifications.Feed, syncMgr *syncmanager.SyncManager,
	state *redis_models.MatchState) {

	sessionID := state.SessionID
	winner := match.WinnerUsername(state)

	var winners []string
	scores := map[string]int{}
	if winner != "" {
		winners = []string{winner}
		scores[winner] = game_constants.WinPoints
	} else {
		scores[state.WhiteUsername] = game_constants.DrawPoints
		scores[state.BlackUsername] = game_constants.DrawPoints
	}

	for username, score := range scores {
		store.UpdatePlayerScore(sessionID, username, score)
	}

	unlocked, err := store.EndSession(sessionID, sessions.Results{
		Winners:     winners,
		FinalScores: scores,
		Reason:      state.Reason,
	})
	if err != nil {
		log.Printf("[MATCH-ERROR] Error ending session %s in store: %v", sessionID, err)
	}

	// Achievements earned by this result become notifications
	for username, achievements := range unlocked {
		for _, achievement := range achievements {
			item := feed.Add(username, models.NotificationAchievement,
				achievement.Name, achievement.Description, nil)
			persistNotification(db, username, item)
			persistAchievement(db, username, achievement.ID)
			if userSocket, connected := sio.GetConnection(username); connected {
				userSocket.Emit("achievement_unlocked", gin.H{
					"id":     achievement.ID,
					"name":   achievement.Name,
					"rarity": achievement.Rarity,
					"points": achievement.Points,
				})
			}
		}
	}

	if err := syncMgr.ArchiveMatch(state, scores, winner); err != nil {
		log.Printf("[MATCH-ERROR] Error archiving match %s: %v", sessionID, err)
	}

	message := "The match ended in a draw"
	if winner != "" {
		message = fmt.Sprintf("%s won by %s", winner, state.Reason)
	}
	sio.Sio_server.To(socket.Room(sessionID)).Emit("match_end", gin.H{
		"session_id": sessionID,
		"result":     state.Result,
		"reason":     state.Reason,
		"winner":     winner,
		"message":    message,
	})

	log.Printf("[MATCH] Match %s finished: %s (%s)", sessionID, state.Result, state.Reason)
}
