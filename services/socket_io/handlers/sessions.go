package handlers

import (
	game_constants "Arcadia/constants/game"
	models "Arcadia/models/postgres"
	redis_models "Arcadia/models/redis"
	"Arcadia/services/notifications"
	"Arcadia/services/portals"
	"Arcadia/services/redis"
	"Arcadia/services/sessions"
	socketio_types "Arcadia/services/socket_io/types"
	socketio_utils "Arcadia/services/socket_io/utils"
	syncmanager "Arcadia/sync"
	"Arcadia/utils"
	"encoding/json"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/socket.io/v2/socket"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// sessionPayload flattens a store session snapshot for emission.
func sessionPayload(session *sessions.Session) gin.H {
	players := make([]gin.H, 0, len(session.Players))
	for _, player := range session.Players {
		players = append(players, gin.H{
			"username": player.Username,
			"icon":     player.Icon,
			"team":     player.Team,
			"ready":    player.Ready,
			"score":    player.Score,
		})
	}
	return gin.H{
		"session_id":  session.ID,
		"game_type":   session.GameType,
		"host":        session.Host,
		"status":      session.Status,
		"max_players": session.MaxPlayers,
		"players":     players,
	}
}

// HandleCreateSession creates a waiting session for a group game. The
// durable row is inserted first so the generated id can seed the in-memory
// store and the Redis hot copy. Event args: game type, optional settings.
func HandleCreateSession(redisClient *redis.RedisClient, client *socket.Socket,
	db *gorm.DB, username string, sio *socketio_types.SocketServer,
	store *sessions.Store) func(args ...interface{}) {
	return func(args ...interface{}) {
		if len(args) < 1 {
			client.Emit("error", gin.H{"error": "Missing game type"})
			return
		}
		gameType, ok := args[0].(string)
		if !ok || !game_constants.IsValidGameType(gameType) {
			client.Emit("error", gin.H{"error": "Invalid game type"})
			return
		}

		var settings sessions.Settings
		if len(args) > 1 {
			raw, err := json.Marshal(args[1])
			if err == nil {
				_ = json.Unmarshal(raw, &settings)
			}
		}

		settingsJSON, err := json.Marshal(settings)
		if err != nil {
			client.Emit("error", gin.H{"error": "Invalid session settings"})
			return
		}

		dbSession := models.GameSession{
			GameType:     gameType,
			HostUsername: username,
			Status:       models.SessionWaiting,
			Settings:     datatypes.JSON(settingsJSON),
		}
		if err := db.Create(&dbSession).Error; err != nil {
			log.Printf("[SESSION-ERROR] Error creating session row: %v", err)
			client.Emit("error", gin.H{"error": "Could not create the session"})
			return
		}

		session := store.CreateSessionWithID(dbSession.ID, gameType, username, settings)

		hostPlayer := sessions.Player{
			Username: username,
			Icon:     utils.UserIcon(db, username),
			Role:     sessions.RoleHost,
			JoinedAt: time.Now(),
		}
		store.JoinSession(session.ID, hostPlayer)
		if err := db.Create(&models.SessionPlayer{
			SessionID: session.ID,
			Username:  username,
			Role:      sessions.RoleHost,
		}).Error; err != nil {
			log.Printf("[SESSION-ERROR] Error creating host roster row: %v", err)
		}

		if err := redisClient.SaveGameSession(&redis_models.GameSession{
			Id:           session.ID,
			GameType:     gameType,
			HostUsername: username,
			Status:       models.SessionWaiting,
			MaxPlayers:   session.MaxPlayers,
			PlayerCount:  1,
		}); err != nil {
			log.Printf("[SESSION-ERROR] Error saving session hot state: %v", err)
		}
		if err := redisClient.SaveSessionPlayer(&redis_models.SessionPlayer{
			Username:  username,
			SessionId: session.ID,
		}); err != nil {
			log.Printf("[SESSION-ERROR] Error saving player hot state: %v", err)
		}

		client.Join(socket.Room(session.ID))
		snapshot, _ := store.GetSession(session.ID)
		client.Emit("session_created", sessionPayload(snapshot))
		log.Printf("[SESSION] %s created %s session %s", username, gameType, session.ID)
	}
}

// HandleJoinSession seats a player in a waiting session. Joining twice is a
// no-op that still re-sends the roster, so a flaky client can always
// resubscribe. Event args: session id.
func HandleJoinSession(redisClient *redis.RedisClient, client *socket.Socket,
	db *gorm.DB, username string, sio *socketio_types.SocketServer,
	store *sessions.Store) func(args ...interface{}) {
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

		if _, err := utils.CheckSessionExists(db, sessionID); err != nil {
			client.Emit("error", gin.H{"error": "Session not found"})
			return
		}
		session, exists := store.GetSession(sessionID)
		if !exists {
			client.Emit("error", gin.H{"error": "Session not found"})
			return
		}
		if session.Status != sessions.StatusWaiting {
			client.Emit("error", gin.H{"error": "Session already started"})
			return
		}

		joined := store.JoinSession(sessionID, sessions.Player{
			Username: username,
			Icon:     utils.UserIcon(db, username),
			Role:     sessions.RolePlayer,
			JoinedAt: time.Now(),
		})
		if !joined {
			client.Emit("error", gin.H{"error": "Session is full"})
			return
		}

		if err := db.Where("session_id = ? AND username = ?", sessionID, username).
			FirstOrCreate(&models.SessionPlayer{
				SessionID: sessionID,
				Username:  username,
				Role:      sessions.RolePlayer,
			}).Error; err != nil {
			log.Printf("[SESSION-ERROR] Error creating roster row: %v", err)
		}
		if err := redisClient.SaveSessionPlayer(&redis_models.SessionPlayer{
			Username:  username,
			SessionId: sessionID,
		}); err != nil {
			log.Printf("[SESSION-ERROR] Error saving player hot state: %v", err)
		}

		client.Join(socket.Room(sessionID))
		snapshot, _ := store.GetSession(sessionID)

		if hot, err := redisClient.GetGameSession(sessionID); err == nil && hot != nil {
			hot.PlayerCount = len(snapshot.Players)
			if err := redisClient.SaveGameSession(hot); err != nil {
				log.Printf("[SESSION-ERROR] Error refreshing session hot state: %v", err)
			}
		}

		sio.Sio_server.To(socket.Room(sessionID)).Emit("player_joined", gin.H{
			"session_id": sessionID,
			"username":   username,
		})
		client.Emit("session_joined", sessionPayload(snapshot))
		log.Printf("[SESSION] %s joined session %s", username, sessionID)
	}
}

// HandleExitSession removes a player from a session's roster.
func HandleExitSession(redisClient *redis.RedisClient, client *socket.Socket,
	db *gorm.DB, username string, sio *socketio_types.SocketServer,
	store *sessions.Store) func(args ...interface{}) {
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

		if inSession, err := utils.UserExistsInSession(db, sessionID, username, client); err != nil || !inSession {
			if err == nil {
				client.Emit("error", gin.H{"error": "You are not in this session"})
			}
			return
		}

		store.LeaveSession(sessionID, username)
		if err := db.Where("session_id = ? AND username = ?", sessionID, username).
			Delete(&models.SessionPlayer{}).Error; err != nil {
			log.Printf("[SESSION-ERROR] Error deleting roster row: %v", err)
		}
		if err := redisClient.DeleteSessionPlayer(username); err != nil {
			log.Printf("[SESSION-ERROR] Error deleting player hot state: %v", err)
		}

		client.Leave(socket.Room(sessionID))
		sio.Sio_server.To(socket.Room(sessionID)).Emit("player_left", gin.H{
			"session_id": sessionID,
			"username":   username,
		})
		log.Printf("[SESSION] %s left session %s", username, sessionID)
	}
}

// HandleToggleReady flips the caller's ready flag. Event args: session id,
// ready bool.
func HandleToggleReady(redisClient *redis.RedisClient, client *socket.Socket,
	db *gorm.DB, username string, sio *socketio_types.SocketServer,
	store *sessions.Store) func(args ...interface{}) {
	return func(args ...interface{}) {
		if len(args) < 2 {
			client.Emit("error", gin.H{"error": "Missing ready arguments"})
			return
		}
		sessionID, ok := args[0].(string)
		if !ok {
			client.Emit("error", gin.H{"error": "Missing session id"})
			return
		}
		ready, ok := args[1].(bool)
		if !ok {
			client.Emit("error", gin.H{"error": "Missing ready flag"})
			return
		}

		if _, err := socketio_utils.ValidateSessionAndUser(redisClient, client, db, username, sessionID); err != nil {
			return
		}

		store.SetPlayerReady(sessionID, username, ready)
		if err := db.Model(&models.SessionPlayer{}).
			Where("session_id = ? AND username = ?", sessionID, username).
			Update("ready", ready).Error; err != nil {
			log.Printf("[SESSION-ERROR] Error updating ready flag: %v", err)
		}

		sio.Sio_server.To(socket.Room(sessionID)).Emit("player_ready", gin.H{
			"session_id": sessionID,
			"username":   username,
			"ready":      ready,
		})
	}
}

// HandleStartSession moves a waiting session to playing. Host only, and
// only once the roster meets the minimum. Event args: session id.
func HandleStartSession(redisClient *redis.RedisClient, client *socket.Socket,
	db *gorm.DB, username string, sio *socketio_types.SocketServer,
	store *sessions.Store, feed *notifications.Feed,
	registry *portals.Registry) func(args ...interface{}) {
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

		session, exists := store.GetSession(sessionID)
		if !exists {
			client.Emit("error", gin.H{"error": "Session not found"})
			return
		}
		if session.Host != username {
			client.Emit("error", gin.H{"error": "Only the host can start the session"})
			return
		}

		if err := store.StartSession(sessionID); err != nil {
			client.Emit("error", gin.H{"error": err.Error()})
			return
		}

		now := time.Now()
		if err := db.Model(&models.GameSession{}).Where("id = ?", sessionID).
			Updates(map[string]interface{}{
				"status":     models.SessionPlaying,
				"started_at": now,
			}).Error; err != nil {
			log.Printf("[SESSION-ERROR] Error updating session row: %v", err)
		}
		if hot, err := redisClient.GetGameSession(sessionID); err == nil && hot != nil {
			hot.Status = models.SessionPlaying
			hot.StartedAt = now
			if err := redisClient.SaveGameSession(hot); err != nil {
				log.Printf("[SESSION-ERROR] Error refreshing session hot state: %v", err)
			}
		}

		snapshot, _ := store.GetSession(sessionID)
		for _, player := range snapshot.Players {
			item := feed.Add(player.Username, models.NotificationGameStarting,
				"Game starting", "Your "+snapshot.GameType+" session is starting", nil)
			persistNotification(db, player.Username, item)
		}

		// The portal for this game now points at the running session
		if err := registry.Activate(snapshot.GameType, sessionID); err != nil {
			log.Printf("[SESSION-ERROR] Error activating portal: %v", err)
		}

		sio.Sio_server.To(socket.Room(sessionID)).Emit("session_started", sessionPayload(snapshot))
		log.Printf("[SESSION] Session %s started by %s", sessionID, username)
	}
}

// HandlePauseSession suspends a running session; HandleResumeSession brings
// it back. Host only, and the pair may oscillate. Event args: session id.
func HandlePauseSession(redisClient *redis.RedisClient, client *socket.Socket,
	db *gorm.DB, username string, sio *socketio_types.SocketServer,
	store *sessions.Store) func(args ...interface{}) {
	return sessionTransition(redisClient, client, db, username, sio, store,
		models.SessionPaused, "session_paused", store.PauseSession)
}

func HandleResumeSession(redisClient *redis.RedisClient, client *socket.Socket,
	db *gorm.DB, username string, sio *socketio_types.SocketServer,
	store *sessions.Store) func(args ...interface{}) {
	return sessionTransition(redisClient, client, db, username, sio, store,
		models.SessionPlaying, "session_resumed", store.ResumeSession)
}

func sessionTransition(redisClient *redis.RedisClient, client *socket.Socket,
	db *gorm.DB, username string, sio *socketio_types.SocketServer,
	store *sessions.Store, newStatus string, event string,
	transition func(string) error) func(args ...interface{}) {
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

		session, exists := store.GetSession(sessionID)
		if !exists {
			client.Emit("error", gin.H{"error": "Session not found"})
			return
		}
		if session.Host != username {
			client.Emit("error", gin.H{"error": "Only the host can do that"})
			return
		}

		if err := transition(sessionID); err != nil {
			client.Emit("error", gin.H{"error": err.Error()})
			return
		}

		if err := db.Model(&models.GameSession{}).Where("id = ?", sessionID).
			Update("status", newStatus).Error; err != nil {
			log.Printf("[SESSION-ERROR] Error updating session status: %v", err)
		}
		if hot, err := redisClient.GetGameSession(sessionID); err == nil && hot != nil {
			hot.Status = newStatus
			if err := redisClient.SaveGameSession(hot); err != nil {
				log.Printf("[SESSION-ERROR] Error refreshing session hot state: %v", err)
			}
		}

		sio.Sio_server.To(socket.Room(sessionID)).Emit(event, gin.H{
			"session_id": sessionID,
			"status":     newStatus,
		})
		log.Printf("[SESSION] Session %s now %s", sessionID, newStatus)
	}
}

// HandleUpdateScore adds a delta to the caller's score inside a running
// session. Negative deltas are allowed and scores may go below zero. Event
// args: session id, delta.
func HandleUpdateScore(redisClient *redis.RedisClient, client *socket.Socket,
	db *gorm.DB, username string, sio *socketio_types.SocketServer,
	store *sessions.Store) func(args ...interface{}) {
	return func(args ...interface{}) {
		if len(args) < 2 {
			client.Emit("error", gin.H{"error": "Missing score arguments"})
			return
		}
		sessionID, ok := args[0].(string)
		if !ok {
			client.Emit("error", gin.H{"error": "Missing session id"})
			return
		}
		delta, ok := toInt(args[1])
		if !ok {
			client.Emit("error", gin.H{"error": "Missing score delta"})
			return
		}

		session, exists := store.GetSession(sessionID)
		if !exists || session.Status != sessions.StatusPlaying {
			client.Emit("error", gin.H{"error": "Session is not running"})
			return
		}

		store.UpdatePlayerScore(sessionID, username, delta)

		snapshot, _ := store.GetSession(sessionID)
		for _, player := range snapshot.Players {
			if player.Username != username {
				continue
			}
			if err := db.Model(&models.SessionPlayer{}).
				Where("session_id = ? AND username = ?", sessionID, username).
				Update("score", player.Score).Error; err != nil {
				log.Printf("[SESSION-ERROR] Error persisting score: %v", err)
			}
			sio.Sio_server.To(socket.Room(sessionID)).Emit("score_update", gin.H{
				"session_id": sessionID,
				"username":   username,
				"score":      player.Score,
			})
		}
	}
}

// HandleEndSession finishes a running group session. Host only. Winners are
// the top scorers; ties produce multiple winners. Event args: session id,
// optional reason.
func HandleEndSession(redisClient *redis.RedisClient, client *socket.Socket,
	db *gorm.DB, username string, sio *socketio_types.SocketServer,
	store *sessions.Store, feed *notifications.Feed,
	syncMgr *syncmanager.SyncManager,
	registry *portals.Registry) func(args ...interface{}) {
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
		reason := "completed"
		if len(args) > 1 {
			if custom, ok := args[1].(string); ok && custom != "" {
				reason = custom
			}
		}

		session, exists := store.GetSession(sessionID)
		if !exists {
			client.Emit("error", gin.H{"error": "Session not found"})
			return
		}
		if session.Host != username {
			client.Emit("error", gin.H{"error": "Only the host can end the session"})
			return
		}

		scores := make(map[string]int, len(session.Players))
		best := 0
		for i, player := range session.Players {
			scores[player.Username] = player.Score
			if i == 0 || player.Score > best {
				best = player.Score
			}
		}
		var winners []string
		for _, player := range session.Players {
			if player.Score == best {
				winners = append(winners, player.Username)
			}
		}

		unlocked, err := store.EndSession(sessionID, sessions.Results{
			Winners:     winners,
			FinalScores: scores,
			Reason:      reason,
		})
		if err != nil {
			client.Emit("error", gin.H{"error": err.Error()})
			return
		}

		for member, achievements := range unlocked {
			for _, achievement := range achievements {
				item := feed.Add(member, models.NotificationAchievement,
					achievement.Name, achievement.Description, nil)
				persistNotification(db, member, item)
				persistAchievement(db, member, achievement.ID)
				if userSocket, connected := sio.GetConnection(member); connected {
					userSocket.Emit("achievement_unlocked", gin.H{
						"id":     achievement.ID,
						"name":   achievement.Name,
						"rarity": achievement.Rarity,
						"points": achievement.Points,
					})
				}
			}
		}

		archived := findArchivedSession(store, sessionID)
		if archived != nil {
			if err := syncMgr.ArchiveSession(archived); err != nil {
				log.Printf("[SESSION-ERROR] Error archiving session %s: %v", sessionID, err)
			}
		}

		// Close the portal and drop whoever was still queued behind it
		if err := registry.Deactivate(session.GameType); err != nil {
			log.Printf("[SESSION-ERROR] Error deactivating portal: %v", err)
		}
		if err := redisClient.ClearPortalQueue(session.GameType); err != nil {
			log.Printf("[SESSION-ERROR] Error clearing portal queue: %v", err)
		}

		sio.Sio_server.To(socket.Room(sessionID)).Emit("session_ended", gin.H{
			"session_id": sessionID,
			"winners":    winners,
			"scores":     scores,
			"reason":     reason,
		})
		log.Printf("[SESSION] Session %s ended, winners: %v", sessionID, winners)
	}
}

// HandleGetSessionInfo re-sends the current roster snapshot, primarily for
// clients coming back from a reconnect. Event args: session id.
func HandleGetSessionInfo(redisClient *redis.RedisClient, client *socket.Socket,
	db *gorm.DB, username string, sio *socketio_types.SocketServer,
	store *sessions.Store) func(args ...interface{}) {
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

		session, exists := store.GetSession(sessionID)
		if !exists {
			if archived := findArchivedSession(store, sessionID); archived != nil {
				client.Emit("session_info", sessionPayload(archived))
				return
			}
			client.Emit("error", gin.H{"error": "Session not found"})
			return
		}
		client.Join(socket.Room(sessionID))
		client.Emit("session_info", sessionPayload(session))
	}
}

func findArchivedSession(store *sessions.Store, sessionID string) *sessions.Session {
	for _, session := range store.History() {
		if session.ID == sessionID {
			return session
		}
	}
	return nil
}

// toInt normalizes the numeric types socket.io hands us for event args.
func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	default:
		return 0, false
	}
}
