package handlers

import (
	game_constants "Arcadia/constants/game"
	redis_models "Arcadia/models/redis"
	"Arcadia/services/portals"
	"Arcadia/services/redis"
	socketio_types "Arcadia/services/socket_io/types"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/socket.io/v2/socket"
	"gorm.io/gorm"
)

// HandleConnected records the fresh connection's presence.
func HandleConnected(redisClient *redis.RedisClient, client *socket.Socket, username string) {
	presence := &redis_models.PlayerPresence{
		Username: username,
		Status:   redis_models.StatusOnline,
		LastPing: time.Now().Unix(),
		SocketID: string(client.Id()),
	}
	if err := redisClient.SavePlayerPresence(presence); err != nil {
		log.Printf("[CONN-ERROR] Error saving presence for %s: %v", username, err)
	}
}

// Function to handle socket.io client disconnections.
func HandleDisconnecting(username string, sio *socketio_types.SocketServer,
	db *gorm.DB, redisClient *redis.RedisClient,
	registry *portals.Registry) func(args ...interface{}) {
	return func(args ...interface{}) {
		log.Printf("[DISCONNECT] HandleDisconnecting started - User: %s", username)

		// Drop the player from every portal queue they were waiting in
		for _, gameType := range game_constants.GameTypes {
			if err := registry.LeaveQueue(gameType, username); err != nil {
				continue
			}
			if err := redisClient.RemoveFromPortalQueue(gameType, username); err != nil {
				log.Printf("[DISCONNECT-ERROR] Error leaving queue %s: %v", gameType, err)
			}
		}

		// Tell whatever session they were in. The roster entry stays: a
		// reconnect resumes via request_match_state rather than forfeiting.
		if sessionID, err := redisClient.GetPlayerCurrentSession(username); err == nil && sessionID != "" {
			sio.Sio_server.To(socket.Room(sessionID)).Emit("player_disconnected", gin.H{
				"username":   username,
				"session_id": sessionID,
			})
		}

		presence := &redis_models.PlayerPresence{
			Username: username,
			Status:   redis_models.StatusOffline,
			LastPing: time.Now().Unix(),
		}
		if err := redisClient.SavePlayerPresence(presence); err != nil {
			log.Printf("[DISCONNECT-ERROR] Error saving presence: %v", err)
		}

		// Finally remove connection from map
		sio.RemoveConnection(username)
		log.Printf("[DISCONNECT-DONE] User disconnected: %s", username)
	}
}
