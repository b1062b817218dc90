package handlers

import (
	game_constants "Arcadia/constants/game"
	"Arcadia/services/portals"
	"Arcadia/services/redis"
	socketio_types "Arcadia/services/socket_io/types"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/socket.io/v2/socket"
)

// portalPayload flattens a portal snapshot for emission.
func portalPayload(portal portals.Portal) gin.H {
	return gin.H{
		"game_type":  portal.GameType,
		"active":     portal.Active,
		"session_id": portal.SessionID,
		"capacity":   portal.Capacity,
		"queue":      portal.Queue(),
	}
}

// HandleJoinQueue puts the caller in a portal's waiting queue. Joining twice
// is a no-op. The Redis mirror keeps the queue visible to the REST surface.
// Event args: game type.
func HandleJoinQueue(redisClient *redis.RedisClient, client *socket.Socket,
	username string, sio *socketio_types.SocketServer,
	registry *portals.Registry) func(args ...interface{}) {
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

		if err := registry.JoinQueue(gameType, username); err != nil {
			client.Emit("error", gin.H{"error": err.Error()})
			return
		}
		if err := redisClient.AddToPortalQueue(gameType, username); err != nil {
			log.Printf("[PORTAL-ERROR] Error mirroring queue join: %v", err)
		}

		portal, err := registry.Get(gameType)
		if err != nil {
			client.Emit("error", gin.H{"error": err.Error()})
			return
		}
		client.Emit("queue_joined", portalPayload(portal))
		sio.Sio_server.To(socket.Room("portal:"+gameType)).Emit("queue_update", portalPayload(portal))
		client.Join(socket.Room("portal:" + gameType))
		log.Printf("[PORTAL] %s queued for %s (%d waiting)", username, gameType, len(portal.Queue()))
	}
}

// HandleLeaveQueue takes the caller out of a portal's waiting queue.
// Leaving a queue you are not in is a no-op. Event args: game type.
func HandleLeaveQueue(redisClient *redis.RedisClient, client *socket.Socket,
	username string, sio *socketio_types.SocketServer,
	registry *portals.Registry) func(args ...interface{}) {
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

		if err := registry.LeaveQueue(gameType, username); err != nil {
			client.Emit("error", gin.H{"error": err.Error()})
			return
		}
		if err := redisClient.RemoveFromPortalQueue(gameType, username); err != nil {
			log.Printf("[PORTAL-ERROR] Error mirroring queue leave: %v", err)
		}

		client.Leave(socket.Room("portal:" + gameType))
		portal, err := registry.Get(gameType)
		if err != nil {
			client.Emit("error", gin.H{"error": err.Error()})
			return
		}
		client.Emit("queue_left", gin.H{"game_type": gameType})
		sio.Sio_server.To(socket.Room("portal:"+gameType)).Emit("queue_update", portalPayload(portal))
	}
}

// HandleListPortals sends the caller a snapshot of every portal.
func HandleListPortals(client *socket.Socket,
	registry *portals.Registry) func(args ...interface{}) {
	return func(args ...interface{}) {
		all := registry.All()
		payloads := make([]gin.H, 0, len(all))
		for _, portal := range all {
			payloads = append(payloads, portalPayload(portal))
		}
		client.Emit("portals", gin.H{"portals": payloads})
	}
}
