package socketio_utils

import (
	"Arcadia/middleware"
	models "Arcadia/models/postgres"
	redis_models "Arcadia/models/redis"
	"Arcadia/services/redis"
	"Arcadia/utils"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/socket.io/v2/socket"
	"gorm.io/gorm"
)

// VerifyUserConnection authenticates a fresh socket connection from the
// bearer token carried in the handshake auth payload. Returns the username
// and email of the connected account.
func VerifyUserConnection(client *socket.Socket, db *gorm.DB) (bool, string, string) {
	authData, ok := client.Handshake().Auth.(map[string]interface{})
	if !ok {
		log.Println("[CONN-ERROR] Handshake has no auth data")
		client.Emit("error", gin.H{"error": "Missing authentication"})
		client.Disconnect(true)
		return false, "", ""
	}

	rawToken, ok := authData["token"].(string)
	if !ok || rawToken == "" {
		log.Println("[CONN-ERROR] Handshake auth has no token")
		client.Emit("error", gin.H{"error": "Missing authentication token"})
		client.Disconnect(true)
		return false, "", ""
	}

	email, err := middleware.ParseToken(rawToken)
	if err != nil {
		log.Printf("[CONN-ERROR] Invalid token: %v", err)
		client.Emit("error", gin.H{"error": "Invalid authentication token"})
		client.Disconnect(true)
		return false, "", ""
	}

	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		log.Printf("[CONN-ERROR] User not found for email %s: %v", email, err)
		client.Emit("error", gin.H{"error": "User not found"})
		client.Disconnect(true)
		return false, "", ""
	}

	return true, user.ProfileUsername, email
}

// ValidateSessionAndUser checks that the user belongs to the session and
// returns the session's hot state from Redis. Emits the error to the client
// itself, so callers can just return on a non-nil error.
func ValidateSessionAndUser(redisClient *redis.RedisClient, client *socket.Socket,
	db *gorm.DB, username string, sessionID string) (*redis_models.GameSession, error) {

	isInSession, err := utils.IsPlayerInSession(db, sessionID, username)
	if err != nil {
		log.Printf("[VALIDATE-ERROR] Database error: %v", err)
		client.Emit("error", gin.H{"error": "Database error"})
		return nil, err
	}

	if !isInSession {
		log.Printf("[VALIDATE-ERROR] User is NOT in session: %s, Session: %s", username, sessionID)
		client.Emit("error", gin.H{"error": "You must join the session first"})
		return nil, fmt.Errorf("user not in session")
	}

	session, err := redisClient.GetGameSession(sessionID)
	if err != nil {
		log.Printf("[VALIDATE-ERROR] Error obtaining session: %v", err)
		client.Emit("error", gin.H{"error": "Error obtaining session information"})
		return nil, err
	}

	return session, nil
}

// ValidateMatchParticipant returns the canonical match state plus the color
// the user plays in it. Spectators and outsiders get an error emit.
func ValidateMatchParticipant(redisClient *redis.RedisClient, client *socket.Socket,
	username string, sessionID string) (*redis_models.MatchState, string, error) {

	state, err := redisClient.GetMatchState(sessionID)
	if err != nil {
		log.Printf("[MATCH-ERROR] Error obtaining match state: %v", err)
		client.Emit("error", gin.H{"error": "Error obtaining match state"})
		return nil, "", err
	}
	if state == nil {
		client.Emit("error", gin.H{"error": "Match not found"})
		return nil, "", fmt.Errorf("match %s not found", sessionID)
	}

	var color string
	switch username {
	case state.WhiteUsername:
		color = redis_models.ColorWhite
	case state.BlackUsername:
		color = redis_models.ColorBlack
	default:
		client.Emit("error", gin.H{"error": "You are not a player in this match"})
		return nil, "", fmt.Errorf("user %s not in match %s", username, sessionID)
	}

	return state, color, nil
}
