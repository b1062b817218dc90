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
	syncmanager "Arcadia/sync"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/zishang520/socket.io/v2/socket"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// HandleSendInvitation creates a pending invitation row, pushes it to the
// challenged player if they are connected, and arms the expiry timer on the
// challenger's side. Event args: challenged username, game type, config map.
func HandleSendInvitation(redisClient *redis.RedisClient, client *socket.Socket,
	db *gorm.DB, username string, sio *socketio_types.SocketServer,
	feed *notifications.Feed) func(args ...interface{}) {
	return func(args ...interface{}) {
		if len(args) < 2 {
			client.Emit("error", gin.H{"error": "Missing invitation arguments"})
			return
		}

		challenged, ok := args[0].(string)
		if !ok || challenged == "" {
			client.Emit("error", gin.H{"error": "Missing challenged username"})
			return
		}
		gameType, ok := args[1].(string)
		if !ok {
			client.Emit("error", gin.H{"error": "Missing game type"})
			return
		}

		if challenged == username {
			client.Emit("error", gin.H{"error": "You cannot challenge yourself"})
			return
		}

		log.Printf("[INVITE] %s challenges %s to %s", username, challenged, gameType)

		// Config defaults, overridden by the optional third argument
		config := models.InvitationConfig{
			TimeControl:     game_constants.DefaultClockSeconds,
			ChallengerColor: redis_models.ColorWhite,
		}
		if len(args) > 2 {
			raw, err := json.Marshal(args[2])
			if err == nil {
				_ = json.Unmarshal(raw, &config)
			}
		}
		if err := config.Validate(); err != nil {
			client.Emit("error", gin.H{"error": err.Error()})
			return
		}

		// Challenged player must exist
		var profile models.GameProfile
		if err := db.Where("username = ?", challenged).First(&profile).Error; err != nil {
			client.Emit("error", gin.H{"error": "Challenged player not found"})
			return
		}

		configJSON, err := json.Marshal(config)
		if err != nil {
			client.Emit("error", gin.H{"error": "Invalid invitation config"})
			return
		}

		invitation := models.GameInvitation{
			ID:                 uuid.NewString(),
			ChallengerUsername: username,
			ChallengedUsername: challenged,
			GameType:           gameType,
			Status:             models.InvitationPending,
			Config:             datatypes.JSON(configJSON),
			CreatedAt:          time.Now(),
			ExpiresAt:          time.Now().Add(game_constants.InvitationTTL),
		}

		if err := db.Create(&invitation).Error; err != nil {
			log.Printf("[INVITE-ERROR] Error creating invitation: %v", err)
			client.Emit("error", gin.H{"error": "Error creating invitation"})
			return
		}

		// Push to the challenged player and mirror into their feed
		item := feed.Add(challenged, models.NotificationInvitation,
			"New challenge",
			fmt.Sprintf("%s challenged you to a game of %s", username, gameType),
			json.RawMessage(configJSON))
		persistNotification(db, challenged, item)

		if challengedSocket, connected := sio.GetConnection(challenged); connected {
			challengedSocket.Emit("invitation_received", gin.H{
				"invitation_id": invitation.ID,
				"challenger":    username,
				"game_type":     gameType,
				"config":        config,
				"expires_at":    invitation.ExpiresAt.Format(time.RFC3339),
			})
		}

		client.Emit("invitation_sent", gin.H{
			"invitation_id": invitation.ID,
			"challenged":    challenged,
			"expires_at":    invitation.ExpiresAt.Format(time.RFC3339),
		})

		// Challenger-side timeout: an unanswered invitation is an implicit
		// decline after the window, even if no status update ever arrives.
		time.AfterFunc(game_constants.InvitationTTL, func() {
			expireInvitation(db, sio, feed, invitation.ID)
		})
	}
}

var errInvitationResolved = fmt.Errorf("invitation already resolved")

// resolveInvitation writes a terminal status guarded on the row still being
// pending. The guard lives in the WHERE clause, so two racing writers (the
// expiry timer and an accept, say) cannot both land a terminal transition:
// whoever commits second matches zero rows. Returns false when another
// writer got there first; on success the in-memory row is updated to match.
func resolveInvitation(db *gorm.DB, invitation *models.GameInvitation,
	status string, sessionID *string) (bool, error) {
	now := time.Now()
	updates := map[string]interface{}{
		"status":       status,
		"responded_at": now,
	}
	if sessionID != nil {
		updates["session_id"] = *sessionID
	}

	res := db.Model(&models.GameInvitation{}).
		Where("id = ? AND status = ?", invitation.ID, models.InvitationPending).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	invitation.Status = status
	invitation.RespondedAt = &now
	if sessionID != nil {
		invitation.SessionID = sessionID
	}
	return true, nil
}

// expireInvitation flips a still-pending invitation to expired and tells the
// challenger the wait is over.
func expireInvitation(db *gorm.DB, sio *socketio_types.SocketServer,
	feed *notifications.Feed, invitationID string) {
	var invitation models.GameInvitation
	if err := db.Where("id = ?", invitationID).First(&invitation).Error; err != nil {
		return
	}
	if invitation.IsTerminal() {
		return
	}

	resolved, err := resolveInvitation(db, &invitation, models.InvitationExpired, nil)
	if err != nil {
		log.Printf("[INVITE-ERROR] Error expiring invitation %s: %v", invitationID, err)
		return
	}
	if !resolved {
		// An accept or decline landed between our read and the update
		return
	}
	log.Printf("[INVITE] Invitation %s expired without response", invitationID)

	item := feed.Add(invitation.ChallengerUsername, models.NotificationSystem,
		"Challenge expired",
		fmt.Sprintf("%s did not answer your challenge", invitation.ChallengedUsername), nil)
	persistNotification(db, invitation.ChallengerUsername, item)

	if challengerSocket, connected := sio.GetConnection(invitation.ChallengerUsername); connected {
		challengerSocket.Emit("invitation_expired", gin.H{"invitation_id": invitationID})
	}
}

// HandleRespondInvitation resolves a pending invitation. On accept, the
// session row and the invitation update are committed in one transaction so
// a crash can't leave an orphaned session; the canonical match state is then
// seeded in Redis and both players are moved into the session room.
// Event args: invitation id, accept flag.
func HandleRespondInvitation(redisClient *redis.RedisClient, client *socket.Socket,
	db *gorm.DB, username string, sio *socketio_types.SocketServer,
	store *sessions.Store, feed *notifications.Feed,
	syncMgr *syncmanager.SyncManager) func(args ...interface{}) {
	return func(args ...interface{}) {
		if len(args) < 2 {
			client.Emit("error", gin.H{"error": "Missing response arguments"})
			return
		}
		invitationID, ok := args[0].(string)
		if !ok {
			client.Emit("error", gin.H{"error": "Missing invitation id"})
			return
		}
		accept, ok := args[1].(bool)
		if !ok {
			client.Emit("error", gin.H{"error": "Missing accept flag"})
			return
		}

		var invitation models.GameInvitation
		if err := db.Where("id = ?", invitationID).First(&invitation).Error; err != nil {
			client.Emit("error", gin.H{"error": "Invitation not found"})
			return
		}

		if invitation.ChallengedUsername != username {
			client.Emit("error", gin.H{"error": "This invitation is not for you"})
			return
		}

		// Read-time expiry check: a pending row past its expiry is dead even
		// if the background timer hasn't fired yet.
		if invitation.EffectiveStatus() != models.InvitationPending {
			if !invitation.IsTerminal() {
				expireInvitation(db, sio, feed, invitation.ID)
			}
			client.Emit("error", gin.H{"error": "Invitation is no longer pending"})
			return
		}

		if !accept {
			declineInvitation(db, sio, feed, &invitation)
			client.Emit("invitation_declined", gin.H{"invitation_id": invitationID})
			return
		}

		var config models.InvitationConfig
		if err := json.Unmarshal(invitation.Config, &config); err != nil {
			client.Emit("error", gin.H{"error": "Corrupt invitation config"})
			return
		}

		// The responder takes the complement of the challenger's color
		challengerColor := config.ChallengerColor
		responderColor := match.OppositeColor(challengerColor)

		whiteUsername := invitation.ChallengerUsername
		blackUsername := username
		if challengerColor == redis_models.ColorBlack {
			whiteUsername, blackUsername = blackUsername, whiteUsername
		}

		now := time.Now()
		session := models.GameSession{
			GameType:     invitation.GameType,
			HostUsername: invitation.ChallengerUsername,
			Status:       models.SessionPlaying,
			MaxPlayers:   game_constants.TwoPlayerSessionPlayers,
			MinPlayers:   game_constants.TwoPlayerSessionPlayers,
			Settings:     invitation.Config,
			StartedAt:    &now,
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&session).Error; err != nil {
				return err
			}
			players := []models.SessionPlayer{
				{SessionID: session.ID, Username: invitation.ChallengerUsername, Role: "host"},
				{SessionID: session.ID, Username: username, Role: "player"},
			}
			if err := tx.Create(&players).Error; err != nil {
				return err
			}

			resolved, err := resolveInvitation(tx, &invitation, models.InvitationAccepted, &session.ID)
			if err != nil {
				return err
			}
			if !resolved {
				// The expiry timer or a concurrent response won the row;
				// roll the session rows back with us
				return errInvitationResolved
			}
			return nil
		})
		if err == errInvitationResolved {
			client.Emit("error", gin.H{"error": "Invitation is no longer pending"})
			return
		}
		if err != nil {
			log.Printf("[INVITE-ERROR] Error accepting invitation %s: %v", invitationID, err)
			client.Emit("error", gin.H{"error": "Error accepting invitation"})
			return
		}

		// Mirror into the in-memory store
		memSession := store.CreateSessionWithID(session.ID, invitation.GameType,
			invitation.ChallengerUsername, sessions.Settings{TimeLimit: config.TimeControl})
		store.JoinSession(memSession.ID, sessions.Player{
			Username: invitation.ChallengerUsername, Role: sessions.RoleHost,
		})
		store.JoinSession(memSession.ID, sessions.Player{Username: username})
		if err := store.StartSession(memSession.ID); err != nil {
			log.Printf("[INVITE-ERROR] Error starting session in store: %v", err)
		}

		// Seed the canonical match state and the session hot state
		state := match.NewMatchState(session.ID, whiteUsername, blackUsername, config.TimeControl)
		if err := redisClient.SaveMatchState(state); err != nil {
			log.Printf("[INVITE-ERROR] Error saving match state: %v", err)
			client.Emit("error", gin.H{"error": "Error initializing match"})
			return
		}
		if err := redisClient.SaveGameSession(&redis_models.GameSession{
			Id:           session.ID,
			GameType:     invitation.GameType,
			HostUsername: invitation.ChallengerUsername,
			Status:       models.SessionPlaying,
			MaxPlayers:   game_constants.TwoPlayerSessionPlayers,
			PlayerCount:  game_constants.TwoPlayerSessionPlayers,
			StartedAt:    now,
		}); err != nil {
			log.Printf("[INVITE-ERROR] Error saving session hot state: %v", err)
		}

		// Server-side authoritative countdown for this match
		startClockWatchdog(redisClient, db, sio, store, feed, syncMgr, state)

		// Responder joins the room now; the challenger joins on their
		// invitation_accepted notification
		client.Join(socket.Room(session.ID))

		client.Emit("match_ready", gin.H{
			"session_id": session.ID,
			"color":      responderColor,
			"fen":        state.FEN,
			"clock":      config.TimeControl,
		})

		item := feed.Add(invitation.ChallengerUsername, models.NotificationGameStarting,
			"Challenge accepted",
			fmt.Sprintf("%s accepted your challenge", username), nil)
		persistNotification(db, invitation.ChallengerUsername, item)

		if challengerSocket, connected := sio.GetConnection(invitation.ChallengerUsername); connected {
			challengerSocket.Join(socket.Room(session.ID))
			challengerSocket.Emit("invitation_accepted", gin.H{
				"invitation_id": invitationID,
				"session_id":    session.ID,
				"color":         challengerColor,
				"fen":           state.FEN,
				"clock":         config.TimeControl,
			})
		}

		log.Printf("[INVITE] Invitation %s accepted, match %s (%s vs %s)",
			invitationID, session.ID, whiteUsername, blackUsername)
	}
}

func declineInvitation(db *gorm.DB, sio *socketio_types.SocketServer,
	feed *notifications.Feed, invitation *models.GameInvitation) {
	resolved, err := resolveInvitation(db, invitation, models.InvitationDeclined, nil)
	if err != nil {
		log.Printf("[INVITE-ERROR] Error declining invitation %s: %v", invitation.ID, err)
		return
	}
	if !resolved {
		return
	}

	item := feed.Add(invitation.ChallengerUsername, models.NotificationSystem,
		"Challenge declined",
		fmt.Sprintf("%s declined your challenge", invitation.ChallengedUsername), nil)
	persistNotification(db, invitation.ChallengerUsername, item)

	if challengerSocket, connected := sio.GetConnection(invitation.ChallengerUsername); connected {
		challengerSocket.Emit("invitation_declined", gin.H{"invitation_id": invitation.ID})
	}
}

// HandleCancelInvitation lets the challenger withdraw a pending invitation.
// Event args: invitation id.
func HandleCancelInvitation(redisClient *redis.RedisClient, client *socket.Socket,
	db *gorm.DB, username string, sio *socketio_types.SocketServer) func(args ...interface{}) {
	return func(args ...interface{}) {
		if len(args) < 1 {
			client.Emit("error", gin.H{"error": "Missing invitation id"})
			return
		}
		invitationID, ok := args[0].(string)
		if !ok {
			client.Emit("error", gin.H{"error": "Missing invitation id"})
			return
		}

		var invitation models.GameInvitation
		if err := db.Where("id = ?", invitationID).First(&invitation).Error; err != nil {
			client.Emit("error", gin.H{"error": "Invitation not found"})
			return
		}
		if invitation.ChallengerUsername != username {
			client.Emit("error", gin.H{"error": "Only the challenger can cancel"})
			return
		}
		if invitation.IsTerminal() {
			client.Emit("error", gin.H{"error": "Invitation is no longer pending"})
			return
		}

		resolved, err := resolveInvitation(db, &invitation, models.InvitationCancelled, nil)
		if err != nil {
			log.Printf("[INVITE-ERROR] Error cancelling invitation %s: %v", invitationID, err)
			client.Emit("error", gin.H{"error": "Error cancelling invitation"})
			return
		}
		if !resolved {
			client.Emit("error", gin.H{"error": "Invitation is no longer pending"})
			return
		}

		if challengedSocket, connected := sio.GetConnection(invitation.ChallengedUsername); connected {
			challengedSocket.Emit("invitation_cancelled", gin.H{"invitation_id": invitationID})
		}
		client.Emit("invitation_cancelled", gin.H{"invitation_id": invitationID})
	}
}

// persistNotification mirrors a feed item into the notifications table.
func persistNotification(db *gorm.DB, username string, item *notifications.Item) {
	payload := item.Payload
	if payload == nil {
		payload = json.RawMessage(`{}`)
	}
	notification := models.Notification{
		ID:        item.ID,
		Username:  username,
		Type:      item.Type,
		Title:     item.Title,
		Message:   item.Message,
		Payload:   datatypes.JSON(payload),
		CreatedAt: item.CreatedAt,
	}
	if err := db.Create(&notification).Error; err != nil {
		log.Printf("[NOTIFY-ERROR] Error persisting notification for %s: %v", username, err)
	}
}

// persistAchievement records an unlock in the player_achievements table.
// The composite key turns a double grant into a constraint error, which is
// logged and swallowed.
func persistAchievement(db *gorm.DB, username string, achievementID string) {
	grant := models.PlayerAchievement{
		Username:      username,
		AchievementID: achievementID,
	}
	if err := db.Create(&grant).Error; err != nil {
		log.Printf("[ACHIEVEMENT-ERROR] Error persisting grant %s for %s: %v",
			achievementID, username, err)
	}
}
