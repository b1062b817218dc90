package controllers

import (
	models "Arcadia/models/postgres"
	"Arcadia/services/sessions"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// @Summary Gives info of a session
// @Description Given a session id, returns its durable row plus roster
// @Tags sessions
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param session_id path string true "Id of the session wanted"
// @Success 200 {object} object{session_id=string,game_type=string,status=string}
// @Failure 404 {object} object{error=string}
// @Failure 500 {object} object{error=string}
// @Router /auth/session_info/{session_id} [get]
// @Security ApiKeyAuth
func GetSessionInfo(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("session_id")

		var session models.GameSession
		result := db.Preload("SessionPlayers").Where("id = ?", sessionID).First(&session)
		if result.Error != nil {
			if result.Error == gorm.ErrRecordNotFound {
				c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": result.Error.Error()})
			}
			return
		}

		players := make([]gin.H, len(session.SessionPlayers))
		for i, player := range session.SessionPlayers {
			players[i] = gin.H{
				"username": player.Username,
				"role":     player.Role,
				"team":     player.Team,
				"ready":    player.Ready,
				"score":    player.Score,
				"winner":   player.Winner,
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"session_id":  session.ID,
			"game_type":   session.GameType,
			"host":        session.HostUsername,
			"status":      session.Status,
			"max_players": session.MaxPlayers,
			"settings":    session.Settings,
			"results":     session.Results,
			"created_at":  session.CreatedAt,
			"started_at":  session.StartedAt,
			"ended_at":    session.EndedAt,
			"players":     players,
		})
	}
}

// @Summary Lists all joinable sessions
// @Description Returns every live session still waiting for players
// @Tags sessions
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Success 200 {object} object{sessions=array}
// @Router /auth/sessions [get]
// @Security ApiKeyAuth
func GetActiveSessions(store *sessions.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		active := store.ActiveSessions()
		out := make([]gin.H, 0, len(active))
		for _, session := range active {
			if session.Status != sessions.StatusWaiting {
				continue
			}
			out = append(out, gin.H{
				"session_id":   session.ID,
				"game_type":    session.GameType,
				"host":         session.Host,
				"player_count": len(session.Players),
				"max_players":  session.MaxPlayers,
				"created_at":   session.CreatedAt,
			})
		}
		c.JSON(http.StatusOK, gin.H{"sessions": out})
	}
}

// @Summary Lists the authenticated user's finished sessions
// @Description Returns the durable history rows the user played in
// @Tags sessions
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Success 200 {object} object{sessions=array}
// @Failure 401 {object} object{error=string}
// @Router /auth/sessions/history [get]
// @Security ApiKeyAuth
func GetSessionHistory(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := userFromJWT(c, db)
		if err != nil {
			return
		}

		var rows []models.GameSession
		err = db.Joins("JOIN session_players ON session_players.session_id = game_sessions.id").
			Where("session_players.username = ? AND game_sessions.status = ?",
				user.ProfileUsername, models.SessionFinished).
			Order("game_sessions.ended_at DESC").
			Limit(50).
			Find(&rows).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error loading history"})
			return
		}

		out := make([]gin.H, len(rows))
		for i, session := range rows {
			out[i] = gin.H{
				"session_id": session.ID,
				"game_type":  session.GameType,
				"host":       session.HostUsername,
				"results":    session.Results,
				"started_at": session.StartedAt,
				"ended_at":   session.EndedAt,
			}
		}
		c.JSON(http.StatusOK, gin.H{"sessions": out})
	}
}
