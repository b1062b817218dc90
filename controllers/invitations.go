package controllers

import (
	models "Arcadia/models/postgres"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func invitationPayload(invitation *models.GameInvitation) gin.H {
	return gin.H{
		"id":         invitation.ID,
		"challenger": invitation.ChallengerUsername,
		"challenged": invitation.ChallengedUsername,
		"game_type":  invitation.GameType,
		"status":     invitation.EffectiveStatus(),
		"config":     invitation.Config,
		"session_id": invitation.SessionID,
		"created_at": invitation.CreatedAt,
		"expires_at": invitation.ExpiresAt,
	}
}

// @Summary Get all game invitations received by the authenticated user
// @Description Returns received invitations. Pending ones past their expiry read as expired
// @Tags invitations
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Success 200 {object} object{invitations=array}
// @Failure 401 {object} object{error=string}
// @Failure 500 {object} object{error=string}
// @Router /auth/received_invitations [get]
// @Security ApiKeyAuth
func GetAllReceivedInvitations(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := userFromJWT(c, db)
		if err != nil {
			return
		}

		var invitations []models.GameInvitation
		err = db.Where("challenged_username = ?", user.ProfileUsername).
			Order("created_at DESC").Limit(50).Find(&invitations).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error loading invitations"})
			return
		}

		out := make([]gin.H, len(invitations))
		for i := range invitations {
			out[i] = invitationPayload(&invitations[i])
		}
		c.JSON(http.StatusOK, gin.H{"invitations": out})
	}
}

// @Summary Get all game invitations sent by the authenticated user
// @Description Returns sent invitations with their effective status
// @Tags invitations
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Success 200 {object} object{invitations=array}
// @Failure 401 {object} object{error=string}
// @Failure 500 {object} object{error=string}
// @Router /auth/sent_invitations [get]
// @Security ApiKeyAuth
func GetAllSentInvitations(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := userFromJWT(c, db)
		if err != nil {
			return
		}

		var invitations []models.GameInvitation
		err = db.Where("challenger_username = ?", user.ProfileUsername).
			Order("created_at DESC").Limit(50).Find(&invitations).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error loading invitations"})
			return
		}

		out := make([]gin.H, len(invitations))
		for i := range invitations {
			out[i] = invitationPayload(&invitations[i])
		}
		c.JSON(http.StatusOK, gin.H{"invitations": out})
	}
}
