package controllers

import (
	models "Arcadia/models/postgres"
	"Arcadia/services/sessions"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// @Summary Global leaderboard
// @Description Returns the top profiles ordered by total score. Ties share a score but are ordered by username
// @Tags leaderboard
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param limit query int false "Max entries, default 20"
// @Success 200 {object} object{leaderboard=array}
// @Failure 500 {object} object{error=string}
// @Router /auth/leaderboard [get]
// @Security ApiKeyAuth
func GetLeaderboard(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 20
		if raw := c.Query("limit"); raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
				limit = parsed
			}
		}

		var profiles []models.GameProfile
		err := db.Order("total_score DESC, username ASC").Limit(limit).Find(&profiles).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error loading leaderboard"})
			return
		}

		entries := make([]gin.H, len(profiles))
		for i, profile := range profiles {
			entries[i] = gin.H{
				"rank":        i + 1,
				"username":    profile.Username,
				"icon":        profile.UserIcon,
				"total_score": profile.TotalScore,
				"games_won":   profile.GamesWon,
			}
		}
		c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
	}
}

// @Summary Live leaderboard for the current server run
// @Description Returns the in-memory aggregate computed over finished sessions since startup
// @Tags leaderboard
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Success 200 {object} object{leaderboard=array}
// @Router /auth/leaderboard/live [get]
// @Security ApiKeyAuth
func GetLiveLeaderboard(store *sessions.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"leaderboard": store.UpdateLeaderboard()})
	}
}

// @Summary Achievements unlocked by a user
// @Description Returns the unlocked achievements of the given username
// @Tags leaderboard
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param username path string true "Username wanted"
// @Success 200 {object} object{achievements=array}
// @Failure 500 {object} object{error=string}
// @Router /auth/achievements/{username} [get]
// @Security ApiKeyAuth
func GetUserAchievements(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.Param("username")

		var unlocked []models.PlayerAchievement
		err := db.Preload("Achievement").Where("username = ?", username).
			Order("unlocked_at DESC").Find(&unlocked).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error loading achievements"})
			return
		}

		out := make([]gin.H, len(unlocked))
		for i, grant := range unlocked {
			out[i] = gin.H{
				"id":          grant.AchievementID,
				"name":        grant.Achievement.Name,
				"description": grant.Achievement.Description,
				"category":    grant.Achievement.Category,
				"rarity":      grant.Achievement.Rarity,
				"points":      grant.Achievement.Points,
				"unlocked_at": grant.UnlockedAt,
			}
		}
		c.JSON(http.StatusOK, gin.H{"achievements": out})
	}
}
