package controllers

import (
	"Arcadia/services/portals"
	"Arcadia/services/redis"
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary Lists all game portals
// @Description Returns every portal with its activity flag and waiting queue
// @Tags portals
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Success 200 {object} object{portals=array}
// @Router /auth/portals [get]
// @Security ApiKeyAuth
func GetPortals(registry *portals.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		all := registry.All()
		out := make([]gin.H, len(all))
		for i, portal := range all {
			out[i] = gin.H{
				"game_type":  portal.GameType,
				"active":     portal.Active,
				"session_id": portal.SessionID,
				"capacity":   portal.Capacity,
				"queue":      portal.Queue(),
			}
		}
		c.JSON(http.StatusOK, gin.H{"portals": out})
	}
}

// @Summary Gives the waiting queue of one portal
// @Description Returns the queue mirror kept in Redis for the given game type
// @Tags portals
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param game_type path string true "Game type of the portal"
// @Success 200 {object} object{game_type=string,queue=array}
// @Failure 500 {object} object{error=string}
// @Router /auth/portals/{game_type}/queue [get]
// @Security ApiKeyAuth
func GetPortalQueue(redisClient *redis.RedisClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		gameType := c.Param("game_type")

		queue, err := redisClient.GetPortalQueue(gameType)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error loading queue"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"game_type": gameType, "queue": queue})
	}
}
