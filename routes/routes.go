package routes

import (
	"Arcadia/controllers"
	"Arcadia/middleware"
	"Arcadia/services/notifications"
	"Arcadia/services/portals"
	"Arcadia/services/redis"
	"Arcadia/services/sessions"
	utils "Arcadia/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, db *gorm.DB, redisClient *redis.RedisClient,
	store *sessions.Store, registry *portals.Registry, feed *notifications.Feed) {

	// utils global
	router.Use(utils.ErrorHandler())

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API routes group
	api := router.Group("/")

	api.GET("/ping", controllers.Ping)

	api.GET("/users/:username", controllers.GetUserPublicInfo(db, redisClient))

	api.POST("/login", controllers.Login(db))

	api.POST("/signup", controllers.SignUp(db))

	authentication := api.Group("/auth")
	authentication.Use(middleware.AuthRequired)
	{
		authentication.DELETE("/logout", controllers.Logout)

		authentication.GET("/me", controllers.GetUserPrivateInfo(db))

		authentication.GET("/sessions", controllers.GetActiveSessions(store))

		authentication.GET("/sessions/history", controllers.GetSessionHistory(db))

		authentication.GET("/session_info/:session_id", controllers.GetSessionInfo(db))

		authentication.GET("/received_invitations", controllers.GetAllReceivedInvitations(db))

		authentication.GET("/sent_invitations", controllers.GetAllSentInvitations(db))

		authentication.GET("/leaderboard", controllers.GetLeaderboard(db))

		authentication.GET("/leaderboard/live", controllers.GetLiveLeaderboard(store))

		authentication.GET("/achievements/:username", controllers.GetUserAchievements(db))

		authentication.GET("/notifications", controllers.GetNotifications(db, feed))

		authentication.PATCH("/notifications/read_all", controllers.MarkAllNotificationsRead(db, feed))

		authentication.PATCH("/notifications/:notification_id/read", controllers.MarkNotificationRead(db, feed))

		authentication.DELETE("/notifications", controllers.ClearNotifications(db, feed))

		authentication.GET("/portals", controllers.GetPortals(registry))

		authentication.GET("/portals/:game_type/queue", controllers.GetPortalQueue(redisClient))
	}
}
