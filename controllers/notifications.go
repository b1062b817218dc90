package controllers

import (
	models "Arcadia/models/postgres"
	"Arcadia/services/notifications"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// @Summary Get the authenticated user's notification feed
// @Description Returns the in-memory feed, newest first, plus the unread count
// @Tags notifications
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Success 200 {object} object{notifications=array,unread=integer}
// @Failure 401 {object} object{error=string}
// @Router /auth/notifications [get]
// @Security ApiKeyAuth
func GetNotifications(db *gorm.DB, feed *notifications.Feed) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := userFromJWT(c, db)
		if err != nil {
			return
		}

		username := user.ProfileUsername
		c.JSON(http.StatusOK, gin.H{
			"notifications": feed.List(username),
			"unread":        feed.UnreadCount(username),
		})
	}
}

// @Summary Mark one notification as read
// @Description Flips the read flag on one feed entry and its durable row
// @Tags notifications
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param notification_id path string true "Id of the notification"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} object{error=string}
// @Router /auth/notifications/{notification_id}/read [patch]
// @Security ApiKeyAuth
func MarkNotificationRead(db *gorm.DB, feed *notifications.Feed) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := userFromJWT(c, db)
		if err != nil {
			return
		}
		notificationID := c.Param("notification_id")

		if !feed.MarkRead(user.ProfileUsername, notificationID) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
			return
		}
		if err := db.Model(&models.Notification{}).
			Where("id = ? AND username = ?", notificationID, user.ProfileUsername).
			Update("read", true).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating notification"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
	}
}

// @Summary Mark every notification as read
// @Description Flips the read flag on the whole feed and the durable rows
// @Tags notifications
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Success 200 {object} object{message=string}
// @Failure 401 {object} object{error=string}
// @Router /auth/notifications/read_all [patch]
// @Security ApiKeyAuth
func MarkAllNotificationsRead(db *gorm.DB, feed *notifications.Feed) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := userFromJWT(c, db)
		if err != nil {
			return
		}

		feed.MarkAllRead(user.ProfileUsername)
		if err := db.Model(&models.Notification{}).
			Where("username = ? AND read = false", user.ProfileUsername).
			Update("read", true).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating notifications"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "All notifications marked as read"})
	}
}

// @Summary Clear the authenticated user's notification feed
// @Description Empties the in-memory feed. Durable rows are kept as history
// @Tags notifications
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Success 200 {object} object{message=string}
// @Failure 401 {object} object{error=string}
// @Router /auth/notifications [delete]
// @Security ApiKeyAuth
func ClearNotifications(db *gorm.DB, feed *notifications.Feed) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := userFromJWT(c, db)
		if err != nil {
			return
		}

		feed.Clear(user.ProfileUsername)
		c.JSON(http.StatusOK, gin.H{"message": "Feed cleared"})
	}
}
