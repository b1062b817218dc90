package utils

import (
	"Arcadia/models/postgres"
	"fmt"

	"gorm.io/gorm"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/socket.io/v2/socket"
)

// Function to check if a session row exists
func CheckSessionExists(db *gorm.DB, sessionID string) (*postgres.GameSession, error) {
	var session postgres.GameSession
	result := db.Where("id = ?", sessionID).First(&session)

	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("session not found")
		}
		return nil, result.Error
	}

	return &session, nil
}

func IsPlayerInSession(db *gorm.DB, sessionID string, username string) (bool, error) {
	var count int64
	err := db.Model(&postgres.SessionPlayer{}).
		Where("session_id = ? AND username = ?", sessionID, username).
		Count(&count).Error

	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// Check if user is in session, emitting the error to the client
func UserExistsInSession(db *gorm.DB, sessionID string, username string, client *socket.Socket) (inSession bool, e error) {
	isInSession, err := IsPlayerInSession(db, sessionID, username)
	if err != nil {
		fmt.Println("Database error:", err)
		client.Emit("error", gin.H{"error": "Database error"})
	}
	return isInSession, err
}

// Returns the icon of the user
func UserIcon(db *gorm.DB, username string) int {
	var icon int
	err := db.Model(&postgres.GameProfile{}).
		Select("user_icon").
		Where("username = ?", username).
		Find(&icon).Error
	if err != nil {
		return 1
	}

	return icon
}

// ErrorHandler handles global errors
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
	}
}
