package postgres

import (
	"time"

	"gorm.io/datatypes"
)

// Notification types surfaced in the user feed.
const (
	NotificationInvitation   = "invitation"
	NotificationGameStarting = "game-starting"
	NotificationAchievement  = "achievement"
	NotificationLeaderboard  = "leaderboard"
	NotificationSystem       = "system"
)

/*
 * 'Notification' is one entry of a user's feed. Appended on triggering
 * events; only the Read flag is ever mutated afterwards.
 */
type Notification struct {
	ID        string         `gorm:"primaryKey;size:50;not null"`
	Username  string         `gorm:"size:50;not null;index:idx_notifications_username"`
	Type      string         `gorm:"size:20;not null"`
	Title     string         `gorm:"size:100"`
	Message   string         `gorm:"size:255"`
	Payload   datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
	Read      bool           `gorm:"default:false"`
	CreatedAt time.Time      `gorm:"default:CURRENT_TIMESTAMP"`

	GameProfile GameProfile `gorm:"foreignKey:Username;constraint:OnDelete:CASCADE"`
}
