package postgres

import (
	"time"

	"gorm.io/datatypes"
)

/*
 * 'SessionPlayer' represents the state of a player inside one game session.
 * It contains references to GameSession and GameProfile
 */
type SessionPlayer struct {
	// NOTE: composite primary key definition
	SessionID string         `gorm:"primaryKey;size:50;not null"`
	Username  string         `gorm:"primaryKey;size:50;not null;index"`
	Role      string         `gorm:"size:20;default:'player'"` // host | player | spectator
	Team      string         `gorm:"size:50"`
	Ready     bool           `gorm:"default:false"`
	Score     int            `gorm:"default:0"`
	Winner    bool           `gorm:"default:false"`
	Extra     datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
	JoinedAt  time.Time      `gorm:"default:CURRENT_TIMESTAMP"`

	// Relationship with the session and the user's game profile
	GameSession GameSession `gorm:"foreignKey:SessionID"`
	GameProfile GameProfile `gorm:"foreignKey:Username"`
}
