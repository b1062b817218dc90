package postgres

import (
	"math/rand"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Session status values. Transitions only move forward:
// waiting -> starting -> playing -> (paused <-> playing) -> finished
const (
	SessionWaiting  = "waiting"
	SessionStarting = "starting"
	SessionPlaying  = "playing"
	SessionPaused   = "paused"
	SessionFinished = "finished"
)

/*
 * 'GameSession' defines the structure of an Arcadia game session.
 * It contains references to GameProfile and SessionPlayer
 */
type GameSession struct {
	ID           string    `gorm:"primaryKey;size:50;not null"`
	GameType     string    `gorm:"size:30;not null;index:idx_game_sessions_type"`
	HostUsername string    `gorm:"size:50;index:idx_game_sessions_host"`
	Status       string    `gorm:"size:20;default:'waiting';index:idx_game_sessions_status"`
	MaxPlayers   int       `gorm:"default:8"`
	MinPlayers   int       `gorm:"default:2"`
	Settings     datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
	Results      datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
	CreatedAt    time.Time `gorm:"default:CURRENT_TIMESTAMP"`
	StartedAt    *time.Time
	EndedAt      *time.Time

	// Relationships
	Host           GameProfile      `gorm:"foreignKey:HostUsername"`
	SessionPlayers []*SessionPlayer `gorm:"foreignKey:SessionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// Random session id generation
const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func generateSessionID(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}

// Ensure the id is trully unique before inserting a new session row.
func (s *GameSession) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID != "" {
		return nil
	}
	for {
		newID := generateSessionID(6)
		var existing GameSession
		if err := tx.Where("id = ?", newID).First(&existing).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				s.ID = newID
				return nil
			}
			return err
		}
		// Collision, loop again and generate a new one
	}
}
