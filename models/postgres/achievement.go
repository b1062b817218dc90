package postgres

import (
	"time"
)

/*
 * 'Achievement' is the static definition of an unlockable achievement.
 * Rows are seeded at migration time and never mutated afterwards.
 */
type Achievement struct {
	ID          string `gorm:"primaryKey;size:50;not null"`
	Name        string `gorm:"size:100;not null"`
	Description string `gorm:"size:255"`
	Category    string `gorm:"size:30"` // games | wins | score | social
	Rarity      string `gorm:"size:20"` // common | rare | epic | legendary
	Points      int    `gorm:"default:0"`
}

/*
 * 'PlayerAchievement' links a GameProfile with an unlocked Achievement.
 * Append-only: the composite key makes a double grant a constraint error.
 */
type PlayerAchievement struct {
	Username      string    `gorm:"primaryKey;size:50;not null"`
	AchievementID string    `gorm:"primaryKey;size:50;not null"`
	UnlockedAt    time.Time `gorm:"default:CURRENT_TIMESTAMP"`

	GameProfile GameProfile `gorm:"foreignKey:Username;constraint:OnDelete:CASCADE"`
	Achievement Achievement `gorm:"foreignKey:AchievementID"`
}
