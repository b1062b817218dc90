package postgres

import (
	"gorm.io/datatypes"
)

/*
 * 'GameProfile' defines the structure for a user's game profile. It is
 * referenced in User, GameSession, SessionPlayer, GameInvitation,
 * PlayerAchievement and Notification
 */
type GameProfile struct {
	Username   string         `gorm:"primaryKey;size:50;not null"`
	UserStats  datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
	UserIcon   int            `gorm:"default:0"`
	IsInAGame  bool           `gorm:"default:false"`
	TotalScore int            `gorm:"default:0"`
	GamesWon   int            `gorm:"default:0"`

	GameSessions       []GameSession       `gorm:"foreignKey:HostUsername"`
	SessionPlayers     []SessionPlayer     `gorm:"foreignKey:Username"`
	SentInvitations    []GameInvitation    `gorm:"foreignKey:ChallengerUsername"`
	PendingInvitations []GameInvitation    `gorm:"foreignKey:ChallengedUsername"`
	Achievements       []PlayerAchievement `gorm:"foreignKey:Username"`
	Notifications      []Notification      `gorm:"foreignKey:Username"`
}
