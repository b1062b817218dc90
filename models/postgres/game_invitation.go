package postgres

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// Invitation status values. Exactly one terminal status is ever reached.
const (
	InvitationPending   = "pending"
	InvitationAccepted  = "accepted"
	InvitationDeclined  = "declined"
	InvitationExpired   = "expired"
	InvitationCancelled = "cancelled"
)

/*
 * 'GameInvitation' represents a challenge from one player to another to
 * start a two-player game. It contains references to GameProfile and,
 * once accepted, to the GameSession that was created for it.
 */
type GameInvitation struct {
	ID                 string         `gorm:"primaryKey;size:50;not null"`
	ChallengerUsername string         `gorm:"size:50;not null;index:idx_game_invitations_challenger"`
	ChallengedUsername string         `gorm:"size:50;not null;index:idx_game_invitations_challenged"`
	GameType           string         `gorm:"size:30;not null"`
	Status             string         `gorm:"size:20;default:'pending'"`
	Config             datatypes.JSON `gorm:"type:jsonb;default:'{}'"` // time control, challenger color, ...
	SessionID          *string        `gorm:"size:50"`                 // set exactly once, on accept
	CreatedAt          time.Time      `gorm:"default:CURRENT_TIMESTAMP"`
	ExpiresAt          time.Time      `gorm:"not null"`
	RespondedAt        *time.Time

	// Relationships
	Challenger  GameProfile  `gorm:"foreignKey:ChallengerUsername;constraint:OnDelete:CASCADE"`
	Challenged  GameProfile  `gorm:"foreignKey:ChallengedUsername;constraint:OnDelete:CASCADE"`
	GameSession *GameSession `gorm:"foreignKey:SessionID"`
}

// InvitationConfig is the typed shape of the Config jsonb blob. Parsed and
// validated at the boundary so a malformed payload fails the send, not the
// accept.
type InvitationConfig struct {
	TimeControl     int    `json:"time_control"`     // seconds per side
	ChallengerColor string `json:"challenger_color"` // "w" or "b"
}

// Validate rejects malformed configs before anything is persisted.
func (c *InvitationConfig) Validate() error {
	if c.TimeControl < 0 {
		return fmt.Errorf("time control must be positive")
	}
	if c.ChallengerColor != "w" && c.ChallengerColor != "b" {
		return fmt.Errorf("challenger color must be 'w' or 'b'")
	}
	return nil
}

// IsExpired returns true once the expiry window has passed.
func (i *GameInvitation) IsExpired() bool {
	return time.Now().After(i.ExpiresAt)
}

// IsTerminal returns true when the invitation can no longer change status.
func (i *GameInvitation) IsTerminal() bool {
	return i.Status != InvitationPending
}

// EffectiveStatus is what readers must treat the invitation as: a pending
// invitation past its expiry reads as expired even if no UPDATE ever landed.
func (i *GameInvitation) EffectiveStatus() string {
	if i.Status == InvitationPending && i.IsExpired() {
		return InvitationExpired
	}
	return i.Status
}
