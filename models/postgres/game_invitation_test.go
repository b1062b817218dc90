package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEffectiveStatusExpiresPendingInvitations(t *testing.T) {
	invitation := GameInvitation{
		Status:    InvitationPending,
		ExpiresAt: time.Now().Add(-time.Minute),
	}

	assert.Equal(t, InvitationPending, invitation.Status, "stored status is untouched")
	assert.Equal(t, InvitationExpired, invitation.EffectiveStatus(), "readers must see expired")
	assert.True(t, invitation.IsExpired())
}

func TestEffectiveStatusKeepsLivePendingInvitations(t *testing.T) {
	invitation := GameInvitation{
		Status:    InvitationPending,
		ExpiresAt: time.Now().Add(5 * time.Minute),
	}

	assert.Equal(t, InvitationPending, invitation.EffectiveStatus())
	assert.False(t, invitation.IsTerminal())
}

func TestTerminalStatusWinsOverExpiry(t *testing.T) {
	// Accepted before the window closed, read after: stays accepted
	invitation := GameInvitation{
		Status:    InvitationAccepted,
		ExpiresAt: time.Now().Add(-time.Hour),
	}

	assert.Equal(t, InvitationAccepted, invitation.EffectiveStatus())
	assert.True(t, invitation.IsTerminal())
}

func TestInvitationConfigValidation(t *testing.T) {
	valid := InvitationConfig{TimeControl: 300, ChallengerColor: "b"}
	assert.NoError(t, valid.Validate())

	badColor := InvitationConfig{TimeControl: 300, ChallengerColor: "white"}
	assert.Error(t, badColor.Validate())

	badClock := InvitationConfig{TimeControl: -1, ChallengerColor: "w"}
	assert.Error(t, badClock.Validate())
}
