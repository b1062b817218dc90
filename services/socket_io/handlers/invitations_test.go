package handlers

import (
	"Arcadia/config"
	models "Arcadia/models/postgres"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := config.ConnectGORM()
	if err != nil {
		t.Skipf("Postgres not available, skipping: %v", err)
	}
	if err := db.Exec("SELECT 1").Error; err != nil {
		t.Skipf("Postgres not available, skipping: %v", err)
	}
	if err := db.AutoMigrate(&models.GameProfile{}, &models.GameInvitation{}); err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}
	return db
}

// Two writers race for the same pending invitation; exactly one terminal
// transition may land and the loser must see zero rows affected.
func TestResolveInvitationSingleTerminalWriter(t *testing.T) {
	db := openTestDB(t)

	challenger := models.GameProfile{Username: "resolve_test_challenger"}
	challenged := models.GameProfile{Username: "resolve_test_challenged"}
	require.NoError(t, db.FirstOrCreate(&challenger).Error)
	require.NoError(t, db.FirstOrCreate(&challenged).Error)

	invitation := models.GameInvitation{
		ID:                 uuid.NewString(),
		ChallengerUsername: challenger.Username,
		ChallengedUsername: challenged.Username,
		GameType:           "chess",
		Status:             models.InvitationPending,
		ExpiresAt:          time.Now().Add(5 * time.Minute),
	}
	require.NoError(t, db.Create(&invitation).Error)
	defer func() {
		db.Where("id = ?", invitation.ID).Delete(&models.GameInvitation{})
		db.Where("username IN ?", []string{challenger.Username, challenged.Username}).
			Delete(&models.GameProfile{})
	}()

	// First writer wins: the accept lands
	accepted := invitation
	resolved, err := resolveInvitation(db, &accepted, models.InvitationAccepted, nil)
	require.NoError(t, err)
	assert.True(t, resolved)
	assert.Equal(t, models.InvitationAccepted, accepted.Status)

	// Second writer holds a copy read before the accept committed, the way
	// the expiry timer does at the TTL boundary. The guard must reject it.
	stale := invitation
	resolved, err = resolveInvitation(db, &stale, models.InvitationExpired, nil)
	require.NoError(t, err)
	assert.False(t, resolved)

	var persisted models.GameInvitation
	require.NoError(t, db.Where("id = ?", invitation.ID).First(&persisted).Error)
	assert.Equal(t, models.InvitationAccepted, persisted.Status)
	assert.NotNil(t, persisted.RespondedAt)
}

func TestResolveInvitationRecordsSessionReference(t *testing.T) {
	db := openTestDB(t)

	challenger := models.GameProfile{Username: "resolve_ref_challenger"}
	challenged := models.GameProfile{Username: "resolve_ref_challenged"}
	require.NoError(t, db.FirstOrCreate(&challenger).Error)
	require.NoError(t, db.FirstOrCreate(&challenged).Error)

	invitation := models.GameInvitation{
		ID:                 uuid.NewString(),
		ChallengerUsername: challenger.Username,
		ChallengedUsername: challenged.Username,
		GameType:           "chess",
		Status:             models.InvitationPending,
		ExpiresAt:          time.Now().Add(5 * time.Minute),
	}
	require.NoError(t, db.Create(&invitation).Error)

	session := models.GameSession{
		GameType:     "chess",
		HostUsername: challenger.Username,
		Status:       models.SessionPlaying,
	}
	require.NoError(t, db.Create(&session).Error)
	defer func() {
		db.Where("id = ?", invitation.ID).Delete(&models.GameInvitation{})
		db.Where("id = ?", session.ID).Delete(&models.GameSession{})
		db.Where("username IN ?", []string{challenger.Username, challenged.Username}).
			Delete(&models.GameProfile{})
	}()

	resolved, err := resolveInvitation(db, &invitation, models.InvitationAccepted, &session.ID)
	require.NoError(t, err)
	assert.True(t, resolved)
	require.NotNil(t, invitation.SessionID)
	assert.Equal(t, session.ID, *invitation.SessionID)

	// A late expiry cannot clobber the accepted row or its session reference
	stale := models.GameInvitation{ID: invitation.ID}
	resolved, err = resolveInvitation(db, &stale, models.InvitationExpired, nil)
	require.NoError(t, err)
	assert.False(t, resolved)

	var persisted models.GameInvitation
	require.NoError(t, db.Where("id = ?", invitation.ID).First(&persisted).Error)
	assert.Equal(t, models.InvitationAccepted, persisted.Status)
	require.NotNil(t, persisted.SessionID)
	assert.Equal(t, session.ID, *persisted.SessionID)
}
