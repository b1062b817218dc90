package sessions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionCapacity(t *testing.T) {
	store := NewStore()
	session := store.CreateSession("chess", "playerA", Settings{})

	assert.Equal(t, StatusWaiting, session.Status)
	assert.Equal(t, 2, session.MaxPlayers)

	assert.True(t, store.JoinSession(session.ID, Player{Username: "playerA", Role: RoleHost}))
	assert.True(t, store.JoinSession(session.ID, Player{Username: "playerB"}))

	// Third join on a full session must fail and leave the roster untouched
	assert.False(t, store.JoinSession(session.ID, Player{Username: "playerC"}))

	got, ok := store.GetSession(session.ID)
	assert.True(t, ok)
	assert.Len(t, got.Players, 2)
	assert.Equal(t, "playerA", got.Players[0].Username)
	assert.Equal(t, "playerB", got.Players[1].Username)
}

func TestJoinSessionDedupe(t *testing.T) {
	store := NewStore()
	session := store.CreateSession("trivia", "host", Settings{})

	assert.True(t, store.JoinSession(session.ID, Player{Username: "host", Role: RoleHost}))
	// A duplicate join by the same username reports success but must not
	// produce a duplicate roster entry
	assert.True(t, store.JoinSession(session.ID, Player{Username: "host"}))

	got, _ := store.GetSession(session.ID)
	assert.Len(t, got.Players, 1)
}

func TestJoinUnknownSession(t *testing.T) {
	store := NewStore()
	assert.False(t, store.JoinSession("nope", Player{Username: "playerA"}))
}

func TestTeamCapacity(t *testing.T) {
	store := NewStore()
	session := store.CreateSession("trivia", "host", Settings{
		TeamsEnabled:   true,
		MaxTeams:       3,
		PlayersPerTeam: 2,
	})
	assert.Equal(t, 6, session.MaxPlayers)
}

func TestLeaveSession(t *testing.T) {
	store := NewStore()
	session := store.CreateSession("trivia", "host", Settings{})
	store.JoinSession(session.ID, Player{Username: "host"})
	store.JoinSession(session.ID, Player{Username: "playerB"})

	store.LeaveSession(session.ID, "playerB")
	got, _ := store.GetSession(session.ID)
	assert.Len(t, got.Players, 1)

	// Leaving twice is a no-op
	store.LeaveSession(session.ID, "playerB")
	got, _ = store.GetSession(session.ID)
	assert.Len(t, got.Players, 1)
}

func TestStartSessionRequiresMinPlayers(t *testing.T) {
	store := NewStore()
	session := store.CreateSession("trivia", "host", Settings{})
	store.JoinSession(session.ID, Player{Username: "host"})

	assert.Error(t, store.StartSession(session.ID))

	store.JoinSession(session.ID, Player{Username: "playerB"})
	assert.NoError(t, store.StartSession(session.ID))

	got, _ := store.GetSession(session.ID)
	assert.Equal(t, StatusPlaying, got.Status)
	assert.NotNil(t, got.StartedAt)

	// Starting an already playing session must fail
	assert.Error(t, store.StartSession(session.ID))
}

func TestPauseResume(t *testing.T) {
	store := NewStore()
	session := store.CreateSession("trivia", "host", Settings{})
	store.JoinSession(session.ID, Player{Username: "host"})
	store.JoinSession(session.ID, Player{Username: "playerB"})
	assert.NoError(t, store.StartSession(session.ID))

	assert.NoError(t, store.PauseSession(session.ID))
	assert.Error(t, store.PauseSession(session.ID)) // already paused
	assert.NoError(t, store.ResumeSession(session.ID))

	got, _ := store.GetSession(session.ID)
	assert.Equal(t, StatusPlaying, got.Status)
}

func TestEndSessionArchives(t *testing.T) {
	store := NewStore()
	session := store.CreateSession("trivia", "host", Settings{})
	store.JoinSession(session.ID, Player{Username: "host"})
	store.JoinSession(session.ID, Player{Username: "playerB"})
	assert.NoError(t, store.StartSession(session.ID))

	store.UpdatePlayerScore(session.ID, "host", 100)

	_, err := store.EndSession(session.ID, Results{Winners: []string{"host"}})
	assert.NoError(t, err)

	// No longer active
	_, ok := store.GetSession(session.ID)
	assert.False(t, ok)

	history := store.History()
	assert.Len(t, history, 1)
	assert.Equal(t, StatusFinished, history[0].Status)
	assert.NotNil(t, history[0].EndedAt)
	assert.Equal(t, []string{"host"}, history[0].Results.Winners)

	// Ending twice must fail
	_, err = store.EndSession(session.ID, Results{})
	assert.Error(t, err)
}

func TestNegativeScoreAllowed(t *testing.T) {
	store := NewStore()
	session := store.CreateSession("trivia", "host", Settings{})
	store.JoinSession(session.ID, Player{Username: "host"})

	store.UpdatePlayerScore(session.ID, "host", -50)
	got, _ := store.GetSession(session.ID)
	assert.Equal(t, -50, got.Players[0].Score)
}

// finishSession is a test helper that runs one game to completion.
func finishSession(t *testing.T, store *Store, gameType string, scores map[string]int, winners []string) {
	t.Helper()
	players := make([]string, 0, len(scores))
	for username := range scores {
		players = append(players, username)
	}

	session := store.CreateSession(gameType, players[0], Settings{})
	for _, username := range players {
		assert.True(t, store.JoinSession(session.ID, Player{Username: username}))
	}
	assert.NoError(t, store.StartSession(session.ID))
	for username, score := range scores {
		store.UpdatePlayerScore(session.ID, username, score)
	}
	_, err := store.EndSession(session.ID, Results{Winners: winners})
	assert.NoError(t, err)
}
