package sessions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLeaderboardAggregation(t *testing.T) {
	store := NewStore()

	// Session 1: playerA scores 100 and wins
	finishSession(t, store, "trivia", map[string]int{"playerA": 100, "playerB": 40}, []string{"playerA"})
	// Session 2: playerA scores 50 and loses
	finishSession(t, store, "trivia", map[string]int{"playerA": 50, "playerB": 90}, []string{"playerB"})

	entries := store.UpdateLeaderboard()
	assert.Len(t, entries, 2)

	byName := make(map[string]LeaderboardEntry)
	for _, e := range entries {
		byName[e.Username] = e
	}

	a := byName["playerA"]
	assert.Equal(t, 150, a.TotalScore)
	assert.Equal(t, 2, a.GamesPlayed)
	assert.Equal(t, 1, a.Wins)

	b := byName["playerB"]
	assert.Equal(t, 130, b.TotalScore)
	assert.Equal(t, 2, b.GamesPlayed)
	assert.Equal(t, 1, b.Wins)

	// Ranks are 1-based, descending by total score
	assert.Equal(t, 1, a.Rank)
	assert.Equal(t, 2, b.Rank)
}

func TestLeaderboardRecomputationIsPure(t *testing.T) {
	store := NewStore()
	finishSession(t, store, "trivia", map[string]int{"playerA": 100, "playerB": 100}, []string{"playerA"})

	first := store.UpdateLeaderboard()
	second := store.UpdateLeaderboard()
	assert.Equal(t, first, second)

	// Tied scores break deterministically by username
	assert.Equal(t, "playerA", first[0].Username)
	assert.Equal(t, "playerB", first[1].Username)
}

func TestLeaderboardEmptyHistory(t *testing.T) {
	store := NewStore()
	assert.Empty(t, store.UpdateLeaderboard())
}
