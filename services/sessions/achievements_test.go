package sessions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func unlockedIDs(achievements []Achievement) []string {
	ids := make([]string, 0, len(achievements))
	for _, a := range achievements {
		ids = append(ids, a.ID)
	}
	return ids
}

func TestFirstGameAchievement(t *testing.T) {
	store := NewStore()

	session := store.CreateSession("trivia", "host", Settings{})
	store.JoinSession(session.ID, Player{Username: "host"})
	store.JoinSession(session.ID, Player{Username: "playerB"})
	assert.NoError(t, store.StartSession(session.ID))

	unlocked, err := store.EndSession(session.ID, Results{Winners: []string{"host"}})
	assert.NoError(t, err)

	assert.Contains(t, unlockedIDs(unlocked["host"]), "first-game")
	assert.Contains(t, unlockedIDs(unlocked["host"]), "first-win")
	assert.Contains(t, unlockedIDs(unlocked["playerB"]), "first-game")
	assert.NotContains(t, unlockedIDs(unlocked["playerB"]), "first-win")
}

func TestAchievementDedupe(t *testing.T) {
	store := NewStore()

	// The first-game rule stays satisfied forever; only the first evaluation
	// may grant it
	finishSession(t, store, "trivia", map[string]int{"playerA": 10, "playerB": 5}, []string{"playerA"})
	finishSession(t, store, "trivia", map[string]int{"playerA": 10, "playerB": 5}, []string{"playerA"})

	ids := store.UnlockedAchievements("playerA")
	count := 0
	for _, id := range ids {
		if id == "first-game" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestWinStreakAchievement(t *testing.T) {
	store := NewStore()

	for i := 0; i < 2; i++ {
		finishSession(t, store, "trivia", map[string]int{"playerA": 10, "playerB": 5}, []string{"playerA"})
	}
	assert.NotContains(t, store.UnlockedAchievements("playerA"), "win-streak")

	finishSession(t, store, "trivia", map[string]int{"playerA": 10, "playerB": 5}, []string{"playerA"})
	assert.Contains(t, store.UnlockedAchievements("playerA"), "win-streak")
}

func TestStreakResetsOnLoss(t *testing.T) {
	store := NewStore()

	finishSession(t, store, "trivia", map[string]int{"playerA": 10, "playerB": 5}, []string{"playerA"})
	finishSession(t, store, "trivia", map[string]int{"playerA": 10, "playerB": 5}, []string{"playerA"})
	// Loss resets the streak before the third win
	finishSession(t, store, "trivia", map[string]int{"playerA": 0, "playerB": 20}, []string{"playerB"})
	finishSession(t, store, "trivia", map[string]int{"playerA": 10, "playerB": 5}, []string{"playerA"})

	assert.NotContains(t, store.UnlockedAchievements("playerA"), "win-streak")
	assert.Equal(t, 1, store.StatsFor("playerA").Streak)
}

func TestEvaluateAchievementsThresholds(t *testing.T) {
	stats := &PlayerStats{Username: "playerA", TotalGames: 25, Wins: 10, Streak: 3, TotalScore: 10000}
	ids := unlockedIDs(EvaluateAchievements(stats))

	for _, want := range []string{
		"first-game", "regular", "veteran",
		"first-win", "win-streak", "champion",
		"high-scorer", "legend",
	} {
		assert.Contains(t, ids, want)
	}
}
