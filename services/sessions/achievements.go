package sessions

// PlayerStats is the cumulative record achievements are evaluated against.
type PlayerStats struct {
	Username   string `json:"username"`
	TotalGames int    `json:"total_games"`
	Wins       int    `json:"wins"`
	Streak     int    `json:"streak"` // consecutive wins, reset on any loss
	TotalScore int    `json:"total_score"`
}

// Achievement is an unlockable badge with a fixed point value.
type Achievement struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Rarity      string `json:"rarity"`
	Points      int    `json:"points"`
}

type achievementRule struct {
	achievement Achievement
	satisfied   func(PlayerStats) bool
}

// The fixed rule table. Rules are threshold checks over cumulative stats;
// they keep reporting true once satisfied, so grants must be deduped by
// achievement id (Store.grant does that).
var achievementRules = []achievementRule{
	{
		achievement: Achievement{
			ID: "first-game", Name: "First Steps",
			Description: "Play your first game", Category: "games",
			Rarity: "common", Points: 10,
		},
		satisfied: func(s PlayerStats) bool { return s.TotalGames >= 1 },
	},
	{
		achievement: Achievement{
			ID: "regular", Name: "Regular",
			Description: "Play 5 games", Category: "games",
			Rarity: "common", Points: 25,
		},
		satisfied: func(s PlayerStats) bool { return s.TotalGames >= 5 },
	},
	{
		achievement: Achievement{
			ID: "veteran", Name: "Veteran",
			Description: "Play 25 games", Category: "games",
			Rarity: "rare", Points: 100,
		},
		satisfied: func(s PlayerStats) bool { return s.TotalGames >= 25 },
	},
	{
		achievement: Achievement{
			ID: "first-win", Name: "Winner",
			Description: "Win your first game", Category: "wins",
			Rarity: "common", Points: 20,
		},
		satisfied: func(s PlayerStats) bool { return s.Wins >= 1 },
	},
	{
		achievement: Achievement{
			ID: "win-streak", Name: "On Fire",
			Description: "Win 3 games in a row", Category: "wins",
			Rarity: "rare", Points: 75,
		},
		satisfied: func(s PlayerStats) bool { return s.Streak >= 3 },
	},
	{
		achievement: Achievement{
			ID: "champion", Name: "Champion",
			Description: "Win 10 games", Category: "wins",
			Rarity: "epic", Points: 200,
		},
		satisfied: func(s PlayerStats) bool { return s.Wins >= 10 },
	},
	{
		achievement: Achievement{
			ID: "high-scorer", Name: "High Scorer",
			Description: "Accumulate 1000 points", Category: "score",
			Rarity: "rare", Points: 100,
		},
		satisfied: func(s PlayerStats) bool { return s.TotalScore >= 1000 },
	},
	{
		achievement: Achievement{
			ID: "legend", Name: "Legend",
			Description: "Accumulate 10000 points", Category: "score",
			Rarity: "legendary", Points: 500,
		},
		satisfied: func(s PlayerStats) bool { return s.TotalScore >= 10000 },
	},
}

// EvaluateAchievements returns every achievement whose rule is satisfied by
// the given stats. The caller filters out ids already held; re-evaluating
// after a threshold stays true would otherwise re-grant.
func EvaluateAchievements(stats *PlayerStats) []Achievement {
	var satisfied []Achievement
	for _, rule := range achievementRules {
		if rule.satisfied(*stats) {
			satisfied = append(satisfied, rule.achievement)
		}
	}
	return satisfied
}
