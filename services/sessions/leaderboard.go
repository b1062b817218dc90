package sessions

import "sort"

// LeaderboardEntry is a derived ranking row. Never mutated directly, always
// recomputed from session history.
type LeaderboardEntry struct {
	Username         string `json:"username"`
	TotalScore       int    `json:"total_score"`
	GamesPlayed      int    `json:"games_played"`
	Wins             int    `json:"wins"`
	AchievementCount int    `json:"achievement_count"`
	Rank             int    `json:"rank"`
}

// UpdateLeaderboard recomputes the full leaderboard by folding over every
// finished session: each (session, player) pair contributes the player's
// score, one game played and a win when the player is listed in the session
// results. Full recomputation, O(sessions x players) — fine for the bounded
// history this store keeps.
//
// Ordering is descending by total score; ties break by username so two
// computations over the same history always agree.
func (s *Store) UpdateLeaderboard() []LeaderboardEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc := make(map[string]*LeaderboardEntry)
	for _, session := range s.history {
		winners := make(map[string]bool)
		if session.Results != nil {
			for _, w := range session.Results.Winners {
				winners[w] = true
			}
		}
		for _, p := range session.Players {
			entry, ok := acc[p.Username]
			if !ok {
				entry = &LeaderboardEntry{Username: p.Username}
				acc[p.Username] = entry
			}
			entry.TotalScore += p.Score
			entry.GamesPlayed++
			if winners[p.Username] {
				entry.Wins++
			}
		}
	}

	entries := make([]LeaderboardEntry, 0, len(acc))
	for username, entry := range acc {
		entry.AchievementCount = len(s.unlocked[username])
		entries = append(entries, *entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalScore != entries[j].TotalScore {
			return entries[i].TotalScore > entries[j].TotalScore
		}
		return entries[i].Username < entries[j].Username
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
