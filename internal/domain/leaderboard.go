package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Top returns the first n entries of the board.
func (lb Leaderboard) Top(n int) []LeaderboardEntry {
	if n < 0 {
		n = 0
	}
	if n > len(lb.Entries) {
		n = len(lb.Entries)
	}
	out := make([]LeaderboardEntry, n)
	copy(out, lb.Entries[:n])
	return out
}

// Find returns the ranked entry for a result id.
func (lb Leaderboard) Find(id uuid.UUID) (LeaderboardEntry, bool) {
	for _, entry := range lb.Entries {
		if entry.Result.ID == id {
			return entry, true
		}
	}
	return LeaderboardEntry{}, false
}

// RankOf returns the rank of a result, or 0 if the result is not on the board.
func (lb Leaderboard) RankOf(id uuid.UUID) int {
	entry, ok := lb.Find(id)
	if !ok {
		return 0
	}
	return entry.Rank
}

// Search filters entries whose name or email contains query, case-insensitively.
// Matches keep the rank they hold on the full board.
func (lb Leaderboard) Search(query string) []LeaderboardEntry {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		out := make([]LeaderboardEntry, len(lb.Entries))
		copy(out, lb.Entries)
		return out
	}
	out := make([]LeaderboardEntry, 0)
	for _, entry := range lb.Entries {
		if strings.Contains(strings.ToLower(entry.Result.Email), q) ||
			strings.Contains(strings.ToLower(entry.Result.Name), q) {
			out = append(out, entry)
		}
	}
	return out
}
