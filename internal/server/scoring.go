package server

import "sort"

// rankScores ranks participants by metric descending. The sort is stable
// with respect to the session's participant order, so ties resolve to
// whoever joined first. Positions are 1-based.
func rankScores(participants []string, metric map[string]int) []ScoreEntry {
	entries := make([]ScoreEntry, 0, len(participants))
	for _, name := range participants {
		entries = append(entries, ScoreEntry{Participant: name, Score: metric[name]})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	for i := range entries {
		entries[i].Position = i + 1
	}
	return entries
}

// winnerOf returns the top-ranked participant. With requirePositive set, an
// all-zero scoreboard yields no winner instead of an arbitrary tie-break.
func winnerOf(entries []ScoreEntry, requirePositive bool) string {
	if len(entries) == 0 {
		return ""
	}
	if requirePositive && entries[0].Score <= 0 {
		return ""
	}
	return entries[0].Participant
}
