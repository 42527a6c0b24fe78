package server

import "testing"

func TestRankScoresOrdersDescending(t *testing.T) {
	participants := []string{"ada", "bob", "cleo"}
	entries := rankScores(participants, map[string]int{"ada": 3, "bob": 9, "cleo": 5})
	want := []string{"bob", "cleo", "ada"}
	for i, name := range want {
		if entries[i].Participant != name {
			t.Fatalf("position %d: expected %s, got %s", i+1, name, entries[i].Participant)
		}
		if entries[i].Position != i+1 {
			t.Fatalf("expected position %d, got %d", i+1, entries[i].Position)
		}
	}
}

func TestRankScoresTieKeepsJoinOrder(t *testing.T) {
	participants := []string{"ada", "bob", "cleo"}
	entries := rankScores(participants, map[string]int{"ada": 4, "bob": 4, "cleo": 4})
	for i, name := range participants {
		if entries[i].Participant != name {
			t.Fatalf("tie broke join order: expected %s at %d, got %s", name, i, entries[i].Participant)
		}
	}
}

func TestWinnerOfRequiresPositiveScore(t *testing.T) {
	entries := rankScores([]string{"ada", "bob"}, map[string]int{"ada": 0, "bob": 0})
	if winner := winnerOf(entries, true); winner != "" {
		t.Fatalf("expected no winner on all-zero board, got %q", winner)
	}
	if winner := winnerOf(entries, false); winner != "ada" {
		t.Fatalf("expected ada without positive requirement, got %q", winner)
	}
}

func TestWinnerOfEmptyBoard(t *testing.T) {
	if winner := winnerOf(nil, false); winner != "" {
		t.Fatalf("expected empty winner, got %q", winner)
	}
}
