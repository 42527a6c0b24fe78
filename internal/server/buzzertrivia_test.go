package server

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func seedBuzzerTrivia(store Store, name string, participants ...string) *BuzzerTriviaState {
	session := seedSession(store, name, participants...)
	game := &BuzzerTriviaState{
		GameCore:        GameCore{State: StateInProgress, Phase: phaseCategoryVote, StartedAt: time.Now()},
		CategoryOptions: []string{"Sports", "Animals", "Geography"},
		CategoryVotes:   make(map[string]string),
		Round:           1,
		MaxRounds:       3,
		TotalScores:     make(map[string]int),
	}
	session.State = StateInProgress
	session.Game = game
	store.Put(name, session)
	return game
}

func TestSettleCategoryVotePluralityNeverPicksLoser(t *testing.T) {
	// 2-2-1 split: the one-vote category must never win, whichever way
	// the tie between the leaders breaks.
	for trial := 0; trial < 25; trial++ {
		store := NewStore()
		sup := newTestSupervisor(store)
		game := seedBuzzerTrivia(store, "arcade", "ada", "bob", "cleo", "dan", "eve")
		game.CategoryVotes = map[string]string{
			"ada":  "Sports",
			"bob":  "Sports",
			"cleo": "Animals",
			"dan":  "Animals",
			"eve":  "Geography",
		}

		if !sup.settleCategoryVote("arcade") {
			t.Fatal("settle failed")
		}
		switch game.SelectedCategory {
		case "Sports", "Animals":
		default:
			t.Fatalf("trial %d: minority category won: %s", trial, game.SelectedCategory)
		}
	}
}

func TestSettleCategoryVoteEmptyBallotPicksSomething(t *testing.T) {
	store := NewStore()
	sup := newTestSupervisor(store)
	game := seedBuzzerTrivia(store, "arcade", "ada", "bob")

	if !sup.settleCategoryVote("arcade") {
		t.Fatal("settle failed")
	}
	if game.SelectedCategory == "" {
		t.Fatal("expected a random category with no votes")
	}
	if game.Phase != phaseCategoryResult {
		t.Fatalf("expected category result phase, got %s", game.Phase)
	}
}

func TestHandleVoteCategoryRejectsUnknownOption(t *testing.T) {
	store := NewStore()
	sup := newTestSupervisor(store)
	game := seedBuzzerTrivia(store, "arcade", "ada", "bob")

	sup.handleVoteCategory("arcade", "ada", map[string]any{"category": "Quantum Physics"})
	if len(game.CategoryVotes) != 0 {
		t.Fatalf("expected vote for unlisted category to be dropped, got %#v", game.CategoryVotes)
	}

	sup.handleVoteCategory("arcade", "ada", map[string]any{"category": "Sports"})
	if game.CategoryVotes["ada"] != "Sports" {
		t.Fatalf("expected recorded vote, got %#v", game.CategoryVotes)
	}
}

func TestBuzzOrderFollowsClientTimestamps(t *testing.T) {
	store := NewStore()
	sup := newTestSupervisor(store)
	game := seedBuzzerTrivia(store, "arcade", "ada", "bob", "cleo")
	game.Phase = phaseBuzzWindow

	// Arrival order does not match the client-side press times.
	sup.handleBuzz("arcade", "cleo", map[string]any{"timestamp": 30.0})
	sup.handleBuzz("arcade", "ada", map[string]any{"timestamp": 10.0})
	sup.handleBuzz("arcade", "bob", map[string]any{"timestamp": 20.0})

	buzzed, ok := sup.closeBuzzWindow("arcade")
	if !ok || !buzzed {
		t.Fatalf("expected buzzes to close into judging, buzzed=%v ok=%v", buzzed, ok)
	}
	want := []string{"ada", "bob", "cleo"}
	for i, name := range want {
		if game.Buzzes[i].Participant != name {
			t.Fatalf("position %d: expected %s, got %s", i+1, name, game.Buzzes[i].Participant)
		}
		if game.Buzzes[i].Position != i+1 {
			t.Fatalf("expected position %d, got %d", i+1, game.Buzzes[i].Position)
		}
	}
	if game.Phase != phaseHostJudging {
		t.Fatalf("expected host judging, got %s", game.Phase)
	}
}

func TestDuplicateBuzzIgnored(t *testing.T) {
	store := NewStore()
	sup := newTestSupervisor(store)
	game := seedBuzzerTrivia(store, "arcade", "ada", "bob")
	game.Phase = phaseBuzzWindow

	sup.handleBuzz("arcade", "ada", map[string]any{"timestamp": 10.0})
	sup.handleBuzz("arcade", "ada", map[string]any{"timestamp": 5.0})
	if len(game.Buzzes) != 1 {
		t.Fatalf("expected one buzz, got %d", len(game.Buzzes))
	}
	if game.Buzzes[0].At != 10.0 {
		t.Fatalf("duplicate buzz should not replace the first, got %v", game.Buzzes[0].At)
	}
}

func TestBuzzBroadcastsRankedList(t *testing.T) {
	store := NewStore()
	sup := newTestSupervisor(store)
	game := seedBuzzerTrivia(store, "arcade", "ada", "bob")
	game.Phase = phaseBuzzWindow

	watcher := newClient(nil, nil, "arcade", "ada")
	sup.hub.Add("arcade", watcher)

	sup.handleBuzz("arcade", "bob", map[string]any{"timestamp": 20.0})
	sup.handleBuzz("arcade", "ada", map[string]any{"timestamp": 10.0})

	// The second broadcast must carry both buzzes ordered by timestamp,
	// not arrival.
	var event WSEvent
	<-watcher.send
	if err := json.Unmarshal(<-watcher.send, &event); err != nil {
		t.Fatalf("unmarshal broadcast: %v", err)
	}
	buzzes, ok := event.Payload["buzzes"].([]any)
	if !ok || len(buzzes) != 2 {
		t.Fatalf("expected 2 ranked buzzes, got %#v", event.Payload["buzzes"])
	}
	first := buzzes[0].(map[string]any)
	if first["participant"] != "ada" || first["position"] != 1.0 {
		t.Fatalf("expected ada ranked first, got %#v", first)
	}
	second := buzzes[1].(map[string]any)
	if second["participant"] != "bob" || second["position"] != 2.0 {
		t.Fatalf("expected bob ranked second, got %#v", second)
	}
}

func TestCloseBuzzWindowWithoutBuzzes(t *testing.T) {
	store := NewStore()
	sup := newTestSupervisor(store)
	game := seedBuzzerTrivia(store, "arcade", "ada", "bob")
	game.Phase = phaseBuzzWindow

	buzzed, ok := sup.closeBuzzWindow("arcade")
	if !ok || buzzed {
		t.Fatalf("expected silent round, buzzed=%v ok=%v", buzzed, ok)
	}
	if game.Phase != phaseRoundTimeout {
		t.Fatalf("expected timeout phase, got %s", game.Phase)
	}
}

func TestAwardPointsHostOnly(t *testing.T) {
	store := NewStore()
	sup := newTestSupervisor(store)
	game := seedBuzzerTrivia(store, "arcade", "ada", "bob")
	game.Phase = phaseHostJudging

	sup.handleAwardPoints("arcade", "bob", map[string]any{"participant": "bob"})
	if game.TotalScores["bob"] != 0 {
		t.Fatalf("non-host award should be ignored, got %d", game.TotalScores["bob"])
	}

	sup.handleAwardPoints("arcade", "ada", map[string]any{"participant": "bob"})
	if game.TotalScores["bob"] != 1 {
		t.Fatalf("expected host award of 1, got %d", game.TotalScores["bob"])
	}

	sup.handleAwardPoints("arcade", "ada", map[string]any{"participant": "bob", "points": 3.0})
	if game.TotalScores["bob"] != 4 {
		t.Fatalf("expected explicit points to add, got %d", game.TotalScores["bob"])
	}
}

func TestFinishBuzzerTriviaAllZeroHasNoWinner(t *testing.T) {
	store := NewStore()
	sup := newTestSupervisor(store)
	seedBuzzerTrivia(store, "arcade", "ada", "bob")

	sup.finishBuzzerTrivia("arcade")
	session, _ := store.Get("arcade")
	if session.State != StateWaiting || session.Game != nil {
		t.Fatalf("expected reset lobby, state=%s game=%v", session.State, session.Game)
	}
}

func TestAdvanceRoundStopsAtMax(t *testing.T) {
	store := NewStore()
	sup := newTestSupervisor(store)
	game := seedBuzzerTrivia(store, "arcade", "ada", "bob")
	game.Round = 3

	done, ok := sup.advanceRound("arcade")
	if !ok || !done {
		t.Fatalf("expected final round to finish the game, done=%v ok=%v", done, ok)
	}

	game.Round = 1
	done, ok = sup.advanceRound("arcade")
	if !ok || done {
		t.Fatalf("expected round 1 to advance, done=%v ok=%v", done, ok)
	}
	if game.Round != 2 {
		t.Fatalf("expected round 2, got %d", game.Round)
	}
}

func TestStaleHostSignalsDroppedBeforeJudging(t *testing.T) {
	store := NewStore()
	sup := newTestSupervisor(store)
	game := seedBuzzerTrivia(store, "arcade", "ada", "bob")
	game.Phase = phaseHostJudging

	r := &runner{
		variant: VariantBuzzerTrivia,
		ctx:     context.Background(),
		signals: make(chan hostSignal, 4),
	}
	// Queued while no judging wait was listening; it must not end the
	// round that opens afterwards.
	r.signals <- hostSignal{action: actionEndGame}

	result := make(chan bool, 1)
	go func() {
		result <- sup.awaitJudging("arcade", r)
	}()

	// The wait drains the stale signal on entry.
	waitFor(t, time.Second, func() bool {
		return len(r.signals) == 0
	})
	select {
	case got := <-result:
		t.Fatalf("stale end_game should be dropped, awaitJudging returned %v", got)
	default:
	}

	r.signals <- hostSignal{action: actionNextQuestion}
	if got := <-result; !got {
		t.Fatal("expected judging to move on to the next question")
	}
	session, _ := store.Get("arcade")
	if session.Game == nil {
		t.Fatal("stale end_game must not finish the game")
	}
}

func TestPresentQuestionSuppliesQuestion(t *testing.T) {
	store := NewStore()
	sup := newTestSupervisor(store)
	game := seedBuzzerTrivia(store, "arcade", "ada", "bob")
	game.SelectedCategory = "Sports"

	if !sup.presentQuestion("arcade", false) {
		t.Fatal("expected question to be drawn")
	}
	if game.Question == "" || game.Answer == "" {
		t.Fatalf("expected question and answer, got %q / %q", game.Question, game.Answer)
	}
	if game.Phase != phaseQuestionDisplay {
		t.Fatalf("expected question display phase, got %s", game.Phase)
	}
}
