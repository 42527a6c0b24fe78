package server

import (
	"testing"
	"time"
)

func seedTapGauntlet(store Store, name string, participants ...string) *TapGauntletState {
	session := seedSession(store, name, participants...)
	game := &TapGauntletState{
		GameCore:        GameCore{State: StateInProgress, Phase: phasePlaying, StartedAt: time.Now()},
		DurationSeconds: 10,
		Taps:            make(map[string]int),
		LastTapAt:       make(map[string]time.Time),
		Challenges:      make(map[string][]Challenge),
		Strikes:         make(map[string]int),
	}
	session.State = StateInProgress
	session.Game = game
	store.Put(name, session)
	return game
}

func TestHandleTapCountsAndThrottles(t *testing.T) {
	store := NewStore()
	sup := newTestSupervisor(store)
	game := seedTapGauntlet(store, "arcade", "ada", "bob")

	sup.handleTap("arcade", "ada")
	if game.Taps["ada"] != 1 {
		t.Fatalf("expected 1 tap, got %d", game.Taps["ada"])
	}

	// Immediately again: above the 20/s ceiling, dropped without error.
	sup.handleTap("arcade", "ada")
	if game.Taps["ada"] != 1 {
		t.Fatalf("expected throttled tap to be dropped, got %d", game.Taps["ada"])
	}

	game.LastTapAt["ada"] = time.Now().Add(-time.Second)
	sup.handleTap("arcade", "ada")
	if game.Taps["ada"] != 2 {
		t.Fatalf("expected tap after cooldown to count, got %d", game.Taps["ada"])
	}
}

func TestHandleTapIgnoredOutsidePlaying(t *testing.T) {
	store := NewStore()
	sup := newTestSupervisor(store)
	game := seedTapGauntlet(store, "arcade", "ada", "bob")
	game.Phase = phaseCountdown

	sup.handleTap("arcade", "ada")
	if game.Taps["ada"] != 0 {
		t.Fatalf("expected tap outside playing to be dropped, got %d", game.Taps["ada"])
	}
}

func TestHandleTapUnknownParticipant(t *testing.T) {
	store := NewStore()
	sup := newTestSupervisor(store)
	game := seedTapGauntlet(store, "arcade", "ada", "bob")

	sup.handleTap("arcade", "mallory")
	if len(game.Taps) != 0 {
		t.Fatalf("expected no taps recorded, got %#v", game.Taps)
	}
}

func TestChallengeResponseFreshClearsProbe(t *testing.T) {
	store := NewStore()
	sup := newTestSupervisor(store)
	game := seedTapGauntlet(store, "arcade", "ada", "bob")
	game.Challenges["ada"] = []Challenge{{ID: "probe-1", IssuedAt: time.Now()}}

	sup.handleChallengeResponse("arcade", "ada", map[string]any{"challenge_id": "probe-1"})
	if game.Strikes["ada"] != 0 {
		t.Fatalf("fresh response should not strike, got %d", game.Strikes["ada"])
	}
	if len(game.Challenges["ada"]) != 0 {
		t.Fatal("answered challenge should be removed")
	}
}

func TestChallengeResponseLateOrUnknownStrikes(t *testing.T) {
	store := NewStore()
	sup := newTestSupervisor(store)
	game := seedTapGauntlet(store, "arcade", "ada", "bob")
	game.Challenges["ada"] = []Challenge{{ID: "probe-1", IssuedAt: time.Now().Add(-time.Second)}}

	// Window in testConfig is 100ms, so this response is late.
	sup.handleChallengeResponse("arcade", "ada", map[string]any{"challenge_id": "probe-1"})
	if game.Strikes["ada"] != 1 {
		t.Fatalf("late response should strike, got %d", game.Strikes["ada"])
	}

	sup.handleChallengeResponse("arcade", "ada", map[string]any{"challenge_id": "no-such-probe"})
	if game.Strikes["ada"] != 2 {
		t.Fatalf("unknown challenge id should strike, got %d", game.Strikes["ada"])
	}
}

func TestUnansweredChallengesExpireIntoStrikes(t *testing.T) {
	store := NewStore()
	sup := newTestSupervisor(store)
	game := seedTapGauntlet(store, "arcade", "ada", "bob")
	// Window in testConfig is 100ms: ada's probe is long dead, bob's is
	// still live.
	game.Challenges["ada"] = []Challenge{{ID: "probe-1", IssuedAt: time.Now().Add(-time.Second)}}
	game.Challenges["bob"] = []Challenge{{ID: "probe-2", IssuedAt: time.Now()}}

	sup.expireChallenges("arcade")

	if game.Strikes["ada"] != 1 {
		t.Fatalf("ignored challenge should strike, got %d", game.Strikes["ada"])
	}
	if len(game.Challenges["ada"]) != 0 {
		t.Fatal("expired challenge should be removed")
	}
	if game.Strikes["bob"] != 0 || len(game.Challenges["bob"]) != 1 {
		t.Fatalf("live challenge must survive the sweep: strikes=%d probes=%d",
			game.Strikes["bob"], len(game.Challenges["bob"]))
	}
}

func TestFinishTapGauntletRanksAndFlags(t *testing.T) {
	store := NewStore()
	sup := newTestSupervisor(store)
	game := seedTapGauntlet(store, "arcade", "ada", "bob", "cleo")
	game.Taps = map[string]int{"ada": 40, "bob": 55, "cleo": 12}
	game.Strikes["cleo"] = 2

	sup.finishTapGauntlet("arcade")

	session, _ := store.Get("arcade")
	if session.State != StateWaiting {
		t.Fatalf("expected session back to waiting, got %s", session.State)
	}
	if session.Game != nil {
		t.Fatal("expected game to be cleared")
	}
	for _, p := range session.Participants {
		if p.Ready {
			t.Fatalf("expected %s unready after game", p.Name)
		}
	}
}

func TestIssueChallengesTargetsParticipants(t *testing.T) {
	store := NewStore()
	sup := newTestSupervisor(store)
	game := seedTapGauntlet(store, "arcade", "ada", "bob", "cleo")

	sup.issueChallenges("arcade")

	issued := 0
	for _, probes := range game.Challenges {
		issued += len(probes)
	}
	if issued < 1 || issued > 2 {
		t.Fatalf("expected 1 or 2 probes, got %d", issued)
	}
}
