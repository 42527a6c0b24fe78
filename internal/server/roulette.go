package server

import (
	"log"
	"math/rand"
	"time"
)

func (sup *Supervisor) newRoulette(session *Session) *RouletteState {
	game := &RouletteState{
		GameCore: GameCore{
			State: StateStarting,
			Phase: phaseCountdown,
		},
		Chambers:  loadChambers(sup.cfg.RouletteChambers),
		Round:     1,
		MaxRounds: sup.cfg.RouletteRounds,
		Alive:     session.participantNames(),
		Picks:     make(map[string]int),
		Survived:  make(map[string]int),
	}
	for _, name := range game.Alive {
		game.Survived[name] = 0
	}
	return game
}

// loadChambers returns a cylinder with exactly one loaded chamber.
func loadChambers(count int) []bool {
	if count < 2 {
		count = 2
	}
	chambers := make([]bool, count)
	chambers[rand.Intn(count)] = true
	return chambers
}

func (sup *Supervisor) runRoulette(sessionName string, r *runner) {
	if !sup.countdown(r.ctx, sessionName, phaseChamberPick) {
		return
	}

	for {
		if !sup.waitForPicks(sessionName, r) {
			return
		}
		done, ok := sup.revealChambers(sessionName)
		if !ok {
			return
		}
		if !sleep(r.ctx, time.Duration(sup.cfg.RevealSeconds)*time.Second) {
			return
		}
		if done {
			sup.finishRoulette(sessionName)
			return
		}
		if !sup.nextRouletteRound(sessionName) {
			return
		}
	}
}

// waitForPicks blocks until every living participant has picked a
// chamber or the pick timeout passes. Stragglers get a random chamber.
func (sup *Supervisor) waitForPicks(sessionName string, r *runner) bool {
	deadline := time.Now().Add(time.Duration(sup.cfg.PickTimeoutSeconds) * time.Second)
	ticker := time.NewTicker(sup.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			session, ok := sup.store.Get(sessionName)
			if !ok {
				return false
			}
			game, ok := session.Game.(*RouletteState)
			if !ok || game.Phase != phaseChamberPick {
				return false
			}
			allPicked := true
			for _, name := range game.Alive {
				if _, picked := game.Picks[name]; !picked {
					allPicked = false
					break
				}
			}
			if allPicked || !now.Before(deadline) {
				return sup.assignMissingPicks(sessionName)
			}
		case <-r.ctx.Done():
			return false
		}
	}
}

func (sup *Supervisor) assignMissingPicks(sessionName string) bool {
	_, err := sup.store.Update(sessionName, func(session *Session) error {
		game, ok := session.Game.(*RouletteState)
		if !ok {
			return ErrGameInProgress
		}
		for _, name := range game.Alive {
			if _, picked := game.Picks[name]; !picked {
				game.Picks[name] = rand.Intn(len(game.Chambers))
			}
		}
		return nil
	})
	return err == nil
}

// revealChambers eliminates everyone who picked the loaded chamber and
// credits the survivors with the round. Reports whether the game is over.
func (sup *Supervisor) revealChambers(sessionName string) (done, ok bool) {
	var eliminated []string
	var loaded int
	session, err := sup.store.Update(sessionName, func(session *Session) error {
		game, okGame := session.Game.(*RouletteState)
		if !okGame {
			return ErrGameInProgress
		}
		for i, isLoaded := range game.Chambers {
			if isLoaded {
				loaded = i
				break
			}
		}
		survivors := make([]string, 0, len(game.Alive))
		for _, name := range game.Alive {
			if game.Picks[name] == loaded {
				eliminated = append(eliminated, name)
				continue
			}
			game.Survived[name]++
			survivors = append(survivors, name)
		}
		game.Alive = survivors
		game.Phase = phaseChamberReveal
		done = game.Round >= game.MaxRounds || len(game.Alive) <= 1
		return nil
	})
	if err != nil {
		return false, false
	}
	game := session.Game.(*RouletteState)
	log.Printf("chamber revealed session=%s round=%d loaded=%d eliminated=%d alive=%d",
		sessionName, game.Round, loaded, len(eliminated), len(game.Alive))
	payload := gameSnapshot(session.Game)
	payload["loaded_chamber"] = loaded
	payload["eliminated"] = eliminated
	sup.hub.Broadcast(sessionName, newEvent(eventGameState, payload))
	return done, true
}

func (sup *Supervisor) nextRouletteRound(sessionName string) bool {
	session, err := sup.store.Update(sessionName, func(session *Session) error {
		game, ok := session.Game.(*RouletteState)
		if !ok {
			return ErrGameInProgress
		}
		game.Round++
		game.Chambers = loadChambers(len(game.Chambers))
		game.Picks = make(map[string]int)
		game.Phase = phaseChamberPick
		return nil
	})
	if err != nil {
		return false
	}
	sup.hub.Broadcast(sessionName, newEvent(eventGameState, gameSnapshot(session.Game)))
	return true
}

func (sup *Supervisor) finishRoulette(sessionName string) {
	session, ok := sup.store.Get(sessionName)
	if !ok {
		return
	}
	game, ok := session.Game.(*RouletteState)
	if !ok {
		return
	}
	entries := rankScores(session.participantNames(), game.Survived)
	winner := winnerOf(entries, false)
	if len(game.Alive) == 1 {
		winner = game.Alive[0]
	}
	sup.finishGame(sessionName, GameResults{
		Variant: VariantRoulette,
		Winner:  winner,
		Scores:  entries,
	})
}

// handlePickChamber records a living participant's choice. Picks are
// final for the round.
func (sup *Supervisor) handlePickChamber(sessionName, participant string, payload map[string]any) {
	raw, okRaw := payload["chamber"].(float64)
	if !okRaw {
		return
	}
	chamber := int(raw)
	session, err := sup.store.Update(sessionName, func(session *Session) error {
		game, ok := session.Game.(*RouletteState)
		if !ok || game.Phase != phaseChamberPick {
			return ErrGameInProgress
		}
		if !game.isAlive(participant) {
			return ErrSessionNotFound
		}
		if chamber < 0 || chamber >= len(game.Chambers) {
			return ErrGameInProgress
		}
		if _, picked := game.Picks[participant]; picked {
			return ErrGameInProgress
		}
		game.Picks[participant] = chamber
		return nil
	})
	if err != nil {
		return
	}
	game := session.Game.(*RouletteState)
	sup.hub.Broadcast(sessionName, newEvent(eventTick, map[string]any{
		"phase":       phaseChamberPick,
		"picks_made":  len(game.Picks),
		"alive_count": len(game.Alive),
	}))
}
