package server

import (
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

func (sup *Supervisor) newTapGauntlet(session *Session) *TapGauntletState {
	game := &TapGauntletState{
		GameCore: GameCore{
			State: StateStarting,
			Phase: phaseCountdown,
		},
		DurationSeconds: sup.cfg.TapDurationSeconds,
		Taps:            make(map[string]int),
		LastTapAt:       make(map[string]time.Time),
		Challenges:      make(map[string][]Challenge),
		Strikes:         make(map[string]int),
	}
	for _, name := range session.participantNames() {
		game.Taps[name] = 0
	}
	return game
}

func (sup *Supervisor) runTapGauntlet(sessionName string, r *runner) {
	if !sup.countdown(r.ctx, sessionName, phasePlaying) {
		return
	}

	duration := time.Duration(sup.cfg.TapDurationSeconds) * time.Second
	deadline := time.Now().Add(duration)
	nextChallenge := time.Now().Add(sup.cfg.ChallengeInterval)

	ticker := time.NewTicker(sup.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			if !now.Before(deadline) {
				sup.finishTapGauntlet(sessionName)
				return
			}
			session, ok := sup.store.Get(sessionName)
			if !ok {
				return
			}
			game, ok := session.Game.(*TapGauntletState)
			if !ok {
				return
			}
			sup.hub.Broadcast(sessionName, newEvent(eventTick, map[string]any{
				"phase":     phasePlaying,
				"remaining": deadline.Sub(now).Seconds(),
				"taps":      copyCounts(game.Taps),
			}))
			sup.expireChallenges(sessionName)
			if !now.Before(nextChallenge) {
				sup.issueChallenges(sessionName)
				nextChallenge = now.Add(sup.cfg.ChallengeInterval)
			}
		case <-r.ctx.Done():
			return
		}
	}
}

// issueChallenges probes one or two random participants. Each probe must
// be answered within the challenge window or it counts as a strike.
func (sup *Supervisor) issueChallenges(sessionName string) {
	type probe struct {
		participant string
		id          string
	}
	var probes []probe
	_, err := sup.store.Update(sessionName, func(session *Session) error {
		game, ok := session.Game.(*TapGauntletState)
		if !ok || game.Phase != phasePlaying {
			return ErrGameInProgress
		}
		names := session.participantNames()
		if len(names) == 0 {
			return nil
		}
		rand.Shuffle(len(names), func(i, j int) {
			names[i], names[j] = names[j], names[i]
		})
		count := 1 + rand.Intn(2)
		if count > len(names) {
			count = len(names)
		}
		now := time.Now()
		for _, name := range names[:count] {
			id := uuid.NewString()
			game.Challenges[name] = append(game.Challenges[name], Challenge{ID: id, IssuedAt: now})
			probes = append(probes, probe{participant: name, id: id})
		}
		return nil
	})
	if err != nil {
		return
	}
	for _, p := range probes {
		sup.hub.SendToParticipant(sessionName, p.participant, newEvent(eventChallenge, map[string]any{
			"challenge_id":   p.id,
			"window_seconds": sup.cfg.ChallengeWindow.Seconds(),
		}))
	}
}

// expireChallenges turns probes that outlived the response window into
// strikes. Ignoring a challenge counts the same as failing it.
func (sup *Supervisor) expireChallenges(sessionName string) {
	_, _ = sup.store.Update(sessionName, func(session *Session) error {
		game, ok := session.Game.(*TapGauntletState)
		if !ok {
			return ErrGameInProgress
		}
		now := time.Now()
		for name, probes := range game.Challenges {
			kept := probes[:0]
			for _, ch := range probes {
				if now.Sub(ch.IssuedAt) >= sup.cfg.ChallengeWindow {
					game.Strikes[name]++
					log.Printf("challenge expired session=%s participant=%s strikes=%d", sessionName, name, game.Strikes[name])
					continue
				}
				kept = append(kept, ch)
			}
			game.Challenges[name] = kept
		}
		return nil
	})
}

func (sup *Supervisor) finishTapGauntlet(sessionName string) {
	sup.expireChallenges(sessionName)
	session, ok := sup.store.Get(sessionName)
	if !ok {
		return
	}
	game, ok := session.Game.(*TapGauntletState)
	if !ok {
		return
	}
	entries := rankScores(session.participantNames(), game.Taps)
	var flagged []string
	for _, name := range session.participantNames() {
		if game.Strikes[name] > 0 {
			flagged = append(flagged, name)
		}
	}
	sup.finishGame(sessionName, GameResults{
		Variant: VariantTapGauntlet,
		Winner:  winnerOf(entries, false),
		Scores:  entries,
		Flagged: flagged,
	})
}

// handleTap counts one tap. Taps above the rate ceiling are dropped
// without feedback; the client's own counter will drift until it syncs
// with the next tick broadcast.
func (sup *Supervisor) handleTap(sessionName, participant string) {
	count := 0
	_, err := sup.store.Update(sessionName, func(session *Session) error {
		game, ok := session.Game.(*TapGauntletState)
		if !ok || game.Phase != phasePlaying {
			return ErrGameInProgress
		}
		if !session.hasParticipant(participant) {
			return ErrSessionNotFound
		}
		now := time.Now()
		if !allowTap(game.LastTapAt[participant], now, sup.cfg.MaxTapsPerSecond) {
			return ErrGameInProgress
		}
		game.Taps[participant]++
		game.LastTapAt[participant] = now
		count = game.Taps[participant]
		return nil
	})
	if err != nil {
		return
	}
	sup.hub.SendToParticipant(sessionName, participant, newEvent(eventTapCount, map[string]any{
		"count": count,
	}))
}

// handleChallengeResponse settles an outstanding probe. A late or unknown
// response is recorded as a strike; the game keeps going either way.
func (sup *Supervisor) handleChallengeResponse(sessionName, participant string, payload map[string]any) {
	challengeID, _ := payload["challenge_id"].(string)
	_, err := sup.store.Update(sessionName, func(session *Session) error {
		game, ok := session.Game.(*TapGauntletState)
		if !ok || game.Phase != phasePlaying {
			return ErrGameInProgress
		}
		now := time.Now()
		issued := game.Challenges[participant]
		valid := false
		for i, ch := range issued {
			if ch.ID != challengeID {
				continue
			}
			if freshChallenge(issued[i:i+1], now, sup.cfg.ChallengeWindow) {
				valid = true
			}
			game.Challenges[participant] = append(issued[:i], issued[i+1:]...)
			break
		}
		if !valid {
			game.Strikes[participant]++
			log.Printf("challenge failed session=%s participant=%s strikes=%d", sessionName, participant, game.Strikes[participant])
		}
		return nil
	})
	if err != nil {
		return
	}
}
