package server

import (
	"log"
	"math/rand"
	"sort"
	"time"
)

func (sup *Supervisor) newBuzzerTrivia() *BuzzerTriviaState {
	categories := sup.questions.Categories()
	rand.Shuffle(len(categories), func(i, j int) {
		categories[i], categories[j] = categories[j], categories[i]
	})
	count := sup.cfg.CategoryOptions
	if count > len(categories) {
		count = len(categories)
	}
	return &BuzzerTriviaState{
		GameCore: GameCore{
			State: StateStarting,
			Phase: phaseCountdown,
		},
		CategoryOptions: categories[:count],
		CategoryVotes:   make(map[string]string),
		Round:           1,
		MaxRounds:       sup.cfg.TriviaRounds,
		TotalScores:     make(map[string]int),
	}
}

func (sup *Supervisor) runBuzzerTrivia(sessionName string, r *runner) {
	if !sup.countdown(r.ctx, sessionName, phaseCategoryVote) {
		return
	}

	for i := sup.cfg.VoteDurationSeconds; i > 0; i-- {
		sup.hub.Broadcast(sessionName, newEvent(eventTick, map[string]any{
			"phase":     phaseCategoryVote,
			"remaining": i,
		}))
		if !sleep(r.ctx, time.Second) {
			return
		}
	}
	if !sup.settleCategoryVote(sessionName) {
		return
	}
	if !sleep(r.ctx, time.Duration(sup.cfg.RevealSeconds)*time.Second) {
		return
	}

	for {
		if !sup.presentQuestion(sessionName, false) {
			return
		}
		if !sleep(r.ctx, time.Duration(sup.cfg.QuestionDisplaySeconds)*time.Second) {
			return
		}

		if !sup.openBuzzWindow(sessionName) {
			return
		}
		if !sleep(r.ctx, time.Duration(sup.cfg.BuzzWindowSeconds)*time.Second) {
			return
		}

		buzzed, ok := sup.closeBuzzWindow(sessionName)
		if !ok {
			return
		}
		if buzzed {
			// Untimed: the host decides when judging is over.
			if !sup.awaitJudging(sessionName, r) {
				return
			}
		} else {
			sup.hub.Broadcast(sessionName, newEvent(eventTick, map[string]any{
				"phase": phaseRoundTimeout,
			}))
			if !sleep(r.ctx, time.Duration(sup.cfg.RevealSeconds)*time.Second) {
				return
			}
		}

		done, ok := sup.advanceRound(sessionName)
		if !ok {
			return
		}
		if done {
			sup.finishBuzzerTrivia(sessionName)
			return
		}
	}
}

// settleCategoryVote tallies the plurality winner. Ties break by a
// uniform pick among the leaders; an empty ballot picks at random.
func (sup *Supervisor) settleCategoryVote(sessionName string) bool {
	session, err := sup.store.Update(sessionName, func(session *Session) error {
		game, ok := session.Game.(*BuzzerTriviaState)
		if !ok {
			return ErrGameInProgress
		}
		counts := make(map[string]int)
		for _, category := range game.CategoryVotes {
			counts[category]++
		}
		top := 0
		var leaders []string
		for _, category := range game.CategoryOptions {
			n := counts[category]
			if n > top {
				top = n
				leaders = []string{category}
			} else if n == top && n > 0 {
				leaders = append(leaders, category)
			}
		}
		if len(leaders) == 0 {
			leaders = game.CategoryOptions
		}
		game.SelectedCategory = leaders[rand.Intn(len(leaders))]
		game.Phase = phaseCategoryResult
		return nil
	})
	if err != nil {
		return false
	}
	game := session.Game.(*BuzzerTriviaState)
	log.Printf("category selected session=%s category=%s", sessionName, game.SelectedCategory)
	sup.hub.Broadcast(sessionName, newEvent(eventGameState, gameSnapshot(session.Game)))
	return true
}

// presentQuestion draws a fresh question for the current round and shows
// it. The answer goes to the host alone. With regenerate set, the round
// keeps its number and just swaps the question.
func (sup *Supervisor) presentQuestion(sessionName string, regenerate bool) bool {
	session, err := sup.store.Update(sessionName, func(session *Session) error {
		game, ok := session.Game.(*BuzzerTriviaState)
		if !ok {
			return ErrGameInProgress
		}
		if question, found := sup.questions.GetQuestion(game.SelectedCategory); found {
			game.Question = question.Text
			game.Answer = question.Answer
		} else if game.Question == "" {
			return ErrGameInProgress
		}
		game.Phase = phaseQuestionDisplay
		game.Buzzes = nil
		return nil
	})
	if err != nil {
		return false
	}
	game := session.Game.(*BuzzerTriviaState)
	if regenerate {
		log.Printf("question regenerated session=%s round=%d", sessionName, game.Round)
	}
	sup.hub.Broadcast(sessionName, newEvent(eventGameState, gameSnapshot(session.Game)))
	sup.hub.SendToParticipant(sessionName, session.Host, newEvent(eventAnswerReveal, map[string]any{
		"question": game.Question,
		"answer":   game.Answer,
	}))
	return true
}

func (sup *Supervisor) openBuzzWindow(sessionName string) bool {
	session, err := sup.store.Update(sessionName, func(session *Session) error {
		game, ok := session.Game.(*BuzzerTriviaState)
		if !ok {
			return ErrGameInProgress
		}
		game.Phase = phaseBuzzWindow
		game.Buzzes = nil
		return nil
	})
	if err != nil {
		return false
	}
	sup.hub.Broadcast(sessionName, newEvent(eventGameState, gameSnapshot(session.Game)))
	return true
}

// closeBuzzWindow orders the buzzes by the client-reported timestamps
// and moves to judging when anyone buzzed.
func (sup *Supervisor) closeBuzzWindow(sessionName string) (buzzed, ok bool) {
	session, err := sup.store.Update(sessionName, func(session *Session) error {
		game, okGame := session.Game.(*BuzzerTriviaState)
		if !okGame || game.Phase != phaseBuzzWindow {
			return ErrGameInProgress
		}
		sort.SliceStable(game.Buzzes, func(i, j int) bool {
			return game.Buzzes[i].At < game.Buzzes[j].At
		})
		for i := range game.Buzzes {
			game.Buzzes[i].Position = i + 1
		}
		buzzed = len(game.Buzzes) > 0
		if buzzed {
			game.Phase = phaseHostJudging
		} else {
			game.Phase = phaseRoundTimeout
		}
		return nil
	})
	if err != nil {
		return false, false
	}
	sup.hub.Broadcast(sessionName, newEvent(eventGameState, gameSnapshot(session.Game)))
	return buzzed, true
}

// awaitJudging blocks until the host moves on or ends the game early.
// Signals sent before the wait opened are stale and dropped.
func (sup *Supervisor) awaitJudging(sessionName string, r *runner) bool {
	r.drainSignals()
	for {
		sig, ok := waitSignal(r.ctx, r, 0, actionNextQuestion, actionEndGame, actionGenerateQuestion)
		if !ok {
			return false
		}
		switch sig.action {
		case actionGenerateQuestion:
			if !sup.presentQuestion(sessionName, true) {
				return false
			}
			if !sleep(r.ctx, time.Duration(sup.cfg.QuestionDisplaySeconds)*time.Second) {
				return false
			}
			if !sup.openBuzzWindow(sessionName) {
				return false
			}
			if !sleep(r.ctx, time.Duration(sup.cfg.BuzzWindowSeconds)*time.Second) {
				return false
			}
			buzzed, okClose := sup.closeBuzzWindow(sessionName)
			if !okClose {
				return false
			}
			if !buzzed {
				return true
			}
		case actionEndGame:
			sup.finishBuzzerTrivia(sessionName)
			return false
		case actionNextQuestion:
			return true
		}
	}
}

// advanceRound bumps the round counter and reports whether the game ran
// out of rounds.
func (sup *Supervisor) advanceRound(sessionName string) (done, ok bool) {
	_, err := sup.store.Update(sessionName, func(session *Session) error {
		game, okGame := session.Game.(*BuzzerTriviaState)
		if !okGame {
			return ErrGameInProgress
		}
		if game.Round >= game.MaxRounds {
			done = true
			return nil
		}
		game.Round++
		return nil
	})
	if err != nil {
		return false, false
	}
	return done, true
}

func (sup *Supervisor) finishBuzzerTrivia(sessionName string) {
	session, ok := sup.store.Get(sessionName)
	if !ok {
		return
	}
	game, ok := session.Game.(*BuzzerTriviaState)
	if !ok {
		return
	}
	entries := rankScores(session.participantNames(), game.TotalScores)
	sup.finishGame(sessionName, GameResults{
		Variant: VariantBuzzerTrivia,
		Winner:  winnerOf(entries, true),
		Scores:  entries,
	})
}

func (sup *Supervisor) handleVoteCategory(sessionName, participant string, payload map[string]any) {
	category, _ := payload["category"].(string)
	session, err := sup.store.Update(sessionName, func(session *Session) error {
		game, ok := session.Game.(*BuzzerTriviaState)
		if !ok || game.Phase != phaseCategoryVote {
			return ErrGameInProgress
		}
		if !session.hasParticipant(participant) {
			return ErrSessionNotFound
		}
		valid := false
		for _, option := range game.CategoryOptions {
			if option == category {
				valid = true
				break
			}
		}
		if !valid {
			return ErrGameInProgress
		}
		game.CategoryVotes[participant] = category
		return nil
	})
	if err != nil {
		return
	}
	game := session.Game.(*BuzzerTriviaState)
	sup.hub.Broadcast(sessionName, newEvent(eventTick, map[string]any{
		"phase":      phaseCategoryVote,
		"votes_cast": len(game.CategoryVotes),
	}))
}

// handleBuzz records one buzz per participant per round and rebroadcasts
// the full timestamp-ranked buzzer list so clients can show the pile-up
// as it happens. Final positions are fixed when the window closes.
func (sup *Supervisor) handleBuzz(sessionName, participant string, payload map[string]any) {
	at, _ := payload["timestamp"].(float64)
	if at == 0 {
		at = epochSeconds(time.Now())
	}
	session, err := sup.store.Update(sessionName, func(session *Session) error {
		game, ok := session.Game.(*BuzzerTriviaState)
		if !ok || game.Phase != phaseBuzzWindow {
			return ErrGameInProgress
		}
		if !session.hasParticipant(participant) {
			return ErrSessionNotFound
		}
		if game.hasBuzzed(participant) {
			return ErrGameInProgress
		}
		game.Buzzes = append(game.Buzzes, Buzz{Participant: participant, At: at})
		return nil
	})
	if err != nil {
		return
	}
	ranked := append([]Buzz(nil), session.Game.(*BuzzerTriviaState).Buzzes...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].At < ranked[j].At
	})
	for i := range ranked {
		ranked[i].Position = i + 1
	}
	sup.hub.Broadcast(sessionName, newEvent(eventBuzzed, map[string]any{
		"participant": participant,
		"at":          at,
		"buzzes":      buzzesPayload(ranked),
	}))
}

// handleAwardPoints lets the host score a judged answer. Anyone else
// calling it is ignored.
func (sup *Supervisor) handleAwardPoints(sessionName, participant string, payload map[string]any) {
	target, _ := payload["participant"].(string)
	points := 1
	if raw, ok := payload["points"].(float64); ok && raw != 0 {
		points = int(raw)
	}
	session, err := sup.store.Update(sessionName, func(session *Session) error {
		if session.Host != participant {
			return ErrHostOnly
		}
		game, ok := session.Game.(*BuzzerTriviaState)
		if !ok || game.Phase != phaseHostJudging {
			return ErrGameInProgress
		}
		if !session.hasParticipant(target) {
			return ErrSessionNotFound
		}
		game.TotalScores[target] += points
		return nil
	})
	if err != nil {
		return
	}
	sup.hub.Broadcast(sessionName, newEvent(eventGameState, gameSnapshot(session.Game)))
}
