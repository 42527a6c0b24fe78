package server

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/stickycoinz/party-game-platform/internal/config"
)

// hostSignal carries a host-gated action into a waiting game runner.
type hostSignal struct {
	action  string
	payload map[string]any
}

// runner is one live game loop. Cancelling the context abandons the
// game; signals unblock host-gated phases.
type runner struct {
	variant GameVariant
	ctx     context.Context
	cancel  context.CancelFunc
	signals chan hostSignal
	done    chan struct{}
}

// Supervisor owns at most one runner per session and routes inbound
// game actions to it. Phase progression happens on the runner goroutine;
// action handlers mutate state through store.Update and broadcast.
type Supervisor struct {
	mu      sync.Mutex
	runners map[string]*runner

	store     Store
	hub       *hub
	cfg       config.Config
	questions QuestionSource
	events    *eventLog
}

func NewSupervisor(store Store, h *hub, cfg config.Config, questions QuestionSource, events *eventLog) *Supervisor {
	return &Supervisor{
		runners:   make(map[string]*runner),
		store:     store,
		hub:       h,
		cfg:       cfg,
		questions: questions,
		events:    events,
	}
}

// StartGame validates the lobby, seeds the variant state and launches
// the runner. The session moves WAITING -> STARTING inside the same
// store update that checks it, so two racing starts cannot both win.
func (sup *Supervisor) StartGame(sessionName string, variant GameVariant) error {
	sup.mu.Lock()
	if _, exists := sup.runners[sessionName]; exists {
		sup.mu.Unlock()
		return ErrGameRunning
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &runner{
		variant: variant,
		ctx:     ctx,
		cancel:  cancel,
		signals: make(chan hostSignal, 4),
		done:    make(chan struct{}),
	}
	sup.runners[sessionName] = r
	sup.mu.Unlock()

	session, err := sup.store.Update(sessionName, func(session *Session) error {
		if session.State != StateWaiting {
			return ErrGameInProgress
		}
		if len(session.Participants) < sup.cfg.MinParticipants {
			return ErrNotEnoughPlayers
		}
		for _, p := range session.Participants {
			if !p.Ready {
				return ErrNotAllReady
			}
		}
		game, err := sup.newGameState(variant, session)
		if err != nil {
			return err
		}
		session.State = StateStarting
		session.Game = game
		return nil
	})
	if err != nil {
		sup.remove(sessionName, r)
		cancel()
		return err
	}

	log.Printf("game starting session=%s variant=%s participants=%d", sessionName, variant, len(session.Participants))
	sup.hub.Broadcast(sessionName, newEvent(eventGameStarted, map[string]any{
		"game_variant": variant,
		"countdown":    sup.cfg.CountdownSeconds,
	}))
	if err := sup.events.recordGameStarted(sessionName, variant, session.participantNames()); err != nil {
		log.Printf("persist game start failed session=%s error=%v", sessionName, err)
	}

	go sup.run(sessionName, r)
	return nil
}

func (sup *Supervisor) newGameState(variant GameVariant, session *Session) (GameState, error) {
	switch variant {
	case VariantTapGauntlet:
		return sup.newTapGauntlet(session), nil
	case VariantBuzzerTrivia:
		return sup.newBuzzerTrivia(), nil
	case VariantRoulette:
		return sup.newRoulette(session), nil
	default:
		return nil, ErrUnknownVariant
	}
}

func (sup *Supervisor) run(sessionName string, r *runner) {
	defer close(r.done)
	defer sup.remove(sessionName, r)
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("game runner panic session=%s variant=%s panic=%v", sessionName, r.variant, rec)
			sup.abandonGame(sessionName)
		}
	}()

	switch r.variant {
	case VariantTapGauntlet:
		sup.runTapGauntlet(sessionName, r)
	case VariantBuzzerTrivia:
		sup.runBuzzerTrivia(sessionName, r)
	case VariantRoulette:
		sup.runRoulette(sessionName, r)
	}
}

func (sup *Supervisor) remove(sessionName string, r *runner) {
	sup.mu.Lock()
	if sup.runners[sessionName] == r {
		delete(sup.runners, sessionName)
	}
	sup.mu.Unlock()
}

// Abort cancels the session's runner, if any. The runner notices on its
// next wait and exits without finishing the game.
func (sup *Supervisor) Abort(sessionName string) {
	sup.mu.Lock()
	r := sup.runners[sessionName]
	sup.mu.Unlock()
	if r != nil {
		r.cancel()
	}
}

// Running reports whether a game loop is live for the session.
func (sup *Supervisor) Running(sessionName string) bool {
	sup.mu.Lock()
	defer sup.mu.Unlock()
	_, ok := sup.runners[sessionName]
	return ok
}

// Dispatch routes one game_action from a websocket client. Unknown or
// out-of-phase actions are dropped; the sender learns about state from
// the next broadcast.
func (sup *Supervisor) Dispatch(sessionName, participant, action string, payload map[string]any) {
	sup.mu.Lock()
	r := sup.runners[sessionName]
	sup.mu.Unlock()
	if r == nil {
		return
	}

	switch action {
	case actionTap:
		sup.handleTap(sessionName, participant)
	case actionChallengeResponse:
		sup.handleChallengeResponse(sessionName, participant, payload)
	case actionVoteCategory:
		sup.handleVoteCategory(sessionName, participant, payload)
	case actionBuzz:
		sup.handleBuzz(sessionName, participant, payload)
	case actionAwardPoints:
		sup.handleAwardPoints(sessionName, participant, payload)
	case actionPickChamber:
		sup.handlePickChamber(sessionName, participant, payload)
	case actionNextQuestion, actionEndGame, actionGenerateQuestion:
		if !sup.isHost(sessionName, participant) {
			return
		}
		select {
		case r.signals <- hostSignal{action: action, payload: payload}:
		default:
			log.Printf("dropping host signal session=%s action=%s reason=backlog", sessionName, action)
		}
	}
}

func (sup *Supervisor) isHost(sessionName, participant string) bool {
	session, ok := sup.store.Get(sessionName)
	return ok && session.Host == participant
}

// sleep waits for the duration unless the runner is cancelled first.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// drainSignals discards host signals that queued up while no gated wait
// was listening, so a stale end_game cannot cut a later round short.
func (r *runner) drainSignals() {
	for {
		select {
		case <-r.signals:
		default:
			return
		}
	}
}

// waitSignal blocks until the host sends one of the wanted actions, the
// timeout passes (zero means no timeout), or the runner is cancelled.
func waitSignal(ctx context.Context, r *runner, timeout time.Duration, wanted ...string) (hostSignal, bool) {
	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}
	for {
		select {
		case sig := <-r.signals:
			for _, action := range wanted {
				if sig.action == action {
					return sig, true
				}
			}
		case <-timeoutCh:
			return hostSignal{}, false
		case <-ctx.Done():
			return hostSignal{}, false
		}
	}
}

// countdown runs the shared pre-game count and flips the session into
// IN_PROGRESS with the variant's opening phase.
func (sup *Supervisor) countdown(ctx context.Context, sessionName, nextPhase string) bool {
	for i := sup.cfg.CountdownSeconds; i > 0; i-- {
		sup.hub.Broadcast(sessionName, newEvent(eventTick, map[string]any{
			"phase":     phaseCountdown,
			"remaining": i,
		}))
		if !sleep(ctx, time.Second) {
			return false
		}
	}
	session, err := sup.store.Update(sessionName, func(session *Session) error {
		session.State = StateInProgress
		core := session.Game.Core()
		core.State = StateInProgress
		core.Phase = nextPhase
		core.StartedAt = time.Now()
		return nil
	})
	if err != nil {
		return false
	}
	sup.hub.Broadcast(sessionName, newEvent(eventGameState, gameSnapshot(session.Game)))
	return true
}

// finishGame publishes results, persists the record and resets the
// session to a fresh lobby.
func (sup *Supervisor) finishGame(sessionName string, results GameResults) {
	session, err := sup.store.Update(sessionName, func(session *Session) error {
		if session.Game != nil {
			core := session.Game.Core()
			core.State = StateFinished
			core.Phase = phaseResults
			core.EndedAt = time.Now()
			if !core.StartedAt.IsZero() {
				results.DurationSeconds = core.EndedAt.Sub(core.StartedAt).Seconds()
			}
		}
		session.State = StateWaiting
		session.Game = nil
		for i := range session.Participants {
			session.Participants[i].Ready = false
		}
		return nil
	})
	if err != nil {
		return
	}
	log.Printf("game finished session=%s variant=%s winner=%s", sessionName, results.Variant, results.Winner)
	sup.hub.Broadcast(sessionName, newEvent(eventGameFinished, map[string]any{
		"results": results,
	}))
	sup.hub.Broadcast(sessionName, newEvent(eventLobbyUpdated, sessionSnapshot(session)))
	if err := sup.events.recordGameFinished(sessionName, results); err != nil {
		log.Printf("persist game finish failed session=%s error=%v", sessionName, err)
	}
}

// abandonGame resets the session after a runner died without results.
func (sup *Supervisor) abandonGame(sessionName string) {
	session, err := sup.store.Update(sessionName, func(session *Session) error {
		session.State = StateWaiting
		session.Game = nil
		for i := range session.Participants {
			session.Participants[i].Ready = false
		}
		return nil
	})
	if err != nil {
		return
	}
	sup.hub.Broadcast(sessionName, newEvent(eventGameFinished, map[string]any{
		"aborted": true,
	}))
	sup.hub.Broadcast(sessionName, newEvent(eventLobbyUpdated, sessionSnapshot(session)))
}
