package server

import (
	"maps"
	"slices"
	"time"
)

// SessionState is the lobby-level lifecycle of a session.
type SessionState string

const (
	StateWaiting    SessionState = "waiting"
	StateStarting   SessionState = "starting"
	StateInProgress SessionState = "in_progress"
	StateFinished   SessionState = "finished"
)

// GameVariant tags the concrete game carried by a session.
type GameVariant string

const (
	VariantTapGauntlet  GameVariant = "tap_gauntlet"
	VariantBuzzerTrivia GameVariant = "buzzer_trivia"
	VariantRoulette     GameVariant = "chamber_roulette"
)

const (
	phaseCountdown       = "countdown"
	phasePlaying         = "playing"
	phaseCategoryVote    = "category_vote"
	phaseCategoryResult  = "category_result"
	phaseQuestionDisplay = "question"
	phaseBuzzWindow      = "buzzing"
	phaseHostJudging     = "host_judging"
	phaseRoundTimeout    = "timeout"
	phaseChamberPick     = "chamber_pick"
	phaseChamberReveal   = "chamber_reveal"
	phaseResults         = "results"
)

type Participant struct {
	Name  string `json:"name"`
	Ready bool   `json:"ready"`
}

// Session is the authoritative record for one lobby. It is owned by the
// Store; all multi-step mutation goes through Store.Update closures.
type Session struct {
	Name         string
	Host         string
	HostToken    string
	Participants []Participant
	State        SessionState
	Game         GameState
	Version      int
}

func (s *Session) participant(name string) *Participant {
	for i := range s.Participants {
		if s.Participants[i].Name == name {
			return &s.Participants[i]
		}
	}
	return nil
}

func (s *Session) hasParticipant(name string) bool {
	return s.participant(name) != nil
}

// removeParticipant drops the named participant and reassigns the host role
// to the first remaining participant when the host leaves. Reports whether
// anything changed.
func (s *Session) removeParticipant(name string) bool {
	for i := range s.Participants {
		if s.Participants[i].Name == name {
			s.Participants = append(s.Participants[:i], s.Participants[i+1:]...)
			if s.Host == name && len(s.Participants) > 0 {
				s.Host = s.Participants[0].Name
			}
			return true
		}
	}
	return false
}

func (s *Session) participantNames() []string {
	names := make([]string, 0, len(s.Participants))
	for _, p := range s.Participants {
		names = append(names, p.Name)
	}
	return names
}

// clone deep-copies the session so store readers never share maps or
// slices with a record a live game runner is mutating.
func (s *Session) clone() *Session {
	copied := *s
	copied.Participants = slices.Clone(s.Participants)
	if s.Game != nil {
		copied.Game = s.Game.clone()
	}
	return &copied
}

// GameState is the closed union of per-variant game data. Exactly one
// concrete type exists per variant; dispatch is by the Variant tag.
type GameState interface {
	Variant() GameVariant
	Core() *GameCore
	clone() GameState
}

// GameCore carries the fields every variant shares.
type GameCore struct {
	State     SessionState `json:"state"`
	Phase     string       `json:"phase"`
	StartedAt time.Time    `json:"started_at"`
	EndedAt   time.Time    `json:"ended_at"`
}

func (c *GameCore) Core() *GameCore { return c }

// Challenge is a server-issued anti-cheat probe awaiting a timely response.
type Challenge struct {
	ID       string    `json:"id"`
	IssuedAt time.Time `json:"issued_at"`
}

type TapGauntletState struct {
	GameCore
	DurationSeconds int                    `json:"duration_seconds"`
	Taps            map[string]int         `json:"taps"`
	LastTapAt       map[string]time.Time   `json:"last_tap_at"`
	Challenges      map[string][]Challenge `json:"challenges"`
	Strikes         map[string]int         `json:"strikes"`
}

func (*TapGauntletState) Variant() GameVariant { return VariantTapGauntlet }

func (g *TapGauntletState) clone() GameState {
	copied := *g
	copied.Taps = maps.Clone(g.Taps)
	copied.LastTapAt = maps.Clone(g.LastTapAt)
	copied.Strikes = maps.Clone(g.Strikes)
	if g.Challenges != nil {
		copied.Challenges = make(map[string][]Challenge, len(g.Challenges))
		for name, probes := range g.Challenges {
			copied.Challenges[name] = slices.Clone(probes)
		}
	}
	return &copied
}

// Buzz records one participant's claim-to-answer. At is the client-submitted
// timestamp in epoch seconds; ordering uses it, not arrival order.
type Buzz struct {
	Participant string  `json:"participant"`
	At          float64 `json:"at"`
	Position    int     `json:"position"`
}

type BuzzerTriviaState struct {
	GameCore
	CategoryOptions  []string          `json:"category_options"`
	CategoryVotes    map[string]string `json:"category_votes"`
	SelectedCategory string            `json:"selected_category"`
	Question         string            `json:"question"`
	Answer           string            `json:"answer"`
	Buzzes           []Buzz            `json:"buzzes"`
	Round            int               `json:"round"`
	MaxRounds        int               `json:"max_rounds"`
	TotalScores      map[string]int    `json:"total_scores"`
}

func (*BuzzerTriviaState) Variant() GameVariant { return VariantBuzzerTrivia }

func (g *BuzzerTriviaState) clone() GameState {
	copied := *g
	copied.CategoryOptions = slices.Clone(g.CategoryOptions)
	copied.CategoryVotes = maps.Clone(g.CategoryVotes)
	copied.Buzzes = slices.Clone(g.Buzzes)
	copied.TotalScores = maps.Clone(g.TotalScores)
	return &copied
}

func (g *BuzzerTriviaState) hasBuzzed(name string) bool {
	for _, b := range g.Buzzes {
		if b.Participant == name {
			return true
		}
	}
	return false
}

type RouletteState struct {
	GameCore
	Chambers  []bool         `json:"chambers"`
	Round     int            `json:"round"`
	MaxRounds int            `json:"max_rounds"`
	Alive     []string       `json:"alive"`
	Picks     map[string]int `json:"picks"`
	Survived  map[string]int `json:"survived"`
}

func (*RouletteState) Variant() GameVariant { return VariantRoulette }

func (g *RouletteState) clone() GameState {
	copied := *g
	copied.Chambers = slices.Clone(g.Chambers)
	copied.Alive = slices.Clone(g.Alive)
	copied.Picks = maps.Clone(g.Picks)
	copied.Survived = maps.Clone(g.Survived)
	return &copied
}

func (g *RouletteState) isAlive(name string) bool {
	for _, a := range g.Alive {
		if a == name {
			return true
		}
	}
	return false
}

type ScoreEntry struct {
	Participant string `json:"participant"`
	Score       int    `json:"score"`
	Position    int    `json:"position"`
}

type GameResults struct {
	Variant         GameVariant  `json:"game_variant"`
	Winner          string       `json:"winner,omitempty"`
	Scores          []ScoreEntry `json:"scores"`
	DurationSeconds float64      `json:"duration_seconds"`
	Flagged         []string     `json:"flagged,omitempty"`
}
