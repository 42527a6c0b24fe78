package server

import "time"

// Client -> Server event types.
const (
	eventParticipantReady   = "participant_ready"
	eventParticipantUnready = "participant_unready"
	eventChat               = "chat"
	eventGameAction         = "game_action"
	eventPing               = "ping"
)

// Server -> Client event types.
const (
	eventLobbyUpdated      = "lobby_updated"
	eventParticipantJoined = "participant_joined"
	eventParticipantLeft   = "participant_left"
	eventGameStarted       = "game_started"
	eventGameState         = "game_state"
	eventGameFinished      = "game_finished"
	eventChatMessage       = "chat_message"
	eventChallenge         = "challenge"
	eventTapCount          = "tap_count"
	eventBuzzed            = "participant_buzzed"
	eventAnswerReveal      = "answer_reveal"
	eventTick              = "tick"
	eventPong              = "pong"
	eventError             = "error"
	eventSessionClosed     = "session_closed"
)

// Game action names carried inside a game_action payload.
const (
	actionTap               = "tap"
	actionChallengeResponse = "challenge_response"
	actionVoteCategory      = "vote_category"
	actionBuzz              = "buzz"
	actionAwardPoints       = "award_points"
	actionNextQuestion      = "next_question"
	actionEndGame           = "end_game"
	actionGenerateQuestion  = "generate_question"
	actionPickChamber       = "pick_chamber"
)

// WSEvent is the wire envelope in both directions. Timestamp is epoch
// seconds to keep the payload friendly to browser clients.
type WSEvent struct {
	Type      string         `json:"type"`
	Payload   map[string]any `json:"payload"`
	Timestamp float64        `json:"timestamp"`
}

func newEvent(eventType string, payload map[string]any) WSEvent {
	if payload == nil {
		payload = map[string]any{}
	}
	return WSEvent{
		Type:      eventType,
		Payload:   payload,
		Timestamp: epochSeconds(time.Now()),
	}
}

func epochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
