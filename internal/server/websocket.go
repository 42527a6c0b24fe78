package server

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleWebsocket upgrades GET /ws/sessions/:name?participant=NAME.
// Only participants that already joined over REST may connect.
func (s *Server) handleWebsocket(c *gin.Context) {
	name := c.Param("name")
	participant := c.Query("participant")

	session, ok := s.store.Get(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": ErrSessionNotFound.Error()})
		return
	}
	if participant == "" || !session.hasParticipant(participant) {
		c.JSON(http.StatusForbidden, gin.H{"error": "participant has not joined this session"})
		return
	}

	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws upgrade failed session=%s error=%v", name, err)
		return
	}
	log.Printf("ws connected session=%s participant=%s remote=%s", name, participant, c.Request.RemoteAddr)

	client := newClient(s, conn, name, participant)
	s.hub.Add(name, client)
	client.start()

	client.sendEvent(newEvent(eventLobbyUpdated, sessionSnapshot(session)))
	s.hub.BroadcastExcept(name, client, newEvent(eventParticipantJoined, map[string]any{
		"participant": participant,
	}))
}

func (s *Server) handleClientEvent(c *client, event WSEvent) {
	switch event.Type {
	case eventParticipantReady:
		s.setReady(c, true)
	case eventParticipantUnready:
		s.setReady(c, false)
	case eventChat:
		text, _ := event.Payload["text"].(string)
		if text == "" {
			return
		}
		s.hub.Broadcast(c.session, newEvent(eventChatMessage, map[string]any{
			"participant": c.participant,
			"text":        text,
		}))
	case eventGameAction:
		action, _ := event.Payload["action"].(string)
		if action == "" {
			c.sendError("game_action requires an action")
			return
		}
		s.sup.Dispatch(c.session, c.participant, action, event.Payload)
	case eventPing:
		c.sendEvent(newEvent(eventPong, nil))
	default:
		c.sendError("unsupported event type")
	}
}

func (s *Server) setReady(c *client, ready bool) {
	session, err := s.store.Update(c.session, func(session *Session) error {
		p := session.participant(c.participant)
		if p == nil {
			return ErrSessionNotFound
		}
		p.Ready = ready
		return nil
	})
	if err != nil {
		return
	}
	s.hub.Broadcast(c.session, newEvent(eventLobbyUpdated, sessionSnapshot(session)))
}

// handleClientGone runs once per closed connection. Only the last
// connection for a participant removes them from the session.
func (s *Server) handleClientGone(c *client) {
	if s.hub.Remove(c.session, c) > 0 {
		return
	}

	session, err := s.store.Update(c.session, func(session *Session) error {
		if !session.removeParticipant(c.participant) {
			return ErrSessionNotFound
		}
		return nil
	})
	if err != nil {
		return
	}

	// No participants or no connections left means nobody can hear the
	// session again; drop it.
	if len(session.Participants) == 0 || !s.hub.hasClients(c.session) {
		log.Printf("session emptied session=%s", c.session)
		s.sup.Abort(c.session)
		s.store.Delete(c.session)
		return
	}

	s.hub.Broadcast(c.session, newEvent(eventParticipantLeft, map[string]any{
		"participant": c.participant,
		"new_host":    session.Host,
	}))
	s.hub.Broadcast(c.session, newEvent(eventLobbyUpdated, sessionSnapshot(session)))
}
