package server

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type createSessionRequest struct {
	SessionName string `json:"session_name" binding:"required,session"`
	HostName    string `json:"host_name" binding:"required,participant"`
}

type joinRequest struct {
	ParticipantName string `json:"participant_name" binding:"required,participant"`
}

type readyRequest struct {
	ParticipantName string `json:"participant_name" binding:"required,participant"`
	Ready           bool   `json:"ready"`
}

type startRequest struct {
	HostToken   string `json:"host_token" binding:"required"`
	GameVariant string `json:"game_variant" binding:"required"`
}

var createSessionMessages = bindMessages{
	"SessionName": {
		"required": "session_name is required",
		"session":  "session_name must be 30 safe characters or fewer",
	},
	"HostName": {
		"required":    "host_name is required",
		"participant": "host_name must be 20 safe characters or fewer",
	},
}

var joinMessages = bindMessages{
	"ParticipantName": {
		"required":    "participant_name is required",
		"participant": "participant_name must be 20 safe characters or fewer",
	},
}

func (s *Server) handleCreateSession(c *gin.Context) {
	var req createSessionRequest
	if !bindJSON(c, &req, createSessionMessages, "") {
		return
	}
	name, _ := validateSessionName(req.SessionName)
	host, _ := validateParticipantName(req.HostName)

	session := &Session{
		Name:         name,
		Host:         host,
		HostToken:    uuid.NewString(),
		Participants: []Participant{{Name: host}},
		State:        StateWaiting,
	}
	if _, exists := s.store.Get(name); exists {
		c.JSON(http.StatusConflict, gin.H{"error": ErrSessionExists.Error()})
		return
	}
	s.store.Put(name, session)
	log.Printf("session created session=%s host=%s", name, host)
	if err := s.events.recordSessionCreated(name, host); err != nil {
		log.Printf("persist session create failed session=%s error=%v", name, err)
	}

	payload := sessionSnapshot(session)
	payload["host_token"] = session.HostToken
	c.JSON(http.StatusCreated, payload)
}

func (s *Server) handleJoinSession(c *gin.Context) {
	name := c.Param("name")
	var req joinRequest
	if !bindJSON(c, &req, joinMessages, "") {
		return
	}
	participant, _ := validateParticipantName(req.ParticipantName)

	session, err := s.store.Update(name, func(session *Session) error {
		if session.State != StateWaiting {
			return ErrGameInProgress
		}
		if session.hasParticipant(participant) {
			return ErrParticipantExists
		}
		if len(session.Participants) >= s.cfg.MaxParticipants {
			return ErrSessionFull
		}
		session.Participants = append(session.Participants, Participant{Name: participant})
		return nil
	})
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	log.Printf("participant joined session=%s participant=%s count=%d", name, participant, len(session.Participants))
	if err := s.events.recordParticipantJoined(name, participant); err != nil {
		log.Printf("persist join failed session=%s error=%v", name, err)
	}
	s.hub.Broadcast(name, newEvent(eventLobbyUpdated, sessionSnapshot(session)))
	c.JSON(http.StatusOK, sessionSnapshot(session))
}

func (s *Server) handleReady(c *gin.Context) {
	name := c.Param("name")
	var req readyRequest
	if !bindJSON(c, &req, joinMessages, "") {
		return
	}
	session, err := s.store.Update(name, func(session *Session) error {
		p := session.participant(req.ParticipantName)
		if p == nil {
			return ErrSessionNotFound
		}
		p.Ready = req.Ready
		return nil
	})
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	s.hub.Broadcast(name, newEvent(eventLobbyUpdated, sessionSnapshot(session)))
	c.JSON(http.StatusOK, sessionSnapshot(session))
}

func (s *Server) handleStartGame(c *gin.Context) {
	name := c.Param("name")
	var req startRequest
	if !bindJSON(c, &req, nil, "host_token and game_variant are required") {
		return
	}
	session, ok := s.store.Get(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": ErrSessionNotFound.Error()})
		return
	}
	if session.HostToken != req.HostToken {
		c.JSON(http.StatusForbidden, gin.H{"error": ErrHostOnly.Error()})
		return
	}
	if err := s.sup.StartGame(name, GameVariant(req.GameVariant)); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_name": name,
		"game_variant": req.GameVariant,
		"state":        StateStarting,
	})
}

func (s *Server) handleListSessions(c *gin.Context) {
	sessions := s.store.List()
	list := make([]map[string]any, 0, len(sessions))
	for _, session := range sessions {
		list = append(list, sessionInfo(session))
	}
	c.JSON(http.StatusOK, gin.H{"sessions": list})
}

func (s *Server) handleGetSession(c *gin.Context) {
	session, ok := s.store.Get(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": ErrSessionNotFound.Error()})
		return
	}
	c.JSON(http.StatusOK, sessionSnapshot(session))
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	name := c.Param("name")
	session, ok := s.store.Get(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": ErrSessionNotFound.Error()})
		return
	}
	if session.HostToken != c.GetHeader("X-Host-Token") {
		c.JSON(http.StatusForbidden, gin.H{"error": ErrHostOnly.Error()})
		return
	}
	log.Printf("session closed session=%s", name)
	s.hub.Broadcast(name, newEvent(eventSessionClosed, map[string]any{
		"session_name": name,
	}))
	s.sup.Abort(name)
	s.store.Delete(name)
	s.hub.CloseSession(name)
	c.Status(http.StatusNoContent)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrSessionExists), errors.Is(err, ErrParticipantExists),
		errors.Is(err, ErrGameInProgress), errors.Is(err, ErrSessionFull),
		errors.Is(err, ErrGameRunning):
		return http.StatusConflict
	case errors.Is(err, ErrHostOnly):
		return http.StatusForbidden
	case errors.Is(err, ErrNotEnoughPlayers), errors.Is(err, ErrNotAllReady),
		errors.Is(err, ErrUnknownVariant):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
