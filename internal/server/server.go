package server

import (
	"log"
	"net/http"

	"github.com/stickycoinz/party-game-platform/internal/config"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Server struct {
	store  Store
	hub    *hub
	sup    *Supervisor
	cfg    config.Config
	events *eventLog
}

// New builds a server on the in-memory store. Pass a nil connection to
// run without persistence.
func New(conn *gorm.DB, cfg config.Config) *Server {
	return NewWithStore(NewStore(), conn, cfg)
}

// NewWithStore builds a server on an explicit store, which is how a
// Redis-backed deployment wires in.
func NewWithStore(store Store, conn *gorm.DB, cfg config.Config) *Server {
	h := newHub()
	events := newEventLog(conn)
	return &Server{
		store:  store,
		hub:    h,
		sup:    NewSupervisor(store, h, cfg, NewStaticQuestionBank(), events),
		cfg:    cfg,
		events: events,
	}
}

// CleanupEmptySessions removes sessions with no open connections or no
// participants left. The disconnect path already handles the common
// case; this sweep catches sessions orphaned by clients that never
// connected a socket. Returns the number of sessions removed.
func (s *Server) CleanupEmptySessions() int {
	removed := 0
	for _, session := range s.store.List() {
		if s.hub.hasClients(session.Name) && len(session.Participants) > 0 {
			continue
		}
		s.sup.Abort(session.Name)
		s.hub.CloseSession(session.Name)
		s.store.Delete(session.Name)
		removed++
		log.Printf("removed empty session name=%s", session.Name)
	}
	return removed
}

func (s *Server) Handler() http.Handler {
	registerValidators()
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		api.POST("/sessions", s.handleCreateSession)
		api.GET("/sessions", s.handleListSessions)
		api.GET("/sessions/:name", s.handleGetSession)
		api.DELETE("/sessions/:name", s.handleDeleteSession)
		api.POST("/sessions/:name/join", s.handleJoinSession)
		api.POST("/sessions/:name/ready", s.handleReady)
		api.POST("/sessions/:name/start", s.handleStartGame)
	}

	router.GET("/ws/sessions/:name", s.handleWebsocket)
	return router
}
