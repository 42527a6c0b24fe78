package server

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	// Floor between inbound frames. Tap spam above this is handled by
	// the per-game tap validator, this only guards frame flooding.
	minMessageInterval = time.Second / 30
	sendTimeout        = 2 * time.Second
)

// client is one websocket connection bound to a joined participant.
type client struct {
	server      *Server
	conn        *websocket.Conn
	send        chan []byte
	closeOnce   sync.Once
	closed      chan struct{}
	session     string
	participant string
	lastMsgAt   time.Time
}

func newClient(srv *Server, conn *websocket.Conn, sessionName, participant string) *client {
	return &client{
		server:      srv,
		conn:        conn,
		send:        make(chan []byte, 16),
		closed:      make(chan struct{}),
		session:     sessionName,
		participant: participant,
	}
}

func (c *client) start() {
	go c.writePump()
	go c.readPump()
}

func (c *client) readPump() {
	defer c.close("connection closed")

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("ws read error session=%s participant=%s error=%v", c.session, c.participant, err)
			}
			return
		}

		now := time.Now()
		if now.Sub(c.lastMsgAt) < minMessageInterval {
			continue
		}
		c.lastMsgAt = now

		var event WSEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			c.sendError("invalid message format")
			continue
		}
		c.server.handleClientEvent(c, event)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close("write pump exit")
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.closed:
			return
		}
	}
}

// enqueue hands the frame to the write pump, dropping it when the peer
// cannot keep up.
func (c *client) enqueue(data []byte) {
	select {
	case c.send <- data:
	case <-c.closed:
	case <-time.After(sendTimeout):
		log.Printf("dropping frame session=%s participant=%s reason=slow_consumer", c.session, c.participant)
	}
}

func (c *client) sendEvent(event WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	c.enqueue(data)
}

func (c *client) sendError(message string) {
	c.sendEvent(newEvent(eventError, map[string]any{"message": message}))
}

func (c *client) close(reason string) {
	c.closeOnce.Do(func() {
		log.Printf("ws closed session=%s participant=%s reason=%s", c.session, c.participant, reason)
		close(c.closed)
		c.server.handleClientGone(c)
		_ = c.conn.Close()
	})
}
