package server

import (
	"encoding/json"
	"log"
	"sync"
)

// hub tracks the open websocket clients per session. Delivery goes
// through each client's buffered send channel so a stalled peer never
// blocks a broadcast.
type hub struct {
	mu       sync.Mutex
	sessions map[string]map[*client]struct{}
}

func newHub() *hub {
	return &hub{
		sessions: make(map[string]map[*client]struct{}),
	}
}

func (h *hub) Add(sessionName string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.sessions[sessionName]
	if group == nil {
		group = make(map[*client]struct{})
		h.sessions[sessionName] = group
	}
	group[c] = struct{}{}
}

// Remove drops the client and reports how many connections the same
// participant still has in the session.
func (h *hub) Remove(sessionName string, c *client) (remaining int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.sessions[sessionName]
	if group == nil {
		return 0
	}
	delete(group, c)
	if len(group) == 0 {
		delete(h.sessions, sessionName)
		return 0
	}
	for other := range group {
		if other.participant == c.participant {
			remaining++
		}
	}
	return remaining
}

func (h *hub) hasClients(sessionName string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions[sessionName]) > 0
}

func (h *hub) clients(sessionName string) []*client {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.sessions[sessionName]
	conns := make([]*client, 0, len(group))
	for c := range group {
		conns = append(conns, c)
	}
	return conns
}

// Broadcast marshals the event once and fans it out to every client in
// the session.
func (h *hub) Broadcast(sessionName string, event WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("broadcast marshal failed session=%s type=%s error=%v", sessionName, event.Type, err)
		return
	}
	for _, c := range h.clients(sessionName) {
		c.enqueue(data)
	}
}

// BroadcastExcept fans the event out to everyone but the given client.
func (h *hub) BroadcastExcept(sessionName string, skip *client, event WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	for _, c := range h.clients(sessionName) {
		if c == skip {
			continue
		}
		c.enqueue(data)
	}
}

// SendToParticipant delivers the event to the first connection bound to
// the participant. Duplicate connections for the same name do not get a
// second copy.
func (h *hub) SendToParticipant(sessionName, participant string, event WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	for _, c := range h.clients(sessionName) {
		if c.participant == participant {
			c.enqueue(data)
			break
		}
	}
}

// CloseSession disconnects every client in the session.
func (h *hub) CloseSession(sessionName string) {
	for _, c := range h.clients(sessionName) {
		c.close("session closed")
	}
}
