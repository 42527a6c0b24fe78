package server

import "sync"

// Store is the read/write contract for session records. Get/Put/Delete/List
// are the minimal primitives; Update bundles a read-modify-write cycle so
// implementations can serialize it. The memory store runs Update under its
// mutex, which is what keeps concurrent action handlers and sequencer ticks
// from losing writes; externally backed stores degrade to last-write-wins.
// Reads hand out detached copies, so callers can walk game state while a
// runner keeps mutating the stored record.
type Store interface {
	Get(name string) (*Session, bool)
	Put(name string, session *Session)
	Delete(name string)
	List() []*Session
	Update(name string, update func(*Session) error) (*Session, error)
}

type memoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewStore returns the in-memory Store used by a single-process deployment.
func NewStore() Store {
	return &memoryStore{sessions: make(map[string]*Session)}
}

func (s *memoryStore) Get(name string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[name]
	if !ok {
		return nil, false
	}
	return session.clone(), true
}

func (s *memoryStore) Put(name string, session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session.Version++
	s.sessions[name] = session
}

func (s *memoryStore) Delete(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, name)
}

func (s *memoryStore) List() []*Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		list = append(list, session.clone())
	}
	return list
}

func (s *memoryStore) Update(name string, update func(*Session) error) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[name]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if err := update(session); err != nil {
		return nil, err
	}
	session.Version++
	return session.clone(), nil
}
