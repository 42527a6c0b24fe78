package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisOpTimeout = 2 * time.Second

// redisStore keeps session records as JSON values under a key prefix. The
// contract is last-write-wins: Update is a plain get-modify-set, so two
// concurrent cycles on the same session can lose one write. Single-process
// deployments should prefer the memory store.
type redisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects a Store to a Redis-compatible server.
func NewRedisStore(addr, password string, db int) (Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &redisStore{client: client, prefix: "party:session:"}, nil
}

func (s *redisStore) key(name string) string { return s.prefix + name }

func (s *redisStore) Get(name string) (*Session, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	raw, err := s.client.Get(ctx, s.key(name)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("redis get failed session=%s error=%v", name, err)
		}
		return nil, false
	}
	session, err := decodeSession(raw)
	if err != nil {
		log.Printf("redis decode failed session=%s error=%v", name, err)
		return nil, false
	}
	return session, true
}

func (s *redisStore) Put(name string, session *Session) {
	session.Version++
	raw, err := encodeSession(session)
	if err != nil {
		log.Printf("redis encode failed session=%s error=%v", name, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := s.client.Set(ctx, s.key(name), raw, 0).Err(); err != nil {
		log.Printf("redis set failed session=%s error=%v", name, err)
	}
}

func (s *redisStore) Delete(name string) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := s.client.Del(ctx, s.key(name)).Err(); err != nil {
		log.Printf("redis del failed session=%s error=%v", name, err)
	}
}

func (s *redisStore) List() []*Session {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	var sessions []*Session
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		raw, err := s.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			continue
		}
		session, err := decodeSession(raw)
		if err != nil {
			continue
		}
		sessions = append(sessions, session)
	}
	if err := iter.Err(); err != nil {
		log.Printf("redis scan failed error=%v", err)
	}
	return sessions
}

func (s *redisStore) Update(name string, update func(*Session) error) (*Session, error) {
	session, ok := s.Get(name)
	if !ok {
		return nil, ErrSessionNotFound
	}
	if err := update(session); err != nil {
		return nil, err
	}
	s.Put(name, session)
	return session, nil
}

// storedSession flattens Session for JSON: the GameState union round-trips
// through a {variant, data} envelope.
type storedSession struct {
	Name         string        `json:"name"`
	Host         string        `json:"host"`
	HostToken    string        `json:"host_token"`
	Participants []Participant `json:"participants"`
	State        SessionState  `json:"state"`
	Version      int           `json:"version"`
	Game         *storedGame   `json:"game,omitempty"`
}

type storedGame struct {
	Variant GameVariant     `json:"variant"`
	Data    json.RawMessage `json:"data"`
}

func encodeSession(session *Session) ([]byte, error) {
	stored := storedSession{
		Name:         session.Name,
		Host:         session.Host,
		HostToken:    session.HostToken,
		Participants: session.Participants,
		State:        session.State,
		Version:      session.Version,
	}
	if session.Game != nil {
		data, err := json.Marshal(session.Game)
		if err != nil {
			return nil, err
		}
		stored.Game = &storedGame{Variant: session.Game.Variant(), Data: data}
	}
	return json.Marshal(stored)
}

func decodeSession(raw []byte) (*Session, error) {
	var stored storedSession
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, err
	}
	session := &Session{
		Name:         stored.Name,
		Host:         stored.Host,
		HostToken:    stored.HostToken,
		Participants: stored.Participants,
		State:        stored.State,
		Version:      stored.Version,
	}
	if stored.Game != nil {
		game, err := decodeGameState(stored.Game.Variant, stored.Game.Data)
		if err != nil {
			return nil, err
		}
		session.Game = game
	}
	return session, nil
}

func decodeGameState(variant GameVariant, data json.RawMessage) (GameState, error) {
	switch variant {
	case VariantTapGauntlet:
		var state TapGauntletState
		if err := json.Unmarshal(data, &state); err != nil {
			return nil, err
		}
		return &state, nil
	case VariantBuzzerTrivia:
		var state BuzzerTriviaState
		if err := json.Unmarshal(data, &state); err != nil {
			return nil, err
		}
		return &state, nil
	case VariantRoulette:
		var state RouletteState
		if err := json.Unmarshal(data, &state); err != nil {
			return nil, err
		}
		return &state, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariant, variant)
	}
}
