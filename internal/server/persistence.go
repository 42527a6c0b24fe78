package server

import (
	"encoding/json"
	"time"

	"github.com/stickycoinz/party-game-platform/internal/db"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// eventLog mirrors session activity into Postgres for after-the-fact
// review. Every method is a no-op without a connection, so the server
// runs fine memory-only.
type eventLog struct {
	db *gorm.DB
}

func newEventLog(conn *gorm.DB) *eventLog {
	return &eventLog{db: conn}
}

func (l *eventLog) recordSessionCreated(sessionName, host string) error {
	if l.db == nil {
		return nil
	}
	record := db.Session{
		Name:  sessionName,
		Host:  host,
		State: string(StateWaiting),
	}
	if err := l.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error; err != nil {
		return err
	}
	return l.recordEvent(sessionName, "session_created", map[string]any{
		"host": host,
	})
}

func (l *eventLog) recordParticipantJoined(sessionName, participant string) error {
	if l.db == nil {
		return nil
	}
	sessionID, err := l.sessionID(sessionName)
	if err != nil {
		return err
	}
	record := db.Participant{
		SessionID: sessionID,
		Name:      participant,
		JoinedAt:  time.Now().UTC(),
	}
	if err := l.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error; err != nil {
		return err
	}
	return l.recordEvent(sessionName, "participant_joined", map[string]any{
		"participant": participant,
	})
}

func (l *eventLog) recordGameStarted(sessionName string, variant GameVariant, participants []string) error {
	if l.db == nil {
		return nil
	}
	sessionID, err := l.sessionID(sessionName)
	if err != nil {
		return err
	}
	record := db.GameRecord{
		SessionID: sessionID,
		Variant:   string(variant),
		StartedAt: time.Now().UTC(),
	}
	if err := l.db.Create(&record).Error; err != nil {
		return err
	}
	return l.recordEvent(sessionName, "game_started", map[string]any{
		"game_variant": variant,
		"participants": participants,
	})
}

func (l *eventLog) recordGameFinished(sessionName string, results GameResults) error {
	if l.db == nil {
		return nil
	}
	sessionID, err := l.sessionID(sessionName)
	if err != nil {
		return err
	}
	data, err := json.Marshal(results)
	if err != nil {
		return err
	}
	var record db.GameRecord
	err = l.db.
		Where("session_id = ? AND variant = ? AND ended_at IS NULL", sessionID, string(results.Variant)).
		Order("started_at DESC").
		First(&record).Error
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	err = l.db.Model(&record).Updates(map[string]any{
		"winner":   results.Winner,
		"results":  datatypes.JSON(data),
		"ended_at": &now,
	}).Error
	if err != nil {
		return err
	}
	return l.recordEvent(sessionName, "game_finished", map[string]any{
		"game_variant": results.Variant,
		"winner":       results.Winner,
	})
}

func (l *eventLog) recordEvent(sessionName, eventType string, payload map[string]any) error {
	if l.db == nil {
		return nil
	}
	sessionID, err := l.sessionID(sessionName)
	if err != nil {
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	event := db.Event{
		SessionID: sessionID,
		Type:      eventType,
		Payload:   datatypes.JSON(data),
	}
	return l.db.Create(&event).Error
}

func (l *eventLog) sessionID(sessionName string) (uint, error) {
	var record db.Session
	if err := l.db.Where("name = ?", sessionName).First(&record).Error; err != nil {
		return 0, err
	}
	return record.ID, nil
}
