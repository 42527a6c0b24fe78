package db

import (
	"time"

	"gorm.io/datatypes"
)

type Session struct {
	ID           uint      `gorm:"primaryKey"`
	Name         string    `gorm:"size:32;uniqueIndex;not null"`
	Host         string    `gorm:"size:32;not null"`
	State        string    `gorm:"size:32;not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
	Participants []Participant
	Games        []GameRecord
	Events       []Event
}

type Participant struct {
	ID        uint      `gorm:"primaryKey"`
	SessionID uint      `gorm:"index;not null;uniqueIndex:idx_participants_session_name"`
	Name      string    `gorm:"size:32;not null;uniqueIndex:idx_participants_session_name"`
	JoinedAt  time.Time `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type GameRecord struct {
	ID        uint           `gorm:"primaryKey"`
	SessionID uint           `gorm:"index;not null"`
	Variant   string         `gorm:"size:32;not null"`
	Winner    string         `gorm:"size:32"`
	Results   datatypes.JSON `gorm:"type:jsonb"`
	StartedAt time.Time      `gorm:"not null"`
	EndedAt   *time.Time
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type Event struct {
	ID        uint           `gorm:"primaryKey"`
	SessionID uint           `gorm:"index;not null"`
	Type      string         `gorm:"size:64;not null"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"not null"`
}
