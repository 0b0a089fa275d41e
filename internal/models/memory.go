package models

import "time"

// MemoryKind distinguishes how a memory was captured.
type MemoryKind string

// MemoryKind constants define capture channels.
const (
	// MemoryKindText is a typed memory.
	MemoryKindText MemoryKind = "text"
	// MemoryKindVoice is a transcribed voice memory.
	MemoryKindVoice MemoryKind = "voice"
)

// Memory is an authored memory entry. Creation is a metered action.
type Memory struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;index"`    // Authoring user ID.
	User   User   `gorm:"foreignKey:UserID"` // Authoring user record.

	Title string     `gorm:"type:varchar(255);not null"` // Memory title.
	Body  string     `gorm:"type:text"`                  // Memory body text or transcript.
	Kind  MemoryKind `gorm:"type:text;not null"`         // Capture channel.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
