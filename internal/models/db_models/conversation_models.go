package db_models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Conversation owns the per-conversation policy memory blob.
type Conversation struct {
	BaseModel
	SubjectID    uuid.UUID `gorm:"type:uuid;index"`
	AssessmentID uuid.UUID `gorm:"type:uuid"`
	Surface      string    `gorm:"size:32"`
	StateBlob    []byte    `gorm:"type:jsonb"`
}

// ConversationMessage is one stored turn, user or assistant.
type ConversationMessage struct {
	BaseModel
	ConversationID uuid.UUID      `gorm:"type:uuid;index"`
	SubjectID      uuid.UUID      `gorm:"type:uuid;index"`
	Role           string         `gorm:"size:16"`
	Text           string         `gorm:"type:text"`
	QuickReplies   pq.StringArray `gorm:"type:text[]"`
	Goal           string         `gorm:"size:32"`
	Intent         string         `gorm:"size:32"`
	UsedFallback   bool
	Provider       string `gorm:"size:32"`
}

// RemyPreference keeps the per-subject dismissed-nudge map (nudge id to
// RFC3339 expiry) as JSON.
type RemyPreference struct {
	BaseModel
	SubjectID       uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	DismissedNudges []byte    `gorm:"type:jsonb"`
}
