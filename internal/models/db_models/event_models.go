package db_models

import "github.com/google/uuid"

// Event is one structured telemetry record.
type Event struct {
	BaseModel
	SubjectID      uuid.UUID `gorm:"type:uuid;index"`
	ConversationID uuid.UUID `gorm:"type:uuid"`
	Name           string    `gorm:"size:64;index"`
	Payload        []byte    `gorm:"type:jsonb"`
}
