package repositories

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"resteasy/internal/models/db_models"
)

type EventRepositoryInterface interface {
	RecordEvent(subjectID uuid.UUID, conversationID uuid.UUID, name string, payload map[string]any, ctx context.Context) error
}

func NewEventRepository(db *gorm.DB) EventRepositoryInterface {
	return &EventRepository{db: db}
}

type EventRepository struct {
	db *gorm.DB
}

func (r EventRepository) RecordEvent(subjectID uuid.UUID, conversationID uuid.UUID, name string, payload map[string]any, ctx context.Context) error {
	blob, err := json.Marshal(payload)
	if err != nil {
		blob = []byte("{}")
	}
	event := db_models.Event{
		SubjectID:      subjectID,
		ConversationID: conversationID,
		Name:           name,
		Payload:        blob,
	}
	return r.db.WithContext(ctx).Create(&event).Error
}
