package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"resteasy/internal/models/db_models"
)

type ConversationRepositoryInterface interface {
	GetConversation(id uuid.UUID, subjectID uuid.UUID, ctx context.Context) (*db_models.Conversation, error)
	CreateConversation(conversation *db_models.Conversation, ctx context.Context) error
	UpdateState(id uuid.UUID, stateBlob []byte, ctx context.Context) error
	AppendMessages(messages []db_models.ConversationMessage, ctx context.Context) error
	ListRecentMessages(conversationID uuid.UUID, limit int, ctx context.Context) ([]db_models.ConversationMessage, error)
	CountUserMessagesSince(subjectID uuid.UUID, since time.Time, ctx context.Context) (int64, error)
}

func NewConversationRepository(db *gorm.DB) ConversationRepositoryInterface {
	return &ConversationRepository{db: db}
}

type ConversationRepository struct {
	db *gorm.DB
}

func (r ConversationRepository) GetConversation(id uuid.UUID, subjectID uuid.UUID, ctx context.Context) (*db_models.Conversation, error) {
	var conversation db_models.Conversation
	err := r.db.WithContext(ctx).
		Where("id = ? AND subject_id = ?", id, subjectID).
		First(&conversation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conversation, nil
}

func (r ConversationRepository) CreateConversation(conversation *db_models.Conversation, ctx context.Context) error {
	return r.db.WithContext(ctx).Create(conversation).Error
}

func (r ConversationRepository) UpdateState(id uuid.UUID, stateBlob []byte, ctx context.Context) error {
	return r.db.WithContext(ctx).
		Model(&db_models.Conversation{}).
		Where("id = ?", id).
		Update("state_blob", stateBlob).Error
}

// AppendMessages stores the user and assistant turns of one exchange together.
func (r ConversationRepository) AppendMessages(messages []db_models.ConversationMessage, ctx context.Context) error {
	if len(messages) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&messages).Error
}

// ListRecentMessages returns the last messages in chronological order.
func (r ConversationRepository) ListRecentMessages(conversationID uuid.UUID, limit int, ctx context.Context) ([]db_models.ConversationMessage, error) {
	var messages []db_models.ConversationMessage
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	for left, right := 0, len(messages)-1; left < right; left, right = left+1, right-1 {
		messages[left], messages[right] = messages[right], messages[left]
	}
	return messages, nil
}

func (r ConversationRepository) CountUserMessagesSince(subjectID uuid.UUID, since time.Time, ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db_models.ConversationMessage{}).
		Where("subject_id = ? AND role = ? AND created_at >= ?", subjectID, "user", since.Unix()).
		Count(&count).Error
	return count, err
}
