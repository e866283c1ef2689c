package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"resteasy/internal/models/db_models"
)

type VaultRepositoryInterface interface {
	ListDocumentTypeIDs(subjectID uuid.UUID, ctx context.Context) ([]string, error)
	ListExcludedTypeIDs(subjectID uuid.UUID, ctx context.Context) ([]string, error)
}

func NewVaultRepository(db *gorm.DB) VaultRepositoryInterface {
	return &VaultRepository{db: db}
}

type VaultRepository struct {
	db *gorm.DB
}

func (r VaultRepository) ListDocumentTypeIDs(subjectID uuid.UUID, ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&db_models.VaultDocument{}).
		Where("subject_id = ?", subjectID).
		Pluck("document_type_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r VaultRepository) ListExcludedTypeIDs(subjectID uuid.UUID, ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&db_models.VaultDocumentExclusion{}).
		Where("subject_id = ?", subjectID).
		Pluck("document_type_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
