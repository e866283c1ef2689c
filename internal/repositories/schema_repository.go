package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"resteasy/internal/models/db_models"
)

type SchemaRepositoryInterface interface {
	GetSchemaByVersion(version string, ctx context.Context) (*db_models.AssessmentSchema, error)
	GetLatestSchema(ctx context.Context) (*db_models.AssessmentSchema, error)
}

func NewSchemaRepository(db *gorm.DB) SchemaRepositoryInterface {
	return &SchemaRepository{db: db}
}

type SchemaRepository struct {
	db *gorm.DB
}

func (r SchemaRepository) GetSchemaByVersion(version string, ctx context.Context) (*db_models.AssessmentSchema, error) {
	var schema db_models.AssessmentSchema
	err := r.db.WithContext(ctx).Where("version = ?", version).First(&schema).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &schema, nil
}

func (r SchemaRepository) GetLatestSchema(ctx context.Context) (*db_models.AssessmentSchema, error) {
	var schema db_models.AssessmentSchema
	err := r.db.WithContext(ctx).Order("created_at DESC").First(&schema).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &schema, nil
}
