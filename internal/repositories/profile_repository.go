package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"resteasy/internal/models/db_models"
)

type ProfileRepositoryInterface interface {
	GetProfile(subjectID uuid.UUID, ctx context.Context) (*db_models.ProfileIntake, error)
	UpsertProfile(subjectID uuid.UUID, data []byte, ctx context.Context) error
}

func NewProfileRepository(db *gorm.DB) ProfileRepositoryInterface {
	return &ProfileRepository{db: db}
}

type ProfileRepository struct {
	db *gorm.DB
}

func (r ProfileRepository) GetProfile(subjectID uuid.UUID, ctx context.Context) (*db_models.ProfileIntake, error) {
	var profile db_models.ProfileIntake
	err := r.db.WithContext(ctx).Where("subject_id = ?", subjectID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (r ProfileRepository) UpsertProfile(subjectID uuid.UUID, data []byte, ctx context.Context) error {
	profile := db_models.ProfileIntake{SubjectID: subjectID, Data: data}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "subject_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&profile).Error
}
