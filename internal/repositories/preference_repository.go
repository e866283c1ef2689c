package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"resteasy/internal/models/db_models"
)

type PreferenceRepositoryInterface interface {
	GetDismissedNudges(subjectID uuid.UUID, ctx context.Context) (map[string]time.Time, error)
	SetDismissedNudge(subjectID uuid.UUID, nudgeID string, until time.Time, ctx context.Context) error
}

func NewPreferenceRepository(db *gorm.DB) PreferenceRepositoryInterface {
	return &PreferenceRepository{db: db}
}

type PreferenceRepository struct {
	db *gorm.DB
}

// GetDismissedNudges returns the active dismissals only; expired and malformed
// entries are dropped on read.
func (r PreferenceRepository) GetDismissedNudges(subjectID uuid.UUID, ctx context.Context) (map[string]time.Time, error) {
	var preference db_models.RemyPreference
	err := r.db.WithContext(ctx).Where("subject_id = ?", subjectID).First(&preference).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return map[string]time.Time{}, nil
		}
		return nil, err
	}

	raw := map[string]string{}
	if len(preference.DismissedNudges) > 0 {
		if err := json.Unmarshal(preference.DismissedNudges, &raw); err != nil {
			return map[string]time.Time{}, nil
		}
	}

	now := time.Now().UTC()
	dismissed := make(map[string]time.Time, len(raw))
	for nudgeID, value := range raw {
		until, err := time.Parse(time.RFC3339, value)
		if err != nil || !until.After(now) {
			continue
		}
		dismissed[nudgeID] = until
	}
	return dismissed, nil
}

func (r PreferenceRepository) SetDismissedNudge(subjectID uuid.UUID, nudgeID string, until time.Time, ctx context.Context) error {
	dismissed, err := r.GetDismissedNudges(subjectID, ctx)
	if err != nil {
		return err
	}
	dismissed[nudgeID] = until

	serializable := make(map[string]string, len(dismissed))
	for id, expiry := range dismissed {
		serializable[id] = expiry.UTC().Format(time.RFC3339)
	}
	blob, err := json.Marshal(serializable)
	if err != nil {
		return err
	}

	preference := db_models.RemyPreference{SubjectID: subjectID, DismissedNudges: blob}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "subject_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"dismissed_nudges", "updated_at"}),
	}).Create(&preference).Error
}
