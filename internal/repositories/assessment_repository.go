package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"resteasy/internal/models/db_models"
)

type AssessmentRepositoryInterface interface {
	GetAssessmentByID(id uuid.UUID, subjectID uuid.UUID, ctx context.Context) (*db_models.Assessment, error)
	GetLatestAssessment(subjectID uuid.UUID, ctx context.Context) (*db_models.Assessment, error)
	CreateAssessment(assessment *db_models.Assessment, ctx context.Context) error
	UpdateAssessmentFields(id uuid.UUID, fields map[string]any, ctx context.Context) error
	ListAnswers(assessmentID uuid.UUID, ctx context.Context) ([]db_models.AssessmentAnswer, error)
	UpsertAnswer(answer db_models.AssessmentAnswer, ctx context.Context) error
}

func NewAssessmentRepository(db *gorm.DB) AssessmentRepositoryInterface {
	return &AssessmentRepository{db: db}
}

type AssessmentRepository struct {
	db *gorm.DB
}

func (r AssessmentRepository) GetAssessmentByID(id uuid.UUID, subjectID uuid.UUID, ctx context.Context) (*db_models.Assessment, error) {
	var assessment db_models.Assessment
	err := r.db.WithContext(ctx).
		Where("id = ? AND subject_id = ?", id, subjectID).
		First(&assessment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &assessment, nil
}

func (r AssessmentRepository) GetLatestAssessment(subjectID uuid.UUID, ctx context.Context) (*db_models.Assessment, error) {
	var assessment db_models.Assessment
	err := r.db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("created_at DESC").
		First(&assessment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &assessment, nil
}

func (r AssessmentRepository) CreateAssessment(assessment *db_models.Assessment, ctx context.Context) error {
	return r.db.WithContext(ctx).Create(assessment).Error
}

func (r AssessmentRepository) UpdateAssessmentFields(id uuid.UUID, fields map[string]any, ctx context.Context) error {
	return r.db.WithContext(ctx).
		Model(&db_models.Assessment{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r AssessmentRepository) ListAnswers(assessmentID uuid.UUID, ctx context.Context) ([]db_models.AssessmentAnswer, error) {
	var answers []db_models.AssessmentAnswer
	err := r.db.WithContext(ctx).
		Where("assessment_id = ?", assessmentID).
		Order("created_at ASC").
		Find(&answers).Error
	if err != nil {
		return nil, err
	}
	return answers, nil
}

// UpsertAnswer overwrites the existing answer for the same question, keeping
// answers unique per assessment+question.
func (r AssessmentRepository) UpsertAnswer(answer db_models.AssessmentAnswer, ctx context.Context) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "assessment_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"answer_value", "answer_label", "score_fraction", "question_text", "updated_at",
		}),
	}).Create(&answer).Error
}
