package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"resteasy/internal/engine"
	"resteasy/internal/models/db_models"
	"resteasy/internal/models/request_models"
	"resteasy/internal/models/response_models"
	"resteasy/internal/repositories"
	"resteasy/pkg/utils"
)

type IntakeServiceInterface interface {
	HandleIntake(subjectID uuid.UUID, req request_models.IntakeRequest, ctx context.Context) (response_models.IntakeResult, error)
}

func NewIntakeService(
	assessmentRepo repositories.AssessmentRepositoryInterface,
	schemaRepo repositories.SchemaRepositoryInterface,
	profileRepo repositories.ProfileRepositoryInterface,
	logger *zap.Logger,
) IntakeServiceInterface {
	return &IntakeService{
		assessmentRepo: assessmentRepo,
		schemaRepo:     schemaRepo,
		profileRepo:    profileRepo,
		logger:         logger,
	}
}

type IntakeService struct {
	assessmentRepo repositories.AssessmentRepositoryInterface
	schemaRepo     repositories.SchemaRepositoryInterface
	profileRepo    repositories.ProfileRepositoryInterface
	logger         *zap.Logger
}

// HandleIntake is the single write path the host app uses to sync profile,
// answers, and assessment status into the engine's view of the world.
func (s *IntakeService) HandleIntake(subjectID uuid.UUID, req request_models.IntakeRequest, ctx context.Context) (response_models.IntakeResult, error) {
	if req.Action == "get_schema" {
		return s.serveSchema(ctx)
	}

	result := response_models.IntakeResult{}

	if len(req.Profile) > 0 {
		data, err := json.Marshal(req.Profile)
		if err != nil {
			return result, utils.ErrInvalidMessage
		}
		if err := s.profileRepo.UpsertProfile(subjectID, data, ctx); err != nil {
			return result, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
		}
		result.ProfileSaved = true
	}

	assessment, err := s.ensureAssessment(subjectID, ctx)
	if err != nil {
		return result, err
	}
	result.AssessmentID = assessment.ID.String()
	result.SchemaVersion = assessment.SchemaVersion

	fields := map[string]any{}

	if len(req.Answers) > 0 {
		for _, input := range req.Answers {
			answer := db_models.AssessmentAnswer{
				AssessmentID:  assessment.ID,
				QuestionID:    input.QuestionID,
				SectionID:     input.SectionID,
				AnswerValue:   input.AnswerValue,
				AnswerLabel:   input.AnswerLabel,
				ScoreFraction: input.ScoreFraction,
				QuestionText:  input.QuestionText,
			}
			if err := s.assessmentRepo.UpsertAnswer(answer, ctx); err != nil {
				return result, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
			}
			result.SavedAnswers++
		}
		fields["report_stale"] = true
		fields["last_answer_at"] = time.Now().UTC().Unix()
		result.NeedsScoreRegen = true
	}

	if update := req.Assessment; update != nil {
		if update.Status != "" {
			fields["status"] = update.Status
		}
		if update.ReportStatus != "" {
			fields["report_status"] = update.ReportStatus
		}
		if update.ReportStale != nil {
			fields["report_stale"] = *update.ReportStale
		}
		if update.OverallScore != nil {
			fields["overall_score"] = *update.OverallScore
		}
	}

	if len(fields) > 0 {
		if err := s.assessmentRepo.UpdateAssessmentFields(assessment.ID, fields, ctx); err != nil {
			return result, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
		}
	}

	return result, nil
}

func (s *IntakeService) serveSchema(ctx context.Context) (response_models.IntakeResult, error) {
	model, err := s.schemaRepo.GetLatestSchema(ctx)
	if err != nil {
		return response_models.IntakeResult{}, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	result := response_models.IntakeResult{}
	if model != nil {
		result.SchemaVersion = model.Version
		var schema engine.Schema
		if err := json.Unmarshal(model.Definition, &schema); err == nil {
			result.Schema = schema
		}
	}
	return result, nil
}

func (s *IntakeService) ensureAssessment(subjectID uuid.UUID, ctx context.Context) (*db_models.Assessment, error) {
	assessment, err := s.assessmentRepo.GetLatestAssessment(subjectID, ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if assessment != nil {
		return assessment, nil
	}

	version := ""
	if schemaModel, err := s.schemaRepo.GetLatestSchema(ctx); err == nil && schemaModel != nil {
		version = schemaModel.Version
	}
	assessment = &db_models.Assessment{
		SubjectID:     subjectID,
		SchemaVersion: version,
		Status:        "in_progress",
		ReportStatus:  "not_started",
	}
	if err := s.assessmentRepo.CreateAssessment(assessment, ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	return assessment, nil
}
