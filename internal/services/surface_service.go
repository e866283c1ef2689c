package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"resteasy/internal/engine"
	"resteasy/internal/config"
	"resteasy/internal/models/db_models"
	"resteasy/internal/models/request_models"
	"resteasy/internal/models/response_models"
	"resteasy/internal/repositories"
	"resteasy/pkg/utils"
)

type SurfaceServiceInterface interface {
	BuildSurface(subjectID uuid.UUID, req request_models.SurfaceRequest, ctx context.Context) (engine.SurfacePayload, error)
	DismissNudge(subjectID uuid.UUID, req request_models.DismissNudgeRequest, ctx context.Context) (response_models.DismissReceipt, error)
	AckAction(subjectID uuid.UUID, req request_models.AckActionRequest, ctx context.Context) (response_models.AckReceipt, error)
}

func NewSurfaceService(
	assessmentRepo repositories.AssessmentRepositoryInterface,
	schemaRepo repositories.SchemaRepositoryInterface,
	profileRepo repositories.ProfileRepositoryInterface,
	preferenceRepo repositories.PreferenceRepositoryInterface,
	eventRepo repositories.EventRepositoryInterface,
	cfg *config.Config,
	logger *zap.Logger,
) SurfaceServiceInterface {
	return &SurfaceService{
		assessmentRepo: assessmentRepo,
		schemaRepo:     schemaRepo,
		profileRepo:    profileRepo,
		preferenceRepo: preferenceRepo,
		eventRepo:      eventRepo,
		cfg:            cfg,
		logger:         logger,
	}
}

type SurfaceService struct {
	assessmentRepo repositories.AssessmentRepositoryInterface
	schemaRepo     repositories.SchemaRepositoryInterface
	profileRepo    repositories.ProfileRepositoryInterface
	preferenceRepo repositories.PreferenceRepositoryInterface
	eventRepo      repositories.EventRepositoryInterface
	cfg            *config.Config
	logger         *zap.Logger
}

func (s *SurfaceService) resolveAssessment(subjectID uuid.UUID, assessmentID string, ctx context.Context) (*db_models.Assessment, error) {
	if assessmentID != "" {
		id, err := uuid.Parse(assessmentID)
		if err != nil {
			return nil, utils.ErrAssessmentNotFound
		}
		assessment, err := s.assessmentRepo.GetAssessmentByID(id, subjectID, ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
		}
		if assessment == nil {
			return nil, utils.ErrAssessmentNotFound
		}
		return assessment, nil
	}
	assessment, err := s.assessmentRepo.GetLatestAssessment(subjectID, ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	return assessment, nil
}

func (s *SurfaceService) loadSchema(assessment *db_models.Assessment, ctx context.Context) *engine.Schema {
	var model *db_models.AssessmentSchema
	var err error
	if assessment != nil && assessment.SchemaVersion != "" {
		model, err = s.schemaRepo.GetSchemaByVersion(assessment.SchemaVersion, ctx)
	}
	if model == nil && err == nil {
		model, err = s.schemaRepo.GetLatestSchema(ctx)
	}
	if err != nil {
		s.logger.Warn("schema unavailable", zap.Error(err))
		return nil
	}
	return schemaFromModel(model)
}

func (s *SurfaceService) BuildSurface(subjectID uuid.UUID, req request_models.SurfaceRequest, ctx context.Context) (engine.SurfacePayload, error) {
	surface := engine.SanitizeSurface(req.Surface)

	assessment, err := s.resolveAssessment(subjectID, req.AssessmentID, ctx)
	if err != nil {
		return engine.SurfacePayload{}, err
	}

	schema := s.loadSchema(assessment, ctx)
	profileModel, err := s.profileRepo.GetProfile(subjectID, ctx)
	if err != nil {
		s.logger.Warn("profile unavailable", zap.Error(err))
	}

	var answers []db_models.AssessmentAnswer
	if assessment != nil {
		answers, err = s.assessmentRepo.ListAnswers(assessment.ID, ctx)
		if err != nil {
			s.logger.Warn("answers unavailable", zap.Error(err))
		}
	}

	dismissed, err := s.preferenceRepo.GetDismissedNudges(subjectID, ctx)
	if err != nil {
		s.logger.Warn("dismissals unavailable", zap.Error(err))
		dismissed = map[string]time.Time{}
	}

	payload := engine.BuildSurfacePayload(engine.SurfaceInput{
		Assessment:             snapshotFromModel(assessment),
		Schema:                 schema,
		Profile:                profileFromModel(profileModel),
		Answers:                answersFromModels(answers),
		Dismissed:              dismissed,
		Surface:                surface,
		SectionID:              req.SectionID,
		Now:                    time.Now().UTC(),
		NearFullProgressCutoff: s.cfg.NearFullProgressCutoff,
	})

	eventPayload := map[string]any{"surface": string(surface)}
	if payload.Nudge != nil {
		eventPayload["nudge_id"] = payload.Nudge.ID
	}
	if err := s.eventRepo.RecordEvent(subjectID, uuid.Nil, "remy_impression", eventPayload, ctx); err != nil {
		s.logger.Warn("impression event failed", zap.Error(err))
	}

	return payload, nil
}

func (s *SurfaceService) DismissNudge(subjectID uuid.UUID, req request_models.DismissNudgeRequest, ctx context.Context) (response_models.DismissReceipt, error) {
	if req.NudgeID == "" || len(req.NudgeID) > 120 {
		return response_models.DismissReceipt{}, utils.ErrInvalidNudge
	}

	ttlHours := req.TTLHours
	if ttlHours <= 0 {
		ttlHours = 24
	}
	if ttlHours < 1 {
		ttlHours = 1
	}
	if ttlHours > 720 {
		ttlHours = 720
	}

	until := time.Now().UTC().Add(time.Duration(ttlHours) * time.Hour)
	if err := s.preferenceRepo.SetDismissedNudge(subjectID, req.NudgeID, until, ctx); err != nil {
		return response_models.DismissReceipt{}, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}

	if err := s.eventRepo.RecordEvent(subjectID, uuid.Nil, "remy_dismiss_nudge", map[string]any{
		"nudge_id":  req.NudgeID,
		"ttl_hours": ttlHours,
	}, ctx); err != nil {
		s.logger.Warn("dismiss event failed", zap.Error(err))
	}

	return response_models.DismissReceipt{
		NudgeID:        req.NudgeID,
		DismissedUntil: until.Format(time.RFC3339),
	}, nil
}

func (s *SurfaceService) AckAction(subjectID uuid.UUID, req request_models.AckActionRequest, ctx context.Context) (response_models.AckReceipt, error) {
	if len(req.Metadata) > 12 {
		return response_models.AckReceipt{}, utils.ErrMetadataTooLarge
	}

	targetHref := engine.SanitizeInternalPath(req.TargetHref)
	eventPayload := map[string]any{
		"action_id": req.ActionID,
		"surface":   string(engine.SanitizeSurface(req.Surface)),
	}
	if targetHref != "" {
		eventPayload["target_href"] = targetHref
	}
	for key, value := range req.Metadata {
		eventPayload["meta_"+key] = value
	}

	if err := s.eventRepo.RecordEvent(subjectID, uuid.Nil, "remy_ack_action", eventPayload, ctx); err != nil {
		s.logger.Warn("ack event failed", zap.Error(err))
	}

	return response_models.AckReceipt{
		ActionID:   req.ActionID,
		TargetHref: targetHref,
		Recorded:   true,
	}, nil
}
