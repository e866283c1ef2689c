package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"resteasy/internal/config"
	"resteasy/internal/engine"
	"resteasy/internal/models/db_models"
	"resteasy/internal/models/request_models"
	"resteasy/internal/repositories"
	"resteasy/pkg/llm"
	"resteasy/pkg/ratelimit"
	"resteasy/pkg/utils"
)

const maxChatMessageLength = 2000

type ChatServiceInterface interface {
	HandleTurn(subjectID uuid.UUID, req request_models.ChatTurnRequest, ctx context.Context) (engine.ChatTurnResponse, error)
}

func NewChatService(
	assessmentRepo repositories.AssessmentRepositoryInterface,
	schemaRepo repositories.SchemaRepositoryInterface,
	profileRepo repositories.ProfileRepositoryInterface,
	preferenceRepo repositories.PreferenceRepositoryInterface,
	conversationRepo repositories.ConversationRepositoryInterface,
	eventRepo repositories.EventRepositoryInterface,
	capabilityService CapabilityServiceInterface,
	selector *llm.Selector,
	invoker *llm.Invoker,
	limiter *ratelimit.Limiter,
	cfg *config.Config,
	logger *zap.Logger,
) ChatServiceInterface {
	return &ChatService{
		assessmentRepo:    assessmentRepo,
		schemaRepo:        schemaRepo,
		profileRepo:       profileRepo,
		preferenceRepo:    preferenceRepo,
		conversationRepo:  conversationRepo,
		eventRepo:         eventRepo,
		capabilityService: capabilityService,
		selector:          selector,
		invoker:           invoker,
		limiter:           limiter,
		cfg:               cfg,
		logger:            logger,
	}
}

type ChatService struct {
	assessmentRepo    repositories.AssessmentRepositoryInterface
	schemaRepo        repositories.SchemaRepositoryInterface
	profileRepo       repositories.ProfileRepositoryInterface
	preferenceRepo    repositories.PreferenceRepositoryInterface
	conversationRepo  repositories.ConversationRepositoryInterface
	eventRepo         repositories.EventRepositoryInterface
	capabilityService CapabilityServiceInterface
	selector          *llm.Selector
	invoker           *llm.Invoker
	limiter           *ratelimit.Limiter
	cfg               *config.Config
	logger            *zap.Logger
}

func (s *ChatService) HandleTurn(subjectID uuid.UUID, req request_models.ChatTurnRequest, ctx context.Context) (engine.ChatTurnResponse, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" || len(message) > maxChatMessageLength {
		return engine.ChatTurnResponse{}, utils.ErrInvalidMessage
	}
	if len(req.Metadata) > 12 {
		return engine.ChatTurnResponse{}, utils.ErrMetadataTooLarge
	}

	if s.limiter != nil && !s.limiter.Allow(ctx, subjectID) {
		return engine.ChatTurnResponse{}, utils.ErrRateLimited
	}

	surface := engine.SanitizeSurface(req.Surface)
	now := time.Now().UTC()

	assessment, err := s.resolveAssessment(subjectID, req.AssessmentID, ctx)
	if err != nil {
		return engine.ChatTurnResponse{}, err
	}

	conversation, err := s.resolveConversation(subjectID, req.ConversationID, assessment, surface, ctx)
	if err != nil {
		return engine.ChatTurnResponse{}, err
	}

	schema := s.loadSchemaForChat(assessment, ctx)
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

	snapshot := snapshotFromModel(assessment)
	payload := engine.BuildSurfacePayload(engine.SurfaceInput{
		Assessment:             snapshot,
		Schema:                 schema,
		Profile:                profileFromModel(profileModel),
		Answers:                answersFromModels(answers),
		Dismissed:              dismissed,
		Surface:                surface,
		Now:                    now,
		NearFullProgressCutoff: s.cfg.NearFullProgressCutoff,
	})

	assessmentKey := ""
	if assessment != nil {
		assessmentKey = assessment.ID.String()
	}
	chatContext := engine.ChatContext{
		ConversationID: conversation.ID.String(),
		AssessmentKey:  assessmentKey,
		Surface:        surface,
		Message:        message,
		Assessment:     snapshot,
		Payload:        payload,
		AnswerCount:    len(answers),
	}

	capability := s.capabilityService.Load(subjectID, message, surface, schema, snapshot, ctx)

	history, err := s.loadHistory(conversation.ID, ctx)
	if err != nil {
		s.logger.Warn("history unavailable", zap.Error(err))
	}

	base := engine.BuildDeterministicChatReply(chatContext)
	response, usedFallback, provider := s.generateResponse(ctx, chatContext, history, base)

	result := engine.ApplyConversationPolicy(engine.PlannerInput{
		Context:                  chatContext,
		BaseResponse:             response,
		History:                  history,
		StateRaw:                 conversation.StateBlob,
		Capability:               capability,
		Schema:                   schema,
		Now:                      now,
		DeclineTTL:               s.cfg.DeclineTTL,
		ReassuranceCooldownTurns: s.cfg.ReassuranceCooldownTurns,
	})

	if err := s.persistTurn(conversation, subjectID, message, result, usedFallback, provider, ctx); err != nil {
		return engine.ChatTurnResponse{}, err
	}

	eventPayload := map[string]any{
		"goal":          string(result.Goal),
		"intent":        string(result.Response.Intent),
		"capability":    result.CapabilityUsed,
		"used_fallback": usedFallback,
		"provider":      provider,
		"surface":       string(surface),
	}
	if result.Response.CTA != nil {
		eventPayload["route"] = result.Response.CTA.Href
	}
	if err := s.eventRepo.RecordEvent(subjectID, conversation.ID, "remy_chat_turn", eventPayload, ctx); err != nil {
		s.logger.Warn("chat turn event failed", zap.Error(err))
	}

	final := result.Response
	final.ConversationID = conversation.ID.String()
	return final, nil
}

func (s *ChatService) resolveAssessment(subjectID uuid.UUID, assessmentID string, ctx context.Context) (*db_models.Assessment, error) {
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

func (s *ChatService) resolveConversation(subjectID uuid.UUID, conversationID string, assessment *db_models.Assessment, surface engine.Surface, ctx context.Context) (*db_models.Conversation, error) {
	if conversationID != "" {
		id, err := uuid.Parse(conversationID)
		if err != nil {
			return nil, utils.ErrInvalidConversation
		}
		conversation, err := s.conversationRepo.GetConversation(id, subjectID, ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", utils.ErrStorageFailure, err)
		}
		if conversation == nil {
			return nil, utils.ErrInvalidConversation
		}
		return conversation, nil
	}

	conversation := &db_models.Conversation{
		SubjectID: subjectID,
		Surface:   string(surface),
	}
	if assessment != nil {
		conversation.AssessmentID = assessment.ID
	}
	if err := s.conversationRepo.CreateConversation(conversation, ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrStorageFailure, err)
	}
	return conversation, nil
}

func (s *ChatService) loadSchemaForChat(assessment *db_models.Assessment, ctx context.Context) *engine.Schema {
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

func (s *ChatService) loadHistory(conversationID uuid.UUID, ctx context.Context) ([]engine.HistoryItem, error) {
	messages, err := s.conversationRepo.ListRecentMessages(conversationID, 8, ctx)
	if err != nil {
		return nil, err
	}
	history := make([]engine.HistoryItem, 0, len(messages))
	for _, message := range messages {
		history = append(history, engine.HistoryItem{Role: message.Role, Text: message.Text})
	}
	return history, nil
}

// generateResponse tries the configured model provider and falls back to the
// deterministic reply on any failure. A provider outage never fails the turn.
func (s *ChatService) generateResponse(ctx context.Context, chatContext engine.ChatContext, history []engine.HistoryItem, base engine.ChatTurnResponse) (engine.ChatTurnResponse, bool, string) {
	if engine.IsOutOfDomainMessage(chatContext.Message) {
		return base, false, "policy"
	}

	var client llm.ChatModelClient
	if s.selector != nil {
		client = s.selector.Pick(chatContext.ConversationID, string(chatContext.Surface))
	}
	if client == nil {
		s.logger.Info("no model provider configured, using deterministic reply")
		return base, true, ""
	}

	raw, failure := s.invoker.Invoke(ctx, client, engine.BuildModelSystemPrompt(), engine.BuildModelUserPrompt(chatContext, history))
	if failure != nil {
		s.logger.Warn("model provider failed",
			zap.String("code", string(failure.Code)),
			zap.Bool("retryable", failure.Retryable))
		return base, true, string(client.Protocol())
	}

	return engine.NormalizeChatTurnResponse(raw, base), false, string(client.Protocol())
}

func (s *ChatService) persistTurn(conversation *db_models.Conversation, subjectID uuid.UUID, message string, result engine.PlannerResult, usedFallback bool, provider string, ctx context.Context) error {
	stateBlob, err := result.State.Marshal()
	if err != nil {
		return fmt.Errorf("%w: %v", utils.ErrStorageFailure, err)
	}
	if err := s.conversationRepo.UpdateState(conversation.ID, stateBlob, ctx); err != nil {
		return fmt.Errorf("%w: %v", utils.ErrStorageFailure, err)
	}

	rows := []db_models.ConversationMessage{
		{
			ConversationID: conversation.ID,
			SubjectID:      subjectID,
			Role:           "user",
			Text:           message,
		},
		{
			ConversationID: conversation.ID,
			SubjectID:      subjectID,
			Role:           "assistant",
			Text:           result.Response.AssistantMessage,
			QuickReplies:   result.Response.QuickReplies,
			Goal:           string(result.Goal),
			Intent:         string(result.Response.Intent),
			UsedFallback:   usedFallback,
			Provider:       provider,
		},
	}
	if err := s.conversationRepo.AppendMessages(rows, ctx); err != nil {
		return fmt.Errorf("%w: %v", utils.ErrStorageFailure, err)
	}
	return nil
}
