package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"resteasy/internal/config"
	"resteasy/internal/models/db_models"
	"resteasy/internal/models/request_models"
	"resteasy/pkg/utils"
)

type chatFixture struct {
	assessmentRepo   *fakeAssessmentRepo
	conversationRepo *fakeConversationRepo
	eventRepo        *fakeEventRepo
	service          ChatServiceInterface
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	assessment := &db_models.Assessment{SubjectID: uuid.New(), SchemaVersion: "v1", Status: "in_progress", ReportStatus: "not_started"}
	assessment.ID = uuid.New()

	fixture := &chatFixture{
		assessmentRepo: &fakeAssessmentRepo{
			latest: assessment,
			byID:   map[uuid.UUID]*db_models.Assessment{assessment.ID: assessment},
			answers: []db_models.AssessmentAnswer{
				{AssessmentID: assessment.ID, QuestionID: "q_will", SectionID: "estate", AnswerValue: "no", ScoreFraction: fraction(0), QuestionText: "Do you have a current will?"},
			},
		},
		conversationRepo: &fakeConversationRepo{},
		eventRepo:        &fakeEventRepo{},
	}
	fixture.service = NewChatService(
		fixture.assessmentRepo,
		&fakeSchemaRepo{model: testSchemaModel("v1")},
		&fakeProfileRepo{},
		&fakePreferenceRepo{},
		fixture.conversationRepo,
		fixture.eventRepo,
		&fakeCapabilityService{},
		nil,
		nil,
		nil,
		testConfig(),
		zap.NewNop(),
	)
	return fixture
}

func testConfig() *config.Config {
	return &config.Config{
		DeclineTTL:               24 * time.Hour,
		ReassuranceCooldownTurns: 4,
		NearFullProgressCutoff:   80,
	}
}

func fraction(v float64) *float64 { return &v }

func TestHandleTurnRejectsBadMessages(t *testing.T) {
	fixture := newChatFixture(t)

	_, err := fixture.service.HandleTurn(uuid.New(), request_models.ChatTurnRequest{Message: "   "}, context.Background())
	if !errors.Is(err, utils.ErrInvalidMessage) {
		t.Fatalf("blank message: got %v", err)
	}

	_, err = fixture.service.HandleTurn(uuid.New(), request_models.ChatTurnRequest{Message: strings.Repeat("a", 2001)}, context.Background())
	if !errors.Is(err, utils.ErrInvalidMessage) {
		t.Fatalf("oversized message: got %v", err)
	}

	metadata := map[string]any{}
	for i := 0; i < 13; i++ {
		metadata[strings.Repeat("k", i+1)] = i
	}
	_, err = fixture.service.HandleTurn(uuid.New(), request_models.ChatTurnRequest{Message: "hi", Metadata: metadata}, context.Background())
	if !errors.Is(err, utils.ErrMetadataTooLarge) {
		t.Fatalf("oversized metadata: got %v", err)
	}
}

func TestHandleTurnRejectsUnknownConversation(t *testing.T) {
	fixture := newChatFixture(t)

	_, err := fixture.service.HandleTurn(uuid.New(), request_models.ChatTurnRequest{
		Message:        "What should I do next?",
		ConversationID: "not-a-uuid",
	}, context.Background())
	if !errors.Is(err, utils.ErrInvalidConversation) {
		t.Fatalf("malformed id: got %v", err)
	}

	_, err = fixture.service.HandleTurn(uuid.New(), request_models.ChatTurnRequest{
		Message:        "What should I do next?",
		ConversationID: uuid.NewString(),
	}, context.Background())
	if !errors.Is(err, utils.ErrInvalidConversation) {
		t.Fatalf("unknown id: got %v", err)
	}
}

func TestHandleTurnRejectsUnknownAssessment(t *testing.T) {
	fixture := newChatFixture(t)
	_, err := fixture.service.HandleTurn(uuid.New(), request_models.ChatTurnRequest{
		Message:      "What should I do next?",
		AssessmentID: uuid.NewString(),
	}, context.Background())
	if !errors.Is(err, utils.ErrAssessmentNotFound) {
		t.Fatalf("got %v", err)
	}
}

func TestHandleTurnCreatesConversationAndPersistsBothRows(t *testing.T) {
	fixture := newChatFixture(t)
	subjectID := uuid.New()

	response, err := fixture.service.HandleTurn(subjectID, request_models.ChatTurnRequest{
		Message: "What should I do next?",
		Surface: "dashboard",
	}, context.Background())
	if err != nil {
		t.Fatalf("turn failed: %v", err)
	}
	if response.AssistantMessage == "" {
		t.Fatal("assistant message missing")
	}

	if len(fixture.conversationRepo.created) != 1 {
		t.Fatalf("conversations created: got %d", len(fixture.conversationRepo.created))
	}
	conversation := fixture.conversationRepo.created[0]
	if response.ConversationID != conversation.ID.String() {
		t.Fatalf("conversation id not echoed: got %q", response.ConversationID)
	}
	if conversation.SubjectID != subjectID {
		t.Fatal("conversation not bound to the subject")
	}

	if len(fixture.conversationRepo.appended) != 2 {
		t.Fatalf("rows appended: got %d", len(fixture.conversationRepo.appended))
	}
	if fixture.conversationRepo.appended[0].Role != "user" || fixture.conversationRepo.appended[1].Role != "assistant" {
		t.Fatalf("row roles: got %q, %q", fixture.conversationRepo.appended[0].Role, fixture.conversationRepo.appended[1].Role)
	}
	if fixture.conversationRepo.appended[1].Goal == "" {
		t.Fatal("assistant row should carry the resolved goal")
	}
	if !fixture.conversationRepo.appended[1].UsedFallback {
		t.Fatal("with no provider configured the turn is a fallback")
	}

	if len(fixture.conversationRepo.state[conversation.ID]) == 0 {
		t.Fatal("conversation state was not persisted")
	}

	event := fixture.eventRepo.byName("remy_chat_turn")
	if event == nil {
		t.Fatal("chat turn event missing")
	}
	if event.payload["used_fallback"] != true {
		t.Fatalf("event payload: got %v", event.payload)
	}
}

func TestHandleTurnStorageFailureIsFatal(t *testing.T) {
	fixture := newChatFixture(t)
	fixture.conversationRepo.appendErr = errors.New("connection refused")

	_, err := fixture.service.HandleTurn(uuid.New(), request_models.ChatTurnRequest{
		Message: "What should I do next?",
	}, context.Background())
	if !errors.Is(err, utils.ErrStorageFailure) {
		t.Fatalf("got %v", err)
	}
}

func TestHandleTurnOutOfDomainSkipsProvider(t *testing.T) {
	fixture := newChatFixture(t)

	response, err := fixture.service.HandleTurn(uuid.New(), request_models.ChatTurnRequest{
		Message: "What stocks should I buy?",
	}, context.Background())
	if err != nil {
		t.Fatalf("turn failed: %v", err)
	}
	if len(response.SafetyFlags) == 0 || response.SafetyFlags[0] != "domain_boundary" {
		t.Fatalf("safety flags: got %v", response.SafetyFlags)
	}

	event := fixture.eventRepo.byName("remy_chat_turn")
	if event == nil || event.payload["provider"] != "policy" {
		t.Fatalf("out-of-domain turns are answered by policy, got %+v", event)
	}
}
