package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"resteasy/internal/engine"
	"resteasy/internal/models/db_models"
)

type fakeAssessmentRepo struct {
	latest    *db_models.Assessment
	byID      map[uuid.UUID]*db_models.Assessment
	answers   []db_models.AssessmentAnswer
	upserted  []db_models.AssessmentAnswer
	fields    map[string]any
	created   []*db_models.Assessment
	latestErr error
	upsertErr error
}

func (r *fakeAssessmentRepo) GetAssessmentByID(id uuid.UUID, subjectID uuid.UUID, ctx context.Context) (*db_models.Assessment, error) {
	return r.byID[id], nil
}

func (r *fakeAssessmentRepo) GetLatestAssessment(subjectID uuid.UUID, ctx context.Context) (*db_models.Assessment, error) {
	return r.latest, r.latestErr
}

func (r *fakeAssessmentRepo) CreateAssessment(assessment *db_models.Assessment, ctx context.Context) error {
	if assessment.ID == uuid.Nil {
		assessment.ID = uuid.New()
	}
	r.created = append(r.created, assessment)
	return nil
}

func (r *fakeAssessmentRepo) UpdateAssessmentFields(id uuid.UUID, fields map[string]any, ctx context.Context) error {
	r.fields = fields
	return nil
}

func (r *fakeAssessmentRepo) ListAnswers(assessmentID uuid.UUID, ctx context.Context) ([]db_models.AssessmentAnswer, error) {
	return r.answers, nil
}

func (r *fakeAssessmentRepo) UpsertAnswer(answer db_models.AssessmentAnswer, ctx context.Context) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.upserted = append(r.upserted, answer)
	return nil
}

type fakeSchemaRepo struct {
	model *db_models.AssessmentSchema
	err   error
}

func (r *fakeSchemaRepo) GetSchemaByVersion(version string, ctx context.Context) (*db_models.AssessmentSchema, error) {
	if r.model != nil && r.model.Version == version {
		return r.model, r.err
	}
	return nil, r.err
}

func (r *fakeSchemaRepo) GetLatestSchema(ctx context.Context) (*db_models.AssessmentSchema, error) {
	return r.model, r.err
}

type fakeProfileRepo struct {
	profile *db_models.ProfileIntake
	saved   []byte
}

func (r *fakeProfileRepo) GetProfile(subjectID uuid.UUID, ctx context.Context) (*db_models.ProfileIntake, error) {
	return r.profile, nil
}

func (r *fakeProfileRepo) UpsertProfile(subjectID uuid.UUID, data []byte, ctx context.Context) error {
	r.saved = data
	return nil
}

type fakePreferenceRepo struct {
	dismissed map[string]time.Time
	set       map[string]time.Time
}

func (r *fakePreferenceRepo) GetDismissedNudges(subjectID uuid.UUID, ctx context.Context) (map[string]time.Time, error) {
	if r.dismissed == nil {
		return map[string]time.Time{}, nil
	}
	return r.dismissed, nil
}

func (r *fakePreferenceRepo) SetDismissedNudge(subjectID uuid.UUID, nudgeID string, until time.Time, ctx context.Context) error {
	if r.set == nil {
		r.set = map[string]time.Time{}
	}
	r.set[nudgeID] = until
	return nil
}

type fakeConversationRepo struct {
	existing  map[uuid.UUID]*db_models.Conversation
	created   []*db_models.Conversation
	state     map[uuid.UUID][]byte
	appended  []db_models.ConversationMessage
	recent    []db_models.ConversationMessage
	appendErr error
}

func (r *fakeConversationRepo) GetConversation(id uuid.UUID, subjectID uuid.UUID, ctx context.Context) (*db_models.Conversation, error) {
	return r.existing[id], nil
}

func (r *fakeConversationRepo) CreateConversation(conversation *db_models.Conversation, ctx context.Context) error {
	if conversation.ID == uuid.Nil {
		conversation.ID = uuid.New()
	}
	r.created = append(r.created, conversation)
	return nil
}

func (r *fakeConversationRepo) UpdateState(id uuid.UUID, stateBlob []byte, ctx context.Context) error {
	if r.state == nil {
		r.state = map[uuid.UUID][]byte{}
	}
	r.state[id] = stateBlob
	return nil
}

func (r *fakeConversationRepo) AppendMessages(messages []db_models.ConversationMessage, ctx context.Context) error {
	if r.appendErr != nil {
		return r.appendErr
	}
	r.appended = append(r.appended, messages...)
	return nil
}

func (r *fakeConversationRepo) ListRecentMessages(conversationID uuid.UUID, limit int, ctx context.Context) ([]db_models.ConversationMessage, error) {
	return r.recent, nil
}

func (r *fakeConversationRepo) CountUserMessagesSince(subjectID uuid.UUID, since time.Time, ctx context.Context) (int64, error) {
	return 0, nil
}

type recordedEvent struct {
	name    string
	payload map[string]any
}

type fakeEventRepo struct {
	events []recordedEvent
}

func (r *fakeEventRepo) RecordEvent(subjectID uuid.UUID, conversationID uuid.UUID, name string, payload map[string]any, ctx context.Context) error {
	r.events = append(r.events, recordedEvent{name: name, payload: payload})
	return nil
}

func (r *fakeEventRepo) byName(name string) *recordedEvent {
	for i := range r.events {
		if r.events[i].name == name {
			return &r.events[i]
		}
	}
	return nil
}

type fakeCapabilityService struct{}

func (s *fakeCapabilityService) Load(subjectID uuid.UUID, message string, surface engine.Surface, schema *engine.Schema, assessment *engine.AssessmentSnapshot, ctx context.Context) *engine.CapabilityContext {
	return &engine.CapabilityContext{Navigation: engine.BuildNavigationContext()}
}

func testSchemaModel(version string) *db_models.AssessmentSchema {
	definition, _ := json.Marshal(engine.Schema{
		Sections: []engine.SchemaSection{
			{ID: "estate", Label: "Estate Planning", Weight: 15},
			{ID: "financial", Label: "Financial", Weight: 5},
		},
		Questions: []engine.SchemaQuestion{
			{ID: "q_will", SectionID: "estate", Prompt: "Do you have a current will?"},
			{ID: "q_bank", SectionID: "financial", Prompt: "Have you documented your bank accounts?"},
		},
	})
	return &db_models.AssessmentSchema{Version: version, Definition: definition}
}
