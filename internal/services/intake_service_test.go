package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"resteasy/internal/engine"
	"resteasy/internal/models/db_models"
	"resteasy/internal/models/request_models"
	"resteasy/pkg/utils"
)

func newIntakeFixture() (*fakeAssessmentRepo, *fakeProfileRepo, IntakeServiceInterface) {
	assessmentRepo := &fakeAssessmentRepo{}
	profileRepo := &fakeProfileRepo{}
	service := NewIntakeService(assessmentRepo, &fakeSchemaRepo{model: testSchemaModel("v1")}, profileRepo, zap.NewNop())
	return assessmentRepo, profileRepo, service
}

func TestHandleIntakeServesSchema(t *testing.T) {
	_, _, service := newIntakeFixture()

	result, err := service.HandleIntake(uuid.New(), request_models.IntakeRequest{Action: "get_schema"}, context.Background())
	if err != nil {
		t.Fatalf("get_schema failed: %v", err)
	}
	if result.SchemaVersion != "v1" {
		t.Fatalf("version: got %q", result.SchemaVersion)
	}
	schema, ok := result.Schema.(engine.Schema)
	if !ok {
		t.Fatalf("schema payload: got %T", result.Schema)
	}
	if len(schema.Questions) != 2 {
		t.Fatalf("questions: got %d", len(schema.Questions))
	}
}

func TestHandleIntakeCreatesAssessmentAndSavesAnswers(t *testing.T) {
	assessmentRepo, profileRepo, service := newIntakeFixture()
	subjectID := uuid.New()

	result, err := service.HandleIntake(subjectID, request_models.IntakeRequest{
		Profile: map[string]any{"has_dependents": true},
		Answers: []request_models.AnswerInput{
			{QuestionID: "q_will", SectionID: "estate", AnswerValue: "no", ScoreFraction: fraction(0)},
			{QuestionID: "q_bank", SectionID: "financial", AnswerValue: "yes", ScoreFraction: fraction(1)},
		},
	}, context.Background())
	if err != nil {
		t.Fatalf("intake failed: %v", err)
	}

	if !result.ProfileSaved || len(profileRepo.saved) == 0 {
		t.Fatal("profile was not saved")
	}
	if len(assessmentRepo.created) != 1 {
		t.Fatalf("assessments created: got %d", len(assessmentRepo.created))
	}
	created := assessmentRepo.created[0]
	if created.SchemaVersion != "v1" || created.Status != "in_progress" {
		t.Fatalf("new assessment defaults: %+v", created)
	}
	if result.AssessmentID != created.ID.String() {
		t.Fatalf("assessment id not echoed: got %q", result.AssessmentID)
	}

	if result.SavedAnswers != 2 || len(assessmentRepo.upserted) != 2 {
		t.Fatalf("answers saved: got %d", result.SavedAnswers)
	}
	if assessmentRepo.upserted[0].AssessmentID != created.ID {
		t.Fatal("answer not bound to the assessment")
	}
	if !result.NeedsScoreRegen {
		t.Fatal("saving answers must request a score regen")
	}
	if assessmentRepo.fields["report_stale"] != true {
		t.Fatalf("fields: got %v", assessmentRepo.fields)
	}
	if _, ok := assessmentRepo.fields["last_answer_at"]; !ok {
		t.Fatal("last_answer_at not stamped")
	}
}

func TestHandleIntakeReusesLatestAssessment(t *testing.T) {
	assessmentRepo, _, service := newIntakeFixture()
	existing := &db_models.Assessment{SubjectID: uuid.New(), SchemaVersion: "v1"}
	existing.ID = uuid.New()
	assessmentRepo.latest = existing

	result, err := service.HandleIntake(existing.SubjectID, request_models.IntakeRequest{}, context.Background())
	if err != nil {
		t.Fatalf("intake failed: %v", err)
	}
	if len(assessmentRepo.created) != 0 {
		t.Fatal("must not create a second assessment")
	}
	if result.AssessmentID != existing.ID.String() {
		t.Fatalf("got %q", result.AssessmentID)
	}
}

func TestHandleIntakeAppliesAssessmentUpdate(t *testing.T) {
	assessmentRepo, _, service := newIntakeFixture()
	existing := &db_models.Assessment{SubjectID: uuid.New(), SchemaVersion: "v1"}
	existing.ID = uuid.New()
	assessmentRepo.latest = existing

	score := 72
	stale := false
	_, err := service.HandleIntake(existing.SubjectID, request_models.IntakeRequest{
		Assessment: &request_models.AssessmentUpdate{
			Status:       "completed",
			ReportStatus: "ready",
			ReportStale:  &stale,
			OverallScore: &score,
		},
	}, context.Background())
	if err != nil {
		t.Fatalf("intake failed: %v", err)
	}

	if assessmentRepo.fields["status"] != "completed" || assessmentRepo.fields["report_status"] != "ready" {
		t.Fatalf("fields: got %v", assessmentRepo.fields)
	}
	if assessmentRepo.fields["report_stale"] != false {
		t.Fatalf("stale flag: got %v", assessmentRepo.fields["report_stale"])
	}
	if assessmentRepo.fields["overall_score"] != 72 {
		t.Fatalf("score: got %v", assessmentRepo.fields["overall_score"])
	}
}

func TestHandleIntakeDatabaseErrorsWrapTaxonomy(t *testing.T) {
	assessmentRepo, _, service := newIntakeFixture()
	assessmentRepo.latestErr = errors.New("connection refused")

	_, err := service.HandleIntake(uuid.New(), request_models.IntakeRequest{}, context.Background())
	if !errors.Is(err, utils.ErrDatabaseError) {
		t.Fatalf("got %v", err)
	}
}
