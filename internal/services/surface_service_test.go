package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"resteasy/internal/models/db_models"
	"resteasy/internal/models/request_models"
	"resteasy/pkg/utils"
)

type surfaceFixture struct {
	assessmentRepo *fakeAssessmentRepo
	preferenceRepo *fakePreferenceRepo
	eventRepo      *fakeEventRepo
	service        SurfaceServiceInterface
}

func newSurfaceFixture() *surfaceFixture {
	assessment := &db_models.Assessment{SubjectID: uuid.New(), SchemaVersion: "v1", Status: "in_progress", ReportStatus: "not_started"}
	assessment.ID = uuid.New()

	fixture := &surfaceFixture{
		assessmentRepo: &fakeAssessmentRepo{
			latest: assessment,
			byID:   map[uuid.UUID]*db_models.Assessment{assessment.ID: assessment},
			answers: []db_models.AssessmentAnswer{
				{AssessmentID: assessment.ID, QuestionID: "q_will", SectionID: "estate", AnswerValue: "no", ScoreFraction: fraction(0), QuestionText: "Do you have a current will?"},
			},
		},
		preferenceRepo: &fakePreferenceRepo{},
		eventRepo:      &fakeEventRepo{},
	}
	fixture.service = NewSurfaceService(
		fixture.assessmentRepo,
		&fakeSchemaRepo{model: testSchemaModel("v1")},
		&fakeProfileRepo{},
		fixture.preferenceRepo,
		fixture.eventRepo,
		testConfig(),
		zap.NewNop(),
	)
	return fixture
}

func TestBuildSurfaceRecordsImpression(t *testing.T) {
	fixture := newSurfaceFixture()

	payload, err := fixture.service.BuildSurface(uuid.New(), request_models.SurfaceRequest{Surface: "dashboard"}, context.Background())
	if err != nil {
		t.Fatalf("surface failed: %v", err)
	}
	if payload.Nudge == nil || payload.Nudge.ID != "improve:q_will" {
		t.Fatalf("nudge: got %+v", payload.Nudge)
	}

	event := fixture.eventRepo.byName("remy_impression")
	if event == nil {
		t.Fatal("impression event missing")
	}
	if event.payload["nudge_id"] != "improve:q_will" {
		t.Fatalf("event payload: got %v", event.payload)
	}
}

func TestBuildSurfaceUnknownAssessment(t *testing.T) {
	fixture := newSurfaceFixture()
	_, err := fixture.service.BuildSurface(uuid.New(), request_models.SurfaceRequest{AssessmentID: "not-a-uuid"}, context.Background())
	if !errors.Is(err, utils.ErrAssessmentNotFound) {
		t.Fatalf("malformed id: got %v", err)
	}

	_, err = fixture.service.BuildSurface(uuid.New(), request_models.SurfaceRequest{AssessmentID: uuid.NewString()}, context.Background())
	if !errors.Is(err, utils.ErrAssessmentNotFound) {
		t.Fatalf("unknown id: got %v", err)
	}
}

func TestDismissNudgeClampsTTL(t *testing.T) {
	fixture := newSurfaceFixture()
	subjectID := uuid.New()

	receipt, err := fixture.service.DismissNudge(subjectID, request_models.DismissNudgeRequest{NudgeID: "improve:q_will", TTLHours: 9000}, context.Background())
	if err != nil {
		t.Fatalf("dismiss failed: %v", err)
	}

	until, ok := fixture.preferenceRepo.set["improve:q_will"]
	if !ok {
		t.Fatal("dismissal not stored")
	}
	if remaining := time.Until(until); remaining > 721*time.Hour {
		t.Fatalf("ttl not clamped to 720h, remaining %v", remaining)
	}
	if _, err := time.Parse(time.RFC3339, receipt.DismissedUntil); err != nil {
		t.Fatalf("receipt timestamp: %v", err)
	}

	event := fixture.eventRepo.byName("remy_dismiss_nudge")
	if event == nil || event.payload["ttl_hours"] != 720 {
		t.Fatalf("dismiss event: got %+v", event)
	}
}

func TestDismissNudgeRejectsBadIDs(t *testing.T) {
	fixture := newSurfaceFixture()

	if _, err := fixture.service.DismissNudge(uuid.New(), request_models.DismissNudgeRequest{}, context.Background()); !errors.Is(err, utils.ErrInvalidNudge) {
		t.Fatalf("empty id: got %v", err)
	}
	long := strings.Repeat("x", 121)
	if _, err := fixture.service.DismissNudge(uuid.New(), request_models.DismissNudgeRequest{NudgeID: long}, context.Background()); !errors.Is(err, utils.ErrInvalidNudge) {
		t.Fatalf("oversized id: got %v", err)
	}
}

func TestAckActionSanitizesTarget(t *testing.T) {
	fixture := newSurfaceFixture()

	receipt, err := fixture.service.AckAction(uuid.New(), request_models.AckActionRequest{
		ActionID:   "q_will",
		TargetHref: "https://evil.com/phish",
		Metadata:   map[string]any{"source": "nudge"},
	}, context.Background())
	if err != nil {
		t.Fatalf("ack failed: %v", err)
	}
	if receipt.TargetHref != "" {
		t.Fatalf("external href must be dropped, got %q", receipt.TargetHref)
	}
	if !receipt.Recorded {
		t.Fatal("receipt not recorded")
	}

	event := fixture.eventRepo.byName("remy_ack_action")
	if event == nil {
		t.Fatal("ack event missing")
	}
	if _, leaked := event.payload["target_href"]; leaked {
		t.Fatal("rejected href leaked into the event")
	}
	if event.payload["meta_source"] != "nudge" {
		t.Fatalf("metadata not namespaced: %v", event.payload)
	}
}

func TestAckActionRejectsOversizedMetadata(t *testing.T) {
	fixture := newSurfaceFixture()
	metadata := map[string]any{}
	for i := 0; i < 13; i++ {
		metadata[strings.Repeat("k", i+1)] = i
	}
	_, err := fixture.service.AckAction(uuid.New(), request_models.AckActionRequest{ActionID: "a", Metadata: metadata}, context.Background())
	if !errors.Is(err, utils.ErrMetadataTooLarge) {
		t.Fatalf("got %v", err)
	}
}
