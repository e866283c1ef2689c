package engine

import (
	"strings"
	"testing"
	"time"
)

func floatPtr(v float64) *float64 { return &v }

func payloadSchema() *Schema {
	return &Schema{
		Sections: []SchemaSection{
			{ID: "estate", Label: "Estate Planning", Weight: 15},
			{ID: "financial", Label: "Financial", Weight: 5},
		},
		Questions: []SchemaQuestion{
			{ID: "q_will", SectionID: "estate", Prompt: "Do you have a current will?"},
			{ID: "q_beneficiary", SectionID: "estate", Prompt: "Have you designated beneficiaries for your accounts?"},
			{ID: "q_bank", SectionID: "financial", Prompt: "Have you documented your bank accounts?"},
		},
	}
}

func payloadInput(now time.Time) SurfaceInput {
	return SurfaceInput{
		Assessment: &AssessmentSnapshot{Status: "in_progress", ReportStatus: ReportNotStarted},
		Schema:     payloadSchema(),
		Profile:    map[string]any{},
		Answers: []AnswerRecord{
			{QuestionID: "q_will", SectionID: "estate", AnswerValue: AnswerNo, ScoreFraction: floatPtr(0), QuestionText: "Do you have a current will?"},
			{QuestionID: "q_beneficiary", SectionID: "estate", AnswerValue: AnswerPartial, ScoreFraction: floatPtr(0.5), QuestionText: "Have you designated beneficiaries for your accounts?"},
		},
		Surface:                SurfaceDashboard,
		Now:                    now,
		NearFullProgressCutoff: 80,
	}
}

func TestBuildSurfacePayloadWithoutAssessment(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	payload := BuildSurfacePayload(SurfaceInput{Surface: SurfaceDashboard, Now: now})
	if payload.Nudge != nil {
		t.Fatalf("empty payload should carry no nudge, got %+v", payload.Nudge)
	}
	if len(payload.Priorities) != 0 || len(payload.Explanations) != 0 {
		t.Fatal("empty payload should carry no priorities or explanations")
	}
	if payload.DomainScope != DomainScope {
		t.Fatalf("domain scope: got %q", payload.DomainScope)
	}
}

func TestBuildSurfacePayloadRanksWorstAnswerFirst(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	payload := BuildSurfacePayload(payloadInput(now))

	if len(payload.Priorities) != 2 {
		t.Fatalf("priorities: got %d", len(payload.Priorities))
	}
	if payload.Priorities[0].ID != "q_will" {
		t.Fatalf("the no answer in the heavy section must rank first, got %q", payload.Priorities[0].ID)
	}
	if payload.Priorities[0].Priority != PriorityHigh {
		t.Fatalf("tier: got %s", payload.Priorities[0].Priority)
	}
	if payload.Priorities[0].TargetHref != "/readiness?section=estate&question=q_will&returnTo=dashboard" {
		t.Fatalf("deep link: got %q", payload.Priorities[0].TargetHref)
	}

	if payload.Nudge == nil || payload.Nudge.ID != "improve:q_will" {
		t.Fatalf("nudge should target the top improvement, got %+v", payload.Nudge)
	}
	if len(payload.Explanations) != 2 {
		t.Fatalf("explanations: got %d", len(payload.Explanations))
	}
}

func TestBuildSurfacePayloadDismissalWalksLadder(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	input := payloadInput(now)
	input.Dismissed = map[string]time.Time{"improve:q_will": now.Add(time.Hour)}
	payload := BuildSurfacePayload(input)
	if payload.Nudge == nil || payload.Nudge.ID != "continue:q_bank" {
		t.Fatalf("dismissed improve nudge should fall to the next unanswered question, got %+v", payload.Nudge)
	}

	input.Dismissed["continue:q_bank"] = now.Add(time.Hour)
	payload = BuildSurfacePayload(input)
	if payload.Nudge == nil || payload.Nudge.ID != "remy:start" {
		t.Fatalf("with everything dismissed and no report, expected the cold-start nudge, got %+v", payload.Nudge)
	}
}

func TestBuildSurfacePayloadExpiredDismissalIsIgnored(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	input := payloadInput(now)
	input.Dismissed = map[string]time.Time{"improve:q_will": now.Add(-time.Minute)}
	payload := BuildSurfacePayload(input)
	if payload.Nudge == nil || payload.Nudge.ID != "improve:q_will" {
		t.Fatalf("expired dismissal must not suppress the nudge, got %+v", payload.Nudge)
	}
}

func TestBuildSurfacePayloadReportLadder(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	input := payloadInput(now)
	// all applicable questions answered perfectly so the ladder reaches the report rungs
	input.Answers = []AnswerRecord{
		{QuestionID: "q_will", SectionID: "estate", AnswerValue: AnswerYes, ScoreFraction: floatPtr(1)},
		{QuestionID: "q_beneficiary", SectionID: "estate", AnswerValue: AnswerYes, ScoreFraction: floatPtr(1)},
		{QuestionID: "q_bank", SectionID: "financial", AnswerValue: AnswerYes, ScoreFraction: floatPtr(1)},
	}

	input.Assessment.ReportStatus = ReportGenerating
	if payload := BuildSurfacePayload(input); payload.Nudge == nil || payload.Nudge.ID != "report:generating" {
		t.Fatalf("generating report rung: got %+v", payload.Nudge)
	}

	input.Assessment.ReportStatus = ReportReady
	input.Assessment.ReportStale = true
	if payload := BuildSurfacePayload(input); payload.Nudge == nil || payload.Nudge.ID != "report:stale" {
		t.Fatalf("stale report rung: got %+v", payload.Nudge)
	}

	input.Assessment.ReportStale = false
	if payload := BuildSurfacePayload(input); payload.Nudge == nil || payload.Nudge.ID != "report:ready" {
		t.Fatalf("ready report rung: got %+v", payload.Nudge)
	}
}

func TestBuildSurfacePayloadSectionScoping(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	input := payloadInput(now)
	input.Surface = SurfaceSectionSummary
	input.SectionID = "financial"

	payload := BuildSurfacePayload(input)
	for _, item := range payload.Priorities {
		if !strings.HasPrefix(item.TargetHref, "/readiness?section=financial") {
			t.Fatalf("priority escaped the section scope: %+v", item)
		}
	}
	if len(payload.Priorities) != 0 {
		t.Fatalf("financial section has no answered imperfect questions, got %d priorities", len(payload.Priorities))
	}
}

func TestBuildSurfacePayloadStaleReportExplanation(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	input := payloadInput(now)
	input.Assessment.ReportStale = true

	payload := BuildSurfacePayload(input)
	found := false
	for _, explanation := range payload.Explanations {
		if explanation.ID == "exp:report-stale" {
			found = true
		}
	}
	if !found {
		t.Fatal("stale report should add its explanation")
	}
}

func TestComputeOverallScore(t *testing.T) {
	schema := payloadSchema()

	answers := []AnswerRecord{
		{QuestionID: "q_will", SectionID: "estate", AnswerValue: AnswerYes, ScoreFraction: floatPtr(1)},
		{QuestionID: "q_beneficiary", SectionID: "estate", AnswerValue: AnswerNA},
		{QuestionID: "q_bank", SectionID: "financial", AnswerValue: AnswerNo, ScoreFraction: floatPtr(0)},
	}
	score := ComputeOverallScore(schema, map[string]any{}, answers)
	if score == nil || *score != 75 {
		t.Fatalf("got %v, want 75", score)
	}

	if got := ComputeOverallScore(schema, map[string]any{}, nil); got != nil {
		t.Fatalf("no answers should yield nil, got %v", got)
	}
	if got := ComputeOverallScore(nil, nil, answers); got != nil {
		t.Fatalf("nil schema should yield nil, got %v", got)
	}

	onlyNA := []AnswerRecord{{QuestionID: "q_will", SectionID: "estate", AnswerValue: AnswerNA}}
	if got := ComputeOverallScore(schema, map[string]any{}, onlyNA); got != nil {
		t.Fatalf("na-only answers should yield nil, got %v", got)
	}
}
