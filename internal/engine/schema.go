package engine

import "time"

// AnswerValue is the closed set of answers a readiness question accepts.
// "na" excludes the question from scoring entirely.
type AnswerValue string

const (
	AnswerYes     AnswerValue = "yes"
	AnswerPartial AnswerValue = "partial"
	AnswerNo      AnswerValue = "no"
	AnswerNotSure AnswerValue = "not_sure"
	AnswerNA      AnswerValue = "na"
)

// Surface identifies the screen requesting guidance. It changes nudge and CTA
// wording but never the underlying scoring.
type Surface string

const (
	SurfaceDashboard      Surface = "dashboard"
	SurfaceReadiness      Surface = "readiness"
	SurfaceSectionSummary Surface = "section_summary"
	SurfaceResults        Surface = "results"
	SurfaceProfile        Surface = "profile"
	SurfaceMenu           Surface = "menu"
	SurfaceVault          Surface = "vault"
)

// SanitizeSurface maps unknown values onto the dashboard rather than trusting
// caller input.
func SanitizeSurface(raw string) Surface {
	switch Surface(raw) {
	case SurfaceReadiness, SurfaceSectionSummary, SurfaceResults,
		SurfaceProfile, SurfaceMenu, SurfaceVault, SurfaceDashboard:
		return Surface(raw)
	default:
		return SurfaceDashboard
	}
}

type AnswerOption struct {
	Value AnswerValue `json:"value"`
	Label string      `json:"label"`
}

// SchemaQuestion is immutable per schema version. AppliesIf is a boolean
// expression over profile and answers; empty or "always" means applicable.
type SchemaQuestion struct {
	ID        string         `json:"id"`
	SectionID string         `json:"section_id"`
	Prompt    string         `json:"prompt"`
	Options   []AnswerOption `json:"options"`
	AppliesIf string         `json:"applies_if,omitempty"`
}

type SchemaSection struct {
	ID     string  `json:"id"`
	Label  string  `json:"label"`
	Weight float64 `json:"weight"`
}

type Schema struct {
	Sections  []SchemaSection  `json:"sections"`
	Questions []SchemaQuestion `json:"questions"`
}

// AnswerRecord is one saved answer; unique by question within an assessment.
// ScoreFraction is nil when the answer is "na".
type AnswerRecord struct {
	QuestionID    string      `json:"question_id"`
	SectionID     string      `json:"section_id"`
	AnswerValue   AnswerValue `json:"answer_value"`
	AnswerLabel   string      `json:"answer_label"`
	ScoreFraction *float64    `json:"score_fraction"`
	QuestionText  string      `json:"question_text"`
}

type ReportStatus string

const (
	ReportNotStarted ReportStatus = "not_started"
	ReportGenerating ReportStatus = "generating"
	ReportReady      ReportStatus = "ready"
	ReportFailed     ReportStatus = "failed"
)

// AssessmentSnapshot is the engine's view of the user's current assessment.
type AssessmentSnapshot struct {
	Status       string
	OverallScore *int
	ReportStatus ReportStatus
	ReportStale  bool
	ReportData   map[string]any
	LastAnswerAt *time.Time
}

// ImprovementItem is derived per answered-but-imperfect question and never
// persisted.
type ImprovementItem struct {
	QuestionID    string   `json:"question_id"`
	SectionID     string   `json:"section_id"`
	SectionLabel  string   `json:"section_label"`
	QuestionText  string   `json:"question_text"`
	CurrentAnswer string   `json:"current_answer"`
	AnswerLabel   string   `json:"current_answer_label"`
	ScoreFraction float64  `json:"score_fraction"`
	SectionWeight float64  `json:"section_weight"`
	Priority      Priority `json:"priority"`
	PriorityScore float64  `json:"priority_score"`
}
