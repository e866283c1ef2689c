package request_models

// IntakeRequest is the single intake entrypoint used by the host app to feed
// profile, answer, and assessment state.
type IntakeRequest struct {
	Action     string            `json:"action"`
	Profile    map[string]any    `json:"profile"`
	Answers    []AnswerInput     `json:"answers"`
	Assessment *AssessmentUpdate `json:"assessment"`
}

type AnswerInput struct {
	QuestionID    string   `json:"question_id" binding:"required"`
	SectionID     string   `json:"section_id"`
	AnswerValue   string   `json:"answer_value" binding:"required"`
	AnswerLabel   string   `json:"answer_label"`
	ScoreFraction *float64 `json:"score_fraction"`
	QuestionText  string   `json:"question_text"`
}

type AssessmentUpdate struct {
	Status       string `json:"status"`
	ReportStatus string `json:"report_status"`
	ReportStale  *bool  `json:"report_stale"`
	OverallScore *int   `json:"overall_score"`
}
