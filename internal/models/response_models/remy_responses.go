package response_models

type DismissReceipt struct {
	NudgeID        string `json:"nudge_id"`
	DismissedUntil string `json:"dismissed_until"`
}

type AckReceipt struct {
	ActionID   string `json:"action_id"`
	TargetHref string `json:"target_href,omitempty"`
	Recorded   bool   `json:"recorded"`
}

type IntakeResult struct {
	AssessmentID   string `json:"assessment_id"`
	SavedAnswers   int    `json:"saved_answers"`
	ProfileSaved   bool   `json:"profile_saved"`
	NeedsScoreRegen bool  `json:"needs_score_regen"`
	SchemaVersion  string `json:"schema_version,omitempty"`
	Schema         any    `json:"schema,omitempty"`
}
