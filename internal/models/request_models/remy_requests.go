package request_models

type SurfaceRequest struct {
	AssessmentID string `json:"assessment_id"`
	Surface      string `json:"surface"`
	SectionID    string `json:"section_id"`
}

type DismissNudgeRequest struct {
	NudgeID  string `json:"nudge_id" binding:"required"`
	TTLHours int    `json:"ttl_hours"`
}

type AckActionRequest struct {
	ActionID   string         `json:"action_id"`
	TargetHref string         `json:"target_href"`
	Surface    string         `json:"surface"`
	Metadata   map[string]any `json:"metadata"`
}

type ChatTurnRequest struct {
	ConversationID string         `json:"conversation_id"`
	AssessmentID   string         `json:"assessment_id"`
	Surface        string         `json:"surface"`
	Message        string         `json:"message"`
	Metadata       map[string]any `json:"metadata"`
}
