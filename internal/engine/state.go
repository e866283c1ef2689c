package engine

import (
	"encoding/json"
	"time"
)

// TurnGoal is the fine-grained conversational goal resolved each turn.
type TurnGoal string

const (
	GoalGreeting        TurnGoal = "greeting"
	GoalScoreExplain    TurnGoal = "score_explain"
	GoalNextStep        TurnGoal = "next_step"
	GoalSkipPriority    TurnGoal = "skip_priority"
	GoalRouteToQuestion TurnGoal = "route_to_question"
	GoalQuestionLookup  TurnGoal = "question_lookup"
	GoalVaultProgress   TurnGoal = "vault_progress"
	GoalVaultUpload     TurnGoal = "vault_upload_route"
	GoalReportSummary   TurnGoal = "report_summary"
	GoalReportStrengths TurnGoal = "report_strengths"
	GoalUIWayfinding    TurnGoal = "ui_wayfinding"
	GoalClarification   TurnGoal = "clarification"
	GoalOutOfScope      TurnGoal = "out_of_scope"
)

func isKnownGoal(goal TurnGoal) bool {
	switch goal {
	case GoalGreeting, GoalScoreExplain, GoalNextStep, GoalSkipPriority,
		GoalRouteToQuestion, GoalQuestionLookup, GoalVaultProgress,
		GoalVaultUpload, GoalReportSummary, GoalReportStrengths,
		GoalUIWayfinding, GoalClarification, GoalOutOfScope:
		return true
	}
	return false
}

const conversationStateVersion = 2

// ConversationState is the small per-conversation memory blob. It is stored as
// JSON and must survive older or corrupted snapshots, so it is always passed
// through NormalizeConversationState on read.
type ConversationState struct {
	Version              int                  `json:"version"`
	DeclinedUntilByID    map[string]time.Time `json:"declined_until_by_id"`
	LastGoal             TurnGoal             `json:"last_goal,omitempty"`
	LastTargetQuestionID string               `json:"last_target_question_id,omitempty"`
	LastCapability       string               `json:"last_capability,omitempty"`
	LastRoute            string               `json:"last_route,omitempty"`
	TurnCount            int                  `json:"turn_count"`
	LastReassuranceTurn  int                  `json:"last_reassurance_turn,omitempty"`
}

// IsDeclined reports whether a priority id is under an active decline.
func (s *ConversationState) IsDeclined(priorityID string, now time.Time) bool {
	until, ok := s.DeclinedUntilByID[priorityID]
	return ok && until.After(now)
}

// Decline suppresses a priority id until now+ttl.
func (s *ConversationState) Decline(priorityID string, now time.Time, ttl time.Duration) {
	if priorityID == "" {
		return
	}
	if s.DeclinedUntilByID == nil {
		s.DeclinedUntilByID = make(map[string]time.Time)
	}
	s.DeclinedUntilByID[priorityID] = now.Add(ttl)
}

// Marshal serializes the state for persistence.
func (s ConversationState) Marshal() ([]byte, error) {
	s.Version = conversationStateVersion
	return json.Marshal(s)
}

type rawConversationState struct {
	Version              int               `json:"version"`
	DeclinedUntilByID    map[string]string `json:"declined_until_by_id"`
	LastGoal             string            `json:"last_goal"`
	LastTargetQuestionID string            `json:"last_target_question_id"`
	LastCapability       string            `json:"last_capability"`
	LastRoute            string            `json:"last_route"`
	TurnCount            float64           `json:"turn_count"`
	LastReassuranceTurn  float64           `json:"last_reassurance_turn"`
}

// NormalizeConversationState repairs a persisted blob: expired or malformed
// decline entries are dropped, unknown enum values are discarded, and counters
// are clamped to non-negative integers. A nil or unparsable blob yields a
// fresh state.
func NormalizeConversationState(raw []byte, now time.Time) ConversationState {
	state := ConversationState{
		Version:           conversationStateVersion,
		DeclinedUntilByID: make(map[string]time.Time),
	}
	if len(raw) == 0 {
		return state
	}

	var parsed rawConversationState
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return state
	}

	for key, value := range parsed.DeclinedUntilByID {
		if key == "" {
			continue
		}
		until, err := time.Parse(time.RFC3339, value)
		if err != nil || !until.After(now) {
			continue
		}
		state.DeclinedUntilByID[key] = until
	}

	if isKnownGoal(TurnGoal(parsed.LastGoal)) {
		state.LastGoal = TurnGoal(parsed.LastGoal)
	}
	state.LastTargetQuestionID = parsed.LastTargetQuestionID
	state.LastCapability = parsed.LastCapability
	state.LastRoute = parsed.LastRoute
	if parsed.TurnCount > 0 {
		state.TurnCount = int(parsed.TurnCount)
	}
	if parsed.LastReassuranceTurn > 0 {
		state.LastReassuranceTurn = int(parsed.LastReassuranceTurn)
	}
	return state
}
