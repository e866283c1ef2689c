package engine

import (
	"strings"
	"testing"
)

func chatTestContext(message string) ChatContext {
	return ChatContext{
		ConversationID: "conv-1",
		Surface:        SurfaceDashboard,
		Message:        message,
		Payload: SurfacePayload{
			Priorities: []PriorityItem{
				{
					ID:         "q_beneficiary",
					Title:      "Have you designated beneficiaries for your accounts?",
					Priority:   PriorityHigh,
					WhyNow:     "Completing this step now can make a meaningful difference in your readiness plan.",
					TargetHref: "/readiness?section=estate&question=q_beneficiary&returnTo=dashboard",
				},
			},
			Reassurance: Reassurance{Title: "Early progress matters", Body: "Your score reflects a starting point, not a verdict."},
		},
	}
}

func TestIsOutOfDomainMessage(t *testing.T) {
	offTopic := []string{
		"What stocks should I buy?",
		"Tell me about bitcoin",
		"Who wins the election?",
		"Got a good recipe?",
	}
	for _, message := range offTopic {
		if !IsOutOfDomainMessage(message) {
			t.Fatalf("%q should be out of domain", message)
		}
	}
	onTopic := []string{
		"Explain my readiness score",
		"What should I do first?",
		"",
	}
	for _, message := range onTopic {
		if IsOutOfDomainMessage(message) {
			t.Fatalf("%q should be in domain", message)
		}
	}
}

func TestSanitizeInternalPath(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"/readiness?section=estate", "/readiness?section=estate"},
		{"https://evil.com/phish", ""},
		{"//evil.com", ""},
		{"/ok\r\nLocation: https://evil.com", ""},
		{"relative/path", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := SanitizeInternalPath(tc.in); got != tc.expected {
			t.Fatalf("%q: got %q, want %q", tc.in, got, tc.expected)
		}
	}

	long := "/" + strings.Repeat("a", 600)
	if got := SanitizeInternalPath(long); len(got) != 512 {
		t.Fatalf("long path should truncate to 512, got %d", len(got))
	}
}

func TestBuildOutOfDomainResponse(t *testing.T) {
	response := BuildDeterministicChatReply(chatTestContext("Should I buy crypto?"))
	if response.Confidence != 0.95 {
		t.Fatalf("confidence: got %v", response.Confidence)
	}
	if len(response.SafetyFlags) != 1 || response.SafetyFlags[0] != "domain_boundary" {
		t.Fatalf("safety flags: got %v", response.SafetyFlags)
	}
	if !strings.Contains(response.AssistantMessage, "Rest Easy readiness") {
		t.Fatalf("boundary copy missing: %q", response.AssistantMessage)
	}
	if response.CTA == nil || response.CTA.ID != "q_beneficiary" {
		t.Fatalf("fallback CTA should point at the top priority, got %+v", response.CTA)
	}
}

func TestBuildDeterministicChatReplyPrioritize(t *testing.T) {
	response := BuildDeterministicChatReply(chatTestContext("What should I do first?"))
	if response.Intent != IntentPrioritize {
		t.Fatalf("intent: got %s", response.Intent)
	}
	if !strings.Contains(response.AssistantMessage, "designated beneficiaries") {
		t.Fatalf("reply should name the top priority: %q", response.AssistantMessage)
	}
	if len(response.QuickReplies) == 0 || len(response.QuickReplies) > 3 {
		t.Fatalf("quick replies: got %d", len(response.QuickReplies))
	}
}

func TestEnforceConversationalStyleScrubsInternals(t *testing.T) {
	response := EnforceConversationalStyle(ChatTurnResponse{
		AssistantMessage: "This section carries 15% weight. Your section weight matters for this highly weighted question and your plan.",
		Intent:           IntentExplainScore,
	})
	lowered := strings.ToLower(response.AssistantMessage)
	if strings.Contains(lowered, "weight") || strings.Contains(lowered, "%") {
		t.Fatalf("internals leaked: %q", response.AssistantMessage)
	}
	if response.AssistantMessage == "" {
		t.Fatal("scrub must not empty the reply")
	}
}

func TestEnforceConversationalStyleRewritesFragments(t *testing.T) {
	response := EnforceConversationalStyle(ChatTurnResponse{
		AssistantMessage: "Use [this link](https://example.com) now",
		Intent:           IntentPlanNext,
	})
	if strings.Contains(response.AssistantMessage, "https://") || strings.Contains(response.AssistantMessage, "](") {
		t.Fatalf("link markup survived: %q", response.AssistantMessage)
	}
	if len(response.AssistantMessage) < 24 {
		t.Fatalf("fragment was not rewritten: %q", response.AssistantMessage)
	}
}

func TestNormalizeChatTurnResponseRejectsExternalCTA(t *testing.T) {
	fallback := BuildDeterministicChatReply(chatTestContext("What should I do first?"))
	raw := map[string]any{
		"assistant_message": "Let's take your next readiness step together and keep the plan moving.",
		"intent":            "plan_next",
		"confidence":        0.9,
		"cta": map[string]any{
			"id":    "evil",
			"label": "Click here",
			"href":  "https://evil.com/phish",
		},
	}
	response := NormalizeChatTurnResponse(raw, fallback)
	if response.CTA == nil || response.CTA.Href != fallback.CTA.Href {
		t.Fatalf("external href must keep the fallback CTA, got %+v", response.CTA)
	}
	if response.Intent != IntentPlanNext {
		t.Fatalf("intent: got %s", response.Intent)
	}
	if response.Confidence != 0.9 {
		t.Fatalf("confidence: got %v", response.Confidence)
	}
}

func TestNormalizeChatTurnResponseFieldCaps(t *testing.T) {
	fallback := BuildDeterministicChatReply(chatTestContext("help me plan"))
	raw := map[string]any{
		"assistant_message": strings.Repeat("a", 2000),
		"quick_replies":     []any{"one", "two", "three", "four", "five"},
		"confidence":        float64(4),
	}
	response := NormalizeChatTurnResponse(raw, fallback)
	if len(response.AssistantMessage) != 1600 {
		t.Fatalf("message cap: got %d", len(response.AssistantMessage))
	}
	if len(response.QuickReplies) != 3 {
		t.Fatalf("quick replies cap: got %d", len(response.QuickReplies))
	}
	if response.Confidence != 1 {
		t.Fatalf("confidence clamp: got %v", response.Confidence)
	}
}

func TestNormalizeChatTurnResponseNilRaw(t *testing.T) {
	fallback := BuildDeterministicChatReply(chatTestContext("What should I do first?"))
	response := NormalizeChatTurnResponse(nil, fallback)
	if response.AssistantMessage != fallback.AssistantMessage {
		t.Fatal("nil raw must return the fallback untouched")
	}
}

func TestBuildModelUserPromptScrubsInternals(t *testing.T) {
	context := chatTestContext("Why is my score low?")
	context.Payload.Explanations = []Explanation{{
		Title: "Why Estate Planning is prioritized",
		Body:  "This section carries 15% weight.",
	}}
	prompt := BuildModelUserPrompt(context, []HistoryItem{
		{Role: "assistant", Text: "Current answer is \"no\". This is highly weighted."},
	})
	if strings.Contains(prompt, "15%") || strings.Contains(strings.ToLower(prompt), "highly weighted") {
		t.Fatalf("internals leaked into the model prompt: %s", prompt)
	}
}
