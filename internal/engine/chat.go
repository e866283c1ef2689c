package engine

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// ChatIntent is the coarse classification of an incoming chat message.
type ChatIntent string

const (
	IntentClarify      ChatIntent = "clarify"
	IntentPrioritize   ChatIntent = "prioritize"
	IntentExplainScore ChatIntent = "explain_score"
	IntentPlanNext     ChatIntent = "plan_next"
	IntentReassure     ChatIntent = "reassure"
	IntentUnknown      ChatIntent = "unknown"
)

type ChatCTA struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Href  string `json:"href"`
}

type WhyThis struct {
	Title      string   `json:"title"`
	Body       string   `json:"body"`
	SourceRefs []string `json:"source_refs"`
}

// ChatTurnResponse is the single reply shape every chat path produces,
// deterministic or model-assisted.
type ChatTurnResponse struct {
	ConversationID   string     `json:"conversation_id"`
	AssistantMessage string     `json:"assistant_message"`
	QuickReplies     []string   `json:"quick_replies"`
	CTA              *ChatCTA   `json:"cta,omitempty"`
	WhyThis          *WhyThis   `json:"why_this,omitempty"`
	Intent           ChatIntent `json:"intent"`
	Confidence       float64    `json:"confidence"`
	SafetyFlags      []string   `json:"safety_flags"`
}

// ChatContext bundles the read-only state a single turn is planned against.
type ChatContext struct {
	ConversationID string
	AssessmentKey  string
	Surface        Surface
	Message        string
	Assessment     *AssessmentSnapshot
	Payload        SurfacePayload
	AnswerCount    int
}

var outOfDomainPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bbitcoin\b`),
	regexp.MustCompile(`(?i)\bcrypto\b`),
	regexp.MustCompile(`(?i)\bstock(s)?\b`),
	regexp.MustCompile(`(?i)\belection(s)?\b`),
	regexp.MustCompile(`(?i)\bpolitic(s|al)\b`),
	regexp.MustCompile(`(?i)\brecipe(s)?\b`),
	regexp.MustCompile(`(?i)\bweather\b`),
	regexp.MustCompile(`(?i)\bsports?\b`),
	regexp.MustCompile(`(?i)\bfantasy\b`),
}

var transparencyLeakPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b\d{1,3}\s*%`),
	regexp.MustCompile(`(?i)\bweight(ed|ing)?\b`),
	regexp.MustCompile(`(?i)\bcurrent answer is\b`),
	regexp.MustCompile(`(?i)\bsection\s*(id|=|:)`),
	regexp.MustCompile(`(?i)\bquestion\s*(id|=|:)`),
	regexp.MustCompile(`(?i)\bsource[_\s-]?ref(s)?\b`),
	regexp.MustCompile(`(?i)\bsection=[^&\s]+`),
	regexp.MustCompile(`(?i)\bquestion=[^&\s]+`),
}

var (
	linkMarkupPattern    = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	currentAnswerPattern = regexp.MustCompile(`(?i)\bCurrent answer is\s+"[^"]+"\.?\s*`)
	sectionCarryPattern  = regexp.MustCompile(`(?i)\bThis section carries\s+\d{1,3}\s*%?\s+weight\.?\s*`)
	sectionWeightPattern = regexp.MustCompile(`(?i)\bsection\s+weight\b`)
	highlyWeightPattern  = regexp.MustCompile(`(?i)\bhighly weighted\b`)
	weightedPattern      = regexp.MustCompile(`(?i)\bweighted\b`)
	multiSpacePattern    = regexp.MustCompile(`\s{2,}`)
	crlfPattern          = regexp.MustCompile(`[\r\n]`)
	usePrefixPattern     = regexp.MustCompile(`(?i)^use\s+`)

	explainScorePattern = regexp.MustCompile(`\b(score|rating|grade|why .*low|why .*high|why is .* low|improve .*score)\b`)
	prioritizePattern   = regexp.MustCompile(`\b(first|next|what should i do|where do i start|start with|do now|priority)\b`)
	planNextPattern     = regexp.MustCompile(`\b(plan|roadmap|step by step|how do i|what now|next step)\b`)
	reassurePattern     = regexp.MustCompile(`\b(reassure|anxious|worried|overwhelmed|behind|okay|ok)\b`)
	clarifyPattern      = regexp.MustCompile(`\b(what is|how does|explain|clarify|meaning)\b`)
)

// IsOutOfDomainMessage checks the message against the fixed off-topic list.
func IsOutOfDomainMessage(message string) bool {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return false
	}
	for _, pattern := range outOfDomainPatterns {
		if pattern.MatchString(trimmed) {
			return true
		}
	}
	return false
}

// ClassifyIntent assigns the coarse intent; first matching rule wins.
func ClassifyIntent(message string) ChatIntent {
	normalized := strings.ToLower(message)
	switch {
	case explainScorePattern.MatchString(normalized):
		return IntentExplainScore
	case prioritizePattern.MatchString(normalized):
		return IntentPrioritize
	case planNextPattern.MatchString(normalized):
		return IntentPlanNext
	case reassurePattern.MatchString(normalized):
		return IntentReassure
	case clarifyPattern.MatchString(normalized):
		return IntentClarify
	default:
		return IntentUnknown
	}
}

// SanitizeInternalPath accepts only same-app relative paths. Anything
// absolute, protocol-carrying, or containing CR/LF is rejected.
func SanitizeInternalPath(path string) string {
	if path == "" || !strings.HasPrefix(path, "/") {
		return ""
	}
	if strings.HasPrefix(path, "//") || strings.Contains(path, "://") {
		return ""
	}
	if crlfPattern.MatchString(path) {
		return ""
	}
	if len(path) > 512 {
		return path[:512]
	}
	return path
}

func sanitizeText(value string, maxLen int) string {
	collapsed := strings.TrimSpace(multiSpacePattern.ReplaceAllString(
		strings.NewReplacer("\r", " ", "\n", " ", "\t", " ").Replace(value), " "))
	if len(collapsed) > maxLen {
		return collapsed[:maxLen]
	}
	return collapsed
}

func stripLinkMarkup(text string) string {
	return linkMarkupPattern.ReplaceAllString(text, "$1")
}

func scrubTransparencyLanguage(text string) string {
	out := currentAnswerPattern.ReplaceAllString(text, "")
	out = sectionCarryPattern.ReplaceAllString(out, "")
	out = sectionWeightPattern.ReplaceAllString(out, "priority context")
	out = highlyWeightPattern.ReplaceAllString(out, "high-impact")
	out = weightedPattern.ReplaceAllString(out, "important")
	out = multiSpacePattern.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

func hasTransparencyLeak(text string) bool {
	for _, pattern := range transparencyLeakPatterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}

func buildCompanionRewrite(intent ChatIntent, ctaLabel string) string {
	switch intent {
	case IntentPrioritize:
		if ctaLabel != "" {
			return fmt.Sprintf("Let's start with one focused step: %s. I can help you move through it with confidence.", ctaLabel)
		}
		return "Let's start with one focused step that moves your readiness forward right away."
	case IntentExplainScore:
		return "You're making progress. A few areas still need attention, and I can guide you through them one step at a time."
	case IntentPlanNext:
		return "Let's take one concrete next step now, then we can check what changed and choose the next best move."
	case IntentReassure:
		return "You're not behind. We'll keep this simple and make steady progress together."
	case IntentClarify:
		return "I can explain what matters most right now and guide you to the next step in plain language."
	default:
		return "I can help you pick the next best readiness step and keep the process clear and manageable."
	}
}

// EnforceConversationalStyle rewrites any reply that leaks internals or reads
// like a fragment into calm companion phrasing.
func EnforceConversationalStyle(response ChatTurnResponse) ChatTurnResponse {
	cleaned := scrubTransparencyLanguage(stripLinkMarkup(response.AssistantMessage))
	looksFragmented := len(cleaned) < 24 || usePrefixPattern.MatchString(cleaned)
	if cleaned == "" || hasTransparencyLeak(cleaned) || looksFragmented {
		ctaLabel := ""
		if response.CTA != nil {
			ctaLabel = response.CTA.Label
		}
		cleaned = buildCompanionRewrite(response.Intent, ctaLabel)
	}
	response.AssistantMessage = cleaned

	if response.WhyThis != nil {
		body := scrubTransparencyLanguage(stripLinkMarkup(response.WhyThis.Body))
		if body == "" || hasTransparencyLeak(body) {
			body = "This step can meaningfully strengthen your readiness progress."
		}
		why := *response.WhyThis
		why.Body = body
		response.WhyThis = &why
	}

	var quickReplies []string
	for _, reply := range response.QuickReplies {
		scrubbed := scrubTransparencyLanguage(stripLinkMarkup(reply))
		if scrubbed != "" && !hasTransparencyLeak(scrubbed) {
			quickReplies = append(quickReplies, scrubbed)
		}
	}
	if len(quickReplies) == 0 {
		quickReplies = DefaultQuickReplies()
	}
	if len(quickReplies) > 3 {
		quickReplies = quickReplies[:3]
	}
	response.QuickReplies = quickReplies
	return response
}

func DefaultQuickReplies() []string {
	return []string{
		"What should I do first?",
		"Why is this prioritized?",
		"Can you explain my current score?",
	}
}

func buildFallbackCTA(context ChatContext) *ChatCTA {
	if context.Payload.Nudge != nil && context.Payload.Nudge.CTA != nil {
		return &ChatCTA{
			ID:    context.Payload.Nudge.ID,
			Label: context.Payload.Nudge.CTA.Label,
			Href:  context.Payload.Nudge.CTA.Href,
		}
	}
	if len(context.Payload.Priorities) == 0 {
		return nil
	}
	first := context.Payload.Priorities[0]
	return &ChatCTA{ID: first.ID, Label: "Open top priority", Href: first.TargetHref}
}

// BuildOutOfDomainResponse is the fixed redirect reply for off-topic messages.
func BuildOutOfDomainResponse(context ChatContext) ChatTurnResponse {
	return ChatTurnResponse{
		ConversationID: context.ConversationID,
		AssistantMessage: "I can only help with Rest Easy readiness guidance. " +
			"I can explain your assessment status, prioritize next steps, and guide profile or report actions.",
		QuickReplies: []string{
			"What should I do first?",
			"Explain my top priority",
			"Guide me to my next step",
		},
		CTA:         buildFallbackCTA(context),
		Intent:      IntentUnknown,
		Confidence:  0.95,
		SafetyFlags: []string{"domain_boundary"},
	}
}

func composeContextLine(context ChatContext) string {
	topPriority := "No critical priorities currently"
	if len(context.Payload.Priorities) > 0 {
		topPriority = context.Payload.Priorities[0].Title
	}
	return fmt.Sprintf("Top focus right now: %s.", topPriority)
}

// BuildDeterministicChatReply produces the intent-templated reply used when
// the planner defers or the model path is unavailable.
func BuildDeterministicChatReply(context ChatContext) ChatTurnResponse {
	if IsOutOfDomainMessage(context.Message) {
		return BuildOutOfDomainResponse(context)
	}

	intent := ClassifyIntent(context.Message)
	cta := buildFallbackCTA(context)
	contextLine := composeContextLine(context)

	var topExplanation *Explanation
	if len(context.Payload.Explanations) > 0 {
		topExplanation = &context.Payload.Explanations[0]
	}
	var whyThis *WhyThis
	if topExplanation != nil {
		refs := topExplanation.SourceRefs
		if len(refs) > 4 {
			refs = refs[:4]
		}
		whyThis = &WhyThis{Title: topExplanation.Title, Body: topExplanation.Body, SourceRefs: refs}
	}

	response := ChatTurnResponse{
		ConversationID: context.ConversationID,
		QuickReplies:   DefaultQuickReplies(),
		CTA:            cta,
		Intent:         intent,
		SafetyFlags:    []string{},
	}

	switch intent {
	case IntentPrioritize:
		if len(context.Payload.Priorities) > 0 {
			response.AssistantMessage = fmt.Sprintf("Start with %q. It is a strong next step to move your readiness forward.",
				context.Payload.Priorities[0].Title)
		} else {
			response.AssistantMessage = "Your best next move is to continue your readiness flow so I can personalize the next step with more confidence. " + contextLine
		}
		response.WhyThis = whyThis
		response.Confidence = 0.82
	case IntentExplainScore:
		body := "A few important areas still need attention, and we can tackle them one at a time."
		if topExplanation != nil {
			body = topExplanation.Body
		}
		response.AssistantMessage = "You are making progress. " + body
		response.WhyThis = whyThis
		response.Confidence = 0.85
	case IntentPlanNext:
		if cta != nil {
			response.AssistantMessage = "Let's take one concrete step now. I can guide you through it and then we'll reassess together."
		} else {
			response.AssistantMessage = "Let's keep momentum. Continue your readiness flow and I'll guide the next best move."
		}
		response.Confidence = 0.8
	case IntentReassure:
		response.AssistantMessage = context.Payload.Reassurance.Body
		response.Confidence = 0.86
	case IntentClarify:
		response.AssistantMessage = "Remy keeps your readiness plan clear: explain what matters, guide your next step, and stay aligned to your latest updates. " + contextLine
		response.Confidence = 0.78
	default:
		response.AssistantMessage = "I can help you choose the next best readiness step and keep it simple. " +
			contextLine + " Ask me what to do first or what to focus on next."
		response.Confidence = 0.72
	}

	return EnforceConversationalStyle(response)
}

// NormalizeChatTurnResponse validates a model-produced reply field by field,
// substituting the deterministic fallback per field rather than wholesale.
func NormalizeChatTurnResponse(raw map[string]any, fallback ChatTurnResponse) ChatTurnResponse {
	if raw == nil {
		return fallback
	}

	intent := fallback.Intent
	if candidate, ok := raw["intent"].(string); ok {
		switch ChatIntent(candidate) {
		case IntentClarify, IntentPrioritize, IntentExplainScore, IntentPlanNext, IntentReassure, IntentUnknown:
			intent = ChatIntent(candidate)
		}
	}

	assistantMessage := fallback.AssistantMessage
	if candidate, ok := raw["assistant_message"].(string); ok {
		if cleaned := sanitizeText(candidate, 1600); cleaned != "" {
			assistantMessage = cleaned
		}
	}

	confidence := fallback.Confidence
	if candidate, ok := raw["confidence"].(float64); ok {
		if candidate < 0 {
			candidate = 0
		}
		if candidate > 1 {
			candidate = 1
		}
		confidence = candidate
	}

	quickReplies := fallback.QuickReplies
	if candidates, ok := raw["quick_replies"].([]any); ok {
		var cleaned []string
		for _, value := range candidates {
			if len(cleaned) == 3 {
				break
			}
			if text, ok := value.(string); ok {
				if reply := sanitizeText(text, 100); reply != "" {
					cleaned = append(cleaned, reply)
				}
			}
		}
		if len(cleaned) > 0 {
			quickReplies = cleaned
		}
	}

	cta := fallback.CTA
	if candidate, ok := raw["cta"].(map[string]any); ok {
		href, _ := candidate["href"].(string)
		href = SanitizeInternalPath(href)
		id := sanitizeText(asString(candidate["id"]), 120)
		label := sanitizeText(asString(candidate["label"]), 90)
		if href != "" && id != "" && label != "" {
			cta = &ChatCTA{ID: id, Label: label, Href: href}
		}
	}

	whyThis := fallback.WhyThis
	if candidate, ok := raw["why_this"].(map[string]any); ok {
		title := sanitizeText(asString(candidate["title"]), 140)
		body := sanitizeText(asString(candidate["body"]), 600)
		var sourceRefs []string
		if refs, ok := candidate["source_refs"].([]any); ok {
			for _, value := range refs {
				if len(sourceRefs) == 5 {
					break
				}
				if text, ok := value.(string); ok {
					if ref := sanitizeText(text, 120); ref != "" {
						sourceRefs = append(sourceRefs, ref)
					}
				}
			}
		}
		if title != "" && body != "" {
			whyThis = &WhyThis{Title: title, Body: body, SourceRefs: sourceRefs}
		}
	}

	safetyFlags := fallback.SafetyFlags
	if candidates, ok := raw["safety_flags"].([]any); ok {
		var cleaned []string
		for _, value := range candidates {
			if len(cleaned) == 8 {
				break
			}
			if text, ok := value.(string); ok {
				if flag := sanitizeText(text, 80); flag != "" {
					cleaned = append(cleaned, flag)
				}
			}
		}
		safetyFlags = cleaned
	}
	if safetyFlags == nil {
		safetyFlags = []string{}
	}

	return EnforceConversationalStyle(ChatTurnResponse{
		ConversationID:   fallback.ConversationID,
		AssistantMessage: assistantMessage,
		QuickReplies:     quickReplies,
		CTA:              cta,
		WhyThis:          whyThis,
		Intent:           intent,
		Confidence:       confidence,
		SafetyFlags:      safetyFlags,
	})
}

func asString(value any) string {
	text, _ := value.(string)
	return text
}

// BuildModelSystemPrompt is the fixed persona and boundary instruction sent to
// the model on every turn.
func BuildModelSystemPrompt() string {
	return strings.Join([]string{
		"You are Remy, the Rest Easy companion.",
		"Only provide guidance within Rest Easy readiness planning.",
		"Do not provide legal, financial, medical, or political advice.",
		"Never invent user data. If uncertain, say what is unknown.",
		"Tone: calm, supportive, concise, direct.",
		"Focus on one practical next step per response.",
		"Do not expose internal analytics or backend details (no percentages, weights, section IDs, question IDs, source refs, or raw assessment keys).",
		"Do not use phrases like 'current answer is' or mention schema/report internals.",
		"Return JSON only that matches the remy_chat_turn function schema.",
	}, " ")
}

// HistoryItem is one prior turn fed back into the model prompt.
type HistoryItem struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

func summarizeProgressState(score *int) string {
	if score == nil {
		return "progress_not_ready"
	}
	switch {
	case *score >= 75:
		return "strong_progress"
	case *score >= 45:
		return "building_momentum"
	default:
		return "early_progress"
	}
}

func modelSafeText(text string) string {
	cleaned := scrubTransparencyLanguage(stripLinkMarkup(text))
	if cleaned == "" || hasTransparencyLeak(cleaned) {
		return "This step has meaningful readiness impact right now."
	}
	return cleaned
}

// BuildModelUserPrompt serializes the turn context into the single user
// message. All free text is scrubbed of internals before it leaves.
func BuildModelUserPrompt(context ChatContext, history []HistoryItem) string {
	if len(history) > 8 {
		history = history[len(history)-8:]
	}
	lines := make([]string, 0, len(history))
	for _, item := range history {
		speaker := "User"
		if item.Role == "assistant" {
			speaker = "Remy"
		}
		lines = append(lines, speaker+": "+modelSafeText(item.Text))
	}

	type promptPriority struct {
		Title  string `json:"title"`
		Reason string `json:"reason"`
	}
	priorities := make([]promptPriority, 0, 3)
	for _, item := range context.Payload.Priorities {
		if len(priorities) == 3 {
			break
		}
		priorities = append(priorities, promptPriority{Title: item.Title, Reason: modelSafeText(item.WhyNow)})
	}

	assessmentStatus, reportStatus := "unknown", "unknown"
	var overallScore *int
	if context.Assessment != nil {
		assessmentStatus = context.Assessment.Status
		reportStatus = string(context.Assessment.ReportStatus)
		overallScore = context.Assessment.OverallScore
	}

	var nudge map[string]any
	if context.Payload.Nudge != nil {
		var ctaLabel any
		if context.Payload.Nudge.CTA != nil {
			ctaLabel = context.Payload.Nudge.CTA.Label
		}
		nudge = map[string]any{
			"title":     context.Payload.Nudge.Title,
			"body":      modelSafeText(context.Payload.Nudge.Body),
			"cta_label": ctaLabel,
		}
	}

	type promptExplanation struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}
	explanations := make([]promptExplanation, 0, 2)
	for _, item := range context.Payload.Explanations {
		if len(explanations) == 2 {
			break
		}
		explanations = append(explanations, promptExplanation{Title: item.Title, Body: modelSafeText(item.Body)})
	}

	input := map[string]any{
		"surface":              string(context.Surface),
		"assessment_status":    assessmentStatus,
		"report_status":        reportStatus,
		"progress_state":       summarizeProgressState(overallScore),
		"top_priorities":       priorities,
		"reassurance":          context.Payload.Reassurance,
		"nudge":                nudge,
		"explanations":         explanations,
		"answer_count":         context.AnswerCount,
		"latest_user_message":  modelSafeText(context.Message),
		"conversation_history": strings.Join(lines, "\n"),
	}

	serialized, err := json.Marshal(input)
	if err != nil {
		serialized = []byte("{}")
	}
	return "Generate one helpful Remy reply from this context:\n" + string(serialized)
}
