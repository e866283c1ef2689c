package engine

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// PolicyMode names the single conversational policy in effect: the assistant
// only ever directs users into the app, it never collects planning data.
type PolicyMode string

const PolicyAppDirectedOnly PolicyMode = "app_directed_only"

// PlannerInput is everything one turn is planned against.
type PlannerInput struct {
	Context      ChatContext
	BaseResponse ChatTurnResponse
	History      []HistoryItem
	StateRaw     []byte
	Capability   *CapabilityContext
	Schema       *Schema
	Now          time.Time

	DeclineTTL               time.Duration
	ReassuranceCooldownTurns int
}

// PlannerResult is the planner's full output for one turn.
type PlannerResult struct {
	Response                 ChatTurnResponse
	State                    ConversationState
	Goal                     TurnGoal
	ScoreBand                ScoreBand
	PolicyMode               PolicyMode
	CapabilityUsed           string
	RepetitionGuardTriggered bool
}

var appDataCollectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bwho\s+(would|should|do)\s+you\s+(want|choose|designate)\b`),
	regexp.MustCompile(`(?i)\bshare\s+(the\s+)?list\b`),
	regexp.MustCompile(`(?i)\blist\s+of\s+accounts\b`),
	regexp.MustCompile(`(?i)\bplease\s+share\b`),
	regexp.MustCompile(`(?i)\bwhat\s+accounts\s+do\s+you\s+have\b`),
	regexp.MustCompile(`(?i)\bwho\s+is\s+the\s+beneficiar`),
	regexp.MustCompile(`(?i)\bdesignate\s+the\s+beneficiar`),
}

var actionRequestPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bwhat\s+should\s+i\s+do\s+(next|first)\b`),
	regexp.MustCompile(`(?i)\bwhere\s+do\s+i\s+start\b`),
	regexp.MustCompile(`(?i)\bshow\s+my\s+next\s+step\b`),
	regexp.MustCompile(`(?i)\bnext\s+step\b`),
	regexp.MustCompile(`(?i)\bopen\b`),
	regexp.MustCompile(`(?i)\bgo\s+to\b`),
	regexp.MustCompile(`(?i)\bnavigate\b`),
	regexp.MustCompile(`(?i)\bupdate\s+this\s+question\b`),
}

var (
	greetingPattern       = regexp.MustCompile(`^(hi|hello|hey|good\s+(morning|afternoon|evening))\b`)
	scoreGoalPattern      = regexp.MustCompile(`\b(score|rating|grade|why\s+is\s+my\s+score|tell\s+me\s+about\s+my\s+score)\b`)
	skipGoalPattern       = regexp.MustCompile(`\b(skip|not\s+ready|don\s*t\s+want|do\s+not\s+want|other\s+options|something\s+else)\b`)
	routeGoalPattern      = regexp.MustCompile(`\b(update|change|edit|set\s*up|setting\s+up|beneficiar|trust|will|power\s+of\s+attorney|advance\s+directive)\b`)
	strengthsGoalPattern  = regexp.MustCompile(`\b(strengths?|doing\s+well|going\s+well|doing\s+right|what\s+is\s+strong)\b`)
	reportGoalPattern     = regexp.MustCompile(`\b(report|results|summary|executive\s+summary|action\s+plan)\b`)
	vaultProgressPattern  = regexp.MustCompile(`\b(vault\s+(progress|status)|how\s+many\s+documents|documents?\s+(am\s+i\s+)?missing|missing\s+documents?|document\s+progress)\b`)
	vaultUploadPattern    = regexp.MustCompile(`\b(upload|store|save|add)\b[\s\S]*\b(document|file|vault|directive|hipaa|will|poa|trust|letter)\b|\bvault\b`)
	questionLookupPattern = regexp.MustCompile(`\b(which\s+question|what\s+question|where\s+is\s+the\s+question|find\s+the\s+question|question\s+about)\b`)
	wayfindingGoalPattern = regexp.MustCompile(`\b(where\s+(is|are|do|can)|navigate|go\s+to|take\s+me|show\s+me\s+the|i\s*m\s+lost|lost)\b`)
)

// ClassifyTurnGoal maps a raw message to one of the fine-grained goals.
// Specific report, vault, and wayfinding shapes are checked before the generic
// action-request patterns so "show me my report" never degrades to next_step.
func ClassifyTurnGoal(message string) TurnGoal {
	normalized := NormalizeText(message)
	switch {
	case normalized == "":
		return GoalClarification
	case IsOutOfDomainMessage(message):
		return GoalOutOfScope
	case greetingPattern.MatchString(normalized):
		return GoalGreeting
	case scoreGoalPattern.MatchString(normalized):
		return GoalScoreExplain
	case strengthsGoalPattern.MatchString(normalized):
		return GoalReportStrengths
	case reportGoalPattern.MatchString(normalized):
		return GoalReportSummary
	case vaultProgressPattern.MatchString(normalized):
		return GoalVaultProgress
	case vaultUploadPattern.MatchString(normalized):
		return GoalVaultUpload
	case questionLookupPattern.MatchString(normalized):
		return GoalQuestionLookup
	case wayfindingGoalPattern.MatchString(normalized):
		return GoalUIWayfinding
	case skipGoalPattern.MatchString(normalized):
		return GoalSkipPriority
	case matchesAny(normalized, actionRequestPatterns):
		return GoalNextStep
	case routeGoalPattern.MatchString(normalized):
		return GoalRouteToQuestion
	default:
		return GoalClarification
	}
}

func matchesAny(text string, patterns []*regexp.Regexp) bool {
	for _, pattern := range patterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}

// ScoreBandSummary states the literal score and its band name, or admits the
// score is missing. Never paraphrases the number away.
func ScoreBandSummary(band ScoreBand, overallScore *int) string {
	if overallScore == nil || band == BandUnavailable {
		return "I don't have your latest readiness score yet."
	}
	return fmt.Sprintf("Your readiness score is %d/100, which is in the %s range.", *overallScore, BandLabel(band))
}

func isPersonalDataCollectionPrompt(text string) bool {
	return matchesAny(text, appDataCollectionPatterns)
}

var (
	whoDesignatePattern  = regexp.MustCompile(`(?i)\bwho\s+(would|should|do)\s+you\s+(want|choose|designate)[^?.!]*[?.!]?`)
	pleaseSharePattern   = regexp.MustCompile(`(?i)\bplease\s+share[^?.!]*[?.!]?`)
	listAccountsPattern  = regexp.MustCompile(`(?i)\blist\s+of\s+accounts[^?.!]*[?.!]?`)
)

func stripDataCollectionLanguage(text string) string {
	out := whoDesignatePattern.ReplaceAllString(text, "")
	out = pleaseSharePattern.ReplaceAllString(out, "")
	out = listAccountsPattern.ReplaceAllString(out, "")
	return strings.TrimSpace(multiSpacePattern.ReplaceAllString(out, " "))
}

func hasRepetition(candidate string, history []HistoryItem) bool {
	var assistantTurns []string
	for _, item := range history {
		if item.Role == "assistant" {
			assistantTurns = append(assistantTurns, item.Text)
		}
	}
	if len(assistantTurns) > 3 {
		assistantTurns = assistantTurns[len(assistantTurns)-3:]
	}
	normalizedCandidate := NormalizeText(candidate)
	for _, turn := range assistantTurns {
		normalizedExisting := NormalizeText(turn)
		if normalizedExisting == "" {
			continue
		}
		if normalizedExisting == normalizedCandidate {
			return true
		}
		if JaccardSimilarity(normalizedExisting, normalizedCandidate) >= 0.88 {
			return true
		}
	}
	return false
}

func isExplicitlyAskingForPriority(message string, priority PriorityItem) bool {
	messageTokens := TokenSet(message)
	priorityTokens := TokenSet(priority.Title)
	if len(messageTokens) == 0 || len(priorityTokens) == 0 {
		return false
	}
	overlap := 0
	for token := range priorityTokens {
		if _, ok := messageTokens[token]; ok {
			overlap++
		}
	}
	if overlap >= 2 {
		return true
	}
	normalizedPriority := NormalizeText(priority.Title)
	return len(normalizedPriority) > 8 && strings.Contains(NormalizeText(message), normalizedPriority)
}

func findPriorityByID(priorities []PriorityItem, id string) *PriorityItem {
	if id == "" {
		return nil
	}
	for i := range priorities {
		if priorities[i].ID == id {
			return &priorities[i]
		}
	}
	return nil
}

func matchPriorityFromMessage(message string, priorities []PriorityItem) *PriorityItem {
	normalizedMessage := NormalizeText(message)
	messageTokens := TokenSet(message)

	var best *PriorityItem
	bestScore := 0
	for i := range priorities {
		item := &priorities[i]
		score := 0
		normalizedTitle := NormalizeText(item.Title)
		if normalizedTitle != "" && strings.Contains(normalizedMessage, normalizedTitle) {
			score += 5
		}
		for token := range TokenSet(item.Title) {
			if _, ok := messageTokens[token]; ok {
				score++
			}
		}
		if strings.Contains(normalizedMessage, "beneficiar") && strings.Contains(normalizedTitle, "beneficiar") {
			score += 4
		}
		if best == nil || score > bestScore {
			best = item
			bestScore = score
		}
	}
	if best == nil || bestScore < 2 {
		return nil
	}
	return best
}

func firstEligiblePriority(priorities []PriorityItem, state *ConversationState, now time.Time, message string) *PriorityItem {
	if explicit := matchPriorityFromMessage(message, priorities); explicit != nil {
		return explicit
	}
	for i := range priorities {
		if !state.IsDeclined(priorities[i].ID, now) {
			return &priorities[i]
		}
	}
	if len(priorities) > 0 {
		return &priorities[0]
	}
	return nil
}

func goalAllowsCTA(goal TurnGoal, reportAvailable bool) bool {
	switch goal {
	case GoalNextStep, GoalSkipPriority, GoalRouteToQuestion,
		GoalQuestionLookup, GoalVaultUpload, GoalUIWayfinding:
		return true
	case GoalReportSummary, GoalReportStrengths:
		return reportAvailable
	default:
		return false
	}
}

func goalCapability(goal TurnGoal) string {
	switch goal {
	case GoalVaultProgress, GoalVaultUpload:
		return "vault"
	case GoalReportSummary, GoalReportStrengths:
		return "report"
	case GoalUIWayfinding:
		return "navigation"
	case GoalQuestionLookup, GoalRouteToQuestion, GoalNextStep, GoalSkipPriority:
		return "readiness"
	default:
		return ""
	}
}

func routeMessage(scoreIntro string, target *PriorityItem, ctaLabel string) (string, *ChatCTA) {
	if target == nil {
		return scoreIntro + " I can guide you to the exact readiness question you want to update. Tell me which topic you'd like to work on next.", nil
	}
	text := fmt.Sprintf("%s Let's update this directly in your readiness flow: %q. Open the question, make your update there, and I'll guide you on what to do next.",
		scoreIntro, target.Title)
	return text, &ChatCTA{ID: target.ID, Label: ctaLabel, Href: target.TargetHref}
}

func disambiguationMessage(intro string, primary RouteOption, alternatives []RouteOption) string {
	options := []string{fmt.Sprintf("%q", primary.Label)}
	for _, alt := range alternatives {
		options = append(options, fmt.Sprintf("%q", alt.Label))
	}
	return fmt.Sprintf("%s I found a few close matches: %s. Which one would you like to open?",
		intro, strings.Join(options, ", "))
}

func repetitionFallbackMessage(goal TurnGoal, scoreIntro string, target *PriorityItem) string {
	switch goal {
	case GoalScoreExplain:
		if target != nil {
			return fmt.Sprintf("%s A practical next move is %q. Updating it in the app will improve your readiness plan clarity.", scoreIntro, target.Title)
		}
		return scoreIntro + " I can walk you through your next best update in the readiness flow."
	case GoalNextStep:
		if target != nil {
			return fmt.Sprintf("%s Let's focus on %q next. Open that question in the app so your plan updates immediately.", scoreIntro, target.Title)
		}
		return scoreIntro + " Let's open your next readiness question and move one step forward."
	case GoalReportSummary, GoalReportStrengths:
		return scoreIntro + " Your full report in the app has the complete picture. I can point you to the part that matters most next."
	case GoalVaultProgress, GoalVaultUpload:
		return scoreIntro + " EasyVault shows exactly which documents are saved and which are still open. I can take you there."
	default:
		return scoreIntro + " I can point you to the exact step in the app and keep your plan moving forward."
	}
}

// ApplyConversationPolicy is the turn planner. It re-derives the goal from the
// raw message, enforces the safety and repetition policies on the candidate
// reply, resolves the CTA, and returns the updated conversation state.
func ApplyConversationPolicy(input PlannerInput) PlannerResult {
	now := input.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	declineTTL := input.DeclineTTL
	if declineTTL <= 0 {
		declineTTL = 24 * time.Hour
	}
	cooldownTurns := input.ReassuranceCooldownTurns
	if cooldownTurns <= 0 {
		cooldownTurns = 4
	}

	state := NormalizeConversationState(input.StateRaw, now)
	state.TurnCount++

	context := input.Context
	goal := ClassifyTurnGoal(context.Message)

	var overallScore *int
	if context.Assessment != nil {
		overallScore = context.Assessment.OverallScore
	}
	band := GetScoreBand(overallScore)
	scoreIntro := ScoreBandSummary(band, overallScore)
	priorities := context.Payload.Priorities

	target := firstEligiblePriority(priorities, &state, now, context.Message)
	var alternatives []PriorityItem

	if goal == GoalSkipPriority {
		declined := findPriorityByID(priorities, state.LastTargetQuestionID)
		if declined == nil && len(priorities) > 0 {
			declined = &priorities[0]
		}
		if declined != nil {
			state.Decline(declined.ID, now, declineTTL)
		}
		target = firstEligiblePriority(priorities, &state, now, context.Message)
	}
	for i := range priorities {
		if target != nil && priorities[i].ID == target.ID {
			continue
		}
		if state.IsDeclined(priorities[i].ID, now) {
			continue
		}
		if len(alternatives) == 2 {
			break
		}
		alternatives = append(alternatives, priorities[i])
	}

	if target != nil && state.IsDeclined(target.ID, now) && !isExplicitlyAskingForPriority(context.Message, *target) {
		for i := range priorities {
			if !state.IsDeclined(priorities[i].ID, now) {
				target = &priorities[i]
				break
			}
		}
	}

	capability := input.Capability
	reportAvailable := capability != nil && capability.Report.Available

	assistantMessage := stripDataCollectionLanguage(input.BaseResponse.AssistantMessage)
	cta := input.BaseResponse.CTA
	intent := input.BaseResponse.Intent

	switch goal {
	case GoalOutOfScope:
		assistantMessage = "I can help only with Rest Easy readiness guidance. I can explain your score, suggest your next step, and route you to the right question in the app."
		cta = nil
		intent = IntentUnknown

	case GoalGreeting:
		assistantMessage = scoreIntro + " I can guide you to your best next readiness step whenever you're ready."
		cta = nil
		intent = IntentReassure

	case GoalScoreExplain:
		if target != nil {
			assistantMessage = fmt.Sprintf("%s A high-impact area to improve now is %q. I can point you to that question when you want to take action.", scoreIntro, target.Title)
		} else {
			assistantMessage = scoreIntro + " I can walk you through the most impactful step to improve it."
		}
		cta = nil
		intent = IntentExplainScore

	case GoalNextStep:
		if target != nil {
			assistantMessage = fmt.Sprintf("%s A practical next step is %q. Open that question in your readiness flow to update it directly.", scoreIntro, target.Title)
			cta = &ChatCTA{ID: target.ID, Label: "Show my next step", Href: target.TargetHref}
		} else {
			assistantMessage = scoreIntro + " Continue your readiness flow and I will guide the next best step."
			cta = nil
		}
		intent = IntentPlanNext

	case GoalSkipPriority:
		if target != nil {
			alternativesLine := ""
			if len(alternatives) > 0 {
				quoted := make([]string, 0, len(alternatives))
				for _, item := range alternatives {
					quoted = append(quoted, fmt.Sprintf("%q", item.Title))
				}
				alternativesLine = " Other options include " + strings.Join(quoted, " and ") + "."
			}
			assistantMessage = fmt.Sprintf("%s No problem, we can skip that for now. Let's move to %q instead.%s", scoreIntro, target.Title, alternativesLine)
			cta = &ChatCTA{ID: target.ID, Label: "Show my next step", Href: target.TargetHref}
		} else {
			assistantMessage = scoreIntro + " No problem, we can skip that item for now and revisit your next best step anytime."
			cta = nil
		}
		intent = IntentPlanNext

	case GoalRouteToQuestion:
		assistantMessage, cta = routeMessage(scoreIntro, target, "Update this question")
		intent = IntentClarify

	case GoalQuestionLookup:
		resolution := ResolveReadinessQuestionRoute(context.Message, input.Schema, context.Surface)
		switch {
		case resolution != nil && resolution.Ambiguous:
			assistantMessage = disambiguationMessage(scoreIntro, resolution.RouteOption, resolution.Alternatives)
			cta = nil
		case resolution != nil:
			assistantMessage = fmt.Sprintf("%s That's covered in your readiness flow: %q. You can answer or update it right there.", scoreIntro, resolution.Label)
			cta = &ChatCTA{ID: resolution.TargetID, Label: "Open this question", Href: resolution.Href}
		default:
			assistantMessage = scoreIntro + " Tell me the topic you're looking for and I'll find the matching readiness question."
			cta = nil
		}
		intent = IntentClarify

	case GoalVaultProgress:
		if capability != nil && capability.Vault.ApplicableCount > 0 {
			vault := capability.Vault
			assistantMessage = fmt.Sprintf("You've saved %d of %d key documents in EasyVault.", vault.CompletedCount, vault.ApplicableCount)
			if len(vault.MissingHighPriorityDocs) > 0 {
				names := make([]string, 0, len(vault.MissingHighPriorityDocs))
				for _, doc := range vault.MissingHighPriorityDocs {
					names = append(names, doc.Name)
				}
				assistantMessage += " The most important ones still open are " + strings.Join(names, ", ") + "."
			} else {
				assistantMessage += " Every high-priority document is in place."
			}
		} else {
			assistantMessage = "I can't read your vault progress right now, but EasyVault in the app shows exactly which documents are saved."
		}
		cta = nil
		intent = IntentClarify

	case GoalVaultUpload:
		var resolution *RouteResolution
		if capability != nil && capability.Route != nil &&
			(capability.Route.RouteType == RouteVaultUpload || capability.Route.RouteType == RouteVaultEdit) {
			resolution = capability.Route
		} else {
			resolution = ResolveVaultRoute(context.Message)
		}
		switch {
		case resolution != nil && resolution.Ambiguous:
			assistantMessage = disambiguationMessage("I can open the right vault spot for you.", resolution.RouteOption, resolution.Alternatives)
			cta = nil
		case resolution != nil:
			assistantMessage = fmt.Sprintf("You can do that in EasyVault. I'll take you straight to %q so you can finish it there.", resolution.Label)
			cta = &ChatCTA{ID: resolution.TargetID, Label: resolution.Label, Href: resolution.Href}
		default:
			assistantMessage = "EasyVault is the place for that. Open it from the app and pick the document type you want to add."
			cta = &ChatCTA{ID: "vault", Label: "Open EasyVault", Href: "/vault"}
		}
		intent = IntentPlanNext

	case GoalReportSummary:
		if reportAvailable {
			summary := capability.Report.ExecutiveSummary
			if summary == "" {
				summary = "Your readiness report is ready with your personalized summary and action plan."
			}
			assistantMessage = summary
			if capability.Report.Stale {
				assistantMessage += " You've made updates since it was generated, so a refresh is on the way."
			}
			cta = &ChatCTA{ID: "report", Label: "Open report", Href: "/results"}
		} else if context.Assessment != nil && context.Assessment.ReportStatus == ReportGenerating {
			assistantMessage = "Your report is being prepared from your latest answers. It will be ready shortly."
			cta = nil
		} else {
			assistantMessage = scoreIntro + " Your report isn't ready yet. A few more answers will unlock it."
			cta = nil
		}
		intent = IntentClarify

	case GoalReportStrengths:
		if reportAvailable && len(capability.Report.Strengths) > 0 {
			assistantMessage = "Here's what you're doing well: " + strings.Join(capability.Report.Strengths, "; ") + "."
			cta = &ChatCTA{ID: "report", Label: "Open report", Href: "/results"}
		} else if reportAvailable {
			assistantMessage = "Your report is ready. Open it to see the areas where your plan is already strong."
			cta = &ChatCTA{ID: "report", Label: "Open report", Href: "/results"}
		} else {
			assistantMessage = scoreIntro + " Once your report is ready I can highlight exactly where your plan is strongest."
			cta = nil
		}
		intent = IntentExplainScore

	case GoalUIWayfinding:
		resolution := ResolveNavigationRoute(context.Message)
		switch {
		case resolution != nil && resolution.Ambiguous:
			assistantMessage = disambiguationMessage("I can take you there.", resolution.RouteOption, resolution.Alternatives)
			cta = nil
		case resolution != nil:
			purpose := ""
			if navTarget := FindNavigationTarget(resolution.TargetID); navTarget != nil {
				purpose = " " + navTarget.Purpose
			}
			assistantMessage = fmt.Sprintf("%s is what you're after.%s", resolution.Label, purpose)
			cta = &ChatCTA{ID: resolution.TargetID, Label: resolution.Label, Href: resolution.Href}
		default:
			assistantMessage = "Tell me what you're trying to find and I'll point you to the right part of the app."
			cta = nil
		}
		intent = IntentClarify

	default: // clarification
		if target != nil {
			assistantMessage = fmt.Sprintf("%s I can guide you through %q next, then we can reassess your plan together.", scoreIntro, target.Title)
		} else {
			assistantMessage = scoreIntro + " I can guide you to the exact question to update next."
		}
		cta = nil
		intent = IntentClarify
	}

	// The assistant never collects planning data in chat; such prompts become
	// a redirect into the structured readiness flow.
	if isPersonalDataCollectionPrompt(assistantMessage) || isPersonalDataCollectionPrompt(input.BaseResponse.AssistantMessage) {
		assistantMessage, cta = routeMessage(scoreIntro, target, "Update this question")
		intent = IntentClarify
	}

	repetitionTriggered := false
	if hasRepetition(assistantMessage, input.History) {
		assistantMessage = repetitionFallbackMessage(goal, scoreIntro, target)
		repetitionTriggered = true
	}

	if goal == GoalGreeting || goal == GoalClarification {
		throttled := state.LastReassuranceTurn > 0 && state.TurnCount-state.LastReassuranceTurn < cooldownTurns
		if !throttled {
			assistantMessage += " We'll take this one step at a time together."
			state.LastReassuranceTurn = state.TurnCount
		}
	}

	if !goalAllowsCTA(goal, reportAvailable) {
		cta = nil
	}
	if cta != nil && SanitizeInternalPath(cta.Href) == "" {
		cta = nil
	}

	state.LastGoal = goal
	if target != nil {
		state.LastTargetQuestionID = target.ID
	} else {
		state.LastTargetQuestionID = ""
	}
	state.LastCapability = goalCapability(goal)
	if cta != nil {
		state.LastRoute = cta.Href
	} else {
		state.LastRoute = ""
	}

	quickReplies := input.BaseResponse.QuickReplies
	if len(quickReplies) == 0 {
		quickReplies = []string{"What should I do next?", "Explain my score", "Help me update a question"}
	}
	if len(quickReplies) > 3 {
		quickReplies = quickReplies[:3]
	}

	response := input.BaseResponse
	response.AssistantMessage = assistantMessage
	response.CTA = cta
	response.Intent = intent
	response.QuickReplies = quickReplies

	return PlannerResult{
		Response:                 response,
		State:                    state,
		Goal:                     goal,
		ScoreBand:                band,
		PolicyMode:               PolicyAppDirectedOnly,
		CapabilityUsed:           goalCapability(goal),
		RepetitionGuardTriggered: repetitionTriggered,
	}
}
