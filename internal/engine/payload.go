package engine

import (
	"fmt"
	"math"
	"sort"
	"time"
)

const DomainScope = "rest_easy_readiness"

type NudgeCTA struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

type Nudge struct {
	ID    string    `json:"id"`
	Title string    `json:"title"`
	Body  string    `json:"body"`
	CTA   *NudgeCTA `json:"cta,omitempty"`
}

type Explanation struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Body       string   `json:"body"`
	SourceRefs []string `json:"source_refs"`
}

type PriorityItem struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Priority   Priority `json:"priority"`
	WhyNow     string   `json:"why_now"`
	TargetHref string   `json:"target_href"`
}

// SurfacePayload is the deterministic guidance block rendered on a screen.
type SurfacePayload struct {
	Surface     Surface        `json:"surface"`
	GeneratedAt time.Time      `json:"generated_at"`
	DomainScope string         `json:"domain_scope"`
	Nudge       *Nudge         `json:"nudge"`
	Explanations []Explanation `json:"explanations"`
	Priorities  []PriorityItem `json:"priorities"`
	Reassurance Reassurance    `json:"reassurance"`
}

// SurfaceInput carries everything the builder needs; it never reaches out to
// storage itself.
type SurfaceInput struct {
	Assessment *AssessmentSnapshot
	Schema     *Schema
	Profile    map[string]any
	Answers    []AnswerRecord
	// Dismissed maps nudge id to the dismissal's expiry instant.
	Dismissed map[string]time.Time
	Surface   Surface
	SectionID string
	Now       time.Time

	NearFullProgressCutoff int
}

// EmptySurfacePayload is returned before any assessment or schema exists.
func EmptySurfacePayload(surface Surface, now time.Time) SurfacePayload {
	return SurfacePayload{
		Surface:      surface,
		GeneratedAt:  now,
		DomainScope:  DomainScope,
		Explanations: []Explanation{},
		Priorities:   []PriorityItem{},
		Reassurance: Reassurance{
			Title: "No active guidance yet",
			Body:  "Start your readiness flow and Remy will prioritize your next steps.",
		},
	}
}

// ComputeOverallScore derives a weighted 0..100 score from the answered,
// applicable questions. "na" answers are excluded from both numerator and
// denominator. Returns nil when nothing scorable has been answered.
func ComputeOverallScore(schema *Schema, profile map[string]any, answers []AnswerRecord) *int {
	if schema == nil {
		return nil
	}
	answerByID := make(map[string]AnswerRecord, len(answers))
	answerValues := make(map[string]AnswerValue, len(answers))
	for _, answer := range answers {
		answerByID[answer.QuestionID] = answer
		answerValues[answer.QuestionID] = answer.AnswerValue
	}
	weightBySection := sectionWeights(schema)

	var earned, possible float64
	for _, question := range schema.Questions {
		if !EvaluateCondition(question.AppliesIf, profile, answerValues) {
			continue
		}
		answer, ok := answerByID[question.ID]
		if !ok || answer.AnswerValue == AnswerNA || answer.ScoreFraction == nil {
			continue
		}
		weight := weightBySection[question.SectionID]
		earned += weight * (*answer.ScoreFraction)
		possible += weight
	}
	if possible == 0 {
		return nil
	}
	score := int(math.Round(earned / possible * 100))
	return &score
}

func sectionWeights(schema *Schema) map[string]float64 {
	weights := make(map[string]float64, len(schema.Sections))
	for _, section := range schema.Sections {
		weight := section.Weight
		if weight <= 0 {
			weight = 1
		}
		weights[section.ID] = weight
	}
	return weights
}

// BuildSurfacePayload assembles the full guidance payload for one screen. Same
// inputs always produce the same payload apart from GeneratedAt.
func BuildSurfacePayload(input SurfaceInput) SurfacePayload {
	now := input.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	if input.Assessment == nil || input.Schema == nil {
		return EmptySurfacePayload(input.Surface, now)
	}

	answerByID := make(map[string]AnswerRecord, len(input.Answers))
	answerValues := make(map[string]AnswerValue, len(input.Answers))
	for _, answer := range input.Answers {
		answerByID[answer.QuestionID] = answer
		answerValues[answer.QuestionID] = answer.AnswerValue
	}

	labelBySection := make(map[string]string, len(input.Schema.Sections))
	weightBySection := sectionWeights(input.Schema)
	for _, section := range input.Schema.Sections {
		labelBySection[section.ID] = section.Label
	}

	var applicable []SchemaQuestion
	for _, question := range input.Schema.Questions {
		if EvaluateCondition(question.AppliesIf, input.Profile, answerValues) {
			applicable = append(applicable, question)
		}
	}

	type sectionStat struct{ total, answered int }
	statsBySection := make(map[string]*sectionStat)
	totalAnswered := 0
	for _, question := range applicable {
		stat := statsBySection[question.SectionID]
		if stat == nil {
			stat = &sectionStat{}
			statsBySection[question.SectionID] = stat
		}
		stat.total++
		if _, ok := answerByID[question.ID]; ok {
			stat.answered++
			totalAnswered++
		}
	}

	progressPercent := 0
	if len(applicable) > 0 {
		progressPercent = int(math.Round(float64(totalAnswered) / float64(len(applicable)) * 100))
	}
	completedSections := 0
	for _, stat := range statsBySection {
		if stat.total > 0 && stat.total == stat.answered {
			completedSections++
		}
	}

	var improvements []ImprovementItem
	for _, question := range applicable {
		answer, ok := answerByID[question.ID]
		if !ok {
			continue
		}
		scoreFraction := 0.0
		if answer.ScoreFraction != nil {
			scoreFraction = *answer.ScoreFraction
		}
		if scoreFraction >= 1 {
			continue
		}
		weight := weightBySection[question.SectionID]
		label := labelBySection[question.SectionID]
		if label == "" {
			label = question.SectionID
		}
		questionText := answer.QuestionText
		if questionText == "" {
			questionText = question.Prompt
		}
		answerLabel := answer.AnswerLabel
		if answerLabel == "" {
			answerLabel = string(answer.AnswerValue)
		}
		improvements = append(improvements, ImprovementItem{
			QuestionID:    question.ID,
			SectionID:     question.SectionID,
			SectionLabel:  label,
			QuestionText:  questionText,
			CurrentAnswer: string(answer.AnswerValue),
			AnswerLabel:   answerLabel,
			ScoreFraction: scoreFraction,
			SectionWeight: weight,
			Priority:      GetPriority(scoreFraction, weight),
			PriorityScore: PriorityScore(scoreFraction, weight, answer.AnswerValue, input.Assessment.ReportStale),
		})
	}
	sort.SliceStable(improvements, func(i, j int) bool {
		return improvements[i].PriorityScore > improvements[j].PriorityScore
	})

	scoped := improvements
	if input.Surface == SurfaceSectionSummary && input.SectionID != "" {
		scoped = nil
		for _, item := range improvements {
			if item.SectionID == input.SectionID {
				scoped = append(scoped, item)
			}
		}
	}

	priorities := make([]PriorityItem, 0, 3)
	for _, item := range scoped {
		if len(priorities) == 3 {
			break
		}
		priorities = append(priorities, PriorityItem{
			ID:         item.QuestionID,
			Title:      item.QuestionText,
			Priority:   item.Priority,
			WhyNow:     describePriorityReason(item.Priority),
			TargetHref: QuestionHref(item.SectionID, item.QuestionID, input.Surface),
		})
	}

	var topPriority *ImprovementItem
	if len(scoped) > 0 {
		topPriority = &scoped[0]
	}
	var nextUnanswered *SchemaQuestion
	for i := range applicable {
		if _, ok := answerByID[applicable[i].ID]; !ok {
			nextUnanswered = &applicable[i]
			break
		}
	}

	nudge := pickNudge(input.Surface, topPriority, nextUnanswered, labelBySection, input.Assessment, input.Dismissed, now)

	explanations := make([]Explanation, 0, 3)
	limit := 2
	if len(scoped) < limit {
		limit = len(scoped)
	}
	for _, item := range scoped[:limit] {
		explanations = append(explanations, Explanation{
			ID:    "exp:" + item.QuestionID,
			Title: fmt.Sprintf("Why %s is prioritized", item.SectionLabel),
			Body:  describeExplanationBody(item.Priority),
			SourceRefs: []string{
				"section:" + item.SectionID,
				"question:" + item.QuestionID,
				"assessment:report_status:" + string(input.Assessment.ReportStatus),
			},
		})
	}
	if input.Assessment.ReportStale {
		explanations = append(explanations, Explanation{
			ID:         "exp:report-stale",
			Title:      "Why your report status matters",
			Body:       "Recent answer and profile updates are being reflected so priorities stay aligned with your latest state.",
			SourceRefs: []string{"assessment:report_stale", "assessment:last_answer_at"},
		})
	}

	overallScore := input.Assessment.OverallScore
	if overallScore == nil {
		overallScore = ComputeOverallScore(input.Schema, input.Profile, input.Answers)
	}

	return SurfacePayload{
		Surface:      input.Surface,
		GeneratedAt:  now,
		DomainScope:  DomainScope,
		Nudge:        nudge,
		Explanations: explanations,
		Priorities:   priorities,
		Reassurance: BuildReassurance(progressPercent, completedSections, overallScore,
			input.Assessment.ReportStale, input.NearFullProgressCutoff),
	}
}

func isDismissed(dismissed map[string]time.Time, nudgeID string, now time.Time) bool {
	expiresAt, ok := dismissed[nudgeID]
	if !ok {
		return false
	}
	return expiresAt.After(now)
}

// pickNudge walks a fixed ladder: top improvement, next unanswered question,
// report state, cold start. Dismissals suppress a rung until they expire.
func pickNudge(
	surface Surface,
	topPriority *ImprovementItem,
	nextUnanswered *SchemaQuestion,
	labelBySection map[string]string,
	assessment *AssessmentSnapshot,
	dismissed map[string]time.Time,
	now time.Time,
) *Nudge {
	if topPriority != nil {
		nudgeID := "improve:" + topPriority.QuestionID
		if !isDismissed(dismissed, nudgeID, now) {
			nudge := &Nudge{
				ID:    nudgeID,
				Title: "Prioritize " + topPriority.SectionLabel,
				Body:  fmt.Sprintf("Your answer on %q has high impact. Improving this now strengthens readiness quickly.", topPriority.QuestionText),
			}
			switch surface {
			case SurfaceResults:
				nudge.CTA = &NudgeCTA{Label: "Review action plan", Href: "/results#action-plan"}
			case SurfaceSectionSummary:
				nudge.CTA = &NudgeCTA{Label: "Review this section", Href: "/readiness?section=" + topPriority.SectionID}
			default:
				nudge.CTA = &NudgeCTA{
					Label: "Do this now",
					Href:  QuestionHref(topPriority.SectionID, topPriority.QuestionID, surface),
				}
			}
			return nudge
		}
	}

	if nextUnanswered != nil {
		sectionLabel := labelBySection[nextUnanswered.SectionID]
		if sectionLabel == "" {
			sectionLabel = "next section"
		}
		nudgeID := "continue:" + nextUnanswered.ID
		if !isDismissed(dismissed, nudgeID, now) {
			return &Nudge{
				ID:    nudgeID,
				Title: "Continue " + sectionLabel,
				Body:  "A few more answers unlock clearer recommendations and better prioritization.",
				CTA: &NudgeCTA{
					Label: "Continue",
					Href:  fmt.Sprintf("/readiness?section=%s&question=%s", nextUnanswered.SectionID, nextUnanswered.ID),
				},
			}
		}
	}

	switch {
	case assessment.ReportStatus == ReportGenerating:
		return &Nudge{
			ID:    "report:generating",
			Title: "Your report is updating",
			Body:  "Remy is preparing refreshed guidance from your latest answers.",
			CTA:   &NudgeCTA{Label: "View progress", Href: "/results"},
		}
	case assessment.ReportStatus == ReportReady && assessment.ReportStale:
		return &Nudge{
			ID:    "report:stale",
			Title: "Your guidance can be refreshed",
			Body:  "You made updates. Remy will keep priorities aligned with your latest state as the report refreshes.",
			CTA:   &NudgeCTA{Label: "Open report", Href: "/results"},
		}
	case assessment.ReportStatus == ReportReady:
		return &Nudge{
			ID:    "report:ready",
			Title: "Review your latest priorities",
			Body:  "Remy has identified focused next actions in your report and roadmap.",
			CTA:   &NudgeCTA{Label: "Open report", Href: "/results"},
		}
	}

	return &Nudge{
		ID:    "remy:start",
		Title: "Start your readiness plan",
		Body:  "Answering your first section gives Remy enough context to prioritize meaningful next steps.",
		CTA:   &NudgeCTA{Label: "Start assessment", Href: "/readiness"},
	}
}

func describePriorityReason(priority Priority) string {
	switch priority {
	case PriorityHigh:
		return "Completing this step now can make a meaningful difference in your readiness plan."
	case PriorityMedium:
		return "This step can strengthen your readiness and is worth tackling soon."
	default:
		return "This step keeps your plan complete and up to date."
	}
}

func describeExplanationBody(priority Priority) string {
	switch priority {
	case PriorityHigh:
		return "This is one of the strongest opportunities to improve your readiness right now."
	case PriorityMedium:
		return "This is a useful next step to keep your readiness momentum going."
	default:
		return "This item still supports your overall readiness progress."
	}
}
