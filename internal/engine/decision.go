package engine

import "fmt"

// Priority is the coarse urgency tier assigned to an improvement item.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// GetPriority assigns the tier from the question's score fraction and its
// section weight. Raising the weight or lowering the score never lowers the
// tier.
func GetPriority(scoreFraction, sectionWeight float64) Priority {
	if sectionWeight >= 15 && scoreFraction < 0.5 {
		return PriorityHigh
	}
	if sectionWeight >= 10 || scoreFraction == 0 {
		return PriorityMedium
	}
	return PriorityLow
}

// PriorityScore is a weighted-urgency heuristic used purely for ranking, not a
// probability.
func PriorityScore(scoreFraction, sectionWeight float64, answerValue AnswerValue, reportStale bool) float64 {
	score := sectionWeight * (1 - scoreFraction) * 10
	if answerValue == AnswerNo {
		score += 20
	}
	if answerValue == AnswerNotSure {
		score += 12
	}
	if reportStale {
		score += 5
	}
	return score
}

// ScoreBand names the half-open interval an overall score falls into.
type ScoreBand string

const (
	BandEarly       ScoreBand = "early_readiness"
	BandDeveloping  ScoreBand = "developing_readiness"
	BandAdvancing   ScoreBand = "advancing_readiness"
	BandNearFull    ScoreBand = "near_full_readiness"
	BandUnavailable ScoreBand = "score_unavailable"
)

// GetScoreBand partitions scores into four bands. Boundary values map to the
// higher band; a missing score maps to BandUnavailable.
func GetScoreBand(overallScore *int) ScoreBand {
	if overallScore == nil {
		return BandUnavailable
	}
	score := *overallScore
	switch {
	case score < 40:
		return BandEarly
	case score < 60:
		return BandDeveloping
	case score < 80:
		return BandAdvancing
	default:
		return BandNearFull
	}
}

// BandLabel is the user-facing name of a band, used when the planner states
// the literal score.
func BandLabel(band ScoreBand) string {
	switch band {
	case BandEarly:
		return "early readiness"
	case BandDeveloping:
		return "developing readiness"
	case BandAdvancing:
		return "advancing readiness"
	case BandNearFull:
		return "near full readiness"
	default:
		return "not yet scored"
	}
}

// Reassurance is a holistic encouragement pair shown alongside priorities.
type Reassurance struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// BuildReassurance picks the encouragement copy. When a score exists the band
// drives the choice, but the near-full framing additionally requires answer
// progress at or above nearFullProgressCutoff so one lucky high score cannot
// claim the user is nearly done. Without a score a progress ladder is used.
func BuildReassurance(progressPercent, completedSections int, overallScore *int, reportStale bool, nearFullProgressCutoff int) Reassurance {
	band := GetScoreBand(overallScore)
	if band != BandUnavailable {
		if band == BandNearFull && progressPercent < nearFullProgressCutoff {
			band = BandAdvancing
		}
		switch band {
		case BandEarly:
			return Reassurance{
				Title: "Early progress matters",
				Body:  "Your score reflects a starting point, not a verdict. A few focused updates will move it quickly.",
			}
		case BandDeveloping:
			return Reassurance{
				Title: "You're building real coverage",
				Body:  "Your foundation is in place. Prioritizing a few high-impact gaps now will materially improve readiness.",
			}
		case BandAdvancing:
			return Reassurance{
				Title: "Strong momentum",
				Body:  "Most core areas are covered. Closing the remaining gaps will bring your plan close to complete.",
			}
		default:
			return Reassurance{
				Title: "You're close to full readiness",
				Body:  "Most of the hard work is done. Remy will help you finish the remaining high-value items with clarity.",
			}
		}
	}

	switch {
	case progressPercent == 0:
		return Reassurance{
			Title: "You can start small",
			Body:  "A single completed step creates momentum. Remy will keep the path focused and manageable.",
		}
	case progressPercent < 40:
		return Reassurance{
			Title: "Early progress matters",
			Body: fmt.Sprintf("You've already moved key planning work forward. %d %s complete is meaningful progress.",
				completedSections, pluralSections(completedSections)),
		}
	case progressPercent < 80:
		return Reassurance{
			Title: "You're building real coverage",
			Body:  "Your foundation is in place. Prioritizing a few high-impact gaps now will materially improve readiness.",
		}
	default:
		return Reassurance{
			Title: "You're close to full readiness",
			Body:  "Most of the hard work is done. Remy will help you finish the remaining high-value items with clarity.",
		}
	}
}

func pluralSections(n int) string {
	if n == 1 {
		return "section"
	}
	return "sections"
}
