package engine

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

type RouteType string

const (
	RouteReadinessQuestion RouteType = "readiness_question"
	RouteVaultUpload       RouteType = "vault_upload"
	RouteVaultEdit         RouteType = "vault_edit"
	RouteAppSection        RouteType = "app_section"
)

type RouteOption struct {
	RouteType RouteType `json:"route_type"`
	Href      string    `json:"href"`
	Label     string    `json:"label"`
	TargetID  string    `json:"target_id"`
}

// RouteResolution is the resolver's answer for one message: a primary route
// plus up to two labeled alternatives when the match is ambiguous.
type RouteResolution struct {
	RouteOption
	Confidence   float64       `json:"confidence"`
	Ambiguous    bool          `json:"ambiguous"`
	Alternatives []RouteOption `json:"alternatives"`
	VaultDocID   string        `json:"vault_doc_id,omitempty"`
}

type NavigationTarget struct {
	ID       string
	Href     string
	Label    string
	Purpose  string
	Keywords []string
}

type VaultInputMethod string

const (
	VaultInputUpload VaultInputMethod = "upload"
	VaultInputInline VaultInputMethod = "inline"
)

type VaultDocType struct {
	ID          string
	Name        string
	Category    string
	Priority    string // high | medium | low
	InputMethod VaultInputMethod
	Keywords    []string
}

// NavigationTargets is the fixed list of in-app sections the wayfinding
// matcher can route to.
var NavigationTargets = []NavigationTarget{
	{
		ID: "dashboard", Href: "/dashboard", Label: "Dashboard",
		Purpose:  "See your current readiness snapshot and top priorities.",
		Keywords: []string{"dashboard", "home", "overview", "score", "status"},
	},
	{
		ID: "profile", Href: "/profile", Label: "My Profile",
		Purpose:  "Update your profile details that personalize guidance.",
		Keywords: []string{"profile", "personal info", "family", "household", "trust network"},
	},
	{
		ID: "readiness", Href: "/readiness", Label: "Life Readiness",
		Purpose:  "Answer or update readiness questions section by section.",
		Keywords: []string{"readiness", "assessment", "question", "section", "update answer", "edit question"},
	},
	{
		ID: "results", Href: "/results", Label: "Readiness Report",
		Purpose:  "Review your generated report, strengths, and action plan.",
		Keywords: []string{"report", "results", "summary", "strengths", "doing well", "action plan"},
	},
	{
		ID: "vault", Href: "/vault", Label: "EasyVault",
		Purpose:  "Upload and manage key documents for your readiness journey.",
		Keywords: []string{"vault", "documents", "upload", "file", "directive", "will", "beneficiary"},
	},
	{
		ID: "menu", Href: "/menu", Label: "Menu",
		Purpose:  "Open app tools and quick access navigation options.",
		Keywords: []string{"menu", "settings", "tools"},
	},
}

// VaultDocCatalog is the static document-type catalog the vault matcher and
// the vault completion context share.
var VaultDocCatalog = []VaultDocType{
	{
		ID: "healthcare-directive", Name: "Healthcare Directive", Category: "healthcare",
		Priority: "high", InputMethod: VaultInputUpload,
		Keywords: []string{"healthcare directive", "health directive", "advance directive", "living will", "medical directive"},
	},
	{
		ID: "hipaa-authorization", Name: "HIPAA Authorization", Category: "healthcare",
		Priority: "high", InputMethod: VaultInputUpload,
		Keywords: []string{"hipaa", "medical release", "authorization"},
	},
	{
		ID: "beneficiary-designations", Name: "Beneficiary Designations", Category: "legal",
		Priority: "high", InputMethod: VaultInputUpload,
		Keywords: []string{"beneficiary", "beneficiaries", "designation", "designations"},
	},
	{
		ID: "will-testament", Name: "Will / Testament", Category: "legal",
		Priority: "high", InputMethod: VaultInputUpload,
		Keywords: []string{"will", "testament", "last will"},
	},
	{
		ID: "power-of-attorney", Name: "Power of Attorney", Category: "legal",
		Priority: "high", InputMethod: VaultInputUpload,
		Keywords: []string{"power of attorney", "poa"},
	},
	{
		ID: "trust-documents", Name: "Trust Documents", Category: "legal",
		Priority: "medium", InputMethod: VaultInputUpload,
		Keywords: []string{"trust", "living trust", "trust document"},
	},
	{
		ID: "retirement-accounts", Name: "Retirement Accounts", Category: "financial",
		Priority: "high", InputMethod: VaultInputUpload,
		Keywords: []string{"401k", "retirement", "ira", "pension", "retirement account"},
	},
	{
		ID: "bank-accounts", Name: "Bank Accounts", Category: "financial",
		Priority: "high", InputMethod: VaultInputUpload,
		Keywords: []string{"bank account", "checking", "savings"},
	},
	{
		ID: "digital-account-inventory", Name: "Digital Account Inventory", Category: "digital",
		Priority: "high", InputMethod: VaultInputInline,
		Keywords: []string{"digital account", "online account", "account inventory"},
	},
	{
		ID: "letter-of-intent", Name: "Letter of Intent / Personal Wishes", Category: "personal",
		Priority: "medium", InputMethod: VaultInputInline,
		Keywords: []string{"letter of intent", "personal wishes", "wishes"},
	},
}

var (
	healthDirectivePattern = regexp.MustCompile(`(?i)\b(health\s*care|healthcare|medical)\s+(directive|advance\s+directive|living\s+will)\b`)
	vaultVerbPattern       = regexp.MustCompile(`\b(vault|upload|document|file|add|store|save|edit|update)\b`)
	editVerbPattern        = regexp.MustCompile(`\b(edit|update|change|fix|replace)\b`)
	readinessVocabPattern  = regexp.MustCompile(`\b(readiness|question|answer|section|update|change|edit|beneficiar|trust|will|directive|poa)\b`)
	wayfindingPattern      = regexp.MustCompile(`\b(where|navigate|go to|open|find|lost|take me|show me)\b`)
)

type scoredRoute[T any] struct {
	item  T
	score int
}

// likelyAmbiguous reports whether the runner-up is within one point of the
// winner, with both scoring above zero.
func likelyAmbiguous[T any](ranked []scoredRoute[T]) bool {
	if len(ranked) < 2 {
		return false
	}
	best, second := ranked[0], ranked[1]
	if best.score <= 0 || second.score <= 0 {
		return false
	}
	return second.score >= best.score-1
}

func sortScoredDesc[T any](ranked []scoredRoute[T]) {
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && ranked[j].score > ranked[j-1].score; j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}
}

// ResolveReturnTo picks the returnTo query value for question deep links.
func ResolveReturnTo(surface Surface) string {
	switch surface {
	case SurfaceProfile, SurfaceMenu, SurfaceVault, SurfaceResults, SurfaceReadiness:
		return string(surface)
	default:
		return "dashboard"
	}
}

// QuestionHref builds the readiness-question deep link shape.
func QuestionHref(sectionID, questionID string, surface Surface) string {
	return fmt.Sprintf("/readiness?section=%s&question=%s&returnTo=%s",
		url.QueryEscape(sectionID), url.QueryEscape(questionID), url.QueryEscape(ResolveReturnTo(surface)))
}

func vaultHref(docID string, action string) string {
	return fmt.Sprintf("/vault?doc=%s&action=%s", url.QueryEscape(docID), action)
}

func questionLabel(prompt string) string {
	cleaned := strings.Join(strings.Fields(prompt), " ")
	if cleaned == "" {
		return "Open readiness question"
	}
	if len(cleaned) > 96 {
		return cleaned[:93] + "..."
	}
	return cleaned
}

// ResolveVaultRoute matches the message against the vault document catalog.
// Returns nil when the message carries no vault vocabulary at all.
func ResolveVaultRoute(message string) *RouteResolution {
	normalized := NormalizeText(message)
	if normalized == "" {
		return nil
	}
	if !vaultVerbPattern.MatchString(normalized) && !healthDirectivePattern.MatchString(message) {
		return nil
	}

	action := "upload"
	if editVerbPattern.MatchString(normalized) {
		action = "edit"
	}

	ranked := make([]scoredRoute[VaultDocType], 0, len(VaultDocCatalog))
	for _, item := range VaultDocCatalog {
		score := ScoreTextMatch(normalized, append([]string{item.Name}, item.Keywords...))
		if item.Priority == "high" {
			score++
		}
		if item.InputMethod == VaultInputInline && action == "edit" {
			score++
		}
		ranked = append(ranked, scoredRoute[VaultDocType]{item: item, score: score})
	}
	sortScoredDesc(ranked)

	best := ranked[0]
	if best.score < 3 {
		return &RouteResolution{
			RouteOption: RouteOption{RouteType: RouteAppSection, Href: "/vault", Label: "Open EasyVault", TargetID: "vault"},
			Confidence:  0.5,
		}
	}

	effectiveAction := action
	if best.item.InputMethod == VaultInputInline {
		effectiveAction = "edit"
	}

	primary := RouteOption{
		RouteType: RouteVaultUpload,
		Href:      vaultHref(best.item.ID, effectiveAction),
		Label:     "Open " + best.item.Name,
		TargetID:  best.item.ID,
	}
	if effectiveAction == "edit" {
		primary.RouteType = RouteVaultEdit
	}

	ambiguous := likelyAmbiguous(ranked)
	var alternatives []RouteOption
	if ambiguous {
		for _, alt := range ranked[1:min(3, len(ranked))] {
			if alt.score <= 0 {
				continue
			}
			altAction := action
			if alt.item.InputMethod == VaultInputInline {
				altAction = "edit"
			}
			routeType := RouteVaultUpload
			if altAction == "edit" {
				routeType = RouteVaultEdit
			}
			alternatives = append(alternatives, RouteOption{
				RouteType: routeType,
				Href:      vaultHref(alt.item.ID, altAction),
				Label:     "Open " + alt.item.Name,
				TargetID:  alt.item.ID,
			})
		}
	}

	return &RouteResolution{
		RouteOption:  primary,
		Confidence:   ScoreConfidence(best.score),
		Ambiguous:    ambiguous,
		Alternatives: alternatives,
		VaultDocID:   best.item.ID,
	}
}

// ResolveReadinessQuestionRoute matches the message against schema questions.
// Only triggers on readiness-domain vocabulary and requires a minimum score to
// avoid false positives.
func ResolveReadinessQuestionRoute(message string, schema *Schema, surface Surface) *RouteResolution {
	if schema == nil || len(schema.Questions) == 0 {
		return nil
	}
	normalized := NormalizeText(message)
	if normalized == "" || !readinessVocabPattern.MatchString(normalized) {
		return nil
	}

	ranked := make([]scoredRoute[SchemaQuestion], 0, len(schema.Questions))
	for _, question := range schema.Questions {
		score := ScoreTextMatch(normalized, []string{question.Prompt, question.ID})
		prompt := NormalizeText(question.Prompt)
		if strings.Contains(normalized, "beneficiar") && strings.Contains(prompt, "beneficiar") {
			score += 4
		}
		for _, keyword := range []string{"trust", "directive"} {
			if strings.Contains(normalized, keyword) && strings.Contains(prompt, keyword) {
				score += 3
			}
		}
		if containsWord(normalized, "will") && containsWord(prompt, "will") {
			score += 3
		}
		ranked = append(ranked, scoredRoute[SchemaQuestion]{item: question, score: score})
	}
	sortScoredDesc(ranked)

	best := ranked[0]
	if best.score < 2 {
		return nil
	}

	primary := RouteOption{
		RouteType: RouteReadinessQuestion,
		Href:      QuestionHref(best.item.SectionID, best.item.ID, surface),
		Label:     questionLabel(best.item.Prompt),
		TargetID:  best.item.ID,
	}

	ambiguous := likelyAmbiguous(ranked)
	var alternatives []RouteOption
	if ambiguous {
		for _, alt := range ranked[1:min(3, len(ranked))] {
			if alt.score <= 0 {
				continue
			}
			alternatives = append(alternatives, RouteOption{
				RouteType: RouteReadinessQuestion,
				Href:      QuestionHref(alt.item.SectionID, alt.item.ID, surface),
				Label:     questionLabel(alt.item.Prompt),
				TargetID:  alt.item.ID,
			})
		}
	}

	return &RouteResolution{
		RouteOption:  primary,
		Confidence:   ScoreConfidence(best.score),
		Ambiguous:    ambiguous,
		Alternatives: alternatives,
	}
}

// ResolveNavigationRoute matches wayfinding phrasing against the fixed section
// list, defaulting to the dashboard on a weak match.
func ResolveNavigationRoute(message string) *RouteResolution {
	normalized := NormalizeText(message)
	if normalized == "" || !wayfindingPattern.MatchString(normalized) {
		return nil
	}

	ranked := make([]scoredRoute[NavigationTarget], 0, len(NavigationTargets))
	for _, target := range NavigationTargets {
		ranked = append(ranked, scoredRoute[NavigationTarget]{
			item:  target,
			score: ScoreTextMatch(normalized, append([]string{target.Label}, target.Keywords...)),
		})
	}
	sortScoredDesc(ranked)

	best := ranked[0]
	if best.score < 2 {
		return &RouteResolution{
			RouteOption: RouteOption{RouteType: RouteAppSection, Href: "/dashboard", Label: "Open Dashboard", TargetID: "dashboard"},
			Confidence:  0.45,
		}
	}

	ambiguous := likelyAmbiguous(ranked)
	var alternatives []RouteOption
	if ambiguous {
		for _, alt := range ranked[1:min(3, len(ranked))] {
			if alt.score <= 0 {
				continue
			}
			alternatives = append(alternatives, RouteOption{
				RouteType: RouteAppSection,
				Href:      alt.item.Href,
				Label:     "Open " + alt.item.Label,
				TargetID:  alt.item.ID,
			})
		}
	}

	return &RouteResolution{
		RouteOption:  RouteOption{RouteType: RouteAppSection, Href: best.item.Href, Label: "Open " + best.item.Label, TargetID: best.item.ID},
		Confidence:   ScoreConfidence(best.score),
		Ambiguous:    ambiguous,
		Alternatives: alternatives,
	}
}

// ResolveRoute runs the three matchers in fixed priority order; the first
// confident hit wins.
func ResolveRoute(message string, schema *Schema, surface Surface) *RouteResolution {
	if vault := ResolveVaultRoute(message); vault != nil {
		return vault
	}
	if readiness := ResolveReadinessQuestionRoute(message, schema, surface); readiness != nil {
		return readiness
	}
	return ResolveNavigationRoute(message)
}

// FindNavigationTarget looks a section up by id.
func FindNavigationTarget(targetID string) *NavigationTarget {
	for i := range NavigationTargets {
		if NavigationTargets[i].ID == targetID {
			return &NavigationTargets[i]
		}
	}
	return nil
}

func containsWord(text, word string) bool {
	for _, token := range strings.Fields(text) {
		if token == word {
			return true
		}
	}
	return false
}
