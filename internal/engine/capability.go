package engine

import (
	"strings"
)

// VaultContext summarizes document-vault completion for the planner.
type VaultContext struct {
	CompletedCount  int                `json:"completed_count"`
	ApplicableCount int                `json:"applicable_count"`
	ProgressPercent int                `json:"progress_percent"`
	MissingHighPriorityDocs []VaultDocSummary `json:"missing_high_priority_docs"`
}

type VaultDocSummary struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Category    string           `json:"category"`
	InputMethod VaultInputMethod `json:"input_method"`
}

// ReportContext carries short, display-safe extracts of a generated report.
type ReportContext struct {
	Available        bool     `json:"available"`
	Stale            bool     `json:"stale"`
	ExecutiveSummary string   `json:"executive_summary"`
	Strengths        []string `json:"strengths"`
	AttentionAreas   []string `json:"attention_areas"`
	ActionItems      []string `json:"action_items"`
}

type SectionPurpose struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Href    string `json:"href"`
	Purpose string `json:"purpose"`
}

type NavigationContext struct {
	SectionPurposes []SectionPurpose `json:"section_purposes"`
}

// CapabilityContext bundles the three independently loaded facets plus the
// route resolved for the current message. Facets that failed to load are
// zero-valued, never absent.
type CapabilityContext struct {
	Vault      VaultContext      `json:"vault"`
	Report     ReportContext     `json:"report"`
	Navigation NavigationContext `json:"navigation"`
	Route      *RouteResolution  `json:"route,omitempty"`
}

// BuildVaultContext computes completion against the static catalog. Excluded
// document types count as not applicable on both sides of the ratio.
func BuildVaultContext(savedDocTypeIDs []string, excludedDocTypeIDs []string) VaultContext {
	excluded := make(map[string]struct{}, len(excludedDocTypeIDs))
	for _, id := range excludedDocTypeIDs {
		if id != "" {
			excluded[id] = struct{}{}
		}
	}
	completed := make(map[string]struct{}, len(savedDocTypeIDs))
	for _, id := range savedDocTypeIDs {
		if id == "" {
			continue
		}
		if _, skip := excluded[id]; skip {
			continue
		}
		completed[id] = struct{}{}
	}

	applicableCount := 0
	completedCount := 0
	var missingHigh []VaultDocSummary
	for _, item := range VaultDocCatalog {
		if _, skip := excluded[item.ID]; skip {
			continue
		}
		applicableCount++
		if _, done := completed[item.ID]; done {
			completedCount++
			continue
		}
		if item.Priority == "high" && len(missingHigh) < 3 {
			missingHigh = append(missingHigh, VaultDocSummary{
				ID:          item.ID,
				Name:        item.Name,
				Category:    item.Category,
				InputMethod: item.InputMethod,
			})
		}
	}
	if completedCount > applicableCount {
		completedCount = applicableCount
	}

	progress := 0
	if applicableCount > 0 {
		progress = int(float64(completedCount)/float64(applicableCount)*100 + 0.5)
	}
	return VaultContext{
		CompletedCount:          completedCount,
		ApplicableCount:         applicableCount,
		ProgressPercent:         progress,
		MissingHighPriorityDocs: missingHigh,
	}
}

// BuildReportContext extracts short planner-safe strings from raw report data.
// Only a ready report exposes content.
func BuildReportContext(assessment *AssessmentSnapshot) ReportContext {
	context := ReportContext{}
	if assessment == nil {
		return context
	}
	context.Stale = assessment.ReportStale
	if assessment.ReportStatus != ReportReady {
		return context
	}
	context.Available = true

	report := assessment.ReportData
	if report == nil {
		return context
	}
	summary := cleanExtract(report["executive_summary"], 800)
	if summary == "" {
		summary = cleanExtract(report["summary"], 800)
	}
	if summary == "" {
		summary = cleanExtract(report["overview"], 800)
	}
	context.ExecutiveSummary = FirstSentence(summary)
	context.Strengths = extractList(report["strengths"])
	context.AttentionAreas = extractList(report["areas_requiring_attention"])
	context.ActionItems = extractList(report["action_plan"])
	return context
}

// BuildNavigationContext exposes the static section purpose table.
func BuildNavigationContext() NavigationContext {
	purposes := make([]SectionPurpose, 0, len(NavigationTargets))
	for _, target := range NavigationTargets {
		purposes = append(purposes, SectionPurpose{
			ID:      target.ID,
			Label:   target.Label,
			Href:    target.Href,
			Purpose: target.Purpose,
		})
	}
	return NavigationContext{SectionPurposes: purposes}
}

// FirstSentence returns text up to and including the first sentence
// terminator, or the whole text when none exists.
func FirstSentence(text string) string {
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
			return strings.TrimSpace(text[:i+1])
		}
	}
	return strings.TrimSpace(text)
}

func cleanExtract(value any, maxLen int) string {
	text, ok := value.(string)
	if !ok {
		return ""
	}
	cleaned := strings.Join(strings.Fields(text), " ")
	if len(cleaned) > maxLen {
		cleaned = cleaned[:maxLen]
	}
	return cleaned
}

// extractList accepts either plain strings or objects carrying title/label.
func extractList(value any) []string {
	items, ok := value.([]any)
	if !ok {
		return nil
	}
	var result []string
	for _, item := range items {
		if len(result) == 4 {
			break
		}
		switch typed := item.(type) {
		case string:
			if cleaned := cleanExtract(typed, 180); cleaned != "" {
				result = append(result, cleaned)
			}
		case map[string]any:
			cleaned := cleanExtract(typed["title"], 180)
			if cleaned == "" {
				cleaned = cleanExtract(typed["label"], 180)
			}
			if cleaned != "" {
				result = append(result, cleaned)
			}
		}
	}
	return result
}
