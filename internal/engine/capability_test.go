package engine

import (
	"testing"
)

func TestBuildVaultContext(t *testing.T) {
	context := BuildVaultContext(
		[]string{"will-testament", "power-of-attorney", ""},
		[]string{"trust-documents"},
	)

	if context.ApplicableCount != len(VaultDocCatalog)-1 {
		t.Fatalf("applicable: got %d", context.ApplicableCount)
	}
	if context.CompletedCount != 2 {
		t.Fatalf("completed: got %d", context.CompletedCount)
	}
	if len(context.MissingHighPriorityDocs) != 3 {
		t.Fatalf("missing high-priority docs are capped at 3, got %d", len(context.MissingHighPriorityDocs))
	}
	for _, doc := range context.MissingHighPriorityDocs {
		if doc.ID == "will-testament" || doc.ID == "power-of-attorney" {
			t.Fatalf("saved doc listed as missing: %q", doc.ID)
		}
		if doc.ID == "trust-documents" {
			t.Fatal("excluded doc listed as missing")
		}
	}
}

func TestBuildVaultContextExcludedSavesDoNotCount(t *testing.T) {
	context := BuildVaultContext([]string{"trust-documents"}, []string{"trust-documents"})
	if context.CompletedCount != 0 {
		t.Fatalf("an excluded doc must not count as completed, got %d", context.CompletedCount)
	}
}

func TestBuildReportContext(t *testing.T) {
	if got := BuildReportContext(nil); got.Available {
		t.Fatal("nil assessment yields no report")
	}

	notReady := BuildReportContext(&AssessmentSnapshot{ReportStatus: ReportGenerating, ReportStale: true})
	if notReady.Available {
		t.Fatal("a generating report is not available")
	}
	if !notReady.Stale {
		t.Fatal("staleness should carry through regardless of status")
	}

	ready := BuildReportContext(&AssessmentSnapshot{
		ReportStatus: ReportReady,
		ReportData: map[string]any{
			"executive_summary": "Your plan covers the essentials. There is more detail below.",
			"strengths":         []any{"Clear beneficiary designations", map[string]any{"title": "Documented accounts"}, 42},
			"action_plan":       []any{"a", "b", "c", "d", "e"},
		},
	})
	if !ready.Available {
		t.Fatal("ready report should be available")
	}
	if ready.ExecutiveSummary != "Your plan covers the essentials." {
		t.Fatalf("summary should stop at the first sentence, got %q", ready.ExecutiveSummary)
	}
	if len(ready.Strengths) != 2 {
		t.Fatalf("strengths: got %v", ready.Strengths)
	}
	if len(ready.ActionItems) != 4 {
		t.Fatalf("list extraction caps at 4, got %d", len(ready.ActionItems))
	}
}

func TestBuildNavigationContext(t *testing.T) {
	context := BuildNavigationContext()
	if len(context.SectionPurposes) != len(NavigationTargets) {
		t.Fatalf("got %d purposes", len(context.SectionPurposes))
	}
}

func TestFirstSentence(t *testing.T) {
	if got := FirstSentence("One. Two."); got != "One." {
		t.Fatalf("got %q", got)
	}
	if got := FirstSentence("no terminator here"); got != "no terminator here" {
		t.Fatalf("got %q", got)
	}
	if got := FirstSentence(""); got != "" {
		t.Fatalf("got %q", got)
	}
}
