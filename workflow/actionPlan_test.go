package workflow

import (
	"strings"
	"testing"

	"bitbucket.org/qsrfocus/audits_backend/models"
)

func planItem(id int, category string, critical bool) *models.ChecklistItem {
	return &models.ChecklistItem{ID: id, Title: "item", Category: category, IsCritical: &critical}
}

func TestSeverityFor(t *testing.T) {
	cases := []struct {
		category string
		critical bool
		want     models.PlanSeverity
	}{
		{"service", true, models.PlanSeverityCritical}, // critical overrides category
		{"hygiene", false, models.PlanSeverityMajor},
		{"food_safety", false, models.PlanSeverityMajor},
		{"safety", false, models.PlanSeverityMajor},
		{"Hygiene ", false, models.PlanSeverityMajor},
		{"service", false, models.PlanSeverityMinor},
		{"maintenance", false, models.PlanSeverityMinor},
		{"", false, models.PlanSeverityMinor},
		{"unknown", false, models.PlanSeverityMinor},
	}
	for _, tc := range cases {
		if got := severityFor(tc.category, tc.critical); got != tc.want {
			t.Errorf("severityFor(%q, %v) = %s, want %s", tc.category, tc.critical, got, tc.want)
		}
	}
}

func TestOwnerRoleFor(t *testing.T) {
	cases := map[string]string{
		"hygiene":     "Operations Manager",
		"food_safety": "Operations Manager",
		"safety":      "Operations Manager",
		"service":     "Floor Manager",
		"maintenance": "Maintenance Lead",
		"":            "Store Manager",
		"other":       "Store Manager",
	}
	for category, want := range cases {
		if got := ownerRoleFor(category); got != want {
			t.Errorf("ownerRoleFor(%q) = %q, want %q", category, got, want)
		}
	}
}

func TestTargetDaysForSeverity(t *testing.T) {
	if got := targetDaysForSeverity(models.PlanSeverityCritical); got != 2 {
		t.Errorf("critical = %d, want 2", got)
	}
	if got := targetDaysForSeverity(models.PlanSeverityMajor); got != 7 {
		t.Errorf("major = %d, want 7", got)
	}
	if got := targetDaysForSeverity(models.PlanSeverityMinor); got != 14 {
		t.Errorf("minor = %d, want 14", got)
	}
}

func TestRankDeviations(t *testing.T) {
	// four failures: one critical, two with ascending marks, one without a
	// usable mark. Expected order: critical, mark 0, mark 1, markless.
	deviations := []deviation{
		{item: planItem(10, "service", false), resp: &models.AuditItem{ItemId: 10, Mark: strPtr("1")}},
		{item: planItem(20, "hygiene", false), resp: &models.AuditItem{ItemId: 20, Status: models.AuditItemStatusFailed}},
		{item: planItem(30, "hygiene", true), resp: &models.AuditItem{ItemId: 30, Mark: strPtr("2")}},
		{item: planItem(40, "service", false), resp: &models.AuditItem{ItemId: 40, Mark: strPtr("0")}},
	}

	rankDeviations(deviations)

	wantOrder := []int{30, 40, 10, 20}
	for i, want := range wantOrder {
		if deviations[i].item.ID != want {
			t.Fatalf("rank %d: item %d, want %d", i+1, deviations[i].item.ID, want)
		}
	}
}

func TestSelectTopDeviations_CapsAtThree(t *testing.T) {
	// four failures, one critical: the plan takes exactly three, critical
	// first, and drops the least severe failure
	deviations := []deviation{
		{item: planItem(10, "service", false), resp: &models.AuditItem{ItemId: 10, Mark: strPtr("1")}},
		{item: planItem(20, "hygiene", false), resp: &models.AuditItem{ItemId: 20, Mark: strPtr("2")}},
		{item: planItem(30, "hygiene", true), resp: &models.AuditItem{ItemId: 30, Mark: strPtr("0")}},
		{item: planItem(40, "service", false), resp: &models.AuditItem{ItemId: 40, Mark: strPtr("0.5")}},
	}

	top := selectTopDeviations(deviations)

	if len(top) != 3 {
		t.Fatalf("len = %d, want exactly 3", len(top))
	}
	if top[0].item.ID != 30 {
		t.Errorf("rank 1: item %d, want the critical failure 30", top[0].item.ID)
	}
	for _, dev := range top {
		if dev.item.ID == 20 {
			t.Error("highest-mark failure must be the one dropped")
		}
	}

	// fewer failures than the cap pass through whole
	two := selectTopDeviations(deviations[:2])
	if len(two) != 2 {
		t.Errorf("len = %d, want 2", len(two))
	}
}

func TestRankDeviations_StableTiebreakOnItemId(t *testing.T) {
	deviations := []deviation{
		{item: planItem(5, "", false), resp: &models.AuditItem{ItemId: 5, Mark: strPtr("0")}},
		{item: planItem(2, "", false), resp: &models.AuditItem{ItemId: 2, Mark: strPtr("0")}},
		{item: planItem(9, "", false), resp: &models.AuditItem{ItemId: 9, Mark: strPtr("0")}},
	}
	rankDeviations(deviations)
	for i, want := range []int{2, 5, 9} {
		if deviations[i].item.ID != want {
			t.Fatalf("rank %d: item %d, want %d", i+1, deviations[i].item.ID, want)
		}
	}
}

func TestDeviationReason(t *testing.T) {
	critical := planItem(1, "hygiene", true)
	critical.Title = "Handwash station stocked"

	got := deviationReason(critical, &models.AuditItem{Mark: strPtr("0")})
	if !strings.Contains(got, "Critical requirement") {
		t.Errorf("critical zero: %q", got)
	}

	scored := planItem(2, "service", false)
	scored.Title = "Greeting time"
	got = deviationReason(scored, &models.AuditItem{Mark: strPtr("1.5")})
	if !strings.Contains(got, "scored 1.5") {
		t.Errorf("numeric: %q", got)
	}

	failed := planItem(3, "service", false)
	got = deviationReason(failed, &models.AuditItem{Status: models.AuditItemStatusFailed})
	if !strings.Contains(got, "marked as failed") {
		t.Errorf("failed status: %q", got)
	}

	other := planItem(4, "service", false)
	got = deviationReason(other, &models.AuditItem{})
	if !strings.Contains(got, "deviated") {
		t.Errorf("fallback: %q", got)
	}
}
