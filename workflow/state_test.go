package workflow

import (
	"testing"
	"time"

	"bitbucket.org/qsrfocus/audits_backend/models"
)

func threeItemTemplate() []*models.ChecklistItem {
	return []*models.ChecklistItem{
		itemWithId(1, "open_ended"),
		itemWithId(2, "open_ended"),
		itemWithId(3, "open_ended"),
	}
}

func itemWithId(id int, inputType string) *models.ChecklistItem {
	return &models.ChecklistItem{ID: id, Title: "item", InputType: inputType, Weight: 1}
}

func answered(itemId int) *models.AuditItem {
	return &models.AuditItem{ItemId: itemId, Comment: "checked"}
}

func TestComputeAuditState_PartialIsInProgress(t *testing.T) {
	audit := &models.Audit{Status: models.AuditStatusPending}
	responses := []*models.AuditItem{answered(1), answered(2)}

	state := ComputeAuditState(audit, threeItemTemplate(), responses, time.Now())

	if state.Status != models.AuditStatusInProgress {
		t.Errorf("Status = %s, want in_progress", state.Status)
	}
	if state.CompletedItems != 2 || state.TotalItems != 3 {
		t.Errorf("completed/total = %d/%d, want 2/3", state.CompletedItems, state.TotalItems)
	}
	if state.CompletedAt != nil {
		t.Error("CompletedAt must stay nil while incomplete")
	}
}

func TestComputeAuditState_CategoryNeverShrinksTheTemplate(t *testing.T) {
	// A hygiene-scoped audit still evaluates against all template items.
	audit := &models.Audit{Status: models.AuditStatusPending, AuditCategory: "hygiene"}
	items := []*models.ChecklistItem{
		{ID: 1, InputType: "open_ended", Category: "hygiene"},
		{ID: 2, InputType: "open_ended", Category: "service"},
	}
	state := ComputeAuditState(audit, items, []*models.AuditItem{answered(1)}, time.Now())

	if state.Status != models.AuditStatusInProgress {
		t.Errorf("Status = %s, want in_progress (off-category item still pending)", state.Status)
	}
	if state.TotalItems != 2 {
		t.Errorf("TotalItems = %d, want 2", state.TotalItems)
	}
}

func TestComputeAuditState_FullCompletionSetsTimestampOnce(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	audit := &models.Audit{Status: models.AuditStatusInProgress}
	responses := []*models.AuditItem{answered(1), answered(2), answered(3)}

	state := ComputeAuditState(audit, threeItemTemplate(), responses, now)

	if state.Status != models.AuditStatusCompleted {
		t.Fatalf("Status = %s, want completed", state.Status)
	}
	if state.CompletedAt == nil || !state.CompletedAt.Equal(now) {
		t.Fatalf("CompletedAt = %v, want %v", state.CompletedAt, now)
	}

	// Re-run with the persisted state: timestamp is preserved, not refreshed.
	audit.Status = models.AuditStatusCompleted
	audit.CompletedAt = state.CompletedAt
	later := now.Add(48 * time.Hour)
	again := ComputeAuditState(audit, threeItemTemplate(), responses, later)

	if again.Status != models.AuditStatusCompleted {
		t.Errorf("Status = %s, want completed on re-run", again.Status)
	}
	if again.CompletedAt == nil || !again.CompletedAt.Equal(now) {
		t.Errorf("CompletedAt = %v, want original %v preserved", again.CompletedAt, now)
	}
	if again.Demoted {
		t.Error("idempotent re-run must not flag demotion")
	}
}

func TestComputeAuditState_NeverRegressesToPending(t *testing.T) {
	audit := &models.Audit{Status: models.AuditStatusInProgress}
	// one response that does not complete its item
	responses := []*models.AuditItem{{ItemId: 1}}

	state := ComputeAuditState(audit, threeItemTemplate(), responses, time.Now())

	if state.Status != models.AuditStatusInProgress {
		t.Errorf("Status = %s, want in_progress (touched audits never return to pending)", state.Status)
	}
}

func TestComputeAuditState_UntouchedStaysPending(t *testing.T) {
	audit := &models.Audit{Status: models.AuditStatusPending}
	state := ComputeAuditState(audit, threeItemTemplate(), nil, time.Now())
	if state.Status != models.AuditStatusPending {
		t.Errorf("Status = %s, want pending", state.Status)
	}
}

func TestComputeAuditState_DemotionKeepsTimestamp(t *testing.T) {
	completedAt := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	audit := &models.Audit{Status: models.AuditStatusCompleted, CompletedAt: &completedAt}
	// a template item was added after completion; the audit no longer covers it
	items := append(threeItemTemplate(), itemWithId(4, "open_ended"))
	responses := []*models.AuditItem{answered(1), answered(2), answered(3)}

	state := ComputeAuditState(audit, items, responses, time.Now())

	if state.Status != models.AuditStatusInProgress {
		t.Errorf("Status = %s, want in_progress after demotion", state.Status)
	}
	if !state.Demoted {
		t.Error("Demoted must be set when a completed audit falls back")
	}
	if state.CompletedAt == nil || !state.CompletedAt.Equal(completedAt) {
		t.Errorf("CompletedAt = %v, want %v preserved through demotion", state.CompletedAt, completedAt)
	}
}

func TestComputeAuditState_EmptyTemplateNeverCompletes(t *testing.T) {
	audit := &models.Audit{Status: models.AuditStatusPending}
	state := ComputeAuditState(audit, nil, nil, time.Now())
	if state.Status == models.AuditStatusCompleted {
		t.Error("zero-item template must not complete")
	}
	if state.TotalItems != 0 || state.CompletedItems != 0 {
		t.Errorf("completed/total = %d/%d, want 0/0", state.CompletedItems, state.TotalItems)
	}
}
