package workflow

import (
	"errors"
	"testing"
	"time"

	"bitbucket.org/qsrfocus/audits_backend/models"
)

func TestValidateInputs(t *testing.T) {
	items := []*models.ChecklistItem{
		{ID: 1, InputType: "option_select", Options: []models.ChecklistItemOption{
			{ID: 11, OptionText: "Yes", Mark: "1"},
			{ID: 12, OptionText: "No", Mark: "0"},
		}},
		{ID: 2, InputType: "open_ended"},
	}

	ok := []*models.UpdateAuditItemInput{
		{ItemId: 1, SelectedOptionId: intPtr(12)},
		{ItemId: 2, Comment: strPtr("fine")},
	}
	if err := validateInputs(items, ok); err != nil {
		t.Fatalf("valid batch rejected: %v", err)
	}

	unknownItem := []*models.UpdateAuditItemInput{{ItemId: 99}}
	if err := validateInputs(items, unknownItem); !errors.Is(err, ErrItemNotInTemplate) {
		t.Errorf("unknown item: err = %v, want ErrItemNotInTemplate", err)
	}

	// option 11 belongs to item 1, not item 2
	foreignOption := []*models.UpdateAuditItemInput{{ItemId: 2, SelectedOptionId: intPtr(11)}}
	if err := validateInputs(items, foreignOption); !errors.Is(err, ErrInvalidOption) {
		t.Errorf("foreign option: err = %v, want ErrInvalidOption", err)
	}

	// one bad input poisons the whole batch
	mixed := []*models.UpdateAuditItemInput{
		{ItemId: 1, SelectedOptionId: intPtr(11)},
		{ItemId: 99},
	}
	if err := validateInputs(items, mixed); !errors.Is(err, ErrItemNotInTemplate) {
		t.Errorf("mixed batch: err = %v, want ErrItemNotInTemplate", err)
	}
}

// Exercises the order-independence the batch path relies on: one
// recomputation against the post-write state must not depend on the order
// the sibling responses arrived in.
func TestComputeAuditState_OrderIndependent(t *testing.T) {
	audit := &models.Audit{Status: models.AuditStatusPending}
	items := []*models.ChecklistItem{
		yesNoItem(1, "3", 1, false),
		yesNoItem(2, "2", 2, true),
		yesNoItem(3, "5", 1, false),
	}
	responses := []*models.AuditItem{
		{ItemId: 1, Mark: strPtr("3"), SelectedOptionId: intPtr(11)},
		{ItemId: 2, Mark: strPtr("0"), SelectedOptionId: intPtr(22)},
		{ItemId: 3, Mark: strPtr("5"), SelectedOptionId: intPtr(31)},
	}
	now := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

	base := ComputeAuditState(audit, items, responses, now)
	if base.Status != models.AuditStatusCompleted {
		t.Fatalf("Status = %s, want completed", base.Status)
	}

	permutations := [][]*models.AuditItem{
		{responses[2], responses[0], responses[1]},
		{responses[1], responses[2], responses[0]},
		{responses[2], responses[1], responses[0]},
	}
	for i, perm := range permutations {
		got := ComputeAuditState(audit, items, perm, now)
		if got.Status != base.Status ||
			got.Score != base.Score ||
			got.WeightedScore != base.WeightedScore ||
			got.HasCriticalFailure != base.HasCriticalFailure ||
			got.CompletedItems != base.CompletedItems {
			t.Errorf("permutation %d diverged: got %+v, want %+v", i, got, base)
		}
	}
}
