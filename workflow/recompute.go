package workflow

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/qsrfocus/audits_backend/config"
	"bitbucket.org/qsrfocus/audits_backend/models"
	"gorm.io/gorm"
)

// ErrItemNotInTemplate rejects responses to items outside the audit's
// template before any write happens.
var ErrItemNotInTemplate = errors.New("item does not belong to the audit's template")

var ErrInvalidOption = errors.New("selected option does not belong to the item")

// RecomputeResult carries the derived state plus the completion side-effect
// report back to the caller.
type RecomputeResult struct {
	Summary            *models.AuditSummary `json:"summary"`
	CompletedNow       bool                 `json:"completed_now"`
	ActionItemsCreated int                  `json:"action_items_created"`
	ActionItemsSkipped int                  `json:"action_items_skipped"`
	PlanEntries        int                  `json:"plan_entries"`
	GenerationErrors   []string             `json:"generation_errors,omitempty"`
}

// RecomputeAudit is the single recomputation path every mutation funnels
// through: read post-write responses, derive state, persist it in one
// UPDATE, and fire the completion side effects exactly once per transition
// into completed. Re-running on unchanged data is a no-op by construction.
//
// Must run inside the caller's transaction, after all sibling item writes.
func RecomputeAudit(ctx context.Context, tx *gorm.DB, audit *models.Audit) (*RecomputeResult, error) {

	logger := config.GetLogger()

	if err := AcquireAuditLock(tx, audit.ID); err != nil {
		return nil, err
	}
	defer ReleaseAuditLock(tx, audit.ID)

	items, err := models.GetTemplateItems(ctx, audit.BusinessId, audit.TemplateId)
	if err != nil {
		return nil, err
	}
	responses, err := models.FetchAuditItems(tx, audit.ID)
	if err != nil {
		return nil, err
	}

	priorStatus := audit.Status
	state := ComputeAuditState(audit, items, responses, time.Now().UTC())

	if state.Demoted {
		config.LogWarn(logger, "recompute.go", "RecomputeAudit", "demotion", audit.ID,
			"completed audit demoted to in_progress: a previously-completed item is now missing")
	}

	// Derived fields are written in a single UPDATE after all calculation,
	// so a failed recomputation leaves the last-known-good state behind.
	hasCritical := state.HasCriticalFailure
	updates := map[string]interface{}{
		"status":               state.Status,
		"score":                state.Score,
		"weighted_score":       state.WeightedScore,
		"has_critical_failure": hasCritical,
		"completed_items":      state.CompletedItems,
		"total_items":          state.TotalItems,
		"completed_at":         state.CompletedAt,
	}
	if err := tx.Model(&models.Audit{}).Where("id = ?", audit.ID).Updates(updates).Error; err != nil {
		return nil, err
	}

	audit.Status = state.Status
	audit.Score = state.Score
	audit.WeightedScore = state.WeightedScore
	audit.HasCriticalFailure = &hasCritical
	audit.CompletedItems = state.CompletedItems
	audit.TotalItems = state.TotalItems
	audit.CompletedAt = state.CompletedAt

	result := &RecomputeResult{
		Summary:      audit.Summary(),
		CompletedNow: state.Status == models.AuditStatusCompleted && priorStatus != models.AuditStatusCompleted,
	}

	if result.CompletedNow {
		if err := runCompletionSideEffects(ctx, tx, audit, items, responses, result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// runCompletionSideEffects fires exactly once per transition into completed.
// Generators are idempotent, so a retried transaction cannot double-create.
func runCompletionSideEffects(ctx context.Context, tx *gorm.DB, audit *models.Audit, items []*models.ChecklistItem, responses []*models.AuditItem, result *RecomputeResult) error {

	generation, err := GenerateActionItems(ctx, tx, audit, items, responses, GenerateActionItemOptions{})
	if err != nil {
		return err
	}
	result.ActionItemsCreated = len(generation.Created)
	result.ActionItemsSkipped = generation.Skipped
	result.GenerationErrors = generation.Errors

	planEntries, err := GenerateActionPlan(ctx, tx, audit, items, responses)
	if err != nil {
		return err
	}
	result.PlanEntries = len(planEntries)

	if audit.ScheduledAuditId != nil {
		if err := models.MarkScheduledAuditCompleted(tx, audit.BusinessId, *audit.ScheduledAuditId); err != nil {
			return err
		}
	}

	planEntryIds := make([]int, 0, len(planEntries))
	for _, entry := range planEntries {
		planEntryIds = append(planEntryIds, entry.ID)
	}
	payload := &models.AuditCompletedPayload{
		AuditId:            audit.ID,
		Score:              audit.Score,
		WeightedScore:      audit.WeightedScore,
		HasCriticalFailure: audit.HasCritical(),
		ScheduledAuditId:   audit.ScheduledAuditId,
		ActionItemsCreated: len(generation.Created),
		PlanEntryIds:       planEntryIds,
	}
	if err := completionNotifier.NotifyCompleted(ctx, tx, audit, payload); err != nil {
		// best effort: a lost notification never rolls back the completion
		config.LogError(config.GetLogger(), "recompute.go", "runCompletionSideEffects", "notify completion", audit.ID, err)
	}
	return nil
}

// validateInputs checks every mutation against the template before any
// write: unknown items and foreign options abort the whole batch.
func validateInputs(items []*models.ChecklistItem, inputs []*models.UpdateAuditItemInput) error {
	itemById := make(map[int]*models.ChecklistItem, len(items))
	for _, item := range items {
		if item != nil {
			itemById[item.ID] = item
		}
	}
	for _, input := range inputs {
		item, ok := itemById[input.ItemId]
		if !ok {
			return ErrItemNotInTemplate
		}
		if input.SelectedOptionId != nil && *input.SelectedOptionId > 0 {
			if item.FindOption(*input.SelectedOptionId) == nil {
				return ErrInvalidOption
			}
		}
	}
	return nil
}

// UpdateAuditItem records a single response and recomputes the audit.
func UpdateAuditItem(ctx context.Context, auditId int, input *models.UpdateAuditItemInput) (*RecomputeResult, error) {
	return UpdateAuditItems(ctx, auditId, []*models.UpdateAuditItemInput{input})
}

// UpdateAuditItems applies a batch of responses. All sibling writes are
// persisted first; the recomputation then runs exactly once against the
// post-write state, never once per item.
func UpdateAuditItems(ctx context.Context, auditId int, inputs []*models.UpdateAuditItemInput) (*RecomputeResult, error) {

	if len(inputs) == 0 {
		return nil, errors.New("no item updates provided")
	}

	audit, err := models.GetAuditForChange(ctx, auditId)
	if err != nil {
		return nil, err
	}

	items, err := models.GetTemplateItems(ctx, audit.BusinessId, audit.TemplateId)
	if err != nil {
		return nil, err
	}
	if err := validateInputs(items, inputs); err != nil {
		return nil, err
	}

	db := config.GetDB()
	var result *RecomputeResult
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// phase 1: persist every sibling write
		for _, input := range inputs {
			if _, err := models.UpsertAuditItem(tx, audit.BusinessId, audit.ID, input); err != nil {
				return err
			}
		}
		// phase 2: recompute once against the post-write state
		var rerr error
		result, rerr = RecomputeAudit(ctx, tx, audit)
		return rerr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CompleteAudit re-runs the recomputation pipeline on request. The audit
// only transitions when every template item evaluates as answered; callers
// inspect the returned status. Safe to retry on an already-completed audit.
func CompleteAudit(ctx context.Context, auditId int) (*RecomputeResult, error) {

	audit, err := models.GetAudit(ctx, auditId)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var result *RecomputeResult
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rerr error
		result, rerr = RecomputeAudit(ctx, tx, audit)
		return rerr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
