package workflow

import (
	"time"

	"bitbucket.org/qsrfocus/audits_backend/models"
)

// AuditState is the full derived state of an audit: completion counters,
// scores and the status decision. Computing it is pure; persisting it is
// the recompute transaction's job.
type AuditState struct {
	CompletedItems int
	TotalItems     int
	Status         models.AuditStatus
	CompletedAt    *time.Time
	Demoted        bool
	ScoreResult
}

// ComputeAuditState evaluates completion against ALL template items,
// never filtered by the audit's audit_category. A category-scoped audit
// still requires the full template to be answered before it completes
// (intentional, see product decision on category-wise audits).
//
// Idempotent: unchanged inputs always produce the same state.
func ComputeAuditState(audit *models.Audit, items []*models.ChecklistItem, responses []*models.AuditItem, now time.Time) AuditState {

	respByItem := make(map[int]*models.AuditItem, len(responses))
	for _, resp := range responses {
		if resp != nil {
			respByItem[resp.ItemId] = resp
		}
	}

	total := 0
	completed := 0
	for _, item := range items {
		if item == nil {
			continue
		}
		total++
		if IsItemComplete(item, respByItem[item.ID]) {
			completed++
		}
	}

	state := AuditState{
		CompletedItems: completed,
		TotalItems:     total,
		ScoreResult:    Score(items, responses),
		CompletedAt:    audit.CompletedAt,
	}

	switch {
	case total > 0 && completed == total:
		state.Status = models.AuditStatusCompleted
	case len(responses) == 0 && audit.Status == models.AuditStatusPending:
		// untouched audit stays pending
		state.Status = models.AuditStatusPending
	default:
		// never regress to pending once an item was touched
		state.Status = models.AuditStatusInProgress
	}

	if state.Status == models.AuditStatusCompleted {
		if state.CompletedAt == nil {
			completedAt := now
			state.CompletedAt = &completedAt
		}
		// an already-set completed_at is preserved on idempotent re-runs
	} else if audit.Status == models.AuditStatusCompleted {
		// a previously-completed item went missing; forced back to in_progress
		state.Demoted = true
	}

	return state
}
