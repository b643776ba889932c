package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bitbucket.org/qsrfocus/audits_backend/config"
	"bitbucket.org/qsrfocus/audits_backend/models"
	"bitbucket.org/qsrfocus/audits_backend/utils"
	"gorm.io/gorm"
)

const defaultActionItemDueDays = 7

// negativeMarks is the vocabulary of option marks that read as a failure.
var negativeMarks = map[string]bool{
	"no":   true,
	"n":    true,
	"fail": true,
	"f":    true,
	"0":    true,
}

type GenerateActionItemOptions struct {
	OnlyCritical   bool
	DefaultDueDays int
}

type ActionItemGeneration struct {
	Created []*models.ActionItem
	Skipped int
	Errors  []string
}

// AssigneeResolver returns the user id a corrective task should go to, or
// nil when this strategy has no candidate. Resolvers are tried in order and
// the first match wins; running out of candidates leaves the task unassigned.
type AssigneeResolver func(ctx context.Context, tx *gorm.DB, audit *models.Audit) (*int, error)

func locationManagerResolver(ctx context.Context, tx *gorm.DB, audit *models.Audit) (*int, error) {
	var location models.Location
	err := tx.Where("business_id = ? AND id = ?", audit.BusinessId, audit.LocationId).
		First(&location).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	if location.ManagerId == nil || *location.ManagerId <= 0 {
		return nil, nil
	}
	return location.ManagerId, nil
}

func auditCreatorResolver(ctx context.Context, tx *gorm.DB, audit *models.Audit) (*int, error) {
	if audit.UserId <= 0 {
		return nil, nil
	}
	userId := audit.UserId
	return &userId, nil
}

var defaultAssigneeResolvers = []AssigneeResolver{
	locationManagerResolver,
	auditCreatorResolver,
}

// ResolveAssignee walks the resolver chain. Resolver errors are logged and
// treated as "no candidate" so assignee resolution never fails the flow.
func ResolveAssignee(ctx context.Context, tx *gorm.DB, audit *models.Audit, resolvers []AssigneeResolver) *int {
	logger := config.GetLogger()
	for _, resolve := range resolvers {
		assignee, err := resolve(ctx, tx, audit)
		if err != nil {
			config.LogError(logger, "actionItems.go", "ResolveAssignee", "resolver failed", audit.ID, err)
			continue
		}
		if assignee != nil {
			return assignee
		}
	}
	return nil
}

// isFailedResponse qualifies a response as failed: explicit failed status,
// a selected option carrying a negative mark, or a numeric mark of exactly 0.
func isFailedResponse(item *models.ChecklistItem, resp *models.AuditItem) bool {
	if item == nil || resp == nil {
		return false
	}
	if resp.Status == models.AuditItemStatusFailed {
		return true
	}
	if resp.SelectedOptionId != nil {
		if option := item.FindOption(*resp.SelectedOptionId); option != nil {
			if negativeMarks[strings.ToLower(strings.TrimSpace(option.Mark))] {
				return true
			}
		}
	}
	return resp.ParsedMark().IsZero()
}

// GenerateActionItems creates one corrective task per failed item. Safe to
// call repeatedly: items that already have an ActionItem for the same
// (audit_id, item_id) are skipped. Insert failures are collected and
// reported but do not abort sibling insertions.
func GenerateActionItems(ctx context.Context, tx *gorm.DB, audit *models.Audit, items []*models.ChecklistItem, responses []*models.AuditItem, opts GenerateActionItemOptions) (*ActionItemGeneration, error) {

	logger := config.GetLogger()
	dueDays := opts.DefaultDueDays
	if dueDays <= 0 {
		dueDays = defaultActionItemDueDays
	}

	var existingItemIds []int
	if err := tx.Model(&models.ActionItem{}).
		Where("audit_id = ?", audit.ID).
		Pluck("item_id", &existingItemIds).Error; err != nil {
		return nil, err
	}
	existing := make(map[int]bool, len(existingItemIds))
	for _, id := range utils.UniqueSlice(existingItemIds) {
		existing[id] = true
	}

	respByItem := make(map[int]*models.AuditItem, len(responses))
	for _, resp := range responses {
		if resp != nil {
			respByItem[resp.ItemId] = resp
		}
	}

	assignee := ResolveAssignee(ctx, tx, audit, defaultAssigneeResolvers)
	dueDate := time.Now().UTC().AddDate(0, 0, dueDays)

	candidates, skipped := actionItemCandidates(items, respByItem, existing, opts)

	result := &ActionItemGeneration{Skipped: skipped}
	for _, item := range candidates {
		resp := respByItem[item.ID]

		priority := models.ActionItemPriorityMedium
		if item.IsCriticalItem() {
			priority = models.ActionItemPriorityHigh
		}

		actionItem := models.ActionItem{
			BusinessId:  audit.BusinessId,
			AuditId:     audit.ID,
			ItemId:      item.ID,
			Title:       "Fix: " + item.Title,
			Description: buildActionDescription(item, resp),
			AssignedTo:  assignee,
			DueDate:     dueDate,
			Priority:    priority,
			Status:      models.ActionItemStatusOpen,
		}
		if err := tx.Create(&actionItem).Error; err != nil {
			// best effort: report and keep going
			config.LogError(logger, "actionItems.go", "GenerateActionItems", "insert action item", item.ID, err)
			result.Errors = append(result.Errors, fmt.Sprintf("item %d: %v", item.ID, err))
			continue
		}
		result.Created = append(result.Created, &actionItem)
	}

	return result, nil
}

// actionItemCandidates decides which failed items still need a corrective
// task. Items already covered by an existing (audit_id, item_id) task are
// counted as skipped, which is what makes repeated generation converge on
// the same set.
func actionItemCandidates(items []*models.ChecklistItem, respByItem map[int]*models.AuditItem, existing map[int]bool, opts GenerateActionItemOptions) ([]*models.ChecklistItem, int) {
	var candidates []*models.ChecklistItem
	skipped := 0
	for _, item := range items {
		if item == nil {
			continue
		}
		if !isFailedResponse(item, respByItem[item.ID]) {
			continue
		}
		if opts.OnlyCritical && !item.IsCriticalItem() {
			continue
		}
		if existing[item.ID] {
			skipped++
			continue
		}
		candidates = append(candidates, item)
	}
	return candidates, skipped
}

// buildActionDescription concatenates item description, auditor comment,
// selected option text and mark, skipping blanks.
func buildActionDescription(item *models.ChecklistItem, resp *models.AuditItem) string {
	var parts []string
	if s := strings.TrimSpace(item.Description); s != "" {
		parts = append(parts, s)
	}
	if resp != nil {
		if s := strings.TrimSpace(resp.Comment); s != "" {
			parts = append(parts, "Auditor comment: "+s)
		}
		if resp.SelectedOptionId != nil {
			if option := item.FindOption(*resp.SelectedOptionId); option != nil {
				if s := strings.TrimSpace(option.OptionText); s != "" {
					parts = append(parts, "Selected: "+s)
				}
			}
		}
		if resp.Mark != nil {
			if s := strings.TrimSpace(*resp.Mark); s != "" {
				parts = append(parts, "Mark: "+s)
			}
		}
	}
	return strings.Join(parts, "\n")
}
