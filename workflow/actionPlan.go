package workflow

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"bitbucket.org/qsrfocus/audits_backend/models"
	"gorm.io/gorm"
)

const maxPlanEntries = 3

// severityByCategory classifies non-critical failures. Critical failures
// always map to the highest tier regardless of category.
var severityByCategory = map[string]models.PlanSeverity{
	"hygiene":     models.PlanSeverityMajor,
	"food_safety": models.PlanSeverityMajor,
	"safety":      models.PlanSeverityMajor,
	"service":     models.PlanSeverityMinor,
	"maintenance": models.PlanSeverityMinor,
}

var ownerRoleByCategory = map[string]string{
	"hygiene":     "Operations Manager",
	"food_safety": "Operations Manager",
	"safety":      "Operations Manager",
	"service":     "Floor Manager",
	"maintenance": "Maintenance Lead",
}

func severityFor(category string, critical bool) models.PlanSeverity {
	if critical {
		return models.PlanSeverityCritical
	}
	if severity, ok := severityByCategory[strings.ToLower(strings.TrimSpace(category))]; ok {
		return severity
	}
	return models.PlanSeverityMinor
}

func ownerRoleFor(category string) string {
	if role, ok := ownerRoleByCategory[strings.ToLower(strings.TrimSpace(category))]; ok {
		return role
	}
	return "Store Manager"
}

// more severe, shorter remediation window
func targetDaysForSeverity(severity models.PlanSeverity) int {
	switch severity {
	case models.PlanSeverityCritical:
		return 2
	case models.PlanSeverityMajor:
		return 7
	default:
		return 14
	}
}

type deviation struct {
	item *models.ChecklistItem
	resp *models.AuditItem
}

// rankDeviations orders failed items: critical first, then ascending numeric
// mark, NA/missing marks last. Ties break on item id for a stable plan.
func rankDeviations(deviations []deviation) {
	sort.SliceStable(deviations, func(i, j int) bool {
		a, b := deviations[i], deviations[j]

		aCritical := a.item.IsCriticalItem()
		bCritical := b.item.IsCriticalItem()
		if aCritical != bCritical {
			return aCritical
		}

		aMark := a.resp.ParsedMark()
		bMark := b.resp.ParsedMark()
		if aMark.IsNumeric() != bMark.IsNumeric() {
			return aMark.IsNumeric()
		}
		if aMark.IsNumeric() && bMark.IsNumeric() && !aMark.Value.Equal(bMark.Value) {
			return aMark.Value.LessThan(bMark.Value)
		}

		return a.item.ID < b.item.ID
	})
}

// selectTopDeviations ranks the failures and truncates to the plan size:
// a plan never carries more than maxPlanEntries rows no matter how many
// items failed.
func selectTopDeviations(deviations []deviation) []deviation {
	rankDeviations(deviations)
	if len(deviations) > maxPlanEntries {
		deviations = deviations[:maxPlanEntries]
	}
	return deviations
}

func deviationReason(item *models.ChecklistItem, resp *models.AuditItem) string {
	mark := resp.ParsedMark()
	switch {
	case item.IsCriticalItem() && mark.IsZero():
		return fmt.Sprintf("Critical requirement %q failed with a zero mark", item.Title)
	case mark.IsNumeric():
		return fmt.Sprintf("%q scored %s, below the passing mark", item.Title, mark.Value.String())
	case resp.Status == models.AuditItemStatusFailed:
		return fmt.Sprintf("%q was marked as failed by the auditor", item.Title)
	default:
		return fmt.Sprintf("%q deviated from the expected standard", item.Title)
	}
}

// GenerateActionPlan selects the top deviations of a completed audit and
// persists the ordered remediation plan. Idempotent: if entries already
// exist for the audit the existing set is returned untouched, so repeated
// completion triggers (e.g. network retries) cannot double-create rows.
func GenerateActionPlan(ctx context.Context, tx *gorm.DB, audit *models.Audit, items []*models.ChecklistItem, responses []*models.AuditItem) ([]*models.ActionPlanEntry, error) {

	var existing []*models.ActionPlanEntry
	if err := tx.Where("audit_id = ?", audit.ID).Order("`rank`").Find(&existing).Error; err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing, nil
	}

	respByItem := make(map[int]*models.AuditItem, len(responses))
	for _, resp := range responses {
		if resp != nil {
			respByItem[resp.ItemId] = resp
		}
	}

	var deviations []deviation
	for _, item := range items {
		if item == nil {
			continue
		}
		resp := respByItem[item.ID]
		if isFailedResponse(item, resp) {
			deviations = append(deviations, deviation{item: item, resp: resp})
		}
	}
	if len(deviations) == 0 {
		return nil, nil
	}

	deviations = selectTopDeviations(deviations)

	responsible := ResolveAssignee(ctx, tx, audit, defaultAssigneeResolvers)
	now := time.Now().UTC()

	entries := make([]*models.ActionPlanEntry, 0, len(deviations))
	for rank, dev := range deviations {
		severity := severityFor(dev.item.Category, dev.item.IsCriticalItem())
		entry := &models.ActionPlanEntry{
			BusinessId:        audit.BusinessId,
			AuditId:           audit.ID,
			ItemId:            dev.item.ID,
			Rank:              rank + 1,
			Severity:          severity,
			DeviationReason:   deviationReason(dev.item, dev.resp),
			OwnerRole:         ownerRoleFor(dev.item.Category),
			ResponsiblePerson: responsible,
			TargetDate:        now.AddDate(0, 0, targetDaysForSeverity(severity)),
			Status:            models.PlanEntryStatusOpen,
			// root cause / corrective / preventive stay empty for human completion
		}
		if err := tx.Create(entry).Error; err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, nil
}
