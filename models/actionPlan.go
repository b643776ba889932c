package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/qsrfocus/audits_backend/config"
	"bitbucket.org/qsrfocus/audits_backend/utils"
)

// ActionPlanEntry is one row of the prioritized remediation plan, at most
// three per audit, ranked by severity then failure magnitude.
type ActionPlanEntry struct {
	ID                int             `gorm:"primary_key" json:"id"`
	BusinessId        string          `gorm:"index;not null" json:"business_id"`
	AuditId           int             `gorm:"not null;uniqueIndex:uniq_plan_audit_rank" json:"audit_id"`
	ItemId            int             `gorm:"not null" json:"item_id"`
	Rank              int             `gorm:"not null;uniqueIndex:uniq_plan_audit_rank" json:"rank"`
	Severity          PlanSeverity    `gorm:"size:20;not null" json:"severity"`
	RootCause         string          `gorm:"type:text" json:"root_cause"`
	CorrectiveAction  string          `gorm:"type:text" json:"corrective_action"`
	PreventiveAction  string          `gorm:"type:text" json:"preventive_action"`
	DeviationReason   string          `gorm:"type:text" json:"deviation_reason"`
	OwnerRole         string          `gorm:"size:100" json:"owner_role"`
	ResponsiblePerson *int            `gorm:"index" json:"responsible_person"`
	TargetDate        time.Time       `json:"target_date"`
	Status            PlanEntryStatus `gorm:"size:10;not null;default:OPEN" json:"status"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type AuditDeviations struct {
	Deviations  []*ActionPlanEntry `json:"deviations"`
	ActionItems []*ActionItem      `json:"action_items"`
}

// GetAuditDeviations returns the plan entries together with the corrective
// tasks, the completion-query shape clients poll after an audit closes.
func GetAuditDeviations(ctx context.Context, auditId int) (*AuditDeviations, error) {

	db := config.GetDB()
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := utils.ValidateResourceId[Audit](ctx, businessId, auditId); err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	var entries []*ActionPlanEntry
	if err := db.WithContext(ctx).
		Where("business_id = ? AND audit_id = ?", businessId, auditId).
		Order("`rank`").
		Find(&entries).Error; err != nil {
		return nil, err
	}

	actionItems, err := GetAuditActionItems(ctx, auditId)
	if err != nil {
		return nil, err
	}

	return &AuditDeviations{
		Deviations:  entries,
		ActionItems: actionItems,
	}, nil
}
