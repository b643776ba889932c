package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/qsrfocus/audits_backend/config"
	"bitbucket.org/qsrfocus/audits_backend/utils"
)

// ActionItem is one corrective task spawned from a failed audit item.
// Never duplicated for the same (audit_id, item_id) pair.
type ActionItem struct {
	ID          int                `gorm:"primary_key" json:"id"`
	BusinessId  string             `gorm:"index;not null" json:"business_id"`
	AuditId     int                `gorm:"not null;uniqueIndex:uniq_action_audit_item" json:"audit_id"`
	ItemId      int                `gorm:"not null;uniqueIndex:uniq_action_audit_item" json:"item_id"`
	Title       string             `gorm:"size:255;not null" json:"title"`
	Description string             `gorm:"type:text" json:"description"`
	AssignedTo  *int               `gorm:"index" json:"assigned_to"`
	DueDate     time.Time          `json:"due_date"`
	Priority    ActionItemPriority `gorm:"size:20;not null" json:"priority"`
	Status      ActionItemStatus   `gorm:"size:20;not null;default:open" json:"status"`
	CreatedAt   time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}

// GetAuditActionItems returns the corrective tasks of a completed audit.
func GetAuditActionItems(ctx context.Context, auditId int) ([]*ActionItem, error) {

	db := config.GetDB()
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := utils.ValidateResourceId[Audit](ctx, businessId, auditId); err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	var rows []*ActionItem
	if err := db.WithContext(ctx).
		Where("business_id = ? AND audit_id = ?", businessId, auditId).
		Order("priority, item_id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
