package models

import (
	"time"

	"gorm.io/gorm"
)

// ScheduledAudit is owned by the scheduling collaborator; the engine only
// flips its status when a linked audit completes.
type ScheduledAudit struct {
	ID         int                  `gorm:"primary_key" json:"id"`
	BusinessId string               `gorm:"index;not null" json:"business_id"`
	TemplateId int                  `gorm:"index;not null" json:"template_id"`
	LocationId int                  `gorm:"index;not null" json:"location_id"`
	AssignedTo *int                 `gorm:"index" json:"assigned_to"`
	DueDate    *time.Time           `json:"due_date"`
	Status     ScheduledAuditStatus `gorm:"size:20;not null;default:pending" json:"status"`
	CreatedAt  time.Time            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time            `gorm:"autoUpdateTime" json:"updated_at"`
}

// MarkScheduledAuditCompleted is the onAuditCompleted notification toward
// the scheduling collaborator, executed in the completing transaction.
func MarkScheduledAuditCompleted(tx *gorm.DB, businessId string, scheduledAuditId int) error {
	return tx.Model(&ScheduledAudit{}).
		Where("business_id = ? AND id = ?", businessId, scheduledAuditId).
		Update("status", ScheduledAuditStatusCompleted).Error
}
