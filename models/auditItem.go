package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/qsrfocus/audits_backend/config"
	"bitbucket.org/qsrfocus/audits_backend/utils"
	mysqlDriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// AuditItem is the recorded response for one (audit, checklist item) pair.
// The (audit_id, item_id) uniqueness is a hard invariant; see UpsertAuditItem.
type AuditItem struct {
	ID               int             `gorm:"primary_key" json:"id"`
	BusinessId       string          `gorm:"index;not null" json:"business_id"`
	AuditId          int             `gorm:"not null;uniqueIndex:uniq_audit_item" json:"audit_id"`
	ItemId           int             `gorm:"not null;uniqueIndex:uniq_audit_item" json:"item_id"`
	Status           AuditItemStatus `gorm:"size:20;default:pending" json:"status"`
	Mark             *string         `gorm:"size:20" json:"mark"`
	Comment          string          `gorm:"type:text" json:"comment"`
	PhotoUrl         string          `gorm:"size:512" json:"photo_url"`
	SelectedOptionId *int            `gorm:"index" json:"selected_option_id"`
	TimeTakenMinutes *int            `json:"time_taken_minutes"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r *AuditItem) ParsedMark() Mark {
	return ParseMark(r.Mark)
}

type UpdateAuditItemInput struct {
	ItemId           int     `json:"item_id" binding:"required"`
	Status           *string `json:"status"`
	Mark             *string `json:"mark"`
	Comment          *string `json:"comment"`
	PhotoUrl         *string `json:"photo_url"`
	SelectedOptionId *int    `json:"selected_option_id"`
	TimeTakenMinutes *int    `json:"time_taken_minutes"`
}

func isDuplicateKeyErr(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}

// UpsertAuditItem persists one response inside the caller's transaction.
// Insert first; on a uniqueness violation fall back to update. A prior
// existence check would race with a concurrent first response for the same
// (audit_id, item_id), the duplicate-key fallback is the atomic path.
func UpsertAuditItem(tx *gorm.DB, businessId string, auditId int, input *UpdateAuditItemInput) (*AuditItem, error) {

	row := AuditItem{
		BusinessId:       businessId,
		AuditId:          auditId,
		ItemId:           input.ItemId,
		Comment:          utils.DereferencePtr(input.Comment),
		PhotoUrl:         utils.DereferencePtr(input.PhotoUrl),
		Mark:             input.Mark,
		SelectedOptionId: input.SelectedOptionId,
		TimeTakenMinutes: input.TimeTakenMinutes,
	}
	if input.Status != nil {
		status, err := ParseAuditItemStatus(*input.Status)
		if err != nil {
			return nil, err
		}
		row.Status = status
	} else {
		row.Status = AuditItemStatusPending
	}

	err := tx.Create(&row).Error
	if err == nil {
		return &row, nil
	}
	if !isDuplicateKeyErr(err) {
		return nil, err
	}

	var existing AuditItem
	if err := tx.Where("audit_id = ? AND item_id = ?", auditId, input.ItemId).
		First(&existing).Error; err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Status != nil {
		status, perr := ParseAuditItemStatus(*input.Status)
		if perr != nil {
			return nil, perr
		}
		updates["status"] = status
	}
	if input.Mark != nil {
		updates["mark"] = input.Mark
	}
	if input.Comment != nil {
		updates["comment"] = *input.Comment
	}
	if input.PhotoUrl != nil {
		updates["photo_url"] = *input.PhotoUrl
	}
	if input.SelectedOptionId != nil {
		updates["selected_option_id"] = input.SelectedOptionId
	}
	if input.TimeTakenMinutes != nil {
		updates["time_taken_minutes"] = input.TimeTakenMinutes
	}
	if len(updates) > 0 {
		if err := tx.Model(&AuditItem{}).Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	if err := tx.Where("id = ?", existing.ID).First(&existing).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

// FetchAuditItems reads the post-write state of every response of an audit.
// The recompute path must call this AFTER all sibling writes are persisted.
func FetchAuditItems(tx *gorm.DB, auditId int) ([]*AuditItem, error) {
	var rows []*AuditItem
	if err := tx.Where("audit_id = ?", auditId).Order("item_id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func GetAuditItems(ctx context.Context, auditId int) ([]*AuditItem, error) {

	db := config.GetDB()
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := utils.ValidateResourceId[Audit](ctx, businessId, auditId); err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	var rows []*AuditItem
	if err := db.WithContext(ctx).
		Where("business_id = ? AND audit_id = ?", businessId, auditId).
		Order("item_id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
