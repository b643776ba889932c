package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/qsrfocus/audits_backend/config"
	"bitbucket.org/qsrfocus/audits_backend/utils"
)

// ErrAuditCompleted guards mutations: once completed, only an administrator
// may correct an audit.
var ErrAuditCompleted = errors.New("audit has been completed")

// ErrAuditNotOwned guards mutations by other auditors of the same business:
// only the auditor who started an audit (or an administrator) may record
// responses on it.
var ErrAuditNotOwned = errors.New("audit belongs to another auditor")

type Audit struct {
	ID                 int         `gorm:"primary_key" json:"id"`
	BusinessId         string      `gorm:"index;not null" json:"business_id"`
	TemplateId         int         `gorm:"index;not null" json:"template_id"`
	LocationId         int         `gorm:"index;not null" json:"location_id"`
	UserId             int         `gorm:"index;not null" json:"user_id"`
	AuditCategory      string      `gorm:"size:100" json:"audit_category"`
	Status             AuditStatus `gorm:"size:20;not null;default:pending" json:"status"`
	Score              int         `gorm:"default:0" json:"score"`
	WeightedScore      int         `gorm:"default:0" json:"weighted_score"`
	HasCriticalFailure *bool       `gorm:"default:false" json:"has_critical_failure"`
	CompletedItems     int         `gorm:"default:0" json:"completed_items"`
	TotalItems         int         `gorm:"default:0" json:"total_items"`
	CompletedAt        *time.Time  `json:"completed_at"`
	ScheduledAuditId   *int        `gorm:"index" json:"scheduled_audit_id"`
	Notes              string      `gorm:"type:text" json:"notes"`
	CreatedAt          time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a *Audit) HasCritical() bool {
	return a.HasCriticalFailure != nil && *a.HasCriticalFailure
}

// AuditSummary is the derived-state shape returned after every mutation.
type AuditSummary struct {
	Score              int         `json:"score"`
	WeightedScore      int         `json:"weightedScore"`
	HasCriticalFailure bool        `json:"hasCriticalFailure"`
	Status             AuditStatus `json:"status"`
	Completed          int         `json:"completed"`
	Total              int         `json:"total"`
}

func (a *Audit) Summary() *AuditSummary {
	return &AuditSummary{
		Score:              a.Score,
		WeightedScore:      a.WeightedScore,
		HasCriticalFailure: a.HasCritical(),
		Status:             a.Status,
		Completed:          a.CompletedItems,
		Total:              a.TotalItems,
	}
}

type NewAudit struct {
	TemplateId       int    `json:"template_id" binding:"required"`
	LocationId       int    `json:"location_id" binding:"required"`
	AuditCategory    string `json:"audit_category"`
	ScheduledAuditId *int   `json:"scheduled_audit_id"`
	Notes            string `json:"notes"`
}

// StartAudit instantiates a template against a location for the acting user.
// total_items reflects the FULL template regardless of audit_category.
func StartAudit(ctx context.Context, input *NewAudit) (*Audit, error) {

	db := config.GetDB()
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId <= 0 {
		return nil, errors.New("user id is required")
	}

	if err := utils.ValidateResourceId[ChecklistTemplate](ctx, businessId, input.TemplateId); err != nil {
		return nil, errors.New("checklist template not found")
	}
	if err := utils.ValidateResourceId[Location](ctx, businessId, input.LocationId); err != nil {
		return nil, errors.New("location not found")
	}
	if input.ScheduledAuditId != nil {
		if err := utils.ValidateResourceId[ScheduledAudit](ctx, businessId, *input.ScheduledAuditId); err != nil {
			return nil, errors.New("scheduled audit not found")
		}
	}

	items, err := GetTemplateItems(ctx, businessId, input.TemplateId)
	if err != nil {
		return nil, err
	}

	audit := Audit{
		BusinessId:         businessId,
		TemplateId:         input.TemplateId,
		LocationId:         input.LocationId,
		UserId:             userId,
		AuditCategory:      input.AuditCategory,
		Status:             AuditStatusPending,
		HasCriticalFailure: utils.NewFalse(),
		TotalItems:         len(items),
		ScheduledAuditId:   input.ScheduledAuditId,
		Notes:              input.Notes,
	}
	if err := db.WithContext(ctx).Create(&audit).Error; err != nil {
		return nil, err
	}
	return &audit, nil
}

func GetAudit(ctx context.Context, id int) (*Audit, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[Audit](ctx, businessId, id)
}

// AuthorizeChange enforces the mutation policy against the acting identity
// in ctx: administrators may mutate anything, the owning auditor may mutate
// until completion, everyone else is rejected.
func (a *Audit) AuthorizeChange(ctx context.Context) error {
	isAdmin, _ := utils.GetIsAdminFromContext(ctx)
	if isAdmin {
		return nil
	}
	if a.Status == AuditStatusCompleted {
		return ErrAuditCompleted
	}
	actorId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || actorId != a.UserId {
		return ErrAuditNotOwned
	}
	return nil
}

// GetAuditForChange fetches the audit and applies AuthorizeChange.
func GetAuditForChange(ctx context.Context, id int) (*Audit, error) {
	audit, err := GetAudit(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := audit.AuthorizeChange(ctx); err != nil {
		return nil, err
	}
	return audit, nil
}

func GetAuditSummary(ctx context.Context, id int) (*AuditSummary, error) {
	audit, err := GetAudit(ctx, id)
	if err != nil {
		return nil, err
	}
	return audit.Summary(), nil
}
