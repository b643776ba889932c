package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/qsrfocus/audits_backend/config"
	"bitbucket.org/qsrfocus/audits_backend/utils"
)

type ChecklistTemplate struct {
	ID          int       `gorm:"primary_key" json:"id"`
	BusinessId  string    `gorm:"index;not null" json:"business_id"`
	Name        string    `gorm:"size:255;not null" json:"name" binding:"required"`
	Description string    `gorm:"type:text" json:"description"`
	IsActive    *bool     `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Items []ChecklistItem `gorm:"foreignKey:TemplateId" json:"items"`
}

type NewChecklistTemplate struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func CreateChecklistTemplate(ctx context.Context, input *NewChecklistTemplate) (*ChecklistTemplate, error) {

	db := config.GetDB()
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	template := ChecklistTemplate{
		BusinessId:  businessId,
		Name:        input.Name,
		Description: input.Description,
		IsActive:    utils.NewTrue(),
	}
	if err := db.WithContext(ctx).Create(&template).Error; err != nil {
		return nil, err
	}
	return &template, nil
}

func GetChecklistTemplate(ctx context.Context, id int) (*ChecklistTemplate, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	cached, err := utils.RetrieveRedis[ChecklistTemplate](id)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		if cached.BusinessId != businessId {
			return nil, utils.ErrorRecordNotFound
		}
		return cached, nil
	}

	template, err := utils.FetchModel[ChecklistTemplate](ctx, businessId, id, "Items", "Items.Options")
	if err != nil {
		return nil, err
	}
	if err := utils.StoreRedis[ChecklistTemplate](template, id); err != nil {
		config.LogError(config.GetLogger(), "checklistTemplate.go", "GetChecklistTemplate", "cache template", id, err)
	}
	return template, nil
}

func GetChecklistTemplates(ctx context.Context) ([]*ChecklistTemplate, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchAllModels[ChecklistTemplate](ctx, businessId)
}

func templateItemsCacheKey(templateId int) string {
	return "TemplateItems:" + fmt.Sprint(templateId)
}

// GetTemplateItems returns ALL items of a template with options, cache-aside.
// Completion is always judged against the full template, never a category
// slice, so this is the only item read the recompute path uses.
func GetTemplateItems(ctx context.Context, businessId string, templateId int) ([]*ChecklistItem, error) {

	var items []*ChecklistItem
	exists, err := config.GetRedisObject(templateItemsCacheKey(templateId), &items)
	if err != nil {
		return nil, err
	}
	if exists {
		// cached under the template id; verify tenant before trusting it
		if len(items) > 0 && items[0].BusinessId != businessId {
			return nil, errors.New("cannot access resource owned by other business")
		}
		return items, nil
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).
		Where("business_id = ? AND template_id = ?", businessId, templateId).
		Preload("Options").
		Order("sort_order, id").
		Find(&items).Error; err != nil {
		return nil, err
	}

	if err := config.SetRedisObject(templateItemsCacheKey(templateId), &items, utils.GetCacheLifespan()); err != nil {
		return nil, err
	}
	return items, nil
}

func invalidateTemplateItemsCache(templateId int) error {
	return config.RemoveRedisKey(templateItemsCacheKey(templateId))
}
