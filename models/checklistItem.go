package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/qsrfocus/audits_backend/config"
	"bitbucket.org/qsrfocus/audits_backend/utils"
	"github.com/shopspring/decimal"
)

type ChecklistItem struct {
	ID          int       `gorm:"primary_key" json:"id"`
	BusinessId  string    `gorm:"index;not null" json:"business_id"`
	TemplateId  int       `gorm:"index;not null" json:"template_id"`
	Title       string    `gorm:"size:255;not null" json:"title" binding:"required"`
	Description string    `gorm:"type:text" json:"description"`
	Category    string    `gorm:"size:100;index" json:"category"`
	InputType   string    `gorm:"size:50;not null" json:"input_type" binding:"required"`
	Required    *bool     `gorm:"default:true" json:"required"`
	Weight      int       `gorm:"default:1" json:"weight"`
	IsCritical  *bool     `gorm:"default:false" json:"is_critical"`
	SortOrder   int       `gorm:"default:0" json:"sort_order"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Options []ChecklistItemOption `gorm:"foreignKey:ItemId" json:"options"`
}

type ChecklistItemOption struct {
	ID         int       `gorm:"primary_key" json:"id"`
	BusinessId string    `gorm:"index;not null" json:"business_id"`
	ItemId     int       `gorm:"index;not null" json:"item_id"`
	OptionText string    `gorm:"size:255;not null" json:"option_text"`
	Mark       string    `gorm:"size:20;not null" json:"mark"`
	SortOrder  int       `gorm:"default:0" json:"sort_order"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (item *ChecklistItem) GetInputType() InputType {
	return NormalizeInputType(item.InputType)
}

func (item *ChecklistItem) GetWeight() int {
	if item.Weight < 1 {
		return 1
	}
	return item.Weight
}

func (item *ChecklistItem) IsCriticalItem() bool {
	return item.IsCritical != nil && *item.IsCritical
}

// MaxScore is the greatest numeric option mark. NA options are excluded;
// an item with no numeric options contributes nothing to the denominator.
func (item *ChecklistItem) MaxScore() decimal.Decimal {
	max := decimal.Zero
	found := false
	for _, option := range item.Options {
		mark := ParseMarkString(option.Mark)
		if !mark.IsNumeric() {
			continue
		}
		if !found || mark.Value.GreaterThan(max) {
			max = mark.Value
			found = true
		}
	}
	if !found {
		return decimal.Zero
	}
	return max
}

// FindOption returns the option row for an id, nil when absent.
func (item *ChecklistItem) FindOption(optionId int) *ChecklistItemOption {
	for i := range item.Options {
		if item.Options[i].ID == optionId {
			return &item.Options[i]
		}
	}
	return nil
}

type NewChecklistItem struct {
	TemplateId  int                      `json:"template_id" binding:"required"`
	Title       string                   `json:"title" binding:"required"`
	Description string                   `json:"description"`
	Category    string                   `json:"category"`
	InputType   string                   `json:"input_type" binding:"required"`
	Required    *bool                    `json:"required"`
	Weight      int                      `json:"weight"`
	IsCritical  *bool                    `json:"is_critical"`
	SortOrder   int                      `json:"sort_order"`
	Options     []NewChecklistItemOption `json:"options"`
}

type NewChecklistItemOption struct {
	OptionText string `json:"option_text" binding:"required"`
	Mark       string `json:"mark" binding:"required"`
	SortOrder  int    `json:"sort_order"`
}

func CreateChecklistItem(ctx context.Context, input *NewChecklistItem) (*ChecklistItem, error) {

	db := config.GetDB()
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := utils.ValidateResourceId[ChecklistTemplate](ctx, businessId, input.TemplateId); err != nil {
		return nil, errors.New("checklist template not found")
	}

	weight := input.Weight
	if weight < 1 {
		weight = 1
	}

	item := ChecklistItem{
		BusinessId:  businessId,
		TemplateId:  input.TemplateId,
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		InputType:   string(NormalizeInputType(input.InputType)),
		Required:    input.Required,
		Weight:      weight,
		IsCritical:  input.IsCritical,
		SortOrder:   input.SortOrder,
	}
	for _, opt := range input.Options {
		item.Options = append(item.Options, ChecklistItemOption{
			BusinessId: businessId,
			OptionText: opt.OptionText,
			Mark:       opt.Mark,
			SortOrder:  opt.SortOrder,
		})
	}

	if err := db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, err
	}

	// Template item lists and the preloaded template row are cached;
	// edits must invalidate both.
	if err := invalidateTemplateItemsCache(input.TemplateId); err != nil {
		config.LogError(config.GetLogger(), "checklistItem.go", "CreateChecklistItem", "invalidate cache", input.TemplateId, err)
	}
	if err := utils.RemoveRedis[ChecklistTemplate](input.TemplateId); err != nil {
		config.LogError(config.GetLogger(), "checklistItem.go", "CreateChecklistItem", "invalidate template cache", input.TemplateId, err)
	}
	return &item, nil
}

func GetChecklistItem(ctx context.Context, id int) (*ChecklistItem, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[ChecklistItem](ctx, businessId, id, "Options")
}
