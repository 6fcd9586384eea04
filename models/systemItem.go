package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/DiksySingh/InventorySystem2-sub000/config"
	"github.com/DiksySingh/InventorySystem2-sub000/utils"
	"github.com/shopspring/decimal"
)

// SystemItem is a catalog part/material, the atomic unit tracked in
// inventory. Never deleted: ledger rows reference it.
type SystemItem struct {
	ID               int              `gorm:"primary_key" json:"id"`
	Name             string           `gorm:"size:150;not null;uniqueIndex" json:"name" binding:"required"`
	Unit             string           `gorm:"size:20;not null" json:"unit" binding:"required"`
	ConversionUnit   *string          `gorm:"size:20" json:"conversion_unit"`
	ConversionFactor *decimal.Decimal `gorm:"type:decimal(20,4)" json:"conversion_factor"`
	Category         ItemCategory     `gorm:"size:20;not null;default:'Accessory'" json:"category"`
	CreatedBy        int              `gorm:"index" json:"created_by"`
	CreatedAt        time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSystemItem struct {
	Name             string           `json:"name" binding:"required"`
	Unit             string           `json:"unit" binding:"required"`
	ConversionUnit   *string          `json:"conversion_unit"`
	ConversionFactor *decimal.Decimal `json:"conversion_factor"`
	Category         ItemCategory     `json:"category"`
}

func (input *NewSystemItem) validate(ctx context.Context, id int) error {
	// names are unique, compared trimmed
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return errors.New("item name is required")
	}
	if err := utils.ValidateUnique[SystemItem](ctx, "name", name, id); err != nil {
		return err
	}
	if input.ConversionUnit != nil && (input.ConversionFactor == nil || input.ConversionFactor.IsZero()) {
		return errors.New("conversion factor is required when a conversion unit is given")
	}
	return nil
}

// CreateSystemItem registers a new catalog part and backfills a zero-quantity
// ledger row for it in every warehouse, in one transaction.
func CreateSystemItem(ctx context.Context, input *NewSystemItem) (*SystemItem, error) {

	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	actorId, _ := utils.GetActorIdFromContext(ctx)

	category := input.Category
	if category == "" {
		category = ItemCategoryAccessory
	}

	item := SystemItem{
		Name:             strings.TrimSpace(input.Name),
		Unit:             input.Unit,
		ConversionUnit:   input.ConversionUnit,
		ConversionFactor: input.ConversionFactor,
		Category:         category,
		CreatedBy:        actorId,
	}

	db := config.GetDB()
	tx := db.Begin()

	if err := tx.WithContext(ctx).Create(&item).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := EnsureItemInventory(tx.WithContext(ctx), item.ID); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func GetSystemItem(ctx context.Context, id int) (*SystemItem, error) {
	return utils.FetchModel[SystemItem](ctx, id)
}

func GetSystemItems(ctx context.Context) ([]*SystemItem, error) {
	return utils.FetchAllModels[SystemItem](ctx)
}

// GetSystemItemByName looks a part up by its trimmed name. Used by the
// workbook importer where rows reference parts by name.
func GetSystemItemByName(ctx context.Context, name string) (*SystemItem, error) {
	db := config.GetDB()
	var item SystemItem
	if err := db.WithContext(ctx).Where("name = ?", strings.TrimSpace(name)).First(&item).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &item, nil
}

// itemNames loads the name of every referenced item id.
func itemNames(ctx context.Context, ids []int) (map[int]string, error) {
	names := make(map[int]string)
	if len(ids) == 0 {
		return names, nil
	}
	db := config.GetDB()
	var items []SystemItem
	if err := db.WithContext(ctx).Select("id", "name").Where("id IN ?", utils.UniqueSlice(ids)).Find(&items).Error; err != nil {
		return nil, err
	}
	for _, item := range items {
		names[item.ID] = item.Name
	}
	return names, nil
}

// itemCategories loads the category of every referenced item id.
func itemCategories(ctx context.Context, ids []int) (map[int]ItemCategory, error) {
	categories := make(map[int]ItemCategory)
	if len(ids) == 0 {
		return categories, nil
	}
	db := config.GetDB()
	var items []SystemItem
	if err := db.WithContext(ctx).Select("id", "category").Where("id IN ?", utils.UniqueSlice(ids)).Find(&items).Error; err != nil {
		return nil, err
	}
	for _, item := range items {
		categories[item.ID] = item.Category
	}
	return categories, nil
}
