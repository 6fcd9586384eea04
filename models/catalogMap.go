package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DiksySingh/InventorySystem2-sub000/config"
	"github.com/DiksySingh/InventorySystem2-sub000/utils"
	"github.com/shopspring/decimal"
)

// SystemItemMap says: one unit of System directly requires Quantity units of
// SystemItem. The composite unique index enforces the one-row-per-pair
// assumption the BOM resolver depends on.
type SystemItemMap struct {
	ID           int             `gorm:"primary_key" json:"id"`
	SystemId     int             `gorm:"not null;uniqueIndex:idx_system_item" json:"system_id" binding:"required"`
	SystemItemId int             `gorm:"not null;uniqueIndex:idx_system_item" json:"system_item_id" binding:"required"`
	Quantity     decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity" binding:"required"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// ItemComponentMap says: this parent item (e.g. a specific pump model), when
// used in this System, additionally requires Quantity of this sub-item
// (e.g. cable, clamp). A second-level expansion only; sub-items are not
// decomposed further.
type ItemComponentMap struct {
	ID           int             `gorm:"primary_key" json:"id"`
	SystemId     int             `gorm:"not null;uniqueIndex:idx_system_parent_sub" json:"system_id" binding:"required"`
	ParentItemId int             `gorm:"not null;uniqueIndex:idx_system_parent_sub" json:"parent_item_id" binding:"required"`
	SubItemId    int             `gorm:"not null;uniqueIndex:idx_system_parent_sub" json:"sub_item_id" binding:"required"`
	Quantity     decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity" binding:"required"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSystemItemMap struct {
	SystemId     int             `json:"system_id" binding:"required"`
	SystemItemId int             `json:"system_item_id" binding:"required"`
	Quantity     decimal.Decimal `json:"quantity" binding:"required"`
}

type NewItemComponentMap struct {
	SystemId     int             `json:"system_id" binding:"required"`
	ParentItemId int             `json:"parent_item_id" binding:"required"`
	SubItemId    int             `json:"sub_item_id" binding:"required"`
	Quantity     decimal.Decimal `json:"quantity" binding:"required"`
}

func bomCacheKey(systemId int) string {
	return fmt.Sprintf("bom:%d", systemId)
}

func AddSystemItemMap(ctx context.Context, input *NewSystemItemMap) (*SystemItemMap, error) {

	if input.Quantity.IsZero() || input.Quantity.IsNegative() {
		return nil, errors.New("quantity must be positive")
	}
	if err := utils.ValidateResourceId[System](ctx, input.SystemId); err != nil {
		return nil, errors.New("system not found")
	}
	if err := utils.ValidateResourceId[SystemItem](ctx, input.SystemItemId); err != nil {
		return nil, errors.New("system item not found")
	}

	var count int64
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(&SystemItemMap{}).
		Where("system_id = ? AND system_item_id = ?", input.SystemId, input.SystemItemId).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, &utils.DuplicateError{Subject: "system item mapping"}
	}

	row := SystemItemMap{
		SystemId:     input.SystemId,
		SystemItemId: input.SystemItemId,
		Quantity:     input.Quantity,
	}
	if err := db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, err
	}
	config.RemoveRedisKey(bomCacheKey(input.SystemId))
	return &row, nil
}

func AddItemComponentMap(ctx context.Context, input *NewItemComponentMap) (*ItemComponentMap, error) {

	if input.Quantity.IsZero() || input.Quantity.IsNegative() {
		return nil, errors.New("quantity must be positive")
	}
	if err := utils.ValidateResourceId[System](ctx, input.SystemId); err != nil {
		return nil, errors.New("system not found")
	}
	if err := utils.ValidateResourcesId[SystemItem, int](ctx, []int{input.ParentItemId, input.SubItemId}); err != nil {
		return nil, errors.New("system item not found")
	}

	var count int64
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(&ItemComponentMap{}).
		Where("system_id = ? AND parent_item_id = ? AND sub_item_id = ?", input.SystemId, input.ParentItemId, input.SubItemId).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, &utils.DuplicateError{Subject: "item component mapping"}
	}

	row := ItemComponentMap{
		SystemId:     input.SystemId,
		ParentItemId: input.ParentItemId,
		SubItemId:    input.SubItemId,
		Quantity:     input.Quantity,
	}
	if err := db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, err
	}
	config.RemoveRedisKey(bomCacheKey(input.SystemId))
	return &row, nil
}

// catalogGraph is the cached, per-system slice of both mapping tables.
type catalogGraph struct {
	Direct     []SystemItemMap    `json:"direct"`
	Components []ItemComponentMap `json:"components"`
}

// fetchCatalogGraph loads the system's mapping rows, redis first, db on miss.
func fetchCatalogGraph(ctx context.Context, systemId int) (*catalogGraph, error) {
	var graph catalogGraph

	key := bomCacheKey(systemId)
	exists, err := config.GetRedisObject(key, &graph)
	if err == nil && exists {
		return &graph, nil
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Where("system_id = ?", systemId).Find(&graph.Direct).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Where("system_id = ?", systemId).Find(&graph.Components).Error; err != nil {
		return nil, err
	}
	if err := config.SetRedisObject(key, &graph, 10*time.Minute); err != nil {
		logger := config.GetLogger()
		config.LogError(logger, "catalogMap.go", "fetchCatalogGraph", "caching catalog graph", systemId, err)
	}
	return &graph, nil
}
