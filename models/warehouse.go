package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/DiksySingh/InventorySystem2-sub000/config"
	"github.com/DiksySingh/InventorySystem2-sub000/utils"
)

// Warehouse is a physical stock location. Creating one backfills a zero
// ledger row for every catalog item so later mutations never create rows.
type Warehouse struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:100;not null;uniqueIndex" json:"name" binding:"required"`
	State     string    `gorm:"size:100" json:"state"`
	Address   string    `gorm:"size:255" json:"address"`
	Phone     string    `gorm:"size:20" json:"phone"`
	CreatedBy int       `gorm:"index" json:"created_by"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewWarehouse struct {
	Name    string `json:"name" binding:"required"`
	State   string `json:"state"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

func (input *NewWarehouse) validate(ctx context.Context, id int) error {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return errors.New("warehouse name is required")
	}
	if err := utils.ValidateUnique[Warehouse](ctx, "name", name, id); err != nil {
		return err
	}
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return errors.New("invalid phone number")
		}
	}
	return nil
}

func CreateWarehouse(ctx context.Context, input *NewWarehouse) (*Warehouse, error) {

	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	actorId, _ := utils.GetActorIdFromContext(ctx)

	warehouse := Warehouse{
		Name:      strings.TrimSpace(input.Name),
		State:     input.State,
		Address:   input.Address,
		Phone:     input.Phone,
		CreatedBy: actorId,
	}

	db := config.GetDB()
	tx := db.Begin()

	if err := tx.WithContext(ctx).Create(&warehouse).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := EnsureWarehouseInventory(tx.WithContext(ctx), warehouse.ID); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &warehouse, nil
}

func GetWarehouse(ctx context.Context, id int) (*Warehouse, error) {
	return utils.FetchModel[Warehouse](ctx, id)
}

func GetWarehouses(ctx context.Context) ([]*Warehouse, error) {
	return utils.FetchAllModels[Warehouse](ctx)
}
