package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/DiksySingh/InventorySystem2-sub000/config"
	"github.com/DiksySingh/InventorySystem2-sub000/utils"
)

// System is a sellable composite product (e.g. "7.5HP DC System").
// Immutable after creation; its parts list lives in SystemItemMap and
// ItemComponentMap.
type System struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:100;not null;uniqueIndex" json:"name" binding:"required"`
	CreatedBy int       `gorm:"index" json:"created_by"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSystem struct {
	Name string `json:"name" binding:"required"`
}

func (input *NewSystem) validate(ctx context.Context, id int) error {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return errors.New("system name is required")
	}
	if err := utils.ValidateUnique[System](ctx, "name", name, id); err != nil {
		return err
	}
	return nil
}

func CreateSystem(ctx context.Context, input *NewSystem) (*System, error) {

	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	actorId, _ := utils.GetActorIdFromContext(ctx)

	system := System{
		Name:      strings.TrimSpace(input.Name),
		CreatedBy: actorId,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&system).Error; err != nil {
		return nil, err
	}
	return &system, nil
}

func GetSystem(ctx context.Context, id int) (*System, error) {
	return utils.FetchModel[System](ctx, id)
}

func GetSystems(ctx context.Context) ([]*System, error) {
	return utils.FetchAllModels[System](ctx)
}

// getSystemByName looks a system up by its trimmed name, for the workbook
// importer.
func getSystemByName(ctx context.Context, name string) (*System, error) {
	db := config.GetDB()
	var system System
	if err := db.WithContext(ctx).Where("name = ?", strings.TrimSpace(name)).First(&system).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &system, nil
}
