package models

import (
	"context"
	"errors"

	"github.com/DiksySingh/InventorySystem2-sub000/config"
	"github.com/DiksySingh/InventorySystem2-sub000/utils"
	"github.com/shopspring/decimal"
)

type NewReplacementDispatch struct {
	WarehouseId  int                  `json:"warehouse_id" binding:"required"`
	SystemItemId int                  `json:"system_item_id" binding:"required"`
	Quantity     decimal.Decimal      `json:"quantity" binding:"required"`
	Direction    ReplacementDirection `json:"direction" binding:"required"`
	ProductType  SerialProductType    `json:"product_type"`
	State        string               `json:"state"`
	OldSerial    *string              `json:"old_serial"`
	NewSerial    *string              `json:"new_serial"`
	Remarks      string               `json:"remarks"`
}

// CreateReplacementDispatch moves stock between the usable and defective
// counters of one warehouse in a single transaction.
//
// defectiveIn: a good unit leaves the shelf for the field and the broken unit
// it replaced enters the defective counter. repairedOut: a repaired unit
// leaves the defective counter back onto the shelf and its serial returns to
// circulation.
func CreateReplacementDispatch(ctx context.Context, input *NewReplacementDispatch) (*StockUpdateActivity, error) {

	if input.Quantity.IsZero() || input.Quantity.IsNegative() {
		return nil, errors.New("quantity must be positive")
	}
	if err := utils.ValidateResourceId[Warehouse](ctx, input.WarehouseId); err != nil {
		return nil, errors.New("warehouse not found")
	}
	item, err := utils.FetchModel[SystemItem](ctx, input.SystemItemId)
	if err != nil {
		return nil, errors.New("system item not found")
	}

	var deltas []StockDelta
	switch input.Direction {
	case ReplacementDirectionDefectiveIn:
		deltas = []StockDelta{
			{SystemItemId: input.SystemItemId, Field: StockFieldQuantity, Delta: input.Quantity.Neg()},
			{SystemItemId: input.SystemItemId, Field: StockFieldDefective, Delta: input.Quantity},
		}
	case ReplacementDirectionRepairedOut:
		deltas = []StockDelta{
			{SystemItemId: input.SystemItemId, Field: StockFieldDefective, Delta: input.Quantity.Neg()},
			{SystemItemId: input.SystemItemId, Field: StockFieldQuantity, Delta: input.Quantity},
		}
	default:
		return nil, errors.New("invalid replacement direction")
	}

	actorId, _ := utils.GetActorIdFromContext(ctx)

	release, err := utils.WarehouseLock(ctx, input.WarehouseId, "stock", "replacement.go", "CreateReplacementDispatch")
	if err != nil {
		return nil, err
	}
	defer release()

	db := config.GetDB()
	tx := db.Begin().WithContext(ctx)

	if input.Direction == ReplacementDirectionDefectiveIn && input.NewSerial != nil {
		if input.ProductType == "" {
			tx.Rollback()
			return nil, errors.New("product type is required with a serial number")
		}
		if err := consumeSerialNumber(tx, *input.NewSerial, input.ProductType, input.State); err != nil {
			return nil, err
		}
	}
	if input.Direction == ReplacementDirectionRepairedOut && input.OldSerial != nil {
		if input.ProductType == "" {
			tx.Rollback()
			return nil, errors.New("product type is required with a serial number")
		}
		if err := releaseSerialNumber(tx, *input.OldSerial, input.ProductType, input.State); err != nil {
			return nil, err
		}
	}

	if err := ApplyStockDeltas(tx, input.WarehouseId, deltas, actorId); err != nil {
		return nil, err
	}

	items := ItemsList{{SystemItemId: input.SystemItemId, ItemName: item.Name, Quantity: input.Quantity}}
	activity := StockUpdateActivity{
		WarehouseId: input.WarehouseId,
		Type:        StockActivityReplacement,
		ItemsList:   items,
		CreatedBy:   actorId,
	}
	if err := tx.Create(&activity).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &activity, nil
}
