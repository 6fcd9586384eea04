package models

import (
	"context"
	"errors"
	"time"

	"github.com/DiksySingh/InventorySystem2-sub000/config"
	"github.com/DiksySingh/InventorySystem2-sub000/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SystemInventoryWToW is a warehouse-to-warehouse transfer request. Outgoing
// says whether source stock was already deducted at creation; when false the
// deduction is deferred to approval. Status moves pending -> approved exactly
// once; approval credits the destination.
type SystemInventoryWToW struct {
	ID              int            `gorm:"primary_key" json:"id"`
	FromWarehouseId int            `gorm:"not null;index" json:"from_warehouse_id" binding:"required"`
	ToWarehouseId   int            `gorm:"not null;index" json:"to_warehouse_id" binding:"required"`
	ItemsList       ItemsList      `gorm:"type:text;not null" json:"items_list"`
	DriverName      string         `gorm:"size:100" json:"driver_name"`
	VehicleNumber   string         `gorm:"size:30" json:"vehicle_number"`
	Remarks         string         `gorm:"size:255" json:"remarks"`
	Outgoing        *bool          `gorm:"default:true" json:"outgoing"`
	Status          TransferStatus `gorm:"size:20;not null;default:'pending'" json:"status"`
	ApprovedBy      *int           `json:"approved_by"`
	ArrivedDate     *time.Time     `json:"arrived_date"`
	CreatedBy       int            `json:"created_by"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewWarehouseTransfer struct {
	FromWarehouseId int       `json:"from_warehouse_id" binding:"required"`
	ToWarehouseId   int       `json:"to_warehouse_id" binding:"required"`
	Items           ItemsList `json:"items" binding:"required,min=1"`
	DriverName      string    `json:"driver_name"`
	VehicleNumber   string    `json:"vehicle_number"`
	Remarks         string    `json:"remarks"`
	Outgoing        *bool     `json:"outgoing"`
}

// validateTransferItems checks every line references a real catalog item with
// a positive quantity and fills in item names for the persisted snapshot.
func validateTransferItems(ctx context.Context, items ItemsList) (ItemsList, error) {
	if len(items) == 0 {
		return nil, errors.New("items list cannot be empty")
	}
	ids := make([]int, 0, len(items))
	for _, line := range items {
		if line.Quantity.IsZero() || line.Quantity.IsNegative() {
			return nil, errors.New("item quantity must be positive")
		}
		ids = append(ids, line.SystemItemId)
	}
	if len(utils.UniqueSlice(ids)) != len(ids) {
		return nil, &utils.DuplicateError{Subject: "item in transfer list"}
	}
	if err := utils.ValidateResourcesId[SystemItem, int](ctx, ids); err != nil {
		return nil, errors.New("system item not found")
	}
	names, err := itemNames(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(ItemsList, 0, len(items))
	for _, line := range items {
		line.ItemName = names[line.SystemItemId]
		out = append(out, line)
	}
	return out, nil
}

func transferDeltas(items ItemsList, sign int) []StockDelta {
	deltas := make([]StockDelta, 0, len(items))
	for _, line := range items {
		delta := line.Quantity
		if sign < 0 {
			delta = delta.Neg()
		}
		deltas = append(deltas, StockDelta{
			SystemItemId: line.SystemItemId,
			Field:        StockFieldQuantity,
			Delta:        delta,
		})
	}
	return deltas
}

// CreateWarehouseTransfer opens a pending transfer. With outgoing=true
// (the default) the source warehouse's stock is deducted immediately in the
// same transaction; otherwise the deduction waits for approval.
func CreateWarehouseTransfer(ctx context.Context, input *NewWarehouseTransfer) (*SystemInventoryWToW, error) {

	if input.FromWarehouseId == input.ToWarehouseId {
		return nil, errors.New("source and destination warehouses must differ")
	}
	if err := utils.ValidateResourcesId[Warehouse, int](ctx, []int{input.FromWarehouseId, input.ToWarehouseId}); err != nil {
		return nil, errors.New("warehouse not found")
	}
	items, err := validateTransferItems(ctx, input.Items)
	if err != nil {
		return nil, err
	}

	outgoing := utils.DereferencePtr(input.Outgoing, true)
	actorId, _ := utils.GetActorIdFromContext(ctx)

	release, err := utils.WarehouseLock(ctx, input.FromWarehouseId, "stock", "transfer.go", "CreateWarehouseTransfer")
	if err != nil {
		return nil, err
	}
	defer release()

	db := config.GetDB()
	tx := db.Begin().WithContext(ctx)

	transfer := SystemInventoryWToW{
		FromWarehouseId: input.FromWarehouseId,
		ToWarehouseId:   input.ToWarehouseId,
		ItemsList:       items,
		DriverName:      input.DriverName,
		VehicleNumber:   input.VehicleNumber,
		Remarks:         input.Remarks,
		Outgoing:        &outgoing,
		Status:          TransferStatusPending,
		CreatedBy:       actorId,
	}
	if err := tx.Create(&transfer).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if outgoing {
		if err := ApplyStockDeltas(tx, input.FromWarehouseId, transferDeltas(items, -1), actorId); err != nil {
			return nil, err
		}
		if err := writeStockActivity(tx, input.FromWarehouseId, StockActivityTransferOut, transfer.ID, items, actorId); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &transfer, nil
}

// AcceptWarehouseTransfer moves a pending transfer to approved and credits
// the destination warehouse. The transfer row is locked FOR UPDATE so a
// concurrent second approval observes the approved status and is rejected
// rather than double-crediting.
func AcceptWarehouseTransfer(ctx context.Context, transferId int) (*SystemInventoryWToW, error) {

	actorId, _ := utils.GetActorIdFromContext(ctx)

	db := config.GetDB()
	tx := db.Begin().WithContext(ctx)

	var transfer SystemInventoryWToW
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&transfer, transferId).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		tx.Rollback()
		return nil, utils.ErrorRecordNotFound
	} else if err != nil {
		tx.Rollback()
		return nil, err
	}
	if transfer.Status == TransferStatusApproved {
		tx.Rollback()
		return nil, utils.ErrorTransferAlreadyApproved
	}

	// deferred transfers deduct the source now, in the same transaction
	if !utils.DereferencePtr(transfer.Outgoing, true) {
		if err := ApplyStockDeltas(tx, transfer.FromWarehouseId, transferDeltas(transfer.ItemsList, -1), actorId); err != nil {
			return nil, err
		}
		if err := writeStockActivity(tx, transfer.FromWarehouseId, StockActivityTransferOut, transfer.ID, transfer.ItemsList, actorId); err != nil {
			return nil, err
		}
	}

	if err := ApplyStockDeltas(tx, transfer.ToWarehouseId, transferDeltas(transfer.ItemsList, 1), actorId); err != nil {
		return nil, err
	}
	if err := writeStockActivity(tx, transfer.ToWarehouseId, StockActivityTransferIn, transfer.ID, transfer.ItemsList, actorId); err != nil {
		return nil, err
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":       TransferStatusApproved,
		"approved_by":  actorId,
		"arrived_date": now,
	}
	if err := tx.Model(&transfer).Updates(updates).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	transfer.Status = TransferStatusApproved
	transfer.ApprovedBy = &actorId
	transfer.ArrivedDate = &now
	return &transfer, nil
}

// GetWarehouseTransfers lists transfers touching a warehouse (0 = all),
// optionally filtered by status.
func GetWarehouseTransfers(ctx context.Context, warehouseId int, status TransferStatus) ([]SystemInventoryWToW, error) {
	db := config.GetDB()
	query := db.WithContext(ctx).Model(&SystemInventoryWToW{})
	if warehouseId != 0 {
		query = query.Where("from_warehouse_id = ? OR to_warehouse_id = ?", warehouseId, warehouseId)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var rows []SystemInventoryWToW
	if err := query.Order("id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
