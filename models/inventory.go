package models

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/DiksySingh/InventorySystem2-sub000/config"
	"github.com/DiksySingh/InventorySystem2-sub000/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InstallationInventory is the per-warehouse stock ledger, one row per
// (warehouse, item). Quantity is usable stock; Defective is broken stock held
// for repair. Rows are created only by the onboarding backfills, never
// silently mid-flow.
type InstallationInventory struct {
	ID           int             `gorm:"primary_key" json:"id"`
	WarehouseId  int             `gorm:"not null;uniqueIndex:idx_warehouse_item" json:"warehouse_id"`
	SystemItemId int             `gorm:"not null;uniqueIndex:idx_warehouse_item" json:"system_item_id"`
	Quantity     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity"`
	Defective    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"defective"`
	UpdatedBy    int             `json:"updated_by"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// StockField selects which counter of a ledger row a delta applies to.
type StockField string

const (
	StockFieldQuantity  StockField = "quantity"
	StockFieldDefective StockField = "defective"
)

// StockDelta is one signed adjustment against one ledger counter. A batch of
// deltas is applied atomically: any failing delta aborts the whole batch.
type StockDelta struct {
	SystemItemId int
	Field        StockField
	Delta        decimal.Decimal
}

// ApplyStockDeltas applies a batch of signed stock adjustments to one
// warehouse inside the caller's transaction. Every flow that touches stock
// (dispatch, replacement, transfer, receiving, repair) goes through here.
//
// Per delta: the ledger row is locked FOR UPDATE, the delta is rounded by the
// item's category policy, and the update is rejected if the resulting counter
// would go negative. A missing row or insufficient balance rolls the
// transaction back.
//
// Rows are locked in item id order so two concurrent batches over the same
// warehouse cannot deadlock each other.
func ApplyStockDeltas(tx *gorm.DB, warehouseId int, deltas []StockDelta, actorId int) error {

	if len(deltas) == 0 {
		return nil
	}

	ids := make([]int, 0, len(deltas))
	for _, d := range deltas {
		ids = append(ids, d.SystemItemId)
	}
	var items []SystemItem
	if err := tx.Select("id", "name", "category").Where("id IN ?", utils.UniqueSlice(ids)).Find(&items).Error; err != nil {
		tx.Rollback()
		return err
	}
	names := make(map[int]string, len(items))
	rounding := make(map[int]int32, len(items))
	for _, item := range items {
		names[item.ID] = item.Name
		rounding[item.ID] = QtyRoundingPlaces(item.Category)
	}

	ordered := make([]StockDelta, len(deltas))
	copy(ordered, deltas)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].SystemItemId != ordered[j].SystemItemId {
			return ordered[i].SystemItemId < ordered[j].SystemItemId
		}
		return ordered[i].Field < ordered[j].Field
	})

	for _, d := range ordered {
		var row InstallationInventory
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("warehouse_id = ? AND system_item_id = ?", warehouseId, d.SystemItemId).
			First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			tx.Rollback()
			return &utils.ItemNotInInventoryError{WarehouseId: warehouseId, SystemItemId: d.SystemItemId}
		} else if err != nil {
			tx.Rollback()
			return err
		}

		delta := utils.RoundQty(d.Delta, rounding[d.SystemItemId])

		current := row.Quantity
		if d.Field == StockFieldDefective {
			current = row.Defective
		}
		if current.Add(delta).IsNegative() {
			tx.Rollback()
			return &utils.InsufficientStockError{
				SystemItemId: d.SystemItemId,
				ItemName:     names[d.SystemItemId],
				Available:    current,
				Requested:    delta.Neg(),
			}
		}

		column := "quantity"
		if d.Field == StockFieldDefective {
			column = "defective"
		}
		if err := tx.Exec("UPDATE installation_inventories SET "+column+" = "+column+" + ?, updated_by = ? WHERE id = ?",
			delta, actorId, row.ID).Error; err != nil {
			tx.Rollback()
			return err
		}
	}

	return nil
}

// EnsureWarehouseInventory backfills a zero ledger row in the given warehouse
// for every catalog item that doesn't have one yet. Called on warehouse
// onboarding.
func EnsureWarehouseInventory(tx *gorm.DB, warehouseId int) error {
	return tx.Exec(`INSERT INTO installation_inventories (warehouse_id, system_item_id, quantity, defective, created_at, updated_at)
		SELECT ?, id, 0, 0, NOW(), NOW() FROM system_items
		WHERE id NOT IN (SELECT system_item_id FROM installation_inventories WHERE warehouse_id = ?)`,
		warehouseId, warehouseId).Error
}

// EnsureItemInventory backfills a zero ledger row for the given item in every
// warehouse. Called on catalog item creation.
func EnsureItemInventory(tx *gorm.DB, systemItemId int) error {
	return tx.Exec(`INSERT INTO installation_inventories (warehouse_id, system_item_id, quantity, defective, created_at, updated_at)
		SELECT id, ?, 0, 0, NOW(), NOW() FROM warehouses
		WHERE id NOT IN (SELECT warehouse_id FROM installation_inventories WHERE system_item_id = ?)`,
		systemItemId, systemItemId).Error
}

// StockRow is one ledger row joined with its catalog item, as returned to
// stock listing callers.
type StockRow struct {
	SystemItemId int             `json:"system_item_id"`
	ItemName     string          `json:"item_name"`
	Unit         string          `json:"unit"`
	Category     ItemCategory    `json:"category"`
	Quantity     decimal.Decimal `json:"quantity"`
	Defective    decimal.Decimal `json:"defective"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// GetWarehouseStock lists the ledger of one warehouse. An empty category
// string means all categories.
func GetWarehouseStock(ctx context.Context, warehouseId int, category ItemCategory) ([]StockRow, error) {

	if err := utils.ValidateResourceId[Warehouse](ctx, warehouseId); err != nil {
		return nil, errors.New("warehouse not found")
	}

	db := config.GetDB()
	query := db.WithContext(ctx).Model(&InstallationInventory{}).
		Select("installation_inventories.system_item_id",
			"system_items.name AS item_name",
			"system_items.unit",
			"system_items.category",
			"installation_inventories.quantity",
			"installation_inventories.defective",
			"installation_inventories.updated_at").
		Joins("JOIN system_items ON system_items.id = installation_inventories.system_item_id").
		Where("installation_inventories.warehouse_id = ?", warehouseId)
	if category != "" {
		query = query.Where("system_items.category = ?", category)
	}

	var rows []StockRow
	if err := query.Order("system_items.name").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
