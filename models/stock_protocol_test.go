package models_test

import (
	"errors"
	"testing"

	"github.com/DiksySingh/InventorySystem2-sub000/config"
	"github.com/DiksySingh/InventorySystem2-sub000/models"
	"github.com/DiksySingh/InventorySystem2-sub000/utils"
	"github.com/shopspring/decimal"
)

func TestQtyRoundingPolicy(t *testing.T) {
	qty := decimal.RequireFromString("1.2345")

	rounded := utils.RoundQty(qty, models.QtyRoundingPlaces(models.ItemCategoryPump))
	if !rounded.Equal(decimal.RequireFromString("1.23")) {
		t.Fatalf("pump quantity should round to 2 places, got %s", rounded)
	}

	exact := utils.RoundQty(qty, models.QtyRoundingPlaces(models.ItemCategoryAccessory))
	if !exact.Equal(qty) {
		t.Fatalf("accessory quantity must not be rounded, got %s", exact)
	}
}

func TestApplyStockDeltasRejectsUnknownLedgerRow(t *testing.T) {
	ctx := setupIntegration(t)

	warehouse, err := models.CreateWarehouse(ctx, &models.NewWarehouse{Name: "Jabalpur Depot"})
	if err != nil {
		t.Fatalf("CreateWarehouse: %v", err)
	}
	item := mustCreateItem(t, ctx, "Nut Bolt Set", models.ItemCategoryAccessory)
	seedStock(t, warehouse.ID, map[int]int64{item.ID: 5})

	// an item that was never onboarded must abort the whole batch
	tx := config.GetDB().Begin()
	err = models.ApplyStockDeltas(tx, warehouse.ID, []models.StockDelta{
		{SystemItemId: item.ID, Field: models.StockFieldQuantity, Delta: decimal.NewFromInt(-1)},
		{SystemItemId: 999999, Field: models.StockFieldQuantity, Delta: decimal.NewFromInt(-1)},
	}, 1)
	var notInInvErr *utils.ItemNotInInventoryError
	if !errors.As(err, &notInInvErr) {
		t.Fatalf("expected ItemNotInInventoryError, got %v", err)
	}
	if got := fetchQty(t, warehouse.ID, item.ID); !got.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("ledger mutated by aborted batch: %s", got)
	}
}

func TestApplyStockDeltasDefectiveCounter(t *testing.T) {
	ctx := setupIntegration(t)

	warehouse, err := models.CreateWarehouse(ctx, &models.NewWarehouse{Name: "Satna Depot"})
	if err != nil {
		t.Fatalf("CreateWarehouse: %v", err)
	}
	item := mustCreateItem(t, ctx, "RMU Unit", models.ItemCategoryRMU)
	seedStock(t, warehouse.ID, map[int]int64{item.ID: 3})

	tx := config.GetDB().Begin()
	if err := models.ApplyStockDeltas(tx, warehouse.ID, []models.StockDelta{
		{SystemItemId: item.ID, Field: models.StockFieldQuantity, Delta: decimal.NewFromInt(-2)},
		{SystemItemId: item.ID, Field: models.StockFieldDefective, Delta: decimal.NewFromInt(2)},
	}, 1); err != nil {
		t.Fatalf("ApplyStockDeltas: %v", err)
	}
	if err := tx.Commit().Error; err != nil {
		t.Fatalf("commit: %v", err)
	}

	db := config.GetDB()
	var row models.InstallationInventory
	if err := db.Where("warehouse_id = ? AND system_item_id = ?", warehouse.ID, item.ID).First(&row).Error; err != nil {
		t.Fatalf("fetch ledger row: %v", err)
	}
	if !row.Quantity.Equal(decimal.NewFromInt(1)) || !row.Defective.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("expected quantity 1 / defective 2, got %s / %s", row.Quantity, row.Defective)
	}

	// the defective counter is non-negative like the usable one
	tx = config.GetDB().Begin()
	err = models.ApplyStockDeltas(tx, warehouse.ID, []models.StockDelta{
		{SystemItemId: item.ID, Field: models.StockFieldDefective, Delta: decimal.NewFromInt(-3)},
	}, 1)
	var insufficientErr *utils.InsufficientStockError
	if !errors.As(err, &insufficientErr) {
		t.Fatalf("expected InsufficientStockError on defective underflow, got %v", err)
	}
}
