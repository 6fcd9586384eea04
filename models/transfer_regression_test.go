package models_test

import (
	"errors"
	"testing"

	"github.com/DiksySingh/InventorySystem2-sub000/models"
	"github.com/DiksySingh/InventorySystem2-sub000/utils"
	"github.com/shopspring/decimal"
)

func TestWarehouseTransferApprovalCreditsDestinationOnce(t *testing.T) {
	ctx := setupIntegration(t)

	source, err := models.CreateWarehouse(ctx, &models.NewWarehouse{Name: "Indore Depot"})
	if err != nil {
		t.Fatalf("CreateWarehouse(source): %v", err)
	}
	dest, err := models.CreateWarehouse(ctx, &models.NewWarehouse{Name: "Ujjain Depot"})
	if err != nil {
		t.Fatalf("CreateWarehouse(dest): %v", err)
	}
	item := mustCreateItem(t, ctx, "Structure Set", models.ItemCategoryAccessory)

	seedStock(t, source.ID, map[int]int64{item.ID: 10})

	transfer, err := models.CreateWarehouseTransfer(ctx, &models.NewWarehouseTransfer{
		FromWarehouseId: source.ID,
		ToWarehouseId:   dest.ID,
		Items: models.ItemsList{
			{SystemItemId: item.ID, Quantity: decimal.NewFromInt(4)},
		},
		DriverName:    "R. Kumar",
		VehicleNumber: "MP09-AB-1234",
	})
	if err != nil {
		t.Fatalf("CreateWarehouseTransfer: %v", err)
	}
	if transfer.Status != models.TransferStatusPending {
		t.Fatalf("expected pending, got %s", transfer.Status)
	}

	// outgoing=true deducts the source at creation
	if got := fetchQty(t, source.ID, item.ID); !got.Equal(decimal.NewFromInt(6)) {
		t.Fatalf("source ledger after creation: expected 6, got %s", got)
	}
	if got := fetchQty(t, dest.ID, item.ID); !got.IsZero() {
		t.Fatalf("destination must not be credited before approval, got %s", got)
	}

	approved, err := models.AcceptWarehouseTransfer(ctx, transfer.ID)
	if err != nil {
		t.Fatalf("AcceptWarehouseTransfer: %v", err)
	}
	if approved.Status != models.TransferStatusApproved || approved.ApprovedBy == nil || approved.ArrivedDate == nil {
		t.Fatalf("approval metadata missing: %+v", approved)
	}
	if got := fetchQty(t, dest.ID, item.ID); !got.Equal(decimal.NewFromInt(4)) {
		t.Fatalf("destination ledger after approval: expected 4, got %s", got)
	}

	// second approval is rejected and must not double-credit
	_, err = models.AcceptWarehouseTransfer(ctx, transfer.ID)
	if !errors.Is(err, utils.ErrorTransferAlreadyApproved) {
		t.Fatalf("expected already-approved rejection, got %v", err)
	}
	if got := fetchQty(t, dest.ID, item.ID); !got.Equal(decimal.NewFromInt(4)) {
		t.Fatalf("destination ledger changed on rejected re-approval: %s", got)
	}
}

func TestDeferredTransferDeductsSourceOnApproval(t *testing.T) {
	ctx := setupIntegration(t)

	source, err := models.CreateWarehouse(ctx, &models.NewWarehouse{Name: "Dewas Depot"})
	if err != nil {
		t.Fatalf("CreateWarehouse(source): %v", err)
	}
	dest, err := models.CreateWarehouse(ctx, &models.NewWarehouse{Name: "Sehore Depot"})
	if err != nil {
		t.Fatalf("CreateWarehouse(dest): %v", err)
	}
	item := mustCreateItem(t, ctx, "Earthing Kit", models.ItemCategoryAccessory)
	seedStock(t, source.ID, map[int]int64{item.ID: 5})

	outgoing := false
	transfer, err := models.CreateWarehouseTransfer(ctx, &models.NewWarehouseTransfer{
		FromWarehouseId: source.ID,
		ToWarehouseId:   dest.ID,
		Items: models.ItemsList{
			{SystemItemId: item.ID, Quantity: decimal.NewFromInt(2)},
		},
		Outgoing: &outgoing,
	})
	if err != nil {
		t.Fatalf("CreateWarehouseTransfer: %v", err)
	}

	if got := fetchQty(t, source.ID, item.ID); !got.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("deferred transfer must not deduct at creation, got %s", got)
	}

	if _, err := models.AcceptWarehouseTransfer(ctx, transfer.ID); err != nil {
		t.Fatalf("AcceptWarehouseTransfer: %v", err)
	}
	if got := fetchQty(t, source.ID, item.ID); !got.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("source after approval: expected 3, got %s", got)
	}
	if got := fetchQty(t, dest.ID, item.ID); !got.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("destination after approval: expected 2, got %s", got)
	}
}

func TestOutgoingReceivingConvergesToFullyReceived(t *testing.T) {
	ctx := setupIntegration(t)

	warehouse, err := models.CreateWarehouse(ctx, &models.NewWarehouse{Name: "Ratlam Depot"})
	if err != nil {
		t.Fatalf("CreateWarehouse: %v", err)
	}
	item := mustCreateItem(t, ctx, "Motor 5HP", models.ItemCategoryMotor)
	seedStock(t, warehouse.ID, map[int]int64{item.ID: 10})

	outgoing, err := models.CreateOutgoingItems(ctx, &models.NewOutgoingItems{
		WarehouseId: warehouse.ID,
		Lines: models.OutgoingLines{
			{FarmerSaralId: "SRL-2001", Items: models.ItemsList{
				{SystemItemId: item.ID, Quantity: decimal.NewFromInt(5)},
			}},
		},
	})
	if err != nil {
		t.Fatalf("CreateOutgoingItems: %v", err)
	}
	if outgoing.Status != models.OutgoingStatusPending {
		t.Fatalf("expected Pending, got %s", outgoing.Status)
	}
	if got := fetchQty(t, warehouse.ID, item.ID); !got.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("ledger after outgoing: expected 5, got %s", got)
	}

	if _, err := models.AddReceivingItems(ctx, &models.NewReceivingItems{
		OutgoingId: outgoing.ID,
		Lines: models.OutgoingLines{
			{FarmerSaralId: "SRL-2001", Items: models.ItemsList{
				{SystemItemId: item.ID, Quantity: decimal.NewFromInt(3)},
			}},
		},
	}); err != nil {
		t.Fatalf("AddReceivingItems(batch 1): %v", err)
	}
	refreshed, err := models.GetOutgoingItems(ctx, outgoing.ID)
	if err != nil {
		t.Fatalf("GetOutgoingItems: %v", err)
	}
	if refreshed.Status != models.OutgoingStatusPartiallyReceived {
		t.Fatalf("after batch 1 expected Partially Received, got %s", refreshed.Status)
	}

	if _, err := models.AddReceivingItems(ctx, &models.NewReceivingItems{
		OutgoingId: outgoing.ID,
		Lines: models.OutgoingLines{
			{FarmerSaralId: "SRL-2001", Items: models.ItemsList{
				{SystemItemId: item.ID, Quantity: decimal.NewFromInt(2)},
			}},
		},
	}); err != nil {
		t.Fatalf("AddReceivingItems(batch 2): %v", err)
	}
	refreshed, err = models.GetOutgoingItems(ctx, outgoing.ID)
	if err != nil {
		t.Fatalf("GetOutgoingItems: %v", err)
	}
	if refreshed.Status != models.OutgoingStatusFullyReceived {
		t.Fatalf("after batch 2 expected Fully Received, got %s", refreshed.Status)
	}
	if got := fetchQty(t, warehouse.ID, item.ID); !got.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("ledger after full receipt: expected 10, got %s", got)
	}

	// any batch after full receipt is a hard rejection
	_, err = models.AddReceivingItems(ctx, &models.NewReceivingItems{
		OutgoingId: outgoing.ID,
		Lines: models.OutgoingLines{
			{FarmerSaralId: "SRL-2001", Items: models.ItemsList{
				{SystemItemId: item.ID, Quantity: decimal.NewFromInt(1)},
			}},
		},
	})
	if !errors.Is(err, utils.ErrorOutgoingFullyReceived) {
		t.Fatalf("expected fully-received rejection, got %v", err)
	}
}

func TestRepairRejectMovesDefectiveStock(t *testing.T) {
	ctx := setupIntegration(t)

	warehouse, err := models.CreateWarehouse(ctx, &models.NewWarehouse{Name: "Gwalior Depot"})
	if err != nil {
		t.Fatalf("CreateWarehouse: %v", err)
	}
	item := mustCreateItem(t, ctx, "Controller 3HP", models.ItemCategoryController)
	seedStock(t, warehouse.ID, map[int]int64{item.ID: 4})

	// field swap: good out, defective in
	if _, err := models.CreateReplacementDispatch(ctx, &models.NewReplacementDispatch{
		WarehouseId:  warehouse.ID,
		SystemItemId: item.ID,
		Quantity:     decimal.NewFromInt(1),
		Direction:    models.ReplacementDirectionDefectiveIn,
	}); err != nil {
		t.Fatalf("CreateReplacementDispatch: %v", err)
	}
	if got := fetchQty(t, warehouse.ID, item.ID); !got.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("usable after replacement: expected 3, got %s", got)
	}

	// repair puts it back on the shelf
	if _, err := models.CreateRepairNReject(ctx, &models.NewRepairNReject{
		WarehouseId:  warehouse.ID,
		SystemItemId: item.ID,
		Quantity:     decimal.NewFromInt(1),
		IsRepaired:   true,
	}); err != nil {
		t.Fatalf("CreateRepairNReject(repair): %v", err)
	}
	if got := fetchQty(t, warehouse.ID, item.ID); !got.Equal(decimal.NewFromInt(4)) {
		t.Fatalf("usable after repair: expected 4, got %s", got)
	}

	// rejecting more defective stock than held aborts
	_, err = models.CreateRepairNReject(ctx, &models.NewRepairNReject{
		WarehouseId:  warehouse.ID,
		SystemItemId: item.ID,
		Quantity:     decimal.NewFromInt(1),
		IsRepaired:   false,
	})
	var insufficientErr *utils.InsufficientStockError
	if !errors.As(err, &insufficientErr) {
		t.Fatalf("expected InsufficientStockError on empty defective counter, got %v", err)
	}
}
