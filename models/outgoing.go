package models

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DiksySingh/InventorySystem2-sub000/config"
	"github.com/DiksySingh/InventorySystem2-sub000/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OutgoingLine groups the items requested for (or received back from) one
// farmer within a third-party batch.
type OutgoingLine struct {
	FarmerSaralId string    `json:"farmerSaralId"`
	Items         ItemsList `json:"items"`
}

type OutgoingLines []OutgoingLine

func (l OutgoingLines) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *OutgoingLines) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return errors.New("unsupported type for OutgoingLines")
	}
}

// OutgoingItems is a third-party send request: per-farmer item lists that
// left the warehouse and are expected back. Status is always recomputed from
// the full set of receiving batches, never adjusted incrementally.
type OutgoingItems struct {
	ID          int            `gorm:"primary_key" json:"id"`
	WarehouseId int            `gorm:"not null;index" json:"warehouse_id"`
	Lines       OutgoingLines  `gorm:"type:text;not null" json:"lines"`
	Status      OutgoingStatus `gorm:"size:30;not null;default:'Pending'" json:"status"`
	Remarks     string         `gorm:"size:255" json:"remarks"`
	CreatedBy   int            `json:"created_by"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// ReceivingItems is one additive batch of returns against an outgoing
// request. Batches are evidence; they are never edited after creation.
type ReceivingItems struct {
	ID         int           `gorm:"primary_key" json:"id"`
	OutgoingId int           `gorm:"not null;index" json:"outgoing_id"`
	Lines      OutgoingLines `gorm:"type:text;not null" json:"lines"`
	Remarks    string        `gorm:"size:255" json:"remarks"`
	CreatedBy  int           `json:"created_by"`
	CreatedAt  time.Time     `gorm:"autoCreateTime" json:"created_at"`
}

func lineKey(farmerSaralId string, systemItemId int) string {
	return fmt.Sprintf("%s:%d", farmerSaralId, systemItemId)
}

// deriveOutgoingStatus recomputes the completion state of an outgoing request
// from the sum of all its receiving batches. Recomputing from scratch makes
// the derivation idempotent: replaying the same batches yields the same
// status.
func deriveOutgoingStatus(requested OutgoingLines, batches []OutgoingLines) OutgoingStatus {

	received := make(map[string]decimal.Decimal)
	for _, batch := range batches {
		for _, line := range batch {
			for _, item := range line.Items {
				key := lineKey(line.FarmerSaralId, item.SystemItemId)
				received[key] = received[key].Add(item.Quantity)
			}
		}
	}

	anyReceived := false
	allReceived := true
	for _, line := range requested {
		for _, item := range line.Items {
			got := received[lineKey(line.FarmerSaralId, item.SystemItemId)]
			if got.GreaterThan(decimal.Zero) {
				anyReceived = true
			}
			if got.LessThan(item.Quantity) {
				allReceived = false
			}
		}
	}

	switch {
	case allReceived:
		return OutgoingStatusFullyReceived
	case anyReceived:
		return OutgoingStatusPartiallyReceived
	default:
		return OutgoingStatusPending
	}
}

func validateOutgoingLines(ctx context.Context, lines OutgoingLines) (OutgoingLines, error) {
	if len(lines) == 0 {
		return nil, errors.New("lines cannot be empty")
	}
	seen := make(map[string]bool)
	var ids []int
	for _, line := range lines {
		if strings.TrimSpace(line.FarmerSaralId) == "" {
			return nil, errors.New("farmer saral id is required on every line")
		}
		if len(line.Items) == 0 {
			return nil, errors.New("items cannot be empty for farmer " + line.FarmerSaralId)
		}
		for _, item := range line.Items {
			if item.Quantity.IsZero() || item.Quantity.IsNegative() {
				return nil, errors.New("item quantity must be positive")
			}
			key := lineKey(line.FarmerSaralId, item.SystemItemId)
			if seen[key] {
				return nil, &utils.DuplicateError{Subject: "item for farmer " + line.FarmerSaralId}
			}
			seen[key] = true
			ids = append(ids, item.SystemItemId)
		}
	}
	if err := utils.ValidateResourcesId[SystemItem, int](ctx, ids); err != nil {
		return nil, errors.New("system item not found")
	}

	names, err := itemNames(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(OutgoingLines, 0, len(lines))
	for _, line := range lines {
		items := make(ItemsList, 0, len(line.Items))
		for _, item := range line.Items {
			item.ItemName = names[item.SystemItemId]
			items = append(items, item)
		}
		out = append(out, OutgoingLine{FarmerSaralId: strings.TrimSpace(line.FarmerSaralId), Items: items})
	}
	return out, nil
}

// aggregateLineDeltas flattens per-farmer lines into one delta per item.
func aggregateLineDeltas(lines OutgoingLines, sign int) []StockDelta {
	totals := make(map[int]decimal.Decimal)
	var order []int
	for _, line := range lines {
		for _, item := range line.Items {
			if _, ok := totals[item.SystemItemId]; !ok {
				order = append(order, item.SystemItemId)
			}
			totals[item.SystemItemId] = totals[item.SystemItemId].Add(item.Quantity)
		}
	}
	deltas := make([]StockDelta, 0, len(order))
	for _, id := range order {
		delta := totals[id]
		if sign < 0 {
			delta = delta.Neg()
		}
		deltas = append(deltas, StockDelta{SystemItemId: id, Field: StockFieldQuantity, Delta: delta})
	}
	return deltas
}

type NewOutgoingItems struct {
	WarehouseId int           `json:"warehouse_id" binding:"required"`
	Lines       OutgoingLines `json:"lines" binding:"required,min=1"`
	Remarks     string        `json:"remarks"`
}

// CreateOutgoingItems records a third-party send and deducts every requested
// quantity from the warehouse in one transaction.
func CreateOutgoingItems(ctx context.Context, input *NewOutgoingItems) (*OutgoingItems, error) {

	if err := utils.ValidateResourceId[Warehouse](ctx, input.WarehouseId); err != nil {
		return nil, errors.New("warehouse not found")
	}
	lines, err := validateOutgoingLines(ctx, input.Lines)
	if err != nil {
		return nil, err
	}

	actorId, _ := utils.GetActorIdFromContext(ctx)

	release, err := utils.WarehouseLock(ctx, input.WarehouseId, "stock", "outgoing.go", "CreateOutgoingItems")
	if err != nil {
		return nil, err
	}
	defer release()

	db := config.GetDB()
	tx := db.Begin().WithContext(ctx)

	outgoing := OutgoingItems{
		WarehouseId: input.WarehouseId,
		Lines:       lines,
		Status:      OutgoingStatusPending,
		Remarks:     input.Remarks,
		CreatedBy:   actorId,
	}
	if err := tx.Create(&outgoing).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := ApplyStockDeltas(tx, input.WarehouseId, aggregateLineDeltas(lines, -1), actorId); err != nil {
		return nil, err
	}

	var flat ItemsList
	for _, line := range lines {
		flat = append(flat, line.Items...)
	}
	if err := writeStockActivity(tx, input.WarehouseId, StockActivityThirdParty, outgoing.ID, flat, actorId); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &outgoing, nil
}

type NewReceivingItems struct {
	OutgoingId int           `json:"outgoing_id" binding:"required"`
	Lines      OutgoingLines `json:"lines" binding:"required,min=1"`
	Remarks    string        `json:"remarks"`
}

// AddReceivingItems records one additive batch of returns against an
// outgoing request: credits the warehouse, persists the batch, and recomputes
// the outgoing status from all batches. Batches against a fully received
// request, unknown (farmer, item) pairs, and over-receipts are rejected.
func AddReceivingItems(ctx context.Context, input *NewReceivingItems) (*ReceivingItems, error) {

	lines, err := validateOutgoingLines(ctx, input.Lines)
	if err != nil {
		return nil, err
	}

	actorId, _ := utils.GetActorIdFromContext(ctx)

	db := config.GetDB()
	tx := db.Begin().WithContext(ctx)

	var outgoing OutgoingItems
	err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&outgoing, input.OutgoingId).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		tx.Rollback()
		return nil, utils.ErrorRecordNotFound
	} else if err != nil {
		tx.Rollback()
		return nil, err
	}
	if outgoing.Status == OutgoingStatusFullyReceived {
		tx.Rollback()
		return nil, utils.ErrorOutgoingFullyReceived
	}

	var prior []ReceivingItems
	if err := tx.Where("outgoing_id = ?", outgoing.ID).Find(&prior).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	// cumulative received per (farmer, item) must stay within the request
	requested := make(map[string]decimal.Decimal)
	for _, line := range outgoing.Lines {
		for _, item := range line.Items {
			requested[lineKey(line.FarmerSaralId, item.SystemItemId)] = item.Quantity
		}
	}
	received := make(map[string]decimal.Decimal)
	for _, batch := range prior {
		for _, line := range batch.Lines {
			for _, item := range line.Items {
				key := lineKey(line.FarmerSaralId, item.SystemItemId)
				received[key] = received[key].Add(item.Quantity)
			}
		}
	}
	for _, line := range lines {
		for _, item := range line.Items {
			key := lineKey(line.FarmerSaralId, item.SystemItemId)
			limit, ok := requested[key]
			if !ok {
				tx.Rollback()
				return nil, errors.New("item was not part of the outgoing request: " + key)
			}
			if received[key].Add(item.Quantity).GreaterThan(limit) {
				tx.Rollback()
				return nil, errors.New("received quantity exceeds the outgoing request for " + key)
			}
		}
	}

	batch := ReceivingItems{
		OutgoingId: outgoing.ID,
		Lines:      lines,
		Remarks:    input.Remarks,
		CreatedBy:  actorId,
	}
	if err := tx.Create(&batch).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := ApplyStockDeltas(tx, outgoing.WarehouseId, aggregateLineDeltas(lines, 1), actorId); err != nil {
		return nil, err
	}

	var flat ItemsList
	for _, line := range lines {
		flat = append(flat, line.Items...)
	}
	if err := writeStockActivity(tx, outgoing.WarehouseId, StockActivityReceiving, outgoing.ID, flat, actorId); err != nil {
		return nil, err
	}

	allBatches := make([]OutgoingLines, 0, len(prior)+1)
	for _, b := range prior {
		allBatches = append(allBatches, b.Lines)
	}
	allBatches = append(allBatches, lines)
	status := deriveOutgoingStatus(outgoing.Lines, allBatches)
	if status != outgoing.Status {
		if err := tx.Model(&outgoing).Update("status", status).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

func GetOutgoingItems(ctx context.Context, id int) (*OutgoingItems, error) {
	return utils.FetchModel[OutgoingItems](ctx, id)
}

// GetOutgoingItemsList lists third-party requests for a warehouse (0 = all).
func GetOutgoingItemsList(ctx context.Context, warehouseId int, status OutgoingStatus) ([]OutgoingItems, error) {
	db := config.GetDB()
	query := db.WithContext(ctx).Model(&OutgoingItems{})
	if warehouseId != 0 {
		query = query.Where("warehouse_id = ?", warehouseId)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var rows []OutgoingItems
	if err := query.Order("id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetReceivingBatches lists the receiving batches of one outgoing request.
func GetReceivingBatches(ctx context.Context, outgoingId int) ([]ReceivingItems, error) {
	db := config.GetDB()
	var rows []ReceivingItems
	if err := db.WithContext(ctx).Where("outgoing_id = ?", outgoingId).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
