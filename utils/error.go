package utils

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var ErrorRecordNotFound = errors.New("record not found")

// ErrorTransferAlreadyApproved guards the one-way pending -> approved
// transition; re-approval would double-credit the destination warehouse.
var ErrorTransferAlreadyApproved = errors.New("transfer has already been approved")

// ErrorOutgoingFullyReceived rejects receiving batches once the outgoing
// request is complete.
var ErrorOutgoingFullyReceived = errors.New("outgoing request has already been fully received")

// InsufficientStockError aborts the whole stock mutation batch. It carries the
// offending item with available vs requested quantities for a precise
// user-facing message.
type InsufficientStockError struct {
	SystemItemId int
	ItemName     string
	Available    decimal.Decimal
	Requested    decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: available %s, requested %s",
		e.ItemName, e.Available.String(), e.Requested.String())
}

// ItemNotInInventoryError means the (warehouse, item) ledger row was never
// onboarded. Rows are only created by the warehouse onboarding backfill,
// never silently mid-flow.
type ItemNotInInventoryError struct {
	WarehouseId  int
	SystemItemId int
}

func (e *ItemNotInInventoryError) Error() string {
	return fmt.Sprintf("item %d is not in the inventory of warehouse %d", e.SystemItemId, e.WarehouseId)
}

// DuplicateError rejects operations that must happen at most once
// (serial registration, farmer dispatch, catalog duplicates).
type DuplicateError struct {
	Subject string
}

func (e *DuplicateError) Error() string {
	return "duplicate " + e.Subject
}

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}
