package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func receivingFixture() OutgoingLines {
	return OutgoingLines{
		{FarmerSaralId: "F1", Items: ItemsList{{SystemItemId: 1, Quantity: decimal.NewFromInt(5)}}},
		{FarmerSaralId: "F2", Items: ItemsList{{SystemItemId: 2, Quantity: decimal.NewFromInt(3)}}},
	}
}

func batch(farmer string, itemId int, n int64) OutgoingLines {
	return OutgoingLines{
		{FarmerSaralId: farmer, Items: ItemsList{{SystemItemId: itemId, Quantity: decimal.NewFromInt(n)}}},
	}
}

func TestDeriveOutgoingStatusPendingWithoutBatches(t *testing.T) {
	if got := deriveOutgoingStatus(receivingFixture(), nil); got != OutgoingStatusPending {
		t.Fatalf("expected Pending, got %s", got)
	}
}

func TestDeriveOutgoingStatusPartialThenFull(t *testing.T) {
	requested := receivingFixture()

	batches := []OutgoingLines{batch("F1", 1, 3)}
	if got := deriveOutgoingStatus(requested, batches); got != OutgoingStatusPartiallyReceived {
		t.Fatalf("after partial batch expected Partially Received, got %s", got)
	}

	batches = append(batches, batch("F1", 1, 2), batch("F2", 2, 3))
	if got := deriveOutgoingStatus(requested, batches); got != OutgoingStatusFullyReceived {
		t.Fatalf("after completing batches expected Fully Received, got %s", got)
	}
}

func TestDeriveOutgoingStatusIdempotentRecomputation(t *testing.T) {
	requested := receivingFixture()
	batches := []OutgoingLines{batch("F1", 1, 5), batch("F2", 2, 3)}

	first := deriveOutgoingStatus(requested, batches)
	second := deriveOutgoingStatus(requested, batches)
	if first != second || first != OutgoingStatusFullyReceived {
		t.Fatalf("recomputation must be stable: %s vs %s", first, second)
	}
}

func TestDeriveOutgoingStatusIgnoresUnknownPairs(t *testing.T) {
	// a batch for a pair outside the request never flips completion
	requested := receivingFixture()
	batches := []OutgoingLines{batch("F9", 1, 100)}

	if got := deriveOutgoingStatus(requested, batches); got != OutgoingStatusPending {
		t.Fatalf("unknown (farmer,item) pairs must not count, got %s", got)
	}
}
