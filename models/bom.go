package models

import (
	"context"
	"errors"
	"sort"

	"github.com/DiksySingh/InventorySystem2-sub000/utils"
	"github.com/shopspring/decimal"
)

// VariantSelection carries the caller-chosen specific parts that decide which
// catalog rows apply to one unit of a system. A zero id means "not selected";
// for optional accessories (clamp) that is a removal, not a default.
type VariantSelection struct {
	PumpItemId       int `json:"pump_item_id"`
	ControllerItemId int `json:"controller_item_id"`
	ClampItemId      int `json:"clamp_item_id"`
}

// BOMLine is one entry of the flattened, deduplicated bill of materials for
// one unit of a system.
type BOMLine struct {
	SystemItemId int
	Quantity     decimal.Decimal
}

// flattenBOM expands the catalog graph of a single system into the flat
// (item, quantity) list for one unit, honoring the variant selection:
//
//   - direct rows contribute as-is, except pump-category variants other than
//     the selected pump;
//   - component rows apply only under a selected parent, and sub-items of
//     category Controller/RMU never ride along a pump's component list (they
//     are dispatched and serialized separately);
//   - clamp-category entries appear only when that exact clamp was selected;
//   - a directly supplied controller id contributes quantity 1.
//
// An item appearing both directly and as a component sums its quantities.
// The result is ordered by item id so identical inputs always produce
// identical output regardless of row ordering.
func flattenBOM(direct []SystemItemMap, components []ItemComponentMap, sel VariantSelection, categories map[int]ItemCategory) []BOMLine {

	acc := make(map[int]decimal.Decimal)

	include := func(itemId int) bool {
		switch categories[itemId] {
		case ItemCategoryPump:
			return itemId == sel.PumpItemId
		case ItemCategoryClamp:
			return itemId == sel.ClampItemId
		default:
			return true
		}
	}

	for _, row := range direct {
		if !include(row.SystemItemId) {
			continue
		}
		acc[row.SystemItemId] = acc[row.SystemItemId].Add(row.Quantity)
	}

	for _, row := range components {
		if row.ParentItemId != sel.PumpItemId && row.ParentItemId != sel.ClampItemId {
			continue
		}
		switch categories[row.SubItemId] {
		case ItemCategoryController, ItemCategoryRMU:
			continue
		}
		if !include(row.SubItemId) {
			continue
		}
		acc[row.SubItemId] = acc[row.SubItemId].Add(row.Quantity)
	}

	if sel.ControllerItemId != 0 {
		acc[sel.ControllerItemId] = acc[sel.ControllerItemId].Add(decimal.NewFromInt(1))
	}

	ids := make([]int, 0, len(acc))
	for id := range acc {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	lines := make([]BOMLine, 0, len(ids))
	for _, id := range ids {
		lines = append(lines, BOMLine{SystemItemId: id, Quantity: acc[id]})
	}
	return lines
}

// ResolveBOM expands the catalog graph for one unit of the given system under
// the caller's variant selection. A selected part missing from the catalog
// fails the whole resolution; there is no partial BOM.
func ResolveBOM(ctx context.Context, systemId int, sel VariantSelection) ([]BOMLine, error) {

	if err := utils.ValidateResourceId[System](ctx, systemId); err != nil {
		return nil, errors.New("system not found")
	}

	var selected []int
	for _, id := range []int{sel.PumpItemId, sel.ControllerItemId, sel.ClampItemId} {
		if id != 0 {
			selected = append(selected, id)
		}
	}
	if len(selected) > 0 {
		if err := utils.ValidateResourcesId[SystemItem, int](ctx, selected); err != nil {
			return nil, errors.New("selected part not found in catalog")
		}
	}

	graph, err := fetchCatalogGraph(ctx, systemId)
	if err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(graph.Direct)+2*len(graph.Components)+len(selected))
	for _, row := range graph.Direct {
		ids = append(ids, row.SystemItemId)
	}
	for _, row := range graph.Components {
		ids = append(ids, row.ParentItemId, row.SubItemId)
	}
	ids = append(ids, selected...)

	categories, err := itemCategories(ctx, ids)
	if err != nil {
		return nil, err
	}

	lines := flattenBOM(graph.Direct, graph.Components, sel, categories)
	if len(lines) == 0 {
		return nil, errors.New("system has no mapped items")
	}
	return lines, nil
}

// bomToItemsList resolves item names for the audit snapshot persisted with
// every dispatch.
func bomToItemsList(ctx context.Context, lines []BOMLine) (ItemsList, error) {
	ids := make([]int, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.SystemItemId)
	}
	names, err := itemNames(ctx, ids)
	if err != nil {
		return nil, err
	}
	list := make(ItemsList, 0, len(lines))
	for _, line := range lines {
		list = append(list, DispatchedItem{
			SystemItemId: line.SystemItemId,
			ItemName:     names[line.SystemItemId],
			Quantity:     line.Quantity,
		})
	}
	return list, nil
}
