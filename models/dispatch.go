package models

import (
	"context"
	"errors"
	"strings"

	"github.com/DiksySingh/InventorySystem2-sub000/config"
	"github.com/DiksySingh/InventorySystem2-sub000/utils"
)

// InstallationLine is one farmer's order within a dispatch request.
type InstallationLine struct {
	FarmerSaralId    string           `json:"farmer_saral_id" binding:"required"`
	SystemId         int              `json:"system_id" binding:"required"`
	Selection        VariantSelection `json:"selection"`
	Assignee         AssigneeRef      `json:"assignee" binding:"required"`
	PumpSerial       *string          `json:"pump_serial"`
	ControllerSerial *string          `json:"controller_serial"`
	RMUSerial        *string          `json:"rmu_serial"`
	PanelSerials     []string         `json:"panel_serials"`
	State            string           `json:"state"`
}

type NewInstallationDispatch struct {
	WarehouseId int                `json:"warehouse_id" binding:"required"`
	Lines       []InstallationLine `json:"lines" binding:"required,min=1,dive"`
}

type resolvedLine struct {
	line  InstallationLine
	bom   []BOMLine
	items ItemsList
}

// CreateInstallationDispatch resolves each line's bill of materials under its
// variant selection, deducts every resolved line from the warehouse ledger,
// consumes the traceable serials, and writes one dispatch audit row per
// farmer. One transaction for the whole request; any failing line aborts
// every line.
func CreateInstallationDispatch(ctx context.Context, input *NewInstallationDispatch) ([]FarmerItemsActivity, error) {

	if err := utils.ValidateResourceId[Warehouse](ctx, input.WarehouseId); err != nil {
		return nil, errors.New("warehouse not found")
	}

	seen := make(map[string]bool, len(input.Lines))
	resolved := make([]resolvedLine, 0, len(input.Lines))
	for i := range input.Lines {
		line := input.Lines[i]
		line.FarmerSaralId = strings.TrimSpace(line.FarmerSaralId)
		if line.FarmerSaralId == "" {
			return nil, errors.New("farmer saral id is required")
		}
		if seen[line.FarmerSaralId] {
			return nil, &utils.DuplicateError{Subject: "farmer " + line.FarmerSaralId + " in request"}
		}
		seen[line.FarmerSaralId] = true

		if err := line.Assignee.validate(); err != nil {
			return nil, err
		}
		if err := VerifyFarmerExists(ctx, line.FarmerSaralId); err != nil {
			return nil, err
		}

		// one dispatch per farmer; re-submission must not deduct twice
		count, err := utils.ResourceCountWhere[FarmerItemsActivity](ctx, "farmer_saral_id = ?", line.FarmerSaralId)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, &utils.DuplicateError{Subject: "dispatch for farmer " + line.FarmerSaralId}
		}

		if config.RequireDispatchSerials() {
			if line.Selection.PumpItemId != 0 && line.PumpSerial == nil {
				return nil, errors.New("pump serial is required")
			}
			if line.Selection.ControllerItemId != 0 && line.ControllerSerial == nil {
				return nil, errors.New("controller serial is required")
			}
		}

		bom, err := ResolveBOM(ctx, line.SystemId, line.Selection)
		if err != nil {
			return nil, err
		}
		items, err := bomToItemsList(ctx, bom)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, resolvedLine{line: line, bom: bom, items: items})
	}

	actorId, _ := utils.GetActorIdFromContext(ctx)

	release, err := utils.WarehouseLock(ctx, input.WarehouseId, "stock", "dispatch.go", "CreateInstallationDispatch")
	if err != nil {
		return nil, err
	}
	defer release()

	db := config.GetDB()
	tx := db.Begin().WithContext(ctx)

	var deltas []StockDelta
	for _, r := range resolved {
		line := r.line
		if line.PumpSerial != nil {
			if err := consumeSerialNumber(tx, *line.PumpSerial, SerialProductTypePump, line.State); err != nil {
				return nil, err
			}
		}
		if line.ControllerSerial != nil {
			if err := consumeSerialNumber(tx, *line.ControllerSerial, SerialProductTypeController, line.State); err != nil {
				return nil, err
			}
		}
		if line.RMUSerial != nil {
			if err := consumeSerialNumber(tx, *line.RMUSerial, SerialProductTypeRMU, line.State); err != nil {
				return nil, err
			}
		}
		for _, panelSerial := range line.PanelSerials {
			if err := consumeSerialNumber(tx, panelSerial, SerialProductTypePanel, line.State); err != nil {
				return nil, err
			}
		}
		for _, bomLine := range r.bom {
			deltas = append(deltas, StockDelta{
				SystemItemId: bomLine.SystemItemId,
				Field:        StockFieldQuantity,
				Delta:        bomLine.Quantity.Neg(),
			})
		}
	}

	if err := ApplyStockDeltas(tx, input.WarehouseId, deltas, actorId); err != nil {
		return nil, err
	}

	activities := make([]FarmerItemsActivity, 0, len(resolved))
	for _, r := range resolved {
		activity := FarmerItemsActivity{
			FarmerSaralId:    r.line.FarmerSaralId,
			WarehouseId:      input.WarehouseId,
			SystemId:         r.line.SystemId,
			Assignee:         r.line.Assignee,
			ItemsList:        r.items,
			PumpSerial:       r.line.PumpSerial,
			ControllerSerial: r.line.ControllerSerial,
			RMUSerial:        r.line.RMUSerial,
			PanelSerials:     StringList(r.line.PanelSerials),
			State:            r.line.State,
			CreatedBy:        actorId,
		}
		if err := tx.Create(&activity).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		activities = append(activities, activity)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return activities, nil
}
