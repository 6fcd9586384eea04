package models

import (
	"context"
	"errors"
	"time"

	"github.com/DiksySingh/InventorySystem2-sub000/config"
	"github.com/DiksySingh/InventorySystem2-sub000/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AssigneeRef is the typed reference to whoever a dispatch was handed to.
// The discriminator decides which registry the id points into.
type AssigneeRef struct {
	Type AssigneeType `gorm:"size:20;not null;column:assignee_type" json:"assignee_type" binding:"required"`
	Id   int          `gorm:"not null;column:assignee_id" json:"assignee_id" binding:"required"`
}

func (r AssigneeRef) validate() error {
	switch r.Type {
	case AssigneeTypeServicePerson, AssigneeTypeSurveyPerson:
	default:
		return errors.New("invalid assignee type")
	}
	if r.Id <= 0 {
		return errors.New("assignee id is required")
	}
	return nil
}

// FarmerItemsActivity records one installation dispatch: the farmer, the
// system, the assignee, the resolved flattened item list actually deducted,
// and the serials of the traceable components. The items list is the
// permanent record of what left stock; only non-BOM fields (motor serial,
// state) may be patched afterwards.
type FarmerItemsActivity struct {
	ID            int        `gorm:"primary_key" json:"id"`
	FarmerSaralId string     `gorm:"size:50;not null;uniqueIndex" json:"farmer_saral_id"`
	WarehouseId   int        `gorm:"not null;index" json:"warehouse_id"`
	SystemId      int        `gorm:"not null" json:"system_id"`
	Assignee      AssigneeRef `gorm:"embedded" json:"assignee"`
	ItemsList     ItemsList  `gorm:"type:text;not null" json:"items_list"`
	PumpSerial    *string    `gorm:"size:100" json:"pump_serial"`
	ControllerSerial *string `gorm:"size:100" json:"controller_serial"`
	RMUSerial     *string    `gorm:"size:100;column:rmu_serial" json:"rmu_serial"`
	MotorSerial   *string    `gorm:"size:100" json:"motor_serial"`
	PanelSerials  StringList `gorm:"type:text" json:"panel_serials"`
	State         string     `gorm:"size:50" json:"state"`
	CreatedBy     int        `json:"created_by"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// StockUpdateActivity is the generic append-only audit row written alongside
// every non-dispatch ledger mutation (transfers, third-party flows,
// replacements). ReferenceId points at the workflow document that caused it.
type StockUpdateActivity struct {
	ID          int               `gorm:"primary_key" json:"id"`
	WarehouseId int               `gorm:"not null;index" json:"warehouse_id"`
	Type        StockActivityType `gorm:"size:30;not null" json:"type"`
	ReferenceId int               `gorm:"index" json:"reference_id"`
	ItemsList   ItemsList         `gorm:"type:text;not null" json:"items_list"`
	CreatedBy   int               `json:"created_by"`
	CreatedAt   time.Time         `gorm:"autoCreateTime" json:"created_at"`
}

// writeStockActivity appends one audit row inside the caller's transaction.
func writeStockActivity(tx *gorm.DB, warehouseId int, activityType StockActivityType, referenceId int, items ItemsList, actorId int) error {
	row := StockUpdateActivity{
		WarehouseId: warehouseId,
		Type:        activityType,
		ReferenceId: referenceId,
		ItemsList:   items,
		CreatedBy:   actorId,
	}
	if err := tx.Create(&row).Error; err != nil {
		tx.Rollback()
		return err
	}
	return nil
}

// RepairNRejectItems records a decision over defective stock: a repaired unit
// goes back on the shelf, a rejected one is written off.
type RepairNRejectItems struct {
	ID           int             `gorm:"primary_key" json:"id"`
	WarehouseId  int             `gorm:"not null;index" json:"warehouse_id"`
	SystemItemId int             `gorm:"not null" json:"system_item_id"`
	Quantity     decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	IsRepaired   bool            `gorm:"not null" json:"is_repaired"`
	Remarks      string          `gorm:"size:255" json:"remarks"`
	SerialNumber *string         `gorm:"size:100" json:"serial_number"`
	CreatedBy    int             `json:"created_by"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewRepairNReject struct {
	WarehouseId  int             `json:"warehouse_id" binding:"required"`
	SystemItemId int             `json:"system_item_id" binding:"required"`
	Quantity     decimal.Decimal `json:"quantity" binding:"required"`
	IsRepaired   bool            `json:"is_repaired"`
	Remarks      string          `json:"remarks"`
	SerialNumber *string         `json:"serial_number"`
}

// CreateRepairNReject moves quantity out of a warehouse's defective counter.
// Repaired stock returns to the usable counter; rejected stock leaves the
// ledger entirely.
func CreateRepairNReject(ctx context.Context, input *NewRepairNReject) (*RepairNRejectItems, error) {

	if input.Quantity.IsZero() || input.Quantity.IsNegative() {
		return nil, errors.New("quantity must be positive")
	}
	if err := utils.ValidateResourceId[Warehouse](ctx, input.WarehouseId); err != nil {
		return nil, errors.New("warehouse not found")
	}
	if err := utils.ValidateResourceId[SystemItem](ctx, input.SystemItemId); err != nil {
		return nil, errors.New("system item not found")
	}

	actorId, _ := utils.GetActorIdFromContext(ctx)

	release, err := utils.WarehouseLock(ctx, input.WarehouseId, "stock", "activity.go", "CreateRepairNReject")
	if err != nil {
		return nil, err
	}
	defer release()

	deltas := []StockDelta{
		{SystemItemId: input.SystemItemId, Field: StockFieldDefective, Delta: input.Quantity.Neg()},
	}
	if input.IsRepaired {
		deltas = append(deltas, StockDelta{SystemItemId: input.SystemItemId, Field: StockFieldQuantity, Delta: input.Quantity})
	}

	db := config.GetDB()
	tx := db.Begin().WithContext(ctx)

	if err := ApplyStockDeltas(tx, input.WarehouseId, deltas, actorId); err != nil {
		return nil, err
	}

	row := RepairNRejectItems{
		WarehouseId:  input.WarehouseId,
		SystemItemId: input.SystemItemId,
		Quantity:     input.Quantity,
		IsRepaired:   input.IsRepaired,
		Remarks:      input.Remarks,
		SerialNumber: input.SerialNumber,
		CreatedBy:    actorId,
	}
	if err := tx.Create(&row).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &row, nil
}

type NewActivityPatch struct {
	MotorSerial *string `json:"motor_serial"`
	State       *string `json:"state"`
}

// PatchFarmerActivity updates the patchable non-BOM fields of a dispatch
// record. The items list captured at dispatch time is never touched.
func PatchFarmerActivity(ctx context.Context, id int, patch *NewActivityPatch) (*FarmerItemsActivity, error) {

	activity, err := utils.FetchModel[FarmerItemsActivity](ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if patch.MotorSerial != nil {
		updates["motor_serial"] = *patch.MotorSerial
	}
	if patch.State != nil {
		updates["state"] = *patch.State
	}
	if len(updates) == 0 {
		return activity, nil
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(activity).Updates(updates).Error; err != nil {
		return nil, err
	}
	return activity, nil
}

// FarmerActivityView is a dispatch record enriched with the external farmer
// registry payload. FarmerDetails stays nil when the registry is unreachable.
type FarmerActivityView struct {
	FarmerItemsActivity
	FarmerDetails *FarmerDetails `json:"farmer_details"`
}

// GetFarmerActivities lists dispatch records for a warehouse (0 = all),
// enriched best-effort from the farmer registry.
func GetFarmerActivities(ctx context.Context, warehouseId int) ([]FarmerActivityView, error) {

	db := config.GetDB()
	query := db.WithContext(ctx).Model(&FarmerItemsActivity{})
	if warehouseId != 0 {
		query = query.Where("warehouse_id = ?", warehouseId)
	}
	var rows []FarmerItemsActivity
	if err := query.Order("id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}

	logger := config.GetLogger()
	views := make([]FarmerActivityView, 0, len(rows))
	for _, row := range rows {
		details, err := FetchFarmerDetails(ctx, row.FarmerSaralId)
		if err != nil {
			// enrichment only; the listing still succeeds
			config.LogError(logger, "activity.go", "GetFarmerActivities", "fetching farmer details", row.FarmerSaralId, err)
			details = nil
		}
		views = append(views, FarmerActivityView{FarmerItemsActivity: row, FarmerDetails: details})
	}
	return views, nil
}

func GetFarmerActivity(ctx context.Context, id int) (*FarmerActivityView, error) {
	activity, err := utils.FetchModel[FarmerItemsActivity](ctx, id)
	if err != nil {
		return nil, err
	}
	details, err := FetchFarmerDetails(ctx, activity.FarmerSaralId)
	if err != nil {
		details = nil
	}
	return &FarmerActivityView{FarmerItemsActivity: *activity, FarmerDetails: details}, nil
}

// GetStockActivities lists the generic mutation audit trail for a warehouse.
func GetStockActivities(ctx context.Context, warehouseId int) ([]StockUpdateActivity, error) {
	db := config.GetDB()
	query := db.WithContext(ctx).Model(&StockUpdateActivity{})
	if warehouseId != 0 {
		query = query.Where("warehouse_id = ?", warehouseId)
	}
	var rows []StockUpdateActivity
	if err := query.Order("id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
