package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/DiksySingh/InventorySystem2-sub000/config"
	"github.com/DiksySingh/InventorySystem2-sub000/utils"
	"gorm.io/gorm"
)

// SerialNumber tracks one serialized unit (pump, motor, controller, RMU,
// panel). Serials come from different manufacturers per state, so the same
// serial string can legitimately exist under two states; uniqueness is scoped
// to (serial, productType, state). IsUsed is the authoritative consumed flag:
// a serial can back at most one dispatch, enforced by the conditional update
// in consumeSerialNumber.
type SerialNumber struct {
	ID           int               `gorm:"primary_key" json:"id"`
	Serial       string            `gorm:"size:100;not null;uniqueIndex:idx_serial_product_state" json:"serial" binding:"required"`
	ProductType  SerialProductType `gorm:"size:20;not null;uniqueIndex:idx_serial_product_state" json:"product_type" binding:"required"`
	State        string            `gorm:"size:50;not null;default:'';uniqueIndex:idx_serial_product_state" json:"state"`
	SystemItemId *int              `gorm:"index" json:"system_item_id"`
	IsUsed       *bool             `gorm:"default:false;index" json:"is_used"`
	CreatedBy    int               `json:"created_by"`
	CreatedAt    time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSerialNumbers struct {
	ProductType  SerialProductType `json:"product_type" binding:"required"`
	State        string            `json:"state"`
	SystemItemId *int              `json:"system_item_id"`
	Serials      []string          `json:"serials" binding:"required,min=1"`
}

// AddSerialNumbers bulk-registers factory serials of one product type. The
// whole batch is rejected if any serial is already registered for that type.
func AddSerialNumbers(ctx context.Context, input *NewSerialNumbers) ([]SerialNumber, error) {

	serials := make([]string, 0, len(input.Serials))
	for _, s := range input.Serials {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, errors.New("serial number cannot be empty")
		}
		serials = append(serials, s)
	}
	serials = utils.UniqueSlice(serials)
	if len(serials) != len(input.Serials) {
		return nil, &utils.DuplicateError{Subject: "serial number in batch"}
	}

	if input.SystemItemId != nil {
		if err := utils.ValidateResourceId[SystemItem](ctx, *input.SystemItemId); err != nil {
			return nil, errors.New("system item not found")
		}
	}

	actorId, _ := utils.GetActorIdFromContext(ctx)
	state := strings.TrimSpace(input.State)

	db := config.GetDB()

	var count int64
	if err := db.WithContext(ctx).Model(&SerialNumber{}).
		Where("serial IN ? AND product_type = ? AND state = ?", serials, input.ProductType, state).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, &utils.DuplicateError{Subject: "serial number"}
	}

	rows := make([]SerialNumber, 0, len(serials))
	for _, s := range serials {
		rows = append(rows, SerialNumber{
			Serial:       s,
			ProductType:  input.ProductType,
			State:        state,
			SystemItemId: input.SystemItemId,
			IsUsed:       utils.NewFalse(),
			CreatedBy:    actorId,
		})
	}
	if err := db.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// consumeSerialNumber marks one serial consumed inside the caller's
// transaction. The conditional update is the uniqueness guard: a second
// consumer matches zero rows.
func consumeSerialNumber(tx *gorm.DB, serial string, productType SerialProductType, state string) error {

	serial = strings.TrimSpace(serial)
	if serial == "" {
		return errors.New("serial number cannot be empty")
	}
	state = strings.TrimSpace(state)

	result := tx.Model(&SerialNumber{}).
		Where("serial = ? AND product_type = ? AND state = ? AND is_used = ?", serial, productType, state, false).
		Update("is_used", true)
	if result.Error != nil {
		tx.Rollback()
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := tx.Model(&SerialNumber{}).
			Where("serial = ? AND product_type = ? AND state = ?", serial, productType, state).
			Count(&count).Error; err != nil {
			tx.Rollback()
			return err
		}
		tx.Rollback()
		if count == 0 {
			return errors.New("serial number not registered: " + serial)
		}
		return &utils.DuplicateError{Subject: "serial number use: " + serial}
	}
	return nil
}

// releaseSerialNumber puts a serial back in circulation, used when a
// dispatched unit comes back defective and its replacement carries a new
// serial.
func releaseSerialNumber(tx *gorm.DB, serial string, productType SerialProductType, state string) error {
	err := tx.Model(&SerialNumber{}).
		Where("serial = ? AND product_type = ? AND state = ?", strings.TrimSpace(serial), productType, strings.TrimSpace(state)).
		Update("is_used", false).Error
	if err != nil {
		tx.Rollback()
		return err
	}
	return nil
}

// GetSerialNumbers lists registered serials, optionally filtered by product
// type, state and used flag.
func GetSerialNumbers(ctx context.Context, productType SerialProductType, state string, isUsed *bool) ([]SerialNumber, error) {
	db := config.GetDB()
	query := db.WithContext(ctx).Model(&SerialNumber{})
	if productType != "" {
		query = query.Where("product_type = ?", productType)
	}
	if state = strings.TrimSpace(state); state != "" {
		query = query.Where("state = ?", state)
	}
	if isUsed != nil {
		query = query.Where("is_used = ?", *isUsed)
	}
	var rows []SerialNumber
	if err := query.Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
