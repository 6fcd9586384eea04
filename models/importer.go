package models

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/DiksySingh/InventorySystem2-sub000/utils"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// ImportRowError reports one workbook row that failed validation. Imports are
// the only partial-success surface: bad rows are collected and reported, good
// rows still land.
type ImportRowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

type ImportResult struct {
	BatchId  string           `json:"batch_id"`
	Imported int              `json:"imported"`
	Errors   []ImportRowError `json:"errors"`
}

const (
	sheetSystemItemMaps   = "SystemItemMap"
	sheetItemComponentMap = "ItemComponentMap"
	sheetSerialNumbers    = "SerialNumbers"
)

// ImportCatalogMaps loads SystemItemMap and ItemComponentMap rows from an
// xlsx workbook. Sheet "SystemItemMap": system name, item name, quantity.
// Sheet "ItemComponentMap": system name, parent item name, sub item name,
// quantity. Both sheets reference systems and items by name; rows naming
// unknown entities are reported, not fatal.
func ImportCatalogMaps(ctx context.Context, reader io.Reader) (*ImportResult, error) {

	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("unable to open workbook: %v", err)
	}
	defer f.Close()

	result := &ImportResult{BatchId: uuid.NewString()}

	rows, err := f.GetRows(sheetSystemItemMaps)
	if err == nil {
		importSystemItemMapRows(ctx, rows, result)
	}

	rows, err = f.GetRows(sheetItemComponentMap)
	if err == nil {
		importItemComponentMapRows(ctx, rows, result)
	}

	if result.Imported == 0 && len(result.Errors) == 0 {
		return nil, fmt.Errorf("workbook has no %s or %s sheet", sheetSystemItemMaps, sheetItemComponentMap)
	}
	return result, nil
}

func rowError(result *ImportResult, idx int, format string, args ...interface{}) {
	// idx is zero-based over data rows; +2 accounts for the header row
	result.Errors = append(result.Errors, ImportRowError{Row: idx + 2, Reason: fmt.Sprintf(format, args...)})
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func importSystemItemMapRows(ctx context.Context, rows [][]string, result *ImportResult) {
	if len(rows) < 2 {
		return
	}
	for idx, row := range rows[1:] {
		systemName, itemName, qtyStr := cell(row, 0), cell(row, 1), cell(row, 2)
		if systemName == "" && itemName == "" {
			continue
		}

		system, err := getSystemByName(ctx, systemName)
		if err != nil {
			rowError(result, idx, "system not found: %s", systemName)
			continue
		}
		item, err := GetSystemItemByName(ctx, itemName)
		if err != nil {
			rowError(result, idx, "system item not found: %s", itemName)
			continue
		}
		qty, err := utils.ParseDecimal(qtyStr)
		if err != nil {
			rowError(result, idx, "could not parse quantity: %s", qtyStr)
			continue
		}

		_, err = AddSystemItemMap(ctx, &NewSystemItemMap{
			SystemId:     system.ID,
			SystemItemId: item.ID,
			Quantity:     qty,
		})
		if err != nil {
			rowError(result, idx, "%v", err)
			continue
		}
		result.Imported++
	}
}

func importItemComponentMapRows(ctx context.Context, rows [][]string, result *ImportResult) {
	if len(rows) < 2 {
		return
	}
	for idx, row := range rows[1:] {
		systemName, parentName, subName, qtyStr := cell(row, 0), cell(row, 1), cell(row, 2), cell(row, 3)
		if systemName == "" && parentName == "" {
			continue
		}

		system, err := getSystemByName(ctx, systemName)
		if err != nil {
			rowError(result, idx, "system not found: %s", systemName)
			continue
		}
		parent, err := GetSystemItemByName(ctx, parentName)
		if err != nil {
			rowError(result, idx, "parent item not found: %s", parentName)
			continue
		}
		sub, err := GetSystemItemByName(ctx, subName)
		if err != nil {
			rowError(result, idx, "sub item not found: %s", subName)
			continue
		}
		qty, err := utils.ParseDecimal(qtyStr)
		if err != nil {
			rowError(result, idx, "could not parse quantity: %s", qtyStr)
			continue
		}

		_, err = AddItemComponentMap(ctx, &NewItemComponentMap{
			SystemId:     system.ID,
			ParentItemId: parent.ID,
			SubItemId:    sub.ID,
			Quantity:     qty,
		})
		if err != nil {
			rowError(result, idx, "%v", err)
			continue
		}
		result.Imported++
	}
}

// ImportSerialNumbers loads factory serials from an xlsx workbook. Sheet
// "SerialNumbers": serial, product type, optional item name, optional state.
func ImportSerialNumbers(ctx context.Context, reader io.Reader) (*ImportResult, error) {

	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("unable to open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetSerialNumbers)
	if err != nil {
		return nil, fmt.Errorf("workbook has no %s sheet", sheetSerialNumbers)
	}

	result := &ImportResult{BatchId: uuid.NewString()}
	if len(rows) < 2 {
		return result, nil
	}

	for idx, row := range rows[1:] {
		serial, productType, itemName, state := cell(row, 0), cell(row, 1), cell(row, 2), cell(row, 3)
		if serial == "" {
			continue
		}

		var systemItemId *int
		if itemName != "" {
			item, err := GetSystemItemByName(ctx, itemName)
			if err != nil {
				rowError(result, idx, "system item not found: %s", itemName)
				continue
			}
			systemItemId = &item.ID
		}

		_, err := AddSerialNumbers(ctx, &NewSerialNumbers{
			ProductType:  SerialProductType(productType),
			State:        state,
			SystemItemId: systemItemId,
			Serials:      []string{serial},
		})
		if err != nil {
			rowError(result, idx, "%v", err)
			continue
		}
		result.Imported++
	}
	return result, nil
}
