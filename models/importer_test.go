package models_test

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/DiksySingh/InventorySystem2-sub000/models"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, sheets map[string][][]interface{}) *bytes.Reader {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for name, rows := range sheets {
		if _, err := f.NewSheet(name); err != nil {
			t.Fatalf("NewSheet(%s): %v", name, err)
		}
		for i, row := range rows {
			cell := fmt.Sprintf("A%d", i+1)
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				t.Fatalf("SetSheetRow(%s, %s): %v", name, cell, err)
			}
		}
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		t.Fatalf("DeleteSheet: %v", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}
	return bytes.NewReader(buf.Bytes())
}

func TestImportCatalogMapsCollectsRowErrors(t *testing.T) {
	ctx := setupIntegration(t)

	system, err := models.CreateSystem(ctx, &models.NewSystem{Name: "2HP DC System"})
	if err != nil {
		t.Fatalf("CreateSystem: %v", err)
	}
	pump := mustCreateItem(t, ctx, "Pump 2HP DC", models.ItemCategoryPump)

	workbook := map[string][][]interface{}{
		"SystemItemMap": {
			{"System", "Item", "Quantity"},
			{system.Name, "Pump 2HP DC", "1"},
			{system.Name, "No Such Item", "4"},
			{"No Such System", "Pump 2HP DC", "1"},
			{system.Name, "Pump 2HP DC", "not-a-number"},
		},
	}

	result, err := models.ImportCatalogMaps(ctx, buildWorkbook(t, workbook))
	if err != nil {
		t.Fatalf("ImportCatalogMaps: %v", err)
	}
	if result.Imported != 1 {
		t.Fatalf("expected 1 imported row, got %d (errors: %+v)", result.Imported, result.Errors)
	}
	if len(result.Errors) != 3 {
		t.Fatalf("expected 3 row errors, got %+v", result.Errors)
	}
	// row numbers are workbook rows, header included
	if result.Errors[0].Row != 3 {
		t.Fatalf("first error should point at workbook row 3, got %d", result.Errors[0].Row)
	}

	// good rows landed despite the bad ones
	lines, err := models.ResolveBOM(ctx, system.ID, models.VariantSelection{PumpItemId: pump.ID})
	if err != nil {
		t.Fatalf("ResolveBOM: %v", err)
	}
	if len(lines) != 1 || !lines[0].Quantity.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("unexpected resolved catalog after import: %+v", lines)
	}

	// re-importing the same good row trips the composite unique index
	again, err := models.ImportCatalogMaps(ctx, buildWorkbook(t, map[string][][]interface{}{
		"SystemItemMap": {
			{"System", "Item", "Quantity"},
			{system.Name, "Pump 2HP DC", "1"},
		},
	}))
	if err != nil {
		t.Fatalf("ImportCatalogMaps(again): %v", err)
	}
	if again.Imported != 0 || len(again.Errors) != 1 {
		t.Fatalf("duplicate map row should be a row error: %+v", again)
	}
}

func TestImportSerialNumbersScopesByState(t *testing.T) {
	ctx := setupIntegration(t)

	workbook := map[string][][]interface{}{
		"SerialNumbers": {
			{"Serial", "Product Type", "Item", "State"},
			{"SN-100", "Pump", "", ""},
			{"SN-100", "Pump", "", ""},
			{"SN-100", "Pump", "", "Madhya Pradesh"},
			{"SN-200", "Pump", "No Such Item", ""},
		},
	}

	result, err := models.ImportSerialNumbers(ctx, buildWorkbook(t, workbook))
	if err != nil {
		t.Fatalf("ImportSerialNumbers: %v", err)
	}
	// the same serial string is fine under a different state, a straight
	// duplicate and an unknown item are not
	if result.Imported != 2 {
		t.Fatalf("expected 2 imported serials, got %d (errors: %+v)", result.Imported, result.Errors)
	}
	if len(result.Errors) != 2 {
		t.Fatalf("expected 2 row errors, got %+v", result.Errors)
	}

	rows, err := models.GetSerialNumbers(ctx, models.SerialProductTypePump, "Madhya Pradesh", nil)
	if err != nil {
		t.Fatalf("GetSerialNumbers: %v", err)
	}
	if len(rows) != 1 || rows[0].Serial != "SN-100" {
		t.Fatalf("expected one MP-scoped serial, got %+v", rows)
	}
}
