package models_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DiksySingh/InventorySystem2-sub000/config"
	"github.com/DiksySingh/InventorySystem2-sub000/models"
	"github.com/DiksySingh/InventorySystem2-sub000/utils"
	"github.com/shopspring/decimal"
)

// setupIntegration boots throwaway mysql+redis containers, connects the
// config singletons, migrates, and returns a context carrying a test actor.
func setupIntegration(t *testing.T) context.Context {
	t.Helper()
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "pumptrack_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	models.MigrateTable()

	ctx := context.Background()
	ctx = utils.SetActorIdInContext(ctx, 1)
	ctx = utils.SetActorNameInContext(ctx, "Test")
	return ctx
}

func mustCreateItem(t *testing.T, ctx context.Context, name string, category models.ItemCategory) *models.SystemItem {
	t.Helper()
	item, err := models.CreateSystemItem(ctx, &models.NewSystemItem{
		Name:     name,
		Unit:     "pcs",
		Category: category,
	})
	if err != nil {
		t.Fatalf("CreateSystemItem(%s): %v", name, err)
	}
	return item
}

// seedStock credits opening quantities through the stock protocol itself.
func seedStock(t *testing.T, warehouseId int, quantities map[int]int64) {
	t.Helper()
	db := config.GetDB()
	tx := db.Begin()
	deltas := make([]models.StockDelta, 0, len(quantities))
	for itemId, n := range quantities {
		deltas = append(deltas, models.StockDelta{
			SystemItemId: itemId,
			Field:        models.StockFieldQuantity,
			Delta:        decimal.NewFromInt(n),
		})
	}
	if err := models.ApplyStockDeltas(tx, warehouseId, deltas, 1); err != nil {
		t.Fatalf("seed stock: %v", err)
	}
	if err := tx.Commit().Error; err != nil {
		t.Fatalf("seed stock commit: %v", err)
	}
}

func fetchQty(t *testing.T, warehouseId, itemId int) decimal.Decimal {
	t.Helper()
	db := config.GetDB()
	var row models.InstallationInventory
	if err := db.Where("warehouse_id = ? AND system_item_id = ?", warehouseId, itemId).First(&row).Error; err != nil {
		t.Fatalf("fetch ledger row (%d,%d): %v", warehouseId, itemId, err)
	}
	return row.Quantity
}

func TestInstallationDispatchDeductsResolvedBOM(t *testing.T) {
	ctx := setupIntegration(t)

	warehouse, err := models.CreateWarehouse(ctx, &models.NewWarehouse{Name: "Bhopal Central"})
	if err != nil {
		t.Fatalf("CreateWarehouse: %v", err)
	}

	pump := mustCreateItem(t, ctx, "Pump 5HP AC", models.ItemCategoryPump)
	panel := mustCreateItem(t, ctx, "Solar Panel 335W", models.ItemCategoryPanel)
	cable := mustCreateItem(t, ctx, "Cable 4sqmm", models.ItemCategoryAccessory)
	controller := mustCreateItem(t, ctx, "Controller 5HP", models.ItemCategoryController)

	system, err := models.CreateSystem(ctx, &models.NewSystem{Name: "5HP AC System"})
	if err != nil {
		t.Fatalf("CreateSystem: %v", err)
	}

	if _, err := models.AddSystemItemMap(ctx, &models.NewSystemItemMap{
		SystemId: system.ID, SystemItemId: pump.ID, Quantity: decimal.NewFromInt(1),
	}); err != nil {
		t.Fatalf("AddSystemItemMap(pump): %v", err)
	}
	if _, err := models.AddSystemItemMap(ctx, &models.NewSystemItemMap{
		SystemId: system.ID, SystemItemId: panel.ID, Quantity: decimal.NewFromInt(10),
	}); err != nil {
		t.Fatalf("AddSystemItemMap(panel): %v", err)
	}
	if _, err := models.AddItemComponentMap(ctx, &models.NewItemComponentMap{
		SystemId: system.ID, ParentItemId: pump.ID, SubItemId: cable.ID, Quantity: decimal.NewFromInt(30),
	}); err != nil {
		t.Fatalf("AddItemComponentMap(cable): %v", err)
	}

	seedStock(t, warehouse.ID, map[int]int64{
		pump.ID:       10,
		panel.ID:      100,
		cable.ID:      300,
		controller.ID: 5,
	})

	if _, err := models.AddSerialNumbers(ctx, &models.NewSerialNumbers{
		ProductType: models.SerialProductTypePump,
		Serials:     []string{"P-001", "P-002"},
	}); err != nil {
		t.Fatalf("AddSerialNumbers: %v", err)
	}

	pumpSerial := "P-001"
	dispatch := &models.NewInstallationDispatch{
		WarehouseId: warehouse.ID,
		Lines: []models.InstallationLine{{
			FarmerSaralId: "SRL-1001",
			SystemId:      system.ID,
			Selection: models.VariantSelection{
				PumpItemId:       pump.ID,
				ControllerItemId: controller.ID,
			},
			Assignee:   models.AssigneeRef{Type: models.AssigneeTypeServicePerson, Id: 7},
			PumpSerial: &pumpSerial,
		}},
	}
	activities, err := models.CreateInstallationDispatch(ctx, dispatch)
	if err != nil {
		t.Fatalf("CreateInstallationDispatch: %v", err)
	}
	if len(activities) != 1 {
		t.Fatalf("expected 1 audit row, got %d", len(activities))
	}
	if len(activities[0].ItemsList) != 4 {
		t.Fatalf("expected 4 resolved lines in the audit snapshot, got %d: %+v", len(activities[0].ItemsList), activities[0].ItemsList)
	}

	if got := fetchQty(t, warehouse.ID, pump.ID); !got.Equal(decimal.NewFromInt(9)) {
		t.Fatalf("pump ledger: expected 9, got %s", got)
	}
	if got := fetchQty(t, warehouse.ID, panel.ID); !got.Equal(decimal.NewFromInt(90)) {
		t.Fatalf("panel ledger: expected 90, got %s", got)
	}
	if got := fetchQty(t, warehouse.ID, cable.ID); !got.Equal(decimal.NewFromInt(270)) {
		t.Fatalf("cable ledger: expected 270, got %s", got)
	}
	if got := fetchQty(t, warehouse.ID, controller.ID); !got.Equal(decimal.NewFromInt(4)) {
		t.Fatalf("controller ledger: expected 4, got %s", got)
	}

	// serial consumed exactly once
	db := config.GetDB()
	var serial models.SerialNumber
	if err := db.Where("serial = ?", "P-001").First(&serial).Error; err != nil {
		t.Fatalf("fetch serial: %v", err)
	}
	if serial.IsUsed == nil || !*serial.IsUsed {
		t.Fatalf("expected serial P-001 marked used")
	}

	// duplicate dispatch for the same farmer is rejected, ledger untouched
	_, err = models.CreateInstallationDispatch(ctx, dispatch)
	var dupErr *utils.DuplicateError
	if !errors.As(err, &dupErr) {
		t.Fatalf("expected DuplicateError on re-dispatch, got %v", err)
	}
	if got := fetchQty(t, warehouse.ID, pump.ID); !got.Equal(decimal.NewFromInt(9)) {
		t.Fatalf("pump ledger changed on rejected duplicate: %s", got)
	}

	// insufficiency on any line aborts the whole batch, including other
	// farmers' lines in the same request
	drain := config.GetDB().Begin()
	if err := models.ApplyStockDeltas(drain, warehouse.ID, []models.StockDelta{
		{SystemItemId: cable.ID, Field: models.StockFieldQuantity, Delta: decimal.NewFromInt(-250)},
	}, 1); err != nil {
		t.Fatalf("drain cable: %v", err)
	}
	if err := drain.Commit().Error; err != nil {
		t.Fatalf("drain commit: %v", err)
	}

	second := &models.NewInstallationDispatch{
		WarehouseId: warehouse.ID,
		Lines: []models.InstallationLine{
			{
				FarmerSaralId: "SRL-1002",
				SystemId:      system.ID,
				Selection: models.VariantSelection{
					PumpItemId:       pump.ID,
					ControllerItemId: controller.ID,
				},
				Assignee: models.AssigneeRef{Type: models.AssigneeTypeSurveyPerson, Id: 3},
			},
			{
				FarmerSaralId: "SRL-1003",
				SystemId:      system.ID,
				Selection: models.VariantSelection{
					PumpItemId:       pump.ID,
					ControllerItemId: controller.ID,
				},
				Assignee: models.AssigneeRef{Type: models.AssigneeTypeSurveyPerson, Id: 3},
			},
		},
	}
	_, err = models.CreateInstallationDispatch(ctx, second)
	var insufficientErr *utils.InsufficientStockError
	if !errors.As(err, &insufficientErr) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if insufficientErr.SystemItemId != cable.ID {
		t.Fatalf("expected cable to be the offending item, got %d", insufficientErr.SystemItemId)
	}
	// rows that would have succeeded retain their pre-call values
	if got := fetchQty(t, warehouse.ID, pump.ID); !got.Equal(decimal.NewFromInt(9)) {
		t.Fatalf("pump ledger mutated by aborted batch: %s", got)
	}
	if got := fetchQty(t, warehouse.ID, panel.ID); !got.Equal(decimal.NewFromInt(90)) {
		t.Fatalf("panel ledger mutated by aborted batch: %s", got)
	}
	if got := fetchQty(t, warehouse.ID, cable.ID); !got.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("cable ledger: expected 20, got %s", got)
	}
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("pumptrack-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("pumptrack-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=pumptrack_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
