package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/DiksySingh/InventorySystem2-sub000/config"
	"github.com/DiksySingh/InventorySystem2-sub000/models"
	"github.com/DiksySingh/InventorySystem2-sub000/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// respondError maps the error taxonomy onto HTTP statuses: not-found 404,
// conflicts (duplicates, insufficient stock, terminal-state guards) 409,
// anything else a validation 400. Transactions are already rolled back by the
// time an error reaches here.
func respondError(c *gin.Context, err error) {
	var (
		insufficientErr *utils.InsufficientStockError
		notInInvErr     *utils.ItemNotInInventoryError
		duplicateErr    *utils.DuplicateError
		validationErrs  validator.ValidationErrors
	)

	switch {
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": err.Error()})
	case errors.As(err, &insufficientErr):
		c.JSON(http.StatusConflict, gin.H{
			"success":   false,
			"message":   insufficientErr.Error(),
			"item_id":   insufficientErr.SystemItemId,
			"available": insufficientErr.Available,
			"requested": insufficientErr.Requested,
		})
	case errors.As(err, &notInInvErr):
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": notInInvErr.Error()})
	case errors.As(err, &duplicateErr):
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": duplicateErr.Error()})
	case errors.Is(err, utils.ErrorTransferAlreadyApproved), errors.Is(err, utils.ErrorOutgoingFullyReceived):
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": err.Error()})
	case errors.As(err, &validationErrs):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "errors": utils.ProcessValidationErrors(err)})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
	}
}

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func pathId(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid id"})
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string) int {
	v, _ := strconv.Atoi(c.Query(name))
	return v
}

func loginHandler(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, err)
		return
	}
	token, employee, err := models.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "token": token, "employee": employee})
}

func createEmployeeHandler(c *gin.Context) {
	var input models.NewEmployee
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}
	employee, err := models.CreateEmployee(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, employee)
}

func listEmployeesHandler(c *gin.Context) {
	employees, err := models.GetEmployees(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, employees)
}

func createSystemHandler(c *gin.Context) {
	var input models.NewSystem
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}
	system, err := models.CreateSystem(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, system)
}

func listSystemsHandler(c *gin.Context) {
	systems, err := models.GetSystems(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, systems)
}

func createSystemItemHandler(c *gin.Context) {
	var input models.NewSystemItem
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}
	item, err := models.CreateSystemItem(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, item)
}

func listSystemItemsHandler(c *gin.Context) {
	items, err := models.GetSystemItems(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, items)
}

func addSystemItemMapHandler(c *gin.Context) {
	var input models.NewSystemItemMap
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}
	row, err := models.AddSystemItemMap(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, row)
}

func addItemComponentMapHandler(c *gin.Context) {
	var input models.NewItemComponentMap
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}
	row, err := models.AddItemComponentMap(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, row)
}

func resolveBOMHandler(c *gin.Context) {
	systemId, ok := pathId(c)
	if !ok {
		return
	}
	sel := models.VariantSelection{
		PumpItemId:       queryInt(c, "pump_item_id"),
		ControllerItemId: queryInt(c, "controller_item_id"),
		ClampItemId:      queryInt(c, "clamp_item_id"),
	}
	lines, err := models.ResolveBOM(c.Request.Context(), systemId, sel)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, lines)
}

func createWarehouseHandler(c *gin.Context) {
	var input models.NewWarehouse
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}
	warehouse, err := models.CreateWarehouse(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, warehouse)
}

func listWarehousesHandler(c *gin.Context) {
	warehouses, err := models.GetWarehouses(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, warehouses)
}

func warehouseStockHandler(c *gin.Context) {
	warehouseId, ok := pathId(c)
	if !ok {
		return
	}
	rows, err := models.GetWarehouseStock(c.Request.Context(), warehouseId, models.ItemCategory(c.Query("category")))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, rows)
}

func addSerialNumbersHandler(c *gin.Context) {
	var input models.NewSerialNumbers
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}
	rows, err := models.AddSerialNumbers(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, rows)
}

func listSerialNumbersHandler(c *gin.Context) {
	var isUsed *bool
	if v := c.Query("is_used"); v != "" {
		b := v == "true" || v == "1"
		isUsed = &b
	}
	rows, err := models.GetSerialNumbers(c.Request.Context(), models.SerialProductType(c.Query("product_type")), c.Query("state"), isUsed)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, rows)
}

func createDispatchHandler(c *gin.Context) {
	var input models.NewInstallationDispatch
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}
	activities, err := models.CreateInstallationDispatch(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, activities)
}

func listDispatchesHandler(c *gin.Context) {
	views, err := models.GetFarmerActivities(c.Request.Context(), queryInt(c, "warehouse_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, views)
}

func getDispatchHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	view, err := models.GetFarmerActivity(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, view)
}

func patchDispatchHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var patch models.NewActivityPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondError(c, err)
		return
	}
	activity, err := models.PatchFarmerActivity(c.Request.Context(), id, &patch)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, activity)
}

func createReplacementHandler(c *gin.Context) {
	var input models.NewReplacementDispatch
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}
	activity, err := models.CreateReplacementDispatch(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, activity)
}

func createRepairRejectHandler(c *gin.Context) {
	var input models.NewRepairNReject
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}
	row, err := models.CreateRepairNReject(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, row)
}

func createTransferHandler(c *gin.Context) {
	var input models.NewWarehouseTransfer
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}
	transfer, err := models.CreateWarehouseTransfer(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, transfer)
}

func listTransfersHandler(c *gin.Context) {
	rows, err := models.GetWarehouseTransfers(c.Request.Context(),
		queryInt(c, "warehouse_id"), models.TransferStatus(c.Query("status")))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, rows)
}

func acceptTransferHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	transfer, err := models.AcceptWarehouseTransfer(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, transfer)
}

func createOutgoingHandler(c *gin.Context) {
	var input models.NewOutgoingItems
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}
	outgoing, err := models.CreateOutgoingItems(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, outgoing)
}

func listOutgoingHandler(c *gin.Context) {
	rows, err := models.GetOutgoingItemsList(c.Request.Context(),
		queryInt(c, "warehouse_id"), models.OutgoingStatus(c.Query("status")))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, rows)
}

func getOutgoingHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	outgoing, err := models.GetOutgoingItems(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, outgoing)
}

func listReceivingBatchesHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	rows, err := models.GetReceivingBatches(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, rows)
}

func addReceivingHandler(c *gin.Context) {
	var input models.NewReceivingItems
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}
	batch, err := models.AddReceivingItems(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, batch)
}

func listStockActivitiesHandler(c *gin.Context) {
	rows, err := models.GetStockActivities(c.Request.Context(), queryInt(c, "warehouse_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, rows)
}

func importCatalogHandler(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		respondError(c, errors.New("file is required"))
		return
	}
	f, err := file.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	result, err := models.ImportCatalogMaps(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}

func importSerialNumbersHandler(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		respondError(c, errors.New("file is required"))
		return
	}
	f, err := file.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	result, err := models.ImportSerialNumbers(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}

// logs errors the handlers attached to the gin context
func customErrorLogger(c *gin.Context) {
	c.Next()
	if len(c.Errors) > 0 {
		config.GetLogger().Error(c.Errors.String())
	}
}
