package models

type Role string

const (
	RoleAdmin           Role = "admin"
	RoleWarehousePerson Role = "warehouseAdmin"
	RoleServicePerson   Role = "serviceperson"
	RoleSurveyPerson    Role = "surveyperson"
)

// ItemCategory replaces the legacy name-substring convention for identifying
// pump/controller/clamp items. Variant selection and component filtering key
// off this field, never off the item name.
type ItemCategory string

const (
	ItemCategoryPump       ItemCategory = "Pump"
	ItemCategoryMotor      ItemCategory = "Motor"
	ItemCategoryController ItemCategory = "Controller"
	ItemCategoryRMU        ItemCategory = "RMU"
	ItemCategoryPanel      ItemCategory = "Panel"
	ItemCategoryClamp      ItemCategory = "Clamp"
	ItemCategoryAccessory  ItemCategory = "Accessory"
)

// AssigneeType is the discriminator of the dispatch assignee reference:
// an activity row points at either a service person or a survey person.
type AssigneeType string

const (
	AssigneeTypeServicePerson AssigneeType = "ServicePerson"
	AssigneeTypeSurveyPerson  AssigneeType = "SurveyPerson"
)

type TransferStatus string

const (
	TransferStatusPending  TransferStatus = "pending"
	TransferStatusApproved TransferStatus = "approved"
)

type OutgoingStatus string

const (
	OutgoingStatusPending           OutgoingStatus = "Pending"
	OutgoingStatusPartiallyReceived OutgoingStatus = "Partially Received"
	OutgoingStatusFullyReceived     OutgoingStatus = "Fully Received"
)

type SerialProductType string

const (
	SerialProductTypePump       SerialProductType = "Pump"
	SerialProductTypeMotor      SerialProductType = "Motor"
	SerialProductTypeController SerialProductType = "Controller"
	SerialProductTypeRMU        SerialProductType = "RMU"
	SerialProductTypePanel      SerialProductType = "Panel"
)

// ReplacementDirection decides which ledger counters a replacement moves
// quantity between.
type ReplacementDirection string

const (
	// good stock out, defective counter up (field return of a broken unit
	// swapped against a good one)
	ReplacementDirectionDefectiveIn ReplacementDirection = "defectiveIn"
	// defective counter down, good stock up (repaired unit back on the shelf)
	ReplacementDirectionRepairedOut ReplacementDirection = "repairedOut"
)

type StockActivityType string

const (
	StockActivityTransferOut StockActivityType = "transferOut"
	StockActivityTransferIn  StockActivityType = "transferIn"
	StockActivityThirdParty  StockActivityType = "thirdPartyOut"
	StockActivityReceiving   StockActivityType = "thirdPartyIn"
	StockActivityReplacement StockActivityType = "replacement"
)

// QtyRoundingPlaces returns the rounding policy for a ledger mutation on an
// item of the given category. Pump-head quantities carry fractional drift
// from unit conversion and are rounded to 2 decimal places; everything else
// is a plain integer count stored as-is.
func QtyRoundingPlaces(category ItemCategory) int32 {
	if category == ItemCategoryPump || category == ItemCategoryMotor {
		return 2
	}
	return -1
}
