package models

import (
	"log"

	"github.com/DiksySingh/InventorySystem2-sub000/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&System{}, &SystemItem{}, &SystemItemMap{}, &ItemComponentMap{},
		&Warehouse{}, &InstallationInventory{},
		&Employee{},
		&SerialNumber{},
		&FarmerItemsActivity{}, &StockUpdateActivity{}, &RepairNRejectItems{},
		&SystemInventoryWToW{},
		&OutgoingItems{}, &ReceivingItems{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
