// seed-admin creates or updates the bootstrap admin account so a fresh
// deployment has a login to configure the catalog and warehouses with.
//
// Usage:
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-admin
//
// ADMIN_EMAIL and ADMIN_PASSWORD override the defaults.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/DiksySingh/InventorySystem2-sub000/config"
	"github.com/DiksySingh/InventorySystem2-sub000/models"
	"github.com/DiksySingh/InventorySystem2-sub000/utils"
	"gorm.io/gorm"
)

const (
	defaultAdminEmail    = "admin@pumptrack.local"
	defaultAdminPassword = "Pumptrack@Admin1"
	adminName            = "Inventory Admin"
)

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	models.MigrateTable()

	email := os.Getenv("ADMIN_EMAIL")
	if email == "" {
		email = defaultAdminEmail
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = defaultAdminPassword
	}

	var existing models.Employee
	err := db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		hashed, hashErr := utils.HashPassword(password)
		if hashErr != nil {
			fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", hashErr)
			os.Exit(1)
		}
		updates := map[string]interface{}{
			"password":  string(hashed),
			"role":      models.RoleAdmin,
			"is_active": true,
		}
		if err := db.WithContext(ctx).Model(&existing).Updates(updates).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to update admin: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("admin account updated: %s (id=%d)\n", email, existing.ID)
		return
	}
	if err != gorm.ErrRecordNotFound {
		fmt.Fprintf(os.Stderr, "failed to lookup admin: %v\n", err)
		os.Exit(1)
	}

	employee, err := models.CreateEmployee(ctx, &models.NewEmployee{
		Name:     adminName,
		Email:    email,
		Password: password,
		Role:     models.RoleAdmin,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create admin: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("admin account created: %s (id=%d)\n", email, employee.ID)
}
