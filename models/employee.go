package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/DiksySingh/InventorySystem2-sub000/config"
	"github.com/DiksySingh/InventorySystem2-sub000/utils"
)

// Employee is a staff account. WarehouseId pins warehouse-admin accounts to
// their location; super admins carry a nil warehouse and may act on any.
type Employee struct {
	ID          int       `gorm:"primary_key" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Email       string    `gorm:"size:150;not null;uniqueIndex" json:"email" binding:"required"`
	Phone       string    `gorm:"size:20" json:"phone"`
	Password    string    `gorm:"size:100;not null" json:"-"`
	Role        Role      `gorm:"size:30;not null" json:"role"`
	WarehouseId *int      `gorm:"index" json:"warehouse_id"`
	IsActive    *bool     `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewEmployee struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required"`
	Phone       string `json:"phone"`
	Password    string `json:"password" binding:"required,min=8"`
	Role        Role   `json:"role" binding:"required"`
	WarehouseId *int   `json:"warehouse_id"`
}

func (input *NewEmployee) validate(ctx context.Context, id int) error {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if !utils.IsValidEmail(email) {
		return errors.New("invalid email address")
	}
	if err := utils.ValidateUnique[Employee](ctx, "email", email, id); err != nil {
		return err
	}
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return errors.New("invalid phone number")
		}
	}
	switch input.Role {
	case RoleAdmin:
		// not tied to a warehouse
	case RoleWarehousePerson:
		if input.WarehouseId == nil {
			return errors.New("warehouse is required for a warehouse admin")
		}
		if err := utils.ValidateResourceId[Warehouse](ctx, *input.WarehouseId); err != nil {
			return errors.New("warehouse not found")
		}
	default:
		return errors.New("invalid role")
	}
	return nil
}

func CreateEmployee(ctx context.Context, input *NewEmployee) (*Employee, error) {

	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	employee := Employee{
		Name:        strings.TrimSpace(input.Name),
		Email:       strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:       input.Phone,
		Password:    string(hashed),
		Role:        input.Role,
		WarehouseId: input.WarehouseId,
		IsActive:    utils.NewTrue(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&employee).Error; err != nil {
		return nil, err
	}
	return &employee, nil
}

// Login verifies credentials and issues a signed token carrying the
// employee's role and warehouse.
func Login(ctx context.Context, email string, password string) (string, *Employee, error) {

	db := config.GetDB()
	var employee Employee
	err := db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&employee).Error
	if err != nil {
		return "", nil, errors.New("invalid email or password")
	}
	if employee.IsActive != nil && !*employee.IsActive {
		return "", nil, errors.New("account is deactivated")
	}
	if err := utils.ComparePassword(employee.Password, password); err != nil {
		return "", nil, errors.New("invalid email or password")
	}

	token, err := utils.JwtGenerate(employee.ID, string(employee.Role), utils.DereferencePtr(employee.WarehouseId))
	if err != nil {
		return "", nil, err
	}
	return token, &employee, nil
}

func GetEmployee(ctx context.Context, id int) (*Employee, error) {
	return utils.FetchModel[Employee](ctx, id)
}

func GetEmployees(ctx context.Context) ([]*Employee, error) {
	return utils.FetchAllModels[Employee](ctx)
}
