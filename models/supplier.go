package models

import (
	"context"
	"errors"
	"time"

	"github.com/mitrabooks/pos_backend/config"
	"github.com/mitrabooks/pos_backend/utils"
)

type Supplier struct {
	ID         int       `gorm:"primary_key" json:"id"`
	BusinessId string    `gorm:"index;not null" json:"business_id"`
	Name       string    `gorm:"index;size:100;not null" json:"name"`
	Phone      string    `gorm:"size:30" json:"phone"`
	Address    string    `gorm:"type:text" json:"address"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSupplier struct {
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func CreateSupplier(ctx context.Context, input *NewSupplier) (*Supplier, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := utils.ValidateUnique[Supplier](ctx, businessId, "name", input.Name, 0); err != nil {
		return nil, err
	}

	supplier := Supplier{
		BusinessId: businessId,
		Name:       input.Name,
		Phone:      input.Phone,
		Address:    input.Address,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&supplier).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

func UpdateSupplier(ctx context.Context, id int, input *NewSupplier) (*Supplier, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := utils.ValidateUnique[Supplier](ctx, businessId, "name", input.Name, id); err != nil {
		return nil, err
	}

	supplier, err := utils.FetchModel[Supplier](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	err = db.WithContext(ctx).Model(&supplier).Updates(map[string]interface{}{
		"Name":    input.Name,
		"Phone":   input.Phone,
		"Address": input.Address,
	}).Error
	if err != nil {
		return nil, err
	}
	return supplier, nil
}

func GetSupplier(ctx context.Context, id int) (*Supplier, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[Supplier](ctx, businessId, id)
}

func GetSuppliers(ctx context.Context) ([]*Supplier, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchAllModels[Supplier](ctx, businessId)
}
