package models

import (
	"context"
	"errors"
	"time"

	"github.com/mitrabooks/pos_backend/config"
	"github.com/mitrabooks/pos_backend/utils"
)

type Warehouse struct {
	ID         int           `gorm:"primary_key" json:"id"`
	BusinessId string        `gorm:"index;not null" json:"business_id"`
	Name       string        `gorm:"index;size:100;not null" json:"name"`
	Kind       WarehouseKind `gorm:"size:12;default:'physical';not null" json:"kind"`
	CreatedAt  time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewWarehouse struct {
	Name string        `json:"name" binding:"required"`
	Kind WarehouseKind `json:"kind"`
}

func (input *NewWarehouse) validate(ctx context.Context, businessId string, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[Warehouse](ctx, businessId, id); err != nil {
			return err
		}
	}
	if err := utils.ValidateUnique[Warehouse](ctx, businessId, "name", input.Name, id); err != nil {
		return err
	}
	switch input.Kind {
	case "", WarehouseKindPhysical, WarehouseKindVirtual:
	default:
		return errors.New("invalid warehouse kind")
	}
	return nil
}

func CreateWarehouse(ctx context.Context, input *NewWarehouse) (*Warehouse, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	kind := input.Kind
	if kind == "" {
		kind = WarehouseKindPhysical
	}
	warehouse := Warehouse{
		BusinessId: businessId,
		Name:       input.Name,
		Kind:       kind,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&warehouse).Error; err != nil {
		return nil, err
	}
	return &warehouse, nil
}

func UpdateWarehouse(ctx context.Context, id int, input *NewWarehouse) (*Warehouse, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, id); err != nil {
		return nil, err
	}

	warehouse, err := utils.FetchModel[Warehouse](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	// kind is immutable once movements exist against the warehouse
	if input.Kind != "" && input.Kind != warehouse.Kind {
		count, err := utils.ResourceCountWhere[StockMovement](ctx, businessId, "warehouse_id = ?", id)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, errors.New("warehouse kind cannot change after movements exist")
		}
	}

	db := config.GetDB()
	updates := map[string]interface{}{"Name": input.Name}
	if input.Kind != "" {
		updates["Kind"] = input.Kind
	}
	if err := db.WithContext(ctx).Model(&warehouse).Updates(updates).Error; err != nil {
		return nil, err
	}
	return warehouse, nil
}

func GetWarehouse(ctx context.Context, id int) (*Warehouse, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[Warehouse](ctx, businessId, id)
}

func GetWarehouses(ctx context.Context) ([]*Warehouse, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchAllModels[Warehouse](ctx, businessId)
}
