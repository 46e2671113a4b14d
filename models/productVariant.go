package models

import (
	"context"
	"errors"
	"time"

	"github.com/mitrabooks/pos_backend/config"
	"github.com/mitrabooks/pos_backend/utils"
	"github.com/shopspring/decimal"
)

// ProductVariant is the sellable unit (SKU). Identity is immutable once
// referenced by movements; cost and price may change, but movements keep the
// cost recorded at movement time.
type ProductVariant struct {
	ID         int             `gorm:"primary_key" json:"id"`
	BusinessId string          `gorm:"index;not null" json:"business_id"`
	Sku        string          `gorm:"index;size:100;not null" json:"sku"`
	Name       string          `gorm:"size:255;not null" json:"name"`
	Cost       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cost"`
	Price      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"price"`
	MinStock   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"min_stock"`
	IsActive   *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProductVariant struct {
	Sku      string          `json:"sku" binding:"required"`
	Name     string          `json:"name" binding:"required"`
	Cost     decimal.Decimal `json:"cost"`
	Price    decimal.Decimal `json:"price"`
	MinStock decimal.Decimal `json:"min_stock"`
}

func (input *NewProductVariant) validate(ctx context.Context, businessId string, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[ProductVariant](ctx, businessId, id); err != nil {
			return err
		}
	}
	if err := utils.ValidateUnique[ProductVariant](ctx, businessId, "sku", input.Sku, id); err != nil {
		return err
	}
	if input.Cost.IsNegative() || input.Price.IsNegative() || input.MinStock.IsNegative() {
		return errors.New("cost, price and min stock cannot be negative")
	}
	return nil
}

func CreateProductVariant(ctx context.Context, input *NewProductVariant) (*ProductVariant, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	variant := ProductVariant{
		BusinessId: businessId,
		Sku:        input.Sku,
		Name:       input.Name,
		Cost:       input.Cost,
		Price:      input.Price,
		MinStock:   input.MinStock,
		IsActive:   utils.NewTrue(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&variant).Error; err != nil {
		return nil, err
	}
	_ = utils.InvalidateRedisList[ProductVariant](businessId)
	return &variant, nil
}

func UpdateProductVariant(ctx context.Context, id int, input *NewProductVariant) (*ProductVariant, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, id); err != nil {
		return nil, err
	}

	variant, err := utils.FetchModel[ProductVariant](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&variant).Updates(map[string]interface{}{
		"Sku":      input.Sku,
		"Name":     input.Name,
		"Cost":     input.Cost,
		"Price":    input.Price,
		"MinStock": input.MinStock,
	}).Error
	if err != nil {
		return nil, err
	}
	_ = utils.InvalidateRedisList[ProductVariant](businessId)
	return variant, nil
}

func GetProductVariant(ctx context.Context, id int) (*ProductVariant, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[ProductVariant](ctx, businessId, id)
}

func GetProductVariants(ctx context.Context, name *string) ([]*ProductVariant, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	unfiltered := name == nil || *name == ""
	if unfiltered {
		if cached, exists, err := utils.RetrieveRedisList[ProductVariant](businessId); err == nil && exists {
			return cached, nil
		}
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if !unfiltered {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	var results []*ProductVariant
	if err := dbCtx.Order("name").Find(&results).Error; err != nil {
		return nil, err
	}
	if unfiltered {
		_ = utils.StoreRedisList(results, businessId)
	}
	return results, nil
}

func ToggleActiveProductVariant(ctx context.Context, id int, isActive bool) (*ProductVariant, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	variant, err := utils.FetchModel[ProductVariant](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(&variant).Update("IsActive", isActive).Error; err != nil {
		return nil, err
	}
	_ = utils.InvalidateRedisList[ProductVariant](businessId)
	return variant, nil
}
