package models

import (
	"context"
	"errors"
	"time"

	"github.com/mitrabooks/pos_backend/config"
	"github.com/mitrabooks/pos_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockSummary is the quantity-on-hand snapshot per (variant, warehouse).
// Rows are created lazily on first movement and never deleted, only zeroed.
// current_qty always equals the sum of stock_movements.qty_delta for the key.
type StockSummary struct {
	ID          int             `gorm:"primary_key" json:"id"`
	BusinessId  string          `gorm:"index:idx_stock_summary_key,unique;not null" json:"business_id"`
	WarehouseId int             `gorm:"index:idx_stock_summary_key,unique;not null" json:"warehouse_id"`
	VariantId   int             `gorm:"index:idx_stock_summary_key,unique;not null" json:"variant_id"`
	CurrentQty  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"current_qty"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// firstOrCreateStockSummary finds the snapshot row for the key, creating it
// with zero qty if absent. The row is read under FOR UPDATE so the caller's
// delta arithmetic is based on a locked value.
func firstOrCreateStockSummary(tx *gorm.DB, ctx context.Context, businessId string, warehouseId int, variantId int) (*StockSummary, error) {
	stockSummary := StockSummary{
		BusinessId:  businessId,
		WarehouseId: warehouseId,
		VariantId:   variantId,
	}
	result := lockForUpdate(tx.WithContext(ctx)).
		Where("business_id = ? AND warehouse_id = ? AND variant_id = ?",
			businessId, warehouseId, variantId).
		FirstOrCreate(&stockSummary)
	if result.Error != nil {
		return nil, result.Error
	}
	return &stockSummary, nil
}

// GetStockSummary returns the snapshot for one (variant, warehouse) key.
// A missing row reads as zero on hand.
func GetStockSummary(ctx context.Context, warehouseId int, variantId int) (decimal.Decimal, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return decimal.Zero, errors.New("business id is required")
	}

	db := config.GetDB()
	var summary StockSummary
	err := db.WithContext(ctx).
		Where("business_id = ? AND warehouse_id = ? AND variant_id = ?", businessId, warehouseId, variantId).
		First(&summary).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return summary.CurrentQty, nil
}

func GetStockSummaries(ctx context.Context, warehouseId *int, variantId *int) ([]*StockSummary, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if warehouseId != nil && *warehouseId > 0 {
		dbCtx = dbCtx.Where("warehouse_id = ?", *warehouseId)
	}
	if variantId != nil && *variantId > 0 {
		dbCtx = dbCtx.Where("variant_id = ?", *variantId)
	}
	var results []*StockSummary
	if err := dbCtx.Order("warehouse_id, variant_id").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetLowStockSummaries lists snapshots at or below the variant's minimum-stock
// threshold, for the dashboard's reorder panel.
func GetLowStockSummaries(ctx context.Context, warehouseId *int) ([]*StockSummary, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&StockSummary{}).
		Joins("JOIN product_variants ON product_variants.id = stock_summaries.variant_id").
		Where("stock_summaries.business_id = ?", businessId).
		Where("stock_summaries.current_qty <= product_variants.min_stock")
	if warehouseId != nil && *warehouseId > 0 {
		dbCtx = dbCtx.Where("stock_summaries.warehouse_id = ?", *warehouseId)
	}
	var results []*StockSummary
	if err := dbCtx.Order("stock_summaries.current_qty").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
