package models

import (
	"context"
	"errors"
	"time"

	"github.com/mitrabooks/pos_backend/config"
	"github.com/mitrabooks/pos_backend/utils"
	"github.com/shopspring/decimal"
)

// StockMovement is the append-only stock ledger. Rows are never updated or
// deleted; corrections are new offsetting movements.
type StockMovement struct {
	ID            string                `gorm:"size:36;primary_key" json:"id"` // uuid
	BusinessId    string                `gorm:"index:idx_stock_move_key,priority:1;not null" json:"business_id"`
	VariantId     int                   `gorm:"index:idx_stock_move_key,priority:2;not null" json:"variant_id"`
	WarehouseId   int                   `gorm:"index:idx_stock_move_key,priority:3;not null" json:"warehouse_id"`
	QtyDelta      decimal.Decimal       `gorm:"type:decimal(20,4);not null" json:"qty_delta"`
	MovementType  MovementType          `gorm:"size:20;not null" json:"movement_type"`
	ReferenceType MovementReferenceType `gorm:"size:20" json:"reference_type"`
	ReferenceId   int                   `gorm:"index" json:"reference_id"`
	// cost at movement time; later cost changes never rewrite history
	UnitCost      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_cost"`
	Notes         string          `gorm:"type:text" json:"notes"`
	CreatedBy     int             `gorm:"index" json:"created_by"`
	EffectiveDate time.Time       `gorm:"index;not null" json:"effective_date"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	CorrelationId string          `gorm:"size:64;index" json:"correlation_id"`
}

func ListStockMovements(ctx context.Context, warehouseId *int, variantId *int, movementType *MovementType, limit int) ([]*StockMovement, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if warehouseId != nil && *warehouseId > 0 {
		dbCtx = dbCtx.Where("warehouse_id = ?", *warehouseId)
	}
	if variantId != nil && *variantId > 0 {
		dbCtx = dbCtx.Where("variant_id = ?", *variantId)
	}
	if movementType != nil && *movementType != "" {
		dbCtx = dbCtx.Where("movement_type = ?", *movementType)
	}
	var results []*StockMovement
	if err := dbCtx.Order("effective_date DESC, created_at DESC").Limit(limit).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
