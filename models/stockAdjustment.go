package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mitrabooks/pos_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type NewStockCount struct {
	WarehouseId int                 `json:"warehouse_id" binding:"required"`
	Notes       string              `json:"notes"`
	Lines       []NewStockCountLine `json:"lines" binding:"required,min=1,dive"`
}

type NewStockCountLine struct {
	VariantId  int             `json:"variant_id" binding:"required"`
	CountedQty decimal.Decimal `json:"counted_qty"`
}

// StockCountResult reports what one opname batch actually changed.
type StockCountResult struct {
	CountNumber string          `json:"count_number"`
	Adjusted    int             `json:"adjusted"`
	Skipped     int             `json:"skipped"`
	TotalDiff   decimal.Decimal `json:"total_diff"`
}

func (input *NewStockCount) validate(ctx context.Context, businessId string) error {
	seen := make(map[int]bool, len(input.Lines))
	for _, line := range input.Lines {
		if line.CountedQty.IsNegative() {
			return errors.New("counted qty cannot be negative")
		}
		if seen[line.VariantId] {
			return errors.New("duplicate variant in count")
		}
		seen[line.VariantId] = true
		if err := utils.ValidateResourceId[ProductVariant](ctx, businessId, line.VariantId); err != nil {
			return errors.New("variant not found")
		}
	}
	return nil
}

// ApplyStockCount reconciles the snapshots of one warehouse against a physical
// count. The whole batch is one transaction: every line lands or none do.
// Lines whose counted quantity matches the snapshot are skipped without
// writing a movement.
func ApplyStockCount(ctx context.Context, input *NewStockCount) (*StockCountResult, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	warehouse, err := GetWarehouse(ctx, input.WarehouseId)
	if err != nil {
		return nil, errors.New("warehouse not found")
	}
	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}

	movementType := MovementTypeAdjustment
	if warehouse.Kind == WarehouseKindVirtual {
		movementType = MovementTypeVirtualAdjustment
	}

	release, err := utils.BusinessLock(ctx, businessId, "stock_count", "StockAdjustment", "ApplyStockCount")
	if err != nil {
		return nil, err
	}
	defer release()

	var result StockCountResult
	err = RunLedgerTransaction(ctx, func(tx *gorm.DB) error {
		result = StockCountResult{TotalDiff: decimal.Zero}

		seqNo, err := NextSequence(tx, ctx, businessId, "StockCount")
		if err != nil {
			return err
		}
		result.CountNumber = fmt.Sprintf("OPN-%d", seqNo)
		now := time.Now().UTC()

		for _, line := range input.Lines {
			summary, err := firstOrCreateStockSummary(tx, ctx, businessId, input.WarehouseId, line.VariantId)
			if err != nil {
				return err
			}

			diff := line.CountedQty.Sub(summary.CurrentQty)
			if diff.IsZero() {
				result.Skipped++
				continue
			}

			movement := StockMovement{
				MovementType:  movementType,
				ReferenceType: MovementReferenceTypeStockCount,
				Notes:         fmt.Sprintf("%s %s", result.CountNumber, input.Notes),
				EffectiveDate: now,
			}
			if err := setStockSnapshotQty(tx, ctx, summary, line.CountedQty, &movement); err != nil {
				return err
			}
			result.Adjusted++
			result.TotalDiff = result.TotalDiff.Add(diff)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
