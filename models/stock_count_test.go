package models_test

import (
	"testing"

	"github.com/mitrabooks/pos_backend/models"
	"github.com/shopspring/decimal"
)

func TestStockCountAdjustsBatchAtomically(t *testing.T) {
	db := openTestDB(t)
	ctx := testContext()

	warehouse := seedWarehouse(t, ctx, "Main", models.WarehouseKindPhysical)
	notebook := seedVariant(t, ctx, "NB-01", 100, 150)
	pencil := seedVariant(t, ctx, "PC-01", 200, 300)
	eraser := seedVariant(t, ctx, "ER-01", 50, 80)

	stockVariant(t, ctx, warehouse.ID, notebook.ID, 10)
	stockVariant(t, ctx, warehouse.ID, pencil.ID, 5)

	result, err := models.ApplyStockCount(ctx, &models.NewStockCount{
		WarehouseId: warehouse.ID,
		Lines: []models.NewStockCountLine{
			{VariantId: notebook.ID, CountedQty: decimal.NewFromInt(12)}, // up 2
			{VariantId: pencil.ID, CountedQty: decimal.NewFromInt(3)},    // down 2
			{VariantId: eraser.ID, CountedQty: decimal.NewFromInt(7)},    // first count
		},
	})
	if err != nil {
		t.Fatalf("ApplyStockCount: %v", err)
	}
	if result.Adjusted != 3 {
		t.Fatalf("expected 3 adjusted lines, got %d", result.Adjusted)
	}
	if !result.TotalDiff.Equal(decimal.NewFromInt(7)) { // +2 -2 +7
		t.Fatalf("expected total diff 7, got %s", result.TotalDiff)
	}

	if qty := stockQty(t, ctx, warehouse.ID, notebook.ID); !qty.Equal(decimal.NewFromInt(12)) {
		t.Fatalf("expected notebook 12, got %s", qty)
	}
	if qty := stockQty(t, ctx, warehouse.ID, pencil.ID); !qty.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("expected pencil 3, got %s", qty)
	}
	if qty := stockQty(t, ctx, warehouse.ID, eraser.ID); !qty.Equal(decimal.NewFromInt(7)) {
		t.Fatalf("expected eraser 7, got %s", qty)
	}

	var adjustments []models.StockMovement
	err = db.Where("business_id = ? AND reference_type = ?",
		testBusinessId, models.MovementReferenceTypeStockCount).Find(&adjustments).Error
	if err != nil {
		t.Fatalf("load adjustment movements: %v", err)
	}
	// 2 seed counts + 3 from this batch
	if len(adjustments) != 5 {
		t.Fatalf("expected 5 adjustment movements, got %d", len(adjustments))
	}

	assertStockInvariant(t, db)
}

func TestStockCountSkipsMatchingLines(t *testing.T) {
	db := openTestDB(t)
	ctx := testContext()

	warehouse := seedWarehouse(t, ctx, "Main", models.WarehouseKindPhysical)
	notebook := seedVariant(t, ctx, "NB-01", 100, 150)
	stockVariant(t, ctx, warehouse.ID, notebook.ID, 10)

	var before int64
	db.Model(&models.StockMovement{}).Where("business_id = ?", testBusinessId).Count(&before)

	result, err := models.ApplyStockCount(ctx, &models.NewStockCount{
		WarehouseId: warehouse.ID,
		Lines: []models.NewStockCountLine{
			{VariantId: notebook.ID, CountedQty: decimal.NewFromInt(10)},
		},
	})
	if err != nil {
		t.Fatalf("ApplyStockCount: %v", err)
	}
	if result.Adjusted != 0 || result.Skipped != 1 {
		t.Fatalf("expected 0 adjusted / 1 skipped, got %d / %d", result.Adjusted, result.Skipped)
	}

	var after int64
	db.Model(&models.StockMovement{}).Where("business_id = ?", testBusinessId).Count(&after)
	if before != after {
		t.Fatalf("matching count wrote movements: before=%d after=%d", before, after)
	}
	assertStockInvariant(t, db)
}

func TestStockCountOnVirtualWarehouseUsesVirtualAdjustment(t *testing.T) {
	db := openTestDB(t)
	ctx := testContext()

	virtual := seedWarehouse(t, ctx, "Supplier Pre-Stock", models.WarehouseKindVirtual)
	variant := seedVariant(t, ctx, "NB-01", 100, 150)

	if _, err := models.ApplyStockCount(ctx, &models.NewStockCount{
		WarehouseId: virtual.ID,
		Lines: []models.NewStockCountLine{
			{VariantId: variant.ID, CountedQty: decimal.NewFromInt(4)},
		},
	}); err != nil {
		t.Fatalf("ApplyStockCount: %v", err)
	}

	var movement models.StockMovement
	err := db.Where("business_id = ? AND warehouse_id = ?", testBusinessId, virtual.ID).
		First(&movement).Error
	if err != nil {
		t.Fatalf("load movement: %v", err)
	}
	if movement.MovementType != models.MovementTypeVirtualAdjustment {
		t.Fatalf("expected virtual_adjustment, got %s", movement.MovementType)
	}
	assertStockInvariant(t, db)
}

func TestStockCountRejectsNegativeAndDuplicateLines(t *testing.T) {
	openTestDB(t)
	ctx := testContext()

	warehouse := seedWarehouse(t, ctx, "Main", models.WarehouseKindPhysical)
	variant := seedVariant(t, ctx, "NB-01", 100, 150)

	if _, err := models.ApplyStockCount(ctx, &models.NewStockCount{
		WarehouseId: warehouse.ID,
		Lines: []models.NewStockCountLine{
			{VariantId: variant.ID, CountedQty: decimal.NewFromInt(-1)},
		},
	}); err == nil {
		t.Fatal("expected negative count to be rejected")
	}

	if _, err := models.ApplyStockCount(ctx, &models.NewStockCount{
		WarehouseId: warehouse.ID,
		Lines: []models.NewStockCountLine{
			{VariantId: variant.ID, CountedQty: decimal.NewFromInt(1)},
			{VariantId: variant.ID, CountedQty: decimal.NewFromInt(2)},
		},
	}); err == nil {
		t.Fatal("expected duplicate variant lines to be rejected")
	}
}
