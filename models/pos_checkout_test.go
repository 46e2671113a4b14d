package models_test

import (
	"errors"
	"testing"

	"github.com/mitrabooks/pos_backend/models"
	"github.com/shopspring/decimal"
)

func TestPosCheckoutMovesStockAndCashTogether(t *testing.T) {
	db := openTestDB(t)
	ctx := testContext()

	warehouse := seedWarehouse(t, ctx, "Store", models.WarehouseKindPhysical)
	notebook := seedVariant(t, ctx, "NB-01", 100, 150)
	pencil := seedVariant(t, ctx, "PC-01", 200, 300)
	register := seedAccount(t, ctx, "Register")

	stockVariant(t, ctx, warehouse.ID, notebook.ID, 20)
	stockVariant(t, ctx, warehouse.ID, pencil.ID, 10)

	order, err := models.CreatePosCheckout(ctx, &models.NewPosCheckout{
		WarehouseId:      warehouse.ID,
		DepositAccountId: register.ID,
		Lines: []models.NewCheckoutLine{
			{VariantId: notebook.ID, Qty: decimal.NewFromInt(3)},
			{VariantId: pencil.ID, Qty: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(250)},
		},
	})
	if err != nil {
		t.Fatalf("CreatePosCheckout: %v", err)
	}
	if order.OrderNumber != "SO-1" {
		t.Fatalf("expected order number SO-1, got %s", order.OrderNumber)
	}
	// 3*150 (catalog price) + 2*250 (override) = 950
	if !order.GrossAmount.Equal(decimal.NewFromInt(950)) {
		t.Fatalf("expected gross 950, got %s", order.GrossAmount)
	}
	if order.PaymentStatus != models.PaymentStatusPaid {
		t.Fatalf("expected PAID, got %s", order.PaymentStatus)
	}

	if qty := stockQty(t, ctx, warehouse.ID, notebook.ID); !qty.Equal(decimal.NewFromInt(17)) {
		t.Fatalf("expected notebook stock 17, got %s", qty)
	}
	if qty := stockQty(t, ctx, warehouse.ID, pencil.ID); !qty.Equal(decimal.NewFromInt(8)) {
		t.Fatalf("expected pencil stock 8, got %s", qty)
	}
	if balance := accountBalance(t, ctx, register.ID); !balance.Equal(decimal.NewFromInt(950)) {
		t.Fatalf("expected register balance 950, got %s", balance)
	}

	var cashTx models.CashTransaction
	err = db.Where("business_id = ? AND reference_type = ? AND reference_id = ?",
		testBusinessId, models.CashReferenceTypeSalesOrder, order.ID).First(&cashTx).Error
	if err != nil {
		t.Fatalf("load cash transaction: %v", err)
	}
	if cashTx.TransactionType != models.CashTransactionTypeIn {
		t.Fatalf("expected inbound cash entry, got %s", cashTx.TransactionType)
	}
	if !cashTx.Amount.Equal(order.GrossAmount) {
		t.Fatalf("cash amount %s != gross %s", cashTx.Amount, order.GrossAmount)
	}

	assertStockInvariant(t, db)
	assertCashInvariant(t, db)
}

func TestPosCheckoutOversellAbortsWholeCart(t *testing.T) {
	db := openTestDB(t)
	ctx := testContext()

	warehouse := seedWarehouse(t, ctx, "Store", models.WarehouseKindPhysical)
	notebook := seedVariant(t, ctx, "NB-01", 100, 150)
	pencil := seedVariant(t, ctx, "PC-01", 200, 300)
	register := seedAccount(t, ctx, "Register")

	stockVariant(t, ctx, warehouse.ID, notebook.ID, 20)
	stockVariant(t, ctx, warehouse.ID, pencil.ID, 1)

	_, err := models.CreatePosCheckout(ctx, &models.NewPosCheckout{
		WarehouseId:      warehouse.ID,
		DepositAccountId: register.ID,
		Lines: []models.NewCheckoutLine{
			{VariantId: notebook.ID, Qty: decimal.NewFromInt(3)},
			{VariantId: pencil.ID, Qty: decimal.NewFromInt(5)}, // only 1 on hand
		},
	})
	if !errors.Is(err, models.ErrorOutOfStock) {
		t.Fatalf("expected ErrorOutOfStock, got %v", err)
	}

	// Nothing may survive the abort: no order, no movements, no cash.
	if qty := stockQty(t, ctx, warehouse.ID, notebook.ID); !qty.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("notebook stock changed on aborted cart: %s", qty)
	}
	if balance := accountBalance(t, ctx, register.ID); !balance.IsZero() {
		t.Fatalf("register balance changed on aborted cart: %s", balance)
	}

	var orderCount int64
	db.Model(&models.SalesOrder{}).Where("business_id = ?", testBusinessId).Count(&orderCount)
	if orderCount != 0 {
		t.Fatalf("expected no sales orders, got %d", orderCount)
	}
	var saleMovements int64
	db.Model(&models.StockMovement{}).
		Where("business_id = ? AND movement_type = ?", testBusinessId, models.MovementTypeSaleOut).
		Count(&saleMovements)
	if saleMovements != 0 {
		t.Fatalf("expected no sale movements, got %d", saleMovements)
	}

	assertStockInvariant(t, db)
	assertCashInvariant(t, db)
}

func TestPosCheckoutRejectsNonPositiveQty(t *testing.T) {
	openTestDB(t)
	ctx := testContext()

	warehouse := seedWarehouse(t, ctx, "Store", models.WarehouseKindPhysical)
	notebook := seedVariant(t, ctx, "NB-01", 100, 150)
	register := seedAccount(t, ctx, "Register")

	_, err := models.CreatePosCheckout(ctx, &models.NewPosCheckout{
		WarehouseId:      warehouse.ID,
		DepositAccountId: register.ID,
		Lines: []models.NewCheckoutLine{
			{VariantId: notebook.ID, Qty: decimal.Zero},
		},
	})
	if !errors.Is(err, models.ErrorInvalidAmount) {
		t.Fatalf("expected ErrorInvalidAmount, got %v", err)
	}
}
