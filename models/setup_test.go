package models_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/mitrabooks/pos_backend/config"
	"github.com/mitrabooks/pos_backend/models"
	"github.com/mitrabooks/pos_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testBusinessId = "biz-test"

// openTestDB wires an in-memory database behind the package-level handle.
// One connection keeps sqlite's single-writer model from surfacing spurious
// lock errors under concurrent transactions.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	config.SetDB(db)
	models.MigrateTable()
	t.Cleanup(func() {
		config.SetDB(nil)
		_ = sqlDB.Close()
	})
	return db
}

func testContext() context.Context {
	ctx := utils.SetBusinessIdInContext(context.Background(), testBusinessId)
	ctx = utils.SetActorIdInContext(ctx, 1)
	return ctx
}

func seedVariant(t *testing.T, ctx context.Context, sku string, cost, price int64) *models.ProductVariant {
	t.Helper()
	variant, err := models.CreateProductVariant(ctx, &models.NewProductVariant{
		Sku:   sku,
		Name:  "Variant " + sku,
		Cost:  decimal.NewFromInt(cost),
		Price: decimal.NewFromInt(price),
	})
	if err != nil {
		t.Fatalf("CreateProductVariant(%s): %v", sku, err)
	}
	return variant
}

func seedWarehouse(t *testing.T, ctx context.Context, name string, kind models.WarehouseKind) *models.Warehouse {
	t.Helper()
	warehouse, err := models.CreateWarehouse(ctx, &models.NewWarehouse{Name: name, Kind: kind})
	if err != nil {
		t.Fatalf("CreateWarehouse(%s): %v", name, err)
	}
	return warehouse
}

func seedSupplier(t *testing.T, ctx context.Context, name string) *models.Supplier {
	t.Helper()
	supplier, err := models.CreateSupplier(ctx, &models.NewSupplier{Name: name})
	if err != nil {
		t.Fatalf("CreateSupplier(%s): %v", name, err)
	}
	return supplier
}

func seedAccount(t *testing.T, ctx context.Context, name string) *models.MoneyAccount {
	t.Helper()
	account, err := models.CreateMoneyAccount(ctx, &models.NewMoneyAccount{
		AccountType: models.MoneyAccountTypeCash,
		AccountName: name,
	})
	if err != nil {
		t.Fatalf("CreateMoneyAccount(%s): %v", name, err)
	}
	return account
}

// fundAccount deposits through the normal cash entry path so the ledger stays
// consistent with the balance.
func fundAccount(t *testing.T, ctx context.Context, accountId int, amount int64) {
	t.Helper()
	_, err := models.CreateCashTransaction(ctx, &models.NewCashTransaction{
		MoneyAccountId:  accountId,
		TransactionType: models.CashTransactionTypeIn,
		Amount:          decimal.NewFromInt(amount),
		Category:        "seed",
	})
	if err != nil {
		t.Fatalf("fundAccount(%d, %d): %v", accountId, amount, err)
	}
}

// stockVariant sets an absolute on-hand quantity through a physical count.
func stockVariant(t *testing.T, ctx context.Context, warehouseId, variantId int, qty int64) {
	t.Helper()
	_, err := models.ApplyStockCount(ctx, &models.NewStockCount{
		WarehouseId: warehouseId,
		Lines: []models.NewStockCountLine{
			{VariantId: variantId, CountedQty: decimal.NewFromInt(qty)},
		},
	})
	if err != nil {
		t.Fatalf("stockVariant(w=%d v=%d qty=%d): %v", warehouseId, variantId, qty, err)
	}
}

func stockQty(t *testing.T, ctx context.Context, warehouseId, variantId int) decimal.Decimal {
	t.Helper()
	qty, err := models.GetStockSummary(ctx, warehouseId, variantId)
	if err != nil {
		t.Fatalf("GetStockSummary(w=%d v=%d): %v", warehouseId, variantId, err)
	}
	return qty
}

func accountBalance(t *testing.T, ctx context.Context, accountId int) decimal.Decimal {
	t.Helper()
	account, err := models.GetMoneyAccount(ctx, accountId)
	if err != nil {
		t.Fatalf("GetMoneyAccount(%d): %v", accountId, err)
	}
	return account.CurrentBalance
}

// assertStockInvariant checks every snapshot equals the sum of its movements.
func assertStockInvariant(t *testing.T, db *gorm.DB) {
	t.Helper()

	var summaries []models.StockSummary
	if err := db.Where("business_id = ?", testBusinessId).Find(&summaries).Error; err != nil {
		t.Fatalf("load summaries: %v", err)
	}
	for _, s := range summaries {
		var row struct{ Total decimal.Decimal }
		err := db.Raw(`SELECT COALESCE(SUM(qty_delta), 0) AS total FROM stock_movements
			WHERE business_id = ? AND warehouse_id = ? AND variant_id = ?`,
			s.BusinessId, s.WarehouseId, s.VariantId).Scan(&row).Error
		if err != nil {
			t.Fatalf("sum movements: %v", err)
		}
		if !s.CurrentQty.Equal(row.Total) {
			t.Fatalf("stock drift w=%d v=%d: snapshot=%s ledger=%s",
				s.WarehouseId, s.VariantId, s.CurrentQty, row.Total)
		}
	}
}

// assertCashInvariant checks every balance equals the signed sum of its rows.
func assertCashInvariant(t *testing.T, db *gorm.DB) {
	t.Helper()

	var accounts []models.MoneyAccount
	if err := db.Where("business_id = ?", testBusinessId).Find(&accounts).Error; err != nil {
		t.Fatalf("load accounts: %v", err)
	}
	for _, a := range accounts {
		var row struct{ Total decimal.Decimal }
		err := db.Raw(`SELECT COALESCE(SUM(CASE WHEN transaction_type IN ('in', 'transfer_in')
				THEN amount ELSE -amount END), 0) AS total
			FROM cash_transactions
			WHERE business_id = ? AND money_account_id = ?`,
			a.BusinessId, a.ID).Scan(&row).Error
		if err != nil {
			t.Fatalf("sum cash rows: %v", err)
		}
		if !a.CurrentBalance.Equal(row.Total) {
			t.Fatalf("cash drift account=%d: balance=%s ledger=%s",
				a.ID, a.CurrentBalance, row.Total)
		}
	}
}
