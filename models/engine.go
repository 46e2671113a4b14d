package models

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/mitrabooks/pos_backend/config"
	"github.com/mitrabooks/pos_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Every aggregate (stock_summaries.current_qty, money_accounts.current_balance)
// is mutated only through applyStockDelta/applyCashDelta inside a
// RunLedgerTransaction closure, which also writes the paired immutable ledger
// row. The one sanctioned exception is setStockSnapshotQty for physical counts.

const maxLedgerTxRetries = 5

// RunLedgerTransaction executes fn as one atomic unit and retries the whole
// closure on commit-time conflicts (deadlock, lock wait timeout). fn must be
// free of side effects outside the transaction: it may run more than once.
func RunLedgerTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	db := config.GetDB()

	var err error
	for attempt := 0; attempt < maxLedgerTxRetries; attempt++ {
		if attempt > 0 {
			sleep := time.Duration(attempt)*25*time.Millisecond +
				time.Duration(rand.Intn(25))*time.Millisecond
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(sleep):
			}
		}

		err = db.WithContext(ctx).Transaction(fn)
		if err == nil || !isRetryableTxError(err) {
			return err
		}
		config.GetLogger().WithFields(logrus.Fields{
			"module":  "engine",
			"attempt": attempt + 1,
		}).Warn(err.Error())
	}
	return fmt.Errorf("%w: %v", ErrorTxConflict, err)
}

func isRetryableTxError(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		// 1213 deadlock, 1205 lock wait timeout
		return mysqlErr.Number == 1213 || mysqlErr.Number == 1205
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}

// SQLite has no FOR UPDATE (single writer); only MySQL gets the clause.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "mysql" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// applyStockDelta applies one signed quantity delta to the (variant, warehouse)
// snapshot and records the paired movement. The snapshot row is created lazily
// on first movement. A delta that would drive the snapshot negative aborts the
// surrounding transaction with ErrorOutOfStock.
func applyStockDelta(tx *gorm.DB, ctx context.Context, businessId string, warehouseId int, variantId int, delta decimal.Decimal, movement *StockMovement) error {
	if delta.IsZero() {
		return nil
	}

	summary, err := firstOrCreateStockSummary(tx, ctx, businessId, warehouseId, variantId)
	if err != nil {
		return err
	}

	newQty := summary.CurrentQty.Add(delta)
	if newQty.IsNegative() {
		return ErrorOutOfStock
	}

	if err := tx.WithContext(ctx).
		Exec("UPDATE stock_summaries SET current_qty = current_qty + ? WHERE id = ?", delta, summary.ID).Error; err != nil {
		return err
	}

	fillMovement(ctx, movement, businessId, warehouseId, variantId, delta)
	return tx.WithContext(ctx).Create(movement).Error
}

// setStockSnapshotQty overwrites the snapshot with a physically counted
// quantity. Only ApplyStockCount may call this; the counted quantity is the new
// ground truth, and the paired movement carries the diff so the ledger still
// sums to the snapshot.
func setStockSnapshotQty(tx *gorm.DB, ctx context.Context, summary *StockSummary, newQty decimal.Decimal, movement *StockMovement) error {
	diff := newQty.Sub(summary.CurrentQty)
	if diff.IsZero() {
		return nil
	}

	if err := tx.WithContext(ctx).
		Exec("UPDATE stock_summaries SET current_qty = ? WHERE id = ?", newQty, summary.ID).Error; err != nil {
		return err
	}

	fillMovement(ctx, movement, summary.BusinessId, summary.WarehouseId, summary.VariantId, diff)
	return tx.WithContext(ctx).Create(movement).Error
}

func fillMovement(ctx context.Context, movement *StockMovement, businessId string, warehouseId int, variantId int, delta decimal.Decimal) {
	if movement.ID == "" {
		movement.ID = uuid.NewString()
	}
	movement.BusinessId = businessId
	movement.WarehouseId = warehouseId
	movement.VariantId = variantId
	movement.QtyDelta = delta
	if movement.EffectiveDate.IsZero() {
		movement.EffectiveDate = time.Now().UTC()
	}
	if movement.CorrelationId == "" {
		movement.CorrelationId = correlationIdFromContextOrNew(ctx)
	}
	if movement.CreatedBy == 0 {
		if actorId, ok := utils.GetActorIdFromContext(ctx); ok {
			movement.CreatedBy = actorId
		}
	}
}

// applyCashDelta applies one signed amount delta to the account balance and
// records the paired cash transaction. An outbound delta that would drive the
// balance negative aborts with ErrorInsufficientFunds.
func applyCashDelta(tx *gorm.DB, ctx context.Context, businessId string, accountId int, delta decimal.Decimal, cashTx *CashTransaction) error {
	account, err := fetchMoneyAccountForUpdate(tx, ctx, businessId, accountId)
	if err != nil {
		return err
	}

	newBalance := account.CurrentBalance.Add(delta)
	if newBalance.IsNegative() {
		return ErrorInsufficientFunds
	}

	if err := tx.WithContext(ctx).
		Exec("UPDATE money_accounts SET current_balance = current_balance + ? WHERE id = ?", delta, account.ID).Error; err != nil {
		return err
	}

	if cashTx == nil {
		return nil
	}
	cashTx.BusinessId = businessId
	cashTx.MoneyAccountId = account.ID
	if cashTx.TransactionDateTime.IsZero() {
		cashTx.TransactionDateTime = time.Now().UTC()
	}
	if cashTx.CorrelationId == "" {
		cashTx.CorrelationId = correlationIdFromContextOrNew(ctx)
	}
	if cashTx.CreatedBy == 0 {
		if actorId, ok := utils.GetActorIdFromContext(ctx); ok {
			cashTx.CreatedBy = actorId
		}
	}
	return tx.WithContext(ctx).Create(cashTx).Error
}

// signedCashAmount converts a (type, positive amount) pair into the balance delta.
func signedCashAmount(txType CashTransactionType, amount decimal.Decimal) decimal.Decimal {
	if txType.IsInbound() {
		return amount
	}
	return amount.Neg()
}

func fetchMoneyAccountForUpdate(tx *gorm.DB, ctx context.Context, businessId string, accountId int) (*MoneyAccount, error) {
	var account MoneyAccount
	err := lockForUpdate(tx.WithContext(ctx)).
		Where("business_id = ?", businessId).
		First(&account, accountId).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &account, nil
}

func correlationIdFromContextOrNew(ctx context.Context) string {
	if ctx != nil {
		if v, ok := utils.GetCorrelationIdFromContext(ctx); ok && v != "" {
			return v
		}
	}
	return uuid.NewString()
}
