package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mitrabooks/pos_backend/config"
	"github.com/mitrabooks/pos_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CashTransaction is the cash ledger row. Amount is always positive; the
// direction comes from TransactionType. Unlike stock movements, manual cash
// entries may be edited or deleted, but only through the operations below,
// which re-derive the balance correction inside the same transaction.
type CashTransaction struct {
	ID                  int                 `gorm:"primary_key" json:"id"`
	BusinessId          string              `gorm:"index;not null" json:"business_id"`
	MoneyAccountId      int                 `gorm:"index;not null" json:"money_account_id"`
	TransactionType     CashTransactionType `gorm:"size:20;not null" json:"transaction_type"`
	Amount              decimal.Decimal     `gorm:"type:decimal(20,4);not null" json:"amount"`
	Category            string              `gorm:"size:100" json:"category"`
	Description         string              `gorm:"type:text" json:"description"`
	ReferenceType       CashReferenceType   `gorm:"size:20" json:"reference_type"`
	ReferenceId         int                 `gorm:"index" json:"reference_id"`
	CounterpartId       int                 `gorm:"index" json:"counterpart_id"` // other leg of a transfer pair
	CreatedBy           int                 `gorm:"index" json:"created_by"`
	TransactionDateTime time.Time           `gorm:"index;not null" json:"transaction_date_time"`
	CorrelationId       string              `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt           time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCashTransaction struct {
	MoneyAccountId  int                 `json:"money_account_id" binding:"required"`
	TransactionType CashTransactionType `json:"transaction_type" binding:"required"`
	Amount          decimal.Decimal     `json:"amount" binding:"dgt0"`
	Category        string              `json:"category"`
	Description     string              `json:"description"`
}

type NewFundsTransfer struct {
	FromAccountId int             `json:"from_account_id" binding:"required"`
	ToAccountId   int             `json:"to_account_id" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"dgt0"`
	Note          string          `json:"note"`
}

type EditCashTransaction struct {
	MoneyAccountId int             `json:"money_account_id" binding:"required"`
	Amount         decimal.Decimal `json:"amount" binding:"dgt0"`
	Category       string          `json:"category"`
	Description    string          `json:"description"`
}

// CreateCashTransaction records one manual in/out entry and applies its delta
// to the account balance in the same transaction.
func CreateCashTransaction(ctx context.Context, input *NewCashTransaction) (*CashTransaction, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if !input.Amount.IsPositive() {
		return nil, ErrorInvalidAmount
	}
	if input.TransactionType != CashTransactionTypeIn && input.TransactionType != CashTransactionTypeOut {
		return nil, errors.New("transaction type must be in or out")
	}
	if err := utils.ValidateResourceId[MoneyAccount](ctx, businessId, input.MoneyAccountId); err != nil {
		return nil, errors.New("account not found")
	}

	cashTx := CashTransaction{
		TransactionType: input.TransactionType,
		Amount:          input.Amount,
		Category:        input.Category,
		Description:     input.Description,
		ReferenceType:   CashReferenceTypeManual,
	}
	err := RunLedgerTransaction(ctx, func(tx *gorm.DB) error {
		cashTx.ID = 0
		return applyCashDelta(tx, ctx, businessId, input.MoneyAccountId,
			signedCashAmount(input.TransactionType, input.Amount), &cashTx)
	})
	if err != nil {
		return nil, err
	}
	return &cashTx, nil
}

// TransferFunds moves amount between two accounts, writing a transfer_out and
// a transfer_in row that reference each other. Accounts are touched in id
// order so concurrent transfers cannot deadlock on each other.
func TransferFunds(ctx context.Context, input *NewFundsTransfer) (*CashTransaction, *CashTransaction, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, nil, errors.New("business id is required")
	}
	if input.FromAccountId == input.ToAccountId {
		return nil, nil, ErrorSameAccount
	}
	if !input.Amount.IsPositive() {
		return nil, nil, ErrorInvalidAmount
	}

	fromAccount, err := utils.FetchModel[MoneyAccount](ctx, businessId, input.FromAccountId)
	if err != nil {
		return nil, nil, errors.New("from account not found")
	}
	toAccount, err := utils.FetchModel[MoneyAccount](ctx, businessId, input.ToAccountId)
	if err != nil {
		return nil, nil, errors.New("to account not found")
	}

	note := input.Note
	outTx := CashTransaction{
		TransactionType: CashTransactionTypeTransferOut,
		Amount:          input.Amount,
		Category:        "transfer",
		Description:     joinNote(fmt.Sprintf("Transfer to %s", toAccount.AccountName), note),
		ReferenceType:   CashReferenceTypeTransfer,
	}
	inTx := CashTransaction{
		TransactionType: CashTransactionTypeTransferIn,
		Amount:          input.Amount,
		Category:        "transfer",
		Description:     joinNote(fmt.Sprintf("Transfer from %s", fromAccount.AccountName), note),
		ReferenceType:   CashReferenceTypeTransfer,
	}

	err = RunLedgerTransaction(ctx, func(tx *gorm.DB) error {
		// retry safety: reset ids assigned by a rolled-back attempt
		outTx.ID, inTx.ID = 0, 0

		type leg struct {
			accountId int
			delta     decimal.Decimal
			row       *CashTransaction
		}
		legs := []leg{
			{input.FromAccountId, input.Amount.Neg(), &outTx},
			{input.ToAccountId, input.Amount, &inTx},
		}
		if legs[0].accountId > legs[1].accountId {
			legs[0], legs[1] = legs[1], legs[0]
		}
		for _, l := range legs {
			if err := applyCashDelta(tx, ctx, businessId, l.accountId, l.delta, l.row); err != nil {
				return err
			}
		}
		// link the pair
		if err := tx.WithContext(ctx).Model(&outTx).Update("CounterpartId", inTx.ID).Error; err != nil {
			return err
		}
		outTx.CounterpartId = inTx.ID
		inTx.CounterpartId = outTx.ID
		return tx.WithContext(ctx).Model(&inTx).Update("CounterpartId", outTx.ID).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return &outTx, &inTx, nil
}

func joinNote(prefix string, note string) string {
	if note == "" {
		return prefix
	}
	return prefix + ": " + note
}

// UpdateCashTransaction edits a manual entry. Within one transaction it applies
// the net balance correction per touched account (one delta when the account
// stays the same, an undo/apply pair when it moves) and overwrites the stored
// fields. Only a final balance below zero aborts; intermediate arithmetic never
// does. Transfer legs are not editable; delete and re-create the transfer
// instead.
func UpdateCashTransaction(ctx context.Context, id int, input *EditCashTransaction) (*CashTransaction, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if !input.Amount.IsPositive() {
		return nil, ErrorInvalidAmount
	}
	if err := utils.ValidateResourceId[MoneyAccount](ctx, businessId, input.MoneyAccountId); err != nil {
		return nil, errors.New("account not found")
	}

	var updated CashTransaction
	err := RunLedgerTransaction(ctx, func(tx *gorm.DB) error {
		var old CashTransaction
		if err := lockForUpdate(tx.WithContext(ctx)).
			Where("business_id = ?", businessId).
			First(&old, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.ErrorRecordNotFound
			}
			return err
		}
		if old.TransactionType.IsTransfer() {
			return errors.New("transfer legs cannot be edited")
		}

		// the overwritten row stays the single ledger entry for this fact;
		// each touched account gets exactly one guarded delta
		oldSigned := signedCashAmount(old.TransactionType, old.Amount)
		newSigned := signedCashAmount(old.TransactionType, input.Amount)
		if input.MoneyAccountId == old.MoneyAccountId {
			if err := applyCashDelta(tx, ctx, businessId, old.MoneyAccountId, newSigned.Sub(oldSigned), nil); err != nil {
				return err
			}
		} else {
			if err := applyCashDelta(tx, ctx, businessId, old.MoneyAccountId, oldSigned.Neg(), nil); err != nil {
				return err
			}
			if err := applyCashDelta(tx, ctx, businessId, input.MoneyAccountId, newSigned, nil); err != nil {
				return err
			}
		}

		if err := tx.WithContext(ctx).Model(&old).Updates(map[string]interface{}{
			"MoneyAccountId": input.MoneyAccountId,
			"Amount":         input.Amount,
			"Category":       input.Category,
			"Description":    input.Description,
		}).Error; err != nil {
			return err
		}
		updated = old
		updated.MoneyAccountId = input.MoneyAccountId
		updated.Amount = input.Amount
		updated.Category = input.Category
		updated.Description = input.Description
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteCashTransaction reverses the entry's balance effect and removes the
// row atomically. Deleting a transfer leg removes its counterpart too, so the
// pair never survives half-deleted.
func DeleteCashTransaction(ctx context.Context, id int) (*CashTransaction, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	var deleted CashTransaction
	err := RunLedgerTransaction(ctx, func(tx *gorm.DB) error {
		var row CashTransaction
		if err := lockForUpdate(tx.WithContext(ctx)).
			Where("business_id = ?", businessId).
			First(&row, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.ErrorRecordNotFound
			}
			return err
		}
		if row.ReferenceType == CashReferenceTypePurchaseOrder || row.ReferenceType == CashReferenceTypeSalesOrder {
			return errors.New("document-backed cash transactions cannot be deleted directly")
		}

		rows := []CashTransaction{row}
		if row.TransactionType.IsTransfer() && row.CounterpartId > 0 {
			var counterpart CashTransaction
			if err := lockForUpdate(tx.WithContext(ctx)).
				Where("business_id = ?", businessId).
				First(&counterpart, row.CounterpartId).Error; err != nil {
				return err
			}
			rows = append(rows, counterpart)
		}

		for i := range rows {
			undo := signedCashAmount(rows[i].TransactionType, rows[i].Amount).Neg()
			if err := applyCashDelta(tx, ctx, businessId, rows[i].MoneyAccountId, undo, nil); err != nil {
				return err
			}
			if err := tx.WithContext(ctx).Delete(&rows[i]).Error; err != nil {
				return err
			}
		}
		deleted = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &deleted, nil
}

func GetCashTransaction(ctx context.Context, id int) (*CashTransaction, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[CashTransaction](ctx, businessId, id)
}

func ListCashTransactions(ctx context.Context, accountId *int, txType *CashTransactionType, limit int) ([]*CashTransaction, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if accountId != nil && *accountId > 0 {
		dbCtx = dbCtx.Where("money_account_id = ?", *accountId)
	}
	if txType != nil && *txType != "" {
		dbCtx = dbCtx.Where("transaction_type = ?", *txType)
	}
	var results []*CashTransaction
	if err := dbCtx.Order("transaction_date_time DESC, id DESC").Limit(limit).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
