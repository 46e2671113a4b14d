package models_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/mitrabooks/pos_backend/models"
	"github.com/shopspring/decimal"
)

func TestCreateCashTransactionAppliesSignedDelta(t *testing.T) {
	db := openTestDB(t)
	ctx := testContext()

	account := seedAccount(t, ctx, "Register")

	in, err := models.CreateCashTransaction(ctx, &models.NewCashTransaction{
		MoneyAccountId:  account.ID,
		TransactionType: models.CashTransactionTypeIn,
		Amount:          decimal.NewFromInt(1000),
		Category:        "capital",
	})
	if err != nil {
		t.Fatalf("CreateCashTransaction(in): %v", err)
	}
	if in.ID == 0 {
		t.Fatal("expected ledger row to be persisted")
	}
	if balance := accountBalance(t, ctx, account.ID); !balance.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("expected balance 1000, got %s", balance)
	}

	if _, err := models.CreateCashTransaction(ctx, &models.NewCashTransaction{
		MoneyAccountId:  account.ID,
		TransactionType: models.CashTransactionTypeOut,
		Amount:          decimal.NewFromInt(400),
		Category:        "rent",
	}); err != nil {
		t.Fatalf("CreateCashTransaction(out): %v", err)
	}
	if balance := accountBalance(t, ctx, account.ID); !balance.Equal(decimal.NewFromInt(600)) {
		t.Fatalf("expected balance 600, got %s", balance)
	}

	// Outflow beyond the balance is refused.
	if _, err := models.CreateCashTransaction(ctx, &models.NewCashTransaction{
		MoneyAccountId:  account.ID,
		TransactionType: models.CashTransactionTypeOut,
		Amount:          decimal.NewFromInt(601),
	}); !errors.Is(err, models.ErrorInsufficientFunds) {
		t.Fatalf("expected ErrorInsufficientFunds, got %v", err)
	}

	assertCashInvariant(t, db)
}

func TestTransferFundsWritesLinkedPair(t *testing.T) {
	db := openTestDB(t)
	ctx := testContext()

	register := seedAccount(t, ctx, "Register")
	bank := seedAccount(t, ctx, "Bank")
	fundAccount(t, ctx, register.ID, 1000)

	outTx, inTx, err := models.TransferFunds(ctx, &models.NewFundsTransfer{
		FromAccountId: register.ID,
		ToAccountId:   bank.ID,
		Amount:        decimal.NewFromInt(300),
	})
	if err != nil {
		t.Fatalf("TransferFunds: %v", err)
	}

	if balance := accountBalance(t, ctx, register.ID); !balance.Equal(decimal.NewFromInt(700)) {
		t.Fatalf("expected register 700, got %s", balance)
	}
	if balance := accountBalance(t, ctx, bank.ID); !balance.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("expected bank 300, got %s", balance)
	}

	if outTx.TransactionType != models.CashTransactionTypeTransferOut {
		t.Fatalf("expected transfer_out, got %s", outTx.TransactionType)
	}
	if inTx.TransactionType != models.CashTransactionTypeTransferIn {
		t.Fatalf("expected transfer_in, got %s", inTx.TransactionType)
	}
	if outTx.CounterpartId != inTx.ID || inTx.CounterpartId != outTx.ID {
		t.Fatalf("legs not cross-linked: out.counterpart=%d in.counterpart=%d",
			outTx.CounterpartId, inTx.CounterpartId)
	}

	// Same account on both sides is refused.
	if _, _, err := models.TransferFunds(ctx, &models.NewFundsTransfer{
		FromAccountId: register.ID,
		ToAccountId:   register.ID,
		Amount:        decimal.NewFromInt(50),
	}); !errors.Is(err, models.ErrorSameAccount) {
		t.Fatalf("expected ErrorSameAccount, got %v", err)
	}

	// Draining more than the balance leaves both accounts untouched.
	if _, _, err := models.TransferFunds(ctx, &models.NewFundsTransfer{
		FromAccountId: register.ID,
		ToAccountId:   bank.ID,
		Amount:        decimal.NewFromInt(900),
	}); !errors.Is(err, models.ErrorInsufficientFunds) {
		t.Fatalf("expected ErrorInsufficientFunds, got %v", err)
	}
	if balance := accountBalance(t, ctx, register.ID); !balance.Equal(decimal.NewFromInt(700)) {
		t.Fatalf("register changed on failed transfer: %s", balance)
	}
	if balance := accountBalance(t, ctx, bank.ID); !balance.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("bank changed on failed transfer: %s", balance)
	}

	assertCashInvariant(t, db)
}

func TestUpdateCashTransactionRederivesBalance(t *testing.T) {
	db := openTestDB(t)
	ctx := testContext()

	register := seedAccount(t, ctx, "Register")
	bank := seedAccount(t, ctx, "Bank")

	entry, err := models.CreateCashTransaction(ctx, &models.NewCashTransaction{
		MoneyAccountId:  register.ID,
		TransactionType: models.CashTransactionTypeIn,
		Amount:          decimal.NewFromInt(1000),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// 1000 -> 1500 on the same account nets +500.
	updated, err := models.UpdateCashTransaction(ctx, entry.ID, &models.EditCashTransaction{
		MoneyAccountId: register.ID,
		Amount:         decimal.NewFromInt(1500),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.Amount.Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("expected amount 1500, got %s", updated.Amount)
	}
	if balance := accountBalance(t, ctx, register.ID); !balance.Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("expected balance 1500, got %s", balance)
	}

	// Moving the entry to another account re-homes the full effect.
	if _, err := models.UpdateCashTransaction(ctx, entry.ID, &models.EditCashTransaction{
		MoneyAccountId: bank.ID,
		Amount:         decimal.NewFromInt(1500),
	}); err != nil {
		t.Fatalf("move: %v", err)
	}
	if balance := accountBalance(t, ctx, register.ID); !balance.IsZero() {
		t.Fatalf("expected register 0 after move, got %s", balance)
	}
	if balance := accountBalance(t, ctx, bank.ID); !balance.Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("expected bank 1500 after move, got %s", balance)
	}

	// Transfer legs are frozen.
	fundAccount(t, ctx, register.ID, 500)
	outTx, _, err := models.TransferFunds(ctx, &models.NewFundsTransfer{
		FromAccountId: register.ID,
		ToAccountId:   bank.ID,
		Amount:        decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if _, err := models.UpdateCashTransaction(ctx, outTx.ID, &models.EditCashTransaction{
		MoneyAccountId: register.ID,
		Amount:         decimal.NewFromInt(200),
	}); err == nil {
		t.Fatal("expected transfer leg edit to be rejected")
	}

	assertCashInvariant(t, db)
}

// Editing an inbound entry upward while the balance sits below the old amount
// must succeed: only the final balance matters, not any intermediate step of
// the correction arithmetic.
func TestUpdateCashTransactionAllowsUpwardEditOnLowBalance(t *testing.T) {
	db := openTestDB(t)
	ctx := testContext()

	register := seedAccount(t, ctx, "Register")

	deposit, err := models.CreateCashTransaction(ctx, &models.NewCashTransaction{
		MoneyAccountId:  register.ID,
		TransactionType: models.CashTransactionTypeIn,
		Amount:          decimal.NewFromInt(1000),
	})
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := models.CreateCashTransaction(ctx, &models.NewCashTransaction{
		MoneyAccountId:  register.ID,
		TransactionType: models.CashTransactionTypeOut,
		Amount:          decimal.NewFromInt(950),
	}); err != nil {
		t.Fatalf("spend: %v", err)
	}
	if balance := accountBalance(t, ctx, register.ID); !balance.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected balance 50, got %s", balance)
	}

	// 1000 -> 1100 nets +100 against a balance of 50.
	if _, err := models.UpdateCashTransaction(ctx, deposit.ID, &models.EditCashTransaction{
		MoneyAccountId: register.ID,
		Amount:         decimal.NewFromInt(1100),
	}); err != nil {
		t.Fatalf("upward edit at low balance: %v", err)
	}
	if balance := accountBalance(t, ctx, register.ID); !balance.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("expected balance 150, got %s", balance)
	}

	// A downward edit that would land the final balance below zero still aborts.
	if _, err := models.UpdateCashTransaction(ctx, deposit.ID, &models.EditCashTransaction{
		MoneyAccountId: register.ID,
		Amount:         decimal.NewFromInt(900),
	}); !errors.Is(err, models.ErrorInsufficientFunds) {
		t.Fatalf("expected ErrorInsufficientFunds, got %v", err)
	}
	if balance := accountBalance(t, ctx, register.ID); !balance.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("balance changed on rejected edit: %s", balance)
	}

	assertCashInvariant(t, db)
}

func TestDeleteCashTransactionReversesEffect(t *testing.T) {
	db := openTestDB(t)
	ctx := testContext()

	register := seedAccount(t, ctx, "Register")
	bank := seedAccount(t, ctx, "Bank")
	fundAccount(t, ctx, register.ID, 1000)

	entry, err := models.CreateCashTransaction(ctx, &models.NewCashTransaction{
		MoneyAccountId:  register.ID,
		TransactionType: models.CashTransactionTypeOut,
		Amount:          decimal.NewFromInt(250),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := models.DeleteCashTransaction(ctx, entry.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if balance := accountBalance(t, ctx, register.ID); !balance.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("expected balance restored to 1000, got %s", balance)
	}

	// Deleting one transfer leg removes the pair.
	outTx, inTx, err := models.TransferFunds(ctx, &models.NewFundsTransfer{
		FromAccountId: register.ID,
		ToAccountId:   bank.ID,
		Amount:        decimal.NewFromInt(400),
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if _, err := models.DeleteCashTransaction(ctx, outTx.ID); err != nil {
		t.Fatalf("delete transfer leg: %v", err)
	}
	if balance := accountBalance(t, ctx, register.ID); !balance.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("expected register restored to 1000, got %s", balance)
	}
	if balance := accountBalance(t, ctx, bank.ID); !balance.IsZero() {
		t.Fatalf("expected bank restored to 0, got %s", balance)
	}
	if _, err := models.GetCashTransaction(ctx, inTx.ID); err == nil {
		t.Fatal("expected counterpart leg to be gone")
	}

	assertCashInvariant(t, db)
}

// Two concurrent deposits must both land; derived balances admit no lost
// updates.
func TestConcurrentDepositsDoNotLoseUpdates(t *testing.T) {
	db := openTestDB(t)
	ctx := testContext()

	account := seedAccount(t, ctx, "Register")

	const workers = 2
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, errs[n] = models.CreateCashTransaction(ctx, &models.NewCashTransaction{
				MoneyAccountId:  account.ID,
				TransactionType: models.CashTransactionTypeIn,
				Amount:          decimal.NewFromInt(100),
			})
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("worker %d: %v", i, err)
		}
	}

	if balance := accountBalance(t, ctx, account.ID); !balance.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("expected balance 200, got %s", balance)
	}
	assertCashInvariant(t, db)
}
