package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mitrabooks/pos_backend/config"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// inventory-verify re-derives every aggregate from its ledger and reports
// drift. Exit code 1 means at least one snapshot or balance disagrees with
// the sum of its rows.

type stockDrift struct {
	WarehouseId int
	VariantId   int
	SnapshotQty decimal.Decimal
	LedgerQty   decimal.Decimal
}

type cashDrift struct {
	AccountId     int
	Balance       decimal.Decimal
	LedgerBalance decimal.Decimal
}

func main() {
	businessID := flag.String("business-id", "", "Required: business id")
	fix := flag.Bool("fix", false, "Rewrite drifted aggregates to the ledger-derived value")
	flag.Parse()

	if strings.TrimSpace(*businessID) == "" {
		fmt.Fprintln(os.Stderr, "--business-id is required")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	logger := logrus.New()

	var stockDrifts []stockDrift
	err := db.Raw(`
		SELECT s.warehouse_id, s.variant_id,
		       s.current_qty AS snapshot_qty,
		       COALESCE(m.total, 0) AS ledger_qty
		FROM stock_summaries s
		LEFT JOIN (
			SELECT business_id, warehouse_id, variant_id, SUM(qty_delta) AS total
			FROM stock_movements
			GROUP BY business_id, warehouse_id, variant_id
		) m ON m.business_id = s.business_id
		   AND m.warehouse_id = s.warehouse_id
		   AND m.variant_id = s.variant_id
		WHERE s.business_id = ? AND s.current_qty <> COALESCE(m.total, 0)
	`, *businessID).Scan(&stockDrifts).Error
	if err != nil {
		fmt.Fprintf(os.Stderr, "stock drift query failed: %v\n", err)
		os.Exit(1)
	}

	var cashDrifts []cashDrift
	err = db.Raw(`
		SELECT a.id AS account_id,
		       a.current_balance AS balance,
		       COALESCE(t.total, 0) AS ledger_balance
		FROM money_accounts a
		LEFT JOIN (
			SELECT money_account_id,
			       SUM(CASE WHEN transaction_type IN ('in', 'transfer_in')
			                THEN amount ELSE -amount END) AS total
			FROM cash_transactions
			WHERE business_id = ?
			GROUP BY money_account_id
		) t ON t.money_account_id = a.id
		WHERE a.business_id = ? AND a.current_balance <> COALESCE(t.total, 0)
	`, *businessID, *businessID).Scan(&cashDrifts).Error
	if err != nil {
		fmt.Fprintf(os.Stderr, "cash drift query failed: %v\n", err)
		os.Exit(1)
	}

	for _, d := range stockDrifts {
		logger.WithFields(logrus.Fields{
			"warehouse_id": d.WarehouseId,
			"variant_id":   d.VariantId,
			"snapshot_qty": d.SnapshotQty.String(),
			"ledger_qty":   d.LedgerQty.String(),
			"diff":         d.SnapshotQty.Sub(d.LedgerQty).String(),
		}).Error("stock snapshot drift")
		if *fix {
			err := db.Exec(`UPDATE stock_summaries SET current_qty = ? WHERE business_id = ? AND warehouse_id = ? AND variant_id = ?`,
				d.LedgerQty, *businessID, d.WarehouseId, d.VariantId).Error
			if err != nil {
				fmt.Fprintf(os.Stderr, "fix failed for warehouse=%d variant=%d: %v\n", d.WarehouseId, d.VariantId, err)
				os.Exit(1)
			}
		}
	}

	for _, d := range cashDrifts {
		logger.WithFields(logrus.Fields{
			"account_id":     d.AccountId,
			"balance":        d.Balance.String(),
			"ledger_balance": d.LedgerBalance.String(),
			"diff":           d.Balance.Sub(d.LedgerBalance).String(),
		}).Error("money account balance drift")
		if *fix {
			err := db.Exec(`UPDATE money_accounts SET current_balance = ? WHERE business_id = ? AND id = ?`,
				d.LedgerBalance, *businessID, d.AccountId).Error
			if err != nil {
				fmt.Fprintf(os.Stderr, "fix failed for account=%d: %v\n", d.AccountId, err)
				os.Exit(1)
			}
		}
	}

	total := len(stockDrifts) + len(cashDrifts)
	if total == 0 {
		logger.WithFields(logrus.Fields{"business_id": *businessID}).Info("all aggregates match their ledgers")
		return
	}
	logger.WithFields(logrus.Fields{
		"stock_drifts": len(stockDrifts),
		"cash_drifts":  len(cashDrifts),
		"fixed":        *fix,
	}).Warn("drift detected")
	if !*fix {
		os.Exit(1)
	}
}
