package models

import (
	"log"

	"github.com/mitrabooks/pos_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&ProductVariant{}, &Warehouse{}, &Supplier{},
		&StockSummary{}, &StockMovement{},
		&MoneyAccount{}, &CashTransaction{},
		&PurchaseOrder{}, &PurchaseOrderItem{}, &PurchasePayment{},
		&SalesOrder{}, &SalesOrderItem{},
		&TransactionSequence{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
