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

type PurchaseOrder struct {
	ID                int                 `gorm:"primary_key" json:"id"`
	BusinessId        string              `gorm:"index;not null" json:"business_id"`
	OrderNumber       string              `gorm:"size:50;not null" json:"order_number"`
	SupplierId        int                 `gorm:"index;not null" json:"supplier_id"`
	WarehouseId       int                 `gorm:"index;not null" json:"warehouse_id"`
	OrderDate         time.Time           `gorm:"not null" json:"order_date"`
	FulfillmentStatus FulfillmentStatus   `gorm:"size:20;default:'OPEN';not null" json:"fulfillment_status"`
	PaymentStatus     PaymentStatus       `gorm:"size:20;default:'UNPAID';not null" json:"payment_status"`
	TotalAmount       decimal.Decimal     `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	AmountPaid        decimal.Decimal     `gorm:"type:decimal(20,4);default:0" json:"amount_paid"`
	ReceivedDate      *time.Time          `json:"received_date"`
	Notes             string              `gorm:"type:text" json:"notes"`
	Items             []PurchaseOrderItem `gorm:"foreignKey:PurchaseOrderId" json:"items"`
	CreatedAt         time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

type PurchaseOrderItem struct {
	ID              int             `gorm:"primary_key" json:"id"`
	PurchaseOrderId int             `gorm:"index;not null" json:"purchase_order_id"`
	VariantId       int             `gorm:"index;not null" json:"variant_id"`
	Qty             decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"qty"`
	UnitCost        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_cost"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"subtotal"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// PurchasePayment logs each payment against a purchase order. The matching
// balance effect lives in cash_transactions; this row keeps the PO-side trail.
type PurchasePayment struct {
	ID                int             `gorm:"primary_key" json:"id"`
	BusinessId        string          `gorm:"index;not null" json:"business_id"`
	PurchaseOrderId   int             `gorm:"index;not null" json:"purchase_order_id"`
	MoneyAccountId    int             `gorm:"index;not null" json:"money_account_id"`
	CashTransactionId int             `gorm:"index" json:"cash_transaction_id"`
	Amount            decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	PaymentDate       time.Time       `gorm:"not null" json:"payment_date"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewPurchaseOrder struct {
	SupplierId  int                    `json:"supplier_id" binding:"required"`
	WarehouseId int                    `json:"warehouse_id" binding:"required"`
	OrderDate   time.Time              `json:"order_date"`
	Notes       string                 `json:"notes"`
	Items       []NewPurchaseOrderItem `json:"items" binding:"required,min=1,dive"`
}

type NewPurchaseOrderItem struct {
	VariantId int             `json:"variant_id" binding:"required"`
	Qty       decimal.Decimal `json:"qty" binding:"dgt0"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

func (input *NewPurchaseOrder) validate(ctx context.Context, businessId string) error {
	if err := utils.ValidateResourceId[Supplier](ctx, businessId, input.SupplierId); err != nil {
		return errors.New("supplier not found")
	}
	if err := utils.ValidateResourceId[Warehouse](ctx, businessId, input.WarehouseId); err != nil {
		return errors.New("warehouse not found")
	}
	for _, item := range input.Items {
		if err := utils.ValidateResourceId[ProductVariant](ctx, businessId, item.VariantId); err != nil {
			return errors.New("variant not found")
		}
		if !item.Qty.IsPositive() {
			return ErrorInvalidAmount
		}
		if item.UnitCost.IsNegative() {
			return errors.New("unit cost cannot be negative")
		}
	}
	return nil
}

func CreatePurchaseOrder(ctx context.Context, input *NewPurchaseOrder) (*PurchaseOrder, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}

	orderDate := input.OrderDate
	if orderDate.IsZero() {
		orderDate = time.Now().UTC()
	}

	var items []PurchaseOrderItem
	total := decimal.Zero
	for _, item := range input.Items {
		subtotal := item.Qty.Mul(item.UnitCost)
		items = append(items, PurchaseOrderItem{
			VariantId: item.VariantId,
			Qty:       item.Qty,
			UnitCost:  item.UnitCost,
			Subtotal:  subtotal,
		})
		total = total.Add(subtotal)
	}

	purchaseOrder := PurchaseOrder{
		BusinessId:        businessId,
		SupplierId:        input.SupplierId,
		WarehouseId:       input.WarehouseId,
		OrderDate:         orderDate,
		FulfillmentStatus: FulfillmentStatusOpen,
		PaymentStatus:     PaymentStatusUnpaid,
		TotalAmount:       total,
		Notes:             input.Notes,
		Items:             items,
	}

	err := RunLedgerTransaction(ctx, func(tx *gorm.DB) error {
		// retry safety: drop ids assigned by a rolled-back attempt
		purchaseOrder.ID = 0
		for i := range purchaseOrder.Items {
			purchaseOrder.Items[i].ID = 0
			purchaseOrder.Items[i].PurchaseOrderId = 0
		}
		seqNo, err := NextSequence(tx, ctx, businessId, "PurchaseOrder")
		if err != nil {
			return err
		}
		purchaseOrder.OrderNumber = fmt.Sprintf("PO-%d", seqNo)
		return tx.WithContext(ctx).Create(&purchaseOrder).Error
	})
	if err != nil {
		return nil, err
	}
	return &purchaseOrder, nil
}

// ReceivePurchaseOrder credits every line item into stock and closes the
// fulfillment axis. OPEN -> RECEIVED is a one-way gate: receiving twice would
// double-count stock, so a RECEIVED order aborts with ErrorAlreadyReceived.
// Header update, snapshots and movements commit together or not at all.
func ReceivePurchaseOrder(ctx context.Context, id int) (*PurchaseOrder, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	var received PurchaseOrder
	err := RunLedgerTransaction(ctx, func(tx *gorm.DB) error {
		var po PurchaseOrder
		if err := lockForUpdate(tx.WithContext(ctx)).
			Preload("Items").
			Where("business_id = ?", businessId).
			First(&po, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.ErrorRecordNotFound
			}
			return err
		}
		if po.FulfillmentStatus == FulfillmentStatusReceived {
			return ErrorAlreadyReceived
		}

		now := time.Now().UTC()
		for _, item := range po.Items {
			movement := StockMovement{
				MovementType:  MovementTypePurchaseIn,
				ReferenceType: MovementReferenceTypePurchaseOrder,
				ReferenceId:   po.ID,
				UnitCost:      item.UnitCost,
				EffectiveDate: now,
			}
			if err := applyStockDelta(tx, ctx, businessId, po.WarehouseId, item.VariantId, item.Qty, &movement); err != nil {
				return err
			}
		}

		if err := tx.WithContext(ctx).Model(&po).Updates(map[string]interface{}{
			"FulfillmentStatus": FulfillmentStatusReceived,
			"ReceivedDate":      now,
		}).Error; err != nil {
			return err
		}
		po.FulfillmentStatus = FulfillmentStatusReceived
		po.ReceivedDate = &now
		received = po
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &received, nil
}

type NewPurchasePayment struct {
	MoneyAccountId int             `json:"money_account_id" binding:"required"`
	Amount         decimal.Decimal `json:"amount" binding:"dgt0"`
	PaymentDate    time.Time       `json:"payment_date"`
}

// RecordPurchasePayment records a payment against the order. It applies the cash
// delta to the paying account through the same mechanism as every other cash
// entry, writes the payment log row, and rolls the PO payment status forward,
// all in one transaction.
func RecordPurchasePayment(ctx context.Context, poId int, input *NewPurchasePayment) (*PurchasePayment, error) {
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

	paymentDate := input.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = time.Now().UTC()
	}

	var payment PurchasePayment
	err := RunLedgerTransaction(ctx, func(tx *gorm.DB) error {
		var po PurchaseOrder
		if err := lockForUpdate(tx.WithContext(ctx)).
			Where("business_id = ?", businessId).
			First(&po, poId).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.ErrorRecordNotFound
			}
			return err
		}

		newPaid := po.AmountPaid.Add(input.Amount)
		if newPaid.GreaterThan(po.TotalAmount) {
			return errors.New("payment exceeds order total")
		}

		cashTx := CashTransaction{
			TransactionType:     CashTransactionTypeOut,
			Amount:              input.Amount,
			Category:            "purchase",
			Description:         fmt.Sprintf("Payment for %s", po.OrderNumber),
			ReferenceType:       CashReferenceTypePurchaseOrder,
			ReferenceId:         po.ID,
			TransactionDateTime: paymentDate,
		}
		if err := applyCashDelta(tx, ctx, businessId, input.MoneyAccountId, input.Amount.Neg(), &cashTx); err != nil {
			return err
		}

		payment = PurchasePayment{
			BusinessId:        businessId,
			PurchaseOrderId:   po.ID,
			MoneyAccountId:    input.MoneyAccountId,
			CashTransactionId: cashTx.ID,
			Amount:            input.Amount,
			PaymentDate:       paymentDate,
		}
		if err := tx.WithContext(ctx).Create(&payment).Error; err != nil {
			return err
		}

		return tx.WithContext(ctx).Model(&po).Updates(map[string]interface{}{
			"AmountPaid":    newPaid,
			"PaymentStatus": derivePaymentStatus(newPaid, po.TotalAmount),
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func derivePaymentStatus(paid decimal.Decimal, total decimal.Decimal) PaymentStatus {
	switch {
	case paid.LessThanOrEqual(decimal.Zero):
		return PaymentStatusUnpaid
	case paid.GreaterThanOrEqual(total):
		return PaymentStatusPaid
	default:
		return PaymentStatusPartialPaid
	}
}

func GetPurchaseOrder(ctx context.Context, id int) (*PurchaseOrder, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[PurchaseOrder](ctx, businessId, id, "Items")
}

func ListPurchaseOrders(ctx context.Context, fulfillment *FulfillmentStatus, limit int) ([]*PurchaseOrder, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Preload("Items").Where("business_id = ?", businessId)
	if fulfillment != nil && *fulfillment != "" {
		dbCtx = dbCtx.Where("fulfillment_status = ?", *fulfillment)
	}
	var results []*PurchaseOrder
	if err := dbCtx.Order("order_date DESC, id DESC").Limit(limit).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
