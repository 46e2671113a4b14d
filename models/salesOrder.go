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

type SalesOrder struct {
	ID               int              `gorm:"primary_key" json:"id"`
	BusinessId       string           `gorm:"index;not null" json:"business_id"`
	OrderNumber      string           `gorm:"size:50;not null" json:"order_number"`
	WarehouseId      int              `gorm:"index;not null" json:"warehouse_id"`
	DepositAccountId int              `gorm:"index;not null" json:"deposit_account_id"`
	OrderDate        time.Time        `gorm:"not null" json:"order_date"`
	GrossAmount      decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"gross_amount"`
	PaymentStatus    PaymentStatus    `gorm:"size:20;default:'PAID';not null" json:"payment_status"`
	Notes            string           `gorm:"type:text" json:"notes"`
	Items            []SalesOrderItem `gorm:"foreignKey:SalesOrderId" json:"items"`
	CreatedAt        time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

type SalesOrderItem struct {
	ID           int             `gorm:"primary_key" json:"id"`
	SalesOrderId int             `gorm:"index;not null" json:"sales_order_id"`
	VariantId    int             `gorm:"index;not null" json:"variant_id"`
	Qty          decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"qty"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_price"`
	UnitCost     decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_cost"`
	Subtotal     decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"subtotal"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewPosCheckout struct {
	WarehouseId      int               `json:"warehouse_id" binding:"required"`
	DepositAccountId int               `json:"deposit_account_id" binding:"required"`
	Notes            string            `json:"notes"`
	Lines            []NewCheckoutLine `json:"lines" binding:"required,min=1,dive"`
}

type NewCheckoutLine struct {
	VariantId int             `json:"variant_id" binding:"required"`
	Qty       decimal.Decimal `json:"qty" binding:"dgt0"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func (input *NewPosCheckout) validate(ctx context.Context, businessId string) error {
	if err := utils.ValidateResourceId[Warehouse](ctx, businessId, input.WarehouseId); err != nil {
		return errors.New("warehouse not found")
	}
	if err := utils.ValidateResourceId[MoneyAccount](ctx, businessId, input.DepositAccountId); err != nil {
		return errors.New("deposit account not found")
	}
	for _, line := range input.Lines {
		if !line.Qty.IsPositive() {
			return ErrorInvalidAmount
		}
		if line.UnitPrice.IsNegative() {
			return errors.New("unit price cannot be negative")
		}
	}
	return nil
}

// CreatePosCheckout writes the sales order, its stock decrements and the cash
// receipt as one unit. A line that would oversell aborts the whole cart:
// partial fulfillment is never a valid outcome.
func CreatePosCheckout(ctx context.Context, input *NewPosCheckout) (*SalesOrder, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}

	// price/cost per variant resolved up front; the closure re-reads only
	// aggregates so retries stay cheap
	variants := make(map[int]*ProductVariant, len(input.Lines))
	for _, line := range input.Lines {
		if _, ok := variants[line.VariantId]; ok {
			continue
		}
		variant, err := GetProductVariant(ctx, line.VariantId)
		if err != nil {
			return nil, errors.New("variant not found")
		}
		variants[line.VariantId] = variant
	}

	var order SalesOrder
	err := RunLedgerTransaction(ctx, func(tx *gorm.DB) error {
		var items []SalesOrderItem
		gross := decimal.Zero
		for _, line := range input.Lines {
			variant := variants[line.VariantId]
			unitPrice := line.UnitPrice
			if unitPrice.IsZero() {
				unitPrice = variant.Price
			}
			subtotal := line.Qty.Mul(unitPrice)
			items = append(items, SalesOrderItem{
				VariantId: line.VariantId,
				Qty:       line.Qty,
				UnitPrice: unitPrice,
				UnitCost:  variant.Cost,
				Subtotal:  subtotal,
			})
			gross = gross.Add(subtotal)
		}

		seqNo, err := NextSequence(tx, ctx, businessId, "SalesOrder")
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		order = SalesOrder{
			BusinessId:       businessId,
			OrderNumber:      fmt.Sprintf("SO-%d", seqNo),
			WarehouseId:      input.WarehouseId,
			DepositAccountId: input.DepositAccountId,
			OrderDate:        now,
			GrossAmount:      gross,
			PaymentStatus:    PaymentStatusPaid,
			Notes:            input.Notes,
			Items:            items,
		}
		if err := tx.WithContext(ctx).Create(&order).Error; err != nil {
			return err
		}

		for i := range order.Items {
			item := &order.Items[i]
			movement := StockMovement{
				MovementType:  MovementTypeSaleOut,
				ReferenceType: MovementReferenceTypeSalesOrder,
				ReferenceId:   order.ID,
				UnitCost:      item.UnitCost,
				EffectiveDate: now,
			}
			if err := applyStockDelta(tx, ctx, businessId, order.WarehouseId, item.VariantId, item.Qty.Neg(), &movement); err != nil {
				return err
			}
		}

		cashTx := CashTransaction{
			TransactionType:     CashTransactionTypeIn,
			Amount:              gross,
			Category:            "sales",
			Description:         fmt.Sprintf("POS checkout %s", order.OrderNumber),
			ReferenceType:       CashReferenceTypeSalesOrder,
			ReferenceId:         order.ID,
			TransactionDateTime: now,
		}
		return applyCashDelta(tx, ctx, businessId, input.DepositAccountId, gross, &cashTx)
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func GetSalesOrder(ctx context.Context, id int) (*SalesOrder, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[SalesOrder](ctx, businessId, id, "Items")
}

func ListSalesOrders(ctx context.Context, limit int) ([]*SalesOrder, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	db := config.GetDB()
	var results []*SalesOrder
	err := db.WithContext(ctx).Preload("Items").
		Where("business_id = ?", businessId).
		Order("order_date DESC, id DESC").Limit(limit).
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
