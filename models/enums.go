package models

type WarehouseKind string

const (
	WarehouseKindPhysical WarehouseKind = "physical"
	// Virtual warehouses represent supplier-side locations used for
	// pre-stock screening; their counts never enter sellable stock.
	WarehouseKindVirtual WarehouseKind = "virtual"
)

type MoneyAccountType string

const (
	MoneyAccountTypeCash MoneyAccountType = "cash"
	MoneyAccountTypeBank MoneyAccountType = "bank"
	MoneyAccountTypeCard MoneyAccountType = "card"
)

type MovementType string

const (
	MovementTypePurchaseIn        MovementType = "purchase_in"
	MovementTypeSaleOut           MovementType = "sale_out"
	MovementTypeAdjustment        MovementType = "adjustment"
	MovementTypeVirtualAdjustment MovementType = "virtual_adjustment"
	MovementTypeTransferIn        MovementType = "transfer_in"
	MovementTypeTransferOut       MovementType = "transfer_out"
)

type MovementReferenceType string

const (
	MovementReferenceTypePurchaseOrder MovementReferenceType = "PO"
	MovementReferenceTypeSalesOrder    MovementReferenceType = "SO"
	MovementReferenceTypeStockCount    MovementReferenceType = "OPN"
)

type CashTransactionType string

const (
	CashTransactionTypeIn          CashTransactionType = "in"
	CashTransactionTypeOut         CashTransactionType = "out"
	CashTransactionTypeTransferIn  CashTransactionType = "transfer_in"
	CashTransactionTypeTransferOut CashTransactionType = "transfer_out"
)

// IsInbound reports whether the type credits the account balance.
func (t CashTransactionType) IsInbound() bool {
	return t == CashTransactionTypeIn || t == CashTransactionTypeTransferIn
}

func (t CashTransactionType) IsTransfer() bool {
	return t == CashTransactionTypeTransferIn || t == CashTransactionTypeTransferOut
}

type CashReferenceType string

const (
	CashReferenceTypePurchaseOrder CashReferenceType = "PO"
	CashReferenceTypeSalesOrder    CashReferenceType = "SO"
	CashReferenceTypeManual        CashReferenceType = "MANUAL"
	CashReferenceTypeTransfer      CashReferenceType = "TRANSFER"
)

type FulfillmentStatus string

const (
	FulfillmentStatusOpen     FulfillmentStatus = "OPEN"
	FulfillmentStatusReceived FulfillmentStatus = "RECEIVED"
)

type PaymentStatus string

const (
	PaymentStatusUnpaid      PaymentStatus = "UNPAID"
	PaymentStatusPartialPaid PaymentStatus = "PARTIAL_PAID"
	PaymentStatusPaid        PaymentStatus = "PAID"
)
