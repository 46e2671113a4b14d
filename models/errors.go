package models

import "errors"

// Precondition and domain errors surfaced to callers. Handlers map these to
// user-displayable responses; none of them leaves partial state behind.
var (
	ErrorAlreadyReceived   = errors.New("purchase order already received")
	ErrorOutOfStock        = errors.New("input qty is more than the current stock on hand")
	ErrorSameAccount       = errors.New("cannot transfer to the same account")
	ErrorInvalidAmount     = errors.New("amount must be greater than zero")
	ErrorInsufficientFunds = errors.New("account balance is not sufficient")
	ErrorTxConflict        = errors.New("transaction retries exhausted")
)
