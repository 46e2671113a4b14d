package models

import (
	"context"

	"gorm.io/gorm"
)

// TransactionSequence issues per-business, per-module document numbers.
// NextSequence must run inside the caller's transaction so an aborted
// operation never burns a number out of order with its document.
type TransactionSequence struct {
	ID         int    `gorm:"primary_key" json:"id"`
	BusinessId string `gorm:"index:idx_sequence_key,unique;not null" json:"business_id"`
	ModuleName string `gorm:"index:idx_sequence_key,unique;size:50;not null" json:"module_name"`
	LastValue  int64  `gorm:"default:0" json:"last_value"`
}

func NextSequence(tx *gorm.DB, ctx context.Context, businessId string, moduleName string) (int64, error) {
	seq := TransactionSequence{
		BusinessId: businessId,
		ModuleName: moduleName,
	}
	result := lockForUpdate(tx.WithContext(ctx)).
		Where("business_id = ? AND module_name = ?", businessId, moduleName).
		FirstOrCreate(&seq)
	if result.Error != nil {
		return 0, result.Error
	}
	if err := tx.WithContext(ctx).
		Exec("UPDATE transaction_sequences SET last_value = last_value + 1 WHERE id = ?", seq.ID).Error; err != nil {
		return 0, err
	}
	return seq.LastValue + 1, nil
}
