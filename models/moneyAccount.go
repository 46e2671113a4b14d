package models

import (
	"context"
	"errors"
	"time"

	"github.com/mitrabooks/pos_backend/config"
	"github.com/mitrabooks/pos_backend/utils"
	"github.com/shopspring/decimal"
)

// MoneyAccount holds a derived balance: current_balance always equals the sum
// of its cash_transactions signed by type. Business code never assigns it.
type MoneyAccount struct {
	ID             int              `gorm:"primary_key" json:"id"`
	BusinessId     string           `gorm:"index;not null" json:"business_id"`
	AccountType    MoneyAccountType `gorm:"size:12;default:'cash';not null" json:"account_type"`
	AccountName    string           `gorm:"index;size:100;not null" json:"account_name"`
	AccountCode    string           `gorm:"size:50" json:"account_code"`
	CurrentBalance decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"current_balance"`
	Description    string           `gorm:"type:text" json:"description"`
	IsActive       *bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewMoneyAccount struct {
	AccountType AccountTypeInput `json:"account_type" binding:"required"`
	AccountName string           `json:"account_name" binding:"required"`
	AccountCode string           `json:"account_code"`
	Description string           `json:"description"`
}

// AccountTypeInput keeps the enum check at the binding boundary.
type AccountTypeInput = MoneyAccountType

// validate input for both create & update. (id = 0 for create)
func (input *NewMoneyAccount) validate(ctx context.Context, businessId string, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[MoneyAccount](ctx, businessId, id); err != nil {
			return err
		}
	}
	switch input.AccountType {
	case MoneyAccountTypeCash, MoneyAccountTypeBank, MoneyAccountTypeCard:
	default:
		return errors.New("invalid account type")
	}
	// name
	if err := utils.ValidateUnique[MoneyAccount](ctx, businessId, "account_name", input.AccountName, id); err != nil {
		return err
	}
	return nil
}

func CreateMoneyAccount(ctx context.Context, input *NewMoneyAccount) (*MoneyAccount, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	account := MoneyAccount{
		BusinessId:  businessId,
		AccountType: input.AccountType,
		AccountName: input.AccountName,
		AccountCode: input.AccountCode,
		Description: input.Description,
		IsActive:    utils.NewTrue(),
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Create(&account).Error
	if err != nil {
		return nil, err
	}
	_ = utils.InvalidateRedisList[MoneyAccount](businessId)
	return &account, nil
}

func UpdateMoneyAccount(ctx context.Context, id int, input *NewMoneyAccount) (*MoneyAccount, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, id); err != nil {
		return nil, err
	}

	account, err := utils.FetchModel[MoneyAccount](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&account).Updates(map[string]interface{}{
		"AccountType": input.AccountType,
		"AccountName": input.AccountName,
		"AccountCode": input.AccountCode,
		"Description": input.Description,
	}).Error
	if err != nil {
		return nil, err
	}
	_ = utils.InvalidateRedisList[MoneyAccount](businessId)
	return account, nil
}

func GetMoneyAccount(ctx context.Context, id int) (*MoneyAccount, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[MoneyAccount](ctx, businessId, id)
}

// GetMoneyAccounts lists accounts, redis-cached per business when no filter is
// set; mutations invalidate.
func GetMoneyAccounts(ctx context.Context, accountType *string) ([]*MoneyAccount, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	unfiltered := accountType == nil || *accountType == ""
	if unfiltered {
		if cached, exists, err := utils.RetrieveRedisList[MoneyAccount](businessId); err == nil && exists {
			return cached, nil
		}
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if !unfiltered {
		dbCtx = dbCtx.Where("account_type = ?", *accountType)
	}
	var results []*MoneyAccount
	if err := dbCtx.Order("account_name").Find(&results).Error; err != nil {
		return nil, err
	}
	if unfiltered {
		_ = utils.StoreRedisList(results, businessId)
	}
	return results, nil
}

func ToggleActiveMoneyAccount(ctx context.Context, id int, isActive bool) (*MoneyAccount, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	account, err := utils.FetchModel[MoneyAccount](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(&account).Update("IsActive", isActive).Error; err != nil {
		return nil, err
	}
	_ = utils.InvalidateRedisList[MoneyAccount](businessId)
	return account, nil
}
