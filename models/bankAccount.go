package models

import (
	"context"
	"time"

	"github.com/b2bbillings/b2bbillings-sub002/config"
	"github.com/b2bbillings/b2bbillings-sub002/utils"
	"github.com/shopspring/decimal"
)

// BankAccount balances move only through the bank effect resolver as a side
// effect of non-cash payment create/edit/delete. No endpoint writes
// CurrentBalance directly.
type BankAccount struct {
	ID             int             `gorm:"primary_key" json:"id"`
	BusinessId     string          `gorm:"index;not null" json:"business_id" binding:"required"`
	BankName       string          `gorm:"size:100;not null" json:"bank_name" binding:"required"`
	AccountName    string          `gorm:"size:100;not null" json:"account_name" binding:"required"`
	AccountNumber  string          `gorm:"size:50" json:"account_number"`
	IfscCode       string          `gorm:"size:20" json:"ifsc_code"`
	OpeningBalance decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"opening_balance"`
	CurrentBalance decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"current_balance"`
	IsActive       *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewBankAccount struct {
	BankName       string          `json:"bank_name" binding:"required"`
	AccountName    string          `json:"account_name" binding:"required"`
	AccountNumber  string          `json:"account_number"`
	IfscCode       string          `json:"ifsc_code"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

func CreateBankAccount(ctx context.Context, input *NewBankAccount) (*BankAccount, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business_id", "business id is required")
	}

	if err := utils.ValidateUnique[BankAccount](ctx, businessId, "account_name", input.AccountName, 0); err != nil {
		return nil, err
	}

	account := BankAccount{
		BusinessId:     businessId,
		BankName:       input.BankName,
		AccountName:    input.AccountName,
		AccountNumber:  input.AccountNumber,
		IfscCode:       input.IfscCode,
		OpeningBalance: input.OpeningBalance,
		CurrentBalance: input.OpeningBalance,
		IsActive:       utils.NewTrue(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func UpdateBankAccount(ctx context.Context, id int, input *NewBankAccount) (*BankAccount, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business_id", "business id is required")
	}

	account, err := utils.FetchModel[BankAccount](ctx, businessId, id)
	if err != nil {
		return nil, utils.NewNotFoundError("bank account", id)
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(account).Updates(map[string]interface{}{
		"bank_name":      input.BankName,
		"account_name":   input.AccountName,
		"account_number": input.AccountNumber,
		"ifsc_code":      input.IfscCode,
		// CurrentBalance deliberately untouched: only the bank effect
		// resolver mutates it.
	}).Error
	if err != nil {
		return nil, err
	}
	return account, nil
}

func GetBankAccount(ctx context.Context, id int) (*BankAccount, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business_id", "business id is required")
	}

	account, err := utils.FetchModel[BankAccount](ctx, businessId, id)
	if err != nil {
		return nil, utils.NewNotFoundError("bank account", id)
	}
	return account, nil
}

func ListBankAccounts(ctx context.Context) ([]*BankAccount, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business_id", "business id is required")
	}

	return utils.FetchAllModels[BankAccount](ctx, businessId)
}
