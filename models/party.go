package models

import (
	"context"
	"strconv"
	"time"

	"github.com/b2bbillings/b2bbillings-sub002/config"
	"github.com/b2bbillings/b2bbillings-sub002/utils"
	"github.com/shopspring/decimal"
)

// Party is a customer, a vendor, or both. Its current balance is derived
// from transactions and payments, never stored or edited directly.
type Party struct {
	ID                 int             `gorm:"primary_key" json:"id"`
	BusinessId         string          `gorm:"index;not null" json:"business_id" binding:"required"`
	Name               string          `gorm:"size:100;not null" json:"name" binding:"required"`
	PartyType          PartyType       `gorm:"type:enum('customer','vendor','both');not null;default:'customer'" json:"party_type"`
	Email              string          `gorm:"size:100" json:"email"`
	Phone              string          `gorm:"size:20" json:"phone"`
	Mobile             string          `gorm:"size:20" json:"mobile"`
	Address            string          `gorm:"type:text" json:"address"`
	GstNumber          string          `gorm:"size:20" json:"gst_number"`
	OpeningBalance     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"opening_balance"`
	OpeningBalanceType BalanceType     `gorm:"type:enum('debit','credit');not null;default:'debit'" json:"opening_balance_type"`
	Notes              string          `gorm:"type:text" json:"notes"`
	IsActive           *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt          time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewParty struct {
	Name               string          `json:"name" binding:"required"`
	PartyType          PartyType       `json:"party_type" binding:"required"`
	Email              string          `json:"email"`
	Phone              string          `json:"phone"`
	Mobile             string          `json:"mobile"`
	Address            string          `json:"address"`
	GstNumber          string          `json:"gst_number"`
	OpeningBalance     decimal.Decimal `json:"opening_balance"`
	OpeningBalanceType BalanceType     `json:"opening_balance_type"`
	Notes              string          `json:"notes"`
}

// SignedOpeningBalance applies the debit/credit convention:
// positive = party owes the business money.
func (p Party) SignedOpeningBalance() decimal.Decimal {
	if p.OpeningBalanceType == BalanceTypeCredit {
		return p.OpeningBalance.Neg()
	}
	return p.OpeningBalance
}

func (input *NewParty) validate(ctx context.Context, businessId string, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[Party](ctx, businessId, id); err != nil {
			return utils.NewNotFoundError("party", id)
		}
	}
	if !input.PartyType.Valid() {
		return utils.NewValidationError("party_type", "must be customer, vendor or both")
	}
	if input.OpeningBalance.IsNegative() {
		return utils.NewValidationError("opening_balance", "must not be negative")
	}
	if input.OpeningBalanceType != "" && input.OpeningBalanceType != BalanceTypeDebit && input.OpeningBalanceType != BalanceTypeCredit {
		return utils.NewValidationError("opening_balance_type", "must be debit or credit")
	}
	// validate unique name
	if err := utils.ValidateUnique[Party](ctx, businessId, "name", input.Name, id); err != nil {
		return err
	}
	// validate email
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return utils.NewValidationError("email", "invalid email address")
	}
	// validate phone
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return utils.NewValidationError("phone", "invalid phone number")
		}
	}
	if input.Mobile != "" {
		if err := utils.ValidatePhoneNumber(input.Mobile, utils.CountryCode); err != nil {
			return utils.NewValidationError("mobile", "invalid phone number")
		}
	}
	return nil
}

func CreateParty(ctx context.Context, input *NewParty) (*Party, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business_id", "business id is required")
	}

	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	balanceType := input.OpeningBalanceType
	if balanceType == "" {
		balanceType = BalanceTypeDebit
	}

	party := Party{
		BusinessId:         businessId,
		Name:               input.Name,
		PartyType:          input.PartyType,
		Email:              input.Email,
		Phone:              input.Phone,
		Mobile:             input.Mobile,
		Address:            input.Address,
		GstNumber:          input.GstNumber,
		OpeningBalance:     input.OpeningBalance,
		OpeningBalanceType: balanceType,
		Notes:              input.Notes,
		IsActive:           utils.NewTrue(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&party).Error; err != nil {
		return nil, err
	}

	return &party, nil
}

func UpdateParty(ctx context.Context, id int, input *NewParty) (*Party, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business_id", "business id is required")
	}

	if err := input.validate(ctx, businessId, id); err != nil {
		return nil, err
	}

	party, err := utils.FetchModel[Party](ctx, businessId, id)
	if err != nil {
		return nil, utils.NewNotFoundError("party", id)
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(party).Updates(map[string]interface{}{
		"name":       input.Name,
		"party_type": input.PartyType,
		"email":      input.Email,
		"phone":      input.Phone,
		"mobile":     input.Mobile,
		"address":    input.Address,
		"gst_number": input.GstNumber,
		"notes":      input.Notes,
		// Opening balance is deliberately not updatable here: it anchors the
		// balance invariant and may only change while no transactions exist.
	}).Error
	if err != nil {
		return nil, err
	}

	return party, nil
}

func DeleteParty(ctx context.Context, id int) (*Party, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business_id", "business id is required")
	}

	result, err := utils.FetchModel[Party](ctx, businessId, id)
	if err != nil {
		return nil, utils.NewNotFoundError("party", id)
	}

	count, err := utils.ResourceCountWhere[BusinessTransaction](ctx, businessId, "party_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.NewValidationError("", "transactions associated with party exist")
	}

	count, err = utils.ResourceCountWhere[Payment](ctx, businessId, "party_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.NewValidationError("", "payments associated with party exist")
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func GetParty(ctx context.Context, id int) (*Party, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business_id", "business id is required")
	}

	party, err := utils.FetchModel[Party](ctx, businessId, id)
	if err != nil {
		return nil, utils.NewNotFoundError("party", id)
	}
	return party, nil
}

func PaginateParties(ctx context.Context, page int, limit int, name *string, partyType *PartyType) ([]*Party, utils.Pagination, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.Pagination{}, utils.NewValidationError("business_id", "business id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&Party{}).Where("business_id = ?", businessId)
	if name != nil && *name != "" {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	if partyType != nil && *partyType != "" {
		dbCtx = dbCtx.Where("party_type IN ?", []string{string(*partyType), string(PartyTypeBoth)})
	}

	return fetchPageOffset[Party](dbCtx, page, limit, "name ASC")
}

// CurrentBalance recomputes the party's balance from scratch:
// opening (signed) + sales - payments in + payments out - purchases.
func (p *Party) CurrentBalance(ctx context.Context) (decimal.Decimal, error) {
	db := config.GetDB()

	var sales, purchases decimal.Decimal
	err := db.WithContext(ctx).Model(&BusinessTransaction{}).
		Where("business_id = ? AND party_id = ? AND kind = ?", p.BusinessId, p.ID, TransactionKindSale).
		Select("COALESCE(SUM(amount), 0)").Scan(&sales).Error
	if err != nil {
		return decimal.Zero, err
	}
	err = db.WithContext(ctx).Model(&BusinessTransaction{}).
		Where("business_id = ? AND party_id = ? AND kind = ?", p.BusinessId, p.ID, TransactionKindPurchase).
		Select("COALESCE(SUM(amount), 0)").Scan(&purchases).Error
	if err != nil {
		return decimal.Zero, err
	}

	var paymentsIn, paymentsOut decimal.Decimal
	err = db.WithContext(ctx).Model(&Payment{}).
		Where("business_id = ? AND party_id = ? AND type = ? AND status <> ?", p.BusinessId, p.ID, PaymentTypeIn, PaymentStatusCancelled).
		Select("COALESCE(SUM(amount), 0)").Scan(&paymentsIn).Error
	if err != nil {
		return decimal.Zero, err
	}
	err = db.WithContext(ctx).Model(&Payment{}).
		Where("business_id = ? AND party_id = ? AND type = ? AND status <> ?", p.BusinessId, p.ID, PaymentTypeOut, PaymentStatusCancelled).
		Select("COALESCE(SUM(amount), 0)").Scan(&paymentsOut).Error
	if err != nil {
		return decimal.Zero, err
	}

	return ComputePartyBalance(p.SignedOpeningBalance(), sales, purchases, paymentsIn, paymentsOut), nil
}

// ComputePartyBalance is the balance invariant in one place:
// opening + sales - paymentsIn + paymentsOut - purchases.
// Positive means the party owes the business money.
func ComputePartyBalance(signedOpening, sales, purchases, paymentsIn, paymentsOut decimal.Decimal) decimal.Decimal {
	return signedOpening.Add(sales).Sub(paymentsIn).Add(paymentsOut).Sub(purchases)
}

// Aliases returns the identifiers canonical records may carry for this party.
func (p Party) Aliases() PartyAliases {
	return PartyAliases{Id: strconv.Itoa(p.ID), Name: p.Name}
}
