package models

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/b2bbillings/b2bbillings-sub002/config"
	"github.com/b2bbillings/b2bbillings-sub002/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const defaultCancelReason = "Deleted by user"

// Payment is money in (from a customer) or out (to a vendor). Lifecycle:
// created -> completed -> {completed (edit), cancelled}. Cancelled is
// terminal and soft: the row is kept for the audit trail.
type Payment struct {
	ID            int                 `gorm:"primary_key" json:"id"`
	BusinessId    string              `gorm:"index;not null" json:"business_id" binding:"required"`
	PartyId       int                 `gorm:"index;not null" json:"party_id" binding:"required"`
	Type          PaymentType         `gorm:"type:enum('payment_in','payment_out');not null" json:"type"`
	Amount        decimal.Decimal     `gorm:"type:decimal(20,4);default:0" json:"amount" binding:"required"`
	PaymentMethod PaymentMethod       `gorm:"type:enum('cash','bank_transfer','cheque','card','upi');not null;default:'cash'" json:"payment_method"`
	PaymentDate   time.Time           `gorm:"not null" json:"payment_date" binding:"required"`
	PaymentNumber string              `gorm:"size:255;not null" json:"payment_number"`
	BankAccountId int                 `gorm:"default:null" json:"bank_account_id"`
	Reference     string              `gorm:"size:255" json:"reference"`
	Notes         string              `gorm:"type:text" json:"notes"`
	Status        PaymentStatus       `gorm:"type:enum('created','completed','cancelled');not null;default:'created'" json:"status"`
	CancelReason  string              `gorm:"size:255" json:"cancel_reason,omitempty"`
	CancelledAt   *time.Time          `json:"cancelled_at,omitempty"`
	Allocations   []PaymentAllocation `json:"allocations"`
	CreatedAt     time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

// PaymentAllocation ties part of a payment to one invoice/bill.
type PaymentAllocation struct {
	ID              int             `gorm:"primary_key" json:"id"`
	PaymentId       int             `gorm:"index;not null" json:"payment_id"`
	TransactionId   int             `gorm:"index;not null" json:"transaction_id" binding:"required"`
	AllocatedAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"allocated_amount" binding:"required"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewPayment struct {
	PartyId       int                    `json:"party_id" binding:"required"`
	Type          PaymentType            `json:"type" binding:"required"`
	Amount        decimal.Decimal        `json:"amount" binding:"required"`
	PaymentMethod PaymentMethod          `json:"payment_method" binding:"required"`
	PaymentDate   time.Time              `json:"payment_date" binding:"required"`
	BankAccountId int                    `json:"bank_account_id"`
	Reference     string                 `json:"reference"`
	Notes         string                 `json:"notes"`
	Allocations   []NewPaymentAllocation `json:"allocations"`
}

type NewPaymentAllocation struct {
	TransactionId   int             `json:"transaction_id" binding:"required"`
	AllocatedAmount decimal.Decimal `json:"allocated_amount" binding:"required"`
}

// Canonical converts the stored payment to the reconciliation shape.
func (p Payment) Canonical() CanonicalTransaction {
	return CanonicalTransaction{
		ID:            strconv.Itoa(p.ID),
		Kind:          TransactionKindPayment,
		PartyId:       strconv.Itoa(p.PartyId),
		Amount:        p.Amount,
		Date:          p.PaymentDate,
		DateValid:     !p.PaymentDate.IsZero(),
		Reference:     p.PaymentNumber,
		PaymentType:   p.Type,
		PaymentMethod: p.PaymentMethod,
		BankAccountId: strconv.Itoa(p.BankAccountId),
	}
}

func (input *NewPayment) validate(ctx context.Context, businessId string) error {
	if !input.Type.Valid() {
		return utils.NewValidationError("type", "must be payment_in or payment_out")
	}
	if !input.PaymentMethod.Valid() {
		return utils.NewValidationError("payment_method", "unknown payment method")
	}
	if !input.Amount.IsPositive() {
		return utils.NewValidationError("amount", "must be greater than zero")
	}
	if input.PaymentMethod.RequiresBankAccount() {
		if input.BankAccountId == 0 {
			return utils.ErrMissingBankAccount
		}
		if err := utils.ValidateResourceId[BankAccount](ctx, businessId, input.BankAccountId); err != nil {
			return utils.NewNotFoundError("bank account", input.BankAccountId)
		}
	}
	if err := utils.ValidateResourceId[Party](ctx, businessId, input.PartyId); err != nil {
		return utils.NewNotFoundError("party", input.PartyId)
	}

	return ValidatePaymentAllocations(input.Amount, input.Allocations)
}

// ValidatePaymentAllocations checks that every allocation is positive and
// that the allocated total does not exceed the payment amount. An exact
// match is allowed; a fully allocated payment is the common case.
func ValidatePaymentAllocations(amount decimal.Decimal, allocations []NewPaymentAllocation) error {
	var totalAllocated decimal.Decimal
	for _, alloc := range allocations {
		if !alloc.AllocatedAmount.IsPositive() {
			return utils.NewValidationError("allocated_amount", "must be greater than zero")
		}
		totalAllocated = totalAllocated.Add(alloc.AllocatedAmount)
	}
	if totalAllocated.GreaterThan(amount) {
		return utils.NewValidationError("allocations", "allocated total exceeds payment amount")
	}
	return nil
}

func CreatePayment(ctx context.Context, input *NewPayment) (*Payment, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business_id", "business id is required")
	}

	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}

	payment := Payment{
		BusinessId:    businessId,
		PartyId:       input.PartyId,
		Type:          input.Type,
		Amount:        input.Amount,
		PaymentMethod: input.PaymentMethod,
		PaymentDate:   input.PaymentDate,
		BankAccountId: input.BankAccountId,
		Reference:     input.Reference,
		Notes:         input.Notes,
		Status:        PaymentStatusCompleted,
	}

	release := lockBankAccounts(ctx, input.BankAccountId)
	defer release()

	db := config.GetDB()
	tx := db.Begin()

	seqNo, err := nextSequence[Payment](ctx, tx, businessId, "payment")
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	payment.PaymentNumber = "PAY-" + fmt.Sprint(seqNo)

	for _, alloc := range input.Allocations {
		payment.Allocations = append(payment.Allocations, PaymentAllocation{
			TransactionId:   alloc.TransactionId,
			AllocatedAmount: alloc.AllocatedAmount,
		})
	}

	if err := tx.WithContext(ctx).Create(&payment).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := applyPaymentAllocations(ctx, tx, &payment, false); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := ApplyPaymentEffect(ctx, tx, &payment); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return &payment, nil
}

func UpdatePayment(ctx context.Context, id int, input *NewPayment) (*Payment, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business_id", "business id is required")
	}

	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}

	oldPayment, err := utils.FetchModel[Payment](ctx, businessId, id, "Allocations")
	if err != nil {
		return nil, utils.NewNotFoundError("payment", id)
	}
	if !oldPayment.Status.CanTransition(PaymentStatusCompleted) {
		return nil, utils.NewValidationError("status", "cancelled payment cannot be edited")
	}

	existing := *oldPayment

	release := lockBankAccounts(ctx, oldPayment.BankAccountId, input.BankAccountId)
	defer release()

	db := config.GetDB()
	tx := db.Begin()

	// Un-apply old allocations before the new ones land.
	if err := applyPaymentAllocations(ctx, tx, oldPayment, true); err != nil {
		tx.Rollback()
		return nil, err
	}

	// Reverse-then-apply on the bank side, as one logical operation.
	newForEffect := existing
	newForEffect.Type = input.Type
	newForEffect.Amount = input.Amount
	newForEffect.PaymentMethod = input.PaymentMethod
	newForEffect.BankAccountId = input.BankAccountId
	if err := EditPaymentEffect(ctx, tx, oldPayment, &newForEffect); err != nil {
		tx.Rollback()
		return nil, err
	}

	existing.PartyId = input.PartyId
	existing.Type = input.Type
	existing.Amount = input.Amount
	existing.PaymentMethod = input.PaymentMethod
	existing.PaymentDate = input.PaymentDate
	existing.BankAccountId = input.BankAccountId
	existing.Reference = input.Reference
	existing.Notes = input.Notes
	existing.Status = PaymentStatusCompleted

	if err := tx.WithContext(ctx).Where("payment_id = ?", existing.ID).Delete(&PaymentAllocation{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	existing.Allocations = nil
	for _, alloc := range input.Allocations {
		existing.Allocations = append(existing.Allocations, PaymentAllocation{
			PaymentId:       existing.ID,
			TransactionId:   alloc.TransactionId,
			AllocatedAmount: alloc.AllocatedAmount,
		})
	}

	if err := tx.WithContext(ctx).Save(&existing).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := applyPaymentAllocations(ctx, tx, &existing, false); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return &existing, nil
}

// DeletePayment is a soft cancel: bank and allocation effects are reversed,
// the record stays with status=cancelled and a human-readable reason.
func DeletePayment(ctx context.Context, id int, reason string) (*Payment, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business_id", "business id is required")
	}

	payment, err := utils.FetchModel[Payment](ctx, businessId, id, "Allocations")
	if err != nil {
		return nil, utils.NewNotFoundError("payment", id)
	}
	if !payment.Status.CanTransition(PaymentStatusCancelled) {
		return nil, utils.NewValidationError("status", "payment is already cancelled")
	}

	if reason == "" {
		reason = defaultCancelReason
	}

	release := lockBankAccounts(ctx, payment.BankAccountId)
	defer release()

	db := config.GetDB()
	tx := db.Begin()

	if err := ReversePaymentEffect(ctx, tx, payment); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := applyPaymentAllocations(ctx, tx, payment, true); err != nil {
		tx.Rollback()
		return nil, err
	}

	now := time.Now().UTC()
	payment.Status = PaymentStatusCancelled
	payment.CancelReason = reason
	payment.CancelledAt = &now

	if err := tx.WithContext(ctx).Model(payment).Updates(map[string]interface{}{
		"status":        payment.Status,
		"cancel_reason": payment.CancelReason,
		"cancelled_at":  payment.CancelledAt,
	}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	config.GetLogger().WithFields(logrus.Fields{
		"module":        "payment",
		"paymentNumber": payment.PaymentNumber,
		"reason":        reason,
	}).Info("payment cancelled")

	return payment, nil
}

func GetPayment(ctx context.Context, id int) (*Payment, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business_id", "business id is required")
	}

	payment, err := utils.FetchModel[Payment](ctx, businessId, id, "Allocations")
	if err != nil {
		return nil, utils.NewNotFoundError("payment", id)
	}
	return payment, nil
}

func GetPartyPayments(ctx context.Context, partyId int, includeCancelled bool) ([]*Payment, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business_id", "business id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Preload("Allocations").Where("business_id = ?", businessId)
	if partyId > 0 {
		dbCtx = dbCtx.Where("party_id = ?", partyId)
	}
	if !includeCancelled {
		dbCtx = dbCtx.Where("status <> ?", PaymentStatusCancelled)
	}

	var results []*Payment
	if err := dbCtx.Order("payment_date DESC, id DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func PaginatePayments(ctx context.Context, page int, limit int, partyId *int, paymentType *PaymentType, status *PaymentStatus) ([]*Payment, utils.Pagination, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.Pagination{}, utils.NewValidationError("business_id", "business id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&Payment{}).Where("business_id = ?", businessId)
	if partyId != nil && *partyId > 0 {
		dbCtx = dbCtx.Where("party_id = ?", *partyId)
	}
	if paymentType != nil && *paymentType != "" {
		dbCtx = dbCtx.Where("type = ?", *paymentType)
	}
	if status != nil && *status != "" {
		dbCtx = dbCtx.Where("status = ?", *status)
	}

	return fetchPageOffset[Payment](dbCtx, page, limit, "payment_date DESC, id DESC")
}

// applyPaymentAllocations pays (or, reversed, unpays) each allocated
// transaction and keeps the embedded payment history in step with the
// ledger. Runs inside the caller's DB transaction.
func applyPaymentAllocations(ctx context.Context, tx *gorm.DB, payment *Payment, reverse bool) error {
	for _, alloc := range payment.Allocations {
		amount := alloc.AllocatedAmount
		if reverse {
			amount = amount.Neg()
		}
		if err := applyAllocation(ctx, tx, payment.BusinessId, alloc.TransactionId, amount); err != nil {
			return err
		}

		if reverse {
			err := tx.WithContext(ctx).
				Where("business_transaction_id = ? AND reference = ?", alloc.TransactionId, payment.PaymentNumber).
				Delete(&PaymentEntry{}).Error
			if err != nil {
				return err
			}
		} else {
			entry := PaymentEntry{
				BusinessTransactionId: alloc.TransactionId,
				Amount:                alloc.AllocatedAmount,
				EntryDate:             payment.PaymentDate,
				Method:                payment.PaymentMethod,
				Reference:             payment.PaymentNumber,
			}
			if err := tx.WithContext(ctx).Create(&entry).Error; err != nil {
				return err
			}
		}
	}
	return nil
}
