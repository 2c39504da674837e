package models

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/b2bbillings/b2bbillings-sub002/config"
	"github.com/b2bbillings/b2bbillings-sub002/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BusinessTransaction is a sale (receivable) or purchase bill (payable).
// Amount is the final total after tax/discount. PendingAmount and
// CurrentStatus are caches recomputed from amounts on every save; readers
// that care always re-derive via Classify.
type BusinessTransaction struct {
	ID                int               `gorm:"primary_key" json:"id"`
	BusinessId        string            `gorm:"index;not null" json:"business_id" binding:"required"`
	PartyId           int               `gorm:"index;not null" json:"party_id" binding:"required"`
	Kind              TransactionKind   `gorm:"type:enum('sale','purchase');not null" json:"kind"`
	TransactionNumber string            `gorm:"size:255;not null" json:"transaction_number"`
	TransactionDate   time.Time         `gorm:"not null" json:"transaction_date"`
	DueDate           *time.Time        `gorm:"default:null" json:"due_date"`
	Amount            decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"amount"`
	PaidAmount        decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"paid_amount"`
	PendingAmount     decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"pending_amount"`
	CurrentStatus     TransactionStatus `gorm:"type:enum('pending','partial','paid','overdue');default:'pending'" json:"current_status"`
	Notes             string            `gorm:"type:text" json:"notes"`
	PaymentEntries    []PaymentEntry    `json:"payment_entries"`
	CreatedAt         time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

// PaymentEntry is one embedded payment-history row on a transaction. The
// explicit payment ledger is authoritative; these rows are a secondary
// source kept for reconciliation against it.
type PaymentEntry struct {
	ID                    int             `gorm:"primary_key" json:"id"`
	BusinessTransactionId int             `gorm:"index;not null" json:"business_transaction_id"`
	Amount                decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	EntryDate             time.Time       `gorm:"not null" json:"entry_date"`
	Method                PaymentMethod   `gorm:"size:20" json:"method"`
	Reference             string          `gorm:"size:255" json:"reference"`
	CreatedAt             time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewBusinessTransaction struct {
	PartyId         int             `json:"party_id" binding:"required"`
	Kind            TransactionKind `json:"kind" binding:"required"`
	TransactionDate time.Time       `json:"transaction_date" binding:"required"`
	DueDate         *time.Time      `json:"due_date"`
	Amount          decimal.Decimal `json:"amount" binding:"required"`
	Notes           string          `json:"notes"`
}

// BeforeSave keeps the cached fields consistent with the invariant
// pendingAmount == max(0, amount - paidAmount).
func (t *BusinessTransaction) BeforeSave(tx *gorm.DB) error {
	pending := t.Amount.Sub(t.PaidAmount)
	if pending.IsNegative() {
		pending = decimal.Zero
	}
	t.PendingAmount = pending

	switch {
	case pending.IsZero():
		t.CurrentStatus = TransactionStatusPaid
	case t.PaidAmount.IsPositive():
		t.CurrentStatus = TransactionStatusPartial
	default:
		t.CurrentStatus = TransactionStatusPending
	}
	return nil
}

// Canonical converts the stored row into the shape the core operates on.
func (t BusinessTransaction) Canonical() CanonicalTransaction {
	ct := CanonicalTransaction{
		ID:         strconv.Itoa(t.ID),
		Kind:       t.Kind,
		PartyId:    strconv.Itoa(t.PartyId),
		Amount:     t.Amount,
		PaidAmount: t.PaidAmount,
		Date:       t.TransactionDate,
		DateValid:  !t.TransactionDate.IsZero(),
		DueDate:    t.DueDate,
		Reference:  t.TransactionNumber,
	}
	for _, e := range t.PaymentEntries {
		ct.History = append(ct.History, HistoryEntry{Amount: e.Amount, Date: e.EntryDate})
	}
	return ct
}

func (input *NewBusinessTransaction) validate(ctx context.Context, businessId string) error {
	if input.Kind != TransactionKindSale && input.Kind != TransactionKindPurchase {
		return utils.NewValidationError("kind", "must be sale or purchase")
	}
	if !input.Amount.IsPositive() {
		return utils.NewValidationError("amount", "must be greater than zero")
	}
	if err := utils.ValidateResourceId[Party](ctx, businessId, input.PartyId); err != nil {
		return utils.NewNotFoundError("party", input.PartyId)
	}
	return nil
}

func CreateBusinessTransaction(ctx context.Context, input *NewBusinessTransaction) (*BusinessTransaction, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business_id", "business id is required")
	}

	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}

	txn := BusinessTransaction{
		BusinessId:      businessId,
		PartyId:         input.PartyId,
		Kind:            input.Kind,
		TransactionDate: input.TransactionDate,
		DueDate:         input.DueDate,
		Amount:          input.Amount,
		Notes:           input.Notes,
	}

	db := config.GetDB()
	tx := db.Begin()

	seqNo, err := nextSequence[BusinessTransaction](ctx, tx, businessId, string(input.Kind))
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	txn.TransactionNumber = transactionPrefix(input.Kind) + fmt.Sprint(seqNo)

	if err := tx.WithContext(ctx).Create(&txn).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return &txn, nil
}

func transactionPrefix(kind TransactionKind) string {
	if kind == TransactionKindPurchase {
		return "PUR-"
	}
	return "SAL-"
}

func GetBusinessTransaction(ctx context.Context, id int) (*BusinessTransaction, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business_id", "business id is required")
	}

	txn, err := utils.FetchModel[BusinessTransaction](ctx, businessId, id, "PaymentEntries")
	if err != nil {
		return nil, utils.NewNotFoundError("transaction", id)
	}
	return txn, nil
}

func GetPartyTransactions(ctx context.Context, partyId int, kind *TransactionKind) ([]*BusinessTransaction, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business_id", "business id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Preload("PaymentEntries").
		Where("business_id = ?", businessId)
	if partyId > 0 {
		dbCtx = dbCtx.Where("party_id = ?", partyId)
	}
	if kind != nil && *kind != "" {
		dbCtx = dbCtx.Where("kind = ?", *kind)
	}

	var results []*BusinessTransaction
	if err := dbCtx.Order("transaction_date DESC, id DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func PaginateBusinessTransactions(ctx context.Context, page int, limit int, kind *TransactionKind, partyId *int, status *TransactionStatus) ([]*BusinessTransaction, utils.Pagination, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.Pagination{}, utils.NewValidationError("business_id", "business id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&BusinessTransaction{}).Where("business_id = ?", businessId)
	if kind != nil && *kind != "" {
		dbCtx = dbCtx.Where("kind = ?", *kind)
	}
	if partyId != nil && *partyId > 0 {
		dbCtx = dbCtx.Where("party_id = ?", *partyId)
	}
	if status != nil && *status != "" {
		dbCtx = dbCtx.Where("current_status = ?", *status)
	}

	return fetchPageOffset[BusinessTransaction](dbCtx, page, limit, "transaction_date DESC, id DESC")
}

// applyAllocation moves paid/pending on the target transaction as part of a
// payment mutation. Runs inside the caller's DB transaction. A negative
// amount un-applies a prior allocation.
func applyAllocation(ctx context.Context, tx *gorm.DB, businessId string, transactionId int, amount decimal.Decimal) error {
	var txn BusinessTransaction
	if err := tx.WithContext(ctx).Where("business_id = ?", businessId).First(&txn, transactionId).Error; err != nil {
		return utils.NewNotFoundError("transaction", transactionId)
	}

	newPaid := txn.PaidAmount.Add(amount)
	if newPaid.IsNegative() {
		return utils.NewValidationError("allocated_amount", "resulting paid amount cannot be negative")
	}
	if amount.IsPositive() && amount.GreaterThan(txn.PendingAmount) {
		return utils.NewValidationError("allocated_amount",
			"the amount entered is more than the balance for "+txn.TransactionNumber)
	}

	txn.PaidAmount = newPaid
	// BeforeSave recomputes pending amount and status.
	return tx.WithContext(ctx).Save(&txn).Error
}
