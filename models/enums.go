package models

import "errors"

type PartyType string

const (
	PartyTypeCustomer PartyType = "customer"
	PartyTypeVendor   PartyType = "vendor"
	PartyTypeBoth     PartyType = "both"
)

func (t PartyType) Valid() bool {
	switch t {
	case PartyTypeCustomer, PartyTypeVendor, PartyTypeBoth:
		return true
	}
	return false
}

// IsCustomer reports whether the party can appear on the sales side.
func (t PartyType) IsCustomer() bool { return t == PartyTypeCustomer || t == PartyTypeBoth }

// IsVendor reports whether the party can appear on the purchase side.
func (t PartyType) IsVendor() bool { return t == PartyTypeVendor || t == PartyTypeBoth }

type BalanceType string

const (
	BalanceTypeDebit  BalanceType = "debit"
	BalanceTypeCredit BalanceType = "credit"
)

type TransactionKind string

const (
	TransactionKindSale     TransactionKind = "sale"
	TransactionKindPurchase TransactionKind = "purchase"
	TransactionKindPayment  TransactionKind = "payment"
)

type TransactionStatus string

const (
	TransactionStatusPending TransactionStatus = "pending"
	TransactionStatusPartial TransactionStatus = "partial"
	TransactionStatusPaid    TransactionStatus = "paid"
	TransactionStatusOverdue TransactionStatus = "overdue"
)

// DueBucket orders list views: overdue first, then due today, then the rest.
type DueBucket int

const (
	BucketOverdue  DueBucket = 0
	BucketDueToday DueBucket = 1
	BucketPending  DueBucket = 2
)

func (b DueBucket) String() string {
	switch b {
	case BucketOverdue:
		return "overdue"
	case BucketDueToday:
		return "due_today"
	default:
		return "pending"
	}
}

type PaymentType string

const (
	PaymentTypeIn  PaymentType = "payment_in"
	PaymentTypeOut PaymentType = "payment_out"
)

func (t PaymentType) Valid() bool {
	return t == PaymentTypeIn || t == PaymentTypeOut
}

type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCheque       PaymentMethod = "cheque"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodUPI          PaymentMethod = "upi"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodCheque, PaymentMethodCard, PaymentMethodUPI:
		return true
	}
	return false
}

// RequiresBankAccount: every method except cash moves money through a bank account.
func (m PaymentMethod) RequiresBankAccount() bool {
	return m != PaymentMethodCash
}

type PaymentStatus string

const (
	PaymentStatusCreated   PaymentStatus = "created"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

var ErrInvalidPaymentTransition = errors.New("invalid payment status transition")

// CanTransition encodes the payment lifecycle:
// created -> completed -> {completed (edit), cancelled}. Cancelled is terminal.
func (s PaymentStatus) CanTransition(to PaymentStatus) bool {
	switch s {
	case PaymentStatusCreated:
		return to == PaymentStatusCompleted
	case PaymentStatusCompleted:
		return to == PaymentStatusCompleted || to == PaymentStatusCancelled
	case PaymentStatusCancelled:
		return false
	}
	return false
}
