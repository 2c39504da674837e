package models_test

import (
	"testing"

	"github.com/b2bbillings/b2bbillings-sub002/models"
)

func TestPaymentStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to models.PaymentStatus
		allowed  bool
	}{
		{models.PaymentStatusCreated, models.PaymentStatusCompleted, true},
		{models.PaymentStatusCreated, models.PaymentStatusCancelled, false},
		{models.PaymentStatusCompleted, models.PaymentStatusCompleted, true}, // edit
		{models.PaymentStatusCompleted, models.PaymentStatusCancelled, true},
		{models.PaymentStatusCancelled, models.PaymentStatusCompleted, false},
		{models.PaymentStatusCancelled, models.PaymentStatusCancelled, false},
		{models.PaymentStatusCompleted, models.PaymentStatusCreated, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.allowed {
			t.Fatalf("%s -> %s: expected allowed=%v, got %v", tc.from, tc.to, tc.allowed, got)
		}
	}
}

func TestPaymentMethodRequiresBankAccount(t *testing.T) {
	if models.PaymentMethodCash.RequiresBankAccount() {
		t.Fatalf("cash must not require a bank account")
	}
	for _, m := range []models.PaymentMethod{
		models.PaymentMethodBankTransfer,
		models.PaymentMethodCheque,
		models.PaymentMethodCard,
		models.PaymentMethodUPI,
	} {
		if !m.RequiresBankAccount() {
			t.Fatalf("%s must require a bank account", m)
		}
	}
}

func TestPartyTypeSides(t *testing.T) {
	if !models.PartyTypeBoth.IsCustomer() || !models.PartyTypeBoth.IsVendor() {
		t.Fatalf("'both' must count on both sides")
	}
	if models.PartyTypeCustomer.IsVendor() {
		t.Fatalf("customer is not a vendor")
	}
	if models.PartyTypeVendor.IsCustomer() {
		t.Fatalf("vendor is not a customer")
	}
	if models.PartyType("distributor").Valid() {
		t.Fatalf("unknown party type must be invalid")
	}
}
