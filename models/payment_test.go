package models_test

import (
	"errors"
	"testing"

	"github.com/b2bbillings/b2bbillings-sub002/models"
	"github.com/b2bbillings/b2bbillings-sub002/utils"
	"github.com/shopspring/decimal"
)

func alloc(txnId int, amount string) models.NewPaymentAllocation {
	return models.NewPaymentAllocation{
		TransactionId:   txnId,
		AllocatedAmount: decimal.RequireFromString(amount),
	}
}

func TestValidatePaymentAllocations(t *testing.T) {
	tests := []struct {
		name        string
		amount      string
		allocations []models.NewPaymentAllocation
		wantField   string
	}{
		{
			name:        "no allocations",
			amount:      "500",
			allocations: nil,
		},
		{
			name:        "partial allocation",
			amount:      "500",
			allocations: []models.NewPaymentAllocation{alloc(1, "300")},
		},
		{
			name:   "exact allocation across transactions",
			amount: "500",
			allocations: []models.NewPaymentAllocation{
				alloc(1, "300"),
				alloc(2, "200"),
			},
		},
		{
			name:   "total exceeds payment amount",
			amount: "500",
			allocations: []models.NewPaymentAllocation{
				alloc(1, "300"),
				alloc(2, "200.01"),
			},
			wantField: "allocations",
		},
		{
			name:        "single allocation over amount",
			amount:      "100",
			allocations: []models.NewPaymentAllocation{alloc(1, "100.50")},
			wantField:   "allocations",
		},
		{
			name:        "zero allocation rejected",
			amount:      "500",
			allocations: []models.NewPaymentAllocation{alloc(1, "0")},
			wantField:   "allocated_amount",
		},
		{
			name:   "negative allocation rejected before total check",
			amount: "500",
			allocations: []models.NewPaymentAllocation{
				alloc(1, "-50"),
				alloc(2, "100"),
			},
			wantField: "allocated_amount",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := models.ValidatePaymentAllocations(decimal.RequireFromString(tc.amount), tc.allocations)
			if tc.wantField == "" {
				if err != nil {
					t.Fatalf("expected valid allocations, got %v", err)
				}
				return
			}
			var vErr *utils.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if vErr.Field != tc.wantField {
				t.Fatalf("expected error on %q, got %q", tc.wantField, vErr.Field)
			}
		})
	}
}
