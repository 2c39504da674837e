package models_test

import (
	"testing"

	"github.com/b2bbillings/b2bbillings-sub002/models"
	"github.com/shopspring/decimal"
)

func TestSignedOpeningBalance(t *testing.T) {
	debit := models.Party{OpeningBalance: dec("500"), OpeningBalanceType: models.BalanceTypeDebit}
	if !debit.SignedOpeningBalance().Equal(dec("500")) {
		t.Fatalf("debit opening: expected 500, got %s", debit.SignedOpeningBalance())
	}
	credit := models.Party{OpeningBalance: dec("500"), OpeningBalanceType: models.BalanceTypeCredit}
	if !credit.SignedOpeningBalance().Equal(dec("-500")) {
		t.Fatalf("credit opening: expected -500, got %s", credit.SignedOpeningBalance())
	}
}

func TestComputePartyBalance(t *testing.T) {
	cases := []struct {
		name                                           string
		opening, sales, purchases, payIn, payOut, want string
	}{
		{"customer owes after sales", "0", "1000", "0", "400", "0", "600"},
		{"credit opening offsets sales", "-300", "1000", "0", "0", "0", "700"},
		{"vendor side flips the sign", "0", "0", "800", "0", "500", "-300"},
		{"both sides net out", "100", "1000", "800", "400", "500", "400"},
		{"fully settled", "0", "1000", "0", "1000", "0", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := models.ComputePartyBalance(dec(tc.opening), dec(tc.sales), dec(tc.purchases), dec(tc.payIn), dec(tc.payOut))
			if !got.Equal(dec(tc.want)) {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestComputePartyBalance_ZeroValues(t *testing.T) {
	got := models.ComputePartyBalance(decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero)
	if !got.IsZero() {
		t.Fatalf("expected zero, got %s", got)
	}
}
