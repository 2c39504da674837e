package models_test

import (
	"testing"

	"github.com/b2bbillings/b2bbillings-sub002/analytics"
	"github.com/b2bbillings/b2bbillings-sub002/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func sale(id, partyId string, amount string, history ...string) models.CanonicalTransaction {
	t := models.CanonicalTransaction{
		ID:      id,
		Kind:    models.TransactionKindSale,
		PartyId: partyId,
		Amount:  dec(amount),
	}
	for _, h := range history {
		t.History = append(t.History, models.HistoryEntry{Amount: dec(h)})
	}
	return t
}

func purchase(id, partyId string, amount string, history ...string) models.CanonicalTransaction {
	t := sale(id, partyId, amount, history...)
	t.Kind = models.TransactionKindPurchase
	return t
}

func paymentIn(id, partyId, amount string) models.CanonicalTransaction {
	return models.CanonicalTransaction{
		ID:          id,
		Kind:        models.TransactionKindPayment,
		PartyId:     partyId,
		Amount:      dec(amount),
		PaymentType: models.PaymentTypeIn,
	}
}

func paymentOut(id, partyId, amount string) models.CanonicalTransaction {
	p := paymentIn(id, partyId, amount)
	p.PaymentType = models.PaymentTypeOut
	return p
}

func TestSummarizeParty_Totals(t *testing.T) {
	aliases := models.PartyAliases{Id: "p1", Name: "Sharma Traders"}

	txns := []models.CanonicalTransaction{
		sale("s1", "p1", "1000"),
		sale("s2", "p1", "500"),
		purchase("b1", "p1", "300"),
		sale("s3", "other", "9999"), // different party, ignored
	}
	payments := []models.CanonicalTransaction{
		paymentIn("pi1", "p1", "600"),
		paymentOut("po1", "p1", "100"),
		paymentIn("pi2", "other", "5000"),
	}

	s := models.SummarizeParty(aliases, txns, payments, nil)

	assert.True(t, s.TotalSales.Equal(dec("1500")))
	assert.True(t, s.TotalPurchases.Equal(dec("300")))
	assert.True(t, s.TotalSalesPaid.Equal(dec("600")))
	assert.True(t, s.TotalPurchasesPaid.Equal(dec("100")))
	assert.True(t, s.SalesDue.Equal(dec("900")))
	assert.True(t, s.PurchasesDue.Equal(dec("200")))
	assert.True(t, s.NetBalance.Equal(dec("700")))
}

func TestSummarizeParty_AliasMatching(t *testing.T) {
	aliases := models.PartyAliases{Id: "p1", Name: "Sharma Traders"}

	byName := sale("s1", "", "100")
	byName.PartyName = "  sharma traders " // case/space-insensitive fallback
	wrongIdRightName := sale("s2", "p2", "100")
	wrongIdRightName.PartyName = "Sharma Traders" // id present and wrong: no match

	s := models.SummarizeParty(aliases, []models.CanonicalTransaction{byName, wrongIdRightName}, nil, nil)
	assert.True(t, s.TotalSales.Equal(dec("100")),
		"name fallback applies only to id-less records; got %s", s.TotalSales)
}

func TestSummarizeParty_LedgerAuthoritativeOverHistory(t *testing.T) {
	aliases := models.PartyAliases{Id: "p1"}

	// Ledger says 600 paid; embedded history says 450.
	txns := []models.CanonicalTransaction{sale("s1", "p1", "1000", "450")}
	payments := []models.CanonicalTransaction{paymentIn("pi1", "p1", "600")}

	s := models.SummarizeParty(aliases, txns, payments, nil)

	require.True(t, s.TotalSalesPaid.Equal(dec("600")), "ledger wins when present")
	assert.True(t, s.TotalSalesPaidFromLedger.Equal(dec("600")))
	assert.True(t, s.TotalSalesPaidFromHistory.Equal(dec("450")))
	assert.True(t, s.PaidSourceConflict, "disagreement must be flagged, not hidden")
	assert.True(t, s.SalesDue.Equal(dec("400")))
}

func TestSummarizeParty_HistoryFallbackWhenLedgerEmpty(t *testing.T) {
	aliases := models.PartyAliases{Id: "p1"}

	txns := []models.CanonicalTransaction{sale("s1", "p1", "1000", "450")}

	s := models.SummarizeParty(aliases, txns, nil, nil)

	assert.True(t, s.TotalSalesPaid.Equal(dec("450")), "empty ledger falls back to history")
	assert.False(t, s.PaidSourceConflict, "no ledger means nothing to conflict with")
	assert.True(t, s.SalesDue.Equal(dec("550")))
}

func TestSummarizeParty_AgreementIsNotAConflict(t *testing.T) {
	aliases := models.PartyAliases{Id: "p1"}

	txns := []models.CanonicalTransaction{sale("s1", "p1", "1000", "600")}
	payments := []models.CanonicalTransaction{paymentIn("pi1", "p1", "600")}

	s := models.SummarizeParty(aliases, txns, payments, nil)
	assert.False(t, s.PaidSourceConflict)
}

func TestSummarizeParty_DuesClampAtZero(t *testing.T) {
	aliases := models.PartyAliases{Id: "p1"}

	// Paid more than sold (advance payment).
	txns := []models.CanonicalTransaction{sale("s1", "p1", "100")}
	payments := []models.CanonicalTransaction{paymentIn("pi1", "p1", "250")}

	s := models.SummarizeParty(aliases, txns, payments, nil)
	assert.True(t, s.SalesDue.IsZero(), "dues never go negative; got %s", s.SalesDue)
	assert.True(t, s.NetBalance.IsZero())
}

func TestSummarizeParty_MetricsPresence(t *testing.T) {
	aliases := models.PartyAliases{Id: "p1"}

	s := models.SummarizeParty(aliases, nil, nil, nil)
	assert.False(t, s.HasRealData)
	assert.Equal(t, "fallback", s.DataSource)
	assert.Nil(t, s.CollectionEfficiency)

	m := &analytics.Metrics{
		CollectionEfficiency: dec("0.82"),
		AvgCollectionDays:    dec("14.5"),
	}
	s = models.SummarizeParty(aliases, nil, nil, m)
	assert.True(t, s.HasRealData)
	assert.Equal(t, "live", s.DataSource)
	require.NotNil(t, s.CollectionEfficiency)
	assert.True(t, s.CollectionEfficiency.Equal(dec("0.82")))
}

func TestSummarizeParty_BothSidesParty(t *testing.T) {
	// A "both" party trades in both directions; net position folds the sides.
	aliases := models.PartyAliases{Id: "p1"}

	txns := []models.CanonicalTransaction{
		sale("s1", "p1", "2000"),
		purchase("b1", "p1", "1500"),
	}
	payments := []models.CanonicalTransaction{
		paymentIn("pi1", "p1", "500"),
		paymentOut("po1", "p1", "300"),
	}

	s := models.SummarizeParty(aliases, txns, payments, nil)
	assert.True(t, s.SalesDue.Equal(dec("1500")))
	assert.True(t, s.PurchasesDue.Equal(dec("1200")))
	assert.True(t, s.NetBalance.Equal(dec("300")), "positive: party owes the business")
}
