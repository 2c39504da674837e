package models

import (
	"context"
	"strings"
	"sync"

	"github.com/b2bbillings/b2bbillings-sub002/analytics"
	"github.com/b2bbillings/b2bbillings-sub002/config"
	"github.com/b2bbillings/b2bbillings-sub002/utils"
	"github.com/shopspring/decimal"
)

// Payment reconciliation engine.
//
// Two sources can disagree on how much of a party's sales have been paid:
// the explicit payment ledger and the payment history embedded on each
// transaction. Policy (recorded in DESIGN.md): the ledger is authoritative
// whenever it holds any payment for the party; the embedded history is used
// only when the ledger is empty. Both figures are reported so the
// disagreement is visible instead of silently resolved.

// PartyAliases is the set of identifiers a canonical record may carry for
// one party. Matching is OR across aliases; each record counts once.
type PartyAliases struct {
	Id   string
	Name string
}

// Matches checks the record against the alias set. The id wins when the
// record has one; the name is only a fallback for id-less records.
func (a PartyAliases) Matches(t CanonicalTransaction) bool {
	if t.PartyId != "" {
		return t.PartyId == a.Id
	}
	if t.PartyName != "" && a.Name != "" {
		return strings.EqualFold(strings.TrimSpace(t.PartyName), strings.TrimSpace(a.Name))
	}
	return false
}

type PartySummary struct {
	PartyId   string `json:"partyId"`
	PartyName string `json:"partyName"`

	TotalSales     decimal.Decimal `json:"totalSales"`
	TotalPurchases decimal.Decimal `json:"totalPurchases"`

	TotalSalesPaid                decimal.Decimal `json:"totalSalesPaid"`
	TotalPurchasesPaid            decimal.Decimal `json:"totalPurchasesPaid"`
	TotalSalesPaidFromLedger      decimal.Decimal `json:"totalSalesPaidFromLedger"`
	TotalSalesPaidFromHistory     decimal.Decimal `json:"totalSalesPaidFromHistory"`
	TotalPurchasesPaidFromLedger  decimal.Decimal `json:"totalPurchasesPaidFromLedger"`
	TotalPurchasesPaidFromHistory decimal.Decimal `json:"totalPurchasesPaidFromHistory"`
	// PaidSourceConflict flags a ledger/history disagreement for follow-up.
	PaidSourceConflict bool `json:"paidSourceConflict"`

	SalesDue     decimal.Decimal `json:"salesDue"`
	PurchasesDue decimal.Decimal `json:"purchasesDue"`
	// NetBalance is salesDue - purchasesDue; positive = party owes the business.
	NetBalance decimal.Decimal `json:"netBalance"`

	CollectionEfficiency *decimal.Decimal `json:"collectionEfficiency,omitempty"`
	AvgCollectionDays    *decimal.Decimal `json:"avgCollectionDays,omitempty"`

	// HasRealData / DataSource make degradation visible, never silent.
	HasRealData bool              `json:"hasRealData"`
	DataSource  string            `json:"dataSource"`
	ApiErrors   map[string]string `json:"apiErrors,omitempty"`
}

// SummarizeParty is the pure aggregation: filter by alias, total both
// sides, resolve the paid-amount sources, derive dues and net position.
func SummarizeParty(aliases PartyAliases, transactions []CanonicalTransaction, payments []CanonicalTransaction, metrics *analytics.Metrics) PartySummary {
	s := PartySummary{
		PartyId:    aliases.Id,
		PartyName:  aliases.Name,
		DataSource: "fallback",
	}

	var salesHistory, purchasesHistory decimal.Decimal
	var ledgerInSeen, ledgerOutSeen bool

	for _, t := range transactions {
		if !aliases.Matches(t) {
			continue
		}
		switch t.Kind {
		case TransactionKindSale:
			s.TotalSales = s.TotalSales.Add(t.Amount)
			for _, h := range t.History {
				salesHistory = salesHistory.Add(h.Amount)
			}
		case TransactionKindPurchase:
			s.TotalPurchases = s.TotalPurchases.Add(t.Amount)
			for _, h := range t.History {
				purchasesHistory = purchasesHistory.Add(h.Amount)
			}
		}
	}

	for _, p := range payments {
		if !aliases.Matches(p) {
			continue
		}
		switch p.PaymentType {
		case PaymentTypeIn:
			s.TotalSalesPaidFromLedger = s.TotalSalesPaidFromLedger.Add(p.Amount)
			ledgerInSeen = true
		case PaymentTypeOut:
			s.TotalPurchasesPaidFromLedger = s.TotalPurchasesPaidFromLedger.Add(p.Amount)
			ledgerOutSeen = true
		}
	}

	s.TotalSalesPaidFromHistory = salesHistory
	s.TotalPurchasesPaidFromHistory = purchasesHistory

	s.TotalSalesPaid = resolvePaidSource(ledgerInSeen, s.TotalSalesPaidFromLedger, salesHistory)
	s.TotalPurchasesPaid = resolvePaidSource(ledgerOutSeen, s.TotalPurchasesPaidFromLedger, purchasesHistory)
	if (ledgerInSeen && !salesHistory.Equal(s.TotalSalesPaidFromLedger)) ||
		(ledgerOutSeen && !purchasesHistory.Equal(s.TotalPurchasesPaidFromLedger)) {
		s.PaidSourceConflict = true
	}

	s.SalesDue = clampNonNegative(s.TotalSales.Sub(s.TotalSalesPaid))
	s.PurchasesDue = clampNonNegative(s.TotalPurchases.Sub(s.TotalPurchasesPaid))
	s.NetBalance = s.SalesDue.Sub(s.PurchasesDue)

	if metrics != nil {
		eff := metrics.CollectionEfficiency
		days := metrics.AvgCollectionDays
		s.CollectionEfficiency = &eff
		s.AvgCollectionDays = &days
		s.HasRealData = true
		s.DataSource = "live"
	}

	return s
}

// resolvePaidSource: ledger is authoritative when present; history only
// fills in for an empty ledger.
func resolvePaidSource(ledgerSeen bool, ledger, history decimal.Decimal) decimal.Decimal {
	if ledgerSeen {
		return ledger
	}
	return history
}

// metricsProvider is wired at startup; nil means the analytics service is
// not configured and summaries always report fallback data.
var metricsProvider analytics.Provider

func SetMetricsProvider(p analytics.Provider) {
	metricsProvider = p
}

// GetPartySummary assembles the party dashboard. The three reads (sales,
// purchases+payments, efficiency metrics) run concurrently and all settle:
// one failing section zeroes itself and lands in apiErrors, the rest of the
// summary still returns. Partial success is a first-class outcome.
func GetPartySummary(ctx context.Context, partyId int) (*PartySummary, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business_id", "business id is required")
	}

	party, err := utils.FetchModel[Party](ctx, businessId, partyId)
	if err != nil {
		return nil, utils.NewNotFoundError("party", partyId)
	}

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		txns      []CanonicalTransaction
		payments  []CanonicalTransaction
		metrics   *analytics.Metrics
		apiErrors = map[string]string{}
	)

	section := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				mu.Lock()
				apiErrors[name] = utils.ErrorMessage(err)
				mu.Unlock()
			}
		}()
	}

	saleKind := TransactionKindSale
	purchaseKind := TransactionKindPurchase

	section("salesSummary", func() error {
		rows, err := GetPartyTransactions(ctx, partyId, &saleKind)
		if err != nil {
			return err
		}
		mu.Lock()
		for _, row := range rows {
			txns = append(txns, row.Canonical())
		}
		mu.Unlock()
		return nil
	})

	section("purchaseSummary", func() error {
		rows, err := GetPartyTransactions(ctx, partyId, &purchaseKind)
		if err != nil {
			return err
		}
		mu.Lock()
		for _, row := range rows {
			txns = append(txns, row.Canonical())
		}
		mu.Unlock()
		return nil
	})

	section("payments", func() error {
		rows, err := GetPartyPayments(ctx, partyId, false)
		if err != nil {
			return err
		}
		mu.Lock()
		for _, row := range rows {
			payments = append(payments, row.Canonical())
		}
		mu.Unlock()
		return nil
	})

	if metricsProvider != nil {
		section("efficiency", func() error {
			m, err := metricsProvider.PartyMetrics(ctx, businessId, partyId)
			if err != nil {
				return err
			}
			mu.Lock()
			metrics = m
			mu.Unlock()
			return nil
		})
	}

	wg.Wait()

	summary := SummarizeParty(party.Aliases(), txns, payments, metrics)
	if len(apiErrors) > 0 {
		summary.ApiErrors = apiErrors

		logger := config.GetLogger()
		config.LogError(logger, "partySummary", "GetPartySummary", "partial data", apiErrors,
			&utils.PartialDataError{Sections: apiErrors})
	}

	return &summary, nil
}
