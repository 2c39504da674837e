package models_test

import (
	"strings"
	"testing"
	"time"

	"github.com/b2bbillings/b2bbillings-sub002/models"
)

func TestNormalize_SaleFieldPrecedence(t *testing.T) {
	raw := map[string]any{
		"_id": "64abc123ffee",
		"totals": map[string]any{
			"finalTotal": 1180.50,
		},
		// Flat aliases must lose to the nested path.
		"finalTotal": 999.0,
		"total":      1.0,
		"payment": map[string]any{
			"paidAmount": 500.0,
			"dueDate":    "2026-03-15",
		},
		"invoiceDate":   "2026-03-01T10:30:00Z",
		"customerId":    "cust-42",
		"customerName":  "Sharma Traders",
		"invoiceNumber": "INV-0042",
	}

	got := models.Normalize(raw, models.TransactionKindSale)

	if got.Invalid {
		t.Fatalf("expected valid record, got invalid")
	}
	if got.ID != "64abc123ffee" {
		t.Fatalf("id: expected 64abc123ffee, got %s", got.ID)
	}
	if got.Amount.String() != "1180.5" {
		t.Fatalf("amount: expected 1180.5, got %s", got.Amount.String())
	}
	if got.PaidAmount.String() != "500" {
		t.Fatalf("paidAmount: expected 500, got %s", got.PaidAmount.String())
	}
	if got.PendingAmount().String() != "680.5" {
		t.Fatalf("pendingAmount: expected 680.5, got %s", got.PendingAmount().String())
	}
	if !got.DateValid || got.Date.Format("2006-01-02") != "2026-03-01" {
		t.Fatalf("date: expected 2026-03-01 valid, got %v valid=%v", got.Date, got.DateValid)
	}
	if got.DueDate == nil || got.DueDate.Format("2006-01-02") != "2026-03-15" {
		t.Fatalf("dueDate: expected 2026-03-15, got %v", got.DueDate)
	}
	if got.PartyId != "cust-42" || got.PartyName != "Sharma Traders" {
		t.Fatalf("party: got id=%s name=%s", got.PartyId, got.PartyName)
	}
	if got.Reference != "INV-0042" {
		t.Fatalf("reference: expected INV-0042, got %s", got.Reference)
	}
}

func TestNormalize_PartyObjectStandsInForId(t *testing.T) {
	raw := map[string]any{
		"_id":    "x1",
		"amount": 100.0,
		"party": map[string]any{
			"_id":  "p-9",
			"name": "Gupta & Sons",
		},
	}

	got := models.Normalize(raw, models.TransactionKindPayment)
	if got.PartyId != "p-9" {
		t.Fatalf("expected party object to resolve to its _id, got %q", got.PartyId)
	}
}

func TestNormalize_SynthesizesReference(t *testing.T) {
	cases := []struct {
		kind   models.TransactionKind
		prefix string
	}{
		{models.TransactionKindSale, "SAL-"},
		{models.TransactionKindPurchase, "PUR-"},
		{models.TransactionKindPayment, "PAY-"},
	}
	for _, tc := range cases {
		raw := map[string]any{"_id": "64abc123ffee", "amount": 10.0, "total": 10.0}
		got := models.Normalize(raw, tc.kind)
		if !strings.HasPrefix(got.Reference, tc.prefix) {
			t.Fatalf("kind %s: expected prefix %s, got %s", tc.kind, tc.prefix, got.Reference)
		}
		if got.Reference != tc.prefix+"64ABC123" {
			t.Fatalf("kind %s: expected %s64ABC123, got %s", tc.kind, tc.prefix, got.Reference)
		}
	}
}

func TestNormalize_MissingIdGetsGenerated(t *testing.T) {
	a := models.Normalize(map[string]any{"amount": 5.0}, models.TransactionKindSale)
	b := models.Normalize(map[string]any{"amount": 5.0}, models.TransactionKindSale)
	if a.ID == "" || b.ID == "" {
		t.Fatalf("expected generated ids, got %q / %q", a.ID, b.ID)
	}
	if a.ID == b.ID {
		t.Fatalf("generated ids must be unique, both were %q", a.ID)
	}
}

func TestNormalize_MalformedAmountFlagsRecord(t *testing.T) {
	cases := []map[string]any{
		{"_id": "r1", "total": "not-a-number"},
		{"_id": "r2", "total": map[string]any{"weird": true}},
		{"_id": "r3", "total": true},
	}
	for _, raw := range cases {
		got := models.Normalize(raw, models.TransactionKindSale)
		if !got.Invalid {
			t.Fatalf("record %v: expected Invalid=true", raw["_id"])
		}
		if !got.Amount.IsZero() {
			t.Fatalf("record %v: flagged amount must be zero, got %s", raw["_id"], got.Amount)
		}
	}
}

func TestNormalize_AbsentAmountAlsoFlags(t *testing.T) {
	got := models.Normalize(map[string]any{"_id": "r4"}, models.TransactionKindSale)
	if !got.Invalid {
		t.Fatalf("expected record without any amount candidate to be flagged")
	}
}

func TestNormalize_NegativeAmountClampsToZero(t *testing.T) {
	got := models.Normalize(map[string]any{"_id": "r5", "total": -250.0}, models.TransactionKindSale)
	if got.Invalid {
		t.Fatalf("negative amount is coercible, must not flag the record")
	}
	if !got.Amount.IsZero() {
		t.Fatalf("expected clamp to zero, got %s", got.Amount)
	}
}

func TestNormalize_StringAndEpochAmounts(t *testing.T) {
	got := models.Normalize(map[string]any{"_id": "r6", "total": "1234.56"}, models.TransactionKindSale)
	if got.Invalid || got.Amount.String() != "1234.56" {
		t.Fatalf("string amount: got invalid=%v amount=%s", got.Invalid, got.Amount)
	}

	// Epoch millis from the mobile client.
	millis := float64(time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC).UnixMilli())
	got = models.Normalize(map[string]any{"_id": "r7", "total": 10.0, "date": millis}, models.TransactionKindSale)
	if !got.DateValid || got.Date.Format("2006-01-02") != "2026-02-10" {
		t.Fatalf("epoch date: got %v valid=%v", got.Date, got.DateValid)
	}
}

func TestNormalize_UnparseableDateLeavesDateInvalid(t *testing.T) {
	got := models.Normalize(map[string]any{"_id": "r8", "total": 10.0, "date": "soonish"}, models.TransactionKindSale)
	if got.DateValid {
		t.Fatalf("expected DateValid=false for unparseable date")
	}
	if got.Invalid {
		t.Fatalf("a bad date must not invalidate the whole record")
	}
}

func TestNormalize_PaymentHistory(t *testing.T) {
	raw := map[string]any{
		"_id":   "r9",
		"total": 1000.0,
		"paymentHistory": []any{
			map[string]any{"amount": 400.0, "date": "2026-01-05"},
			map[string]any{"amount": "oops"},
			map[string]any{"paidAmount": 100.0},
		},
	}
	got := models.Normalize(raw, models.TransactionKindSale)
	if len(got.History) != 2 {
		t.Fatalf("expected 2 usable history rows, got %d", len(got.History))
	}
	if got.History[0].Amount.String() != "400" || got.History[1].Amount.String() != "100" {
		t.Fatalf("history amounts: got %s, %s", got.History[0].Amount, got.History[1].Amount)
	}
}

func TestNormalizeBatch_BadRowNeverAbortsBatch(t *testing.T) {
	raws := []map[string]any{
		{"_id": "good-1", "total": 100.0},
		{"_id": "bad-1", "total": "garbage"},
		{"_id": "good-2", "total": 200.0},
	}
	got := models.NormalizeBatch(raws, models.TransactionKindSale)
	if len(got) != 3 {
		t.Fatalf("expected all 3 rows back, got %d", len(got))
	}
	if got[0].Invalid || got[2].Invalid {
		t.Fatalf("good rows must stay clean")
	}
	if !got[1].Invalid {
		t.Fatalf("bad row must come back flagged")
	}
}

func TestPendingAmount_NeverNegative(t *testing.T) {
	raw := map[string]any{"_id": "r10", "total": 100.0, "paidAmount": 150.0}
	got := models.Normalize(raw, models.TransactionKindSale)
	if !got.PendingAmount().IsZero() {
		t.Fatalf("overpaid record: expected pending 0, got %s", got.PendingAmount())
	}
}
