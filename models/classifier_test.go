package models_test

import (
	"testing"
	"time"

	"github.com/b2bbillings/b2bbillings-sub002/models"
	"github.com/shopspring/decimal"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func txn(id string, amount, paid float64, due *time.Time) models.CanonicalTransaction {
	return models.CanonicalTransaction{
		ID:         id,
		Kind:       models.TransactionKindSale,
		Amount:     decimal.NewFromFloat(amount),
		PaidAmount: decimal.NewFromFloat(paid),
		DueDate:    due,
	}
}

func datePtr(t time.Time) *time.Time { return &t }

func TestClassify(t *testing.T) {
	asOf := day(2026, 3, 10)

	cases := []struct {
		name   string
		txn    models.CanonicalTransaction
		status models.TransactionStatus
		bucket models.DueBucket
	}{
		{
			name:   "fully paid is paid regardless of due date",
			txn:    txn("a", 100, 100, datePtr(day(2026, 1, 1))),
			status: models.TransactionStatusPaid,
			bucket: models.BucketPending,
		},
		{
			name:   "overpaid is paid",
			txn:    txn("b", 100, 150, datePtr(day(2026, 1, 1))),
			status: models.TransactionStatusPaid,
			bucket: models.BucketPending,
		},
		{
			name:   "due before asOf is overdue",
			txn:    txn("c", 100, 50, datePtr(day(2026, 3, 9))),
			status: models.TransactionStatusOverdue,
			bucket: models.BucketOverdue,
		},
		{
			name:   "due same day is due today, partial",
			txn:    txn("d", 100, 50, datePtr(day(2026, 3, 10))),
			status: models.TransactionStatusPartial,
			bucket: models.BucketDueToday,
		},
		{
			name:   "due same day unpaid is due today, pending",
			txn:    txn("e", 100, 0, datePtr(day(2026, 3, 10))),
			status: models.TransactionStatusPending,
			bucket: models.BucketDueToday,
		},
		{
			name:   "future due is pending",
			txn:    txn("f", 100, 0, datePtr(day(2026, 3, 20))),
			status: models.TransactionStatusPending,
			bucket: models.BucketPending,
		},
		{
			name:   "no due date never goes overdue",
			txn:    txn("g", 100, 0, nil),
			status: models.TransactionStatusPending,
			bucket: models.BucketPending,
		},
		{
			name:   "no due date with partial payment",
			txn:    txn("h", 100, 60, nil),
			status: models.TransactionStatusPartial,
			bucket: models.BucketPending,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := models.Classify(tc.txn, asOf)
			if got.Status != tc.status {
				t.Fatalf("status: expected %s, got %s", tc.status, got.Status)
			}
			if got.Bucket != tc.bucket {
				t.Fatalf("bucket: expected %s, got %s", tc.bucket, got.Bucket)
			}
		})
	}
}

func TestClassify_DayGranularity(t *testing.T) {
	// Due 23:59 yesterday vs asOf 00:01 today: overdue.
	due := time.Date(2026, 3, 9, 23, 59, 0, 0, time.UTC)
	asOf := time.Date(2026, 3, 10, 0, 1, 0, 0, time.UTC)
	got := models.Classify(txn("a", 100, 0, &due), asOf)
	if got.Status != models.TransactionStatusOverdue {
		t.Fatalf("expected overdue across midnight, got %s", got.Status)
	}

	// Same calendar day with different clock times: due today, not overdue.
	due = time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	asOf = time.Date(2026, 3, 10, 17, 0, 0, 0, time.UTC)
	got = models.Classify(txn("b", 100, 0, &due), asOf)
	if got.Bucket != models.BucketDueToday {
		t.Fatalf("expected due_today on same day, got %s", got.Bucket)
	}
}

func TestSortByUrgency(t *testing.T) {
	asOf := day(2026, 3, 10)

	txns := []models.CanonicalTransaction{
		txn("z-pending-no-due", 100, 0, nil),
		txn("m-due-today", 100, 0, datePtr(day(2026, 3, 10))),
		txn("b-overdue-newer", 100, 0, datePtr(day(2026, 3, 8))),
		txn("a-overdue-older", 100, 0, datePtr(day(2026, 3, 1))),
		txn("k-pending-future", 100, 0, datePtr(day(2026, 3, 25))),
		txn("c-paid", 100, 100, datePtr(day(2026, 1, 1))),
	}

	models.SortByUrgency(txns, asOf)

	want := []string{
		"a-overdue-older",
		"b-overdue-newer",
		"m-due-today",
		"c-paid", // paid, Jan 1 due date sorts it first among the pending bucket
		"k-pending-future",
		"z-pending-no-due",
	}
	for i, id := range want {
		if txns[i].ID != id {
			got := make([]string, len(txns))
			for j := range txns {
				got[j] = txns[j].ID
			}
			t.Fatalf("position %d: expected %s, order was %v", i, id, got)
		}
	}
}

func TestSortByUrgency_TieBreaksById(t *testing.T) {
	asOf := day(2026, 3, 10)
	due := day(2026, 3, 5)
	txns := []models.CanonicalTransaction{
		txn("b", 100, 0, &due),
		txn("a", 100, 0, &due),
	}
	models.SortByUrgency(txns, asOf)
	if txns[0].ID != "a" || txns[1].ID != "b" {
		t.Fatalf("expected id tie-break, got %s, %s", txns[0].ID, txns[1].ID)
	}
}
