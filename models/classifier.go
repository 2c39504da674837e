package models

import (
	"sort"
	"time"

	"github.com/b2bbillings/b2bbillings-sub002/utils"
)

// Classification is the derived payment state of one transaction as of a
// given date. Status is never read back from storage: a stored status can
// desync from the amounts, so it is always recomputed here.
type Classification struct {
	Status TransactionStatus `json:"status"`
	Bucket DueBucket         `json:"bucket"`
}

// Classify derives status and list bucket from amounts and due date.
// Date comparison is day-granular; time of day is ignored.
//
// A transaction with pending amount but no due date is never overdue,
// it stays pending.
func Classify(t CanonicalTransaction, asOf time.Time) Classification {
	pending := t.PendingAmount()

	if pending.IsZero() {
		return Classification{Status: TransactionStatusPaid, Bucket: BucketPending}
	}

	if t.DueDate != nil {
		if utils.BeforeDay(*t.DueDate, asOf) {
			return Classification{Status: TransactionStatusOverdue, Bucket: BucketOverdue}
		}
		if utils.SameDay(*t.DueDate, asOf) {
			return Classification{Status: partialOrPending(t), Bucket: BucketDueToday}
		}
	}

	return Classification{Status: partialOrPending(t), Bucket: BucketPending}
}

func partialOrPending(t CanonicalTransaction) TransactionStatus {
	if t.PaidAmount.IsPositive() {
		return TransactionStatusPartial
	}
	return TransactionStatusPending
}

// SortByUrgency orders transactions for list views: overdue first, then due
// today, then pending; ties broken by ascending due date, then by id. The
// sort is stable.
func SortByUrgency(txns []CanonicalTransaction, asOf time.Time) {
	sort.SliceStable(txns, func(i, j int) bool {
		bi := Classify(txns[i], asOf).Bucket
		bj := Classify(txns[j], asOf).Bucket
		if bi != bj {
			return bi < bj
		}
		di, dj := txns[i].DueDate, txns[j].DueDate
		switch {
		case di != nil && dj != nil && !utils.SameDay(*di, *dj):
			return utils.BeforeDay(*di, *dj)
		case di != nil && dj == nil:
			return true
		case di == nil && dj != nil:
			return false
		}
		return txns[i].ID < txns[j].ID
	})
}
