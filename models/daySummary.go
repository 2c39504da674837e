package models

import (
	"context"
	"time"

	"github.com/b2bbillings/b2bbillings-sub002/config"
	"github.com/b2bbillings/b2bbillings-sub002/utils"
	"github.com/shopspring/decimal"
)

// DaySummary is the day-book dashboard aggregate. Derived data: it is a
// pure function of the transaction set as of a date, recomputed on every
// load and never cached across requests.
type DaySummary struct {
	AsOf                time.Time       `json:"asOf"`
	TotalReceivables    decimal.Decimal `json:"totalReceivables"`
	TotalPayables       decimal.Decimal `json:"totalPayables"`
	OverdueReceivables  decimal.Decimal `json:"overdueReceivables"`
	OverduePayables     decimal.Decimal `json:"overduePayables"`
	DueTodayReceivables decimal.Decimal `json:"dueTodayReceivables"`
	DueTodayPayables    decimal.Decimal `json:"dueTodayPayables"`
	NetPosition         decimal.Decimal `json:"netPosition"`
}

// ComputeDaySummary folds pending amounts into receivable/payable totals
// and splits them by urgency bucket. Invalid records contribute nothing.
func ComputeDaySummary(asOf time.Time, txns []CanonicalTransaction) DaySummary {
	s := DaySummary{AsOf: utils.DateOnly(asOf)}

	for _, t := range txns {
		if t.Invalid {
			continue
		}
		pending := t.PendingAmount()
		if pending.IsZero() {
			continue
		}
		c := Classify(t, asOf)

		switch t.Kind {
		case TransactionKindSale:
			s.TotalReceivables = s.TotalReceivables.Add(pending)
			switch c.Bucket {
			case BucketOverdue:
				s.OverdueReceivables = s.OverdueReceivables.Add(pending)
			case BucketDueToday:
				s.DueTodayReceivables = s.DueTodayReceivables.Add(pending)
			}
		case TransactionKindPurchase:
			s.TotalPayables = s.TotalPayables.Add(pending)
			switch c.Bucket {
			case BucketOverdue:
				s.OverduePayables = s.OverduePayables.Add(pending)
			case BucketDueToday:
				s.DueTodayPayables = s.DueTodayPayables.Add(pending)
			}
		}
	}

	s.NetPosition = s.TotalReceivables.Sub(s.TotalPayables)
	return s
}

// GetDayBook computes the live dashboard plus the urgency-sorted rows the
// day-book table renders.
func GetDayBook(ctx context.Context, asOf time.Time) (*DaySummary, []CanonicalTransaction, error) {
	rows, err := GetPartyTransactions(ctx, 0, nil)
	if err != nil {
		return nil, nil, err
	}

	txns := make([]CanonicalTransaction, 0, len(rows))
	for _, row := range rows {
		txns = append(txns, row.Canonical())
	}

	SortByUrgency(txns, asOf)
	summary := ComputeDaySummary(asOf, txns)
	return &summary, txns, nil
}

// DailySummary is a small, query-friendly rollup table used by dashboards
// for date-range charts.
//
// Grain: (business_id, transaction_date).
// NOTE: derived data; can always be rebuilt from transactions and payments
// (see cmd/daybook-rebuild).
type DailySummary struct {
	BusinessId      string    `gorm:"primaryKey;size:64" json:"business_id"`
	TransactionDate time.Time `gorm:"primaryKey" json:"transaction_date"`

	TotalSales       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_sales"`
	TotalPurchases   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_purchases"`
	TotalPaymentsIn  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_payments_in"`
	TotalPaymentsOut decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_payments_out"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// RebuildDailySummaries recomputes the rollup rows for one business over a
// date range, replacing whatever was there.
func RebuildDailySummaries(ctx context.Context, businessId string, from, to time.Time) (int, error) {
	db := config.GetDB()

	from = utils.DateOnly(from)
	to = utils.DateOnly(to)
	if to.Before(from) {
		return 0, utils.NewValidationError("to", "end date before start date")
	}

	tx := db.Begin()
	if err := tx.WithContext(ctx).
		Where("business_id = ? AND transaction_date BETWEEN ? AND ?", businessId, from, to).
		Delete(&DailySummary{}).Error; err != nil {
		tx.Rollback()
		return 0, err
	}

	count := 0
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		next := day.AddDate(0, 0, 1)
		row := DailySummary{BusinessId: businessId, TransactionDate: day}

		err := tx.WithContext(ctx).Model(&BusinessTransaction{}).
			Where("business_id = ? AND kind = ? AND transaction_date >= ? AND transaction_date < ?",
				businessId, TransactionKindSale, day, next).
			Select("COALESCE(SUM(amount), 0)").Scan(&row.TotalSales).Error
		if err != nil {
			tx.Rollback()
			return 0, err
		}
		err = tx.WithContext(ctx).Model(&BusinessTransaction{}).
			Where("business_id = ? AND kind = ? AND transaction_date >= ? AND transaction_date < ?",
				businessId, TransactionKindPurchase, day, next).
			Select("COALESCE(SUM(amount), 0)").Scan(&row.TotalPurchases).Error
		if err != nil {
			tx.Rollback()
			return 0, err
		}
		err = tx.WithContext(ctx).Model(&Payment{}).
			Where("business_id = ? AND type = ? AND status <> ? AND payment_date >= ? AND payment_date < ?",
				businessId, PaymentTypeIn, PaymentStatusCancelled, day, next).
			Select("COALESCE(SUM(amount), 0)").Scan(&row.TotalPaymentsIn).Error
		if err != nil {
			tx.Rollback()
			return 0, err
		}
		err = tx.WithContext(ctx).Model(&Payment{}).
			Where("business_id = ? AND type = ? AND status <> ? AND payment_date >= ? AND payment_date < ?",
				businessId, PaymentTypeOut, PaymentStatusCancelled, day, next).
			Select("COALESCE(SUM(amount), 0)").Scan(&row.TotalPaymentsOut).Error
		if err != nil {
			tx.Rollback()
			return 0, err
		}

		if row.TotalSales.IsZero() && row.TotalPurchases.IsZero() &&
			row.TotalPaymentsIn.IsZero() && row.TotalPaymentsOut.IsZero() {
			continue
		}
		if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
			tx.Rollback()
			return 0, err
		}
		count++
	}

	if err := tx.Commit().Error; err != nil {
		return 0, err
	}
	return count, nil
}
