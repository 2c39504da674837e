package models

import (
	"context"

	"github.com/b2bbillings/b2bbillings-sub002/config"
	"github.com/b2bbillings/b2bbillings-sub002/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Sequence hands out per-business document numbers (SAL-1, PAY-7, ...).
type Sequence struct {
	BusinessId string `gorm:"primaryKey;size:64"`
	Name       string `gorm:"primaryKey;size:64"`
	Value      int64  `gorm:"not null;default:0"`
}

// nextSequence increments and returns the counter inside the caller's DB
// transaction, so numbers never repeat even under concurrent writers.
func nextSequence[T any](ctx context.Context, tx *gorm.DB, businessId string, name string) (int64, error) {
	var seq Sequence
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("business_id = ? AND name = ?", businessId, name).
		First(&seq).Error
	if err == gorm.ErrRecordNotFound {
		seq = Sequence{BusinessId: businessId, Name: name, Value: 0}
	} else if err != nil {
		return 0, err
	}
	seq.Value++
	if err := tx.WithContext(ctx).Save(&seq).Error; err != nil {
		return 0, err
	}
	return seq.Value, nil
}

// fetchPageOffset runs offset pagination over an already-filtered query and
// builds the page envelope (currentPage/totalPages/totalRecords).
func fetchPageOffset[T any](dbCtx *gorm.DB, page int, limit int, order string) ([]*T, utils.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = config.SearchLimit
	}

	var total int64
	if err := dbCtx.Count(&total).Error; err != nil {
		return nil, utils.Pagination{}, err
	}

	var results []*T
	err := dbCtx.Order(order).
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&results).Error
	if err != nil {
		return nil, utils.Pagination{}, err
	}

	return results, utils.NewPagination(page, limit, total), nil
}

// MigrateTable creates/updates the schema. Called by main and the cmd tools.
func MigrateTable() {
	db := config.GetDB()
	err := db.AutoMigrate(
		&Party{},
		&BusinessTransaction{},
		&PaymentEntry{},
		&Payment{},
		&PaymentAllocation{},
		&BankAccount{},
		&DailySummary{},
		&Sequence{},
		&User{},
	)
	utils.ErrorPanic(err)
}
