package models

import (
	"context"
	"strconv"
	"time"

	"github.com/b2bbillings/b2bbillings-sub002/config"
	"github.com/b2bbillings/b2bbillings-sub002/utils"
	"github.com/bsm/redislock"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Bank balance effect resolver.
//
// Bank balances are the one piece of cross-entity shared mutable state.
// Every mutation goes through ApplyPaymentEffect / ReversePaymentEffect /
// EditPaymentEffect so concurrent edits never bypass the reverse-then-apply
// discipline. The effect computation itself is pure and covered by unit
// tests; the *Tx functions bind it to the database.

// BankEffect is one signed balance movement on one bank account.
type BankEffect struct {
	BankAccountId int             `json:"bank_account_id"`
	Delta         decimal.Decimal `json:"delta"`
}

// PaymentBankEffect computes the movement applying p causes.
// Cash never touches a bank account (nil effect). Any other method requires
// a bank account: payment_in credits it, payment_out debits it.
func PaymentBankEffect(p *Payment) (*BankEffect, error) {
	if !p.Amount.IsPositive() {
		return nil, utils.NewValidationError("amount", "must be greater than zero")
	}
	if !p.PaymentMethod.RequiresBankAccount() {
		return nil, nil
	}
	if p.BankAccountId == 0 {
		return nil, utils.ErrMissingBankAccount
	}

	delta := p.Amount
	if p.Type == PaymentTypeOut {
		delta = delta.Neg()
	}
	return &BankEffect{BankAccountId: p.BankAccountId, Delta: delta}, nil
}

// ReverseBankEffect is the exact inverse of PaymentBankEffect for the same
// payment. It must be fed the payment's original stored values, never
// current form values, or a second reversal slips in.
func ReverseBankEffect(p *Payment) (*BankEffect, error) {
	effect, err := PaymentBankEffect(p)
	if err != nil || effect == nil {
		return nil, err
	}
	return &BankEffect{BankAccountId: effect.BankAccountId, Delta: effect.Delta.Neg()}, nil
}

// ApplyEffect adds an effect to a balance. Pure counterpart of the DB write.
func ApplyEffect(balance decimal.Decimal, effect *BankEffect) decimal.Decimal {
	if effect == nil {
		return balance
	}
	return balance.Add(effect.Delta)
}

/* DB application */

func applyEffectTx(ctx context.Context, tx *gorm.DB, businessId string, effect *BankEffect) error {
	if effect == nil {
		return nil
	}

	var account BankAccount
	err := tx.WithContext(ctx).Where("business_id = ?", businessId).First(&account, effect.BankAccountId).Error
	if err != nil {
		return utils.NewNotFoundError("bank account", effect.BankAccountId)
	}

	account.CurrentBalance = account.CurrentBalance.Add(effect.Delta)
	if err := tx.WithContext(ctx).Model(&account).Update("current_balance", account.CurrentBalance).Error; err != nil {
		return &utils.BankEffectError{Op: "apply", BankAccountId: effect.BankAccountId, Err: err}
	}
	return nil
}

// ApplyPaymentEffect applies p's bank effect inside the caller's DB
// transaction. No-op for cash.
func ApplyPaymentEffect(ctx context.Context, tx *gorm.DB, p *Payment) error {
	effect, err := PaymentBankEffect(p)
	if err != nil {
		return err
	}
	return applyEffectTx(ctx, tx, p.BusinessId, effect)
}

// ReversePaymentEffect undoes p's bank effect using the stored payment only.
func ReversePaymentEffect(ctx context.Context, tx *gorm.DB, p *Payment) error {
	effect, err := ReverseBankEffect(p)
	if err != nil {
		return err
	}
	if err := applyEffectTx(ctx, tx, p.BusinessId, effect); err != nil {
		return &utils.BankEffectError{Op: "reverse", BankAccountId: p.BankAccountId, Err: err}
	}
	return nil
}

// EditPaymentEffect treats an edit as one logical operation:
// reverse(old) then apply(new). When apply(new) fails the reversal is rolled
// back (old is re-applied) so the account is never left short.
func EditPaymentEffect(ctx context.Context, tx *gorm.DB, oldPayment, newPayment *Payment) error {
	if err := ReversePaymentEffect(ctx, tx, oldPayment); err != nil {
		return err
	}
	if err := ApplyPaymentEffect(ctx, tx, newPayment); err != nil {
		if rerr := ApplyPaymentEffect(ctx, tx, oldPayment); rerr != nil {
			return &utils.BankEffectError{Op: "edit", BankAccountId: oldPayment.BankAccountId, Err: rerr}
		}
		return err
	}
	return nil
}

// lockBankAccounts serializes balance mutations across processes.
// Redis lock is a best-effort optimization: the row update itself runs in a
// DB transaction, so correctness does not depend on Redis being up.
func lockBankAccounts(ctx context.Context, accountIds ...int) func() {
	redisLock := config.GetRedisLock()
	if redisLock == nil {
		return func() {}
	}

	locks := make([]*redislock.Lock, 0, len(accountIds))
	for _, id := range utils.UniqueSlice(accountIds) {
		if id == 0 {
			continue
		}
		lock, err := redisLock.Obtain(ctx, bankLockKey(id), 5*time.Second, &redislock.Options{
			RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 10),
		})
		if err != nil {
			continue
		}
		locks = append(locks, lock)
	}
	return func() {
		for _, lock := range locks {
			_ = lock.Release(context.Background())
		}
	}
}

func bankLockKey(accountId int) string {
	return "bank-balance:" + strconv.Itoa(accountId)
}
