package models_test

import (
	"errors"
	"testing"

	"github.com/b2bbillings/b2bbillings-sub002/models"
	"github.com/b2bbillings/b2bbillings-sub002/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bankPayment(pt models.PaymentType, method models.PaymentMethod, amount string, accountId int) *models.Payment {
	return &models.Payment{
		Type:          pt,
		PaymentMethod: method,
		Amount:        dec(amount),
		BankAccountId: accountId,
	}
}

func TestPaymentBankEffect(t *testing.T) {
	t.Run("payment_in credits the account", func(t *testing.T) {
		p := bankPayment(models.PaymentTypeIn, models.PaymentMethodBankTransfer, "5000", 7)
		effect, err := models.PaymentBankEffect(p)
		require.NoError(t, err)
		require.NotNil(t, effect)
		assert.Equal(t, 7, effect.BankAccountId)
		assert.True(t, effect.Delta.Equal(dec("5000")))
	})

	t.Run("payment_out debits the account", func(t *testing.T) {
		p := bankPayment(models.PaymentTypeOut, models.PaymentMethodUPI, "1200", 7)
		effect, err := models.PaymentBankEffect(p)
		require.NoError(t, err)
		require.NotNil(t, effect)
		assert.True(t, effect.Delta.Equal(dec("-1200")))
	})

	t.Run("cash never touches a bank account", func(t *testing.T) {
		p := bankPayment(models.PaymentTypeIn, models.PaymentMethodCash, "5000", 7)
		effect, err := models.PaymentBankEffect(p)
		require.NoError(t, err)
		assert.Nil(t, effect)
	})

	t.Run("non-cash without account is a blocking error", func(t *testing.T) {
		for _, method := range []models.PaymentMethod{
			models.PaymentMethodBankTransfer,
			models.PaymentMethodCheque,
			models.PaymentMethodCard,
			models.PaymentMethodUPI,
		} {
			p := bankPayment(models.PaymentTypeIn, method, "100", 0)
			_, err := models.PaymentBankEffect(p)
			assert.True(t, errors.Is(err, utils.ErrMissingBankAccount), "method %s", method)
		}
	})

	t.Run("zero amount rejected", func(t *testing.T) {
		p := bankPayment(models.PaymentTypeIn, models.PaymentMethodBankTransfer, "0", 7)
		_, err := models.PaymentBankEffect(p)
		var ve *utils.ValidationError
		assert.True(t, errors.As(err, &ve))
	})
}

func TestReverseBankEffect_InvertsExactly(t *testing.T) {
	p := bankPayment(models.PaymentTypeIn, models.PaymentMethodCheque, "3500", 2)

	apply, err := models.PaymentBankEffect(p)
	require.NoError(t, err)
	reverse, err := models.ReverseBankEffect(p)
	require.NoError(t, err)

	assert.True(t, apply.Delta.Add(reverse.Delta).IsZero())
	assert.Equal(t, apply.BankAccountId, reverse.BankAccountId)
}

func TestReverseBankEffect_CashIsNil(t *testing.T) {
	p := bankPayment(models.PaymentTypeOut, models.PaymentMethodCash, "100", 0)
	effect, err := models.ReverseBankEffect(p)
	require.NoError(t, err)
	assert.Nil(t, effect)
}

func TestApplyEffect_RoundTrips(t *testing.T) {
	balance := dec("10000")
	p := bankPayment(models.PaymentTypeOut, models.PaymentMethodBankTransfer, "2500", 1)

	apply, err := models.PaymentBankEffect(p)
	require.NoError(t, err)
	after := models.ApplyEffect(balance, apply)
	assert.True(t, after.Equal(dec("7500")))

	reverse, err := models.ReverseBankEffect(p)
	require.NoError(t, err)
	restored := models.ApplyEffect(after, reverse)
	assert.True(t, restored.Equal(balance), "reverse(apply(x)) must restore the balance")
}

func TestApplyEffect_NilEffectIsNoop(t *testing.T) {
	balance := dec("42")
	assert.True(t, models.ApplyEffect(balance, nil).Equal(balance))
}

// An edit is reverse(old) then apply(new); the balance must land exactly
// where applying the new payment to the pre-old balance would.
func TestEditSequence_PureBalanceMath(t *testing.T) {
	start := dec("10000")

	oldP := bankPayment(models.PaymentTypeIn, models.PaymentMethodBankTransfer, "1000", 1)
	newP := bankPayment(models.PaymentTypeIn, models.PaymentMethodBankTransfer, "1600", 1)

	applyOld, err := models.PaymentBankEffect(oldP)
	require.NoError(t, err)
	afterOld := models.ApplyEffect(start, applyOld)

	reverseOld, err := models.ReverseBankEffect(oldP)
	require.NoError(t, err)
	applyNew, err := models.PaymentBankEffect(newP)
	require.NoError(t, err)

	afterEdit := models.ApplyEffect(models.ApplyEffect(afterOld, reverseOld), applyNew)
	assert.True(t, afterEdit.Equal(dec("11600")))
}

// Switching a payment from bank to cash on edit must remove the old bank
// movement and add nothing.
func TestEditSequence_BankToCash(t *testing.T) {
	start := dec("5000")

	oldP := bankPayment(models.PaymentTypeOut, models.PaymentMethodCard, "700", 3)
	newP := bankPayment(models.PaymentTypeOut, models.PaymentMethodCash, "700", 0)

	applyOld, err := models.PaymentBankEffect(oldP)
	require.NoError(t, err)
	afterOld := models.ApplyEffect(start, applyOld)
	assert.True(t, afterOld.Equal(dec("4300")))

	reverseOld, err := models.ReverseBankEffect(oldP)
	require.NoError(t, err)
	applyNew, err := models.PaymentBankEffect(newP)
	require.NoError(t, err)

	final := models.ApplyEffect(models.ApplyEffect(afterOld, reverseOld), applyNew)
	assert.True(t, final.Equal(start))
}
