package utils_test

import (
	"errors"
	"testing"

	"github.com/b2bbillings/b2bbillings-sub002/utils"
)

func TestErrorMessage(t *testing.T) {
	if got := utils.ErrorMessage(nil); got != "Operation failed" {
		t.Fatalf("nil error: expected generic message, got %q", got)
	}
	if got := utils.ErrorMessage(errors.New("   ")); got != "Operation failed" {
		t.Fatalf("blank error: expected generic message, got %q", got)
	}
	if got := utils.ErrorMessage(errors.New("boom")); got != "boom" {
		t.Fatalf("expected passthrough, got %q", got)
	}
}

func TestNotFoundErrorUnwrapsToRecordNotFound(t *testing.T) {
	err := utils.NewNotFoundError("party", 42)
	if !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("NotFoundError must unwrap to ErrorRecordNotFound")
	}
	if err.Error() != "party not found (id=42)" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := utils.NewValidationError("amount", "must be greater than zero")
	if err.Error() != "amount: must be greater than zero" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
	var ve *utils.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError")
	}
}

func TestBankEffectErrorWraps(t *testing.T) {
	cause := errors.New("deadlock")
	err := &utils.BankEffectError{Op: "apply", BankAccountId: 3, Err: cause}
	if !errors.Is(err, cause) {
		t.Fatalf("BankEffectError must unwrap to its cause")
	}
	if err.Error() != "bank effect apply failed (account=3): deadlock" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestPartialDataError(t *testing.T) {
	err := &utils.PartialDataError{Sections: map[string]string{"payments": "timeout"}}
	if err.Error() != "partial data: payments unavailable" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}
