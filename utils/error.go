package utils

import (
	"errors"
	"fmt"
	"strings"
)

var ErrorRecordNotFound = errors.New("record not found")

// ErrMissingBankAccount is returned when a non-cash payment carries no
// deposit/withdrawal account. Raised before any balance is touched.
var ErrMissingBankAccount = errors.New("bank account is required for non-cash payment method")

// ValidationError is a bad-input failure detected before any state change.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError reports an absent party/transaction/account.
type NotFoundError struct {
	Resource string
	ID       any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found (id=%v)", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrorRecordNotFound }

func NewNotFoundError(resource string, id any) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// BankEffectError reports a failed apply/reverse of a bank balance change.
// Money-affecting operations never fail silently: callers must surface this
// as a blocking error.
type BankEffectError struct {
	Op            string // "apply" | "reverse" | "edit"
	BankAccountId int
	Err           error
}

func (e *BankEffectError) Error() string {
	return fmt.Sprintf("bank effect %s failed (account=%d): %v", e.Op, e.BankAccountId, e.Err)
}

func (e *BankEffectError) Unwrap() error { return e.Err }

// PartialDataError reports that one of several parallel fetches failed while
// the others succeeded. Non-blocking: the caller renders the available subset.
type PartialDataError struct {
	// Sections maps a failed section name (e.g. "salesSummary") to its error message.
	Sections map[string]string
}

func (e *PartialDataError) Error() string {
	names := make([]string, 0, len(e.Sections))
	for k := range e.Sections {
		names = append(names, k)
	}
	return fmt.Sprintf("partial data: %s unavailable", strings.Join(names, ", "))
}

// ErrorMessage extracts a user-facing message from err, substituting a
// generic one when the failure carries no message at all.
func ErrorMessage(err error) string {
	if err == nil {
		return "Operation failed"
	}
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		return "Operation failed"
	}
	return msg
}

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}
