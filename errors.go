package main

import (
	"errors"
	"fmt"
)

// Machine-readable validation codes. API responses carry them so callers can
// branch without parsing messages.
const (
	CodeUnbalancedVoucher  = "unbalanced_voucher"
	CodeInvalidLine        = "invalid_line"
	CodeUnknownAccount     = "unknown_account"
	CodeInactiveAccount    = "inactive_account"
	CodeDuplicateCode      = "duplicate_code"
	CodeInvalidParent      = "invalid_parent"
	CodeCycleDetected      = "cycle_detected"
	CodeAlreadyInitialized = "already_initialized"
	CodeAlreadyVoided      = "already_voided"
	CodeBadRequest         = "bad_request"
)

// ErrNotFound is the base sentinel for missing records; the API maps it to 404.
var (
	ErrNotFound        = errors.New("not found")
	ErrAccountNotFound = fmt.Errorf("account %w", ErrNotFound)
	ErrVoucherNotFound = fmt.Errorf("voucher %w", ErrNotFound)
)

// ValidationError rejects a request that can never succeed as given.
type ValidationError struct {
	Code string
	err  error
}

// ValidationErrorf creates a ValidationError with the given code and message.
func ValidationErrorf(code, format string, args ...interface{}) ValidationError {
	return ValidationError{Code: code, err: fmt.Errorf(format, args...)}
}

func (e ValidationError) Error() string {
	return e.err.Error()
}

func (e ValidationError) Unwrap() error {
	return e.err
}

// ConflictError reports a concurrent-update race the caller may retry.
type ConflictError struct {
	err error
}

// ConflictErrorf creates a ConflictError with the given message.
func ConflictErrorf(format string, args ...interface{}) ConflictError {
	return ConflictError{err: fmt.Errorf(format, args...)}
}

func (e ConflictError) Error() string {
	return e.err.Error()
}

func (e ConflictError) Unwrap() error {
	return e.err
}

// IntegrityError means the stored books violate double entry. It is never the
// caller's fault and always needs an operator.
type IntegrityError struct {
	err error
}

// IntegrityErrorf creates an IntegrityError with the given message.
func IntegrityErrorf(format string, args ...interface{}) IntegrityError {
	return IntegrityError{err: fmt.Errorf(format, args...)}
}

func (e IntegrityError) Error() string {
	return e.err.Error()
}

func (e IntegrityError) Unwrap() error {
	return e.err
}
