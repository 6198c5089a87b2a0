// Package errors defines the stable error taxonomy of the wallet core.
// Every failure that crosses the application boundary is one of these kinds;
// callers branch on the machine code, never on message text.
//
// Pattern: Sentinel Codes + Custom Error Type with context fields
package errors

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Code is a stable machine-readable error kind.
type Code string

const (
	// CodeValidation - input violated a precondition (bad amount, empty id, ...).
	CodeValidation Code = "VALIDATION"
	// CodeNotFound - wallet, account or asset does not exist.
	CodeNotFound Code = "NOT_FOUND"
	// CodeInsufficientBalance - source wallet would go below its floor.
	CodeInsufficientBalance Code = "INSUFFICIENT_BALANCE"
	// CodeDuplicateTransaction - idempotency key collision with no cached
	// response available.
	CodeDuplicateTransaction Code = "DUPLICATE_TRANSACTION"
	// CodeConstraintViolation - storage-layer CHECK failed. Should be
	// unreachable; the balance floor is verified before the write.
	CodeConstraintViolation Code = "CONSTRAINT_VIOLATION"
	// CodeDeadlockDetected - the store aborted the transaction to break a
	// deadlock. Retryable.
	CodeDeadlockDetected Code = "DEADLOCK_DETECTED"
	// CodeSerializationFailure - concurrent modification under a stricter
	// isolation level. Retryable.
	CodeSerializationFailure Code = "SERIALIZATION_FAILURE"
	// CodeStatementTimeout - the server cancelled a statement that exceeded
	// the configured statement timeout. Retryable.
	CodeStatementTimeout Code = "STATEMENT_TIMEOUT"
	// CodeConnectionTimeout - acquiring a pooled connection timed out.
	// Retryable.
	CodeConnectionTimeout Code = "CONNECTION_TIMEOUT"
	// CodeInternal - unclassified failure.
	CodeInternal Code = "INTERNAL"
)

// Retryable kinds: the caller may resubmit the same request (same
// idempotency key) and still get at-most-once semantics.
var retryableCodes = map[Code]bool{
	CodeDeadlockDetected:     true,
	CodeSerializationFailure: true,
	CodeStatementTimeout:     true,
	CodeConnectionTimeout:    true,
}

// Error is the single error type surfaced by the core.
type Error struct {
	Code    Code
	Message string
	Context map[string]interface{} // structured context fields (wallet_id, requested, ...)
	Err     error                  // underlying cause, kept for the error chain
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements error unwrapping for errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether the caller may safely retry the operation.
func (e *Error) Retryable() bool {
	return retryableCodes[e.Code]
}

// New creates an error of the given kind.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates an error of the given kind around an underlying cause.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// NewValidation creates a validation error for a specific field.
func NewValidation(field, message string) *Error {
	return &Error{
		Code:    CodeValidation,
		Message: fmt.Sprintf("validation failed for field '%s': %s", field, message),
		Context: map[string]interface{}{"field": field},
	}
}

// NewNotFound creates a not-found error for an entity.
func NewNotFound(entity, detail string) *Error {
	msg := fmt.Sprintf("%s not found", entity)
	if detail != "" {
		msg = fmt.Sprintf("%s not found: %s", entity, detail)
	}
	return &Error{Code: CodeNotFound, Message: msg, Context: map[string]interface{}{"entity": entity}}
}

// NewInsufficientBalance carries the wallet id and the requested/available
// amounts, both in the asset's smallest unit.
func NewInsufficientBalance(walletID uuid.UUID, requested, available int64) *Error {
	return &Error{
		Code:    CodeInsufficientBalance,
		Message: fmt.Sprintf("insufficient balance: requested %d, available %d", requested, available),
		Context: map[string]interface{}{
			"wallet_id": walletID.String(),
			"requested": requested,
			"available": available,
		},
	}
}

// NewDuplicateTransaction is surfaced only when the idempotency key collided
// and no cached response could be recovered.
func NewDuplicateTransaction(key string) *Error {
	return &Error{
		Code:    CodeDuplicateTransaction,
		Message: "transaction with this idempotency key already exists",
		Context: map[string]interface{}{"idempotency_key": key},
	}
}

// NewInternal wraps an unclassified failure.
func NewInternal(err error) *Error {
	return &Error{Code: CodeInternal, Message: "internal error", Err: err}
}

// CodeOf extracts the taxonomy code from any error in the chain.
// Unclassified errors report CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// IsCode checks whether err carries the given taxonomy code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// IsNotFound checks for the NOT_FOUND kind.
func IsNotFound(err error) bool {
	return IsCode(err, CodeNotFound)
}

// IsValidation checks for the VALIDATION kind.
func IsValidation(err error) bool {
	return IsCode(err, CodeValidation)
}

// IsRetryable reports whether the error is one of the retryable kinds.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable()
	}
	return false
}
