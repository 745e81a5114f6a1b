// Package apperror provides structured error handling for the ledger core.
// All business errors must use AppError so callers receive machine-readable
// codes and the HTTP layer can map them without string matching.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced by the settlement and ledger services.
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"

	// Validation errors (400)
	CodeValidation      = "VALIDATION_ERROR"
	CodeInvalidQuantity = "INVALID_QUANTITY"

	// Business rule violations (422)
	CodeBusinessRule           = "BUSINESS_RULE_VIOLATION"
	CodeInsufficientStock      = "INSUFFICIENT_STOCK"
	CodeReturnExceedsAvailable = "RETURN_EXCEEDS_AVAILABLE"
	CodeNoItemsReturned        = "NO_ITEMS_RETURNED"
	CodeOrderReceived          = "ORDER_ALREADY_RECEIVED"

	// Internal invariant breaches (500, logged as bugs)
	CodeLedgerInconsistent = "LEDGER_INCONSISTENT"

	// Transient write-write races (409, retryable)
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Authentication failures
	CodeUnauthorized = "UNAUTHORIZED"

	// Conflict (409)
	CodeConflict = "CONFLICT"
)

// AppError is the standard error type for the engine.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (quantities, entity ids, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error.
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions ---

// NewValidation creates a validation error (400).
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewInvalidQuantity flags a non-positive or missing quantity/unit price.
func NewInvalidQuantity(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidQuantity,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewUnauthorized creates an authentication error (401).
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewNotFound creates a not found error (404).
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewBusinessRule creates a business rule violation error (422).
func NewBusinessRule(code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewInsufficientStock is returned when a posting would drive a product
// balance negative. Fatal to the operation; never clamped or retried.
func NewInsufficientStock(productID string, requested, available int64) *AppError {
	return &AppError{
		Code:       CodeInsufficientStock,
		Message:    "Insufficient stock",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"product_id": productID,
			"requested":  requested,
			"available":  available,
		},
	}
}

// NewReturnExceedsAvailable flags a return quantity above the
// max-returnable amount for a sales order line.
func NewReturnExceedsAvailable(maxReturnable int64) *AppError {
	return &AppError{
		Code:       CodeReturnExceedsAvailable,
		Message:    "Return quantity exceeds available quantity",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"max_returnable": maxReturnable},
	}
}

// NewNoItemsReturned is returned when every line of a return has zero quantity.
func NewNoItemsReturned() *AppError {
	return &AppError{
		Code:       CodeNoItemsReturned,
		Message:    "At least one item must be returned",
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewLedgerInconsistent reports a broken balance chain. This indicates a
// bug, never a user error; the operation is aborted and the breach logged.
func NewLedgerInconsistent(productID string, cachedBalance, chainBalance int64) *AppError {
	return &AppError{
		Code:       CodeLedgerInconsistent,
		Message:    "Product balance does not match ledger chain",
		HTTPStatus: http.StatusInternalServerError,
		Details: map[string]any{
			"product_id":     productID,
			"cached_balance": cachedBalance,
			"chain_balance":  chainBalance,
		},
	}
}

// NewConcurrencyConflict reports a write-write race detected by the
// transaction layer. Retried a bounded number of times before surfacing.
func NewConcurrencyConflict(err error) *AppError {
	return &AppError{
		Code:       CodeConcurrencyConflict,
		Message:    "Concurrent modification detected. Please retry.",
		HTTPStatus: http.StatusConflict,
		Err:        err,
	}
}

// NewConflict creates a conflict error (409).
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewInternal creates an internal server error (hides details from clients).
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// --- Helpers ---

// IsAppError checks if err is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts an AppError from the error chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns the appropriate HTTP status for any error.
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsCode checks whether err is an AppError with the given code.
func IsCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if err is CodeNotFound.
func IsNotFound(err error) bool {
	return IsCode(err, CodeNotFound)
}

// IsConcurrencyConflict checks if err is CodeConcurrencyConflict.
func IsConcurrencyConflict(err error) bool {
	return IsCode(err, CodeConcurrencyConflict)
}
