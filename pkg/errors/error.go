// Package errors provides coded errors for the signal engine.
//
// Codes are grouped by concern:
//   - General errors (1-99)
//   - Validation and configuration errors (100-199)
//   - Market data errors (200-299)
//   - Indicator errors (300-399)
//   - Persistence errors (400-499): cooldown ledger and signal journal
//
// None of these are fatal to a scan: callers downgrade them to "no signal"
// for the affected symbol.
//
//	err := errors.Wrap(errors.ErrCodeLedgerFailed, "failed to read cooldown", cause)
//	if errors.HasCode(err, errors.ErrCodeLedgerFailed) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error is an error carrying an ErrorCode and an optional cause.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   nil,
	}
}

// Wrap attaches a code and message to cause.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is wraps the standard errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps the standard errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Join wraps the standard errors.Join.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// GetCode returns the code of the first *Error in err's chain, or ErrCodeUnknown.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrCodeUnknown
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// InsufficientDataError reports a candle sequence shorter than an indicator lookback.
type InsufficientDataError struct {
	Indicator string
	Required  int
	Actual    int
}

// NewInsufficientDataError creates a new InsufficientDataError.
func NewInsufficientDataError(indicator string, required, actual int) *InsufficientDataError {
	return &InsufficientDataError{
		Indicator: indicator,
		Required:  required,
		Actual:    actual,
	}
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient history for %s: required %d candles, got %d", e.Indicator, e.Required, e.Actual)
}

// IsInsufficientDataError checks the chain for an InsufficientDataError.
func IsInsufficientDataError(err error) bool {
	var insufficientErr *InsufficientDataError

	return errors.As(err, &insufficientErr)
}
