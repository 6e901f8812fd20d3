package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrInsufficientLiquidity indicates that a pool cannot cover a requested reservation.
var ErrInsufficientLiquidity = errors.New("insufficient liquidity")

// ErrRail indicates that an external payment rail rejected or failed a call.
var ErrRail = errors.New("payment rail error")

// ErrDataIntegrity indicates stored state that contradicts an invariant,
// such as consuming more than was reserved. Never retried.
var ErrDataIntegrity = errors.New("data integrity violation")

// ErrInvalidTransition indicates a transaction status change that the state machine forbids.
var ErrInvalidTransition = errors.New("invalid status transition")

// AppError carries an HTTP-ish status code alongside a wrapped cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError wraps err with a code and message.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewValidationError returns an AppError that matches ErrValidation.
func NewValidationError(message string) *AppError {
	return &AppError{Code: 400, Message: message, Err: ErrValidation}
}

// NewNotFoundError returns an AppError that matches ErrNotFound.
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: 404, Message: message, Err: ErrNotFound}
}

// NewDataIntegrityError returns an AppError that matches ErrDataIntegrity.
func NewDataIntegrityError(message string) *AppError {
	return &AppError{Code: 500, Message: message, Err: ErrDataIntegrity}
}
