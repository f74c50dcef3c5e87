package utils

import "fmt"

// ValidationError reports missing or out-of-range input. The operation is
// aborted before any commit.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func NewValidationError(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a missing booking or shop.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ConflictError reports an attempt to claim a slot already held by an
// active booking.
type ConflictError struct {
	ShopID string
	Date   string
	Time   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("slot %s %s at shop %s is already booked", e.Date, e.Time, e.ShopID)
}

// TransientError reports a store or network failure the caller may retry.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s failed transiently: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// PartialFailure reports that the primary state change committed but a
// downstream side effect failed. It is a warning, not a rollback signal:
// callers surface it and move on.
type PartialFailure struct {
	Warning string
	Err     error
}

func (e *PartialFailure) Error() string {
	return fmt.Sprintf("%s: %v", e.Warning, e.Err)
}

func (e *PartialFailure) Unwrap() error { return e.Err }
