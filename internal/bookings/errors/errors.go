package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrStaleStatus means the conditional status update matched no document:
	// the booking moved out of the expected status concurrently.
	ErrStaleStatus = errors.New("booking status changed concurrently")
)
