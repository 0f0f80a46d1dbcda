package errors

import "errors"

var (
	ErrNotFound = errors.New("bike not found")

	ErrInvalidID = errors.New("invalid bike ID format")

	// ErrNotClaimable means the conditional Ready->Reserved claim matched no
	// document: the bike was concurrently claimed or is not Ready.
	ErrNotClaimable = errors.New("bike is not claimable")

	ErrHasBookings = errors.New("bike has booking history")
)
