package errors

import "errors"

var (
	ErrNotFound = errors.New("payment intent not found")

	ErrInvalidID = errors.New("invalid payment intent ID format")

	// ErrAlreadyReconciled means the conditional completion write matched no
	// pending intent: a concurrent reconcile already finished it.
	ErrAlreadyReconciled = errors.New("payment intent already reconciled")
)
