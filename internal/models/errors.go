package models

import "errors"

var (
	// ErrValidation rejects bad user input before any state change.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a reference to an asset that is not in the ledger.
	ErrNotFound = errors.New("not found")
)
