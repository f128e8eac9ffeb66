package storage

import "errors"

// Ledger errors. Substrates return these unwrapped or wrapped with %w.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when inserting a record whose address already exists.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStaleStatus is returned by a status compare-and-set when the stored
	// status no longer matches the expected one.
	ErrStaleStatus = errors.New("stale status")

	// ErrInsufficientBalance is returned when a transfer source cannot cover the amount.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrReadOnly is returned for writes attempted inside View.
	ErrReadOnly = errors.New("read-only transaction")
)
