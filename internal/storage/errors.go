package storage

import "errors"

// Storage errors shared by all ledger backends.
var (
	// ErrSourceUnavailable is returned when the transaction source cannot be
	// reached at all (bad DSN, connection refused). It is a configuration
	// error and is fatal to a run.
	ErrSourceUnavailable = errors.New("transaction source unavailable")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
