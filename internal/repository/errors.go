package repository

import "errors"

var (
	// ErrQuotaExceeded is returned when a value does not fit in the storage origin
	ErrQuotaExceeded = errors.New("storage quota exceeded")

	// ErrWriteDenied is returned when the storage origin refuses writes
	ErrWriteDenied = errors.New("storage write denied")

	// ErrClosed is returned when a handle is used after Close
	ErrClosed = errors.New("storage handle closed")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
)
