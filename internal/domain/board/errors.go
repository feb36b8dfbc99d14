package board

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidBid matches every *ValidationError.
	ErrInvalidBid = errors.New("invalid bid")
	// ErrBiddingClosed indicates the project's bid close has passed.
	ErrBiddingClosed = errors.New("bidding closed")
	// ErrProjectNotFound indicates the project ID is not loaded in this tab.
	ErrProjectNotFound = errors.New("project not found")
)

// ValidationError rejects a bid because of one field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is(err, ErrInvalidBid) match.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidBid
}
