package board

import (
	"fmt"
	"math"
	"strings"
)

// ValidateBid checks a submission against the current highest amount, which
// is 0 when the project has no bids. It returns the trimmed bidder name.
func ValidateBid(bidder string, amount, highest float64) (string, error) {
	name := strings.TrimSpace(bidder)
	if name == "" {
		return "", &ValidationError{Field: "bidder", Message: "bidder name is required"}
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return "", &ValidationError{Field: "amount", Message: "amount must be a finite number"}
	}
	if amount <= 0 {
		return "", &ValidationError{Field: "amount", Message: "amount must be greater than zero"}
	}
	if amount <= highest {
		return "", &ValidationError{
			Field:   "amount",
			Message: fmt.Sprintf("bid must be higher than the current highest bid of %.2f", highest),
		}
	}
	return name, nil
}
