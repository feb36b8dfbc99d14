package project

import (
	"fmt"
	"strings"
	"time"

	"github.com/rpggio/bidsync/internal/domain/bid"
)

// Status is the bidding lifecycle state of a project. It is derived from the
// clock on every check and never stored.
type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// Project is a listing open for bidding until BidClose.
type Project struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	BudgetMin   float64   `json:"budgetMin"`
	BudgetMax   float64   `json:"budgetMax"`
	BidClose    time.Time `json:"bidClose"`
}

// StatusAt reports whether bidding is open at now. Closed is terminal.
func (p Project) StatusAt(now time.Time) Status {
	if now.Before(p.BidClose) {
		return StatusOpen
	}
	return StatusClosed
}

// Validate checks the fields the bidding core relies on.
func (p Project) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidProject)
	}
	if p.BidClose.IsZero() {
		return fmt.Errorf("%w: project %s has no bid close", ErrInvalidProject, p.ID)
	}
	if p.BudgetMax < p.BudgetMin {
		return fmt.Errorf("%w: project %s budget max below min", ErrInvalidProject, p.ID)
	}
	return nil
}

// View is a project joined with its derived bidding state.
type View struct {
	Project
	Bids       []bid.Bid `json:"bids"`
	HighestBid *bid.Bid  `json:"highestBid"`
	Status     Status    `json:"status"`
}

// NewView derives the highest bid and status for a project. The bid slice is
// copied so the view is safe to hand to other goroutines.
func NewView(p Project, bids []bid.Bid, now time.Time) View {
	v := View{
		Project: p,
		Bids:    append([]bid.Bid{}, bids...),
		Status:  p.StatusAt(now),
	}
	if highest, ok := bid.HighestOf(v.Bids); ok {
		v.HighestBid = &highest
	}
	return v
}
