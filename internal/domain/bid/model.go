package bid

import "time"

// Bid is a single immutable submission against a project.
type Bid struct {
	Bidder    string    `json:"bidder"`
	Amount    float64   `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

// Same reports whether two bids are the same event: timestamp, bidder and
// amount must all match exactly.
func (b Bid) Same(other Bid) bool {
	return b.Timestamp.Equal(other.Timestamp) &&
		b.Bidder == other.Bidder &&
		b.Amount == other.Amount
}

// Histories maps a project ID to its bid history in arrival order.
type Histories map[string][]Bid

// Clone returns a deep copy so callers can hand the value across goroutines.
func (h Histories) Clone() Histories {
	out := make(Histories, len(h))
	for projectID, bids := range h {
		out[projectID] = append([]Bid(nil), bids...)
	}
	return out
}
