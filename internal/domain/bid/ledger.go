package bid

// HighestOf returns the bid with the largest amount. The fold only replaces
// the accumulator on a strictly greater amount, so the earliest bid at the
// maximum wins. It returns false for an empty history.
func HighestOf(bids []Bid) (Bid, bool) {
	if len(bids) == 0 {
		return Bid{}, false
	}
	highest := bids[0]
	for _, b := range bids[1:] {
		if b.Amount > highest.Amount {
			highest = b
		}
	}
	return highest, true
}

// HighestAmount returns the current highest amount, or 0 when there are no bids.
func HighestAmount(bids []Bid) float64 {
	highest, ok := HighestOf(bids)
	if !ok {
		return 0
	}
	return highest.Amount
}

// Contains reports whether the history already holds the given bid event.
func Contains(bids []Bid, b Bid) bool {
	for _, existing := range bids {
		if existing.Same(b) {
			return true
		}
	}
	return false
}

// Merge appends b to the history unless it is already present. The returned
// bool reports whether the history grew.
func Merge(bids []Bid, b Bid) ([]Bid, bool) {
	if Contains(bids, b) {
		return bids, false
	}
	return append(bids, b), true
}

// Union keeps base in order and appends every bid from extra that base lacks.
// The result never aliases base.
func Union(base, extra []Bid) []Bid {
	out := make([]Bid, 0, len(base)+len(extra))
	out = append(out, base...)
	for _, b := range extra {
		out, _ = Merge(out, b)
	}
	return out
}

// MergeHistories unions two aggregates project by project, base order first.
func MergeHistories(base, extra Histories) Histories {
	out := make(Histories, len(base)+len(extra))
	for projectID, bids := range base {
		out[projectID] = Union(bids, extra[projectID])
	}
	for projectID, bids := range extra {
		if _, ok := out[projectID]; ok {
			continue
		}
		out[projectID] = append([]Bid(nil), bids...)
	}
	return out
}
