package bid

// EventKind tags the variant carried by an Event.
type EventKind string

const (
	// KindDelta carries a single new bid.
	KindDelta EventKind = "delta"
	// KindFullSync carries a project's complete stored history.
	KindFullSync EventKind = "full_sync"
)

// Source names the channel an event arrived on.
type Source string

const (
	SourceChannel Source = "channel"
	SourceStorage Source = "storage"
	SourceLocal   Source = "local"
)

// Event is the single inbound shape every transport adapts into before the
// controller sees it.
type Event struct {
	Kind      EventKind
	Source    Source
	ProjectID string
	Bid       Bid   // set for KindDelta
	Bids      []Bid // set for KindFullSync
}

// Delta builds a single-bid event.
func Delta(source Source, projectID string, b Bid) Event {
	return Event{Kind: KindDelta, Source: source, ProjectID: projectID, Bid: b}
}

// FullSync builds a full-history event.
func FullSync(source Source, projectID string, bids []Bid) Event {
	return Event{
		Kind:      KindFullSync,
		Source:    source,
		ProjectID: projectID,
		Bids:      append([]Bid(nil), bids...),
	}
}
