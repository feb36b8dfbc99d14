package tabsync

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rpggio/bidsync/internal/bidstore"
	"github.com/rpggio/bidsync/internal/domain/bid"
	"github.com/rpggio/bidsync/internal/repository"
)

// MessageNewBid is the only envelope type on the broadcast channel.
const MessageNewBid = "new-bid"

var (
	// ErrMalformedMessage marks inbound payloads that are dropped.
	ErrMalformedMessage = errors.New("malformed sync message")
	// ErrChannelUnavailable marks broadcast channel open and post failures.
	ErrChannelUnavailable = errors.New("broadcast channel unavailable")
)

// Envelope is the JSON shape posted on the broadcast channel.
type Envelope struct {
	Type      string   `json:"type"`
	ProjectID string   `json:"projectId"`
	Bid       *bid.Bid `json:"bid"`
}

// EncodeEnvelope renders a new-bid message.
func EncodeEnvelope(projectID string, b bid.Bid) ([]byte, error) {
	return json.Marshal(Envelope{Type: MessageNewBid, ProjectID: projectID, Bid: &b})
}

// DecodeEnvelope turns a channel message into a delta event.
func DecodeEnvelope(data []byte) (bid.Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return bid.Event{}, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	if env.Type != MessageNewBid {
		return bid.Event{}, fmt.Errorf("%w: unexpected type %q", ErrMalformedMessage, env.Type)
	}
	if strings.TrimSpace(env.ProjectID) == "" {
		return bid.Event{}, fmt.Errorf("%w: missing projectId", ErrMalformedMessage)
	}
	if env.Bid == nil {
		return bid.Event{}, fmt.Errorf("%w: missing bid", ErrMalformedMessage)
	}
	b := *env.Bid
	if strings.TrimSpace(b.Bidder) == "" || !(b.Amount > 0) || b.Timestamp.IsZero() {
		return bid.Event{}, fmt.Errorf("%w: incomplete bid", ErrMalformedMessage)
	}
	return bid.Delta(bid.SourceChannel, env.ProjectID, b), nil
}

// DecodeStorageChange turns a write to the bid key into one full-sync event
// per project, in project ID order. Writes to other keys yield nothing.
func DecodeStorageChange(change repository.Change) ([]bid.Event, error) {
	if change.Key != bidstore.StorageKey {
		return nil, nil
	}
	histories, err := bidstore.Decode(change.NewValue)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}

	ids := make([]string, 0, len(histories))
	for projectID := range histories {
		ids = append(ids, projectID)
	}
	sort.Strings(ids)

	events := make([]bid.Event, 0, len(ids))
	for _, projectID := range ids {
		events = append(events, bid.FullSync(bid.SourceStorage, projectID, histories[projectID]))
	}
	return events, nil
}
