package activity

import "time"

// Type represents the kind of sync event a tab recorded
type Type string

const (
	TypeBidPlaced       Type = "bid_placed"
	TypeBidReceived     Type = "bid_received"
	TypeHistoryResynced Type = "history_resynced"
	TypeBidRejected     Type = "bid_rejected"
)

// Entry represents an event in a tab's activity log
type Entry struct {
	ID        int64     `json:"id"`
	TabID     string    `json:"tab_id"`
	ProjectID string    `json:"project_id"`
	Type      Type      `json:"type"`
	Source    string    `json:"source,omitempty"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
}
