package mcp

import (
	"time"

	"github.com/rpggio/bidsync/internal/domain/activity"
	"github.com/rpggio/bidsync/internal/domain/bid"
	"github.com/rpggio/bidsync/internal/domain/project"
)

type ListProjectsParams struct {
	Status   string `json:"status,omitempty" jsonschema:"only projects with this status: open or closed"`
	Category string `json:"category,omitempty" jsonschema:"only projects in this category"`
}

type GetProjectParams struct {
	ID string `json:"id" jsonschema:"project ID"`
}

type PlaceBidParams struct {
	ProjectID string  `json:"project_id" jsonschema:"project to bid on"`
	Bidder    string  `json:"bidder" jsonschema:"name of the bidder"`
	Amount    float64 `json:"amount" jsonschema:"bid amount, must exceed the current highest bid"`
}

type ProjectActivityParams struct {
	ProjectID string `json:"project_id" jsonschema:"project whose activity to list"`
	Type      string `json:"type,omitempty" jsonschema:"bid_placed, bid_received, history_resynced or bid_rejected"`
	Limit     int    `json:"limit,omitempty" jsonschema:"maximum number of entries"`
	Offset    int    `json:"offset,omitempty"`
}

type BidView struct {
	Bidder    string  `json:"bidder"`
	Amount    float64 `json:"amount"`
	Timestamp string  `json:"timestamp"`
}

type ProjectView struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	BudgetMin   float64   `json:"budget_min"`
	BudgetMax   float64   `json:"budget_max"`
	BidClose    string    `json:"bid_close"`
	Status      string    `json:"status"`
	Bids        []BidView `json:"bids"`
	HighestBid  *BidView  `json:"highest_bid,omitempty"`
}

type ActivityView struct {
	ID        int64  `json:"id"`
	TabID     string `json:"tab_id"`
	ProjectID string `json:"project_id"`
	Type      string `json:"type"`
	Source    string `json:"source,omitempty"`
	Summary   string `json:"summary"`
	CreatedAt string `json:"created_at"`
}

type ListProjectsResult struct {
	Projects []ProjectView `json:"projects"`
}

type GetProjectResult struct {
	Project ProjectView `json:"project"`
}

type PlaceBidResult struct {
	Bid     BidView     `json:"bid"`
	Project ProjectView `json:"project"`
}

type ProjectActivityResult struct {
	Entries []ActivityView `json:"entries"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func toBidView(b bid.Bid) BidView {
	return BidView{Bidder: b.Bidder, Amount: b.Amount, Timestamp: formatTime(b.Timestamp)}
}

func toProjectView(v project.View) ProjectView {
	out := ProjectView{
		ID:          v.ID,
		Title:       v.Title,
		Description: v.Description,
		Category:    v.Category,
		BudgetMin:   v.BudgetMin,
		BudgetMax:   v.BudgetMax,
		BidClose:    formatTime(v.BidClose),
		Status:      string(v.Status),
		Bids:        make([]BidView, 0, len(v.Bids)),
	}
	for _, b := range v.Bids {
		out.Bids = append(out.Bids, toBidView(b))
	}
	if v.HighestBid != nil {
		highest := toBidView(*v.HighestBid)
		out.HighestBid = &highest
	}
	return out
}

func toActivityView(e activity.Entry) ActivityView {
	return ActivityView{
		ID:        e.ID,
		TabID:     e.TabID,
		ProjectID: e.ProjectID,
		Type:      string(e.Type),
		Source:    e.Source,
		Summary:   e.Summary,
		CreatedAt: formatTime(e.CreatedAt),
	}
}
