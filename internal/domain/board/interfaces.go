package board

import (
	"context"

	"github.com/rpggio/bidsync/internal/domain/activity"
	"github.com/rpggio/bidsync/internal/domain/bid"
	"github.com/rpggio/bidsync/internal/domain/project"
)

// BidStore persists the histories of every project. Implementations fail
// soft and never report errors. Save returns what it wrote, which may hold
// bids other tabs stored since the last read.
type BidStore interface {
	Load(ctx context.Context) bid.Histories
	Save(ctx context.Context, histories bid.Histories) bid.Histories
}

// Publisher announces a bid placed in this tab to every tab.
type Publisher interface {
	Publish(ctx context.Context, projectID string, b bid.Bid)
}

// ActivityRecorder records applied events.
type ActivityRecorder interface {
	Record(ctx context.Context, entry activity.Entry)
}

// ViewListener receives the full view after every change.
type ViewListener func(views []project.View)
