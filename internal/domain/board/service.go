// Package board is the project state controller of one tab. It owns the
// loaded projects and their bid histories, validates new bids against the
// ledger and applies inbound sync events.
package board

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/rpggio/bidsync/internal/domain/activity"
	"github.com/rpggio/bidsync/internal/domain/bid"
	"github.com/rpggio/bidsync/internal/domain/project"
)

// Service handles bidding for the projects loaded into a tab.
type Service struct {
	store     BidStore
	publisher Publisher
	activity  ActivityRecorder
	logger    *slog.Logger
	clock     func() time.Time

	mu        sync.Mutex
	projects  []project.Project
	index     map[string]int
	histories bid.Histories
	listeners map[int]ViewListener
	nextID    int

	// saveMu serializes persistence so a slower save never writes an older
	// snapshot over a newer one.
	saveMu sync.Mutex
}

// NewService creates a controller over projects, kept in the given order.
// Duplicate IDs keep the first occurrence. activity may be nil.
func NewService(
	projects []project.Project,
	store BidStore,
	publisher Publisher,
	recorder ActivityRecorder,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		store:     store,
		publisher: publisher,
		activity:  recorder,
		logger:    logger,
		clock:     time.Now,
		index:     make(map[string]int, len(projects)),
		histories: bid.Histories{},
		listeners: map[int]ViewListener{},
	}
	for _, p := range projects {
		if _, dup := s.index[p.ID]; dup {
			logger.Warn("duplicate project id ignored", "project_id", p.ID)
			continue
		}
		s.index[p.ID] = len(s.projects)
		s.projects = append(s.projects, p)
	}
	return s
}

// WithClock replaces the time source used for bid timestamps and status.
func (s *Service) WithClock(clock func() time.Time) *Service {
	if clock != nil {
		s.clock = clock
	}
	return s
}

// Hydrate merges the persisted histories into memory.
func (s *Service) Hydrate(ctx context.Context) {
	loaded := s.store.Load(ctx)

	s.mu.Lock()
	before := s.histories
	s.histories = bid.MergeHistories(loaded, before)
	changed := !sameHistories(before, s.histories)
	views := s.viewsLocked(s.clock())
	s.mu.Unlock()

	s.logger.Debug("hydrated bid histories", "projects", len(loaded))
	if changed {
		s.notify(views)
	}
}

// PlaceBid validates and records a bid, persists it and announces it to the
// other tabs. Only validation and lifecycle errors are returned; storage and
// channel failures are logged by their layers.
func (s *Service) PlaceBid(ctx context.Context, projectID, bidder string, amount float64) (bid.Bid, error) {
	s.mu.Lock()
	i, ok := s.index[projectID]
	if !ok {
		s.mu.Unlock()
		return bid.Bid{}, fmt.Errorf("%w: %s", ErrProjectNotFound, projectID)
	}

	now := s.clock()
	if s.projects[i].StatusAt(now) == project.StatusClosed {
		s.mu.Unlock()
		s.recordRejection(ctx, projectID, bidder, amount, ErrBiddingClosed)
		return bid.Bid{}, fmt.Errorf("%w: project %s closed at %s", ErrBiddingClosed, projectID, s.projects[i].BidClose.Format(time.RFC3339))
	}

	history := s.histories[projectID]
	name, err := ValidateBid(bidder, amount, bid.HighestAmount(history))
	if err != nil {
		s.mu.Unlock()
		s.recordRejection(ctx, projectID, bidder, amount, err)
		return bid.Bid{}, err
	}

	placed := bid.Bid{Bidder: name, Amount: amount, Timestamp: now}
	s.histories[projectID], _ = bid.Merge(history, placed)
	views := s.viewsLocked(now)
	s.mu.Unlock()

	if s.persist(ctx) {
		views = s.View()
	}
	s.publisher.Publish(ctx, projectID, placed)
	s.record(ctx, activity.Entry{
		ProjectID: projectID,
		Type:      activity.TypeBidPlaced,
		Source:    string(bid.SourceLocal),
		Summary:   fmt.Sprintf("%s bid %.2f", placed.Bidder, placed.Amount),
	})
	s.notify(views)
	return placed, nil
}

// persist writes the latest histories and adopts bids the store merged in
// from other tabs. It reports whether that changed the local histories.
func (s *Service) persist(ctx context.Context) bool {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	snapshot := s.histories.Clone()
	s.mu.Unlock()

	written := s.store.Save(ctx, snapshot)

	projectIDs := make([]string, 0, len(written))
	for projectID := range written {
		projectIDs = append(projectIDs, projectID)
	}
	sort.Strings(projectIDs)

	changed := false
	for _, projectID := range projectIDs {
		if s.Apply(bid.FullSync(bid.SourceStorage, projectID, written[projectID])) {
			changed = true
			s.logger.Debug("adopted bids merged on save", "project_id", projectID)
		}
	}
	return changed
}

// View returns every loaded project in load order with its derived state.
func (s *Service) View() []project.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewsLocked(s.clock())
}

// Project returns the view of one project.
func (s *Service) Project(projectID string) (project.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[projectID]
	if !ok {
		return project.View{}, fmt.Errorf("%w: %s", ErrProjectNotFound, projectID)
	}
	return project.NewView(s.projects[i], s.histories[projectID], s.clock()), nil
}

// OnViewChanged registers fn to run after every change to the view. The
// returned function unregisters it.
func (s *Service) OnViewChanged(fn ViewListener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// Apply merges an inbound event into the local histories and reports whether
// they changed. A delta is appended unless already present. A full sync
// adopts the delivered order and re-appends local bids it lacks, so a
// history never shrinks. Histories of projects this tab does not show are
// kept too.
func (s *Service) Apply(ev bid.Event) bool {
	if ev.ProjectID == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.histories[ev.ProjectID]
	switch ev.Kind {
	case bid.KindDelta:
		next, added := bid.Merge(current, ev.Bid)
		if added {
			s.histories[ev.ProjectID] = next
		}
		return added
	case bid.KindFullSync:
		next := bid.Union(ev.Bids, current)
		if sameBids(current, next) {
			return false
		}
		s.histories[ev.ProjectID] = next
		return true
	default:
		s.logger.Warn("ignoring event of unknown kind", "kind", ev.Kind, "project_id", ev.ProjectID)
		return false
	}
}

// Run applies events sequentially until events is closed or ctx is done.
func (s *Service) Run(ctx context.Context, events <-chan bid.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			s.handle(ctx, ev)
		}
	}
}

func (s *Service) handle(ctx context.Context, ev bid.Event) {
	if !s.Apply(ev) {
		return
	}

	s.logger.Debug("applied sync event", "kind", ev.Kind, "source", ev.Source, "project_id", ev.ProjectID)
	entry := activity.Entry{ProjectID: ev.ProjectID, Source: string(ev.Source)}
	if ev.Kind == bid.KindDelta {
		entry.Type = activity.TypeBidReceived
		entry.Summary = fmt.Sprintf("%s bid %.2f", ev.Bid.Bidder, ev.Bid.Amount)
	} else {
		entry.Type = activity.TypeHistoryResynced
		entry.Summary = fmt.Sprintf("history resynced with %d bids", len(ev.Bids))
	}
	s.record(ctx, entry)
	s.notify(s.View())
}

func (s *Service) viewsLocked(now time.Time) []project.View {
	views := make([]project.View, 0, len(s.projects))
	for _, p := range s.projects {
		views = append(views, project.NewView(p, s.histories[p.ID], now))
	}
	return views
}

func (s *Service) notify(views []project.View) {
	s.mu.Lock()
	listeners := make([]ViewListener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(views)
	}
}

func (s *Service) record(ctx context.Context, entry activity.Entry) {
	if s.activity == nil {
		return
	}
	s.activity.Record(ctx, entry)
}

func (s *Service) recordRejection(ctx context.Context, projectID, bidder string, amount float64, reason error) {
	s.logger.Info("bid rejected", "project_id", projectID, "bidder", bidder, "amount", amount, "reason", reason)
	s.record(ctx, activity.Entry{
		ProjectID: projectID,
		Type:      activity.TypeBidRejected,
		Source:    string(bid.SourceLocal),
		Summary:   fmt.Sprintf("%q bid %.2f rejected: %v", bidder, amount, reason),
	})
}

func sameBids(a, b []bid.Bid) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Same(b[i]) {
			return false
		}
	}
	return true
}

func sameHistories(a, b bid.Histories) bool {
	if len(a) != len(b) {
		return false
	}
	for projectID, bids := range a {
		other, ok := b[projectID]
		if !ok || !sameBids(bids, other) {
			return false
		}
	}
	return true
}
