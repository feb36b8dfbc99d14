package mcp

import (
	"context"
	"strings"

	"github.com/rpggio/bidsync/internal/domain/activity"
	"github.com/rpggio/bidsync/internal/domain/bid"
	"github.com/rpggio/bidsync/internal/domain/project"
)

const defaultActivityLimit = 20

// BoardService defines the controller operations needed by MCP.
type BoardService interface {
	View() []project.View
	Project(projectID string) (project.View, error)
	PlaceBid(ctx context.Context, projectID, bidder string, amount float64) (bid.Bid, error)
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error)
}

// Handler implements the MCP tools on top of one tab.
type Handler struct {
	board    BoardService
	activity ActivityService
}

// NewHandler creates a new MCP handler. activitySvc may be nil.
func NewHandler(boardSvc BoardService, activitySvc ActivityService) *Handler {
	return &Handler{board: boardSvc, activity: activitySvc}
}

// ListProjects returns every project in load order, optionally filtered.
func (h *Handler) ListProjects(_ context.Context, req ListProjectsParams) (ListProjectsResult, error) {
	status := strings.ToLower(strings.TrimSpace(req.Status))
	switch project.Status(status) {
	case "", project.StatusOpen, project.StatusClosed:
	default:
		return ListProjectsResult{}, &APIError{Code: "INVALID_INPUT", Message: "status must be open or closed"}
	}

	out := ListProjectsResult{Projects: []ProjectView{}}
	for _, v := range h.board.View() {
		if status != "" && string(v.Status) != status {
			continue
		}
		if req.Category != "" && !strings.EqualFold(v.Category, req.Category) {
			continue
		}
		out.Projects = append(out.Projects, toProjectView(v))
	}
	return out, nil
}

// GetProject returns one project with its bids.
func (h *Handler) GetProject(_ context.Context, req GetProjectParams) (GetProjectResult, error) {
	v, err := h.board.Project(req.ID)
	if err != nil {
		return GetProjectResult{}, mapError(err)
	}
	return GetProjectResult{Project: toProjectView(v)}, nil
}

// PlaceBid submits a bid and returns it with the updated project.
func (h *Handler) PlaceBid(ctx context.Context, req PlaceBidParams) (PlaceBidResult, error) {
	placed, err := h.board.PlaceBid(ctx, req.ProjectID, req.Bidder, req.Amount)
	if err != nil {
		return PlaceBidResult{}, mapError(err)
	}
	v, err := h.board.Project(req.ProjectID)
	if err != nil {
		return PlaceBidResult{}, mapError(err)
	}
	return PlaceBidResult{Bid: toBidView(placed), Project: toProjectView(v)}, nil
}

// ProjectActivity lists recent sync activity for a project.
func (h *Handler) ProjectActivity(ctx context.Context, req ProjectActivityParams) (ProjectActivityResult, error) {
	if h.activity == nil {
		return ProjectActivityResult{}, &APIError{Code: "ACTIVITY_UNAVAILABLE", Message: "activity log is not enabled"}
	}
	if _, err := h.board.Project(req.ProjectID); err != nil {
		return ProjectActivityResult{}, mapError(err)
	}

	opts := activity.ListOptions{ProjectID: req.ProjectID, Limit: req.Limit, Offset: req.Offset}
	if opts.Limit <= 0 {
		opts.Limit = defaultActivityLimit
	}
	if req.Type != "" {
		typ := activity.Type(req.Type)
		opts.Type = &typ
	}

	entries, err := h.activity.GetRecentActivity(ctx, opts)
	if err != nil {
		return ProjectActivityResult{}, mapError(err)
	}
	out := ProjectActivityResult{Entries: make([]ActivityView, 0, len(entries))}
	for _, e := range entries {
		out.Entries = append(out.Entries, toActivityView(e))
	}
	return out, nil
}
