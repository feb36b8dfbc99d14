package source

import (
	"fmt"
	"strings"
	"time"

	"github.com/rpggio/bidsync/internal/domain/project"
)

// record is the wire shape of one project.
type record struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	BudgetMin   float64 `json:"budgetMin"`
	BudgetMax   float64 `json:"budgetMax"`
	BidClose    string  `json:"bidClose"`
}

// bidCloseLayouts are tried in order. Values without a zone are UTC.
var bidCloseLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseBidClose(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range bidCloseLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized bidClose %q", value)
}

func decodeProjects(records []record) ([]project.Project, error) {
	if len(records) == 0 {
		return nil, ErrEmptyList
	}

	projects := make([]project.Project, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for i, r := range records {
		closeAt, err := parseBidClose(r.BidClose)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", project.ErrInvalidProject, i, err)
		}
		p := project.Project{
			ID:          strings.TrimSpace(r.ID),
			Title:       r.Title,
			Description: r.Description,
			Category:    r.Category,
			BudgetMin:   r.BudgetMin,
			BudgetMax:   r.BudgetMax,
			BidClose:    closeAt,
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %s", project.ErrInvalidProject, p.ID)
		}
		seen[p.ID] = struct{}{}
		projects = append(projects, p)
	}
	return projects, nil
}
