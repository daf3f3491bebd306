// Package pipeline applies filter and sort criteria to a materialized ticket
// list. Pure functions, no I/O: the input snapshot is never mutated.
package pipeline

import (
	"sort"
	"strings"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// FilterCriteria narrows a ticket list. Empty fields (or the literal "all")
// mean no constraint.
type FilterCriteria struct {
	Search   string
	Status   string
	Priority string
	Category string
}

// SortField selects the sort key.
type SortField string

const (
	SortByCreatedAt SortField = "createdAt"
	SortByPriority  SortField = "priority"
)

// SortOrder selects direction.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// SortCriteria orders a ticket list. The zero value sorts by createdAt
// descending, most recent first.
type SortCriteria struct {
	Field SortField
	Order SortOrder
}

// Apply filters and sorts a snapshot. The sort is stable: ties keep their
// original snapshot order, so the output is fully deterministic for a given
// input.
func Apply(items []domain.Ticket, filter FilterCriteria, sortBy SortCriteria) []domain.Ticket {
	out := make([]domain.Ticket, 0, len(items))
	for _, t := range items {
		if matches(t, filter) {
			out = append(out, t)
		}
	}

	field := sortBy.Field
	if field == "" {
		field = SortByCreatedAt
	}
	order := sortBy.Order
	if order == "" {
		order = OrderDesc
	}

	switch field {
	case SortByPriority:
		sort.SliceStable(out, func(i, j int) bool {
			ri, rj := out[i].Priority.SeverityRank(), out[j].Priority.SeverityRank()
			if order == OrderAsc {
				return ri < rj
			}
			// descending severity, but unknown priorities still sort last
			unknown := domain.TicketPriority("").SeverityRank()
			if ri == unknown || rj == unknown {
				return ri < rj
			}
			return ri > rj
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			if order == OrderAsc {
				return out[i].CreatedAt.Before(out[j].CreatedAt)
			}
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
	}
	return out
}

func matches(t domain.Ticket, f FilterCriteria) bool {
	if search := strings.ToLower(strings.TrimSpace(f.Search)); search != "" {
		if !strings.Contains(strings.ToLower(t.Title), search) &&
			!strings.Contains(strings.ToLower(t.Category), search) &&
			!strings.Contains(strings.ToLower(t.UserEmail), search) {
			return false
		}
	}
	if constrained(f.Status) && string(t.Status) != f.Status {
		return false
	}
	if constrained(f.Priority) && string(t.Priority) != f.Priority {
		return false
	}
	if constrained(f.Category) && t.Category != f.Category {
		return false
	}
	return true
}

// constrained treats both the empty string and the literal "all" as
// no-constraint; the two conventions coexist across consumers.
func constrained(value string) bool {
	return value != "" && value != "all"
}
