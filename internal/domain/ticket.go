package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets. This is the
// vocabulary of the write path; legacy display values such as "open" or
// "in-progress" can still appear on old documents and are carried through
// untouched.
type TicketStatus string

const (
	TicketStatusPending  TicketStatus = "pending"
	TicketStatusResolved TicketStatus = "resolved"
	TicketStatusRejected TicketStatus = "rejected"
	TicketStatusClosed   TicketStatus = "closed"
)

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

var priorityRank = map[TicketPriority]int{
	TicketPriorityUrgent: 0,
	TicketPriorityHigh:   1,
	TicketPriorityMedium: 2,
	TicketPriorityLow:    3,
}

// SeverityRank returns the sort rank of a priority, most severe first.
// Priorities outside the enumerated set rank after all known ones.
func (p TicketPriority) SeverityRank() int {
	if rank, ok := priorityRank[p]; ok {
		return rank
	}
	return len(priorityRank)
}

// TicketUpdate is one appended comment on a ticket. The updates sequence is
// append-only; entries are never edited or removed.
type TicketUpdate struct {
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy"`
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID              string         `json:"-"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	Category        string         `json:"category"`
	Priority        TicketPriority `json:"priority"`
	Status          TicketStatus   `json:"status"`
	UserID          string         `json:"userId"`
	UserEmail       string         `json:"userEmail"`
	UserName        string         `json:"userName"`
	RejectionReason string         `json:"rejectionReason,omitempty"`
	Updates         []TicketUpdate `json:"updates,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}
