package dto

import "time"

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
}

// UpdateStatusRequest payload for single-phase transitions.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// RejectTicketRequest payload for committing a staged rejection.
type RejectTicketRequest struct {
	Reason string `json:"reason"`
}

// AddCommentRequest payload.
type AddCommentRequest struct {
	Text string `json:"text"`
}

// UpdateEntry is one appended comment.
type UpdateEntry struct {
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by"`
}

// TicketSummary is the list representation.
type TicketSummary struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Category        string    `json:"category"`
	Priority        string    `json:"priority"`
	Status          string    `json:"status"`
	UserEmail       string    `json:"user_email"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// TicketDetail is the full representation.
type TicketDetail struct {
	TicketSummary
	Description string        `json:"description"`
	UserID      string        `json:"user_id"`
	UserName    string        `json:"user_name"`
	Updates     []UpdateEntry `json:"updates"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// UserStatsResponse is the user-scoped dashboard payload.
type UserStatsResponse struct {
	TotalTickets    int      `json:"total_tickets"`
	ResolvedTickets int      `json:"resolved_tickets"`
	PendingTickets  int      `json:"pending_tickets"`
	UrgentTickets   int      `json:"urgent_tickets"`
	ResolutionRate  *float64 `json:"resolution_rate,omitempty"`
}

// GlobalStatsResponse is the admin dashboard payload.
type GlobalStatsResponse struct {
	TotalUsers      int      `json:"total_users"`
	TotalTickets    int      `json:"total_tickets"`
	ResolvedTickets int      `json:"resolved_tickets"`
	PendingTickets  int      `json:"pending_tickets"`
	RejectedTickets int      `json:"rejected_tickets"`
	ResolutionRate  *float64 `json:"resolution_rate,omitempty"`
}
