// Package workflow drives ticket status through its lifecycle and appends
// comments. All writes go through the gateway; the projection's next push is
// the source of truth for whether a write was observed, so nothing here
// mutates local state optimistically.
package workflow

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/gateway"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// Controller coordinates ticket workflows.
type Controller struct {
	gw     gateway.Gateway
	logger *zap.Logger
	now    func() time.Time
}

// NewController constructs the controller.
func NewController(gw gateway.Gateway, logger *zap.Logger) *Controller {
	return &Controller{gw: gw, logger: logger, now: time.Now}
}

// CreateTicketInput describes ticket creation payload.
type CreateTicketInput struct {
	Title       string
	Description string
	Category    string
	Priority    domain.TicketPriority
}

var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusPending:  {domain.TicketStatusResolved, domain.TicketStatusRejected, domain.TicketStatusClosed},
	domain.TicketStatusResolved: {domain.TicketStatusClosed},
	domain.TicketStatusRejected: {},
	domain.TicketStatusClosed:   {},
}

func isValidTransition(current, next domain.TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// CreateTicket validates input and creates a pending ticket stamped with the
// actor's identity and gateway-assigned timestamps.
func (c *Controller) CreateTicket(ctx context.Context, actor domain.Identity, input CreateTicketInput) (string, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	category := strings.TrimSpace(input.Category)
	if title == "" || description == "" || category == "" {
		return "", apperrors.NewValidationError("title, description, category required", nil)
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}

	id, err := c.gw.CreateDocument(ctx, gateway.CollectionTickets, map[string]any{
		"title":       title,
		"description": description,
		"category":    category,
		"priority":    priority,
		"status":      domain.TicketStatusPending,
		"userId":      actor.UID,
		"userEmail":   actor.Email,
		"userName":    actor.DisplayName,
		"createdAt":   gateway.ServerTimestamp,
		"updatedAt":   gateway.ServerTimestamp,
	})
	if err != nil {
		return "", apperrors.NewWriteError("ticket create", err)
	}
	c.logger.Info("ticket created", zap.String("id", id), zap.String("user", actor.UID))
	return id, nil
}

// GetTicket fetches one ticket by id. A missing ticket is reported as not
// found, distinct from permission failures.
func (c *Controller) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	doc, err := c.gw.GetDocument(ctx, gateway.CollectionTickets, id)
	if err != nil {
		if err == gateway.ErrNotFound {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
		}
		return nil, err
	}
	ticket, err := domain.DecodeTicket(doc)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// Transition commits a single-phase status change. The rejected status is
// not reachable here: it requires the staged flow so a reason is always
// captured before the write.
func (c *Controller) Transition(ctx context.Context, ticketID string, next domain.TicketStatus) error {
	if next == domain.TicketStatusRejected {
		return apperrors.NewValidationError("rejection requires a staged reason", nil)
	}
	ticket, err := c.GetTicket(ctx, ticketID)
	if err != nil {
		return err
	}
	if !isValidTransition(ticket.Status, next) {
		return apperrors.NewValidationError("invalid status transition", map[string]any{
			"from": ticket.Status,
			"to":   next,
		})
	}

	patch := map[string]any{
		"status":    next,
		"updatedAt": gateway.ServerTimestamp,
	}
	if err := c.gw.WriteDocument(ctx, gateway.CollectionTickets, ticketID, patch); err != nil {
		return apperrors.NewWriteError("status update", err)
	}
	c.logger.Info("ticket status updated",
		zap.String("id", ticketID),
		zap.String("from", string(ticket.Status)),
		zap.String("to", string(next)))
	return nil
}

// StagedRejection holds a pending rejection: the target ticket is staged and
// nothing is written until Commit. Single use.
type StagedRejection struct {
	c        *Controller
	ticketID string

	mu   sync.Mutex
	done bool
}

// StageRejection begins the two-phase rejection flow for a ticket. No write
// happens until the returned value is committed.
func (c *Controller) StageRejection(ticketID string) *StagedRejection {
	return &StagedRejection{c: c, ticketID: ticketID}
}

// TicketID names the staged target.
func (r *StagedRejection) TicketID() string {
	return r.ticketID
}

// Commit writes status, reason and updatedAt in one merge-write.
func (r *StagedRejection) Commit(ctx context.Context, reason string) error {
	r.mu.Lock()
	if r.done {
		r.mu.Unlock()
		return apperrors.NewValidationError("rejection no longer staged", nil)
	}
	r.done = true
	r.mu.Unlock()

	ticket, err := r.c.GetTicket(ctx, r.ticketID)
	if err != nil {
		return err
	}
	if !isValidTransition(ticket.Status, domain.TicketStatusRejected) {
		return apperrors.NewValidationError("invalid status transition", map[string]any{
			"from": ticket.Status,
			"to":   domain.TicketStatusRejected,
		})
	}

	patch := map[string]any{
		"status":          domain.TicketStatusRejected,
		"rejectionReason": reason,
		"updatedAt":       gateway.ServerTimestamp,
	}
	if err := r.c.gw.WriteDocument(ctx, gateway.CollectionTickets, r.ticketID, patch); err != nil {
		return apperrors.NewWriteError("ticket rejection", err)
	}
	r.c.logger.Info("ticket rejected", zap.String("id", r.ticketID))
	return nil
}

// Cancel discards the staged rejection with zero writes.
func (r *StagedRejection) Cancel() {
	r.mu.Lock()
	r.done = true
	r.mu.Unlock()
}

// AddComment appends one update entry to the ticket. Whitespace-only text is
// rejected locally, before any gateway call.
func (c *Controller) AddComment(ctx context.Context, ticketID string, actor domain.Identity, text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return apperrors.NewValidationError("comment text required", nil)
	}

	ticket, err := c.GetTicket(ctx, ticketID)
	if err != nil {
		return err
	}

	updates := append(ticket.Updates, domain.TicketUpdate{
		Text:      trimmed,
		CreatedAt: c.now(),
		CreatedBy: actor.Email,
	})
	patch := map[string]any{"updates": updates}
	if err := c.gw.WriteDocument(ctx, gateway.CollectionTickets, ticketID, patch); err != nil {
		return apperrors.NewWriteError("comment append", err)
	}
	return nil
}
