package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-core/internal/api/dto"
	"github.com/spec-kit/helpdesk-core/internal/auth"
	"github.com/spec-kit/helpdesk-core/internal/authz"
	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/gateway"
	"github.com/spec-kit/helpdesk-core/internal/pipeline"
	"github.com/spec-kit/helpdesk-core/internal/projection"
	"github.com/spec-kit/helpdesk-core/internal/stats"
	"github.com/spec-kit/helpdesk-core/internal/workflow"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// TicketsHandler manages end-user ticket endpoints.
type TicketsHandler struct {
	controller *workflow.Controller
	gw         gateway.Gateway
	gate       *authz.Gate
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(controller *workflow.Controller, gw gateway.Gateway, gate *authz.Gate) *TicketsHandler {
	return &TicketsHandler{controller: controller, gw: gw, gate: gate}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	id, err := h.controller.CreateTicket(c.UserContext(), identity, workflow.CreateTicketInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    domain.TicketPriority(req.Priority),
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{"id": id}})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	tickets, err := projection.Fetch(c.UserContext(), h.gw, gateway.Query{
		Collection: gateway.CollectionTickets,
		Where:      []gateway.Where{{Field: "userId", Value: identity.UID}},
		OrderBy:    "createdAt",
		Desc:       true,
	}, domain.DecodeTicket)
	if err != nil {
		return apperrors.NewSubscriptionError(err)
	}

	filtered := pipeline.Apply(tickets, filterCriteria(c), sortCriteria(c))
	items := make([]dto.TicketSummary, 0, len(filtered))
	for i := range filtered {
		items = append(items, ticketSummary(&filtered[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := h.controller.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	if ticket.UserID != identity.UID && !h.gate.IsPrivileged(c.UserContext(), identity.UID) {
		return apperrors.NewForbidden("access denied")
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// AddComment POST /tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AddCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.controller.AddComment(c.UserContext(), c.Params("id"), identity, req.Text); err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": "comment added"})
}

// MyStats GET /stats.
func (h *TicketsHandler) MyStats(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	tickets, err := projection.Fetch(c.UserContext(), h.gw, gateway.Query{
		Collection: gateway.CollectionTickets,
		Where:      []gateway.Where{{Field: "userId", Value: identity.UID}},
	}, domain.DecodeTicket)
	if err != nil {
		return apperrors.NewSubscriptionError(err)
	}

	scoped := stats.Scoped(tickets)
	resp := dto.UserStatsResponse{
		TotalTickets:    scoped.TotalTickets,
		ResolvedTickets: scoped.ResolvedTickets,
		PendingTickets:  scoped.PendingTickets,
		UrgentTickets:   scoped.UrgentTickets,
	}
	if rate, ok := stats.ResolutionRate(scoped.ResolvedTickets, scoped.TotalTickets); ok {
		resp.ResolutionRate = &rate
	}
	return c.JSON(fiber.Map{"data": resp})
}

func filterCriteria(c *fiber.Ctx) pipeline.FilterCriteria {
	return pipeline.FilterCriteria{
		Search:   c.Query("search"),
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		Category: c.Query("category"),
	}
}

func sortCriteria(c *fiber.Ctx) pipeline.SortCriteria {
	raw := c.Query("sort", "createdAt_desc")
	field, order, found := strings.Cut(raw, "_")
	if !found {
		return pipeline.SortCriteria{}
	}
	return pipeline.SortCriteria{
		Field: pipeline.SortField(field),
		Order: pipeline.SortOrder(order),
	}
}

func ticketSummary(t *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:              t.ID,
		Title:           t.Title,
		Category:        t.Category,
		Priority:        string(t.Priority),
		Status:          string(t.Status),
		UserEmail:       t.UserEmail,
		RejectionReason: t.RejectionReason,
		CreatedAt:       t.CreatedAt,
	}
}

func ticketDetail(t *domain.Ticket) dto.TicketDetail {
	updates := make([]dto.UpdateEntry, 0, len(t.Updates))
	for _, u := range t.Updates {
		updates = append(updates, dto.UpdateEntry{
			Text:      u.Text,
			CreatedAt: u.CreatedAt,
			CreatedBy: u.CreatedBy,
		})
	}
	return dto.TicketDetail{
		TicketSummary: ticketSummary(t),
		Description:   t.Description,
		UserID:        t.UserID,
		UserName:      t.UserName,
		Updates:       updates,
		UpdatedAt:     t.UpdatedAt,
	}
}
