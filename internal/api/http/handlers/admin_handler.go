package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-core/internal/api/dto"
	"github.com/spec-kit/helpdesk-core/internal/directory"
	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/gateway"
	"github.com/spec-kit/helpdesk-core/internal/pipeline"
	"github.com/spec-kit/helpdesk-core/internal/projection"
	"github.com/spec-kit/helpdesk-core/internal/stats"
	"github.com/spec-kit/helpdesk-core/internal/workflow"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// AdminHandler manages privileged endpoints. Every route here sits behind
// the RequireAdmin guard.
type AdminHandler struct {
	controller *workflow.Controller
	gw         gateway.Gateway
	directory  *directory.Service
	aggregator *stats.Aggregator
}

// NewAdminHandler constructs handler.
func NewAdminHandler(controller *workflow.Controller, gw gateway.Gateway, dir *directory.Service, aggregator *stats.Aggregator) *AdminHandler {
	return &AdminHandler{controller: controller, gw: gw, directory: dir, aggregator: aggregator}
}

// ListTickets GET /admin/tickets. An optional scope query narrows the
// server-side status predicate; the remaining filters run client-side on
// the materialized snapshot.
func (h *AdminHandler) ListTickets(c *fiber.Ctx) error {
	q := gateway.Query{
		Collection: gateway.CollectionTickets,
		OrderBy:    "createdAt",
		Desc:       true,
	}
	if scope := c.Query("scope"); scope != "" {
		q.Where = append(q.Where, gateway.Where{Field: "status", Value: scope})
	}

	tickets, err := projection.Fetch(c.UserContext(), h.gw, q, domain.DecodeTicket)
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

// UpdateStatus PATCH /admin/tickets/:id/status. Single-phase transitions
// only; rejection must go through the staged flow.
func (h *AdminHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.controller.Transition(c.UserContext(), c.Params("id"), domain.TicketStatus(req.Status)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": "status updated"})
}

// RejectTicket POST /admin/tickets/:id/reject. Stages the rejection and
// commits it with the operator-supplied reason in one write.
func (h *AdminHandler) RejectTicket(c *fiber.Ctx) error {
	var req dto.RejectTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	staged := h.controller.StageRejection(c.Params("id"))
	if err := staged.Commit(c.UserContext(), req.Reason); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": "ticket rejected"})
}

// GlobalStats GET /admin/stats. Pulls from the long-lived global aggregator.
func (h *AdminHandler) GlobalStats(c *fiber.Ctx) error {
	global, err := h.aggregator.Global()
	if err != nil {
		return err
	}
	resp := dto.GlobalStatsResponse{
		TotalUsers:      global.TotalUsers,
		TotalTickets:    global.TotalTickets,
		ResolvedTickets: global.ResolvedTickets,
		PendingTickets:  global.PendingTickets,
		RejectedTickets: global.RejectedTickets,
	}
	if rate, ok := stats.ResolutionRate(global.ResolvedTickets, global.TotalTickets); ok {
		resp.ResolutionRate = &rate
	}
	return c.JSON(fiber.Map{"data": resp})
}

// ListUsers GET /admin/users.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.directory.ListUsers(c.UserContext())
	if err != nil {
		return apperrors.NewSubscriptionError(err)
	}
	items := make([]dto.ProfileResponse, 0, len(users))
	for _, u := range users {
		items = append(items, profileResponse(u))
	}
	return c.JSON(fiber.Map{"data": items})
}

// SetRole PUT /admin/users/:id/role.
func (h *AdminHandler) SetRole(c *fiber.Ctx) error {
	var req dto.SetRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.directory.SetRole(c.UserContext(), c.Params("id"), domain.Role(req.Role)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": "role updated"})
}

// DeleteUser DELETE /admin/users/:id.
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	if err := h.directory.DeleteUser(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.Status(http.StatusNoContent).Send(nil)
}

func profileResponse(p domain.UserProfile) dto.ProfileResponse {
	return dto.ProfileResponse{
		UID:        p.UID,
		Name:       p.Name,
		Email:      p.Email,
		Phone:      p.Phone,
		Location:   p.Location,
		Department: p.Department,
		Role:       string(p.EffectiveRole()),
	}
}
