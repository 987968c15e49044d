package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/lifecycle"
	"github.com/spec-kit/helpdesk-service/internal/query"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// StaffTicketsHandler handles the HR and supervisor queue endpoints.
type StaffTicketsHandler struct {
	tickets *service.TicketService
}

// NewStaffTicketsHandler constructs handler.
func NewStaffTicketsHandler(ticketService *service.TicketService) *StaffTicketsHandler {
	return &StaffTicketsHandler{tickets: ticketService}
}

// ListStaffTickets GET /staff/tickets.
func (h *StaffTicketsHandler) ListStaffTickets(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), query.DefaultPageSize)
	result, err := h.tickets.ListStaffTickets(c.UserContext(), actor, parseFilter(c), page, pageSize)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketPageResponse{
		Items:    ticketSummaries(result.Items),
		Page:     result.Page,
		PageSize: result.PageSize,
		Total:    result.Total,
	}})
}

// GetStaffTicket GET /staff/tickets/:id.
func (h *StaffTicketsHandler) GetStaffTicket(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	ticket, history, err := h.tickets.GetTicketForStaff(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket, history)})
}

// RecordResponse POST /staff/tickets/:id/responses.
func (h *StaffTicketsHandler) RecordResponse(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.ResponseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.RecordResponse(c.UserContext(), actor, c.Params("id"), lifecycle.Response{
		Text:      req.Text,
		NewStatus: req.Status,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket, nil)})
}

// Escalate POST /staff/tickets/:id/escalate.
func (h *StaffTicketsHandler) Escalate(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.EscalateRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	ticket, err := h.tickets.Escalate(c.UserContext(), actor, c.Params("id"), req.TargetPSN, req.Note)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket, nil)})
}

// Suggestions GET /staff/tickets/:id/suggestions.
func (h *StaffTicketsHandler) Suggestions(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	steps, err := h.tickets.SuggestForTicket(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SuggestionResponse{Steps: steps}})
}

// Dashboard GET /staff/dashboard.
func (h *StaffTicketsHandler) Dashboard(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	d, err := h.tickets.Dashboard(c.UserContext(), actor)
	if err != nil {
		return err
	}
	roles := d.ActingRoles
	if roles == nil {
		roles = []domain.Role{}
	}
	return c.JSON(fiber.Map{"data": dto.DashboardResponse{
		PSN:         d.Actor.PSN,
		Name:        d.Actor.Name,
		Role:        d.Actor.Role,
		ActingRoles: roles,
		Total:       d.Workload.Total,
		Pending:     d.Workload.Pending,
		Resolved:    d.Workload.Resolved,
		ByStatus:    d.Workload.ByStatus,
	}})
}
