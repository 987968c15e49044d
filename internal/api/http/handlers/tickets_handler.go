package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/lifecycle"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// TicketsHandler manages employee ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// SubmitTicket POST /tickets.
func (h *TicketsHandler) SubmitTicket(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.SubmitTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.Submit(c.UserContext(), actor, lifecycle.SubmitInput{
		Query:         req.Query,
		Priority:      req.Priority,
		HasFollowUp:   req.HasFollowUp,
		FollowUpQuery: req.FollowUpQuery,
	}, attachmentInputs(req.Attachments))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketDetail(ticket, nil)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.ListEmployeeTickets(c.UserContext(), actor, parseFilter(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummaries(tickets)})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.GetTicketForEmployee(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket, nil)})
}

// AddFollowUp POST /tickets/:id/follow-up.
func (h *TicketsHandler) AddFollowUp(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.FollowUpRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.AddFollowUp(c.UserContext(), actor, c.Params("id"), req.Text)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket, nil)})
}

// AddAttachments POST /tickets/:id/attachments.
func (h *TicketsHandler) AddAttachments(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.AddAttachmentsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	stored, err := h.service.AddAttachments(c.UserContext(), actor, c.Params("id"), attachmentInputs(req.Attachments))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": attachmentResponses(stored)})
}

// SuggestForDraft POST /tickets/suggestions.
func (h *TicketsHandler) SuggestForDraft(c *fiber.Ctx) error {
	if _, err := currentActor(c); err != nil {
		return err
	}
	var req dto.SuggestionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	steps := h.service.SuggestForQuery(c.UserContext(), req.Query)
	return c.JSON(fiber.Map{"data": dto.SuggestionResponse{Steps: steps}})
}
