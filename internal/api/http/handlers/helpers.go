package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/query"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

func currentActor(c *fiber.Ctx) (domain.Actor, error) {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return domain.Actor{}, apperrors.NewUnauthorized("authentication required")
	}
	return actor, nil
}

func parseFilter(c *fiber.Ctx) query.Filter {
	return query.Filter{
		Search:   c.Query("search"),
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
	}
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func attachmentInputs(reqs []dto.AttachmentRequest) []service.AttachmentInput {
	out := make([]service.AttachmentInput, 0, len(reqs))
	for _, a := range reqs {
		out = append(out, service.AttachmentInput{FileName: a.FileName, FileType: a.FileType, ContentRef: a.ContentRef})
	}
	return out
}

func ticketSummary(ticket *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:                   ticket.ID,
		EmployeePSN:          ticket.EmployeePSN,
		EmployeeName:         ticket.EmployeeName,
		QueryPreview:         apperrors.Preview(ticket.Query, 80),
		Priority:             ticket.Priority,
		Status:               ticket.Status,
		ProjectID:            ticket.ProjectID,
		CurrentAssigneePSN:   ticket.CurrentAssigneePSN,
		EscalatedToPSN:       ticket.EscalatedToPSN,
		HasFollowUp:          ticket.HasFollowUp,
		DateOfQuery:          ticket.DateOfQuery,
		LastStatusUpdateDate: ticket.LastStatusUpdateDate,
	}
}

func ticketSummaries(tickets []domain.Ticket) []dto.TicketSummary {
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return items
}

func ticketDetail(ticket *domain.Ticket, history []domain.TicketHistory) dto.TicketDetailResponse {
	actions := make([]dto.ActionEntryResponse, 0, len(ticket.ActionPerformed))
	for _, a := range ticket.ActionPerformed {
		actions = append(actions, dto.ActionEntryResponse{
			Seq:       a.Seq,
			At:        a.At,
			ActorPSN:  a.ActorPSN,
			ActorRole: a.ActorRole,
			Text:      a.Text,
		})
	}
	return dto.TicketDetailResponse{
		TicketSummary:   ticketSummary(ticket),
		Query:           ticket.Query,
		FollowUpQuery:   ticket.FollowUpQuery,
		ActionPerformed: actions,
		DateOfResponse:  ticket.DateOfResponse,
		Attachments:     attachmentResponses(ticket.Attachments),
		History:         historyResponses(history),
	}
}

func attachmentResponses(attachments []domain.Attachment) []dto.AttachmentResponse {
	out := make([]dto.AttachmentResponse, 0, len(attachments))
	for _, a := range attachments {
		out = append(out, dto.AttachmentResponse{
			ID:         a.ID,
			FileName:   a.FileName,
			FileType:   a.FileType,
			ContentRef: a.ContentRef,
			UploadedAt: a.UploadedAt,
		})
	}
	return out
}

func historyResponses(entries []domain.TicketHistory) []dto.TicketHistoryResponse {
	if len(entries) == 0 {
		return nil
	}
	resp := make([]dto.TicketHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, dto.TicketHistoryResponse{
			ID:            entry.ID,
			ChangeType:    entry.ChangeType,
			ChangedByPSN:  entry.ChangedByPSN,
			ChangedByRole: entry.ChangedByRole,
			OldValue:      entry.OldValue,
			NewValue:      entry.NewValue,
			CreatedAt:     entry.CreatedAt,
		})
	}
	return resp
}
