package events

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketSubmitted     EventType = "ticket_submitted"
	EventTicketResponded     EventType = "ticket_responded"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketEscalated     EventType = "ticket_escalated"
	EventFollowUpAdded       EventType = "ticket_follow_up_added"
	EventAttachmentsAdded    EventType = "ticket_attachments_added"
)

// AllEventTypes lists every type the services publish.
var AllEventTypes = []EventType{
	EventTicketSubmitted,
	EventTicketResponded,
	EventTicketStatusChanged,
	EventTicketEscalated,
	EventFollowUpAdded,
	EventAttachmentsAdded,
}

// Actor identifies who caused the event.
type Actor struct {
	PSN  domain.PSN  `json:"psn"`
	Role domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketSubmittedPayload payload.
type TicketSubmittedPayload struct {
	EmployeePSN  domain.PSN            `json:"employee_psn"`
	ProjectID    string                `json:"project_id"`
	Priority     domain.TicketPriority `json:"priority"`
	AssigneePSN  domain.PSN            `json:"assignee_psn"`
	QueryPreview string                `json:"query_preview"`
}

// TicketRespondedPayload payload.
type TicketRespondedPayload struct {
	EmployeePSN domain.PSN `json:"employee_psn"`
	Seq         int        `json:"seq"`
	TextPreview string     `json:"text_preview"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	EmployeePSN domain.PSN          `json:"employee_psn"`
	OldStatus   domain.TicketStatus `json:"old_status"`
	NewStatus   domain.TicketStatus `json:"new_status"`
}

// TicketEscalatedPayload payload.
type TicketEscalatedPayload struct {
	FromPSN domain.PSN `json:"from_psn"`
	ToPSN   domain.PSN `json:"to_psn"`
	Note    string     `json:"note,omitempty"`
}

// FollowUpAddedPayload payload.
type FollowUpAddedPayload struct {
	AssigneePSN domain.PSN `json:"assignee_psn"`
	TextPreview string     `json:"text_preview"`
}

// AttachmentsAddedPayload payload.
type AttachmentsAddedPayload struct {
	AttachmentIDs []string `json:"attachment_ids"`
}
