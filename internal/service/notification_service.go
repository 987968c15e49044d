package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
)

// Notice is one outbound message derived from a ticket event.
type Notice struct {
	Recipient domain.PSN
	Subject   string
	TicketID  string
	EventType events.EventType
}

// NotificationService turns ticket events into notices for the people who
// need to act on them. Delivery is stubbed to log lines.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	// sent observes every notice; tests hook it.
	sent func(Notice)
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketSubmitted, n.handleTicketSubmitted)
	n.dispatcher.Subscribe(events.EventTicketResponded, n.handleTicketResponded)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
	n.dispatcher.Subscribe(events.EventTicketEscalated, n.handleTicketEscalated)
	n.dispatcher.Subscribe(events.EventFollowUpAdded, n.handleFollowUpAdded)
}

// handleTicketSubmitted tells the default assignee about a new ticket.
func (n *NotificationService) handleTicketSubmitted(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketSubmittedPayload)
	if !ok {
		return payloadError(event)
	}
	n.deliver(ctx, Notice{
		Recipient: payload.AssigneePSN,
		Subject:   fmt.Sprintf("New %s ticket %s: %s", payload.Priority, event.TicketID, payload.QueryPreview),
		TicketID:  event.TicketID,
		EventType: event.Type,
	}, true)
	return nil
}

// handleTicketResponded tells the raising employee a reply was logged.
func (n *NotificationService) handleTicketResponded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketRespondedPayload)
	if !ok {
		return payloadError(event)
	}
	n.deliver(ctx, Notice{
		Recipient: payload.EmployeePSN,
		Subject:   fmt.Sprintf("Reply #%d on %s from %s: %s", payload.Seq, event.TicketID, event.Actor.Role, payload.TextPreview),
		TicketID:  event.TicketID,
		EventType: event.Type,
	}, true)
	return nil
}

func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		return payloadError(event)
	}
	n.deliver(ctx, Notice{
		Recipient: payload.EmployeePSN,
		Subject:   fmt.Sprintf("Ticket %s moved from %s to %s", event.TicketID, payload.OldStatus, payload.NewStatus),
		TicketID:  event.TicketID,
		EventType: event.Type,
	}, false)
	return nil
}

// handleTicketEscalated tells the new holder they own the ticket.
func (n *NotificationService) handleTicketEscalated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketEscalatedPayload)
	if !ok {
		return payloadError(event)
	}
	subject := fmt.Sprintf("Ticket %s escalated to you by %s", event.TicketID, payload.FromPSN)
	if payload.Note != "" {
		subject += ": " + payload.Note
	}
	n.deliver(ctx, Notice{
		Recipient: payload.ToPSN,
		Subject:   subject,
		TicketID:  event.TicketID,
		EventType: event.Type,
	}, true)
	return nil
}

// handleFollowUpAdded tells the current holder the employee added detail.
func (n *NotificationService) handleFollowUpAdded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.FollowUpAddedPayload)
	if !ok {
		return payloadError(event)
	}
	n.deliver(ctx, Notice{
		Recipient: payload.AssigneePSN,
		Subject:   fmt.Sprintf("Follow-up on %s: %s", event.TicketID, payload.TextPreview),
		TicketID:  event.TicketID,
		EventType: event.Type,
	}, true)
	return nil
}

func (n *NotificationService) deliver(ctx context.Context, notice Notice, email bool) {
	n.logger.Info("notification",
		zap.String("event_type", string(notice.EventType)),
		zap.String("ticket_id", notice.TicketID),
		zap.String("recipient", string(notice.Recipient)))
	if email && notice.Recipient.IsSet() {
		n.sendEmailNotificationStub(ctx, notice)
	}
	n.sendWebhookNotificationStub(ctx, notice)
	if n.sent != nil {
		n.sent(notice)
	}
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, notice Notice) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("to_psn", string(notice.Recipient)),
		zap.String("subject", notice.Subject))
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, notice Notice) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("ticket_id", notice.TicketID),
		zap.String("subject", notice.Subject))
}

func payloadError(event events.Event) error {
	return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
}
