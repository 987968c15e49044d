package worker

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

func TestStartNotificationWorkerCountsEvents(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()
	notifications := service.NewNotificationService(dispatcher, zap.NewNop(), config.NotificationConfig{
		EmailFrom:  "helpdesk@example.com",
		WebhookURL: "https://hooks.example.com/helpdesk",
	})

	StartNotificationWorker(notifications, dispatcher, metrics)

	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{
		Type:     events.EventTicketEscalated,
		TicketID: "TKT001",
		Payload:  events.TicketEscalatedPayload{FromPSN: "701", ToPSN: "800"},
	}))
	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{Type: events.EventAttachmentsAdded, TicketID: "TKT001"}))

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, `helpdesk_events_published_total{type="ticket_escalated"} 1`)
	assert.Contains(t, body, `helpdesk_events_published_total{type="ticket_attachments_added"} 1`)
}

func TestStartNotificationWorkerToleratesNil(t *testing.T) {
	assert.NotPanics(t, func() { StartNotificationWorker(nil, nil, nil) })

	dispatcher := events.NewInMemoryDispatcher()
	StartNotificationWorker(nil, dispatcher, nil)
	assert.NoError(t, dispatcher.Publish(context.Background(), events.Event{Type: events.EventTicketSubmitted}))
}
