package worker

import (
	"context"

	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// StartNotificationWorker registers notification handlers and counts every
// published event.
func StartNotificationWorker(notificationService *service.NotificationService, dispatcher events.Dispatcher, metrics *observability.Metrics) {
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
	if dispatcher == nil {
		return
	}
	for _, eventType := range events.AllEventTypes {
		dispatcher.Subscribe(eventType, func(_ context.Context, event events.Event) error {
			metrics.RecordEvent(string(event.Type))
			return nil
		})
	}
}
