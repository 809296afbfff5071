package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/network-ticketing/internal/events"
)

// StartNotificationWorker attaches an audit log handler for every ticket
// event the services publish.
func StartNotificationWorker(dispatcher events.Dispatcher, logger *zap.Logger) {
	if dispatcher == nil {
		return
	}
	handler := func(_ context.Context, event events.Event) error {
		logger.Info("ticket event",
			zap.String("type", string(event.Type)),
			zap.Int64("ticket_id", event.TicketID),
			zap.Any("payload", event.Payload))
		return nil
	}
	for _, eventType := range []events.EventType{
		events.EventTicketCreated,
		events.EventTicketAssigned,
		events.EventTicketStatusChanged,
		events.EventTicketResolved,
		events.EventSLAWarning,
		events.EventSLABreach,
	} {
		dispatcher.Subscribe(eventType, handler)
	}
}
