package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/network-ticketing/internal/domain"
	"github.com/spec-kit/network-ticketing/internal/events"
	"github.com/spec-kit/network-ticketing/internal/mailer"
	"github.com/spec-kit/network-ticketing/internal/observability"
	"github.com/spec-kit/network-ticketing/internal/repository"
)

// Notifier receives high-level ticket events. All calls are best-effort from
// the engine's perspective: implementations must never propagate delivery
// failures back to the lifecycle transition that triggered them.
type Notifier interface {
	NotifyCreated(ctx context.Context, ticket *domain.Ticket)
	NotifyAssigned(ctx context.Context, ticket *domain.Ticket)
	NotifySLAWarning(ctx context.Context, ticket *domain.Ticket, old domain.SLAStatus)
	NotifySLABreach(ctx context.Context, ticket *domain.Ticket, old domain.SLAStatus)
	NotifyResolved(ctx context.Context, ticket *domain.Ticket)
	NotifyClosed(ctx context.Context, ticket *domain.Ticket)
}

// NotificationService implements Notifier by publishing domain events and
// sending best-effort email through the configured mailer.
type NotificationService struct {
	dispatcher events.Dispatcher
	users      repository.UserRepository
	mail       mailer.Mailer
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, users repository.UserRepository, mail mailer.Mailer, logger *zap.Logger, metrics *observability.Metrics) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		users:      users,
		mail:       mail,
		logger:     logger,
		metrics:    metrics,
	}
}

// NotifyCreated announces a new ticket.
func (n *NotificationService) NotifyCreated(ctx context.Context, ticket *domain.Ticket) {
	n.publish(ctx, events.EventTicketCreated, ticket.ID, &ticket.CustomerID, events.TicketCreatedPayload{
		CustomerID: ticket.CustomerID,
		CategoryID: ticket.CategoryID,
		Reference:  ticket.Reference,
	})
	n.metrics.RecordNotification("created")
}

// NotifyAssigned announces a manager assignment and emails the engineer.
func (n *NotificationService) NotifyAssigned(ctx context.Context, ticket *domain.Ticket) {
	if ticket.AssignedEngineerID == nil {
		return
	}
	n.publish(ctx, events.EventTicketAssigned, ticket.ID, ticket.AssignedByManagerID, events.TicketAssignedPayload{
		EngineerID: *ticket.AssignedEngineerID,
		ManagerID:  ticket.AssignedByManagerID,
		Priority:   ticket.Priority,
	})
	n.metrics.RecordNotification("assigned")

	subject := fmt.Sprintf("Ticket %s assigned to you", n.reference(ticket))
	body := fmt.Sprintf("You have been assigned ticket %s (priority %s).\nDue: %s\n\n%s\n",
		n.reference(ticket), ticket.Priority, ticket.SLADueTime.Format(time.RFC1123), ticket.Description)
	n.email(ticket, subject, body, ticket.AssignedEngineerID)
}

// NotifySLAWarning alerts manager and engineer that the window is nearly
// consumed. The customer is never included.
func (n *NotificationService) NotifySLAWarning(ctx context.Context, ticket *domain.Ticket, old domain.SLAStatus) {
	n.publish(ctx, events.EventSLAWarning, ticket.ID, nil, events.SLAPayload{
		OldStatus: old,
		NewStatus: domain.SLAStatusAtRisk,
		DueTime:   ticket.SLADueTime,
	})
	n.metrics.RecordNotification("sla_warning")
	n.logger.Warn("sla warning",
		zap.Int64("ticket_id", ticket.ID),
		zap.String("reference", n.reference(ticket)),
		zap.Time("due", ticket.SLADueTime))

	subject := fmt.Sprintf("SLA warning for ticket %s", n.reference(ticket))
	body := fmt.Sprintf("Ticket %s has consumed 80%% of its SLA window.\nDue: %s\n",
		n.reference(ticket), ticket.SLADueTime.Format(time.RFC1123))
	n.email(ticket, subject, body, ticket.AssignedByManagerID, ticket.AssignedEngineerID)
}

// NotifySLABreach alerts manager and engineer of a breach, and separately
// attempts a breach email that also includes the customer.
func (n *NotificationService) NotifySLABreach(ctx context.Context, ticket *domain.Ticket, old domain.SLAStatus) {
	n.publish(ctx, events.EventSLABreach, ticket.ID, nil, events.SLAPayload{
		OldStatus: old,
		NewStatus: domain.SLAStatusBreached,
		DueTime:   ticket.SLADueTime,
	})
	n.metrics.RecordNotification("sla_breach")
	n.logger.Error("sla breached",
		zap.Int64("ticket_id", ticket.ID),
		zap.String("reference", n.reference(ticket)),
		zap.Time("due", ticket.SLADueTime))

	subject := fmt.Sprintf("SLA BREACHED for ticket %s", n.reference(ticket))
	body := fmt.Sprintf("Ticket %s missed its SLA due time.\nDue: %s\n",
		n.reference(ticket), ticket.SLADueTime.Format(time.RFC1123))
	n.email(ticket, subject, body, ticket.AssignedByManagerID, ticket.AssignedEngineerID, &ticket.CustomerID)
}

// NotifyResolved tells the customer their ticket was resolved.
func (n *NotificationService) NotifyResolved(ctx context.Context, ticket *domain.Ticket) {
	n.publish(ctx, events.EventTicketResolved, ticket.ID, ticket.AssignedEngineerID, events.TicketStatusChangedPayload{
		OldStatus: domain.TicketStatusInProgress,
		NewStatus: domain.TicketStatusResolved,
	})
	n.metrics.RecordNotification("resolved")

	subject := fmt.Sprintf("Ticket %s - Resolved", n.reference(ticket))
	body := fmt.Sprintf("Your ticket has been resolved.\n\nResolution Summary:\n%s\n\nIf you are satisfied, please close the ticket.\n",
		ticket.ResolutionSummary)
	n.email(ticket, subject, body, &ticket.CustomerID)
}

// NotifyClosed confirms closure to the customer.
func (n *NotificationService) NotifyClosed(ctx context.Context, ticket *domain.Ticket) {
	n.publish(ctx, events.EventTicketStatusChanged, ticket.ID, &ticket.CustomerID, events.TicketStatusChangedPayload{
		OldStatus: domain.TicketStatusResolved,
		NewStatus: domain.TicketStatusClosed,
	})
	n.metrics.RecordNotification("closed")

	subject := fmt.Sprintf("Ticket %s - Closed", n.reference(ticket))
	body := "Your ticket has been closed. Thank you for confirming the resolution.\n"
	n.email(ticket, subject, body, &ticket.CustomerID)
}

func (n *NotificationService) publish(ctx context.Context, eventType events.EventType, ticketID int64, actorID *int64, payload any) {
	if n.dispatcher == nil {
		return
	}
	_ = n.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		ActorID:   actorID,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}

// email resolves recipient addresses and sends best-effort. nil ids and
// lookup failures shrink the recipient list; a send failure is only logged.
func (n *NotificationService) email(ticket *domain.Ticket, subject, body string, userIDs ...*int64) {
	recipients := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		if id == nil {
			continue
		}
		user, err := n.users.GetByID(context.Background(), *id)
		if err != nil {
			n.logger.Warn("notification: recipient lookup failed",
				zap.Int64("user_id", *id), zap.Error(err))
			continue
		}
		if user.Email != "" {
			recipients = append(recipients, user.Email)
		}
	}
	if len(recipients) == 0 {
		return
	}
	if err := n.mail.Send(recipients, subject, body); err != nil {
		n.logger.Warn("notification: email send failed",
			zap.Int64("ticket_id", ticket.ID), zap.Error(err))
	}
}

func (n *NotificationService) reference(ticket *domain.Ticket) string {
	if ticket.Reference != "" {
		return ticket.Reference
	}
	return domain.FormatReference(ticket.ID)
}
