package events

import (
	"time"

	"github.com/spec-kit/network-ticketing/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketResolved      EventType = "ticket_resolved"
	EventSLAWarning          EventType = "sla_warning"
	EventSLABreach           EventType = "sla_breach"
)

// Event represents a domain event emitted by services. ActorID is nil for
// system-triggered events such as auto-assignment and SLA transitions.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  int64       `json:"ticket_id"`
	ActorID   *int64      `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	CustomerID int64  `json:"customer_id"`
	CategoryID int64  `json:"category_id"`
	Reference  string `json:"reference"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	EngineerID int64                 `json:"engineer_id"`
	ManagerID  *int64                `json:"manager_id,omitempty"`
	Priority   domain.TicketPriority `json:"priority,omitempty"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// SLAPayload describes an SLA status edge.
type SLAPayload struct {
	OldStatus domain.SLAStatus `json:"old_status"`
	NewStatus domain.SLAStatus `json:"new_status"`
	DueTime   time.Time        `json:"due_time"`
}
