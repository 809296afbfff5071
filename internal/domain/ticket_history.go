package domain

import "time"

// TicketStatusHistory is an immutable audit trail entry, one per accepted
// transition. ChangedByID is nil for system-triggered transitions.
type TicketStatusHistory struct {
	ID          int64
	TicketID    int64
	OldStatus   *TicketStatus
	NewStatus   TicketStatus
	ChangedByID *int64
	ChangedAt   time.Time
}
