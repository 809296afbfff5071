package domain

import (
	"fmt"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusNew        TicketStatus = "NEW"
	TicketStatusAssigned   TicketStatus = "ASSIGNED"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusOnHold     TicketStatus = "ON_HOLD"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
	TicketStatusReopened   TicketStatus = "REOPENED"
)

// TicketPriority enumerates business urgency. Empty until a manager sets it.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
)

// ParseTicketPriority validates a priority literal.
func ParseTicketPriority(value string) (TicketPriority, bool) {
	switch TicketPriority(value) {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh:
		return TicketPriority(value), true
	}
	return "", false
}

// SLAStatus is the derived urgency classification of a ticket's SLA window.
type SLAStatus string

const (
	SLAStatusOnTrack  SLAStatus = "ON_TRACK"
	SLAStatusAtRisk   SLAStatus = "AT_RISK"
	SLAStatusBreached SLAStatus = "BREACHED"
)

// ClosedBy records which party closed a ticket.
type ClosedBy string

const (
	ClosedByCustomer ClosedBy = "CUSTOMER"
	ClosedByEngineer ClosedBy = "ENGINEER"
)

// DefaultSLAHours applies when the issue category carries no SLA target.
const DefaultSLAHours = 168

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID                  int64
	Reference           string
	CustomerID          int64
	AssignedEngineerID  *int64
	AssignedByManagerID *int64
	CategoryID          int64
	Description         string
	Status              TicketStatus
	Priority            TicketPriority
	SLAStartTime        time.Time
	SLADueTime          time.Time
	SLAStatus           SLAStatus
	SLAAlertSent        bool
	ResolutionSummary   string
	AIResolution        string
	ClosedBy            ClosedBy
	ClosedAt            *time.Time
	CreatedAt           time.Time
	LastUpdatedAt       time.Time
	Version             int64
}

// FormatReference renders the human-readable ticket reference for a store id.
func FormatReference(id int64) string {
	return fmt.Sprintf("T-%06d", id)
}

// IsOpen reports whether the ticket still counts toward engineer load.
func (t *Ticket) IsOpen() bool {
	return t.Status != TicketStatusClosed && t.Status != TicketStatusResolved
}

// AssignedTo reports whether the ticket is assigned to the given engineer.
func (t *Ticket) AssignedTo(engineerID int64) bool {
	return t.AssignedEngineerID != nil && *t.AssignedEngineerID == engineerID
}
