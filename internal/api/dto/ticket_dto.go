package dto

import (
	"time"

	"github.com/spec-kit/network-ticketing/internal/domain"
)

// CreateTicketRequest payload. CategoryID nil triggers auto-categorization.
type CreateTicketRequest struct {
	CustomerID  int64  `json:"customer_id"`
	CategoryID  *int64 `json:"category_id"`
	Description string `json:"description"`
}

// PickTicketRequest payload.
type PickTicketRequest struct {
	TicketID   int64 `json:"ticket_id"`
	EngineerID int64 `json:"engineer_id"`
}

// AssignTicketRequest payload.
type AssignTicketRequest struct {
	TicketID   int64  `json:"ticket_id"`
	EngineerID int64  `json:"engineer_id"`
	ManagerID  int64  `json:"manager_id"`
	Priority   string `json:"priority"`
}

// ResolveTicketRequest payload.
type ResolveTicketRequest struct {
	TicketID          int64  `json:"ticket_id"`
	EngineerID        int64  `json:"engineer_id"`
	ResolutionSummary string `json:"resolution_summary"`
}

// CloseTicketRequest payload.
type CloseTicketRequest struct {
	TicketID   int64 `json:"ticket_id"`
	CustomerID int64 `json:"customer_id"`
}

// ReopenTicketRequest payload.
type ReopenTicketRequest struct {
	TicketID   int64  `json:"ticket_id"`
	CustomerID int64  `json:"customer_id"`
	Reason     string `json:"reason"`
}

// UpdatePriorityRequest payload.
type UpdatePriorityRequest struct {
	Priority string `json:"priority"`
}

// AddAIResolutionRequest payload.
type AddAIResolutionRequest struct {
	AIResolution string `json:"ai_resolution"`
}

// TicketResponse is the full ticket view.
type TicketResponse struct {
	ID                  int64                 `json:"id"`
	Reference           string                `json:"reference"`
	CustomerID          int64                 `json:"customer_id"`
	AssignedEngineerID  *int64                `json:"assigned_engineer_id"`
	AssignedByManagerID *int64                `json:"assigned_by_manager_id"`
	CategoryID          int64                 `json:"category_id"`
	Description         string                `json:"description"`
	Status              domain.TicketStatus   `json:"status"`
	Priority            domain.TicketPriority `json:"priority,omitempty"`
	SLAStartTime        time.Time             `json:"sla_start_time"`
	SLADueTime          time.Time             `json:"sla_due_time"`
	SLAStatus           domain.SLAStatus      `json:"sla_status"`
	ResolutionSummary   string                `json:"resolution_summary,omitempty"`
	AIResolution        string                `json:"ai_resolution,omitempty"`
	ClosedBy            domain.ClosedBy       `json:"closed_by,omitempty"`
	ClosedAt            *time.Time            `json:"closed_at,omitempty"`
	CreatedAt           time.Time             `json:"created_at"`
	LastUpdatedAt       time.Time             `json:"last_updated_at"`
}

// HistoryEntryResponse is one audit trail record.
type HistoryEntryResponse struct {
	ID          int64                `json:"id"`
	TicketID    int64                `json:"ticket_id"`
	OldStatus   *domain.TicketStatus `json:"old_status"`
	NewStatus   domain.TicketStatus  `json:"new_status"`
	ChangedByID *int64               `json:"changed_by_id"`
	ChangedAt   time.Time            `json:"changed_at"`
}

// FromTicket maps a domain ticket to its response shape.
func FromTicket(ticket *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:                  ticket.ID,
		Reference:           ticket.Reference,
		CustomerID:          ticket.CustomerID,
		AssignedEngineerID:  ticket.AssignedEngineerID,
		AssignedByManagerID: ticket.AssignedByManagerID,
		CategoryID:          ticket.CategoryID,
		Description:         ticket.Description,
		Status:              ticket.Status,
		Priority:            ticket.Priority,
		SLAStartTime:        ticket.SLAStartTime,
		SLADueTime:          ticket.SLADueTime,
		SLAStatus:           ticket.SLAStatus,
		ResolutionSummary:   ticket.ResolutionSummary,
		AIResolution:        ticket.AIResolution,
		ClosedBy:            ticket.ClosedBy,
		ClosedAt:            ticket.ClosedAt,
		CreatedAt:           ticket.CreatedAt,
		LastUpdatedAt:       ticket.LastUpdatedAt,
	}
}

// FromTickets maps a slice of tickets.
func FromTickets(tickets []domain.Ticket) []TicketResponse {
	items := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, FromTicket(&tickets[i]))
	}
	return items
}

// FromHistory maps history entries.
func FromHistory(entries []domain.TicketStatusHistory) []HistoryEntryResponse {
	items := make([]HistoryEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, HistoryEntryResponse{
			ID:          entry.ID,
			TicketID:    entry.TicketID,
			OldStatus:   entry.OldStatus,
			NewStatus:   entry.NewStatus,
			ChangedByID: entry.ChangedByID,
			ChangedAt:   entry.ChangedAt,
		})
	}
	return items
}
