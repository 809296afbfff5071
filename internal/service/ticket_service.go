package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/network-ticketing/internal/clock"
	"github.com/spec-kit/network-ticketing/internal/domain"
	"github.com/spec-kit/network-ticketing/internal/repository"
	apperrors "github.com/spec-kit/network-ticketing/pkg/util"
)

// allowedTransitions is the ticket state machine. A transition absent here is
// rejected with an InvalidTransition error naming the attempted operation.
var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusNew:        {domain.TicketStatusAssigned, domain.TicketStatusInProgress},
	domain.TicketStatusAssigned:   {domain.TicketStatusInProgress},
	domain.TicketStatusInProgress: {domain.TicketStatusResolved},
	domain.TicketStatusResolved:   {domain.TicketStatusClosed, domain.TicketStatusReopened},
	domain.TicketStatusOnHold:     {},
	domain.TicketStatusClosed:     {},
	domain.TicketStatusReopened:   {},
}

func isValidTransition(current, next domain.TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// TicketService is the lifecycle engine: it enforces legal status
// transitions, owns the SLA window, writes exactly one history record per
// accepted transition and stamps LastUpdatedAt on every mutation.
type TicketService struct {
	tickets    repository.TicketRepository
	history    repository.TicketHistoryRepository
	users      repository.UserRepository
	categories repository.IssueCategoryRepository
	notifier   Notifier
	sla        *SLAService
	clock      clock.Clock
	logger     *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo   repository.TicketRepository
	HistoryRepo  repository.TicketHistoryRepository
	UserRepo     repository.UserRepository
	CategoryRepo repository.IssueCategoryRepository
	Notifier     Notifier
	SLA          *SLAService
	Clock        clock.Clock
	Logger       *zap.Logger
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		history:    deps.HistoryRepo,
		users:      deps.UserRepo,
		categories: deps.CategoryRepo,
		notifier:   deps.Notifier,
		sla:        deps.SLA,
		clock:      deps.Clock,
		logger:     deps.Logger,
	}
}

// CreateTicketInput describes ticket creation payload. CategoryID nil asks
// for keyword auto-categorization of the description.
type CreateTicketInput struct {
	CustomerID  int64
	CategoryID  *int64
	Description string
}

// CreateTicket opens a ticket in NEW with a provisional SLA window.
func (s *TicketService) CreateTicket(ctx context.Context, input CreateTicketInput) (*domain.Ticket, error) {
	if strings.TrimSpace(input.Description) == "" {
		return nil, apperrors.NewValidationError("description required", nil)
	}
	customer, err := s.getUser(ctx, input.CustomerID, "customer")
	if err != nil {
		return nil, err
	}

	var category *domain.IssueCategory
	if input.CategoryID != nil {
		category, err = s.getCategory(ctx, *input.CategoryID)
		if err != nil {
			return nil, err
		}
	} else {
		active, err := s.categories.ListActive(ctx)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		category = AutoCategorize(input.Description, active)
	}
	if category == nil {
		return nil, apperrors.NewNoCategory()
	}

	now := s.clock.Now()
	ticket := &domain.Ticket{
		CustomerID:  customer.ID,
		CategoryID:  category.ID,
		Description: input.Description,
		Status:      domain.TicketStatusNew,
		// provisional window; the SLA clock only starts for real on
		// assignment or self-pick
		SLAStartTime:  now,
		SLADueTime:    now.Add(category.SLADuration()),
		SLAStatus:     domain.SLAStatusOnTrack,
		LastUpdatedAt: now,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	// the reference needs the store id, so it is derived and persisted in a
	// second write
	ticket.Reference = domain.FormatReference(ticket.ID)
	ticket.LastUpdatedAt = s.clock.Now()
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	if err := s.recordStatusChange(ctx, ticket.ID, nil, domain.TicketStatusNew, &customer.ID); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.notifier.NotifyCreated(ctx, ticket)
	return ticket, nil
}

// PickTicket lets an engineer take a NEW or ASSIGNED ticket into
// IN_PROGRESS. A self-picked ticket without a manager assignment starts its
// SLA clock now; a manager-assigned ticket keeps the window the manager set.
func (s *TicketService) PickTicket(ctx context.Context, ticketID, engineerID int64) (*domain.Ticket, error) {
	engineer, err := s.getUser(ctx, engineerID, "engineer")
	if err != nil {
		return nil, err
	}
	if engineer.Role != domain.RoleEngineer {
		return nil, apperrors.NewNotAnEngineer(engineerID)
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	oldStatus := ticket.Status
	if !isValidTransition(oldStatus, domain.TicketStatusInProgress) {
		return nil, apperrors.NewInvalidTransition(string(oldStatus), string(domain.TicketStatusInProgress), "pick")
	}
	if oldStatus == domain.TicketStatusAssigned && ticket.AssignedEngineerID != nil && *ticket.AssignedEngineerID != engineerID {
		return nil, apperrors.NewAlreadyAssigned(ticketID)
	}

	if ticket.AssignedEngineerID == nil {
		ticket.AssignedEngineerID = &engineer.ID
	}
	ticket.Status = domain.TicketStatusInProgress
	if ticket.AssignedByManagerID == nil {
		if err := s.restartSLAWindow(ctx, ticket); err != nil {
			return nil, err
		}
	}
	ticket.LastUpdatedAt = s.clock.Now()

	if err := s.tickets.Update(ctx, ticket); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// lost the race; report against the winner's state
			fresh, freshErr := s.getTicket(ctx, ticketID)
			if freshErr == nil && fresh.AssignedEngineerID != nil && *fresh.AssignedEngineerID != engineerID {
				return nil, apperrors.NewAlreadyAssigned(ticketID)
			}
			return nil, apperrors.NewConflict("ticket was modified concurrently", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if err := s.recordStatusChange(ctx, ticket.ID, &oldStatus, domain.TicketStatusInProgress, &engineer.ID); err != nil {
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// AssignTicket is the manager assignment: sets engineer, manager and
// priority, moves the ticket to ASSIGNED and unconditionally restarts the
// SLA window.
func (s *TicketService) AssignTicket(ctx context.Context, ticketID, engineerID, managerID int64, priority string) (*domain.Ticket, error) {
	manager, err := s.getUser(ctx, managerID, "manager")
	if err != nil {
		return nil, err
	}
	if manager.Role != domain.RoleManager {
		return nil, apperrors.NewNotAManager(managerID)
	}
	engineer, err := s.getUser(ctx, engineerID, "engineer")
	if err != nil {
		return nil, err
	}
	if engineer.Role != domain.RoleEngineer {
		return nil, apperrors.NewNotAnEngineer(engineerID)
	}
	parsedPriority, ok := domain.ParseTicketPriority(priority)
	if !ok {
		return nil, apperrors.NewValidationError("invalid priority literal", map[string]any{"priority": priority})
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	oldStatus := ticket.Status
	// a manager may assign a NEW ticket or re-assign one already ASSIGNED
	if oldStatus != domain.TicketStatusNew && oldStatus != domain.TicketStatusAssigned {
		return nil, apperrors.NewInvalidTransition(string(oldStatus), string(domain.TicketStatusAssigned), "assign")
	}

	ticket.AssignedEngineerID = &engineer.ID
	ticket.AssignedByManagerID = &manager.ID
	ticket.Priority = parsedPriority
	ticket.Status = domain.TicketStatusAssigned
	if err := s.restartSLAWindow(ctx, ticket); err != nil {
		return nil, err
	}
	ticket.LastUpdatedAt = s.clock.Now()

	if err := s.tickets.Update(ctx, ticket); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewConflict("ticket was modified concurrently", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if err := s.recordStatusChange(ctx, ticket.ID, &oldStatus, domain.TicketStatusAssigned, &manager.ID); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.notifier.NotifyAssigned(ctx, ticket)
	return ticket, nil
}

// ResolveTicket moves an IN_PROGRESS ticket to RESOLVED. Only the assigned
// engineer may resolve, and a resolution summary is mandatory.
func (s *TicketService) ResolveTicket(ctx context.Context, ticketID, engineerID int64, summary string) (*domain.Ticket, error) {
	engineer, err := s.getUser(ctx, engineerID, "engineer")
	if err != nil {
		return nil, err
	}
	if engineer.Role != domain.RoleEngineer {
		return nil, apperrors.NewNotAnEngineer(engineerID)
	}
	if strings.TrimSpace(summary) == "" {
		return nil, apperrors.NewValidationError("resolution summary required", nil)
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	oldStatus := ticket.Status
	if !isValidTransition(oldStatus, domain.TicketStatusResolved) {
		return nil, apperrors.NewInvalidTransition(string(oldStatus), string(domain.TicketStatusResolved), "resolve")
	}
	if !ticket.AssignedTo(engineerID) {
		return nil, apperrors.NewNotOwner("engineer is not assigned to this ticket")
	}

	ticket.ResolutionSummary = summary
	ticket.Status = domain.TicketStatusResolved
	ticket.LastUpdatedAt = s.clock.Now()

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.recordStatusChange(ctx, ticket.ID, &oldStatus, domain.TicketStatusResolved, &engineer.ID); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.notifier.NotifyResolved(ctx, ticket)
	return ticket, nil
}

// CloseTicket lets the owning customer close a RESOLVED ticket.
func (s *TicketService) CloseTicket(ctx context.Context, ticketID, customerID int64) (*domain.Ticket, error) {
	customer, err := s.getUser(ctx, customerID, "customer")
	if err != nil {
		return nil, err
	}
	if customer.Role != domain.RoleCustomer {
		return nil, apperrors.NewNotOwner("only a customer can close a ticket")
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	oldStatus := ticket.Status
	if !isValidTransition(oldStatus, domain.TicketStatusClosed) {
		return nil, apperrors.NewInvalidTransition(string(oldStatus), string(domain.TicketStatusClosed), "close")
	}
	if ticket.CustomerID != customerID {
		return nil, apperrors.NewNotOwner("customer is not owner of this ticket")
	}

	now := s.clock.Now()
	ticket.Status = domain.TicketStatusClosed
	ticket.ClosedBy = domain.ClosedByCustomer
	ticket.ClosedAt = &now
	ticket.LastUpdatedAt = now

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.recordStatusChange(ctx, ticket.ID, &oldStatus, domain.TicketStatusClosed, &customer.ID); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.notifier.NotifyClosed(ctx, ticket)
	return ticket, nil
}

// ReopenTicket lets the owning customer reopen a RESOLVED ticket with a
// mandatory reason. The SLA window is left untouched.
func (s *TicketService) ReopenTicket(ctx context.Context, ticketID, customerID int64, reason string) (*domain.Ticket, error) {
	customer, err := s.getUser(ctx, customerID, "customer")
	if err != nil {
		return nil, err
	}
	if customer.Role != domain.RoleCustomer {
		return nil, apperrors.NewNotOwner("only a customer can reopen a ticket")
	}
	if strings.TrimSpace(reason) == "" {
		return nil, apperrors.NewValidationError("reopen reason required", nil)
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	oldStatus := ticket.Status
	if !isValidTransition(oldStatus, domain.TicketStatusReopened) {
		return nil, apperrors.NewInvalidTransition(string(oldStatus), string(domain.TicketStatusReopened), "reopen")
	}
	if ticket.CustomerID != customerID {
		return nil, apperrors.NewNotOwner("customer is not owner of this ticket")
	}

	ticket.Status = domain.TicketStatusReopened
	ticket.ResolutionSummary = "[REOPENED BY CUSTOMER]\nReason: " + reason
	ticket.LastUpdatedAt = s.clock.Now()

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.recordStatusChange(ctx, ticket.ID, &oldStatus, domain.TicketStatusReopened, &customer.ID); err != nil {
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// SetSLAWindow force-sets the SLA window to [now, now+minutes]. Operational
// escape hatch, not a business transition; it logs a same-status history
// marker.
func (s *TicketService) SetSLAWindow(ctx context.Context, ticketID int64, minutes int64) (*domain.Ticket, error) {
	if minutes <= 0 {
		return nil, apperrors.NewValidationError("minutes must be positive", nil)
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	ticket.SLAStartTime = now
	ticket.SLADueTime = now.Add(time.Duration(minutes) * time.Minute)
	ticket.SLAStatus = domain.SLAStatusOnTrack
	ticket.SLAAlertSent = false
	ticket.LastUpdatedAt = now

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	currentStatus := ticket.Status
	if err := s.recordStatusChange(ctx, ticket.ID, &currentStatus, currentStatus, nil); err != nil {
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// UpdatePriority sets the ticket priority after validating the literal.
func (s *TicketService) UpdatePriority(ctx context.Context, ticketID int64, priority string) (*domain.Ticket, error) {
	parsed, ok := domain.ParseTicketPriority(strings.ToUpper(priority))
	if !ok {
		return nil, apperrors.NewValidationError("invalid priority literal", map[string]any{"priority": priority})
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	ticket.Priority = parsed
	ticket.LastUpdatedAt = s.clock.Now()
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// AddAIResolution attaches the assistant-suggested resolution text. It never
// gates transitions.
func (s *TicketService) AddAIResolution(ctx context.Context, ticketID int64, aiResolution string) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	ticket.AIResolution = aiResolution
	ticket.LastUpdatedAt = s.clock.Now()
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// GetTicket fetches a single ticket with lazy SLA refresh.
func (s *TicketService) GetTicket(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if _, err := s.sla.Refresh(ctx, ticket); err != nil {
		s.logger.Warn("lazy sla refresh failed",
			zap.Int64("ticket_id", ticket.ID), zap.Error(err))
	}
	return ticket, nil
}

// TicketsForCustomer lists a customer's tickets, lazily refreshing SLA
// state so display-time urgency is current.
func (s *TicketService) TicketsForCustomer(ctx context.Context, customerID int64) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	s.refreshAll(ctx, tickets)
	return tickets, nil
}

// TicketsForEngineer lists tickets assigned to an engineer with lazy SLA
// refresh.
func (s *TicketService) TicketsForEngineer(ctx context.Context, engineerID int64) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListByEngineer(ctx, engineerID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	s.refreshAll(ctx, tickets)
	return tickets, nil
}

// AllTickets lists every ticket with lazy SLA refresh.
func (s *TicketService) AllTickets(ctx context.Context) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListAll(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	s.refreshAll(ctx, tickets)
	return tickets, nil
}

// TicketHistory returns the ordered audit trail for a ticket.
func (s *TicketService) TicketHistory(ctx context.Context, ticketID int64) ([]domain.TicketStatusHistory, error) {
	history, err := s.history.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return history, nil
}

// EngineerQueue returns the tickets an engineer can work on, most urgent
// first: SLA urgency, then priority, then earliest due time. The ordering is
// total; due time is the final tiebreak.
func (s *TicketService) EngineerQueue(ctx context.Context, engineerID int64) ([]domain.Ticket, error) {
	candidates, err := s.tickets.ListByStatusNot(ctx, domain.TicketStatusClosed)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	queue := make([]domain.Ticket, 0, len(candidates))
	for _, ticket := range candidates {
		switch ticket.Status {
		case domain.TicketStatusNew:
			queue = append(queue, ticket)
		case domain.TicketStatusAssigned:
			if ticket.AssignedEngineerID == nil || *ticket.AssignedEngineerID == engineerID {
				queue = append(queue, ticket)
			}
		case domain.TicketStatusInProgress:
			if ticket.AssignedTo(engineerID) {
				queue = append(queue, ticket)
			}
		}
	}

	sort.SliceStable(queue, func(i, j int) bool {
		a, b := &queue[i], &queue[j]
		if sa, sb := slaRank(a.SLAStatus), slaRank(b.SLAStatus); sa != sb {
			return sa > sb
		}
		if pa, pb := priorityRank(a.Priority), priorityRank(b.Priority); pa != pb {
			return pa > pb
		}
		return a.SLADueTime.Before(b.SLADueTime)
	})
	return queue, nil
}

func slaRank(status domain.SLAStatus) int {
	switch status {
	case domain.SLAStatusBreached:
		return 3
	case domain.SLAStatusAtRisk:
		return 2
	case domain.SLAStatusOnTrack:
		return 1
	}
	return 0
}

func priorityRank(priority domain.TicketPriority) int {
	switch priority {
	case domain.TicketPriorityHigh:
		return 3
	case domain.TicketPriorityMedium:
		return 2
	case domain.TicketPriorityLow:
		return 1
	}
	return 0
}

// restartSLAWindow begins a fresh SLA window at now using category SLA
// hours. A fresh window also clears the breach alert flag: a new episode
// gets a new one-shot alert.
func (s *TicketService) restartSLAWindow(ctx context.Context, ticket *domain.Ticket) error {
	category, err := s.getCategory(ctx, ticket.CategoryID)
	if err != nil {
		return err
	}
	now := s.clock.Now()
	ticket.SLAStartTime = now
	ticket.SLADueTime = now.Add(category.SLADuration())
	ticket.SLAStatus = domain.SLAStatusOnTrack
	ticket.SLAAlertSent = false
	return nil
}

func (s *TicketService) refreshAll(ctx context.Context, tickets []domain.Ticket) {
	for i := range tickets {
		if _, err := s.sla.Refresh(ctx, &tickets[i]); err != nil {
			s.logger.Warn("lazy sla refresh failed",
				zap.Int64("ticket_id", tickets[i].ID), zap.Error(err))
		}
	}
}

func (s *TicketService) recordStatusChange(ctx context.Context, ticketID int64, oldStatus *domain.TicketStatus, newStatus domain.TicketStatus, changedByID *int64) error {
	return s.history.Create(ctx, &domain.TicketStatusHistory{
		TicketID:    ticketID,
		OldStatus:   oldStatus,
		NewStatus:   newStatus,
		ChangedByID: changedByID,
		ChangedAt:   s.clock.Now(),
	})
}

func (s *TicketService) getTicket(ctx context.Context, id int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *TicketService) getUser(ctx context.Context, id int64, resource string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound(resource, map[string]any{"user_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

func (s *TicketService) getCategory(ctx context.Context, id int64) (*domain.IssueCategory, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("issue category", map[string]any{"category_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return category, nil
}
