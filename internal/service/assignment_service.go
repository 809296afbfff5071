package service

import (
	"context"
	"errors"
	"math"
	"math/rand"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/network-ticketing/internal/clock"
	"github.com/spec-kit/network-ticketing/internal/domain"
	"github.com/spec-kit/network-ticketing/internal/repository"
	apperrors "github.com/spec-kit/network-ticketing/pkg/util"
)

// AssignmentService picks an engineer for a ticket by current load and SLA
// risk. This is a greedy, stateless-per-call heuristic, not a global
// optimizer: it scores a snapshot of each engineer's open tickets and does
// not account for assignments happening concurrently.
type AssignmentService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	categories repository.IssueCategoryRepository
	history    repository.TicketHistoryRepository
	clock      clock.Clock
	logger     *zap.Logger
	jitter     func() float64
}

// AssignmentDependencies bundles collaborators.
type AssignmentDependencies struct {
	TicketRepo   repository.TicketRepository
	UserRepo     repository.UserRepository
	CategoryRepo repository.IssueCategoryRepository
	HistoryRepo  repository.TicketHistoryRepository
	Clock        clock.Clock
	Logger       *zap.Logger
	// Jitter breaks exact score ties; nil uses a random value in [0, 0.1).
	Jitter func() float64
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	jitter := deps.Jitter
	if jitter == nil {
		jitter = func() float64 { return rand.Float64() * 0.1 }
	}
	return &AssignmentService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		categories: deps.CategoryRepo,
		history:    deps.HistoryRepo,
		clock:      deps.Clock,
		logger:     deps.Logger,
		jitter:     jitter,
	}
}

// AutoAssign picks the least-loaded engineer for a NEW ticket, moves it to
// ASSIGNED and restarts the SLA window.
func (s *AssignmentService) AutoAssign(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if ticket.Status != domain.TicketStatusNew {
		return nil, apperrors.NewInvalidTransition(string(ticket.Status), string(domain.TicketStatusAssigned), "auto-assign")
	}

	engineers, err := s.users.ListByRole(ctx, domain.RoleEngineer)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(engineers) == 0 {
		return nil, apperrors.NewNoEngineers()
	}

	var best *domain.User
	bestScore := math.MaxFloat64
	for i := range engineers {
		engineer := &engineers[i]
		score, err := s.scoreEngineer(ctx, engineer.ID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		s.logger.Debug("auto-assign candidate",
			zap.Int64("engineer_id", engineer.ID),
			zap.Float64("score", score))
		if score < bestScore {
			bestScore = score
			best = engineer
		}
	}

	oldStatus := ticket.Status
	ticket.AssignedEngineerID = &best.ID
	ticket.Status = domain.TicketStatusAssigned

	category, err := s.categories.GetByID(ctx, ticket.CategoryID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}
	now := s.clock.Now()
	ticket.SLAStartTime = now
	ticket.SLADueTime = now.Add(category.SLADuration())
	ticket.SLAStatus = domain.SLAStatusOnTrack
	ticket.SLAAlertSent = false
	ticket.LastUpdatedAt = now

	if err := s.tickets.Update(ctx, ticket); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewConflict("ticket was modified concurrently", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if err := s.history.Create(ctx, &domain.TicketStatusHistory{
		TicketID:  ticket.ID,
		OldStatus: &oldStatus,
		NewStatus: domain.TicketStatusAssigned,
		ChangedAt: now,
	}); err != nil {
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// scoreEngineer computes openCount*2.0 + riskScore*1.5 + highCount*1.0 plus
// tie-breaking jitter over the engineer's currently assigned tickets.
func (s *AssignmentService) scoreEngineer(ctx context.Context, engineerID int64) (float64, error) {
	assigned, err := s.tickets.ListByEngineer(ctx, engineerID)
	if err != nil {
		return 0, err
	}

	openCount := 0
	riskScore := 0
	highCount := 0
	for i := range assigned {
		ticket := &assigned[i]
		if ticket.IsOpen() {
			openCount++
			switch ticket.SLAStatus {
			case domain.SLAStatusBreached:
				riskScore += 3
			case domain.SLAStatusAtRisk:
				riskScore += 2
			case domain.SLAStatusOnTrack:
				riskScore += 1
			}
			if ticket.Priority == domain.TicketPriorityHigh {
				highCount++
			}
		}
	}
	return float64(openCount)*2.0 + float64(riskScore)*1.5 + float64(highCount)*1.0 + s.jitter(), nil
}
