package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/network-ticketing/internal/clock"
	"github.com/spec-kit/network-ticketing/internal/domain"
	"github.com/spec-kit/network-ticketing/internal/observability"
	"github.com/spec-kit/network-ticketing/internal/repository"
)

// atRiskThreshold is the fraction of the SLA window that may elapse before a
// ticket is flagged AT_RISK.
const atRiskThreshold = 0.8

// DeriveSLAStatus classifies a ticket's SLA urgency at the given instant.
// It is pure: no side effects, no mutation of the ticket.
//
// A ticket whose SLA clock was never meaningfully started (no manager
// assignment and work not yet begun) is ON_TRACK regardless of its
// placeholder window.
func DeriveSLAStatus(ticket *domain.Ticket, now time.Time) domain.SLAStatus {
	if ticket.AssignedByManagerID == nil && ticket.Status != domain.TicketStatusInProgress {
		return domain.SLAStatusOnTrack
	}
	if now.After(ticket.SLADueTime) {
		return domain.SLAStatusBreached
	}
	totalMinutes := ticket.SLADueTime.Sub(ticket.SLAStartTime).Minutes()
	if totalMinutes <= 0 {
		return domain.SLAStatusOnTrack
	}
	usedMinutes := now.Sub(ticket.SLAStartTime).Minutes()
	if usedMinutes/totalMinutes >= atRiskThreshold {
		return domain.SLAStatusAtRisk
	}
	return domain.SLAStatusOnTrack
}

// SweepResult summarizes one monitor pass.
type SweepResult struct {
	Evaluated int
	Updated   int
	Errors    int
}

// SLAService owns the stateful derive-persist-notify unit shared by the
// periodic monitor and the lazy refresh on read paths. Keeping both paths on
// this single implementation is what guarantees the edge-triggered alert
// rule: a warning or breach notification fires only when the stored SLA
// status actually changes, and the breach alert at most once per breach
// episode.
type SLAService struct {
	tickets  repository.TicketRepository
	notifier Notifier
	clock    clock.Clock
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// NewSLAService constructs the service.
func NewSLAService(tickets repository.TicketRepository, notifier Notifier, clk clock.Clock, logger *zap.Logger, metrics *observability.Metrics) *SLAService {
	return &SLAService{
		tickets:  tickets,
		notifier: notifier,
		clock:    clk,
		logger:   logger,
		metrics:  metrics,
	}
}

// Refresh re-derives the ticket's SLA status and, when it changed, persists
// it and emits the appropriate notifications. Returns whether a write
// happened. Closed tickets are never touched.
func (s *SLAService) Refresh(ctx context.Context, ticket *domain.Ticket) (bool, error) {
	if ticket.Status == domain.TicketStatusClosed {
		return false, nil
	}

	now := s.clock.Now()
	oldStatus := ticket.SLAStatus
	newStatus := DeriveSLAStatus(ticket, now)
	if newStatus == oldStatus {
		return false, nil
	}

	ticket.SLAStatus = newStatus
	breachAlert := false
	if newStatus == domain.SLAStatusBreached && !ticket.SLAAlertSent {
		ticket.SLAAlertSent = true
		breachAlert = true
	}
	ticket.LastUpdatedAt = now

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return false, err
	}
	s.metrics.RecordSLATransition(string(oldStatus), string(newStatus))

	if breachAlert {
		s.notifier.NotifySLABreach(ctx, ticket, oldStatus)
	}
	if newStatus == domain.SLAStatusAtRisk && oldStatus != domain.SLAStatusAtRisk {
		s.notifier.NotifySLAWarning(ctx, ticket, oldStatus)
	}
	return true, nil
}

// SweepOnce re-evaluates every non-closed ticket. Per-ticket failures are
// logged and counted but never abort the sweep.
func (s *SLAService) SweepOnce(ctx context.Context) SweepResult {
	var result SweepResult

	tickets, err := s.tickets.ListByStatusNot(ctx, domain.TicketStatusClosed)
	if err != nil {
		s.logger.Error("sla sweep: list tickets", zap.Error(err))
		result.Errors++
		return result
	}

	for i := range tickets {
		ticket := tickets[i]
		result.Evaluated++
		updated, err := s.Refresh(ctx, &ticket)
		if err != nil {
			// concurrent lifecycle transition or storage failure; the next
			// sweep re-evaluates this ticket from fresh state
			s.logger.Warn("sla sweep: refresh ticket failed",
				zap.Int64("ticket_id", ticket.ID), zap.Error(err))
			result.Errors++
			continue
		}
		if updated {
			result.Updated++
		}
	}
	return result
}
