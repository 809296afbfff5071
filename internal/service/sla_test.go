package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/network-ticketing/internal/domain"
	"github.com/spec-kit/network-ticketing/internal/observability"
)

var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func managed(id int64) *int64 { v := id; return &v }

func slaTicket(start time.Time, window time.Duration, status domain.TicketStatus, managerID *int64) *domain.Ticket {
	return &domain.Ticket{
		ID:                  1,
		Status:              status,
		AssignedByManagerID: managerID,
		SLAStartTime:        start,
		SLADueTime:          start.Add(window),
		SLAStatus:           domain.SLAStatusOnTrack,
	}
}

func TestDeriveSLAStatus(t *testing.T) {
	t.Run("on track early in window", func(t *testing.T) {
		ticket := slaTicket(t0, 10*time.Hour, domain.TicketStatusAssigned, managed(9))
		assert.Equal(t, domain.SLAStatusOnTrack, DeriveSLAStatus(ticket, t0.Add(time.Hour)))
	})

	t.Run("at risk at 80 percent", func(t *testing.T) {
		ticket := slaTicket(t0, 10*time.Hour, domain.TicketStatusAssigned, managed(9))
		assert.Equal(t, domain.SLAStatusOnTrack, DeriveSLAStatus(ticket, t0.Add(7*time.Hour+59*time.Minute)))
		assert.Equal(t, domain.SLAStatusAtRisk, DeriveSLAStatus(ticket, t0.Add(8*time.Hour)))
	})

	t.Run("breached after due time", func(t *testing.T) {
		ticket := slaTicket(t0, 10*time.Hour, domain.TicketStatusAssigned, managed(9))
		assert.Equal(t, domain.SLAStatusAtRisk, DeriveSLAStatus(ticket, t0.Add(10*time.Hour)))
		assert.Equal(t, domain.SLAStatusBreached, DeriveSLAStatus(ticket, t0.Add(10*time.Hour+time.Second)))
	})

	t.Run("never started clock stays on track", func(t *testing.T) {
		// NEW ticket without manager assignment: the provisional window is
		// not a real commitment even when long expired
		ticket := slaTicket(t0, time.Hour, domain.TicketStatusNew, nil)
		assert.Equal(t, domain.SLAStatusOnTrack, DeriveSLAStatus(ticket, t0.Add(100*time.Hour)))
	})

	t.Run("self picked ticket counts", func(t *testing.T) {
		ticket := slaTicket(t0, time.Hour, domain.TicketStatusInProgress, nil)
		assert.Equal(t, domain.SLAStatusBreached, DeriveSLAStatus(ticket, t0.Add(2*time.Hour)))
	})

	t.Run("degenerate window is on track", func(t *testing.T) {
		ticket := slaTicket(t0, 0, domain.TicketStatusAssigned, managed(9))
		assert.Equal(t, domain.SLAStatusOnTrack, DeriveSLAStatus(ticket, t0))
	})

	t.Run("pure no mutation", func(t *testing.T) {
		ticket := slaTicket(t0, time.Hour, domain.TicketStatusAssigned, managed(9))
		_ = DeriveSLAStatus(ticket, t0.Add(2*time.Hour))
		assert.Equal(t, domain.SLAStatusOnTrack, ticket.SLAStatus)
		assert.False(t, ticket.SLAAlertSent)
	})
}

func newSLAFixture(clk *fakeClock) (*SLAService, *fakeTicketRepo, *recordingNotifier) {
	repo := newFakeTicketRepo()
	notifier := &recordingNotifier{}
	svc := NewSLAService(repo, notifier, clk, testLogger(), observability.NewMetrics())
	return svc, repo, notifier
}

func TestSLAServiceRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("no write when status unchanged", func(t *testing.T) {
		clk := newFakeClock(t0)
		svc, repo, _ := newSLAFixture(clk)
		ticket := slaTicket(t0, 10*time.Hour, domain.TicketStatusAssigned, managed(9))
		require.NoError(t, repo.Create(ctx, ticket))

		updated, err := svc.Refresh(ctx, ticket)
		require.NoError(t, err)
		assert.False(t, updated)
	})

	t.Run("closed tickets are never touched", func(t *testing.T) {
		clk := newFakeClock(t0.Add(100 * time.Hour))
		svc, repo, notifier := newSLAFixture(clk)
		ticket := slaTicket(t0, time.Hour, domain.TicketStatusClosed, managed(9))
		require.NoError(t, repo.Create(ctx, ticket))

		updated, err := svc.Refresh(ctx, ticket)
		require.NoError(t, err)
		assert.False(t, updated)
		assert.Zero(t, notifier.breachCount())
	})

	t.Run("breach alert fires once per episode", func(t *testing.T) {
		clk := newFakeClock(t0)
		svc, repo, notifier := newSLAFixture(clk)
		ticket := slaTicket(t0, time.Hour, domain.TicketStatusAssigned, managed(9))
		require.NoError(t, repo.Create(ctx, ticket))

		clk.Set(t0.Add(2 * time.Hour))
		updated, err := svc.Refresh(ctx, ticket)
		require.NoError(t, err)
		assert.True(t, updated)
		assert.Equal(t, domain.SLAStatusBreached, ticket.SLAStatus)
		assert.True(t, ticket.SLAAlertSent)
		assert.Equal(t, 1, notifier.breachCount())

		// still breached later; no second alert, no second write
		clk.Set(t0.Add(3 * time.Hour))
		updated, err = svc.Refresh(ctx, ticket)
		require.NoError(t, err)
		assert.False(t, updated)
		assert.Equal(t, 1, notifier.breachCount())
	})

	t.Run("warning fires on edge to at risk", func(t *testing.T) {
		clk := newFakeClock(t0)
		svc, repo, notifier := newSLAFixture(clk)
		ticket := slaTicket(t0, 10*time.Hour, domain.TicketStatusAssigned, managed(9))
		require.NoError(t, repo.Create(ctx, ticket))

		clk.Set(t0.Add(9 * time.Hour))
		updated, err := svc.Refresh(ctx, ticket)
		require.NoError(t, err)
		assert.True(t, updated)
		assert.Equal(t, 1, notifier.warningCount())
		assert.Zero(t, notifier.breachCount())

		clk.Set(t0.Add(9*time.Hour + 30*time.Minute))
		updated, err = svc.Refresh(ctx, ticket)
		require.NoError(t, err)
		assert.False(t, updated)
		assert.Equal(t, 1, notifier.warningCount())
	})
}

func TestSLAServiceSweepOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("sweep updates only changed tickets", func(t *testing.T) {
		clk := newFakeClock(t0)
		svc, repo, _ := newSLAFixture(clk)

		fresh := slaTicket(t0, 10*time.Hour, domain.TicketStatusAssigned, managed(9))
		expired := slaTicket(t0, time.Hour, domain.TicketStatusAssigned, managed(9))
		require.NoError(t, repo.Create(ctx, fresh))
		require.NoError(t, repo.Create(ctx, expired))

		clk.Set(t0.Add(2 * time.Hour))
		result := svc.SweepOnce(ctx)
		assert.Equal(t, 2, result.Evaluated)
		assert.Equal(t, 1, result.Updated)
		assert.Zero(t, result.Errors)
		assert.Equal(t, domain.SLAStatusBreached, repo.mustGet(expired.ID).SLAStatus)
		assert.Equal(t, domain.SLAStatusOnTrack, repo.mustGet(fresh.ID).SLAStatus)
	})

	t.Run("sweep is idempotent", func(t *testing.T) {
		clk := newFakeClock(t0.Add(2 * time.Hour))
		svc, repo, notifier := newSLAFixture(clk)
		ticket := slaTicket(t0, time.Hour, domain.TicketStatusAssigned, managed(9))
		require.NoError(t, repo.Create(ctx, ticket))

		first := svc.SweepOnce(ctx)
		second := svc.SweepOnce(ctx)
		assert.Equal(t, 1, first.Updated)
		assert.Zero(t, second.Updated)
		assert.Equal(t, 1, notifier.breachCount())
	})
}

// Timeline: a 4h-window ticket is manager-assigned at T0+1h, crosses into
// AT_RISK at 80% of the window and into BREACHED past due, each edge
// notifying exactly once.
func TestSLATimeline(t *testing.T) {
	ctx := context.Background()
	clk := newFakeClock(t0)
	svc, repo, notifier := newSLAFixture(clk)

	assignedAt := t0.Add(time.Hour)
	ticket := slaTicket(assignedAt, 4*time.Hour, domain.TicketStatusAssigned, managed(9))
	require.NoError(t, repo.Create(ctx, ticket))

	// T0+2h: 25% through the window
	clk.Set(t0.Add(2 * time.Hour))
	_ = svc.SweepOnce(ctx)
	assert.Equal(t, domain.SLAStatusOnTrack, repo.mustGet(ticket.ID).SLAStatus)

	// T0+4h48m: 3h48m of 4h elapsed (95%), beyond the 80% threshold
	clk.Set(t0.Add(4*time.Hour + 48*time.Minute))
	_ = svc.SweepOnce(ctx)
	assert.Equal(t, domain.SLAStatusAtRisk, repo.mustGet(ticket.ID).SLAStatus)
	assert.Equal(t, 1, notifier.warningCount())

	// T0+5h30m: past due
	clk.Set(t0.Add(5*time.Hour + 30*time.Minute))
	_ = svc.SweepOnce(ctx)
	assert.Equal(t, domain.SLAStatusBreached, repo.mustGet(ticket.ID).SLAStatus)
	assert.Equal(t, 1, notifier.breachCount())

	// T0+6h: still breached, no re-notification
	clk.Set(t0.Add(6 * time.Hour))
	_ = svc.SweepOnce(ctx)
	assert.Equal(t, 1, notifier.breachCount())
	assert.Equal(t, 1, notifier.warningCount())
}
