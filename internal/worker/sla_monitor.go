package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/network-ticketing/internal/observability"
	"github.com/spec-kit/network-ticketing/internal/service"
)

// Sweeper runs one SLA re-evaluation pass over all open tickets.
type Sweeper interface {
	SweepOnce(ctx context.Context) service.SweepResult
}

// SweepLocker arbitrates sweeps between monitor instances. TryLock returns
// false when another instance holds the lock for the current interval.
type SweepLocker interface {
	TryLock(ctx context.Context, ttl time.Duration) (bool, error)
}

// SLAMonitor drives periodic SLA re-evaluation on an explicit ticker. The
// sweep loop is a single goroutine, so sweeps of one monitor can never
// overlap; a tick that fires while a sweep is still running is simply the
// next iteration of the loop.
type SLAMonitor struct {
	sweeper  Sweeper
	locker   SweepLocker
	interval time.Duration
	logger   *zap.Logger
	metrics  *observability.Metrics

	stop chan struct{}
	done chan struct{}
}

// NewSLAMonitor constructs the monitor. locker may be nil for
// single-instance deployments.
func NewSLAMonitor(sweeper Sweeper, locker SweepLocker, interval time.Duration, logger *zap.Logger, metrics *observability.Metrics) *SLAMonitor {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &SLAMonitor{
		sweeper:  sweeper,
		locker:   locker,
		interval: interval,
		logger:   logger,
		metrics:  metrics,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop. The first sweep runs immediately.
func (m *SLAMonitor) Start(ctx context.Context) {
	go m.run(ctx)
}

// Stop halts the loop and waits for any in-flight sweep to finish.
func (m *SLAMonitor) Stop() {
	close(m.stop)
	<-m.done
}

func (m *SLAMonitor) run(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stop:
			return
		case <-ticker.C:
			m.sweep(ctx)
		}
	}
}

func (m *SLAMonitor) sweep(ctx context.Context) {
	if m.locker != nil {
		held, err := m.locker.TryLock(ctx, m.interval)
		if err != nil {
			// lock service unavailable; a single-instance deployment must
			// not stall on it
			m.logger.Warn("sla monitor: sweep lock unavailable, proceeding", zap.Error(err))
		} else if !held {
			m.metrics.RecordSweep(true)
			m.logger.Debug("sla monitor: sweep held by another instance")
			return
		}
	}

	start := time.Now()
	result := m.sweeper.SweepOnce(ctx)
	m.metrics.RecordSweep(false)
	m.logger.Info("sla sweep complete",
		zap.Int("evaluated", result.Evaluated),
		zap.Int("updated", result.Updated),
		zap.Int("errors", result.Errors),
		zap.Duration("duration", time.Since(start)))
}
