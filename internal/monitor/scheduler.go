package monitor

import (
	"context"
	"log/slog"
	"time"
)

// Scheduler drives Monitor.Tick on a fixed interval. The interval can be
// re-armed at runtime; re-arming never interrupts an evaluation already in
// flight.
type Scheduler struct {
	monitor *Monitor
	rearm   chan time.Duration
	stop    chan struct{}
}

// NewScheduler creates a scheduler for the monitor.
func NewScheduler(m *Monitor) *Scheduler {
	return &Scheduler{
		monitor: m,
		rearm:   make(chan time.Duration, 1),
		stop:    make(chan struct{}),
	}
}

// Run blocks, evaluating immediately and then on every interval until the
// context is canceled or Stop is called. The immediate evaluation is the one
// consumed by the monitor's first-run suppression.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	s.monitor.Tick(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	slog.Info("monitor scheduled", "interval", interval)

	for {
		select {
		case <-ticker.C:
			s.monitor.Tick(ctx)
		case d := <-s.rearm:
			ticker.Reset(d)
			slog.Info("check interval updated", "interval", d)
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		}
	}
}

// Restart re-arms the timer with a new period. Safe to call whether or not
// Run is active; only the latest pending period applies.
func (s *Scheduler) Restart(d time.Duration) {
	select {
	case <-s.rearm:
	default:
	}
	s.rearm <- d
}

// Stop halts the schedule. In-flight evaluations finish on their own.
func (s *Scheduler) Stop() {
	close(s.stop)
}
