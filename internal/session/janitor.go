package session

import (
	"context"
	"log/slog"
	"time"
)

// Janitor periodically sweeps idle sessions out of a Manager.
type Janitor struct {
	manager  *Manager
	interval time.Duration
	logger   *slog.Logger

	sweepNow chan struct{}
}

// NewJanitor creates a janitor sweeping every interval.
func NewJanitor(manager *Manager, interval time.Duration, logger *slog.Logger) *Janitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{
		manager:  manager,
		interval: interval,
		logger:   logger,
		sweepNow: make(chan struct{}),
	}
}

// SweepNow asks a running janitor to sweep immediately.
func (j *Janitor) SweepNow() {
	select {
	case j.sweepNow <- struct{}{}:
	default:
	}
}

// Run sweeps until ctx is done.
func (j *Janitor) Run(ctx context.Context) {
	t := time.NewTicker(j.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		case <-j.sweepNow:
		}

		start := time.Now()
		if n := j.manager.Sweep(j.manager.opts.Now()); n > 0 {
			j.logger.Info("Expired idle sessions",
				"expired", n,
				"remaining", j.manager.Len(),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		}
	}
}
