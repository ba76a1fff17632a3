package rate

import (
	"context"
	"log/slog"
	"time"
)

// Refresher is the slice of the rate service the poller needs: fetch a
// quote, record a snapshot, sweep alerts.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Poller periodically refreshes the rate so that snapshots accumulate
// and alerts fire even when no client is hitting the rate endpoint.
type Poller struct {
	interval time.Duration
	svc      Refresher
	logger   *slog.Logger
}

// NewPoller creates a Poller.
func NewPoller(interval time.Duration, svc Refresher, logger *slog.Logger) *Poller {
	return &Poller{interval: interval, svc: svc, logger: logger}
}

// Start launches a background goroutine that ticks at the configured
// interval. It stops when ctx is cancelled. Feed failures are logged
// and retried on the next tick.
func (p *Poller) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := p.svc.Refresh(ctx); err != nil {
					p.logger.Warn("rate refresh failed", slog.String("error", err.Error()))
				}
			}
		}
	}()
}
