package service

import (
	"context"
	"time"

	"github.com/cambial/cambio/internal/domain"
	"github.com/cambial/cambio/internal/stats"
	"github.com/cambial/cambio/internal/store"
)

// QuoteFetcher is the feed client surface the rate service depends on.
type QuoteFetcher interface {
	Fetch(ctx context.Context) (*domain.RateQuote, error)
}

// RateService fetches quotes, records snapshots, and sweeps alerts.
// It is the single write path into the snapshot store.
type RateService struct {
	client    QuoteFetcher
	snapshots *store.SnapshotStore
	alerts    *AlertService
}

// NewRateService creates a RateService.
func NewRateService(client QuoteFetcher, snapshots *store.SnapshotStore, alerts *AlertService) *RateService {
	return &RateService{client: client, snapshots: snapshots, alerts: alerts}
}

// Current fetches a live quote, records a snapshot, and sweeps alerts
// against the new mid rate.
func (s *RateService) Current(ctx context.Context) (*domain.RateQuote, error) {
	quote, err := s.client.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	s.snapshots.Append(&domain.RateSnapshot{
		Buy:       quote.Buy,
		Sell:      quote.Sell,
		Mid:       quote.Mid,
		CreatedAt: quote.FetchedAt,
	})
	s.alerts.Sweep(quote.Mid)

	return quote, nil
}

// Refresh fetches and records a quote, discarding it. Satisfies the
// poller's Refresher interface.
func (s *RateService) Refresh(ctx context.Context) error {
	_, err := s.Current(ctx)
	return err
}

// Stats computes rate statistics over snapshots in [from, to].
func (s *RateService) Stats(from, to time.Time) stats.RateStats {
	return stats.Compute(s.snapshots.InRange(from, to))
}

// Snapshots returns stored snapshots in [from, to], oldest first.
func (s *RateService) Snapshots(from, to time.Time) []*domain.RateSnapshot {
	return s.snapshots.InRange(from, to)
}
