package store

import (
	"sync"
	"time"

	"github.com/cambial/cambio/internal/domain"
)

// SnapshotStore is a thread-safe in-memory store for rate snapshots.
// Snapshots are append-only and chronological.
type SnapshotStore struct {
	mu    sync.RWMutex
	snaps []*domain.RateSnapshot
}

// NewSnapshotStore creates an empty SnapshotStore.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{snaps: make([]*domain.RateSnapshot, 0)}
}

// Append adds a snapshot to the chronological list.
func (s *SnapshotStore) Append(snap *domain.RateSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps = append(s.snaps, snap)
}

// InRange returns snapshots with from <= created_at <= to in
// chronological order.
func (s *SnapshotStore) InRange(from, to time.Time) []*domain.RateSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.RateSnapshot, 0)
	for _, snap := range s.snaps {
		if snap.CreatedAt.Before(from) || snap.CreatedAt.After(to) {
			continue
		}
		result = append(result, snap)
	}
	return result
}

// Latest returns the most recent snapshot, or nil if none exist.
func (s *SnapshotStore) Latest() *domain.RateSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.snaps) == 0 {
		return nil
	}
	return s.snaps[len(s.snaps)-1]
}
