package store

import (
	"sync"

	"github.com/cambial/cambio/internal/domain"
)

// AuditStore is a thread-safe in-memory store for audit entries.
// Entries are append-only and chronological.
type AuditStore struct {
	mu      sync.RWMutex
	entries []*domain.AuditEntry
	byUser  map[string][]*domain.AuditEntry
}

// NewAuditStore creates an empty AuditStore.
func NewAuditStore() *AuditStore {
	return &AuditStore{
		entries: make([]*domain.AuditEntry, 0),
		byUser:  make(map[string][]*domain.AuditEntry),
	}
}

// Append adds an entry to the trail.
func (s *AuditStore) Append(e *domain.AuditEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, e)
	if e.UserID != "" {
		s.byUser[e.UserID] = append(s.byUser[e.UserID], e)
	}
}

// ListByUser returns the user's entries, newest first.
func (s *AuditStore) ListByUser(userID string) []*domain.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.byUser[userID]
	result := make([]*domain.AuditEntry, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		result = append(result, all[i])
	}
	return result
}

// Latest returns up to n entries across all users, newest first.
func (s *AuditStore) Latest(n int) []*domain.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.AuditEntry, 0, n)
	for i := len(s.entries) - 1; i >= 0 && len(result) < n; i-- {
		result = append(result, s.entries[i])
	}
	return result
}
