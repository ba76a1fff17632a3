package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/cambial/cambio/internal/domain"
	"github.com/cambial/cambio/internal/store"
)

// AuditService records user-visible actions into the audit trail.
type AuditService struct {
	store *store.AuditStore
}

// NewAuditService creates an AuditService.
func NewAuditService(store *store.AuditStore) *AuditService {
	return &AuditService{store: store}
}

// Record appends one entry. userID may be empty for anonymous events
// (e.g. failed logins against unknown emails).
func (s *AuditService) Record(userID, action, details string) {
	s.store.Append(&domain.AuditEntry{
		EntryID:   uuid.New().String(),
		UserID:    userID,
		Action:    action,
		Details:   details,
		CreatedAt: time.Now().UTC(),
	})
}

// ListMine returns the user's entries, newest first.
func (s *AuditService) ListMine(userID string) []*domain.AuditEntry {
	return s.store.ListByUser(userID)
}

// Latest returns up to n entries across all users, newest first.
func (s *AuditService) Latest(n int) []*domain.AuditEntry {
	return s.store.Latest(n)
}
