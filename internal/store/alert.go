package store

import (
	"sync"

	"github.com/cambial/cambio/internal/domain"
)

// AlertStore is a thread-safe in-memory store for rate alerts.
type AlertStore struct {
	mu     sync.RWMutex
	alerts map[string]*domain.Alert
	byUser map[string][]*domain.Alert
}

// NewAlertStore creates an empty AlertStore.
func NewAlertStore() *AlertStore {
	return &AlertStore{
		alerts: make(map[string]*domain.Alert),
		byUser: make(map[string][]*domain.Alert),
	}
}

// Create adds an alert.
func (s *AlertStore) Create(a *domain.Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.alerts[a.AlertID] = a
	s.byUser[a.UserID] = append(s.byUser[a.UserID], a)
}

// Get retrieves an alert by ID. Returns domain.ErrNotFound if missing.
func (s *AlertStore) Get(id string) (*domain.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.alerts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

// ListByUser returns the user's alerts, newest first.
func (s *AlertStore) ListByUser(userID string) []*domain.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.byUser[userID]
	result := make([]*domain.Alert, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		result = append(result, all[i])
	}
	return result
}

// Active returns every active alert across all users.
func (s *AlertStore) Active() []*domain.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Alert, 0)
	for _, a := range s.alerts {
		if a.Active {
			result = append(result, a)
		}
	}
	return result
}

// Deactivate marks the alert inactive.
func (s *AlertStore) Deactivate(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.alerts[id]; ok {
		a.Active = false
	}
}

// Delete removes the alert. Returns domain.ErrNotFound if missing.
func (s *AlertStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.alerts[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(s.alerts, id)

	list := s.byUser[a.UserID]
	for i, item := range list {
		if item.AlertID == id {
			s.byUser[a.UserID] = append(list[:i], list[i+1:]...)
			break
		}
	}
	return nil
}
