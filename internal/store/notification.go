package store

import (
	"sync"

	"github.com/cambial/cambio/internal/domain"
)

// NotificationStore is a thread-safe in-memory store for in-app
// notifications.
type NotificationStore struct {
	mu     sync.RWMutex
	notifs map[string]*domain.Notification
	byUser map[string][]*domain.Notification
}

// NewNotificationStore creates an empty NotificationStore.
func NewNotificationStore() *NotificationStore {
	return &NotificationStore{
		notifs: make(map[string]*domain.Notification),
		byUser: make(map[string][]*domain.Notification),
	}
}

// Create adds a notification.
func (s *NotificationStore) Create(n *domain.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifs[n.NotificationID] = n
	s.byUser[n.UserID] = append(s.byUser[n.UserID], n)
}

// Get retrieves a notification by ID. Returns domain.ErrNotFound if
// missing.
func (s *NotificationStore) Get(id string) (*domain.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.notifs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return n, nil
}

// ListByUser returns the user's notifications, newest first.
func (s *NotificationStore) ListByUser(userID string) []*domain.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.byUser[userID]
	result := make([]*domain.Notification, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		result = append(result, all[i])
	}
	return result
}

// MarkRead flags a notification as read. Returns domain.ErrNotFound if
// missing.
func (s *NotificationStore) MarkRead(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifs[id]
	if !ok {
		return domain.ErrNotFound
	}
	n.Read = true
	return nil
}

// Delete removes a notification. Returns domain.ErrNotFound if missing.
func (s *NotificationStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifs[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(s.notifs, id)

	list := s.byUser[n.UserID]
	for i, item := range list {
		if item.NotificationID == id {
			s.byUser[n.UserID] = append(list[:i], list[i+1:]...)
			break
		}
	}
	return nil
}
