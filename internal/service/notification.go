package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/cambial/cambio/internal/domain"
	"github.com/cambial/cambio/internal/store"
)

// NotificationService creates and manages in-app notifications.
type NotificationService struct {
	store *store.NotificationStore
}

// NewNotificationService creates a NotificationService.
func NewNotificationService(store *store.NotificationStore) *NotificationService {
	return &NotificationService{store: store}
}

// Notify delivers a message to one user.
func (s *NotificationService) Notify(userID, message string) {
	s.store.Create(&domain.Notification{
		NotificationID: uuid.New().String(),
		UserID:         userID,
		Message:        message,
		CreatedAt:      time.Now().UTC(),
	})
}

// ListMine returns the user's notifications, newest first.
func (s *NotificationService) ListMine(userID string) []*domain.Notification {
	return s.store.ListByUser(userID)
}

// MarkRead flags one of the user's notifications as read. Returns
// domain.ErrNotFound for unknown IDs or notifications owned by someone
// else.
func (s *NotificationService) MarkRead(userID, notificationID string) error {
	n, err := s.store.Get(notificationID)
	if err != nil || n.UserID != userID {
		return domain.ErrNotFound
	}
	return s.store.MarkRead(notificationID)
}

// Delete removes one of the user's notifications. Same ownership rule
// as MarkRead.
func (s *NotificationService) Delete(userID, notificationID string) error {
	n, err := s.store.Get(notificationID)
	if err != nil || n.UserID != userID {
		return domain.ErrNotFound
	}
	return s.store.Delete(notificationID)
}
