package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/cambial/cambio/internal/domain"
	"github.com/cambial/cambio/internal/store"
)

// WatchlistService manages user watchlist items.
type WatchlistService struct {
	store *store.WatchlistStore
}

// NewWatchlistService creates a WatchlistService.
func NewWatchlistService(store *store.WatchlistStore) *WatchlistService {
	return &WatchlistService{store: store}
}

// Add validates and stores a watchlist item.
func (s *WatchlistService) Add(userID, itemType, value, note string) (*domain.WatchlistItem, error) {
	if itemType == "" {
		return nil, &domain.ValidationError{Message: "item_type is required"}
	}
	if value == "" {
		return nil, &domain.ValidationError{Message: "value is required"}
	}

	item := &domain.WatchlistItem{
		ItemID:    uuid.New().String(),
		UserID:    userID,
		ItemType:  itemType,
		Value:     value,
		Note:      note,
		CreatedAt: time.Now().UTC(),
	}
	s.store.Create(item)
	return item, nil
}

// ListMine returns the user's items, newest first.
func (s *WatchlistService) ListMine(userID string) []*domain.WatchlistItem {
	return s.store.ListByUser(userID)
}

// Delete removes one of the user's items. Returns domain.ErrNotFound
// for unknown IDs or items owned by someone else.
func (s *WatchlistService) Delete(userID, itemID string) error {
	item, err := s.store.Get(itemID)
	if err != nil || item.UserID != userID {
		return domain.ErrNotFound
	}
	return s.store.Delete(itemID)
}
