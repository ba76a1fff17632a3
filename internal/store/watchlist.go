package store

import (
	"sync"

	"github.com/cambial/cambio/internal/domain"
)

// WatchlistStore is a thread-safe in-memory store for watchlist items.
type WatchlistStore struct {
	mu     sync.RWMutex
	items  map[string]*domain.WatchlistItem
	byUser map[string][]*domain.WatchlistItem
}

// NewWatchlistStore creates an empty WatchlistStore.
func NewWatchlistStore() *WatchlistStore {
	return &WatchlistStore{
		items:  make(map[string]*domain.WatchlistItem),
		byUser: make(map[string][]*domain.WatchlistItem),
	}
}

// Create adds a watchlist item.
func (s *WatchlistStore) Create(item *domain.WatchlistItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[item.ItemID] = item
	s.byUser[item.UserID] = append(s.byUser[item.UserID], item)
}

// Get retrieves an item by ID. Returns domain.ErrNotFound if missing.
func (s *WatchlistStore) Get(id string) (*domain.WatchlistItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

// ListByUser returns the user's items, newest first.
func (s *WatchlistStore) ListByUser(userID string) []*domain.WatchlistItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.byUser[userID]
	result := make([]*domain.WatchlistItem, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		result = append(result, all[i])
	}
	return result
}

// Delete removes an item. Returns domain.ErrNotFound if missing.
func (s *WatchlistStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(s.items, id)

	list := s.byUser[item.UserID]
	for i, it := range list {
		if it.ItemID == id {
			s.byUser[item.UserID] = append(list[:i], list[i+1:]...)
			break
		}
	}
	return nil
}
