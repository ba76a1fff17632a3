package store

import (
	"sync"

	"github.com/cambial/cambio/internal/domain"
)

// HoldStore is a thread-safe in-memory store for escrow holds, with a
// primary index by hold_id and a secondary index by owner.
type HoldStore struct {
	mu      sync.RWMutex
	holds   map[string]*domain.Hold
	byOwner map[string][]*domain.Hold // owner → holds (append-only)
}

// NewHoldStore creates an empty HoldStore.
func NewHoldStore() *HoldStore {
	return &HoldStore{
		holds:   make(map[string]*domain.Hold),
		byOwner: make(map[string][]*domain.Hold),
	}
}

// Create adds a hold to the store and appends it to the owner's
// secondary index.
func (s *HoldStore) Create(h *domain.Hold) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.holds[h.HoldID] = h
	s.byOwner[h.Owner] = append(s.byOwner[h.Owner], h)
}

// Get retrieves a hold by ID. It returns domain.ErrNotFound if the
// hold does not exist.
func (s *HoldStore) Get(id string) (*domain.Hold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.holds[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return h, nil
}

// ActiveTotal sums the amounts of the owner's ACTIVE holds in the
// given currency. Together with the spendable ledger value this yields
// the total balance figure.
func (s *HoldStore) ActiveTotal(owner, currency string) int64 {
	s.mu.RLock()
	holds := s.byOwner[owner]
	s.mu.RUnlock()

	var total int64
	for _, h := range holds {
		h.Mu.Lock()
		if h.State == domain.HoldStateActive && h.Currency == currency {
			total += h.Amount
		}
		h.Mu.Unlock()
	}
	return total
}
