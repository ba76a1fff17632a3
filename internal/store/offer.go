package store

import (
	"sync"

	"github.com/cambial/cambio/internal/domain"
)

// OfferStore is a thread-safe in-memory store for offers, with a
// primary index by offer_id and a secondary index by maker.
type OfferStore struct {
	mu      sync.RWMutex
	offers  map[string]*domain.Offer
	byMaker map[string][]*domain.Offer // maker → offers (append-only)
}

// NewOfferStore creates an empty OfferStore.
func NewOfferStore() *OfferStore {
	return &OfferStore{
		offers:  make(map[string]*domain.Offer),
		byMaker: make(map[string][]*domain.Offer),
	}
}

// Create adds an offer to the store and appends it to the maker's
// secondary index.
func (s *OfferStore) Create(o *domain.Offer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.offers[o.OfferID] = o
	s.byMaker[o.Maker] = append(s.byMaker[o.Maker], o)
}

// Get retrieves an offer by ID. It returns domain.ErrNotFound if the
// offer does not exist.
func (s *OfferStore) Get(id string) (*domain.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.offers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

// ListByMaker returns the maker's offers in reverse chronological
// order (newest first).
func (s *OfferStore) ListByMaker(maker string) []*domain.Offer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.byMaker[maker]
	result := make([]*domain.Offer, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		result = append(result, all[i])
	}
	return result
}

// CountByState returns the number of offers currently in the given
// state. Used by the admin reports endpoint.
func (s *OfferStore) CountByState(state domain.OfferState) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, o := range s.offers {
		o.Mu.Lock()
		if o.State == state {
			count++
		}
		o.Mu.Unlock()
	}
	return count
}
