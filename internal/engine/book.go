package engine

import (
	"sync"
	"time"

	"github.com/google/btree"
	"github.com/shopspring/decimal"

	"github.com/cambial/cambio/internal/domain"
)

// bookEntry is one open offer resting on the book for its pair.
type bookEntry struct {
	Rate      decimal.Decimal
	CreatedAt time.Time
	OfferID   string
	Offer     *domain.Offer
}

// entryLess orders a pair's offers best-first for a taker: lowest rate
// (least requested per unit offered) first, then created_at ascending,
// then offer_id ascending.
func entryLess(a, b bookEntry) bool {
	if cmp := a.Rate.Cmp(b.Rate); cmp != 0 {
		return cmp < 0
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.OfferID < b.OfferID
}

// OfferBook indexes OPEN offers per currency pair in B-trees ordered
// by quoted rate, with a secondary index for O(log n) removal by offer
// ID. It is a read-optimized view over the offer store; the lifecycle
// controller keeps it in sync on every transition.
type OfferBook struct {
	mu    sync.RWMutex
	pairs map[string]*btree.BTreeG[bookEntry]
	index map[string]bookEntry // offer_id → entry
}

// NewOfferBook creates an empty OfferBook.
func NewOfferBook() *OfferBook {
	return &OfferBook{
		pairs: make(map[string]*btree.BTreeG[bookEntry]),
		index: make(map[string]bookEntry),
	}
}

// Insert adds an open offer to its pair's tree.
func (b *OfferBook) Insert(o *domain.Offer) {
	entry := bookEntry{
		Rate:      o.Rate,
		CreatedAt: o.CreatedAt,
		OfferID:   o.OfferID,
		Offer:     o,
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	tree, ok := b.pairs[o.Pair()]
	if !ok {
		const degree = 32
		tree = btree.NewG[bookEntry](degree, entryLess)
		b.pairs[o.Pair()] = tree
	}
	tree.ReplaceOrInsert(entry)
	b.index[o.OfferID] = entry
}

// Remove deletes an offer from the book. A no-op if the offer isn't
// resting on it.
func (b *OfferBook) Remove(o *domain.Offer) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.index[o.OfferID]
	if !ok {
		return
	}
	delete(b.index, o.OfferID)
	if tree, ok := b.pairs[o.Pair()]; ok {
		tree.Delete(entry)
	}
}

// ListOpen returns up to n open offers for the pair, best rate first.
// n <= 0 means no limit.
func (b *OfferBook) ListOpen(pair string, n int) []*domain.Offer {
	b.mu.RLock()
	defer b.mu.RUnlock()

	tree, ok := b.pairs[pair]
	if !ok {
		return []*domain.Offer{}
	}

	result := make([]*domain.Offer, 0)
	tree.Ascend(func(entry bookEntry) bool {
		if n > 0 && len(result) >= n {
			return false
		}
		result = append(result, entry.Offer)
		return true
	})
	return result
}

// Pairs returns every pair with at least one resting offer.
func (b *OfferBook) Pairs() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	pairs := make([]string, 0, len(b.pairs))
	for pair, tree := range b.pairs {
		if tree.Len() > 0 {
			pairs = append(pairs, pair)
		}
	}
	return pairs
}

// Len returns the total number of resting offers.
func (b *OfferBook) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.index)
}
