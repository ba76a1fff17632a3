package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cambial/cambio/internal/domain"
	"github.com/cambial/cambio/internal/store"
)

// PostOfferParams carries a validated offer into the controller.
// Amounts are minor units; Rate is the maker's quote (want per
// offered) kept for display and book ordering.
type PostOfferParams struct {
	Maker           string
	OfferCurrency   string
	WantCurrency    string
	AmountOffered   int64
	AmountRequested int64
	Rate            decimal.Decimal
}

// OfferController drives the offer state machine. It owns Offer
// records; fund movement is delegated to the EscrowManager, and every
// transition is checked against the domain transition table under the
// offer's own lock, so two racing accepts resolve to exactly one
// winner.
type OfferController struct {
	offers *store.OfferStore
	escrow *EscrowManager
	book   *OfferBook
}

// NewOfferController creates an OfferController.
func NewOfferController(offers *store.OfferStore, escrow *EscrowManager, book *OfferBook) *OfferController {
	return &OfferController{offers: offers, escrow: escrow, book: book}
}

// Post creates an OPEN offer together with its escrow hold. The hold
// lock (balance check + debit) happens first; the offer only becomes
// visible once its funds are secured.
func (c *OfferController) Post(ctx context.Context, p PostOfferParams) (*domain.Offer, error) {
	offerID := uuid.New().String()

	hold, err := c.escrow.Lock(ctx, p.Maker, p.OfferCurrency, p.AmountOffered, offerID)
	if err != nil {
		return nil, err
	}

	offer := &domain.Offer{
		OfferID:         offerID,
		Maker:           p.Maker,
		OfferCurrency:   p.OfferCurrency,
		WantCurrency:    p.WantCurrency,
		AmountOffered:   p.AmountOffered,
		AmountRequested: p.AmountRequested,
		Rate:            p.Rate,
		State:           domain.OfferStateOpen,
		HoldID:          hold.HoldID,
		CreatedAt:       hold.CreatedAt,
	}
	c.offers.Create(offer)
	c.book.Insert(offer)

	return offer, nil
}

// Cancel transitions an OPEN offer to CANCELLED and refunds its hold.
// Only the maker may cancel; anyone else gets domain.ErrForbidden.
// A non-OPEN offer (already accepted, already cancelled) fails with
// domain.ErrInvalidState.
func (c *OfferController) Cancel(ctx context.Context, offerID, requester string) (*domain.Offer, error) {
	offer, err := c.offers.Get(offerID)
	if err != nil {
		return nil, err
	}

	offer.Mu.Lock()
	defer offer.Mu.Unlock()

	if offer.Maker != requester {
		return nil, domain.ErrForbidden
	}
	if !offer.State.CanTransition(domain.OfferStateCancelled) {
		return nil, domain.ErrInvalidState
	}

	if _, err := c.escrow.Refund(ctx, offer.HoldID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	offer.State = domain.OfferStateCancelled
	offer.CancelledAt = &now
	c.book.Remove(offer)

	return offer, nil
}

// Accept transitions an OPEN offer to ACCEPTED: the maker's escrowed
// funds release to the taker and the taker's reciprocal payment moves
// to the maker, committing together or not at all. The offer lock
// serializes competing accepts; the loser observes a non-OPEN state
// and fails with domain.ErrInvalidState.
func (c *OfferController) Accept(ctx context.Context, offerID, taker string) (*domain.Offer, *domain.LedgerRecord, error) {
	offer, err := c.offers.Get(offerID)
	if err != nil {
		return nil, nil, err
	}

	offer.Mu.Lock()
	defer offer.Mu.Unlock()

	if offer.Maker == taker {
		return nil, nil, domain.ErrInvalidOperation
	}
	if !offer.State.CanTransition(domain.OfferStateAccepted) {
		return nil, nil, domain.ErrInvalidState
	}

	record, err := c.escrow.Settle(ctx, offer.HoldID, taker, Leg{
		Currency: offer.WantCurrency,
		Amount:   offer.AmountRequested,
	})
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	offer.State = domain.OfferStateAccepted
	offer.AcceptedAt = &now
	offer.AcceptedBy = taker
	c.book.Remove(offer)

	return offer, record, nil
}
