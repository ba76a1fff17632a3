package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cambial/cambio/internal/domain"
	"github.com/cambial/cambio/internal/engine"
	"github.com/cambial/cambio/internal/store"
)

// DefaultPair is the pair the open-offer listing serves when the
// caller doesn't name one.
const DefaultPair = domain.CurrencyUSD + "/" + domain.CurrencyLBP

// PostOfferRequest represents the input for posting an offer. Amount
// is major units of OfferCurrency; Rate is WantCurrency per unit of
// OfferCurrency.
type PostOfferRequest struct {
	Maker         string
	OfferCurrency string
	WantCurrency  string
	Amount        float64
	Rate          float64
}

// MarketService handles the P2P offer marketplace: posting,
// listing, cancellation, and acceptance.
type MarketService struct {
	ctrl   *engine.OfferController
	offers *store.OfferStore
	book   *engine.OfferBook
	log    *store.LedgerLog
	notifs *NotificationService
	audit  *AuditService
}

// NewMarketService creates a MarketService.
func NewMarketService(
	ctrl *engine.OfferController,
	offers *store.OfferStore,
	book *engine.OfferBook,
	log *store.LedgerLog,
	notifs *NotificationService,
	audit *AuditService,
) *MarketService {
	return &MarketService{
		ctrl:   ctrl,
		offers: offers,
		book:   book,
		log:    log,
		notifs: notifs,
		audit:  audit,
	}
}

// PostOffer validates the request and creates an OPEN offer with its
// escrow hold.
func (s *MarketService) PostOffer(ctx context.Context, req PostOfferRequest) (*domain.Offer, error) {
	if !domain.ValidCurrency(req.OfferCurrency) || !domain.ValidCurrency(req.WantCurrency) {
		return nil, &domain.ValidationError{Message: "currencies must match ^[A-Z]{3}$"}
	}
	if req.OfferCurrency == req.WantCurrency {
		return nil, &domain.ValidationError{Message: "offer and want currencies must differ"}
	}
	if req.Amount <= 0 {
		return nil, &domain.ValidationError{Message: "amount must be greater than 0"}
	}
	amountOffered, err := domain.ToMinor(req.Amount)
	if err != nil {
		return nil, &domain.ValidationError{Message: "amount must have at most 2 decimal places"}
	}
	if req.Rate <= 0 {
		return nil, &domain.ValidationError{Message: "rate must be greater than 0"}
	}

	rate := decimal.NewFromFloat(req.Rate)
	amountRequested := domain.Convert(amountOffered, rate)
	if amountRequested <= 0 {
		return nil, &domain.ValidationError{Message: "rate is too small for the offered amount"}
	}

	offer, err := s.ctrl.Post(ctx, engine.PostOfferParams{
		Maker:           req.Maker,
		OfferCurrency:   req.OfferCurrency,
		WantCurrency:    req.WantCurrency,
		AmountOffered:   amountOffered,
		AmountRequested: amountRequested,
		Rate:            rate,
	})
	if err != nil {
		return nil, err
	}
	offersTotal.WithLabelValues("posted").Inc()

	s.audit.Record(req.Maker, "OFFER_CREATED", fmt.Sprintf(
		"Created offer %s: %d %s for %d %s",
		offer.OfferID, offer.AmountOffered, offer.OfferCurrency,
		offer.AmountRequested, offer.WantCurrency))
	return offer, nil
}

// ListOpen returns up to limit open offers for the pair, best rate
// first. An empty pair defaults to USD/LBP.
func (s *MarketService) ListOpen(pair string, limit int) ([]*domain.Offer, error) {
	if pair == "" {
		pair = DefaultPair
	}
	parts := strings.Split(pair, "/")
	if len(parts) != 2 || !domain.ValidCurrency(parts[0]) || !domain.ValidCurrency(parts[1]) {
		return nil, &domain.ValidationError{Message: "pair must look like USD/LBP"}
	}
	return s.book.ListOpen(pair, limit), nil
}

// MyOffers returns the maker's offers, newest first.
func (s *MarketService) MyOffers(maker string) []*domain.Offer {
	return s.offers.ListByMaker(maker)
}

// CancelOffer cancels the requester's own OPEN offer and refunds its
// hold.
func (s *MarketService) CancelOffer(ctx context.Context, offerID, requester string) (*domain.Offer, error) {
	offer, err := s.ctrl.Cancel(ctx, offerID, requester)
	if err != nil {
		return nil, err
	}
	offersTotal.WithLabelValues("cancelled").Inc()

	s.audit.Record(requester, "OFFER_CANCELLED", fmt.Sprintf("Cancelled offer %s", offerID))
	s.notifs.Notify(requester, fmt.Sprintf("You cancelled your offer %s. Funds refunded.", offerID))
	return offer, nil
}

// AcceptOffer settles an OPEN offer for the taker. Both parties are
// notified on success.
func (s *MarketService) AcceptOffer(ctx context.Context, offerID, taker string) (*domain.Offer, *domain.LedgerRecord, error) {
	offer, record, err := s.ctrl.Accept(ctx, offerID, taker)
	if err != nil {
		return nil, nil, err
	}
	offersTotal.WithLabelValues("accepted").Inc()

	s.audit.Record(taker, "OFFER_ACCEPTED", fmt.Sprintf(
		"Accepted offer %s, settlement %s", offerID, record.RecordID))
	s.notifs.Notify(offer.Maker, fmt.Sprintf(
		"SUCCESS: Your offer %s was accepted! Settlement %s completed.", offerID, record.RecordID))
	s.notifs.Notify(taker, fmt.Sprintf(
		"SUCCESS: You accepted offer %s. Settlement %s completed.", offerID, record.RecordID))
	return offer, record, nil
}

// MyTrades returns settlement records involving the user, oldest
// first.
func (s *MarketService) MyTrades(userID string) []*domain.LedgerRecord {
	records := make([]*domain.LedgerRecord, 0)
	for r := range s.log.Query(store.RecordFilter{UserID: userID, Type: domain.RecordEscrowRelease}) {
		records = append(records, r)
	}
	return records
}
