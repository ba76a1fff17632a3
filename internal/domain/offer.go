package domain

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// OfferState represents the lifecycle state of a marketplace offer.
type OfferState string

const (
	OfferStateOpen      OfferState = "OPEN"
	OfferStateCancelled OfferState = "CANCELLED"
	OfferStateAccepted  OfferState = "ACCEPTED"
)

// offerTransitions is the explicit transition table. Any transition not
// listed here is rejected with ErrInvalidState.
var offerTransitions = map[OfferState][]OfferState{
	OfferStateOpen:      {OfferStateCancelled, OfferStateAccepted},
	OfferStateCancelled: {},
	OfferStateAccepted:  {},
}

// CanTransition reports whether the transition from s to next is listed
// in the transition table.
func (s OfferState) CanTransition(next OfferState) bool {
	for _, allowed := range offerTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no transitions leave the state.
func (s OfferState) Terminal() bool {
	return len(offerTransitions[s]) == 0
}

// Offer represents a standing intent to exchange AmountOffered of
// OfferCurrency for AmountRequested of WantCurrency. Every offer is
// created together with exactly one escrow hold covering the offered
// amount; HoldID references it for the whole lifecycle.
type Offer struct {
	OfferID         string
	Maker           string
	OfferCurrency   string
	WantCurrency    string
	AmountOffered   int64
	AmountRequested int64
	Rate            decimal.Decimal // want per offered, quoted by the maker
	State           OfferState
	HoldID          string
	CreatedAt       time.Time
	CancelledAt     *time.Time
	AcceptedAt      *time.Time
	AcceptedBy      string
	Mu              sync.Mutex // guards State transitions
}

// Pair returns the offer's currency pair key, e.g. "USD/LBP".
func (o *Offer) Pair() string {
	return o.OfferCurrency + "/" + o.WantCurrency
}

// OfferView is a point-in-time copy of an offer, taken under Mu so
// readers never observe a half-applied transition.
type OfferView struct {
	OfferID         string
	Maker           string
	OfferCurrency   string
	WantCurrency    string
	AmountOffered   int64
	AmountRequested int64
	Rate            decimal.Decimal
	State           OfferState
	HoldID          string
	CreatedAt       time.Time
	CancelledAt     *time.Time
	AcceptedAt      *time.Time
	AcceptedBy      string
}

// Snapshot copies the offer's fields under Mu. Serialization paths use
// it instead of reading the mutable fields while a transition races.
func (o *Offer) Snapshot() OfferView {
	o.Mu.Lock()
	defer o.Mu.Unlock()

	v := OfferView{
		OfferID:         o.OfferID,
		Maker:           o.Maker,
		OfferCurrency:   o.OfferCurrency,
		WantCurrency:    o.WantCurrency,
		AmountOffered:   o.AmountOffered,
		AmountRequested: o.AmountRequested,
		Rate:            o.Rate,
		State:           o.State,
		HoldID:          o.HoldID,
		CreatedAt:       o.CreatedAt,
		AcceptedBy:      o.AcceptedBy,
	}
	if o.CancelledAt != nil {
		t := *o.CancelledAt
		v.CancelledAt = &t
	}
	if o.AcceptedAt != nil {
		t := *o.AcceptedAt
		v.AcceptedAt = &t
	}
	return v
}
