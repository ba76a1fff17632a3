package domain

import (
	"sync"
	"time"
)

// HoldState represents the lifecycle state of an escrow hold.
type HoldState string

const (
	HoldStateActive   HoldState = "ACTIVE"
	HoldStateRefunded HoldState = "REFUNDED"
	HoldStateReleased HoldState = "RELEASED"
)

// Hold tracks one escrow reservation tied to one offer. The amount was
// debited from the owner's spendable balance when the hold was created;
// it is credited back on refund or transferred to the counterparty on
// release. REFUNDED and RELEASED are terminal.
type Hold struct {
	HoldID    string
	OfferID   string
	Owner     string
	Currency  string
	Amount    int64
	State     HoldState
	CreatedAt time.Time
	ClosedAt  *time.Time
	Mu        sync.Mutex // guards State transitions
}

// Closed reports whether the hold has reached a terminal state.
// Caller must hold Mu.
func (h *Hold) Closed() bool {
	return h.State != HoldStateActive
}
