package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cambial/cambio/internal/domain"
	"github.com/cambial/cambio/internal/store"
)

// Leg is one side of a transfer: an amount of a single currency in
// minor units. Amounts are never negative; direction comes from the
// debit/credit position in the request.
type Leg struct {
	Currency string
	Amount   int64
}

// SwapRequest describes an atomic two-party exchange. Party A's legs
// must mirror party B's exactly: A's debit is B's credit and vice
// versa.
type SwapRequest struct {
	PartyA  string
	DebitA  Leg
	CreditA Leg
	PartyB  string
	DebitB  Leg
	CreditB Leg
}

// SwapEngine executes atomic two-party transfers. Every successful
// swap applies all four balance adjustments and appends exactly one
// ledger record; any failure aborts with no balance change at all.
type SwapEngine struct {
	accounts *store.AccountStore
	log      *store.LedgerLog
}

// NewSwapEngine creates a SwapEngine over the given stores.
func NewSwapEngine(accounts *store.AccountStore, log *store.LedgerLog) *SwapEngine {
	return &SwapEngine{accounts: accounts, log: log}
}

// ExecuteSwap runs the swap as one atomic unit: validate both parties'
// spendable funds at execution time, apply all adjustments, and append
// a single DIRECT_SWAP record. A zero-amount swap (both debits zero)
// is a no-op success and returns (nil, nil).
//
// Errors: domain.ErrInvalidOperation for a self-swap, a negative
// amount, or mismatched legs; domain.ErrNotFound for an unknown party;
// domain.ErrInsufficientFunds when either debit exceeds the party's
// spendable balance; *domain.PersistenceError if the log append fails.
// ctx cancellation before commit aborts the unit with no side effects.
func (e *SwapEngine) ExecuteSwap(ctx context.Context, req SwapRequest) (*domain.LedgerRecord, error) {
	if req.PartyA == req.PartyB {
		return nil, domain.ErrInvalidOperation
	}
	for _, leg := range []Leg{req.DebitA, req.CreditA, req.DebitB, req.CreditB} {
		if leg.Amount < 0 || !domain.ValidCurrency(leg.Currency) {
			return nil, domain.ErrInvalidOperation
		}
	}
	// Legs must mirror: what A pays is what B receives, and vice versa.
	// Checked before any balance read.
	if req.DebitA != req.CreditB || req.DebitB != req.CreditA {
		return nil, domain.ErrInvalidOperation
	}
	if req.DebitA.Amount == 0 && req.DebitB.Amount == 0 {
		return nil, nil
	}

	partyA, err := e.accounts.Get(req.PartyA)
	if err != nil {
		return nil, err
	}
	partyB, err := e.accounts.Get(req.PartyB)
	if err != nil {
		return nil, err
	}

	unlock := lockAccounts(partyA, partyB)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Debits stage first so each party's own funds must cover their
	// leg; the incoming credit never subsidizes the outgoing debit.
	u := newUnit()
	if err := u.stage(partyA, req.DebitA.Currency, -req.DebitA.Amount); err != nil {
		return nil, err
	}
	if err := u.stage(partyB, req.DebitB.Currency, -req.DebitB.Amount); err != nil {
		return nil, err
	}
	if err := u.stage(partyA, req.CreditA.Currency, req.CreditA.Amount); err != nil {
		return nil, err
	}
	if err := u.stage(partyB, req.CreditB.Currency, req.CreditB.Amount); err != nil {
		return nil, err
	}

	record := &domain.LedgerRecord{
		RecordID:  uuid.New().String(),
		Type:      domain.RecordDirectSwap,
		Postings:  u.postings(),
		CreatedAt: time.Now().UTC(),
	}
	if err := e.log.Append(record); err != nil {
		return nil, err
	}
	u.apply()

	return record, nil
}
