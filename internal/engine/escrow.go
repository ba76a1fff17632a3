package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cambial/cambio/internal/domain"
	"github.com/cambial/cambio/internal/store"
)

// EscrowManager locks, refunds, and releases funds tied to offers.
// A lock is a literal ledger debit: the amount leaves the owner's
// spendable balance the moment the hold is created, so held funds can
// never be spent twice. Refund and release are terminal transitions;
// a second call on a closed hold fails with domain.ErrInvalidState
// without moving any funds.
type EscrowManager struct {
	accounts *store.AccountStore
	holds    *store.HoldStore
	log      *store.LedgerLog
}

// NewEscrowManager creates an EscrowManager over the given stores.
func NewEscrowManager(accounts *store.AccountStore, holds *store.HoldStore, log *store.LedgerLog) *EscrowManager {
	return &EscrowManager{accounts: accounts, holds: holds, log: log}
}

// Lock debits amount from the owner's spendable balance and creates an
// ACTIVE hold, in one atomic unit. The balance check and the debit
// happen under the owner's account lock, so there is no window where
// the funds look spendable while about to be locked.
func (m *EscrowManager) Lock(ctx context.Context, owner, currency string, amount int64, offerID string) (*domain.Hold, error) {
	if amount <= 0 || !domain.ValidCurrency(currency) {
		return nil, domain.ErrInvalidOperation
	}

	acct, err := m.accounts.Get(owner)
	if err != nil {
		return nil, err
	}

	acct.Mu.Lock()
	defer acct.Mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	u := newUnit()
	if err := u.stage(acct, currency, -amount); err != nil {
		return nil, err
	}

	hold := &domain.Hold{
		HoldID:    uuid.New().String(),
		OfferID:   offerID,
		Owner:     owner,
		Currency:  currency,
		Amount:    amount,
		State:     domain.HoldStateActive,
		CreatedAt: time.Now().UTC(),
	}
	record := &domain.LedgerRecord{
		RecordID:  uuid.New().String(),
		Type:      domain.RecordEscrowLock,
		OfferID:   offerID,
		HoldID:    hold.HoldID,
		Postings:  u.postings(),
		CreatedAt: hold.CreatedAt,
	}
	if err := m.log.Append(record); err != nil {
		return nil, err
	}
	u.apply()
	m.holds.Create(hold)

	return hold, nil
}

// Refund credits the held amount back to the owner and transitions the
// hold to REFUNDED. Fails with domain.ErrInvalidState unless the hold
// is ACTIVE, so a repeated refund cannot double-credit.
func (m *EscrowManager) Refund(ctx context.Context, holdID string) (*domain.LedgerRecord, error) {
	hold, err := m.holds.Get(holdID)
	if err != nil {
		return nil, err
	}

	hold.Mu.Lock()
	defer hold.Mu.Unlock()

	if hold.State != domain.HoldStateActive {
		return nil, domain.ErrInvalidState
	}

	acct, err := m.accounts.Get(hold.Owner)
	if err != nil {
		return nil, err
	}

	acct.Mu.Lock()
	defer acct.Mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	u := newUnit()
	if err := u.stage(acct, hold.Currency, hold.Amount); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	record := &domain.LedgerRecord{
		RecordID:  uuid.New().String(),
		Type:      domain.RecordEscrowRefund,
		OfferID:   hold.OfferID,
		HoldID:    hold.HoldID,
		Postings:  u.postings(),
		CreatedAt: now,
	}
	if err := m.log.Append(record); err != nil {
		return nil, err
	}
	u.apply()
	hold.State = domain.HoldStateRefunded
	hold.ClosedAt = &now

	return record, nil
}

// Release credits the held amount to recipient and transitions the
// hold to RELEASED. Fails with domain.ErrInvalidState unless the hold
// is ACTIVE.
func (m *EscrowManager) Release(ctx context.Context, holdID, recipient string) (*domain.LedgerRecord, error) {
	return m.settle(ctx, holdID, recipient, Leg{})
}

// Settle is the offer-acceptance unit: it releases the hold to the
// taker and moves the taker's reciprocal payment to the maker, all
// inside one atomic unit, so acceptance is all-or-nothing. Fails with
// domain.ErrInsufficientFunds if the taker cannot cover the payment.
func (m *EscrowManager) Settle(ctx context.Context, holdID, taker string, payment Leg) (*domain.LedgerRecord, error) {
	if payment.Amount <= 0 || !domain.ValidCurrency(payment.Currency) {
		return nil, domain.ErrInvalidOperation
	}
	return m.settle(ctx, holdID, taker, payment)
}

// settle implements Release and Settle. A zero payment leg means a
// plain release with no counter-payment.
func (m *EscrowManager) settle(ctx context.Context, holdID, recipient string, payment Leg) (*domain.LedgerRecord, error) {
	hold, err := m.holds.Get(holdID)
	if err != nil {
		return nil, err
	}

	hold.Mu.Lock()
	defer hold.Mu.Unlock()

	if hold.State != domain.HoldStateActive {
		return nil, domain.ErrInvalidState
	}
	if recipient == hold.Owner {
		return nil, domain.ErrInvalidOperation
	}

	owner, err := m.accounts.Get(hold.Owner)
	if err != nil {
		return nil, err
	}
	recip, err := m.accounts.Get(recipient)
	if err != nil {
		return nil, err
	}

	unlock := lockAccounts(owner, recip)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	u := newUnit()
	// The recipient's payment debit stages before their escrow credit:
	// the incoming funds must not subsidize the outgoing leg.
	if payment.Amount > 0 {
		if err := u.stage(recip, payment.Currency, -payment.Amount); err != nil {
			return nil, err
		}
	}
	if err := u.stage(recip, hold.Currency, hold.Amount); err != nil {
		return nil, err
	}
	if payment.Amount > 0 {
		if err := u.stage(owner, payment.Currency, payment.Amount); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	record := &domain.LedgerRecord{
		RecordID:  uuid.New().String(),
		Type:      domain.RecordEscrowRelease,
		OfferID:   hold.OfferID,
		HoldID:    hold.HoldID,
		Postings:  u.postings(),
		CreatedAt: now,
	}
	if err := m.log.Append(record); err != nil {
		return nil, err
	}
	u.apply()
	hold.State = domain.HoldStateReleased
	hold.ClosedAt = &now

	return record, nil
}
