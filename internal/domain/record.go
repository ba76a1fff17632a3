package domain

import "time"

// RecordType identifies the kind of balance-affecting event a ledger
// record describes.
type RecordType string

const (
	RecordDirectSwap    RecordType = "direct_swap"
	RecordEscrowLock    RecordType = "escrow_lock"
	RecordEscrowRefund  RecordType = "escrow_refund"
	RecordEscrowRelease RecordType = "escrow_release"
)

// Posting is one leg of a ledger record: a signed delta applied to one
// (user, currency) balance, plus the balance that resulted, kept for
// audit replay.
type Posting struct {
	UserID    string
	Currency  string
	Delta     int64 // minor units, negative for debits
	Resulting int64 // spendable balance after applying Delta
}

// LedgerRecord is one immutable entry in the transaction log. Records
// are append-only; they are never mutated or deleted. A single record
// covers every leg of the atomic unit that produced it, so a reader
// never observes a debit without its matching credit.
type LedgerRecord struct {
	RecordID  string
	Type      RecordType
	OfferID   string // empty for direct swaps
	HoldID    string // empty for direct swaps
	Postings  []Posting
	CreatedAt time.Time
}

// Involves reports whether userID appears in any posting.
func (r *LedgerRecord) Involves(userID string) bool {
	for _, p := range r.Postings {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// DeltaFor sums the record's deltas for one (user, currency) pair.
func (r *LedgerRecord) DeltaFor(userID, currency string) int64 {
	var total int64
	for _, p := range r.Postings {
		if p.UserID == userID && p.Currency == currency {
			total += p.Delta
		}
	}
	return total
}
